// Package claims parses claims service flags and launches the service.
package claims

import (
	"context"
	"flag"
	"time"

	"github.com/louisbranch/reimburse/internal/claim/sheet"
	entrypoint "github.com/louisbranch/reimburse/internal/platform/cmd"
	"github.com/louisbranch/reimburse/internal/platform/logging"
	"github.com/louisbranch/reimburse/internal/platform/otel"
	server "github.com/louisbranch/reimburse/internal/services/claims/app"
)

// Config holds claims command configuration.
type Config struct {
	HTTPAddr      string        `env:"REIMBURSE_HTTP_ADDR" envDefault:"localhost:8090"`
	GRPCAddr      string        `env:"REIMBURSE_GRPC_ADDR"`
	DBPath        string        `env:"REIMBURSE_DB_PATH" envDefault:"data/claims.db"`
	TokenSecret   string        `env:"REIMBURSE_TOKEN_SECRET"`
	SessionTTL    time.Duration `env:"REIMBURSE_SESSION_TTL" envDefault:"168h"`
	SweepInterval time.Duration `env:"REIMBURSE_SWEEP_INTERVAL" envDefault:"5m"`
	PolicyPath    string        `env:"REIMBURSE_POLICY_PATH"`
	RefineScript  string        `env:"REIMBURSE_REFINE_SCRIPT"`
	TrustProxy    bool          `env:"REIMBURSE_TRUST_PROXY"`

	Logging logging.Settings
	Tracing otel.Settings
	Company sheet.Company
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "gRPC health listen address (empty disables)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "Session lifetime")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "Expired session sweep interval")
	fs.StringVar(&cfg.PolicyPath, "policies", cfg.PolicyPath, "Receipt policy YAML file (empty uses built-in policies)")
	fs.StringVar(&cfg.RefineScript, "refine-script", cfg.RefineScript, "Lua script that refines extraction results")
	fs.BoolVar(&cfg.TrustProxy, "trust-proxy", cfg.TrustProxy, "Trust X-Forwarded-Proto for secure cookies")
	fs.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "Log level: debug, info, warn or error")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the claims HTTP service.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(entrypoint.ServiceClaims, cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceClaims, entrypoint.RunOptions{
		Tracing: cfg.Tracing,
		Logger:  logger,
	}, func(ctx context.Context) error {
		return server.Run(ctx, server.Config{
			HTTPAddr:      cfg.HTTPAddr,
			GRPCAddr:      cfg.GRPCAddr,
			DBPath:        cfg.DBPath,
			TokenSecret:   cfg.TokenSecret,
			SessionTTL:    cfg.SessionTTL,
			SweepInterval: cfg.SweepInterval,
			PolicyPath:    cfg.PolicyPath,
			RefineScript:  cfg.RefineScript,
			TrustProxy:    cfg.TrustProxy,
			Company:       cfg.Company,
			Logger:        logger,
		})
	})
}
