// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"
	"strings"

	"go.uber.org/zap"

	entrypoint "github.com/louisbranch/reimburse/internal/platform/cmd"
	"github.com/louisbranch/reimburse/internal/platform/logging"
	"github.com/louisbranch/reimburse/internal/platform/otel"
	"github.com/louisbranch/reimburse/internal/receipt"
	mcpservice "github.com/louisbranch/reimburse/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	HTTPAddr     string `env:"REIMBURSE_MCP_HTTP_ADDR"  envDefault:"localhost:8091"`
	Transport    string `env:"REIMBURSE_MCP_TRANSPORT"  envDefault:"stdio"`
	PolicyPath   string `env:"REIMBURSE_POLICY_PATH"`
	RefineScript string `env:"REIMBURSE_REFINE_SCRIPT"`

	Logging logging.Settings
	Tracing otel.Settings
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.PolicyPath, "policies", cfg.PolicyPath, "Receipt policy YAML file (empty uses built-in policies)")
	fs.StringVar(&cfg.RefineScript, "refine-script", cfg.RefineScript, "Lua script that refines extraction results")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if _, err := mcpservice.ParseTransport(cfg.Transport); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter. Logs go to stderr so stdio stays
// reserved for the protocol.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(entrypoint.ServiceMCP, cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	transport, err := mcpservice.ParseTransport(cfg.Transport)
	if err != nil {
		return err
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, entrypoint.RunOptions{
		Tracing: cfg.Tracing,
		Logger:  logger,
	}, func(ctx context.Context) error {
		extractor, err := receipt.LoadExtractor(cfg.PolicyPath, cfg.RefineScript, receipt.WithLogger(logger))
		if err != nil {
			return err
		}
		if path := strings.TrimSpace(cfg.PolicyPath); path != "" {
			go func() {
				if err := receipt.WatchPolicies(ctx, path, extractor, logger); err != nil {
					logger.Warn("policy watch stopped", zap.Error(err))
				}
			}()
		}
		return mcpservice.Run(ctx, mcpservice.Config{
			Transport: transport,
			HTTPAddr:  cfg.HTTPAddr,
			Extractor: extractor,
			Logger:    logger,
		})
	})
}
