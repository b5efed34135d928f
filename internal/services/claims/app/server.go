// Package server wires the claims runtime: storage, accounts, receipt
// extraction, the HTTP API and an optional gRPC health endpoint.
package server

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/louisbranch/reimburse/internal/claim/sheet"
	platformgrpc "github.com/louisbranch/reimburse/internal/platform/grpc"
	"github.com/louisbranch/reimburse/internal/platform/telemetry/metrics"
	"github.com/louisbranch/reimburse/internal/platform/timeouts"
	"github.com/louisbranch/reimburse/internal/receipt"
	"github.com/louisbranch/reimburse/internal/services/claims/account"
	"github.com/louisbranch/reimburse/internal/services/claims/api/web"
	"github.com/louisbranch/reimburse/internal/services/claims/platform/requestmeta"
	"github.com/louisbranch/reimburse/internal/services/claims/storage/sqlite"
)

// HealthService is the gRPC health service name reported by the server.
const HealthService = "reimburse.claims"

// Config holds everything the server needs to start.
type Config struct {
	HTTPAddr      string
	GRPCAddr      string
	DBPath        string
	TokenSecret   string
	SessionTTL    time.Duration
	SweepInterval time.Duration
	PolicyPath    string
	RefineScript  string
	TrustProxy    bool
	Company       sheet.Company
	Logger        *zap.Logger
}

// Server hosts the claims HTTP API and its background workers.
type Server struct {
	listener     net.Listener
	httpServer   *http.Server
	grpcListener net.Listener
	health       *platformgrpc.HealthServer
	store        *sqlite.Store
	sweeper      *account.Sweeper
	policies     *receipt.PolicyWatcher
	extractor    *receipt.Extractor
	logger       *zap.Logger
}

// New opens storage, builds the services and binds the listeners.
func New(ctx context.Context, cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	secret, err := tokenSecret(cfg.TokenSecret, logger)
	if err != nil {
		return nil, err
	}

	store, err := openClaimsStore(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	s := &Server{store: store, logger: logger}
	fail := func(err error) (*Server, error) {
		s.Close()
		return nil, err
	}

	registry := metrics.New()
	extractorOpts := []receipt.Option{receipt.WithLogger(logger), receipt.WithObserver(registry)}
	policies := receipt.DefaultPolicies()
	if path := strings.TrimSpace(cfg.PolicyPath); path != "" {
		if policies, err = receipt.LoadPolicyFile(path); err != nil {
			return fail(err)
		}
		if s.policies, err = receipt.NewPolicyWatcher(path, logger); err != nil {
			return fail(err)
		}
	}
	if path := strings.TrimSpace(cfg.RefineScript); path != "" {
		hook, err := receipt.LoadScript(path)
		if err != nil {
			return fail(err)
		}
		extractorOpts = append(extractorOpts, receipt.WithHook(hook))
	}
	s.extractor = receipt.NewExtractor(policies, extractorOpts...)

	accounts, err := account.NewService(store, secret,
		account.WithSessionTTL(cfg.SessionTTL),
		account.WithLogger(logger),
	)
	if err != nil {
		return fail(err)
	}
	s.sweeper = account.NewSweeper(store, cfg.SweepInterval, logger)

	handler, err := web.NewHandler(web.Config{
		Accounts:     accounts,
		Store:        store,
		Extractor:    s.extractor,
		Company:      cfg.Company,
		Metrics:      registry,
		Logger:       logger,
		Scheme:       requestmeta.SchemePolicy{TrustForwardedProto: cfg.TrustProxy},
		AssetVersion: fmt.Sprintf("%x", time.Now().Unix()),
	})
	if err != nil {
		return fail(err)
	}

	if s.listener, err = net.Listen("tcp", cfg.HTTPAddr); err != nil {
		return fail(fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err))
	}
	s.httpServer = &http.Server{
		Handler:           handler.Routes(),
		ReadHeaderTimeout: timeouts.ReadHeader,
		WriteTimeout:      timeouts.Write,
		IdleTimeout:       timeouts.Idle,
		ErrorLog:          zap.NewStdLog(logger),
	}

	if addr := strings.TrimSpace(cfg.GRPCAddr); addr != "" {
		if s.grpcListener, err = net.Listen("tcp", addr); err != nil {
			return fail(fmt.Errorf("listen on %s: %w", addr, err))
		}
		s.health = platformgrpc.NewHealthServer(HealthService)
	}
	return s, nil
}

// Addr returns the HTTP listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// GRPCAddr returns the health listener address, or "" when disabled.
func (s *Server) GRPCAddr() string {
	if s == nil || s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// Run creates and serves a claims server until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs the HTTP server, the health server and the workers until ctx
// ends or a server fails.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	// Workers stop before the store closes.
	var workers sync.WaitGroup
	defer workers.Wait()
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	workers.Go(func() {
		s.sweeper.Run(workerCtx)
	})
	if s.policies != nil {
		workers.Go(func() {
			if err := s.policies.Run(workerCtx, s.extractor.SetPolicies); err != nil {
				s.logger.Warn("policy watcher stopped", zap.Error(err))
			}
		})
	}

	serveErr := make(chan error, 2)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()
	if s.health != nil {
		go func() {
			serveErr <- s.health.Serve(s.grpcListener)
		}()
		s.health.SetServing(true, HealthService)
		s.logger.Info("health server listening", zap.String("addr", s.GRPCAddr()))
	}
	s.logger.Info("claims server listening", zap.String("addr", s.Addr()))

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}

	if s.health != nil {
		s.health.SetServing(false, HealthService)
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Shutdown)
	defer cancel()
	if shutdownErr := s.httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		s.logger.Warn("http shutdown", zap.Error(shutdownErr))
	}
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("serve: %w", err)
}

// Close releases server resources. It is safe to call more than once.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Stop()
		s.health = nil
	}
	if s.grpcListener != nil {
		_ = s.grpcListener.Close()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("close claims store", zap.Error(err))
		}
		s.store = nil
	}
}

func openClaimsStore(ctx context.Context, path string) (*sqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join("data", "claims.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open claims store: %w", err)
	}
	return store, nil
}

// tokenSecret returns the configured signing secret, or a random one that
// lasts for this process only.
func tokenSecret(configured string, logger *zap.Logger) ([]byte, error) {
	if secret := strings.TrimSpace(configured); secret != "" {
		return []byte(secret), nil
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate token secret: %w", err)
	}
	logger.Warn("REIMBURSE_TOKEN_SECRET is empty; sessions will not survive a restart")
	return secret, nil
}
