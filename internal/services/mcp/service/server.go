package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/louisbranch/reimburse/internal/platform/timeouts"
	"github.com/louisbranch/reimburse/internal/receipt"
	"github.com/louisbranch/reimburse/internal/services/mcp/domain"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "reimburse-claims"
	// defaultHTTPAddr binds the HTTP transport to localhost unless told otherwise.
	defaultHTTPAddr = "localhost:8091"
)

// serverVersion identifies the MCP server version. Overridden at build time.
var serverVersion = "dev"

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves MCP over streamable HTTP.
	TransportHTTP TransportKind = "http"
)

// ParseTransport maps a flag value to a transport kind.
func ParseTransport(value string) (TransportKind, error) {
	switch TransportKind(strings.ToLower(strings.TrimSpace(value))) {
	case "", TransportStdio:
		return TransportStdio, nil
	case TransportHTTP:
		return TransportHTTP, nil
	default:
		return "", fmt.Errorf("transport %q is not supported", value)
	}
}

// Config configures the MCP server.
type Config struct {
	Transport TransportKind
	// HTTPAddr is used by the HTTP transport. Defaults to localhost:8091.
	HTTPAddr  string
	Extractor *receipt.Extractor
	Logger    *zap.Logger
}

// Server hosts the claims MCP tools.
type Server struct {
	mcpServer *mcp.Server
	logger    *zap.Logger
}

// New registers the claims tools on a fresh MCP server.
func New(extractor *receipt.Extractor, logger *zap.Logger) (*Server, error) {
	if extractor == nil {
		return nil, errors.New("receipt extractor is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	mcp.AddTool(mcpServer, domain.ExtractReceiptTool(), domain.ExtractReceiptHandler(extractor))
	mcp.AddTool(mcpServer, domain.ListCategoriesTool(), domain.ListCategoriesHandler(extractor.Policies))
	mcp.AddTool(mcpServer, domain.ClaimTotalsTool(), domain.ClaimTotalsHandler())
	return &Server{mcpServer: mcpServer, logger: logger}, nil
}

// Run serves MCP on the configured transport until ctx is done.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg.Extractor, cfg.Logger)
	if err != nil {
		return err
	}
	switch cfg.Transport {
	case "", TransportStdio:
		server.logger.Info("serving MCP", zap.String("transport", string(TransportStdio)))
		return server.serveWithTransport(ctx, &mcp.StdioTransport{})
	case TransportHTTP:
		listener, err := net.Listen("tcp", httpAddr(cfg.HTTPAddr))
		if err != nil {
			return fmt.Errorf("listen on %s: %w", httpAddr(cfg.HTTPAddr), err)
		}
		return server.serveHTTP(ctx, listener)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

func httpAddr(addr string) string {
	if strings.TrimSpace(addr) == "" {
		return defaultHTTPAddr
	}
	return addr
}

// serveWithTransport serves one MCP session until the client disconnects or
// ctx is done.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// Handler returns the streamable HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}

// serveHTTP serves the streamable HTTP transport on listener until ctx is done.
func (s *Server) serveHTTP(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: timeouts.ReadHeader,
		IdleTimeout:       timeouts.Idle,
	}
	s.logger.Info("serving MCP", zap.String("transport", string(TransportHTTP)), zap.String("addr", listener.Addr().String()))

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown MCP HTTP server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve MCP HTTP: %w", err)
	}
}
