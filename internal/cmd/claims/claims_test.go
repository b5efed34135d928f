package claims

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("claims", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != "localhost:8090" {
		t.Fatalf("expected default http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.DBPath != "data/claims.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.SessionTTL != 168*time.Hour {
		t.Fatalf("expected default session ttl, got %v", cfg.SessionTTL)
	}
	if cfg.SweepInterval != 5*time.Minute {
		t.Fatalf("expected default sweep interval, got %v", cfg.SweepInterval)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.Logging.Level)
	}
	if cfg.Company.Name == "" {
		t.Fatal("expected default company name")
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("REIMBURSE_HTTP_ADDR", "env:9000")
	t.Setenv("REIMBURSE_TOKEN_SECRET", "from-env")
	t.Setenv("REIMBURSE_COMPANY_NAME", "Acme Travel")
	t.Setenv("REIMBURSE_OTEL_ENDPOINT", "http://collector:4318")

	fs := flag.NewFlagSet("claims", flag.ContinueOnError)
	args := []string{"-http-addr", "flag:9001", "-session-ttl", "1h", "-trust-proxy", "-log-level", "debug"}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != "flag:9001" {
		t.Fatalf("expected flag http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.TokenSecret != "from-env" {
		t.Fatalf("expected env token secret, got %q", cfg.TokenSecret)
	}
	if cfg.SessionTTL != time.Hour {
		t.Fatalf("expected session ttl 1h, got %v", cfg.SessionTTL)
	}
	if !cfg.TrustProxy {
		t.Fatal("expected trust proxy")
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected log level debug, got %q", cfg.Logging.Level)
	}
	if cfg.Company.Name != "Acme Travel" {
		t.Fatalf("expected company from env, got %q", cfg.Company.Name)
	}
	if cfg.Tracing.Endpoint != "http://collector:4318" {
		t.Fatalf("expected otel endpoint from env, got %q", cfg.Tracing.Endpoint)
	}
}

func TestParseConfigRejectsBadDuration(t *testing.T) {
	t.Setenv("REIMBURSE_SESSION_TTL", "forever")
	fs := flag.NewFlagSet("claims", flag.ContinueOnError)
	if _, err := ParseConfig(fs, nil); err == nil {
		t.Fatal("expected error for bad duration")
	}
}
