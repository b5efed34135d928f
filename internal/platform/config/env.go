// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ParseEnvFrom loads configuration from an explicit environment, ignoring the
// process environment. Entries are KEY=VALUE pairs as returned by os.Environ.
func ParseEnvFrom(target any, environ []string) error {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(key) == "" {
			continue
		}
		values[key] = value
	}
	if err := env.ParseWithOptions(target, env.Options{Environment: values}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
