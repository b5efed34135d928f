package receipt

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPolicyWatcherReloadsValidFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.yaml")
	if err := os.WriteFile(path, defaultPolicies, 0o600); err != nil {
		t.Fatalf("write policies: %v", err)
	}

	watcher, err := NewPolicyWatcher(path, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	reloaded := make(chan *PolicySet, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watcher.Run(ctx, func(set *PolicySet) { reloaded <- set })
	}()
	defer func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	}()

	if err := os.WriteFile(path, []byte("date_pattern: ["), 0o600); err != nil {
		t.Fatalf("write broken policies: %v", err)
	}
	if err := os.WriteFile(path, []byte(minimalPolicies), 0o600); err != nil {
		t.Fatalf("write policies: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case set := <-reloaded:
			if set.Has("Fuel") {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for policy reload")
		}
	}
}

func TestWatchPoliciesSwapsExtractorPolicies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.yaml")
	if err := os.WriteFile(path, defaultPolicies, 0o600); err != nil {
		t.Fatalf("write policies: %v", err)
	}
	extractor := NewExtractor(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- WatchPolicies(ctx, path, extractor, nil) }()
	defer func() {
		cancel()
		<-done
	}()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		// Rewrite until the watcher has been registered and picks it up.
		if err := os.WriteFile(path, []byte(minimalPolicies), 0o600); err != nil {
			t.Fatalf("write policies: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
		if extractor.Policies().Has("Fuel") {
			return
		}
	}
	t.Fatal("extractor policies were not swapped")
}

func TestNewPolicyWatcherMissingDirectory(t *testing.T) {
	if _, err := NewPolicyWatcher(filepath.Join(t.TempDir(), "nope", "policies.yaml"), nil); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
