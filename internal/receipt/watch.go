package receipt

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// PolicyWatcher reloads a policy file whenever it is written or replaced.
type PolicyWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger
}

// NewPolicyWatcher starts watching the directory holding path so that
// editors replacing the file by rename are still seen.
func NewPolicyWatcher(path string, logger *zap.Logger) (*PolicyWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve policy path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &PolicyWatcher{path: abs, watcher: watcher, logger: logger}, nil
}

// Run delivers every successfully compiled reload to onReload until ctx
// ends. Files that fail to load are logged and skipped. The watcher is
// closed when Run returns.
func (w *PolicyWatcher) Run(ctx context.Context, onReload func(*PolicySet)) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			set, err := LoadPolicyFile(w.path)
			if err != nil {
				w.logger.Warn("policy reload rejected", zap.String("path", w.path), zap.Error(err))
				continue
			}
			w.logger.Info("policies reloaded", zap.String("path", w.path), zap.Int("categories", len(set.Categories())))
			onReload(set)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("policy watcher error", zap.Error(err))
		}
	}
}

// WatchPolicies keeps extractor in sync with the policy file at path until
// ctx ends.
func WatchPolicies(ctx context.Context, path string, extractor *Extractor, logger *zap.Logger) error {
	watcher, err := NewPolicyWatcher(path, logger)
	if err != nil {
		return err
	}
	return watcher.Run(ctx, extractor.SetPolicies)
}
