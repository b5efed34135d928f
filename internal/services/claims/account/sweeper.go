package account

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpiredSessionDeleter removes sessions that expired at or before now.
type ExpiredSessionDeleter interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically deletes expired sessions.
type Sweeper struct {
	store    ExpiredSessionDeleter
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewSweeper returns a sweeper that runs every interval.
func NewSweeper(store ExpiredSessionDeleter, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{store: store, interval: interval, now: time.Now, logger: logger}
}

// Run sweeps once immediately and then on every tick until ctx ends.
func (s *Sweeper) Run(ctx context.Context) {
	if s == nil || s.store == nil || s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	removed, err := s.store.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("sweep expired sessions", zap.Error(err))
		}
		return
	}
	if removed > 0 {
		s.logger.Info("expired sessions removed", zap.Int64("count", removed))
	}
}
