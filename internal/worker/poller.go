package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultPollInterval is the dashboard refresh period.
const DefaultPollInterval = 30 * time.Second

// Poller re-issues a collection fetch on a fixed interval. Ticks while the
// dashboard is not visible are skipped. A failed tick is only logged; the
// next tick simply tries again.
type Poller struct {
	Interval time.Duration
	Visible  func() bool
	Fetch    func(ctx context.Context) error
	Logger   *zap.Logger
}

// Run blocks until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx, logger)
		}
	}
}

// Start runs the poller in a goroutine. The returned channel closes when it
// has stopped.
func (p *Poller) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()
	return done
}

func (p *Poller) tick(ctx context.Context, logger *zap.Logger) {
	if p.Visible != nil && !p.Visible() {
		logger.Debug("poll skipped, dashboard not visible")
		return
	}
	if p.Fetch == nil {
		return
	}
	if err := p.Fetch(ctx); err != nil {
		logger.Debug("poll failed", zap.Error(err))
	}
}
