package subscription

import (
	"context"
	"time"

	"github.com/book-expert/logger"
)

// DefaultSweepInterval runs the expiry sweep once a day.
const DefaultSweepInterval = 24 * time.Hour

// Sweeper invokes the expiry sweep on a fixed schedule until its context is
// cancelled.
type Sweeper struct {
	meter    *Meter
	interval time.Duration
	log      *logger.Logger
}

// NewSweeper creates a sweeper. A non-positive interval falls back to the
// daily default.
func NewSweeper(meter *Meter, interval time.Duration, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &Sweeper{
		meter:    meter,
		interval: interval,
		log:      log,
	}
}

// Run sweeps immediately, then on every tick until ctx is done. Sweep
// failures are logged and the schedule continues; the sweep is idempotent so
// a missed or repeated run is harmless.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

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
	downgraded, err := s.meter.SweepExpired(ctx)
	if err != nil {
		s.log.Error("Subscription expiry sweep failed: %v", err)

		return
	}

	s.log.Info("Subscription expiry sweep completed, %d downgraded", downgraded)
}
