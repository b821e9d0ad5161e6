package cache

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
	"github.com/ardiansyah/talent-match/internal/config"
)

// Expirer deletes artifact rows generated before a cutoff. Each artifact
// repository implements it for its own table.
type Expirer interface {
	DeleteGeneratedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type sweepTarget struct {
	name    string
	expirer Expirer
	maxAge  time.Duration
}

// Sweeper periodically hard-deletes artifact rows older than their hard
// expiry, independent of request-path invalidation. Stale rows the
// application forgot to refresh do not live forever.
type Sweeper struct {
	targets  []sweepTarget
	interval time.Duration
	clock    clock.Clock
	log      *logrus.Entry
}

func NewSweeper(cfg *config.CacheConfig, clk clock.Clock) *Sweeper {
	if clk == nil {
		clk = clock.New()
	}
	return &Sweeper{
		interval: cfg.SweepInterval,
		clock:    clk,
		log:      logrus.WithField("component", "cache-sweeper"),
	}
}

// Track registers one artifact table for expiry.
func (s *Sweeper) Track(name string, e Expirer, maxAge time.Duration) {
	s.targets = append(s.targets, sweepTarget{name: name, expirer: e, maxAge: maxAge})
}

// Run sweeps on the configured interval until the context is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := s.clock.Ticker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one expiry pass over every tracked table.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := s.clock.Now()
	for _, t := range s.targets {
		deleted, err := t.expirer.DeleteGeneratedBefore(ctx, now.Add(-t.maxAge))
		if err != nil {
			s.log.WithError(err).WithField("table", t.name).Error("expiry sweep failed")
			continue
		}
		if deleted > 0 {
			s.log.WithFields(logrus.Fields{
				"table":   t.name,
				"deleted": deleted,
				"max_age": t.maxAge,
			}).Info("expired stale cache rows")
		}
	}
}
