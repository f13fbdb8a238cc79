// Package maintenance runs scheduled database upkeep.
package maintenance

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/erazemk/borrow/internal/metrics"
	"github.com/erazemk/borrow/internal/store"
)

// sweepTimeout bounds a single sweep.
const sweepTimeout = 30 * time.Second

// Sweeper prunes token revocations that outlived their tokens.
type Sweeper struct {
	db      *sql.DB
	metrics metrics.MetricsCollector
	cron    *cron.Cron
	now     func() time.Time
}

// NewSweeper schedules a sweep on a standard five-field cron expression or a
// descriptor such as "@every 1h".
func NewSweeper(db *sql.DB, schedule string, collector metrics.MetricsCollector) (*Sweeper, error) {
	if collector == nil {
		collector = metrics.Nop{}
	}
	s := &Sweeper{
		db:      db,
		metrics: collector,
		cron:    cron.New(),
		now:     time.Now,
	}

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("parsing sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running sweeps in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
	slog.Info("sweeper started", "next", s.cron.Entries()[0].Next)
}

// Stop stops scheduling sweeps and waits for a running one to finish or
// for ctx to expire.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Sweep prunes expired revocations once and returns how many were removed.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := store.PruneRevokedTokens(ctx, s.db, s.now())
	if err != nil {
		return 0, err
	}
	s.metrics.RecordTokensPruned(n)
	return n, nil
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := s.Sweep(ctx)
	if err != nil {
		slog.Error("sweep failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("pruned revoked tokens", "count", n)
	}
}
