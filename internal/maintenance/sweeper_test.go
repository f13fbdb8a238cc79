package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/borrow/internal/db"
	"github.com/erazemk/borrow/internal/metrics"
	"github.com/erazemk/borrow/internal/store"
)

func TestSweepPrunesExpired(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	reg := prometheus.NewRegistry()

	s, err := NewSweeper(database, "@every 1h", metrics.NewCollector(reg))
	require.NoError(t, err)

	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, store.RevokeToken(ctx, database, "old", now.Add(-time.Minute)))
	require.NoError(t, store.RevokeToken(ctx, database, "fresh", now.Add(time.Hour)))

	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	revoked, err := store.IsTokenRevoked(ctx, database, "fresh")
	require.NoError(t, err)
	assert.True(t, revoked)

	count, err := testutil.GatherAndCount(reg, "borrow_revoked_tokens_pruned_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewSweeperRejectsBadSchedule(t *testing.T) {
	_, err := NewSweeper(db.NewTestDB(t), "whenever", nil)
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	s, err := NewSweeper(db.NewTestDB(t), "*/5 * * * *", nil)
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
