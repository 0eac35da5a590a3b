package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyra/oracle-validator-cli/internal/ports"
)

func newTempHistory(t *testing.T) *History {
	t.Helper()

	h, err := New(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestRecordAndListCycles(t *testing.T) {
	h := newTempHistory(t)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, h.RecordCycle(ctx, ports.CycleSummary{
			Account:      "val***tor@example.com",
			Records:      7,
			Successes:    6,
			Failures:     1,
			DeltaValid:   6,
			DeltaInvalid: 0,
			StartedAt:    started.Add(time.Duration(i) * 5 * time.Minute),
			FinishedAt:   started.Add(time.Duration(i)*5*time.Minute + time.Minute),
		}))
	}

	summaries, err := h.RecentCycles(ctx, 2)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Most recent first.
	assert.True(t, summaries[0].FinishedAt.After(summaries[1].FinishedAt))
	assert.Equal(t, 7, summaries[0].Records)
	assert.Equal(t, 6, summaries[0].Successes)
	assert.Equal(t, int64(6), summaries[0].DeltaValid)
}

func TestRecentCyclesEmptyDatabase(t *testing.T) {
	h := newTempHistory(t)

	summaries, err := h.RecentCycles(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestRecentCyclesDefaultLimit(t *testing.T) {
	h := newTempHistory(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		require.NoError(t, h.RecordCycle(ctx, ports.CycleSummary{
			Account:    "a@b.c",
			StartedAt:  time.Now().Add(time.Duration(-i) * time.Minute),
			FinishedAt: time.Now().Add(time.Duration(-i) * time.Minute),
		}))
	}

	summaries, err := h.RecentCycles(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, summaries, 20)
}
