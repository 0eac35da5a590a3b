package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyra/oracle-validator-cli/internal/domain"
)

func TestRenderSingleAccount(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	output, err := Render([]domain.AccountInfo{
		{
			Email:  "validator@example.com",
			UserID: "usr-1",
			Stats: domain.StatsSnapshot{
				ValidCount:   140,
				InvalidCount: 3,
				CapturedAt:   now.Add(-2 * time.Minute),
			},
			LastVerifiedAt: time.Date(2026, 2, 20, 9, 30, 0, 0, time.UTC),
		},
	}, RenderOptions{Now: now, StaleAfter: 15 * time.Minute})

	require.NoError(t, err)
	assert.Contains(t, output, "accounts: 1")
	assert.Contains(t, output, "validator@example.com (usr-1)")
	assert.Contains(t, output, "140 valid")
	assert.Contains(t, output, "3 invalid")
	assert.Contains(t, output, "verified: 2026-02-20 09:30 UTC")
	assert.Contains(t, output, "[")
	assert.Contains(t, output, "]")
	assert.NotContains(t, output, "stale")
}

func TestRenderMarksStaleSnapshots(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	output, err := Render([]domain.AccountInfo{
		{
			Email: "validator@example.com",
			Stats: domain.StatsSnapshot{
				ValidCount: 5,
				CapturedAt: now.Add(-time.Hour),
			},
		},
	}, RenderOptions{Now: now, StaleAfter: 15 * time.Minute})

	require.NoError(t, err)
	assert.Contains(t, output, "[stale]")
}

func TestRenderEmpty(t *testing.T) {
	output, err := Render(nil, RenderOptions{})
	require.NoError(t, err)
	assert.Contains(t, output, "accounts: 0")
	assert.Contains(t, output, "No account snapshots available.")
}

func TestRatioBarProportions(t *testing.T) {
	s := newStyles()

	full := renderRatioBar(10, 10, 10, s)
	assert.Contains(t, full, "==========")

	empty := renderRatioBar(0, 10, 10, s)
	assert.Contains(t, empty, "----------")

	none := renderRatioBar(0, 0, 10, s)
	assert.Contains(t, none, "----------", "no validations renders an empty bar")
}
