package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "val***tor@example.com", MaskEmail("validator@example.com"))
	assert.Equal(t, "***@example.com", MaskEmail("bob@example.com"))
	assert.Equal(t, "abc***xyz", MaskEmail("abcdefghijklmnopqrstuvwxyz"))
}

func TestSessionFresh(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	fresh := Session{AccessToken: "tok", ExpiresAt: now.Add(30 * time.Minute)}
	assert.True(t, fresh.Fresh(now, time.Minute))

	assert.False(t, Session{ExpiresAt: now.Add(time.Hour)}.Fresh(now, 0), "empty access token is never fresh")
	assert.False(t, Session{AccessToken: "tok"}.Fresh(now, 0), "zero expiry is never fresh")
	assert.False(t, Session{AccessToken: "tok", ExpiresAt: now.Add(30 * time.Second)}.Fresh(now, time.Minute), "skew window counts as expired")
}

func TestPriceRecordVerdict(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		record PriceRecord
		want   bool
	}{
		{name: "complete fresh record", record: PriceRecord{Asset: "BTCUSD", MsgHash: "0xabc", Price: 64250.5, Timestamp: now.Add(-time.Minute)}, want: true},
		{name: "missing msg hash", record: PriceRecord{Asset: "BTCUSD", Price: 64250.5, Timestamp: now.Add(-time.Minute)}, want: false},
		{name: "missing price", record: PriceRecord{Asset: "BTCUSD", MsgHash: "0xabc", Timestamp: now.Add(-time.Minute)}, want: false},
		{name: "missing timestamp", record: PriceRecord{Asset: "BTCUSD", MsgHash: "0xabc", Price: 64250.5}, want: false},
		{name: "exactly at freshness threshold", record: PriceRecord{Asset: "BTCUSD", MsgHash: "0xabc", Price: 64250.5, Timestamp: now.Add(-60 * time.Minute)}, want: true},
		{name: "61 minutes old", record: PriceRecord{Asset: "BTCUSD", MsgHash: "0xabc", Price: 64250.5, Timestamp: now.Add(-61 * time.Minute)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.Verdict(now))
		})
	}
}

func TestStatsSnapshotSub(t *testing.T) {
	prev := StatsSnapshot{ValidCount: 10, InvalidCount: 2}
	after := StatsSnapshot{ValidCount: 14, InvalidCount: 2}

	delta := after.Sub(prev)
	assert.Equal(t, StatsDelta{Valid: 4, Invalid: 0}, delta)
	assert.Equal(t, int64(4), delta.Total())
}

func TestAccountValidate(t *testing.T) {
	require.NoError(t, Account{Email: "a@b.c", Password: "pw"}.Validate())

	assert.ErrorIs(t, Account{Email: "", Password: "pw"}.Validate(), ErrConfigInvalid)
	assert.ErrorIs(t, Account{Email: "not-an-email", Password: "pw"}.Validate(), ErrConfigInvalid)
	assert.ErrorIs(t, Account{Email: "a@b.c"}.Validate(), ErrConfigInvalid)
}

func TestRetryableClassification(t *testing.T) {
	assert.True(t, Retryable(ErrRateLimited))
	assert.True(t, Retryable(fmt.Errorf("fetch: %w", ErrNetworkTransient)))
	assert.False(t, Retryable(ErrUnauthorized))
	assert.False(t, Retryable(ErrCredentialRejected))
	assert.False(t, Retryable(errors.New("decode payload")))
}
