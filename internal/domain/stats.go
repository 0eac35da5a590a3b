package domain

import "time"

// StatsSnapshot holds the server-reported cumulative validation counters at
// one point in time.
type StatsSnapshot struct {
	ValidCount   int64
	InvalidCount int64
	CapturedAt   time.Time
}

type StatsDelta struct {
	Valid   int64
	Invalid int64
}

// Sub returns the counter movement since prev.
func (s StatsSnapshot) Sub(prev StatsSnapshot) StatsDelta {
	return StatsDelta{
		Valid:   s.ValidCount - prev.ValidCount,
		Invalid: s.InvalidCount - prev.InvalidCount,
	}
}

func (d StatsDelta) Total() int64 {
	return d.Valid + d.Invalid
}

// AccountInfo is the lightweight /me view kept for display.
type AccountInfo struct {
	Email          string
	UserID         string
	Stats          StatsSnapshot
	LastVerifiedAt time.Time
}
