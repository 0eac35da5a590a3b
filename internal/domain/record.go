package domain

import "time"

// MaxRecordAge is the freshness threshold past which a signed price is
// judged invalid locally.
const MaxRecordAge = 60 * time.Minute

// PriceRecord is one oracle data point pending validation. Immutable once
// fetched; consumed exactly once per cycle.
type PriceRecord struct {
	Asset     string
	MsgHash   string
	Price     float64
	Timestamp time.Time
}

// Verdict is the local valid/invalid judgment for a record, decided without
// network I/O. A record is invalid when any required field is missing or the
// record is older than MaxRecordAge.
func (r PriceRecord) Verdict(now time.Time) bool {
	if r.MsgHash == "" || r.Price == 0 || r.Timestamp.IsZero() {
		return false
	}
	return now.Sub(r.Timestamp) <= MaxRecordAge
}

// ValidationOutcome is the result of submitting one record. Created by a
// worker, aggregated by the scheduler, never mutated after creation.
type ValidationOutcome struct {
	MsgHash   string
	Valid     bool
	Submitted bool
	Err       string
}
