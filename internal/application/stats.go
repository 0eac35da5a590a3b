package application

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/halcyra/oracle-validator-cli/internal/domain"
)

// StatsReconciler tracks one account's server-side counters across cycles and
// turns each fresh snapshot into a delta against the previous one. The server
// is the source of truth; local outcomes only cross-check it.
type StatsReconciler struct {
	mu       sync.Mutex
	email    string
	seeded   bool
	previous domain.StatsSnapshot
	log      logrus.FieldLogger
}

func NewStatsReconciler(email string, log logrus.FieldLogger) *StatsReconciler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &StatsReconciler{email: email, log: log}
}

// Seed establishes the baseline snapshot. Only the first call takes effect,
// so a later cycle cannot reset the baseline mid-run.
func (r *StatsReconciler) Seed(snapshot domain.StatsSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seeded {
		return
	}
	r.seeded = true
	r.previous = snapshot
	r.log.WithField("account", domain.MaskEmail(r.email)).
		WithField("valid", snapshot.ValidCount).
		WithField("invalid", snapshot.InvalidCount).
		Debug("stats baseline seeded")
}

// Reconcile computes the delta from the previous snapshot to after and
// advances the baseline. When the cycle submitted successfully but the server
// counters did not move, the submissions were silently lost and a warning is
// emitted.
func (r *StatsReconciler) Reconcile(after domain.StatsSnapshot, localSuccesses int) domain.StatsDelta {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.seeded {
		r.seeded = true
		r.previous = after
		return domain.StatsDelta{}
	}

	delta := after.Sub(r.previous)
	r.previous = after

	fields := logrus.Fields{
		"account":       domain.MaskEmail(r.email),
		"delta_valid":   delta.Valid,
		"delta_invalid": delta.Invalid,
		"valid_total":   after.ValidCount,
		"invalid_total": after.InvalidCount,
	}
	if localSuccesses > 0 && delta.Total() == 0 {
		r.log.WithFields(fields).
			WithField("local_successes", localSuccesses).
			Warn("submissions accepted locally but server counters did not move")
	} else {
		r.log.WithFields(fields).Info("cycle stats reconciled")
	}
	return delta
}

// Baseline returns the snapshot deltas are currently computed against.
func (r *StatsReconciler) Baseline() domain.StatsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.previous
}
