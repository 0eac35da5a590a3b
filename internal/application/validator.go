package application

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/halcyra/oracle-validator-cli/internal/domain"
	"github.com/halcyra/oracle-validator-cli/internal/ports"
	"github.com/halcyra/oracle-validator-cli/internal/retry"
)

// Validator decides a local verdict for each record and submits it. A failed
// submission becomes a failed outcome, never an error: one record must not
// abort its batch.
type Validator struct {
	api      ports.OracleAPI
	clock    ports.Clock
	retryCfg retry.Config
	log      logrus.FieldLogger
}

func NewValidator(api ports.OracleAPI, clock ports.Clock, retryCfg retry.Config, log logrus.FieldLogger) *Validator {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Validator{api: api, clock: clock, retryCfg: retryCfg, log: log}
}

// Verdict is the pure local judgment, independent of network I/O.
func (v *Validator) Verdict(record domain.PriceRecord) bool {
	return record.Verdict(v.clock.Now())
}

// Submit sends one {msg_hash, verdict} judgment through the retrier.
func (v *Validator) Submit(ctx context.Context, accessToken string, record domain.PriceRecord, verdict bool, proxy string) domain.ValidationOutcome {
	outcome := domain.ValidationOutcome{MsgHash: record.MsgHash, Valid: verdict}

	_, err := retry.Do(ctx, v.retryCfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, v.api.SubmitValidation(ctx, accessToken, record.MsgHash, verdict, proxy)
	})
	if err != nil {
		outcome.Err = err.Error()
		v.log.WithError(err).
			WithField("asset", record.Asset).
			WithField("msg_hash", record.MsgHash).
			Warn("validation submission failed")
		return outcome
	}

	outcome.Submitted = true
	v.log.WithField("asset", record.Asset).
		WithField("valid", verdict).
		Debug("validation submitted")
	return outcome
}
