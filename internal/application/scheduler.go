package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/halcyra/oracle-validator-cli/internal/domain"
)

const defaultSettleDelay = time.Second

// BatchScheduler fans submissions out across bounded concurrency: records
// are split into at most maxConcurrency consecutive chunks, each chunk runs
// its records in parallel, and chunks execute strictly in sequence with a
// settle delay between them.
type BatchScheduler struct {
	validator   *Validator
	settleDelay time.Duration
	log         logrus.FieldLogger
}

func NewBatchScheduler(validator *Validator, log logrus.FieldLogger) *BatchScheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BatchScheduler{
		validator:   validator,
		settleDelay: defaultSettleDelay,
		log:         log,
	}
}

// RunCycle submits every record exactly once and returns one outcome per
// input record, in input order. Worker failures and panics become failed
// outcomes; the cycle always completes.
func (s *BatchScheduler) RunCycle(ctx context.Context, accessToken string, records []domain.PriceRecord, proxyPool []string, maxConcurrency int) []domain.ValidationOutcome {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	outcomes := make([]domain.ValidationOutcome, len(records))
	if len(records) == 0 {
		return outcomes
	}

	chunkSize := (len(records) + maxConcurrency - 1) / maxConcurrency

	chunkIndex := 0
	for start := 0; start < len(records); start += chunkSize {
		end := min(start+chunkSize, len(records))

		proxy := ""
		if len(proxyPool) > 0 {
			proxy = proxyPool[chunkIndex%len(proxyPool)]
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				outcomes[i] = s.runWorker(ctx, accessToken, records[i], proxy)
			}(i)
		}
		wg.Wait()

		chunkIndex++
		if end < len(records) {
			select {
			case <-ctx.Done():
				// Remaining records are marked failed below rather
				// than silently dropped.
				for i := end; i < len(records); i++ {
					outcomes[i] = domain.ValidationOutcome{MsgHash: records[i].MsgHash, Err: ctx.Err().Error()}
				}
				return outcomes
			case <-time.After(s.settleDelay):
			}
		}
	}

	return outcomes
}

// runWorker executes one record's validation end to end. Each worker gets an
// immutable token and proxy snapshot and reports exactly one outcome.
func (s *BatchScheduler) runWorker(ctx context.Context, accessToken string, record domain.PriceRecord, proxy string) (outcome domain.ValidationOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = domain.ValidationOutcome{
				MsgHash: record.MsgHash,
				Err:     fmt.Sprintf("worker panic: %v", r),
			}
			s.log.WithField("msg_hash", record.MsgHash).Errorf("validation worker panicked: %v", r)
		}
	}()

	verdict := s.validator.Verdict(record)
	return s.validator.Submit(ctx, accessToken, record, verdict, proxy)
}
