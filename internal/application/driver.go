package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/halcyra/oracle-validator-cli/internal/domain"
	"github.com/halcyra/oracle-validator-cli/internal/ports"
	"github.com/halcyra/oracle-validator-cli/internal/retry"
)

const (
	defaultRefreshInterval = 55 * time.Minute
	defaultCycleInterval   = 5 * time.Minute
	defaultInfoInterval    = 5 * time.Minute
	defaultMaxConcurrency  = 5
)

// DriverConfig carries the run-loop knobs. Zero values fall back to the
// defaults above.
type DriverConfig struct {
	RefreshInterval time.Duration
	CycleInterval   time.Duration
	InfoInterval    time.Duration
	MaxConcurrency  int
	Retry           retry.Config
}

func (c DriverConfig) withDefaults() DriverConfig {
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = defaultRefreshInterval
	}
	if c.CycleInterval <= 0 {
		c.CycleInterval = defaultCycleInterval
	}
	if c.InfoInterval <= 0 {
		c.InfoInterval = defaultInfoInterval
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = defaultMaxConcurrency
	}
	return c
}

// Driver runs the long-lived validation loop for every configured account.
// Each account gets its own session manager, stats reconciler and tickers;
// the proxy allocator and cycle history are shared.
type Driver struct {
	api       ports.OracleAPI
	store     ports.SessionStore
	history   ports.CycleHistory
	allocator *ProxyAllocator
	clock     ports.Clock
	cfg       DriverConfig
	log       logrus.FieldLogger

	mu      sync.Mutex
	runners map[domain.AccountID]*accountRunner
}

func NewDriver(api ports.OracleAPI, store ports.SessionStore, history ports.CycleHistory, allocator *ProxyAllocator, clock ports.Clock, cfg DriverConfig, log logrus.FieldLogger) *Driver {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if allocator == nil {
		allocator = NewProxyAllocator(nil)
	}
	return &Driver{
		api:       api,
		store:     store,
		history:   history,
		allocator: allocator,
		clock:     clock,
		cfg:       cfg.withDefaults(),
		log:       log,
		runners:   make(map[domain.AccountID]*accountRunner),
	}
}

// Run blocks until ctx is cancelled, driving every account concurrently.
// Accounts whose credentials are rejected drop out of the run; everything
// else keeps ticking.
func (d *Driver) Run(ctx context.Context, accounts []domain.Account) error {
	var wg sync.WaitGroup
	started := 0
	for _, account := range accounts {
		if err := account.Validate(); err != nil {
			d.driverLog().WithError(err).
				WithField("account", domain.MaskEmail(account.Email)).
				Error("skipping misconfigured account")
			continue
		}
		started++
		runner := d.newRunner(account)
		d.mu.Lock()
		d.runners[account.ID()] = runner
		d.mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			runner.run(ctx)
		}()
	}
	if started == 0 {
		return domain.ErrConfigInvalid
	}
	wg.Wait()
	return ctx.Err()
}

// Infos returns the latest observed account view for each running account.
func (d *Driver) Infos() []domain.AccountInfo {
	d.mu.Lock()
	defer d.mu.Unlock()

	infos := make([]domain.AccountInfo, 0, len(d.runners))
	for _, runner := range d.runners {
		if info, ok := runner.latestInfo(); ok {
			infos = append(infos, info)
		}
	}
	return infos
}

func (d *Driver) newRunner(account domain.Account) *accountRunner {
	id := account.ID()
	proxy := func() string { return d.allocator.Assign(id) }

	sessions := NewSessionManager(account, d.api, d.store, d.clock, d.cfg.Retry, proxy, d.driverLog())
	validator := NewValidator(d.api, d.clock, d.cfg.Retry, d.driverLog())

	return &accountRunner{
		account:    account,
		sessions:   sessions,
		scheduler:  NewBatchScheduler(validator, d.driverLog()),
		stats:      NewStatsReconciler(account.Email, d.driverLog()),
		api:        d.api,
		history:    d.history,
		allocator:  d.allocator,
		clock:      d.clock,
		cfg:        d.cfg,
		log:        d.driverLog().WithField("account", domain.MaskEmail(account.Email)),
	}
}

func (d *Driver) driverLog() logrus.FieldLogger {
	if d.log != nil {
		return d.log
	}
	return logrus.StandardLogger()
}

// accountRunner is the per-account loop: a proactive session refresh ticker,
// a validation cycle ticker and an account info poll, all sharing one
// goroutine so a slow cycle naturally delays the next one.
type accountRunner struct {
	account   domain.Account
	sessions  *SessionManager
	scheduler *BatchScheduler
	stats     *StatsReconciler
	api       ports.OracleAPI
	history   ports.CycleHistory
	allocator *ProxyAllocator
	clock     ports.Clock
	cfg       DriverConfig
	log       logrus.FieldLogger

	mu   sync.Mutex
	info domain.AccountInfo
	seen bool
}

func (r *accountRunner) run(ctx context.Context) {
	r.sessions.Resume(ctx)

	if _, err := r.sessions.Token(ctx); err != nil {
		if errors.Is(err, domain.ErrCredentialRejected) {
			r.log.WithError(err).Error("credentials rejected, account excluded from this run")
			return
		}
		r.log.WithError(err).Error("initial authentication failed")
		if ctx.Err() != nil {
			return
		}
	}

	r.runCycle(ctx)
	r.pollInfo(ctx)

	refreshTicker := time.NewTicker(r.cfg.RefreshInterval)
	cycleTicker := time.NewTicker(r.cfg.CycleInterval)
	infoTicker := time.NewTicker(r.cfg.InfoInterval)
	defer refreshTicker.Stop()
	defer cycleTicker.Stop()
	defer infoTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-refreshTicker.C:
			if err := r.sessions.RefreshNow(ctx); err != nil {
				if errors.Is(err, domain.ErrCredentialRejected) {
					r.log.WithError(err).Error("credentials rejected, stopping account loop")
					return
				}
				r.log.WithError(err).Warn("proactive session refresh failed")
			}
		case <-cycleTicker.C:
			r.runCycle(ctx)
		case <-infoTicker.C:
			r.pollInfo(ctx)
		}
	}
}

// runCycle is one full pass: snapshot counters, fetch pending records, fan
// the submissions out, then reconcile against the server's counters.
func (r *accountRunner) runCycle(ctx context.Context) {
	startedAt := r.clock.Now()

	token, err := r.sessions.Token(ctx)
	if err != nil {
		r.log.WithError(err).Warn("skipping cycle, no usable session")
		return
	}

	if before, err := r.fetchInfo(ctx, token); err == nil {
		r.stats.Seed(before.Stats)
	} else {
		r.log.WithError(err).Warn("could not snapshot counters before cycle")
	}

	records, err := r.fetchRecords(ctx, token)
	if err != nil {
		r.log.WithError(err).Warn("could not fetch signed prices, cycle skipped")
		return
	}
	if len(records) == 0 {
		r.log.Debug("no pending records this cycle")
		return
	}

	outcomes := r.scheduler.RunCycle(ctx, token, records, r.allocator.Pool(), r.cfg.MaxConcurrency)

	successes := 0
	for _, outcome := range outcomes {
		if outcome.Submitted {
			successes++
		}
	}

	var delta domain.StatsDelta
	if after, err := r.fetchInfo(ctx, token); err == nil {
		delta = r.stats.Reconcile(after.Stats, successes)
	} else {
		r.log.WithError(err).Warn("could not snapshot counters after cycle")
	}

	r.recordCycle(ctx, ports.CycleSummary{
		Account:      r.account.Email,
		Records:      len(records),
		Successes:    successes,
		Failures:     len(records) - successes,
		DeltaValid:   delta.Valid,
		DeltaInvalid: delta.Invalid,
		StartedAt:    startedAt,
		FinishedAt:   r.clock.Now(),
	})
}

// fetchRecords pulls the pending batch, rotating the account's proxy before
// each retry so a dead exit node does not pin the account down.
func (r *accountRunner) fetchRecords(ctx context.Context, token string) ([]domain.PriceRecord, error) {
	attempt := 0
	return retry.Do(ctx, r.cfg.Retry, func(ctx context.Context) ([]domain.PriceRecord, error) {
		proxy := r.allocator.Assign(r.account.ID())
		if attempt > 0 {
			proxy = r.allocator.Rotate(r.account.ID())
		}
		attempt++
		return r.api.SignedPrices(ctx, token, proxy)
	})
}

func (r *accountRunner) fetchInfo(ctx context.Context, token string) (domain.AccountInfo, error) {
	info, err := retry.Do(ctx, r.cfg.Retry, func(ctx context.Context) (domain.AccountInfo, error) {
		return r.api.AccountInfo(ctx, token, r.allocator.Assign(r.account.ID()))
	})
	if err != nil {
		return domain.AccountInfo{}, err
	}

	r.mu.Lock()
	r.info = info
	r.seen = true
	r.mu.Unlock()
	return info, nil
}

func (r *accountRunner) pollInfo(ctx context.Context) {
	token, err := r.sessions.Token(ctx)
	if err != nil {
		r.log.WithError(err).Debug("info poll skipped, no usable session")
		return
	}
	info, err := r.fetchInfo(ctx, token)
	if err != nil {
		r.log.WithError(err).Warn("account info poll failed")
		return
	}
	r.log.WithField("valid", info.Stats.ValidCount).
		WithField("invalid", info.Stats.InvalidCount).
		Info("account counters")
}

func (r *accountRunner) latestInfo() (domain.AccountInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.info, r.seen
}

func (r *accountRunner) recordCycle(ctx context.Context, summary ports.CycleSummary) {
	if r.history == nil {
		return
	}
	if err := r.history.RecordCycle(ctx, summary); err != nil {
		r.log.WithError(err).Warn("could not record cycle history")
	}
}
