package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/halcyra/oracle-validator-cli/internal/domain"
	"github.com/halcyra/oracle-validator-cli/internal/ports"
	"github.com/halcyra/oracle-validator-cli/internal/retry"
)

// tokenSkew is subtracted from the stored expiry when deciding whether the
// access token is still attachable to a request.
const tokenSkew = 60 * time.Second

// SessionManager owns one account's session lifecycle: login, proactive
// refresh, persistence. Only the manager mutates the session; concurrent
// readers get immutable copies via Token/Snapshot.
type SessionManager struct {
	account  domain.Account
	api      ports.OracleAPI
	store    ports.SessionStore
	clock    ports.Clock
	retryCfg retry.Config
	proxy    func() string
	log      logrus.FieldLogger

	mu      sync.Mutex
	session domain.Session
}

func NewSessionManager(account domain.Account, api ports.OracleAPI, store ports.SessionStore, clock ports.Clock, retryCfg retry.Config, proxy func() string, log logrus.FieldLogger) *SessionManager {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if proxy == nil {
		proxy = func() string { return "" }
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SessionManager{
		account:  account,
		api:      api,
		store:    store,
		clock:    clock,
		retryCfg: retryCfg,
		proxy:    proxy,
		log:      log.WithField("account", domain.MaskEmail(account.Email)),
	}
}

// Resume loads a previously persisted session, if any. Missing or malformed
// entries are not an error; the next Token call authenticates from scratch.
func (m *SessionManager) Resume(ctx context.Context) {
	if m.store == nil {
		return
	}
	session, err := m.store.Get(ctx, m.account.ID())
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			m.log.WithError(err).Warn("could not load persisted session")
		}
		return
	}

	m.mu.Lock()
	m.session = session
	m.mu.Unlock()
	m.log.Info("resumed persisted session")
}

// Token returns a fresh access token, refreshing or re-authenticating as
// needed. The manager's lock makes concurrent callers share one in-flight
// refresh per account instead of duplicating it.
func (m *SessionManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session.Fresh(m.clock.Now(), tokenSkew) {
		return m.session.AccessToken, nil
	}
	if err := m.renewLocked(ctx); err != nil {
		return "", err
	}
	return m.session.AccessToken, nil
}

// RefreshNow forces a refresh regardless of expiry; driven by the proactive
// refresh timer so in-flight work rarely races a silent expiry.
func (m *SessionManager) RefreshNow(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renewLocked(ctx)
}

// Snapshot returns an immutable copy of the current session for dispatching
// workers.
func (m *SessionManager) Snapshot() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

func (m *SessionManager) renewLocked(ctx context.Context) error {
	if m.session.HasRefreshToken() {
		err := m.refreshLocked(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrUnauthorized) {
			return err
		}
		// A rejected refresh token falls back to one full login.
		m.log.WithError(err).Warn("refresh token rejected, re-authenticating")
	}
	return m.loginLocked(ctx)
}

func (m *SessionManager) refreshLocked(ctx context.Context) error {
	refreshToken := m.session.RefreshToken
	session, err := retry.Do(ctx, m.retryCfg, func(ctx context.Context) (domain.Session, error) {
		return m.api.Refresh(ctx, refreshToken, m.proxy())
	})
	if err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}

	m.commitLocked(ctx, session)
	m.log.Info("session refreshed")
	return nil
}

func (m *SessionManager) loginLocked(ctx context.Context) error {
	session, err := retry.Do(ctx, m.retryCfg, func(ctx context.Context) (domain.Session, error) {
		return m.api.Login(ctx, m.account, m.proxy())
	})
	if err != nil {
		if errors.Is(err, domain.ErrCredentialRejected) {
			m.log.WithError(err).Error("credentials rejected")
		}
		return fmt.Errorf("login: %w", err)
	}

	m.commitLocked(ctx, session)
	m.log.Info("login succeeded")
	return nil
}

// commitLocked overwrites the session in one assignment and persists it. A
// persistence failure is logged but does not invalidate the live session.
func (m *SessionManager) commitLocked(ctx context.Context, session domain.Session) {
	m.session = session
	if m.store == nil {
		return
	}
	if err := m.store.Put(ctx, m.account.ID(), session); err != nil {
		m.log.WithError(err).Warn("could not persist session")
	}
}
