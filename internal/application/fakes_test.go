package application

import (
	"context"
	"sync"
	"time"

	"github.com/halcyra/oracle-validator-cli/internal/domain"
	"github.com/halcyra/oracle-validator-cli/internal/ports"
)

type fakeAPI struct {
	mu sync.Mutex

	loginFn   func(account domain.Account, proxy string) (domain.Session, error)
	refreshFn func(refreshToken string, proxy string) (domain.Session, error)
	infoFn    func(accessToken string, proxy string) (domain.AccountInfo, error)
	pricesFn  func(accessToken string, proxy string) ([]domain.PriceRecord, error)
	submitFn  func(accessToken, msgHash string, valid bool, proxy string) error

	loginCalls   int
	refreshCalls int
	submissions  []submission
}

type submission struct {
	MsgHash string
	Valid   bool
	Proxy   string
}

var _ ports.OracleAPI = (*fakeAPI)(nil)

func (f *fakeAPI) Login(_ context.Context, account domain.Account, proxy string) (domain.Session, error) {
	f.mu.Lock()
	f.loginCalls++
	fn := f.loginFn
	f.mu.Unlock()
	if fn == nil {
		return domain.Session{AccessToken: "login-token", RefreshToken: "login-rt", ExpiresAt: time.Now().Add(time.Hour)}, nil
	}
	return fn(account, proxy)
}

func (f *fakeAPI) Refresh(_ context.Context, refreshToken string, proxy string) (domain.Session, error) {
	f.mu.Lock()
	f.refreshCalls++
	fn := f.refreshFn
	f.mu.Unlock()
	if fn == nil {
		return domain.Session{AccessToken: "refreshed-token", RefreshToken: "refreshed-rt", ExpiresAt: time.Now().Add(time.Hour)}, nil
	}
	return fn(refreshToken, proxy)
}

func (f *fakeAPI) AccountInfo(_ context.Context, accessToken string, proxy string) (domain.AccountInfo, error) {
	f.mu.Lock()
	fn := f.infoFn
	f.mu.Unlock()
	if fn == nil {
		return domain.AccountInfo{}, nil
	}
	return fn(accessToken, proxy)
}

func (f *fakeAPI) SignedPrices(_ context.Context, accessToken string, proxy string) ([]domain.PriceRecord, error) {
	f.mu.Lock()
	fn := f.pricesFn
	f.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(accessToken, proxy)
}

func (f *fakeAPI) SubmitValidation(_ context.Context, accessToken string, msgHash string, valid bool, proxy string) error {
	f.mu.Lock()
	f.submissions = append(f.submissions, submission{MsgHash: msgHash, Valid: valid, Proxy: proxy})
	fn := f.submitFn
	f.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(accessToken, msgHash, valid, proxy)
}

func (f *fakeAPI) submittedHashes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	hashes := make([]string, 0, len(f.submissions))
	for _, s := range f.submissions {
		hashes = append(hashes, s.MsgHash)
	}
	return hashes
}

type fakeStore struct {
	mu       sync.Mutex
	sessions map[domain.AccountID]domain.Session
	putErr   error
	puts     int
}

var _ ports.SessionStore = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[domain.AccountID]domain.Session)}
}

func (s *fakeStore) Get(_ context.Context, id domain.AccountID) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *fakeStore) Put(_ context.Context, id domain.AccountID, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	s.sessions[id] = session
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id domain.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }
