package ports

import (
	"context"

	"github.com/halcyra/oracle-validator-cli/internal/domain"
)

// SessionStore persists token bundles so a restart can resume with a stored
// refresh token instead of re-authenticating from scratch.
type SessionStore interface {
	Get(ctx context.Context, id domain.AccountID) (domain.Session, error)
	Put(ctx context.Context, id domain.AccountID, session domain.Session) error
	Delete(ctx context.Context, id domain.AccountID) error
}
