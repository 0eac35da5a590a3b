package ports

import (
	"context"

	"github.com/halcyra/oracle-validator-cli/internal/domain"
)

// OracleAPI is the remote price-oracle validation surface the core depends
// on. Every call takes an optional proxy URI ("" for a direct connection)
// so concurrently running accounts can use distinct egress paths.
type OracleAPI interface {
	// Login performs the password grant and returns a fresh session.
	Login(ctx context.Context, account domain.Account, proxy string) (domain.Session, error)
	// Refresh performs the refresh-token grant.
	Refresh(ctx context.Context, refreshToken string, proxy string) (domain.Session, error)
	// AccountInfo fetches the /me view, including cumulative counters.
	AccountInfo(ctx context.Context, accessToken string, proxy string) (domain.AccountInfo, error)
	// SignedPrices fetches the records currently pending validation.
	SignedPrices(ctx context.Context, accessToken string, proxy string) ([]domain.PriceRecord, error)
	// SubmitValidation submits one {msg_hash, valid} judgment.
	SubmitValidation(ctx context.Context, accessToken string, msgHash string, valid bool, proxy string) error
}
