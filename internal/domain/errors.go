package domain

import "errors"

// Failure taxonomy. Adapters wrap one of these sentinels into whatever
// detail they carry; callers branch with errors.Is.
var (
	// ErrRateLimited marks throttling responses; retried with backoff.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnauthorized marks a rejected token; triggers refresh or re-login.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrCredentialRejected marks a non-retryable auth failure, e.g. too
	// many password attempts. The account is skipped for the cycle.
	ErrCredentialRejected = errors.New("credential rejected")
	// ErrNetworkTransient marks timeouts and connection resets.
	ErrNetworkTransient = errors.New("transient network failure")
	// ErrSessionNotFound is returned by session stores for unknown accounts.
	ErrSessionNotFound = errors.New("session not found")
	// ErrConfigInvalid marks an account entry missing required fields.
	ErrConfigInvalid = errors.New("invalid account configuration")
)

// Retryable reports whether err belongs to a class the backoff retrier may
// absorb. Everything else propagates immediately.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrNetworkTransient)
}
