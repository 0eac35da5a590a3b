package domain

import "time"

// Session is the token bundle attached to authenticated API calls. It is
// owned and mutated by a single session manager; everything else reads
// immutable copies.
type Session struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// Fresh reports whether the access token is still usable at now, with skew
// subtracted from the expiry so requests do not race a silent expiry.
func (s Session) Fresh(now time.Time, skew time.Duration) bool {
	if s.AccessToken == "" {
		return false
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	return s.ExpiresAt.After(now.Add(skew))
}

func (s Session) HasRefreshToken() bool {
	return s.RefreshToken != ""
}
