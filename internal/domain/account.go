package domain

import "strings"

type AccountID string

type Account struct {
	Email    string
	Password string
}

func (a Account) ID() AccountID {
	return AccountID(a.Email)
}

// Validate reports ErrConfigInvalid for accounts that can never authenticate.
func (a Account) Validate() error {
	if strings.TrimSpace(a.Email) == "" || !strings.Contains(a.Email, "@") {
		return ErrConfigInvalid
	}
	if a.Password == "" {
		return ErrConfigInvalid
	}
	return nil
}

// MaskEmail shortens an identity for log lines: "validator@example.com"
// becomes "val***tor@example.com". Identities without an "@" are masked the
// same way on the whole string.
func MaskEmail(email string) string {
	local := email
	domainPart := ""
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
		domainPart = email[at:]
	}
	if len(local) <= 6 {
		return strings.Repeat("*", len(local)) + domainPart
	}
	return local[:3] + "***" + local[len(local)-3:] + domainPart
}
