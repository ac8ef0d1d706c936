package telegram

import "fmt"

// Claim is the untrusted login-widget payload exactly as Telegram posts it.
// Nothing in it can be believed until Verifier.Verify has passed.
type Claim struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	AuthDate  int64  `json:"auth_date,omitempty"`
	Hash      string `json:"hash,omitempty"`
}

// Validate checks the claim shape. It runs before verification so malformed
// payloads are rejected as client errors, not authenticity failures.
func (c Claim) Validate() error {
	if c.ID <= 0 {
		return fmt.Errorf("%w: id must be a positive integer", ErrInvalidClaim)
	}
	return nil
}

// Identity carries the subset of a verified claim that downstream
// components are allowed to see.
type Identity struct {
	TelegramID int64
	Username   string
	FirstName  string
}
