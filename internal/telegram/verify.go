package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const defaultMaxAge = 24 * time.Hour

// Verifier proves that a Claim was produced by Telegram for the configured
// bot. The login-widget protocol signs the asserted fields with
// HMAC-SHA256, keyed by SHA-256 of the bot token.
type Verifier struct {
	secret          [sha256.Size]byte
	maxAge          time.Duration
	allowUnverified bool
	now             func() time.Time
}

// VerifierOption configures Verifier behavior.
type VerifierOption func(*Verifier)

// WithMaxAge overrides the freshness window for auth_date.
func WithMaxAge(d time.Duration) VerifierOption {
	return func(v *Verifier) {
		if d > 0 {
			v.maxAge = d
		}
	}
}

// WithAllowUnverified disables the integrity check entirely. This exists for
// local development against hand-typed claims and must never be enabled in
// production; config.Load refuses the combination.
func WithAllowUnverified(allow bool) VerifierOption {
	return func(v *Verifier) {
		v.allowUnverified = allow
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) VerifierOption {
	return func(v *Verifier) {
		if fn != nil {
			v.now = fn
		}
	}
}

// NewVerifier derives the HMAC key from the bot token and applies options.
func NewVerifier(botToken string, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		secret: sha256.Sum256([]byte(strings.TrimSpace(botToken))),
		maxAge: defaultMaxAge,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks claim shape, integrity tag and freshness, in that order.
// It is a pure function of the claim, the derived secret and the clock.
func (v *Verifier) Verify(claim Claim) (Identity, error) {
	if err := claim.Validate(); err != nil {
		return Identity{}, err
	}

	if !v.allowUnverified {
		tag := strings.TrimSpace(claim.Hash)
		if tag == "" {
			return Identity{}, ErrMissingProof
		}
		provided, err := hex.DecodeString(tag)
		if err != nil || len(provided) != sha256.Size {
			return Identity{}, fmt.Errorf("%w: malformed tag", ErrMissingProof)
		}
		expected := v.computeTag(claim)
		if !hmac.Equal(provided, expected) {
			return Identity{}, ErrTagMismatch
		}
		if err := v.checkFreshness(claim.AuthDate); err != nil {
			return Identity{}, err
		}
	}

	return Identity{
		TelegramID: claim.ID,
		Username:   strings.TrimSpace(claim.Username),
		FirstName:  strings.TrimSpace(claim.FirstName),
	}, nil
}

// checkString builds the canonical data-check string: every asserted field
// except the tag itself, sorted by name, joined as key=value lines.
func checkString(claim Claim) string {
	fields := map[string]string{
		"id": strconv.FormatInt(claim.ID, 10),
	}
	if claim.Username != "" {
		fields["username"] = claim.Username
	}
	if claim.FirstName != "" {
		fields["first_name"] = claim.FirstName
	}
	if claim.AuthDate != 0 {
		fields["auth_date"] = strconv.FormatInt(claim.AuthDate, 10)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+fields[k])
	}
	return strings.Join(lines, "\n")
}

func (v *Verifier) computeTag(claim Claim) []byte {
	mac := hmac.New(sha256.New, v.secret[:])
	mac.Write([]byte(checkString(claim)))
	return mac.Sum(nil)
}

func (v *Verifier) checkFreshness(authDate int64) error {
	if authDate <= 0 {
		return fmt.Errorf("%w: auth_date missing", ErrStale)
	}
	asserted := time.Unix(authDate, 0)
	if v.now().Sub(asserted) > v.maxAge {
		return ErrStale
	}
	return nil
}
