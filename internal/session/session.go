package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer     = "projectguard"
	defaultTTL = 24 * time.Hour
)

var (
	// ErrSigningUnavailable indicates the signing secret was not configured.
	// Construction fails with it so the condition surfaces at startup, not
	// on the first login.
	ErrSigningUnavailable = errors.New("session: signing secret is not configured")

	// ErrInvalidToken indicates the token failed validation.
	ErrInvalidToken = errors.New("session: invalid token")
)

// Claims carries the role copied into the token at issuance time. A later
// role change never alters an already-issued session.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies signed, self-contained session tokens (HS256).
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures Issuer behavior.
type Option func(*Issuer)

// WithTTL overrides the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(i *Issuer) {
		if fn != nil {
			i.now = fn
		}
	}
}

// NewIssuer constructs an Issuer. An empty secret is a configuration error
// and must abort process start.
func NewIssuer(secret string, opts ...Option) (*Issuer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrSigningUnavailable
	}
	i := &Issuer{
		secret: []byte(secret),
		ttl:    defaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue signs a session token for the account with its role at this moment.
func (i *Issuer) Issue(accountID, role string) (string, time.Time, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return "", time.Time{}, errors.New("session: accountID is required")
	}

	now := i.now().UTC()
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		Role: strings.TrimSpace(strings.ToLower(role)),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the token signature and required claims. Any mutation of the
// encoded token makes the signature check fail.
func (i *Issuer) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return i.now().UTC() }))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if err := i.validateClaims(claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (i *Issuer) validateClaims(claims *Claims) error {
	if claims.Issuer != issuer {
		return fmt.Errorf("unexpected issuer: %s", claims.Issuer)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	now := i.now().UTC()
	if now.After(claims.ExpiresAt.Time) {
		return errors.New("token expired")
	}
	// Allow a small clock skew of 5 seconds when validating issued-at.
	if claims.IssuedAt.Time.After(now.Add(5 * time.Second)) {
		return errors.New("token issued in the future")
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return errors.New("token expiry precedes issued-at")
	}
	return nil
}
