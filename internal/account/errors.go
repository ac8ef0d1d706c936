package account

import "errors"

var (
	ErrNotFound    = errors.New("account: not found")
	ErrDuplicate   = errors.New("account: already exists")
	ErrInvalidRole = errors.New("account: invalid role")
	ErrInvalidLink = errors.New("account: invalid assistant link")

	// ErrUnavailable wraps storage failures and timeouts. The callers treat
	// it as retryable with backoff; it is never swallowed into a default
	// session.
	ErrUnavailable = errors.New("account: storage unavailable")
)
