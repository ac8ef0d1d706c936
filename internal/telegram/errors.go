package telegram

import "errors"

var (
	// ErrInvalidClaim marks a payload whose shape is wrong before any
	// cryptographic check runs (missing or non-positive id).
	ErrInvalidClaim = errors.New("telegram: invalid claim")

	// ErrMissingProof marks a claim that carries no integrity tag.
	ErrMissingProof = errors.New("telegram: integrity tag missing")

	// ErrTagMismatch marks a claim whose integrity tag does not match the
	// asserted fields.
	ErrTagMismatch = errors.New("telegram: integrity tag mismatch")

	// ErrStale marks a claim whose auth_date fell outside the freshness
	// window.
	ErrStale = errors.New("telegram: claim is stale")
)
