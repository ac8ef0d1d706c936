package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"projectguard.org/internal/ids"
	"projectguard.org/internal/telegram"
)

const defaultStorageTimeout = 5 * time.Second

// Resolver maps a verified Telegram identity onto exactly one Account,
// creating it on first login. Profile fields follow the latest claim; the
// role is never written here.
type Resolver struct {
	store       Store
	defaultRole Role
	timeout     time.Duration
}

// ResolverOption configures Resolver behavior.
type ResolverOption func(*Resolver)

// WithDefaultRole overrides the role assigned on first login.
func WithDefaultRole(role Role) ResolverOption {
	return func(r *Resolver) {
		if role != "" {
			r.defaultRole = role
		}
	}
}

// WithStorageTimeout bounds every storage round-trip inside Resolve.
func WithStorageTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewResolver constructs a Resolver over the given store.
func NewResolver(store Store, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:       store,
		defaultRole: DefaultRole,
		timeout:     defaultStorageTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve is idempotent: two calls with the same identity return the same
// internal id, and concurrent first-logins race on the store's unique
// constraint rather than on an in-process lock.
func (r *Resolver) Resolve(ctx context.Context, identity telegram.Identity) (*Account, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	acct, err := r.store.FindByTelegramID(ctx, identity.TelegramID)
	switch {
	case err == nil:
		return r.refreshProfile(ctx, acct, identity)
	case errors.Is(err, ErrNotFound):
		// first login, fall through to create
	default:
		return nil, storageErr("find account", err)
	}

	// Create races with concurrent first-logins and, rarely, with a delete
	// landing between the duplicate error and the re-read. One retry
	// covers the vanished-row case.
	for attempt := 0; ; attempt++ {
		fresh := &Account{
			ID:         ids.New(),
			TelegramID: identity.TelegramID,
			Username:   identity.Username,
			FirstName:  identity.FirstName,
			Role:       r.defaultRole,
		}
		err = r.store.Create(ctx, fresh)
		switch {
		case err == nil:
			return fresh, nil
		case errors.Is(err, ErrDuplicate):
			// Lost the race to another request: the row exists now, re-read it.
			existing, err := r.store.FindByTelegramID(ctx, identity.TelegramID)
			switch {
			case err == nil:
				return r.refreshProfile(ctx, existing, identity)
			case errors.Is(err, ErrNotFound) && attempt == 0:
				continue
			default:
				return nil, storageErr("re-read account", err)
			}
		default:
			return nil, storageErr("create account", err)
		}
	}
}

// refreshProfile keeps username/first_name in step with the latest claim.
// Identity metadata is mutable on Telegram's side; the role is not touched.
func (r *Resolver) refreshProfile(ctx context.Context, acct *Account, identity telegram.Identity) (*Account, error) {
	if acct.Username == identity.Username && acct.FirstName == identity.FirstName {
		return acct, nil
	}
	if err := r.store.UpdateProfile(ctx, acct.ID, identity.Username, identity.FirstName); err != nil {
		return nil, storageErr("refresh profile", err)
	}
	acct.Username = identity.Username
	acct.FirstName = identity.FirstName
	return acct, nil
}

func storageErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s timed out", ErrUnavailable, op)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
