package account

import (
	"context"
	"errors"
	"fmt"
)

// Service provides the administrative operations on accounts that are not
// part of the login path: listing, role changes and assistant links.
type Service struct {
	store Store
}

// NewService constructs a Service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]*Account, error) {
	accounts, err := s.store.List(ctx)
	if err != nil {
		return nil, storageErr("list accounts", err)
	}
	return accounts, nil
}

// Get returns a single account by internal id.
func (s *Service) Get(ctx context.Context, id string) (*Account, error) {
	acct, err := s.store.Find(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, storageErr("find account", err)
	}
	return acct, nil
}

// ChangeRole is the only path that writes Role. Already-issued sessions keep
// the role they were minted with.
func (s *Service) ChangeRole(ctx context.Context, id string, role string) (*Account, error) {
	parsed, err := ParseRole(role)
	if err != nil {
		return nil, err
	}
	acct, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if acct.Role == parsed {
		return acct, nil
	}
	if err := s.store.UpdateRole(ctx, id, parsed); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, storageErr("update role", err)
	}
	acct.Role = parsed
	return acct, nil
}

// LinkAssistant attaches an assistant account to a manager account. Both
// sides must exist.
func (s *Service) LinkAssistant(ctx context.Context, managerID, assistantID string) error {
	if managerID == assistantID {
		return fmt.Errorf("%w: account cannot manage itself", ErrInvalidLink)
	}
	if _, err := s.Get(ctx, managerID); err != nil {
		return err
	}
	if _, err := s.Get(ctx, assistantID); err != nil {
		return err
	}
	if err := s.store.SetManager(ctx, assistantID, managerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return storageErr("link assistant", err)
	}
	return nil
}

// Assistants lists the accounts linked to a manager.
func (s *Service) Assistants(ctx context.Context, managerID string) ([]*Account, error) {
	accounts, err := s.store.ListByManager(ctx, managerID)
	if err != nil {
		return nil, storageErr("list assistants", err)
	}
	return accounts, nil
}
