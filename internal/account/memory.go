package account

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps accounts in process memory. It enforces the same tg_id
// uniqueness guarantee as the SQL schema, which makes it usable both in
// tests and for DSN-less development runs.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	byTgID   map[int64]string
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*Account),
		byTgID:   make(map[int64]string),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, acct *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byTgID[acct.TelegramID]; exists {
		return fmt.Errorf("%w: tg_id %d", ErrDuplicate, acct.TelegramID)
	}
	now := s.now().UTC()
	stored := *acct
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.accounts[stored.ID] = &stored
	s.byTgID[stored.TelegramID] = stored.ID
	acct.CreatedAt = now
	acct.UpdatedAt = now
	return nil
}

func (s *MemoryStore) Find(_ context.Context, id string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *acct
	return &copied, nil
}

func (s *MemoryStore) FindByTelegramID(_ context.Context, tgID int64) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byTgID[tgID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *s.accounts[id]
	return &copied, nil
}

func (s *MemoryStore) UpdateProfile(_ context.Context, id, username, firstName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	acct.Username = username
	acct.FirstName = firstName
	acct.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryStore) UpdateRole(_ context.Context, id string, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	acct.Role = role
	acct.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryStore) SetManager(_ context.Context, assistantID, managerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[assistantID]
	if !ok {
		return ErrNotFound
	}
	acct.ManagerID = managerID
	acct.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]*Account, 0, len(s.accounts))
	for _, acct := range s.accounts {
		copied := *acct
		res = append(res, &copied)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID < res[j].ID
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (s *MemoryStore) ListByManager(_ context.Context, managerID string) ([]*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*Account
	for _, acct := range s.accounts {
		if acct.ManagerID == managerID {
			copied := *acct
			res = append(res, &copied)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}
