package account

import "context"

// Store describes persistence operations required by the account subsystem.
// Create must enforce TelegramID uniqueness and report a violation as
// ErrDuplicate; that guarantee is what keeps concurrent first-logins safe
// across process instances.
type Store interface {
	Create(ctx context.Context, acct *Account) error
	Find(ctx context.Context, id string) (*Account, error)
	FindByTelegramID(ctx context.Context, tgID int64) (*Account, error)
	UpdateProfile(ctx context.Context, id, username, firstName string) error
	UpdateRole(ctx context.Context, id string, role Role) error
	SetManager(ctx context.Context, assistantID, managerID string) error
	List(ctx context.Context) ([]*Account, error)
	ListByManager(ctx context.Context, managerID string) ([]*Account, error)
}
