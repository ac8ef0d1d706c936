package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var _ Store = (*PGStore)(nil)

const uniqueViolation = "23505"

// PGStore implements Store using PostgreSQL. The accounts table carries a
// unique constraint on tg_id; Create surfaces its violation as ErrDuplicate
// so the resolver can re-read the winning row.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const accountColumns = `id, tg_id, username, first_name, role, coalesce(manager_id, ''), created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*Account, error) {
	var acct Account
	err := row.Scan(
		&acct.ID, &acct.TelegramID, &acct.Username, &acct.FirstName,
		&acct.Role, &acct.ManagerID, &acct.CreatedAt, &acct.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &acct, nil
}

func (s *PGStore) Create(ctx context.Context, acct *Account) error {
	_, err := s.db.ExecContext(ctx,
		`insert into accounts(id, tg_id, username, first_name, role) values($1,$2,$3,$4,$5)`,
		acct.ID, acct.TelegramID, acct.Username, acct.FirstName, acct.Role,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: tg_id %d", ErrDuplicate, acct.TelegramID)
	}
	return err
}

func (s *PGStore) Find(ctx context.Context, id string) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where id=$1`, id)
	return scanAccount(row)
}

func (s *PGStore) FindByTelegramID(ctx context.Context, tgID int64) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where tg_id=$1`, tgID)
	return scanAccount(row)
}

func (s *PGStore) UpdateProfile(ctx context.Context, id, username, firstName string) error {
	res, err := s.db.ExecContext(ctx,
		`update accounts set username=$2, first_name=$3, updated_at=now() where id=$1`,
		id, username, firstName,
	)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (s *PGStore) UpdateRole(ctx context.Context, id string, role Role) error {
	res, err := s.db.ExecContext(ctx,
		`update accounts set role=$2, updated_at=now() where id=$1`,
		id, role,
	)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (s *PGStore) SetManager(ctx context.Context, assistantID, managerID string) error {
	res, err := s.db.ExecContext(ctx,
		`update accounts set manager_id=$2, updated_at=now() where id=$1`,
		assistantID, managerID,
	)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (s *PGStore) List(ctx context.Context) ([]*Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+accountColumns+` from accounts order by created_at desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func (s *PGStore) ListByManager(ctx context.Context, managerID string) ([]*Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+accountColumns+` from accounts where manager_id=$1 order by created_at`, managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func collectAccounts(rows *sql.Rows) ([]*Account, error) {
	var res []*Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, acct)
	}
	return res, rows.Err()
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
