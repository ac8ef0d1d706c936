package account

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func newMockStore(t *testing.T) (*PGStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPGStore(db), mock
}

func accountRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "tg_id", "username", "first_name", "role", "manager_id", "created_at", "updated_at",
	}).AddRow("01HACCOUNT", int64(426188469), "messiah_66", "Messiah", "manager", "", now, now)
}

func TestPGStoreFindByTelegramID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select .* from accounts where tg_id=").
		WithArgs(int64(426188469)).
		WillReturnRows(accountRows())

	acct, err := store.FindByTelegramID(context.Background(), 426188469)
	if err != nil {
		t.Fatalf("FindByTelegramID: %v", err)
	}
	if acct.ID != "01HACCOUNT" || acct.Role != RoleManager {
		t.Fatalf("unexpected account: %+v", acct)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreFindMapsNoRows(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select .* from accounts where tg_id=").
		WithArgs(int64(1)).
		WillReturnError(sql.ErrNoRows)

	if _, err := store.FindByTelegramID(context.Background(), 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreCreateMapsUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("insert into accounts").
		WithArgs("01HNEW", int64(426188469), "messiah_66", "Messiah", RoleManager).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_tg_id_key"})

	err := store.Create(context.Background(), &Account{
		ID:         "01HNEW",
		TelegramID: 426188469,
		Username:   "messiah_66",
		FirstName:  "Messiah",
		Role:       RoleManager,
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for 23505, got %v", err)
	}
}

func TestPGStoreCreatePassesThroughOtherErrors(t *testing.T) {
	store, mock := newMockStore(t)

	boom := errors.New("connection reset")
	mock.ExpectExec("insert into accounts").WillReturnError(boom)

	err := store.Create(context.Background(), &Account{ID: "01HNEW", TelegramID: 1, Role: RoleManager})
	if !errors.Is(err, boom) {
		t.Fatalf("expected passthrough error, got %v", err)
	}
}

func TestPGStoreUpdateRoleRequiresExistingRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("update accounts set role=").
		WithArgs("missing", RoleAdmin).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.UpdateRole(context.Background(), "missing", RoleAdmin); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing row, got %v", err)
	}
}

func TestPGStoreListByManager(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select .* from accounts where manager_id=").
		WithArgs("01HMANAGER").
		WillReturnRows(accountRows())

	accounts, err := store.ListByManager(context.Background(), "01HMANAGER")
	if err != nil {
		t.Fatalf("ListByManager: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected one account, got %d", len(accounts))
	}
}
