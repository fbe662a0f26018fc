package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/evercare/companion/pkg/entity"
)

type AccountsRepositoryI interface {
	// Creates new account and its empty ledger row in one transaction
	Create(ctx context.Context, account *entity.Account) (uuid.UUID, error)
	// Looks up account by phone. Used for login
	FindByPhone(ctx context.Context, phone string) (*entity.Account, error)
	// Looks up account by id. Used by authorization middleware
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)
	// Marks onboarding as completed
	SetOnboarded(ctx context.Context, id uuid.UUID) error
}

type LedgerRepositoryI interface {
	// Reads the ledger row for accountID
	GetLedger(ctx context.Context, accountID uuid.UUID) (*entity.Ledger, error)
	// Provides check-in days of accountID inside [from, to] inclusive
	GetCheckinDays(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]time.Time, error)
	// Records a check-in for today as a single row-locked transaction:
	// at most one coin increment and one streak update land per day.
	// Duplicate day returns ErrAlreadyCheckedIn with no state change
	AtomicCheckin(ctx context.Context, accountID uuid.UUID, today time.Time) (*entity.Ledger, error)
}

type VouchersRepositoryI interface {
	// Debits cost and stores the voucher atomically. requestID
	// deduplicates retries: a repeated id returns the stored voucher
	// without a second debit
	AtomicRedeem(ctx context.Context, voucher *entity.Voucher, cost int, requestID uuid.UUID) (*entity.Voucher, error)
	// Lists vouchers of accountID, newest first
	GetByAccountID(ctx context.Context, accountID uuid.UUID) ([]*entity.Voucher, error)
}

type DBConfig interface {
	ConnString() string
}

type PgConnection interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGCfg struct {
	Address  string
	Username string
	Password string
	DB       string
}

func (pgcfg *PGCfg) ConnString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s/%s", pgcfg.Username, pgcfg.Password, pgcfg.Address, pgcfg.DB)
}
