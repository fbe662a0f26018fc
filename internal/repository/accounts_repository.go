package repository

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	errorvalues "github.com/evercare/companion/internal/error_values"
	"github.com/evercare/companion/pkg/cleanup"
	"github.com/evercare/companion/pkg/entity"
)

type AccountsRepository struct {
	conn PgConnection
}

func NewAccountsRepo(cfg DBConfig) *AccountsRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for accountsRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for accountsRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &AccountsRepository{
		conn: pool,
	}
}

func NewAccountsRepoWithConn(conn PgConnection) *AccountsRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for accountsRepo: " + err.Error())
	}
	return &AccountsRepository{
		conn: conn,
	}
}

// Create inserts the account together with its zeroed ledger row, so
// every account always has exactly one ledger.
func (ar *AccountsRepository) Create(ctx context.Context, account *entity.Account) (uuid.UUID, error) {
	if account == nil {
		return uuid.UUID{}, errors.New("account is nil")
	}
	tx, err := ar.conn.Begin(ctx)
	if err != nil {
		return uuid.UUID{}, errors.New("opening account creation tx error: " + err.Error())
	}
	defer tx.Rollback(ctx)
	var id uuid.UUID
	row := tx.QueryRow(ctx, `INSERT INTO accounts (phone) VALUES ($1) RETURNING id;`, account.Phone)
	if err := row.Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// Unique violation
			case "23505":
				return uuid.UUID{}, errorvalues.ErrAccountExists
			}
		}
		return uuid.UUID{}, errors.New("creating account db error: " + err.Error())
	}
	_, err = tx.Exec(ctx, `INSERT INTO ledgers (account_id) VALUES ($1);`, id)
	if err != nil {
		return uuid.UUID{}, errors.New("creating ledger row db error: " + err.Error())
	}
	if err = tx.Commit(ctx); err != nil {
		return uuid.UUID{}, errors.New("committing account creation error: " + err.Error())
	}
	return id, nil
}

func (ar *AccountsRepository) FindByPhone(ctx context.Context, phone string) (*entity.Account, error) {
	var account entity.Account
	row := ar.conn.QueryRow(ctx, `SELECT id, phone, onboarded, created_at FROM accounts WHERE phone = $1;`, phone)
	if err := row.Scan(&account.ID, &account.Phone, &account.Onboarded, &account.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrAccountNotFound
		}
		return nil, errors.New("searching account by phone error: " + err.Error())
	}
	return &account, nil
}

func (ar *AccountsRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	var account entity.Account
	row := ar.conn.QueryRow(ctx, `SELECT id, phone, onboarded, created_at FROM accounts WHERE id = $1;`, id)
	if err := row.Scan(&account.ID, &account.Phone, &account.Onboarded, &account.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrAccountNotFound
		}
		return nil, errors.New("searching account by id error: " + err.Error())
	}
	return &account, nil
}

func (ar *AccountsRepository) SetOnboarded(ctx context.Context, id uuid.UUID) error {
	ct, err := ar.conn.Exec(ctx, `UPDATE accounts SET onboarded = TRUE WHERE id = $1;`, id)
	if err != nil {
		return errors.New("marking account onboarded error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrAccountNotFound
	}
	return nil
}
