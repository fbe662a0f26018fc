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

type VouchersRepository struct {
	conn PgConnection
}

func NewVouchersRepo(cfg DBConfig) *VouchersRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for vouchersRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for vouchersRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &VouchersRepository{
		conn: pool,
	}
}

func NewVouchersRepoWithConn(conn PgConnection) *VouchersRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for vouchersRepo: " + err.Error())
	}
	return &VouchersRepository{
		conn: conn,
	}
}

// AtomicRedeem debits the coins and stores the voucher in one
// transaction: either both land or neither does. The requestID row
// makes a retry after timeout return the originally stored voucher
// instead of debiting twice.
func (vr *VouchersRepository) AtomicRedeem(ctx context.Context, voucher *entity.Voucher, cost int, requestID uuid.UUID) (*entity.Voucher, error) {
	if voucher == nil {
		return nil, errors.New("voucher is nil")
	}
	tx, err := vr.conn.Begin(ctx)
	if err != nil {
		return nil, errors.New("opening redeem tx error: " + err.Error())
	}
	defer tx.Rollback(ctx)

	var coins int
	row := tx.QueryRow(ctx, `SELECT coins FROM ledgers WHERE account_id = $1 FOR UPDATE;`, voucher.AccountID)
	if err = row.Scan(&coins); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrLedgerNotFound
		}
		return nil, errors.New("locking ledger row error: " + err.Error())
	}
	// Dedup lookup happens under the ledger lock, so a retry that
	// raced the original sees the stored voucher, not the debited
	// balance. Scoped to the caller's account: someone else's request
	// id must never hand back their voucher
	stored, err := scanVoucherRow(tx.QueryRow(
		ctx,
		`SELECT v.id, v.account_id, v.item_id, v.code, v.redeemed_at
		FROM redemption_requests r JOIN vouchers v ON v.id = r.voucher_id
		WHERE r.request_id = $1 AND r.account_id = $2;`,
		requestID,
		voucher.AccountID,
	))
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.New("looking up redemption request error: " + err.Error())
	}
	if coins < cost {
		return nil, errorvalues.ErrInsufficientCoins
	}

	_, err = tx.Exec(ctx, `UPDATE ledgers SET coins = coins - $1, updated_at = NOW() WHERE account_id = $2;`, cost, voucher.AccountID)
	if err != nil {
		return nil, errors.New("debiting coins error: " + err.Error())
	}
	row = tx.QueryRow(
		ctx,
		`INSERT INTO vouchers (account_id, item_id, code) VALUES ($1, $2, $3) RETURNING id, redeemed_at;`,
		voucher.AccountID,
		voucher.ItemID,
		voucher.Code,
	)
	if err = row.Scan(&voucher.ID, &voucher.RedeemedAt); err != nil {
		return nil, errors.New("storing voucher error: " + err.Error())
	}
	_, err = tx.Exec(
		ctx,
		`INSERT INTO redemption_requests (request_id, account_id, voucher_id) VALUES ($1, $2, $3);`,
		requestID,
		voucher.AccountID,
		voucher.ID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Lost the race on the same request id: drop this tx and
			// hand back the winner's voucher
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				return nil, errors.New("rolling back duplicate redeem error: " + rbErr.Error())
			}
			return vr.findByRequestID(ctx, requestID, voucher.AccountID)
		}
		return nil, errors.New("recording redemption request error: " + err.Error())
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, errors.New("committing redeem error: " + err.Error())
	}
	return voucher, nil
}

func (vr *VouchersRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID) ([]*entity.Voucher, error) {
	rows, err := vr.conn.Query(
		ctx,
		`SELECT id, account_id, item_id, code, redeemed_at FROM vouchers WHERE account_id = $1 ORDER BY redeemed_at DESC;`,
		accountID,
	)
	if err != nil {
		return nil, errors.New("getting vouchers by account error: " + err.Error())
	}
	defer rows.Close()
	vouchers := make([]*entity.Voucher, 0)
	for rows.Next() {
		v := entity.Voucher{}
		if err = rows.Scan(&v.ID, &v.AccountID, &v.ItemID, &v.Code, &v.RedeemedAt); err != nil {
			return nil, errors.New("voucher row parsing error: " + err.Error())
		}
		vouchers = append(vouchers, &v)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected voucher rows error: " + rows.Err().Error())
	}
	return vouchers, nil
}

func (vr *VouchersRepository) findByRequestID(ctx context.Context, requestID, accountID uuid.UUID) (*entity.Voucher, error) {
	stored, err := scanVoucherRow(vr.conn.QueryRow(
		ctx,
		`SELECT v.id, v.account_id, v.item_id, v.code, v.redeemed_at
		FROM redemption_requests r JOIN vouchers v ON v.id = r.voucher_id
		WHERE r.request_id = $1 AND r.account_id = $2;`,
		requestID,
		accountID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The id exists (the insert hit 23505) but belongs to a
			// different account
			return nil, errorvalues.ErrRequestConflict
		}
		return nil, errors.New("looking up redemption request error: " + err.Error())
	}
	return stored, nil
}

func scanVoucherRow(row pgx.Row) (*entity.Voucher, error) {
	var v entity.Voucher
	if err := row.Scan(&v.ID, &v.AccountID, &v.ItemID, &v.Code, &v.RedeemedAt); err != nil {
		return nil, err
	}
	return &v, nil
}
