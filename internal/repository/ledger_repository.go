package repository

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	errorvalues "github.com/evercare/companion/internal/error_values"
	"github.com/evercare/companion/pkg/cleanup"
	"github.com/evercare/companion/pkg/entity"
)

type LedgerRepository struct {
	conn PgConnection
}

func NewLedgerRepo(cfg DBConfig) *LedgerRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for ledgerRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for ledgerRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &LedgerRepository{
		conn: pool,
	}
}

func NewLedgerRepoWithConn(conn PgConnection) *LedgerRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for ledgerRepo: " + err.Error())
	}
	return &LedgerRepository{
		conn: conn,
	}
}

func (lr *LedgerRepository) GetLedger(ctx context.Context, accountID uuid.UUID) (*entity.Ledger, error) {
	ledger := entity.Ledger{AccountID: accountID}
	row := lr.conn.QueryRow(
		ctx,
		`SELECT coins, streak, last_checkin_date, updated_at FROM ledgers WHERE account_id = $1;`,
		accountID,
	)
	if err := row.Scan(&ledger.Coins, &ledger.Streak, &ledger.LastCheckinDate, &ledger.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrLedgerNotFound
		}
		return nil, errors.New("reading ledger error: " + err.Error())
	}
	return &ledger, nil
}

func (lr *LedgerRepository) GetCheckinDays(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	rows, err := lr.conn.Query(
		ctx,
		`SELECT day FROM checkin_days WHERE account_id = $1 AND day >= $2 AND day <= $3;`,
		accountID,
		from,
		to,
	)
	if err != nil {
		return nil, errors.New("getting check-in days for period error: " + err.Error())
	}
	defer rows.Close()
	days := make([]time.Time, 0, 7)
	for rows.Next() {
		var day time.Time
		if err = rows.Scan(&day); err != nil {
			return nil, errors.New("check-in day row parsing error: " + err.Error())
		}
		days = append(days, day)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected check-in rows error: " + rows.Err().Error())
	}
	return days, nil
}

// AtomicCheckin holds the ledger row locked for the whole
// check-and-increment, so two racing calls for the same day can't both
// award a coin. The unique (account_id, day) constraint backs the lock
// up for a first-ever race where both see last_checkin_date = NULL.
func (lr *LedgerRepository) AtomicCheckin(ctx context.Context, accountID uuid.UUID, today time.Time) (*entity.Ledger, error) {
	tx, err := lr.conn.Begin(ctx)
	if err != nil {
		return nil, errors.New("opening check-in tx error: " + err.Error())
	}
	defer tx.Rollback(ctx)

	ledger := entity.Ledger{AccountID: accountID}
	row := tx.QueryRow(
		ctx,
		`SELECT coins, streak, last_checkin_date FROM ledgers WHERE account_id = $1 FOR UPDATE;`,
		accountID,
	)
	if err = row.Scan(&ledger.Coins, &ledger.Streak, &ledger.LastCheckinDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrLedgerNotFound
		}
		return nil, errors.New("locking ledger row error: " + err.Error())
	}
	if ledger.LastCheckinDate != nil {
		if sameCivilDay(*ledger.LastCheckinDate, today) {
			return nil, errorvalues.ErrAlreadyCheckedIn
		}
		// last_checkin_date stays the maximum of the recorded days, so
		// a backdated day can't rewind it or reset an active streak
		if civilDayBefore(today, *ledger.LastCheckinDate) {
			return nil, errorvalues.ErrInvalidDate
		}
	}

	_, err = tx.Exec(ctx, `INSERT INTO checkin_days (account_id, day) VALUES ($1, $2);`, accountID, today)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, errorvalues.ErrAlreadyCheckedIn
		}
		return nil, errors.New("recording check-in day error: " + err.Error())
	}

	newStreak := 1
	if ledger.LastCheckinDate != nil && sameCivilDay(ledger.LastCheckinDate.AddDate(0, 0, 1), today) {
		newStreak = ledger.Streak + 1
	}
	_, err = tx.Exec(
		ctx,
		`UPDATE ledgers SET coins = coins + 1, streak = $1, last_checkin_date = $2, updated_at = NOW() WHERE account_id = $3;`,
		newStreak,
		today,
		accountID,
	)
	if err != nil {
		return nil, errors.New("updating ledger error: " + err.Error())
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, errors.New("committing check-in error: " + err.Error())
	}

	ledger.Coins++
	ledger.Streak = newStreak
	ledger.LastCheckinDate = &today
	return &ledger, nil
}

func sameCivilDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func civilDayBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}
