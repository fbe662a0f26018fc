package repository_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/pressly/goose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	errorvalues "github.com/evercare/companion/internal/error_values"
	"github.com/evercare/companion/internal/repository"
	"github.com/evercare/companion/pkg/entity"
)

type testPGConfig struct {
	connStr string
}

func (cfg *testPGConfig) ConnString() string {
	return cfg.connStr
}

func setupLedgerTestDB(t *testing.T, accountID uuid.UUID, coins int) *testPGConfig {
	container, err := postgres.Run(context.Background(), "postgres:17",
		postgres.WithUsername("test_user"),
		postgres.WithDatabase("companion"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatal("error running test container: " + err.Error())
	}
	connStr, err := container.ConnectionString(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	connStr += "sslmode=disable"
	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatal(err)
	}
	err = goose.Up(conn, "../../migrations")
	if err != nil {
		t.Fatal(err)
	}
	_, err = conn.Exec(`INSERT INTO accounts (id, phone) VALUES ($1, $2);`, accountID, "+79160000001")
	if err != nil {
		t.Fatal("adding mock account error: " + err.Error())
	}
	_, err = conn.Exec(`INSERT INTO ledgers (account_id, coins) VALUES ($1, $2);`, accountID, coins)
	if err != nil {
		t.Fatal("adding mock ledger error: " + err.Error())
	}
	conn.Close()
	t.Cleanup(func() {
		container.Terminate(context.Background())
	})
	return &testPGConfig{
		connStr: connStr,
	}
}

func TestCheckinIntegrational(t *testing.T) {
	accountID := uuid.New()
	cfg := setupLedgerTestDB(t, accountID, 0)
	repo := repository.NewLedgerRepo(cfg)
	ctx := context.Background()
	today := day("2024-03-11")

	t.Run("concurrent same-day check-ins land once", func(t *testing.T) {
		const workers = 8
		var wg sync.WaitGroup
		results := make(chan error, workers)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.AtomicCheckin(ctx, accountID, today)
				results <- err
			}()
		}
		wg.Wait()
		close(results)
		succeeded, rejected := 0, 0
		for err := range results {
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, errorvalues.ErrAlreadyCheckedIn):
				rejected++
			}
		}
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, workers-1, rejected)

		ledger, err := repo.GetLedger(ctx, accountID)
		require.NoError(t, err)
		assert.Equal(t, 1, ledger.Coins)
		assert.Equal(t, 1, ledger.Streak)
	})
	t.Run("next day extends the streak", func(t *testing.T) {
		ledger, err := repo.AtomicCheckin(ctx, accountID, today.AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.Equal(t, 2, ledger.Coins)
		assert.Equal(t, 2, ledger.Streak)
	})
	t.Run("gap resets the streak", func(t *testing.T) {
		ledger, err := repo.AtomicCheckin(ctx, accountID, today.AddDate(0, 0, 5))
		require.NoError(t, err)
		assert.Equal(t, 3, ledger.Coins)
		assert.Equal(t, 1, ledger.Streak)
	})
	t.Run("backdated day leaves the ledger alone", func(t *testing.T) {
		_, err := repo.AtomicCheckin(ctx, accountID, today.AddDate(0, 0, 2))
		assert.ErrorIs(t, err, errorvalues.ErrInvalidDate)
		ledger, err := repo.GetLedger(ctx, accountID)
		require.NoError(t, err)
		assert.Equal(t, 3, ledger.Coins)
		assert.Equal(t, 1, ledger.Streak)
	})
	t.Run("window lists recorded days", func(t *testing.T) {
		days, err := repo.GetCheckinDays(ctx, accountID, today, today.AddDate(0, 0, 6))
		require.NoError(t, err)
		assert.Len(t, days, 3)
	})
	t.Run("unknown account", func(t *testing.T) {
		_, err := repo.AtomicCheckin(ctx, uuid.New(), today)
		assert.ErrorIs(t, err, errorvalues.ErrLedgerNotFound)
	})
}

func TestRedeemIntegrational(t *testing.T) {
	accountID := uuid.New()
	cfg := setupLedgerTestDB(t, accountID, 10)
	repo := repository.NewVouchersRepo(cfg)
	ledgerRepo := repository.NewLedgerRepo(cfg)
	ctx := context.Background()

	t.Run("concurrent retries debit once", func(t *testing.T) {
		const workers = 8
		requestID := uuid.New()
		var wg sync.WaitGroup
		results := make(chan *entity.Voucher, workers)
		for i := range workers {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				stored, err := repo.AtomicRedeem(ctx, &entity.Voucher{
					AccountID: accountID,
					ItemID:    "tea_set",
					Code:      fmt.Sprintf("EVC-AAAAA-%05d", n),
				}, 7, requestID)
				if err != nil {
					t.Error(err)
					return
				}
				results <- stored
			}(i)
		}
		wg.Wait()
		close(results)
		codes := make(map[string]struct{})
		for stored := range results {
			codes[stored.Code] = struct{}{}
		}
		assert.Equal(t, 1, len(codes))

		ledger, err := ledgerRepo.GetLedger(ctx, accountID)
		require.NoError(t, err)
		assert.Equal(t, 3, ledger.Coins)

		vouchers, err := repo.GetByAccountID(ctx, accountID)
		require.NoError(t, err)
		assert.Len(t, vouchers, 1)
	})
	t.Run("not enough coins leaves state untouched", func(t *testing.T) {
		_, err := repo.AtomicRedeem(ctx, &entity.Voucher{
			AccountID: accountID,
			ItemID:    "phone_topup",
			Code:      "EVC-BBBBB-00000",
		}, 20, uuid.New())
		assert.ErrorIs(t, err, errorvalues.ErrInsufficientCoins)

		ledger, err := ledgerRepo.GetLedger(ctx, accountID)
		require.NoError(t, err)
		assert.Equal(t, 3, ledger.Coins)
		vouchers, err := repo.GetByAccountID(ctx, accountID)
		require.NoError(t, err)
		assert.Len(t, vouchers, 1)
	})
	t.Run("fresh request id debits again", func(t *testing.T) {
		stored, err := repo.AtomicRedeem(ctx, &entity.Voucher{
			AccountID: accountID,
			ItemID:    "tea_set",
			Code:      "EVC-CCCCC-00000",
		}, 3, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, "EVC-CCCCC-00000", stored.Code)
		ledger, err := ledgerRepo.GetLedger(ctx, accountID)
		require.NoError(t, err)
		assert.Equal(t, 0, ledger.Coins)
	})
}
