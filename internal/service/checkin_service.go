package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	errorvalues "github.com/evercare/companion/internal/error_values"
	"github.com/evercare/companion/internal/repository"
	"github.com/evercare/companion/pkg/entity"
)

// windowDays is the tracker length: [today-6, today] inclusive.
const windowDays = 7

type CheckinService struct {
	repo repository.LedgerRepositoryI
	// failOpen degrades Status to a zeroed result on storage failure
	// instead of reporting ErrRemoteUnavailable
	failOpen bool
}

func NewCheckinService(ledgerRepo repository.LedgerRepositoryI, failOpen bool) *CheckinService {
	if ledgerRepo == nil {
		log.Fatal("provided nil ledgerRepo")
	}
	return &CheckinService{
		repo:     ledgerRepo,
		failOpen: failOpen,
	}
}

func (cs *CheckinService) Status(ctx context.Context, accountID uuid.UUID, today time.Time) (*entity.LedgerStatus, error) {
	today = civilDay(today)
	if accountID == uuid.Nil {
		return emptyStatus(today), nil
	}
	ledger, err := cs.repo.GetLedger(ctx, accountID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrLedgerNotFound) {
			return nil, err
		}
		if cs.failOpen {
			return emptyStatus(today), nil
		}
		return nil, fmt.Errorf("%w: %s", errorvalues.ErrRemoteUnavailable, err.Error())
	}
	from := today.AddDate(0, 0, -(windowDays - 1))
	days, err := cs.repo.GetCheckinDays(ctx, accountID, from, today)
	if err != nil {
		if cs.failOpen {
			return emptyStatus(today), nil
		}
		return nil, fmt.Errorf("%w: %s", errorvalues.ErrRemoteUnavailable, err.Error())
	}
	return buildStatus(ledger, days, today), nil
}

func (cs *CheckinService) CheckIn(ctx context.Context, accountID uuid.UUID, today time.Time) (*entity.LedgerStatus, error) {
	today = civilDay(today)
	if accountID == uuid.Nil {
		return nil, errorvalues.ErrNotAuthenticated
	}
	// A client can send its own calendar date, but not one ahead of the
	// server's: that would bank tomorrow's coin early
	if today.After(civilDay(time.Now())) {
		return nil, errorvalues.ErrInvalidDate
	}
	ledger, err := cs.repo.AtomicCheckin(ctx, accountID, today)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrAlreadyCheckedIn):
			status, statusErr := cs.Status(ctx, accountID, today)
			if statusErr != nil {
				return nil, statusErr
			}
			return status, errorvalues.ErrAlreadyCheckedIn
		case errors.Is(err, errorvalues.ErrLedgerNotFound):
			return nil, err
		case errors.Is(err, errorvalues.ErrInvalidDate):
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", errorvalues.ErrRemoteUnavailable, err.Error())
	}
	from := today.AddDate(0, 0, -(windowDays - 1))
	days, err := cs.repo.GetCheckinDays(ctx, accountID, from, today)
	if err != nil {
		// The check-in itself committed; report it with a bare window
		// rather than failing the whole call
		days = []time.Time{today}
	}
	return buildStatus(ledger, days, today), nil
}

func buildStatus(ledger *entity.Ledger, checked []time.Time, today time.Time) *entity.LedgerStatus {
	status := entity.LedgerStatus{
		Coins:  ledger.Coins,
		Streak: ledger.Streak,
		Window: make([]entity.DayStatus, 0, windowDays),
	}
	if ledger.LastCheckinDate != nil && sameCivilDay(*ledger.LastCheckinDate, today) {
		status.CheckedToday = true
	}
	for i := windowDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		cell := entity.DayStatus{Day: day}
		for _, c := range checked {
			if sameCivilDay(c, day) {
				cell.Checked = true
				break
			}
		}
		status.Window = append(status.Window, cell)
	}
	return &status
}

func emptyStatus(today time.Time) *entity.LedgerStatus {
	window := make([]entity.DayStatus, 0, windowDays)
	for i := windowDays - 1; i >= 0; i-- {
		window = append(window, entity.DayStatus{Day: today.AddDate(0, 0, -i)})
	}
	return &entity.LedgerStatus{Window: window}
}

func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameCivilDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
