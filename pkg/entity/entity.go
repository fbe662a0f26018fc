package entity

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID        uuid.UUID `json:"id"`
	Phone     string    `json:"phone"`
	Onboarded bool      `json:"onboarded"`
	CreatedAt time.Time `json:"created_at"`
}

// Ledger is the per-account check-in state. One row per account,
// created together with the account.
type Ledger struct {
	AccountID       uuid.UUID
	Coins           int
	Streak          int
	LastCheckinDate *time.Time
	UpdatedAt       time.Time
}

// DayStatus is one cell of the rolling 7-day tracker.
type DayStatus struct {
	Day     time.Time `json:"day"`
	Checked bool      `json:"checked"`
}

type LedgerStatus struct {
	Coins        int         `json:"coins"`
	Streak       int         `json:"streak"`
	CheckedToday bool        `json:"checked_today"`
	Window       []DayStatus `json:"window"`
}

type Voucher struct {
	ID         uuid.UUID `json:"id"`
	AccountID  uuid.UUID `json:"account_id"`
	ItemID     string    `json:"item_id"`
	Code       string    `json:"code"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

// CatalogItem is a static reward definition, not persisted.
type CatalogItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Terms string `json:"terms"`
	Cost  int    `json:"cost"`
	Icon  string `json:"icon,omitempty"`
}
