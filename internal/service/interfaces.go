package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/evercare/companion/pkg/entity"
)

type RegisterRequest struct {
	Phone string `validate:"required,phone"`
}

type AccountServiceI interface {
	// Validates the phone, creates account plus empty ledger. Returns account with ID
	Register(ctx context.Context, req *RegisterRequest) (*entity.Account, error)
	// Verifies the one-time code and gives back the account for token issue
	Login(ctx context.Context, phone, code string) (*entity.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)
	CompleteOnboarding(ctx context.Context, id uuid.UUID) error
}

type CheckinServiceI interface {
	// Reads coins, streak, checked-today flag and the rolling 7-day
	// window ending at today. Nil account id yields a zeroed status
	Status(ctx context.Context, accountID uuid.UUID, today time.Time) (*entity.LedgerStatus, error)
	// Records today's check-in. Duplicate day returns the refreshed
	// status together with ErrAlreadyCheckedIn
	CheckIn(ctx context.Context, accountID uuid.UUID, today time.Time) (*entity.LedgerStatus, error)
}

type RedemptionServiceI interface {
	// Static list of redeemable items
	Catalog() []entity.CatalogItem
	// Exchanges coins for itemID, issuing a voucher. requestID allows
	// safe retry without a double debit
	Redeem(ctx context.Context, accountID uuid.UUID, itemID string, requestID uuid.UUID) (*entity.Voucher, error)
	ListVouchers(ctx context.Context, accountID uuid.UUID) ([]*entity.Voucher, error)
}
