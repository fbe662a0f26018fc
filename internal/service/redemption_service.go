package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	errorvalues "github.com/evercare/companion/internal/error_values"
	"github.com/evercare/companion/internal/repository"
	"github.com/evercare/companion/pkg/entity"
)

const (
	codeTag        = "EVC"
	codeSegmentLen = 5
	codeAlphabet   = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

type RedemptionService struct {
	repo repository.VouchersRepositoryI
}

func NewRedemptionService(vouchersRepo repository.VouchersRepositoryI) *RedemptionService {
	if vouchersRepo == nil {
		log.Fatal("provided nil vouchersRepo")
	}
	return &RedemptionService{
		repo: vouchersRepo,
	}
}

func (rs *RedemptionService) Catalog() []entity.CatalogItem {
	return catalogItems
}

func (rs *RedemptionService) Redeem(ctx context.Context, accountID uuid.UUID, itemID string, requestID uuid.UUID) (*entity.Voucher, error) {
	if accountID == uuid.Nil {
		return nil, errorvalues.ErrNotAuthenticated
	}
	item, ok := lookupCatalogItem(itemID)
	if !ok {
		return nil, errorvalues.ErrItemNotFound
	}
	if requestID == uuid.Nil {
		requestID = uuid.New()
	}
	code, err := generateVoucherCode()
	if err != nil {
		return nil, errors.New("generating voucher code error: " + err.Error())
	}
	voucher, err := rs.repo.AtomicRedeem(ctx, &entity.Voucher{
		AccountID: accountID,
		ItemID:    item.ID,
		Code:      code,
	}, item.Cost, requestID)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrInsufficientCoins):
			return nil, err
		case errors.Is(err, errorvalues.ErrLedgerNotFound):
			return nil, err
		case errors.Is(err, errorvalues.ErrRequestConflict):
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", errorvalues.ErrRemoteUnavailable, err.Error())
	}
	return voucher, nil
}

func (rs *RedemptionService) ListVouchers(ctx context.Context, accountID uuid.UUID) ([]*entity.Voucher, error) {
	if accountID == uuid.Nil {
		return nil, errorvalues.ErrNotAuthenticated
	}
	vouchers, err := rs.repo.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errorvalues.ErrRemoteUnavailable, err.Error())
	}
	return vouchers, nil
}

// generateVoucherCode builds a display code like EVC-X93K2-7QMRT. It
// only needs to be unlikely to collide at catalog volumes, it is not a
// security token.
func generateVoucherCode() (string, error) {
	segments := [2]string{}
	buf := make([]byte, codeSegmentLen)
	for i := range segments {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		seg := make([]byte, codeSegmentLen)
		for j, b := range buf {
			seg[j] = codeAlphabet[int(b)%len(codeAlphabet)]
		}
		segments[i] = string(seg)
	}
	return fmt.Sprintf("%s-%s-%s", codeTag, segments[0], segments[1]), nil
}
