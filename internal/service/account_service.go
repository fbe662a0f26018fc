package service

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	errorvalues "github.com/evercare/companion/internal/error_values"
	"github.com/evercare/companion/internal/repository"
	"github.com/evercare/companion/pkg/entity"
)

type AccountService struct {
	repo repository.AccountsRepositoryI
	// otpCode is the development verification code; the real SMS
	// delivery lives outside this service
	otpCode string
}

func NewAccountService(accountsRepo repository.AccountsRepositoryI, otpCode string) *AccountService {
	return &AccountService{
		repo:    accountsRepo,
		otpCode: otpCode,
	}
}

func (as *AccountService) Register(ctx context.Context, req *RegisterRequest) (*entity.Account, error) {
	err := validate.Struct(*req)
	if err != nil {
		if validationError, ok := err.(validator.ValidationErrors); ok {
			err = errors.New("validation error: ")
			for _, fieldErr := range validationError {
				err = errors.Join(err, fieldErr)
			}
			return nil, err
		}
		return nil, errors.New("validation unexpected error: " + err.Error())
	}
	id, err := as.repo.Create(ctx, &entity.Account{
		Phone: req.Phone,
	})
	if err != nil {
		if errors.Is(err, errorvalues.ErrAccountExists) {
			return nil, err
		}
		return nil, errors.New("repository creating error: " + err.Error())
	}
	account, err := as.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("repository searching error: " + err.Error())
	}
	return account, nil
}

func (as *AccountService) Login(ctx context.Context, phone, code string) (*entity.Account, error) {
	account, err := as.repo.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, errorvalues.ErrAccountNotFound) {
			return nil, err
		}
		return nil, errors.New("repository searching error: " + err.Error())
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(as.otpCode)) != 1 {
		return nil, errorvalues.ErrWrongCode
	}
	return account, nil
}

func (as *AccountService) GetByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	account, err := as.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrAccountNotFound) {
			return nil, err
		}
		return nil, errors.New("repository searching error: " + err.Error())
	}
	return account, nil
}

func (as *AccountService) CompleteOnboarding(ctx context.Context, id uuid.UUID) error {
	err := as.repo.SetOnboarded(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrAccountNotFound) {
			return err
		}
		return errors.New("repository updating error: " + err.Error())
	}
	return nil
}
