package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errorvalues "github.com/evercare/companion/internal/error_values"
	"github.com/evercare/companion/internal/service"
	"github.com/evercare/companion/pkg/entity"
)

func TestMain(m *testing.M) {
	service.InitValidator()
	m.Run()
}

type accountsRepoMock struct {
	createFunc       func(ctx context.Context, account *entity.Account) (uuid.UUID, error)
	findByPhoneFunc  func(ctx context.Context, phone string) (*entity.Account, error)
	findByIDFunc     func(ctx context.Context, id uuid.UUID) (*entity.Account, error)
	setOnboardedFunc func(ctx context.Context, id uuid.UUID) error
}

func (m *accountsRepoMock) Create(ctx context.Context, account *entity.Account) (uuid.UUID, error) {
	return m.createFunc(ctx, account)
}

func (m *accountsRepoMock) FindByPhone(ctx context.Context, phone string) (*entity.Account, error) {
	return m.findByPhoneFunc(ctx, phone)
}

func (m *accountsRepoMock) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *accountsRepoMock) SetOnboarded(ctx context.Context, id uuid.UUID) error {
	return m.setOnboardedFunc(ctx, id)
}

const testOTP = "000000"

func TestRegister(t *testing.T) {
	accountID := uuid.New()
	phone := "+79160000001"
	ctx := context.Background()

	t.Run("successful", func(t *testing.T) {
		repo := &accountsRepoMock{
			createFunc: func(ctx context.Context, account *entity.Account) (uuid.UUID, error) {
				assert.Equal(t, phone, account.Phone)
				return accountID, nil
			},
			findByIDFunc: func(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
				return &entity.Account{ID: accountID, Phone: phone}, nil
			},
		}
		serv := service.NewAccountService(repo, testOTP)
		account, err := serv.Register(ctx, &service.RegisterRequest{Phone: phone})
		require.NoError(t, err)
		assert.Equal(t, accountID, account.ID)
	})
	t.Run("invalid phone", func(t *testing.T) {
		serv := service.NewAccountService(&accountsRepoMock{}, testOTP)
		_, err := serv.Register(ctx, &service.RegisterRequest{Phone: "not-a-phone"})
		assert.Error(t, err)
	})
	t.Run("too short phone", func(t *testing.T) {
		serv := service.NewAccountService(&accountsRepoMock{}, testOTP)
		_, err := serv.Register(ctx, &service.RegisterRequest{Phone: "+1234"})
		assert.Error(t, err)
	})
	t.Run("existed account", func(t *testing.T) {
		repo := &accountsRepoMock{
			createFunc: func(ctx context.Context, account *entity.Account) (uuid.UUID, error) {
				return uuid.UUID{}, errorvalues.ErrAccountExists
			},
		}
		serv := service.NewAccountService(repo, testOTP)
		_, err := serv.Register(ctx, &service.RegisterRequest{Phone: phone})
		assert.ErrorIs(t, err, errorvalues.ErrAccountExists)
	})
	t.Run("repository error", func(t *testing.T) {
		repo := &accountsRepoMock{
			createFunc: func(ctx context.Context, account *entity.Account) (uuid.UUID, error) {
				return uuid.UUID{}, errors.New("db error")
			},
		}
		serv := service.NewAccountService(repo, testOTP)
		_, err := serv.Register(ctx, &service.RegisterRequest{Phone: phone})
		assert.Error(t, err)
	})
}

func TestLogin(t *testing.T) {
	accountID := uuid.New()
	phone := "+79160000001"
	ctx := context.Background()
	repo := &accountsRepoMock{
		findByPhoneFunc: func(ctx context.Context, p string) (*entity.Account, error) {
			if p != phone {
				return nil, errorvalues.ErrAccountNotFound
			}
			return &entity.Account{ID: accountID, Phone: phone}, nil
		},
	}
	serv := service.NewAccountService(repo, testOTP)

	t.Run("successful", func(t *testing.T) {
		account, err := serv.Login(ctx, phone, testOTP)
		require.NoError(t, err)
		assert.Equal(t, accountID, account.ID)
	})
	t.Run("wrong code", func(t *testing.T) {
		_, err := serv.Login(ctx, phone, "999999")
		assert.ErrorIs(t, err, errorvalues.ErrWrongCode)
	})
	t.Run("account not found", func(t *testing.T) {
		_, err := serv.Login(ctx, "+79169999999", testOTP)
		assert.ErrorIs(t, err, errorvalues.ErrAccountNotFound)
	})
}

func TestCompleteOnboarding(t *testing.T) {
	accountID := uuid.New()
	ctx := context.Background()
	t.Run("successful", func(t *testing.T) {
		repo := &accountsRepoMock{
			setOnboardedFunc: func(ctx context.Context, id uuid.UUID) error {
				assert.Equal(t, accountID, id)
				return nil
			},
		}
		serv := service.NewAccountService(repo, testOTP)
		assert.NoError(t, serv.CompleteOnboarding(ctx, accountID))
	})
	t.Run("account not found", func(t *testing.T) {
		repo := &accountsRepoMock{
			setOnboardedFunc: func(ctx context.Context, id uuid.UUID) error {
				return errorvalues.ErrAccountNotFound
			},
		}
		serv := service.NewAccountService(repo, testOTP)
		err := serv.CompleteOnboarding(ctx, accountID)
		assert.ErrorIs(t, err, errorvalues.ErrAccountNotFound)
	})
}

func TestParseDay(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		d, err := service.ParseDay("2024-03-11")
		require.NoError(t, err)
		assert.Equal(t, 2024, d.Year())
	})
	t.Run("malformed", func(t *testing.T) {
		_, err := service.ParseDay("11.03.2024")
		assert.ErrorIs(t, err, errorvalues.ErrInvalidDate)
	})
}
