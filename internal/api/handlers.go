package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	errorvalues "github.com/evercare/companion/internal/error_values"
	"github.com/evercare/companion/internal/service"
	"github.com/evercare/companion/pkg/entity"
	"github.com/evercare/companion/pkg/httputil"
)

type RegisterRequest struct {
	Phone string `json:"phone"`
}

type LoginRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type CheckInRequest struct {
	Date string `json:"date"`
}

type CheckInResponse struct {
	AlreadyCheckedIn bool                 `json:"already_checked_in"`
	Status           *entity.LedgerStatus `json:"status"`
}

type RedeemRequest struct {
	ItemID    string `json:"item_id"`
	RequestID string `json:"request_id"`
}

type ListVouchersResponse struct {
	AccountID string            `json:"account_id"`
	Vouchers  []*entity.Voucher `json:"vouchers"`
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var req RegisterRequest
	defer r.Body.Close()
	err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("registering error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	account, err := s.accountService.Register(ctx, &service.RegisterRequest{
		Phone: req.Phone,
	})
	if err != nil {
		if errors.Is(err, errorvalues.ErrAccountExists) {
			logger.Error("registering error: existed account")
			httputil.WriteErrorResponse(w, http.StatusConflict, "account with such phone already exists", nil)
			return
		}
		logger.Error("registering error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error during registration", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, map[string]any{
		"account_id": account.ID.String(),
	})
	logger.Info("successful registration")
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var req LoginRequest
	defer r.Body.Close()
	err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("login error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	account, err := s.accountService.Login(ctx, req.Phone, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrAccountNotFound):
			logger.Error("login error: unexist account")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "account with such phone doesn't exist", nil)
			return
		case errors.Is(err, errorvalues.ErrWrongCode):
			logger.Error("login error: wrong verification code")
			httputil.WriteErrorResponse(w, http.StatusForbidden, "invalid phone or verification code", nil)
			return
		default:
			logger.Error("login error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error during login", nil)
			return
		}
	}
	token, err := s.jwtService.GenerateToken(account)
	if err != nil {
		logger.Error("login error: generating token error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "error creating token", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"account_id": account.ID.String(),
		"onboarded":  account.Onboarded,
		"token":      token,
	})
	logger.Info("successful login")
}

func (s *Server) CheckinStatus(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	accountID, err := GetAccountIDFromContext(r)
	if err != nil {
		logger.Error("check-in status error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	today, err := dateFromQuery(r)
	if err != nil {
		logger.Error("check-in status error: malformed date")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "malformed date, expected YYYY-MM-DD", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	status, err := s.checkinService.Status(ctx, accountID, today)
	if err != nil {
		if errors.Is(err, errorvalues.ErrRemoteUnavailable) {
			logger.Error("check-in status error: storage unavailable", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusServiceUnavailable, "service temporarily unavailable, try again", nil)
			return
		}
		logger.Error("check-in status error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while reading status", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, status)
	logger.Info("check-in status provided")
}

func (s *Server) CheckIn(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	accountID, err := GetAccountIDFromContext(r)
	if err != nil {
		logger.Error("check-in error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req CheckInRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("check-in error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	today := time.Now()
	if req.Date != "" {
		today, err = service.ParseDay(req.Date)
		if err != nil {
			logger.Error("check-in error: malformed date")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "malformed date, expected YYYY-MM-DD", nil)
			return
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	status, err := s.checkinService.CheckIn(ctx, accountID, today)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrAlreadyCheckedIn):
			httputil.WriteJSONResponse(w, http.StatusOK, CheckInResponse{
				AlreadyCheckedIn: true,
				Status:           status,
			})
			logger.Info("repeated check-in for the same day")
			return
		case errors.Is(err, errorvalues.ErrInvalidDate):
			logger.Error("check-in error: out-of-order date")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "check-in date out of order", nil)
			return
		case errors.Is(err, errorvalues.ErrRemoteUnavailable):
			logger.Error("check-in error: storage unavailable", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusServiceUnavailable, "service temporarily unavailable, try again", nil)
			return
		default:
			logger.Error("check-in error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while checking in", nil)
			return
		}
	}
	httputil.WriteJSONResponse(w, http.StatusOK, CheckInResponse{
		AlreadyCheckedIn: false,
		Status:           status,
	})
	logger.Info("check-in recorded")
}

func (s *Server) Catalog(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"items": s.redemptionService.Catalog(),
	})
	logger.Info("catalog provided")
}

func (s *Server) Redeem(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	accountID, err := GetAccountIDFromContext(r)
	if err != nil {
		logger.Error("redeem error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req RedeemRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("redeem error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	requestID := uuid.UUID{}
	if req.RequestID != "" {
		requestID, err = uuid.Parse(req.RequestID)
		if err != nil {
			logger.Error("redeem error: invalid request id")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request id", nil)
			return
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	voucher, err := s.redemptionService.Redeem(ctx, accountID, req.ItemID, requestID)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrItemNotFound):
			logger.Error("redeem error: unknown catalog item")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "unknown catalog item", nil)
		case errors.Is(err, errorvalues.ErrInsufficientCoins):
			logger.Error("redeem error: not enough coins")
			httputil.WriteErrorResponse(w, http.StatusConflict, "not enough coins for this reward", nil)
		case errors.Is(err, errorvalues.ErrRequestConflict):
			logger.Error("redeem error: foreign request id")
			httputil.WriteErrorResponse(w, http.StatusConflict, "request id already used", nil)
		case errors.Is(err, errorvalues.ErrRemoteUnavailable):
			logger.Error("redeem error: storage unavailable", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusServiceUnavailable, "service temporarily unavailable, try again", nil)
		default:
			logger.Error("redeem error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while redeeming", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, voucher)
	logger.Info("reward redeemed")
}

func (s *Server) ListVouchers(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	accountID, err := GetAccountIDFromContext(r)
	if err != nil {
		logger.Error("list vouchers error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	vouchers, err := s.redemptionService.ListVouchers(ctx, accountID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrRemoteUnavailable) {
			logger.Error("list vouchers error: storage unavailable", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusServiceUnavailable, "service temporarily unavailable, try again", nil)
			return
		}
		logger.Error("list vouchers error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while listing vouchers", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, ListVouchersResponse{
		AccountID: accountID.String(),
		Vouchers:  vouchers,
	})
	logger.Info("vouchers provided")
}

func (s *Server) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	accountID, err := GetAccountIDFromContext(r)
	if err != nil {
		logger.Error("onboarding error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	err = s.accountService.CompleteOnboarding(ctx, accountID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrAccountNotFound) {
			logger.Error("onboarding error: unexist account")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "account doesn't exist", nil)
			return
		}
		logger.Error("onboarding error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while completing onboarding", nil)
		return
	}
	httputil.WriteNoContent(w)
	logger.Info("onboarding completed")
}

func dateFromQuery(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now(), nil
	}
	return service.ParseDay(raw)
}
