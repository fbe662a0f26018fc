package errorvalues

import "errors"

var (
	ErrNotAuthenticated  = errors.New("no account in session")
	ErrAccountExists     = errors.New("account with such phone already exists")
	ErrAccountNotFound   = errors.New("account doesn't exist")
	ErrWrongCode         = errors.New("wrong verification code")
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrLedgerNotFound    = errors.New("ledger row doesn't exist")
	ErrInsufficientCoins = errors.New("not enough coins")
	ErrItemNotFound      = errors.New("unknown catalog item")
	ErrRequestConflict   = errors.New("request id already used by another account")
	ErrInvalidDate       = errors.New("malformed calendar date")
	ErrInvalidToken      = errors.New("invalid token")
	ErrRemoteUnavailable = errors.New("storage temporarily unavailable")
)
