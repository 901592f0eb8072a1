package ledger

import "errors"

// Domain errors. Callers present these; nothing in this package aborts the
// process.
var (
	ErrNotFound          = errors.New("account not found")
	ErrAlreadyExists     = errors.New("account number already exists")
	ErrAccountLocked     = errors.New("account locked")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSameAccount       = errors.New("sender and receiver are the same account")
	ErrReceiverNotFound  = errors.New("receiver account not found")
)
