package ledger

import "errors"

var (
	// ErrInvalidAddress indicates an address string or hash could not be decoded.
	ErrInvalidAddress = errors.New("ledger: invalid address")

	// ErrNegativeAmount indicates a transfer, mint or approval of a negative amount.
	ErrNegativeAmount = errors.New("ledger: negative amount")

	// ErrInsufficientFunds indicates the sender balance is below the transfer amount.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")

	// ErrInsufficientAllowance indicates the spender is not authorized for the amount.
	ErrInsufficientAllowance = errors.New("ledger: insufficient allowance")

	// ErrOverflow indicates a balance would exceed the int64 range.
	ErrOverflow = errors.New("ledger: balance overflow")

	// ErrConnectionFailed indicates the client could not reach the ledger service.
	ErrConnectionFailed = errors.New("ledger: connection failed")

	// ErrInvalidResponse indicates the ledger service returned a malformed response.
	ErrInvalidResponse = errors.New("ledger: invalid response")
)
