package ledger

import "context"

// TokenLedger is the view of an external fungible asset used by the
// distribution engine. Implementations enforce their own balance and
// allowance rules; callers treat any returned error as fatal.
type TokenLedger interface {
	// BalanceOf returns the current balance held by addr.
	BalanceOf(ctx context.Context, addr Address) (int64, error)

	// Allowance returns how much spender may currently pull from owner.
	Allowance(ctx context.Context, owner, spender Address) (int64, error)

	// TransferFrom moves amount from owner to recipient using spender's
	// pre-authorization. Fails if Allowance(owner, spender) < amount.
	TransferFrom(ctx context.Context, spender, owner, recipient Address, amount int64) error

	// Transfer pushes amount from the sender's own balance to recipient.
	Transfer(ctx context.Context, from, to Address, amount int64) error
}
