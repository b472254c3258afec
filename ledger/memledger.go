package ledger

import (
	"context"
	"fmt"
	"math"
	"sync"
)

// allowanceKey indexes an allowance by owner then spender.
type allowanceKey struct {
	owner   Address
	spender Address
}

// MemLedger is an in-memory fungible token ledger. It is safe for
// concurrent use and is intended for tests and local development.
type MemLedger struct {
	mu         sync.RWMutex
	balances   map[Address]int64
	allowances map[allowanceKey]int64
	supply     int64
}

// Compile-time interface check.
var _ TokenLedger = (*MemLedger)(nil)

// NewMemLedger creates an empty in-memory ledger.
func NewMemLedger() *MemLedger {
	return &MemLedger{
		balances:   make(map[Address]int64),
		allowances: make(map[allowanceKey]int64),
	}
}

// BalanceOf returns the balance of addr (zero when unknown).
func (l *MemLedger) BalanceOf(_ context.Context, addr Address) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[addr], nil
}

// Allowance returns the amount spender may pull from owner.
func (l *MemLedger) Allowance(_ context.Context, owner, spender Address) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.allowances[allowanceKey{owner, spender}], nil
}

// TransferFrom moves amount from owner to recipient, consuming spender's allowance.
func (l *MemLedger) TransferFrom(_ context.Context, spender, owner, recipient Address, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeAmount, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := allowanceKey{owner, spender}
	if allowed := l.allowances[key]; allowed < amount {
		return fmt.Errorf("%w: allowed=%d amount=%d", ErrInsufficientAllowance, allowed, amount)
	}
	if err := l.move(owner, recipient, amount); err != nil {
		return err
	}
	l.allowances[key] -= amount
	return nil
}

// Transfer pushes amount from the sender to recipient.
func (l *MemLedger) Transfer(_ context.Context, from, to Address, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeAmount, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(from, to, amount)
}

// Mint credits amount to addr out of thin air.
func (l *MemLedger) Mint(_ context.Context, to Address, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeAmount, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bal, err := credit(l.balances[to], amount)
	if err != nil {
		return err
	}
	supply, err := credit(l.supply, amount)
	if err != nil {
		return err
	}
	l.balances[to] = bal
	l.supply = supply
	return nil
}

// Approve sets (not increments) the amount spender may pull from owner.
func (l *MemLedger) Approve(_ context.Context, owner, spender Address, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeAmount, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.allowances[allowanceKey{owner, spender}] = amount
	return nil
}

// TotalSupply returns the sum of all minted tokens.
func (l *MemLedger) TotalSupply() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.supply
}

// move must be called with l.mu held.
func (l *MemLedger) move(from, to Address, amount int64) error {
	fromBal, err := debit(l.balances[from], amount)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	toBal, err := credit(l.balances[to], amount)
	if err != nil {
		return err
	}
	l.balances[from] = fromBal
	l.balances[to] = toBal
	return nil
}

// debit subtracts amount from bal, refusing to go negative.
func debit(bal, amount int64) (int64, error) {
	if bal < amount {
		return 0, fmt.Errorf("%w: balance=%d amount=%d", ErrInsufficientFunds, bal, amount)
	}
	return bal - amount, nil
}

// credit adds amount to bal, refusing to overflow.
func credit(bal, amount int64) (int64, error) {
	if bal > math.MaxInt64-amount {
		return 0, fmt.Errorf("%w: balance=%d amount=%d", ErrOverflow, bal, amount)
	}
	return bal + amount, nil
}
