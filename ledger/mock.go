package ledger

import "context"

// MockLedger is a test double for TokenLedger.
// All function fields must be set before the corresponding method is called.
type MockLedger struct {
	BalanceOfFn    func(ctx context.Context, addr Address) (int64, error)
	AllowanceFn    func(ctx context.Context, owner, spender Address) (int64, error)
	TransferFromFn func(ctx context.Context, spender, owner, recipient Address, amount int64) error
	TransferFn     func(ctx context.Context, from, to Address, amount int64) error
}

func (m *MockLedger) BalanceOf(ctx context.Context, addr Address) (int64, error) {
	return m.BalanceOfFn(ctx, addr)
}
func (m *MockLedger) Allowance(ctx context.Context, owner, spender Address) (int64, error) {
	return m.AllowanceFn(ctx, owner, spender)
}
func (m *MockLedger) TransferFrom(ctx context.Context, spender, owner, recipient Address, amount int64) error {
	return m.TransferFromFn(ctx, spender, owner, recipient, amount)
}
func (m *MockLedger) Transfer(ctx context.Context, from, to Address, amount int64) error {
	return m.TransferFn(ctx, from, to, amount)
}

// Wrap returns a MockLedger whose functions delegate to inner; callers then
// override individual fields to inject failures.
func Wrap(inner TokenLedger) *MockLedger {
	return &MockLedger{
		BalanceOfFn:    inner.BalanceOf,
		AllowanceFn:    inner.Allowance,
		TransferFromFn: inner.TransferFrom,
		TransferFn:     inner.Transfer,
	}
}
