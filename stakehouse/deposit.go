package stakehouse

import (
	"context"
	"fmt"

	"github.com/bitfsorg/stakehouse-go/ledger"
)

// Deposit pulls amount from depositor into the pool. The depositor must have
// approved the pool account for at least amount beforehand; the allowance is
// checked before any transfer is attempted.
func (e *Engine) Deposit(ctx context.Context, depositor ledger.Address, amount int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg, err := e.config()
	if err != nil {
		return err
	}
	if amount <= 0 {
		return fmt.Errorf("%w: deposit %d", ErrInvalidAmount, amount)
	}

	allowed, err := e.ledger.Allowance(ctx, depositor, cfg.Pool)
	if err != nil {
		return fmt.Errorf("stakehouse: read allowance: %w", err)
	}
	if allowed < amount {
		return fmt.Errorf("%w: allowed=%d amount=%d", ErrInsufficientAllowance, allowed, amount)
	}

	if err := e.ledger.TransferFrom(ctx, cfg.Pool, depositor, cfg.Pool, amount); err != nil {
		return fmt.Errorf("stakehouse: deposit transfer: %w", err)
	}

	e.log.Info("deposit", "depositor", depositor, "amount", amount)
	return nil
}
