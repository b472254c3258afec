package stakehouse

import (
	"context"
	"fmt"

	"github.com/bitfsorg/stakehouse-go/ledger"
)

// Join registers requester for future airdrops. Membership is checked before
// the balance, so a repeated Join always reports ErrAlreadyRegistered even if
// the member's balance has since dropped to zero.
func (e *Engine) Join(ctx context.Context, requester ledger.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.config(); err != nil {
		return err
	}

	members, err := e.store.Members()
	if err != nil {
		return fmt.Errorf("stakehouse: load registry: %w", err)
	}
	if indexOf(members, requester) >= 0 {
		return ErrAlreadyRegistered
	}

	bal, err := e.ledger.BalanceOf(ctx, requester)
	if err != nil {
		return fmt.Errorf("stakehouse: read balance: %w", err)
	}
	if bal <= 0 {
		return fmt.Errorf("%w: %s has %d", ErrInsufficientBalance, requester, bal)
	}

	if err := e.store.AppendMember(requester); err != nil {
		return err
	}

	e.log.Info("member joined", "member", requester, "balance", bal, "members", len(members)+1)
	return nil
}
