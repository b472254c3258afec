package stakehouse

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Airdrop pays DistributionDivisor-th of the pool to members holding a
// positive balance, each in proportion to that balance. Members with a zero
// balance are skipped for this round but stay registered. Zero shares are
// not transferred, and truncation residue remains in the pool.
//
// Transfers are issued one by one in registry order and the loop stops at
// the first failure. Payouts already sent stay committed: the returned Round
// marks them Paid, its Status is RoundPartial, and the error wraps both
// ErrPartialAirdrop and the ledger failure. Every round that reaches the
// transfer loop is recorded in the store.
func (e *Engine) Airdrop(ctx context.Context) (*Round, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg, err := e.config()
	if err != nil {
		return nil, err
	}

	poolBalance, err := e.ledger.BalanceOf(ctx, cfg.Pool)
	if err != nil {
		return nil, fmt.Errorf("stakehouse: pool balance: %w", err)
	}
	if poolBalance <= 0 {
		return nil, ErrEmptyPool
	}

	members, err := e.store.Members()
	if err != nil {
		return nil, fmt.Errorf("stakehouse: load registry: %w", err)
	}
	if len(members) == 0 {
		return nil, ErrNoMembers
	}

	holders := make([]Holder, 0, len(members))
	for _, m := range members {
		bal, err := e.ledger.BalanceOf(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("stakehouse: balance of %s: %w", m, err)
		}
		if bal > 0 {
			holders = append(holders, Holder{Address: m, Balance: bal})
		}
	}
	if len(holders) == 0 {
		return nil, ErrNoValidHolders
	}

	distributable := poolBalance / DistributionDivisor
	payouts, total, err := ComputeShares(distributable, holders)
	if err != nil {
		return nil, err
	}

	round := &Round{
		ID:                 uuid.NewString(),
		Time:               e.now().Unix(),
		PoolBefore:         poolBalance,
		Distributable:      distributable,
		TotalHolderBalance: total,
		Payouts:            payouts,
		Status:             RoundComplete,
	}

	var transferErr error
	for i := range round.Payouts {
		p := &round.Payouts[i]
		if p.Share <= 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			transferErr = fmt.Errorf("%w: before paying %s: %w", ErrPartialAirdrop, p.Address, err)
			break
		}
		if err := e.ledger.Transfer(ctx, cfg.Pool, p.Address, p.Share); err != nil {
			transferErr = fmt.Errorf("%w: paying %d to %s: %w", ErrPartialAirdrop, p.Share, p.Address, err)
			break
		}
		p.Paid = true
	}
	if transferErr != nil {
		round.Status = RoundPartial
		round.Error = transferErr.Error()
	}

	if err := e.store.PutRound(round); err != nil {
		return round, errors.Join(transferErr, fmt.Errorf("stakehouse: record round: %w", err))
	}

	if transferErr != nil {
		e.log.Warn("airdrop stopped early",
			"round", round.ID, "distributed", round.Distributed(), "error", transferErr)
		return round, transferErr
	}

	e.log.Info("airdrop",
		"round", round.ID,
		"pool", poolBalance,
		"distributable", distributable,
		"distributed", round.Distributed(),
		"holders", len(holders),
	)
	return round, nil
}
