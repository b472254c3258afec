package stakehouse

import (
	"fmt"
	"math"
	"math/big"
)

// ComputeShares splits distributable across holders in proportion to their
// balances. Each share is floor(balance * distributable / total); the
// truncation residue is not reassigned and stays with the caller.
func ComputeShares(distributable int64, holders []Holder) ([]Payout, int64, error) {
	if distributable < 0 {
		return nil, 0, fmt.Errorf("%w: distributable %d", ErrInvalidAmount, distributable)
	}
	if len(holders) == 0 {
		return nil, 0, ErrNoValidHolders
	}

	var total int64
	for _, h := range holders {
		if h.Balance <= 0 {
			return nil, 0, fmt.Errorf("%w: holder %s balance %d", ErrInvalidAmount, h.Address, h.Balance)
		}
		if total > math.MaxInt64-h.Balance {
			return nil, 0, ErrBalanceOverflow
		}
		total += h.Balance
	}

	payouts := make([]Payout, len(holders))
	for i, h := range holders {
		payouts[i] = Payout{
			Address: h.Address,
			Balance: h.Balance,
			Share:   mulDiv(h.Balance, distributable, total),
		}
	}
	return payouts, total, nil
}

// mulDiv returns floor(a*b/c) for non-negative a, b and positive c. The
// product is taken at arbitrary precision; the quotient fits in int64
// whenever a <= c.
func mulDiv(a, b, c int64) int64 {
	p := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	return p.Quo(p, big.NewInt(c)).Int64()
}
