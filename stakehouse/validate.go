package stakehouse

import "fmt"

// ValidateConservation checks that a round paid at most its distributable
// amount and that the distributable amount was the pool's fixed fraction.
func ValidateConservation(r *Round) error {
	if r.Distributable != r.PoolBefore/DistributionDivisor {
		return fmt.Errorf("%w: distributable=%d pool=%d",
			ErrConservationViolation, r.Distributable, r.PoolBefore)
	}
	var sum int64
	for _, p := range r.Payouts {
		sum += p.Share
	}
	if sum > r.Distributable {
		return fmt.Errorf("%w: shares=%d distributable=%d", ErrConservationViolation, sum, r.Distributable)
	}
	return nil
}

// ValidateRound checks a recorded round: conservation, the holder total and
// every share against a fresh proportional computation.
func ValidateRound(r *Round) error {
	if err := ValidateConservation(r); err != nil {
		return err
	}

	holders := make([]Holder, len(r.Payouts))
	for i, p := range r.Payouts {
		holders[i] = Holder{Address: p.Address, Balance: p.Balance}
	}
	expected, total, err := ComputeShares(r.Distributable, holders)
	if err != nil {
		return err
	}
	if total != r.TotalHolderBalance {
		return fmt.Errorf("holder total %d != expected %d", r.TotalHolderBalance, total)
	}
	for i := range r.Payouts {
		if r.Payouts[i].Share != expected[i].Share {
			return fmt.Errorf("payout %d: share %d != expected %d", i, r.Payouts[i].Share, expected[i].Share)
		}
	}
	return nil
}
