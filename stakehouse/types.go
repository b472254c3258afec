package stakehouse

import "github.com/bitfsorg/stakehouse-go/ledger"

// DistributionDivisor sets the fraction of the pool paid per airdrop (1/10).
const DistributionDivisor = 10

// Config is fixed at Create time and never changes.
type Config struct {
	Token ledger.Address // identity of the token ledger
	Admin ledger.Address // recorded only; carries no runtime powers
	Pool  ledger.Address // the engine's own account in the ledger
}

// Holder is a registered member with a positive balance at airdrop time.
type Holder struct {
	Address ledger.Address
	Balance int64
}

// Payout is one holder's entitlement in a round.
type Payout struct {
	Address ledger.Address
	Balance int64 // holder balance observed for the round
	Share   int64 // floor(Balance * Distributable / TotalHolderBalance)
	Paid    bool  // transfer committed to the ledger
}

// RoundStatus records how far an airdrop's transfer loop got.
type RoundStatus string

const (
	RoundComplete RoundStatus = "complete"
	RoundPartial  RoundStatus = "partial"
)

// Round is the record of one airdrop.
type Round struct {
	ID                 string
	Seq                uint64 // assigned by the Store
	Time               int64  // unix seconds
	PoolBefore         int64
	Distributable      int64
	TotalHolderBalance int64
	Payouts            []Payout
	Status             RoundStatus
	Error              string // first transfer failure, if any
}

// Distributed returns the sum of shares actually transferred.
func (r *Round) Distributed() int64 {
	var total int64
	for _, p := range r.Payouts {
		if p.Paid {
			total += p.Share
		}
	}
	return total
}

// Residue returns what the round left undistributed out of Distributable.
func (r *Round) Residue() int64 {
	return r.Distributable - r.Distributed()
}

func (r *Round) clone() *Round {
	c := *r
	c.Payouts = append([]Payout(nil), r.Payouts...)
	return &c
}
