package stakehouse

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/stakehouse-go/ledger"
)

var (
	tokenAddr = makeAddr(0x70)
	adminAddr = makeAddr(0xAD)
	investorA = makeAddr(0xA1)
	memberB   = makeAddr(0xB2)
	memberC   = makeAddr(0xC3)
)

type fixture struct {
	ctx    context.Context
	ledger *ledger.MemLedger
	store  *MemStore
	engine *Engine
	pool   ledger.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:    context.Background(),
		ledger: ledger.NewMemLedger(),
		store:  NewMemStore(),
	}
	f.engine = New(f.ledger, f.store, WithClock(func() time.Time { return time.Unix(1700000000, 0) }))
	cfg, err := f.engine.Create(f.ctx, Config{Token: tokenAddr, Admin: adminAddr})
	require.NoError(t, err)
	f.pool = cfg.Pool
	return f
}

func (f *fixture) mint(t *testing.T, to ledger.Address, amount int64) {
	t.Helper()
	require.NoError(t, f.ledger.Mint(f.ctx, to, amount))
}

// fund mints, approves and deposits amount from depositor.
func (f *fixture) fund(t *testing.T, depositor ledger.Address, amount int64) {
	t.Helper()
	f.mint(t, depositor, amount)
	require.NoError(t, f.ledger.Approve(f.ctx, depositor, f.pool, amount))
	require.NoError(t, f.engine.Deposit(f.ctx, depositor, amount))
}

func (f *fixture) balance(t *testing.T, addr ledger.Address) int64 {
	t.Helper()
	bal, err := f.ledger.BalanceOf(f.ctx, addr)
	require.NoError(t, err)
	return bal
}

// --- Create ---

func TestCreate_Once(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, PoolAddressFor(tokenAddr, adminAddr), f.pool)

	_, err := f.engine.Create(f.ctx, Config{Token: tokenAddr, Admin: adminAddr})
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	cfg, err := f.engine.Config(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, tokenAddr, cfg.Token)
	assert.Equal(t, adminAddr, cfg.Admin)
}

func TestCreate_ExplicitPool(t *testing.T) {
	e := New(ledger.NewMemLedger(), NewMemStore())
	pool := makeAddr(0x99)
	cfg, err := e.Create(context.Background(), Config{Token: tokenAddr, Admin: adminAddr, Pool: pool})
	require.NoError(t, err)
	assert.Equal(t, pool, cfg.Pool)
}

func TestCreate_MissingAddresses(t *testing.T) {
	e := New(ledger.NewMemLedger(), NewMemStore())
	_, err := e.Create(context.Background(), Config{Admin: adminAddr})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = e.Create(context.Background(), Config{Token: tokenAddr})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestOperations_NotInitialized(t *testing.T) {
	ctx := context.Background()
	e := New(ledger.NewMemLedger(), NewMemStore())

	assert.ErrorIs(t, e.Deposit(ctx, investorA, 1), ErrNotInitialized)
	assert.ErrorIs(t, e.Join(ctx, memberB), ErrNotInitialized)
	_, err := e.Airdrop(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = e.Members(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = e.PoolBalance(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = e.Rounds(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

// --- Deposit ---

func TestDeposit(t *testing.T) {
	f := newFixture(t)
	f.fund(t, investorA, 1000)

	pool, err := f.engine.PoolBalance(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), pool)
	assert.Equal(t, int64(0), f.balance(t, investorA))

	members, err := f.engine.Members(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, members, "deposit must not register the depositor")
}

func TestDeposit_WithoutAllowance(t *testing.T) {
	f := newFixture(t)
	f.mint(t, investorA, 1000)

	err := f.engine.Deposit(f.ctx, investorA, 500)
	assert.ErrorIs(t, err, ErrInsufficientAllowance)
	assert.Equal(t, int64(0), f.balance(t, f.pool))
	assert.Equal(t, int64(1000), f.balance(t, investorA))
}

func TestDeposit_AllowanceBelowAmount(t *testing.T) {
	f := newFixture(t)
	f.mint(t, investorA, 1000)
	require.NoError(t, f.ledger.Approve(f.ctx, investorA, f.pool, 499))

	err := f.engine.Deposit(f.ctx, investorA, 500)
	assert.ErrorIs(t, err, ErrInsufficientAllowance)
	assert.Equal(t, int64(0), f.balance(t, f.pool))
}

func TestDeposit_NonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	for _, amount := range []int64{0, -5} {
		err := f.engine.Deposit(f.ctx, investorA, amount)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
}

func TestDeposit_AllowanceCheckedBeforeTransfer(t *testing.T) {
	f := newFixture(t)
	mock := ledger.Wrap(f.ledger)
	mock.TransferFromFn = func(context.Context, ledger.Address, ledger.Address, ledger.Address, int64) error {
		t.Fatal("TransferFrom must not be called without allowance")
		return nil
	}
	e := New(mock, f.store)

	err := e.Deposit(f.ctx, investorA, 10)
	assert.ErrorIs(t, err, ErrInsufficientAllowance)
}

func TestDeposit_LedgerFailurePropagates(t *testing.T) {
	f := newFixture(t)
	f.mint(t, investorA, 10)
	// Allowance above balance: the ledger itself refuses the pull.
	require.NoError(t, f.ledger.Approve(f.ctx, investorA, f.pool, 100))

	err := f.engine.Deposit(f.ctx, investorA, 50)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
}

// --- Join ---

func TestJoin(t *testing.T) {
	f := newFixture(t)
	f.mint(t, memberB, 50)
	f.mint(t, memberC, 150)

	require.NoError(t, f.engine.Join(f.ctx, memberC))
	require.NoError(t, f.engine.Join(f.ctx, memberB))

	members, err := f.engine.Members(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []ledger.Address{memberC, memberB}, members)
}

func TestJoin_ZeroBalance(t *testing.T) {
	f := newFixture(t)
	err := f.engine.Join(f.ctx, memberB)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	members, _ := f.engine.Members(f.ctx)
	assert.Empty(t, members)
}

func TestJoin_Twice(t *testing.T) {
	f := newFixture(t)
	f.mint(t, memberB, 50)

	require.NoError(t, f.engine.Join(f.ctx, memberB))
	assert.ErrorIs(t, f.engine.Join(f.ctx, memberB), ErrAlreadyRegistered)

	// Still a duplicate after the balance changes either way.
	f.mint(t, memberB, 1000)
	assert.ErrorIs(t, f.engine.Join(f.ctx, memberB), ErrAlreadyRegistered)
	require.NoError(t, f.ledger.Transfer(f.ctx, memberB, memberC, 1050))
	assert.ErrorIs(t, f.engine.Join(f.ctx, memberB), ErrAlreadyRegistered)

	members, _ := f.engine.Members(f.ctx)
	assert.Len(t, members, 1)
}

func TestJoin_LedgerFailure(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("ledger down")
	mock := ledger.Wrap(f.ledger)
	mock.BalanceOfFn = func(context.Context, ledger.Address) (int64, error) { return 0, boom }

	err := New(mock, f.store).Join(f.ctx, memberB)
	assert.ErrorIs(t, err, boom)
	members, _ := f.store.Members()
	assert.Empty(t, members)
}

// --- Airdrop ---

func TestAirdrop_Scenario(t *testing.T) {
	f := newFixture(t)
	f.fund(t, investorA, 1000)
	f.mint(t, memberB, 50)
	f.mint(t, memberC, 150)
	require.NoError(t, f.engine.Join(f.ctx, memberB))
	require.NoError(t, f.engine.Join(f.ctx, memberC))

	round, err := f.engine.Airdrop(f.ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1000), round.PoolBefore)
	assert.Equal(t, int64(100), round.Distributable)
	assert.Equal(t, int64(200), round.TotalHolderBalance)
	assert.Equal(t, int64(100), round.Distributed())
	assert.Equal(t, RoundComplete, round.Status)
	assert.Equal(t, uint64(1), round.Seq)
	assert.Equal(t, int64(1700000000), round.Time)
	assert.NotEmpty(t, round.ID)

	assert.Equal(t, int64(75), f.balance(t, memberB))
	assert.Equal(t, int64(225), f.balance(t, memberC))
	assert.Equal(t, int64(900), f.balance(t, f.pool))
	require.NoError(t, ValidateRound(round))
}

func TestAirdrop_TruncationResidueStaysInPool(t *testing.T) {
	f := newFixture(t)
	f.fund(t, investorA, 990)
	f.mint(t, memberB, 33)
	f.mint(t, memberC, 67)
	require.NoError(t, f.engine.Join(f.ctx, memberB))
	require.NoError(t, f.engine.Join(f.ctx, memberC))

	round, err := f.engine.Airdrop(f.ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(99), round.Distributable)
	assert.Equal(t, int64(32), round.Payouts[0].Share)
	assert.Equal(t, int64(66), round.Payouts[1].Share)
	assert.Equal(t, int64(1), round.Residue())
	assert.Equal(t, int64(990-98), f.balance(t, f.pool))
}

func TestAirdrop_Guards(t *testing.T) {
	t.Run("empty pool", func(t *testing.T) {
		f := newFixture(t)
		f.mint(t, memberB, 50)
		require.NoError(t, f.engine.Join(f.ctx, memberB))
		_, err := f.engine.Airdrop(f.ctx)
		assert.ErrorIs(t, err, ErrEmptyPool)
	})

	t.Run("no members", func(t *testing.T) {
		f := newFixture(t)
		f.fund(t, investorA, 1000)
		_, err := f.engine.Airdrop(f.ctx)
		assert.ErrorIs(t, err, ErrNoMembers)
	})

	t.Run("no valid holders", func(t *testing.T) {
		f := newFixture(t)
		f.fund(t, investorA, 1000)
		f.mint(t, memberB, 50)
		require.NoError(t, f.engine.Join(f.ctx, memberB))
		require.NoError(t, f.ledger.Transfer(f.ctx, memberB, investorA, 50))

		_, err := f.engine.Airdrop(f.ctx)
		assert.ErrorIs(t, err, ErrNoValidHolders)
		assert.Equal(t, int64(1000), f.balance(t, f.pool))

		rounds, _ := f.engine.Rounds(f.ctx)
		assert.Empty(t, rounds, "guard failures are not recorded")
	})
}

func TestAirdrop_ZeroBalanceMemberSkippedButKept(t *testing.T) {
	f := newFixture(t)
	f.fund(t, investorA, 1000)
	f.mint(t, memberB, 50)
	f.mint(t, memberC, 150)
	require.NoError(t, f.engine.Join(f.ctx, memberB))
	require.NoError(t, f.engine.Join(f.ctx, memberC))
	require.NoError(t, f.ledger.Transfer(f.ctx, memberB, investorA, 50))

	round, err := f.engine.Airdrop(f.ctx)
	require.NoError(t, err)
	require.Len(t, round.Payouts, 1)
	assert.Equal(t, memberC, round.Payouts[0].Address)
	assert.Equal(t, int64(100), round.Payouts[0].Share)

	members, _ := f.engine.Members(f.ctx)
	assert.Equal(t, []ledger.Address{memberB, memberC}, members)
}

func TestAirdrop_UsesCurrentBalances(t *testing.T) {
	f := newFixture(t)
	f.fund(t, investorA, 1000)
	f.mint(t, memberB, 10)
	f.mint(t, memberC, 10)
	require.NoError(t, f.engine.Join(f.ctx, memberB))
	require.NoError(t, f.engine.Join(f.ctx, memberC))

	// B's holding grows after joining; the round sees the new balance.
	f.mint(t, memberB, 20)

	round, err := f.engine.Airdrop(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(30), round.Payouts[0].Balance)
	assert.Equal(t, int64(75), round.Payouts[0].Share)
	assert.Equal(t, int64(25), round.Payouts[1].Share)
}

func TestAirdrop_SmallPoolPaysNothing(t *testing.T) {
	f := newFixture(t)
	f.fund(t, investorA, 9)
	f.mint(t, memberB, 1)
	require.NoError(t, f.engine.Join(f.ctx, memberB))

	mock := ledger.Wrap(f.ledger)
	mock.TransferFn = func(context.Context, ledger.Address, ledger.Address, int64) error {
		t.Fatal("zero shares must not be transferred")
		return nil
	}

	round, err := New(mock, f.store).Airdrop(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), round.Distributable)
	assert.Equal(t, int64(9), f.balance(t, f.pool))
}

func TestAirdrop_PartialFailure(t *testing.T) {
	f := newFixture(t)
	f.fund(t, investorA, 1000)
	f.mint(t, memberB, 50)
	f.mint(t, memberC, 150)
	require.NoError(t, f.engine.Join(f.ctx, memberB))
	require.NoError(t, f.engine.Join(f.ctx, memberC))

	boom := errors.New("recipient frozen")
	mock := ledger.Wrap(f.ledger)
	mock.TransferFn = func(ctx context.Context, from, to ledger.Address, amount int64) error {
		if to == memberC {
			return boom
		}
		return f.ledger.Transfer(ctx, from, to, amount)
	}
	e := New(mock, f.store)

	round, err := e.Airdrop(f.ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPartialAirdrop)
	assert.ErrorIs(t, err, boom)

	require.NotNil(t, round)
	assert.Equal(t, RoundPartial, round.Status)
	assert.True(t, round.Payouts[0].Paid)
	assert.False(t, round.Payouts[1].Paid)
	assert.Equal(t, int64(25), round.Distributed())
	assert.Contains(t, round.Error, "recipient frozen")

	// Earlier transfers stay committed.
	assert.Equal(t, int64(75), f.balance(t, memberB))
	assert.Equal(t, int64(975), f.balance(t, f.pool))

	rounds, err := e.Rounds(f.ctx)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, RoundPartial, rounds[0].Status)
}

func TestAirdrop_CanceledContext(t *testing.T) {
	f := newFixture(t)
	f.fund(t, investorA, 1000)
	f.mint(t, memberB, 50)
	require.NoError(t, f.engine.Join(f.ctx, memberB))

	ctx, cancel := context.WithCancel(f.ctx)
	cancel()

	round, err := f.engine.Airdrop(ctx)
	assert.ErrorIs(t, err, ErrPartialAirdrop)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), round.Distributed())
	assert.Equal(t, int64(1000), f.balance(t, f.pool))
}

func TestAirdrop_ConservationAcrossRounds(t *testing.T) {
	f := newFixture(t)
	rng := rand.New(rand.NewSource(42))

	members := []ledger.Address{makeAddr(0x10), makeAddr(0x11), makeAddr(0x12), makeAddr(0x13), makeAddr(0x14)}
	for _, m := range members {
		f.mint(t, m, 1+rng.Int63n(10_000))
		require.NoError(t, f.engine.Join(f.ctx, m))
	}
	supply := f.ledger.TotalSupply()

	for i := 0; i < 50; i++ {
		if rng.Intn(3) == 0 {
			amount := 1 + rng.Int63n(100_000)
			f.fund(t, investorA, amount)
			supply += amount
		}
		before := f.balance(t, f.pool)
		if before == 0 {
			continue
		}

		round, err := f.engine.Airdrop(f.ctx)
		require.NoError(t, err)

		after := f.balance(t, f.pool)
		assert.Equal(t, before-round.Distributed(), after)
		assert.LessOrEqual(t, round.Distributed(), before/DistributionDivisor)
		require.NoError(t, ValidateRound(round))
		assert.Equal(t, supply, f.ledger.TotalSupply())
	}

	rounds, err := f.engine.Rounds(f.ctx)
	require.NoError(t, err)
	for i, r := range rounds {
		assert.Equal(t, uint64(i+1), r.Seq)
	}
}
