package ledger

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var (
	bucketBalances   = []byte("balances")
	bucketAllowances = []byte("allowances")
	bucketMeta       = []byte("meta")

	keySupply = []byte("supply")
)

// BoltLedger is a fungible token ledger persisted in a bbolt database.
// Each mutating call runs in a single bbolt transaction.
type BoltLedger struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ TokenLedger = (*BoltLedger)(nil)

// OpenBoltLedger opens or creates the ledger database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltLedger(dbPath string) (*BoltLedger, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("ledger: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketBalances, bucketAllowances, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger: create buckets: %w", err)
	}

	return &BoltLedger{db: db}, nil
}

// Close closes the underlying database.
func (l *BoltLedger) Close() error { return l.db.Close() }

func allowanceDBKey(owner, spender Address) []byte {
	k := make([]byte, 2*AddressSize)
	copy(k, owner[:])
	copy(k[AddressSize:], spender[:])
	return k
}

func encodeAmount(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func decodeAmount(b []byte) (int64, error) {
	if b == nil {
		return 0, nil
	}
	if len(b) != 8 {
		return 0, fmt.Errorf("ledger: corrupt amount (%d bytes)", len(b))
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func getAmount(b *bbolt.Bucket, key []byte) (int64, error) {
	return decodeAmount(b.Get(key))
}

// BalanceOf returns the balance of addr (zero when unknown).
func (l *BoltLedger) BalanceOf(_ context.Context, addr Address) (int64, error) {
	var bal int64
	err := l.db.View(func(tx *bbolt.Tx) error {
		var err error
		bal, err = getAmount(tx.Bucket(bucketBalances), addr[:])
		return err
	})
	return bal, err
}

// Allowance returns the amount spender may pull from owner.
func (l *BoltLedger) Allowance(_ context.Context, owner, spender Address) (int64, error) {
	var allowed int64
	err := l.db.View(func(tx *bbolt.Tx) error {
		var err error
		allowed, err = getAmount(tx.Bucket(bucketAllowances), allowanceDBKey(owner, spender))
		return err
	})
	return allowed, err
}

// TransferFrom moves amount from owner to recipient, consuming spender's allowance.
func (l *BoltLedger) TransferFrom(_ context.Context, spender, owner, recipient Address, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeAmount, amount)
	}
	return l.db.Update(func(tx *bbolt.Tx) error {
		ab := tx.Bucket(bucketAllowances)
		key := allowanceDBKey(owner, spender)
		allowed, err := getAmount(ab, key)
		if err != nil {
			return err
		}
		if allowed < amount {
			return fmt.Errorf("%w: allowed=%d amount=%d", ErrInsufficientAllowance, allowed, amount)
		}
		if err := moveBolt(tx.Bucket(bucketBalances), owner, recipient, amount); err != nil {
			return err
		}
		return ab.Put(key, encodeAmount(allowed-amount))
	})
}

// Transfer pushes amount from the sender to recipient.
func (l *BoltLedger) Transfer(_ context.Context, from, to Address, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeAmount, amount)
	}
	return l.db.Update(func(tx *bbolt.Tx) error {
		return moveBolt(tx.Bucket(bucketBalances), from, to, amount)
	})
}

// Mint credits amount to addr and grows the total supply.
func (l *BoltLedger) Mint(_ context.Context, to Address, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeAmount, amount)
	}
	return l.db.Update(func(tx *bbolt.Tx) error {
		bb := tx.Bucket(bucketBalances)
		mb := tx.Bucket(bucketMeta)

		bal, err := getAmount(bb, to[:])
		if err != nil {
			return err
		}
		supply, err := getAmount(mb, keySupply)
		if err != nil {
			return err
		}
		if bal, err = credit(bal, amount); err != nil {
			return err
		}
		if supply, err = credit(supply, amount); err != nil {
			return err
		}
		if err := bb.Put(to[:], encodeAmount(bal)); err != nil {
			return fmt.Errorf("ledger: put balance: %w", err)
		}
		return mb.Put(keySupply, encodeAmount(supply))
	})
}

// Approve sets (not increments) the amount spender may pull from owner.
func (l *BoltLedger) Approve(_ context.Context, owner, spender Address, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeAmount, amount)
	}
	return l.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAllowances).Put(allowanceDBKey(owner, spender), encodeAmount(amount))
	})
}

// TotalSupply returns the sum of all minted tokens.
func (l *BoltLedger) TotalSupply() (int64, error) {
	var supply int64
	err := l.db.View(func(tx *bbolt.Tx) error {
		var err error
		supply, err = getAmount(tx.Bucket(bucketMeta), keySupply)
		return err
	})
	return supply, err
}

func moveBolt(b *bbolt.Bucket, from, to Address, amount int64) error {
	fromBal, err := getAmount(b, from[:])
	if err != nil {
		return err
	}
	if fromBal, err = debit(fromBal, amount); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	toBal, err := getAmount(b, to[:])
	if err != nil {
		return err
	}
	if toBal, err = credit(toBal, amount); err != nil {
		return err
	}
	if err := b.Put(from[:], encodeAmount(fromBal)); err != nil {
		return fmt.Errorf("ledger: put balance: %w", err)
	}
	if err := b.Put(to[:], encodeAmount(toBal)); err != nil {
		return fmt.Errorf("ledger: put balance: %w", err)
	}
	return nil
}
