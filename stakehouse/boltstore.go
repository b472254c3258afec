package stakehouse

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/bitfsorg/stakehouse-go/ledger"
)

var (
	bucketState  = []byte("state")
	bucketRounds = []byte("rounds")

	keyConfig   = []byte("config")
	keyRegistry = []byte("registry")
)

// BoltStore persists engine state in a bbolt database. The registry is kept
// as a single serialized value so every append is one read-check-write
// transaction.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("stakehouse: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("stakehouse: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketState, bucketRounds} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("boltstore: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("stakehouse: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// seqKey encodes a round sequence number as an 8-byte big-endian key.
func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

// LoadConfig returns the stored configuration.
func (s *BoltStore) LoadConfig() (*Config, error) {
	var cfg *Config
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketState).Get(keyConfig)
		if data == nil {
			return ErrNotInitialized
		}
		var err error
		cfg, err = DeserializeConfig(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitConfig stores cfg once.
func (s *BoltStore) InitConfig(cfg *Config) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketState)
		if b.Get(keyConfig) != nil {
			return ErrAlreadyInitialized
		}
		if err := b.Put(keyConfig, SerializeConfig(cfg)); err != nil {
			return fmt.Errorf("boltstore: put config: %w", err)
		}
		return nil
	})
}

func readRegistry(b *bbolt.Bucket) ([]ledger.Address, error) {
	data := b.Get(keyRegistry)
	if data == nil {
		return nil, nil
	}
	return DeserializeRegistry(data)
}

// Members returns the registry in insertion order.
func (s *BoltStore) Members() ([]ledger.Address, error) {
	var members []ledger.Address
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		members, err = readRegistry(tx.Bucket(bucketState))
		return err
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// AppendMember adds addr unless it is already present.
func (s *BoltStore) AppendMember(addr ledger.Address) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketState)
		members, err := readRegistry(b)
		if err != nil {
			return err
		}
		if indexOf(members, addr) >= 0 {
			return ErrAlreadyRegistered
		}
		data, err := SerializeRegistry(append(members, addr))
		if err != nil {
			return err
		}
		if err := b.Put(keyRegistry, data); err != nil {
			return fmt.Errorf("boltstore: put registry: %w", err)
		}
		return nil
	})
}

// PutRound records r under the next sequence number.
func (s *BoltStore) PutRound(r *Round) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRounds)
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("boltstore: next round sequence: %w", err)
		}
		r.Seq = seq
		data, err := encodeGob(r)
		if err != nil {
			return fmt.Errorf("encode round: %w", err)
		}
		if err := b.Put(seqKey(seq), data); err != nil {
			return fmt.Errorf("boltstore: put round: %w", err)
		}
		return nil
	})
}

// Rounds returns all recorded rounds in sequence order.
func (s *BoltStore) Rounds() ([]*Round, error) {
	var rounds []*Round
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRounds).ForEach(func(k, v []byte) error {
			var r Round
			if err := decodeGob(v, &r); err != nil {
				return fmt.Errorf("boltstore: decode round: %w", err)
			}
			rounds = append(rounds, &r)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("boltstore: list rounds: %w", err)
	}
	return rounds, nil
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
