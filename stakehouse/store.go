package stakehouse

import (
	"sync"

	"github.com/bitfsorg/stakehouse-go/ledger"
)

// Store persists the engine's own state: configuration, the membership
// registry and the airdrop round history. Pool balances live in the ledger.
type Store interface {
	// LoadConfig returns the stored configuration or ErrNotInitialized.
	LoadConfig() (*Config, error)

	// InitConfig stores cfg once; a second call returns ErrAlreadyInitialized.
	InitConfig(cfg *Config) error

	// Members returns the registry in insertion order.
	Members() ([]ledger.Address, error)

	// AppendMember adds addr to the registry or returns ErrAlreadyRegistered.
	AppendMember(addr ledger.Address) error

	// PutRound records a round and assigns its sequence number.
	PutRound(r *Round) error

	// Rounds returns all recorded rounds in sequence order.
	Rounds() ([]*Round, error)
}

// MemStore is an in-memory implementation of Store for testing.
type MemStore struct {
	mu      sync.RWMutex
	cfg     *Config
	members []ledger.Address
	rounds  []*Round
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// LoadConfig returns the stored configuration.
func (s *MemStore) LoadConfig() (*Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg == nil {
		return nil, ErrNotInitialized
	}
	c := *s.cfg
	return &c, nil
}

// InitConfig stores cfg once.
func (s *MemStore) InitConfig(cfg *Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg != nil {
		return ErrAlreadyInitialized
	}
	c := *cfg
	s.cfg = &c
	return nil
}

// Members returns a copy of the registry.
func (s *MemStore) Members() ([]ledger.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ledger.Address(nil), s.members...), nil
}

// AppendMember adds addr unless it is already present.
func (s *MemStore) AppendMember(addr ledger.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if indexOf(s.members, addr) >= 0 {
		return ErrAlreadyRegistered
	}
	s.members = append(s.members, addr)
	return nil
}

// PutRound records a copy of r.
func (s *MemStore) PutRound(r *Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.Seq = uint64(len(s.rounds)) + 1
	s.rounds = append(s.rounds, r.clone())
	return nil
}

// Rounds returns copies of all recorded rounds.
func (s *MemStore) Rounds() ([]*Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Round, len(s.rounds))
	for i, r := range s.rounds {
		result[i] = r.clone()
	}
	return result, nil
}
