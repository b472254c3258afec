// Package stakehouse implements a membership-gated proportional reward pool.
//
// Depositors fund the pool through a pre-authorized pull from the token
// ledger, holders of the token join the registry, and each airdrop pays a
// tenth of the pool to members in proportion to their current balances.
package stakehouse

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bitfsorg/stakehouse-go/ledger"
)

// Engine runs the pool operations against a token ledger. Every public
// method holds the engine lock for its whole duration, so operations on one
// Engine are totally ordered and never interleave.
type Engine struct {
	mu     sync.Mutex
	ledger ledger.TokenLedger
	store  Store
	log    *slog.Logger
	now    func() time.Time
	cfg    *Config // cached after first load
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock overrides the time source used to stamp rounds.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine over the given ledger and state store.
func New(l ledger.TokenLedger, store Store, opts ...Option) *Engine {
	e := &Engine{
		ledger: l,
		store:  store,
		log:    slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Create records the immutable configuration. A zero Pool is replaced by
// PoolAddressFor(Token, Admin). It fails with ErrAlreadyInitialized when
// called more than once for the same store.
func (e *Engine) Create(_ context.Context, cfg Config) (*Config, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cfg.Token.IsZero() {
		return nil, fmt.Errorf("%w: token address required", ErrInvalidConfig)
	}
	if cfg.Admin.IsZero() {
		return nil, fmt.Errorf("%w: admin address required", ErrInvalidConfig)
	}
	if cfg.Pool.IsZero() {
		cfg.Pool = PoolAddressFor(cfg.Token, cfg.Admin)
	}

	if err := e.store.InitConfig(&cfg); err != nil {
		return nil, err
	}
	e.cfg = &cfg
	e.log.Info("pool created", "token", cfg.Token, "admin", cfg.Admin, "pool", cfg.Pool)

	out := cfg
	return &out, nil
}

// Config returns the configuration recorded by Create.
func (e *Engine) Config(_ context.Context) (*Config, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	out := *cfg
	return &out, nil
}

// Members returns the registry in join order.
func (e *Engine) Members(_ context.Context) ([]ledger.Address, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.config(); err != nil {
		return nil, err
	}
	return e.store.Members()
}

// PoolBalance returns the pool account's current ledger balance.
func (e *Engine) PoolBalance(ctx context.Context) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg, err := e.config()
	if err != nil {
		return 0, err
	}
	bal, err := e.ledger.BalanceOf(ctx, cfg.Pool)
	if err != nil {
		return 0, fmt.Errorf("stakehouse: pool balance: %w", err)
	}
	return bal, nil
}

// Rounds returns the airdrop history in order.
func (e *Engine) Rounds(_ context.Context) ([]*Round, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.config(); err != nil {
		return nil, err
	}
	return e.store.Rounds()
}

// config must be called with e.mu held.
func (e *Engine) config() (*Config, error) {
	if e.cfg != nil {
		return e.cfg, nil
	}
	cfg, err := e.store.LoadConfig()
	if err != nil {
		return nil, err
	}
	e.cfg = cfg
	return cfg, nil
}
