// Package cli provides the stakehouse command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/stakehouse-go/config"
	"github.com/bitfsorg/stakehouse-go/ledger"
	"github.com/bitfsorg/stakehouse-go/stakehouse"
)

// ErrLocalLedgerOnly indicates a command that needs the local development ledger.
var ErrLocalLedgerOnly = errors.New("cli: command requires the local ledger (ledger.url must be empty)")

// app carries the resolved settings for one command invocation.
type app struct {
	dataDir   string
	envFile   string
	cfg       config.Config
	log       *slog.Logger
	logCloser io.Closer
}

// NewRootCmd builds the stakehouse command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "stakehouse",
		Short: "Operate a membership-gated proportional reward pool.",
		Long: `stakehouse funds a pool with deposits of a token, registers members ` +
			`who hold that token, and airdrops a tenth of the pool to members ` +
			`in proportion to their balances.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logCloser != nil {
				return a.logCloser.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.dataDir, "datadir", "", "data directory (default ~/.stakehouse)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading STAKEHOUSE_* variables")

	root.AddCommand(
		a.initCmd(),
		a.createCmd(),
		a.mintCmd(),
		a.approveCmd(),
		a.depositCmd(),
		a.joinCmd(),
		a.airdropCmd(),
		a.membersCmd(),
		a.poolCmd(),
		a.balanceCmd(),
		a.roundsCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// setup resolves configuration: defaults, then the config file, then the
// environment (including the dotenv file), then flags.
func (a *app) setup(cmd *cobra.Command) error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}

	dataDir := a.dataDir
	if dataDir == "" {
		dataDir = os.Getenv("STAKEHOUSE_DATADIR")
	}
	if dataDir == "" {
		dataDir = config.DefaultDataDir()
	}

	cfg, err := config.LoadConfig(config.ConfigPath(dataDir))
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return err
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return err
	}
	cfg.DataDir = dataDir
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	logger, closer, err := config.NewLogger(cfg)
	if err != nil {
		return err
	}
	a.cfg, a.log, a.logCloser = cfg, logger, closer
	return nil
}

func (a *app) mainnet() bool { return a.cfg.Network == "mainnet" }

// format renders an address for the configured network.
func (a *app) format(addr ledger.Address) string {
	s, err := addr.Encode(a.mainnet())
	if err != nil {
		return addr.String()
	}
	return s
}

func (a *app) storePath() string  { return filepath.Join(a.cfg.DataDir, "stakehouse.db") }
func (a *app) ledgerPath() string { return filepath.Join(a.cfg.DataDir, "ledger.db") }

// openLedger returns the configured ledger and a release function.
func (a *app) openLedger() (ledger.TokenLedger, func(), error) {
	if a.cfg.LedgerURL != "" {
		l := ledger.NewRPCLedger(ledger.RPCConfig{
			URL:      a.cfg.LedgerURL,
			User:     a.cfg.LedgerUser,
			Password: a.cfg.LedgerPass,
		})
		return l, func() {}, nil
	}
	l, err := ledger.OpenBoltLedger(a.ledgerPath())
	if err != nil {
		return nil, nil, err
	}
	return l, func() { _ = l.Close() }, nil
}

// openLocalLedger returns the bbolt development ledger.
func (a *app) openLocalLedger() (*ledger.BoltLedger, error) {
	if a.cfg.LedgerURL != "" {
		return nil, ErrLocalLedgerOnly
	}
	return ledger.OpenBoltLedger(a.ledgerPath())
}

// openEngine wires the engine to its store and ledger.
func (a *app) openEngine() (*stakehouse.Engine, func(), error) {
	l, releaseLedger, err := a.openLedger()
	if err != nil {
		return nil, nil, err
	}
	store, err := stakehouse.OpenBoltStore(a.storePath())
	if err != nil {
		releaseLedger()
		return nil, nil, err
	}
	release := func() {
		_ = store.Close()
		releaseLedger()
	}
	return stakehouse.New(l, store, stakehouse.WithLogger(a.log)), release, nil
}
