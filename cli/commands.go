package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/stakehouse-go/config"
	"github.com/bitfsorg/stakehouse-go/ledger"
	"github.com/bitfsorg/stakehouse-go/stakehouse"
)

func parseAmount(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return v, nil
}

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file into the data directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ConfigPath(a.cfg.DataDir)
			if _, err := config.LoadConfig(path); err == nil {
				return fmt.Errorf("config already exists at %s", path)
			} else if !errors.Is(err, config.ErrConfigNotFound) {
				return err
			}
			if err := config.SaveConfig(path, a.cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
}

func (a *app) createCmd() *cobra.Command {
	var token, admin, pool string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Initialize the pool with its token and admin addresses.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg stakehouse.Config
			var err error
			if cfg.Token, err = ledger.ParseAddress(token); err != nil {
				return err
			}
			if cfg.Admin, err = ledger.ParseAddress(admin); err != nil {
				return err
			}
			if pool != "" {
				if cfg.Pool, err = ledger.ParseAddress(pool); err != nil {
					return err
				}
			}

			engine, release, err := a.openEngine()
			if err != nil {
				return err
			}
			defer release()

			created, err := engine.Create(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pool %s\n", a.format(created.Pool))
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token ledger address (required)")
	cmd.Flags().StringVar(&admin, "admin", "", "admin address (required)")
	cmd.Flags().StringVar(&pool, "pool", "", "pool account address (derived when empty)")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("admin")
	return cmd
}

func (a *app) mintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mint <address> <amount>",
		Short: "Credit tokens on the local development ledger.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := ledger.ParseAddress(args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			l, err := a.openLocalLedger()
			if err != nil {
				return err
			}
			defer l.Close()

			if err := l.Mint(cmd.Context(), to, amount); err != nil {
				return err
			}
			a.log.Info("mint", "to", to, "amount", amount)
			fmt.Fprintf(cmd.OutOrStdout(), "minted %d to %s\n", amount, a.format(to))
			return nil
		},
	}
}

func (a *app) approveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <owner> <amount>",
		Short: "Authorize the pool to pull amount from owner on the local ledger.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := ledger.ParseAddress(args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			store, err := stakehouse.OpenBoltStore(a.storePath())
			if err != nil {
				return err
			}
			cfg, err := store.LoadConfig()
			_ = store.Close()
			if err != nil {
				return err
			}

			l, err := a.openLocalLedger()
			if err != nil {
				return err
			}
			defer l.Close()

			if err := l.Approve(cmd.Context(), owner, cfg.Pool, amount); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "approved %d from %s\n", amount, a.format(owner))
			return nil
		},
	}
}

func (a *app) depositCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deposit <depositor> <amount>",
		Short: "Pull a pre-approved amount from depositor into the pool.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			depositor, err := ledger.ParseAddress(args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			engine, release, err := a.openEngine()
			if err != nil {
				return err
			}
			defer release()

			if err := engine.Deposit(cmd.Context(), depositor, amount); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deposited %d\n", amount)
			return nil
		},
	}
}

func (a *app) joinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <address>",
		Short: "Register a token holder for future airdrops.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			member, err := ledger.ParseAddress(args[0])
			if err != nil {
				return err
			}

			engine, release, err := a.openEngine()
			if err != nil {
				return err
			}
			defer release()

			if err := engine.Join(cmd.Context(), member); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "joined %s\n", a.format(member))
			return nil
		},
	}
}

func (a *app) airdropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "airdrop",
		Short: "Distribute a tenth of the pool to members by balance.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, release, err := a.openEngine()
			if err != nil {
				return err
			}
			defer release()

			round, err := engine.Airdrop(cmd.Context())
			if round != nil {
				a.printRound(cmd, round)
			}
			return err
		},
	}
}

func (a *app) membersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "members",
		Short: "List registered members in join order.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, release, err := a.openEngine()
			if err != nil {
				return err
			}
			defer release()

			members, err := engine.Members(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range members {
				fmt.Fprintln(cmd.OutOrStdout(), a.format(m))
			}
			return nil
		},
	}
}

func (a *app) poolCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pool",
		Short: "Show the pool address and balance.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, release, err := a.openEngine()
			if err != nil {
				return err
			}
			defer release()

			cfg, err := engine.Config(cmd.Context())
			if err != nil {
				return err
			}
			bal, err := engine.PoolBalance(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pool %s balance %d\n", a.format(cfg.Pool), bal)
			return nil
		},
	}
}

func (a *app) balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>",
		Short: "Show an address's token balance.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := ledger.ParseAddress(args[0])
			if err != nil {
				return err
			}
			l, release, err := a.openLedger()
			if err != nil {
				return err
			}
			defer release()

			bal, err := l.BalanceOf(cmd.Context(), addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", bal)
			return nil
		},
	}
}

func (a *app) roundsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rounds",
		Short: "Show the airdrop history.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, release, err := a.openEngine()
			if err != nil {
				return err
			}
			defer release()

			rounds, err := engine.Rounds(cmd.Context())
			if err != nil {
				return err
			}
			for _, r := range rounds {
				a.printRound(cmd, r)
			}
			return nil
		},
	}
}

func (a *app) printRound(cmd *cobra.Command, r *stakehouse.Round) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "round %d %s %s pool=%d distributable=%d distributed=%d\n",
		r.Seq, r.ID, r.Status, r.PoolBefore, r.Distributable, r.Distributed())
	for _, p := range r.Payouts {
		fmt.Fprintf(out, "  %s balance=%d share=%d paid=%t\n", a.format(p.Address), p.Balance, p.Share, p.Paid)
	}
}
