package main

import (
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Viyale/KeeperCoin/pkg/api"
	"github.com/Viyale/KeeperCoin/pkg/config"
	"github.com/Viyale/KeeperCoin/pkg/governance"
	"github.com/Viyale/KeeperCoin/pkg/governance/store"
	"github.com/Viyale/KeeperCoin/pkg/metrics"
	"github.com/Viyale/KeeperCoin/pkg/token"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keeperd",
		Short: "KeeperCoin self-governing token daemon",
	}
	cmd.AddCommand(serveCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the governance engine and its HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Optional .env file for local development.
			_ = godotenv.Load()

			if configPath == "" {
				configPath = os.Getenv("KEEPERD_CONFIG")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to YAML config file")
	return cmd
}

func serve(cfg *config.Config) error {
	logger := newLogger(cfg.Logging.Level)

	ledger := token.NewLedger()
	if err := seedLedger(ledger, cfg); err != nil {
		return err
	}

	proposalStore, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	m := metrics.New()
	recorder := governance.NewRecorder(1024)
	events := governance.MultiSink{
		governance.NewLogSink(logger),
		recorder,
		metrics.NewSink(m),
	}

	service, err := governance.NewService(
		ledger,
		governance.SystemClock{},
		token.NewPauseSwitch(),
		proposalStore,
		events,
		governance.DefaultParams(),
		governance.ServiceConfig{
			Developer:           cfg.Token.Developer,
			Reserve:             cfg.Token.Reserve,
			TreasuryAllocation:  cfg.Token.TreasuryAllocationOrZero(),
			TreasuryQuorum:      cfg.Token.TreasuryQuorumOrZero(),
			DeveloperAllocation: cfg.Token.DeveloperAllocationOrZero(),
		},
	)
	if err != nil {
		return err
	}

	server := api.NewWebServer(service, ledger, recorder, m, logger, cfg.Server.Address)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		return server.Stop()
	case err := <-errCh:
		return err
	}
}

// seedLedger credits the reserve with the treasury and developer
// allocations and mints the configured genesis balances.
func seedLedger(ledger *token.Ledger, cfg *config.Config) error {
	reserveBalance := new(big.Int).Add(cfg.Token.TreasuryAllocationOrZero(), cfg.Token.DeveloperAllocationOrZero())
	if err := ledger.Mint(cfg.Token.Reserve, reserveBalance); err != nil {
		return fmt.Errorf("failed to seed reserve: %w", err)
	}

	for _, genesis := range cfg.Token.Genesis {
		if err := ledger.Mint(genesis.Address, genesis.Balance.Int); err != nil {
			return fmt.Errorf("failed to seed %s: %w", genesis.Address, err)
		}
	}
	return nil
}

func openStore(cfg *config.Config) (governance.ProposalStore, func(), error) {
	switch cfg.Store.Backend {
	case "sqlite":
		s, err := store.OpenSQLite(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return store.NewMemoryStore(), func() {}, nil
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
