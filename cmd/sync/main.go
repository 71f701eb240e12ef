package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kelsos/spaza-sync/internal/config"
	"github.com/kelsos/spaza-sync/internal/logger"
	"github.com/kelsos/spaza-sync/internal/services"
	"github.com/kelsos/spaza-sync/internal/storage"
	"github.com/kelsos/spaza-sync/internal/tui"
	"github.com/kelsos/spaza-sync/internal/utils"
)

// loadConfig builds the configuration from defaults, environment and the
// flags the user actually set
func loadConfig(cmd *cobra.Command, rpcURL, gateway string) *config.Config {
	cfg := config.NewConfig()
	if err := cfg.LoadFromEnvironment(); err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}

	if cmd.Flags().Changed("rpc-url") {
		cfg.RPCURL = rpcURL
	}
	if cmd.Flags().Changed("gateway") {
		cfg.IPFSGateway = gateway
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration: %v", err)
	}
	return cfg
}

func main() {
	utils.LoadEnvironment()
	logger.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		rpcURL   string
		gateway  string
		asJSON   bool
		save     bool
		interval time.Duration
	)

	rootCmd := &cobra.Command{
		Use:   "spaza-sync [wallet...]",
		Short: "A CLI tool for reconciling Spaza character ownership",
		Long:  `spaza-sync reconciles the characters a wallet owns from NFT indexers and the on-chain ledgers.`,
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if asJSON {
				logger.SetOutput(os.Stderr)
			}
			cfg := loadConfig(cmd, rpcURL, gateway)

			service, err := services.NewReconcileServiceFromConfig(ctx, cfg)
			if err != nil {
				logger.Fatal("Failed to create reconcile service: %v", err)
			}
			defer service.Cleanup()

			reports := make([]walletReport, 0, len(args))
			for _, wallet := range args {
				result := service.Reconcile(ctx, wallet)
				reports = append(reports, walletReport{Wallet: wallet, Result: result})

				if save {
					path, err := storage.SaveSnapshot(wallet, result)
					if err != nil {
						logger.Error("Failed to save snapshot for %s: %v", wallet, err)
					} else {
						logger.Info("Snapshot saved: %s", path)
					}
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				err = writeJSON(out, reports)
			} else {
				err = writeTables(out, reports)
			}
			if err != nil {
				logger.Fatal("Failed to write results: %v", err)
			}
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch [wallet...]",
		Short: "Monitor wallets in an interactive terminal UI",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			logPath, err := logger.InitFileOnly()
			if err != nil {
				logger.Fatal("Failed to initialize file logger: %v", err)
			}
			defer logger.Close()

			cfg := loadConfig(cmd, rpcURL, gateway)

			monitor, err := tui.NewWalletMonitor(ctx, cfg, args, interval)
			if err != nil {
				logger.Fatal("Failed to create wallet monitor: %v", err)
			}

			if err := monitor.Run(); err != nil {
				logger.Error("Wallet monitor stopped: %v", err)
			}
			cmd.Printf("Logs written to %s\n", logPath)
		},
	}
	watchCmd.Flags().DurationVarP(&interval, "interval", "i", 0, "Re-reconcile every interval (0 disables)")

	rootCmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	rootCmd.Flags().BoolVar(&save, "save", false, "Save a snapshot of each result to ~/.spaza-sync")
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc-url", "", "JSON-RPC endpoint for ledger reads (overrides SPAZA_RPC_URL)")
	rootCmd.PersistentFlags().StringVar(&gateway, "gateway", "", "IPFS gateway base URL (overrides SPAZA_IPFS_GATEWAY)")

	rootCmd.AddCommand(watchCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Fatal("Failed to execute command: %v", err)
	}
}
