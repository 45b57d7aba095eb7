package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"cashrecon/internal/amqp"
	"cashrecon/internal/config"
	apphttp "cashrecon/internal/http"
	"cashrecon/internal/ledger"
	"cashrecon/internal/ledger/memory"
	applog "cashrecon/internal/log"
	"cashrecon/internal/services"
	"cashrecon/internal/storage"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cashrecon",
		Short:         "Cash drawer reconciliation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), closeMonthCmd(), rebuildBalancesCmd())
	return root
}

// app holds the wired dependencies shared by every subcommand.
type app struct {
	cfg        *config.Config
	logger     *applog.Logger
	store      ledger.Store
	amqpClient *amqp.Client

	closers []func() error
}

func newApp() (*app, error) {
	// .env is for local development; missing in production is fine.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	switch cfg.DataBackend {
	case "sqlite":
		if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		a.store = repo
		a.closers = append(a.closers, repo.Close)
		logger.Info("Initialized sqlite backend", "path", cfg.SQLiteDBPath)
	default:
		a.store = memory.New()
		logger.Info("Initialized memory backend")
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect AMQP: %w", err)
		}
		a.amqpClient = client
		a.closers = append(a.closers, client.Close)
		logger.Info("AMQP publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP publishing disabled - no AMQP_URL provided")
	}

	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("Close failed", applog.FieldError, err)
		}
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			recon := services.NewReconService(a.store, a.amqpClient)
			archive := services.NewArchiveService(a.store, a.amqpClient)
			srv := apphttp.NewServer(":"+a.cfg.Port, recon, archive, a.logger, apphttp.Options{
				RateLimitPerMinute: a.cfg.RateLimitPerMinute,
				CacheTTL:           a.cfg.CacheTTL,
			})
			srv.ReadTimeout = 10 * time.Second
			srv.WriteTimeout = 10 * time.Second
			srv.IdleTimeout = 60 * time.Second

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			go func() {
				sigChan := make(chan os.Signal, 1)
				signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
				sig := <-sigChan
				a.logger.Info("Shutdown signal received", "signal", sig.String())

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer shutdownCancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					a.logger.Error("Server shutdown error", applog.FieldError, err)
				}
				cancel()
			}()

			a.logger.Info("Starting cashrecon server",
				"port", a.cfg.Port,
				"backend", a.cfg.DataBackend)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("server: %w", err)
			}

			<-ctx.Done()
			a.logger.Info("Server stopped gracefully")
			return nil
		},
	}
}

func closeMonthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close-month <YYYY-MM>",
		Short: "Close a month into an immutable archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			archive, err := services.NewArchiveService(a.store, a.amqpClient).CloseMonth(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("close month %s: %w", args[0], err)
			}

			fmt.Printf("Closed %s: %d entries, %d withdrawals\n",
				archive.Month, len(archive.Entries), len(archive.Withdrawals))
			fmt.Printf("  front safe %s -> %s\n",
				archive.StartingFrontSafe.Format(), archive.EndingFrontSafe.Format())
			fmt.Printf("  back safe  %s -> %s\n",
				archive.StartingBackSafe.Format(), archive.EndingBackSafe.Format())
			return nil
		},
	}
}

func rebuildBalancesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild-balances",
		Short: "Recompute the balance snapshot from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			balances, err := services.NewReconService(a.store, a.amqpClient).RebuildBalances(cmd.Context())
			if err != nil {
				return fmt.Errorf("rebuild balances: %w", err)
			}

			fmt.Printf("Rebuilt balances: front safe %s, back safe %s\n",
				balances.FrontSafe.Format(), balances.BackSafe.Format())
			return nil
		},
	}
}
