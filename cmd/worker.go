package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/access-management/internal/auth"
	authPostgres "github.com/frahmantamala/access-management/internal/auth/postgres"
	"github.com/frahmantamala/access-management/internal/core/events"
	"github.com/frahmantamala/access-management/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start and manage background workers: expired token cleanup, event monitoring.`,
}

var cleanupWorkerCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Start expired refresh token cleanup worker",
	Long:  `Periodically delete expired refresh tokens from the store.`,
	Run: func(cmd *cobra.Command, args []string) {
		startCleanupWorker()
	},
}

var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Start event bus worker",
	Long:  `Subscribe to auth events and log them for audit.`,
	Run: func(cmd *cobra.Command, args []string) {
		startEventWorker()
	},
}

var cleanupInterval time.Duration

func startCleanupWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(config.Observability.Logging.Format, config.Observability.Logging.Level)
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	gormDB, err := initGorm(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize orm: %v\n", err)
		os.Exit(1)
	}

	interval := cleanupInterval
	if interval <= 0 {
		interval = config.Cleanup.Interval
	}
	if interval <= 0 {
		interval = time.Hour
	}

	repo := authPostgres.NewRepository(gormDB)
	manager := auth.NewRefreshTokenManager(repo, config.Security.RefreshTokenDuration)

	log.Info("token cleanup worker started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	runCleanup(manager, log)

	for {
		select {
		case <-ticker.C:
			runCleanup(manager, log)
		case sig := <-sigChan:
			log.Info("received signal, shutting down cleanup worker", "signal", sig)
			return
		}
	}
}

func runCleanup(manager *auth.RefreshTokenManager, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := manager.CleanupExpired(ctx)
	if err != nil {
		log.Error("token cleanup failed", "error", err)
		return
	}
	log.Info("token cleanup completed", "deleted", deleted)
}

func startEventWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(config.Observability.Logging.Format, config.Observability.Logging.Level)
	log := logger.LoggerWrapper()

	eventBus := events.NewEventBus(log)

	auditTypes := []string{
		events.EventTypeUserLoggedIn,
		events.EventTypeUserRegistered,
		events.EventTypeTokensRevoked,
		events.EventTypeRoleAssigned,
	}
	for _, eventType := range auditTypes {
		eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			log.Info("audit event",
				"event_id", event.EventID(),
				"event_type", event.EventType(),
				"payload", event.Payload())
			return nil
		})
	}

	log.Info("event bus worker started. Waiting for events...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info("received signal, shutting down event bus", "signal", sig)
}

func init() {
	cleanupWorkerCmd.Flags().DurationVar(&cleanupInterval, "interval", 0, "Cleanup interval (overrides config)")

	workerCmd.AddCommand(cleanupWorkerCmd)
	workerCmd.AddCommand(eventWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
