package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/SscSPs/ucoin_ledger/internal/adapters/cache/redis"
	portssvc "github.com/SscSPs/ucoin_ledger/internal/core/ports/services"
	"github.com/SscSPs/ucoin_ledger/internal/core/services"
	"github.com/SscSPs/ucoin_ledger/internal/platform/logging"
	"github.com/SscSPs/ucoin_ledger/internal/platform/metrics"
	"github.com/SscSPs/ucoin_ledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/ucoin_ledger/migrations"
	"github.com/SscSPs/ucoin_ledger/pkg/config"
	"github.com/SscSPs/ucoin_ledger/pkg/database"
	"github.com/spf13/pflag"
)

const usage = `usage: ucoin_ledger [flags] <command> [args]

commands:
  migrate [up|down]                  apply or roll back schema migrations
  close-event <event-code>           expire every positive wallet and close the event
  reconcile <event-code> [user-id]   rebuild cached balances from the ledger
  balance <event-code> <user-id>     print a wallet balance

flags:
`

func main() {
	os.Exit(realMain(os.Args[1:]))
}

// realMain returns the process exit code so its deferred cleanups run before main exits.
func realMain(args []string) int {
	flags := pflag.NewFlagSet("ucoin_ledger", pflag.ContinueOnError)
	logLevel := flags.String("log-level", "", "overrides LOG_LEVEL (debug, info, warn, error)")
	operator := flags.String("operator", "", "user id recorded as created_by on close-out expirations")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		return 1
	}
	level := cfg.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	logger := logging.Setup(level, cfg.IsProduction)

	ctx, stop := signal.NotifyContext(logging.WithLogger(context.Background(), logger), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, flags.Args(), *operator, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			flags.Usage()
		}
		logger.Error("Command failed", slog.String("error", err.Error()))
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg *config.Config, args []string, operator string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	logger := logging.FromContext(ctx)

	db, err := database.NewDB(ctx, cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLife,
	})
	if err != nil {
		return err
	}
	defer database.CloseDB(db)

	if args[0] == "migrate" {
		return runMigrate(ctx, db, args[1:])
	}

	notifier, closeNotifier := newNotifier(ctx, cfg)
	defer closeNotifier()

	svc := services.NewContainer(pgsql.NewUnitOfWork(db, cfg.DBLockTimeout),
		services.WithMetrics(metrics.NewMetrics(nil)),
		services.WithNotifier(notifier),
	)
	logger.Debug("Services initialized", slog.String("command", args[0]))

	c := newCommands(svc, out, operator)
	return c.dispatch(ctx, args[0], args[1:])
}

func runMigrate(ctx context.Context, db *sql.DB, args []string) error {
	direction := database.MigrateUp
	if len(args) > 0 {
		direction = args[0]
	}
	if direction != database.MigrateUp && direction != database.MigrateDown {
		return fmt.Errorf("%w: migrate takes up or down, got %q", errUsage, direction)
	}

	logger := logging.FromContext(ctx)
	logger.Info("Running database migrations...", slog.String("direction", direction))
	if err := database.RunMigrations(db, migrations.FS, direction); err != nil {
		return err
	}
	logger.Info("Database migrations finished", slog.String("direction", direction))
	return nil
}

// newNotifier publishes balance snapshots to Redis when REDIS_ADDR is set.
func newNotifier(ctx context.Context, cfg *config.Config) (portssvc.BalanceNotifier, func()) {
	if cfg.RedisAddr == "" {
		return portssvc.NopNotifier{}, func() {}
	}
	client, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logging.FromContext(ctx).Warn("Redis unavailable, continuing without balance snapshots", slog.String("error", err.Error()))
		return portssvc.NopNotifier{}, func() {}
	}
	return redis.NewBalancePublisher(client, cfg.BalanceSnapshot), func() { client.Close() }
}
