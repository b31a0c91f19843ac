package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sepandbank/ledger-core/internal/adapters/database/pgsql"
	"github.com/sepandbank/ledger-core/internal/apperrors"
	"github.com/sepandbank/ledger-core/internal/core/domain"
	"github.com/sepandbank/ledger-core/internal/core/services"
	"github.com/sepandbank/ledger-core/pkg/config"
	"github.com/sepandbank/ledger-core/pkg/database"
	"github.com/shopspring/decimal"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logger; debug level outside production.
	logLevel := slog.LevelDebug
	if cfg.IsProduction {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	if err := runMigrations(logger, cfg.DatabaseURL); err != nil {
		os.Exit(1)
	}

	repos := pgsql.NewRepositoryProvider(dbPool, cfg.LockWait)

	// Seed the central bank account if this is a fresh database.
	err = repos.AccountRepo.SaveAccount(ctx, domain.Account{
		AccountID:     domain.RootAccountID,
		OwnerIdentity: cfg.OwnerIdentity,
		Type:          domain.Bank,
		Name:          "Central Bank",
		Balance:       decimal.Zero,
	})
	switch {
	case err == nil:
		logger.Info("Central bank account created", slog.String("account_id", domain.RootAccountID))
	case errors.Is(err, apperrors.ErrDuplicate):
		logger.Info("Central bank account already present")
	default:
		logger.Error("Failed to seed central bank account", slog.String("error", err.Error()))
		os.Exit(1)
	}

	authz := services.NewAuthorizationService(cfg.OwnerIdentity, repos.AdminRepo, repos.UserRepo)
	ledger := services.NewLedgerService(repos, authz, services.WithBusyRetries(cfg.BusyRetries))
	_ = ledger // handed to the command layer, which lives outside this module

	logger.Info("Ledger core ready")

	// Block until asked to stop; the command layer drives the service.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("Shutting down")
}

func runMigrations(logger *slog.Logger, databaseURL string) error {
	logger.Info("Running database migrations...")
	// Open a temporary standard sql.DB connection for migrations, using the
	// pgx/v5/stdlib driver to stay compatible with the main pool.
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		logger.Error("Failed to open database connection for migrations", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		logger.Error("Failed to ping database for migrations", slog.String("error", err.Error()))
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		logger.Error("Could not create postgres driver instance for migrations", slog.String("error", err.Error()))
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		logger.Error("Could not create migrate instance", slog.String("error", err.Error()))
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		logger.Error("Migration source error", slog.String("error", sourceErr.Error()))
		return sourceErr
	}
	if dbErr != nil {
		logger.Error("Migration database error", slog.String("error", dbErr.Error()))
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
