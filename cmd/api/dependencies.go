package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mapleledger/mapleledger/internal/domain/auth"
	"github.com/mapleledger/mapleledger/internal/domain/balance"
	balancehandler "github.com/mapleledger/mapleledger/internal/domain/balance/handler"
	importhandler "github.com/mapleledger/mapleledger/internal/domain/import/handler"
	importrepo "github.com/mapleledger/mapleledger/internal/domain/import/repository"
	importservice "github.com/mapleledger/mapleledger/internal/domain/import/service"
	"github.com/mapleledger/mapleledger/internal/domain/statement/categorize"
	"github.com/mapleledger/mapleledger/internal/domain/statement/parser"
	"github.com/mapleledger/mapleledger/internal/domain/transactions"
	transactionshandler "github.com/mapleledger/mapleledger/internal/domain/transactions/handler"
	"github.com/mapleledger/mapleledger/pkg/config"
	"github.com/mapleledger/mapleledger/pkg/cron"
	"github.com/mapleledger/mapleledger/pkg/db"
	"github.com/mapleledger/mapleledger/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Pool   *pgxpool.Pool
	Logger *slog.Logger

	// Repositories
	AuthRepo         auth.Repository
	ImportRepo       importrepo.ImportRepository
	TransactionsRepo transactions.Repository
	BalanceRepo      *balance.Repository

	// Services
	TokenManager        *auth.TokenManager
	AuthService         *auth.Service
	Pipeline            *parser.Pipeline
	ImportService       *importservice.ImportService
	TransactionsService *transactions.Service
	BalanceService      *balance.Service
	Scheduler           *cron.Scheduler

	// Handlers
	AuthHandler         *auth.Handler
	ImportHandler       *importhandler.ImportHandler
	TransactionsHandler *transactionshandler.TransactionsHandler
	BalanceHandler      *balancehandler.BalanceHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	deps.initRepositories()

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase opens the connection pool and applies migrations
func (d *Dependencies) initDatabase(ctx context.Context) error {
	dsn := d.Config.Database.DSN()

	if err := db.RunMigrations(dsn); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	pool, err := db.New(ctx, dsn)
	if err != nil {
		return err
	}
	d.Pool = pool

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

func (d *Dependencies) initRepositories() {
	d.AuthRepo = auth.NewPostgresRepository(d.Pool)
	d.ImportRepo = importrepo.NewPostgresImportRepository(d.Pool)
	d.TransactionsRepo = transactions.NewPostgresRepository(d.Pool)
	d.BalanceRepo = balance.NewRepository(d.Pool)

	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initServices() error {
	d.TokenManager = auth.NewTokenManager(
		d.Config.Auth.JWTSecret,
		time.Duration(d.Config.Auth.AccessTokenTTL)*time.Minute,
		time.Duration(d.Config.Auth.RefreshTokenTTL)*24*time.Hour,
	)
	d.AuthService = auth.NewService(d.AuthRepo, d.TokenManager, d.Logger)

	// Parsing pipeline with the user-tunable pieces from config: known
	// counterparty names for direction resolution, and the holder's own
	// name fragments for self-transfer detection.
	resolver := parser.NewResolver(parser.ResolverConfig{
		IncomingNames:     d.Config.Parsing.IncomingNames,
		OutgoingNames:     d.Config.Parsing.OutgoingNames,
		ReferencePrefixes: parser.DefaultReferencePrefixes(),
	})
	categorizerCfg := categorize.DefaultConfig()
	categorizerCfg.SelfNameFragments = d.Config.Parsing.SelfNameFragments
	d.Pipeline = parser.NewPipeline(
		parser.WithResolver(resolver),
		parser.WithCategorizer(categorize.New(categorizerCfg)),
	)

	d.ImportService = importservice.NewImportService(d.ImportRepo, d.Pipeline, d.Logger)
	if d.Config.Import.ArchiveUploads {
		archive, err := storage.NewLocalStorage(d.Config.Import.ArchivePath)
		if err != nil {
			return fmt.Errorf("failed to init upload archive: %w", err)
		}
		d.ImportService.WithArchive(archive)
	}

	d.TransactionsService = transactions.NewService(d.TransactionsRepo, d.Logger)
	d.BalanceService = balance.NewService(d.BalanceRepo)

	staleMaxAge := time.Duration(d.Config.Import.StaleUploadMaxAgeHours) * time.Hour
	d.Scheduler = cron.NewScheduler(d.ImportService, staleMaxAge, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

func (d *Dependencies) initHandlers() {
	d.AuthHandler = auth.NewHandler(d.AuthService, d.Logger)
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.Logger)
	d.TransactionsHandler = transactionshandler.NewTransactionsHandler(d.TransactionsService, d.Logger)
	d.BalanceHandler = balancehandler.NewBalanceHandler(d.BalanceService, d.Logger)

	d.Logger.Info("handlers initialized")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		<-d.Scheduler.Stop().Done()
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
	d.Logger.Info("cleanup completed")
}
