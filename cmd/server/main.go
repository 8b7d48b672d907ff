package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	httpapi "investledger-backend/internal/api/http"
	"investledger-backend/internal/config"
	"investledger-backend/internal/domain"
	"investledger-backend/internal/events"
	"investledger-backend/internal/jobs"
	"investledger-backend/internal/lock"
	"investledger-backend/internal/logger"
	"investledger-backend/internal/repository/postgres"
	"investledger-backend/internal/security"
	"investledger-backend/internal/service"
	"investledger-backend/internal/storage"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	migrate := flag.Bool("migrate", false, "Apply the database schema before serving")
	flag.Parse()

	// Local runs keep secrets in .env; a missing file is fine
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting InvestLedger API server...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxConns)

	// Test database connection
	if err := db.PingContext(ctx); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	if *migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Redis carries ledger events and, optionally, the payout lock
	var rdb *redis.Client
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis is not reachable; events may be dropped", "addr", cfg.Redis.Addr, "error", err)
		}
		publisher = events.NewRedisPublisher(rdb, cfg.Redis.EventsChannel)
		logger.Info("Publishing ledger events", "channel", cfg.Redis.EventsChannel)
	}

	var locker lock.Locker = lock.NewPostgresLocker(db)
	if cfg.Lock.Backend == "redis" {
		locker = lock.NewRedisLocker(rdb)
	}
	logger.Info("Payout lock configured", "backend", cfg.Lock.Backend, "name", cfg.Lock.Name, "ttl", cfg.Lock.TTL)

	// Initialize Storage Service
	proofStore, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Error("Failed to initialize proof storage", "type", cfg.Storage.Type, "error", err)
		log.Fatalf("Failed to initialize proof storage: %v", err)
	}
	logger.Info("Proof storage ready", "type", cfg.Storage.Type)

	// Initialize Services
	ledgerSvc := service.NewLedgerService(store, store.BalanceRepository)
	investmentSvc := service.NewInvestmentService(store, store.InvestmentRepository, store.BalanceRepository, ledgerSvc, publisher)
	payoutSvc := service.NewPayoutService(store, store.InvestmentRepository, store.BalanceRepository, store.TransactionRepository, ledgerSvc, publisher)
	depositSvc := service.NewDepositService(
		store,
		store.CategoryRepository,
		store.InvestmentRepository,
		store.BalanceRepository,
		store.TransactionRepository,
		ledgerSvc,
		investmentSvc,
		proofStore,
		service.ProofPolicy{AllowedTypes: cfg.Storage.AllowedTypes, URLExpiry: cfg.Storage.PresignExpiry},
		domain.BankDetails{
			BankName:      cfg.PlatformBank.BankName,
			AccountName:   cfg.PlatformBank.AccountName,
			AccountNumber: cfg.PlatformBank.AccountNumber,
		},
		publisher,
	)
	withdrawalSvc := service.NewWithdrawalService(
		store,
		store.CategoryRepository,
		store.InvestmentRepository,
		store.BalanceRepository,
		store.TransactionRepository,
		ledgerSvc,
		service.NewPenaltyCalculator(cfg.Penalty.Rate()),
		publisher,
	)
	transactionSvc := service.NewTransactionService(store.TransactionRepository, depositSvc, withdrawalSvc)
	categorySvc := service.NewCategoryService(store.CategoryRepository)

	// The HTTP trigger shares the scheduler's lock
	jobRunner := jobs.NewJobRunner(store.InvestmentRepository, &jobs.Services{
		Payout:     payoutSvc,
		Investment: investmentSvc,
	}, locker, cfg)

	// Initialize HTTP handlers
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer)
	handler := httpapi.NewHandler(&httpapi.Services{
		Categories:   categorySvc,
		Investments:  investmentSvc,
		Deposits:     depositSvc,
		Withdrawals:  withdrawalSvc,
		Transactions: transactionSvc,
		Payouts:      jobRunner,
	})

	opts := httpapi.RouterOptions{Server: cfg.Server}
	if files, ok := proofStore.(storage.LocalFiles); ok {
		opts.Proofs = httpapi.NewProofStorageHandler(files, cfg.Storage.AllowedTypes)
		logger.Info("Serving mock storage endpoints", "upload_dir", cfg.Storage.UploadDir)
	}
	if cfg.Cron.TriggerKey == "" {
		logger.Warn("No cron trigger key configured; the payout endpoint accepts admin tokens only")
	}

	srv := &http.Server{
		Addr:    cfg.GetServerAddress(),
		Handler: httpapi.NewRouter(handler, httpapi.NewAuthMiddleware(tokenManager, cfg.Cron.TriggerKey), opts),
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	// Graceful shutdown
	logger.Info("Shutting down HTTP server...", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}
