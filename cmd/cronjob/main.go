package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"investledger-backend/internal/config"
	"investledger-backend/internal/events"
	"investledger-backend/internal/jobs"
	"investledger-backend/internal/lock"
	"investledger-backend/internal/logger"
	"investledger-backend/internal/repository/postgres"
	"investledger-backend/internal/scheduler"
	"investledger-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit ('roi-payout' or 'mature-investments')")
	flag.Parse()

	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting InvestLedger cronjob runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	var rdb *redis.Client
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		publisher = events.NewRedisPublisher(rdb, cfg.Redis.EventsChannel)
	}

	var locker lock.Locker = lock.NewPostgresLocker(db)
	if cfg.Lock.Backend == "redis" {
		locker = lock.NewRedisLocker(rdb)
	}

	// Initialize Services
	ledgerService := service.NewLedgerService(store, store.BalanceRepository)
	investmentService := service.NewInvestmentService(
		store,
		store.InvestmentRepository,
		store.BalanceRepository,
		ledgerService,
		publisher,
	)
	payoutService := service.NewPayoutService(
		store,
		store.InvestmentRepository,
		store.BalanceRepository,
		store.TransactionRepository,
		ledgerService,
		publisher,
	)

	jobServices := &jobs.Services{
		Payout:     payoutService,
		Investment: investmentService,
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(store.InvestmentRepository, jobServices, locker, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if err := runJobOnce(jobRunner, *runOnce); err != nil {
			logger.Error("Job failed", "job", *runOnce, "error", err)
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) error {
	ctx := context.Background()
	switch jobName {
	case "roi-payout":
		summary, err := jobRunner.RunROIPayout(ctx)
		if err != nil {
			return err
		}
		logger.Info("ROI payout summary",
			"acquired", summary.Acquired,
			"scanned", summary.Scanned,
			"periods_paid", summary.PeriodsPaid,
			"matured", summary.Matured,
			"failures", summary.Failures,
		)
		return nil
	case "mature-investments":
		matured, err := jobRunner.MatureInvestments(ctx)
		if err != nil {
			return err
		}
		logger.Info("Maturity summary", "matured", matured)
		return nil
	default:
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - roi-payout\n")
		fmt.Printf("  - mature-investments\n")
		return fmt.Errorf("unknown job name %q", jobName)
	}
}
