package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentchain-backend/internal/config"
	"rentchain-backend/internal/jobs"
	"rentchain-backend/internal/logger"
	"rentchain-backend/internal/repository/postgres"
	"rentchain-backend/internal/scheduler"
	"rentchain-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'resolve-expired-disputes', 'reconcile-ledger', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting RentChain Cronjob Runner...", "log_level", cfg.Log.Level)

	if cfg.Database.Driver != config.DriverPostgres {
		log.Fatalf("Cronjob runner requires the postgres driver, got %q", cfg.Database.Driver)
	}

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := postgres.Connect(context.Background(), cfg.GetDatabaseConnectionString(), time.Duration(cfg.Database.ConnectRetrySeconds)*time.Second)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize Services
	store := postgres.NewStore(db)
	emailService := service.NewEmailService(cfg.Email.SendGridAPIKey, cfg.Email.FromEmail, cfg.Email.FromName)
	core := service.NewCore(store, cfg.FeeSchedule(), service.NewEmailNotifier(emailService))

	jobServices := &jobs.Services{
		Ledger:   core.Ledger,
		Disputes: core.Disputes,
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
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
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "resolve-expired-disputes":
		jobRunner.ResolveExpiredDisputes()
	case "reconcile-ledger":
		jobRunner.ReconcileLedger()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - resolve-expired-disputes\n")
		fmt.Printf("  - reconcile-ledger\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
