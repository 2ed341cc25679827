package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	api "rentchain-backend/internal/api/grpc"
	"rentchain-backend/internal/api/grpc/interceptor"
	httpapi "rentchain-backend/internal/api/http"
	"rentchain-backend/internal/config"
	"rentchain-backend/internal/jobs"
	"rentchain-backend/internal/logger"
	"rentchain-backend/internal/repository"
	"rentchain-backend/internal/repository/memory"
	"rentchain-backend/internal/repository/postgres"
	"rentchain-backend/internal/scheduler"
	"rentchain-backend/internal/security"
	"rentchain-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting RentChain Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "grpc_address", cfg.GetServerAddress(), "http_address", cfg.GetHTTPAddress())
	logger.Info("Escrow configuration", "fees", cfg.FeeSchedule())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize store
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open store", "driver", cfg.Database.Driver, "error", err)
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	// Initialize Email Service
	emailSvc := service.NewEmailService(cfg.Email.SendGridAPIKey, cfg.Email.FromEmail, cfg.Email.FromName)

	// Initialize Services
	core := service.NewCore(store, cfg.FeeSchedule(), service.NewEmailNotifier(emailSvc))

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	authInterceptor := interceptor.NewAuthInterceptor(tokenManager)

	// Set up gRPC server
	lis, err := net.Listen("tcp", cfg.GetServerAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetServerAddress())
		log.Fatalf("Failed to listen: %v", err)
	}

	s := grpc.NewServer(
		grpc.UnaryInterceptor(authInterceptor.Unary()),
	)

	// Register services
	api.Register(s,
		api.NewLedgerHandler(core.Ledger, core.Vault),
		api.NewPropertyHandler(core.Properties),
		api.NewMarketplaceHandler(core.Marketplace),
		api.NewDisputeHandler(core.Disputes),
		api.NewNotificationHandler(core.Notifications, core.Events),
	)
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(s, healthSrv)

	// Register reflection service for grpcurl
	reflection.Register(s)

	// Set up HTTP server for public queries and metrics
	router := mux.NewRouter()
	httpapi.RegisterQueryRoutes(router, core)
	httpSrv := &http.Server{
		Addr:              cfg.GetHTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "address", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	// The in-memory store cannot be shared with the cronjob process, so the
	// jobs run here instead.
	if cfg.Database.Driver == config.DriverMemory {
		jobRunner := jobs.NewJobRunner(&jobs.Services{
			Ledger:   core.Ledger,
			Disputes: core.Disputes,
		}, cfg)
		cronScheduler, err := scheduler.NewScheduler(jobRunner)
		if err != nil {
			log.Fatalf("Failed to create scheduler: %v", err)
		}
		cronScheduler.Start()
		defer cronScheduler.Stop()
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down servers...")
		healthSrv.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP shutdown error", "error", err)
		}
		s.GracefulStop()
	}()

	logger.Info("gRPC server listening", "address", cfg.GetServerAddress())
	if err := s.Serve(lis); err != nil {
		logger.Error("Failed to serve gRPC", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
	logger.Info("Server stopped. Goodbye!")
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		logger.Info("Using in-memory store")
		return memory.NewStore(), func() {}, nil
	}

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	db, err := postgres.Connect(ctx, cfg.GetDatabaseConnectionString(), time.Duration(cfg.Database.ConnectRetrySeconds)*time.Second)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Database connection established")

	if cfg.Database.CreateSchema {
		if err := postgres.CreateSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("Database schema ready")
	}
	return postgres.NewStore(db), func() { db.Close() }, nil
}
