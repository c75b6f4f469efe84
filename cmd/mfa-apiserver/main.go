// Command apiserver is the MFA engine's HTTP + gRPC entry point. It loads
// configuration, wires the infrastructure adapters, and serves both
// transports against the shared analysis orchestrator until an interrupt
// or terminate signal arrives.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/mfa-engine/internal/config"
	"github.com/turtacn/mfa-engine/internal/infrastructure/database/postgres"
	"github.com/turtacn/mfa-engine/internal/infrastructure/database/redis"
	grpcserver "github.com/turtacn/mfa-engine/internal/interfaces/grpc"
	"github.com/turtacn/mfa-engine/internal/interfaces/grpc/services"
	httpserver "github.com/turtacn/mfa-engine/internal/interfaces/http"
	"github.com/turtacn/mfa-engine/internal/interfaces/http/handlers"
	"github.com/turtacn/mfa-engine/internal/platform/logging"
)

const (
	defaultConfigPath = "configs/config.yaml"
	shutdownTimeout   = 30 * time.Second
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	grpcPort := flag.Int("grpc-port", 0, "gRPC server port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: using default configuration: %v\n", err)
		cfg = config.NewDefaultConfig()
	}

	if *httpPort > 0 {
		cfg.Server.Port = *httpPort
	}
	if *grpcPort > 0 {
		cfg.GRPC.Port = *grpcPort
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info("starting mfa-engine api server",
		logging.Int("http_port", cfg.Server.Port),
		logging.Int("grpc_port", cfg.GRPC.Port),
	)

	pool, err := postgres.NewConnectionPool(cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", logging.Err(err))
	}
	defer postgres.Close(pool)

	redisClient, err := redis.NewClientFromConfig(cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to connect to redis", logging.Err(err))
	}

	analysisHandler := handlers.NewAnalysisHandler(*cfg, logger)
	healthHandler := handlers.NewHealthHandler(
		"dev",
		&postgresHealthAdapter{pool: pool},
		&redisHealthAdapter{client: redisClient},
	)

	httpRouter := httpserver.NewRouter(httpserver.RouterConfig{
		AnalysisHandler: analysisHandler,
		HealthHandler:   healthHandler,
		Logger:          logger,
	})

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	grpcSrv, err := grpcserver.NewServer(&cfg.GRPC, grpcserver.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to construct grpc server", logging.Err(err))
	}
	analysisGRPC := services.NewAnalysisServiceServer(*cfg, logger)
	grpcSrv.RegisterService(&services.AnalysisServiceDesc, analysisGRPC)

	go func() {
		logger.Info("HTTP server listening", logging.Int("port", cfg.Server.Port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", logging.Err(err))
		}
	}()

	go func() {
		logger.Info("gRPC server listening", logging.Int("port", cfg.GRPC.Port))
		if err := grpcSrv.Start(); err != nil {
			logger.Error("gRPC server error", logging.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
	}
	if err := grpcSrv.Stop(ctx); err != nil {
		logger.Error("gRPC server shutdown error", logging.Err(err))
	}

	logger.Info("servers stopped")
}

// loadConfig attempts to load configuration from file, returns error if not found.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	return config.Load(path)
}
