// Command mfa-worker is the background job consumer entry point: it
// subscribes to the analysis job topic and runs each queued AnalysisJob
// against its own runtime.Session, publishing the outcome back to the
// job's reply topic.
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
	"github.com/turtacn/mfa-engine/internal/infrastructure/messaging/kafka"
	workerdispatch "github.com/turtacn/mfa-engine/internal/interfaces/worker"
	"github.com/turtacn/mfa-engine/internal/platform/logging"
)

const (
	defaultConfigPath = "configs/config.yaml"
	defaultHealthPort = 8081
	shutdownTimeout   = 30 * time.Second
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: using default configuration: %v\n", err)
		cfg = config.NewDefaultConfig()
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info("starting mfa-worker",
		logging.String("job_topic", cfg.Kafka.JobTopic),
		logging.Int("concurrency", cfg.Worker.Concurrency),
	)

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
		Acks:    "all",
	}, logger)
	if err != nil {
		logger.Fatal("failed to create kafka producer", logging.Err(err))
	}
	defer producer.Close()

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:         cfg.Kafka.Brokers,
		GroupID:         cfg.Kafka.GroupID,
		Topics:          []string{cfg.Kafka.JobTopic},
		AutoOffsetReset: cfg.Kafka.AutoOffsetReset,
	}, logger)
	if err != nil {
		logger.Fatal("failed to create kafka consumer", logging.Err(err))
	}
	defer consumer.Close()

	dispatcher := workerdispatch.NewDispatcher(*cfg, logger, producer)
	if err := consumer.Subscribe(cfg.Kafka.JobTopic, dispatcher.HandleMessage); err != nil {
		logger.Fatal("failed to subscribe to job topic", logging.Err(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthSrv := startHealthServer(logger)

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error("consumer stopped with error", logging.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("health server shutdown error", logging.Err(err))
	}

	logger.Info("worker stopped")
}

func startHealthServer(logger logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", defaultHealthPort),
		Handler: mux,
	}

	go func() {
		logger.Info("health server listening", logging.Int("port", defaultHealthPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", logging.Err(err))
		}
	}()

	return srv
}
