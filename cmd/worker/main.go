package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/breachlens/breachlens-api/internal/config"
	"github.com/breachlens/breachlens-api/internal/database"
	"github.com/breachlens/breachlens-api/internal/logger"
	"github.com/breachlens/breachlens-api/internal/queue"
	"github.com/breachlens/breachlens-api/internal/services/breach"
	"github.com/breachlens/breachlens-api/internal/workers"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for verbose logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	userRepo := database.NewUserRepository(db)
	reportRepo := database.NewBreachReportRepository(db)

	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq")

	breachClient := breach.NewClient(cfg.BreachAPIBaseURL, cfg.BreachDirURL, cfg.BreachAPIKey, zapLogger)
	if cfg.BreachAPIKey == "" {
		zapLogger.Warn("breach_directory_key_not_configured_account_scans_disabled")
	}

	scanner := workers.NewBreachScanner(breachClient, reportRepo, userRepo, jobQueue, zapLogger)
	sweeper := workers.NewSweeper(jobQueue, workers.DefaultSweepHour, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}

	// Keep a sweep on the calendar at all times. Each consumed sweep job
	// triggers the next day's scheduling below.
	if err := sweeper.ScheduleSweep(ctx); err != nil {
		zapLogger.Warn("failed_to_schedule_initial_sweep", zap.Error(err))
	}

	zapLogger.Info("worker_started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("message_channel_closed")
					return
				}

				job := msg.GetJob()
				if err := scanner.ProcessJob(ctx, msg); err != nil {
					zapLogger.Error("failed_to_process_job",
						zap.String("job_id", job.ID.String()),
						zap.String("job_type", string(job.Type)),
						zap.Error(err),
					)
				}

				if job.Type == queue.JobTypeRescanSweep {
					if err := sweeper.ScheduleSweep(ctx); err != nil {
						zapLogger.Warn("failed_to_schedule_next_sweep", zap.Error(err))
					}
				}
			}
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("queue_error", zap.Error(err))
			}
		}
	}()

	<-sigChan
	zapLogger.Info("shutdown_signal_received")

	cancel()
	zapLogger.Info("worker_stopped")
}
