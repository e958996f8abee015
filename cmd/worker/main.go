package main

import (
	"context"
	"os"
	"os/signal"
	"pajak-web/internal/app"
	"pajak-web/internal/config"
	"pajak-web/internal/database"
	"pajak-web/internal/utils"
	"pajak-web/internal/worker"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

func main() {
	log := utils.GetLogger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := database.NewMySQL(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize Redis
	redisClient, err := database.NewRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	services := app.NewServices(db, redisClient, cfg, log)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.AsynqRedisAddr,
			Password: cfg.AsynqRedisPassword,
			DB:       cfg.AsynqRedisDB,
		},
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				worker.QueueCritical: 6,
				worker.QueueDefault:  3,
				worker.QueueLow:      1,
			},
			Logger: log,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.WithError(err).WithFields(logrus.Fields{
					"task_type": task.Type(),
				}).Error("Task failed")
			}),
		},
	)

	mux := asynq.NewServeMux()
	worker.RegisterHandlers(mux, services.Dispatcher, log)

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("Gracefully shutting down worker...")
		srv.Shutdown()
	}()

	log.Infof("Worker starting with concurrency: %d", cfg.WorkerConcurrency)
	if err := srv.Run(mux); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}

	log.Info("Worker exited")
}
