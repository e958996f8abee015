package router

import (
	"pajak-web/internal/app"
	"pajak-web/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Setup registers the health, metrics and API routes. asynqClient may be
// nil, in which case ledger events are dispatched inline.
func Setup(server *fiber.App, services *app.Services, asynqClient *asynq.Client, cfg *config.Config) {
	server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"app":    cfg.AppName,
		})
	})

	server.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := server.Group("/api/v1")
	SetupAPIRoutes(api, services, asynqClient, cfg)
}

// NewAsynqClient returns a client when ledger events are processed
// asynchronously and Redis is reachable, nil otherwise.
func NewAsynqClient(redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) *asynq.Client {
	if !cfg.LedgerEventsAsync {
		return nil
	}
	if redisClient == nil {
		logger.Warn("Redis unavailable, ledger events will be dispatched inline")
		return nil
	}
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.AsynqRedisAddr,
		Password: cfg.AsynqRedisPassword,
		DB:       cfg.AsynqRedisDB,
	})
}
