package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"pajak-web/internal/app"
	"pajak-web/internal/config"
	"pajak-web/internal/database"
	"pajak-web/internal/router"
	"pajak-web/internal/utils"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
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

	// Redis is optional: account cache and ledger event queue fall back to
	// in-process handling without it.
	redisClient, err := database.NewRedis(cfg)
	if err != nil {
		log.Warnf("Failed to connect to Redis: %v", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	services := app.NewServices(db, redisClient, cfg, log)

	asynqClient := router.NewAsynqClient(redisClient, cfg, log)
	if asynqClient != nil {
		defer asynqClient.Close()
	}

	server := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	server.Use(recover.New())
	server.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	server.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	router.Setup(server, services, asynqClient, cfg)

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("Gracefully shutting down...")
		_ = server.Shutdown()
	}()

	port := fmt.Sprintf(":%s", cfg.AppPort)
	log.Infof("Server starting on %s", port)
	if err := server.Listen(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Info("Server exited")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return utils.ErrorResponse(c, code, message, err)
}
