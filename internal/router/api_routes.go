package router

import (
	"pajak-web/internal/app"
	"pajak-web/internal/config"
	"pajak-web/internal/handler"
	"pajak-web/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
)

func SetupAPIRoutes(
	router fiber.Router,
	services *app.Services,
	asynqClient *asynq.Client,
	cfg *config.Config,
) {
	authHandler := handler.NewAuthHandler(services.Auth)
	reportHandler := handler.NewTaxReportHandler(services.Reports)
	filingHandler := handler.NewTaxFilingHandler(services.Filings, services.Settlement)
	exportHandler := handler.NewExportHandler(services.Exports)
	summaryHandler := handler.NewSPTSummaryHandler(services.Summaries)
	penyelesaianHandler := handler.NewPenyelesaianHandler(services.Payments)
	accountHandler := handler.NewAccountHandler(services.Bindings, services.Resolver)

	// A nil *asynq.Client must not become a non-nil interface value.
	ledgerHandler := handler.NewLedgerEventHandler(services.Dispatcher, nil)
	if asynqClient != nil {
		ledgerHandler = handler.NewLedgerEventHandler(services.Dispatcher, asynqClient)
	}

	// Public routes
	auth := router.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/register", authHandler.Register)
	auth.Post("/logout", authHandler.Logout)

	// Protected routes
	protected := router.Group("", middleware.AuthMiddleware(cfg))

	protected.Get("/auth/me", authHandler.Me)

	protected.Get("/tax-reports", reportHandler.GetReport)

	filings := protected.Group("/tax-filings")
	filings.Post("/generate", reportHandler.GenerateFiling)
	filings.Get("/", filingHandler.List)
	filings.Get("/:id", filingHandler.Get)
	filings.Put("/:id", filingHandler.Update)
	filings.Post("/:id/attachments", filingHandler.AddAttachment)
	filings.Post("/:id/submit", filingHandler.Submit)
	filings.Post("/:id/cancel", filingHandler.Cancel)
	filings.Post("/:id/payment", filingHandler.GeneratePayment)
	filings.Post("/:id/adjustment", filingHandler.GenerateAdjustment)

	summaries := protected.Group("/spt-summaries")
	summaries.Post("/", summaryHandler.Create)
	summaries.Get("/", summaryHandler.List)
	summaries.Get("/:id", summaryHandler.Get)
	summaries.Post("/:id/recalculate", summaryHandler.Recalculate)
	summaries.Post("/:id/submit", summaryHandler.Submit)
	summaries.Post("/:id/cancel", summaryHandler.Cancel)

	settlements := protected.Group("/tax-settlements")
	settlements.Post("/", penyelesaianHandler.Create)
	settlements.Get("/", penyelesaianHandler.List)
	settlements.Get("/:id", penyelesaianHandler.Get)
	settlements.Put("/:id", penyelesaianHandler.Update)
	settlements.Post("/:id/submit", penyelesaianHandler.Submit)
	settlements.Post("/:id/complete", penyelesaianHandler.Complete)
	settlements.Post("/:id/cancel", penyelesaianHandler.Cancel)

	exports := protected.Group("/exports")
	exports.Get("/efaktur", exportHandler.ExportEfaktur)
	exports.Get("/ebupot", exportHandler.ExportEbupot)

	protected.Get("/accounts", accountHandler.GetAccounts)

	bindings := protected.Group("/account-bindings")
	bindings.Get("/", accountHandler.GetBindings)
	bindings.Get("/resolve", accountHandler.Resolve)
	bindings.Put("/", middleware.AdminOnly(), accountHandler.SaveBinding)
	bindings.Delete("/", middleware.AdminOnly(), accountHandler.DeleteBinding)

	protected.Post("/ledger-events", ledgerHandler.Receive)
}
