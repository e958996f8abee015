// Package app assembles the repositories and services shared by the API
// server and the background worker.
package app

import (
	"pajak-web/internal/cache"
	"pajak-web/internal/config"
	"pajak-web/internal/repository"
	"pajak-web/internal/service"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Services struct {
	Auth       *service.AuthService
	Resolver   *service.AccountResolver
	Bindings   *repository.AccountRepository
	Aggregator *service.TaxDataAggregator
	Filings    *service.TaxFilingService
	Reports    *service.TaxReportService
	Settlement *service.SettlementService
	Summaries  *service.SPTSummaryService
	Payments   *service.PenyelesaianService
	Exports    *service.ExportService
	Dispatcher *service.LifecycleDispatcher
}

// NewServices wires every service onto db. A nil redisClient forces the
// in-process account cache.
func NewServices(db *sqlx.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) *Services {
	tx := repository.NewTransactionManager(db)

	userRepo := repository.NewUserRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	partyRepo := repository.NewPartyRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	slipRepo := repository.NewSalarySlipRepository(db)
	glRepo := repository.NewGLRepository(db)
	paymentRepo := repository.NewPaymentRepository(db, tx)
	seriesRepo := repository.NewFakturSeriesRepository(db, tx)
	efakturRepo := repository.NewEfakturRepository(db, tx)
	ebupotRepo := repository.NewEbupotRepository(db, tx)
	filingRepo := repository.NewFilingRepository(db, tx)
	adjustmentRepo := repository.NewAdjustmentRepository(db)
	statusRepo := repository.NewDocumentStatusRepository(db)
	summaryRepo := repository.NewSPTSummaryRepository(db)
	penyelesaianRepo := repository.NewPenyelesaianRepository(db)

	accountCache := newAccountCache(redisClient, cfg, logger)
	resolver := service.NewAccountResolver(accountRepo, accountRepo, accountRepo, accountCache, logger)
	extractor := service.NewTaxExtractor(resolver, logger)

	aggregator := service.NewTaxDataAggregator(glRepo, invoiceRepo, slipRepo, efakturRepo, ebupotRepo, logger)
	filings := service.NewTaxFilingService(filingRepo, statusRepo, aggregator, tx, logger)

	dispatcher := service.NewLifecycleDispatcher(logger)
	service.NewLedgerCallbacks(
		invoiceRepo,
		paymentRepo,
		glRepo,
		efakturRepo,
		ebupotRepo,
		service.NewEfakturSynthesizer(invoiceRepo, partyRepo, efakturRepo, seriesRepo, extractor, logger),
		service.NewEbupotSynthesizer(accountRepo, partyRepo, ebupotRepo, extractor, logger),
		service.NewGLTagger(glRepo, resolver, logger),
		service.NewWithholdingLinker(ebupotRepo, paymentRepo, resolver, logger),
		logger,
	).Register(dispatcher)

	return &Services{
		Auth:       service.NewAuthService(userRepo, cfg, logger),
		Resolver:   resolver,
		Bindings:   accountRepo,
		Aggregator: aggregator,
		Filings:    filings,
		Reports:    service.NewTaxReportService(aggregator, filingRepo, filings, logger),
		Settlement: service.NewSettlementService(
			filingRepo, paymentRepo, adjustmentRepo, partyRepo, accountRepo, resolver, tx, cfg.TaxOfficeSupplier, logger,
		),
		Summaries:  service.NewSPTSummaryService(summaryRepo, aggregator, efakturRepo, logger),
		Payments:   service.NewPenyelesaianService(penyelesaianRepo, filingRepo, summaryRepo, tx, logger),
		Exports:    service.NewExportService(efakturRepo, ebupotRepo, cfg.ExportPath, logger),
		Dispatcher: dispatcher,
	}
}

func newAccountCache(redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) cache.AccountCache {
	if cfg.AccountCacheBackend == "redis" {
		if redisClient != nil {
			return cache.NewRedisAccountCache(redisClient, cfg.AccountCacheTTL, logger)
		}
		logger.Warn("Redis unavailable, falling back to in-memory account cache")
	}
	return cache.NewMemoryAccountCache(cfg.AccountCacheTTL, time.Now)
}
