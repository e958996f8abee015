package service

import (
	"context"
	"errors"
	"fmt"
	"pajak-web/internal/metrics"
	"pajak-web/internal/models"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SPTSummaryService maintains the per-period SPT recaps. Totals come from
// the same period handlers as the tax reports, so a summary and the report
// of its period agree.
type SPTSummaryService struct {
	summaries  SPTSummaryStore
	aggregator *TaxDataAggregator
	efakturs   EfakturStore
	logger     *logrus.Logger
	now        func() time.Time
}

func NewSPTSummaryService(summaries SPTSummaryStore, aggregator *TaxDataAggregator, efakturs EfakturStore, logger *logrus.Logger) *SPTSummaryService {
	return &SPTSummaryService{
		summaries:  summaries,
		aggregator: aggregator,
		efakturs:   efakturs,
		logger:     logger,
		now:        time.Now,
	}
}

// Create calculates and stores a draft summary. One non-cancelled summary
// exists per company, category and period; the existing one is returned
// with ErrSPTSummaryExists.
func (s *SPTSummaryService) Create(ctx context.Context, req models.SPTSummaryRequest) (*models.SPTSummary, error) {
	period, err := models.NewFiscalPeriod(req.Year, req.Month)
	if err != nil {
		return nil, newValidationError("create spt summary", err)
	}
	category, err := models.ParseTaxCategory(req.JenisSPT)
	if err != nil {
		return nil, newValidationError("create spt summary", err)
	}
	if req.Company == "" {
		return nil, newValidationError("create spt summary", errors.New("company is required"))
	}

	existing, err := s.summaries.FindActiveSPTSummary(ctx, req.Company, category, period)
	if err == nil {
		return existing, newValidationError("create spt summary", ErrSPTSummaryExists, existing.Name)
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up existing spt summary: %w", err)
	}

	now := s.now()
	summary := &models.SPTSummary{
		Name:       newDocumentName("SPTS", period.Start()),
		Company:    req.Company,
		JenisSPT:   category,
		MasaPajak:  period.Month,
		TahunPajak: period.Year,
		Status:     models.DocStatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.calculate(ctx, summary); err != nil {
		return nil, err
	}
	if err := s.summaries.CreateSPTSummary(ctx, summary); err != nil {
		return nil, fmt.Errorf("failed to create spt summary: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"spt_summary": summary.Name,
		"company":     summary.Company,
		"jenis_spt":   summary.JenisSPT,
		"period":      period.String(),
		"net":         summary.NetTaxAmount.StringFixed(2),
	}).Info("SPT summary created")
	return summary, nil
}

func (s *SPTSummaryService) Get(ctx context.Context, name string) (*models.SPTSummary, error) {
	summary, err := s.summaries.GetSPTSummary(ctx, name)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrSPTSummaryNotFound
		}
		return nil, fmt.Errorf("failed to get spt summary: %w", err)
	}
	return summary, nil
}

func (s *SPTSummaryService) List(ctx context.Context, filter models.SPTSummaryFilter) ([]models.SPTSummary, error) {
	summaries, err := s.summaries.ListSPTSummaries(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list spt summaries: %w", err)
	}
	return summaries, nil
}

// Recalculate refreshes a draft's totals from the ledger.
func (s *SPTSummaryService) Recalculate(ctx context.Context, name string) (*models.SPTSummary, error) {
	summary, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if summary.Status != models.DocStatusDraft {
		return nil, newValidationError("recalculate spt summary", ErrInvalidTransition, "summary is "+summary.Status)
	}
	if err := s.calculate(ctx, summary); err != nil {
		return nil, err
	}
	summary.UpdatedAt = s.now()
	if err := s.summaries.UpdateSPTSummary(ctx, summary); err != nil {
		return nil, fmt.Errorf("failed to save spt summary: %w", err)
	}
	return summary, nil
}

// Submit recalculates a draft one last time and freezes it.
func (s *SPTSummaryService) Submit(ctx context.Context, name string) (*models.SPTSummary, error) {
	summary, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if summary.Status != models.DocStatusDraft {
		return nil, newValidationError("submit spt summary", ErrInvalidTransition, "summary is "+summary.Status)
	}
	if err := s.calculate(ctx, summary); err != nil {
		return nil, err
	}
	summary.Status = models.DocStatusSubmitted
	summary.UpdatedAt = s.now()
	if err := s.summaries.UpdateSPTSummary(ctx, summary); err != nil {
		return nil, fmt.Errorf("failed to submit spt summary: %w", err)
	}
	metrics.FilingTransitions.WithLabelValues(string(summary.JenisSPT), "SPT Summary "+summary.Status).Inc()
	return summary, nil
}

// Cancel withdraws a submitted summary that no filing or payment uses yet.
func (s *SPTSummaryService) Cancel(ctx context.Context, name string) (*models.SPTSummary, error) {
	summary, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if summary.Status != models.DocStatusSubmitted {
		return nil, newValidationError("cancel spt summary", ErrInvalidTransition, "summary is "+summary.Status)
	}
	summary.Status = models.DocStatusCancelled
	summary.UpdatedAt = s.now()
	if err := s.summaries.UpdateSPTSummary(ctx, summary); err != nil {
		return nil, fmt.Errorf("failed to cancel spt summary: %w", err)
	}
	metrics.FilingTransitions.WithLabelValues(string(summary.JenisSPT), "SPT Summary "+summary.Status).Inc()
	return summary, nil
}

func (s *SPTSummaryService) calculate(ctx context.Context, summary *models.SPTSummary) error {
	period := summary.Period()
	data, err := s.aggregator.GetData(ctx, summary.JenisSPT, summary.Company, period.Start(), period.End())
	if err != nil {
		return fmt.Errorf("failed to compute %s for %s: %w", summary.JenisSPT, period, err)
	}

	summary.JumlahDPPPenjualan = decimal.Zero
	summary.JumlahPPNPenjualan = decimal.Zero
	summary.JumlahPPnBMPenjualan = decimal.Zero
	summary.JumlahDPPPembelian = decimal.Zero
	summary.JumlahPPNPembelian = decimal.Zero
	summary.PenghasilanBruto = decimal.Zero
	summary.JumlahPPh = decimal.Zero

	if summary.JenisSPT == models.TaxCategoryPPN {
		summary.JumlahPPNPenjualan = valueOrZero(data.Summary.PPNOut)
		summary.JumlahPPNPembelian = valueOrZero(data.Summary.PPNIn)
		for _, doc := range data.Documents {
			if doc.DocType == models.DocTypePurchaseInvoice {
				summary.JumlahDPPPembelian = summary.JumlahDPPPembelian.Add(doc.BaseAmount)
			} else {
				summary.JumlahDPPPenjualan = summary.JumlahDPPPenjualan.Add(doc.BaseAmount)
			}
		}

		efakturs, err := s.efakturs.ListEfakturByPeriod(ctx, summary.Company, period.Start(), period.End())
		if err != nil {
			return fmt.Errorf("failed to list e-faktur: %w", err)
		}
		for _, doc := range efakturs {
			if doc.Status != models.DocStatusCancelled {
				summary.JumlahPPnBMPenjualan = summary.JumlahPPnBMPenjualan.Add(doc.JumlahPPnBM)
			}
		}
	} else {
		summary.PenghasilanBruto = valueOrZero(data.Summary.IncomeAmount)
		summary.JumlahPPh = valueOrZero(data.Summary.TaxAmount)
	}

	summary.NetTaxAmount = data.Summary.TaxBalance
	summary.DocumentCount = data.Summary.DocumentCount
	return nil
}

func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
