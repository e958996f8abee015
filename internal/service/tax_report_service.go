package service

import (
	"context"
	"errors"
	"fmt"
	"pajak-web/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// TaxReportService exposes the reporting operations consumed by the UI layer.
type TaxReportService struct {
	aggregator *TaxDataAggregator
	filings    FilingStore
	filingSvc  *TaxFilingService
	logger     *logrus.Logger
}

func NewTaxReportService(aggregator *TaxDataAggregator, filings FilingStore, filingSvc *TaxFilingService, logger *logrus.Logger) *TaxReportService {
	return &TaxReportService{
		aggregator: aggregator,
		filings:    filings,
		filingSvc:  filingSvc,
		logger:     logger,
	}
}

// GetTaxReportingData returns the month's position for a category. It does
// not fail: problems are reported in Summary.Error.
func (s *TaxReportService) GetTaxReportingData(ctx context.Context, year, month int, taxCategory, company string) *models.TaxReportData {
	result := &models.TaxReportData{
		Company: company,
		Summary: models.TaxSummary{
			Status:     models.FilingStatusBelumLapor,
			TaxBalance: decimal.Zero,
		},
		Documents: []models.TaxReportDocument{},
	}
	log := s.logger.WithFields(logrus.Fields{"operation": "tax_report.get", "company": company, "category": taxCategory})

	period, err := models.NewFiscalPeriod(year, month)
	if err != nil {
		result.Summary.Error = err.Error()
		return result
	}
	result.Period = period

	category, err := models.ParseTaxCategory(taxCategory)
	if err != nil {
		result.Summary.Error = err.Error()
		return result
	}
	result.Category = category

	data, err := s.aggregator.GetData(ctx, category, company, period.Start(), period.End())
	if err != nil {
		log.WithError(err).WithField("period", period.String()).Error("Failed to compute tax data")
		result.Summary.Error = err.Error()
		return result
	}
	result.Summary = data.Summary
	if data.Documents != nil {
		result.Documents = data.Documents
	}

	filing, err := s.filings.FindActiveFiling(ctx, company, category, period)
	switch {
	case err == nil:
		result.Summary.FilingID = filing.Name
		result.Summary.FilingState = filing.State
		result.Summary.Status = filing.StatusSPT
		if filing.PaymentEntry != nil {
			result.Summary.PaymentID = *filing.PaymentEntry
		}
		if filing.AdjustmentEntry != nil {
			result.Summary.AdjustmentID = *filing.AdjustmentEntry
		}
	case errors.Is(err, models.ErrNotFound):
		result.Summary.Status = models.FilingStatusBelumLapor
	default:
		log.WithError(err).Warn("Failed to look up filing for period")
		result.Summary.Status = models.FilingStatusBelumLapor
	}

	return result
}

// GenerateTaxFiling creates a draft filing for the period from the current
// aggregator output, unless a non-cancelled one already exists.
func (s *TaxReportService) GenerateTaxFiling(ctx context.Context, req models.GenerateFilingRequest, createdBy *int) models.GenerateFilingResult {
	log := s.logger.WithFields(logrus.Fields{"operation": "tax_filing.generate", "company": req.Company, "category": req.TaxCategory})

	period, err := models.NewFiscalPeriod(req.Year, req.Month)
	if err != nil {
		return models.GenerateFilingResult{Status: models.GenerateStatusError, Message: err.Error()}
	}
	category, err := models.ParseTaxCategory(req.TaxCategory)
	if err != nil {
		return models.GenerateFilingResult{Status: models.GenerateStatusError, Message: err.Error()}
	}

	existing, err := s.filings.FindActiveFiling(ctx, req.Company, category, period)
	if err == nil {
		return models.GenerateFilingResult{
			Status:   models.GenerateStatusExists,
			FilingID: existing.Name,
			Message:  fmt.Sprintf("SPT Masa %s %s already exists", category, period),
		}
	}
	if !errors.Is(err, models.ErrNotFound) {
		log.WithError(err).Error("Failed to look up existing filing")
		return models.GenerateFilingResult{Status: models.GenerateStatusError, Message: err.Error()}
	}

	data, err := s.aggregator.GetData(ctx, category, req.Company, period.Start(), period.End())
	if err != nil {
		log.WithError(err).Error("Failed to compute tax data")
		return models.GenerateFilingResult{Status: models.GenerateStatusError, Message: err.Error()}
	}

	filing := &models.TaxFilingSummary{
		Company:          req.Company,
		FilingType:       category.FilingType(),
		TaxCategory:      category,
		MasaPajak:        period.Month,
		TahunPajak:       period.Year,
		PostingDate:      period.End(),
		TanggalPelaporan: period.End(),
		LedgerBalance:    data.Summary.TaxBalance,
		CreatedBy:        createdBy,
	}
	for _, doc := range data.Documents {
		filing.SourceDocuments = append(filing.SourceDocuments, models.FilingSourceDocument{
			DocumentType: doc.DocType,
			DocumentName: doc.DocName,
			Status:       doc.Status,
			Amount:       doc.SignedAmount,
		})
	}

	created, err := s.filingSvc.Create(ctx, filing)
	if err != nil {
		if errors.Is(err, ErrFilingExists) && created != nil {
			return models.GenerateFilingResult{Status: models.GenerateStatusExists, FilingID: created.Name}
		}
		log.WithError(err).Error("Failed to generate tax filing")
		return models.GenerateFilingResult{Status: models.GenerateStatusError, Message: err.Error()}
	}

	return models.GenerateFilingResult{
		Status:   models.GenerateStatusSuccess,
		FilingID: created.Name,
		Message:  fmt.Sprintf("%s %s created", created.FilingType, period),
	}
}
