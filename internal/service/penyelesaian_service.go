package service

import (
	"context"
	"errors"
	"fmt"
	"pajak-web/internal/metrics"
	"pajak-web/internal/models"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var ntpnPattern = regexp.MustCompile(`^[A-Z0-9]{16}$`)

// PenyelesaianService tracks the bank settlement of a period's tax. The
// referenced filing or SPT summary follows the settlement: it is marked
// in progress on submit and paid once the NTPN is recorded.
type PenyelesaianService struct {
	records   PenyelesaianStore
	filings   FilingStore
	summaries SPTSummaryStore
	tx        TxManager
	logger    *logrus.Logger
	now       func() time.Time
}

func NewPenyelesaianService(records PenyelesaianStore, filings FilingStore, summaries SPTSummaryStore, tx TxManager, logger *logrus.Logger) *PenyelesaianService {
	return &PenyelesaianService{
		records:   records,
		filings:   filings,
		summaries: summaries,
		tx:        tx,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *PenyelesaianService) Create(ctx context.Context, req models.PenyelesaianRequest) (*models.PenyelesaianPajak, error) {
	record := &models.PenyelesaianPajak{Status: models.PenyelesaianDraft}
	if err := s.apply(ctx, record, req); err != nil {
		return nil, err
	}

	now := s.now()
	record.Name = newDocumentName("PNY", record.Period().Start())
	record.CreatedAt = now
	record.UpdatedAt = now
	if err := s.records.CreatePenyelesaian(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create tax settlement: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"settlement": record.Name,
		"company":    record.Company,
		"jenis":      record.JenisPajak,
		"amount":     record.TaxAmount.StringFixed(2),
	}).Info("Tax settlement created")
	return record, nil
}

// Update replaces a draft's fields.
func (s *PenyelesaianService) Update(ctx context.Context, name string, req models.PenyelesaianRequest) (*models.PenyelesaianPajak, error) {
	record, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if record.Status != models.PenyelesaianDraft {
		return nil, newValidationError("update tax settlement", ErrInvalidTransition, "settlement is "+record.Status)
	}
	if err := s.apply(ctx, record, req); err != nil {
		return nil, err
	}
	record.UpdatedAt = s.now()
	if err := s.records.UpdatePenyelesaian(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save tax settlement: %w", err)
	}
	return record, nil
}

func (s *PenyelesaianService) Get(ctx context.Context, name string) (*models.PenyelesaianPajak, error) {
	record, err := s.records.GetPenyelesaian(ctx, name)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrPenyelesaianNotFound
		}
		return nil, fmt.Errorf("failed to get tax settlement: %w", err)
	}
	return record, nil
}

func (s *PenyelesaianService) List(ctx context.Context, filter models.PenyelesaianFilter) ([]models.PenyelesaianPajak, error) {
	records, err := s.records.ListPenyelesaian(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tax settlements: %w", err)
	}
	return records, nil
}

// Submit opens the payment and marks the reference as in progress.
func (s *PenyelesaianService) Submit(ctx context.Context, name string) (*models.PenyelesaianPajak, error) {
	record, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if record.Status != models.PenyelesaianDraft {
		return nil, newValidationError("submit tax settlement", ErrInvalidTransition, "settlement is "+record.Status)
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.checkReference(txCtx, record); err != nil {
			return err
		}
		record.Status = models.PenyelesaianSubmitted
		record.UpdatedAt = s.now()
		if err := s.records.UpdatePenyelesaian(txCtx, record); err != nil {
			return fmt.Errorf("failed to submit tax settlement: %w", err)
		}
		return s.markReference(txCtx, record, func(filing *models.TaxFilingSummary) {
			filing.PaymentStatus = models.DocStatusPaymentInProgress
		}, func(summary *models.SPTSummary) {
			summary.Status = models.DocStatusPaymentInProgress
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.Settlements.WithLabelValues("penyelesaian", record.Status).Inc()
	return record, nil
}

// Complete records the NTPN of a submitted settlement and marks the
// reference paid.
func (s *PenyelesaianService) Complete(ctx context.Context, name, ntpn string) (*models.PenyelesaianPajak, error) {
	ntpn = strings.ToUpper(strings.TrimSpace(ntpn))
	if !ntpnPattern.MatchString(ntpn) {
		return nil, newValidationError("complete tax settlement", ErrInvalidNTPN)
	}
	record, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if record.Status != models.PenyelesaianSubmitted {
		return nil, newValidationError("complete tax settlement", ErrInvalidTransition, "settlement is "+record.Status)
	}

	paidAt := s.now()
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		record.NTPN = ntpn
		record.PaidAt = &paidAt
		record.Status = models.PenyelesaianPaid
		record.UpdatedAt = paidAt
		if err := s.records.UpdatePenyelesaian(txCtx, record); err != nil {
			return fmt.Errorf("failed to complete tax settlement: %w", err)
		}
		return s.markReference(txCtx, record, func(filing *models.TaxFilingSummary) {
			filing.PaymentStatus = models.PaymentStatusPaid
			filing.PaymentDate = timePtr(paidAt)
			filing.PaymentDocuments = append(filing.PaymentDocuments, models.FilingPaymentDocument{
				Idx:          len(filing.PaymentDocuments) + 1,
				DocumentType: models.PaymentDocumentNTPN,
				DocumentNo:   ntpn,
				Amount:       record.TaxAmount,
				PaymentDate:  timePtr(paidAt),
			})
			if filing.State == models.FilingStateSubmitted {
				filing.State = models.FilingStatePaid
				metrics.FilingTransitions.WithLabelValues(string(filing.TaxCategory), string(filing.State)).Inc()
			}
		}, func(summary *models.SPTSummary) {
			summary.Status = models.DocStatusPaid
			summary.NTPN = ntpn
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.Settlements.WithLabelValues("penyelesaian", record.Status).Inc()
	s.logger.WithFields(logrus.Fields{
		"settlement": record.Name,
		"ntpn":       record.NTPN,
		"reference":  record.ReferenceName,
	}).Info("Tax settlement paid")
	return record, nil
}

// Cancel withdraws a submitted settlement and reopens the reference.
func (s *PenyelesaianService) Cancel(ctx context.Context, name string) (*models.PenyelesaianPajak, error) {
	record, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if record.Status != models.PenyelesaianSubmitted {
		return nil, newValidationError("cancel tax settlement", ErrInvalidTransition, "settlement is "+record.Status)
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		record.Status = models.PenyelesaianCancelled
		record.UpdatedAt = s.now()
		if err := s.records.UpdatePenyelesaian(txCtx, record); err != nil {
			return fmt.Errorf("failed to cancel tax settlement: %w", err)
		}
		return s.markReference(txCtx, record, func(filing *models.TaxFilingSummary) {
			filing.PaymentStatus = ""
		}, func(summary *models.SPTSummary) {
			if summary.FilingReference != nil {
				summary.Status = models.DocStatusFiled
			} else {
				summary.Status = models.DocStatusSubmitted
			}
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.Settlements.WithLabelValues("penyelesaian", record.Status).Inc()
	return record, nil
}

func (s *PenyelesaianService) apply(ctx context.Context, record *models.PenyelesaianPajak, req models.PenyelesaianRequest) error {
	const op = "validate tax settlement"

	if req.Company == "" {
		return newValidationError(op, errors.New("company is required"))
	}
	category, err := models.ParseTaxCategory(req.JenisPajak)
	if err != nil {
		return newValidationError(op, err)
	}
	period, err := models.NewFiscalPeriod(req.TahunPajak, req.MasaPajak)
	if err != nil {
		return newValidationError(op, err)
	}

	record.Company = req.Company
	record.JenisPajak = category
	record.MasaPajak = period.Month
	record.TahunPajak = period.Year
	record.ReferenceType = req.ReferenceType
	record.ReferenceName = req.ReferenceName
	record.Remarks = req.Remarks

	record.TaxBaseAmount = decimal.Zero
	if req.TaxBaseAmount != nil {
		record.TaxBaseAmount = *req.TaxBaseAmount
	}
	record.TaxRate = decimal.Zero
	if req.TaxRate != nil {
		record.TaxRate = *req.TaxRate
	}
	if record.TaxBaseAmount.IsNegative() || record.TaxRate.IsNegative() {
		return newValidationError(op, errors.New("tax base and rate cannot be negative"))
	}

	record.PostingDate = s.now()
	if req.PostingDate != nil {
		record.PostingDate = *req.PostingDate
	}
	paymentDue := period.Start().AddDate(0, 0, category.PaymentDueDays())
	if req.PaymentDueDate != nil {
		paymentDue = *req.PaymentDueDate
	}
	record.PaymentDueDate = timePtr(paymentDue)
	// Late settlements of an old period default to being due on posting.
	record.DueDate = paymentDue
	if paymentDue.Before(truncateDay(record.PostingDate)) {
		record.DueDate = record.PostingDate
	}
	if req.DueDate != nil {
		record.DueDate = *req.DueDate
		if truncateDay(record.DueDate).Before(truncateDay(record.PostingDate)) {
			return newValidationError(op, ErrDueBeforePosting)
		}
	}

	record.CalculateTaxAmount()
	if record.HasReference() {
		return s.checkReference(ctx, record)
	}
	return nil
}

// checkReference requires the referenced return to be submitted and to
// cover the same company, tax type and period.
func (s *PenyelesaianService) checkReference(ctx context.Context, record *models.PenyelesaianPajak) error {
	const op = "validate tax settlement"
	if !record.HasReference() {
		return nil
	}

	var (
		company  string
		category models.TaxCategory
		period   models.FiscalPeriod
	)
	switch record.ReferenceType {
	case models.DocTypeTaxFiling:
		filing, err := s.filings.GetFiling(ctx, record.ReferenceName)
		if err != nil {
			return referenceLookupError(op, err, record.ReferenceName)
		}
		if filing.State != models.FilingStateSubmitted {
			return newValidationError(op, ErrReferenceNotReady, "filing is "+string(filing.State))
		}
		company, category, period = filing.Company, filing.TaxCategory, filing.Period()
	case models.DocTypeSPTSummary:
		summary, err := s.summaries.GetSPTSummary(ctx, record.ReferenceName)
		if err != nil {
			return referenceLookupError(op, err, record.ReferenceName)
		}
		if summary.Status != models.DocStatusSubmitted && summary.Status != models.DocStatusFiled {
			return newValidationError(op, ErrReferenceNotReady, "summary is "+summary.Status)
		}
		company, category, period = summary.Company, summary.JenisSPT, summary.Period()
	default:
		return newValidationError(op, ErrUnsupportedReference, record.ReferenceType)
	}

	if company != record.Company || category != record.JenisPajak || period != record.Period() {
		return newValidationError(op, ErrReferenceMismatch, record.ReferenceName)
	}
	return nil
}

func (s *PenyelesaianService) markReference(ctx context.Context, record *models.PenyelesaianPajak, onFiling func(*models.TaxFilingSummary), onSummary func(*models.SPTSummary)) error {
	if !record.HasReference() {
		return nil
	}
	switch record.ReferenceType {
	case models.DocTypeTaxFiling:
		filing, err := s.filings.GetFiling(ctx, record.ReferenceName)
		if err != nil {
			return fmt.Errorf("failed to load filing %s: %w", record.ReferenceName, err)
		}
		onFiling(filing)
		filing.UpdatedAt = s.now()
		if err := s.filings.UpdateFiling(ctx, filing); err != nil {
			return fmt.Errorf("failed to update filing %s: %w", filing.Name, err)
		}
	case models.DocTypeSPTSummary:
		summary, err := s.summaries.GetSPTSummary(ctx, record.ReferenceName)
		if err != nil {
			return fmt.Errorf("failed to load spt summary %s: %w", record.ReferenceName, err)
		}
		onSummary(summary)
		summary.UpdatedAt = s.now()
		if err := s.summaries.UpdateSPTSummary(ctx, summary); err != nil {
			return fmt.Errorf("failed to update spt summary %s: %w", summary.Name, err)
		}
	}
	return nil
}

func referenceLookupError(op string, err error, name string) error {
	if errors.Is(err, models.ErrNotFound) {
		return newValidationError(op, err, name)
	}
	return fmt.Errorf("failed to load reference %s: %w", name, err)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
