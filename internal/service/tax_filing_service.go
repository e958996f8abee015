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

// TaxFilingService drives a TaxFilingSummary through
// Draft -> Submitted -> {Paid, Compensated}, with Submitted -> Cancelled
// reversing the propagation onto the source documents.
type TaxFilingService struct {
	filings    FilingStore
	statuses   DocumentStatusStore
	aggregator *TaxDataAggregator
	tx         TxManager
	logger     *logrus.Logger
	now        func() time.Time
}

func NewTaxFilingService(
	filings FilingStore,
	statuses DocumentStatusStore,
	aggregator *TaxDataAggregator,
	tx TxManager,
	logger *logrus.Logger,
) *TaxFilingService {
	return &TaxFilingService{
		filings:    filings,
		statuses:   statuses,
		aggregator: aggregator,
		tx:         tx,
		logger:     logger,
		now:        time.Now,
	}
}

// Create persists a new draft filing. Only one non-cancelled filing may exist
// per company, category and period.
func (s *TaxFilingService) Create(ctx context.Context, filing *models.TaxFilingSummary) (*models.TaxFilingSummary, error) {
	if err := validateStructure("create filing", filing); err != nil {
		return nil, err
	}

	existing, err := s.filings.FindActiveFiling(ctx, filing.Company, filing.TaxCategory, filing.Period())
	if err == nil {
		return existing, newValidationError("create filing", ErrFilingExists, existing.Name)
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up existing filing: %w", err)
	}

	now := s.now()
	if filing.Name == "" {
		filing.Name = newDocumentName("SPT", filing.Period().Start())
	}
	if filing.FilingType == "" {
		filing.FilingType = filing.TaxCategory.FilingType()
	}
	filing.State = models.FilingStateDraft
	filing.TaxBalance = filing.SnapshotBalance()
	filing.StatusSPT = models.ClassifyBalance(filing.TaxBalance)
	filing.CreatedAt = now
	filing.UpdatedAt = now
	numberChildren(filing)

	if err := s.filings.CreateFiling(ctx, filing); err != nil {
		return nil, fmt.Errorf("failed to create filing: %w", err)
	}

	metrics.FilingTransitions.WithLabelValues(string(filing.TaxCategory), string(filing.State)).Inc()
	s.logger.WithFields(logrus.Fields{
		"filing":   filing.Name,
		"company":  filing.Company,
		"category": filing.TaxCategory,
		"period":   filing.Period().String(),
	}).Info("Tax filing created")
	return filing, nil
}

func (s *TaxFilingService) Get(ctx context.Context, name string) (*models.TaxFilingSummary, error) {
	filing, err := s.filings.GetFiling(ctx, name)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrFilingNotFound
		}
		return nil, fmt.Errorf("failed to get filing: %w", err)
	}
	return filing, nil
}

func (s *TaxFilingService) List(ctx context.Context, filter models.FilingFilter) ([]models.TaxFilingSummary, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	filings, total, err := s.filings.ListFilings(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list filings: %w", err)
	}
	return filings, total, nil
}

// Update applies editable fields to a draft and saves it.
func (s *TaxFilingService) Update(ctx context.Context, name string, req models.FilingUpdateRequest) (*models.TaxFilingSummary, error) {
	filing, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if filing.State != models.FilingStateDraft {
		return nil, newValidationError("update filing", ErrInvalidTransition, "only draft filings can be edited")
	}

	if req.TanggalPelaporan != nil {
		filing.TanggalPelaporan = *req.TanggalPelaporan
	}
	if req.Remarks != nil {
		filing.Remarks = *req.Remarks
	}
	if req.PaymentDocuments != nil {
		filing.PaymentDocuments = req.PaymentDocuments
	}

	if err := s.save(ctx, "update filing", filing); err != nil {
		return nil, err
	}
	return filing, nil
}

// AddAttachment records an uploaded file (e.g. the tax office receipt) on a
// draft filing. An attachment with the same title is replaced.
func (s *TaxFilingService) AddAttachment(ctx context.Context, name string, req models.FilingAttachmentRequest) (*models.TaxFilingSummary, error) {
	if req.Title == "" || req.FileURL == "" {
		return nil, newValidationError("add attachment", errors.New("title and file url are required"))
	}

	filing, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if filing.State != models.FilingStateDraft {
		return nil, newValidationError("add attachment", ErrInvalidTransition, "attachments can only be added to draft filings")
	}

	attachments := filing.Attachments[:0]
	for _, att := range filing.Attachments {
		if att.Title != req.Title {
			attachments = append(attachments, att)
		}
	}
	filing.Attachments = append(attachments, models.FilingAttachment{
		Parent:     filing.Name,
		Title:      req.Title,
		FileURL:    req.FileURL,
		UploadedAt: s.now(),
	})

	filing.UpdatedAt = s.now()
	if err := s.filings.UpdateFiling(ctx, filing); err != nil {
		return nil, fmt.Errorf("failed to save attachment: %w", err)
	}
	return filing, nil
}

// Submit freezes the filing's balance and stamps every source document as
// "Filed". The stamps and the state change commit together. Cancelled
// source documents stay cancelled and add nothing to the balance.
func (s *TaxFilingService) Submit(ctx context.Context, name string) (*models.TaxFilingSummary, error) {
	filing, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if filing.State != models.FilingStateDraft {
		return nil, newValidationError("submit filing", ErrInvalidTransition, fmt.Sprintf("filing is %s", filing.State))
	}

	log := s.logger.WithFields(logrus.Fields{"operation": "filing.submit", "filing": filing.Name})

	if err := s.refreshSnapshots(ctx, filing); err != nil {
		return nil, err
	}
	filing.TaxBalance = filing.SnapshotBalance()
	filing.StatusSPT = models.ClassifyBalance(filing.TaxBalance)
	if err := validateSave("submit filing", filing); err != nil {
		return nil, err
	}
	if !filing.HasAttachment(models.AttachmentTandaTerima) {
		return nil, newValidationError("submit filing", ErrMissingAttachment, models.AttachmentTandaTerima)
	}

	filing.LedgerBalance = s.ledgerBalance(ctx, filing, log)

	now := s.now()
	filing.State = models.FilingStateSubmitted
	filing.SubmittedAt = &now
	filing.UpdatedAt = now

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		filingDate := filing.TanggalPelaporan
		for _, doc := range filing.SourceDocuments {
			if doc.Status == models.DocStatusCancelled {
				log.WithField("document", doc.Ref().String()).Warn("Source document is cancelled, not stamping")
				continue
			}
			if err := s.statuses.SetFilingStamp(txCtx, doc.Ref(), models.DocStatusFiled, &filing.Name, &filingDate); err != nil {
				return fmt.Errorf("failed to stamp %s: %w", doc.Ref(), err)
			}
		}
		return s.filings.UpdateFiling(txCtx, filing)
	})
	if err != nil {
		log.WithError(err).Error("Failed to submit tax filing")
		return nil, err
	}

	metrics.FilingTransitions.WithLabelValues(string(filing.TaxCategory), string(filing.State)).Inc()
	log.WithFields(logrus.Fields{
		"status":    filing.StatusSPT,
		"balance":   filing.TaxBalance.StringFixed(2),
		"documents": len(filing.SourceDocuments),
	}).Info("Tax filing submitted")
	return filing, nil
}

// Cancel reverts a submitted filing. Each source document gets back the
// status captured when the filing was submitted; failures on individual
// documents are logged and do not stop the cancellation.
func (s *TaxFilingService) Cancel(ctx context.Context, name string) (*models.TaxFilingSummary, []Notice, error) {
	filing, err := s.Get(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	if filing.State != models.FilingStateSubmitted {
		return nil, nil, newValidationError("cancel filing", ErrInvalidTransition, fmt.Sprintf("filing is %s", filing.State))
	}

	log := s.logger.WithFields(logrus.Fields{"operation": "filing.cancel", "filing": filing.Name})
	ref := models.DocumentRef{DocType: models.DocTypeTaxFiling, Name: filing.Name}

	var notices []Notice
	reverted := 0
	for _, doc := range filing.SourceDocuments {
		if doc.Status == models.DocStatusCancelled {
			continue
		}
		status := doc.Status
		if status == "" || status == models.DocStatusFiled {
			status = models.DocStatusSubmitted
		}
		if err := s.statuses.SetFilingStamp(ctx, doc.Ref(), status, nil, nil); err != nil {
			log.WithError(err).WithField("document", doc.Ref().String()).Warn("Failed to revert source document")
			notices = append(notices, warning(ref, fmt.Sprintf("Could not revert %s: %v", doc.Ref(), err)))
			continue
		}
		reverted++
	}

	now := s.now()
	filing.State = models.FilingStateCancelled
	filing.CancelledAt = &now
	filing.UpdatedAt = now
	if err := s.filings.UpdateFiling(ctx, filing); err != nil {
		log.WithError(err).Error("Failed to cancel tax filing")
		return nil, notices, fmt.Errorf("failed to cancel filing: %w", err)
	}

	metrics.FilingTransitions.WithLabelValues(string(filing.TaxCategory), string(filing.State)).Inc()
	log.WithField("reverted", reverted).Info("Tax filing cancelled")
	return filing, notices, nil
}

func (s *TaxFilingService) save(ctx context.Context, op string, filing *models.TaxFilingSummary) error {
	if err := s.refreshSnapshots(ctx, filing); err != nil {
		return err
	}
	filing.TaxBalance = filing.SnapshotBalance()
	filing.StatusSPT = models.ClassifyBalance(filing.TaxBalance)
	if err := validateSave(op, filing); err != nil {
		return err
	}

	filing.UpdatedAt = s.now()
	numberChildren(filing)
	if err := s.filings.UpdateFiling(ctx, filing); err != nil {
		return fmt.Errorf("failed to save filing: %w", err)
	}
	return nil
}

// refreshSnapshots re-reads status and signed amount of every source document.
func (s *TaxFilingService) refreshSnapshots(ctx context.Context, filing *models.TaxFilingSummary) error {
	var missing []string
	for i := range filing.SourceDocuments {
		doc := &filing.SourceDocuments[i]
		snap, err := s.statuses.GetSnapshot(ctx, doc.Ref())
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				missing = append(missing, doc.Ref().String())
				continue
			}
			return fmt.Errorf("failed to read %s: %w", doc.Ref(), err)
		}
		doc.Status = snap.Status
		doc.Amount = signedSnapshotAmount(doc.DocumentType, snap)
	}
	if len(missing) > 0 {
		return newValidationError("refresh filing", models.ErrNotFound, missing...)
	}
	return nil
}

// ledgerBalance recomputes the period position from the ledger for
// comparison with the frozen snapshot balance.
func (s *TaxFilingService) ledgerBalance(ctx context.Context, filing *models.TaxFilingSummary, log *logrus.Entry) decimal.Decimal {
	period := filing.Period()
	data, err := s.aggregator.GetData(ctx, filing.TaxCategory, filing.Company, period.Start(), period.End())
	if err != nil {
		log.WithError(err).Warn("Could not recompute ledger balance")
		return filing.TaxBalance
	}
	if !data.Summary.TaxBalance.Equal(filing.TaxBalance) {
		log.WithFields(logrus.Fields{
			"snapshot_balance": filing.TaxBalance.StringFixed(2),
			"ledger_balance":   data.Summary.TaxBalance.StringFixed(2),
		}).Warn("Filing snapshot balance differs from ledger")
	}
	return data.Summary.TaxBalance
}

// signedSnapshotAmount applies the filing sign convention: creditable input
// tax on purchase invoices counts against the balance.
func signedSnapshotAmount(doctype string, snap *models.DocumentSnapshot) decimal.Decimal {
	if doctype == models.DocTypePurchaseInvoice {
		return snap.Amount.Abs().Neg()
	}
	return snap.Amount
}

func validateStructure(op string, filing *models.TaxFilingSummary) error {
	if _, err := models.NewFiscalPeriod(filing.TahunPajak, filing.MasaPajak); err != nil {
		return newValidationError(op, err)
	}
	if _, err := models.ParseTaxCategory(string(filing.TaxCategory)); err != nil {
		return newValidationError(op, err)
	}
	if filing.Company == "" {
		return newValidationError(op, errors.New("company is required"))
	}
	if len(filing.SourceDocuments) == 0 {
		return newValidationError(op, ErrNoSourceDocuments)
	}
	if !filing.TanggalPelaporan.IsZero() && filing.TanggalPelaporan.Before(filing.PostingDate) {
		return newValidationError(op, ErrInvalidDates)
	}
	return nil
}

func validateSave(op string, filing *models.TaxFilingSummary) error {
	if err := validateStructure(op, filing); err != nil {
		return err
	}
	if filing.StatusSPT == models.FilingStatusKurangBayar && len(filing.PaymentDocuments) == 0 {
		return newValidationError(op, ErrMissingPaymentDoc)
	}
	return nil
}

func numberChildren(filing *models.TaxFilingSummary) {
	for i := range filing.SourceDocuments {
		filing.SourceDocuments[i].Parent = filing.Name
		filing.SourceDocuments[i].Idx = i + 1
	}
	for i := range filing.PaymentDocuments {
		filing.PaymentDocuments[i].Parent = filing.Name
		filing.PaymentDocuments[i].Idx = i + 1
	}
	for i := range filing.Attachments {
		filing.Attachments[i].Parent = filing.Name
	}
}
