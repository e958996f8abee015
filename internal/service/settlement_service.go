package service

import (
	"context"
	"errors"
	"fmt"
	"pajak-web/internal/metrics"
	"pajak-web/internal/models"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var taxOfficeKeywords = []string{"tax office", "kantor pajak", "direktorat jenderal pajak", "djp"}

// AdjustmentOptions parameterises the compensation entry. BaseRate is the
// percentage used to derive the adjustment tax base from the compensated
// amount; nil means the PPN rate.
type AdjustmentOptions struct {
	BaseRate *decimal.Decimal `json:"base_rate"`
}

// SettlementService turns a submitted filing's balance into a payment entry
// (underpaid) or a compensation adjustment (overpaid).
type SettlementService struct {
	filings     FilingStore
	payments    PaymentStore
	adjustments AdjustmentStore
	parties     PartyStore
	accounts    AccountStore
	resolver    *AccountResolver
	tx          TxManager
	taxOffice   string
	logger      *logrus.Logger
	now         func() time.Time
}

func NewSettlementService(
	filings FilingStore,
	payments PaymentStore,
	adjustments AdjustmentStore,
	parties PartyStore,
	accounts AccountStore,
	resolver *AccountResolver,
	tx TxManager,
	taxOffice string,
	logger *logrus.Logger,
) *SettlementService {
	return &SettlementService{
		filings:     filings,
		payments:    payments,
		adjustments: adjustments,
		parties:     parties,
		accounts:    accounts,
		resolver:    resolver,
		tx:          tx,
		taxOffice:   taxOffice,
		logger:      logger,
		now:         time.Now,
	}
}

// GeneratePaymentEntry pays an underpaid filing's balance to the tax office.
func (s *SettlementService) GeneratePaymentEntry(ctx context.Context, filingID string) models.SettlementResult {
	log := s.logger.WithFields(logrus.Fields{"operation": "settlement.payment", "filing": filingID})

	filing, err := s.loadFiling(ctx, "generate payment", filingID)
	if err != nil {
		return s.fail("payment", log, err)
	}
	if filing.PaymentEntry != nil {
		return s.fail("payment", log, newValidationError("generate payment", ErrPaymentExists, *filing.PaymentEntry))
	}
	if !filing.TaxBalance.IsPositive() {
		return s.fail("payment", log, newValidationError("generate payment", ErrNotUnderpaid))
	}

	category := filing.TaxCategory
	bank, ok := s.resolver.ResolveBankAccount(ctx, filing.Company)
	if !ok {
		return s.fail("payment", log, fmt.Errorf("%w: no default bank account for %s", ErrAccountUnresolved, filing.Company))
	}
	taxAccount, ok := s.resolver.Resolve(ctx, filing.Company, category.LiabilityRole())
	if !ok {
		return s.fail("payment", log, fmt.Errorf("%w: no tax account for %s and %s", ErrAccountUnresolved, filing.Company, filing.FilingType))
	}

	now := s.now()
	amount := filing.TaxBalance.Abs()
	payment := &models.PaymentEntry{
		Name:               newDocumentName("PAY", now),
		PaymentType:        models.PaymentTypePay,
		Company:            filing.Company,
		PostingDate:        now,
		PartyType:          models.PartyTypeSupplier,
		PaidFrom:           bank,
		PaidTo:             taxAccount,
		PaidAmount:         amount,
		ReceivedAmount:     amount,
		ModeOfPayment:      models.ModeOfPaymentBankDraft,
		ReferenceNo:        filing.Name,
		ReferenceDate:      now,
		Remarks:            fmt.Sprintf("Tax payment for %s %s", filing.FilingType, filing.Period()),
		TaxFilingReference: stringPtr(filing.Name),
		TaxFilingType:      stringPtr(filing.FilingType),
		Status:             models.DocStatusSubmitted,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		supplier, err := s.taxOfficeSupplier(txCtx)
		if err != nil {
			return err
		}
		payment.Party = supplier

		if err := s.payments.CreatePaymentEntry(txCtx, payment); err != nil {
			return fmt.Errorf("failed to create payment entry: %w", err)
		}

		filing.PaymentEntry = stringPtr(payment.Name)
		filing.PaymentStatus = models.PaymentStatusPaid
		filing.PaymentDate = &now
		filing.State = models.FilingStatePaid
		filing.UpdatedAt = now
		if err := s.filings.UpdateFiling(txCtx, filing); err != nil {
			return fmt.Errorf("failed to link payment to filing: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.fail("payment", log, fmt.Errorf("failed to create payment entry: %w", err))
	}

	metrics.Settlements.WithLabelValues("payment", models.SettlementStatusSuccess).Inc()
	metrics.FilingTransitions.WithLabelValues(string(category), string(filing.State)).Inc()
	log.WithFields(logrus.Fields{"payment_entry": payment.Name, "amount": amount.StringFixed(2)}).Info("Tax payment entry created")

	return models.SettlementResult{
		Status:         models.SettlementStatusSuccess,
		Message:        fmt.Sprintf("Payment Entry %s has been created", payment.Name),
		PaymentEntryID: payment.Name,
	}
}

// GenerateAdjustmentEntry carries an overpaid balance forward to the next
// period. Without an explicit BaseRate the PPN rate is used; for other
// categories that assumption is flagged on the entry and in the result.
func (s *SettlementService) GenerateAdjustmentEntry(ctx context.Context, filingID string, opts AdjustmentOptions) models.SettlementResult {
	log := s.logger.WithFields(logrus.Fields{"operation": "settlement.adjustment", "filing": filingID})

	filing, err := s.loadFiling(ctx, "generate adjustment", filingID)
	if err != nil {
		return s.fail("adjustment", log, err)
	}
	if filing.AdjustmentEntry != nil {
		return s.fail("adjustment", log, newValidationError("generate adjustment", ErrAdjustmentExists, *filing.AdjustmentEntry))
	}
	if !filing.TaxBalance.IsNegative() {
		return s.fail("adjustment", log, newValidationError("generate adjustment", ErrNotOverpaid))
	}

	category := filing.TaxCategory
	var warnings []string
	rate := models.PPNRatePercent
	assumed := false
	if opts.BaseRate != nil {
		if !opts.BaseRate.IsPositive() {
			return s.fail("adjustment", log, newValidationError("generate adjustment", errors.New("base rate must be positive")))
		}
		rate = *opts.BaseRate
	} else if category != models.TaxCategoryPPN {
		assumed = true
		msg := fmt.Sprintf("adjustment tax base derived with the PPN rate of %s%% for a %s filing", models.PPNRatePercent.String(), category)
		warnings = append(warnings, msg)
		log.WithField("category", category).Warn("Adjustment base rate assumed from PPN")
	}

	adjustmentAccount, ok := s.resolver.ResolveAdjustmentAccount(ctx, filing.Company)
	if !ok {
		return s.fail("adjustment", log, fmt.Errorf("%w: no adjustment account for %s", ErrAccountUnresolved, filing.Company))
	}
	taxAccount, ok := s.resolver.Resolve(ctx, filing.Company, category.LiabilityRole())
	if !ok {
		return s.fail("adjustment", log, fmt.Errorf("%w: no tax account for %s and %s", ErrAccountUnresolved, filing.Company, filing.FilingType))
	}
	for _, account := range []string{adjustmentAccount, taxAccount} {
		if err := s.checkOwnership(ctx, filing.Company, account); err != nil {
			return s.fail("adjustment", log, err)
		}
	}

	now := s.now()
	compensation := filing.TaxBalance.Abs()
	period := filing.Period()
	entry := &models.TaxAdjustmentEntry{
		Name:                newDocumentName("ADJ", now),
		Company:             filing.Company,
		PostingDate:         now,
		JenisPajak:          category.Code(),
		JenisPenyesuaian:    models.JenisPenyesuaianKompensasi,
		AdjustmentType:      models.AdjustmentTypeAddition,
		AdjustmentReason:    fmt.Sprintf("Tax compensation from %s for %s %s", filing.Name, filing.FilingType, period),
		MasaPajak:           period.Month,
		TahunPajak:          period.Year,
		ReferenceDoctype:    models.DocTypeTaxFiling,
		ReferenceName:       filing.Name,
		OriginalTaxBase:     decimal.Zero,
		OriginalTaxAmount:   decimal.Zero,
		AdjustmentTaxBase:   compensation.Mul(hundredPercent).Div(rate).Round(2),
		AdjustmentTaxAmount: compensation,
		BaseRate:            rate,
		BaseRateAssumed:     assumed,
		AccountAdjustment:   adjustmentAccount,
		AccountTax:          taxAccount,
		NominalKompensasi:   compensation,
		KompensasiType:      models.KompensasiMasaBerikutnya,
		Remarks:             fmt.Sprintf("Tax compensation from %s %s", filing.FilingType, period),
		Status:              models.DocStatusSubmitted,
		CreatedAt:           now,
	}
	entry.CalculateFinalValues()

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.adjustments.CreateAdjustment(txCtx, entry); err != nil {
			return fmt.Errorf("failed to create adjustment entry: %w", err)
		}

		filing.AdjustmentEntry = stringPtr(entry.Name)
		filing.AdjustmentStatus = models.AdjustmentStatusKompensasi
		filing.AdjustmentDate = &now
		filing.State = models.FilingStateCompensated
		filing.UpdatedAt = now
		if err := s.filings.UpdateFiling(txCtx, filing); err != nil {
			return fmt.Errorf("failed to link adjustment to filing: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.fail("adjustment", log, fmt.Errorf("failed to create tax adjustment entry: %w", err))
	}

	metrics.Settlements.WithLabelValues("adjustment", models.SettlementStatusSuccess).Inc()
	metrics.FilingTransitions.WithLabelValues(string(category), string(filing.State)).Inc()
	log.WithFields(logrus.Fields{"adjustment_entry": entry.Name, "amount": compensation.StringFixed(2)}).Info("Tax adjustment entry created")

	msg := fmt.Sprintf("Tax Adjustment Entry %s has been created", entry.Name)
	if assumed {
		msg += " (base rate assumed, please review)"
	}
	return models.SettlementResult{
		Status:            models.SettlementStatusSuccess,
		Message:           msg,
		AdjustmentEntryID: entry.Name,
		Warnings:          warnings,
	}
}

func (s *SettlementService) loadFiling(ctx context.Context, op, name string) (*models.TaxFilingSummary, error) {
	filing, err := s.filings.GetFiling(ctx, name)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrFilingNotFound
		}
		return nil, fmt.Errorf("failed to get filing: %w", err)
	}
	if filing.State != models.FilingStateSubmitted {
		return nil, newValidationError(op, ErrNotSubmitted, fmt.Sprintf("filing is %s", filing.State))
	}
	return filing, nil
}

// taxOfficeSupplier finds the supplier representing the tax office, creating
// it when none exists.
func (s *SettlementService) taxOfficeSupplier(ctx context.Context) (string, error) {
	party, err := s.parties.FindSupplierByKeywords(ctx, taxOfficeKeywords)
	if err == nil {
		return party.Name, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return "", fmt.Errorf("failed to look up tax office supplier: %w", err)
	}

	party = &models.Party{
		PartyType:     models.PartyTypeSupplier,
		Name:          s.taxOffice,
		PartyName:     s.taxOffice,
		SupplierGroup: "Tax Office",
		Country:       "Indonesia",
		CreatedAt:     s.now(),
	}
	if err := s.parties.CreateParty(ctx, party); err != nil {
		return "", fmt.Errorf("failed to create tax office supplier: %w", err)
	}
	s.logger.WithField("supplier", party.Name).Info("Tax office supplier created")
	return party.Name, nil
}

func (s *SettlementService) checkOwnership(ctx context.Context, company, name string) error {
	account, err := s.accounts.GetAccount(ctx, name)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return newValidationError("generate adjustment", ErrAccountNotInCompany, name)
		}
		return fmt.Errorf("failed to read account %s: %w", name, err)
	}
	if !strings.EqualFold(account.Company, company) {
		return newValidationError("generate adjustment", ErrAccountNotInCompany, fmt.Sprintf("%s belongs to %s", name, account.Company))
	}
	return nil
}

// fail converts err into an error result. Precondition violations are
// expected and logged at Info; anything else at Error.
func (s *SettlementService) fail(kind string, log *logrus.Entry, err error) models.SettlementResult {
	if IsValidationError(err) || errors.Is(err, ErrFilingNotFound) || errors.Is(err, ErrAccountUnresolved) {
		log.WithError(err).Info("Settlement not generated")
	} else {
		log.WithError(err).Error("Settlement generation failed")
	}
	metrics.Settlements.WithLabelValues(kind, models.SettlementStatusError).Inc()
	return models.SettlementResult{
		Status:  models.SettlementStatusError,
		Message: err.Error(),
	}
}
