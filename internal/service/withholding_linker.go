package service

import (
	"context"
	"fmt"
	"pajak-web/internal/models"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Deduction amounts and withheld tax closer than this are the same payment.
var linkTolerance = decimal.NewFromInt(1)

// WithholdingLinker ties withholding deductions on supplier payments to the
// E-Bupot they settle.
type WithholdingLinker struct {
	ebupots  EbupotStore
	payments PaymentStore
	resolver *AccountResolver
	logger   *logrus.Logger
}

func NewWithholdingLinker(ebupots EbupotStore, payments PaymentStore, resolver *AccountResolver, logger *logrus.Logger) *WithholdingLinker {
	return &WithholdingLinker{ebupots: ebupots, payments: payments, resolver: resolver, logger: logger}
}

// LinkDeductions runs when a payment is validated. Each withholding deduction
// without a link is matched against, in order: slips of the referenced
// purchase invoices with a matching amount, unlinked slips of the supplier in
// the same month, and unlinked slips of the supplier within three months.
// Every tier requires the withheld amount to match the deduction.
func (l *WithholdingLinker) LinkDeductions(ctx context.Context, payment *models.PaymentEntry) []Notice {
	ref := models.DocumentRef{DocType: models.DocTypePaymentEntry, Name: payment.Name}
	if payment.PartyType != models.PartyTypeSupplier || len(payment.Deductions) == 0 {
		return nil
	}

	var notices []Notice
	for i := range payment.Deductions {
		deduction := &payment.Deductions[i]
		if deduction.EbupotDocument != nil && *deduction.EbupotDocument != "" {
			continue
		}
		role, ok := l.resolver.WithholdingRole(ctx, payment.Company, deduction.Account)
		if !ok || role == models.TaxRolePPh21 {
			continue
		}

		match, err := l.findMatch(ctx, payment, deduction, role)
		if err != nil {
			l.logger.WithError(err).WithField("payment_entry", payment.Name).Warn("failed to search e-bupot for deduction")
			notices = append(notices, warning(ref, "Could not search E-Bupot for deduction on "+deduction.Account))
			continue
		}
		if match == nil {
			notices = append(notices, info(ref, fmt.Sprintf("No E-Bupot found for %s deduction of %s", models.CategoryForRole(role), deduction.Amount.StringFixed(2))))
			continue
		}

		if err := l.payments.SetDeductionEbupot(ctx, deduction.ID, stringPtr(match.Name)); err != nil {
			l.logger.WithError(err).WithField("payment_entry", payment.Name).Warn("failed to link deduction")
			notices = append(notices, warning(ref, "Failed to link E-Bupot "+match.Name))
			continue
		}
		deduction.EbupotDocument = stringPtr(match.Name)
		notices = append(notices, info(ref, "Deduction linked to E-Bupot "+match.Name))
	}
	return notices
}

// MarkPaid runs when the payment is submitted.
func (l *WithholdingLinker) MarkPaid(ctx context.Context, payment *models.PaymentEntry) []Notice {
	return l.applyPayment(ctx, payment, true)
}

// RevertPaid runs when the payment is cancelled.
func (l *WithholdingLinker) RevertPaid(ctx context.Context, payment *models.PaymentEntry) []Notice {
	return l.applyPayment(ctx, payment, false)
}

func (l *WithholdingLinker) applyPayment(ctx context.Context, payment *models.PaymentEntry, paid bool) []Notice {
	ref := models.DocumentRef{DocType: models.DocTypePaymentEntry, Name: payment.Name}

	var notices []Notice
	for _, deduction := range payment.Deductions {
		if deduction.EbupotDocument == nil || *deduction.EbupotDocument == "" {
			continue
		}
		name := *deduction.EbupotDocument

		var err error
		if paid {
			err = l.ebupots.SetEbupotPayment(ctx, name, stringPtr(payment.Name), timePtr(payment.PostingDate), models.DocStatusPaid)
		} else {
			err = l.ebupots.SetEbupotPayment(ctx, name, nil, nil, models.DocStatusSubmitted)
		}
		if err != nil {
			l.logger.WithError(err).WithFields(logrus.Fields{"payment_entry": payment.Name, "ebupot": name}).Error("failed to update e-bupot payment status")
			notices = append(notices, failure(ref, "Failed to update E-Bupot "+name+": "+err.Error()))
		}
	}
	return notices
}

func (l *WithholdingLinker) findMatch(ctx context.Context, payment *models.PaymentEntry, deduction *models.PaymentDeduction, role models.TaxRole) (*models.EbupotDocument, error) {
	jenis := string(models.CategoryForRole(role))
	amount := deduction.Amount.Abs()

	var invoices []string
	for _, r := range payment.References {
		if r.ReferenceDoctype == models.DocTypePurchaseInvoice {
			invoices = append(invoices, r.ReferenceName)
		}
	}
	if len(invoices) > 0 {
		candidates, err := l.ebupots.FindEbupots(ctx, models.EbupotFilter{
			Company:        payment.Company,
			JenisPajak:     jenis,
			ReferenceNames: invoices,
		})
		if err != nil {
			return nil, err
		}
		if match := withinTolerance(candidates, amount); match != nil {
			return match, nil
		}
	}

	period := models.PeriodOf(payment.PostingDate)
	windows := [][2]time.Time{
		{period.Start(), period.End()},
		{period.Start().AddDate(0, -3, 0), period.Start().AddDate(0, 4, -1)},
	}
	for _, window := range windows {
		candidates, err := l.ebupots.FindEbupots(ctx, models.EbupotFilter{
			Company:    payment.Company,
			JenisPajak: jenis,
			Supplier:   payment.Party,
			From:       window[0],
			To:         window[1],
			Unlinked:   true,
		})
		if err != nil {
			return nil, err
		}
		if match := withinTolerance(candidates, amount); match != nil {
			return match, nil
		}
	}
	return nil, nil
}

func withinTolerance(candidates []models.EbupotDocument, amount decimal.Decimal) *models.EbupotDocument {
	for i := range candidates {
		if candidates[i].PPhDipotong.Sub(amount).Abs().LessThan(linkTolerance) {
			return &candidates[i]
		}
	}
	return nil
}
