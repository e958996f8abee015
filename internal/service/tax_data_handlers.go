package service

import (
	"context"
	"fmt"
	"pajak-web/internal/models"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PeriodData is what a category handler computes for a date range.
type PeriodData struct {
	Summary   models.TaxSummary
	Documents []models.TaxReportDocument
}

// ComputeFunc computes a category's position over [from, to].
type ComputeFunc func(ctx context.Context, company string, from, to time.Time) (*PeriodData, error)

// TaxDataAggregator dispatches period computations by tax category.
type TaxDataAggregator struct {
	handlers map[models.TaxCategory]ComputeFunc

	gl       GLStore
	invoices InvoiceStore
	slips    SalarySlipStore
	efakturs EfakturStore
	ebupots  EbupotStore
	logger   *logrus.Logger
}

func NewTaxDataAggregator(
	gl GLStore,
	invoices InvoiceStore,
	slips SalarySlipStore,
	efakturs EfakturStore,
	ebupots EbupotStore,
	logger *logrus.Logger,
) *TaxDataAggregator {
	a := &TaxDataAggregator{
		gl:       gl,
		invoices: invoices,
		slips:    slips,
		efakturs: efakturs,
		ebupots:  ebupots,
		logger:   logger,
	}
	a.handlers = map[models.TaxCategory]ComputeFunc{
		models.TaxCategoryPPN:   a.computePPN,
		models.TaxCategoryPPh21: a.computePPh21,
		models.TaxCategoryPPh23: a.withholdingHandler(models.TaxCategoryPPh23),
		models.TaxCategoryPPh26: a.withholdingHandler(models.TaxCategoryPPh26),
	}
	return a
}

// GetData computes the category's summary and documents for the range.
// Positive balances are owed to the tax office.
func (a *TaxDataAggregator) GetData(ctx context.Context, category models.TaxCategory, company string, from, to time.Time) (*PeriodData, error) {
	compute, ok := a.handlers[category]
	if !ok {
		return nil, fmt.Errorf("no tax data handler for category %q", category)
	}
	if to.Before(from) {
		return nil, newValidationError("get tax data", models.ErrInvalidPeriod, "end date is before start date")
	}

	data, err := compute(ctx, company, from, to)
	if err != nil {
		return nil, err
	}
	data.Summary.Status = models.ClassifyBalance(data.Summary.TaxBalance)
	data.Summary.DocumentCount = len(data.Documents)
	data.Summary.PaymentDueDate = from.AddDate(0, 0, category.PaymentDueDays())
	return data, nil
}

func (a *TaxDataAggregator) computePPN(ctx context.Context, company string, from, to time.Time) (*PeriodData, error) {
	out, err := a.ppnSide(ctx, company, models.TaxRolePPNOut, models.DocTypeSalesInvoice, from, to)
	if err != nil {
		return nil, err
	}
	in, err := a.ppnSide(ctx, company, models.TaxRolePPNIn, models.DocTypePurchaseInvoice, from, to)
	if err != nil {
		return nil, err
	}

	data := &PeriodData{}
	data.Summary.PPNOut = &out
	data.Summary.PPNIn = &in
	data.Summary.TaxBalance = out.Sub(in)

	efakturs, err := a.efakturs.ListEfakturByPeriod(ctx, company, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list e-faktur: %w", err)
	}
	for _, doc := range efakturs {
		if doc.Status == models.DocStatusCancelled {
			continue
		}
		data.Documents = append(data.Documents, models.TaxReportDocument{
			DocType:      models.DocTypeEfaktur,
			DocName:      doc.Name,
			PostingDate:  doc.TanggalFaktur,
			Party:        doc.Nama,
			BaseAmount:   doc.JumlahDPP,
			TaxAmount:    doc.JumlahPPN,
			SignedAmount: doc.JumlahPPN,
			Status:       doc.Status,
		})
	}

	covered, err := a.efakturs.ListEfakturReferenceNames(ctx, company)
	if err != nil {
		return nil, fmt.Errorf("failed to list e-faktur references: %w", err)
	}
	synthesized := make(map[string]struct{}, len(covered))
	for _, name := range covered {
		synthesized[name] = struct{}{}
	}

	sales, err := a.invoices.ListInvoiceTaxTotals(ctx, models.DocTypeSalesInvoice, company, from, to, models.PPNFallbackPatterns(models.DocTypeSalesInvoice))
	if err != nil {
		return nil, fmt.Errorf("failed to list sales invoices: %w", err)
	}
	for _, inv := range sales {
		if _, ok := synthesized[inv.Name]; ok {
			continue
		}
		data.Documents = append(data.Documents, invoiceDocument(inv, inv.TaxAmount))
	}

	purchases, err := a.invoices.ListInvoiceTaxTotals(ctx, models.DocTypePurchaseInvoice, company, from, to, models.PPNFallbackPatterns(models.DocTypePurchaseInvoice))
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase invoices: %w", err)
	}
	for _, inv := range purchases {
		data.Documents = append(data.Documents, invoiceDocument(inv, inv.TaxAmount.Neg()))
	}

	return data, nil
}

// ppnSide totals one VAT direction from tagged ledger postings, falling back
// to invoice tax lines when no posting of that direction was tagged.
func (a *TaxDataAggregator) ppnSide(ctx context.Context, company string, role models.TaxRole, doctype string, from, to time.Time) (decimal.Decimal, error) {
	total, count, err := a.gl.SumTagged(ctx, company, role, from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum tagged %s postings: %w", role, err)
	}
	if count > 0 {
		return total, nil
	}

	invoices, err := a.invoices.ListInvoiceTaxTotals(ctx, doctype, company, from, to, models.PPNFallbackPatterns(doctype))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to scan %s tax lines: %w", doctype, err)
	}
	total = decimal.Zero
	for _, inv := range invoices {
		total = total.Add(inv.TaxAmount)
	}
	a.logger.WithFields(logrus.Fields{"company": company, "role": role, "invoices": len(invoices)}).Debug("no tagged postings, used invoice tax lines")
	return total, nil
}

func (a *TaxDataAggregator) computePPh21(ctx context.Context, company string, from, to time.Time) (*PeriodData, error) {
	slips, err := a.slips.ListTaxedSalarySlips(ctx, company, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary slips: %w", err)
	}

	income, tax := decimal.Zero, decimal.Zero
	data := &PeriodData{}
	for _, slip := range slips {
		if !slip.TotalTaxDeducted.IsPositive() {
			continue
		}
		income = income.Add(slip.GrossPay)
		tax = tax.Add(slip.TotalTaxDeducted)
		data.Documents = append(data.Documents, models.TaxReportDocument{
			DocType:      models.DocTypeSalarySlip,
			DocName:      slip.Name,
			PostingDate:  slip.PostingDate,
			Party:        slip.EmployeeName,
			BaseAmount:   slip.GrossPay,
			TaxAmount:    slip.TotalTaxDeducted,
			SignedAmount: slip.TotalTaxDeducted,
			Status:       slip.Status,
		})
	}

	data.Summary.IncomeAmount = &income
	data.Summary.TaxAmount = &tax
	data.Summary.TaxBalance = tax
	return data, nil
}

func (a *TaxDataAggregator) withholdingHandler(category models.TaxCategory) ComputeFunc {
	return func(ctx context.Context, company string, from, to time.Time) (*PeriodData, error) {
		docs, err := a.ebupots.ListEbupotByPeriod(ctx, company, string(category), from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to list e-bupot: %w", err)
		}

		income, tax := decimal.Zero, decimal.Zero
		data := &PeriodData{}
		for _, doc := range docs {
			if doc.Status == models.DocStatusCancelled || doc.Status == models.DocStatusDraft {
				continue
			}
			income = income.Add(doc.PenghasilanBruto)
			tax = tax.Add(doc.PPhDipotong)
			data.Documents = append(data.Documents, models.TaxReportDocument{
				DocType:      models.DocTypeEbupot,
				DocName:      doc.Name,
				PostingDate:  doc.TandatanganDate,
				Party:        doc.NamaTerpotong,
				BaseAmount:   doc.PenghasilanBruto,
				TaxAmount:    doc.PPhDipotong,
				SignedAmount: doc.PPhDipotong,
				Status:       doc.Status,
			})
		}

		data.Summary.IncomeAmount = &income
		data.Summary.TaxAmount = &tax
		data.Summary.TaxBalance = tax
		return data, nil
	}
}

func invoiceDocument(inv models.InvoiceTaxTotal, signed decimal.Decimal) models.TaxReportDocument {
	party := inv.PartyName
	if party == "" {
		party = inv.Party
	}
	return models.TaxReportDocument{
		DocType:      inv.DocType,
		DocName:      inv.Name,
		PostingDate:  inv.PostingDate,
		Party:        party,
		BaseAmount:   inv.BaseNetTotal,
		TaxAmount:    inv.TaxAmount,
		SignedAmount: signed,
		Status:       inv.Status,
	}
}
