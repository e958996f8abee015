package service

import (
	"context"
	"errors"
	"pajak-web/internal/metrics"
	"pajak-web/internal/models"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	kodeJenisTransaksiDefault = "01"
	flagNo                    = "0"
)

// EfakturSynthesizer builds the E-Faktur for a submitted sales invoice.
type EfakturSynthesizer struct {
	invoices  InvoiceStore
	parties   PartyStore
	efakturs  EfakturStore
	series    FakturSeriesStore
	extractor *TaxExtractor
	logger    *logrus.Logger
}

func NewEfakturSynthesizer(
	invoices InvoiceStore,
	parties PartyStore,
	efakturs EfakturStore,
	series FakturSeriesStore,
	extractor *TaxExtractor,
	logger *logrus.Logger,
) *EfakturSynthesizer {
	return &EfakturSynthesizer{
		invoices:  invoices,
		parties:   parties,
		efakturs:  efakturs,
		series:    series,
		extractor: extractor,
		logger:    logger,
	}
}

// Synthesize creates at most one E-Faktur per invoice. It never fails the
// caller: skips and failures come back as notices with a nil document.
func (s *EfakturSynthesizer) Synthesize(ctx context.Context, inv *models.Invoice) (*models.EfakturDocument, []Notice) {
	ref := inv.Ref()
	log := s.logger.WithFields(logrus.Fields{"operation": "efaktur.synthesize", "doctype": ref.DocType, "docname": ref.Name})

	existing, err := s.efakturs.FindEfakturByReference(ctx, ref.DocType, ref.Name)
	switch {
	case err == nil:
		if existing.Status == models.DocStatusCancelled {
			if err := s.efakturs.UpdateEfakturStatus(ctx, existing.Name, models.DocStatusSubmitted); err != nil {
				log.WithError(err).Error("failed to reactivate e-faktur")
				metrics.StatutoryDocuments.WithLabelValues("efaktur", "failed").Inc()
				return nil, []Notice{failure(ref, "Failed to reactivate E-Faktur "+existing.Name+": "+err.Error())}
			}
			existing.Status = models.DocStatusSubmitted
			metrics.StatutoryDocuments.WithLabelValues("efaktur", "reactivated").Inc()
			return existing, []Notice{info(ref, "E-Faktur "+existing.Name+" reactivated")}
		}
		metrics.StatutoryDocuments.WithLabelValues("efaktur", "skipped").Inc()
		return nil, []Notice{info(ref, "E-Faktur "+existing.Name+" already exists for this invoice")}
	case !errors.Is(err, models.ErrNotFound):
		log.WithError(err).Error("failed to check existing e-faktur")
		metrics.StatutoryDocuments.WithLabelValues("efaktur", "failed").Inc()
		return nil, []Notice{failure(ref, "Failed to check existing E-Faktur: "+err.Error())}
	}

	if inv.HasGeneratedEfaktur {
		metrics.StatutoryDocuments.WithLabelValues("efaktur", "skipped").Inc()
		return nil, []Notice{info(ref, "E-Faktur already generated for this invoice")}
	}

	extraction := s.extractor.Extract(ctx, inv, models.TaxRolePPNOut)
	fact, ok := extraction.Fact(models.TaxRolePPNOut)
	if !ok {
		log.Info("no output VAT line, e-faktur skipped")
		metrics.StatutoryDocuments.WithLabelValues("efaktur", "skipped").Inc()
		return nil, nil
	}

	var notices []Notice
	for _, issue := range extraction.Issues {
		notices = append(notices, warning(ref, issue.Message))
	}

	doc := s.buildDocument(ctx, inv, fact)

	nomor, err := s.series.NextFakturNumber(ctx, inv.Company)
	switch {
	case err == nil:
		doc.NomorFaktur = nomor
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrFakturSeriesExhausted):
		notices = append(notices, warning(ref, "No faktur number available: "+err.Error()))
	default:
		log.WithError(err).Warn("failed to take faktur number")
		notices = append(notices, warning(ref, "Failed to take faktur number: "+err.Error()))
	}

	if err := s.efakturs.CreateEfaktur(ctx, doc); err != nil {
		log.WithError(err).Error("failed to create e-faktur")
		metrics.StatutoryDocuments.WithLabelValues("efaktur", "failed").Inc()
		return nil, append(notices, failure(ref, "Failed to create E-Faktur: "+err.Error()))
	}

	if err := s.invoices.MarkEfakturGenerated(ctx, inv.Name); err != nil {
		log.WithError(err).Warn("failed to flag invoice as having an e-faktur")
		notices = append(notices, warning(ref, "E-Faktur created but the invoice flag was not set"))
	}
	inv.HasGeneratedEfaktur = true

	log.WithField("efaktur", doc.Name).Info("e-faktur created")
	metrics.StatutoryDocuments.WithLabelValues("efaktur", "created").Inc()
	return doc, append(notices, info(ref, "E-Faktur "+doc.Name+" created"))
}

func (s *EfakturSynthesizer) buildDocument(ctx context.Context, inv *models.Invoice, fact models.TaxLineFact) *models.EfakturDocument {
	period := models.PeriodOf(inv.PostingDate)
	npwp, name, address := models.PlaceholderNPWP, inv.PartyName, inv.AddressDisplay

	customer, err := s.parties.GetParty(ctx, models.PartyTypeCustomer, inv.Party)
	if err == nil {
		if customer.TaxID != "" {
			npwp = customer.TaxID
		}
		if name == "" {
			name = customer.DisplayName()
		}
		if address == "" {
			address = customer.Address
		}
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.WithError(err).WithField("customer", inv.Party).Warn("failed to load customer, using placeholder NPWP")
	}
	if name == "" {
		name = inv.Party
	}
	if address == "" {
		address = models.DefaultAddress
	}

	doc := &models.EfakturDocument{
		Name:               newDocumentName("EFK", inv.PostingDate),
		Company:            inv.Company,
		KodeJenisTransaksi: kodeJenisTransaksiDefault,
		FgPengganti:        flagNo,
		FgUangMuka:         flagNo,
		MasaPajak:          period.MonthString(),
		TahunPajak:         period.YearString(),
		TanggalFaktur:      inv.PostingDate,
		NPWP:               npwp,
		Nama:               name,
		Alamat:             address,
		ReferenceDoctype:   inv.DocType,
		ReferenceName:      inv.Name,
		Status:             models.DocStatusSubmitted,
		CreatedAt:          time.Now(),
	}

	amounts := make([]decimal.Decimal, len(inv.Items))
	for i, item := range inv.Items {
		amounts[i] = item.BaseAmount
	}
	allocations := AllocateTax(amounts, inv.BaseNetTotal, fact.BaseAmount, fact.TaxAmount)

	for i, item := range inv.Items {
		itemName := item.ItemName
		if itemName == "" {
			itemName = item.ItemCode
		}
		// The faktur line shows the list price and the line discount.
		doc.Items = append(doc.Items, models.EfakturItem{
			Idx:          i + 1,
			KodeBarang:   item.ItemCode,
			NamaBarang:   itemName,
			HargaSatuan:  item.BaseRate.Add(item.DiscountAmount),
			JumlahBarang: item.Qty,
			Diskon:       item.DiscountAmount.Mul(item.Qty),
			TarifPPnBM:   item.LuxuryTaxRate,
			AllocatedDPP: allocations[i].Base,
			AllocatedPPN: allocations[i].Tax,
		})
	}
	doc.CalculateTotals()
	return doc
}
