package service

import (
	"context"
	"errors"
	"pajak-web/internal/metrics"
	"pajak-web/internal/models"
	"time"

	"github.com/sirupsen/logrus"
)

var ebupotRoles = []models.TaxRole{models.TaxRolePPh23, models.TaxRolePPh26}

// EbupotSynthesizer builds withholding slips for a submitted purchase
// invoice, one per PPh article withheld on it.
type EbupotSynthesizer struct {
	companies CompanyStore
	parties   PartyStore
	ebupots   EbupotStore
	extractor *TaxExtractor
	logger    *logrus.Logger
}

func NewEbupotSynthesizer(
	companies CompanyStore,
	parties PartyStore,
	ebupots EbupotStore,
	extractor *TaxExtractor,
	logger *logrus.Logger,
) *EbupotSynthesizer {
	return &EbupotSynthesizer{
		companies: companies,
		parties:   parties,
		ebupots:   ebupots,
		extractor: extractor,
		logger:    logger,
	}
}

// Synthesize returns the created (or reactivated) documents. Any existing
// slip for the invoice stops new creation.
func (s *EbupotSynthesizer) Synthesize(ctx context.Context, inv *models.Invoice) ([]models.EbupotDocument, []Notice) {
	ref := inv.Ref()
	log := s.logger.WithFields(logrus.Fields{"operation": "ebupot.synthesize", "doctype": ref.DocType, "docname": ref.Name})

	existing, err := s.ebupots.ListEbupotByReference(ctx, ref.DocType, ref.Name)
	if err != nil {
		log.WithError(err).Error("failed to check existing e-bupot")
		metrics.StatutoryDocuments.WithLabelValues("ebupot", "failed").Inc()
		return nil, []Notice{failure(ref, "Failed to check existing E-Bupot: "+err.Error())}
	}
	if len(existing) > 0 {
		return s.reactivate(ctx, ref, existing)
	}

	extraction := s.extractor.Extract(ctx, inv, ebupotRoles...)
	if extraction.Empty() {
		log.Info("no withholding line, e-bupot skipped")
		metrics.StatutoryDocuments.WithLabelValues("ebupot", "skipped").Inc()
		return nil, nil
	}

	var notices []Notice
	for _, issue := range extraction.Issues {
		notices = append(notices, warning(ref, issue.Message))
	}

	cutter := s.cutter(ctx, inv.Company)
	supplier := s.supplier(ctx, inv)

	var created []models.EbupotDocument
	for _, role := range ebupotRoles {
		fact, ok := extraction.Fact(role)
		if !ok {
			continue
		}

		doc := buildEbupot(inv, fact, cutter, supplier)
		if err := s.ebupots.CreateEbupot(ctx, doc); err != nil {
			log.WithError(err).WithField("role", role).Error("failed to create e-bupot")
			metrics.StatutoryDocuments.WithLabelValues("ebupot", "failed").Inc()
			notices = append(notices, failure(ref, "Failed to create E-Bupot "+string(models.CategoryForRole(role))+": "+err.Error()))
			continue
		}

		log.WithFields(logrus.Fields{"ebupot": doc.Name, "role": role}).Info("e-bupot created")
		metrics.StatutoryDocuments.WithLabelValues("ebupot", "created").Inc()
		notices = append(notices, info(ref, "E-Bupot "+doc.Name+" created"))
		created = append(created, *doc)
	}
	return created, notices
}

func (s *EbupotSynthesizer) reactivate(ctx context.Context, ref models.DocumentRef, existing []models.EbupotDocument) ([]models.EbupotDocument, []Notice) {
	var reactivated []models.EbupotDocument
	var notices []Notice
	for _, doc := range existing {
		if doc.Status != models.DocStatusCancelled {
			continue
		}
		if err := s.ebupots.UpdateEbupotStatus(ctx, doc.Name, models.DocStatusSubmitted); err != nil {
			s.logger.WithError(err).WithField("ebupot", doc.Name).Error("failed to reactivate e-bupot")
			notices = append(notices, failure(ref, "Failed to reactivate E-Bupot "+doc.Name+": "+err.Error()))
			continue
		}
		doc.Status = models.DocStatusSubmitted
		reactivated = append(reactivated, doc)
		metrics.StatutoryDocuments.WithLabelValues("ebupot", "reactivated").Inc()
		notices = append(notices, info(ref, "E-Bupot "+doc.Name+" reactivated"))
	}
	if len(reactivated) == 0 && len(notices) == 0 {
		metrics.StatutoryDocuments.WithLabelValues("ebupot", "skipped").Inc()
		notices = append(notices, info(ref, "E-Bupot already exists for this invoice"))
	}
	return reactivated, notices
}

type withholdingParty struct {
	npwp    string
	taxID   string
	name    string
	address string
	country string
	id      string
}

func (s *EbupotSynthesizer) cutter(ctx context.Context, company string) withholdingParty {
	p := withholdingParty{npwp: models.PlaceholderNPWP, name: company, address: models.DefaultAddress}
	c, err := s.companies.GetCompany(ctx, company)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.WithError(err).WithField("company", company).Warn("failed to load company, using placeholder NPWP")
		}
		return p
	}
	if c.TaxID != "" {
		p.npwp = c.TaxID
	}
	if c.Address != "" {
		p.address = c.Address
	}
	return p
}

func (s *EbupotSynthesizer) supplier(ctx context.Context, inv *models.Invoice) withholdingParty {
	p := withholdingParty{npwp: models.PlaceholderNPWP, name: inv.PartyName, address: inv.AddressDisplay, id: inv.Party}
	supplier, err := s.parties.GetParty(ctx, models.PartyTypeSupplier, inv.Party)
	if err == nil {
		if supplier.TaxID != "" {
			p.npwp = supplier.TaxID
			p.taxID = supplier.TaxID
		}
		if p.name == "" {
			p.name = supplier.DisplayName()
		}
		if p.address == "" {
			p.address = supplier.Address
		}
		p.country = supplier.Country
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.WithError(err).WithField("supplier", inv.Party).Warn("failed to load supplier, using placeholder NPWP")
	}
	if p.name == "" {
		p.name = inv.Party
	}
	if p.address == "" {
		p.address = models.DefaultAddress
	}
	return p
}

func buildEbupot(inv *models.Invoice, fact models.TaxLineFact, cutter, supplier withholdingParty) *models.EbupotDocument {
	period := models.PeriodOf(inv.PostingDate)
	category := models.CategoryForRole(fact.Role)

	kodeObjek := models.KodeObjekPajakPPh23
	if fact.Role == models.TaxRolePPh26 {
		kodeObjek = models.KodeObjekPajakPPh26
	}

	doc := &models.EbupotDocument{
		Name:             newDocumentName("EBP", inv.PostingDate),
		Company:          inv.Company,
		JenisPajak:       string(category),
		JenisDaftar:      models.JenisDaftarNormal,
		MasaPajak:        period.MonthString(),
		TahunPajak:       period.YearString(),
		TandatanganDate:  inv.PostingDate,
		NPWPPemotong:     cutter.npwp,
		NamaPemotong:     cutter.name,
		AlamatPemotong:   cutter.address,
		Supplier:         supplier.id,
		NPWPTerpotong:    supplier.npwp,
		NamaTerpotong:    supplier.name,
		AlamatTerpotong:  supplier.address,
		KodeObjekPajak:   kodeObjek,
		Tarif:            fact.Rate,
		ReferenceDoctype: inv.DocType,
		ReferenceName:    inv.Name,
		Status:           models.DocStatusSubmitted,
		CreatedAt:        time.Now(),
		Items: []models.EbupotItem{{
			Idx:              1,
			KodeObjekPajak:   kodeObjek,
			JenisPenghasilan: incomeLabel(inv.Items, category),
			DPP:              fact.BaseAmount,
			Tarif:            fact.Rate,
		}},
	}
	if fact.Role == models.TaxRolePPh26 {
		// Foreign recipients carry their own TIN, never the placeholder.
		doc.TIN = supplier.taxID
		doc.NegaraDomisili = supplier.country
	}
	doc.CalculateTotals()
	return doc
}

// incomeLabel describes the income: the item itself for a single line,
// otherwise "Jasa" or "Barang" with the article.
func incomeLabel(items []models.InvoiceItem, category models.TaxCategory) string {
	if len(items) == 1 {
		label := items[0].Description
		if label == "" {
			label = items[0].ItemName
		}
		if label != "" {
			return truncate(label, 100)
		}
	}

	kind := "Barang"
	for _, item := range items {
		if item.IsService {
			kind = "Jasa"
			break
		}
	}
	return kind + " (" + string(category) + ")"
}
