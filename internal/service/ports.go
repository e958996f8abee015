package service

import (
	"context"
	"pajak-web/internal/models"
	"time"

	"github.com/shopspring/decimal"
)

// Storage ports onto the host ledger mirror and the tax records. The sqlx
// repositories implement them; lookups that find nothing return an error
// wrapping models.ErrNotFound.

type AccountStore interface {
	GetAccount(ctx context.Context, name string) (*models.Account, error)
	// ListAccounts returns non-group accounts of the given types, ordered by name.
	ListAccounts(ctx context.Context, company string, accountTypes []string) ([]models.Account, error)
}

type BindingStore interface {
	GetBinding(ctx context.Context, company string, role models.TaxRole) (*models.AccountBinding, error)
	ListBindings(ctx context.Context, company string) ([]models.AccountBinding, error)
	SaveBinding(ctx context.Context, binding *models.AccountBinding) error
	DeleteBinding(ctx context.Context, company string, role models.TaxRole) error
}

type CompanyStore interface {
	GetCompany(ctx context.Context, name string) (*models.Company, error)
}

type PartyStore interface {
	GetParty(ctx context.Context, partyType, name string) (*models.Party, error)
	// FindSupplierByKeywords returns the first supplier whose name contains
	// any keyword, case-insensitively.
	FindSupplierByKeywords(ctx context.Context, keywords []string) (*models.Party, error)
	CreateParty(ctx context.Context, party *models.Party) error
}

type InvoiceStore interface {
	GetInvoice(ctx context.Context, doctype, name string) (*models.Invoice, error)
	MarkEfakturGenerated(ctx context.Context, name string) error
	// ListInvoiceTaxTotals sums, per submitted invoice in the range, the tax
	// lines whose account name contains any of the patterns.
	ListInvoiceTaxTotals(ctx context.Context, doctype, company string, from, to time.Time, patterns []string) ([]models.InvoiceTaxTotal, error)
}

type SalarySlipStore interface {
	ListTaxedSalarySlips(ctx context.Context, company string, from, to time.Time) ([]models.SalarySlip, error)
}

type GLStore interface {
	GetGLEntry(ctx context.Context, id int64) (*models.GLEntry, error)
	TagGLEntry(ctx context.Context, id int64, role models.TaxRole, sourceType, source string) error
	// SumTagged returns credit (PPN_OUT) or debit (PPN_IN) totals of tagged,
	// uncancelled postings and how many postings contributed.
	SumTagged(ctx context.Context, company string, role models.TaxRole, from, to time.Time) (decimal.Decimal, int, error)
}

type PaymentStore interface {
	GetPaymentEntry(ctx context.Context, name string) (*models.PaymentEntry, error)
	CreatePaymentEntry(ctx context.Context, payment *models.PaymentEntry) error
	SetDeductionEbupot(ctx context.Context, deductionID int, ebupot *string) error
}

type FakturSeriesStore interface {
	// NextFakturNumber takes the next number of the company's active series.
	NextFakturNumber(ctx context.Context, company string) (string, error)
}

type EfakturStore interface {
	GetEfaktur(ctx context.Context, name string) (*models.EfakturDocument, error)
	FindEfakturByReference(ctx context.Context, doctype, name string) (*models.EfakturDocument, error)
	CreateEfaktur(ctx context.Context, doc *models.EfakturDocument) error
	UpdateEfakturStatus(ctx context.Context, name, status string) error
	ListEfakturByPeriod(ctx context.Context, company string, from, to time.Time) ([]models.EfakturDocument, error)
	// ListEfakturReferenceNames returns every source name already covered by
	// a non-cancelled E-Faktur of the company.
	ListEfakturReferenceNames(ctx context.Context, company string) ([]string, error)
}

type EbupotStore interface {
	GetEbupot(ctx context.Context, name string) (*models.EbupotDocument, error)
	ListEbupotByReference(ctx context.Context, doctype, name string) ([]models.EbupotDocument, error)
	CreateEbupot(ctx context.Context, doc *models.EbupotDocument) error
	UpdateEbupotStatus(ctx context.Context, name, status string) error
	SetEbupotPayment(ctx context.Context, name string, paymentEntry *string, paymentDate *time.Time, status string) error
	ListEbupotByPeriod(ctx context.Context, company, jenisPajak string, from, to time.Time) ([]models.EbupotDocument, error)
	FindEbupots(ctx context.Context, filter models.EbupotFilter) ([]models.EbupotDocument, error)
}

type FilingStore interface {
	GetFiling(ctx context.Context, name string) (*models.TaxFilingSummary, error)
	// FindActiveFiling returns the non-cancelled filing of the period.
	FindActiveFiling(ctx context.Context, company string, category models.TaxCategory, period models.FiscalPeriod) (*models.TaxFilingSummary, error)
	ListFilings(ctx context.Context, filter models.FilingFilter) ([]models.TaxFilingSummary, int, error)
	CreateFiling(ctx context.Context, filing *models.TaxFilingSummary) error
	// UpdateFiling saves the header and replaces the child tables.
	UpdateFiling(ctx context.Context, filing *models.TaxFilingSummary) error
}

type SPTSummaryStore interface {
	GetSPTSummary(ctx context.Context, name string) (*models.SPTSummary, error)
	// FindActiveSPTSummary returns the non-cancelled summary of the period.
	FindActiveSPTSummary(ctx context.Context, company string, jenis models.TaxCategory, period models.FiscalPeriod) (*models.SPTSummary, error)
	ListSPTSummaries(ctx context.Context, filter models.SPTSummaryFilter) ([]models.SPTSummary, error)
	CreateSPTSummary(ctx context.Context, summary *models.SPTSummary) error
	UpdateSPTSummary(ctx context.Context, summary *models.SPTSummary) error
}

type PenyelesaianStore interface {
	GetPenyelesaian(ctx context.Context, name string) (*models.PenyelesaianPajak, error)
	ListPenyelesaian(ctx context.Context, filter models.PenyelesaianFilter) ([]models.PenyelesaianPajak, error)
	CreatePenyelesaian(ctx context.Context, record *models.PenyelesaianPajak) error
	UpdatePenyelesaian(ctx context.Context, record *models.PenyelesaianPajak) error
}

type AdjustmentStore interface {
	CreateAdjustment(ctx context.Context, entry *models.TaxAdjustmentEntry) error
}

// DocumentStatusStore reads and stamps any document a filing can reference.
type DocumentStatusStore interface {
	GetSnapshot(ctx context.Context, ref models.DocumentRef) (*models.DocumentSnapshot, error)
	SetFilingStamp(ctx context.Context, ref models.DocumentRef, status string, filingRef *string, filingDate *time.Time) error
}

// TxManager runs fn in a database transaction carried by the context.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}
