package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Penyelesaian Pajak states. A submitted record is awaiting payment at the
// bank; it becomes Paid once the state receipt number (NTPN) is recorded.
const (
	PenyelesaianDraft     = "Draft"
	PenyelesaianSubmitted = "Submitted"
	PenyelesaianPaid      = "Paid"
	PenyelesaianCancelled = "Cancelled"

	// Status given to the referenced return while its payment is open.
	DocStatusPaymentInProgress = "Payment In Progress"

	PaymentDocumentNTPN = "NTPN"
)

// PenyelesaianPajak records the settlement of a period's tax at the bank,
// usually against a submitted filing or SPT summary.
type PenyelesaianPajak struct {
	Name           string          `db:"name" json:"name"`
	Company        string          `db:"company" json:"company"`
	PostingDate    time.Time       `db:"posting_date" json:"posting_date"`
	DueDate        time.Time       `db:"due_date" json:"due_date"`
	JenisPajak     TaxCategory     `db:"jenis_pajak" json:"jenis_pajak"`
	MasaPajak      int             `db:"masa_pajak" json:"masa_pajak"`
	TahunPajak     int             `db:"tahun_pajak" json:"tahun_pajak"`
	TaxBaseAmount  decimal.Decimal `db:"tax_base_amount" json:"tax_base_amount"`
	TaxRate        decimal.Decimal `db:"tax_rate" json:"tax_rate"`
	TaxAmount      decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	PaymentDueDate *time.Time      `db:"payment_due_date" json:"payment_due_date"`
	ReferenceType  string          `db:"reference_type" json:"reference_type"`
	ReferenceName  string          `db:"reference_name" json:"reference_name"`
	NTPN           string          `db:"ntpn" json:"ntpn"`
	PaidAt         *time.Time      `db:"paid_at" json:"paid_at"`
	Status         string          `db:"status" json:"status"`
	Remarks        string          `db:"remarks" json:"remarks"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

func (p *PenyelesaianPajak) Period() FiscalPeriod {
	return FiscalPeriod{Year: p.TahunPajak, Month: p.MasaPajak}
}

func (p *PenyelesaianPajak) HasReference() bool {
	return p.ReferenceType != "" && p.ReferenceName != ""
}

// CalculateTaxAmount sets TaxAmount from the base and percentage rate.
func (p *PenyelesaianPajak) CalculateTaxAmount() {
	p.TaxAmount = p.TaxBaseAmount.Mul(p.TaxRate).Div(hundred).Round(2)
}

type PenyelesaianRequest struct {
	Company        string           `json:"company"`
	PostingDate    *time.Time       `json:"posting_date"`
	DueDate        *time.Time       `json:"due_date"`
	JenisPajak     string           `json:"jenis_pajak"`
	MasaPajak      int              `json:"masa_pajak"`
	TahunPajak     int              `json:"tahun_pajak"`
	TaxBaseAmount  *decimal.Decimal `json:"tax_base_amount"`
	TaxRate        *decimal.Decimal `json:"tax_rate"`
	PaymentDueDate *time.Time       `json:"payment_due_date"`
	ReferenceType  string           `json:"reference_type"`
	ReferenceName  string           `json:"reference_name"`
	Remarks        string           `json:"remarks"`
}

type PenyelesaianFilter struct {
	Company string
	Status  string
	Year    int
}
