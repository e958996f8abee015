package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice mirrors a submitted sales or purchase invoice of the host ledger.
type Invoice struct {
	Name                string          `db:"name" json:"name"`
	DocType             string          `db:"doctype" json:"doctype"`
	Company             string          `db:"company" json:"company"`
	PostingDate         time.Time       `db:"posting_date" json:"posting_date"`
	Party               string          `db:"party" json:"party"`
	PartyName           string          `db:"party_name" json:"party_name"`
	AddressDisplay      string          `db:"address_display" json:"address_display"`
	BaseNetTotal        decimal.Decimal `db:"base_net_total" json:"base_net_total"`
	BaseGrandTotal      decimal.Decimal `db:"base_grand_total" json:"base_grand_total"`
	Status              string          `db:"status" json:"status"`
	HasGeneratedEfaktur bool            `db:"has_generated_efaktur" json:"has_generated_efaktur"`
	FilingReference     *string         `db:"filing_reference" json:"filing_reference"`
	FilingDate          *time.Time      `db:"filing_date" json:"filing_date"`
	Items               []InvoiceItem   `db:"-" json:"items"`
	Taxes               []TaxLine       `db:"-" json:"taxes"`
}

// InvoiceItem is one invoice line. BaseRate is net of the per-unit
// DiscountAmount, so BaseAmount is Qty x BaseRate.
type InvoiceItem struct {
	ID             int             `db:"id" json:"id"`
	Invoice        string          `db:"invoice" json:"invoice"`
	Idx            int             `db:"idx" json:"idx"`
	ItemCode       string          `db:"item_code" json:"item_code"`
	ItemName       string          `db:"item_name" json:"item_name"`
	Description    string          `db:"description" json:"description"`
	Qty            decimal.Decimal `db:"qty" json:"qty"`
	BaseRate       decimal.Decimal `db:"base_rate" json:"base_rate"`
	DiscountAmount decimal.Decimal `db:"discount_amount" json:"discount_amount"`
	BaseAmount     decimal.Decimal `db:"base_amount" json:"base_amount"`
	IsService      bool            `db:"is_service" json:"is_service"`
	LuxuryTaxRate  decimal.Decimal `db:"luxury_tax_rate" json:"luxury_tax_rate"`
}

// TaxLine is one row of an invoice's tax table. TaxAmount is signed:
// withholding deductions are negative.
type TaxLine struct {
	ID          int             `db:"id" json:"id"`
	Invoice     string          `db:"invoice" json:"invoice"`
	Idx         int             `db:"idx" json:"idx"`
	AccountHead string          `db:"account_head" json:"account_head"`
	Description string          `db:"description" json:"description"`
	TaxAmount   decimal.Decimal `db:"tax_amount" json:"tax_amount"`
}

func (i *Invoice) Ref() DocumentRef {
	return DocumentRef{DocType: i.DocType, Name: i.Name}
}

func (i *Invoice) OwnerCompany() string {
	return i.Company
}

func (i *Invoice) NetBase() decimal.Decimal {
	return i.BaseNetTotal
}

func (i *Invoice) TaxLines() []TaxLine {
	return i.Taxes
}

// InvoiceTaxTotal is an invoice with the sum of its tax lines whose account
// matched a pattern set.
type InvoiceTaxTotal struct {
	Name         string          `db:"name" json:"name"`
	DocType      string          `db:"doctype" json:"doctype"`
	PostingDate  time.Time       `db:"posting_date" json:"posting_date"`
	Party        string          `db:"party" json:"party"`
	PartyName    string          `db:"party_name" json:"party_name"`
	BaseNetTotal decimal.Decimal `db:"base_net_total" json:"base_net_total"`
	TaxAmount    decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	Status       string          `db:"status" json:"status"`
}

type SalarySlip struct {
	Name             string          `db:"name" json:"name"`
	Company          string          `db:"company" json:"company"`
	Employee         string          `db:"employee" json:"employee"`
	EmployeeName     string          `db:"employee_name" json:"employee_name"`
	PostingDate      time.Time       `db:"posting_date" json:"posting_date"`
	GrossPay         decimal.Decimal `db:"gross_pay" json:"gross_pay"`
	TotalTaxDeducted decimal.Decimal `db:"total_tax_deducted" json:"total_tax_deducted"`
	TaxAccount       string          `db:"tax_account" json:"tax_account"`
	Status           string          `db:"status" json:"status"`
	FilingReference  *string         `db:"filing_reference" json:"filing_reference"`
	FilingDate       *time.Time      `db:"filing_date" json:"filing_date"`
}

func (s *SalarySlip) Ref() DocumentRef {
	return DocumentRef{DocType: DocTypeSalarySlip, Name: s.Name}
}

func (s *SalarySlip) OwnerCompany() string {
	return s.Company
}

func (s *SalarySlip) NetBase() decimal.Decimal {
	return s.GrossPay
}

// TaxLines presents the slip's income tax deduction as a withholding line.
func (s *SalarySlip) TaxLines() []TaxLine {
	if !s.TotalTaxDeducted.IsPositive() {
		return nil
	}
	return []TaxLine{{
		Idx:         1,
		AccountHead: s.TaxAccount,
		Description: "PPh 21",
		TaxAmount:   s.TotalTaxDeducted.Neg(),
	}}
}

// GLEntry is a general-ledger posting. TaxType carries the tax tag.
type GLEntry struct {
	ID            int64           `db:"id" json:"id"`
	Company       string          `db:"company" json:"company"`
	PostingDate   time.Time       `db:"posting_date" json:"posting_date"`
	Account       string          `db:"account" json:"account"`
	Debit         decimal.Decimal `db:"debit" json:"debit"`
	Credit        decimal.Decimal `db:"credit" json:"credit"`
	VoucherType   string          `db:"voucher_type" json:"voucher_type"`
	VoucherNo     string          `db:"voucher_no" json:"voucher_no"`
	TaxType       *string         `db:"tax_type" json:"tax_type"`
	TaxSourceType *string         `db:"tax_source_type" json:"tax_source_type"`
	TaxSource     *string         `db:"tax_source" json:"tax_source"`
	IsCancelled   bool            `db:"is_cancelled" json:"is_cancelled"`
}

const (
	PaymentTypePay     = "Pay"
	PaymentTypeReceive = "Receive"
)

type PaymentEntry struct {
	Name               string             `db:"name" json:"name"`
	PaymentType        string             `db:"payment_type" json:"payment_type"`
	Company            string             `db:"company" json:"company"`
	PostingDate        time.Time          `db:"posting_date" json:"posting_date"`
	PartyType          string             `db:"party_type" json:"party_type"`
	Party              string             `db:"party" json:"party"`
	PaidFrom           string             `db:"paid_from" json:"paid_from"`
	PaidTo             string             `db:"paid_to" json:"paid_to"`
	PaidAmount         decimal.Decimal    `db:"paid_amount" json:"paid_amount"`
	ReceivedAmount     decimal.Decimal    `db:"received_amount" json:"received_amount"`
	ModeOfPayment      string             `db:"mode_of_payment" json:"mode_of_payment"`
	ReferenceNo        string             `db:"reference_no" json:"reference_no"`
	ReferenceDate      time.Time          `db:"reference_date" json:"reference_date"`
	Remarks            string             `db:"remarks" json:"remarks"`
	TaxFilingReference *string            `db:"tax_filing_reference" json:"tax_filing_reference"`
	TaxFilingType      *string            `db:"tax_filing_type" json:"tax_filing_type"`
	Status             string             `db:"status" json:"status"`
	References         []PaymentReference `db:"-" json:"references"`
	Deductions         []PaymentDeduction `db:"-" json:"deductions"`
}

type PaymentReference struct {
	ID               int    `db:"id" json:"id"`
	PaymentEntry     string `db:"payment_entry" json:"payment_entry"`
	ReferenceDoctype string `db:"reference_doctype" json:"reference_doctype"`
	ReferenceName    string `db:"reference_name" json:"reference_name"`
}

type PaymentDeduction struct {
	ID             int             `db:"id" json:"id"`
	PaymentEntry   string          `db:"payment_entry" json:"payment_entry"`
	Account        string          `db:"account" json:"account"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	EbupotDocument *string         `db:"ebupot_document" json:"ebupot_document"`
}

const (
	EventValidate = "validate"
	EventSubmit   = "submit"
	EventCancel   = "cancel"
	EventInsert   = "insert"
)

// LedgerEvent is a lifecycle notification from the host ledger.
type LedgerEvent struct {
	DocType string    `json:"doctype"`
	DocName string    `json:"docname"`
	Event   string    `json:"event"`
	Company string    `json:"company,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}
