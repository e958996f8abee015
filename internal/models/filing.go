package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FilingStatus is the outcome classification of a period filing.
type FilingStatus string

const (
	FilingStatusNihil       FilingStatus = "Nihil"
	FilingStatusKurangBayar FilingStatus = "Kurang Bayar"
	FilingStatusLebihBayar  FilingStatus = "Lebih Bayar"
	// FilingStatusBelumLapor is reported for periods without a filing.
	FilingStatusBelumLapor FilingStatus = "Belum Lapor"
)

// ClassifyBalance maps a signed balance to its filing outcome: positive is
// owed to the tax office, negative is overpaid.
func ClassifyBalance(balance decimal.Decimal) FilingStatus {
	switch balance.Sign() {
	case 1:
		return FilingStatusKurangBayar
	case -1:
		return FilingStatusLebihBayar
	default:
		return FilingStatusNihil
	}
}

// FilingState is the lifecycle state of a TaxFilingSummary.
type FilingState string

const (
	FilingStateDraft       FilingState = "Draft"
	FilingStateSubmitted   FilingState = "Submitted"
	FilingStatePaid        FilingState = "Paid"
	FilingStateCompensated FilingState = "Compensated"
	FilingStateCancelled   FilingState = "Cancelled"
)

const (
	AttachmentTandaTerima = "Tanda Terima"

	PaymentStatusPaid          = "Sudah Dibayar"
	AdjustmentStatusKompensasi = "Kompensasi"
)

type TaxFilingSummary struct {
	Name             string                  `db:"name" json:"name"`
	Company          string                  `db:"company" json:"company"`
	FilingType       string                  `db:"filing_type" json:"filing_type"`
	TaxCategory      TaxCategory             `db:"tax_category" json:"tax_category"`
	MasaPajak        int                     `db:"masa_pajak" json:"masa_pajak"`
	TahunPajak       int                     `db:"tahun_pajak" json:"tahun_pajak"`
	PostingDate      time.Time               `db:"posting_date" json:"posting_date"`
	TanggalPelaporan time.Time               `db:"tanggal_pelaporan" json:"tanggal_pelaporan"`
	StatusSPT        FilingStatus            `db:"status_spt" json:"status_spt"`
	State            FilingState             `db:"state" json:"state"`
	TaxBalance       decimal.Decimal         `db:"tax_balance" json:"tax_balance"`
	LedgerBalance    decimal.Decimal         `db:"ledger_balance" json:"ledger_balance"`
	PaymentEntry     *string                 `db:"payment_entry" json:"payment_entry"`
	PaymentStatus    string                  `db:"payment_status" json:"payment_status"`
	PaymentDate      *time.Time              `db:"payment_date" json:"payment_date"`
	AdjustmentEntry  *string                 `db:"adjustment_entry" json:"adjustment_entry"`
	AdjustmentStatus string                  `db:"adjustment_status" json:"adjustment_status"`
	AdjustmentDate   *time.Time              `db:"adjustment_date" json:"adjustment_date"`
	Remarks          string                  `db:"remarks" json:"remarks"`
	SubmittedAt      *time.Time              `db:"submitted_at" json:"submitted_at"`
	CancelledAt      *time.Time              `db:"cancelled_at" json:"cancelled_at"`
	CreatedBy        *int                    `db:"created_by" json:"created_by"`
	CreatedAt        time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time               `db:"updated_at" json:"updated_at"`
	SourceDocuments  []FilingSourceDocument  `db:"-" json:"source_documents"`
	PaymentDocuments []FilingPaymentDocument `db:"-" json:"payment_documents"`
	Attachments      []FilingAttachment      `db:"-" json:"attachments"`
}

// FilingSourceDocument references a document included in the filing. Status
// and Amount are a snapshot refreshed while the filing is a draft and frozen
// at submission; Amount is signed (input tax negative).
type FilingSourceDocument struct {
	ID           int             `db:"id" json:"id"`
	Parent       string          `db:"parent" json:"parent"`
	Idx          int             `db:"idx" json:"idx"`
	DocumentType string          `db:"document_type" json:"document_type"`
	DocumentName string          `db:"document_name" json:"document_name"`
	Status       string          `db:"status" json:"status"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
}

func (d FilingSourceDocument) Ref() DocumentRef {
	return DocumentRef{DocType: d.DocumentType, Name: d.DocumentName}
}

// FilingPaymentDocument is proof of a tax payment (billing code / NTPN).
type FilingPaymentDocument struct {
	ID           int             `db:"id" json:"id"`
	Parent       string          `db:"parent" json:"parent"`
	Idx          int             `db:"idx" json:"idx"`
	DocumentType string          `db:"document_type" json:"document_type"`
	DocumentNo   string          `db:"document_no" json:"document_no"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	PaymentDate  *time.Time      `db:"payment_date" json:"payment_date"`
}

type FilingAttachment struct {
	ID         int       `db:"id" json:"id"`
	Parent     string    `db:"parent" json:"parent"`
	Title      string    `db:"title" json:"title"`
	FileURL    string    `db:"file_url" json:"file_url"`
	UploadedAt time.Time `db:"uploaded_at" json:"uploaded_at"`
}

func (f *TaxFilingSummary) Period() FiscalPeriod {
	return FiscalPeriod{Year: f.TahunPajak, Month: f.MasaPajak}
}

// SnapshotBalance is the signed sum of the source-document snapshots.
func (f *TaxFilingSummary) SnapshotBalance() decimal.Decimal {
	total := decimal.Zero
	for _, doc := range f.SourceDocuments {
		if doc.Status == DocStatusCancelled {
			continue
		}
		total = total.Add(doc.Amount)
	}
	return total
}

func (f *TaxFilingSummary) HasAttachment(title string) bool {
	for _, att := range f.Attachments {
		if att.Title == title && att.FileURL != "" {
			return true
		}
	}
	return false
}

// DocumentSnapshot is the current status and tax amount of a source document.
type DocumentSnapshot struct {
	Status string          `db:"status" json:"status"`
	Amount decimal.Decimal `db:"amount" json:"amount"`
}

type FilingFilter struct {
	Company     string
	TaxCategory string
	Year        int
	State       string
	Page        int
	Limit       int
}

type FilingUpdateRequest struct {
	TanggalPelaporan *time.Time              `json:"tanggal_pelaporan"`
	Remarks          *string                 `json:"remarks"`
	PaymentDocuments []FilingPaymentDocument `json:"payment_documents"`
}

type FilingAttachmentRequest struct {
	Title   string `json:"title"`
	FileURL string `json:"file_url"`
}
