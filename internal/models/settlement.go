package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SettlementStatusSuccess = "success"
	SettlementStatusError   = "error"

	AdjustmentTypeAddition  = "Addition"
	AdjustmentTypeReduction = "Reduction"

	JenisPenyesuaianKompensasi = "Kompensasi Lebih Bayar"
	KompensasiMasaBerikutnya   = "Dikompensasikan ke Masa Pajak Berikutnya"

	ModeOfPaymentBankDraft = "Bank Draft"
)

// TaxAdjustmentEntry carries an overpaid balance forward as compensation.
type TaxAdjustmentEntry struct {
	Name                string          `db:"name" json:"name"`
	Company             string          `db:"company" json:"company"`
	PostingDate         time.Time       `db:"posting_date" json:"posting_date"`
	JenisPajak          string          `db:"jenis_pajak" json:"jenis_pajak"`
	JenisPenyesuaian    string          `db:"jenis_penyesuaian" json:"jenis_penyesuaian"`
	AdjustmentType      string          `db:"adjustment_type" json:"adjustment_type"`
	AdjustmentReason    string          `db:"adjustment_reason" json:"adjustment_reason"`
	MasaPajak           int             `db:"masa_pajak" json:"masa_pajak"`
	TahunPajak          int             `db:"tahun_pajak" json:"tahun_pajak"`
	ReferenceDoctype    string          `db:"reference_doctype" json:"reference_doctype"`
	ReferenceName       string          `db:"reference_name" json:"reference_name"`
	OriginalTaxBase     decimal.Decimal `db:"original_tax_base" json:"original_tax_base"`
	OriginalTaxAmount   decimal.Decimal `db:"original_tax_amount" json:"original_tax_amount"`
	AdjustmentTaxBase   decimal.Decimal `db:"adjustment_tax_base" json:"adjustment_tax_base"`
	AdjustmentTaxAmount decimal.Decimal `db:"adjustment_tax_amount" json:"adjustment_tax_amount"`
	FinalTaxBase        decimal.Decimal `db:"final_tax_base" json:"final_tax_base"`
	FinalTaxAmount      decimal.Decimal `db:"final_tax_amount" json:"final_tax_amount"`
	TaxDifference       decimal.Decimal `db:"tax_difference" json:"tax_difference"`
	BaseRate            decimal.Decimal `db:"base_rate" json:"base_rate"`
	BaseRateAssumed     bool            `db:"base_rate_assumed" json:"base_rate_assumed"`
	AccountAdjustment   string          `db:"account_adjustment" json:"account_adjustment"`
	AccountTax          string          `db:"account_tax" json:"account_tax"`
	NominalKompensasi   decimal.Decimal `db:"nominal_kompensasi" json:"nominal_kompensasi"`
	KompensasiType      string          `db:"kompensasi_type" json:"kompensasi_type"`
	Remarks             string          `db:"remarks" json:"remarks"`
	Status              string          `db:"status" json:"status"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
}

// CalculateFinalValues applies the adjustment to the original values.
func (a *TaxAdjustmentEntry) CalculateFinalValues() {
	if a.AdjustmentType == AdjustmentTypeReduction {
		a.FinalTaxBase = a.OriginalTaxBase.Sub(a.AdjustmentTaxBase)
		a.FinalTaxAmount = a.OriginalTaxAmount.Sub(a.AdjustmentTaxAmount)
	} else {
		a.FinalTaxBase = a.OriginalTaxBase.Add(a.AdjustmentTaxBase)
		a.FinalTaxAmount = a.OriginalTaxAmount.Add(a.AdjustmentTaxAmount)
	}
	a.TaxDifference = a.FinalTaxAmount.Sub(a.OriginalTaxAmount)
}

// SettlementResult is returned by the payment and adjustment generators.
type SettlementResult struct {
	Status            string `json:"status"`
	Message           string `json:"message"`
	PaymentEntryID    string `json:"payment_entry_id,omitempty"`
	AdjustmentEntryID string `json:"adjustment_entry_id,omitempty"`
	// Flags raised while generating, e.g. an assumed base rate.
	Warnings []string `json:"warnings,omitempty"`
}

func (r SettlementResult) OK() bool {
	return r.Status == SettlementStatusSuccess
}
