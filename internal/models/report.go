package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxSummary is the period position returned by the reporting operations.
// Which amount fields are populated depends on the category.
type TaxSummary struct {
	Status         FilingStatus     `json:"status"`
	TaxBalance     decimal.Decimal  `json:"tax_balance"`
	PPNOut         *decimal.Decimal `json:"ppn_out,omitempty"`
	PPNIn          *decimal.Decimal `json:"ppn_in,omitempty"`
	IncomeAmount   *decimal.Decimal `json:"income_amount,omitempty"`
	TaxAmount      *decimal.Decimal `json:"tax_amount,omitempty"`
	DocumentCount  int              `json:"document_count"`
	PaymentDueDate time.Time        `json:"payment_due_date"`
	FilingID       string           `json:"filing_id,omitempty"`
	FilingState    FilingState      `json:"filing_state,omitempty"`
	PaymentID      string           `json:"payment_id,omitempty"`
	AdjustmentID   string           `json:"adjustment_id,omitempty"`
	Error          string           `json:"error,omitempty"`
}

// TaxReportDocument is one document contributing to a period position.
// SignedAmount is positive for tax owed, negative for creditable input tax.
type TaxReportDocument struct {
	DocType      string          `json:"doctype"`
	DocName      string          `json:"docname"`
	PostingDate  time.Time       `json:"posting_date"`
	Party        string          `json:"party"`
	BaseAmount   decimal.Decimal `json:"base_amount"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	SignedAmount decimal.Decimal `json:"signed_amount"`
	Status       string          `json:"status"`
}

type TaxReportData struct {
	Company   string              `json:"company"`
	Category  TaxCategory         `json:"tax_category"`
	Period    FiscalPeriod        `json:"period"`
	Summary   TaxSummary          `json:"summary"`
	Documents []TaxReportDocument `json:"documents"`
}

const (
	GenerateStatusExists  = "exists"
	GenerateStatusSuccess = "success"
	GenerateStatusError   = "error"
)

type GenerateFilingRequest struct {
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	TaxCategory string `json:"tax_category"`
	Company     string `json:"company"`
}

type GenerateFilingResult struct {
	Status   string `json:"status"`
	FilingID string `json:"filing_id,omitempty"`
	Message  string `json:"message,omitempty"`
}
