package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TaxRole identifies a statutory tax and its direction.
type TaxRole string

const (
	TaxRolePPNOut TaxRole = "PPN_OUT"
	TaxRolePPNIn  TaxRole = "PPN_IN"
	TaxRolePPh21  TaxRole = "PPh21"
	TaxRolePPh23  TaxRole = "PPh23"
	TaxRolePPh26  TaxRole = "PPh26"
)

func AllTaxRoles() []TaxRole {
	return []TaxRole{TaxRolePPNOut, TaxRolePPNIn, TaxRolePPh21, TaxRolePPh23, TaxRolePPh26}
}

func ParseTaxRole(s string) (TaxRole, error) {
	for _, role := range AllTaxRoles() {
		if strings.EqualFold(string(role), strings.TrimSpace(s)) {
			return role, nil
		}
	}
	return "", fmt.Errorf("unknown tax role %q", s)
}

// IsWithholding reports whether lines of this role are deductions (negative
// amounts on the source transaction).
func (r TaxRole) IsWithholding() bool {
	return r == TaxRolePPh21 || r == TaxRolePPh23 || r == TaxRolePPh26
}

// Article returns the PPh article number ("21", "23", "26") or "" for PPN.
func (r TaxRole) Article() string {
	if r.IsWithholding() {
		return strings.TrimPrefix(string(r), "PPh")
	}
	return ""
}

// TaxCategory groups roles into one periodic filing.
type TaxCategory string

const (
	TaxCategoryPPN   TaxCategory = "PPN"
	TaxCategoryPPh21 TaxCategory = "PPh 21"
	TaxCategoryPPh23 TaxCategory = "PPh 23"
	TaxCategoryPPh26 TaxCategory = "PPh 26"
)

func AllTaxCategories() []TaxCategory {
	return []TaxCategory{TaxCategoryPPN, TaxCategoryPPh21, TaxCategoryPPh23, TaxCategoryPPh26}
}

// ParseTaxCategory accepts "PPN", "PPh 23", "PPh23" and "pph_23" style input.
func ParseTaxCategory(s string) (TaxCategory, error) {
	normalized := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s))
	for _, c := range AllTaxCategories() {
		if strings.ToLower(strings.ReplaceAll(string(c), " ", "")) == normalized {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown tax category %q", s)
}

// FilingType is the form name used for the period filing ("SPT Masa PPN").
func (c TaxCategory) FilingType() string {
	return "SPT Masa " + string(c)
}

// Code is the compact category code stored on adjustment entries.
func (c TaxCategory) Code() string {
	return strings.ReplaceAll(string(c), " ", "")
}

// LiabilityRole is the role whose account receives a settlement payment.
func (c TaxCategory) LiabilityRole() TaxRole {
	switch c {
	case TaxCategoryPPh21:
		return TaxRolePPh21
	case TaxCategoryPPh23:
		return TaxRolePPh23
	case TaxCategoryPPh26:
		return TaxRolePPh26
	default:
		return TaxRolePPNOut
	}
}

// PaymentDueDays is the number of days after the period start by which the
// balance has to be settled.
func (c TaxCategory) PaymentDueDays() int {
	if c == TaxCategoryPPN {
		return 60
	}
	return 40
}

// TaxCategoryFromFilingType maps "SPT Masa PPh 23" back to its category,
// defaulting to PPN.
func TaxCategoryFromFilingType(filingType string) TaxCategory {
	if c, err := ParseTaxCategory(strings.TrimPrefix(filingType, "SPT Masa ")); err == nil {
		return c
	}
	return TaxCategoryPPN
}

// CategoryForRole returns the filing group a role is reported under.
func CategoryForRole(role TaxRole) TaxCategory {
	switch role {
	case TaxRolePPh21:
		return TaxCategoryPPh21
	case TaxRolePPh23:
		return TaxCategoryPPh23
	case TaxRolePPh26:
		return TaxCategoryPPh26
	default:
		return TaxCategoryPPN
	}
}

// PPNRatePercent is the statutory VAT rate. It changes only by regulation.
var PPNRatePercent = decimal.NewFromInt(11)

const (
	PlaceholderNPWP = "000000000000000"
	DefaultAddress  = "Indonesia"
)

var ErrInvalidPeriod = errors.New("invalid tax period")

// FiscalPeriod is a tax month (masa pajak) within a tax year.
type FiscalPeriod struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func NewFiscalPeriod(year, month int) (FiscalPeriod, error) {
	if year < 2000 || year > 2099 {
		return FiscalPeriod{}, fmt.Errorf("%w: year %d must be between 2000 and 2099", ErrInvalidPeriod, year)
	}
	if month < 1 || month > 12 {
		return FiscalPeriod{}, fmt.Errorf("%w: month %d must be between 1 and 12", ErrInvalidPeriod, month)
	}
	return FiscalPeriod{Year: year, Month: month}, nil
}

func PeriodOf(t time.Time) FiscalPeriod {
	return FiscalPeriod{Year: t.Year(), Month: int(t.Month())}
}

func (p FiscalPeriod) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.Local)
}

// End is the last calendar day of the period.
func (p FiscalPeriod) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

func (p FiscalPeriod) Contains(t time.Time) bool {
	return t.Year() == p.Year && int(t.Month()) == p.Month
}

func (p FiscalPeriod) MonthString() string {
	return fmt.Sprintf("%02d", p.Month)
}

func (p FiscalPeriod) YearString() string {
	return fmt.Sprintf("%04d", p.Year)
}

func (p FiscalPeriod) String() string {
	return p.MonthString() + "/" + p.YearString()
}

// Document lifecycle statuses shared by source and statutory documents.
const (
	DocStatusDraft     = "Draft"
	DocStatusSubmitted = "Submitted"
	DocStatusFiled     = "Filed"
	DocStatusPaid      = "Paid"
	DocStatusCancelled = "Cancelled"
)

const (
	DocTypeSalesInvoice    = "Sales Invoice"
	DocTypePurchaseInvoice = "Purchase Invoice"
	DocTypeSalarySlip      = "Salary Slip"
	DocTypePaymentEntry    = "Payment Entry"
	DocTypeGLEntry         = "GL Entry"
	DocTypeEfaktur         = "Efaktur Document"
	DocTypeEbupot          = "Ebupot Document"
	DocTypeTaxFiling       = "Tax Filing Summary"
	DocTypeTaxAdjustment   = "Tax Adjustment Entry"
	DocTypeSPTSummary      = "SPT Summary"
	DocTypePenyelesaian    = "Penyelesaian Pajak"
)

// DocumentRef is a polymorphic pointer to a record.
type DocumentRef struct {
	DocType string `db:"doctype" json:"doctype"`
	Name    string `db:"name" json:"name"`
}

func (r DocumentRef) String() string {
	return r.DocType + " " + r.Name
}

// TaxLineFact is a tax line recognized on a source transaction.
type TaxLineFact struct {
	SourceType  string          `json:"source_type"`
	SourceID    string          `json:"source_id"`
	Role        TaxRole         `json:"role"`
	Account     string          `json:"account"`
	Description string          `json:"description"`
	BaseAmount  decimal.Decimal `json:"base_amount"`
	Rate        decimal.Decimal `json:"rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	// MatchedBy is "account" or "description".
	MatchedBy string `json:"matched_by"`
}

// PPNFallbackPatterns are the account-name fragments used when scanning
// invoice tax lines directly instead of tagged ledger postings.
func PPNFallbackPatterns(doctype string) []string {
	if doctype == DocTypePurchaseInvoice {
		return []string{"ppn", "input", "masukan"}
	}
	return []string{"ppn", "output", "keluaran"}
}

var ErrNotFound = errors.New("record not found")
