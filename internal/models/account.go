package models

import "time"

const (
	AccountTypeTax       = "Tax"
	AccountTypeLiability = "Liability"
	AccountTypePayable   = "Payable"
	AccountTypeAsset     = "Asset"
	AccountTypeBank      = "Bank"
	AccountTypeTemporary = "Temporary"
	AccountTypeExpense   = "Expense Account"
	AccountTypeIncome    = "Income Account"
)

// Account is a ledger account. Name is the ledger identifier, e.g.
// "2141 - PPN Keluaran - PTA".
type Account struct {
	Name          string    `db:"name" json:"name"`
	AccountName   string    `db:"account_name" json:"account_name"`
	AccountNumber string    `db:"account_number" json:"account_number"`
	AccountType   string    `db:"account_type" json:"account_type"`
	Company       string    `db:"company" json:"company"`
	IsGroup       bool      `db:"is_group" json:"is_group"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// AccountBinding is the configured account for a (company, role) pair.
type AccountBinding struct {
	Company   string    `db:"company" json:"company"`
	TaxRole   TaxRole   `db:"tax_role" json:"tax_role"`
	Account   string    `db:"account" json:"account"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type AccountBindingRequest struct {
	Company string `json:"company" validate:"required"`
	TaxRole string `json:"tax_role" validate:"required"`
	Account string `json:"account" validate:"required"`
}

type Company struct {
	Name                  string `db:"name" json:"name"`
	TaxID                 string `db:"tax_id" json:"tax_id"`
	Address               string `db:"address" json:"address"`
	DefaultBankAccount    string `db:"default_bank_account" json:"default_bank_account"`
	TemporaryAccount      string `db:"temporary_account" json:"temporary_account"`
	DefaultExpenseAccount string `db:"default_expense_account" json:"default_expense_account"`
}

const (
	PartyTypeCustomer = "Customer"
	PartyTypeSupplier = "Supplier"
)

type Party struct {
	PartyType     string    `db:"party_type" json:"party_type"`
	Name          string    `db:"name" json:"name"`
	PartyName     string    `db:"party_name" json:"party_name"`
	TaxID         string    `db:"tax_id" json:"tax_id"`
	Address       string    `db:"address" json:"address"`
	Country       string    `db:"country" json:"country"`
	SupplierGroup string    `db:"supplier_group" json:"supplier_group"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// DisplayName prefers the party's full name over its identifier.
func (p Party) DisplayName() string {
	if p.PartyName != "" {
		return p.PartyName
	}
	return p.Name
}
