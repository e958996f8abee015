package repository

import (
	"context"
	"pajak-web/internal/models"
	"time"

	"github.com/jmoiron/sqlx"
)

type SalarySlipRepository struct {
	db *sqlx.DB
}

func NewSalarySlipRepository(db *sqlx.DB) *SalarySlipRepository {
	return &SalarySlipRepository{db: db}
}

// ListTaxedSalarySlips returns the period's submitted slips with income tax withheld.
func (r *SalarySlipRepository) ListTaxedSalarySlips(ctx context.Context, company string, from, to time.Time) ([]models.SalarySlip, error) {
	slips := []models.SalarySlip{}
	query := `
		SELECT name, company, employee,
		       COALESCE(employee_name, '') as employee_name,
		       posting_date, gross_pay, total_tax_deducted,
		       COALESCE(tax_account, '') as tax_account,
		       status, filing_reference, filing_date
		FROM salary_slips
		WHERE company = ?
		  AND posting_date BETWEEN ? AND ?
		  AND status NOT IN ('Draft', 'Cancelled')
		  AND total_tax_deducted > 0
		ORDER BY posting_date, name`
	if err := sqlx.SelectContext(ctx, GetDB(ctx, r.db), &slips, query, company, from, to); err != nil {
		return nil, err
	}
	return slips, nil
}
