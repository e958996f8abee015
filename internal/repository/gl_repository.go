package repository

import (
	"context"
	"fmt"
	"pajak-web/internal/models"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type GLRepository struct {
	db *sqlx.DB
}

func NewGLRepository(db *sqlx.DB) *GLRepository {
	return &GLRepository{db: db}
}

func (r *GLRepository) GetGLEntry(ctx context.Context, id int64) (*models.GLEntry, error) {
	var entry models.GLEntry
	query := `
		SELECT id, company, posting_date, account, debit, credit, voucher_type, voucher_no,
		       tax_type, tax_source_type, tax_source, is_cancelled
		FROM gl_entries
		WHERE id = ?
		LIMIT 1`
	if err := sqlx.GetContext(ctx, GetDB(ctx, r.db), &entry, query, id); err != nil {
		return nil, notFound(err, fmt.Sprintf("gl entry %d", id))
	}
	return &entry, nil
}

func (r *GLRepository) TagGLEntry(ctx context.Context, id int64, role models.TaxRole, sourceType, source string) error {
	query := "UPDATE gl_entries SET tax_type = ?, tax_source_type = ?, tax_source = ? WHERE id = ?"
	result, err := GetDB(ctx, r.db).ExecContext(ctx, query, role, sourceType, source, id)
	if err != nil {
		return err
	}
	return expectOne(result, fmt.Sprintf("gl entry %d", id))
}

// SumTagged totals credits for output VAT and debits for input VAT.
func (r *GLRepository) SumTagged(ctx context.Context, company string, role models.TaxRole, from, to time.Time) (decimal.Decimal, int, error) {
	column := "credit"
	if role == models.TaxRolePPNIn {
		column = "debit"
	}

	var row struct {
		Total decimal.Decimal `db:"total"`
		Count int             `db:"count"`
	}
	query := `
		SELECT COALESCE(SUM(` + column + `), 0) as total, COUNT(*) as count
		FROM gl_entries
		WHERE company = ?
		  AND tax_type = ?
		  AND posting_date BETWEEN ? AND ?
		  AND is_cancelled = 0`
	if err := sqlx.GetContext(ctx, GetDB(ctx, r.db), &row, query, company, role, from, to); err != nil {
		return decimal.Zero, 0, err
	}
	return row.Total, row.Count, nil
}
