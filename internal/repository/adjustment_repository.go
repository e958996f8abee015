package repository

import (
	"context"
	"pajak-web/internal/models"

	"github.com/jmoiron/sqlx"
)

type AdjustmentRepository struct {
	db *sqlx.DB
}

func NewAdjustmentRepository(db *sqlx.DB) *AdjustmentRepository {
	return &AdjustmentRepository{db: db}
}

func (r *AdjustmentRepository) CreateAdjustment(ctx context.Context, entry *models.TaxAdjustmentEntry) error {
	query := `INSERT INTO tax_adjustment_entries (
	              name, company, posting_date, jenis_pajak, jenis_penyesuaian, adjustment_type, adjustment_reason,
	              masa_pajak, tahun_pajak, reference_doctype, reference_name,
	              original_tax_base, original_tax_amount, adjustment_tax_base, adjustment_tax_amount,
	              final_tax_base, final_tax_amount, tax_difference, base_rate, base_rate_assumed,
	              account_adjustment, account_tax, nominal_kompensasi, kompensasi_type, remarks, status, created_at)
	          VALUES (
	              :name, :company, :posting_date, :jenis_pajak, :jenis_penyesuaian, :adjustment_type, :adjustment_reason,
	              :masa_pajak, :tahun_pajak, :reference_doctype, :reference_name,
	              :original_tax_base, :original_tax_amount, :adjustment_tax_base, :adjustment_tax_amount,
	              :final_tax_base, :final_tax_amount, :tax_difference, :base_rate, :base_rate_assumed,
	              :account_adjustment, :account_tax, :nominal_kompensasi, :kompensasi_type, :remarks, :status, :created_at)`
	_, err := sqlx.NamedExecContext(ctx, GetDB(ctx, r.db), query, entry)
	return err
}
