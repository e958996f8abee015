package repository

import (
	"context"
	"pajak-web/internal/models"

	"github.com/jmoiron/sqlx"
)

type SPTSummaryRepository struct {
	db *sqlx.DB
}

func NewSPTSummaryRepository(db *sqlx.DB) *SPTSummaryRepository {
	return &SPTSummaryRepository{db: db}
}

const sptSummaryColumns = `
	name, company, jenis_spt, masa_pajak, tahun_pajak,
	jumlah_dpp_penjualan, jumlah_ppn_penjualan, jumlah_ppnbm_penjualan,
	jumlah_dpp_pembelian, jumlah_ppn_pembelian, penghasilan_bruto, jumlah_pph,
	net_tax_amount, document_count, status,
	COALESCE(ntpn, '') as ntpn,
	filing_reference, filing_date, created_at, updated_at`

func (r *SPTSummaryRepository) GetSPTSummary(ctx context.Context, name string) (*models.SPTSummary, error) {
	var summary models.SPTSummary
	query := "SELECT " + sptSummaryColumns + " FROM spt_summaries WHERE name = ?"
	if err := sqlx.GetContext(ctx, GetDB(ctx, r.db), &summary, query, name); err != nil {
		return nil, notFound(err, "spt summary "+name)
	}
	return &summary, nil
}

func (r *SPTSummaryRepository) FindActiveSPTSummary(ctx context.Context, company string, jenis models.TaxCategory, period models.FiscalPeriod) (*models.SPTSummary, error) {
	var summary models.SPTSummary
	query := "SELECT " + sptSummaryColumns + ` FROM spt_summaries
		WHERE company = ? AND jenis_spt = ? AND tahun_pajak = ? AND masa_pajak = ? AND status <> ?
		ORDER BY created_at DESC
		LIMIT 1`
	err := sqlx.GetContext(ctx, GetDB(ctx, r.db), &summary, query, company, jenis, period.Year, period.Month, models.DocStatusCancelled)
	if err != nil {
		return nil, notFound(err, "active spt summary")
	}
	return &summary, nil
}

func (r *SPTSummaryRepository) ListSPTSummaries(ctx context.Context, filter models.SPTSummaryFilter) ([]models.SPTSummary, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if filter.Company != "" {
		where += " AND company = ?"
		args = append(args, filter.Company)
	}
	if filter.JenisSPT != "" {
		where += " AND jenis_spt = ?"
		args = append(args, filter.JenisSPT)
	}
	if filter.Year > 0 {
		where += " AND tahun_pajak = ?"
		args = append(args, filter.Year)
	}

	summaries := []models.SPTSummary{}
	query := "SELECT " + sptSummaryColumns + " FROM spt_summaries" + where + " ORDER BY tahun_pajak DESC, masa_pajak DESC, jenis_spt"
	if err := sqlx.SelectContext(ctx, GetDB(ctx, r.db), &summaries, query, args...); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *SPTSummaryRepository) CreateSPTSummary(ctx context.Context, summary *models.SPTSummary) error {
	query := `INSERT INTO spt_summaries (
	              name, company, jenis_spt, masa_pajak, tahun_pajak,
	              jumlah_dpp_penjualan, jumlah_ppn_penjualan, jumlah_ppnbm_penjualan,
	              jumlah_dpp_pembelian, jumlah_ppn_pembelian, penghasilan_bruto, jumlah_pph,
	              net_tax_amount, document_count, status, ntpn, filing_reference, filing_date, created_at, updated_at)
	          VALUES (
	              :name, :company, :jenis_spt, :masa_pajak, :tahun_pajak,
	              :jumlah_dpp_penjualan, :jumlah_ppn_penjualan, :jumlah_ppnbm_penjualan,
	              :jumlah_dpp_pembelian, :jumlah_ppn_pembelian, :penghasilan_bruto, :jumlah_pph,
	              :net_tax_amount, :document_count, :status, :ntpn, :filing_reference, :filing_date, :created_at, :updated_at)`
	_, err := sqlx.NamedExecContext(ctx, GetDB(ctx, r.db), query, summary)
	return err
}

func (r *SPTSummaryRepository) UpdateSPTSummary(ctx context.Context, summary *models.SPTSummary) error {
	query := `UPDATE spt_summaries SET
	              jumlah_dpp_penjualan = :jumlah_dpp_penjualan,
	              jumlah_ppn_penjualan = :jumlah_ppn_penjualan,
	              jumlah_ppnbm_penjualan = :jumlah_ppnbm_penjualan,
	              jumlah_dpp_pembelian = :jumlah_dpp_pembelian,
	              jumlah_ppn_pembelian = :jumlah_ppn_pembelian,
	              penghasilan_bruto = :penghasilan_bruto,
	              jumlah_pph = :jumlah_pph,
	              net_tax_amount = :net_tax_amount,
	              document_count = :document_count,
	              status = :status,
	              ntpn = :ntpn,
	              filing_reference = :filing_reference,
	              filing_date = :filing_date,
	              updated_at = :updated_at
	          WHERE name = :name`
	result, err := sqlx.NamedExecContext(ctx, GetDB(ctx, r.db), query, summary)
	if err != nil {
		return err
	}
	return expectOne(result, "spt summary "+summary.Name)
}
