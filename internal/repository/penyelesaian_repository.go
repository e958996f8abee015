package repository

import (
	"context"
	"pajak-web/internal/models"

	"github.com/jmoiron/sqlx"
)

type PenyelesaianRepository struct {
	db *sqlx.DB
}

func NewPenyelesaianRepository(db *sqlx.DB) *PenyelesaianRepository {
	return &PenyelesaianRepository{db: db}
}

const penyelesaianColumns = `
	name, company, posting_date, due_date, jenis_pajak, masa_pajak, tahun_pajak,
	tax_base_amount, tax_rate, tax_amount, payment_due_date,
	COALESCE(reference_type, '') as reference_type,
	COALESCE(reference_name, '') as reference_name,
	COALESCE(ntpn, '') as ntpn,
	paid_at, status,
	COALESCE(remarks, '') as remarks,
	created_at, updated_at`

func (r *PenyelesaianRepository) GetPenyelesaian(ctx context.Context, name string) (*models.PenyelesaianPajak, error) {
	var record models.PenyelesaianPajak
	query := "SELECT " + penyelesaianColumns + " FROM penyelesaian_pajak WHERE name = ?"
	if err := sqlx.GetContext(ctx, GetDB(ctx, r.db), &record, query, name); err != nil {
		return nil, notFound(err, "tax settlement "+name)
	}
	return &record, nil
}

func (r *PenyelesaianRepository) ListPenyelesaian(ctx context.Context, filter models.PenyelesaianFilter) ([]models.PenyelesaianPajak, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if filter.Company != "" {
		where += " AND company = ?"
		args = append(args, filter.Company)
	}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Year > 0 {
		where += " AND tahun_pajak = ?"
		args = append(args, filter.Year)
	}

	records := []models.PenyelesaianPajak{}
	query := "SELECT " + penyelesaianColumns + " FROM penyelesaian_pajak" + where + " ORDER BY posting_date DESC, created_at DESC"
	if err := sqlx.SelectContext(ctx, GetDB(ctx, r.db), &records, query, args...); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *PenyelesaianRepository) CreatePenyelesaian(ctx context.Context, record *models.PenyelesaianPajak) error {
	query := `INSERT INTO penyelesaian_pajak (
	              name, company, posting_date, due_date, jenis_pajak, masa_pajak, tahun_pajak,
	              tax_base_amount, tax_rate, tax_amount, payment_due_date, reference_type, reference_name,
	              ntpn, paid_at, status, remarks, created_at, updated_at)
	          VALUES (
	              :name, :company, :posting_date, :due_date, :jenis_pajak, :masa_pajak, :tahun_pajak,
	              :tax_base_amount, :tax_rate, :tax_amount, :payment_due_date, :reference_type, :reference_name,
	              :ntpn, :paid_at, :status, :remarks, :created_at, :updated_at)`
	_, err := sqlx.NamedExecContext(ctx, GetDB(ctx, r.db), query, record)
	return err
}

func (r *PenyelesaianRepository) UpdatePenyelesaian(ctx context.Context, record *models.PenyelesaianPajak) error {
	query := `UPDATE penyelesaian_pajak SET
	              posting_date = :posting_date,
	              due_date = :due_date,
	              jenis_pajak = :jenis_pajak,
	              masa_pajak = :masa_pajak,
	              tahun_pajak = :tahun_pajak,
	              tax_base_amount = :tax_base_amount,
	              tax_rate = :tax_rate,
	              tax_amount = :tax_amount,
	              payment_due_date = :payment_due_date,
	              reference_type = :reference_type,
	              reference_name = :reference_name,
	              ntpn = :ntpn,
	              paid_at = :paid_at,
	              status = :status,
	              remarks = :remarks,
	              updated_at = :updated_at
	          WHERE name = :name`
	result, err := sqlx.NamedExecContext(ctx, GetDB(ctx, r.db), query, record)
	if err != nil {
		return err
	}
	return expectOne(result, "tax settlement "+record.Name)
}
