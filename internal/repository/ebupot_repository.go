package repository

import (
	"context"
	"fmt"
	"pajak-web/internal/models"
	"time"

	"github.com/jmoiron/sqlx"
)

type EbupotRepository struct {
	db *sqlx.DB
	tx *TransactionManager
}

func NewEbupotRepository(db *sqlx.DB, tx *TransactionManager) *EbupotRepository {
	return &EbupotRepository{db: db, tx: tx}
}

const ebupotColumns = `
	name, company, jenis_pajak, jenis_daftar, masa_pajak, tahun_pajak, tandatangan_date,
	npwp_pemotong, nama_pemotong,
	COALESCE(alamat_pemotong, '') as alamat_pemotong,
	supplier, npwp_terpotong, nama_terpotong,
	COALESCE(alamat_terpotong, '') as alamat_terpotong,
	COALESCE(tin, '') as tin,
	COALESCE(negara_domisili, '') as negara_domisili,
	kode_objek_pajak, penghasilan_bruto, tarif, tarif_fasilitas, pph_dipotong,
	reference_doctype, reference_name, status, payment_entry, payment_date,
	filing_reference, filing_date, created_at, updated_at`

func (r *EbupotRepository) GetEbupot(ctx context.Context, name string) (*models.EbupotDocument, error) {
	q := GetDB(ctx, r.db)

	var doc models.EbupotDocument
	query := "SELECT " + ebupotColumns + " FROM ebupot_documents WHERE name = ? LIMIT 1"
	if err := sqlx.GetContext(ctx, q, &doc, query, name); err != nil {
		return nil, notFound(err, "e-bupot "+name)
	}

	itemsQuery := `
		SELECT id, parent, idx, kode_objek_pajak,
		       COALESCE(jenis_penghasilan, '') as jenis_penghasilan,
		       dpp, tarif, pph_dipotong
		FROM ebupot_items
		WHERE parent = ?
		ORDER BY idx`
	if err := sqlx.SelectContext(ctx, q, &doc.Items, itemsQuery, name); err != nil {
		return nil, fmt.Errorf("failed to load e-bupot items: %w", err)
	}
	return &doc, nil
}

func (r *EbupotRepository) ListEbupotByReference(ctx context.Context, doctype, name string) ([]models.EbupotDocument, error) {
	docs := []models.EbupotDocument{}
	query := "SELECT " + ebupotColumns + ` FROM ebupot_documents
		WHERE reference_doctype = ? AND reference_name = ?
		ORDER BY jenis_pajak, created_at`
	if err := sqlx.SelectContext(ctx, GetDB(ctx, r.db), &docs, query, doctype, name); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *EbupotRepository) CreateEbupot(ctx context.Context, doc *models.EbupotDocument) error {
	return r.tx.RunInTx(ctx, func(txCtx context.Context) error {
		q := GetDB(txCtx, r.db)

		query := `INSERT INTO ebupot_documents (
		              name, company, jenis_pajak, jenis_daftar, masa_pajak, tahun_pajak, tandatangan_date,
		              npwp_pemotong, nama_pemotong, alamat_pemotong, supplier, npwp_terpotong, nama_terpotong,
		              alamat_terpotong, tin, negara_domisili, kode_objek_pajak, penghasilan_bruto, tarif,
		              tarif_fasilitas, pph_dipotong, reference_doctype, reference_name, status,
		              created_at, updated_at)
		          VALUES (
		              :name, :company, :jenis_pajak, :jenis_daftar, :masa_pajak, :tahun_pajak, :tandatangan_date,
		              :npwp_pemotong, :nama_pemotong, :alamat_pemotong, :supplier, :npwp_terpotong, :nama_terpotong,
		              :alamat_terpotong, :tin, :negara_domisili, :kode_objek_pajak, :penghasilan_bruto, :tarif,
		              :tarif_fasilitas, :pph_dipotong, :reference_doctype, :reference_name, :status,
		              :created_at, :updated_at)`
		if _, err := sqlx.NamedExecContext(txCtx, q, query, doc); err != nil {
			return err
		}

		itemQuery := `INSERT INTO ebupot_items (parent, idx, kode_objek_pajak, jenis_penghasilan, dpp, tarif, pph_dipotong)
		              VALUES (:parent, :idx, :kode_objek_pajak, :jenis_penghasilan, :dpp, :tarif, :pph_dipotong)`
		for i := range doc.Items {
			item := &doc.Items[i]
			item.Parent = doc.Name
			result, err := sqlx.NamedExecContext(txCtx, q, itemQuery, item)
			if err != nil {
				return fmt.Errorf("failed to insert e-bupot item %d: %w", item.Idx, err)
			}
			id, _ := result.LastInsertId()
			item.ID = int(id)
		}
		return nil
	})
}

func (r *EbupotRepository) UpdateEbupotStatus(ctx context.Context, name, status string) error {
	result, err := GetDB(ctx, r.db).ExecContext(ctx, "UPDATE ebupot_documents SET status = ? WHERE name = ?", status, name)
	if err != nil {
		return err
	}
	return expectOne(result, "e-bupot "+name)
}

func (r *EbupotRepository) SetEbupotPayment(ctx context.Context, name string, paymentEntry *string, paymentDate *time.Time, status string) error {
	query := "UPDATE ebupot_documents SET payment_entry = ?, payment_date = ?, status = ? WHERE name = ?"
	result, err := GetDB(ctx, r.db).ExecContext(ctx, query, paymentEntry, paymentDate, status, name)
	if err != nil {
		return err
	}
	return expectOne(result, "e-bupot "+name)
}

func (r *EbupotRepository) ListEbupotByPeriod(ctx context.Context, company, jenisPajak string, from, to time.Time) ([]models.EbupotDocument, error) {
	docs := []models.EbupotDocument{}
	query := "SELECT " + ebupotColumns + ` FROM ebupot_documents
		WHERE company = ? AND jenis_pajak = ? AND tandatangan_date BETWEEN ? AND ?
		ORDER BY tandatangan_date, name`
	if err := sqlx.SelectContext(ctx, GetDB(ctx, r.db), &docs, query, company, jenisPajak, from, to); err != nil {
		return nil, err
	}
	return docs, nil
}

// FindEbupots returns non-cancelled slips matching every set field of the filter.
func (r *EbupotRepository) FindEbupots(ctx context.Context, filter models.EbupotFilter) ([]models.EbupotDocument, error) {
	q := GetDB(ctx, r.db)

	query := "SELECT " + ebupotColumns + " FROM ebupot_documents WHERE status <> 'Cancelled'"
	args := []interface{}{}

	if filter.Company != "" {
		query += " AND company = ?"
		args = append(args, filter.Company)
	}
	if filter.JenisPajak != "" {
		query += " AND jenis_pajak = ?"
		args = append(args, filter.JenisPajak)
	}
	if filter.Supplier != "" {
		query += " AND supplier = ?"
		args = append(args, filter.Supplier)
	}
	if !filter.From.IsZero() {
		query += " AND tandatangan_date >= ?"
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		query += " AND tandatangan_date <= ?"
		args = append(args, filter.To)
	}
	if filter.Unlinked {
		query += " AND payment_entry IS NULL"
	}
	if len(filter.ReferenceNames) > 0 {
		inQuery, inArgs, err := sqlx.In(" AND reference_name IN (?)", filter.ReferenceNames)
		if err != nil {
			return nil, err
		}
		query += inQuery
		args = append(args, inArgs...)
	}
	query += " ORDER BY tandatangan_date, name"

	docs := []models.EbupotDocument{}
	if err := sqlx.SelectContext(ctx, q, &docs, q.Rebind(query), args...); err != nil {
		return nil, err
	}
	return docs, nil
}
