package repository

import (
	"context"
	"fmt"
	"pajak-web/internal/models"
	"time"

	"github.com/jmoiron/sqlx"
)

type EfakturRepository struct {
	db *sqlx.DB
	tx *TransactionManager
}

func NewEfakturRepository(db *sqlx.DB, tx *TransactionManager) *EfakturRepository {
	return &EfakturRepository{db: db, tx: tx}
}

const efakturColumns = `
	name, company,
	COALESCE(nomor_faktur, '') as nomor_faktur,
	kode_jenis_transaksi, fg_pengganti, fg_uang_muka, masa_pajak, tahun_pajak, tanggal_faktur,
	npwp, nama,
	COALESCE(alamat, '') as alamat,
	reference_doctype, reference_name, jumlah_dpp, jumlah_ppn, jumlah_ppnbm, status,
	filing_reference, filing_date, created_at, updated_at`

func (r *EfakturRepository) GetEfaktur(ctx context.Context, name string) (*models.EfakturDocument, error) {
	return r.getOne(ctx, "name = ?", name)
}

// FindEfakturByReference returns the most recent E-Faktur of a source document.
func (r *EfakturRepository) FindEfakturByReference(ctx context.Context, doctype, name string) (*models.EfakturDocument, error) {
	return r.getOne(ctx, "reference_doctype = ? AND reference_name = ? ORDER BY created_at DESC", doctype, name)
}

func (r *EfakturRepository) getOne(ctx context.Context, where string, args ...interface{}) (*models.EfakturDocument, error) {
	q := GetDB(ctx, r.db)

	var doc models.EfakturDocument
	query := "SELECT " + efakturColumns + " FROM efaktur_documents WHERE " + where + " LIMIT 1"
	if err := sqlx.GetContext(ctx, q, &doc, query, args...); err != nil {
		return nil, notFound(err, "e-faktur")
	}

	itemsQuery := `
		SELECT id, parent, idx,
		       COALESCE(kode_barang, '') as kode_barang,
		       COALESCE(nama_barang, '') as nama_barang,
		       harga_satuan, jumlah_barang, harga_total, diskon, dpp, ppn, tarif_ppnbm, ppnbm,
		       allocated_dpp, allocated_ppn
		FROM efaktur_items
		WHERE parent = ?
		ORDER BY idx`
	if err := sqlx.SelectContext(ctx, q, &doc.Items, itemsQuery, doc.Name); err != nil {
		return nil, fmt.Errorf("failed to load e-faktur items: %w", err)
	}
	return &doc, nil
}

func (r *EfakturRepository) CreateEfaktur(ctx context.Context, doc *models.EfakturDocument) error {
	return r.tx.RunInTx(ctx, func(txCtx context.Context) error {
		q := GetDB(txCtx, r.db)

		query := `INSERT INTO efaktur_documents (
		              name, company, nomor_faktur, kode_jenis_transaksi, fg_pengganti, fg_uang_muka,
		              masa_pajak, tahun_pajak, tanggal_faktur, npwp, nama, alamat,
		              reference_doctype, reference_name, jumlah_dpp, jumlah_ppn, jumlah_ppnbm, status,
		              created_at, updated_at)
		          VALUES (
		              :name, :company, :nomor_faktur, :kode_jenis_transaksi, :fg_pengganti, :fg_uang_muka,
		              :masa_pajak, :tahun_pajak, :tanggal_faktur, :npwp, :nama, :alamat,
		              :reference_doctype, :reference_name, :jumlah_dpp, :jumlah_ppn, :jumlah_ppnbm, :status,
		              :created_at, :updated_at)`
		if _, err := sqlx.NamedExecContext(txCtx, q, query, doc); err != nil {
			return err
		}

		itemQuery := `INSERT INTO efaktur_items (
		                  parent, idx, kode_barang, nama_barang, harga_satuan, jumlah_barang, harga_total,
		                  diskon, dpp, ppn, tarif_ppnbm, ppnbm, allocated_dpp, allocated_ppn)
		              VALUES (
		                  :parent, :idx, :kode_barang, :nama_barang, :harga_satuan, :jumlah_barang, :harga_total,
		                  :diskon, :dpp, :ppn, :tarif_ppnbm, :ppnbm, :allocated_dpp, :allocated_ppn)`
		for i := range doc.Items {
			item := &doc.Items[i]
			item.Parent = doc.Name
			result, err := sqlx.NamedExecContext(txCtx, q, itemQuery, item)
			if err != nil {
				return fmt.Errorf("failed to insert e-faktur item %d: %w", item.Idx, err)
			}
			id, _ := result.LastInsertId()
			item.ID = int(id)
		}
		return nil
	})
}

func (r *EfakturRepository) UpdateEfakturStatus(ctx context.Context, name, status string) error {
	result, err := GetDB(ctx, r.db).ExecContext(ctx, "UPDATE efaktur_documents SET status = ? WHERE name = ?", status, name)
	if err != nil {
		return err
	}
	return expectOne(result, "e-faktur "+name)
}

func (r *EfakturRepository) ListEfakturByPeriod(ctx context.Context, company string, from, to time.Time) ([]models.EfakturDocument, error) {
	docs := []models.EfakturDocument{}
	query := "SELECT " + efakturColumns + ` FROM efaktur_documents
		WHERE company = ? AND tanggal_faktur BETWEEN ? AND ?
		ORDER BY tanggal_faktur, name`
	if err := sqlx.SelectContext(ctx, GetDB(ctx, r.db), &docs, query, company, from, to); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *EfakturRepository) ListEfakturReferenceNames(ctx context.Context, company string) ([]string, error) {
	names := []string{}
	query := "SELECT DISTINCT reference_name FROM efaktur_documents WHERE company = ? AND status <> 'Cancelled'"
	if err := sqlx.SelectContext(ctx, GetDB(ctx, r.db), &names, query, company); err != nil {
		return nil, err
	}
	return names, nil
}
