package repository

import (
	"context"
	"fmt"
	"pajak-web/internal/models"
	"time"

	"github.com/jmoiron/sqlx"
)

// DocumentStatusRepository reads and stamps the documents a filing can
// reference, whatever table they live in.
type DocumentStatusRepository struct {
	db *sqlx.DB
}

func NewDocumentStatusRepository(db *sqlx.DB) *DocumentStatusRepository {
	return &DocumentStatusRepository{db: db}
}

type statusTable struct {
	table  string
	amount string
}

var statusTables = map[string]statusTable{
	models.DocTypeEfaktur:    {table: "efaktur_documents", amount: "jumlah_ppn"},
	models.DocTypeEbupot:     {table: "ebupot_documents", amount: "pph_dipotong"},
	models.DocTypeSalarySlip: {table: "salary_slips", amount: "total_tax_deducted"},
	models.DocTypeSPTSummary: {table: "spt_summaries", amount: "net_tax_amount"},
}

func (r *DocumentStatusRepository) GetSnapshot(ctx context.Context, ref models.DocumentRef) (*models.DocumentSnapshot, error) {
	q := GetDB(ctx, r.db)

	var snap models.DocumentSnapshot
	switch ref.DocType {
	case models.DocTypeSalesInvoice, models.DocTypePurchaseInvoice:
		// Same tax lines as InvoiceRepository.ListInvoiceTaxTotals.
		condition, args := taxLineCondition(models.PPNFallbackPatterns(ref.DocType))
		query := `
			SELECT i.status,
			       COALESCE((SELECT SUM(t.tax_amount) FROM invoice_taxes t
			                 LEFT JOIN accounts a ON a.name = t.account_head
			                 WHERE t.invoice = i.name AND t.tax_amount > 0
			                   AND ` + condition + `), 0) as amount
			FROM invoices i
			WHERE i.doctype = ? AND i.name = ?`
		args = append(args, ref.DocType, ref.Name)
		if err := sqlx.GetContext(ctx, q, &snap, query, args...); err != nil {
			return nil, notFound(err, ref.String())
		}
	default:
		st, ok := statusTables[ref.DocType]
		if !ok {
			return nil, fmt.Errorf("unsupported document type %q", ref.DocType)
		}
		query := fmt.Sprintf("SELECT status, %s as amount FROM %s WHERE name = ?", st.amount, st.table)
		if err := sqlx.GetContext(ctx, q, &snap, query, ref.Name); err != nil {
			return nil, notFound(err, ref.String())
		}
	}
	return &snap, nil
}

func (r *DocumentStatusRepository) SetFilingStamp(ctx context.Context, ref models.DocumentRef, status string, filingRef *string, filingDate *time.Time) error {
	var (
		query string
		args  []interface{}
	)
	switch ref.DocType {
	case models.DocTypeSalesInvoice, models.DocTypePurchaseInvoice:
		query = "UPDATE invoices SET status = ?, filing_reference = ?, filing_date = ? WHERE doctype = ? AND name = ?"
		args = []interface{}{status, filingRef, filingDate, ref.DocType, ref.Name}
	default:
		st, ok := statusTables[ref.DocType]
		if !ok {
			return fmt.Errorf("unsupported document type %q", ref.DocType)
		}
		query = "UPDATE " + st.table + " SET status = ?, filing_reference = ?, filing_date = ? WHERE name = ?"
		args = []interface{}{status, filingRef, filingDate, ref.Name}
	}

	result, err := GetDB(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return expectOne(result, ref.String())
}
