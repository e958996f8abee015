package repository

import (
	"context"
	"fmt"
	"pajak-web/internal/models"

	"github.com/jmoiron/sqlx"
)

type FilingRepository struct {
	db *sqlx.DB
	tx *TransactionManager
}

func NewFilingRepository(db *sqlx.DB, tx *TransactionManager) *FilingRepository {
	return &FilingRepository{db: db, tx: tx}
}

const filingColumns = `
	name, company, filing_type, tax_category, masa_pajak, tahun_pajak, posting_date, tanggal_pelaporan,
	status_spt, state, tax_balance, ledger_balance,
	payment_entry,
	COALESCE(payment_status, '') as payment_status,
	payment_date,
	adjustment_entry,
	COALESCE(adjustment_status, '') as adjustment_status,
	adjustment_date,
	COALESCE(remarks, '') as remarks,
	submitted_at, cancelled_at, created_by, created_at, updated_at`

func (r *FilingRepository) GetFiling(ctx context.Context, name string) (*models.TaxFilingSummary, error) {
	q := GetDB(ctx, r.db)

	var filing models.TaxFilingSummary
	query := "SELECT " + filingColumns + " FROM tax_filing_summaries WHERE name = ?"
	if err := sqlx.GetContext(ctx, q, &filing, query, name); err != nil {
		return nil, notFound(err, "tax filing "+name)
	}
	if err := r.loadChildren(ctx, q, &filing); err != nil {
		return nil, err
	}
	return &filing, nil
}

func (r *FilingRepository) FindActiveFiling(ctx context.Context, company string, category models.TaxCategory, period models.FiscalPeriod) (*models.TaxFilingSummary, error) {
	q := GetDB(ctx, r.db)

	var filing models.TaxFilingSummary
	query := "SELECT " + filingColumns + ` FROM tax_filing_summaries
		WHERE company = ? AND tax_category = ? AND tahun_pajak = ? AND masa_pajak = ? AND state <> ?
		ORDER BY created_at DESC
		LIMIT 1`
	err := sqlx.GetContext(ctx, q, &filing, query, company, category, period.Year, period.Month, models.FilingStateCancelled)
	if err != nil {
		return nil, notFound(err, "active tax filing")
	}
	if err := r.loadChildren(ctx, q, &filing); err != nil {
		return nil, err
	}
	return &filing, nil
}

func (r *FilingRepository) loadChildren(ctx context.Context, q sqlx.ExtContext, filing *models.TaxFilingSummary) error {
	filing.SourceDocuments = []models.FilingSourceDocument{}
	sourceQuery := `
		SELECT id, parent, idx, document_type, document_name, COALESCE(status, '') as status, amount
		FROM tax_filing_source_documents
		WHERE parent = ?
		ORDER BY idx`
	if err := sqlx.SelectContext(ctx, q, &filing.SourceDocuments, sourceQuery, filing.Name); err != nil {
		return fmt.Errorf("failed to load source documents: %w", err)
	}

	filing.PaymentDocuments = []models.FilingPaymentDocument{}
	paymentQuery := `
		SELECT id, parent, idx, document_type, document_no, amount, payment_date
		FROM tax_filing_payment_documents
		WHERE parent = ?
		ORDER BY idx`
	if err := sqlx.SelectContext(ctx, q, &filing.PaymentDocuments, paymentQuery, filing.Name); err != nil {
		return fmt.Errorf("failed to load payment documents: %w", err)
	}

	filing.Attachments = []models.FilingAttachment{}
	attachmentQuery := `
		SELECT id, parent, title, file_url, uploaded_at
		FROM tax_filing_attachments
		WHERE parent = ?
		ORDER BY id`
	if err := sqlx.SelectContext(ctx, q, &filing.Attachments, attachmentQuery, filing.Name); err != nil {
		return fmt.Errorf("failed to load attachments: %w", err)
	}
	return nil
}

// ListFilings returns one page of filings, newest period first, and the total count.
func (r *FilingRepository) ListFilings(ctx context.Context, filter models.FilingFilter) ([]models.TaxFilingSummary, int, error) {
	q := GetDB(ctx, r.db)

	where := " WHERE 1=1"
	args := []interface{}{}
	if filter.Company != "" {
		where += " AND company = ?"
		args = append(args, filter.Company)
	}
	if filter.TaxCategory != "" {
		where += " AND tax_category = ?"
		args = append(args, filter.TaxCategory)
	}
	if filter.Year > 0 {
		where += " AND tahun_pajak = ?"
		args = append(args, filter.Year)
	}
	if filter.State != "" {
		where += " AND state = ?"
		args = append(args, filter.State)
	}

	var total int
	if err := sqlx.GetContext(ctx, q, &total, "SELECT COUNT(*) FROM tax_filing_summaries"+where, args...); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	query := "SELECT " + filingColumns + " FROM tax_filing_summaries" + where +
		" ORDER BY tahun_pajak DESC, masa_pajak DESC, created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, (page-1)*limit)

	filings := []models.TaxFilingSummary{}
	if err := sqlx.SelectContext(ctx, q, &filings, query, args...); err != nil {
		return nil, 0, err
	}
	return filings, total, nil
}

func (r *FilingRepository) CreateFiling(ctx context.Context, filing *models.TaxFilingSummary) error {
	return r.tx.RunInTx(ctx, func(txCtx context.Context) error {
		query := `INSERT INTO tax_filing_summaries (
		              name, company, filing_type, tax_category, masa_pajak, tahun_pajak, posting_date,
		              tanggal_pelaporan, status_spt, state, tax_balance, ledger_balance, payment_entry,
		              payment_status, payment_date, adjustment_entry, adjustment_status, adjustment_date,
		              remarks, submitted_at, cancelled_at, created_by, created_at, updated_at)
		          VALUES (
		              :name, :company, :filing_type, :tax_category, :masa_pajak, :tahun_pajak, :posting_date,
		              :tanggal_pelaporan, :status_spt, :state, :tax_balance, :ledger_balance, :payment_entry,
		              :payment_status, :payment_date, :adjustment_entry, :adjustment_status, :adjustment_date,
		              :remarks, :submitted_at, :cancelled_at, :created_by, :created_at, :updated_at)`
		if _, err := sqlx.NamedExecContext(txCtx, GetDB(txCtx, r.db), query, filing); err != nil {
			return err
		}
		return r.insertChildren(txCtx, filing)
	})
}

func (r *FilingRepository) UpdateFiling(ctx context.Context, filing *models.TaxFilingSummary) error {
	return r.tx.RunInTx(ctx, func(txCtx context.Context) error {
		q := GetDB(txCtx, r.db)

		query := `UPDATE tax_filing_summaries SET
		              tanggal_pelaporan = :tanggal_pelaporan,
		              status_spt = :status_spt,
		              state = :state,
		              tax_balance = :tax_balance,
		              ledger_balance = :ledger_balance,
		              payment_entry = :payment_entry,
		              payment_status = :payment_status,
		              payment_date = :payment_date,
		              adjustment_entry = :adjustment_entry,
		              adjustment_status = :adjustment_status,
		              adjustment_date = :adjustment_date,
		              remarks = :remarks,
		              submitted_at = :submitted_at,
		              cancelled_at = :cancelled_at,
		              updated_at = :updated_at
		          WHERE name = :name`
		result, err := sqlx.NamedExecContext(txCtx, q, query, filing)
		if err != nil {
			return err
		}
		if err := expectOne(result, "tax filing "+filing.Name); err != nil {
			return err
		}

		for _, table := range []string{"tax_filing_source_documents", "tax_filing_payment_documents", "tax_filing_attachments"} {
			if _, err := q.ExecContext(txCtx, "DELETE FROM "+table+" WHERE parent = ?", filing.Name); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return r.insertChildren(txCtx, filing)
	})
}

func (r *FilingRepository) insertChildren(ctx context.Context, filing *models.TaxFilingSummary) error {
	q := GetDB(ctx, r.db)

	sourceQuery := `INSERT INTO tax_filing_source_documents (parent, idx, document_type, document_name, status, amount)
	                VALUES (:parent, :idx, :document_type, :document_name, :status, :amount)`
	for i := range filing.SourceDocuments {
		doc := &filing.SourceDocuments[i]
		doc.Parent = filing.Name
		result, err := sqlx.NamedExecContext(ctx, q, sourceQuery, doc)
		if err != nil {
			return fmt.Errorf("failed to insert source document %s: %w", doc.DocumentName, err)
		}
		id, _ := result.LastInsertId()
		doc.ID = int(id)
	}

	paymentQuery := `INSERT INTO tax_filing_payment_documents (parent, idx, document_type, document_no, amount, payment_date)
	                 VALUES (:parent, :idx, :document_type, :document_no, :amount, :payment_date)`
	for i := range filing.PaymentDocuments {
		doc := &filing.PaymentDocuments[i]
		doc.Parent = filing.Name
		result, err := sqlx.NamedExecContext(ctx, q, paymentQuery, doc)
		if err != nil {
			return fmt.Errorf("failed to insert payment document %s: %w", doc.DocumentNo, err)
		}
		id, _ := result.LastInsertId()
		doc.ID = int(id)
	}

	attachmentQuery := `INSERT INTO tax_filing_attachments (parent, title, file_url, uploaded_at)
	                    VALUES (:parent, :title, :file_url, :uploaded_at)`
	for i := range filing.Attachments {
		att := &filing.Attachments[i]
		att.Parent = filing.Name
		result, err := sqlx.NamedExecContext(ctx, q, attachmentQuery, att)
		if err != nil {
			return fmt.Errorf("failed to insert attachment %s: %w", att.Title, err)
		}
		id, _ := result.LastInsertId()
		att.ID = int(id)
	}
	return nil
}
