package repository

import (
	"context"
	"fmt"
	"pajak-web/internal/models"

	"github.com/jmoiron/sqlx"
)

type PaymentRepository struct {
	db *sqlx.DB
	tx *TransactionManager
}

func NewPaymentRepository(db *sqlx.DB, tx *TransactionManager) *PaymentRepository {
	return &PaymentRepository{db: db, tx: tx}
}

func (r *PaymentRepository) GetPaymentEntry(ctx context.Context, name string) (*models.PaymentEntry, error) {
	q := GetDB(ctx, r.db)

	var payment models.PaymentEntry
	query := `
		SELECT name, payment_type, company, posting_date, party_type, party,
		       COALESCE(paid_from, '') as paid_from,
		       COALESCE(paid_to, '') as paid_to,
		       paid_amount, received_amount,
		       COALESCE(mode_of_payment, '') as mode_of_payment,
		       COALESCE(reference_no, '') as reference_no,
		       COALESCE(reference_date, posting_date) as reference_date,
		       COALESCE(remarks, '') as remarks,
		       tax_filing_reference, tax_filing_type, status
		FROM payment_entries
		WHERE name = ?
		LIMIT 1`
	if err := sqlx.GetContext(ctx, q, &payment, query, name); err != nil {
		return nil, notFound(err, "payment entry "+name)
	}

	refsQuery := "SELECT id, payment_entry, reference_doctype, reference_name FROM payment_entry_references WHERE payment_entry = ? ORDER BY id"
	if err := sqlx.SelectContext(ctx, q, &payment.References, refsQuery, name); err != nil {
		return nil, fmt.Errorf("failed to load payment references: %w", err)
	}

	deductionsQuery := "SELECT id, payment_entry, account, amount, ebupot_document FROM payment_deductions WHERE payment_entry = ? ORDER BY id"
	if err := sqlx.SelectContext(ctx, q, &payment.Deductions, deductionsQuery, name); err != nil {
		return nil, fmt.Errorf("failed to load payment deductions: %w", err)
	}

	return &payment, nil
}

func (r *PaymentRepository) CreatePaymentEntry(ctx context.Context, payment *models.PaymentEntry) error {
	return r.tx.RunInTx(ctx, func(txCtx context.Context) error {
		q := GetDB(txCtx, r.db)

		query := `INSERT INTO payment_entries (
		              name, payment_type, company, posting_date, party_type, party, paid_from, paid_to,
		              paid_amount, received_amount, mode_of_payment, reference_no, reference_date, remarks,
		              tax_filing_reference, tax_filing_type, status)
		          VALUES (
		              :name, :payment_type, :company, :posting_date, :party_type, :party, :paid_from, :paid_to,
		              :paid_amount, :received_amount, :mode_of_payment, :reference_no, :reference_date, :remarks,
		              :tax_filing_reference, :tax_filing_type, :status)`
		if _, err := sqlx.NamedExecContext(txCtx, q, query, payment); err != nil {
			return err
		}

		for i := range payment.References {
			ref := &payment.References[i]
			ref.PaymentEntry = payment.Name
			result, err := sqlx.NamedExecContext(txCtx, q, `INSERT INTO payment_entry_references (payment_entry, reference_doctype, reference_name)
			          VALUES (:payment_entry, :reference_doctype, :reference_name)`, ref)
			if err != nil {
				return err
			}
			id, _ := result.LastInsertId()
			ref.ID = int(id)
		}

		for i := range payment.Deductions {
			d := &payment.Deductions[i]
			d.PaymentEntry = payment.Name
			result, err := sqlx.NamedExecContext(txCtx, q, `INSERT INTO payment_deductions (payment_entry, account, amount, ebupot_document)
			          VALUES (:payment_entry, :account, :amount, :ebupot_document)`, d)
			if err != nil {
				return err
			}
			id, _ := result.LastInsertId()
			d.ID = int(id)
		}
		return nil
	})
}

func (r *PaymentRepository) SetDeductionEbupot(ctx context.Context, deductionID int, ebupot *string) error {
	result, err := GetDB(ctx, r.db).ExecContext(ctx, "UPDATE payment_deductions SET ebupot_document = ? WHERE id = ?", ebupot, deductionID)
	if err != nil {
		return err
	}
	return expectOne(result, fmt.Sprintf("payment deduction %d", deductionID))
}
