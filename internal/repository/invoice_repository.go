package repository

import (
	"context"
	"fmt"
	"pajak-web/internal/models"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// InvoiceRepository reads mirrored sales and purchase invoices.
type InvoiceRepository struct {
	db *sqlx.DB
}

func NewInvoiceRepository(db *sqlx.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) GetInvoice(ctx context.Context, doctype, name string) (*models.Invoice, error) {
	q := GetDB(ctx, r.db)

	var inv models.Invoice
	query := `
		SELECT name, doctype, company, posting_date, party,
		       COALESCE(party_name, '') as party_name,
		       COALESCE(address_display, '') as address_display,
		       base_net_total, base_grand_total, status, has_generated_efaktur,
		       filing_reference, filing_date
		FROM invoices
		WHERE doctype = ? AND name = ?
		LIMIT 1`
	if err := sqlx.GetContext(ctx, q, &inv, query, doctype, name); err != nil {
		return nil, notFound(err, doctype+" "+name)
	}

	itemsQuery := `
		SELECT id, invoice, idx,
		       COALESCE(item_code, '') as item_code,
		       COALESCE(item_name, '') as item_name,
		       COALESCE(description, '') as description,
		       qty, base_rate, discount_amount, base_amount, is_service, luxury_tax_rate
		FROM invoice_items
		WHERE invoice = ?
		ORDER BY idx`
	if err := sqlx.SelectContext(ctx, q, &inv.Items, itemsQuery, name); err != nil {
		return nil, fmt.Errorf("failed to load invoice items: %w", err)
	}

	taxesQuery := `
		SELECT id, invoice, idx, account_head,
		       COALESCE(description, '') as description,
		       tax_amount
		FROM invoice_taxes
		WHERE invoice = ?
		ORDER BY idx`
	if err := sqlx.SelectContext(ctx, q, &inv.Taxes, taxesQuery, name); err != nil {
		return nil, fmt.Errorf("failed to load invoice taxes: %w", err)
	}

	return &inv, nil
}

func (r *InvoiceRepository) MarkEfakturGenerated(ctx context.Context, name string) error {
	result, err := GetDB(ctx, r.db).ExecContext(ctx, "UPDATE invoices SET has_generated_efaktur = 1 WHERE name = ?", name)
	if err != nil {
		return err
	}
	return expectOne(result, "invoice "+name)
}

func (r *InvoiceRepository) ListInvoiceTaxTotals(ctx context.Context, doctype, company string, from, to time.Time, patterns []string) ([]models.InvoiceTaxTotal, error) {
	totals := []models.InvoiceTaxTotal{}
	if len(patterns) == 0 {
		return totals, nil
	}

	condition, conditionArgs := taxLineCondition(patterns)
	args := append([]interface{}{doctype, company, from, to}, conditionArgs...)

	query := `
		SELECT i.name, i.doctype, i.posting_date, i.party,
		       COALESCE(i.party_name, '') as party_name,
		       i.base_net_total,
		       SUM(t.tax_amount) as tax_amount,
		       i.status
		FROM invoices i
		JOIN invoice_taxes t ON t.invoice = i.name
		LEFT JOIN accounts a ON a.name = t.account_head
		WHERE i.doctype = ?
		  AND i.company = ?
		  AND i.posting_date BETWEEN ? AND ?
		  AND i.status NOT IN ('Draft', 'Cancelled')
		  AND t.tax_amount > 0
		  AND ` + condition + `
		GROUP BY i.name, i.doctype, i.posting_date, i.party, i.party_name, i.base_net_total, i.status
		ORDER BY i.posting_date, i.name`
	if err := sqlx.SelectContext(ctx, GetDB(ctx, r.db), &totals, query, args...); err != nil {
		return nil, err
	}
	return totals, nil
}

// taxLineCondition matches invoice tax lines whose account identifier or
// account name contains one of the patterns. The query must alias the tax
// lines as t and LEFT JOIN accounts as a on t.account_head.
func taxLineCondition(patterns []string) (string, []interface{}) {
	conditions := make([]string, 0, len(patterns))
	args := make([]interface{}, 0, 2*len(patterns))
	for _, p := range patterns {
		conditions = append(conditions, "(LOWER(t.account_head) LIKE ? OR LOWER(COALESCE(a.account_name, '')) LIKE ?)")
		like := "%" + strings.ToLower(p) + "%"
		args = append(args, like, like)
	}
	return "(" + strings.Join(conditions, " OR ") + ")", args
}
