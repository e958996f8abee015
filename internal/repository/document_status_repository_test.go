package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"pajak-web/internal/models"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

func likeArgs(patterns []string) []interface{} {
	_, args := taxLineCondition(patterns)
	return args
}

func TestTaxLineConditionMatchesIdentifierAndName(t *testing.T) {
	condition, args := taxLineCondition([]string{"PPN", "Keluaran"})
	assert.Equal(t,
		"((LOWER(t.account_head) LIKE ? OR LOWER(COALESCE(a.account_name, '')) LIKE ?) OR "+
			"(LOWER(t.account_head) LIKE ? OR LOWER(COALESCE(a.account_name, '')) LIKE ?))",
		condition)
	assert.Equal(t, []interface{}{"%ppn%", "%ppn%", "%keluaran%", "%keluaran%"}, args)
}

func TestGetSnapshotInvoiceUsesAccountNames(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewDocumentStatusRepository(db)

	patterns := models.PPNFallbackPatterns(models.DocTypeSalesInvoice)
	condition, _ := taxLineCondition(patterns)
	args := append(likeArgs(patterns), models.DocTypeSalesInvoice, "SINV-001")

	mock.ExpectQuery(`(?s)LEFT JOIN accounts a ON a\.name = t\.account_head.*` + regexp.QuoteMeta(condition)).
		WithArgs(toDriverArgs(args)...).
		WillReturnRows(sqlmock.NewRows([]string{"status", "amount"}).AddRow("Submitted", "110000.00"))

	snap, err := repo.GetSnapshot(ctx, models.DocumentRef{DocType: models.DocTypeSalesInvoice, Name: "SINV-001"})
	require.NoError(t, err)
	assert.Equal(t, "Submitted", snap.Status)
	assert.True(t, snap.Amount.Equal(decimal.RequireFromString("110000")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSnapshotMissingInvoice(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewDocumentStatusRepository(db)

	mock.ExpectQuery(`FROM invoices i`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "amount"}))

	_, err := repo.GetSnapshot(ctx, models.DocumentRef{DocType: models.DocTypePurchaseInvoice, Name: "PINV-404"})
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSPTSummaryIsFilingSource(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewDocumentStatusRepository(db)
	ref := models.DocumentRef{DocType: models.DocTypeSPTSummary, Name: "SPTS-1"}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, net_tax_amount as amount FROM spt_summaries WHERE name = ?")).
		WithArgs("SPTS-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "amount"}).AddRow("Submitted", "-20000.00"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE spt_summaries SET status = ?, filing_reference = ?, filing_date = ? WHERE name = ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	snap, err := repo.GetSnapshot(ctx, ref)
	require.NoError(t, err)
	assert.True(t, snap.Amount.Equal(decimal.RequireFromString("-20000")))

	filingRef := "SPT-1"
	filed := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetFilingStamp(ctx, ref, models.DocStatusFiled, &filingRef, &filed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListInvoiceTaxTotalsSharesTaxLineCondition(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewInvoiceRepository(db)

	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)
	patterns := models.PPNFallbackPatterns(models.DocTypeSalesInvoice)
	condition, _ := taxLineCondition(patterns)
	args := append([]interface{}{models.DocTypeSalesInvoice, "PT Maju Jaya", from, to}, likeArgs(patterns)...)

	mock.ExpectQuery(`(?s)LEFT JOIN accounts a ON a\.name = t\.account_head.*` + regexp.QuoteMeta(condition)).
		WithArgs(toDriverArgs(args)...).
		WillReturnRows(sqlmock.NewRows([]string{"name", "doctype", "posting_date", "party", "party_name", "base_net_total", "tax_amount", "status"}).
			AddRow("SINV-001", models.DocTypeSalesInvoice, from, "CUST-001", "PT Pelanggan", "1000000.00", "110000.00", "Submitted"))

	totals, err := repo.ListInvoiceTaxTotals(ctx, models.DocTypeSalesInvoice, "PT Maju Jaya", from, to, patterns)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.True(t, totals[0].TaxAmount.Equal(decimal.RequireFromString("110000")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func toDriverArgs(args []interface{}) []driver.Value {
	out := make([]driver.Value, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}
