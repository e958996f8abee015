package service

import (
	"context"
	"pajak-web/internal/models"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salesInvoice(name string, taxes ...models.TaxLine) *models.Invoice {
	return &models.Invoice{
		Name:         name,
		DocType:      models.DocTypeSalesInvoice,
		Company:      testCompany,
		PostingDate:  date(2024, 3, 15),
		Party:        "CUST-001",
		PartyName:    "PT Pelanggan",
		BaseNetTotal: dec("1000000"),
		Status:       models.DocStatusSubmitted,
		Items: []models.InvoiceItem{
			{Idx: 1, ItemCode: "SVC-1", ItemName: "Consulting", Qty: dec("1"), BaseRate: dec("700000"), BaseAmount: dec("700000")},
			{Idx: 2, ItemCode: "SVC-2", ItemName: "Training", Qty: dec("1"), BaseRate: dec("300000"), BaseAmount: dec("300000")},
		},
		Taxes: taxes,
	}
}

func TestTaxExtractorMatchesByAccountAndSign(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	e := NewTaxExtractor(newTestResolver(standardAccounts()), logger)

	inv := salesInvoice("SINV-001",
		models.TaxLine{Idx: 1, AccountHead: "2141 - PPN Keluaran - PMJ", TaxAmount: dec("110000")},
		models.TaxLine{Idx: 2, AccountHead: "2143 - Hutang PPh 23 - PMJ", TaxAmount: dec("-20000")},
	)

	ex := e.Extract(ctx, inv, models.TaxRolePPNOut, models.TaxRolePPh23)
	require.False(t, ex.Empty())

	ppn, ok := ex.Fact(models.TaxRolePPNOut)
	require.True(t, ok)
	assert.Equal(t, matchedByAccount, ppn.MatchedBy)
	assert.True(t, dec("110000").Equal(ppn.TaxAmount))
	assert.True(t, dec("11").Equal(ppn.Rate))
	assert.True(t, dec("1000000").Equal(ppn.BaseAmount))

	pph, ok := ex.Fact(models.TaxRolePPh23)
	require.True(t, ok)
	assert.True(t, dec("20000").Equal(pph.TaxAmount))
	assert.True(t, dec("2").Equal(pph.Rate))
}

func TestTaxExtractorRejectsWrongSign(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	e := NewTaxExtractor(newTestResolver(standardAccounts()), logger)

	inv := salesInvoice("SINV-002",
		models.TaxLine{Idx: 1, AccountHead: "2141 - PPN Keluaran - PMJ", TaxAmount: dec("-110000")},
		models.TaxLine{Idx: 2, AccountHead: "2143 - Hutang PPh 23 - PMJ", TaxAmount: dec("20000")},
	)

	ex := e.Extract(ctx, inv, models.TaxRolePPNOut, models.TaxRolePPh23)
	assert.True(t, ex.Empty())
}

func TestTaxExtractorFallsBackToDescription(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	e := NewTaxExtractor(newTestResolver(newFakeAccounts()), logger)

	inv := salesInvoice("SINV-003",
		models.TaxLine{Idx: 1, AccountHead: "2999 - Misc - PMJ", Description: "PPN Keluaran 11%", TaxAmount: dec("110000")},
	)

	ex := e.Extract(ctx, inv, models.TaxRolePPNOut)
	fact, ok := ex.Fact(models.TaxRolePPNOut)
	require.True(t, ok)
	assert.Equal(t, matchedByDescription, fact.MatchedBy)
	assert.Equal(t, "2999 - Misc - PMJ", fact.Account)
}

func TestTaxExtractorFlagsDuplicateRoleLines(t *testing.T) {
	ctx := context.Background()
	logger, hook := test.NewNullLogger()
	e := NewTaxExtractor(newTestResolver(standardAccounts()), logger)

	inv := salesInvoice("SINV-004",
		models.TaxLine{Idx: 1, AccountHead: "2141 - PPN Keluaran - PMJ", TaxAmount: dec("100000")},
		models.TaxLine{Idx: 2, AccountHead: "2141 - PPN Keluaran - PMJ", TaxAmount: dec("10000")},
	)

	ex := e.Extract(ctx, inv, models.TaxRolePPNOut)
	fact, ok := ex.Fact(models.TaxRolePPNOut)
	require.True(t, ok)
	// last line wins
	assert.True(t, dec("10000").Equal(fact.TaxAmount))

	require.Len(t, ex.Issues, 1)
	assert.Equal(t, models.TaxRolePPNOut, ex.Issues[0].Role)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestTaxExtractorZeroBase(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	e := NewTaxExtractor(newTestResolver(standardAccounts()), logger)

	inv := salesInvoice("SINV-005",
		models.TaxLine{Idx: 1, AccountHead: "2141 - PPN Keluaran - PMJ", TaxAmount: dec("1000")},
	)
	inv.BaseNetTotal = dec("0")

	fact, ok := e.Extract(ctx, inv, models.TaxRolePPNOut).Fact(models.TaxRolePPNOut)
	require.True(t, ok)
	assert.True(t, fact.Rate.IsZero())
}
