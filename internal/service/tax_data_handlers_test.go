package service

import (
	"context"
	"errors"
	"pajak-web/internal/models"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type aggregatorFixture struct {
	aggregator *TaxDataAggregator
	gl         *fakeGL
	invoices   *fakeInvoices
	slips      *fakeSlips
	efakturs   *fakeEfakturs
	ebupots    *fakeEbupots
}

func newAggregatorFixture() *aggregatorFixture {
	logger, _ := test.NewNullLogger()
	f := &aggregatorFixture{
		gl:       newFakeGL(),
		invoices: newFakeInvoices(),
		slips:    &fakeSlips{},
		efakturs: &fakeEfakturs{},
		ebupots:  &fakeEbupots{},
	}
	f.aggregator = NewTaxDataAggregator(f.gl, f.invoices, f.slips, f.efakturs, f.ebupots, logger)
	return f
}

var march2024 = models.FiscalPeriod{Year: 2024, Month: 3}

func TestAggregatorPPN(t *testing.T) {
	ctx := context.Background()
	f := newAggregatorFixture()
	f.gl.sums[models.TaxRolePPNOut] = taggedSum{amount: dec("110000"), count: 3}
	f.invoices.totals[models.DocTypeSalesInvoice] = []models.InvoiceTaxTotal{
		{Name: "SINV-1", DocType: models.DocTypeSalesInvoice, PostingDate: date(2024, 3, 5), TaxAmount: dec("77000")},
		{Name: "SINV-2", DocType: models.DocTypeSalesInvoice, PostingDate: date(2024, 3, 6), Party: "CUST-2", TaxAmount: dec("33000")},
	}
	f.invoices.totals[models.DocTypePurchaseInvoice] = []models.InvoiceTaxTotal{
		{Name: "PINV-1", DocType: models.DocTypePurchaseInvoice, PostingDate: date(2024, 3, 7), TaxAmount: dec("55000")},
	}
	f.efakturs.docs = []*models.EfakturDocument{
		{Name: "EFK-1", Company: testCompany, ReferenceName: "SINV-1", TanggalFaktur: date(2024, 3, 5), JumlahPPN: dec("77000"), Status: models.DocStatusSubmitted},
		{Name: "EFK-2", Company: testCompany, ReferenceName: "SINV-2", TanggalFaktur: date(2024, 3, 6), Status: models.DocStatusCancelled},
	}

	data, err := f.aggregator.GetData(ctx, models.TaxCategoryPPN, testCompany, march2024.Start(), march2024.End())
	require.NoError(t, err)

	// output from tagged postings, input from the purchase invoice fallback
	require.NotNil(t, data.Summary.PPNOut)
	require.NotNil(t, data.Summary.PPNIn)
	assert.True(t, dec("110000").Equal(*data.Summary.PPNOut))
	assert.True(t, dec("55000").Equal(*data.Summary.PPNIn))
	assert.True(t, dec("55000").Equal(data.Summary.TaxBalance))
	assert.Equal(t, models.FilingStatusKurangBayar, data.Summary.Status)
	assert.Equal(t, date(2024, 4, 30), data.Summary.PaymentDueDate)

	names := make([]string, 0, len(data.Documents))
	for _, d := range data.Documents {
		names = append(names, d.DocName)
	}
	assert.Equal(t, []string{"EFK-1", "SINV-2", "PINV-1"}, names)
	assert.Equal(t, 3, data.Summary.DocumentCount)
	assert.Equal(t, "CUST-2", data.Documents[1].Party)
	assert.True(t, dec("-55000").Equal(data.Documents[2].SignedAmount))
}

func TestAggregatorPPNOverpaid(t *testing.T) {
	ctx := context.Background()
	f := newAggregatorFixture()
	f.gl.sums[models.TaxRolePPNOut] = taggedSum{amount: dec("10000"), count: 1}
	f.gl.sums[models.TaxRolePPNIn] = taggedSum{amount: dec("30000"), count: 2}

	data, err := f.aggregator.GetData(ctx, models.TaxCategoryPPN, testCompany, march2024.Start(), march2024.End())
	require.NoError(t, err)
	assert.True(t, dec("-20000").Equal(data.Summary.TaxBalance))
	assert.Equal(t, models.FilingStatusLebihBayar, data.Summary.Status)
	assert.Empty(t, data.Documents)
}

func TestAggregatorPPh21(t *testing.T) {
	ctx := context.Background()
	f := newAggregatorFixture()
	f.slips.slips = []models.SalarySlip{
		{Name: "SAL-1", EmployeeName: "Budi", GrossPay: dec("10000000"), TotalTaxDeducted: dec("250000"), Status: models.DocStatusSubmitted},
		{Name: "SAL-2", EmployeeName: "Sari", GrossPay: dec("4000000"), TotalTaxDeducted: dec("0"), Status: models.DocStatusSubmitted},
	}

	data, err := f.aggregator.GetData(ctx, models.TaxCategoryPPh21, testCompany, march2024.Start(), march2024.End())
	require.NoError(t, err)
	require.Len(t, data.Documents, 1)
	assert.True(t, dec("10000000").Equal(*data.Summary.IncomeAmount))
	assert.True(t, dec("250000").Equal(*data.Summary.TaxAmount))
	assert.True(t, dec("250000").Equal(data.Summary.TaxBalance))
	assert.Equal(t, date(2024, 4, 10), data.Summary.PaymentDueDate)
}

func TestAggregatorWithholdingSkipsDraftAndCancelled(t *testing.T) {
	ctx := context.Background()
	f := newAggregatorFixture()
	slip := func(name, status, withheld string) *models.EbupotDocument {
		return &models.EbupotDocument{
			Name:             name,
			Company:          testCompany,
			JenisPajak:       string(models.TaxCategoryPPh23),
			TandatanganDate:  date(2024, 3, 10),
			PenghasilanBruto: dec("1000000"),
			PPhDipotong:      dec(withheld),
			Status:           status,
		}
	}
	f.ebupots.docs = []*models.EbupotDocument{
		slip("EBP-1", models.DocStatusSubmitted, "20000"),
		slip("EBP-2", models.DocStatusPaid, "20000"),
		slip("EBP-3", models.DocStatusDraft, "20000"),
		slip("EBP-4", models.DocStatusCancelled, "20000"),
	}

	data, err := f.aggregator.GetData(ctx, models.TaxCategoryPPh23, testCompany, march2024.Start(), march2024.End())
	require.NoError(t, err)
	assert.Equal(t, 2, data.Summary.DocumentCount)
	assert.True(t, dec("40000").Equal(data.Summary.TaxBalance))
	assert.True(t, dec("2000000").Equal(*data.Summary.IncomeAmount))

	empty, err := f.aggregator.GetData(ctx, models.TaxCategoryPPh26, testCompany, march2024.Start(), march2024.End())
	require.NoError(t, err)
	assert.Equal(t, models.FilingStatusNihil, empty.Summary.Status)
}

func TestAggregatorRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	f := newAggregatorFixture()

	_, err := f.aggregator.GetData(ctx, models.TaxCategoryPPN, testCompany, march2024.End(), march2024.Start())
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.True(t, errors.Is(err, models.ErrInvalidPeriod))

	_, err = f.aggregator.GetData(ctx, models.TaxCategory("PPh 4(2)"), testCompany, march2024.Start(), march2024.End())
	assert.Error(t, err)
}
