package service

import (
	"context"
	"pajak-web/internal/models"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reportFixture struct {
	svc        *TaxReportService
	filings    *fakeFilings
	aggregator *aggregatorFixture
}

func newReportFixture() *reportFixture {
	logger, _ := test.NewNullLogger()
	f := &reportFixture{filings: newFakeFilings(), aggregator: newAggregatorFixture()}
	filingSvc := NewTaxFilingService(f.filings, newFakeStatuses(), f.aggregator.aggregator, &fakeTx{}, logger)
	f.svc = NewTaxReportService(f.aggregator.aggregator, f.filings, filingSvc, logger)

	f.aggregator.gl.sums[models.TaxRolePPNOut] = taggedSum{amount: dec("110000"), count: 1}
	f.aggregator.efakturs.docs = []*models.EfakturDocument{{
		Name:          "EFK-1",
		Company:       testCompany,
		ReferenceName: "SINV-1",
		TanggalFaktur: date(2024, 3, 5),
		JumlahDPP:     dec("1000000"),
		JumlahPPN:     dec("110000"),
		Status:        models.DocStatusSubmitted,
	}}
	return f
}

func TestGetTaxReportingData(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture()

	data := f.svc.GetTaxReportingData(ctx, 2024, 3, "PPN", testCompany)
	assert.Empty(t, data.Summary.Error)
	assert.Equal(t, models.TaxCategoryPPN, data.Category)
	assert.Equal(t, march2024, data.Period)
	assert.Equal(t, models.FilingStatusBelumLapor, data.Summary.Status)
	assert.True(t, dec("110000").Equal(data.Summary.TaxBalance))
	require.Len(t, data.Documents, 1)

	f.filings.filings["SPT-1"] = &models.TaxFilingSummary{
		Name:         "SPT-1",
		Company:      testCompany,
		TaxCategory:  models.TaxCategoryPPN,
		MasaPajak:    3,
		TahunPajak:   2024,
		State:        models.FilingStatePaid,
		StatusSPT:    models.FilingStatusKurangBayar,
		PaymentEntry: stringPtr("PAY-1"),
	}
	data = f.svc.GetTaxReportingData(ctx, 2024, 3, "PPN", testCompany)
	assert.Equal(t, "SPT-1", data.Summary.FilingID)
	assert.Equal(t, models.FilingStatePaid, data.Summary.FilingState)
	assert.Equal(t, models.FilingStatusKurangBayar, data.Summary.Status)
	assert.Equal(t, "PAY-1", data.Summary.PaymentID)
}

func TestGetTaxReportingDataReportsErrors(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture()

	tests := []struct {
		name     string
		year     int
		month    int
		category string
	}{
		{"bad month", 2024, 13, "PPN"},
		{"bad year", 1999, 1, "PPN"},
		{"bad category", 2024, 3, "PPnBM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := f.svc.GetTaxReportingData(ctx, tt.year, tt.month, tt.category, testCompany)
			assert.NotEmpty(t, data.Summary.Error)
			assert.Equal(t, models.FilingStatusBelumLapor, data.Summary.Status)
			assert.NotNil(t, data.Documents)
		})
	}
}

func TestGenerateTaxFiling(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture()
	userID := 7
	req := models.GenerateFilingRequest{Year: 2024, Month: 3, TaxCategory: "PPN", Company: testCompany}

	result := f.svc.GenerateTaxFiling(ctx, req, &userID)
	require.Equal(t, models.GenerateStatusSuccess, result.Status, result.Message)
	require.NotEmpty(t, result.FilingID)

	filing := f.filings.filings[result.FilingID]
	require.NotNil(t, filing)
	assert.Equal(t, models.FilingStateDraft, filing.State)
	assert.Equal(t, date(2024, 3, 31), filing.PostingDate)
	assert.True(t, dec("110000").Equal(filing.TaxBalance))
	require.Len(t, filing.SourceDocuments, 1)
	assert.Equal(t, "EFK-1", filing.SourceDocuments[0].DocumentName)
	require.NotNil(t, filing.CreatedBy)
	assert.Equal(t, 7, *filing.CreatedBy)

	again := f.svc.GenerateTaxFiling(ctx, req, &userID)
	assert.Equal(t, models.GenerateStatusExists, again.Status)
	assert.Equal(t, result.FilingID, again.FilingID)
	assert.Len(t, f.filings.filings, 1)
}

func TestGenerateTaxFilingErrors(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture()

	result := f.svc.GenerateTaxFiling(ctx, models.GenerateFilingRequest{Year: 2024, Month: 0, TaxCategory: "PPN", Company: testCompany}, nil)
	assert.Equal(t, models.GenerateStatusError, result.Status)

	// nothing to file for PPh 23 in the period
	result = f.svc.GenerateTaxFiling(ctx, models.GenerateFilingRequest{Year: 2024, Month: 3, TaxCategory: "PPh 23", Company: testCompany}, nil)
	assert.Equal(t, models.GenerateStatusError, result.Status)
	assert.Contains(t, result.Message, ErrNoSourceDocuments.Error())
	assert.Empty(t, f.filings.filings)
}
