package service

import (
	"context"
	"pajak-web/internal/models"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLinker(ebupots *fakeEbupots, payments *fakePayments) *WithholdingLinker {
	logger, _ := test.NewNullLogger()
	return NewWithholdingLinker(ebupots, payments, newTestResolver(standardAccounts()), logger)
}

func supplierPayment(deductions ...models.PaymentDeduction) *models.PaymentEntry {
	return &models.PaymentEntry{
		Name:        "PAY-001",
		PaymentType: models.PaymentTypePay,
		Company:     testCompany,
		PostingDate: date(2024, 4, 10),
		PartyType:   models.PartyTypeSupplier,
		Party:       "SUP-001",
		Deductions:  deductions,
	}
}

func supplierSlip(name, invoice string, signed time.Time, withheld string) *models.EbupotDocument {
	return &models.EbupotDocument{
		Name:             name,
		Company:          testCompany,
		JenisPajak:       string(models.TaxCategoryPPh23),
		Supplier:         "SUP-001",
		TandatanganDate:  signed,
		ReferenceDoctype: models.DocTypePurchaseInvoice,
		ReferenceName:    invoice,
		PPhDipotong:      dec(withheld),
		Status:           models.DocStatusSubmitted,
	}
}

func TestWithholdingLinkerMatchesReferencedInvoice(t *testing.T) {
	ctx := context.Background()
	ebupots := &fakeEbupots{docs: []*models.EbupotDocument{
		supplierSlip("EBP-OTHER", "PINV-001", date(2024, 3, 1), "5000"),
		supplierSlip("EBP-MATCH", "PINV-001", date(2024, 3, 2), "20000.40"),
	}}
	payments := newFakePayments()
	l := newTestLinker(ebupots, payments)

	payment := supplierPayment(models.PaymentDeduction{ID: 7, Account: "2143 - Hutang PPh 23 - PMJ", Amount: dec("20000")})
	payment.References = []models.PaymentReference{{ReferenceDoctype: models.DocTypePurchaseInvoice, ReferenceName: "PINV-001"}}

	notices := l.LinkDeductions(ctx, payment)
	assert.True(t, hasNotice(notices, NoticeInfo, "EBP-MATCH"))
	require.NotNil(t, payments.links[7])
	assert.Equal(t, "EBP-MATCH", *payments.links[7])
	assert.Equal(t, []string{"PINV-001"}, ebupots.filters[0].ReferenceNames)

	assert.Empty(t, l.MarkPaid(ctx, payment))
	paid := ebupots.docs[1]
	assert.Equal(t, models.DocStatusPaid, paid.Status)
	require.NotNil(t, paid.PaymentEntry)
	assert.Equal(t, "PAY-001", *paid.PaymentEntry)

	assert.Empty(t, l.RevertPaid(ctx, payment))
	assert.Equal(t, models.DocStatusSubmitted, paid.Status)
	assert.Nil(t, paid.PaymentEntry)
	assert.Nil(t, paid.PaymentDate)
}

func TestWithholdingLinkerSupplierWindows(t *testing.T) {
	tests := []struct {
		name     string
		signed   time.Time
		withheld string
		linked   bool
	}{
		{"same month", date(2024, 4, 2), "20000", true},
		{"same month within tolerance", date(2024, 4, 2), "20000.75", true},
		{"same month amount differs", date(2024, 4, 2), "200000", false},
		{"within three months", date(2024, 2, 15), "19999.50", true},
		{"within three months amount differs", date(2024, 2, 15), "999", false},
		{"too old", date(2023, 11, 30), "20000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			ebupots := &fakeEbupots{docs: []*models.EbupotDocument{supplierSlip("EBP-1", "PINV-009", tt.signed, tt.withheld)}}
			payments := newFakePayments()
			l := newTestLinker(ebupots, payments)

			notices := l.LinkDeductions(ctx, supplierPayment(models.PaymentDeduction{ID: 1, Account: "2143 - Hutang PPh 23 - PMJ", Amount: dec("20000")}))
			if tt.linked {
				require.NotNil(t, payments.links[1])
				assert.Equal(t, "EBP-1", *payments.links[1])
			} else {
				assert.Empty(t, payments.links)
				assert.True(t, hasNotice(notices, NoticeInfo, "No E-Bupot found"))
			}
		})
	}
}

func TestWithholdingLinkerSkips(t *testing.T) {
	ctx := context.Background()
	ebupots := &fakeEbupots{docs: []*models.EbupotDocument{supplierSlip("EBP-1", "PINV-001", date(2024, 4, 2), "20000")}}
	payments := newFakePayments()
	l := newTestLinker(ebupots, payments)

	customer := supplierPayment(models.PaymentDeduction{ID: 1, Account: "2143 - Hutang PPh 23 - PMJ", Amount: dec("20000")})
	customer.PartyType = models.PartyTypeCustomer
	assert.Empty(t, l.LinkDeductions(ctx, customer))

	alreadyLinked := supplierPayment(models.PaymentDeduction{ID: 2, Account: "2143 - Hutang PPh 23 - PMJ", Amount: dec("20000"), EbupotDocument: stringPtr("EBP-0")})
	assert.Empty(t, l.LinkDeductions(ctx, alreadyLinked))

	salaryTax := supplierPayment(models.PaymentDeduction{ID: 3, Account: "2142 - Hutang PPh 21 - PMJ", Amount: dec("20000")})
	assert.Empty(t, l.LinkDeductions(ctx, salaryTax))

	numberedSalaryTax := supplierPayment(models.PaymentDeduction{ID: 4, Account: "2123 - Hutang PPh 21 - ABC", Amount: dec("20000")})
	assert.Empty(t, l.LinkDeductions(ctx, numberedSalaryTax))

	assert.Empty(t, payments.links)
}

func TestWithholdingLinkerPicksMatchingAmountInWindow(t *testing.T) {
	ctx := context.Background()
	ebupots := &fakeEbupots{docs: []*models.EbupotDocument{
		supplierSlip("EBP-BIG", "PINV-010", date(2024, 4, 2), "200000"),
		supplierSlip("EBP-SMALL", "PINV-011", date(2024, 4, 3), "5000"),
	}}
	payments := newFakePayments()
	l := newTestLinker(ebupots, payments)

	l.LinkDeductions(ctx, supplierPayment(models.PaymentDeduction{ID: 1, Account: "2143 - Hutang PPh 23 - PMJ", Amount: dec("5000")}))
	require.NotNil(t, payments.links[1])
	assert.Equal(t, "EBP-SMALL", *payments.links[1])
}
