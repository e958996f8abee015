package service

import (
	"context"
	"pajak-web/internal/models"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleDispatcherOrderAndRecovery(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	d := NewLifecycleDispatcher(logger)

	var calls []string
	record := func(name string) LifecycleCallback {
		return func(_ context.Context, e models.LedgerEvent) []Notice {
			calls = append(calls, name)
			return []Notice{info(models.DocumentRef{DocType: e.DocType, Name: e.DocName}, name)}
		}
	}
	d.On(models.DocTypeSalesInvoice, models.EventSubmit, "first", record("first"))
	d.On(models.DocTypeSalesInvoice, models.EventSubmit, "explode", func(context.Context, models.LedgerEvent) []Notice {
		panic("nil invoice")
	})
	d.On(models.DocTypeSalesInvoice, models.EventSubmit, "last", record("last"))

	assert.True(t, d.Handles(models.DocTypeSalesInvoice, models.EventSubmit))
	assert.False(t, d.Handles(models.DocTypeSalesInvoice, models.EventValidate))

	notices := d.Dispatch(ctx, models.LedgerEvent{DocType: models.DocTypeSalesInvoice, DocName: "SINV-1", Event: models.EventSubmit})
	assert.Equal(t, []string{"first", "last"}, calls)
	require.Len(t, notices, 3)
	assert.Equal(t, NoticeError, notices[1].Level)
	assert.Contains(t, notices[1].Message, "explode failed: nil invoice")

	assert.Nil(t, d.Dispatch(ctx, models.LedgerEvent{DocType: "Journal Entry", DocName: "JV-1", Event: models.EventSubmit}))
}

type callbackFixture struct {
	dispatcher *LifecycleDispatcher
	invoices   *fakeInvoices
	payments   *fakePayments
	gl         *fakeGL
	efakturs   *fakeEfakturs
	ebupots    *fakeEbupots
}

func newCallbackFixture() *callbackFixture {
	logger, _ := test.NewNullLogger()
	accounts := standardAccounts()
	resolver := newTestResolver(accounts)
	extractor := NewTaxExtractor(resolver, logger)

	f := &callbackFixture{
		invoices: newFakeInvoices(),
		payments: newFakePayments(),
		gl:       newFakeGL(),
		efakturs: &fakeEfakturs{},
		ebupots:  &fakeEbupots{},
	}
	parties := &fakeParties{}
	callbacks := NewLedgerCallbacks(
		f.invoices, f.payments, f.gl, f.efakturs, f.ebupots,
		NewEfakturSynthesizer(f.invoices, parties, f.efakturs, &fakeSeries{}, extractor, logger),
		NewEbupotSynthesizer(accounts, parties, f.ebupots, extractor, logger),
		NewGLTagger(f.gl, resolver, logger),
		NewWithholdingLinker(f.ebupots, f.payments, resolver, logger),
		logger,
	)
	f.dispatcher = NewLifecycleDispatcher(logger)
	callbacks.Register(f.dispatcher)
	return f
}

func (f *callbackFixture) dispatch(doctype, name, event string) []Notice {
	return f.dispatcher.Dispatch(context.Background(), models.LedgerEvent{DocType: doctype, DocName: name, Event: event})
}

func TestLedgerCallbacksRegistered(t *testing.T) {
	f := newCallbackFixture()
	keys := f.dispatcher.Keys()
	assert.Len(t, keys, 8)
	assert.Equal(t, EventKey{DocType: models.DocTypeGLEntry, Event: models.EventInsert}, keys[0])
}

func TestLedgerCallbacksSalesInvoiceRoundTrip(t *testing.T) {
	f := newCallbackFixture()
	f.invoices.invoices["SINV-1"] = ppnInvoice("SINV-1")

	notices := f.dispatch(models.DocTypeSalesInvoice, "SINV-1", models.EventSubmit)
	assert.True(t, hasNotice(notices, NoticeInfo, "created"))
	require.Len(t, f.efakturs.docs, 1)

	notices = f.dispatch(models.DocTypeSalesInvoice, "SINV-1", models.EventCancel)
	assert.True(t, hasNotice(notices, NoticeInfo, "cancelled"))
	assert.Equal(t, models.DocStatusCancelled, f.efakturs.docs[0].Status)

	// cancelling twice is a no-op
	assert.Empty(t, f.dispatch(models.DocTypeSalesInvoice, "SINV-1", models.EventCancel))

	notices = f.dispatch(models.DocTypeSalesInvoice, "SINV-1", models.EventSubmit)
	assert.True(t, hasNotice(notices, NoticeInfo, "reactivated"))
	assert.Len(t, f.efakturs.docs, 1)
	assert.Equal(t, models.DocStatusSubmitted, f.efakturs.docs[0].Status)
}

func TestLedgerCallbacksPurchaseInvoiceCancel(t *testing.T) {
	f := newCallbackFixture()
	f.invoices.invoices["PINV-1"] = purchaseInvoice("PINV-1",
		models.TaxLine{Idx: 1, AccountHead: "2143 - Hutang PPh 23 - PMJ", TaxAmount: dec("-20000")})

	f.dispatch(models.DocTypePurchaseInvoice, "PINV-1", models.EventSubmit)
	require.Len(t, f.ebupots.docs, 1)

	notices := f.dispatch(models.DocTypePurchaseInvoice, "PINV-1", models.EventCancel)
	assert.True(t, hasNotice(notices, NoticeInfo, "cancelled"))
	assert.Equal(t, models.DocStatusCancelled, f.ebupots.docs[0].Status)
}

func TestLedgerCallbacksPaymentFlow(t *testing.T) {
	f := newCallbackFixture()
	f.ebupots.docs = []*models.EbupotDocument{supplierSlip("EBP-1", "PINV-1", date(2024, 4, 1), "20000")}
	payment := supplierPayment(models.PaymentDeduction{ID: 4, Account: "2143 - Hutang PPh 23 - PMJ", Amount: dec("20000")})
	f.payments.payments[payment.Name] = payment

	f.dispatch(models.DocTypePaymentEntry, payment.Name, models.EventValidate)
	require.NotNil(t, payment.Deductions[0].EbupotDocument)

	f.dispatch(models.DocTypePaymentEntry, payment.Name, models.EventSubmit)
	assert.Equal(t, models.DocStatusPaid, f.ebupots.docs[0].Status)

	f.dispatch(models.DocTypePaymentEntry, payment.Name, models.EventCancel)
	assert.Equal(t, models.DocStatusSubmitted, f.ebupots.docs[0].Status)

	notices := f.dispatch(models.DocTypePaymentEntry, "PAY-MISSING", models.EventSubmit)
	assert.True(t, hasNotice(notices, NoticeError, "Failed to load payment entry"))
}

func TestLedgerCallbacksGLEntry(t *testing.T) {
	f := newCallbackFixture()
	f.gl.entries[42] = &models.GLEntry{
		ID:          42,
		Company:     testCompany,
		Account:     "2141 - PPN Keluaran - PMJ",
		Credit:      dec("110000"),
		VoucherType: models.DocTypeSalesInvoice,
		VoucherNo:   "SINV-1",
	}

	assert.Empty(t, f.dispatch(models.DocTypeGLEntry, "42", models.EventInsert))
	assert.Equal(t, models.TaxRolePPNOut, f.gl.tagged[42])

	notices := f.dispatch(models.DocTypeGLEntry, "not-a-number", models.EventInsert)
	assert.True(t, hasNotice(notices, NoticeError, "Invalid GL entry id"))
}
