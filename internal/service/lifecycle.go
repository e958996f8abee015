package service

import (
	"context"
	"errors"
	"fmt"
	"pajak-web/internal/metrics"
	"pajak-web/internal/models"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"
)

// EventKey selects the callbacks for a host ledger lifecycle event.
type EventKey struct {
	DocType string
	Event   string
}

// LifecycleCallback reacts to one ledger event. Callbacks report through
// notices and never fail the event itself.
type LifecycleCallback func(ctx context.Context, event models.LedgerEvent) []Notice

type registeredCallback struct {
	name string
	fn   LifecycleCallback
}

// LifecycleDispatcher maps ledger events to callbacks through an explicit table.
type LifecycleDispatcher struct {
	callbacks map[EventKey][]registeredCallback
	logger    *logrus.Logger
}

func NewLifecycleDispatcher(logger *logrus.Logger) *LifecycleDispatcher {
	return &LifecycleDispatcher{
		callbacks: make(map[EventKey][]registeredCallback),
		logger:    logger,
	}
}

// On registers fn for doctype/event. Callbacks run in registration order.
func (d *LifecycleDispatcher) On(doctype, event, name string, fn LifecycleCallback) {
	key := EventKey{DocType: doctype, Event: event}
	d.callbacks[key] = append(d.callbacks[key], registeredCallback{name: name, fn: fn})
}

// Handles reports whether any callback is registered for the event.
func (d *LifecycleDispatcher) Handles(doctype, event string) bool {
	return len(d.callbacks[EventKey{DocType: doctype, Event: event}]) > 0
}

// Keys lists the registered events, sorted.
func (d *LifecycleDispatcher) Keys() []EventKey {
	keys := make([]EventKey, 0, len(d.callbacks))
	for k := range d.callbacks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].DocType != keys[j].DocType {
			return keys[i].DocType < keys[j].DocType
		}
		return keys[i].Event < keys[j].Event
	})
	return keys
}

// Dispatch runs every callback registered for the event. A panicking
// callback becomes an error notice; the remaining callbacks still run.
func (d *LifecycleDispatcher) Dispatch(ctx context.Context, event models.LedgerEvent) []Notice {
	key := EventKey{DocType: event.DocType, Event: event.Event}
	callbacks := d.callbacks[key]
	log := d.logger.WithFields(logrus.Fields{"doctype": event.DocType, "docname": event.DocName, "event": event.Event})
	if len(callbacks) == 0 {
		log.Debug("no callbacks for ledger event")
		return nil
	}

	metrics.LedgerEvents.WithLabelValues(event.DocType, event.Event).Inc()

	var notices []Notice
	for _, cb := range callbacks {
		notices = append(notices, d.run(ctx, cb, event, log)...)
	}

	for _, n := range notices {
		entry := log.WithField("callback_source", n.Source.String())
		switch n.Level {
		case NoticeError:
			entry.Error(n.Message)
		case NoticeWarning:
			entry.Warn(n.Message)
		default:
			entry.Info(n.Message)
		}
	}
	return notices
}

func (d *LifecycleDispatcher) run(ctx context.Context, cb registeredCallback, event models.LedgerEvent, log *logrus.Entry) (notices []Notice) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("callback", cb.name).Errorf("callback panicked: %v", r)
			ref := models.DocumentRef{DocType: event.DocType, Name: event.DocName}
			notices = []Notice{failure(ref, fmt.Sprintf("%s failed: %v", cb.name, r))}
		}
	}()
	return cb.fn(ctx, event)
}

// LedgerCallbacks holds the reactions of the tax core to host ledger events.
type LedgerCallbacks struct {
	invoices InvoiceStore
	payments PaymentStore
	gl       GLStore
	efakturs EfakturStore
	ebupots  EbupotStore
	efaktur  *EfakturSynthesizer
	ebupot   *EbupotSynthesizer
	tagger   *GLTagger
	linker   *WithholdingLinker
	logger   *logrus.Logger
}

func NewLedgerCallbacks(
	invoices InvoiceStore,
	payments PaymentStore,
	gl GLStore,
	efakturs EfakturStore,
	ebupots EbupotStore,
	efaktur *EfakturSynthesizer,
	ebupot *EbupotSynthesizer,
	tagger *GLTagger,
	linker *WithholdingLinker,
	logger *logrus.Logger,
) *LedgerCallbacks {
	return &LedgerCallbacks{
		invoices: invoices,
		payments: payments,
		gl:       gl,
		efakturs: efakturs,
		ebupots:  ebupots,
		efaktur:  efaktur,
		ebupot:   ebupot,
		tagger:   tagger,
		linker:   linker,
		logger:   logger,
	}
}

// Register installs the event table on d.
func (c *LedgerCallbacks) Register(d *LifecycleDispatcher) {
	d.On(models.DocTypeSalesInvoice, models.EventSubmit, "efaktur.synthesize", c.onSalesInvoiceSubmit)
	d.On(models.DocTypeSalesInvoice, models.EventCancel, "efaktur.cancel", c.onSalesInvoiceCancel)
	d.On(models.DocTypePurchaseInvoice, models.EventSubmit, "ebupot.synthesize", c.onPurchaseInvoiceSubmit)
	d.On(models.DocTypePurchaseInvoice, models.EventCancel, "ebupot.cancel", c.onPurchaseInvoiceCancel)
	d.On(models.DocTypePaymentEntry, models.EventValidate, "withholding.link", c.onPaymentValidate)
	d.On(models.DocTypePaymentEntry, models.EventSubmit, "withholding.paid", c.onPaymentSubmit)
	d.On(models.DocTypePaymentEntry, models.EventCancel, "withholding.revert", c.onPaymentCancel)
	d.On(models.DocTypeGLEntry, models.EventInsert, "gl.tag", c.onGLEntryInsert)
}

func (c *LedgerCallbacks) onSalesInvoiceSubmit(ctx context.Context, event models.LedgerEvent) []Notice {
	inv, notice := c.loadInvoice(ctx, event)
	if inv == nil {
		return notice
	}
	_, notices := c.efaktur.Synthesize(ctx, inv)
	return notices
}

func (c *LedgerCallbacks) onSalesInvoiceCancel(ctx context.Context, event models.LedgerEvent) []Notice {
	ref := models.DocumentRef{DocType: event.DocType, Name: event.DocName}
	doc, err := c.efakturs.FindEfakturByReference(ctx, event.DocType, event.DocName)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		return []Notice{failure(ref, "Failed to look up E-Faktur: "+err.Error())}
	}
	if doc.Status == models.DocStatusCancelled {
		return nil
	}
	if err := c.efakturs.UpdateEfakturStatus(ctx, doc.Name, models.DocStatusCancelled); err != nil {
		return []Notice{failure(ref, "Failed to cancel E-Faktur "+doc.Name+": "+err.Error())}
	}
	metrics.StatutoryDocuments.WithLabelValues("efaktur", "cancelled").Inc()
	return []Notice{info(ref, "E-Faktur "+doc.Name+" cancelled")}
}

func (c *LedgerCallbacks) onPurchaseInvoiceSubmit(ctx context.Context, event models.LedgerEvent) []Notice {
	inv, notice := c.loadInvoice(ctx, event)
	if inv == nil {
		return notice
	}
	_, notices := c.ebupot.Synthesize(ctx, inv)
	return notices
}

func (c *LedgerCallbacks) onPurchaseInvoiceCancel(ctx context.Context, event models.LedgerEvent) []Notice {
	ref := models.DocumentRef{DocType: event.DocType, Name: event.DocName}
	docs, err := c.ebupots.ListEbupotByReference(ctx, event.DocType, event.DocName)
	if err != nil {
		return []Notice{failure(ref, "Failed to look up E-Bupot: "+err.Error())}
	}

	var notices []Notice
	for _, doc := range docs {
		if doc.Status == models.DocStatusCancelled {
			continue
		}
		if err := c.ebupots.UpdateEbupotStatus(ctx, doc.Name, models.DocStatusCancelled); err != nil {
			notices = append(notices, failure(ref, "Failed to cancel E-Bupot "+doc.Name+": "+err.Error()))
			continue
		}
		metrics.StatutoryDocuments.WithLabelValues("ebupot", "cancelled").Inc()
		notices = append(notices, info(ref, "E-Bupot "+doc.Name+" cancelled"))
	}
	return notices
}

func (c *LedgerCallbacks) onPaymentValidate(ctx context.Context, event models.LedgerEvent) []Notice {
	payment, notice := c.loadPayment(ctx, event)
	if payment == nil {
		return notice
	}
	return c.linker.LinkDeductions(ctx, payment)
}

func (c *LedgerCallbacks) onPaymentSubmit(ctx context.Context, event models.LedgerEvent) []Notice {
	payment, notice := c.loadPayment(ctx, event)
	if payment == nil {
		return notice
	}
	return c.linker.MarkPaid(ctx, payment)
}

func (c *LedgerCallbacks) onPaymentCancel(ctx context.Context, event models.LedgerEvent) []Notice {
	payment, notice := c.loadPayment(ctx, event)
	if payment == nil {
		return notice
	}
	return c.linker.RevertPaid(ctx, payment)
}

func (c *LedgerCallbacks) onGLEntryInsert(ctx context.Context, event models.LedgerEvent) []Notice {
	ref := models.DocumentRef{DocType: event.DocType, Name: event.DocName}
	id, err := strconv.ParseInt(event.DocName, 10, 64)
	if err != nil {
		return []Notice{failure(ref, "Invalid GL entry id "+event.DocName)}
	}
	entry, err := c.gl.GetGLEntry(ctx, id)
	if err != nil {
		return []Notice{failure(ref, "Failed to load GL entry: "+err.Error())}
	}
	if _, _, err := c.tagger.Tag(ctx, entry); err != nil {
		return []Notice{failure(ref, err.Error())}
	}
	return nil
}

func (c *LedgerCallbacks) loadInvoice(ctx context.Context, event models.LedgerEvent) (*models.Invoice, []Notice) {
	inv, err := c.invoices.GetInvoice(ctx, event.DocType, event.DocName)
	if err != nil {
		ref := models.DocumentRef{DocType: event.DocType, Name: event.DocName}
		return nil, []Notice{failure(ref, "Failed to load invoice: "+err.Error())}
	}
	return inv, nil
}

func (c *LedgerCallbacks) loadPayment(ctx context.Context, event models.LedgerEvent) (*models.PaymentEntry, []Notice) {
	payment, err := c.payments.GetPaymentEntry(ctx, event.DocName)
	if err != nil {
		ref := models.DocumentRef{DocType: event.DocType, Name: event.DocName}
		return nil, []Notice{failure(ref, "Failed to load payment entry: "+err.Error())}
	}
	return payment, nil
}
