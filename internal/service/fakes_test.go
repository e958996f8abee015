package service

import (
	"context"
	"errors"
	"fmt"
	"pajak-web/internal/models"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// In-memory implementations of the storage ports.

var errBoom = errors.New("boom")

func notFoundErr(what string) error {
	return fmt.Errorf("%s: %w", what, models.ErrNotFound)
}

type fakeAccounts struct {
	accounts  []models.Account
	bindings  map[string]models.AccountBinding
	companies map[string]models.Company
	listCalls int
}

func newFakeAccounts(accounts ...models.Account) *fakeAccounts {
	return &fakeAccounts{
		accounts:  accounts,
		bindings:  make(map[string]models.AccountBinding),
		companies: make(map[string]models.Company),
	}
}

func (f *fakeAccounts) GetAccount(_ context.Context, name string) (*models.Account, error) {
	for _, a := range f.accounts {
		if a.Name == name {
			a := a
			return &a, nil
		}
	}
	return nil, notFoundErr("account")
}

func (f *fakeAccounts) ListAccounts(_ context.Context, company string, types []string) ([]models.Account, error) {
	f.listCalls++
	var out []models.Account
	for _, a := range f.accounts {
		if a.Company != company || a.IsGroup {
			continue
		}
		if len(types) > 0 && !contains(types, a.AccountType) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeAccounts) GetBinding(_ context.Context, company string, role models.TaxRole) (*models.AccountBinding, error) {
	b, ok := f.bindings[company+"|"+string(role)]
	if !ok {
		return nil, notFoundErr("binding")
	}
	return &b, nil
}

func (f *fakeAccounts) ListBindings(_ context.Context, company string) ([]models.AccountBinding, error) {
	var out []models.AccountBinding
	for _, b := range f.bindings {
		if b.Company == company {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeAccounts) SaveBinding(_ context.Context, b *models.AccountBinding) error {
	f.bindings[b.Company+"|"+string(b.TaxRole)] = *b
	return nil
}

func (f *fakeAccounts) DeleteBinding(_ context.Context, company string, role models.TaxRole) error {
	delete(f.bindings, company+"|"+string(role))
	return nil
}

func (f *fakeAccounts) GetCompany(_ context.Context, name string) (*models.Company, error) {
	c, ok := f.companies[name]
	if !ok {
		return nil, notFoundErr("company")
	}
	return &c, nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

type fakeParties struct {
	parties []models.Party
	created []models.Party
}

func (f *fakeParties) GetParty(_ context.Context, partyType, name string) (*models.Party, error) {
	for _, p := range f.parties {
		if p.PartyType == partyType && p.Name == name {
			p := p
			return &p, nil
		}
	}
	return nil, notFoundErr("party")
}

func (f *fakeParties) FindSupplierByKeywords(_ context.Context, keywords []string) (*models.Party, error) {
	for _, p := range f.parties {
		if p.PartyType != models.PartyTypeSupplier {
			continue
		}
		name := strings.ToLower(p.DisplayName())
		for _, k := range keywords {
			if strings.Contains(name, strings.ToLower(k)) {
				p := p
				return &p, nil
			}
		}
	}
	return nil, notFoundErr("supplier")
}

func (f *fakeParties) CreateParty(_ context.Context, p *models.Party) error {
	f.parties = append(f.parties, *p)
	f.created = append(f.created, *p)
	return nil
}

func (f *fakeParties) checkpoint() func() {
	parties, created := len(f.parties), len(f.created)
	return func() {
		f.parties = f.parties[:parties]
		f.created = f.created[:created]
	}
}

type fakeInvoices struct {
	invoices map[string]*models.Invoice
	totals   map[string][]models.InvoiceTaxTotal
	marked   []string
}

func newFakeInvoices(invoices ...*models.Invoice) *fakeInvoices {
	f := &fakeInvoices{invoices: make(map[string]*models.Invoice), totals: make(map[string][]models.InvoiceTaxTotal)}
	for _, inv := range invoices {
		f.invoices[inv.Name] = inv
	}
	return f
}

func (f *fakeInvoices) GetInvoice(_ context.Context, doctype, name string) (*models.Invoice, error) {
	inv, ok := f.invoices[name]
	if !ok || inv.DocType != doctype {
		return nil, notFoundErr("invoice")
	}
	return inv, nil
}

func (f *fakeInvoices) MarkEfakturGenerated(_ context.Context, name string) error {
	f.marked = append(f.marked, name)
	return nil
}

func (f *fakeInvoices) ListInvoiceTaxTotals(_ context.Context, doctype, _ string, _, _ time.Time, _ []string) ([]models.InvoiceTaxTotal, error) {
	return f.totals[doctype], nil
}

type fakeSlips struct {
	slips []models.SalarySlip
}

func (f *fakeSlips) ListTaxedSalarySlips(context.Context, string, time.Time, time.Time) ([]models.SalarySlip, error) {
	return f.slips, nil
}

type taggedSum struct {
	amount decimal.Decimal
	count  int
}

type fakeGL struct {
	entries map[int64]*models.GLEntry
	sums    map[models.TaxRole]taggedSum
	tagged  map[int64]models.TaxRole
}

func newFakeGL() *fakeGL {
	return &fakeGL{
		entries: make(map[int64]*models.GLEntry),
		sums:    make(map[models.TaxRole]taggedSum),
		tagged:  make(map[int64]models.TaxRole),
	}
}

func (f *fakeGL) GetGLEntry(_ context.Context, id int64) (*models.GLEntry, error) {
	e, ok := f.entries[id]
	if !ok {
		return nil, notFoundErr("gl entry")
	}
	return e, nil
}

func (f *fakeGL) TagGLEntry(_ context.Context, id int64, role models.TaxRole, _, _ string) error {
	f.tagged[id] = role
	return nil
}

func (f *fakeGL) SumTagged(_ context.Context, _ string, role models.TaxRole, _, _ time.Time) (decimal.Decimal, int, error) {
	s := f.sums[role]
	return s.amount, s.count, nil
}

type fakePayments struct {
	payments  map[string]*models.PaymentEntry
	created   []*models.PaymentEntry
	links     map[int]*string
	createErr error
}

func newFakePayments() *fakePayments {
	return &fakePayments{payments: make(map[string]*models.PaymentEntry), links: make(map[int]*string)}
}

func (f *fakePayments) GetPaymentEntry(_ context.Context, name string) (*models.PaymentEntry, error) {
	p, ok := f.payments[name]
	if !ok {
		return nil, notFoundErr("payment entry")
	}
	return p, nil
}

func (f *fakePayments) CreatePaymentEntry(_ context.Context, p *models.PaymentEntry) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.payments[p.Name] = p
	f.created = append(f.created, p)
	return nil
}

func (f *fakePayments) checkpoint() func() {
	payments := make(map[string]*models.PaymentEntry, len(f.payments))
	for k, v := range f.payments {
		payments[k] = v
	}
	created := len(f.created)
	return func() {
		f.payments = payments
		f.created = f.created[:created]
	}
}

func (f *fakePayments) SetDeductionEbupot(_ context.Context, id int, ebupot *string) error {
	f.links[id] = ebupot
	return nil
}

type fakeSeries struct {
	next int
	err  error
}

func (f *fakeSeries) NextFakturNumber(context.Context, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.next++
	return fmt.Sprintf("010.000-24.%08d", f.next), nil
}

type fakeEfakturs struct {
	docs      []*models.EfakturDocument
	createErr error
}

func (f *fakeEfakturs) GetEfaktur(_ context.Context, name string) (*models.EfakturDocument, error) {
	for _, d := range f.docs {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, notFoundErr("e-faktur")
}

func (f *fakeEfakturs) FindEfakturByReference(_ context.Context, doctype, name string) (*models.EfakturDocument, error) {
	for i := len(f.docs) - 1; i >= 0; i-- {
		if f.docs[i].ReferenceDoctype == doctype && f.docs[i].ReferenceName == name {
			return f.docs[i], nil
		}
	}
	return nil, notFoundErr("e-faktur")
}

func (f *fakeEfakturs) CreateEfaktur(_ context.Context, doc *models.EfakturDocument) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.docs = append(f.docs, doc)
	return nil
}

func (f *fakeEfakturs) UpdateEfakturStatus(ctx context.Context, name, status string) error {
	d, err := f.GetEfaktur(ctx, name)
	if err != nil {
		return err
	}
	d.Status = status
	return nil
}

func (f *fakeEfakturs) ListEfakturByPeriod(_ context.Context, company string, from, to time.Time) ([]models.EfakturDocument, error) {
	var out []models.EfakturDocument
	for _, d := range f.docs {
		if d.Company == company && !d.TanggalFaktur.Before(from) && !d.TanggalFaktur.After(to) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeEfakturs) ListEfakturReferenceNames(_ context.Context, company string) ([]string, error) {
	var out []string
	for _, d := range f.docs {
		if d.Company == company && d.Status != models.DocStatusCancelled {
			out = append(out, d.ReferenceName)
		}
	}
	return out, nil
}

type fakeEbupots struct {
	docs    []*models.EbupotDocument
	filters []models.EbupotFilter
}

func (f *fakeEbupots) GetEbupot(_ context.Context, name string) (*models.EbupotDocument, error) {
	for _, d := range f.docs {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, notFoundErr("e-bupot")
}

func (f *fakeEbupots) ListEbupotByReference(_ context.Context, doctype, name string) ([]models.EbupotDocument, error) {
	var out []models.EbupotDocument
	for _, d := range f.docs {
		if d.ReferenceDoctype == doctype && d.ReferenceName == name {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeEbupots) CreateEbupot(_ context.Context, doc *models.EbupotDocument) error {
	f.docs = append(f.docs, doc)
	return nil
}

func (f *fakeEbupots) UpdateEbupotStatus(ctx context.Context, name, status string) error {
	d, err := f.GetEbupot(ctx, name)
	if err != nil {
		return err
	}
	d.Status = status
	return nil
}

func (f *fakeEbupots) SetEbupotPayment(ctx context.Context, name string, paymentEntry *string, paymentDate *time.Time, status string) error {
	d, err := f.GetEbupot(ctx, name)
	if err != nil {
		return err
	}
	d.PaymentEntry, d.PaymentDate, d.Status = paymentEntry, paymentDate, status
	return nil
}

func (f *fakeEbupots) ListEbupotByPeriod(_ context.Context, company, jenisPajak string, from, to time.Time) ([]models.EbupotDocument, error) {
	var out []models.EbupotDocument
	for _, d := range f.docs {
		if d.Company == company && d.JenisPajak == jenisPajak && !d.TandatanganDate.Before(from) && !d.TandatanganDate.After(to) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeEbupots) FindEbupots(_ context.Context, filter models.EbupotFilter) ([]models.EbupotDocument, error) {
	f.filters = append(f.filters, filter)
	var out []models.EbupotDocument
	for _, d := range f.docs {
		switch {
		case d.Status == models.DocStatusCancelled,
			filter.Company != "" && d.Company != filter.Company,
			filter.JenisPajak != "" && d.JenisPajak != filter.JenisPajak,
			filter.Supplier != "" && d.Supplier != filter.Supplier,
			!filter.From.IsZero() && d.TandatanganDate.Before(filter.From),
			!filter.To.IsZero() && d.TandatanganDate.After(filter.To),
			filter.Unlinked && d.PaymentEntry != nil,
			len(filter.ReferenceNames) > 0 && !contains(filter.ReferenceNames, d.ReferenceName):
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

type fakeFilings struct {
	filings   map[string]*models.TaxFilingSummary
	updateErr error
	updates   int
}

func newFakeFilings() *fakeFilings {
	return &fakeFilings{filings: make(map[string]*models.TaxFilingSummary)}
}

func (f *fakeFilings) GetFiling(_ context.Context, name string) (*models.TaxFilingSummary, error) {
	filing, ok := f.filings[name]
	if !ok {
		return nil, notFoundErr("tax filing")
	}
	cp := *filing
	cp.SourceDocuments = append([]models.FilingSourceDocument(nil), filing.SourceDocuments...)
	cp.PaymentDocuments = append([]models.FilingPaymentDocument(nil), filing.PaymentDocuments...)
	cp.Attachments = append([]models.FilingAttachment(nil), filing.Attachments...)
	return &cp, nil
}

func (f *fakeFilings) FindActiveFiling(ctx context.Context, company string, category models.TaxCategory, period models.FiscalPeriod) (*models.TaxFilingSummary, error) {
	for _, filing := range f.filings {
		if filing.Company == company && filing.TaxCategory == category && filing.Period() == period && filing.State != models.FilingStateCancelled {
			return f.GetFiling(ctx, filing.Name)
		}
	}
	return nil, notFoundErr("active tax filing")
}

func (f *fakeFilings) ListFilings(_ context.Context, filter models.FilingFilter) ([]models.TaxFilingSummary, int, error) {
	var out []models.TaxFilingSummary
	for _, filing := range f.filings {
		if filter.Company == "" || filing.Company == filter.Company {
			out = append(out, *filing)
		}
	}
	return out, len(out), nil
}

func (f *fakeFilings) CreateFiling(_ context.Context, filing *models.TaxFilingSummary) error {
	cp := *filing
	f.filings[filing.Name] = &cp
	return nil
}

func (f *fakeFilings) UpdateFiling(_ context.Context, filing *models.TaxFilingSummary) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.filings[filing.Name]; !ok {
		return notFoundErr("tax filing")
	}
	f.updates++
	cp := *filing
	f.filings[filing.Name] = &cp
	return nil
}

func (f *fakeFilings) checkpoint() func() {
	filings := make(map[string]*models.TaxFilingSummary, len(f.filings))
	for k, v := range f.filings {
		cp := *v
		filings[k] = &cp
	}
	updates := f.updates
	return func() {
		f.filings = filings
		f.updates = updates
	}
}

type fakeAdjustments struct {
	created   []*models.TaxAdjustmentEntry
	createErr error
}

func (f *fakeAdjustments) CreateAdjustment(_ context.Context, entry *models.TaxAdjustmentEntry) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, entry)
	return nil
}

func (f *fakeAdjustments) checkpoint() func() {
	created := len(f.created)
	return func() { f.created = f.created[:created] }
}

type fakeSPTSummaries struct {
	summaries map[string]*models.SPTSummary
	updateErr error
}

func newFakeSPTSummaries(summaries ...*models.SPTSummary) *fakeSPTSummaries {
	f := &fakeSPTSummaries{summaries: make(map[string]*models.SPTSummary)}
	for _, s := range summaries {
		f.summaries[s.Name] = s
	}
	return f
}

func (f *fakeSPTSummaries) GetSPTSummary(_ context.Context, name string) (*models.SPTSummary, error) {
	s, ok := f.summaries[name]
	if !ok {
		return nil, notFoundErr("spt summary")
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSPTSummaries) FindActiveSPTSummary(ctx context.Context, company string, jenis models.TaxCategory, period models.FiscalPeriod) (*models.SPTSummary, error) {
	for _, s := range f.summaries {
		if s.Company == company && s.JenisSPT == jenis && s.Period() == period && s.Status != models.DocStatusCancelled {
			return f.GetSPTSummary(ctx, s.Name)
		}
	}
	return nil, notFoundErr("active spt summary")
}

func (f *fakeSPTSummaries) ListSPTSummaries(_ context.Context, filter models.SPTSummaryFilter) ([]models.SPTSummary, error) {
	var out []models.SPTSummary
	for _, s := range f.summaries {
		if filter.Company == "" || s.Company == filter.Company {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSPTSummaries) CreateSPTSummary(_ context.Context, summary *models.SPTSummary) error {
	cp := *summary
	f.summaries[summary.Name] = &cp
	return nil
}

func (f *fakeSPTSummaries) UpdateSPTSummary(_ context.Context, summary *models.SPTSummary) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.summaries[summary.Name]; !ok {
		return notFoundErr("spt summary")
	}
	cp := *summary
	f.summaries[summary.Name] = &cp
	return nil
}

func (f *fakeSPTSummaries) checkpoint() func() {
	summaries := make(map[string]*models.SPTSummary, len(f.summaries))
	for k, v := range f.summaries {
		cp := *v
		summaries[k] = &cp
	}
	return func() { f.summaries = summaries }
}

type fakePenyelesaian struct {
	records map[string]*models.PenyelesaianPajak
}

func newFakePenyelesaian() *fakePenyelesaian {
	return &fakePenyelesaian{records: make(map[string]*models.PenyelesaianPajak)}
}

func (f *fakePenyelesaian) GetPenyelesaian(_ context.Context, name string) (*models.PenyelesaianPajak, error) {
	r, ok := f.records[name]
	if !ok {
		return nil, notFoundErr("tax settlement")
	}
	cp := *r
	return &cp, nil
}

func (f *fakePenyelesaian) ListPenyelesaian(_ context.Context, filter models.PenyelesaianFilter) ([]models.PenyelesaianPajak, error) {
	var out []models.PenyelesaianPajak
	for _, r := range f.records {
		if filter.Status == "" || r.Status == filter.Status {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakePenyelesaian) CreatePenyelesaian(_ context.Context, record *models.PenyelesaianPajak) error {
	cp := *record
	f.records[record.Name] = &cp
	return nil
}

func (f *fakePenyelesaian) UpdatePenyelesaian(_ context.Context, record *models.PenyelesaianPajak) error {
	if _, ok := f.records[record.Name]; !ok {
		return notFoundErr("tax settlement")
	}
	cp := *record
	f.records[record.Name] = &cp
	return nil
}

func (f *fakePenyelesaian) checkpoint() func() {
	records := make(map[string]*models.PenyelesaianPajak, len(f.records))
	for k, v := range f.records {
		cp := *v
		records[k] = &cp
	}
	return func() { f.records = records }
}

type stamp struct {
	status     string
	filingRef  *string
	filingDate *time.Time
}

type fakeStatuses struct {
	snapshots map[models.DocumentRef]models.DocumentSnapshot
	stamps    map[models.DocumentRef]stamp
	failOn    map[models.DocumentRef]bool
}

func newFakeStatuses() *fakeStatuses {
	return &fakeStatuses{
		snapshots: make(map[models.DocumentRef]models.DocumentSnapshot),
		stamps:    make(map[models.DocumentRef]stamp),
		failOn:    make(map[models.DocumentRef]bool),
	}
}

func (f *fakeStatuses) GetSnapshot(_ context.Context, ref models.DocumentRef) (*models.DocumentSnapshot, error) {
	s, ok := f.snapshots[ref]
	if !ok {
		return nil, notFoundErr(ref.String())
	}
	return &s, nil
}

func (f *fakeStatuses) SetFilingStamp(_ context.Context, ref models.DocumentRef, status string, filingRef *string, filingDate *time.Time) error {
	if f.failOn[ref] {
		return errBoom
	}
	f.stamps[ref] = stamp{status: status, filingRef: filingRef, filingDate: filingDate}
	if s, ok := f.snapshots[ref]; ok {
		s.Status = status
		f.snapshots[ref] = s
	}
	return nil
}

// txParticipant is a fake store whose writes fakeTx can discard.
type txParticipant interface {
	// checkpoint returns a function restoring the current contents.
	checkpoint() func()
}

// fakeTx runs fn directly and, when fn fails, restores every participant
// to its state before the call.
type fakeTx struct {
	calls     int
	rollbacks int
	stores    []txParticipant
}

func (f *fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	f.calls++
	restores := make([]func(), 0, len(f.stores))
	for _, s := range f.stores {
		restores = append(restores, s.checkpoint())
	}
	if err := fn(ctx); err != nil {
		for _, restore := range restores {
			restore()
		}
		f.rollbacks++
		return err
	}
	return nil
}

type fakeUsers struct {
	users []*models.User
}

func (f *fakeUsers) find(match func(*models.User) bool) (*models.User, error) {
	for _, u := range f.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, notFoundErr("user")
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Username == username })
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Email == email })
}

func (f *fakeUsers) FindByID(_ context.Context, id int) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	u.ID = len(f.users) + 1
	f.users = append(f.users, u)
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local)
}
