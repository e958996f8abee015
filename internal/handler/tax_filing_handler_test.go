package handler

import (
	"context"
	"encoding/json"
	"pajak-web/internal/models"
	"pajak-web/internal/service"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFilingService struct {
	filings    map[string]*models.TaxFilingSummary
	err        error
	lastFilter models.FilingFilter
}

func (f *fakeFilingService) Get(_ context.Context, name string) (*models.TaxFilingSummary, error) {
	if filing, ok := f.filings[name]; ok {
		return filing, nil
	}
	return nil, service.ErrFilingNotFound
}

func (f *fakeFilingService) List(_ context.Context, filter models.FilingFilter) ([]models.TaxFilingSummary, int, error) {
	f.lastFilter = filter
	var out []models.TaxFilingSummary
	for _, filing := range f.filings {
		out = append(out, *filing)
	}
	return out, len(out), nil
}

func (f *fakeFilingService) Update(ctx context.Context, name string, _ models.FilingUpdateRequest) (*models.TaxFilingSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.Get(ctx, name)
}

func (f *fakeFilingService) AddAttachment(ctx context.Context, name string, _ models.FilingAttachmentRequest) (*models.TaxFilingSummary, error) {
	return f.Get(ctx, name)
}

func (f *fakeFilingService) Submit(ctx context.Context, name string) (*models.TaxFilingSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	filing, err := f.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	filing.State = models.FilingStateSubmitted
	return filing, nil
}

func (f *fakeFilingService) Cancel(ctx context.Context, name string) (*models.TaxFilingSummary, []service.Notice, error) {
	filing, err := f.Get(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	filing.State = models.FilingStateCancelled
	return filing, []service.Notice{{Level: service.NoticeWarning, Message: "Could not revert Efaktur Document EFK-1"}}, nil
}

type fakeSettlement struct {
	result   models.SettlementResult
	lastOpts service.AdjustmentOptions
}

func (f *fakeSettlement) GeneratePaymentEntry(context.Context, string) models.SettlementResult {
	return f.result
}

func (f *fakeSettlement) GenerateAdjustmentEntry(_ context.Context, _ string, opts service.AdjustmentOptions) models.SettlementResult {
	f.lastOpts = opts
	return f.result
}

func newFilingApp(filings *fakeFilingService, settlement *fakeSettlement) *fiber.App {
	h := NewTaxFilingHandler(filings, settlement)
	app := fiber.New()
	app.Get("/tax-filings", h.List)
	app.Get("/tax-filings/:id", h.Get)
	app.Put("/tax-filings/:id", h.Update)
	app.Post("/tax-filings/:id/attachments", h.AddAttachment)
	app.Post("/tax-filings/:id/submit", h.Submit)
	app.Post("/tax-filings/:id/cancel", h.Cancel)
	app.Post("/tax-filings/:id/payment-entry", h.GeneratePayment)
	app.Post("/tax-filings/:id/adjustment-entry", h.GenerateAdjustment)
	return app
}

func sampleFilings() *fakeFilingService {
	return &fakeFilingService{filings: map[string]*models.TaxFilingSummary{
		"SPT-1": {Name: "SPT-1", Company: "PT Maju Jaya", TaxCategory: models.TaxCategoryPPN, State: models.FilingStateDraft},
	}}
}

func TestTaxFilingHandlerList(t *testing.T) {
	filings := sampleFilings()
	app := newFilingApp(filings, &fakeSettlement{})

	status, body := doJSON(t, app, "GET", "/tax-filings?company=PT%20Maju%20Jaya&tax_category=pph%2023&year=2024&limit=50", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, body.Success)
	assert.Equal(t, "PPh 23", filings.lastFilter.TaxCategory)
	assert.Equal(t, 2024, filings.lastFilter.Year)
	assert.Equal(t, 50, filings.lastFilter.Limit)

	status, _ = doJSON(t, app, "GET", "/tax-filings?tax_category=PPnBM", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestTaxFilingHandlerLifecycle(t *testing.T) {
	app := newFilingApp(sampleFilings(), &fakeSettlement{})

	status, _ := doJSON(t, app, "GET", "/tax-filings/SPT-404", "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = doJSON(t, app, "POST", "/tax-filings/SPT-1/attachments", `{"title":"Tanda Terima"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := doJSON(t, app, "POST", "/tax-filings/SPT-1/submit", "")
	require.Equal(t, fiber.StatusOK, status)
	var filing models.TaxFilingSummary
	require.NoError(t, json.Unmarshal(body.Data, &filing))
	assert.Equal(t, models.FilingStateSubmitted, filing.State)

	status, body = doJSON(t, app, "POST", "/tax-filings/SPT-1/cancel", "")
	require.Equal(t, fiber.StatusOK, status)
	var cancelled struct {
		Filing  models.TaxFilingSummary `json:"filing"`
		Notices []service.Notice        `json:"notices"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &cancelled))
	assert.Equal(t, models.FilingStateCancelled, cancelled.Filing.State)
	assert.Len(t, cancelled.Notices, 1)
}

func TestTaxFilingHandlerErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &service.ValidationError{Op: "submit filing", Err: service.ErrMissingAttachment}, fiber.StatusBadRequest},
		{"conflict", service.ErrFilingExists, fiber.StatusConflict},
		{"unexpected", assert.AnError, fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filings := sampleFilings()
			filings.err = tt.err
			app := newFilingApp(filings, &fakeSettlement{})

			status, body := doJSON(t, app, "POST", "/tax-filings/SPT-1/submit", "")
			assert.Equal(t, tt.want, status)
			assert.False(t, body.Success)
			assert.Equal(t, tt.err.Error(), body.Error)
		})
	}
}

func TestTaxFilingHandlerSettlement(t *testing.T) {
	settlement := &fakeSettlement{result: models.SettlementResult{Status: models.SettlementStatusSuccess, AdjustmentEntryID: "ADJ-1"}}
	app := newFilingApp(sampleFilings(), settlement)

	status, _ := doJSON(t, app, "POST", "/tax-filings/SPT-1/adjustment-entry", `{"base_rate":"2"}`)
	assert.Equal(t, fiber.StatusCreated, status)
	require.NotNil(t, settlement.lastOpts.BaseRate)
	assert.True(t, decimal.NewFromInt(2).Equal(*settlement.lastOpts.BaseRate))

	status, _ = doJSON(t, app, "POST", "/tax-filings/SPT-1/adjustment-entry", "")
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Nil(t, settlement.lastOpts.BaseRate)

	status, _ = doJSON(t, app, "POST", "/tax-filings/SPT-1/adjustment-entry", `{"base_rate":"abc"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	settlement.result = models.SettlementResult{Status: models.SettlementStatusError, Message: "no tax due for this filing"}
	status, body := doJSON(t, app, "POST", "/tax-filings/SPT-1/payment-entry", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "no tax due for this filing", body.Message)
}
