package handler

import (
	"context"
	"encoding/json"
	"pajak-web/internal/models"
	"pajak-web/internal/service"
	"pajak-web/internal/worker"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDispatcher struct {
	handled    map[string]bool
	dispatched []models.LedgerEvent
}

func (d *fakeDispatcher) Handles(doctype, event string) bool {
	return d.handled[doctype+"|"+event]
}

func (d *fakeDispatcher) Dispatch(_ context.Context, event models.LedgerEvent) []service.Notice {
	d.dispatched = append(d.dispatched, event)
	return []service.Notice{{Level: service.NoticeInfo, Message: "Created Efaktur Document EFK-1"}}
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (e *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{ID: "job-1", Queue: worker.QueueCritical}, nil
}

func newLedgerApp(d eventDispatcher, e taskEnqueuer) *fiber.App {
	h := NewLedgerEventHandler(d, e)
	app := fiber.New()
	app.Post("/ledger-events", h.Receive)
	return app
}

const salesSubmit = `{"doctype":"Sales Invoice","docname":"SINV-001","event":"submit","company":"PT Maju Jaya"}`

func TestLedgerEventHandlerValidation(t *testing.T) {
	app := newLedgerApp(&fakeDispatcher{}, nil)

	status, _ := doJSON(t, app, "POST", "/ledger-events", `{"doctype":"Sales Invoice","event":"submit"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := doJSON(t, app, "POST", "/ledger-events", salesSubmit)
	require.Equal(t, fiber.StatusOK, status)
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, false, data["handled"])
}

func TestLedgerEventHandlerInline(t *testing.T) {
	dispatcher := &fakeDispatcher{handled: map[string]bool{"Sales Invoice|submit": true}}
	app := newLedgerApp(dispatcher, nil)

	status, body := doJSON(t, app, "POST", "/ledger-events", salesSubmit)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, dispatcher.dispatched, 1)
	assert.Equal(t, "SINV-001", dispatcher.dispatched[0].DocName)
	assert.False(t, dispatcher.dispatched[0].SentAt.IsZero())

	var data struct {
		Handled bool             `json:"handled"`
		Notices []service.Notice `json:"notices"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.True(t, data.Handled)
	assert.Len(t, data.Notices, 1)
}

func TestLedgerEventHandlerQueued(t *testing.T) {
	dispatcher := &fakeDispatcher{handled: map[string]bool{"Sales Invoice|submit": true}}
	enqueuer := &fakeEnqueuer{}
	app := newLedgerApp(dispatcher, enqueuer)

	status, body := doJSON(t, app, "POST", "/ledger-events", salesSubmit)
	require.Equal(t, fiber.StatusAccepted, status)
	assert.Empty(t, dispatcher.dispatched)
	require.Len(t, enqueuer.tasks, 1)
	assert.Equal(t, worker.TypeLedgerEvent, enqueuer.tasks[0].Type())

	var event models.LedgerEvent
	require.NoError(t, json.Unmarshal(enqueuer.tasks[0].Payload(), &event))
	assert.Equal(t, "SINV-001", event.DocName)

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, "job-1", data["job_id"])
	assert.Equal(t, worker.QueueCritical, data["queue"])
}
