package handler

import (
	"context"
	"pajak-web/internal/models"
	"pajak-web/internal/service"
	"pajak-web/internal/utils"
	"pajak-web/internal/worker"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
)

type eventDispatcher interface {
	Handles(doctype, event string) bool
	Dispatch(ctx context.Context, event models.LedgerEvent) []service.Notice
}

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// LedgerEventHandler receives lifecycle notifications from the host ledger.
// With an enqueuer the event is queued for the worker; otherwise the
// callbacks run inside the request.
type LedgerEventHandler struct {
	dispatcher eventDispatcher
	enqueuer   taskEnqueuer
}

func NewLedgerEventHandler(dispatcher eventDispatcher, enqueuer taskEnqueuer) *LedgerEventHandler {
	return &LedgerEventHandler{
		dispatcher: dispatcher,
		enqueuer:   enqueuer,
	}
}

func (h *LedgerEventHandler) Receive(c *fiber.Ctx) error {
	var event models.LedgerEvent
	if err := c.BodyParser(&event); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if event.DocType == "" || event.DocName == "" || event.Event == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "doctype, docname and event are required", nil)
	}
	if event.SentAt.IsZero() {
		event.SentAt = time.Now()
	}

	if !h.dispatcher.Handles(event.DocType, event.Event) {
		return utils.SuccessResponse(c, "No callbacks registered for event", fiber.Map{"handled": false})
	}

	if h.enqueuer != nil {
		task, err := worker.NewLedgerEventTask(event)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to build task", err)
		}
		info, err := h.enqueuer.EnqueueContext(c.UserContext(), task)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to queue ledger event", err)
		}
		return c.Status(fiber.StatusAccepted).JSON(utils.Response{
			Success: true,
			Message: "Ledger event queued",
			Data:    fiber.Map{"handled": true, "job_id": info.ID, "queue": info.Queue},
		})
	}

	notices := h.dispatcher.Dispatch(c.UserContext(), event)
	return utils.SuccessResponse(c, "Ledger event processed", fiber.Map{
		"handled": true,
		"notices": notices,
	})
}
