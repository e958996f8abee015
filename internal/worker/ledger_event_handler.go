package worker

import (
	"context"
	"pajak-web/internal/models"
	"pajak-web/internal/service"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

type dispatcher interface {
	Dispatch(ctx context.Context, event models.LedgerEvent) []service.Notice
}

// LedgerEventHandler runs the registered callbacks of a queued event.
// Callback failures are notices, not task errors: retrying would repeat the
// callbacks that already succeeded.
type LedgerEventHandler struct {
	dispatcher dispatcher
	logger     *logrus.Logger
}

func NewLedgerEventHandler(d dispatcher, logger *logrus.Logger) *LedgerEventHandler {
	return &LedgerEventHandler{
		dispatcher: d,
		logger:     logger,
	}
}

func (h *LedgerEventHandler) Handle(ctx context.Context, task *asynq.Task) error {
	event, err := parseLedgerEvent(task)
	if err != nil {
		return err
	}

	log := h.logger.WithFields(logrus.Fields{
		"doctype": event.DocType,
		"docname": event.DocName,
		"event":   event.Event,
	})
	if id, ok := asynq.GetTaskID(ctx); ok {
		log = log.WithField("task_id", id)
	}
	log.Info("Processing ledger event")

	notices := h.dispatcher.Dispatch(ctx, event)
	failed := 0
	for _, n := range notices {
		if n.Level == service.NoticeError {
			failed++
		}
	}
	log.WithFields(logrus.Fields{"notices": len(notices), "failed": failed}).Info("Ledger event processed")
	return nil
}

func RegisterHandlers(mux *asynq.ServeMux, d dispatcher, logger *logrus.Logger) {
	mux.Handle(TypeLedgerEvent, asynq.HandlerFunc(NewLedgerEventHandler(d, logger).Handle))
}
