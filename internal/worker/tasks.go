package worker

import (
	"encoding/json"
	"fmt"
	"pajak-web/internal/models"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeLedgerEvent = "ledger:event"

	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// NewLedgerEventTask wraps a host ledger lifecycle event for the worker.
// Postings are tagged on the low queue; document events are critical since
// filings depend on their statutory documents.
func NewLedgerEventTask(event models.LedgerEvent) (*asynq.Task, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ledger event: %w", err)
	}

	return asynq.NewTask(TypeLedgerEvent, payload,
		asynq.Queue(queueFor(event.DocType)),
		asynq.MaxRetry(5),
		asynq.Timeout(2*time.Minute),
	), nil
}

func queueFor(doctype string) string {
	if doctype == models.DocTypeGLEntry {
		return QueueLow
	}
	return QueueCritical
}

func parseLedgerEvent(task *asynq.Task) (models.LedgerEvent, error) {
	var event models.LedgerEvent
	if err := json.Unmarshal(task.Payload(), &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	if event.DocType == "" || event.DocName == "" || event.Event == "" {
		return event, fmt.Errorf("incomplete ledger event: %w", asynq.SkipRetry)
	}
	return event, nil
}
