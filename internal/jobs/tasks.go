package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeSweepPending cancels primary bookings whose payment was never completed.
const TypeSweepPending = "booking:sweep-pending"

// SweepPayload overrides the sweep defaults for one run. Zero values keep them.
type SweepPayload struct {
	OlderThanSeconds int64 `json:"older_than_seconds,omitempty"`
	BatchSize        int   `json:"batch_size,omitempty"`
}

// NewSweepTask builds a sweep task. A failed sweep is retried once; the next
// scheduled run picks up whatever it missed.
func NewSweepTask(payload SweepPayload) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sweep payload: %w", err)
	}
	return asynq.NewTask(TypeSweepPending, b, asynq.MaxRetry(1)), nil
}
