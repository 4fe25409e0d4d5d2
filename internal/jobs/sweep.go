package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// PendingSweeper cancels stale pending bookings. *application.BookingService
// implements it.
type PendingSweeper interface {
	CancelStalePending(ctx context.Context, createdBefore time.Time, batchSize int) (int, error)
}

// SweepHandler processes TypeSweepPending tasks.
type SweepHandler struct {
	sweeper   PendingSweeper
	threshold time.Duration
	batchSize int
	now       func() time.Time
	logger    *zap.Logger
}

// NewSweepHandler creates a SweepHandler. Bookings pending for longer than
// threshold are cancelled, at most batchSize per run.
func NewSweepHandler(sweeper PendingSweeper, threshold time.Duration, batchSize int, logger *zap.Logger) *SweepHandler {
	if threshold <= 0 {
		threshold = 2 * time.Hour
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &SweepHandler{
		sweeper:   sweeper,
		threshold: threshold,
		batchSize: batchSize,
		now:       time.Now,
		logger:    logger,
	}
}

// ProcessTask implements asynq.Handler.
func (h *SweepHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var p SweepPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			h.logger.Error("invalid sweep payload", zap.Error(err))
			return fmt.Errorf("invalid sweep payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	threshold := h.threshold
	if p.OlderThanSeconds > 0 {
		threshold = time.Duration(p.OlderThanSeconds) * time.Second
	}
	batch := h.batchSize
	if p.BatchSize > 0 {
		batch = p.BatchSize
	}

	cutoff := h.now().Add(-threshold)
	n, err := h.sweeper.CancelStalePending(ctx, cutoff, batch)
	if err != nil {
		h.logger.Error("pending sweep failed", zap.Time("cutoff", cutoff), zap.Error(err))
		return err
	}
	if n > 0 {
		h.logger.Info("stale pending bookings cancelled",
			zap.Int("count", n),
			zap.Time("cutoff", cutoff),
		)
	}
	return nil
}

// Register mounts the handler on mux.
func (h *SweepHandler) Register(mux *asynq.ServeMux) {
	mux.Handle(TypeSweepPending, h)
}
