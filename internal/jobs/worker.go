package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// WorkerConfig configures the background worker and its schedule.
type WorkerConfig struct {
	Concurrency int
	// SweepCron is the cron spec of the pending sweep; empty disables it.
	SweepCron string
}

// NewServer creates the asynq server that executes tasks.
func NewServer(redisOpt asynq.RedisClientOpt, cfg WorkerConfig, logger *zap.Logger) *asynq.Server {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			"default": 1,
		},
		Logger: logger.Sugar(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			logger.Error("task failed",
				zap.String("type", task.Type()),
				zap.Error(err),
			)
		}),
	})
}

// NewScheduler creates the asynq scheduler that enqueues the periodic sweep.
func NewScheduler(redisOpt asynq.RedisClientOpt, cfg WorkerConfig, logger *zap.Logger) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger: logger.Sugar(),
	})
	if cfg.SweepCron == "" {
		return scheduler, nil
	}

	task, err := NewSweepTask(SweepPayload{})
	if err != nil {
		return nil, err
	}
	entryID, err := scheduler.Register(cfg.SweepCron, task, asynq.Unique(time.Minute))
	if err != nil {
		return nil, fmt.Errorf("failed to register pending sweep %q: %w", cfg.SweepCron, err)
	}
	logger.Info("pending sweep scheduled",
		zap.String("cron", cfg.SweepCron),
		zap.String("entry_id", entryID),
	)
	return scheduler, nil
}
