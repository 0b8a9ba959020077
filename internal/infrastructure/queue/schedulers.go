package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"marketplace-backend/internal/config"
	"marketplace-backend/internal/shared"
	"marketplace-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(redisAddress string, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddress},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

// RegisterJobs registers every cron job the worker runs.
func (s *Scheduler) RegisterJobs() error {
	return s.registerReconcileLedgerJob()
}

// ================================================
// JOB 1: Ledger chain reconciliation (Daily at 3 AM)
// ================================================
func (s *Scheduler) registerReconcileLedgerJob() error {
	payload, err := json.Marshal(shared.ReconcileLedgerPayload{
		BatchSize: s.jobConfig.ReconcileBatchSize,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeReconcileLedger, payload)

	_, err = s.scheduler.Register(
		"0 3 * * *", // Daily at 3 AM, low traffic
		task,
		asynq.Queue(shared.QueueLow),
		asynq.MaxRetry(1),
		asynq.Timeout(30*time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register ReconcileLedger job", map[string]interface{}{"error": err.Error()})
		return err
	}

	logger.Info("✓ Registered ReconcileLedger: daily at 3 AM", map[string]interface{}{})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
