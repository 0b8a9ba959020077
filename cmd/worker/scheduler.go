package main

import (
	"log"

	"marketplace-backend/internal/config"
	"marketplace-backend/internal/infrastructure/queue"
)

// asynqScheduler wraps queue.Scheduler so shutdown can live next to startup.
type asynqScheduler struct {
	*queue.Scheduler
}

// setupScheduler registers the cron jobs and starts the scheduler in a
// goroutine.
func setupScheduler(redisAddr string, jobConfig config.JobConfig) *asynqScheduler {
	scheduler := queue.NewScheduler(redisAddr, jobConfig)

	if err := scheduler.RegisterJobs(); err != nil {
		log.Fatalf("Failed to register scheduled jobs: %v", err)
	}

	go func() {
		log.Println("Scheduler starting...")
		if err := scheduler.Start(); err != nil {
			log.Fatalf("Scheduler failed: %v", err)
		}
	}()

	return &asynqScheduler{Scheduler: scheduler}
}

func (s *asynqScheduler) Shutdown() {
	s.Scheduler.Shutdown()
}
