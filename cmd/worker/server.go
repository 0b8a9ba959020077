package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"

	"marketplace-backend/internal/shared"
	"marketplace-backend/pkg/logger"
)

// asynqServer wraps asynq.Server so shutdown can live next to startup.
type asynqServer struct {
	*asynq.Server
}

// setupAsynqServer creates the Asynq server and starts it in a goroutine.
func setupAsynqServer(redisAddr string, handlers *HandlerRegistry) *asynqServer {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				shared.QueueHigh:    6,
				shared.QueueDefault: 3,
				shared.QueueLow:     1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", map[string]interface{}{
					"type":  task.Type(),
					"error": err.Error(),
				})
			}),
		},
	)

	go func() {
		log.Println("Worker starting...")
		if err := srv.Run(mux); err != nil {
			log.Fatalf("Worker failed: %v", err)
		}
	}()

	return &asynqServer{Server: srv}
}

// Shutdown stops pulling new tasks and waits for in-flight ones.
func (s *asynqServer) Shutdown() {
	s.Server.Stop()
	s.Server.Shutdown()
}
