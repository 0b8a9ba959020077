package main

import (
	"github.com/hibiken/asynq"

	ledgerjob "marketplace-backend/internal/domains/ledger/job"
	returnsjob "marketplace-backend/internal/domains/returns/job"
	tradejob "marketplace-backend/internal/domains/trade/job"
	"marketplace-backend/internal/shared"
	"marketplace-backend/pkg/container"
)

// HandlerRegistry holds all background job handlers.
type HandlerRegistry struct {
	tradeNotify   *tradejob.NotifyHandler
	returnsNotify *returnsjob.NotifyHandler
	reconcile     *ledgerjob.ReconcileHandler
}

// initializeHandlers creates all job handlers with their dependencies.
// Notifications go through LogNotifier until a real push/email channel
// is plugged in.
func initializeHandlers(c *container.Container) *HandlerRegistry {
	notifier := tradejob.LogNotifier{}

	return &HandlerRegistry{
		tradeNotify:   tradejob.NewNotifyHandler(notifier),
		returnsNotify: returnsjob.NewNotifyHandler(notifier),
		reconcile:     ledgerjob.NewReconcileHandler(c.LedgerService, c.LedgerRepo),
	}
}

// RegisterHandlers maps task types onto their handlers.
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeNotifyOrderCreated, h.tradeNotify.HandleOrderCreated)
	mux.HandleFunc(shared.TypeNotifyOrderConfirmed, h.tradeNotify.HandleOrderConfirmed)
	mux.HandleFunc(shared.TypeNotifyRefundRequest, h.tradeNotify.HandleRefundRequested)
	mux.HandleFunc(shared.TypeNotifyRefundDecided, h.returnsNotify.HandleRefundDecided)

	mux.HandleFunc(shared.TypeReconcileLedger, h.reconcile.ProcessTask)
}
