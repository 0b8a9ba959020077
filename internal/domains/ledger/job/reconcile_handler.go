package job

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"

	"marketplace-backend/internal/domains/ledger/model"
	"marketplace-backend/internal/domains/ledger/repository"
	"marketplace-backend/internal/domains/ledger/service"
	"marketplace-backend/internal/shared"
	"marketplace-backend/pkg/logger"
)

const reconcileBatchSize = 500

// ReconcileHandler runs the nightly chain sweep: every user's chain is
// walked and integrity violations are logged for operators. The sweep never
// mutates the ledger.
type ReconcileHandler struct {
	ledgerService service.ServiceInterface
	repo          repository.RepositoryInterface
}

func NewReconcileHandler(ledgerService service.ServiceInterface, repo repository.RepositoryInterface) *ReconcileHandler {
	return &ReconcileHandler{
		ledgerService: ledgerService,
		repo:          repo,
	}
}

func (h *ReconcileHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload shared.ReconcileLedgerPayload
	if err := shared.UnmarshalTask(t, &payload); err != nil {
		return err
	}

	checked := 0
	broken := 0
	offset := 0
	for {
		userIDs, err := h.repo.ListUserIDs(ctx, reconcileBatchSize, offset)
		if err != nil {
			return err
		}
		if len(userIDs) == 0 {
			break
		}

		for _, userID := range userIDs {
			checked++
			if _, err := h.ledgerService.VerifyChain(ctx, userID); err != nil {
				if errors.Is(err, model.ErrChainBroken) {
					// Already logged with detail by the service.
					broken++
					continue
				}
				return err
			}
		}
		offset += len(userIDs)
	}

	logger.Info("ledger reconciliation sweep finished", map[string]interface{}{
		"chains_checked": checked,
		"chains_broken":  broken,
	})
	return nil
}
