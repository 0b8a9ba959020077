package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"marketplace-backend/internal/domains/returns/model"
)

// RepositoryInterface is the returns persistence contract. Both record
// kinds transition through conditional status updates; the WithTx variants
// run inside the logistics task transaction.
type RepositoryInterface interface {
	// ===== Refund requests =====

	CreateRefund(ctx context.Context, request *model.RefundRequest) error
	GetRefund(ctx context.Context, id uuid.UUID) (*model.RefundRequest, error)
	GetOpenRefundByOrder(ctx context.Context, orderID uuid.UUID) (*model.RefundRequest, error)
	ListRefundsBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]model.RefundRequest, int, error)

	UpdateRefundStatus(ctx context.Context, id uuid.UUID, expected, next model.RefundStatus) error
	UpdateRefundStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next model.RefundStatus) error

	// SetRefundWarehouse pins the destination warehouse chosen at approval.
	SetRefundWarehouse(ctx context.Context, id, warehouseID uuid.UUID) error

	// ===== Return-to-seller records =====

	CreateRTS(ctx context.Context, record *model.ReturnToSellerRecord) error
	GetRTS(ctx context.Context, id uuid.UUID) (*model.ReturnToSellerRecord, error)

	UpdateRTSStatus(ctx context.Context, id uuid.UUID, expected, next model.RTSStatus) error
	UpdateRTSStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next model.RTSStatus) error
}
