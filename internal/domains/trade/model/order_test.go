package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to OrderStatus }{
		{StatusPendingShipment, StatusPendingReceipt},
		{StatusPendingShipment, StatusDelivered},
		{StatusPendingShipment, StatusReturnInitiated},
		{StatusPendingReceipt, StatusDelivered},
		{StatusPendingReceipt, StatusConfirmed},
		{StatusPendingReceipt, StatusReturnInitiated},
		{StatusDelivered, StatusConfirmed},
		{StatusDelivered, StatusReturnInitiated},
		{StatusReturnInitiated, StatusReturnedToWarehouse},
		{StatusReturnInitiated, StatusReturnedToSeller},
		{StatusReturnInitiated, StatusReturnNegotiationFailed},
		{StatusReturnedToWarehouse, StatusReturnCompleted},
		{StatusReturnedToSeller, StatusReturnCompleted},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	forbidden := []struct{ from, to OrderStatus }{
		{StatusConfirmed, StatusReturnInitiated},
		{StatusConfirmed, StatusDelivered},
		{StatusPendingShipment, StatusConfirmed},
		{StatusReturnCompleted, StatusPendingShipment},
		{StatusReturnNegotiationFailed, StatusReturnInitiated},
		{StatusDelivered, StatusPendingReceipt},
	}
	for _, tc := range forbidden {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be forbidden", tc.from, tc.to)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, StatusConfirmed.IsTerminal())
	assert.True(t, StatusReturnCompleted.IsTerminal())
	assert.True(t, StatusReturnNegotiationFailed.IsTerminal())
	assert.False(t, StatusPendingReceipt.IsTerminal())
	assert.False(t, StatusReturnInitiated.IsTerminal())
}

func TestOrderStatusRefundable(t *testing.T) {
	assert.True(t, StatusPendingShipment.IsRefundable())
	assert.True(t, StatusPendingReceipt.IsRefundable())
	assert.True(t, StatusDelivered.IsRefundable())
	assert.False(t, StatusConfirmed.IsRefundable())
	assert.False(t, StatusReturnInitiated.IsRefundable())
}
