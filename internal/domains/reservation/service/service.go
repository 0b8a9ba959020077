package service

import (
	"context"
	"fmt"
	"time"

	"marketplace-backend/internal/domains/reservation/model"

	"github.com/google/uuid"
)

const keyPrefix = "reservation:item:"

// KVStore is the shared key/value store the reservation manager runs on.
// Implemented by infrastructure/cache.RedisClient. SetIfAbsent must be a
// single atomic check-and-create, and CompareAndDelete a single atomic
// check-and-delete; a read-then-write sequence would let two holders win.
type KVStore interface {
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (value string, found bool, err error)
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// ItemStateChecker verifies the item is still in a reservable business state.
// A reservation alone does not imply availability: the item must also be
// listed and unsold at acquire time.
type ItemStateChecker interface {
	IsListable(ctx context.Context, itemID uuid.UUID) (bool, error)
}

// Manager hands out short-lived exclusive holds on sellable items.
type Manager interface {
	// Acquire claims the item for holderID. Returns false when another live
	// reservation exists. Single try, callers retry or fail.
	Acquire(ctx context.Context, itemID, holderID uuid.UUID) (bool, error)

	// IsHeld reports whether any live reservation exists for the item.
	IsHeld(ctx context.Context, itemID uuid.UUID) (bool, error)

	// HeldBy reports whether holderID currently holds the item.
	HeldBy(ctx context.Context, itemID, holderID uuid.UUID) (bool, error)

	// Release drops the reservation, refusing to release someone else's.
	Release(ctx context.Context, itemID, holderID uuid.UUID) (bool, error)

	// RemainingTTL answers only for the calling holder; model.ErrNotHeld
	// otherwise.
	RemainingTTL(ctx context.Context, itemID, holderID uuid.UUID) (time.Duration, error)

	// TTL returns the configured hold duration.
	TTL() time.Duration
}

type manager struct {
	kv    KVStore
	items ItemStateChecker
	ttl   time.Duration
}

// NewManager creates a reservation manager with the configured hold TTL.
func NewManager(kv KVStore, items ItemStateChecker, ttl time.Duration) Manager {
	return &manager{kv: kv, items: items, ttl: ttl}
}

func reservationKey(itemID uuid.UUID) string {
	return keyPrefix + itemID.String()
}

func (m *manager) Acquire(ctx context.Context, itemID, holderID uuid.UUID) (bool, error) {
	listable, err := m.items.IsListable(ctx, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to check item state: %w", err)
	}
	if !listable {
		return false, model.ErrItemNotListable
	}

	ok, err := m.kv.SetIfAbsent(ctx, reservationKey(itemID), holderID.String(), m.ttl)
	if err != nil {
		return false, fmt.Errorf("failed to acquire reservation: %w", err)
	}
	return ok, nil
}

func (m *manager) IsHeld(ctx context.Context, itemID uuid.UUID) (bool, error) {
	_, found, err := m.kv.Get(ctx, reservationKey(itemID))
	if err != nil {
		return false, fmt.Errorf("failed to check reservation: %w", err)
	}
	return found, nil
}

func (m *manager) HeldBy(ctx context.Context, itemID, holderID uuid.UUID) (bool, error) {
	value, found, err := m.kv.Get(ctx, reservationKey(itemID))
	if err != nil {
		return false, fmt.Errorf("failed to check reservation: %w", err)
	}
	return found && value == holderID.String(), nil
}

func (m *manager) Release(ctx context.Context, itemID, holderID uuid.UUID) (bool, error) {
	deleted, err := m.kv.CompareAndDelete(ctx, reservationKey(itemID), holderID.String())
	if err != nil {
		return false, fmt.Errorf("failed to release reservation: %w", err)
	}
	return deleted, nil
}

func (m *manager) RemainingTTL(ctx context.Context, itemID, holderID uuid.UUID) (time.Duration, error) {
	held, err := m.HeldBy(ctx, itemID, holderID)
	if err != nil {
		return 0, err
	}
	if !held {
		return 0, model.ErrNotHeld
	}

	ttl, err := m.kv.TTL(ctx, reservationKey(itemID))
	if err != nil {
		return 0, fmt.Errorf("failed to read reservation ttl: %w", err)
	}
	if ttl < 0 {
		return 0, model.ErrNotHeld
	}
	return ttl, nil
}

func (m *manager) TTL() time.Duration {
	return m.ttl
}
