package model

import (
	"time"

	"github.com/google/uuid"
)

// Reservation is a time-bounded exclusive claim on a sellable item, held by
// one prospective buyer. It lives only in the shared key/value store and is
// never persisted to the system of record: expiry is the cleanup mechanism
// for abandoned holds.
type Reservation struct {
	ItemID    uuid.UUID     `json:"item_id"`
	HolderID  uuid.UUID     `json:"holder_id"`
	Remaining time.Duration `json:"remaining"`
}

// ReserveResponse is returned to the client after a successful acquire.
type ReserveResponse struct {
	ItemID    uuid.UUID `json:"item_id"`
	ExpiresIn int64     `json:"expires_in_seconds"`
}
