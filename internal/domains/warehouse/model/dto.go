package model

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// RequestIntakeRequest asks for a courier to bring a consignment item in.
type RequestIntakeRequest struct {
	ItemID        uuid.UUID `json:"item_id"`
	PickupAddress string    `json:"pickup_address"`
}

func (r RequestIntakeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ItemID, validation.By(notNilUUID)),
		validation.Field(&r.PickupAddress, validation.Required, validation.Length(5, 500)),
	)
}

func notNilUUID(value interface{}) error {
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return errors.New("must be a valid UUID")
	}
	return nil
}
