package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// DeliveryInfo is the resolved destination for a consignment shipment. It
// must already be geocoded; raw free-form addresses are rejected upstream.
type DeliveryInfo struct {
	FormattedAddress string  `json:"formatted_address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
}

// Validate checks that the destination is complete and on the globe.
func (d DeliveryInfo) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.FormattedAddress, validation.Required),
		validation.Field(&d.Latitude, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&d.Longitude, validation.Min(-180.0), validation.Max(180.0)),
	)
}

// PurchaseDirectRequest buys a seller-held item; the seller hands it over
// directly or the buyer collects it.
type PurchaseDirectRequest struct {
	ItemID     uuid.UUID `json:"item_id"`
	PaymentRef string    `json:"payment_ref"`
	SelfPickup bool      `json:"self_pickup"`
}

func (r PurchaseDirectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ItemID, validation.By(notNilUUID)),
		validation.Field(&r.PaymentRef, validation.Required),
	)
}

// PurchaseConsignmentRequest buys a warehouse-stocked item with delivery.
type PurchaseConsignmentRequest struct {
	ItemID     uuid.UUID    `json:"item_id"`
	PaymentRef string       `json:"payment_ref"`
	Delivery   DeliveryInfo `json:"delivery"`
}

func (r PurchaseConsignmentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ItemID, validation.By(notNilUUID)),
		validation.Field(&r.PaymentRef, validation.Required),
		validation.Field(&r.Delivery),
	)
}

// ConfirmReceiptRequest closes the trade from the buyer side.
type ConfirmReceiptRequest struct {
	Review string `json:"review"` // optional
}

// RequestRefundRequest opens a return negotiation.
type RequestRefundRequest struct {
	Reason        string `json:"reason"`
	PickupAddress string `json:"pickup_address"`
}

func (r RequestRefundRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.Required, validation.Length(3, 500)),
		validation.Field(&r.PickupAddress, validation.Required),
	)
}

// ListOrdersRequest filters a user's orders.
type ListOrdersRequest struct {
	Status *OrderStatus `form:"status"`
	Page   int          `form:"page"`
	Limit  int          `form:"limit"`
}

// Normalize clamps paging parameters to sane values.
func (r *ListOrdersRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 || r.Limit > 100 {
		r.Limit = 20
	}
}

func notNilUUID(value interface{}) error {
	id, _ := value.(uuid.UUID)
	if id == uuid.Nil {
		return validation.NewError("validation_required", "cannot be blank")
	}
	return nil
}
