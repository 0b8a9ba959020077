package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ApproveRefundRequest carries the seller's approval. DropoffAddress is
// where the goods should be couriered for a direct sale; consignment
// returns go to a warehouse instead and ignore it.
type ApproveRefundRequest struct {
	DropoffAddress string `json:"dropoff_address"`
}

func (r ApproveRefundRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DropoffAddress, validation.Length(0, 500)),
	)
}

// RejectRefundRequest carries the seller's rejection note.
type RejectRefundRequest struct {
	Note string `json:"note"`
}

func (r RejectRefundRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Note, validation.Length(0, 500)),
	)
}

// ListRefundsRequest pages the seller's refund inbox.
type ListRefundsRequest struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

func (r *ListRefundsRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 || r.Limit > 100 {
		r.Limit = 20
	}
}
