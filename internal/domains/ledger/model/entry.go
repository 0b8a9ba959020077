package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind classifies a balance-affecting transaction.
type Kind string

const (
	KindDeposit     Kind = "deposit"
	KindWithdrawal  Kind = "withdrawal"
	KindPurchase    Kind = "purchase"
	KindCommission  Kind = "commission"
	KindBillPayment Kind = "bill_payment"
	KindRefund      Kind = "refund"
	// KindAdjustment is the only kind allowed to drive a balance negative
	// (manual corrections by platform operators).
	KindAdjustment Kind = "adjustment"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindDeposit, KindWithdrawal, KindPurchase, KindCommission,
		KindBillPayment, KindRefund, KindAdjustment:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// LedgerEntry is one immutable balance-affecting record in a user's chain.
// Entries are linked oldest to newest through PrevEntryID/NextEntryID; the
// single entry per user with NextEntryID == nil is the tail, and its
// BalanceAfter is the authoritative current balance. Once written an entry
// never changes, except that the old tail's NextEntryID is patched to point
// at its successor when the chain grows.
type LedgerEntry struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	Kind          Kind            `json:"kind" db:"kind"`
	Amount        decimal.Decimal `json:"amount" db:"amount"` // signed
	BalanceBefore decimal.Decimal `json:"balance_before" db:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after" db:"balance_after"`
	PrevEntryID   *uuid.UUID      `json:"prev_entry_id" db:"prev_entry_id"`
	NextEntryID   *uuid.UUID      `json:"next_entry_id" db:"next_entry_id"`
	Description   string          `json:"description" db:"description"`
	OccurredAt    time.Time       `json:"occurred_at" db:"occurred_at"`
}

// IsTail reports whether the entry is the newest one in its chain.
func (e *LedgerEntry) IsTail() bool {
	return e.NextEntryID == nil
}

// ListEntriesRequest filters a user's entry history.
type ListEntriesRequest struct {
	Kind  *Kind      `form:"kind"`
	From  *time.Time `form:"from"`
	To    *time.Time `form:"to"`
	Page  int        `form:"page"`
	Limit int        `form:"limit"`
}

// Normalize clamps paging parameters to sane values.
func (r *ListEntriesRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 || r.Limit > 100 {
		r.Limit = 20
	}
}

// BalanceResponse is the current-balance read model.
type BalanceResponse struct {
	UserID  uuid.UUID       `json:"user_id"`
	Balance decimal.Decimal `json:"balance"`
}

// ChainReport is the result of a chain integrity check.
type ChainReport struct {
	UserID      uuid.UUID       `json:"user_id"`
	Entries     int             `json:"entries"`
	TailBalance decimal.Decimal `json:"tail_balance"`
	SignedSum   decimal.Decimal `json:"signed_sum"`
	Consistent  bool            `json:"consistent"`
}
