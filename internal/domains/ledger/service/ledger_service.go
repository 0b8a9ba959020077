package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"marketplace-backend/internal/domains/ledger/model"
	"marketplace-backend/internal/domains/ledger/repository"
	"marketplace-backend/internal/domains/payment/gateway"
	"marketplace-backend/pkg/logger"
)

const (
	balanceCacheKeyPrefix = "ledger:balance:"
	balanceCacheTTL       = 5 * time.Minute
	defaultCurrency       = "VND"
)

// ProjectionCache caches the derived balance per user. Implemented by the
// Redis client; a cache miss or cache error always falls through to the
// chain tail.
type ProjectionCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type ledgerService struct {
	repo    repository.RepositoryInterface
	gateway gateway.Gateway
	cache   ProjectionCache

	// userLocks serializes appends per user. The conditional tail patch in
	// the repository is the hard guarantee; the mutex keeps the happy path
	// free of ErrChainConflict retries for a single process.
	userLocks sync.Map // uuid.UUID -> *sync.Mutex
}

// NewLedgerService creates a ledger service
func NewLedgerService(repo repository.RepositoryInterface, gw gateway.Gateway, cache ProjectionCache) ServiceInterface {
	return &ledgerService{
		repo:    repo,
		gateway: gw,
		cache:   cache,
	}
}

func (s *ledgerService) lockUser(userID uuid.UUID) *sync.Mutex {
	v, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// ===== Append =====

func (s *ledgerService) Append(ctx context.Context, userID uuid.UUID, kind model.Kind, amount decimal.Decimal, description string) (*model.LedgerEntry, error) {
	mu := s.lockUser(userID)
	mu.Lock()
	defer mu.Unlock()

	return s.appendLocked(ctx, userID, kind, amount, description)
}

// appendLocked builds and persists one entry. Callers must hold the user's
// lock.
func (s *ledgerService) appendLocked(ctx context.Context, userID uuid.UUID, kind model.Kind, amount decimal.Decimal, description string) (*model.LedgerEntry, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %s", model.ErrInvalidKind, kind)
	}
	if amount.IsZero() {
		return nil, model.ErrZeroAmount
	}

	tail, err := s.repo.GetTail(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain tail: %w", err)
	}

	balanceBefore := decimal.Zero
	var prevID *uuid.UUID
	if tail != nil {
		balanceBefore = tail.BalanceAfter
		id := tail.ID
		prevID = &id
	}

	balanceAfter := balanceBefore.Add(amount)
	if balanceAfter.IsNegative() && kind != model.KindAdjustment {
		return nil, model.NewInsufficientFundsError(userID, balanceBefore, amount)
	}

	entry := &model.LedgerEntry{
		ID:            uuid.New(),
		UserID:        userID,
		Kind:          kind,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		PrevEntryID:   prevID,
		Description:   description,
		OccurredAt:    time.Now(),
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		return nil, err
	}

	s.refreshBalanceCache(ctx, userID, balanceAfter)

	logger.Info("ledger entry appended", map[string]interface{}{
		"user_id":  userID.String(),
		"entry_id": entry.ID.String(),
		"kind":     kind.String(),
		"amount":   amount.String(),
		"balance":  balanceAfter.String(),
	})

	return entry, nil
}

func (s *ledgerService) refreshBalanceCache(ctx context.Context, userID uuid.UUID, balance decimal.Decimal) {
	if s.cache == nil {
		return
	}
	key := balanceCacheKeyPrefix + userID.String()
	if err := s.cache.Set(ctx, key, balance.String(), balanceCacheTTL); err != nil {
		logger.Warn("failed to refresh balance cache", map[string]interface{}{
			"user_id": userID.String(),
			"error":   err.Error(),
		})
	}
}

// ===== Reads =====

func (s *ledgerService) CurrentBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	if s.cache != nil {
		key := balanceCacheKeyPrefix + userID.String()
		if raw, found, err := s.cache.Get(ctx, key); err == nil && found {
			if bal, perr := decimal.NewFromString(raw); perr == nil {
				return bal, nil
			}
		}
	}

	tail, err := s.repo.GetTail(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read chain tail: %w", err)
	}
	if tail == nil {
		return decimal.Zero, nil
	}

	s.refreshBalanceCache(ctx, userID, tail.BalanceAfter)
	return tail.BalanceAfter, nil
}

func (s *ledgerService) EntriesFor(ctx context.Context, userID uuid.UUID, filter model.ListEntriesRequest) ([]model.LedgerEntry, int, error) {
	filter.Normalize()
	return s.repo.ListByUser(ctx, userID, filter)
}

func (s *ledgerService) TotalByKind(ctx context.Context, userID uuid.UUID) (map[model.Kind]decimal.Decimal, error) {
	return s.repo.SumByKind(ctx, userID)
}

// ===== Integrity =====

func (s *ledgerService) VerifyChain(ctx context.Context, userID uuid.UUID) (*model.ChainReport, error) {
	entries, err := s.repo.ListChainAsc(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chain: %w", err)
	}

	report := &model.ChainReport{
		UserID:      userID,
		Entries:     len(entries),
		TailBalance: decimal.Zero,
		SignedSum:   decimal.Zero,
		Consistent:  true,
	}
	if len(entries) == 0 {
		return report, nil
	}

	tails := 0
	var prevID *uuid.UUID
	running := decimal.Zero
	for i := range entries {
		e := &entries[i]
		report.SignedSum = report.SignedSum.Add(e.Amount)

		// Link check: each entry must point back at its predecessor.
		switch {
		case prevID == nil && e.PrevEntryID != nil,
			prevID != nil && (e.PrevEntryID == nil || *e.PrevEntryID != *prevID):
			report.Consistent = false
		}

		// Balance continuity.
		if !e.BalanceBefore.Equal(running) || !e.BalanceAfter.Equal(running.Add(e.Amount)) {
			report.Consistent = false
		}
		running = e.BalanceAfter

		if e.IsTail() {
			tails++
			report.TailBalance = e.BalanceAfter
		}
		id := e.ID
		prevID = &id
	}

	// Exactly one tail, and it must be the last entry.
	if tails != 1 || !entries[len(entries)-1].IsTail() {
		report.Consistent = false
	}
	if !report.TailBalance.Equal(report.SignedSum) {
		report.Consistent = false
	}

	if !report.Consistent {
		logger.Error("ledger chain integrity violation", map[string]interface{}{
			"user_id":      userID.String(),
			"entries":      report.Entries,
			"tail_balance": report.TailBalance.String(),
			"signed_sum":   report.SignedSum.String(),
		})
		return report, fmt.Errorf("%w: user_id=%s", model.ErrChainBroken, userID)
	}
	return report, nil
}

// ===== Deposits =====

func (s *ledgerService) CreateDepositIntent(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", model.ErrZeroAmount
	}

	ref, err := s.gateway.CreatePaymentIntent(ctx, amount, defaultCurrency, map[string]string{
		"user_id": userID.String(),
		"purpose": "deposit",
	})
	if err != nil {
		return "", fmt.Errorf("failed to create payment intent: %w", err)
	}

	logger.Info("deposit intent created", map[string]interface{}{
		"user_id":    userID.String(),
		"intent_ref": ref,
		"amount":     amount.String(),
	})
	return ref, nil
}

func (s *ledgerService) ConfirmDeposit(ctx context.Context, payload []byte, signature string) (*model.LedgerEntry, error) {
	event, err := s.gateway.VerifyAndParseWebhook(payload, signature)
	if err != nil {
		return nil, err
	}

	if event.EventType != "payment.succeeded" {
		logger.Info("ignoring non-success gateway event", map[string]interface{}{
			"event_type": event.EventType,
			"intent_ref": event.IntentRef,
		})
		return nil, nil
	}

	userID, err := uuid.Parse(event.Metadata["user_id"])
	if err != nil {
		return nil, fmt.Errorf("webhook event missing user_id metadata: %w", err)
	}

	return s.Append(ctx, userID, model.KindDeposit, event.Amount,
		fmt.Sprintf("deposit via gateway intent %s", event.IntentRef))
}

// ===== Withdrawals =====

func (s *ledgerService) Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, destinationAccount string) (*model.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, model.ErrZeroAmount
	}

	mu := s.lockUser(userID)
	mu.Lock()
	defer mu.Unlock()

	tail, err := s.repo.GetTail(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain tail: %w", err)
	}
	balance := decimal.Zero
	if tail != nil {
		balance = tail.BalanceAfter
	}
	if balance.LessThan(amount) {
		return nil, model.NewInsufficientFundsError(userID, balance, amount.Neg())
	}

	// The transfer runs before the entry so a gateway refusal never leaves a
	// debit on the chain. The lock is held across both steps, so no other
	// append for this user can slip in between.
	memo := fmt.Sprintf("withdrawal for user %s", userID)
	if err := s.gateway.Transfer(ctx, destinationAccount, amount, memo); err != nil {
		return nil, err
	}

	entry, err := s.appendLocked(ctx, userID, model.KindWithdrawal, amount.Neg(),
		fmt.Sprintf("withdrawal to %s", destinationAccount))
	if err != nil {
		// Money already left the platform account; this needs an operator.
		logger.Error("CRITICAL: withdrawal transferred but ledger append failed", map[string]interface{}{
			"user_id":     userID.String(),
			"amount":      amount.String(),
			"destination": destinationAccount,
			"error":       err.Error(),
		})
		return nil, fmt.Errorf("withdrawal transferred but not recorded: %w", err)
	}
	return entry, nil
}

// ===== Bills =====

func (s *ledgerService) PayBill(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, billRef string) (*model.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, model.ErrZeroAmount
	}
	return s.Append(ctx, userID, model.KindBillPayment, amount.Neg(),
		fmt.Sprintf("bill payment %s", billRef))
}
