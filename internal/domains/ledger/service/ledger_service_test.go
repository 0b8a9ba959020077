package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-backend/internal/domains/ledger/model"
	"marketplace-backend/internal/domains/payment/gateway"
	"marketplace-backend/internal/domains/payment/gateway/mock"
)

// memoryLedgerRepo mimics the conditional tail patch: an append whose
// PrevEntryID is not the current tail is rejected with ErrChainConflict.
type memoryLedgerRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID][]model.LedgerEntry // per user, oldest first
}

func newMemoryLedgerRepo() *memoryLedgerRepo {
	return &memoryLedgerRepo{entries: make(map[uuid.UUID][]model.LedgerEntry)}
}

func (r *memoryLedgerRepo) GetTail(_ context.Context, userID uuid.UUID) (*model.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chain := r.entries[userID]
	if len(chain) == 0 {
		return nil, nil
	}
	tail := chain[len(chain)-1]
	return &tail, nil
}

func (r *memoryLedgerRepo) Append(_ context.Context, entry *model.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chain := r.entries[entry.UserID]
	if len(chain) == 0 {
		if entry.PrevEntryID != nil {
			return model.ErrChainConflict
		}
	} else {
		tail := &chain[len(chain)-1]
		if entry.PrevEntryID == nil || *entry.PrevEntryID != tail.ID {
			return model.ErrChainConflict
		}
		id := entry.ID
		tail.NextEntryID = &id
	}
	r.entries[entry.UserID] = append(chain, *entry)
	return nil
}

func (r *memoryLedgerRepo) GetByID(_ context.Context, id uuid.UUID) (*model.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, chain := range r.entries {
		for i := range chain {
			if chain[i].ID == id {
				e := chain[i]
				return &e, nil
			}
		}
	}
	return nil, model.ErrEntryNotFound
}

func (r *memoryLedgerRepo) ListByUser(_ context.Context, userID uuid.UUID, filter model.ListEntriesRequest) ([]model.LedgerEntry, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chain := r.entries[userID]
	out := make([]model.LedgerEntry, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- { // newest first
		e := chain[i]
		if filter.Kind != nil && e.Kind != *filter.Kind {
			continue
		}
		out = append(out, e)
	}
	return out, len(out), nil
}

func (r *memoryLedgerRepo) ListChainAsc(_ context.Context, userID uuid.UUID) ([]model.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chain := r.entries[userID]
	out := make([]model.LedgerEntry, len(chain))
	copy(out, chain)
	return out, nil
}

func (r *memoryLedgerRepo) SumByKind(_ context.Context, userID uuid.UUID) (map[model.Kind]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sums := make(map[model.Kind]decimal.Decimal)
	for _, e := range r.entries[userID] {
		sums[e.Kind] = sums[e.Kind].Add(e.Amount)
	}
	return sums, nil
}

func (r *memoryLedgerRepo) ListUserIDs(_ context.Context, limit, offset int) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	if offset >= len(ids) {
		return nil, nil
	}
	ids = ids[offset:]
	if limit < len(ids) {
		ids = ids[:limit]
	}
	return ids, nil
}

func newTestService(t *testing.T) (ServiceInterface, *memoryLedgerRepo, *mock.MockGateway) {
	t.Helper()
	repo := newMemoryLedgerRepo()
	gw := mock.NewMockGateway("test-secret")
	return NewLedgerService(repo, gw, nil), repo, gw
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAppend_BuildsChain(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.Append(ctx, userID, model.KindDeposit, dec("100"), "top up")
	require.NoError(t, err)
	assert.Nil(t, first.PrevEntryID)
	assert.True(t, first.BalanceBefore.IsZero())
	assert.True(t, first.BalanceAfter.Equal(dec("100")))

	second, err := svc.Append(ctx, userID, model.KindPurchase, dec("-40"), "order 123")
	require.NoError(t, err)
	require.NotNil(t, second.PrevEntryID)
	assert.Equal(t, first.ID, *second.PrevEntryID)
	assert.True(t, second.BalanceBefore.Equal(dec("100")))
	assert.True(t, second.BalanceAfter.Equal(dec("60")))

	balance, err := svc.CurrentBalance(ctx, userID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("60")))
}

func TestAppend_RejectsInvalidInput(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Append(ctx, userID, model.Kind("gift"), dec("5"), "")
	assert.ErrorIs(t, err, model.ErrInvalidKind)

	_, err = svc.Append(ctx, userID, model.KindDeposit, decimal.Zero, "")
	assert.ErrorIs(t, err, model.ErrZeroAmount)

	assert.Empty(t, repo.entries[userID])
}

func TestAppend_InsufficientFundsLeavesChainUnchanged(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Append(ctx, userID, model.KindDeposit, dec("30"), "top up")
	require.NoError(t, err)

	_, err = svc.Append(ctx, userID, model.KindPurchase, dec("-50"), "order 456")
	assert.True(t, model.IsInsufficientFundsError(err))

	require.Len(t, repo.entries[userID], 1)
	balance, err := svc.CurrentBalance(ctx, userID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("30")))
}

func TestAppend_AdjustmentMayGoNegative(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	entry, err := svc.Append(ctx, userID, model.KindAdjustment, dec("-25"), "manual correction")
	require.NoError(t, err)
	assert.True(t, entry.BalanceAfter.Equal(dec("-25")))
}

func TestAppend_ConcurrentSameUser(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	const n = 32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Append(ctx, userID, model.KindDeposit, dec("10"), "concurrent")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Every append landed, nothing was lost and the chain has no forks.
	require.Len(t, repo.entries[userID], n)
	balance, err := svc.CurrentBalance(ctx, userID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("320")))

	report, err := svc.VerifyChain(ctx, userID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, n, report.Entries)
}

func TestVerifyChain_DetectsTamperedBalance(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Append(ctx, userID, model.KindDeposit, dec("100"), "top up")
	require.NoError(t, err)
	_, err = svc.Append(ctx, userID, model.KindPurchase, dec("-30"), "order")
	require.NoError(t, err)

	repo.mu.Lock()
	repo.entries[userID][1].BalanceAfter = dec("999")
	repo.mu.Unlock()

	report, err := svc.VerifyChain(ctx, userID)
	assert.ErrorIs(t, err, model.ErrChainBroken)
	assert.False(t, report.Consistent)
}

func TestWithdraw_HappyPath(t *testing.T) {
	svc, _, gw := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Append(ctx, userID, model.KindDeposit, dec("200"), "top up")
	require.NoError(t, err)

	entry, err := svc.Withdraw(ctx, userID, dec("80"), "BANK-001")
	require.NoError(t, err)
	assert.True(t, entry.Amount.Equal(dec("-80")))
	assert.True(t, entry.BalanceAfter.Equal(dec("120")))

	require.Len(t, gw.TransferCalls, 1)
	assert.Equal(t, "BANK-001", gw.TransferCalls[0].DestinationAccount)
	assert.True(t, gw.TransferCalls[0].Amount.Equal(dec("80")))
}

func TestWithdraw_InsufficientFundsSkipsTransfer(t *testing.T) {
	svc, _, gw := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Append(ctx, userID, model.KindDeposit, dec("50"), "top up")
	require.NoError(t, err)

	_, err = svc.Withdraw(ctx, userID, dec("80"), "BANK-001")
	assert.True(t, model.IsInsufficientFundsError(err))
	assert.Empty(t, gw.TransferCalls)
}

func TestWithdraw_TransferRefusedLeavesChainUnchanged(t *testing.T) {
	svc, repo, gw := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Append(ctx, userID, model.KindDeposit, dec("200"), "top up")
	require.NoError(t, err)
	gw.FailTransfer = gateway.ErrInsufficientPlatformBalance

	_, err = svc.Withdraw(ctx, userID, dec("80"), "BANK-001")
	assert.ErrorIs(t, err, gateway.ErrInsufficientPlatformBalance)

	require.Len(t, repo.entries[userID], 1)
	balance, err := svc.CurrentBalance(ctx, userID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("200")))
}

func TestConfirmDeposit_AppendsOnSignedSuccessEvent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	payload, err := json.Marshal(gateway.WebhookEvent{
		EventType: "payment.succeeded",
		IntentRef: "MOCK_INTENT_1",
		Amount:    dec("150"),
		Currency:  "VND",
		Metadata:  map[string]string{"user_id": userID.String()},
	})
	require.NoError(t, err)

	entry, err := svc.ConfirmDeposit(ctx, payload, mock.Sign(payload, "test-secret"))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, model.KindDeposit, entry.Kind)
	assert.True(t, entry.BalanceAfter.Equal(dec("150")))

	// Tampered signature must not credit anything.
	_, err = svc.ConfirmDeposit(ctx, payload, "deadbeef")
	assert.ErrorIs(t, err, gateway.ErrInvalidSignature)

	balance, err := svc.CurrentBalance(ctx, userID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("150")))
}

func TestConfirmDeposit_IgnoresFailureEvents(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	payload, err := json.Marshal(gateway.WebhookEvent{
		EventType: "payment.failed",
		IntentRef: "MOCK_INTENT_2",
		Amount:    dec("150"),
		Metadata:  map[string]string{"user_id": uuid.NewString()},
	})
	require.NoError(t, err)

	entry, err := svc.ConfirmDeposit(ctx, payload, mock.Sign(payload, "test-secret"))
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestPayBill_DebitsBalance(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Append(ctx, userID, model.KindDeposit, dec("100"), "top up")
	require.NoError(t, err)

	entry, err := svc.PayBill(ctx, userID, dec("35"), "storage-fee-2026-08")
	require.NoError(t, err)
	assert.Equal(t, model.KindBillPayment, entry.Kind)
	assert.True(t, entry.BalanceAfter.Equal(dec("65")))
}

func TestTotalByKind(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Append(ctx, userID, model.KindDeposit, dec("100"), "")
	require.NoError(t, err)
	_, err = svc.Append(ctx, userID, model.KindDeposit, dec("50"), "")
	require.NoError(t, err)
	_, err = svc.Append(ctx, userID, model.KindPurchase, dec("-60"), "")
	require.NoError(t, err)

	sums, err := svc.TotalByKind(ctx, userID)
	require.NoError(t, err)
	assert.True(t, sums[model.KindDeposit].Equal(dec("150")))
	assert.True(t, sums[model.KindPurchase].Equal(dec("-60")))
}
