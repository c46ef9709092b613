package payment

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getyoursite/getyoursite/app/models"
)

func pendingTransaction(repo *fakeRepository, sessionID string) {
	_ = repo.CreateTransaction(&models.PaymentTransaction{
		SessionID:     sessionID,
		PackageID:     "margherita",
		PizzaName:     "Pizza Margherita",
		Amount:        1290,
		Currency:      "EUR",
		Status:        models.TransactionStatusInitiated,
		PaymentStatus: models.PaymentStatusPending,
	})
}

func TestHandleCompletedMarksTransactionPaid(t *testing.T) {
	repo := newFakeRepository()
	pendingTransaction(repo, "cs_test_hook")
	provider := &stubProvider{verifyEvent: Event{
		ID:            "evt_001",
		Type:          "checkout.session.completed",
		SessionID:     "cs_test_hook",
		Status:        models.TransactionStatusComplete,
		PaymentStatus: models.PaymentStatusPaid,
	}}
	processor := NewProcessor(provider, repo)

	result, err := processor.Handle(context.Background(), []byte(`{}`), "t=1,v1=sig")
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.False(t, result.Ignored)
	assert.Equal(t, "cs_test_hook", result.SessionID)

	record, err := repo.GetTransactionBySessionID("cs_test_hook")
	require.NoError(t, err)
	assert.True(t, record.IsPaid())
	assert.Equal(t, "evt_001", record.EventID)
	assert.Equal(t, "checkout.session.completed", record.EventType)
	assert.NotNil(t, record.CompletedAt)
}

func TestHandleReplayedEventIsNoOp(t *testing.T) {
	repo := newFakeRepository()
	pendingTransaction(repo, "cs_test_replay")
	provider := &stubProvider{verifyEvent: Event{
		ID:            "evt_replay",
		Type:          "checkout.session.completed",
		SessionID:     "cs_test_replay",
		PaymentStatus: models.PaymentStatusPaid,
	}}
	processor := NewProcessor(provider, repo)

	first, err := processor.Handle(context.Background(), []byte(`{}`), "t=1,v1=sig")
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	record, err := repo.GetTransactionBySessionID("cs_test_replay")
	require.NoError(t, err)
	completedAt := record.CompletedAt

	second, err := processor.Handle(context.Background(), []byte(`{}`), "t=2,v1=other")
	require.NoError(t, err)
	assert.True(t, second.Duplicate)

	record, err = repo.GetTransactionBySessionID("cs_test_replay")
	require.NoError(t, err)
	assert.Equal(t, completedAt, record.CompletedAt, "replay must not touch the transaction")
}

func TestHandleConcurrentDeliveriesApplyOnce(t *testing.T) {
	repo := newFakeRepository()
	pendingTransaction(repo, "cs_test_race")

	// Distinct event ids for the same session, as Stripe sends on retries
	// with new ids: the guarded paid transition must fire exactly once.
	transitions := make([]bool, 20)
	var wg sync.WaitGroup
	for i := range transitions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := repo.MarkTransactionPaid("cs_test_race", models.TransactionStatusComplete, "checkout.session.completed", "evt_race")
			assert.NoError(t, err)
			transitions[i] = ok
		}(i)
	}
	wg.Wait()

	applied := 0
	for _, ok := range transitions {
		if ok {
			applied++
		}
	}
	assert.Equal(t, 1, applied)
}

func TestHandleInvalidSignature(t *testing.T) {
	repo := newFakeRepository()
	provider := &stubProvider{verifyErr: ErrInvalidSignature}
	processor := NewProcessor(provider, repo)

	_, err := processor.Handle(context.Background(), []byte(`{}`), "bogus")
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Empty(t, repo.events, "unverified events are never recorded")
}

func TestHandleUnknownSessionIsAcknowledged(t *testing.T) {
	repo := newFakeRepository()
	provider := &stubProvider{verifyEvent: Event{
		ID:            "evt_unknown",
		Type:          "checkout.session.completed",
		SessionID:     "cs_test_never_seen",
		PaymentStatus: models.PaymentStatusPaid,
	}}
	processor := NewProcessor(provider, repo)

	result, err := processor.Handle(context.Background(), []byte(`{}`), "t=1,v1=sig")
	require.NoError(t, err, "unknown sessions are logged for reconciliation, not retried")
	assert.False(t, result.Duplicate)
}

func TestHandleCompletedUnpaidKeepsPending(t *testing.T) {
	repo := newFakeRepository()
	pendingTransaction(repo, "cs_test_delayed")
	provider := &stubProvider{verifyEvent: Event{
		ID:            "evt_delayed",
		Type:          "checkout.session.completed",
		SessionID:     "cs_test_delayed",
		PaymentStatus: "unpaid",
	}}
	processor := NewProcessor(provider, repo)

	_, err := processor.Handle(context.Background(), []byte(`{}`), "t=1,v1=sig")
	require.NoError(t, err)

	record, err := repo.GetTransactionBySessionID("cs_test_delayed")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, record.PaymentStatus)
}

func TestHandleExpiredEvent(t *testing.T) {
	repo := newFakeRepository()
	pendingTransaction(repo, "cs_test_expired")
	provider := &stubProvider{verifyEvent: Event{
		ID:        "evt_expired",
		Type:      "checkout.session.expired",
		SessionID: "cs_test_expired",
	}}
	processor := NewProcessor(provider, repo)

	_, err := processor.Handle(context.Background(), []byte(`{}`), "t=1,v1=sig")
	require.NoError(t, err)

	record, err := repo.GetTransactionBySessionID("cs_test_expired")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusExpired, record.Status)
	assert.Equal(t, models.PaymentStatusFailed, record.PaymentStatus)
}

func TestHandleIgnoresUnrelatedEventTypes(t *testing.T) {
	repo := newFakeRepository()
	provider := &stubProvider{verifyEvent: Event{
		ID:   "evt_other",
		Type: "invoice.created",
	}}
	processor := NewProcessor(provider, repo)

	result, err := processor.Handle(context.Background(), []byte(`{}`), "t=1,v1=sig")
	require.NoError(t, err)
	assert.True(t, result.Ignored)
}
