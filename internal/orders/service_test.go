package orders

import (
	"context"
	"sync"
	"testing"

	"cvbot_backend/platform/apperr"
	"cvbot_backend/platform/logger"
)

// fakeStore is an in-memory Store with the same transition guard the SQL
// layer enforces.
type fakeStore struct {
	mu     sync.Mutex
	orders map[string]*Order
	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{orders: make(map[string]*Order)}
}

func (f *fakeStore) Create(_ context.Context, o *Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o.ID == "" {
		f.nextID++
		o.ID = string(rune('a' + f.nextID))
	}
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, apperr.NotFound("order not found")
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) GetLatestByOwner(_ context.Context, userID int64) (*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *Order
	for _, o := range f.orders {
		if o.TelegramUserID == userID {
			latest = o
		}
	}
	if latest == nil {
		return nil, apperr.NotFound("order not found")
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id string, from, to Status, reason *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return apperr.NotFound("order not found")
	}
	if o.Status != from {
		return apperr.InvalidTransition("order is no longer " + string(from))
	}
	o.Status = to
	o.StatusReason = reason
	return nil
}

func (f *fakeStore) SetEvidence(_ context.Context, id, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return apperr.NotFound("order not found")
	}
	o.EvidenceRef = &ref
	return nil
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	return NewService(store, logger.New("development")), store
}

func createPending(t *testing.T, svc *Service) *Order {
	t.Helper()
	o, err := svc.Create(context.Background(), "cand-1", 100)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	o, err = svc.SubmitEvidence(context.Background(), o.ID, "file-123")
	if err != nil {
		t.Fatalf("submit evidence: %v", err)
	}
	return o
}

func TestLifecycleHappyPath(t *testing.T) {
	svc, _ := newTestService()

	o, err := svc.Create(context.Background(), "cand-1", 100)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.Status != StatusAwaitingPayment {
		t.Fatalf("new order should await payment, got %s", o.Status)
	}

	o, err = svc.SubmitEvidence(context.Background(), o.ID, "file-123")
	if err != nil {
		t.Fatalf("submit evidence: %v", err)
	}
	if o.Status != StatusPendingVerification {
		t.Fatalf("expected pending_verification, got %s", o.Status)
	}

	o, err = svc.Approve(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if o.Status != StatusVerified {
		t.Fatalf("expected verified, got %s", o.Status)
	}
}

func TestRejectCarriesReason(t *testing.T) {
	svc, _ := newTestService()
	o := createPending(t, svc)

	o, err := svc.Reject(context.Background(), o.ID, "blurry screenshot")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if o.Status != StatusRejected {
		t.Fatalf("expected rejected, got %s", o.Status)
	}
	if o.StatusReason == nil || *o.StatusReason != "blurry screenshot" {
		t.Fatal("rejection reason must be stored")
	}
}

func TestTerminalOrdersStayTerminal(t *testing.T) {
	svc, _ := newTestService()
	o := createPending(t, svc)

	if _, err := svc.Approve(context.Background(), o.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if _, err := svc.Reject(context.Background(), o.ID, "too late"); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if _, err := svc.Approve(context.Background(), o.ID); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition on repeat approve, got %v", err)
	}
	if _, err := svc.SubmitEvidence(context.Background(), o.ID, "late-file"); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition on late evidence, got %v", err)
	}
}

func TestConcurrentDecidersOneWins(t *testing.T) {
	svc, store := newTestService()
	o := createPending(t, svc)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = svc.Approve(context.Background(), o.ID)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = svc.Reject(context.Background(), o.ID, "duplicate")
	}()
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else if !apperr.Is(err, apperr.KindInvalidTransition) {
			t.Fatalf("loser must see invalid transition, got %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("exactly one decider must win, got %d", wins)
	}

	final, err := store.GetByID(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !final.Status.Terminal() {
		t.Fatalf("order must end terminal, got %s", final.Status)
	}
}

func TestEvidenceResubmitRefreshes(t *testing.T) {
	svc, store := newTestService()
	o := createPending(t, svc)

	if _, err := svc.SubmitEvidence(context.Background(), o.ID, "file-456"); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	got, _ := store.GetByID(context.Background(), o.ID)
	if got.Status != StatusPendingVerification {
		t.Fatalf("resubmit must keep pending, got %s", got.Status)
	}
	if got.EvidenceRef == nil || *got.EvidenceRef != "file-456" {
		t.Fatal("resubmit must refresh the evidence")
	}
}

func TestRetryPaymentNeedsRejectedOrder(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.RetryPayment(context.Background(), 100); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found without orders, got %v", err)
	}

	o := createPending(t, svc)
	if _, err := svc.RetryPayment(context.Background(), 100); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found while pending, got %v", err)
	}

	if _, err := svc.Reject(context.Background(), o.ID, "wrong amount"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	fresh, err := svc.RetryPayment(context.Background(), 100)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if fresh.Status != StatusAwaitingPayment {
		t.Fatalf("retry must open a fresh order, got %s", fresh.Status)
	}
	if fresh.ID == o.ID {
		t.Fatal("retry must not reuse the rejected order")
	}
	if fresh.CandidateID != o.CandidateID {
		t.Fatal("retry must keep the candidate")
	}
}
