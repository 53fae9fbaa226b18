package orders

import (
	"context"

	"cvbot_backend/platform/apperr"
	"cvbot_backend/platform/logger"
)

// Store is the persistence the service needs.
type Store interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetLatestByOwner(ctx context.Context, userID int64) (*Order, error)
	UpdateStatus(ctx context.Context, id string, from, to Status, reason *string) error
	SetEvidence(ctx context.Context, id, evidenceRef string) error
}

type Service struct {
	store Store
	log   *logger.Logger
}

func NewService(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// Create opens a new order in awaiting_payment for a confirmed profile.
func (s *Service) Create(ctx context.Context, candidateID string, userID int64) (*Order, error) {
	o := &Order{
		CandidateID:    candidateID,
		TelegramUserID: userID,
		Status:         StatusAwaitingPayment,
	}
	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// SubmitEvidence attaches a payment receipt and moves the order to
// pending_verification. Re-submitting on an order already pending just
// refreshes the evidence, so users can correct a bad screenshot.
func (s *Service) SubmitEvidence(ctx context.Context, id, evidenceRef string) (*Order, error) {
	o, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status.Terminal() {
		return nil, apperr.InvalidTransition("order already decided")
	}
	if err := s.store.SetEvidence(ctx, id, evidenceRef); err != nil {
		return nil, err
	}
	if o.Status == StatusAwaitingPayment {
		if err := s.store.UpdateStatus(ctx, id, StatusAwaitingPayment, StatusPendingVerification, nil); err != nil {
			return nil, err
		}
		o.Status = StatusPendingVerification
	}
	o.EvidenceRef = &evidenceRef
	return o, nil
}

// Approve marks a pending order verified. Deciding an order that is not
// pending fails with an invalid-transition error, which is how a second
// decider loses the race.
func (s *Service) Approve(ctx context.Context, id string) (*Order, error) {
	return s.decide(ctx, id, StatusVerified, nil)
}

// Reject marks a pending order rejected with a reason shown to the user.
func (s *Service) Reject(ctx context.Context, id, reason string) (*Order, error) {
	return s.decide(ctx, id, StatusRejected, &reason)
}

func (s *Service) decide(ctx context.Context, id string, to Status, reason *string) (*Order, error) {
	o, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(o.Status, to) {
		return nil, apperr.InvalidTransition("order is not pending verification")
	}
	if err := s.store.UpdateStatus(ctx, id, o.Status, to, reason); err != nil {
		return nil, err
	}
	o.Status = to
	o.StatusReason = reason
	return o, nil
}

// GetByID exposes single-order lookup to the dispatch layer.
func (s *Service) GetByID(ctx context.Context, id string) (*Order, error) {
	return s.store.GetByID(ctx, id)
}

// LatestOrderByOwner returns the user's most recent order regardless of
// status.
func (s *Service) LatestOrderByOwner(ctx context.Context, userID int64) (*Order, error) {
	return s.store.GetLatestByOwner(ctx, userID)
}

// LatestRejected returns the user's most recent order if it was rejected,
// for the payment retry command.
func (s *Service) LatestRejected(ctx context.Context, userID int64) (*Order, error) {
	o, err := s.store.GetLatestByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusRejected {
		return nil, apperr.NotFound("no rejected order")
	}
	return o, nil
}

// RetryPayment reopens a rejected order by creating a fresh one for the same
// candidate, leaving the rejected order as history.
func (s *Service) RetryPayment(ctx context.Context, userID int64) (*Order, error) {
	prev, err := s.LatestRejected(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, prev.CandidateID, userID)
}
