// Package orders owns the payment order lifecycle. An order moves
// awaiting_payment -> pending_verification -> verified or rejected, and a
// terminal order never changes again.
package orders

import "time"

type Status string

const (
	StatusAwaitingPayment     Status = "awaiting_payment"
	StatusPendingVerification Status = "pending_verification"
	StatusVerified            Status = "verified"
	StatusRejected            Status = "rejected"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusVerified || s == StatusRejected
}

type Order struct {
	ID             string
	CandidateID    string
	TelegramUserID int64
	Status         Status
	StatusReason   *string
	EvidenceRef    *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// canTransition encodes the allowed lifecycle edges.
func canTransition(from, to Status) bool {
	switch from {
	case StatusAwaitingPayment:
		return to == StatusPendingVerification
	case StatusPendingVerification:
		return to == StatusVerified || to == StatusRejected
	default:
		return false
	}
}
