package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cvbot_backend/platform/apperr"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO orders (id, candidate_id, telegram_user_id, status)
		VALUES ($1, $2, $3, $4)`,
		o.ID, o.CandidateID, o.TelegramUserID, o.Status)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Order, error) {
	o := &Order{}
	err := r.db.QueryRow(ctx, `
		SELECT id, candidate_id, telegram_user_id, status, status_reason, evidence_ref, created_at, updated_at
		FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.CandidateID, &o.TelegramUserID, &o.Status, &o.StatusReason, &o.EvidenceRef, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return o, nil
}

// GetLatestByOwner returns the most recent order for a user, if any.
func (r *Repository) GetLatestByOwner(ctx context.Context, userID int64) (*Order, error) {
	o := &Order{}
	err := r.db.QueryRow(ctx, `
		SELECT id, candidate_id, telegram_user_id, status, status_reason, evidence_ref, created_at, updated_at
		FROM orders WHERE telegram_user_id = $1
		ORDER BY created_at DESC LIMIT 1`, userID,
	).Scan(&o.ID, &o.CandidateID, &o.TelegramUserID, &o.Status, &o.StatusReason, &o.EvidenceRef, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query latest order: %w", err)
	}
	return o, nil
}

// UpdateStatus moves an order to a new status, guarding the transition in
// SQL so two concurrent deciders cannot both win.
func (r *Repository) UpdateStatus(ctx context.Context, id string, from, to Status, reason *string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET status = $1, status_reason = $2, updated_at = now()
		WHERE id = $3 AND status = $4`,
		to, reason, id, from)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.InvalidTransition(fmt.Sprintf("order is no longer %s", from))
	}
	return nil
}

func (r *Repository) SetEvidence(ctx context.Context, id, evidenceRef string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE orders SET evidence_ref = $1, updated_at = now() WHERE id = $2`,
		evidenceRef, id)
	if err != nil {
		return fmt.Errorf("set order evidence: %w", err)
	}
	return nil
}
