// Package notify delivers order-decision messages to users. Delivery is
// at-most-once per order: the session's notified flag is the deduplication
// gate, and the check-then-set around it runs under the session lock so the
// reconciler and an admin-triggered handler can never both deliver.
package notify

import (
	"context"

	"cvbot_backend/internal/i18n"
	"cvbot_backend/internal/orders"
	"cvbot_backend/internal/session"
	"cvbot_backend/internal/telegram"
	"cvbot_backend/platform/logger"
)

// Sender is the outbound slice of the transport the dispatcher needs.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *telegram.InlineKeyboardMarkup) (*telegram.Message, error)
}

type Dispatcher struct {
	sender Sender
	log    *logger.Logger
}

func NewDispatcher(sender Sender, log *logger.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, log: log}
}

// TryNotify delivers the decision for a terminal order once. It returns true
// only when this call performed the delivery. A send failure leaves the
// notified flag clear so a later caller can retry without duplicating.
func (d *Dispatcher) TryNotify(ctx context.Context, sess *session.Session, o *orders.Order) bool {
	sess.Lock()
	defer sess.Unlock()

	if sess.Notified || sess.ActiveOrderID != o.ID || !o.Status.Terminal() {
		return false
	}

	var text string
	switch o.Status {
	case orders.StatusVerified:
		text = i18n.T(sess.Lang, i18n.KeyPaymentVerified)
	case orders.StatusRejected:
		reason := ""
		if o.StatusReason != nil {
			reason = *o.StatusReason
		}
		text = i18n.Tf(sess.Lang, i18n.KeyPaymentRejected, reason)
	}

	if _, err := d.sender.SendMessage(ctx, sess.ChatID, text, nil); err != nil {
		d.log.TransportError("sendMessage", sess.ChatID, err)
		return false
	}
	sess.Notified = true
	return true
}
