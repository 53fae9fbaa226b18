package notify

import (
	"context"
	"time"

	"cvbot_backend/internal/orders"
	"cvbot_backend/internal/session"
	"cvbot_backend/platform/logger"
)

// OrderGetter is the read side of the order store the reconciler needs.
type OrderGetter interface {
	GetByID(ctx context.Context, id string) (*orders.Order, error)
}

// Reconciler periodically sweeps every session with an undelivered order
// decision and retries delivery. It backstops the direct notification paths:
// if a send failed or the process restarted mid-decision, the next tick
// picks it up.
type Reconciler struct {
	sessions   *session.Store
	orders     OrderGetter
	dispatcher *Dispatcher
	interval   time.Duration
	log        *logger.Logger
}

func NewReconciler(sessions *session.Store, orderGetter OrderGetter, dispatcher *Dispatcher, interval time.Duration, log *logger.Logger) *Reconciler {
	return &Reconciler{
		sessions:   sessions,
		orders:     orderGetter,
		dispatcher: dispatcher,
		interval:   interval,
		log:        log,
	}
}

// Run ticks until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("order reconciler started", "interval", r.interval.String())
	for {
		select {
		case <-ctx.Done():
			r.log.Info("order reconciler stopped")
			return
		case <-ticker.C:
			r.ReconcileAll(ctx)
		}
	}
}

// ReconcileAll runs one sweep. Failures on one session never abort the rest.
func (r *Reconciler) ReconcileAll(ctx context.Context) {
	for _, sess := range r.sessions.Snapshot() {
		sess.Lock()
		orderID := sess.ActiveOrderID
		pending := orderID != "" && !sess.Notified
		sess.Unlock()
		if !pending {
			continue
		}

		o, err := r.orders.GetByID(ctx, orderID)
		if err != nil {
			r.log.DatabaseError("reconcile order fetch", err)
			continue
		}
		if !o.Status.Terminal() {
			continue
		}
		if r.dispatcher.TryNotify(ctx, sess, o) {
			r.log.WithOrder(o.ID).Info("decision delivered by reconciler", "status", string(o.Status))
		}
	}
}
