// Package notify handles best-effort customer notifications: web push
// fan-out on status changes and the pre-filled WhatsApp link handed back to
// order creators.
package notify

import (
	"context"
	"sync"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/menuflow/menuflow/internal/domain/order"
)

// Subscription is one web push subscription attached to an order. The state
// machine only ever reads these; customers register them at order time from
// the tracking page.
type Subscription struct {
	ID       uuid.UUID
	OrderID  uuid.UUID
	Endpoint string
	P256dh   string
	Auth     string
}

// Message is a rendered push payload.
type Message struct {
	Title string
	Body  string
	URL   string
}

// statusMessages maps order statuses to push text. Statuses without an entry
// send nothing.
var statusMessages = map[order.Status]Message{
	order.StatusConfirmed: {Title: "Order confirmed", Body: "Your order has been confirmed and will be prepared shortly."},
	order.StatusPreparing: {Title: "Order in the kitchen", Body: "Your order is being prepared."},
	order.StatusReady:     {Title: "Order ready", Body: "Your order is ready for pickup or handover."},
	order.StatusCompleted: {Title: "Order completed", Body: "Thanks for ordering! See you next time."},
}

// MessageFor returns the push message for a status, if one is configured.
func MessageFor(s order.Status) (Message, bool) {
	m, ok := statusMessages[s]
	return m, ok
}

// SubscriptionRepository lists the push subscriptions attached to an order.
type SubscriptionRepository interface {
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Subscription, error)
}

// Gateway delivers a push message to one subscription endpoint.
type Gateway interface {
	Send(ctx context.Context, sub Subscription, msg Message) error
}

// maxConcurrentPushes bounds the fan-out to one order's subscriptions.
const maxConcurrentPushes = 8

// Service fans status change notifications out to an order's subscriptions.
type Service struct {
	subs    SubscriptionRepository
	gateway Gateway
}

// NewService creates a push notification Service.
func NewService(subs SubscriptionRepository, gateway Gateway) *Service {
	return &Service{subs: subs, gateway: gateway}
}

var _ order.Notifier = (*Service)(nil)

// NotifyStatus sends the status message for o to every subscription on the
// order. Statuses with no configured text send nothing. Deliveries are
// independent: failures are logged per endpoint and do not stop the rest;
// the last failure is returned for the runner's log.
func (s *Service) NotifyStatus(ctx context.Context, o *order.Order) error {
	msg, ok := MessageFor(o.Status)
	if !ok {
		return nil
	}
	msg.URL = "/orders/" + o.ID.String()

	subs, err := s.subs.ListByOrder(ctx, o.ID)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}

	var (
		mu      sync.Mutex
		lastErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPushes)
	for _, sub := range subs {
		g.Go(func() error {
			if err := s.gateway.Send(gctx, sub, msg); err != nil {
				zctx.From(ctx).Warn("push delivery failed",
					zap.String("order_id", o.ID.String()),
					zap.String("subscription_id", sub.ID.String()),
					zap.Error(err),
				)
				mu.Lock()
				lastErr = err
				mu.Unlock()
			}
			// Always nil: one endpoint failing must not cancel the others.
			return nil
		})
	}
	_ = g.Wait()
	return lastErr
}
