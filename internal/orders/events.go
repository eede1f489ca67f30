package orders

import (
	"context"
	"encoding/json"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/aryankapoor/zapkart-backend/pkg/logger"
)

// OrderCreatedEvent is published to the order event stream after checkout
// commits. Downstream consumers (fulfilment, notifications, analytics)
// subscribe to it.
type OrderCreatedEvent struct {
	OrderID    uuid.UUID        `json:"order_id"`
	UserID     string           `json:"user_id"`
	TotalPaise int              `json:"total_paise"`
	Items      []OrderItemEvent `json:"items"`
	PlacedAt   time.Time        `json:"placed_at"`
}

// OrderItemEvent is one purchased line inside an order event.
type OrderItemEvent struct {
	ProductID  uuid.UUID `json:"product_id"`
	Name       string    `json:"name"`
	Qty        int       `json:"qty"`
	TotalPaise int       `json:"total_paise"`
}

// Publisher emits order lifecycle events. Publishing is fire-and-forget:
// checkout never fails because the event stream is down.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, event OrderCreatedEvent)
}

// PubSubPublisher publishes order events to the configured topic.
type PubSubPublisher struct {
	publisher *pubsub.Publisher
	logg      *logger.Logger
}

func NewPubSubPublisher(publisher *pubsub.Publisher, logg *logger.Logger) *PubSubPublisher {
	return &PubSubPublisher{publisher: publisher, logg: logg}
}

func (p *PubSubPublisher) PublishOrderCreated(ctx context.Context, event OrderCreatedEvent) {
	if p == nil || p.publisher == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logg.Error(ctx, "encoding order event", err)
		return
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_type": "order.created",
			"order_id":   event.OrderID.String(),
		},
	})
	go func() {
		if _, err := result.Get(context.WithoutCancel(ctx)); err != nil {
			p.logg.Error(ctx, "publishing order event", err)
		}
	}()
}

// FanoutPublisher delivers each event to every configured publisher.
type FanoutPublisher []Publisher

func (f FanoutPublisher) PublishOrderCreated(ctx context.Context, event OrderCreatedEvent) {
	for _, p := range f {
		if p != nil {
			p.PublishOrderCreated(ctx, event)
		}
	}
}
