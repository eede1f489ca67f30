package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/aryankapoor/zapkart-backend/internal/orders"
	"github.com/aryankapoor/zapkart-backend/pkg/logger"
)

// Consumer feeds the aggregates from the order event stream instead of the
// in-process fanout, so analytics sees the same orders every other subscriber
// does regardless of which api instance took the checkout.
type Consumer struct {
	service *Service
	logg    *logger.Logger
}

func NewConsumer(service *Service, logg *logger.Logger) *Consumer {
	return &Consumer{service: service, logg: logg}
}

// Run pulls messages off the subscription until ctx is canceled or the
// receive loop fails. Every message is acked: a payload that does not decode
// never will, and redelivering it only loops.
func (c *Consumer) Run(ctx context.Context, sub *pubsub.Subscriber) error {
	if sub == nil {
		return fmt.Errorf("subscriber is required")
	}
	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if err := c.handle(ctx, msg.Attributes["event_type"], msg.Data); err != nil {
			c.logg.Error(ctx, "dropping order event", err)
		}
		msg.Ack()
	})
}

// handle folds one stream message into the aggregates. Messages carrying an
// event_type other than order.created are skipped without error.
func (c *Consumer) handle(ctx context.Context, eventType string, data []byte) error {
	if eventType != "" && eventType != "order.created" {
		return nil
	}

	var event orders.OrderCreatedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("decoding order event: %w", err)
	}

	c.service.PublishOrderCreated(ctx, event)
	return nil
}
