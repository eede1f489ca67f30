package analytics

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aryankapoor/zapkart-backend/internal/orders"
	"github.com/aryankapoor/zapkart-backend/pkg/logger"
)

func newTestConsumer() (*Consumer, *Service) {
	s := NewService()
	return NewConsumer(s, logger.New(logger.Options{ServiceName: "test"})), s
}

func TestConsumerHandleRecordsOrder(t *testing.T) {
	c, s := newTestConsumer()

	data, err := json.Marshal(orders.OrderCreatedEvent{
		OrderID:    uuid.New(),
		UserID:     "user-1",
		TotalPaise: 54000,
		Items: []orders.OrderItemEvent{
			{ProductID: uuid.New(), Name: "Kettle", Qty: 2, TotalPaise: 54000},
		},
		PlacedAt: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := c.handle(context.Background(), "order.created", data); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := s.Summary(); got.OrderCount != 1 {
		t.Fatalf("order count = %d", got.OrderCount)
	}
}

func TestConsumerHandleRejectsMalformedPayload(t *testing.T) {
	c, s := newTestConsumer()

	if err := c.handle(context.Background(), "order.created", []byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
	if got := s.Summary(); got.OrderCount != 0 {
		t.Fatalf("malformed payload was recorded: %+v", got)
	}
}

func TestConsumerHandleSkipsOtherEventTypes(t *testing.T) {
	c, s := newTestConsumer()

	if err := c.handle(context.Background(), "order.refunded", []byte(`{}`)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := s.Summary(); got.OrderCount != 0 {
		t.Fatalf("unexpected event type was recorded: %+v", got)
	}
}
