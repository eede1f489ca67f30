// Package orders implements checkout and order history. Placing an order
// prices the cart, reserves stock and writes the order in one transaction,
// then clears the cart and emits an order.created event.
package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aryankapoor/zapkart-backend/internal/address"
	"github.com/aryankapoor/zapkart-backend/internal/cart"
	"github.com/aryankapoor/zapkart-backend/internal/products"
	"github.com/aryankapoor/zapkart-backend/pkg/db/models"
	"github.com/aryankapoor/zapkart-backend/pkg/enums"
	"github.com/aryankapoor/zapkart-backend/pkg/errors"
	"github.com/aryankapoor/zapkart-backend/pkg/logger"
	"github.com/aryankapoor/zapkart-backend/pkg/pagination"
	"github.com/aryankapoor/zapkart-backend/pkg/pricing"
)

// Order is the service-level view of a placed order.
type Order struct {
	ID        uuid.UUID         `json:"id"`
	Status    enums.OrderStatus `json:"status"`
	AddressID uuid.UUID         `json:"address_id"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
	Tax       decimal.Decimal   `json:"tax"`
	Shipping  decimal.Decimal   `json:"shipping"`
	Total     decimal.Decimal   `json:"total"`
	Items     []OrderItem       `json:"items"`
	CreatedAt time.Time         `json:"created_at"`
}

// OrderItem is one purchased line.
type OrderItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

// Page is one cursor page of order history.
type Page struct {
	Orders     []Order `json:"orders"`
	NextCursor string  `json:"next_cursor,omitempty"`
}

type Service struct {
	conn        *gorm.DB
	repo        *Repository
	productRepo *products.Repository
	addresses   *address.Service
	pricingCfg  pricing.Config
	publisher   Publisher
	logg        *logger.Logger
}

func NewService(
	conn *gorm.DB,
	repo *Repository,
	productRepo *products.Repository,
	addresses *address.Service,
	pricingCfg pricing.Config,
	publisher Publisher,
	logg *logger.Logger,
) *Service {
	return &Service{
		conn:        conn,
		repo:        repo,
		productRepo: productRepo,
		addresses:   addresses,
		pricingCfg:  pricingCfg,
		publisher:   publisher,
		logg:        logg,
	}
}

// PlaceOrder checks out the cart against the given delivery address. Stock is
// reserved and the order written atomically; on success the cart is cleared
// (which pushes the empty state remotely) and an event is published.
func (s *Service) PlaceOrder(ctx context.Context, userID string, cartStore *cart.Store, addressID uuid.UUID) (*Order, error) {
	items := cartStore.Items()
	if len(items) == 0 {
		return nil, errors.New(errors.CodeValidation, "cart is empty")
	}

	if _, err := s.addresses.Get(ctx, userID, addressID); err != nil {
		return nil, err
	}

	quote := cartStore.Quote(s.pricingCfg)

	row := &models.Order{
		UserID:        userID,
		AddressID:     addressID,
		Status:        enums.OrderStatusPlaced,
		SubtotalPaise: toPaise(quote.Subtotal),
		TaxPaise:      toPaise(quote.Tax),
		ShippingPaise: toPaise(quote.Shipping),
		TotalPaise:    toPaise(quote.GrandTotal),
	}
	for _, item := range items {
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		row.Items = append(row.Items, models.OrderLineItem{
			ProductID:      item.ProductID,
			Name:           item.Name,
			UnitPricePaise: toPaise(item.UnitPrice),
			Qty:            item.Quantity,
			TotalPaise:     toPaise(lineTotal),
		})
	}

	err := s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			if err := s.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return s.repo.Create(ctx, tx, row)
	})
	if err != nil {
		return nil, err
	}

	cartStore.Clear()

	event := OrderCreatedEvent{
		OrderID:    row.ID,
		UserID:     userID,
		TotalPaise: row.TotalPaise,
		PlacedAt:   row.CreatedAt,
	}
	for _, item := range row.Items {
		event.Items = append(event.Items, OrderItemEvent{
			ProductID:  item.ProductID,
			Name:       item.Name,
			Qty:        item.Qty,
			TotalPaise: item.TotalPaise,
		})
	}
	s.publisher.PublishOrderCreated(ctx, event)

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":    row.ID,
		"total_paise": row.TotalPaise,
	}), "order placed")

	order := fromModel(row)
	return &order, nil
}

// Get returns one of the user's orders.
func (s *Service) Get(ctx context.Context, userID string, id uuid.UUID) (*Order, error) {
	row, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	order := fromModel(row)
	return &order, nil
}

// List returns a page of the user's order history, newest first.
func (s *Service) List(ctx context.Context, userID string, params pagination.Params) (*Page, error) {
	after, err := pagination.DecodeToken(params.Cursor)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.ClampPageSize(params.Limit)
	rows, err := s.repo.ListByUser(ctx, userID, after, pagination.FetchSize(params.Limit))
	if err != nil {
		return nil, err
	}

	page := &Page{Orders: make([]Order, 0, min(len(rows), limit))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		page.Orders = append(page.Orders, fromModel(&rows[i]))
	}
	if hasMore {
		last := rows[len(rows)-1]
		page.NextCursor = pagination.NewToken(last.CreatedAt, last.ID).Encode()
	}
	return page, nil
}

func toPaise(amount decimal.Decimal) int {
	return int(amount.Shift(2).Round(0).IntPart())
}

func fromPaise(paise int) decimal.Decimal {
	return decimal.NewFromInt(int64(paise)).Shift(-2)
}

func fromModel(row *models.Order) Order {
	order := Order{
		ID:        row.ID,
		Status:    row.Status,
		AddressID: row.AddressID,
		Subtotal:  fromPaise(row.SubtotalPaise),
		Tax:       fromPaise(row.TaxPaise),
		Shipping:  fromPaise(row.ShippingPaise),
		Total:     fromPaise(row.TotalPaise),
		CreatedAt: row.CreatedAt,
	}
	for _, item := range row.Items {
		order.Items = append(order.Items, OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: fromPaise(item.UnitPricePaise),
			Quantity:  item.Qty,
			Total:     fromPaise(item.TotalPaise),
		})
	}
	return order
}
