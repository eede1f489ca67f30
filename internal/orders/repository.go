package orders

import (
	"context"
	stdErrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aryankapoor/zapkart-backend/pkg/db/models"
	"github.com/aryankapoor/zapkart-backend/pkg/errors"
	"github.com/aryankapoor/zapkart-backend/pkg/pagination"
)

// Repository wraps order persistence.
type Repository struct {
	conn *gorm.DB
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{conn: conn}
}

// Create inserts the order with its line items.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	conn := tx
	if conn == nil {
		conn = r.conn
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	if err := conn.WithContext(ctx).Create(order).Error; err != nil {
		return errors.Wrap(errors.CodeDependency, err, "inserting order")
	}
	return nil
}

// GetByID returns one order with items, scoped to the owning user.
func (r *Repository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.conn.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "order not found")
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "querying order")
	}
	return &order, nil
}

// ListByUser returns one page of the user's orders, newest first, resuming
// after the given page token.
func (r *Repository) ListByUser(ctx context.Context, userID string, after *pagination.Token, limit int) ([]models.Order, error) {
	query := r.conn.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit)

	if after != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			after.CreatedAt, after.CreatedAt, after.ID,
		)
	}

	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "listing orders")
	}
	return rows, nil
}
