package products

import (
	"context"
	stdErrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aryankapoor/zapkart-backend/pkg/db/models"
	"github.com/aryankapoor/zapkart-backend/pkg/errors"
	"github.com/aryankapoor/zapkart-backend/pkg/pagination"
)

// Repository wraps catalog queries.
type Repository struct {
	conn *gorm.DB
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{conn: conn}
}

// Create inserts a product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if err := r.conn.WithContext(ctx).Create(product).Error; err != nil {
		return errors.Wrap(errors.CodeDependency, err, "inserting product")
	}
	return nil
}

// GetByID returns one product.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.conn.WithContext(ctx).First(&product, "id = ?", id).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "product not found")
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "querying product")
	}
	return &product, nil
}

// GetByIDs returns the products for the given ids, keyed by id.
func (r *Repository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	out := map[uuid.UUID]*models.Product{}
	if len(ids) == 0 {
		return out, nil
	}

	var rows []models.Product
	if err := r.conn.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "querying products")
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// ListActive returns one page of active products, newest first, resuming
// after the given page token.
func (r *Repository) ListActive(ctx context.Context, after *pagination.Token, limit int) ([]models.Product, error) {
	query := r.conn.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC, id DESC").
		Limit(limit)

	if after != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			after.CreatedAt, after.CreatedAt, after.ID,
		)
	}

	var rows []models.Product
	if err := query.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "listing products")
	}
	return rows, nil
}

// Update persists changed columns of an existing product.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	result := r.conn.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"title":            product.Title,
			"description":      product.Description,
			"unit_price_paise": product.UnitPricePaise,
			"stock":            product.Stock,
			"image_ref":        product.ImageRef,
			"is_active":        product.IsActive,
		})
	if result.Error != nil {
		return errors.Wrap(errors.CodeDependency, result.Error, "updating product")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.CodeNotFound, "product not found")
	}
	return nil
}

// DecrementStock reduces stock by qty, failing when not enough is available.
func (r *Repository) DecrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) error {
	conn := tx
	if conn == nil {
		conn = r.conn
	}
	result := conn.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return errors.Wrap(errors.CodeDependency, result.Error, "decrementing stock")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.CodeConflict, "insufficient stock")
	}
	return nil
}
