// Package products serves the catalog: listings browsed by shoppers and the
// price/stock source of truth consulted at checkout.
package products

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aryankapoor/zapkart-backend/pkg/db/models"
	"github.com/aryankapoor/zapkart-backend/pkg/errors"
	"github.com/aryankapoor/zapkart-backend/pkg/pagination"
)

// Product is the service-level catalog entry. Prices are decimals in rupees;
// storage keeps paise integers.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	SKU         string          `json:"sku"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Stock       int             `json:"stock"`
	ImageRef    string          `json:"image_ref,omitempty"`
	IsActive    bool            `json:"is_active"`
}

// Page is one cursor page of catalog results.
type Page struct {
	Products   []Product `json:"products"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// CreateInput holds the fields for a new listing.
type CreateInput struct {
	SKU         string          `json:"sku" validate:"required"`
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"required"`
	Stock       int             `json:"stock" validate:"gte=0"`
	ImageRef    string          `json:"image_ref"`
}

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// List returns a page of active listings, newest first.
func (s *Service) List(ctx context.Context, params pagination.Params) (*Page, error) {
	after, err := pagination.DecodeToken(params.Cursor)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.ClampPageSize(params.Limit)
	rows, err := s.repo.ListActive(ctx, after, pagination.FetchSize(params.Limit))
	if err != nil {
		return nil, err
	}

	page := &Page{Products: make([]Product, 0, min(len(rows), limit))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		page.Products = append(page.Products, fromModel(&rows[i]))
	}
	if hasMore {
		last := rows[len(rows)-1]
		page.NextCursor = pagination.NewToken(last.CreatedAt, last.ID).Encode()
	}
	return page, nil
}

// Get returns one listing by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product := fromModel(row)
	return &product, nil
}

// GetMany resolves several listings at once, keyed by id. Ids that do not
// exist are simply absent from the result.
func (s *Service) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Product, error) {
	rows, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]Product, len(rows))
	for id, row := range rows {
		out[id] = fromModel(row)
	}
	return out, nil
}

// Create adds a listing to the catalog.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Product, error) {
	if input.SKU == "" || input.Title == "" {
		return nil, errors.New(errors.CodeValidation, "sku and title are required")
	}
	if input.UnitPrice.IsNegative() {
		return nil, errors.New(errors.CodeValidation, "unit price must not be negative")
	}
	if input.Stock < 0 {
		return nil, errors.New(errors.CodeValidation, "stock must not be negative")
	}

	row := &models.Product{
		SKU:            input.SKU,
		Title:          input.Title,
		UnitPricePaise: int(input.UnitPrice.Shift(2).IntPart()),
		Stock:          input.Stock,
		IsActive:       true,
	}
	if input.Description != "" {
		row.Description = &input.Description
	}
	if input.ImageRef != "" {
		row.ImageRef = &input.ImageRef
	}

	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}
	product := fromModel(row)
	return &product, nil
}

func fromModel(row *models.Product) Product {
	p := Product{
		ID:        row.ID,
		SKU:       row.SKU,
		Title:     row.Title,
		UnitPrice: decimal.NewFromInt(int64(row.UnitPricePaise)).Shift(-2),
		Stock:     row.Stock,
		IsActive:  row.IsActive,
	}
	if row.Description != nil {
		p.Description = *row.Description
	}
	if row.ImageRef != nil {
		p.ImageRef = *row.ImageRef
	}
	return p
}
