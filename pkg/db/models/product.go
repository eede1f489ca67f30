package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog listing. Prices are stored in paise.
type Product struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	SKU            string    `gorm:"column:sku;not null;uniqueIndex"`
	Title          string    `gorm:"column:title;not null"`
	Description    *string   `gorm:"column:description"`
	UnitPricePaise int       `gorm:"column:unit_price_paise;not null"`
	Stock          int       `gorm:"column:stock;not null;default:0"`
	ImageRef       *string   `gorm:"column:image_ref"`
	IsActive       bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
