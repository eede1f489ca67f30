package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aryankapoor/zapkart-backend/pkg/enums"
)

// Order is the placed-order record. Monetary totals are stored in paise and
// snapshot the pricing quote at checkout time.
type Order struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID         string            `gorm:"column:user_id;not null;index"`
	AddressID      uuid.UUID         `gorm:"column:address_id;type:uuid;not null"`
	Status         enums.OrderStatus `gorm:"column:status;not null;default:'placed'"`
	SubtotalPaise  int               `gorm:"column:subtotal_paise;not null"`
	TaxPaise       int               `gorm:"column:tax_paise;not null"`
	ShippingPaise  int               `gorm:"column:shipping_paise;not null"`
	TotalPaise     int               `gorm:"column:total_paise;not null"`
	Items          []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
