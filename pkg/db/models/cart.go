package models

import (
	"time"

	"github.com/angelmondragon/solecart-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultOrderStatus is the status a cart carries until checkout.
const DefaultOrderStatus = "cart"

// Cart is the single open cart owned by an email address.
type Cart struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UniqueID       uuid.UUID       `gorm:"column:unique_id;type:uuid;not null;uniqueIndex"`
	Email          string          `gorm:"column:email;type:text;not null;uniqueIndex"`
	TotalPrice     decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null;default:0"`
	OrderStatus    string          `gorm:"column:order_status;type:text;not null;default:'cart'"`
	ShoeVariations ShoeVariations  `gorm:"column:shoe_variations;type:jsonb;serializer:json;not null"`
	PurchaseDate   time.Time       `gorm:"column:purchase_date;not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate fills identifiers and defaults that are immutable after insert.
func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.UniqueID == uuid.Nil {
		c.UniqueID = uuid.New()
	}
	if c.OrderStatus == "" {
		c.OrderStatus = DefaultOrderStatus
	}
	if c.PurchaseDate.IsZero() {
		c.PurchaseDate = time.Now().UTC()
	}
	if c.ShoeVariations == nil {
		c.ShoeVariations = ShoeVariations{}
	}
	return nil
}

// ShoeVariation is one line item inside a cart.
type ShoeVariation struct {
	Img       string          `json:"img,omitempty"`
	ID        string          `json:"id"`
	Checkmark bool            `json:"checkmark"`
	Name      string          `json:"name"`
	Type      enums.ShoeType  `json:"type"`
	Size      float64         `json:"size"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// ShoeVariations preserves insertion order of line items.
type ShoeVariations []ShoeVariation

// IndexOf returns the position of the first item with the id, or -1.
func (s ShoeVariations) IndexOf(id string) int {
	for i, item := range s {
		if item.ID == id {
			return i
		}
	}
	return -1
}
