package cart

import (
	"time"

	"github.com/angelmondragon/solecart-backend/pkg/db/models"
	"github.com/angelmondragon/solecart-backend/pkg/enums"
	"github.com/google/uuid"
)

// CartDTO is the JSON shape returned by the cart routes.
type CartDTO struct {
	ID             uuid.UUID          `json:"id"`
	UniqueID       uuid.UUID          `json:"unique_id"`
	Email          string             `json:"email"`
	TotalPrice     float64            `json:"totalPrice"`
	OrderStatus    string             `json:"orderStatus"`
	ShoeVariations []ShoeVariationDTO `json:"shoeVariations"`
	PurchaseDate   time.Time          `json:"purchaseDate"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// ShoeVariationDTO is one line item on the wire.
type ShoeVariationDTO struct {
	Img       string         `json:"img,omitempty"`
	ID        string         `json:"id"`
	Checkmark bool           `json:"checkmark"`
	Name      string         `json:"name"`
	Type      enums.ShoeType `json:"type"`
	Size      float64        `json:"size"`
	Quantity  int            `json:"quantity"`
	Price     float64        `json:"price"`
}

// FromModel converts a persisted cart into its transport shape.
func FromModel(c *models.Cart) *CartDTO {
	if c == nil {
		return nil
	}
	items := make([]ShoeVariationDTO, 0, len(c.ShoeVariations))
	for _, item := range c.ShoeVariations {
		items = append(items, ShoeVariationDTO{
			Img:       item.Img,
			ID:        item.ID,
			Checkmark: item.Checkmark,
			Name:      item.Name,
			Type:      item.Type,
			Size:      item.Size,
			Quantity:  item.Quantity,
			Price:     item.Price.InexactFloat64(),
		})
	}
	return &CartDTO{
		ID:             c.ID,
		UniqueID:       c.UniqueID,
		Email:          c.Email,
		TotalPrice:     c.TotalPrice.InexactFloat64(),
		OrderStatus:    c.OrderStatus,
		ShoeVariations: items,
		PurchaseDate:   c.PurchaseDate,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
