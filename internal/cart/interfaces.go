package cart

import (
	"context"

	"github.com/angelmondragon/solecart-backend/pkg/db/models"
	"gorm.io/gorm"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByEmail(ctx context.Context, email string, forUpdate bool) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) (*models.Cart, error)
}
