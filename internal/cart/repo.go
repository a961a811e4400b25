package cart

import (
	"context"

	"github.com/angelmondragon/solecart-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EmailUniqueConstraint names the unique index that keeps one cart per email.
const EmailUniqueConstraint = "carts_email_key"

// Repository exposes persistence operations for carts.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByEmail loads the cart owned by email. forUpdate takes a row lock on
// dialects that support it; sqlite serializes writers on its own.
func (r *Repository) FindByEmail(ctx context.Context, email string, forUpdate bool) (*models.Cart, error) {
	query := r.db.WithContext(ctx)
	if forUpdate && query.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var record models.Cart
	if err := query.Where("email = ?", email).First(&record).Error; err != nil {
		return nil, err
	}
	if record.ShoeVariations == nil {
		record.ShoeVariations = models.ShoeVariations{}
	}
	return &record, nil
}

// Create inserts a new cart.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// Save persists the line items and total of an existing cart.
func (r *Repository) Save(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if err := r.db.WithContext(ctx).Save(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}
