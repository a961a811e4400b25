package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/solecart-backend/internal/events"
	"github.com/angelmondragon/solecart-backend/pkg/db"
	"github.com/angelmondragon/solecart-backend/pkg/db/models"
	"github.com/angelmondragon/solecart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/solecart-backend/pkg/errors"
	"gorm.io/gorm"
)

const (
	cartNotFoundMessage = "cart not found"
	itemNotFoundMessage = "item not found in cart"
	maxCreateAttempts   = 2
)

var errCreateRace = errors.New("cart created concurrently")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the per-email cart operations.
type Service interface {
	AddItem(ctx context.Context, email string, item models.ShoeVariation) (*models.Cart, error)
	GetCart(ctx context.Context, email string) (*models.Cart, error)
	RemoveCheckedItems(ctx context.Context, email string, itemIDs []string) (*models.Cart, error)
	RemoveItem(ctx context.Context, email, itemID string) (*models.Cart, error)
	UpdateItemQuantity(ctx context.Context, email, itemID string, quantity int) (*models.Cart, error)
	RemoveUncheckedItems(ctx context.Context, email string) (*models.Cart, error)
}

type service struct {
	repo    CartRepository
	tx      txRunner
	emitter events.Emitter
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, emitter events.Emitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		emitter = events.Noop{}
	}
	return &service{repo: repo, tx: tx, emitter: emitter}, nil
}

// AddItem appends the item to the email's cart, creating the cart on first use.
func (s *service) AddItem(ctx context.Context, email string, item models.ShoeVariation) (*models.Cart, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	var (
		result  *models.Cart
		created bool
	)
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		created = false
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			record, err := repo.FindByEmail(ctx, email, true)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				record = &models.Cart{
					Email:          email,
					OrderStatus:    models.DefaultOrderStatus,
					ShoeVariations: models.ShoeVariations{},
				}
				created = true
			case err != nil:
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
			}

			record.ShoeVariations = append(record.ShoeVariations, item)
			record.TotalPrice = addFlat(record.TotalPrice, item)

			if created {
				saved, err := repo.Create(ctx, record)
				if err != nil {
					if db.IsUniqueViolation(err, EmailUniqueConstraint) {
						return errCreateRace
					}
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
				}
				result = saved
				return nil
			}
			saved, err := repo.Save(ctx, record)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart")
			}
			result = saved
			return nil
		})
		if !errors.Is(err, errCreateRace) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, errCreateRace) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
		}
		return nil, err
	}

	if created {
		s.emit(ctx, enums.EventCartCreated, result, nil)
	}
	s.emit(ctx, enums.EventCartItemAdded, result, []string{item.ID})
	return result, nil
}

// GetCart returns the email's cart as stored.
func (s *service) GetCart(ctx context.Context, email string) (*models.Cart, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	record, err := s.repo.FindByEmail(ctx, email, false)
	if err != nil {
		return nil, mapLookupError(err)
	}
	return record, nil
}

// RemoveCheckedItems drops every item whose id is listed and recomputes Σ price×quantity.
func (s *service) RemoveCheckedItems(ctx context.Context, email string, itemIDs []string) (*models.Cart, error) {
	remove := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		remove[id] = struct{}{}
	}
	var removed []string
	record, err := s.mutate(ctx, email, func(record *models.Cart) error {
		kept := make(models.ShoeVariations, 0, len(record.ShoeVariations))
		for _, item := range record.ShoeVariations {
			if _, ok := remove[item.ID]; ok {
				removed = append(removed, item.ID)
				continue
			}
			kept = append(kept, item)
		}
		record.ShoeVariations = kept
		record.TotalPrice = sumExtended(kept)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, enums.EventCartItemsRemoved, record, removed)
	return record, nil
}

// RemoveItem drops the first item with itemID and subtracts its unit price.
func (s *service) RemoveItem(ctx context.Context, email, itemID string) (*models.Cart, error) {
	record, err := s.mutate(ctx, email, func(record *models.Cart) error {
		idx := record.ShoeVariations.IndexOf(itemID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, itemNotFoundMessage)
		}
		removed := record.ShoeVariations[idx]
		items := make(models.ShoeVariations, 0, len(record.ShoeVariations)-1)
		items = append(items, record.ShoeVariations[:idx]...)
		items = append(items, record.ShoeVariations[idx+1:]...)
		record.ShoeVariations = items
		record.TotalPrice = subtractFlat(record.TotalPrice, removed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, enums.EventCartItemRemoved, record, []string{itemID})
	return record, nil
}

// UpdateItemQuantity sets the quantity of the first matching item and recomputes Σ price×quantity.
func (s *service) UpdateItemQuantity(ctx context.Context, email, itemID string, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	}
	record, err := s.mutate(ctx, email, func(record *models.Cart) error {
		idx := record.ShoeVariations.IndexOf(itemID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, itemNotFoundMessage)
		}
		record.ShoeVariations[idx].Quantity = quantity
		record.TotalPrice = sumExtended(record.ShoeVariations)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, enums.EventCartItemQuantityUpdated, record, []string{itemID})
	return record, nil
}

// RemoveUncheckedItems keeps only checked items and recomputes Σ price over them.
func (s *service) RemoveUncheckedItems(ctx context.Context, email string) (*models.Cart, error) {
	var removed []string
	record, err := s.mutate(ctx, email, func(record *models.Cart) error {
		kept := make(models.ShoeVariations, 0, len(record.ShoeVariations))
		for _, item := range record.ShoeVariations {
			if !item.Checkmark {
				removed = append(removed, item.ID)
				continue
			}
			kept = append(kept, item)
		}
		record.ShoeVariations = kept
		record.TotalPrice = sumChecked(kept)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, enums.EventCartUncheckedRemoved, record, removed)
	return record, nil
}

// mutate loads the cart under lock, applies fn and saves. Nothing is written when fn fails.
func (s *service) mutate(ctx context.Context, email string, fn func(record *models.Cart) error) (*models.Cart, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	var result *models.Cart
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindByEmail(ctx, email, true)
		if err != nil {
			return mapLookupError(err)
		}
		if err := fn(record); err != nil {
			return err
		}
		saved, err := repo.Save(ctx, record)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart")
		}
		result = saved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) emit(ctx context.Context, eventType enums.EventType, record *models.Cart, itemIDs []string) {
	s.emitter.Emit(ctx, events.Event{
		Type:  eventType,
		Email: record.Email,
		Data: events.CartData{
			CartID:     record.ID,
			UniqueID:   record.UniqueID,
			ItemIDs:    itemIDs,
			ItemCount:  len(record.ShoeVariations),
			TotalPrice: record.TotalPrice.String(),
		},
	})
}

func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	return trimmed, nil
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, cartNotFoundMessage)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
}
