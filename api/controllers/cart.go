package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/solecart-backend/api/responses"
	"github.com/angelmondragon/solecart-backend/api/validators"
	"github.com/angelmondragon/solecart-backend/internal/cart"
	"github.com/angelmondragon/solecart-backend/pkg/db/models"
	"github.com/angelmondragon/solecart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/solecart-backend/pkg/errors"
	"github.com/angelmondragon/solecart-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	cartAddedMessage = "Successfully carted!"
	cartFoundMessage = "Cart has been found"

	maxPriceScale = 2
)

type shoeVariationRequest struct {
	Img       string           `json:"img" validate:"max=2048"`
	ID        string           `json:"id" validate:"required,max=128"`
	Checkmark *bool            `json:"checkmark" validate:"required"`
	Name      string           `json:"name" validate:"required,max=255"`
	Type      enums.ShoeType   `json:"type" validate:"required,oneof=M F"`
	Size      *float64         `json:"size" validate:"required,gte=0"`
	Quantity  *int             `json:"quantity" validate:"required,gte=0"`
	Price     *decimal.Decimal `json:"price" validate:"required"`
}

// checkPrice enforces the numeric(12,2) column so the stored total matches
// the one returned to the caller.
func (s shoeVariationRequest) checkPrice() error {
	switch {
	case s.Price.IsNegative():
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be zero or greater")
	case !s.Price.Equal(s.Price.Round(maxPriceScale)):
		return pkgerrors.New(pkgerrors.CodeValidation, "price must have at most two decimal places")
	}
	return nil
}

func (s shoeVariationRequest) toModel() models.ShoeVariation {
	return models.ShoeVariation{
		Img:       s.Img,
		ID:        s.ID,
		Checkmark: *s.Checkmark,
		Name:      s.Name,
		Type:      s.Type,
		Size:      *s.Size,
		Quantity:  *s.Quantity,
		Price:     *s.Price,
	}
}

type addToCartRequest struct {
	Email         string               `json:"email" validate:"required,email"`
	ShoeVariation shoeVariationRequest `json:"shoeVariation"`
}

type removeCheckedRequest struct {
	ItemsToRemove []string `json:"itemsToRemove" validate:"required,dive,required"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

type cartEnvelope struct {
	Cart    *cart.CartDTO `json:"cart"`
	Message string        `json:"message"`
}

// CartAddItem appends a line item, creating the cart on first use.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var body addToCartRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := cartContext(r, logg, body.Email)
		if err := body.ShoeVariation.checkPrice(); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.AddItem(ctx, body.Email, body.ShoeVariation.toModel())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, cartEnvelope{Cart: cart.FromModel(result), Message: cartAddedMessage})
	}
}

func CartGet(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		email, err := validators.PathParam(r, "email")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := cartContext(r, logg, email)
		result, err := svc.GetCart(ctx, email)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, cartEnvelope{Cart: cart.FromModel(result), Message: cartFoundMessage})
	}
}

func CartRemoveChecked(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		email, err := validators.PathParam(r, "email")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := cartContext(r, logg, email)

		var body removeCheckedRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.RemoveCheckedItems(ctx, email, body.ItemsToRemove)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart.FromModel(result))
	}
}

func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		email, itemID, err := emailAndItem(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := cartContext(r, logg, email)
		result, err := svc.RemoveItem(ctx, email, itemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart.FromModel(result))
	}
}

func CartUpdateQuantity(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		email, itemID, err := emailAndItem(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := cartContext(r, logg, email)

		var body updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.UpdateItemQuantity(ctx, email, itemID, *body.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart.FromModel(result))
	}
}

func CartRemoveUnchecked(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		email, err := validators.PathParam(r, "email")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := cartContext(r, logg, email)
		result, err := svc.RemoveUncheckedItems(ctx, email)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart.FromModel(result))
	}
}

// cartContext tags the request logger with the cart owner.
func cartContext(r *http.Request, logg *logger.Logger, email string) context.Context {
	if logg == nil {
		return r.Context()
	}
	return logg.WithCartEmail(r.Context(), email)
}

func emailAndItem(r *http.Request) (string, string, error) {
	email, err := validators.PathParam(r, "email")
	if err != nil {
		return "", "", err
	}
	itemID, err := validators.PathParam(r, "itemId")
	if err != nil {
		return "", "", err
	}
	return email, itemID, nil
}
