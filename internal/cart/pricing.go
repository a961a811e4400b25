package cart

import (
	"github.com/angelmondragon/solecart-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// Each cart mutation applies its own total formula. AddItem and RemoveItem
// adjust by unit price, so the stored total can drift from Σ price×quantity
// until the next recomputing operation.

// addFlat is used by AddItem: the running total grows by the unit price only.
func addFlat(total decimal.Decimal, item models.ShoeVariation) decimal.Decimal {
	return total.Add(item.Price)
}

// subtractFlat is used by RemoveItem: the running total shrinks by the unit price only.
func subtractFlat(total decimal.Decimal, item models.ShoeVariation) decimal.Decimal {
	return total.Sub(item.Price)
}

// sumExtended recomputes Σ price×quantity.
func sumExtended(items models.ShoeVariations) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// sumChecked recomputes Σ price over checked items, ignoring quantity.
func sumChecked(items models.ShoeVariations) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.Checkmark {
			total = total.Add(item.Price)
		}
	}
	return total
}
