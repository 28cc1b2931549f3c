package offers

import (
	"github.com/google/uuid"

	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/pricing"
	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/store"
)

// EvaluateDeals annotates the truck's configured deals against the current
// cart: trigger progress, applicability and the pre-computed discount amount
// the engine consumes for percentage and fixed rewards. free_item and
// cheapest_in_cart amounts stay zero here; the engine resolves them against
// cart contents at application time.
func EvaluateDeals(rows []store.Deal, items []LineItem, subtotal pricing.Money) []Deal {
	if len(rows) == 0 {
		return nil
	}
	out := make([]Deal, 0, len(rows))
	for _, row := range rows {
		d := Deal{
			DealID:          uuid.UUID(row.ID.Bytes),
			DealName:        row.Name,
			Kind:            RewardKind(row.Kind),
			Stackable:       row.Stackable,
			TriggerQuantity: int(row.TriggerQuantity),
			RewardItemName:  row.RewardItemName.String,
		}
		d.ItemsInCart = triggerCount(row, items)
		d.Applicable = d.ItemsInCart >= d.TriggerQuantity
		if d.Applicable {
			switch d.Kind {
			case RewardPercentage:
				if row.PercentBps.Valid && row.PercentBps.Int32 > 0 {
					d.CalculatedDiscount = pricing.RoundPercent(subtotal, int(row.PercentBps.Int32))
				}
			case RewardFixed:
				d.CalculatedDiscount = row.RewardValue
			}
		}
		out = append(out, d)
	}
	return out
}

// triggerCount sums quantities of cart lines matching the deal's trigger
// category, or the whole cart when the deal has no category scope.
func triggerCount(row store.Deal, items []LineItem) int {
	var count int
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		if row.TriggerCategoryID.Valid {
			if it.CategoryID == nil || *it.CategoryID != uuid.UUID(row.TriggerCategoryID.Bytes) {
				continue
			}
		}
		count += it.Qty
	}
	return count
}

// LineItemsFromCartLines converts persisted cart lines into the engine's view.
func LineItemsFromCartLines(lines []store.CartLine) []LineItem {
	out := make([]LineItem, 0, len(lines))
	for _, l := range lines {
		item := LineItem{
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Qty:       int(l.Qty),
		}
		if l.ItemID.Valid {
			item.ItemID = uuid.UUID(l.ItemID.Bytes)
		} else if l.BundleID.Valid {
			item.ItemID = uuid.UUID(l.BundleID.Bytes)
		}
		if l.CategoryID.Valid {
			cat := uuid.UUID(l.CategoryID.Bytes)
			item.CategoryID = &cat
		}
		out = append(out, item)
	}
	return out
}
