package offers

import (
	"github.com/google/uuid"

	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/loyalty"
	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/pricing"
)

// RewardKind identifies how a deal's reward is applied to the cart.
type RewardKind string

const (
	RewardFreeItem       RewardKind = "free_item"
	RewardCheapestInCart RewardKind = "cheapest_in_cart"
	RewardPercentage     RewardKind = "percentage"
	RewardFixed          RewardKind = "fixed"
)

// LineItem is one priced line of the cart as the engine sees it.
type LineItem struct {
	ItemID     uuid.UUID
	CategoryID *uuid.UUID
	Name       string
	UnitPrice  pricing.Money
	Qty        int
}

// Deal is a candidate discount already annotated by the eligibility evaluator.
// CalculatedDiscount is authoritative for percentage and fixed rewards; the
// engine resolves free_item and cheapest_in_cart against the current cart.
type Deal struct {
	DealID             uuid.UUID
	DealName           string
	Kind               RewardKind
	Stackable          bool
	Applicable         bool
	TriggerQuantity    int
	ItemsInCart        int
	CalculatedDiscount pricing.Money
	RewardItemName     string
}

// PromoDiscount is a validated promo code entering the candidate set. It is
// treated like any other candidate and only distinguished by its source.
type PromoDiscount struct {
	PromoID   uuid.UUID
	Code      string
	Amount    pricing.Money
	Stackable bool
}

// DiscountSource tags where an applied discount came from.
type DiscountSource string

const (
	SourceDeal    DiscountSource = "deal"
	SourcePromo   DiscountSource = "promo"
	SourceLoyalty DiscountSource = "loyalty"
)

// AppliedDiscount is one discount that made it into the final breakdown. The
// identifiers are persisted with the order for display and reporting.
type AppliedDiscount struct {
	Source  DiscountSource `json:"source"`
	DealID  *uuid.UUID     `json:"dealId,omitempty"`
	PromoID *uuid.UUID     `json:"promoId,omitempty"`
	Label   string         `json:"label"`
	Amount  pricing.Money  `json:"amount"`
}

// DealProgress tells the UI how far a not-yet-applicable deal is from
// unlocking. A read-only projection, not a pricing effect.
type DealProgress struct {
	DealID      uuid.UUID `json:"dealId"`
	DealName    string    `json:"dealName"`
	ItemsInCart int       `json:"itemsInCart"`
	ItemsNeeded int       `json:"itemsNeeded"`
}

// Breakdown is the final result of a pricing pass.
type Breakdown struct {
	Subtotal        pricing.Money     `json:"subtotal"`
	PromoDiscount   pricing.Money     `json:"promoDiscount"`
	LoyaltyDiscount pricing.Money     `json:"loyaltyDiscount"`
	Total           pricing.Money     `json:"total"`
	PointsEarned    int64             `json:"pointsEarned"`
	Discounts       []AppliedDiscount `json:"discounts"`
	Progress        []DealProgress    `json:"progress,omitempty"`
}

// Apply computes the final order total for a cart. All deal and promo
// discounts are taken against the original subtotal, summed and clamped so the
// running total never goes negative; loyalty redemption applies last against
// whatever remains. Pure and deterministic: identical inputs yield identical
// breakdowns.
func Apply(subtotal pricing.Money, items []LineItem, deals []Deal, promo *PromoDiscount, loy *loyalty.Redemption) Breakdown {
	out := Breakdown{Subtotal: subtotal}

	type candidate struct {
		applied   AppliedDiscount
		stackable bool
	}
	var stackable []candidate
	var exclusive []candidate

	for _, d := range deals {
		if !d.Applicable {
			needed := d.TriggerQuantity - d.ItemsInCart
			if needed < 0 {
				needed = 0
			}
			out.Progress = append(out.Progress, DealProgress{
				DealID:      d.DealID,
				DealName:    d.DealName,
				ItemsInCart: d.ItemsInCart,
				ItemsNeeded: needed,
			})
			continue
		}
		amount := resolveDealAmount(d, items)
		if amount <= 0 {
			// Reward item missing from the cart or a zero-value reward:
			// the deal degrades to a no-op instead of failing checkout.
			continue
		}
		id := d.DealID
		c := candidate{
			applied:   AppliedDiscount{Source: SourceDeal, DealID: &id, Label: d.DealName, Amount: amount},
			stackable: d.Stackable,
		}
		if d.Stackable {
			stackable = append(stackable, c)
		} else {
			exclusive = append(exclusive, c)
		}
	}

	if promo != nil && promo.Amount > 0 {
		id := promo.PromoID
		c := candidate{
			applied:   AppliedDiscount{Source: SourcePromo, PromoID: &id, Label: promo.Code, Amount: promo.Amount},
			stackable: promo.Stackable,
		}
		if promo.Stackable {
			stackable = append(stackable, c)
		} else {
			exclusive = append(exclusive, c)
		}
	}

	// Non-stackable candidates are mutually exclusive: keep the one worth the
	// most to the customer, first in input order on ties.
	var winner *candidate
	for i := range exclusive {
		if winner == nil || exclusive[i].applied.Amount > winner.applied.Amount {
			winner = &exclusive[i]
		}
	}

	var promoTotal pricing.Money
	if winner != nil {
		out.Discounts = append(out.Discounts, winner.applied)
		promoTotal += winner.applied.Amount
	}
	for _, c := range stackable {
		out.Discounts = append(out.Discounts, c.applied)
		promoTotal += c.applied.Amount
	}
	if promoTotal > subtotal {
		promoTotal = subtotal
	}
	out.PromoDiscount = promoTotal
	remaining := subtotal - promoTotal

	if loy != nil {
		if d := loy.Discount(remaining); d > 0 {
			out.LoyaltyDiscount = d
			out.Discounts = append(out.Discounts, AppliedDiscount{Source: SourceLoyalty, Label: "loyalty reward", Amount: d})
			remaining -= d
		}
	}
	if remaining < 0 {
		remaining = 0
	}
	out.Total = remaining

	perEuro := int64(0)
	if loy != nil {
		perEuro = loy.Snapshot.PointsPerEuro
	}
	out.PointsEarned = loyalty.PointsEarned(out.Total, perEuro)
	return out
}

// resolveDealAmount turns a candidate deal into a concrete discount amount
// against the current cart.
func resolveDealAmount(d Deal, items []LineItem) pricing.Money {
	switch d.Kind {
	case RewardFreeItem:
		for _, it := range items {
			if it.Name == d.RewardItemName {
				return it.UnitPrice
			}
		}
		return 0
	case RewardCheapestInCart:
		var cheapest pricing.Money
		found := false
		for _, it := range items {
			if it.Qty <= 0 {
				continue
			}
			// Strictly-less keeps the first occurrence on ties.
			if !found || it.UnitPrice < cheapest {
				cheapest = it.UnitPrice
				found = true
			}
		}
		if !found {
			return 0
		}
		return cheapest
	default:
		return d.CalculatedDiscount
	}
}
