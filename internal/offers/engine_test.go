package offers

import (
	"testing"

	"github.com/google/uuid"

	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/loyalty"
)

func TestApplyNonStackableKeepsLargest(t *testing.T) {
	deals := []Deal{
		{DealID: uuid.New(), DealName: "five hundred", Kind: RewardFixed, Applicable: true, CalculatedDiscount: 500},
		{DealID: uuid.New(), DealName: "eight hundred", Kind: RewardFixed, Applicable: true, CalculatedDiscount: 800},
	}
	got := Apply(5000, nil, deals, nil, nil)
	if len(got.Discounts) != 1 {
		t.Fatalf("expected exactly one applied discount, got %d", len(got.Discounts))
	}
	if got.Discounts[0].Amount != 800 {
		t.Fatalf("expected the larger deal (800) to win, got %d", got.Discounts[0].Amount)
	}
	if got.Total != 4200 {
		t.Fatalf("expected total 4200, got %d", got.Total)
	}
}

func TestApplyNonStackableTieFirstWins(t *testing.T) {
	first := uuid.New()
	deals := []Deal{
		{DealID: first, DealName: "first", Kind: RewardFixed, Applicable: true, CalculatedDiscount: 500},
		{DealID: uuid.New(), DealName: "second", Kind: RewardFixed, Applicable: true, CalculatedDiscount: 500},
	}
	got := Apply(5000, nil, deals, nil, nil)
	if len(got.Discounts) != 1 || *got.Discounts[0].DealID != first {
		t.Fatalf("expected the first deal to win the tie, got %+v", got.Discounts)
	}
}

func TestApplyStackablesCumulative(t *testing.T) {
	deals := []Deal{
		{DealID: uuid.New(), DealName: "exclusive", Kind: RewardFixed, Applicable: true, CalculatedDiscount: 300},
		{DealID: uuid.New(), DealName: "stack a", Kind: RewardFixed, Applicable: true, Stackable: true, CalculatedDiscount: 100},
		{DealID: uuid.New(), DealName: "stack b", Kind: RewardFixed, Applicable: true, Stackable: true, CalculatedDiscount: 200},
	}
	got := Apply(2000, nil, deals, nil, nil)
	if got.PromoDiscount != 600 {
		t.Fatalf("expected 300+100+200=600, got %d", got.PromoDiscount)
	}
	if got.Total != 1400 {
		t.Fatalf("expected total 1400, got %d", got.Total)
	}
}

func TestApplyClampsAtZero(t *testing.T) {
	deals := []Deal{{DealID: uuid.New(), DealName: "oversized", Kind: RewardFixed, Applicable: true, CalculatedDiscount: 1500}}
	got := Apply(1000, nil, deals, nil, nil)
	if got.Total != 0 {
		t.Fatalf("expected clamped total 0, got %d", got.Total)
	}
	if got.PromoDiscount != 1000 {
		t.Fatalf("expected promo discount capped at subtotal, got %d", got.PromoDiscount)
	}
}

func TestApplyCheapestInCartFirstOccurrenceWins(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	items := []LineItem{
		{ItemID: a, Name: "frites", UnitPrice: 350, Qty: 1},
		{ItemID: b, Name: "dip", UnitPrice: 350, Qty: 1},
		{ItemID: uuid.New(), Name: "burger", UnitPrice: 900, Qty: 1},
	}
	deals := []Deal{{DealID: uuid.New(), DealName: "cheapest free", Kind: RewardCheapestInCart, Applicable: true}}
	got := Apply(1600, items, deals, nil, nil)
	if got.PromoDiscount != 350 {
		t.Fatalf("expected 350 off, got %d", got.PromoDiscount)
	}
}

func TestApplyFreeItemMissingFromCartNoOps(t *testing.T) {
	items := []LineItem{{ItemID: uuid.New(), Name: "burger", UnitPrice: 900, Qty: 1}}
	deals := []Deal{{DealID: uuid.New(), DealName: "free frites", Kind: RewardFreeItem, Applicable: true, RewardItemName: "frites"}}
	got := Apply(900, items, deals, nil, nil)
	if got.PromoDiscount != 0 || got.Total != 900 {
		t.Fatalf("expected a no-op, got discount %d total %d", got.PromoDiscount, got.Total)
	}
}

func TestApplyFreeItemSubtractsRewardPrice(t *testing.T) {
	items := []LineItem{
		{ItemID: uuid.New(), Name: "burger", UnitPrice: 900, Qty: 2},
		{ItemID: uuid.New(), Name: "frites", UnitPrice: 350, Qty: 1},
	}
	deals := []Deal{{DealID: uuid.New(), DealName: "free frites", Kind: RewardFreeItem, Applicable: true, RewardItemName: "frites"}}
	got := Apply(2150, items, deals, nil, nil)
	if got.PromoDiscount != 350 || got.Total != 1800 {
		t.Fatalf("expected 350 off 2150, got discount %d total %d", got.PromoDiscount, got.Total)
	}
}

func TestApplyPromoCompetesWithDeals(t *testing.T) {
	deals := []Deal{{DealID: uuid.New(), DealName: "deal", Kind: RewardFixed, Applicable: true, CalculatedDiscount: 400}}
	promo := &PromoDiscount{PromoID: uuid.New(), Code: "SUMMER", Amount: 600}
	got := Apply(3000, nil, deals, promo, nil)
	if len(got.Discounts) != 1 || got.Discounts[0].Source != SourcePromo {
		t.Fatalf("expected the promo to win exclusivity, got %+v", got.Discounts)
	}
	if got.Total != 2400 {
		t.Fatalf("expected total 2400, got %d", got.Total)
	}
}

func TestApplyLoyaltyComputedAfterPromo(t *testing.T) {
	deals := []Deal{{DealID: uuid.New(), DealName: "deal", Kind: RewardFixed, Applicable: true, CalculatedDiscount: 4700}}
	loy := &loyalty.Redemption{
		Requested: true,
		Snapshot:  loyalty.BuildSnapshot(120, 100, 1, 500),
	}
	got := Apply(5000, nil, deals, nil, loy)
	// subtotalAfterPromo = 300, so redemption is capped at the remainder.
	if got.LoyaltyDiscount != 300 {
		t.Fatalf("expected loyalty discount capped at 300, got %d", got.LoyaltyDiscount)
	}
	if got.Total != 0 {
		t.Fatalf("expected total 0, got %d", got.Total)
	}
}

func TestApplyLoyaltyNotRequestedIgnored(t *testing.T) {
	loy := &loyalty.Redemption{Requested: false, Snapshot: loyalty.BuildSnapshot(500, 100, 1, 500)}
	got := Apply(2000, nil, nil, nil, loy)
	if got.LoyaltyDiscount != 0 || got.Total != 2000 {
		t.Fatalf("expected untouched total, got loyalty %d total %d", got.LoyaltyDiscount, got.Total)
	}
}

func TestApplyPointsEarnedOnFinalTotal(t *testing.T) {
	loy := &loyalty.Redemption{Snapshot: loyalty.Snapshot{PointsPerEuro: 1}}
	got := Apply(2550, nil, nil, nil, loy)
	if got.PointsEarned != 25 {
		t.Fatalf("expected 25 points on a 25.50 total, got %d", got.PointsEarned)
	}
}

func TestApplyProgressProjection(t *testing.T) {
	id := uuid.New()
	deals := []Deal{{DealID: id, DealName: "buy 3 tacos", Kind: RewardFreeItem, TriggerQuantity: 3, ItemsInCart: 1}}
	got := Apply(1000, nil, deals, nil, nil)
	if len(got.Progress) != 1 {
		t.Fatalf("expected one progress entry, got %d", len(got.Progress))
	}
	p := got.Progress[0]
	if p.DealID != id || p.ItemsNeeded != 2 {
		t.Fatalf("expected 2 more items needed, got %+v", p)
	}
	if got.PromoDiscount != 0 {
		t.Fatalf("progress must not price anything, got discount %d", got.PromoDiscount)
	}
}

func TestApplyNeverNegative(t *testing.T) {
	deals := []Deal{
		{DealID: uuid.New(), DealName: "a", Kind: RewardFixed, Applicable: true, Stackable: true, CalculatedDiscount: 900_000},
		{DealID: uuid.New(), DealName: "b", Kind: RewardFixed, Applicable: true, CalculatedDiscount: 900_000},
	}
	loy := &loyalty.Redemption{Requested: true, Snapshot: loyalty.BuildSnapshot(10_000, 100, 1, 500)}
	for _, subtotal := range []int64{0, 1, 999, 100_000} {
		got := Apply(subtotal, nil, deals, nil, loy)
		if got.Total < 0 {
			t.Fatalf("total went negative for subtotal %d: %d", subtotal, got.Total)
		}
	}
}

func TestApplyIdempotent(t *testing.T) {
	deals := []Deal{
		{DealID: uuid.New(), DealName: "deal", Kind: RewardFixed, Applicable: true, CalculatedDiscount: 250},
		{DealID: uuid.New(), DealName: "pending", Kind: RewardFixed, TriggerQuantity: 2, ItemsInCart: 1},
	}
	promo := &PromoDiscount{PromoID: uuid.New(), Code: "X", Amount: 100, Stackable: true}
	first := Apply(4000, nil, deals, promo, nil)
	second := Apply(4000, nil, deals, promo, nil)
	if first.Total != second.Total || first.PromoDiscount != second.PromoDiscount {
		t.Fatalf("expected identical results, got %+v vs %+v", first, second)
	}
}
