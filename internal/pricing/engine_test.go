package pricing

import (
	"errors"
	"math/rand"
	"testing"
)

func TestPriceBundleFixedPriceOnly(t *testing.T) {
	in := BundleInput{FixedPrice: 1200, Selections: []BundleSelection{{}}}
	got, err := PriceBundle(in, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UnitPrice != 1200 || got.Total != 1200 {
		t.Fatalf("expected 1200/1200, got %d/%d", got.UnitPrice, got.Total)
	}
}

func TestPriceBundleOptionIsDelta(t *testing.T) {
	// A size option on a bundle slot contributes its modifier as a delta,
	// never as a replacement of the fixed price.
	in := BundleInput{
		FixedPrice: 1200,
		Selections: []BundleSelection{{
			SelectedOptions: []OptionChoice{{Name: "M", PriceModifier: 300, SizeOption: true}},
		}},
	}
	got, err := PriceBundle(in, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UnitPrice != 1500 {
		t.Fatalf("expected unit price 1500, got %d", got.UnitPrice)
	}
}

func TestPriceBundleFreeOptionsKeepsSupplements(t *testing.T) {
	selections := []BundleSelection{
		{Supplement: 200, SelectedOptions: []OptionChoice{{PriceModifier: 150}}},
		{SelectedOptions: []OptionChoice{{PriceModifier: 100}, {PriceModifier: 50}}},
	}
	paid, err := PriceBundle(BundleInput{FixedPrice: 2000, Selections: selections}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	free, err := PriceBundle(BundleInput{FixedPrice: 2000, FreeOptions: true, Selections: selections}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if free.OptionsTotal != 0 {
		t.Fatalf("expected options total 0 with free options, got %d", free.OptionsTotal)
	}
	if free.SupplementsTotal != paid.SupplementsTotal {
		t.Fatalf("free options must not change supplements: %d vs %d", free.SupplementsTotal, paid.SupplementsTotal)
	}
	if free.UnitPrice != 2200 || paid.UnitPrice != 2500 {
		t.Fatalf("unexpected unit prices: free=%d paid=%d", free.UnitPrice, paid.UnitPrice)
	}
}

func TestPriceBundleAdditivityProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		in := BundleInput{FixedPrice: rng.Int63n(5000)}
		var supplements, options Money
		for s := 0; s < rng.Intn(5); s++ {
			sel := BundleSelection{Supplement: rng.Int63n(500)}
			supplements += sel.Supplement
			for o := 0; o < rng.Intn(4); o++ {
				opt := OptionChoice{PriceModifier: rng.Int63n(800)}
				options += opt.PriceModifier
				sel.SelectedOptions = append(sel.SelectedOptions, opt)
			}
			in.Selections = append(in.Selections, sel)
		}
		got, err := PriceBundle(in, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := in.FixedPrice + supplements + options
		if got.UnitPrice != want {
			t.Fatalf("additivity violated: got %d want %d (input %+v)", got.UnitPrice, want, in)
		}
	}
}

func TestPriceBundleQuantityLinearity(t *testing.T) {
	in := BundleInput{
		FixedPrice: 1850,
		Selections: []BundleSelection{{Supplement: 100, SelectedOptions: []OptionChoice{{PriceModifier: 250}}}},
	}
	unit, err := PriceBundle(in, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, qty := range []int{1, 2, 3, 7, 25} {
		got, err := PriceBundle(in, qty)
		if err != nil {
			t.Fatalf("qty %d: unexpected error: %v", qty, err)
		}
		if got.Total != unit.UnitPrice*Money(qty) {
			t.Fatalf("qty %d: expected total %d, got %d", qty, unit.UnitPrice*Money(qty), got.Total)
		}
	}
}

func TestPriceBundleNegativeModifierSummed(t *testing.T) {
	in := BundleInput{
		FixedPrice: 1000,
		Selections: []BundleSelection{{SelectedOptions: []OptionChoice{{PriceModifier: -200}, {PriceModifier: 300}}}},
	}
	got, err := PriceBundle(in, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UnitPrice != 1100 {
		t.Fatalf("expected 1100, got %d", got.UnitPrice)
	}
}

func TestPriceBundleContractViolations(t *testing.T) {
	if _, err := PriceBundle(BundleInput{FixedPrice: 1000}, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := PriceBundle(BundleInput{FixedPrice: -1}, 1); !errors.Is(err, ErrNegativeBasePrice) {
		t.Fatalf("expected ErrNegativeBasePrice, got %v", err)
	}
}

func TestPriceItemSizeOptionReplacesBase(t *testing.T) {
	got, err := PriceItem(900, []OptionChoice{
		{Name: "L", PriceModifier: 1300, SizeOption: true},
		{Name: "extra cheese", PriceModifier: 100},
	}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UnitPrice != 1400 {
		t.Fatalf("expected size option to replace base (1300+100), got %d", got.UnitPrice)
	}
}

func TestPriceItemNoOptions(t *testing.T) {
	got, err := PriceItem(750, nil, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UnitPrice != 750 || got.Total != 1500 {
		t.Fatalf("expected 750/1500, got %d/%d", got.UnitPrice, got.Total)
	}
}

func TestPriceItemContractViolations(t *testing.T) {
	if _, err := PriceItem(100, nil, -3); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := PriceItem(-100, nil, 1); !errors.Is(err, ErrNegativeBasePrice) {
		t.Fatalf("expected ErrNegativeBasePrice, got %v", err)
	}
}

func TestRoundPercent(t *testing.T) {
	cases := []struct {
		amount Money
		bps    int
		want   Money
	}{
		{10000, 1000, 1000},
		{999, 1000, 100}, // 99.9 rounds up
		{994, 1000, 99},  // 99.4 rounds down
		{995, 1000, 100}, // half rounds away from zero
		{5000, 1500, 750},
		{1, 1, 0},
		{-995, 1000, -100}, // negative half also rounds away from zero
	}
	for _, tc := range cases {
		if got := RoundPercent(tc.amount, tc.bps); got != tc.want {
			t.Fatalf("RoundPercent(%d, %d) = %d, want %d", tc.amount, tc.bps, got, tc.want)
		}
	}
}
