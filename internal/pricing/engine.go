package pricing

import "errors"

// Money represents a monetary value stored in minor units.
type Money = int64

var (
	// ErrInvalidQuantity is returned when a quantity is zero or negative.
	ErrInvalidQuantity = errors.New("pricing: quantity must be a positive integer")
	// ErrNegativeBasePrice is returned when a base or fixed price is negative.
	ErrNegativeBasePrice = errors.New("pricing: base price must not be negative")
)

// OptionChoice is a single option selected within an option group.
// PriceModifier carries the option's price contribution in minor units. For
// standalone items an option flagged as a size option replaces the base price
// entirely; in bundle slots modifiers are always deltas and SizeOption is
// ignored.
type OptionChoice struct {
	OptionID      string
	GroupID       string
	Name          string
	PriceModifier Money
	SizeOption    bool
}

// BundleSelection is one configured slot of a bundle, e.g. one pizza of a
// two-pizza formula. Supplement is a surcharge defined by the bundle
// configuration itself, independent of the chosen options.
type BundleSelection struct {
	Supplement      Money
	SelectedOptions []OptionChoice
}

// BundleInput carries everything needed to price one bundle line.
type BundleInput struct {
	FixedPrice  Money
	FreeOptions bool
	Selections  []BundleSelection
}

// BundleBreakdown aggregates the computed components of a bundle line.
type BundleBreakdown struct {
	FixedPrice       Money
	SupplementsTotal Money
	OptionsTotal     Money
	UnitPrice        Money
	Total            Money
}

// ItemBreakdown aggregates the computed components of a standalone item line.
type ItemBreakdown struct {
	BasePrice    Money
	OptionsTotal Money
	UnitPrice    Money
	Total        Money
}

// PriceBundle computes the price of a bundle line given its configuration and
// the customer's per-slot selections. Option modifiers are deltas on top of
// the bundle's fixed price; FreeOptions suppresses the option contribution but
// never the slot supplements. Negative modifiers are summed algebraically.
func PriceBundle(in BundleInput, qty int) (BundleBreakdown, error) {
	if qty <= 0 {
		return BundleBreakdown{}, ErrInvalidQuantity
	}
	if in.FixedPrice < 0 {
		return BundleBreakdown{}, ErrNegativeBasePrice
	}
	var supplements Money
	var options Money
	for _, sel := range in.Selections {
		supplements += sel.Supplement
		if in.FreeOptions {
			continue
		}
		for _, opt := range sel.SelectedOptions {
			options += opt.PriceModifier
		}
	}
	unit := in.FixedPrice + supplements + options
	return BundleBreakdown{
		FixedPrice:       in.FixedPrice,
		SupplementsTotal: supplements,
		OptionsTotal:     options,
		UnitPrice:        unit,
		Total:            unit * Money(qty),
	}, nil
}

// PriceItem computes the price of a standalone menu item line. A size option
// replaces the base price with its modifier; every other option adds its
// modifier on top. When several size options are present the last one wins,
// matching the single-choice semantics of size groups.
func PriceItem(base Money, options []OptionChoice, qty int) (ItemBreakdown, error) {
	if qty <= 0 {
		return ItemBreakdown{}, ErrInvalidQuantity
	}
	if base < 0 {
		return ItemBreakdown{}, ErrNegativeBasePrice
	}
	effectiveBase := base
	var extras Money
	for _, opt := range options {
		if opt.SizeOption {
			effectiveBase = opt.PriceModifier
			continue
		}
		extras += opt.PriceModifier
	}
	unit := effectiveBase + extras
	return ItemBreakdown{
		BasePrice:    effectiveBase,
		OptionsTotal: extras,
		UnitPrice:    unit,
		Total:        unit * Money(qty),
	}, nil
}

// RoundPercent applies a basis-point percentage to an amount and rounds the
// result half away from zero. Every percentage computation in the pricing path
// goes through this single rule.
func RoundPercent(amount Money, bps int) Money {
	product := amount * Money(bps)
	if product >= 0 {
		return (product + 5000) / 10000
	}
	return (product - 5000) / 10000
}
