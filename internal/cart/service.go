package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/loyalty"
	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/obs"
	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/offers"
	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/pricing"
	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/store"
)

// ErrNotFound indicates the requested cart or line could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// ErrUnavailable is returned when the referenced item or bundle is not
// currently orderable.
var ErrUnavailable = errors.New("item not available")

// Querier captures the store methods the cart service depends on.
type Querier interface {
	CreateCart(ctx context.Context, arg store.CreateCartParams) (store.Cart, error)
	GetCartByID(ctx context.Context, id pgtype.UUID) (store.Cart, error)
	GetActiveCartByCustomer(ctx context.Context, arg store.GetActiveCartByCustomerParams) (store.Cart, error)
	GetActiveCartByAnon(ctx context.Context, arg store.GetActiveCartByAnonParams) (store.Cart, error)
	TouchCart(ctx context.Context, arg store.TouchCartParams) error
	UpdateCartPromoCode(ctx context.Context, arg store.UpdateCartPromoCodeParams) error
	UpdateCartLoyaltyOptIn(ctx context.Context, arg store.UpdateCartLoyaltyOptInParams) error
	CreateCartLine(ctx context.Context, arg store.CreateCartLineParams) (store.CartLine, error)
	GetCartLineByID(ctx context.Context, id pgtype.UUID) (store.CartLine, error)
	UpdateCartLineQty(ctx context.Context, arg store.UpdateCartLineQtyParams) (store.CartLine, error)
	DeleteCartLine(ctx context.Context, arg store.DeleteCartLineParams) error
	ListCartLines(ctx context.Context, cartID pgtype.UUID) ([]store.CartLine, error)
	GetMenuItemByID(ctx context.Context, id pgtype.UUID) (store.MenuItem, error)
	ListOptionsByIDs(ctx context.Context, ids []pgtype.UUID) ([]store.Option, error)
	GetBundleByID(ctx context.Context, id pgtype.UUID) (store.Bundle, error)
	ListBundleSlots(ctx context.Context, bundleID pgtype.UUID) ([]store.BundleSlot, error)
}

// Service encapsulates cart domain operations: line management, promo and
// loyalty toggles, and the full pricing quote.
type Service struct {
	Q       Querier
	Offers  *offers.Service
	Loyalty *loyalty.Service
	TTL     time.Duration
	Now     func() time.Time
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// EnsureCart loads the caller's active cart for the truck, creating one when
// none exists. Each hit slides the expiry forward by the configured TTL.
func (s *Service) EnsureCart(ctx context.Context, truckID pgtype.UUID, customerID, anonID *string) (store.Cart, error) {
	if s == nil || s.Q == nil {
		return store.Cart{}, errors.New("cart service not configured")
	}
	expires := pgtype.Timestamptz{Time: s.now().Add(s.ttl()), Valid: true}

	if customerID != nil && *customerID != "" {
		cid, err := store.ToUUID(*customerID)
		if err != nil {
			return store.Cart{}, fmt.Errorf("parse customer id: %w", err)
		}
		cart, err := s.Q.GetActiveCartByCustomer(ctx, store.GetActiveCartByCustomerParams{TruckID: truckID, CustomerID: cid})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return s.Q.CreateCart(ctx, store.CreateCartParams{TruckID: truckID, CustomerID: cid, ExpiresAt: expires})
			}
			return store.Cart{}, err
		}
		_ = s.Q.TouchCart(ctx, store.TouchCartParams{ID: cart.ID, ExpiresAt: expires})
		return cart, nil
	}

	if anonID != nil && *anonID != "" {
		anon := pgtype.Text{String: *anonID, Valid: true}
		cart, err := s.Q.GetActiveCartByAnon(ctx, store.GetActiveCartByAnonParams{TruckID: truckID, AnonID: anon})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return s.Q.CreateCart(ctx, store.CreateCartParams{TruckID: truckID, AnonID: anon, ExpiresAt: expires})
			}
			return store.Cart{}, err
		}
		_ = s.Q.TouchCart(ctx, store.TouchCartParams{ID: cart.ID, ExpiresAt: expires})
		return cart, nil
	}

	return store.Cart{}, fmt.Errorf("customer or anonymous id required: %w", ErrInvalidInput)
}

// itemSelections is the persisted snapshot of the option choices that priced
// a line. Stored as JSON so the order keeps a faithful copy even if the menu
// changes later.
type itemSelections struct {
	OptionIDs []string `json:"optionIds,omitempty"`
	Options   []string `json:"options,omitempty"`
}

type bundleSelections struct {
	Slots []bundleSlotSelection `json:"slots"`
}

type bundleSlotSelection struct {
	SlotID    string   `json:"slotId"`
	SlotName  string   `json:"slotName"`
	OptionIDs []string `json:"optionIds,omitempty"`
}

// AddItemLine prices a standalone menu item with the chosen options and
// appends it to the cart.
func (s *Service) AddItemLine(ctx context.Context, cartID pgtype.UUID, itemID string, optionIDs []string, qty int) (store.CartLine, error) {
	if s == nil || s.Q == nil {
		return store.CartLine{}, errors.New("cart service not configured")
	}
	if qty <= 0 {
		return store.CartLine{}, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	iid, err := store.ToUUID(itemID)
	if err != nil {
		return store.CartLine{}, fmt.Errorf("parse item id: %w", err)
	}
	item, err := s.Q.GetMenuItemByID(ctx, iid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.CartLine{}, ErrNotFound
		}
		return store.CartLine{}, err
	}
	if !item.Available {
		return store.CartLine{}, ErrUnavailable
	}
	choices, snapshot, err := s.loadOptionChoices(ctx, optionIDs)
	if err != nil {
		return store.CartLine{}, err
	}
	breakdown, err := pricing.PriceItem(item.BasePrice, choices, qty)
	if err != nil {
		return store.CartLine{}, fmt.Errorf("price item: %w", err)
	}
	selections, err := json.Marshal(snapshot)
	if err != nil {
		return store.CartLine{}, fmt.Errorf("encode selections: %w", err)
	}
	return s.Q.CreateCartLine(ctx, store.CreateCartLineParams{
		CartID:     cartID,
		ItemID:     item.ID,
		CategoryID: item.CategoryID,
		Name:       item.Name,
		Qty:        int32(qty),
		UnitPrice:  breakdown.UnitPrice,
		Subtotal:   breakdown.Total,
		Selections: selections,
	})
}

// BundleSlotInput is the caller's choice for one bundle slot.
type BundleSlotInput struct {
	SlotID    string
	OptionIDs []string
}

// AddBundleLine prices a configured bundle and appends it to the cart. The
// bundle's fixed price is the base; slot supplements always add, option
// modifiers add unless the bundle absorbs them.
func (s *Service) AddBundleLine(ctx context.Context, cartID pgtype.UUID, bundleID string, slots []BundleSlotInput, qty int) (store.CartLine, error) {
	if s == nil || s.Q == nil {
		return store.CartLine{}, errors.New("cart service not configured")
	}
	if qty <= 0 {
		return store.CartLine{}, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	bid, err := store.ToUUID(bundleID)
	if err != nil {
		return store.CartLine{}, fmt.Errorf("parse bundle id: %w", err)
	}
	bundle, err := s.Q.GetBundleByID(ctx, bid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.CartLine{}, ErrNotFound
		}
		return store.CartLine{}, err
	}
	if !bundle.Available {
		return store.CartLine{}, ErrUnavailable
	}
	configured, err := s.Q.ListBundleSlots(ctx, bundle.ID)
	if err != nil {
		return store.CartLine{}, err
	}
	byID := make(map[string]store.BundleSlot, len(configured))
	for _, sl := range configured {
		byID[store.UUIDString(sl.ID)] = sl
	}

	in := pricing.BundleInput{FixedPrice: bundle.FixedPrice, FreeOptions: bundle.FreeOptions}
	snapshot := bundleSelections{}
	for _, chosen := range slots {
		sid, err := store.ToUUID(chosen.SlotID)
		if err != nil {
			return store.CartLine{}, fmt.Errorf("parse slot id: %w", err)
		}
		slot, ok := byID[store.UUIDString(sid)]
		if !ok {
			return store.CartLine{}, fmt.Errorf("unknown bundle slot %q: %w", chosen.SlotID, ErrInvalidInput)
		}
		choices, _, err := s.loadOptionChoices(ctx, chosen.OptionIDs)
		if err != nil {
			return store.CartLine{}, err
		}
		in.Selections = append(in.Selections, pricing.BundleSelection{
			Supplement:      slot.Supplement,
			SelectedOptions: choices,
		})
		snapshot.Slots = append(snapshot.Slots, bundleSlotSelection{
			SlotID:    chosen.SlotID,
			SlotName:  slot.Name,
			OptionIDs: chosen.OptionIDs,
		})
	}
	breakdown, err := pricing.PriceBundle(in, qty)
	if err != nil {
		return store.CartLine{}, fmt.Errorf("price bundle: %w", err)
	}
	selections, err := json.Marshal(snapshot)
	if err != nil {
		return store.CartLine{}, fmt.Errorf("encode selections: %w", err)
	}
	return s.Q.CreateCartLine(ctx, store.CreateCartLineParams{
		CartID:     cartID,
		BundleID:   bundle.ID,
		Name:       bundle.Name,
		Qty:        int32(qty),
		UnitPrice:  breakdown.UnitPrice,
		Subtotal:   breakdown.Total,
		Selections: selections,
	})
}

func (s *Service) loadOptionChoices(ctx context.Context, optionIDs []string) ([]pricing.OptionChoice, itemSelections, error) {
	if len(optionIDs) == 0 {
		return nil, itemSelections{}, nil
	}
	ids := make([]pgtype.UUID, 0, len(optionIDs))
	canon := make([]string, 0, len(optionIDs))
	for _, raw := range optionIDs {
		id, err := store.ToUUID(raw)
		if err != nil {
			return nil, itemSelections{}, fmt.Errorf("parse option id: %w", err)
		}
		ids = append(ids, id)
		canon = append(canon, store.UUIDString(id))
	}
	opts, err := s.Q.ListOptionsByIDs(ctx, ids)
	if err != nil {
		return nil, itemSelections{}, err
	}
	if len(opts) != len(ids) {
		return nil, itemSelections{}, fmt.Errorf("unknown option id: %w", ErrInvalidInput)
	}
	// Preserve the caller's selection order; the size rule is last-wins.
	byID := make(map[string]store.Option, len(opts))
	for _, o := range opts {
		byID[store.UUIDString(o.ID)] = o
	}
	choices := make([]pricing.OptionChoice, 0, len(canon))
	snapshot := itemSelections{OptionIDs: canon}
	for _, raw := range canon {
		o := byID[raw]
		choices = append(choices, pricing.OptionChoice{
			OptionID:      store.UUIDString(o.ID),
			GroupID:       store.UUIDString(o.GroupID),
			Name:          o.Name,
			PriceModifier: o.PriceModifier,
			SizeOption:    o.SizeOption,
		})
		snapshot.Options = append(snapshot.Options, o.Name)
	}
	return choices, snapshot, nil
}

// UpdateQty changes a line's quantity, keeping the persisted subtotal in sync
// with the frozen unit price.
func (s *Service) UpdateQty(ctx context.Context, cartID, lineID pgtype.UUID, qty int) (store.CartLine, error) {
	if s == nil || s.Q == nil {
		return store.CartLine{}, errors.New("cart service not configured")
	}
	if qty <= 0 {
		return store.CartLine{}, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	line, err := s.Q.GetCartLineByID(ctx, lineID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.CartLine{}, ErrNotFound
		}
		return store.CartLine{}, err
	}
	if !store.UUIDEqual(line.CartID, cartID) {
		return store.CartLine{}, ErrNotFound
	}
	return s.Q.UpdateCartLineQty(ctx, store.UpdateCartLineQtyParams{
		ID:       line.ID,
		Qty:      int32(qty),
		Subtotal: line.UnitPrice * int64(qty),
	})
}

// RemoveLine deletes a line from the cart.
func (s *Service) RemoveLine(ctx context.Context, cartID, lineID pgtype.UUID) error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	return s.Q.DeleteCartLine(ctx, store.DeleteCartLineParams{ID: lineID, CartID: cartID})
}

// ApplyPromo validates the code against the cart's current subtotal and pins
// it to the cart. Validation is repeated on every quote and at checkout, so a
// code that later expires simply stops discounting.
func (s *Service) ApplyPromo(ctx context.Context, cart store.Cart, code string, customerID *string) (offers.PromoDiscount, error) {
	if s == nil || s.Q == nil || s.Offers == nil {
		return offers.PromoDiscount{}, errors.New("cart service not configured")
	}
	lines, err := s.Q.ListCartLines(ctx, cart.ID)
	if err != nil {
		return offers.PromoDiscount{}, err
	}
	subtotal := linesSubtotal(lines)
	promo, err := s.Offers.PreviewPromo(ctx, cart.TruckID, code, customerID, subtotal)
	if err != nil {
		return offers.PromoDiscount{}, err
	}
	if err := s.Q.UpdateCartPromoCode(ctx, store.UpdateCartPromoCodeParams{
		ID:               cart.ID,
		AppliedPromoCode: pgtype.Text{String: promo.Code, Valid: true},
	}); err != nil {
		return offers.PromoDiscount{}, err
	}
	return promo, nil
}

// RemovePromo clears any pinned promo code.
func (s *Service) RemovePromo(ctx context.Context, cartID pgtype.UUID) error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	return s.Q.UpdateCartPromoCode(ctx, store.UpdateCartPromoCodeParams{ID: cartID})
}

// SetLoyaltyOptIn toggles loyalty redemption for the cart.
func (s *Service) SetLoyaltyOptIn(ctx context.Context, cartID pgtype.UUID, optIn bool) error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	return s.Q.UpdateCartLoyaltyOptIn(ctx, store.UpdateCartLoyaltyOptInParams{ID: cartID, LoyaltyOptIn: optIn})
}

// Quote runs the full pricing pass for the cart: deals, pinned promo and
// loyalty redemption, in that order. A pinned promo that no longer validates
// is ignored rather than failing the quote.
func (s *Service) Quote(ctx context.Context, cart store.Cart, customerID *string) (offers.Breakdown, []store.CartLine, error) {
	if s == nil || s.Q == nil || s.Offers == nil {
		return offers.Breakdown{}, nil, errors.New("cart service not configured")
	}
	start := time.Now()
	defer func() {
		if obs.PricingPassDuration != nil {
			obs.PricingPassDuration.WithLabelValues("quote").Observe(obs.DurationMillis(time.Since(start)))
		}
	}()
	lines, err := s.Q.ListCartLines(ctx, cart.ID)
	if err != nil {
		return offers.Breakdown{}, nil, err
	}
	subtotal := linesSubtotal(lines)
	items := offers.LineItemsFromCartLines(lines)

	deals, err := s.Offers.ApplicableDeals(ctx, cart.TruckID, items, subtotal)
	if err != nil {
		return offers.Breakdown{}, nil, err
	}

	var promo *offers.PromoDiscount
	if cart.AppliedPromoCode.Valid && cart.AppliedPromoCode.String != "" {
		if p, err := s.Offers.PreviewPromo(ctx, cart.TruckID, cart.AppliedPromoCode.String, customerID, subtotal); err == nil {
			promo = &p
		}
	}

	var redemption *loyalty.Redemption
	if s.Loyalty != nil && customerID != nil && *customerID != "" {
		cid, err := store.ToUUID(*customerID)
		if err == nil {
			snap, err := s.Loyalty.SnapshotFor(ctx, cart.TruckID, cid)
			if err != nil {
				return offers.Breakdown{}, nil, err
			}
			redemption = &loyalty.Redemption{Requested: cart.LoyaltyOptIn, Snapshot: snap}
		}
	}

	return offers.Apply(subtotal, items, deals, promo, redemption), lines, nil
}

func linesSubtotal(lines []store.CartLine) pricing.Money {
	var sum pricing.Money
	for _, l := range lines {
		sum += l.Subtotal
	}
	return sum
}
