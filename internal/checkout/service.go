package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/events"
	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/loyalty"
	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/obs"
	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/offers"
	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/store"
)

// ErrEmptyCart is returned when checkout is attempted on a cart with no lines.
var ErrEmptyCart = errors.New("cart is empty")

// ErrCartExpired is returned when the cart's TTL has lapsed.
var ErrCartExpired = errors.New("cart expired")

// ErrForeignCart is returned when the cart belongs to a different customer.
var ErrForeignCart = errors.New("cart does not belong to customer")

// StatusReceived is the initial status of a placed order.
const StatusReceived = "received"

// Input is the checkout request.
type Input struct {
	CartID     string  `json:"cartId"`
	CustomerID *string `json:"customerId"`
	Notes      *string `json:"notes"`
}

// Output is the checkout result.
type Output struct {
	OrderID   string           `json:"orderId"`
	Status    string           `json:"status"`
	Breakdown offers.Breakdown `json:"breakdown"`
}

// Service places orders. The whole pricing pass is recomputed inside the
// transaction so the persisted totals reflect the cart at commit time, not at
// quote time.
type Service struct {
	S                       *store.Store
	Pool                    *pgxpool.Pool
	Currency                string
	Now                     func() time.Time
	DefaultPerCustomerLimit int
	Events                  *events.Bus
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create places an order from the cart.
func (s *Service) Create(ctx context.Context, in Input) (Output, error) {
	if s == nil || s.S == nil || s.Pool == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	if in.CartID == "" {
		return Output{}, errors.New("cartId is required")
	}
	cartID, err := store.ToUUID(in.CartID)
	if err != nil {
		return Output{}, fmt.Errorf("invalid cart id: %w", err)
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Output{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	stx := s.S.WithTx(tx)

	cartRow, err := stx.GetCartByID(ctx, cartID)
	if err != nil {
		return Output{}, err
	}
	if cartRow.ExpiresAt.Valid && cartRow.ExpiresAt.Time.Before(s.now()) {
		return Output{}, ErrCartExpired
	}
	customerID := cartRow.CustomerID
	if in.CustomerID != nil && *in.CustomerID != "" {
		cid, err := store.ToUUID(*in.CustomerID)
		if err != nil {
			return Output{}, fmt.Errorf("invalid customer id: %w", err)
		}
		if cartRow.CustomerID.Valid && !store.UUIDEqual(cartRow.CustomerID, cid) {
			return Output{}, ErrForeignCart
		}
		customerID = cid
	}

	lines, err := stx.ListCartLines(ctx, cartID)
	if err != nil {
		return Output{}, err
	}
	if len(lines) == 0 {
		return Output{}, ErrEmptyCart
	}

	breakdown, redemption, err := s.price(ctx, stx, cartRow, customerID, lines)
	if err != nil {
		return Output{}, err
	}

	order, err := stx.CreateOrder(ctx, store.CreateOrderParams{
		TruckID:         cartRow.TruckID,
		CustomerID:      customerID,
		CartID:          cartID,
		Status:          StatusReceived,
		Currency:        s.Currency,
		Subtotal:        breakdown.Subtotal,
		PromoDiscount:   breakdown.PromoDiscount,
		LoyaltyDiscount: breakdown.LoyaltyDiscount,
		Total:           breakdown.Total,
		PointsEarned:    breakdown.PointsEarned,
		Notes:           toNullableText(in.Notes),
	})
	if err != nil {
		return Output{}, err
	}
	for _, l := range lines {
		if err := stx.CreateOrderItem(ctx, store.CreateOrderItemParams{
			OrderID:    order.ID,
			ItemID:     l.ItemID,
			BundleID:   l.BundleID,
			Name:       l.Name,
			Qty:        l.Qty,
			UnitPrice:  l.UnitPrice,
			Subtotal:   l.Subtotal,
			Selections: l.Selections,
		}); err != nil {
			return Output{}, err
		}
	}
	for _, d := range breakdown.Discounts {
		params := store.CreateOrderDiscountParams{
			OrderID: order.ID,
			Source:  string(d.Source),
			Label:   d.Label,
			Amount:  d.Amount,
		}
		if d.DealID != nil {
			params.DealID = store.FromUUID(*d.DealID)
		}
		if d.PromoID != nil {
			params.PromoID = store.FromUUID(*d.PromoID)
		}
		if err := stx.CreateOrderDiscount(ctx, params); err != nil {
			return Output{}, err
		}
	}

	if breakdown.PromoDiscount > 0 && cartRow.AppliedPromoCode.Valid {
		if amount, ok := promoAmount(breakdown); ok {
			txOffers := &offers.Service{Q: stx, Now: s.Now, DefaultPerCustomerLimit: s.DefaultPerCustomerLimit}
			if err := txOffers.SettlePromo(ctx, cartRow.TruckID, cartRow.AppliedPromoCode.String, order.ID, customerID, amount); err != nil {
				return Output{}, fmt.Errorf("settle promo: %w", err)
			}
		}
	}

	txLoyalty := &loyalty.Service{Q: stx}
	if err := txLoyalty.Settle(ctx, loyalty.SettleParams{
		TruckID:    cartRow.TruckID,
		CustomerID: customerID,
		OrderID:    order.ID,
		Redemption: redemption,
		Discount:   breakdown.LoyaltyDiscount,
		Earned:     breakdown.PointsEarned,
	}); err != nil {
		return Output{}, fmt.Errorf("settle loyalty: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Output{}, err
	}

	if obs.OrdersPlacedTotal != nil {
		obs.OrdersPlacedTotal.Inc()
	}
	if obs.DiscountsAppliedTotal != nil {
		for _, d := range breakdown.Discounts {
			obs.DiscountsAppliedTotal.WithLabelValues(string(d.Source)).Inc()
		}
	}
	if obs.LoyaltyRedemptionsTotal != nil && breakdown.LoyaltyDiscount > 0 {
		obs.LoyaltyRedemptionsTotal.Inc()
	}

	if s.Events != nil {
		payload := map[string]any{
			"orderId":  store.UUIDString(order.ID),
			"truckId":  store.UUIDString(cartRow.TruckID),
			"subtotal": breakdown.Subtotal,
			"total":    breakdown.Total,
		}
		if customerID.Valid {
			payload["customerId"] = store.UUIDString(customerID)
		}
		_, _ = s.Events.Emit(ctx, events.TopicOrderCreated, order.ID, payload)
	}

	return Output{
		OrderID:   store.UUIDString(order.ID),
		Status:    order.Status,
		Breakdown: breakdown,
	}, nil
}

// price reruns the full discount pass against the transaction's view of the
// cart.
func (s *Service) price(ctx context.Context, stx *store.Store, cartRow store.Cart, customerID pgtype.UUID, lines []store.CartLine) (offers.Breakdown, loyalty.Redemption, error) {
	start := time.Now()
	defer func() {
		if obs.PricingPassDuration != nil {
			obs.PricingPassDuration.WithLabelValues("checkout").Observe(obs.DurationMillis(time.Since(start)))
		}
	}()

	var subtotal int64
	for _, l := range lines {
		subtotal += l.Subtotal
	}
	items := offers.LineItemsFromCartLines(lines)

	dealRows, err := stx.ListActiveDeals(ctx, cartRow.TruckID)
	if err != nil {
		return offers.Breakdown{}, loyalty.Redemption{}, fmt.Errorf("list deals: %w", err)
	}
	deals := offers.EvaluateDeals(dealRows, items, subtotal)

	var promo *offers.PromoDiscount
	if cartRow.AppliedPromoCode.Valid && cartRow.AppliedPromoCode.String != "" {
		txOffers := &offers.Service{Q: stx, Now: s.Now, DefaultPerCustomerLimit: s.DefaultPerCustomerLimit}
		var cid *string
		if customerID.Valid {
			v := store.UUIDString(customerID)
			cid = &v
		}
		if p, err := txOffers.PreviewPromo(ctx, cartRow.TruckID, cartRow.AppliedPromoCode.String, cid, subtotal); err == nil {
			promo = &p
		}
	}

	var redemption loyalty.Redemption
	if customerID.Valid {
		txLoyalty := &loyalty.Service{Q: stx}
		snap, err := txLoyalty.SnapshotFor(ctx, cartRow.TruckID, customerID)
		if err != nil {
			return offers.Breakdown{}, loyalty.Redemption{}, err
		}
		redemption = loyalty.Redemption{Requested: cartRow.LoyaltyOptIn, Snapshot: snap}
	}

	return offers.Apply(subtotal, items, deals, promo, &redemption), redemption, nil
}

func promoAmount(b offers.Breakdown) (int64, bool) {
	for _, d := range b.Discounts {
		if d.Source == offers.SourcePromo {
			return d.Amount, true
		}
	}
	return 0, false
}

func toNullableText(v *string) pgtype.Text {
	if v == nil || *v == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *v, Valid: true}
}
