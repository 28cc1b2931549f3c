package offers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/obs"
	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/pricing"
	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/store"
)

var (
	// ErrPromoNotFound is returned when the code does not exist for the truck.
	ErrPromoNotFound = errors.New("promo code not found")
	// ErrPromoInactive is returned when the code is used before its window opens.
	ErrPromoInactive = errors.New("promo code not active")
	// ErrPromoExpired is returned when the code's validity window has closed.
	ErrPromoExpired = errors.New("promo code expired")
	// ErrUsageLimitReached indicates the global usage quota is exhausted.
	ErrUsageLimitReached = errors.New("promo code usage limit reached")
	// ErrPerCustomerLimitReached indicates the caller exceeded their allowance.
	ErrPerCustomerLimitReached = errors.New("promo code per-customer limit reached")
	// ErrMinOrderUnmet indicates the cart subtotal is below the code's minimum.
	ErrMinOrderUnmet = errors.New("promo code minimum order amount not met")
)

// Querier captures the store methods required by the offers service.
type Querier interface {
	ListActiveDeals(ctx context.Context, truckID pgtype.UUID) ([]store.Deal, error)
	GetPromoByCode(ctx context.Context, arg store.GetPromoByCodeParams) (store.PromoCode, error)
	CountPromoUsageByCustomer(ctx context.Context, arg store.CountPromoUsageByCustomerParams) (int64, error)
	GetPromoUsageByOrder(ctx context.Context, arg store.GetPromoUsageByOrderParams) (store.PromoUsage, error)
	InsertPromoUsage(ctx context.Context, arg store.InsertPromoUsageParams) error
	IncreasePromoUsedCount(ctx context.Context, id pgtype.UUID) error
}

// Service evaluates deals and promo codes against carts and settles promo
// usage at order time.
type Service struct {
	Q                       Querier
	Now                     func() time.Time
	DefaultPerCustomerLimit int
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ApplicableDeals loads the truck's active deals and annotates them against
// the provided cart view.
func (s *Service) ApplicableDeals(ctx context.Context, truckID pgtype.UUID, items []LineItem, subtotal pricing.Money) ([]Deal, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("offers service not configured")
	}
	rows, err := s.Q.ListActiveDeals(ctx, truckID)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	return EvaluateDeals(rows, items, subtotal), nil
}

// PreviewPromo validates a promo code for the given cart context and returns
// the discount candidate it would contribute. Validation covers the activity
// window, global and per-customer usage caps and the minimum order amount;
// the discount amount itself is computed here so the engine only sums and
// clamps.
func (s *Service) PreviewPromo(ctx context.Context, truckID pgtype.UUID, code string, customerID *string, cartSubtotal pricing.Money) (PromoDiscount, error) {
	if s == nil || s.Q == nil {
		return PromoDiscount{}, errors.New("offers service not configured")
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return PromoDiscount{}, fmt.Errorf("code is required: %w", ErrPromoNotFound)
	}
	promo, err := s.Q.GetPromoByCode(ctx, store.GetPromoByCodeParams{TruckID: truckID, Code: trimmed})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PromoDiscount{}, rejected("not_found", ErrPromoNotFound)
		}
		return PromoDiscount{}, err
	}
	now := s.now()
	if promo.ValidFrom.Valid && now.Before(promo.ValidFrom.Time) {
		return PromoDiscount{}, rejected("inactive", ErrPromoInactive)
	}
	if promo.ValidTo.Valid && now.After(promo.ValidTo.Time) {
		return PromoDiscount{}, rejected("expired", ErrPromoExpired)
	}
	if promo.UsageLimit.Valid && promo.UsedCount >= promo.UsageLimit.Int32 {
		return PromoDiscount{}, rejected("usage_limit", ErrUsageLimitReached)
	}
	limit := int32(s.DefaultPerCustomerLimit)
	if promo.MaxUsesPerCustomer.Valid {
		limit = promo.MaxUsesPerCustomer.Int32
	}
	if limit > 0 && customerID != nil && *customerID != "" {
		cid, err := store.ToUUID(*customerID)
		if err != nil {
			return PromoDiscount{}, fmt.Errorf("invalid customer id: %w", err)
		}
		used, err := s.Q.CountPromoUsageByCustomer(ctx, store.CountPromoUsageByCustomerParams{PromoID: promo.ID, CustomerID: cid})
		if err != nil {
			return PromoDiscount{}, err
		}
		if int32(used) >= limit {
			return PromoDiscount{}, rejected("per_customer_limit", ErrPerCustomerLimitReached)
		}
	}
	if cartSubtotal < promo.MinOrderAmount {
		return PromoDiscount{}, rejected("min_order", ErrMinOrderUnmet)
	}

	var amount pricing.Money
	switch promo.Kind {
	case "percentage":
		if !promo.PercentBps.Valid || promo.PercentBps.Int32 <= 0 {
			return PromoDiscount{}, fmt.Errorf("invalid percentage promo: %w", ErrPromoNotFound)
		}
		amount = pricing.RoundPercent(cartSubtotal, int(promo.PercentBps.Int32))
	default:
		amount = promo.Value
	}
	if amount > cartSubtotal {
		amount = cartSubtotal
	}
	if amount <= 0 {
		return PromoDiscount{}, ErrPromoNotFound
	}
	return PromoDiscount{
		PromoID: uuid.UUID(promo.ID.Bytes),
		Code:    promo.Code,
		Amount:  amount,
	}, nil
}

func rejected(reason string, err error) error {
	if obs.PromoRejectionsTotal != nil {
		obs.PromoRejectionsTotal.WithLabelValues(reason).Inc()
	}
	return err
}

// SettlePromo records promo usage when an order is placed, idempotently per
// order.
func (s *Service) SettlePromo(ctx context.Context, truckID pgtype.UUID, code string, orderID, customerID pgtype.UUID, amount pricing.Money) error {
	if s == nil || s.Q == nil {
		return errors.New("offers service not configured")
	}
	if strings.TrimSpace(code) == "" || !orderID.Valid || amount <= 0 {
		return nil
	}
	promo, err := s.Q.GetPromoByCode(ctx, store.GetPromoByCodeParams{TruckID: truckID, Code: strings.TrimSpace(code)})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	_, err = s.Q.GetPromoUsageByOrder(ctx, store.GetPromoUsageByOrderParams{PromoID: promo.ID, OrderID: orderID})
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	params := store.InsertPromoUsageParams{PromoID: promo.ID, OrderID: orderID, Amount: amount}
	if customerID.Valid {
		params.CustomerID = customerID
	}
	if err := s.Q.InsertPromoUsage(ctx, params); err != nil {
		return err
	}
	_ = s.Q.IncreasePromoUsedCount(ctx, promo.ID)
	return nil
}
