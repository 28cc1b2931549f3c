package loyalty

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/store"
)

const (
	// EntryRedeem marks a ledger entry that spends points against an order.
	EntryRedeem = "redeem"
	// EntryEarn marks a ledger entry that accrues points from an order total.
	EntryEarn = "earn"
)

// Querier captures the store methods required by the loyalty service.
type Querier interface {
	GetLoyaltyProgram(ctx context.Context, truckID pgtype.UUID) (store.LoyaltyProgram, error)
	GetCustomerLoyalty(ctx context.Context, arg store.GetCustomerLoyaltyParams) (store.CustomerLoyalty, error)
	AddCustomerLoyaltyPoints(ctx context.Context, arg store.AddCustomerLoyaltyPointsParams) error
	GetLoyaltyEntryByOrder(ctx context.Context, arg store.GetLoyaltyEntryByOrderParams) (store.LoyaltyEntry, error)
	InsertLoyaltyEntry(ctx context.Context, arg store.InsertLoyaltyEntryParams) error
}

// Service reads loyalty state for pricing and settles redemption and accrual
// when orders are placed.
type Service struct {
	Q Querier
}

// SnapshotFor builds the customer's current redemption snapshot for the truck.
// A missing or inactive program, or an unknown customer, yields a zero snapshot
// rather than an error so pricing can proceed without loyalty.
func (s *Service) SnapshotFor(ctx context.Context, truckID, customerID pgtype.UUID) (Snapshot, error) {
	if s == nil || s.Q == nil {
		return Snapshot{}, errors.New("loyalty service not configured")
	}
	prog, err := s.Q.GetLoyaltyProgram(ctx, truckID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("load loyalty program: %w", err)
	}
	if !prog.Active {
		return Snapshot{}, nil
	}
	var points int64
	if customerID.Valid {
		cl, err := s.Q.GetCustomerLoyalty(ctx, store.GetCustomerLoyaltyParams{TruckID: truckID, CustomerID: customerID})
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, fmt.Errorf("load customer loyalty: %w", err)
		}
		if err == nil {
			points = cl.Points
		}
	}
	return BuildSnapshot(points, prog.Threshold, prog.PointsPerEuro, prog.Reward), nil
}

// SettleParams carries everything the ledger needs for one placed order.
type SettleParams struct {
	TruckID    pgtype.UUID
	CustomerID pgtype.UUID
	OrderID    pgtype.UUID
	Redemption Redemption
	Discount   int64
	Earned     int64
}

// Settle writes the redemption and accrual ledger entries for an order and
// adjusts the customer's balance. Both writes are idempotent per order so a
// retried checkout does not double-spend or double-earn.
func (s *Service) Settle(ctx context.Context, arg SettleParams) error {
	if s == nil || s.Q == nil {
		return errors.New("loyalty service not configured")
	}
	if !arg.CustomerID.Valid || !arg.OrderID.Valid {
		return nil
	}
	if arg.Discount > 0 {
		spent := arg.Redemption.PointsSpent(arg.Discount)
		if err := s.writeEntry(ctx, arg, EntryRedeem, -spent, arg.Discount); err != nil {
			return err
		}
	}
	if arg.Earned > 0 {
		if err := s.writeEntry(ctx, arg, EntryEarn, arg.Earned, 0); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) writeEntry(ctx context.Context, arg SettleParams, kind string, points, amount int64) error {
	_, err := s.Q.GetLoyaltyEntryByOrder(ctx, store.GetLoyaltyEntryByOrderParams{OrderID: arg.OrderID, Kind: kind})
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if err := s.Q.InsertLoyaltyEntry(ctx, store.InsertLoyaltyEntryParams{
		CustomerID: arg.CustomerID,
		TruckID:    arg.TruckID,
		OrderID:    arg.OrderID,
		Kind:       kind,
		Points:     points,
		Amount:     amount,
	}); err != nil {
		return fmt.Errorf("insert loyalty entry: %w", err)
	}
	if err := s.Q.AddCustomerLoyaltyPoints(ctx, store.AddCustomerLoyaltyPointsParams{
		TruckID:    arg.TruckID,
		CustomerID: arg.CustomerID,
		Delta:      points,
	}); err != nil {
		return fmt.Errorf("adjust loyalty balance: %w", err)
	}
	return nil
}
