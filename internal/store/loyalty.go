package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getLoyaltyProgram = `
SELECT truck_id, threshold, points_per_euro, reward, active
FROM loyalty_programs
WHERE truck_id = $1
`

func (s *Store) GetLoyaltyProgram(ctx context.Context, truckID pgtype.UUID) (LoyaltyProgram, error) {
	row := s.db.QueryRow(ctx, getLoyaltyProgram, truckID)
	var p LoyaltyProgram
	err := row.Scan(&p.TruckID, &p.Threshold, &p.PointsPerEuro, &p.Reward, &p.Active)
	return p, err
}

const getCustomerLoyalty = `
SELECT customer_id, truck_id, points, updated_at
FROM customer_loyalty
WHERE truck_id = $1 AND customer_id = $2
`

type GetCustomerLoyaltyParams struct {
	TruckID    pgtype.UUID
	CustomerID pgtype.UUID
}

func (s *Store) GetCustomerLoyalty(ctx context.Context, arg GetCustomerLoyaltyParams) (CustomerLoyalty, error) {
	row := s.db.QueryRow(ctx, getCustomerLoyalty, arg.TruckID, arg.CustomerID)
	var c CustomerLoyalty
	err := row.Scan(&c.CustomerID, &c.TruckID, &c.Points, &c.UpdatedAt)
	return c, err
}

const addCustomerLoyaltyPoints = `
INSERT INTO customer_loyalty (customer_id, truck_id, points, updated_at)
VALUES ($2, $1, $3, now())
ON CONFLICT (customer_id, truck_id)
DO UPDATE SET points = customer_loyalty.points + EXCLUDED.points, updated_at = now()
`

type AddCustomerLoyaltyPointsParams struct {
	TruckID    pgtype.UUID
	CustomerID pgtype.UUID
	Delta      int64
}

func (s *Store) AddCustomerLoyaltyPoints(ctx context.Context, arg AddCustomerLoyaltyPointsParams) error {
	_, err := s.db.Exec(ctx, addCustomerLoyaltyPoints, arg.TruckID, arg.CustomerID, arg.Delta)
	return err
}

const getLoyaltyEntryByOrder = `
SELECT id, customer_id, truck_id, order_id, kind, points, amount, created_at
FROM loyalty_entries
WHERE order_id = $1 AND kind = $2
`

type GetLoyaltyEntryByOrderParams struct {
	OrderID pgtype.UUID
	Kind    string
}

func (s *Store) GetLoyaltyEntryByOrder(ctx context.Context, arg GetLoyaltyEntryByOrderParams) (LoyaltyEntry, error) {
	row := s.db.QueryRow(ctx, getLoyaltyEntryByOrder, arg.OrderID, arg.Kind)
	var e LoyaltyEntry
	err := row.Scan(&e.ID, &e.CustomerID, &e.TruckID, &e.OrderID, &e.Kind, &e.Points, &e.Amount, &e.CreatedAt)
	return e, err
}

const insertLoyaltyEntry = `
INSERT INTO loyalty_entries (customer_id, truck_id, order_id, kind, points, amount)
VALUES ($1, $2, $3, $4, $5, $6)
`

type InsertLoyaltyEntryParams struct {
	CustomerID pgtype.UUID
	TruckID    pgtype.UUID
	OrderID    pgtype.UUID
	Kind       string
	Points     int64
	Amount     int64
}

func (s *Store) InsertLoyaltyEntry(ctx context.Context, arg InsertLoyaltyEntryParams) error {
	_, err := s.db.Exec(ctx, insertLoyaltyEntry, arg.CustomerID, arg.TruckID, arg.OrderID, arg.Kind, arg.Points, arg.Amount)
	return err
}
