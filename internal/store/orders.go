package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const createOrder = `
INSERT INTO orders (truck_id, customer_id, cart_id, status, currency, subtotal, promo_discount,
                    loyalty_discount, total, points_earned, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id, truck_id, customer_id, cart_id, status, currency, subtotal, promo_discount,
          loyalty_discount, total, points_earned, notes, created_at
`

type CreateOrderParams struct {
	TruckID         pgtype.UUID
	CustomerID      pgtype.UUID
	CartID          pgtype.UUID
	Status          string
	Currency        string
	Subtotal        int64
	PromoDiscount   int64
	LoyaltyDiscount int64
	Total           int64
	PointsEarned    int64
	Notes           pgtype.Text
}

func (s *Store) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := s.db.QueryRow(ctx, createOrder, arg.TruckID, arg.CustomerID, arg.CartID, arg.Status, arg.Currency,
		arg.Subtotal, arg.PromoDiscount, arg.LoyaltyDiscount, arg.Total, arg.PointsEarned, arg.Notes)
	return scanOrder(row)
}

const getOrderByID = `
SELECT id, truck_id, customer_id, cart_id, status, currency, subtotal, promo_discount,
       loyalty_discount, total, points_earned, notes, created_at
FROM orders
WHERE id = $1
`

func (s *Store) GetOrderByID(ctx context.Context, id pgtype.UUID) (Order, error) {
	return scanOrder(s.db.QueryRow(ctx, getOrderByID, id))
}

const listOrdersByCustomer = `
SELECT id, truck_id, customer_id, cart_id, status, currency, subtotal, promo_discount,
       loyalty_discount, total, points_earned, notes, created_at
FROM orders
WHERE truck_id = $1 AND customer_id = $2
ORDER BY created_at DESC
LIMIT $3 OFFSET $4
`

type ListOrdersByCustomerParams struct {
	TruckID    pgtype.UUID
	CustomerID pgtype.UUID
	Limit      int32
	Offset     int32
}

func (s *Store) ListOrdersByCustomer(ctx context.Context, arg ListOrdersByCustomerParams) ([]Order, error) {
	rows, err := s.db.Query(ctx, listOrdersByCustomer, arg.TruckID, arg.CustomerID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, func(row pgx.CollectableRow) (Order, error) {
		return scanOrder(row)
	})
}

const createOrderItem = `
INSERT INTO order_items (order_id, item_id, bundle_id, name, qty, unit_price, subtotal, selections)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type CreateOrderItemParams struct {
	OrderID    pgtype.UUID
	ItemID     pgtype.UUID
	BundleID   pgtype.UUID
	Name       string
	Qty        int32
	UnitPrice  int64
	Subtotal   int64
	Selections []byte
}

func (s *Store) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) error {
	_, err := s.db.Exec(ctx, createOrderItem, arg.OrderID, arg.ItemID, arg.BundleID, arg.Name, arg.Qty,
		arg.UnitPrice, arg.Subtotal, arg.Selections)
	return err
}

const listOrderItems = `
SELECT id, order_id, item_id, bundle_id, name, qty, unit_price, subtotal, selections
FROM order_items
WHERE order_id = $1
ORDER BY id
`

func (s *Store) ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error) {
	rows, err := s.db.Query(ctx, listOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, func(row pgx.CollectableRow) (OrderItem, error) {
		var it OrderItem
		err := row.Scan(&it.ID, &it.OrderID, &it.ItemID, &it.BundleID, &it.Name, &it.Qty, &it.UnitPrice, &it.Subtotal, &it.Selections)
		return it, err
	})
}

const createOrderDiscount = `
INSERT INTO order_discounts (order_id, source, deal_id, promo_id, label, amount)
VALUES ($1, $2, $3, $4, $5, $6)
`

type CreateOrderDiscountParams struct {
	OrderID pgtype.UUID
	Source  string
	DealID  pgtype.UUID
	PromoID pgtype.UUID
	Label   string
	Amount  int64
}

func (s *Store) CreateOrderDiscount(ctx context.Context, arg CreateOrderDiscountParams) error {
	_, err := s.db.Exec(ctx, createOrderDiscount, arg.OrderID, arg.Source, arg.DealID, arg.PromoID, arg.Label, arg.Amount)
	return err
}

const listOrderDiscounts = `
SELECT id, order_id, source, deal_id, promo_id, label, amount
FROM order_discounts
WHERE order_id = $1
ORDER BY id
`

func (s *Store) ListOrderDiscounts(ctx context.Context, orderID pgtype.UUID) ([]OrderDiscount, error) {
	rows, err := s.db.Query(ctx, listOrderDiscounts, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, func(row pgx.CollectableRow) (OrderDiscount, error) {
		var d OrderDiscount
		err := row.Scan(&d.ID, &d.OrderID, &d.Source, &d.DealID, &d.PromoID, &d.Label, &d.Amount)
		return d, err
	})
}

const insertDomainEvent = `
INSERT INTO domain_events (topic, aggregate_id, payload)
VALUES ($1, $2, $3)
RETURNING id, topic, aggregate_id, payload, occurred_at
`

type InsertDomainEventParams struct {
	Topic       string
	AggregateID pgtype.UUID
	Payload     []byte
}

func (s *Store) InsertDomainEvent(ctx context.Context, arg InsertDomainEventParams) (DomainEvent, error) {
	row := s.db.QueryRow(ctx, insertDomainEvent, arg.Topic, arg.AggregateID, arg.Payload)
	var e DomainEvent
	err := row.Scan(&e.ID, &e.Topic, &e.AggregateID, &e.Payload, &e.OccurredAt)
	return e, err
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.TruckID, &o.CustomerID, &o.CartID, &o.Status, &o.Currency, &o.Subtotal,
		&o.PromoDiscount, &o.LoyaltyDiscount, &o.Total, &o.PointsEarned, &o.Notes, &o.CreatedAt)
	return o, err
}
