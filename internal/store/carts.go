package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const createCart = `
INSERT INTO carts (truck_id, customer_id, anon_id, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING id, truck_id, customer_id, anon_id, applied_promo_code, loyalty_opt_in, expires_at, created_at, updated_at
`

type CreateCartParams struct {
	TruckID    pgtype.UUID
	CustomerID pgtype.UUID
	AnonID     pgtype.Text
	ExpiresAt  pgtype.Timestamptz
}

func (s *Store) CreateCart(ctx context.Context, arg CreateCartParams) (Cart, error) {
	row := s.db.QueryRow(ctx, createCart, arg.TruckID, arg.CustomerID, arg.AnonID, arg.ExpiresAt)
	return scanCart(row)
}

const getCartByID = `
SELECT id, truck_id, customer_id, anon_id, applied_promo_code, loyalty_opt_in, expires_at, created_at, updated_at
FROM carts
WHERE id = $1
`

func (s *Store) GetCartByID(ctx context.Context, id pgtype.UUID) (Cart, error) {
	return scanCart(s.db.QueryRow(ctx, getCartByID, id))
}

const getActiveCartByCustomer = `
SELECT id, truck_id, customer_id, anon_id, applied_promo_code, loyalty_opt_in, expires_at, created_at, updated_at
FROM carts
WHERE truck_id = $1 AND customer_id = $2 AND expires_at > now()
ORDER BY updated_at DESC
LIMIT 1
`

type GetActiveCartByCustomerParams struct {
	TruckID    pgtype.UUID
	CustomerID pgtype.UUID
}

func (s *Store) GetActiveCartByCustomer(ctx context.Context, arg GetActiveCartByCustomerParams) (Cart, error) {
	return scanCart(s.db.QueryRow(ctx, getActiveCartByCustomer, arg.TruckID, arg.CustomerID))
}

const getActiveCartByAnon = `
SELECT id, truck_id, customer_id, anon_id, applied_promo_code, loyalty_opt_in, expires_at, created_at, updated_at
FROM carts
WHERE truck_id = $1 AND anon_id = $2 AND expires_at > now()
ORDER BY updated_at DESC
LIMIT 1
`

type GetActiveCartByAnonParams struct {
	TruckID pgtype.UUID
	AnonID  pgtype.Text
}

func (s *Store) GetActiveCartByAnon(ctx context.Context, arg GetActiveCartByAnonParams) (Cart, error) {
	return scanCart(s.db.QueryRow(ctx, getActiveCartByAnon, arg.TruckID, arg.AnonID))
}

const touchCart = `
UPDATE carts SET expires_at = $2, updated_at = now() WHERE id = $1
`

type TouchCartParams struct {
	ID        pgtype.UUID
	ExpiresAt pgtype.Timestamptz
}

func (s *Store) TouchCart(ctx context.Context, arg TouchCartParams) error {
	_, err := s.db.Exec(ctx, touchCart, arg.ID, arg.ExpiresAt)
	return err
}

const updateCartPromoCode = `
UPDATE carts SET applied_promo_code = $2, updated_at = now() WHERE id = $1
`

type UpdateCartPromoCodeParams struct {
	ID               pgtype.UUID
	AppliedPromoCode pgtype.Text
}

func (s *Store) UpdateCartPromoCode(ctx context.Context, arg UpdateCartPromoCodeParams) error {
	_, err := s.db.Exec(ctx, updateCartPromoCode, arg.ID, arg.AppliedPromoCode)
	return err
}

const updateCartLoyaltyOptIn = `
UPDATE carts SET loyalty_opt_in = $2, updated_at = now() WHERE id = $1
`

type UpdateCartLoyaltyOptInParams struct {
	ID           pgtype.UUID
	LoyaltyOptIn bool
}

func (s *Store) UpdateCartLoyaltyOptIn(ctx context.Context, arg UpdateCartLoyaltyOptInParams) error {
	_, err := s.db.Exec(ctx, updateCartLoyaltyOptIn, arg.ID, arg.LoyaltyOptIn)
	return err
}

const createCartLine = `
INSERT INTO cart_lines (cart_id, item_id, bundle_id, category_id, name, qty, unit_price, subtotal, selections)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, cart_id, item_id, bundle_id, category_id, name, qty, unit_price, subtotal, selections, created_at
`

type CreateCartLineParams struct {
	CartID     pgtype.UUID
	ItemID     pgtype.UUID
	BundleID   pgtype.UUID
	CategoryID pgtype.UUID
	Name       string
	Qty        int32
	UnitPrice  int64
	Subtotal   int64
	Selections []byte
}

func (s *Store) CreateCartLine(ctx context.Context, arg CreateCartLineParams) (CartLine, error) {
	row := s.db.QueryRow(ctx, createCartLine,
		arg.CartID, arg.ItemID, arg.BundleID, arg.CategoryID, arg.Name, arg.Qty, arg.UnitPrice, arg.Subtotal, arg.Selections)
	return scanCartLine(row)
}

const getCartLineByID = `
SELECT id, cart_id, item_id, bundle_id, category_id, name, qty, unit_price, subtotal, selections, created_at
FROM cart_lines
WHERE id = $1
`

func (s *Store) GetCartLineByID(ctx context.Context, id pgtype.UUID) (CartLine, error) {
	return scanCartLine(s.db.QueryRow(ctx, getCartLineByID, id))
}

const updateCartLineQty = `
UPDATE cart_lines SET qty = $2, subtotal = $3 WHERE id = $1
RETURNING id, cart_id, item_id, bundle_id, category_id, name, qty, unit_price, subtotal, selections, created_at
`

type UpdateCartLineQtyParams struct {
	ID       pgtype.UUID
	Qty      int32
	Subtotal int64
}

func (s *Store) UpdateCartLineQty(ctx context.Context, arg UpdateCartLineQtyParams) (CartLine, error) {
	return scanCartLine(s.db.QueryRow(ctx, updateCartLineQty, arg.ID, arg.Qty, arg.Subtotal))
}

const deleteCartLine = `
DELETE FROM cart_lines WHERE id = $1 AND cart_id = $2
`

type DeleteCartLineParams struct {
	ID     pgtype.UUID
	CartID pgtype.UUID
}

func (s *Store) DeleteCartLine(ctx context.Context, arg DeleteCartLineParams) error {
	_, err := s.db.Exec(ctx, deleteCartLine, arg.ID, arg.CartID)
	return err
}

const listCartLines = `
SELECT id, cart_id, item_id, bundle_id, category_id, name, qty, unit_price, subtotal, selections, created_at
FROM cart_lines
WHERE cart_id = $1
ORDER BY created_at, id
`

func (s *Store) ListCartLines(ctx context.Context, cartID pgtype.UUID) ([]CartLine, error) {
	rows, err := s.db.Query(ctx, listCartLines, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, func(row pgx.CollectableRow) (CartLine, error) {
		return scanCartLine(row)
	})
}

func scanCart(row pgx.Row) (Cart, error) {
	var c Cart
	err := row.Scan(&c.ID, &c.TruckID, &c.CustomerID, &c.AnonID, &c.AppliedPromoCode, &c.LoyaltyOptIn, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanCartLine(row pgx.Row) (CartLine, error) {
	var l CartLine
	err := row.Scan(&l.ID, &l.CartID, &l.ItemID, &l.BundleID, &l.CategoryID, &l.Name, &l.Qty, &l.UnitPrice, &l.Subtotal, &l.Selections, &l.CreatedAt)
	return l, err
}
