package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const listActiveDeals = `
SELECT id, truck_id, name, kind, stackable, trigger_quantity, trigger_category_id,
       reward_value, percent_bps, reward_item_name, active, position, created_at
FROM deals
WHERE truck_id = $1 AND active
ORDER BY position, created_at
`

func (s *Store) ListActiveDeals(ctx context.Context, truckID pgtype.UUID) ([]Deal, error) {
	rows, err := s.db.Query(ctx, listActiveDeals, truckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Deal
	for rows.Next() {
		var d Deal
		if err := rows.Scan(&d.ID, &d.TruckID, &d.Name, &d.Kind, &d.Stackable, &d.TriggerQuantity, &d.TriggerCategoryID,
			&d.RewardValue, &d.PercentBps, &d.RewardItemName, &d.Active, &d.Position, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

const createDeal = `
INSERT INTO deals (truck_id, name, kind, stackable, trigger_quantity, trigger_category_id,
                   reward_value, percent_bps, reward_item_name, active, position)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id, truck_id, name, kind, stackable, trigger_quantity, trigger_category_id,
          reward_value, percent_bps, reward_item_name, active, position, created_at
`

type CreateDealParams struct {
	TruckID           pgtype.UUID
	Name              string
	Kind              string
	Stackable         bool
	TriggerQuantity   int32
	TriggerCategoryID pgtype.UUID
	RewardValue       int64
	PercentBps        pgtype.Int4
	RewardItemName    pgtype.Text
	Active            bool
	Position          int32
}

func (s *Store) CreateDeal(ctx context.Context, arg CreateDealParams) (Deal, error) {
	row := s.db.QueryRow(ctx, createDeal, arg.TruckID, arg.Name, arg.Kind, arg.Stackable, arg.TriggerQuantity,
		arg.TriggerCategoryID, arg.RewardValue, arg.PercentBps, arg.RewardItemName, arg.Active, arg.Position)
	var d Deal
	err := row.Scan(&d.ID, &d.TruckID, &d.Name, &d.Kind, &d.Stackable, &d.TriggerQuantity, &d.TriggerCategoryID,
		&d.RewardValue, &d.PercentBps, &d.RewardItemName, &d.Active, &d.Position, &d.CreatedAt)
	return d, err
}

const updateDeal = `
UPDATE deals SET name = $3, kind = $4, stackable = $5, trigger_quantity = $6, trigger_category_id = $7,
                 reward_value = $8, percent_bps = $9, reward_item_name = $10, active = $11, position = $12
WHERE id = $1 AND truck_id = $2
RETURNING id, truck_id, name, kind, stackable, trigger_quantity, trigger_category_id,
          reward_value, percent_bps, reward_item_name, active, position, created_at
`

type UpdateDealParams struct {
	ID                pgtype.UUID
	TruckID           pgtype.UUID
	Name              string
	Kind              string
	Stackable         bool
	TriggerQuantity   int32
	TriggerCategoryID pgtype.UUID
	RewardValue       int64
	PercentBps        pgtype.Int4
	RewardItemName    pgtype.Text
	Active            bool
	Position          int32
}

func (s *Store) UpdateDeal(ctx context.Context, arg UpdateDealParams) (Deal, error) {
	row := s.db.QueryRow(ctx, updateDeal, arg.ID, arg.TruckID, arg.Name, arg.Kind, arg.Stackable, arg.TriggerQuantity,
		arg.TriggerCategoryID, arg.RewardValue, arg.PercentBps, arg.RewardItemName, arg.Active, arg.Position)
	var d Deal
	err := row.Scan(&d.ID, &d.TruckID, &d.Name, &d.Kind, &d.Stackable, &d.TriggerQuantity, &d.TriggerCategoryID,
		&d.RewardValue, &d.PercentBps, &d.RewardItemName, &d.Active, &d.Position, &d.CreatedAt)
	return d, err
}

const deleteDeal = `
DELETE FROM deals WHERE id = $1 AND truck_id = $2
`

type DeleteDealParams struct {
	ID      pgtype.UUID
	TruckID pgtype.UUID
}

func (s *Store) DeleteDeal(ctx context.Context, arg DeleteDealParams) error {
	_, err := s.db.Exec(ctx, deleteDeal, arg.ID, arg.TruckID)
	return err
}

const getPromoByCode = `
SELECT id, truck_id, code, kind, value, percent_bps, min_order_amount, usage_limit, used_count,
       max_uses_per_customer, valid_from, valid_to
FROM promo_codes
WHERE truck_id = $1 AND code = $2
`

type GetPromoByCodeParams struct {
	TruckID pgtype.UUID
	Code    string
}

func (s *Store) GetPromoByCode(ctx context.Context, arg GetPromoByCodeParams) (PromoCode, error) {
	row := s.db.QueryRow(ctx, getPromoByCode, arg.TruckID, arg.Code)
	return scanPromo(row)
}

const createPromo = `
INSERT INTO promo_codes (truck_id, code, kind, value, percent_bps, min_order_amount, usage_limit,
                         max_uses_per_customer, valid_from, valid_to)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, truck_id, code, kind, value, percent_bps, min_order_amount, usage_limit, used_count,
          max_uses_per_customer, valid_from, valid_to
`

type CreatePromoParams struct {
	TruckID            pgtype.UUID
	Code               string
	Kind               string
	Value              int64
	PercentBps         pgtype.Int4
	MinOrderAmount     int64
	UsageLimit         pgtype.Int4
	MaxUsesPerCustomer pgtype.Int4
	ValidFrom          pgtype.Timestamptz
	ValidTo            pgtype.Timestamptz
}

func (s *Store) CreatePromo(ctx context.Context, arg CreatePromoParams) (PromoCode, error) {
	row := s.db.QueryRow(ctx, createPromo, arg.TruckID, arg.Code, arg.Kind, arg.Value, arg.PercentBps,
		arg.MinOrderAmount, arg.UsageLimit, arg.MaxUsesPerCustomer, arg.ValidFrom, arg.ValidTo)
	return scanPromo(row)
}

const countPromoUsageByCustomer = `
SELECT count(*) FROM promo_usages WHERE promo_id = $1 AND customer_id = $2
`

type CountPromoUsageByCustomerParams struct {
	PromoID    pgtype.UUID
	CustomerID pgtype.UUID
}

func (s *Store) CountPromoUsageByCustomer(ctx context.Context, arg CountPromoUsageByCustomerParams) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, countPromoUsageByCustomer, arg.PromoID, arg.CustomerID).Scan(&n)
	return n, err
}

const getPromoUsageByOrder = `
SELECT id, promo_id, order_id, customer_id, amount, created_at
FROM promo_usages
WHERE promo_id = $1 AND order_id = $2
`

type GetPromoUsageByOrderParams struct {
	PromoID pgtype.UUID
	OrderID pgtype.UUID
}

func (s *Store) GetPromoUsageByOrder(ctx context.Context, arg GetPromoUsageByOrderParams) (PromoUsage, error) {
	row := s.db.QueryRow(ctx, getPromoUsageByOrder, arg.PromoID, arg.OrderID)
	var u PromoUsage
	err := row.Scan(&u.ID, &u.PromoID, &u.OrderID, &u.CustomerID, &u.Amount, &u.CreatedAt)
	return u, err
}

const insertPromoUsage = `
INSERT INTO promo_usages (promo_id, order_id, customer_id, amount)
VALUES ($1, $2, $3, $4)
`

type InsertPromoUsageParams struct {
	PromoID    pgtype.UUID
	OrderID    pgtype.UUID
	CustomerID pgtype.UUID
	Amount     int64
}

func (s *Store) InsertPromoUsage(ctx context.Context, arg InsertPromoUsageParams) error {
	_, err := s.db.Exec(ctx, insertPromoUsage, arg.PromoID, arg.OrderID, arg.CustomerID, arg.Amount)
	return err
}

const increasePromoUsedCount = `
UPDATE promo_codes SET used_count = used_count + 1 WHERE id = $1
`

func (s *Store) IncreasePromoUsedCount(ctx context.Context, id pgtype.UUID) error {
	_, err := s.db.Exec(ctx, increasePromoUsedCount, id)
	return err
}

func scanPromo(row interface{ Scan(...any) error }) (PromoCode, error) {
	var p PromoCode
	err := row.Scan(&p.ID, &p.TruckID, &p.Code, &p.Kind, &p.Value, &p.PercentBps, &p.MinOrderAmount,
		&p.UsageLimit, &p.UsedCount, &p.MaxUsesPerCustomer, &p.ValidFrom, &p.ValidTo)
	return p, err
}
