package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const listCategories = `
SELECT id, truck_id, name, position
FROM categories
WHERE truck_id = $1
ORDER BY position, name
`

func (s *Store) ListCategories(ctx context.Context, truckID pgtype.UUID) ([]Category, error) {
	rows, err := s.db.Query(ctx, listCategories, truckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, func(row pgx.CollectableRow) (Category, error) {
		var c Category
		err := row.Scan(&c.ID, &c.TruckID, &c.Name, &c.Position)
		return c, err
	})
}

const listMenuItems = `
SELECT id, truck_id, category_id, name, slug, description, base_price, available, created_at
FROM menu_items
WHERE truck_id = $1 AND available
ORDER BY name
`

func (s *Store) ListMenuItems(ctx context.Context, truckID pgtype.UUID) ([]MenuItem, error) {
	rows, err := s.db.Query(ctx, listMenuItems, truckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, scanMenuItem)
}

const getMenuItemBySlug = `
SELECT id, truck_id, category_id, name, slug, description, base_price, available, created_at
FROM menu_items
WHERE truck_id = $1 AND slug = $2
`

type GetMenuItemBySlugParams struct {
	TruckID pgtype.UUID
	Slug    string
}

func (s *Store) GetMenuItemBySlug(ctx context.Context, arg GetMenuItemBySlugParams) (MenuItem, error) {
	row := s.db.QueryRow(ctx, getMenuItemBySlug, arg.TruckID, arg.Slug)
	var m MenuItem
	err := row.Scan(&m.ID, &m.TruckID, &m.CategoryID, &m.Name, &m.Slug, &m.Description, &m.BasePrice, &m.Available, &m.CreatedAt)
	return m, err
}

const getMenuItemByID = `
SELECT id, truck_id, category_id, name, slug, description, base_price, available, created_at
FROM menu_items
WHERE id = $1
`

func (s *Store) GetMenuItemByID(ctx context.Context, id pgtype.UUID) (MenuItem, error) {
	row := s.db.QueryRow(ctx, getMenuItemByID, id)
	var m MenuItem
	err := row.Scan(&m.ID, &m.TruckID, &m.CategoryID, &m.Name, &m.Slug, &m.Description, &m.BasePrice, &m.Available, &m.CreatedAt)
	return m, err
}

const listOptionGroupsForItem = `
SELECT id, item_id, name, min_select, max_select, size_group, position
FROM option_groups
WHERE item_id = $1
ORDER BY position
`

func (s *Store) ListOptionGroupsForItem(ctx context.Context, itemID pgtype.UUID) ([]OptionGroup, error) {
	rows, err := s.db.Query(ctx, listOptionGroupsForItem, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, func(row pgx.CollectableRow) (OptionGroup, error) {
		var g OptionGroup
		err := row.Scan(&g.ID, &g.ItemID, &g.Name, &g.MinSelect, &g.MaxSelect, &g.SizeGroup, &g.Position)
		return g, err
	})
}

const listOptionsForItem = `
SELECT o.id, o.group_id, o.name, o.price_modifier, o.size_option, o.position
FROM options o
JOIN option_groups g ON g.id = o.group_id
WHERE g.item_id = $1
ORDER BY g.position, o.position
`

func (s *Store) ListOptionsForItem(ctx context.Context, itemID pgtype.UUID) ([]Option, error) {
	rows, err := s.db.Query(ctx, listOptionsForItem, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, scanOption)
}

const listOptionsByIDs = `
SELECT id, group_id, name, price_modifier, size_option, position
FROM options
WHERE id = ANY($1)
`

func (s *Store) ListOptionsByIDs(ctx context.Context, ids []pgtype.UUID) ([]Option, error) {
	rows, err := s.db.Query(ctx, listOptionsByIDs, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, scanOption)
}

const listBundles = `
SELECT id, truck_id, name, slug, description, fixed_price, free_options, available, created_at
FROM bundles
WHERE truck_id = $1 AND available
ORDER BY name
`

func (s *Store) ListBundles(ctx context.Context, truckID pgtype.UUID) ([]Bundle, error) {
	rows, err := s.db.Query(ctx, listBundles, truckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, scanBundle)
}

const getBundleByID = `
SELECT id, truck_id, name, slug, description, fixed_price, free_options, available, created_at
FROM bundles
WHERE id = $1
`

func (s *Store) GetBundleByID(ctx context.Context, id pgtype.UUID) (Bundle, error) {
	row := s.db.QueryRow(ctx, getBundleByID, id)
	var b Bundle
	err := row.Scan(&b.ID, &b.TruckID, &b.Name, &b.Slug, &b.Description, &b.FixedPrice, &b.FreeOptions, &b.Available, &b.CreatedAt)
	return b, err
}

const listBundleSlots = `
SELECT id, bundle_id, name, category_id, supplement, position
FROM bundle_slots
WHERE bundle_id = $1
ORDER BY position
`

func (s *Store) ListBundleSlots(ctx context.Context, bundleID pgtype.UUID) ([]BundleSlot, error) {
	rows, err := s.db.Query(ctx, listBundleSlots, bundleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, func(row pgx.CollectableRow) (BundleSlot, error) {
		var sl BundleSlot
		err := row.Scan(&sl.ID, &sl.BundleID, &sl.Name, &sl.CategoryID, &sl.Supplement, &sl.Position)
		return sl, err
	})
}

func scanMenuItem(row pgx.CollectableRow) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(&m.ID, &m.TruckID, &m.CategoryID, &m.Name, &m.Slug, &m.Description, &m.BasePrice, &m.Available, &m.CreatedAt)
	return m, err
}

func scanOption(row pgx.CollectableRow) (Option, error) {
	var o Option
	err := row.Scan(&o.ID, &o.GroupID, &o.Name, &o.PriceModifier, &o.SizeOption, &o.Position)
	return o, err
}

func scanBundle(row pgx.CollectableRow) (Bundle, error) {
	var b Bundle
	err := row.Scan(&b.ID, &b.TruckID, &b.Name, &b.Slug, &b.Description, &b.FixedPrice, &b.FreeOptions, &b.Available, &b.CreatedAt)
	return b, err
}

// collect drains rows into a slice using the provided scanner.
func collect[T any](rows pgx.Rows, scan func(pgx.CollectableRow) (T, error)) ([]T, error) {
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
