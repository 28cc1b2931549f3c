package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/store"
)

// ErrNotFound is returned when the requested menu entry does not exist.
var ErrNotFound = errors.New("catalog: not found")

type queryProvider interface {
	ListCategories(ctx context.Context, truckID pgtype.UUID) ([]store.Category, error)
	ListMenuItems(ctx context.Context, truckID pgtype.UUID) ([]store.MenuItem, error)
	GetMenuItemBySlug(ctx context.Context, arg store.GetMenuItemBySlugParams) (store.MenuItem, error)
	ListOptionGroupsForItem(ctx context.Context, itemID pgtype.UUID) ([]store.OptionGroup, error)
	ListOptionsForItem(ctx context.Context, itemID pgtype.UUID) ([]store.Option, error)
	ListBundles(ctx context.Context, truckID pgtype.UUID) ([]store.Bundle, error)
	ListBundleSlots(ctx context.Context, bundleID pgtype.UUID) ([]store.BundleSlot, error)
}

// Service assembles the public menu read model, with a cache-aside layer in
// front of the heavier aggregate queries.
type Service struct {
	queries queryProvider
	cache   *Cache
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries queryProvider
	Cache   *Cache
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	return &Service{queries: cfg.Queries, cache: cfg.Cache}, nil
}

// MenuCategory is one category of the public menu with its items inlined.
type MenuCategory struct {
	ID    string            `json:"id"`
	Name  string            `json:"name"`
	Items []MenuItemSummary `json:"items"`
}

// MenuItemSummary is the list representation of a menu item.
type MenuItemSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description,omitempty"`
	BasePrice   int64   `json:"basePrice"`
}

// Menu is the full public menu payload for one truck.
type Menu struct {
	Categories []MenuCategory `json:"categories"`
	Bundles    []BundleView   `json:"bundles"`
}

// OptionView is one selectable option in an item's group.
type OptionView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PriceModifier int64  `json:"priceModifier"`
	SizeOption    bool   `json:"sizeOption"`
}

// OptionGroupView is a group of options attached to an item.
type OptionGroupView struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	MinSelect int32        `json:"minSelect"`
	MaxSelect int32        `json:"maxSelect"`
	SizeGroup bool         `json:"sizeGroup"`
	Options   []OptionView `json:"options"`
}

// ItemDetail is the full payload for one menu item.
type ItemDetail struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Slug         string            `json:"slug"`
	Description  *string           `json:"description,omitempty"`
	BasePrice    int64             `json:"basePrice"`
	OptionGroups []OptionGroupView `json:"optionGroups"`
}

// BundleSlotView is one configurable slot of a bundle.
type BundleSlotView struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	CategoryID *string `json:"categoryId,omitempty"`
	Supplement int64   `json:"supplement"`
}

// BundleView is the public representation of a fixed-price formula.
type BundleView struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Description *string          `json:"description,omitempty"`
	FixedPrice  int64            `json:"fixedPrice"`
	FreeOptions bool             `json:"freeOptions"`
	Slots       []BundleSlotView `json:"slots"`
}

func menuKey(truckID pgtype.UUID) string {
	return "catalog:menu:" + store.UUIDString(truckID)
}

func itemKey(truckID pgtype.UUID, slug string) string {
	return "catalog:item:" + store.UUIDString(truckID) + ":" + slug
}

// Menu returns the truck's full menu: categories with available items plus
// the configured bundles.
func (s *Service) Menu(ctx context.Context, truckID pgtype.UUID) (Menu, error) {
	var cached Menu
	if ok, err := s.cache.GetJSON(ctx, menuKey(truckID), &cached); err == nil && ok {
		return cached, nil
	}

	categories, err := s.queries.ListCategories(ctx, truckID)
	if err != nil {
		return Menu{}, fmt.Errorf("list categories: %w", err)
	}
	items, err := s.queries.ListMenuItems(ctx, truckID)
	if err != nil {
		return Menu{}, fmt.Errorf("list menu items: %w", err)
	}
	byCategory := make(map[string][]MenuItemSummary)
	for _, it := range items {
		summary := MenuItemSummary{
			ID:          store.UUIDString(it.ID),
			Name:        it.Name,
			Slug:        it.Slug,
			Description: nullableString(it.Description),
			BasePrice:   it.BasePrice,
		}
		key := store.UUIDString(it.CategoryID)
		byCategory[key] = append(byCategory[key], summary)
	}

	menu := Menu{Categories: make([]MenuCategory, 0, len(categories))}
	for _, cat := range categories {
		menu.Categories = append(menu.Categories, MenuCategory{
			ID:    store.UUIDString(cat.ID),
			Name:  cat.Name,
			Items: byCategory[store.UUIDString(cat.ID)],
		})
	}

	bundles, err := s.queries.ListBundles(ctx, truckID)
	if err != nil {
		return Menu{}, fmt.Errorf("list bundles: %w", err)
	}
	for _, b := range bundles {
		slots, err := s.queries.ListBundleSlots(ctx, b.ID)
		if err != nil {
			return Menu{}, fmt.Errorf("list bundle slots: %w", err)
		}
		view := BundleView{
			ID:          store.UUIDString(b.ID),
			Name:        b.Name,
			Slug:        b.Slug,
			Description: nullableString(b.Description),
			FixedPrice:  b.FixedPrice,
			FreeOptions: b.FreeOptions,
			Slots:       make([]BundleSlotView, 0, len(slots)),
		}
		for _, sl := range slots {
			sv := BundleSlotView{
				ID:         store.UUIDString(sl.ID),
				Name:       sl.Name,
				Supplement: sl.Supplement,
			}
			if sl.CategoryID.Valid {
				cid := store.UUIDString(sl.CategoryID)
				sv.CategoryID = &cid
			}
			view.Slots = append(view.Slots, sv)
		}
		menu.Bundles = append(menu.Bundles, view)
	}

	_ = s.cache.SetJSON(ctx, menuKey(truckID), menu)
	return menu, nil
}

// ItemDetail returns one item with its option groups, by slug.
func (s *Service) ItemDetail(ctx context.Context, truckID pgtype.UUID, slug string) (ItemDetail, error) {
	var cached ItemDetail
	if ok, err := s.cache.GetJSON(ctx, itemKey(truckID, slug), &cached); err == nil && ok {
		return cached, nil
	}

	item, err := s.queries.GetMenuItemBySlug(ctx, store.GetMenuItemBySlugParams{TruckID: truckID, Slug: slug})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ItemDetail{}, ErrNotFound
		}
		return ItemDetail{}, err
	}
	if !item.Available {
		return ItemDetail{}, ErrNotFound
	}
	groups, err := s.queries.ListOptionGroupsForItem(ctx, item.ID)
	if err != nil {
		return ItemDetail{}, fmt.Errorf("list option groups: %w", err)
	}
	options, err := s.queries.ListOptionsForItem(ctx, item.ID)
	if err != nil {
		return ItemDetail{}, fmt.Errorf("list options: %w", err)
	}
	byGroup := make(map[string][]OptionView)
	for _, o := range options {
		key := store.UUIDString(o.GroupID)
		byGroup[key] = append(byGroup[key], OptionView{
			ID:            store.UUIDString(o.ID),
			Name:          o.Name,
			PriceModifier: o.PriceModifier,
			SizeOption:    o.SizeOption,
		})
	}
	detail := ItemDetail{
		ID:           store.UUIDString(item.ID),
		Name:         item.Name,
		Slug:         item.Slug,
		Description:  nullableString(item.Description),
		BasePrice:    item.BasePrice,
		OptionGroups: make([]OptionGroupView, 0, len(groups)),
	}
	for _, g := range groups {
		detail.OptionGroups = append(detail.OptionGroups, OptionGroupView{
			ID:        store.UUIDString(g.ID),
			Name:      g.Name,
			MinSelect: g.MinSelect,
			MaxSelect: g.MaxSelect,
			SizeGroup: g.SizeGroup,
			Options:   byGroup[store.UUIDString(g.ID)],
		})
	}

	_ = s.cache.SetJSON(ctx, itemKey(truckID, slug), detail)
	return detail, nil
}

// InvalidateMenu drops the cached menu for a truck, e.g. after a merchant
// edits the catalog.
func (s *Service) InvalidateMenu(ctx context.Context, truckID pgtype.UUID) error {
	return s.cache.Invalidate(ctx, menuKey(truckID))
}

func nullableString(t pgtype.Text) *string {
	if !t.Valid || t.String == "" {
		return nil
	}
	v := t.String
	return &v
}
