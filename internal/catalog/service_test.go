package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/catalog"
	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/store"
)

type fakeQueries struct {
	truckID    pgtype.UUID
	categories []store.Category
	items      []store.MenuItem
	groups     map[string][]store.OptionGroup
	options    map[string][]store.Option
	bundles    []store.Bundle
	slots      map[string][]store.BundleSlot
	menuCalls  int
}

func (f *fakeQueries) ListCategories(ctx context.Context, truckID pgtype.UUID) ([]store.Category, error) {
	f.menuCalls++
	return f.categories, nil
}

func (f *fakeQueries) ListMenuItems(ctx context.Context, truckID pgtype.UUID) ([]store.MenuItem, error) {
	return f.items, nil
}

func (f *fakeQueries) GetMenuItemBySlug(ctx context.Context, arg store.GetMenuItemBySlugParams) (store.MenuItem, error) {
	for _, it := range f.items {
		if it.Slug == arg.Slug {
			return it, nil
		}
	}
	return store.MenuItem{}, pgx.ErrNoRows
}

func (f *fakeQueries) ListOptionGroupsForItem(ctx context.Context, itemID pgtype.UUID) ([]store.OptionGroup, error) {
	return f.groups[store.UUIDString(itemID)], nil
}

func (f *fakeQueries) ListOptionsForItem(ctx context.Context, itemID pgtype.UUID) ([]store.Option, error) {
	return f.options[store.UUIDString(itemID)], nil
}

func (f *fakeQueries) ListBundles(ctx context.Context, truckID pgtype.UUID) ([]store.Bundle, error) {
	return f.bundles, nil
}

func (f *fakeQueries) ListBundleSlots(ctx context.Context, bundleID pgtype.UUID) ([]store.BundleSlot, error) {
	return f.slots[store.UUIDString(bundleID)], nil
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func newFakeQueries() *fakeQueries {
	truckID := pgUUID(uuid.New())
	catID := pgUUID(uuid.New())
	itemID := pgUUID(uuid.New())
	groupID := pgUUID(uuid.New())
	bundleID := pgUUID(uuid.New())
	return &fakeQueries{
		truckID:    truckID,
		categories: []store.Category{{ID: catID, TruckID: truckID, Name: "Burgers"}},
		items: []store.MenuItem{{
			ID: itemID, TruckID: truckID, CategoryID: catID,
			Name: "Classic Burger", Slug: "classic-burger", BasePrice: 900, Available: true,
		}},
		groups: map[string][]store.OptionGroup{
			store.UUIDString(itemID): {{ID: groupID, ItemID: itemID, Name: "Size", MaxSelect: 1, SizeGroup: true}},
		},
		options: map[string][]store.Option{
			store.UUIDString(itemID): {{ID: pgUUID(uuid.New()), GroupID: groupID, Name: "Large", PriceModifier: 1300, SizeOption: true}},
		},
		bundles: []store.Bundle{{ID: bundleID, TruckID: truckID, Name: "Menu Midi", Slug: "menu-midi", FixedPrice: 1200, Available: true}},
		slots: map[string][]store.BundleSlot{
			store.UUIDString(bundleID): {{ID: pgUUID(uuid.New()), BundleID: bundleID, Name: "Main", Supplement: 0}},
		},
	}
}

func newCachedService(t *testing.T) (*catalog.Service, *fakeQueries) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	queries := newFakeQueries()
	svc, err := catalog.NewService(catalog.ServiceConfig{
		Queries: queries,
		Cache:   catalog.NewCache(client, time.Minute),
	})
	require.NoError(t, err)
	return svc, queries
}

func TestMenuAssemblesCategoriesAndBundles(t *testing.T) {
	svc, queries := newCachedService(t)
	menu, err := svc.Menu(context.Background(), queries.truckID)
	require.NoError(t, err)
	require.Len(t, menu.Categories, 1)
	require.Equal(t, "Burgers", menu.Categories[0].Name)
	require.Len(t, menu.Categories[0].Items, 1)
	require.Equal(t, int64(900), menu.Categories[0].Items[0].BasePrice)
	require.Len(t, menu.Bundles, 1)
	require.Equal(t, int64(1200), menu.Bundles[0].FixedPrice)
	require.Len(t, menu.Bundles[0].Slots, 1)
}

func TestMenuServedFromCache(t *testing.T) {
	svc, queries := newCachedService(t)
	_, err := svc.Menu(context.Background(), queries.truckID)
	require.NoError(t, err)
	_, err = svc.Menu(context.Background(), queries.truckID)
	require.NoError(t, err)
	require.Equal(t, 1, queries.menuCalls)
}

func TestInvalidateMenuForcesReload(t *testing.T) {
	svc, queries := newCachedService(t)
	_, err := svc.Menu(context.Background(), queries.truckID)
	require.NoError(t, err)
	require.NoError(t, svc.InvalidateMenu(context.Background(), queries.truckID))
	_, err = svc.Menu(context.Background(), queries.truckID)
	require.NoError(t, err)
	require.Equal(t, 2, queries.menuCalls)
}

func TestItemDetailHandler(t *testing.T) {
	svc, queries := newCachedService(t)
	handler := catalog.NewHandler(svc)

	router := chi.NewRouter()
	router.Get("/v1/trucks/{truckID}/menu/items/{slug}", handler.ItemDetail)

	req := httptest.NewRequest(http.MethodGet, "/v1/trucks/"+store.UUIDString(queries.truckID)+"/menu/items/classic-burger", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data catalog.ItemDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Classic Burger", resp.Data.Name)
	require.Len(t, resp.Data.OptionGroups, 1)
	require.True(t, resp.Data.OptionGroups[0].SizeGroup)

	missing := httptest.NewRequest(http.MethodGet, "/v1/trucks/"+store.UUIDString(queries.truckID)+"/menu/items/nope", nil)
	mrec := httptest.NewRecorder()
	router.ServeHTTP(mrec, missing)
	require.Equal(t, http.StatusNotFound, mrec.Code)
}
