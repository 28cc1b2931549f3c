package order

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/common"
	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/store"
)

// Handler exposes customer-facing order history endpoints.
type Handler struct {
	S *store.Store
}

// List handles GET /v1/trucks/{truckID}/orders?customerId=...
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.S == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return
	}
	truckID, err := store.ToUUID(chi.URLParam(r, "truckID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid truck id", nil)
		return
	}
	customerID, err := store.ToUUID(r.URL.Query().Get("customerId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "customerId is required", nil)
		return
	}
	limit := common.QueryInt(r, "limit", 20, 1, 100)
	offset := common.QueryInt(r, "offset", 0, 0, 10_000)

	orders, err := h.S.ListOrdersByCustomer(r.Context(), store.ListOrdersByCustomerParams{
		TruckID:    truckID,
		CustomerID: customerID,
		Limit:      int32(limit),
		Offset:     int32(offset),
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	response := make([]map[string]any, 0, len(orders))
	for _, ord := range orders {
		response = append(response, orderSummary(ord))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": response})
}

// Get handles GET /v1/orders/{orderID}: the order with its lines and the
// discounts that were applied at checkout.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.S == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return
	}
	orderID, err := store.ToUUID(chi.URLParam(r, "orderID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	ord, err := h.S.GetOrderByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	items, err := h.S.ListOrderItems(r.Context(), orderID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order items", nil)
		return
	}
	discounts, err := h.S.ListOrderDiscounts(r.Context(), orderID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order discounts", nil)
		return
	}

	itemViews := make([]map[string]any, 0, len(items))
	for _, it := range items {
		view := map[string]any{
			"id":        store.UUIDString(it.ID),
			"name":      it.Name,
			"qty":       it.Qty,
			"unitPrice": it.UnitPrice,
			"subtotal":  it.Subtotal,
		}
		if it.ItemID.Valid {
			view["itemId"] = store.UUIDString(it.ItemID)
		}
		if it.BundleID.Valid {
			view["bundleId"] = store.UUIDString(it.BundleID)
		}
		if len(it.Selections) > 0 {
			view["selections"] = json.RawMessage(it.Selections)
		}
		itemViews = append(itemViews, view)
	}
	discountViews := make([]map[string]any, 0, len(discounts))
	for _, d := range discounts {
		view := map[string]any{
			"source": d.Source,
			"label":  d.Label,
			"amount": d.Amount,
		}
		if d.DealID.Valid {
			view["dealId"] = store.UUIDString(d.DealID)
		}
		if d.PromoID.Valid {
			view["promoId"] = store.UUIDString(d.PromoID)
		}
		discountViews = append(discountViews, view)
	}

	detail := orderSummary(ord)
	detail["items"] = itemViews
	detail["discounts"] = discountViews
	common.JSON(w, http.StatusOK, map[string]any{"data": detail})
}

func orderSummary(ord store.Order) map[string]any {
	return map[string]any{
		"id":              store.UUIDString(ord.ID),
		"status":          ord.Status,
		"currency":        ord.Currency,
		"subtotal":        ord.Subtotal,
		"promoDiscount":   ord.PromoDiscount,
		"loyaltyDiscount": ord.LoyaltyDiscount,
		"total":           ord.Total,
		"pointsEarned":    ord.PointsEarned,
		"createdAt":       ord.CreatedAt,
	}
}
