package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/common"
	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/offers"
	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/store"
)

// Handler wires cart services to HTTP.
type Handler struct {
	Svc      *Service
	Currency string
}

// Create opens (or resumes) a cart for the truck. Guests get an anon id
// generated server-side when they do not supply one.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	truckID, err := store.ToUUID(chi.URLParam(r, "truckID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid truck id", nil)
		return
	}
	var payload struct {
		CustomerID string `json:"customerId"`
		AnonID     string `json:"anonId"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	var customerID, anonID *string
	if cid := strings.TrimSpace(payload.CustomerID); cid != "" {
		customerID = &cid
	} else {
		aid := strings.TrimSpace(payload.AnonID)
		if aid == "" {
			aid = uuid.NewString()
		}
		anonID = &aid
	}
	cart, err := h.Svc.EnsureCart(r.Context(), truckID, customerID, anonID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"cartId": store.UUIDString(cart.ID),
			"anonId": nullableText(cart.AnonID),
			"promo":  nullableText(cart.AppliedPromoCode),
		},
	})
}

// Get returns the cart contents with a full pricing breakdown.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	cart, ok := h.loadCart(w, r)
	if !ok {
		return
	}
	breakdown, lines, err := h.Svc.Quote(r.Context(), cart, customerIDParam(r, cart))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.cartView(cart, lines, breakdown)})
}

// AddItem appends a priced menu item line.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	cart, ok := h.loadCart(w, r)
	if !ok {
		return
	}
	var payload struct {
		ItemID    string   `json:"itemId"`
		OptionIDs []string `json:"optionIds"`
		Qty       int      `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(payload.ItemID) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "itemId is required", nil)
		return
	}
	if _, err := h.Svc.AddItemLine(r.Context(), cart.ID, payload.ItemID, payload.OptionIDs, payload.Qty); err != nil {
		h.writeError(w, err)
		return
	}
	h.Get(w, r)
}

// AddBundle appends a priced bundle line.
func (h *Handler) AddBundle(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	cart, ok := h.loadCart(w, r)
	if !ok {
		return
	}
	var payload struct {
		BundleID string `json:"bundleId"`
		Qty      int    `json:"qty"`
		Slots    []struct {
			SlotID    string   `json:"slotId"`
			OptionIDs []string `json:"optionIds"`
		} `json:"slots"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(payload.BundleID) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "bundleId is required", nil)
		return
	}
	slots := make([]BundleSlotInput, 0, len(payload.Slots))
	for _, sl := range payload.Slots {
		slots = append(slots, BundleSlotInput{SlotID: sl.SlotID, OptionIDs: sl.OptionIDs})
	}
	if _, err := h.Svc.AddBundleLine(r.Context(), cart.ID, payload.BundleID, slots, payload.Qty); err != nil {
		h.writeError(w, err)
		return
	}
	h.Get(w, r)
}

// UpdateItem changes a line's quantity.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	cart, ok := h.loadCart(w, r)
	if !ok {
		return
	}
	lineID, err := store.ToUUID(chi.URLParam(r, "lineID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid line id", nil)
		return
	}
	var payload struct {
		Qty int `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if _, err := h.Svc.UpdateQty(r.Context(), cart.ID, lineID, payload.Qty); err != nil {
		h.writeError(w, err)
		return
	}
	h.Get(w, r)
}

// RemoveItem deletes a line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	cart, ok := h.loadCart(w, r)
	if !ok {
		return
	}
	lineID, err := store.ToUUID(chi.URLParam(r, "lineID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid line id", nil)
		return
	}
	if err := h.Svc.RemoveLine(r.Context(), cart.ID, lineID); err != nil {
		h.writeError(w, err)
		return
	}
	h.Get(w, r)
}

// ApplyPromo pins a promo code to the cart.
func (h *Handler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	cart, ok := h.loadCart(w, r)
	if !ok {
		return
	}
	var payload struct {
		Code       string  `json:"code"`
		CustomerID *string `json:"customerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	customerID := payload.CustomerID
	if customerID == nil {
		customerID = customerIDParam(r, cart)
	}
	promo, err := h.Svc.ApplyPromo(r.Context(), cart, strings.TrimSpace(payload.Code), customerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"code":     promo.Code,
		"discount": promo.Amount,
	}})
}

// RemovePromo clears the pinned promo code.
func (h *Handler) RemovePromo(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	cart, ok := h.loadCart(w, r)
	if !ok {
		return
	}
	if err := h.Svc.RemovePromo(r.Context(), cart.ID); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"promo": nil}})
}

// SetLoyalty toggles loyalty redemption for the cart.
func (h *Handler) SetLoyalty(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	cart, ok := h.loadCart(w, r)
	if !ok {
		return
	}
	var payload struct {
		OptIn bool `json:"optIn"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Svc.SetLoyaltyOptIn(r.Context(), cart.ID, payload.OptIn); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"loyaltyOptIn": payload.OptIn}})
}

func (h *Handler) loadCart(w http.ResponseWriter, r *http.Request) (store.Cart, bool) {
	cID, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart id", nil)
		return store.Cart{}, false
	}
	cart, err := h.Svc.Q.GetCartByID(r.Context(), cID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
			return store.Cart{}, false
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load cart", nil)
		return store.Cart{}, false
	}
	now := time.Now()
	if h.Svc != nil {
		now = h.Svc.now()
	}
	if cart.ExpiresAt.Valid && cart.ExpiresAt.Time.Before(now) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart expired", nil)
		return store.Cart{}, false
	}
	return cart, true
}

func (h *Handler) cartView(cart store.Cart, lines []store.CartLine, breakdown offers.Breakdown) map[string]any {
	items := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		item := map[string]any{
			"id":        store.UUIDString(l.ID),
			"name":      l.Name,
			"qty":       l.Qty,
			"unitPrice": l.UnitPrice,
			"subtotal":  l.Subtotal,
		}
		if l.ItemID.Valid {
			item["itemId"] = store.UUIDString(l.ItemID)
		}
		if l.BundleID.Valid {
			item["bundleId"] = store.UUIDString(l.BundleID)
		}
		if len(l.Selections) > 0 {
			item["selections"] = json.RawMessage(l.Selections)
		}
		items = append(items, item)
	}
	return map[string]any{
		"id":           store.UUIDString(cart.ID),
		"anonId":       nullableText(cart.AnonID),
		"promo":        nullableText(cart.AppliedPromoCode),
		"loyaltyOptIn": cart.LoyaltyOptIn,
		"items":        items,
		"pricing":      breakdown,
		"currency":     h.Currency,
	}
}

func customerIDParam(r *http.Request, cart store.Cart) *string {
	if cart.CustomerID.Valid {
		cid := store.UUIDString(cart.CustomerID)
		return &cid
	}
	if cid := strings.TrimSpace(r.URL.Query().Get("customerId")); cid != "" {
		return &cid
	}
	return nil
}

func nullableText(t pgtype.Text) any {
	if !t.Valid || t.String == "" {
		return nil
	}
	return t.String
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrUnavailable):
		common.JSONError(w, http.StatusConflict, "UNAVAILABLE", err.Error(), nil)
	case errors.Is(err, offers.ErrPromoNotFound),
		errors.Is(err, offers.ErrPromoInactive),
		errors.Is(err, offers.ErrPromoExpired),
		errors.Is(err, offers.ErrUsageLimitReached),
		errors.Is(err, offers.ErrPerCustomerLimitReached),
		errors.Is(err, offers.ErrMinOrderUnmet):
		common.JSONError(w, http.StatusUnprocessableEntity, "PROMO_REJECTED", err.Error(), nil)
	case errors.Is(err, pgx.ErrNoRows):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "not found", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
	}
}
