package offers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/common"
	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/store"
)

var validate = validator.New()

// Store captures the persistence methods the admin handlers need beyond the
// service's Querier.
type Store interface {
	Querier
	CreateDeal(ctx context.Context, arg store.CreateDealParams) (store.Deal, error)
	UpdateDeal(ctx context.Context, arg store.UpdateDealParams) (store.Deal, error)
	DeleteDeal(ctx context.Context, arg store.DeleteDealParams) error
	CreatePromo(ctx context.Context, arg store.CreatePromoParams) (store.PromoCode, error)
}

// Handler exposes merchant-side deal and promo management.
type Handler struct {
	S   Store
	Svc *Service
}

type dealPayload struct {
	Name              string  `json:"name" validate:"required,max=120"`
	Kind              string  `json:"kind" validate:"required,oneof=free_item cheapest_in_cart percentage fixed"`
	Stackable         bool    `json:"stackable"`
	TriggerQuantity   int     `json:"triggerQuantity" validate:"min=1"`
	TriggerCategoryID *string `json:"triggerCategoryId"`
	RewardValue       int64   `json:"rewardValue" validate:"min=0"`
	PercentBps        *int32  `json:"percentBps" validate:"omitempty,gt=0,lte=10000"`
	RewardItemName    *string `json:"rewardItemName"`
	Active            *bool   `json:"active"`
	Position          int     `json:"position" validate:"min=0"`
}

type promoPayload struct {
	Code               string     `json:"code" validate:"required,max=64"`
	Kind               string     `json:"kind" validate:"omitempty,oneof=fixed percentage"`
	Value              int64      `json:"value" validate:"min=0"`
	PercentBps         *int32     `json:"percentBps" validate:"omitempty,gt=0,lte=10000"`
	MinOrderAmount     int64      `json:"minOrderAmount" validate:"min=0"`
	UsageLimit         *int32     `json:"usageLimit" validate:"omitempty,gt=0"`
	MaxUsesPerCustomer *int32     `json:"maxUsesPerCustomer" validate:"omitempty,gt=0"`
	ValidFrom          *time.Time `json:"validFrom"`
	ValidTo            *time.Time `json:"validTo"`
}

type previewRequest struct {
	Code       string  `json:"code"`
	CartTotal  int64   `json:"cartTotal"`
	CustomerID *string `json:"customerId"`
}

// CreateDeal inserts a new deal for the truck in the URL.
func (h *Handler) CreateDeal(w http.ResponseWriter, r *http.Request) {
	if h.S == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "offers store not configured", nil)
		return
	}
	truckID, ok := truckFromURL(w, r)
	if !ok {
		return
	}
	var payload dealPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	params, err := buildDealParams(truckID, payload)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	deal, err := h.S.CreateDeal(r.Context(), params)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create deal", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": dealView(deal)})
}

// UpdateDeal mutates an existing deal identified by id.
func (h *Handler) UpdateDeal(w http.ResponseWriter, r *http.Request) {
	if h.S == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "offers store not configured", nil)
		return
	}
	truckID, ok := truckFromURL(w, r)
	if !ok {
		return
	}
	dealID, err := store.ToUUID(chi.URLParam(r, "dealID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid deal id", nil)
		return
	}
	var payload dealPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	params, err := buildDealParams(truckID, payload)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	deal, err := h.S.UpdateDeal(r.Context(), store.UpdateDealParams{
		ID:                dealID,
		TruckID:           truckID,
		Name:              params.Name,
		Kind:              params.Kind,
		Stackable:         params.Stackable,
		TriggerQuantity:   params.TriggerQuantity,
		TriggerCategoryID: params.TriggerCategoryID,
		RewardValue:       params.RewardValue,
		PercentBps:        params.PercentBps,
		RewardItemName:    params.RewardItemName,
		Active:            params.Active,
		Position:          params.Position,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "deal not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update deal", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": dealView(deal)})
}

// DeleteDeal removes a deal.
func (h *Handler) DeleteDeal(w http.ResponseWriter, r *http.Request) {
	if h.S == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "offers store not configured", nil)
		return
	}
	truckID, ok := truckFromURL(w, r)
	if !ok {
		return
	}
	dealID, err := store.ToUUID(chi.URLParam(r, "dealID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid deal id", nil)
		return
	}
	if err := h.S.DeleteDeal(r.Context(), store.DeleteDealParams{ID: dealID, TruckID: truckID}); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete deal", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": "deleted"})
}

// CreatePromo inserts a new promo code.
func (h *Handler) CreatePromo(w http.ResponseWriter, r *http.Request) {
	if h.S == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "offers store not configured", nil)
		return
	}
	truckID, ok := truckFromURL(w, r)
	if !ok {
		return
	}
	var payload promoPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	params, err := buildPromoParams(truckID, payload)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	promo, err := h.S.CreatePromo(r.Context(), params)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "promo code already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create promo code", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": promoView(promo)})
}

// PreviewPromo validates a code against a hypothetical cart total without
// touching usage counters.
func (h *Handler) PreviewPromo(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "offers service not configured", nil)
		return
	}
	truckID, ok := truckFromURL(w, r)
	if !ok {
		return
	}
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	result, err := h.Svc.PreviewPromo(r.Context(), truckID, req.Code, req.CustomerID, req.CartTotal)
	if err != nil {
		switch {
		case errors.Is(err, ErrPromoNotFound),
			errors.Is(err, ErrPromoInactive),
			errors.Is(err, ErrPromoExpired),
			errors.Is(err, ErrUsageLimitReached),
			errors.Is(err, ErrPerCustomerLimitReached),
			errors.Is(err, ErrMinOrderUnmet):
			common.JSONError(w, http.StatusBadRequest, "NOT_ELIGIBLE", err.Error(), nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to preview promo code", nil)
		}
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

func truckFromURL(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	truckID, err := store.ToUUID(chi.URLParam(r, "truckID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid truck id", nil)
		return pgtype.UUID{}, false
	}
	return truckID, true
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+" failed "+fe.Tag())
	}
	return errors.New("invalid payload: " + strings.Join(fields, ", "))
}

func buildDealParams(truckID pgtype.UUID, payload dealPayload) (store.CreateDealParams, error) {
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Kind = strings.TrimSpace(payload.Kind)
	if err := validate.Struct(payload); err != nil {
		return store.CreateDealParams{}, validationError(err)
	}
	kind := RewardKind(payload.Kind)
	params := store.CreateDealParams{
		TruckID:         truckID,
		Name:            payload.Name,
		Kind:            string(kind),
		Stackable:       payload.Stackable,
		TriggerQuantity: int32(payload.TriggerQuantity),
		RewardValue:     payload.RewardValue,
		Active:          true,
		Position:        int32(payload.Position),
	}
	if payload.Active != nil {
		params.Active = *payload.Active
	}
	if payload.TriggerCategoryID != nil && strings.TrimSpace(*payload.TriggerCategoryID) != "" {
		cat, err := store.ToUUID(*payload.TriggerCategoryID)
		if err != nil {
			return store.CreateDealParams{}, errors.New("invalid triggerCategoryId")
		}
		params.TriggerCategoryID = cat
	}
	if payload.PercentBps != nil {
		params.PercentBps = pgtype.Int4{Int32: *payload.PercentBps, Valid: true}
	}
	if kind == RewardPercentage && (!params.PercentBps.Valid || params.PercentBps.Int32 <= 0) {
		return store.CreateDealParams{}, errors.New("percentBps is required for percentage deals")
	}
	if payload.RewardItemName != nil && strings.TrimSpace(*payload.RewardItemName) != "" {
		params.RewardItemName = pgtype.Text{String: strings.TrimSpace(*payload.RewardItemName), Valid: true}
	}
	if kind == RewardFreeItem && !params.RewardItemName.Valid {
		return store.CreateDealParams{}, errors.New("rewardItemName is required for free_item deals")
	}
	return params, nil
}

func buildPromoParams(truckID pgtype.UUID, payload promoPayload) (store.CreatePromoParams, error) {
	payload.Code = strings.TrimSpace(payload.Code)
	payload.Kind = strings.TrimSpace(payload.Kind)
	if err := validate.Struct(payload); err != nil {
		return store.CreatePromoParams{}, validationError(err)
	}
	kind := payload.Kind
	if kind == "" {
		kind = "fixed"
	}
	params := store.CreatePromoParams{
		TruckID:        truckID,
		Code:           payload.Code,
		Kind:           kind,
		Value:          payload.Value,
		MinOrderAmount: payload.MinOrderAmount,
	}
	if payload.PercentBps != nil {
		params.PercentBps = pgtype.Int4{Int32: *payload.PercentBps, Valid: true}
	}
	if kind == "percentage" && (!params.PercentBps.Valid || params.PercentBps.Int32 <= 0) {
		return store.CreatePromoParams{}, errors.New("percentBps is required for percentage promos")
	}
	if kind == "fixed" && payload.Value <= 0 {
		return store.CreatePromoParams{}, errors.New("value must be positive for fixed promos")
	}
	if payload.UsageLimit != nil {
		params.UsageLimit = pgtype.Int4{Int32: *payload.UsageLimit, Valid: true}
	}
	if payload.MaxUsesPerCustomer != nil {
		params.MaxUsesPerCustomer = pgtype.Int4{Int32: *payload.MaxUsesPerCustomer, Valid: true}
	}
	if payload.ValidFrom != nil {
		params.ValidFrom = pgtype.Timestamptz{Time: *payload.ValidFrom, Valid: true}
	}
	if payload.ValidTo != nil {
		params.ValidTo = pgtype.Timestamptz{Time: *payload.ValidTo, Valid: true}
	}
	return params, nil
}

func dealView(d store.Deal) map[string]any {
	v := map[string]any{
		"id":              store.UUIDString(d.ID),
		"name":            d.Name,
		"kind":            d.Kind,
		"stackable":       d.Stackable,
		"triggerQuantity": d.TriggerQuantity,
		"rewardValue":     d.RewardValue,
		"active":          d.Active,
		"position":        d.Position,
	}
	if d.TriggerCategoryID.Valid {
		v["triggerCategoryId"] = store.UUIDString(d.TriggerCategoryID)
	}
	if d.PercentBps.Valid {
		v["percentBps"] = d.PercentBps.Int32
	}
	if d.RewardItemName.Valid {
		v["rewardItemName"] = d.RewardItemName.String
	}
	return v
}

func promoView(p store.PromoCode) map[string]any {
	v := map[string]any{
		"id":             store.UUIDString(p.ID),
		"code":           p.Code,
		"kind":           p.Kind,
		"value":          p.Value,
		"minOrderAmount": p.MinOrderAmount,
		"usedCount":      p.UsedCount,
	}
	if p.PercentBps.Valid {
		v["percentBps"] = p.PercentBps.Int32
	}
	if p.UsageLimit.Valid {
		v["usageLimit"] = p.UsageLimit.Int32
	}
	if p.MaxUsesPerCustomer.Valid {
		v["maxUsesPerCustomer"] = p.MaxUsesPerCustomer.Int32
	}
	if p.ValidFrom.Valid {
		v["validFrom"] = p.ValidFrom.Time
	}
	if p.ValidTo.Valid {
		v["validTo"] = p.ValidTo.Time
	}
	return v
}
