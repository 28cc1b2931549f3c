package offers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/store"
)

type stubQueries struct {
	deals      []store.Deal
	promo      store.PromoCode
	usageCount int64
	usageErr   error
	inserted   []store.InsertPromoUsageParams
	settled    bool
	increased  int
}

func (s *stubQueries) ListActiveDeals(ctx context.Context, truckID pgtype.UUID) ([]store.Deal, error) {
	return s.deals, nil
}

func (s *stubQueries) GetPromoByCode(ctx context.Context, arg store.GetPromoByCodeParams) (store.PromoCode, error) {
	if s.promo.Code == "" || s.promo.Code != arg.Code {
		return store.PromoCode{}, pgx.ErrNoRows
	}
	return s.promo, nil
}

func (s *stubQueries) CountPromoUsageByCustomer(ctx context.Context, arg store.CountPromoUsageByCustomerParams) (int64, error) {
	if s.usageErr != nil {
		return 0, s.usageErr
	}
	return s.usageCount, nil
}

func (s *stubQueries) GetPromoUsageByOrder(ctx context.Context, arg store.GetPromoUsageByOrderParams) (store.PromoUsage, error) {
	if s.settled {
		return store.PromoUsage{PromoID: arg.PromoID, OrderID: arg.OrderID}, nil
	}
	return store.PromoUsage{}, pgx.ErrNoRows
}

func (s *stubQueries) InsertPromoUsage(ctx context.Context, arg store.InsertPromoUsageParams) error {
	s.inserted = append(s.inserted, arg)
	return nil
}

func (s *stubQueries) IncreasePromoUsedCount(ctx context.Context, id pgtype.UUID) error {
	s.increased++
	return nil
}

func newPromo(kind string, value int64, bps int32) store.PromoCode {
	p := store.PromoCode{
		ID:             pgUUID(uuid.New()),
		Code:           "TACO5",
		Kind:           kind,
		Value:          value,
		MinOrderAmount: 1_000,
		ValidFrom:      pgtype.Timestamptz{Time: time.Now().Add(-time.Hour), Valid: true},
		ValidTo:        pgtype.Timestamptz{Time: time.Now().Add(time.Hour), Valid: true},
	}
	if bps > 0 {
		p.PercentBps = pgtype.Int4{Int32: bps, Valid: true}
	}
	return p
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func TestPreviewPromoUnknownCode(t *testing.T) {
	svc := &Service{Q: &stubQueries{}}
	_, err := svc.PreviewPromo(context.Background(), pgUUID(uuid.New()), "NOPE", nil, 5_000)
	if !errors.Is(err, ErrPromoNotFound) {
		t.Fatalf("expected ErrPromoNotFound, got %v", err)
	}
}

func TestPreviewPromoMinOrderUnmet(t *testing.T) {
	svc := &Service{Q: &stubQueries{promo: newPromo("fixed", 500, 0)}}
	_, err := svc.PreviewPromo(context.Background(), pgUUID(uuid.New()), "TACO5", nil, 500)
	if !errors.Is(err, ErrMinOrderUnmet) {
		t.Fatalf("expected ErrMinOrderUnmet, got %v", err)
	}
}

func TestPreviewPromoWindow(t *testing.T) {
	early := newPromo("fixed", 500, 0)
	early.ValidFrom = pgtype.Timestamptz{Time: time.Now().Add(time.Hour), Valid: true}
	svc := &Service{Q: &stubQueries{promo: early}}
	if _, err := svc.PreviewPromo(context.Background(), pgUUID(uuid.New()), "TACO5", nil, 5_000); !errors.Is(err, ErrPromoInactive) {
		t.Fatalf("expected ErrPromoInactive, got %v", err)
	}

	late := newPromo("fixed", 500, 0)
	late.ValidTo = pgtype.Timestamptz{Time: time.Now().Add(-time.Minute), Valid: true}
	svc = &Service{Q: &stubQueries{promo: late}}
	if _, err := svc.PreviewPromo(context.Background(), pgUUID(uuid.New()), "TACO5", nil, 5_000); !errors.Is(err, ErrPromoExpired) {
		t.Fatalf("expected ErrPromoExpired, got %v", err)
	}
}

func TestPreviewPromoUsageLimit(t *testing.T) {
	p := newPromo("fixed", 500, 0)
	p.UsageLimit = pgtype.Int4{Int32: 3, Valid: true}
	p.UsedCount = 3
	svc := &Service{Q: &stubQueries{promo: p}}
	if _, err := svc.PreviewPromo(context.Background(), pgUUID(uuid.New()), "TACO5", nil, 5_000); !errors.Is(err, ErrUsageLimitReached) {
		t.Fatalf("expected ErrUsageLimitReached, got %v", err)
	}
}

func TestPreviewPromoPerCustomerLimit(t *testing.T) {
	p := newPromo("fixed", 500, 0)
	p.MaxUsesPerCustomer = pgtype.Int4{Int32: 1, Valid: true}
	cid := uuid.New().String()
	svc := &Service{Q: &stubQueries{promo: p, usageCount: 1}, DefaultPerCustomerLimit: 1}
	if _, err := svc.PreviewPromo(context.Background(), pgUUID(uuid.New()), "TACO5", &cid, 5_000); !errors.Is(err, ErrPerCustomerLimitReached) {
		t.Fatalf("expected ErrPerCustomerLimitReached, got %v", err)
	}
}

func TestPreviewPromoFixedAmount(t *testing.T) {
	svc := &Service{Q: &stubQueries{promo: newPromo("fixed", 500, 0)}}
	got, err := svc.PreviewPromo(context.Background(), pgUUID(uuid.New()), "TACO5", nil, 5_000)
	if err != nil {
		t.Fatalf("PreviewPromo: %v", err)
	}
	if got.Amount != 500 {
		t.Fatalf("Amount = %d, want 500", got.Amount)
	}
	if got.Code != "TACO5" {
		t.Fatalf("Code = %q, want TACO5", got.Code)
	}
}

func TestPreviewPromoPercentageRounds(t *testing.T) {
	svc := &Service{Q: &stubQueries{promo: newPromo("percentage", 0, 1_000)}}
	got, err := svc.PreviewPromo(context.Background(), pgUUID(uuid.New()), "TACO5", nil, 2_505)
	if err != nil {
		t.Fatalf("PreviewPromo: %v", err)
	}
	// 10% of 2505 rounds half away from zero.
	if got.Amount != 251 {
		t.Fatalf("Amount = %d, want 251", got.Amount)
	}
}

func TestPreviewPromoCappedAtSubtotal(t *testing.T) {
	svc := &Service{Q: &stubQueries{promo: newPromo("fixed", 9_999, 0)}}
	got, err := svc.PreviewPromo(context.Background(), pgUUID(uuid.New()), "TACO5", nil, 2_000)
	if err != nil {
		t.Fatalf("PreviewPromo: %v", err)
	}
	if got.Amount != 2_000 {
		t.Fatalf("Amount = %d, want capped 2000", got.Amount)
	}
}

func TestSettlePromoIdempotent(t *testing.T) {
	q := &stubQueries{promo: newPromo("fixed", 500, 0), settled: true}
	svc := &Service{Q: q}
	orderID := pgUUID(uuid.New())
	if err := svc.SettlePromo(context.Background(), pgUUID(uuid.New()), "TACO5", orderID, pgtype.UUID{}, 500); err != nil {
		t.Fatalf("SettlePromo: %v", err)
	}
	if len(q.inserted) != 0 || q.increased != 0 {
		t.Fatal("already-settled order must not write usage again")
	}
}

func TestSettlePromoRecordsUsage(t *testing.T) {
	q := &stubQueries{promo: newPromo("fixed", 500, 0)}
	svc := &Service{Q: q}
	orderID := pgUUID(uuid.New())
	if err := svc.SettlePromo(context.Background(), pgUUID(uuid.New()), "TACO5", orderID, pgUUID(uuid.New()), 500); err != nil {
		t.Fatalf("SettlePromo: %v", err)
	}
	if len(q.inserted) != 1 {
		t.Fatalf("expected one usage row, got %d", len(q.inserted))
	}
	if q.inserted[0].Amount != 500 {
		t.Fatalf("usage amount = %d, want 500", q.inserted[0].Amount)
	}
	if q.increased != 1 {
		t.Fatalf("used count increments = %d, want 1", q.increased)
	}
}
