package store

import "github.com/jackc/pgx/v5/pgtype"

// Category groups menu items for display and deal triggers.
type Category struct {
	ID       pgtype.UUID
	TruckID  pgtype.UUID
	Name     string
	Position int32
}

// MenuItem is a standalone orderable item on a truck's menu.
type MenuItem struct {
	ID          pgtype.UUID
	TruckID     pgtype.UUID
	CategoryID  pgtype.UUID
	Name        string
	Slug        string
	Description pgtype.Text
	BasePrice   int64
	Available   bool
	CreatedAt   pgtype.Timestamptz
}

// OptionGroup is a set of options attached to a menu item. SizeGroup marks
// the group whose options replace the base price instead of adding to it.
type OptionGroup struct {
	ID        pgtype.UUID
	ItemID    pgtype.UUID
	Name      string
	MinSelect int32
	MaxSelect int32
	SizeGroup bool
	Position  int32
}

// Option is one selectable choice within an option group.
type Option struct {
	ID            pgtype.UUID
	GroupID       pgtype.UUID
	Name          string
	PriceModifier int64
	SizeOption    bool
	Position      int32
}

// Bundle is a fixed-price formula composed of configurable slots.
type Bundle struct {
	ID          pgtype.UUID
	TruckID     pgtype.UUID
	Name        string
	Slug        string
	Description pgtype.Text
	FixedPrice  int64
	FreeOptions bool
	Available   bool
	CreatedAt   pgtype.Timestamptz
}

// BundleSlot is one configurable position within a bundle. Supplement is the
// per-slot surcharge defined by the bundle configuration.
type BundleSlot struct {
	ID         pgtype.UUID
	BundleID   pgtype.UUID
	Name       string
	CategoryID pgtype.UUID
	Supplement int64
	Position   int32
}

// Cart is an open customer cart with a sliding expiry.
type Cart struct {
	ID               pgtype.UUID
	TruckID          pgtype.UUID
	CustomerID       pgtype.UUID
	AnonID           pgtype.Text
	AppliedPromoCode pgtype.Text
	LoyaltyOptIn     bool
	ExpiresAt        pgtype.Timestamptz
	CreatedAt        pgtype.Timestamptz
	UpdatedAt        pgtype.Timestamptz
}

// CartLine is a priced line in a cart. Selections holds the JSON snapshot of
// the chosen options (or bundle slot selections) used to compute UnitPrice.
type CartLine struct {
	ID         pgtype.UUID
	CartID     pgtype.UUID
	ItemID     pgtype.UUID
	BundleID   pgtype.UUID
	CategoryID pgtype.UUID
	Name       string
	Qty        int32
	UnitPrice  int64
	Subtotal   int64
	Selections []byte
	CreatedAt  pgtype.Timestamptz
}

// Deal is a merchant-configured conditional discount.
type Deal struct {
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
	CreatedAt         pgtype.Timestamptz
}

// PromoCode is a redeemable code with validity window and usage caps.
type PromoCode struct {
	ID                 pgtype.UUID
	TruckID            pgtype.UUID
	Code               string
	Kind               string
	Value              int64
	PercentBps         pgtype.Int4
	MinOrderAmount     int64
	UsageLimit         pgtype.Int4
	UsedCount          int32
	MaxUsesPerCustomer pgtype.Int4
	ValidFrom          pgtype.Timestamptz
	ValidTo            pgtype.Timestamptz
}

// PromoUsage records one promo redemption against an order.
type PromoUsage struct {
	ID         pgtype.UUID
	PromoID    pgtype.UUID
	OrderID    pgtype.UUID
	CustomerID pgtype.UUID
	Amount     int64
	CreatedAt  pgtype.Timestamptz
}

// LoyaltyProgram holds a truck's loyalty settings.
type LoyaltyProgram struct {
	TruckID       pgtype.UUID
	Threshold     int64
	PointsPerEuro int64
	Reward        int64
	Active        bool
}

// CustomerLoyalty is a customer's point balance with one truck.
type CustomerLoyalty struct {
	CustomerID pgtype.UUID
	TruckID    pgtype.UUID
	Points     int64
	UpdatedAt  pgtype.Timestamptz
}

// LoyaltyEntry is one accrual or redemption in the loyalty ledger.
type LoyaltyEntry struct {
	ID         pgtype.UUID
	CustomerID pgtype.UUID
	TruckID    pgtype.UUID
	OrderID    pgtype.UUID
	Kind       string
	Points     int64
	Amount     int64
	CreatedAt  pgtype.Timestamptz
}

// Order is a placed order with its persisted pricing breakdown.
type Order struct {
	ID              pgtype.UUID
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
	CreatedAt       pgtype.Timestamptz
}

// OrderItem is a snapshot of a cart line at order time.
type OrderItem struct {
	ID         pgtype.UUID
	OrderID    pgtype.UUID
	ItemID     pgtype.UUID
	BundleID   pgtype.UUID
	Name       string
	Qty        int32
	UnitPrice  int64
	Subtotal   int64
	Selections []byte
}

// OrderDiscount is one applied discount persisted alongside the order.
type OrderDiscount struct {
	ID      pgtype.UUID
	OrderID pgtype.UUID
	Source  string
	DealID  pgtype.UUID
	PromoID pgtype.UUID
	Label   string
	Amount  int64
}

// DomainEvent is a persisted event emitted by the event bus.
type DomainEvent struct {
	ID          pgtype.UUID
	Topic       string
	AggregateID pgtype.UUID
	Payload     []byte
	OccurredAt  pgtype.Timestamptz
}
