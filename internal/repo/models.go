package repo

import (
	"time"

	"github.com/shopspring/decimal"
)

// User mirrors the users table including the loyalty columns.
type User struct {
	ID                    string
	Name                  string
	Email                 string
	PasswordHash          string
	Roles                 []string
	ReferralCode          *string
	ReferrerID            *string
	EcoPoints             int
	RankLevel             int
	RankLevelAchievedAt   *time.Time
	TotalOrderCount       int
	LifetimeTotalCarbon   decimal.Decimal
	LifetimeAverageCarbon decimal.Decimal
	CreatedAt             time.Time
}

// Address is one entry in a user's address book.
type Address struct {
	ID         string
	UserID     string
	Label      *string
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
	IsDefault  bool
}

// Product carries the catalog fields checkout needs.
type Product struct {
	ID            string
	Name          string
	ImageURL      *string
	Price         decimal.Decimal
	StockQuantity int
	EcoPoints     int
	CarbonPerUnit decimal.Decimal
}

// Cart is the header row of a user's single cart.
type Cart struct {
	ID                string
	UserID            string
	DiscountID        *string
	ShippingAddressID *string
	TransportZoneID   *string
}

// CartLine joins a cart item with its product snapshot-to-be.
type CartLine struct {
	ItemID        string
	ProductID     string
	ProductName   string
	ImageURL      *string
	Quantity      int
	UnitPrice     decimal.Decimal
	UnitCarbon    decimal.Decimal
	EcoPoints     int
	StockQuantity int
}

// Zone mirrors a transport_zones row.
type Zone struct {
	ID         string
	Name       string
	Cost       decimal.Decimal
	FlatCarbon decimal.Decimal
}

// TaxRate mirrors a tax_rates row.
type TaxRate struct {
	ID      string
	Name    string
	Rate    decimal.Decimal
	Country string
	State   *string
}

// Order is the immutable snapshot written at checkout.
type Order struct {
	ID                string
	UserID            string
	Status            string
	OrderDate         time.Time
	TotalAmount       decimal.Decimal
	TotalCarbon       decimal.Decimal
	DiscountCode      *string
	DiscountAmount    *decimal.Decimal
	EcoPointsRedeemed int
	EcoPointsAmount   decimal.Decimal
	ShippingCost      decimal.Decimal
	TaxAmount         decimal.Decimal
	ShippingAddress   string
}

// OrderItem is one immutable order line.
type OrderItem struct {
	ID            string
	OrderID       string
	ProductID     string
	ProductName   string
	ImageURL      *string
	Quantity      int
	PricePerItem  decimal.Decimal
	CarbonPerItem decimal.Decimal
}

// Intent is the saga record written before calling the payment gateway.
type Intent struct {
	ID        string
	UserID    string
	CartID    string
	Amount    decimal.Decimal
	Currency  string
	Status    string
	OrderID   *string
	CreatedAt time.Time
}

// Intent statuses.
const (
	IntentPending   = "pending"
	IntentCompleted = "completed"
	IntentFailed    = "failed"
	IntentAbandoned = "abandoned"
)

// Order statuses.
const (
	OrderStatusCompleted = "COMPLETED"
)
