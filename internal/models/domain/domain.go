package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by the repositories when a requested record
// does not exist. Callers turn it into a user-facing message; it never
// reaches the process level.
var ErrNotFound = errors.New("record not found")

// StaffRole is the role a staff member holds within a shop.
type StaffRole string

const (
	RoleAdmin   StaffRole = "admin"
	RoleCashier StaffRole = "cashier"
)

// OrderStatus is the lifecycle status of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// DefaultCategoryIcon is used when a category is created without one.
const DefaultCategoryIcon = "📦"

// DefaultLowStockThreshold is assigned to newly created products.
const DefaultLowStockThreshold = 5

// User is a Telegram end-user known to the bot.
type User struct {
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
	LastShopID *uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DisplayName returns the best human-readable name for the user.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return "@" + u.Username
	default:
		return "customer"
	}
}

// Shop is a merchant entity with categories and products.
type Shop struct {
	ID              uuid.UUID
	Name            string
	Description     string
	OwnerTelegramID int64
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Department links a shop to a Telegram group chat it operates in.
type Department struct {
	ID             uuid.UUID
	ShopID         uuid.UUID
	Name           string
	TelegramChatID int64
	CreatedAt      time.Time
}

// StaffMember grants a Telegram user a role in a shop.
type StaffMember struct {
	ID         uuid.UUID
	ShopID     uuid.UUID
	TelegramID int64
	Role       StaffRole
	CreatedAt  time.Time
}

// Category groups products within a shop. SortOrder is the insertion
// order index assigned on creation.
type Category struct {
	ID          uuid.UUID
	ShopID      uuid.UUID
	Name        string
	Description string
	Icon        string
	SortOrder   int
	CreatedBy   int64
	CreatedAt   time.Time
}

// Product is an orderable item within a category.
type Product struct {
	ID                uuid.UUID
	ShopID            uuid.UUID
	CategoryID        uuid.UUID
	Name              string
	Description       string
	SKU               string
	Price             float64
	Stock             int
	IsActive          bool
	LowStockThreshold int
	Images            []string
	CreatedBy         int64
	CreatedAt         time.Time
}

// Orderable reports whether the product can currently be ordered.
func (p *Product) Orderable() bool {
	return p.IsActive && p.Stock > 0
}

// Order is a single-product order request. Shop, product and customer
// details are denormalized so the record stays meaningful even if the
// referenced entities change later.
type Order struct {
	ID           uuid.UUID
	ShopID       uuid.UUID
	ProductID    uuid.UUID
	ShopName     string
	ProductName  string
	ProductSKU   string
	CustomerID   int64
	CustomerName string
	UnitPrice    float64
	Quantity     int
	TotalAmount  float64
	Status       OrderStatus
	CreatedAt    time.Time
}
