package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products in the catalog. Name is unique and non-empty.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product is a catalog entry. CategoryID references an existing Category.
type Product struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Image      string          `json:"image"`
	CategoryID int64           `json:"category_id"`
}

// ProductInput carries the fields needed to create a product.
type ProductInput struct {
	Name       string          `json:"name" validate:"required,max=200"`
	Price      decimal.Decimal `json:"price"`
	Image      string          `json:"image" validate:"max=500"`
	CategoryID int64           `json:"category_id" validate:"gt=0"`
}

// ProductFilter is the admin price/name filter. All fields are optional and
// AND-combined. A nil bound is unbounded on that side.
type ProductFilter struct {
	NamePattern string           `json:"name_pattern,omitempty"`
	MinPrice    *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice    *decimal.Decimal `json:"max_price,omitempty"`
}

// Role is an account role.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is an account. The password hash never leaves the store.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// UserUpdate is a full profile update. A blank Password keeps the stored one.
type UserUpdate struct {
	ID       int64  `json:"id" validate:"gt=0"`
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"-"`
	Role     Role   `json:"role" validate:"required,oneof=user admin"`
}

// CartItem is a raw cart row.
type CartItem struct {
	ID        int64 `json:"id"`
	UserID    int64 `json:"user_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CartLine is a cart row joined with the live product name, price and image.
type CartLine struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
}

// LineTotal returns price × quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a placed order. TotalAmount is a snapshot taken at creation.
type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          OrderStatus     `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	ShippingAddress string          `json:"shipping_address,omitempty"`
	Note            string          `json:"note,omitempty"`
	PaymentMethod   string          `json:"payment_method"`
}

// OrderWithUsername is the admin listing row.
type OrderWithUsername struct {
	Order
	Username string `json:"username"`
}

// OrderItem is an immutable order line. Name and Price are copied from the
// product at order time.
type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// OrderDetails is an order together with its lines.
type OrderDetails struct {
	Order Order       `json:"order"`
	Items []OrderItem `json:"items"`
}

// CheckoutItem is one line submitted for checkout.
type CheckoutItem struct {
	ProductID int64           `json:"product_id" validate:"gt=0"`
	Name      string          `json:"name" validate:"required"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
}

// CheckoutRequest describes an order to create. Token is an optional
// idempotency key; replaying a token returns the order it created.
type CheckoutRequest struct {
	UserID          int64          `json:"user_id" validate:"gt=0"`
	Items           []CheckoutItem `json:"items" validate:"dive"`
	ShippingAddress string         `json:"shipping_address,omitempty"`
	Note            string         `json:"note,omitempty"`
	PaymentMethod   string         `json:"payment_method"`
	Token           string         `json:"token,omitempty"`
}

// OrderFilter narrows an order listing. Zero fields do not filter.
type OrderFilter struct {
	UserID   int64            `json:"user_id,omitempty"`
	Status   OrderStatus      `json:"status,omitempty"`
	Keyword  string           `json:"keyword,omitempty"`
	MinTotal *decimal.Decimal `json:"min_total,omitempty"`
	MaxTotal *decimal.Decimal `json:"max_total,omitempty"`
}
