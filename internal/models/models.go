package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID       int64  `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Password string `json:"-" db:"password"` // bcrypt hash
	IsAdmin  bool   `json:"is_admin" db:"is_admin"`
}

type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Product struct {
	ID           int64           `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Description  string          `json:"description" db:"description"`
	Price        decimal.Decimal `json:"price" db:"price"`
	Image        string          `json:"image" db:"image"`
	CategoryID   *int64          `json:"category_id" db:"category_id"`
	CategoryName string          `json:"category_name" db:"category_name"` // empty when uncategorized
}

type Order struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	Items     []OrderItem     `json:"items"`
}

// OrderItem keeps the name and unit price the product had at checkout.
// ProductID is nil once the product has been deleted.
type OrderItem struct {
	ID          int64           `json:"id" db:"id"`
	OrderID     int64           `json:"order_id" db:"order_id"`
	ProductID   *int64          `json:"product_id" db:"product_id"`
	ProductName string          `json:"product_name" db:"product_name"`
	Quantity    int             `json:"quantity" db:"qty"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Available   bool            `json:"available" db:"available"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartLine is one resolved cart entry as shown on the cart page.
type CartLine struct {
	Product  Product         `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}
