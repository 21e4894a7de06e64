package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentMethodCash  PaymentMethod = "cash"
	PaymentMethodMpesa PaymentMethod = "mpesa"
	PaymentMethodCard  PaymentMethod = "card"
)

// ValidPaymentMethod reports whether m is one of the accepted methods.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodMpesa, PaymentMethodCard:
		return true
	}
	return false
}

type Customer struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Notes    string `json:"notes"`
}

type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Qty       int     `json:"qty"`
	Image     string  `json:"image,omitempty"`
}

type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

// Order is a customer purchase. Totals.Total is the source of truth for
// the payment amount; client-supplied amounts are never trusted.
type Order struct {
	ID            string
	Customer      Customer
	Items         []OrderItem
	Totals        Totals
	Status        OrderStatus
	PaymentMethod PaymentMethod
	IsPaid        bool
	PaidAt        *time.Time
	Payment       PaymentAttempt
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
