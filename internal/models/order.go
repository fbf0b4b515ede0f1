package models

import (
	"strings"
	"time"
)

// OrderStatus is the admin review state of an order
type OrderStatus string

// OrderStatus constants
const (
	OrderStatusPending  OrderStatus = "Pending"
	OrderStatusApproved OrderStatus = "Approved"
	OrderStatusRejected OrderStatus = "Rejected"
)

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusApproved, OrderStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed out of s
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusApproved || s == OrderStatusRejected
}

// CanTransition reports whether an order may move from one status to another.
// Pending is the only state with exits.
func CanTransition(from, to OrderStatus) bool {
	return from == OrderStatusPending && to.Terminal()
}

// Customer is the delivery block typed into the checkout form
type Customer struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Address string `json:"address" binding:"required"`
}

// Blank reports whether any field is empty after trimming
func (c Customer) Blank() bool {
	return strings.TrimSpace(c.Name) == "" ||
		strings.TrimSpace(c.Phone) == "" ||
		strings.TrimSpace(c.Address) == ""
}

// Order represents a submitted purchase
type Order struct {
	ID            string        `json:"id"`
	Customer      Customer      `json:"customer"`
	Items         []CartItem    `json:"items"`
	Total         string        `json:"total"`
	Status        OrderStatus   `json:"status"`
	PaymentPlan   PaymentPlan   `json:"payment_plan"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	AmountPaid    string        `json:"amount_paid"`
	BalanceDue    string        `json:"balance_due"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Reference is the short code printed on receipts
func (o Order) Reference() string {
	ref := strings.ReplaceAll(o.ID, "-", "")
	if len(ref) > 8 {
		ref = ref[:8]
	}
	return strings.ToUpper(ref)
}

// OrderStatusUpdate is the body of a status patch
type OrderStatusUpdate struct {
	Status OrderStatus `json:"status"`
}

// PlaceOrderRequest represents the checkout form submission
type PlaceOrderRequest struct {
	Customer      Customer      `json:"customer" binding:"required"`
	PaymentPlan   PaymentPlan   `json:"payment_plan" binding:"required"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

// PlaceOrderResponse represents the response after placing an order
type PlaceOrderResponse struct {
	OrderID    string      `json:"order_id"`
	Reference  string      `json:"reference,omitempty"`
	Status     OrderStatus `json:"status,omitempty"`
	Message    string      `json:"message,omitempty"`
	Total      string      `json:"total,omitempty"`
	AmountDue  string      `json:"amount_due,omitempty"`
	BalanceDue string      `json:"balance_due,omitempty"`
}
