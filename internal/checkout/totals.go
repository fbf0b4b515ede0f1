// Package checkout derives cart totals and the payment-plan split.
package checkout

import (
	"errors"
	"fmt"

	"github.com/glowempire/storefront/internal/models"
	"github.com/glowempire/storefront/internal/money"
)

// ShippingFee is the flat delivery charge on any non-empty cart
var ShippingFee = money.FromCents(2000)

// ErrUnknownPlan is returned for a payment plan other than full or delivery
var ErrUnknownPlan = errors.New("unknown payment plan")

// Totals is the breakdown shown on the cart and checkout screens
type Totals struct {
	Subtotal money.Money        `json:"subtotal"`
	Shipping money.Money        `json:"shipping"`
	Total    money.Money        `json:"total"`
	DueNow   money.Money        `json:"due_now"`
	Balance  money.Money        `json:"balance"`
	Plan     models.PaymentPlan `json:"plan"`
}

// Subtotal sums unit price times quantity over the cart
func Subtotal(items []models.CartItem) (money.Money, error) {
	sum := money.Zero
	for _, item := range items {
		line, err := item.LineTotal()
		if err != nil {
			return money.Zero, err
		}
		sum = sum.Add(line)
	}
	return sum, nil
}

// Shipping is the flat fee when there is anything to ship
func Shipping(subtotal money.Money) money.Money {
	if subtotal.IsPositive() {
		return ShippingFee
	}
	return money.Zero
}

// Compute derives the full breakdown for a cart under a payment plan
func Compute(items []models.CartItem, plan models.PaymentPlan) (Totals, error) {
	if !plan.Valid() {
		return Totals{}, fmt.Errorf("%w: %q", ErrUnknownPlan, plan)
	}

	subtotal, err := Subtotal(items)
	if err != nil {
		return Totals{}, err
	}

	shipping := Shipping(subtotal)
	total := subtotal.Add(shipping)

	t := Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    total,
		Plan:     plan,
	}

	switch plan {
	case models.PaymentPlanDelivery:
		t.DueNow = shipping
		t.Balance = total.Sub(shipping)
	default:
		t.DueNow = total
		t.Balance = money.Zero
	}

	return t, nil
}
