package checkout

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/glowempire/storefront/internal/models"
	"github.com/glowempire/storefront/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(price string, qty int) models.CartItem {
	return models.CartItem{Product: models.Product{Price: price}, Quantity: qty}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name     string
		items    []models.CartItem
		plan     models.PaymentPlan
		subtotal string
		shipping string
		total    string
		dueNow   string
		balance  string
	}{
		{
			name:     "single cream full payment",
			items:    []models.CartItem{item("₵85.00", 1)},
			plan:     models.PaymentPlanFull,
			subtotal: "₵85.00", shipping: "₵20.00", total: "₵105.00",
			dueNow: "₵105.00", balance: "₵0.00",
		},
		{
			name:     "single cream delivery fee only",
			items:    []models.CartItem{item("₵85.00", 1)},
			plan:     models.PaymentPlanDelivery,
			subtotal: "₵85.00", shipping: "₵20.00", total: "₵105.00",
			dueNow: "₵20.00", balance: "₵85.00",
		},
		{
			name:     "empty cart",
			items:    nil,
			plan:     models.PaymentPlanFull,
			subtotal: "₵0.00", shipping: "₵0.00", total: "₵0.00",
			dueNow: "₵0.00", balance: "₵0.00",
		},
		{
			name:     "mixed quantities",
			items:    []models.CartItem{item("₵120.00", 2), item("₵150.00", 1), item("₵0.10", 3)},
			plan:     models.PaymentPlanDelivery,
			subtotal: "₵390.30", shipping: "₵20.00", total: "₵410.30",
			dueNow: "₵20.00", balance: "₵390.30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.items, tt.plan)
			require.NoError(t, err)
			assert.Equal(t, tt.subtotal, got.Subtotal.String())
			assert.Equal(t, tt.shipping, got.Shipping.String())
			assert.Equal(t, tt.total, got.Total.String())
			assert.Equal(t, tt.dueNow, got.DueNow.String())
			assert.Equal(t, tt.balance, got.Balance.String())
			assert.Equal(t, tt.plan, got.Plan)
		})
	}
}

func TestComputeErrors(t *testing.T) {
	_, err := Compute([]models.CartItem{item("₵1.00", 1)}, "layaway")
	assert.ErrorIs(t, err, ErrUnknownPlan)

	_, err = Compute([]models.CartItem{item("call us", 1)}, models.PaymentPlanFull)
	assert.ErrorIs(t, err, money.ErrInvalidAmount)
}

func TestTotalsProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		var items []models.CartItem
		for n := rng.Intn(5); n > 0; n-- {
			cents := rng.Intn(50000)
			price := "₵" + strconv.Itoa(cents/100) + "." + strconv.Itoa(cents%100/10) + strconv.Itoa(cents%10)
			items = append(items, item(price, 1+rng.Intn(4)))
		}

		full, err := Compute(items, models.PaymentPlanFull)
		require.NoError(t, err)
		split, err := Compute(items, models.PaymentPlanDelivery)
		require.NoError(t, err)

		assert.False(t, full.Subtotal.IsNegative())
		if full.Subtotal.IsZero() {
			assert.True(t, full.Shipping.IsZero())
		} else {
			assert.True(t, full.Shipping.Equal(ShippingFee))
		}

		assert.True(t, full.DueNow.Equal(full.Total))
		assert.True(t, full.Balance.IsZero())

		assert.True(t, split.DueNow.Equal(split.Shipping))
		assert.True(t, split.DueNow.Add(split.Balance).Equal(split.Total))
	}
}
