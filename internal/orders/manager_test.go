package orders

import (
	"context"
	"testing"
	"time"

	"github.com/glowempire/storefront/internal/localstore"
	"github.com/glowempire/storefront/internal/models"
	"github.com/glowempire/storefront/internal/money"
	"github.com/glowempire/storefront/internal/remote"
	"github.com/glowempire/storefront/internal/remote/remotetest"
	"github.com/glowempire/storefront/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var customer = models.Customer{Name: "Ama Mensah", Phone: "0241234567", Address: "12 Oxford St, Osu"}

func setup(t *testing.T) (*Manager, *store.Store, *remotetest.Fake) {
	t.Helper()
	fake := remotetest.NewFake(models.DefaultCatalog(), map[string]string{"admin@glow.test": "pw"})
	st := store.New(context.Background(), fake, localstore.NewMemoryStore())
	t.Cleanup(st.Close)

	m := NewManager(fake, st)
	m.now = func() time.Time { return time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC) }
	return m, st, fake
}

func TestPlaceOrder(t *testing.T) {
	ctx := context.Background()
	m, st, fake := setup(t)
	m.newID = func() string { return "3f2a9c1e-0000-4000-8000-000000000001" }

	st.AddToCart(models.DefaultCatalog()[0], 1)

	order, err := m.PlaceOrder(ctx, Checkout{
		Customer: customer,
		Items:    st.CartSnapshot(),
		Plan:     models.PaymentPlanFull,
		Method:   models.PaymentMethodMomo,
	})
	require.NoError(t, err)

	assert.Equal(t, "3F2A9C1E", order.Reference())
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "₵105.00", order.Total)
	assert.Equal(t, "₵105.00", order.AmountPaid)
	assert.Equal(t, "₵0.00", order.BalanceDue)
	assert.Equal(t, models.PaymentMethodMomo, order.PaymentMethod)
	assert.Equal(t, customer, order.Customer)

	assert.Empty(t, st.CartSnapshot(), "cart cleared")
	listed := st.Orders()
	require.Len(t, listed, 1)
	assert.Equal(t, order.ID, listed[0].ID)
	assert.Equal(t, models.OrderStatusPending, listed[0].Status)

	assert.Len(t, fake.StoredOrders(), 1)
	p, _ := st.Product(1)
	assert.Equal(t, 12, p.Stock, "placing an order leaves stock alone")
}

func TestPlaceOrderSplitPlan(t *testing.T) {
	m, st, _ := setup(t)
	catalog := models.DefaultCatalog()
	st.AddToCart(catalog[0], 2)
	st.AddToCart(catalog[2], 1)

	order, err := m.PlaceOrder(context.Background(), Checkout{
		Customer: customer,
		Items:    st.CartSnapshot(),
		Plan:     models.PaymentPlanDelivery,
		Method:   models.PaymentMethodCash,
	})
	require.NoError(t, err)

	assert.Equal(t, "₵340.00", order.Total)
	assert.Equal(t, "₵20.00", order.AmountPaid)
	assert.Equal(t, "₵320.00", order.BalanceDue)

	total := money.MustParse(order.Total)
	assert.True(t, money.MustParse(order.AmountPaid).Add(money.MustParse(order.BalanceDue)).Equal(total))
}

func TestPlaceOrderDefaultsToFullPlan(t *testing.T) {
	m, st, _ := setup(t)
	st.AddToCart(models.DefaultCatalog()[3], 1)

	order, err := m.PlaceOrder(context.Background(), Checkout{Customer: customer, Items: st.CartSnapshot()})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPlanFull, order.PaymentPlan)
	assert.Equal(t, order.Total, order.AmountPaid)
}

func TestPlaceOrderValidation(t *testing.T) {
	m, st, fake := setup(t)
	items := []models.CartItem{{Product: models.DefaultCatalog()[0], Quantity: 1}}

	tests := []struct {
		name     string
		checkout Checkout
		wantErr  error
	}{
		{"empty cart", Checkout{Customer: customer}, ErrEmptyCart},
		{"blank name", Checkout{Customer: models.Customer{Phone: "1", Address: "x"}, Items: items}, ErrInvalidCustomer},
		{"whitespace address", Checkout{Customer: models.Customer{Name: "A", Phone: "1", Address: "  "}, Items: items}, ErrInvalidCustomer},
		{"unknown plan", Checkout{Customer: customer, Items: items, Plan: "layaway"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.PlaceOrder(context.Background(), tt.checkout)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}

	assert.Equal(t, 0, fake.Calls("InsertOrder"))
	assert.Empty(t, st.Orders())
}

func TestPlaceOrderRemoteFailureKeepsCart(t *testing.T) {
	m, st, fake := setup(t)
	st.AddToCart(models.DefaultCatalog()[1], 2)
	fake.Fail("InsertOrder", remote.ErrRemoteUnavailable)

	_, err := m.PlaceOrder(context.Background(), Checkout{Customer: customer, Items: st.CartSnapshot()})
	assert.ErrorIs(t, err, remote.ErrRemoteUnavailable)

	cart := st.CartSnapshot()
	require.Len(t, cart, 1)
	assert.Equal(t, 2, cart[0].Quantity)
	assert.Empty(t, st.Orders())
	assert.Equal(t, 1, fake.Calls("InsertOrder"), "no retry")
}

func TestApproveAndReject(t *testing.T) {
	ctx := context.Background()
	m, st, fake := setup(t)
	ids := []string{"order-a", "order-b"}
	m.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	for i := 0; i < 2; i++ {
		st.AddToCart(models.DefaultCatalog()[i], 1)
		_, err := m.PlaceOrder(ctx, Checkout{Customer: customer, Items: st.CartSnapshot()})
		require.NoError(t, err)
	}
	_, err := fake.SignIn(ctx, "admin@glow.test", "pw")
	require.NoError(t, err)

	approved, err := m.Approve(ctx, "order-a")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusApproved, approved.Status)
	local, _ := st.Order("order-a")
	assert.Equal(t, models.OrderStatusApproved, local.Status)

	_, err = m.Reject(ctx, "order-a")
	assert.ErrorIs(t, err, ErrIllegalTransition, "no path out of a terminal state")
	_, err = m.Approve(ctx, "order-a")
	assert.ErrorIs(t, err, ErrIllegalTransition)

	rejected, err := m.Reject(ctx, "order-b")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusRejected, rejected.Status)

	_, err = m.Approve(ctx, "order-zzz")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	assert.Equal(t, "₵105.00", Revenue(st.Orders()).String())
}

func TestApproveRemoteFailureLeavesLedger(t *testing.T) {
	ctx := context.Background()
	m, st, fake := setup(t)
	st.AddToCart(models.DefaultCatalog()[0], 1)
	order, err := m.PlaceOrder(ctx, Checkout{Customer: customer, Items: st.CartSnapshot()})
	require.NoError(t, err)

	// not signed in: the backend refuses the update
	_, err = m.Approve(ctx, order.ID)
	assert.ErrorIs(t, err, remote.ErrRemoteWriteRejected)

	local, _ := st.Order(order.ID)
	assert.Equal(t, models.OrderStatusPending, local.Status)

	_, err = fake.SignIn(ctx, "admin@glow.test", "pw")
	require.NoError(t, err)
	fake.Fail("UpdateOrderStatus", remote.ErrRemoteUnavailable)
	_, err = m.Approve(ctx, order.ID)
	assert.ErrorIs(t, err, remote.ErrRemoteUnavailable)
	local, _ = st.Order(order.ID)
	assert.Equal(t, models.OrderStatusPending, local.Status)
}

func TestApproveOrderGoneRemotely(t *testing.T) {
	ctx := context.Background()
	m, st, fake := setup(t)
	st.AddOrder(models.Order{ID: "local-only", Status: models.OrderStatusPending})
	_, err := fake.SignIn(ctx, "admin@glow.test", "pw")
	require.NoError(t, err)

	_, err = m.Approve(ctx, "local-only")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestRevenue(t *testing.T) {
	orders := []models.Order{
		{ID: "1", Status: models.OrderStatusApproved, Total: "₵105.00"},
		{ID: "2", Status: models.OrderStatusPending, Total: "₵500.00"},
		{ID: "3", Status: models.OrderStatusApproved, Total: "₵20.50"},
		{ID: "4", Status: models.OrderStatusRejected, Total: "₵99.00"},
		{ID: "5", Status: models.OrderStatusApproved, Total: "n/a"},
	}
	assert.Equal(t, "₵125.50", Revenue(orders).String())
	assert.True(t, Revenue(nil).IsZero())
}
