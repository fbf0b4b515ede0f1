package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	statuses := []OrderStatus{OrderStatusPending, OrderStatusApproved, OrderStatusRejected}
	allowed := map[[2]OrderStatus]bool{
		{OrderStatusPending, OrderStatusApproved}: true,
		{OrderStatusPending, OrderStatusRejected}: true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			assert.Equal(t, allowed[[2]OrderStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCartItemJSONIsFlat(t *testing.T) {
	// stored carts are product objects with a quantity field
	raw := `[{"id":1,"name":"Coconut Face Cream","price":"₵85.00","image":"x.png","category":"Skincare","stock":12,"description":"Hydrating","quantity":2}]`

	var items []CartItem
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, CategorySkincare, items[0].Category)
	assert.Equal(t, 2, items[0].Quantity)

	out, err := json.Marshal(items[0])
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(out, &flat))
	assert.Equal(t, "Coconut Face Cream", flat["name"])
	assert.EqualValues(t, 2, flat["quantity"])
	assert.NotContains(t, flat, "Product")
}

func TestLineTotal(t *testing.T) {
	item := CartItem{Product: Product{Price: "₵85.00"}, Quantity: 3}
	total, err := item.LineTotal()
	require.NoError(t, err)
	assert.Equal(t, "₵255.00", total.String())

	_, err = CartItem{Product: Product{Price: "soon"}, Quantity: 1}.LineTotal()
	assert.Error(t, err)
}

func TestDraftNormalize(t *testing.T) {
	d, err := ProductDraft{Name: "Rose Oil", Price: "45"}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "₵45.00", d.Price)
	assert.Equal(t, CategorySkincare, d.Category)
	assert.Equal(t, DefaultRating, d.Rating)
	assert.Equal(t, PlaceholderImage, d.Image)

	_, err = ProductDraft{Name: "x", Price: "10", Category: "Shoes"}.Normalize()
	assert.Error(t, err)

	_, err = ProductDraft{Name: "x", Price: "ten"}.Normalize()
	assert.Error(t, err)
}

func TestFilterByCategory(t *testing.T) {
	catalog := DefaultCatalog()

	assert.Len(t, FilterByCategory(catalog, CategoryAll), len(catalog))
	assert.Len(t, FilterByCategory(catalog, ""), len(catalog))

	hair := FilterByCategory(catalog, CategoryHair)
	require.Len(t, hair, 1)
	assert.Equal(t, "Gold Hair Serum", hair[0].Name)

	assert.Empty(t, FilterByCategory(catalog, CategoryPerfume))
}

func TestOrderReference(t *testing.T) {
	o := Order{ID: "3f2a9c1e-1111-2222-3333-444455556666"}
	assert.Equal(t, "3F2A9C1E", o.Reference())
	assert.Equal(t, "AB", Order{ID: "ab"}.Reference())
}

func TestCustomerBlank(t *testing.T) {
	assert.True(t, Customer{Name: "Ama", Phone: " ", Address: "Accra"}.Blank())
	assert.False(t, Customer{Name: "Ama", Phone: "024", Address: "Accra"}.Blank())
}
