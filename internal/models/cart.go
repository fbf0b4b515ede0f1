package models

import "github.com/glowempire/storefront/internal/money"

// CartItem is a product snapshot with a quantity. The embedded product is
// flattened in JSON, which is the stored cart format.
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// LineTotal is unit price times quantity
func (c CartItem) LineTotal() (money.Money, error) {
	unit, err := c.UnitPrice()
	if err != nil {
		return money.Zero, err
	}
	return unit.Mul(int64(c.Quantity)), nil
}
