package models

import (
	"fmt"

	"github.com/glowempire/storefront/internal/money"
)

// Category groups products on the shop screen
type Category string

// Category constants
const (
	CategoryAll         Category = "All"
	CategorySkincare    Category = "Skincare"
	CategoryMakeup      Category = "Makeup"
	CategoryHair        Category = "Hair"
	CategoryPerfume     Category = "Perfume"
	CategoryEye         Category = "Eye"
	CategoryAccessories Category = "Accessories"
)

// Categories lists the categories a product may belong to, in shop order
var Categories = []Category{
	CategorySkincare,
	CategoryMakeup,
	CategoryHair,
	CategoryPerfume,
	CategoryEye,
	CategoryAccessories,
}

// Valid reports whether c is a product category (All is a filter, not a category)
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

const (
	// DefaultRating is given to products created without one
	DefaultRating = 5.0
	// PlaceholderImage is used when a product is created without an upload
	PlaceholderImage = "assets/products/Skincream.png"
)

// Product represents a catalog row
type Product struct {
	ID          int64    `json:"id,omitempty"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Price       string   `json:"price"`
	Stock       int      `json:"stock"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Rating      float64  `json:"rating"`
}

// UnitPrice parses the stored price string
func (p Product) UnitPrice() (money.Money, error) {
	m, err := money.Parse(p.Price)
	if err != nil {
		return money.Zero, fmt.Errorf("product %d (%s): %w", p.ID, p.Name, err)
	}
	return m, nil
}

// ProductDraft is what the admin form submits; the backend assigns the ID
type ProductDraft struct {
	Name        string   `json:"name" form:"name" binding:"required"`
	Category    Category `json:"category" form:"category"`
	Price       string   `json:"price" form:"price" binding:"required"`
	Stock       int      `json:"stock" form:"stock" binding:"gte=0"`
	Description string   `json:"description" form:"description"`
	Image       string   `json:"image" form:"-"`
	Rating      float64  `json:"rating" form:"rating"`
}

// Normalize fills defaults the admin form leaves blank and renders the price
// in the stored currency format.
func (d ProductDraft) Normalize() (ProductDraft, error) {
	price, err := money.Parse(d.Price)
	if err != nil {
		return d, fmt.Errorf("price: %w", err)
	}
	d.Price = price.String()

	if d.Category == "" {
		d.Category = CategorySkincare
	}
	if !d.Category.Valid() {
		return d, fmt.Errorf("unknown category %q", d.Category)
	}
	if d.Stock < 0 {
		return d, fmt.Errorf("stock must not be negative")
	}
	if d.Rating == 0 {
		d.Rating = DefaultRating
	}
	if d.Image == "" {
		d.Image = PlaceholderImage
	}
	return d, nil
}

// FilterByCategory returns the products in category c; CategoryAll and the
// empty category return everything.
func FilterByCategory(products []Product, c Category) []Product {
	if c == "" || c == CategoryAll {
		return append([]Product(nil), products...)
	}

	var result []Product
	for _, p := range products {
		if p.Category == c {
			result = append(result, p)
		}
	}
	return result
}

// DefaultCatalog is the launch catalog the backend emulator is seeded with
func DefaultCatalog() []Product {
	return []Product{
		{ID: 1, Name: "Coconut Face Cream", Price: "₵85.00", Image: "https://images.unsplash.com/photo-1620916566398-39f1143ab7be?w=500", Category: CategorySkincare, Stock: 12, Description: "Hydrating cream for smooth skin.", Rating: DefaultRating},
		{ID: 2, Name: "Gold Hair Serum", Price: "₵120.00", Image: "https://images.unsplash.com/photo-1608248597279-f99d160bfbc8?w=500", Category: CategoryHair, Stock: 8, Description: "Luxury serum for shiny hair.", Rating: DefaultRating},
		{ID: 3, Name: "Matte Lipstick Set", Price: "₵150.00", Image: "https://images.unsplash.com/photo-1586495777744-4413f21062fa?w=500", Category: CategoryMakeup, Stock: 20, Description: "Long-lasting matte finish.", Rating: DefaultRating},
		{ID: 4, Name: "Pearl Necklace", Price: "₵200.00", Image: "https://images.unsplash.com/photo-1599643478518-17488fbbcd75?w=500", Category: CategoryAccessories, Stock: 5, Description: "Elegant pearls for any occasion.", Rating: DefaultRating},
	}
}
