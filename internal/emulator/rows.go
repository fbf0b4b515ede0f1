package emulator

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glowempire/storefront/internal/models"
	"github.com/glowempire/storefront/internal/money"
	log "github.com/sirupsen/logrus"
)

// pgError mirrors the error body of the rows API
func pgError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"code":    code,
		"message": message,
		"details": nil,
		"hint":    nil,
	})
}

// eqFilter reads a `column=eq.value` filter
func eqFilter(c *gin.Context, column string) (string, bool) {
	v := c.Query(column)
	if !strings.HasPrefix(v, "eq.") {
		return "", false
	}
	return strings.TrimPrefix(v, "eq."), true
}

// representation answers a write the way `Prefer: return=representation` asks
func representation(c *gin.Context, status int, rows interface{}) {
	if strings.Contains(c.GetHeader("Prefer"), "return=representation") {
		c.JSON(status, rows)
		return
	}
	c.Status(status)
}

func (b *Backend) listProducts(c *gin.Context) {
	b.mutex.RLock()
	products := make([]models.Product, 0, len(b.products))
	for _, p := range b.products {
		products = append(products, *p)
	}
	b.mutex.RUnlock()

	desc := c.Query("order") == "id.desc"
	sort.Slice(products, func(i, j int) bool {
		if desc {
			return products[i].ID > products[j].ID
		}
		return products[i].ID < products[j].ID
	})

	c.JSON(http.StatusOK, products)
}

func (b *Backend) insertProduct(c *gin.Context) {
	var draft models.ProductDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		pgError(c, http.StatusBadRequest, "PGRST102", "Invalid request: "+err.Error())
		return
	}

	if strings.TrimSpace(draft.Name) == "" {
		pgError(c, http.StatusBadRequest, "23502", `null value in column "name" violates not-null constraint`)
		return
	}
	if _, err := money.Parse(draft.Price); err != nil {
		pgError(c, http.StatusBadRequest, "23514", `new row violates check constraint "products_price_check"`)
		return
	}
	if !draft.Category.Valid() {
		pgError(c, http.StatusBadRequest, "23514", `new row violates check constraint "products_category_check"`)
		return
	}
	if draft.Stock < 0 {
		pgError(c, http.StatusBadRequest, "23514", `new row violates check constraint "products_stock_check"`)
		return
	}

	b.mutex.Lock()
	product := &models.Product{
		ID:          b.nextProductID,
		Name:        draft.Name,
		Category:    draft.Category,
		Price:       draft.Price,
		Stock:       draft.Stock,
		Description: draft.Description,
		Image:       draft.Image,
		Rating:      draft.Rating,
	}
	b.nextProductID++
	b.products[product.ID] = product
	b.mutex.Unlock()

	log.WithFields(log.Fields{
		"product_id": product.ID,
		"name":       product.Name,
	}).Info("Product inserted")

	representation(c, http.StatusCreated, []models.Product{*product})
}

func (b *Backend) deleteProduct(c *gin.Context) {
	raw, ok := eqFilter(c, "id")
	if !ok {
		pgError(c, http.StatusBadRequest, "21000", "DELETE requires a WHERE clause")
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		pgError(c, http.StatusBadRequest, "22P02", "invalid input syntax for type bigint: "+raw)
		return
	}

	b.mutex.Lock()
	deleted := []models.Product{}
	if p, exists := b.products[id]; exists {
		deleted = append(deleted, *p)
		delete(b.products, id)
	}
	b.mutex.Unlock()

	log.WithFields(log.Fields{
		"product_id": id,
		"deleted":    len(deleted),
	}).Info("Product delete")

	representation(c, http.StatusOK, deleted)
}

func (b *Backend) listOrders(c *gin.Context) {
	b.mutex.RLock()
	orders := make([]models.Order, 0, len(b.orders))
	for _, o := range b.orders {
		orders = append(orders, *o)
	}
	b.mutex.RUnlock()

	asc := c.Query("order") == "created_at.asc"
	sort.SliceStable(orders, func(i, j int) bool {
		if asc {
			return orders[i].CreatedAt.Before(orders[j].CreatedAt)
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	c.JSON(http.StatusOK, orders)
}

func (b *Backend) insertOrder(c *gin.Context) {
	var order models.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		pgError(c, http.StatusBadRequest, "PGRST102", "Invalid request: "+err.Error())
		return
	}

	if order.ID == "" {
		pgError(c, http.StatusBadRequest, "23502", `null value in column "id" violates not-null constraint`)
		return
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	if order.Status != models.OrderStatusPending {
		pgError(c, http.StatusBadRequest, "23514", `new row violates check constraint "orders_initial_status_check"`)
		return
	}
	if !order.PaymentPlan.Valid() {
		pgError(c, http.StatusBadRequest, "23514", `new row violates check constraint "orders_payment_plan_check"`)
		return
	}
	if len(order.Items) == 0 {
		pgError(c, http.StatusBadRequest, "23514", `new row violates check constraint "orders_items_check"`)
		return
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	b.mutex.Lock()
	if _, exists := b.orders[order.ID]; exists {
		b.mutex.Unlock()
		pgError(c, http.StatusConflict, "23505", `duplicate key value violates unique constraint "orders_pkey"`)
		return
	}
	stored := order
	b.orders[order.ID] = &stored
	b.mutex.Unlock()

	log.WithFields(log.Fields{
		"order_id": order.ID,
		"items":    len(order.Items),
		"total":    order.Total,
	}).Info("Order inserted")

	representation(c, http.StatusCreated, []models.Order{order})
}

func (b *Backend) updateOrder(c *gin.Context) {
	id, ok := eqFilter(c, "id")
	if !ok {
		pgError(c, http.StatusBadRequest, "21000", "UPDATE requires a WHERE clause")
		return
	}

	var update models.OrderStatusUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		pgError(c, http.StatusBadRequest, "PGRST102", "Invalid request: "+err.Error())
		return
	}
	if !update.Status.Valid() {
		pgError(c, http.StatusBadRequest, "23514", `new row violates check constraint "orders_status_check"`)
		return
	}

	b.mutex.Lock()
	updated := []models.Order{}
	if o, exists := b.orders[id]; exists {
		o.Status = update.Status
		updated = append(updated, *o)
	}
	b.mutex.Unlock()

	log.WithFields(log.Fields{
		"order_id": id,
		"status":   update.Status,
		"updated":  len(updated),
	}).Info("Order status update")

	representation(c, http.StatusOK, updated)
}

// Orders returns a copy of the orders table, for tests and diagnostics
func (b *Backend) Orders() []models.Order {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	orders := make([]models.Order, 0, len(b.orders))
	for _, o := range b.orders {
		orders = append(orders, *o)
	}
	return orders
}

// Products returns a copy of the products table
func (b *Backend) Products() []models.Product {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	products := make([]models.Product, 0, len(b.products))
	for _, p := range b.products {
		products = append(products, *p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products
}
