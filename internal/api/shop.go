package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/glowempire/storefront/internal/checkout"
	"github.com/glowempire/storefront/internal/models"
	"github.com/glowempire/storefront/internal/orders"
	"github.com/glowempire/storefront/internal/router"
)

type screenRequest struct {
	Screen string `json:"screen" binding:"required"`
}

type addToCartRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"omitempty,gte=1"`
}

type quantityRequest struct {
	Delta int `json:"delta" binding:"required"`
}

type themeRequest struct {
	DarkMode *bool `json:"dark_mode" binding:"required"`
}

type cartResponse struct {
	Items  []models.CartItem `json:"items"`
	Count  int               `json:"count"`
	Totals checkout.Totals   `json:"totals"`
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid id "+strconv.Quote(c.Param("id")))
		return 0, false
	}
	return id, true
}

func (s *Server) catalogProduct(c *gin.Context) (models.Product, bool) {
	id, ok := pathID(c)
	if !ok {
		return models.Product{}, false
	}
	p, found := s.store.Product(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return models.Product{}, false
	}
	return p, true
}

func (s *Server) setScreen(c *gin.Context) {
	var req screenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	name, err := router.ParseName(req.Screen)
	if err != nil {
		respondError(c, err)
		return
	}
	screen, err := s.store.SetScreen(name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"screen": screen.Name()})
}

func (s *Server) navigate(c *gin.Context) {
	var ev router.Event
	switch c.Param("event") {
	case "enter":
		ev = router.Enter{}
	case "back":
		ev = router.Back{}
	case "checkout":
		ev = router.StartCheckout{}
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown navigation event"})
		return
	}

	screen, err := s.store.Navigate(ev)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"screen": screen.Name()})
}

func (s *Server) listProducts(c *gin.Context) {
	category := models.Category(c.DefaultQuery("category", string(models.CategoryAll)))
	if category != models.CategoryAll && !category.Valid() {
		badRequest(c, "unknown category "+strconv.Quote(string(category)))
		return
	}
	products := s.store.ProductsByCategory(category)
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, products)
}

func (s *Server) getProduct(c *gin.Context) {
	if p, ok := s.catalogProduct(c); ok {
		c.JSON(http.StatusOK, p)
	}
}

func (s *Server) selectProduct(c *gin.Context) {
	p, ok := s.catalogProduct(c)
	if !ok {
		return
	}
	screen := s.store.SelectProduct(p)
	c.JSON(http.StatusOK, gin.H{"screen": screen.Name(), "product": p})
}

func (s *Server) cartView(c *gin.Context, plan models.PaymentPlan) {
	items := s.store.CartSnapshot()
	totals, err := checkout.Compute(items, plan)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cartResponse{Items: items, Count: len(items), Totals: totals})
}

func (s *Server) getCart(c *gin.Context) {
	s.cartView(c, models.PaymentPlan(c.DefaultQuery("plan", string(models.PaymentPlanFull))))
}

func (s *Server) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	p, found := s.store.Product(req.ProductID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	s.store.AddToCart(p, req.Quantity)
	s.cartView(c, models.PaymentPlanFull)
}

func (s *Server) updateCartQuantity(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	s.store.UpdateCartQuantity(id, req.Delta)
	s.cartView(c, models.PaymentPlanFull)
}

func (s *Server) removeFromCart(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	s.store.RemoveFromCart(id)
	s.cartView(c, models.PaymentPlanFull)
}

func (s *Server) listFavorites(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Favorites())
}

// toggleFavorite removes an existing favorite by id even when its product has
// left the catalog. Adding needs a catalog product.
func (s *Server) toggleFavorite(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if s.store.RemoveFavorite(id) {
		c.JSON(http.StatusOK, gin.H{"product_id": id, "favorite": false})
		return
	}

	p, found := s.store.Product(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	favorite := s.store.ToggleFavorite(p)
	c.JSON(http.StatusOK, gin.H{"product_id": p.ID, "favorite": favorite})
}

func (s *Server) setTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	s.store.SetTheme(*req.DarkMode)
	c.JSON(http.StatusOK, gin.H{"dark_mode": *req.DarkMode})
}

func (s *Server) listOrders(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Orders())
}

func (s *Server) placeOrder(c *gin.Context) {
	var req models.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	order, err := s.orders.PlaceOrder(c.Request.Context(), orders.Checkout{
		Customer: req.Customer,
		Items:    s.store.CartSnapshot(),
		Plan:     req.PaymentPlan,
		Method:   req.PaymentMethod,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.PlaceOrderResponse{
		OrderID:    order.ID,
		Reference:  order.Reference(),
		Status:     order.Status,
		Message:    "Order placed. Send payment proof through support chat with your reference.",
		Total:      order.Total,
		AmountDue:  order.AmountPaid,
		BalanceDue: order.BalanceDue,
	})
}
