// Package api exposes the storefront state and actions over HTTP/JSON, in
// place of the browser view layer.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glowempire/storefront/internal/checkout"
	"github.com/glowempire/storefront/internal/metrics"
	"github.com/glowempire/storefront/internal/money"
	"github.com/glowempire/storefront/internal/orders"
	"github.com/glowempire/storefront/internal/remote"
	"github.com/glowempire/storefront/internal/router"
	"github.com/glowempire/storefront/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Options tunes the HTTP surface
type Options struct {
	ServiceName    string
	AllowedOrigins []string
	// CircuitStatus reports breaker states for /api/circuit-status
	CircuitStatus func() map[string]string
	// MaxUploadBytes caps product image uploads
	MaxUploadBytes int64
}

// Server holds the handlers' dependencies
type Server struct {
	store  *store.Store
	orders *orders.Manager
	opts   Options
}

// NewRouter wires every storefront route
func NewRouter(st *store.Store, om *orders.Manager, opts Options) *gin.Engine {
	if opts.ServiceName == "" {
		opts.ServiceName = "storefront"
	}
	if opts.MaxUploadBytes == 0 {
		opts.MaxUploadBytes = 5 << 20
	}
	s := &Server{store: st, orders: om, opts: opts}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(metrics.PrometheusMiddleware(opts.ServiceName))
	r.MaxMultipartMemory = opts.MaxUploadBytes

	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/state", s.getState)
	api.GET("/circuit-status", s.getCircuitStatus)
	api.PUT("/screen", s.setScreen)
	api.POST("/navigate/:event", s.navigate)

	api.GET("/products", s.listProducts)
	api.GET("/products/:id", s.getProduct)
	api.POST("/products/:id/select", s.selectProduct)

	api.GET("/cart", s.getCart)
	api.POST("/cart", s.addToCart)
	api.PATCH("/cart/:id", s.updateCartQuantity)
	api.DELETE("/cart/:id", s.removeFromCart)

	api.GET("/favorites", s.listFavorites)
	api.POST("/favorites/:id", s.toggleFavorite)
	api.PUT("/theme", s.setTheme)

	api.GET("/orders", s.listOrders)
	api.POST("/orders", s.placeOrder)

	api.POST("/admin/login", s.login)
	api.POST("/admin/logout", s.logout)

	admin := api.Group("/admin", s.requireAdmin)
	admin.POST("/orders/:id/approve", s.approveOrder)
	admin.POST("/orders/:id/reject", s.rejectOrder)
	admin.GET("/orders/export", s.exportOrders)
	admin.GET("/revenue", s.revenue)
	admin.POST("/products", s.addProduct)
	admin.DELETE("/products/:id", s.deleteProduct)

	return r
}

func (s *Server) requireAdmin(c *gin.Context) {
	if !s.store.IsAdmin() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin sign-in required"})
		return
	}
	c.Next()
}

func (s *Server) getState(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Snapshot())
}

func (s *Server) getCircuitStatus(c *gin.Context) {
	status := map[string]string{}
	if s.opts.CircuitStatus != nil {
		status = s.opts.CircuitStatus()
	}
	c.JSON(http.StatusOK, status)
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, remote.ErrRemoteUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, remote.ErrUploadFailed):
		return http.StatusBadGateway
	case errors.Is(err, remote.ErrAuthFailed):
		return http.StatusUnauthorized
	case errors.Is(err, remote.ErrRemoteWriteRejected), errors.Is(err, money.ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, remote.ErrNotFound), errors.Is(err, orders.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrIllegalTransition), errors.Is(err, router.ErrNoTransition):
		return http.StatusConflict
	case errors.Is(err, orders.ErrEmptyCart),
		errors.Is(err, orders.ErrInvalidCustomer),
		errors.Is(err, store.ErrInvalidProduct),
		errors.Is(err, checkout.ErrUnknownPlan),
		errors.Is(err, router.ErrUnknownScreen):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	entry := log.WithFields(log.Fields{
		"path":   c.FullPath(),
		"status": status,
	}).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request refused")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
