// Package emulator is an in-memory stand-in for the hosted backend: the
// products and orders tables, the product-images bucket and password auth.
// It speaks the same REST dialect as the real service and can be told to
// fail or slow down on purpose.
package emulator

import (
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glowempire/storefront/internal/metrics"
	"github.com/glowempire/storefront/internal/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const serviceName = "backend-emulator"

// Config configures a Backend
type Config struct {
	AnonKey       string
	JWTSecret     string
	Bucket        string
	TokenTTL      time.Duration
	MaxObjectSize int64
	// Users maps email to plaintext password; stored as bcrypt hashes
	Users map[string]string
	// Seed loads the launch catalog when true
	Seed bool
}

type account struct {
	id   string
	hash []byte
}

type object struct {
	contentType string
	data        []byte
}

// Backend holds the emulated tables, bucket and accounts
type Backend struct {
	cfg Config

	mutex         sync.RWMutex
	products      map[int64]*models.Product
	nextProductID int64
	orders        map[string]*models.Order
	objects       map[string]object
	accounts      map[string]account
	revoked       map[string]bool

	chaosMutex    sync.RWMutex
	chaosFailRate float64
	chaosDelay    time.Duration
	rng           *rand.Rand
}

// New builds a Backend, hashing the configured passwords
func New(cfg Config) (*Backend, error) {
	if cfg.Bucket == "" {
		cfg.Bucket = "product-images"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.MaxObjectSize == 0 {
		cfg.MaxObjectSize = 5 << 20
	}

	b := &Backend{
		cfg:           cfg,
		products:      make(map[int64]*models.Product),
		nextProductID: 1,
		orders:        make(map[string]*models.Order),
		objects:       make(map[string]object),
		accounts:      make(map[string]account),
		revoked:       make(map[string]bool),
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for email, password := range cfg.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", email, err)
		}
		b.accounts[strings.ToLower(email)] = account{id: uuid.New().String(), hash: hash}
	}

	if cfg.Seed {
		for _, p := range models.DefaultCatalog() {
			p := p
			b.products[p.ID] = &p
			if p.ID >= b.nextProductID {
				b.nextProductID = p.ID + 1
			}
		}
	}

	return b, nil
}

// Router wires the REST, storage and auth endpoints
func (b *Backend) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.PrometheusMiddleware(serviceName))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.POST("/chaos/enable", b.enableChaos)
	router.POST("/chaos/disable", b.disableChaos)
	router.POST("/chaos/slow", b.enableSlowMode)
	router.POST("/chaos/slow/disable", b.disableSlowMode)

	// public object reads need no key
	router.GET("/storage/v1/object/public/:bucket/*name", b.getPublicObject)

	api := router.Group("/", b.requireAPIKey, b.simulateChaos)

	rest := api.Group("/rest/v1")
	rest.GET("/products", b.listProducts)
	rest.POST("/products", b.requireUser, b.insertProduct)
	rest.DELETE("/products", b.requireUser, b.deleteProduct)
	rest.GET("/orders", b.listOrders)
	rest.POST("/orders", b.insertOrder)
	rest.PATCH("/orders", b.requireUser, b.updateOrder)

	api.POST("/storage/v1/object/:bucket/*name", b.requireUser, b.uploadObject)

	auth := api.Group("/auth/v1")
	auth.POST("/token", b.token)
	auth.POST("/logout", b.requireUser, b.logout)
	auth.GET("/user", b.requireUser, b.user)

	return router
}

// SetChaos makes rate (0..1) of API requests fail with 503
func (b *Backend) SetChaos(rate float64) {
	b.chaosMutex.Lock()
	defer b.chaosMutex.Unlock()
	b.chaosFailRate = rate
	metrics.ChaosFailureRate.WithLabelValues(serviceName).Set(boolGauge(rate > 0))
}

// SetSlowMode delays every API request by delay; zero turns it off
func (b *Backend) SetSlowMode(delay time.Duration) {
	b.chaosMutex.Lock()
	defer b.chaosMutex.Unlock()
	b.chaosDelay = delay
	metrics.ChaosSlowMode.WithLabelValues(serviceName).Set(boolGauge(delay > 0))
}

func (b *Backend) requireAPIKey(c *gin.Context) {
	if c.GetHeader("apikey") != b.cfg.AnonKey {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"message": "Invalid API key",
		})
		return
	}
	c.Next()
}

func (b *Backend) simulateChaos(c *gin.Context) {
	b.chaosMutex.RLock()
	rate, delay := b.chaosFailRate, b.chaosDelay
	b.chaosMutex.RUnlock()

	if delay > 0 {
		log.WithField("delay_ms", delay.Milliseconds()).Debug("Chaos: Simulating slow response")
		select {
		case <-time.After(delay):
		case <-c.Request.Context().Done():
			c.Abort()
			return
		}
	}

	if rate > 0 {
		b.chaosMutex.Lock()
		roll := b.rng.Float64()
		b.chaosMutex.Unlock()

		if roll < rate {
			log.WithField("path", c.FullPath()).Warn("Chaos: Simulated failure")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"message": "Service temporarily unavailable",
			})
			return
		}
	}

	c.Next()
}

func (b *Backend) enableChaos(c *gin.Context) {
	b.SetChaos(0.3)

	log.Info("Chaos mode ENABLED for backend emulator")
	c.JSON(http.StatusOK, gin.H{
		"message": "Chaos mode enabled",
		"info":    "30% of requests will fail randomly",
	})
}

func (b *Backend) disableChaos(c *gin.Context) {
	b.SetChaos(0)
	b.SetSlowMode(0)

	log.Info("Chaos mode DISABLED for backend emulator")
	c.JSON(http.StatusOK, gin.H{
		"message": "Chaos mode disabled",
	})
}

func (b *Backend) enableSlowMode(c *gin.Context) {
	b.SetSlowMode(time.Duration(2000+rand.Intn(3000)) * time.Millisecond)

	log.Info("Slow mode ENABLED for backend emulator")
	c.JSON(http.StatusOK, gin.H{
		"message": "Slow mode enabled",
		"info":    "Requests will have 2-5 second delays",
	})
}

func (b *Backend) disableSlowMode(c *gin.Context) {
	b.SetSlowMode(0)

	log.Info("Slow mode DISABLED for backend emulator")
	c.JSON(http.StatusOK, gin.H{
		"message": "Slow mode disabled",
	})
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
