package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/glowempire/storefront/internal/localstore"
	"github.com/glowempire/storefront/internal/metrics"
	"github.com/glowempire/storefront/internal/models"
	"github.com/glowempire/storefront/internal/patterns"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Areas of the hosted backend; each gets its own circuit breaker
const (
	AreaProducts = "products"
	AreaOrders   = "orders"
	AreaStorage  = "storage"
	AreaAuth     = "auth"
)

const (
	serviceName   = "storefront"
	bulkheadSize  = 10
	defaultBucket = "product-images"
)

// Config configures a SupabaseClient
type Config struct {
	BaseURL       string
	AnonKey       string
	Bucket        string
	Timeout       time.Duration
	UploadTimeout time.Duration
	Breaker       patterns.BreakerSettings
	// Sessions, when set, persists the admin session across restarts
	Sessions localstore.Store
}

// SupabaseClient talks to a Supabase-shaped backend over REST
type SupabaseClient struct {
	cfg      Config
	http     *resty.Client
	breakers map[string]*patterns.CircuitBreakerWrapper
	bulkhead *patterns.Bulkhead
	now      func() time.Time

	mu        sync.Mutex
	session   *models.Session
	restored  bool
	expiry    *time.Timer
	listeners map[int]func(SessionEvent)
	nextID    int
}

// NewSupabaseClient builds a client with one circuit breaker per area and a
// shared bulkhead
func NewSupabaseClient(cfg Config) *SupabaseClient {
	if cfg.Bucket == "" {
		cfg.Bucket = defaultBucket
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = patterns.DefaultTimeout
	}
	if cfg.UploadTimeout == 0 {
		cfg.UploadTimeout = patterns.SlowServiceTimeout
	}
	if cfg.Breaker == (patterns.BreakerSettings{}) {
		cfg.Breaker = patterns.DefaultBreakerSettings()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &SupabaseClient{
		cfg: cfg,
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
			SetRetryCount(0), // failures surface to the caller; no automatic retry
		breakers:  make(map[string]*patterns.CircuitBreakerWrapper),
		bulkhead:  patterns.NewBulkhead(bulkheadSize, "backend", serviceName),
		now:       time.Now,
		listeners: make(map[int]func(SessionEvent)),
	}

	for _, area := range []string{AreaProducts, AreaOrders, AreaStorage, AreaAuth} {
		c.breakers[area] = patterns.NewCircuitBreaker(area, serviceName, cfg.Breaker)
	}

	return c
}

// CircuitStatus reports each area's breaker state
func (c *SupabaseClient) CircuitStatus() map[string]string {
	status := make(map[string]string, len(c.breakers))
	for area, cb := range c.breakers {
		status[area] = cb.GetState()
	}
	return status
}

// Close stops the session expiry timer
func (c *SupabaseClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopExpiryLocked()
}

// request starts a request carrying the anon key and, when signed in, the
// session's bearer token
func (c *SupabaseClient) request(ctx context.Context) *resty.Request {
	token := c.cfg.AnonKey
	c.mu.Lock()
	if c.session != nil {
		token = c.session.AccessToken
	}
	c.mu.Unlock()

	return c.http.R().
		SetContext(ctx).
		SetHeader("apikey", c.cfg.AnonKey).
		SetAuthToken(token)
}

// call runs one HTTP exchange through the bulkhead and the area's circuit
// breaker. Transport errors and 5xx responses count as breaker failures
// and come back as ErrRemoteUnavailable; any other response is returned
// for the caller to interpret.
func (c *SupabaseClient) call(ctx context.Context, area, op string, timeout time.Duration, send func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	start := time.Now()
	ctx, cancel := patterns.WithTimeout(ctx, timeout)
	defer cancel()

	var resp *resty.Response
	err := c.bulkhead.Execute(ctx, func() error {
		_, cbErr := c.breakers[area].Execute(func() (interface{}, error) {
			r, httpErr := send(c.request(ctx))
			if httpErr != nil {
				return nil, fmt.Errorf("HTTP error: %w", httpErr)
			}
			if r.StatusCode() >= http.StatusInternalServerError {
				return nil, fmt.Errorf("%s returned status %d: %s", area, r.StatusCode(), errorMessage(r))
			}
			resp = r
			return r, nil
		})
		return cbErr
	})

	metrics.RemoteCallDuration.WithLabelValues(area, op).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.RemoteCallsTotal.WithLabelValues(area, op, "unavailable").Inc()
		log.WithFields(log.Fields{
			"area":      area,
			"operation": op,
		}).WithError(err).Warn("Remote call failed")
		return nil, errors.Wrapf(ErrRemoteUnavailable, "%s %s: %v", area, op, err)
	}

	outcome := "ok"
	if resp.IsError() {
		outcome = strconv.Itoa(resp.StatusCode())
	}
	metrics.RemoteCallsTotal.WithLabelValues(area, op, outcome).Inc()

	return resp, nil
}

func decode(resp *resty.Response, area, op string, dst interface{}) error {
	if err := json.Unmarshal(resp.Body(), dst); err != nil {
		return errors.Wrapf(ErrRemoteUnavailable, "%s %s: failed to parse response: %v", area, op, err)
	}
	return nil
}

// readError maps a non-2xx answer to a read request
func readError(resp *resty.Response, area, op string) error {
	return errors.Wrapf(ErrRemoteUnavailable, "%s %s: status %d: %s", area, op, resp.StatusCode(), errorMessage(resp))
}

// writeError maps a non-2xx answer to a write request
func writeError(resp *resty.Response, area, op string) error {
	return errors.Wrapf(ErrRemoteWriteRejected, "%s %s: status %d: %s", area, op, resp.StatusCode(), errorMessage(resp))
}

func (c *SupabaseClient) ListProducts(ctx context.Context) ([]models.Product, error) {
	resp, err := c.call(ctx, AreaProducts, "list", c.cfg.Timeout, func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParams(map[string]string{"select": "*", "order": "id.asc"}).
			Get("/rest/v1/products")
	})
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, readError(resp, AreaProducts, "list")
	}

	var products []models.Product
	if err := decode(resp, AreaProducts, "list", &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *SupabaseClient) InsertProduct(ctx context.Context, draft models.ProductDraft) (models.Product, error) {
	resp, err := c.call(ctx, AreaProducts, "insert", c.cfg.Timeout, func(r *resty.Request) (*resty.Response, error) {
		return r.SetHeader("Prefer", "return=representation").
			SetBody(draft).
			Post("/rest/v1/products")
	})
	if err != nil {
		return models.Product{}, err
	}
	if resp.IsError() {
		return models.Product{}, writeError(resp, AreaProducts, "insert")
	}

	var rows []models.Product
	if err := decode(resp, AreaProducts, "insert", &rows); err != nil {
		return models.Product{}, err
	}
	if len(rows) == 0 {
		return models.Product{}, errors.Wrap(ErrRemoteUnavailable, "products insert: empty representation")
	}
	return rows[0], nil
}

func (c *SupabaseClient) DeleteProduct(ctx context.Context, id int64) error {
	resp, err := c.call(ctx, AreaProducts, "delete", c.cfg.Timeout, func(r *resty.Request) (*resty.Response, error) {
		return r.SetHeader("Prefer", "return=representation").
			SetQueryParam("id", "eq."+strconv.FormatInt(id, 10)).
			Delete("/rest/v1/products")
	})
	if err != nil {
		return err
	}
	if resp.IsError() {
		return writeError(resp, AreaProducts, "delete")
	}

	var rows []models.Product
	if err := decode(resp, AreaProducts, "delete", &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return errors.Wrapf(ErrNotFound, "product %d", id)
	}
	return nil
}

func (c *SupabaseClient) ListOrders(ctx context.Context) ([]models.Order, error) {
	resp, err := c.call(ctx, AreaOrders, "list", c.cfg.Timeout, func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParams(map[string]string{"select": "*", "order": "created_at.desc"}).
			Get("/rest/v1/orders")
	})
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, readError(resp, AreaOrders, "list")
	}

	var orders []models.Order
	if err := decode(resp, AreaOrders, "list", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *SupabaseClient) InsertOrder(ctx context.Context, order models.Order) (models.Order, error) {
	resp, err := c.call(ctx, AreaOrders, "insert", c.cfg.Timeout, func(r *resty.Request) (*resty.Response, error) {
		return r.SetHeader("Prefer", "return=representation").
			SetBody(order).
			Post("/rest/v1/orders")
	})
	if err != nil {
		return models.Order{}, err
	}
	if resp.IsError() {
		return models.Order{}, writeError(resp, AreaOrders, "insert")
	}

	var rows []models.Order
	if err := decode(resp, AreaOrders, "insert", &rows); err != nil {
		return models.Order{}, err
	}
	if len(rows) == 0 {
		// representation disabled server-side; the write itself went through
		return order, nil
	}
	return rows[0], nil
}

func (c *SupabaseClient) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error) {
	resp, err := c.call(ctx, AreaOrders, "update_status", c.cfg.Timeout, func(r *resty.Request) (*resty.Response, error) {
		return r.SetHeader("Prefer", "return=representation").
			SetQueryParam("id", "eq."+id).
			SetBody(models.OrderStatusUpdate{Status: status}).
			Patch("/rest/v1/orders")
	})
	if err != nil {
		return models.Order{}, err
	}
	if resp.IsError() {
		return models.Order{}, writeError(resp, AreaOrders, "update_status")
	}

	var rows []models.Order
	if err := decode(resp, AreaOrders, "update_status", &rows); err != nil {
		return models.Order{}, err
	}
	if len(rows) == 0 {
		return models.Order{}, errors.Wrapf(ErrNotFound, "order %s", id)
	}
	return rows[0], nil
}
