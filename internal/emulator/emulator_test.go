package emulator

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glowempire/storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newBackend(t *testing.T) (*Backend, *gin.Engine) {
	t.Helper()
	b, err := New(Config{
		AnonKey:   "anon",
		JWTSecret: "secret",
		Users:     map[string]string{"Admin@Glow.test": "pw"},
		Seed:      true,
	})
	require.NoError(t, err)
	return b, b.Router()
}

func do(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", "anon")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := do(router, http.MethodPost, "/auth/v1/token?grant_type=password", "", models.SignInRequest{
		Email:    "admin@glow.test",
		Password: "pw",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	assert.Greater(t, resp.ExpiresAt, time.Now().Unix())
	return resp.AccessToken
}

func TestHealth(t *testing.T) {
	_, router := newBackend(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIKeyRequired(t *testing.T) {
	_, router := newBackend(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rest/v1/products", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSeededCatalog(t *testing.T) {
	b, router := newBackend(t)

	w := do(router, http.MethodGet, "/rest/v1/products?order=id.desc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var products []models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	require.Len(t, products, 4)
	assert.Equal(t, int64(4), products[0].ID)
	assert.Len(t, b.Products(), 4)
}

func TestTokenGrant(t *testing.T) {
	_, router := newBackend(t)

	tests := []struct {
		name   string
		path   string
		body   interface{}
		status int
	}{
		{"wrong password", "/auth/v1/token?grant_type=password", models.SignInRequest{Email: "admin@glow.test", Password: "nope"}, http.StatusBadRequest},
		{"unknown user", "/auth/v1/token?grant_type=password", models.SignInRequest{Email: "who@glow.test", Password: "pw"}, http.StatusBadRequest},
		{"missing fields", "/auth/v1/token?grant_type=password", map[string]string{}, http.StatusBadRequest},
		{"refresh grant", "/auth/v1/token?grant_type=refresh_token", models.SignInRequest{Email: "admin@glow.test", Password: "pw"}, http.StatusBadRequest},
		{"email case ignored", "/auth/v1/token?grant_type=password", models.SignInRequest{Email: "ADMIN@glow.test", Password: "pw"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, tt.path, "", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestLogoutRevokes(t *testing.T) {
	_, router := newBackend(t)
	token := login(t, router)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/auth/v1/user", token, nil).Code)
	assert.Equal(t, http.StatusNoContent, do(router, http.MethodPost, "/auth/v1/logout", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/auth/v1/user", token, nil).Code)
}

func TestInsertOrderConstraints(t *testing.T) {
	b, router := newBackend(t)

	valid := models.Order{
		ID:          "o-1",
		Customer:    models.Customer{Name: "Ama", Phone: "024", Address: "Accra"},
		Items:       []models.CartItem{{Product: models.DefaultCatalog()[1], Quantity: 2}},
		Total:       "₵260.00",
		PaymentPlan: models.PaymentPlanDelivery,
	}

	noItems := valid
	noItems.ID = "o-2"
	noItems.Items = nil

	approved := valid
	approved.ID = "o-3"
	approved.Status = models.OrderStatusApproved

	badPlan := valid
	badPlan.ID = "o-4"
	badPlan.PaymentPlan = "layaway"

	tests := []struct {
		name   string
		order  models.Order
		status int
	}{
		{"valid", valid, http.StatusCreated},
		{"duplicate", valid, http.StatusConflict},
		{"no items", noItems, http.StatusBadRequest},
		{"not pending", approved, http.StatusBadRequest},
		{"unknown plan", badPlan, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/rest/v1/orders", "", tt.order)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	orders := b.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, models.OrderStatusPending, orders[0].Status)
	assert.False(t, orders[0].CreatedAt.IsZero())
}

func TestUpdateRequiresFilter(t *testing.T) {
	_, router := newBackend(t)
	token := login(t, router)

	w := do(router, http.MethodPatch, "/rest/v1/orders", token, models.OrderStatusUpdate{Status: models.OrderStatusApproved})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodDelete, "/rest/v1/products?id=eq.abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWriteWithoutRepresentation(t *testing.T) {
	_, router := newBackend(t)
	token := login(t, router)

	w := do(router, http.MethodDelete, "/rest/v1/products?id=eq.1", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestStorageBucket(t *testing.T) {
	_, router := newBackend(t)
	token := login(t, router)

	upload := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte("GIF89a....")))
		req.Header.Set("apikey", "anon")
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "image/gif")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, upload("/storage/v1/object/product-images/1_a.gif"))
	assert.Equal(t, http.StatusConflict, upload("/storage/v1/object/product-images/1_a.gif"))
	assert.Equal(t, http.StatusNotFound, upload("/storage/v1/object/other-bucket/1_a.gif"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/storage/v1/object/public/product-images/1_a.gif", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/gif", w.Header().Get("Content-Type"))
	assert.Equal(t, "GIF89a....", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/storage/v1/object/public/product-images/missing.gif", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChaosEndpoints(t *testing.T) {
	b, router := newBackend(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chaos/enable", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	b.SetChaos(1)
	assert.Equal(t, http.StatusServiceUnavailable, do(router, http.MethodGet, "/rest/v1/orders", "", nil).Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chaos/disable", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/rest/v1/orders", "", nil).Code)
}
