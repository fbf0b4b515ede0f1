// Package remote is the storefront's only door to the hosted backend: the
// products and orders tables, the product-images bucket and password auth.
package remote

import (
	"context"

	"github.com/glowempire/storefront/internal/models"
)

// Client is the capability set the storefront needs from the hosted backend
type Client interface {
	// ListProducts returns the catalog ordered by ascending id
	ListProducts(ctx context.Context) ([]models.Product, error)
	// InsertProduct stores a new product and returns it with its assigned id
	InsertProduct(ctx context.Context, draft models.ProductDraft) (models.Product, error)
	// DeleteProduct removes a product; ErrNotFound if no row matched
	DeleteProduct(ctx context.Context, id int64) error

	// ListOrders returns orders newest first
	ListOrders(ctx context.Context) ([]models.Order, error)
	// InsertOrder stores a new order and returns the stored row
	InsertOrder(ctx context.Context, order models.Order) (models.Order, error)
	// UpdateOrderStatus overwrites an order's status without checking the
	// transition; ErrNotFound if no row matched
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error)

	// UploadImage stores an image and returns its public URL
	UploadImage(ctx context.Context, data []byte, suggestedName string) (string, error)

	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context) error
	// CurrentSession returns the live session, restoring a persisted one if
	// needed; nil when signed out
	CurrentSession(ctx context.Context) (*models.Session, error)
	// OnSessionChange registers fn for auth state changes. fn runs on its own
	// goroutine. The returned func unregisters it.
	OnSessionChange(fn func(SessionEvent)) (unsubscribe func())
}

// SessionEventKind names an auth state change
type SessionEventKind string

// SessionEventKind constants
const (
	SessionRestored  SessionEventKind = "INITIAL_SESSION"
	SessionSignedIn  SessionEventKind = "SIGNED_IN"
	SessionSignedOut SessionEventKind = "SIGNED_OUT"
	SessionExpired   SessionEventKind = "TOKEN_EXPIRED"
)

// SessionEvent is delivered to OnSessionChange listeners. Session is nil
// for sign-out and expiry.
type SessionEvent struct {
	Kind    SessionEventKind
	Session *models.Session
}
