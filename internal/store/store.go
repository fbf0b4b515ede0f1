// Package store holds the storefront's application state: screen, cart,
// favorites, theme, the signed-in admin, the catalog and the orders list.
// Cart, favorites and theme are saved to local slots on every change;
// catalog and orders mirror the hosted backend.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/glowempire/storefront/internal/localstore"
	"github.com/glowempire/storefront/internal/metrics"
	"github.com/glowempire/storefront/internal/models"
	"github.com/glowempire/storefront/internal/remote"
	"github.com/glowempire/storefront/internal/router"
	log "github.com/sirupsen/logrus"
)

// ErrInvalidProduct is returned when an admin draft fails validation
var ErrInvalidProduct = errors.New("invalid product")

// Image is an optional upload accompanying a new product
type Image struct {
	Data []byte
	Name string
}

// Snapshot is a read-only copy of the whole state
type Snapshot struct {
	Screen    router.Name       `json:"screen"`
	Selected  *models.Product   `json:"selected_product,omitempty"`
	Cart      []models.CartItem `json:"cart"`
	CartCount int               `json:"cart_count"`
	Favorites []models.Product  `json:"favorites"`
	DarkMode  bool              `json:"dark_mode"`
	User      *models.User      `json:"user"`
	Products  []models.Product  `json:"products"`
	Orders    []models.Order    `json:"orders"`
}

// Store is safe for concurrent use
type Store struct {
	remote remote.Client
	local  localstore.Store

	mu        sync.RWMutex
	screen    router.Screen
	cart      []models.CartItem
	favorites []models.Product
	darkMode  bool
	user      *models.User
	products  []models.Product
	orders    []models.Order

	unsubscribe func()
}

// New seeds the store from local slots, restores the admin session and
// fetches catalog and orders. Remote failures are logged, never fatal.
func New(ctx context.Context, rc remote.Client, local localstore.Store) *Store {
	s := &Store{
		remote:    rc,
		local:     local,
		screen:    router.Welcome{},
		cart:      []models.CartItem{},
		favorites: []models.Product{},
		products:  []models.Product{},
		orders:    []models.Order{},
	}

	s.loadSlot(ctx, localstore.KeyCart, &s.cart, func() { s.cart = []models.CartItem{} })
	s.loadSlot(ctx, localstore.KeyFavorites, &s.favorites, func() { s.favorites = []models.Product{} })
	s.loadSlot(ctx, localstore.KeyTheme, &s.darkMode, func() { s.darkMode = false })
	s.cart = validLines(s.cart)
	if s.favorites == nil {
		s.favorites = []models.Product{}
	}
	metrics.CartLines.Set(float64(len(s.cart)))

	if session, err := rc.CurrentSession(ctx); err != nil {
		log.WithError(err).Warn("Could not restore admin session")
	} else if session != nil {
		u := session.User
		s.user = &u
	}
	s.unsubscribe = rc.OnSessionChange(s.onSessionChange)

	if err := s.RefreshCatalog(ctx); err != nil {
		log.WithError(err).Warn("Initial catalog fetch failed; falling back to cached catalog")
		s.loadCachedCatalog(ctx)
	}
	if err := s.RefreshOrders(ctx); err != nil {
		log.WithError(err).Warn("Initial orders fetch failed")
	}

	log.WithFields(log.Fields{
		"cart_lines": len(s.cart),
		"favorites":  len(s.favorites),
		"products":   len(s.products),
		"orders":     len(s.orders),
		"signed_in":  s.user != nil,
	}).Info("Store initialized")

	return s
}

// validLines drops stored cart lines whose quantity is below 1
func validLines(cart []models.CartItem) []models.CartItem {
	kept := make([]models.CartItem, 0, len(cart))
	for _, item := range cart {
		if item.Quantity < 1 {
			log.WithFields(log.Fields{"product_id": item.ID, "quantity": item.Quantity}).Warn("Dropping stored cart line")
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// Close stops listening for session changes
func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// loadSlot decodes key into dst. A missing slot keeps the default; an
// unreadable one is logged and reset runs.
func (s *Store) loadSlot(ctx context.Context, key string, dst interface{}, reset func()) {
	err := localstore.Load(ctx, s.local, key, dst)
	switch {
	case err == nil:
	case errors.Is(err, localstore.ErrNotFound):
		reset()
	default:
		metrics.LocalStoreErrors.WithLabelValues(key, "load").Inc()
		log.WithField("key", key).WithError(err).Warn("Ignoring unreadable local slot")
		reset()
	}
}

// persistLocked writes v to key. Failures are logged; the in-memory state
// stands. Callers hold s.mu.
func (s *Store) persistLocked(key string, v interface{}) {
	if err := localstore.Save(context.Background(), s.local, key, v); err != nil {
		metrics.LocalStoreErrors.WithLabelValues(key, "save").Inc()
		log.WithField("key", key).WithError(err).Warn("Failed to persist local slot")
	}
}

func (s *Store) loadCachedCatalog(ctx context.Context) {
	var cached []models.Product
	if err := localstore.Load(ctx, s.local, localstore.KeyProducts, &cached); err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			metrics.LocalStoreErrors.WithLabelValues(localstore.KeyProducts, "load").Inc()
			log.WithError(err).Warn("Ignoring unreadable catalog cache")
		}
		return
	}

	s.mu.Lock()
	s.products = cached
	s.mu.Unlock()
	metrics.CatalogProducts.Set(float64(len(cached)))

	log.WithField("products", len(cached)).Info("Serving cached catalog")
}

func (s *Store) onSessionChange(ev remote.SessionEvent) {
	// events arrive on their own goroutines, possibly out of order; the
	// client's current session is the truth
	session, err := s.remote.CurrentSession(context.Background())
	if err != nil {
		log.WithError(err).Warn("Could not read session after change")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if session == nil {
		s.user = nil
		s.screen, _ = router.Next(s.screen, router.SignedOut{}, false)
	} else {
		u := session.User
		s.user = &u
	}

	log.WithFields(log.Fields{
		"event":     ev.Kind,
		"signed_in": s.user != nil,
	}).Info("Session changed")
}

// AddToCart adds quantity of product, merging with an existing line
func (s *Store) AddToCart(product models.Product, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i := range s.cart {
		if s.cart[i].ID == product.ID {
			s.cart[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		s.cart = append(s.cart, models.CartItem{Product: product, Quantity: quantity})
	}

	s.cartChangedLocked()
	log.WithFields(log.Fields{
		"product_id": product.ID,
		"quantity":   quantity,
	}).Debug("Added to cart")
}

// UpdateCartQuantity moves a line's quantity by delta. A result below 1
// is ignored; unknown ids are a no-op.
func (s *Store) UpdateCartQuantity(id int64, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.cart {
		if s.cart[i].ID != id {
			continue
		}
		next := s.cart[i].Quantity + delta
		if next <= 0 {
			return
		}
		s.cart[i].Quantity = next
		s.cartChangedLocked()
		return
	}
}

// RemoveFromCart drops the line for id
func (s *Store) RemoveFromCart(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.cart[:0:0]
	for _, item := range s.cart {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	s.cart = kept
	s.cartChangedLocked()
}

// ClearCart empties the cart
func (s *Store) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart = []models.CartItem{}
	s.cartChangedLocked()
}

func (s *Store) cartChangedLocked() {
	s.persistLocked(localstore.KeyCart, s.cart)
	metrics.CartLines.Set(float64(len(s.cart)))
}

// CartSnapshot returns a copy of the cart lines
func (s *Store) CartSnapshot() []models.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.CartItem{}, s.cart...)
}

// ToggleFavorite adds product to favorites, or removes it if already
// there. It reports whether the product is now a favorite.
func (s *Store) ToggleFavorite(product models.Product) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]models.Product, 0, len(s.favorites)+1)
	removed := false
	for _, f := range s.favorites {
		if f.ID == product.ID {
			removed = true
			continue
		}
		kept = append(kept, f)
	}
	if !removed {
		kept = append(kept, product)
	}
	s.favorites = kept
	s.persistLocked(localstore.KeyFavorites, s.favorites)

	return !removed
}

// RemoveFavorite drops the favorite with id, whether or not the product is
// still in the catalog. It reports whether anything was removed.
func (s *Store) RemoveFavorite(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, f := range s.favorites {
		if f.ID == id {
			s.favorites = append(s.favorites[:i:i], s.favorites[i+1:]...)
			s.persistLocked(localstore.KeyFavorites, s.favorites)
			return true
		}
	}
	return false
}

func (s *Store) IsFavorite(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.favorites {
		if f.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) Favorites() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Product{}, s.favorites...)
}

// SetTheme switches dark mode and saves it
func (s *Store) SetTheme(dark bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.darkMode = dark
	s.persistLocked(localstore.KeyTheme, dark)
}

func (s *Store) DarkMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.darkMode
}

// Screen returns the current screen
func (s *Store) Screen() router.Screen {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.screen
}

// SetScreen jumps to the named screen
func (s *Store) SetScreen(name router.Name) (router.Screen, error) {
	return s.Navigate(router.Goto{Target: name})
}

// SelectProduct opens the details screen for product
func (s *Store) SelectProduct(product models.Product) router.Screen {
	screen, _ := s.Navigate(router.OpenProduct{Product: product})
	return screen
}

// Navigate applies ev to the current screen. On error the screen is left
// as it was.
func (s *Store) Navigate(ev router.Event) (router.Screen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := router.Next(s.screen, ev, s.user != nil)
	if err != nil {
		return s.screen, err
	}

	if next.Name() != s.screen.Name() {
		log.WithFields(log.Fields{
			"from": s.screen.Name(),
			"to":   next.Name(),
		}).Debug("Screen changed")
	}
	s.screen = next
	return next, nil
}

// Products returns the catalog
func (s *Store) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Product{}, s.products...)
}

// ProductsByCategory filters the catalog; CategoryAll returns everything
func (s *Store) ProductsByCategory(c models.Category) []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.FilterByCategory(s.products, c)
}

// Product looks a catalog entry up by id
func (s *Store) Product(id int64) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// Orders returns the orders list, newest first
func (s *Store) Orders() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Order{}, s.orders...)
}

// Order looks an order up by id
func (s *Store) Order(id string) (models.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.orders {
		if o.ID == id {
			return o, true
		}
	}
	return models.Order{}, false
}

// AddOrder puts a stored order at the head of the list
func (s *Store) AddOrder(order models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append([]models.Order{order}, s.orders...)
}

// SetOrderStatus patches one order's status; false if the id is unknown
func (s *Store) SetOrderStatus(id string, status models.OrderStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.orders {
		if s.orders[i].ID == id {
			s.orders[i].Status = status
			return true
		}
	}
	return false
}

// User returns the signed-in admin, or nil
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// Snapshot copies the whole state
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Screen:    s.screen.Name(),
		Cart:      append([]models.CartItem{}, s.cart...),
		Favorites: append([]models.Product{}, s.favorites...),
		DarkMode:  s.darkMode,
		Products:  append([]models.Product{}, s.products...),
		Orders:    append([]models.Order{}, s.orders...),
	}
	snap.CartCount = len(s.cart)
	if d, ok := s.screen.(router.Details); ok {
		p := d.Product
		snap.Selected = &p
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// RefreshCatalog refetches the catalog and refreshes the local cache
func (s *Store) RefreshCatalog(ctx context.Context) error {
	products, err := s.remote.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("refresh catalog: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}

	s.mu.Lock()
	s.products = products
	s.persistLocked(localstore.KeyProducts, products)
	s.mu.Unlock()

	metrics.CatalogProducts.Set(float64(len(products)))
	return nil
}

// RefreshOrders refetches the orders list
func (s *Store) RefreshOrders(ctx context.Context) error {
	orders, err := s.remote.ListOrders(ctx)
	if err != nil {
		return fmt.Errorf("refresh orders: %w", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}

	s.mu.Lock()
	s.orders = orders
	s.mu.Unlock()
	return nil
}
