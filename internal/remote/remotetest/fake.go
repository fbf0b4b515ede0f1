// Package remotetest provides an in-memory remote.Client for tests.
package remotetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/glowempire/storefront/internal/models"
	"github.com/glowempire/storefront/internal/remote"
	"github.com/pkg/errors"
)

// Fake keeps products, orders and uploads in memory. Fail makes a method
// return an error until Heal is called.
type Fake struct {
	mu        sync.Mutex
	products  []models.Product
	orders    []models.Order
	uploads   map[string][]byte
	users     map[string]string
	session   *models.Session
	failures  map[string]error
	calls     map[string]int
	nextID    int64
	listeners map[int]func(remote.SessionEvent)
	nextSub   int
}

// NewFake seeds the fake with products and an admin account
func NewFake(products []models.Product, users map[string]string) *Fake {
	f := &Fake{
		products:  append([]models.Product(nil), products...),
		uploads:   make(map[string][]byte),
		users:     users,
		failures:  make(map[string]error),
		calls:     make(map[string]int),
		nextID:    1,
		listeners: make(map[int]func(remote.SessionEvent)),
	}
	for _, p := range products {
		if p.ID >= f.nextID {
			f.nextID = p.ID + 1
		}
	}
	return f
}

// Fail makes method return err
func (f *Fake) Fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = err
}

// Heal undoes Fail
func (f *Fake) Heal(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, method)
}

// Calls reports how many times method was invoked
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// StoredOrders returns the backend's copy of the orders
func (f *Fake) StoredOrders() []models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Order(nil), f.orders...)
}

// StoredProducts returns the backend's copy of the catalog
func (f *Fake) StoredProducts() []models.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Product(nil), f.products...)
}

// Upload returns an uploaded object by name
func (f *Fake) Upload(name string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.uploads[name]
	return data, ok
}

// Expire drops the session as if its token ran out
func (f *Fake) Expire() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = nil
	f.emitLocked(remote.SessionEvent{Kind: remote.SessionExpired})
}

func (f *Fake) enter(method string) error {
	f.calls[method]++
	return f.failures[method]
}

func (f *Fake) requireSessionLocked(op string) error {
	if f.session == nil {
		return errors.Wrapf(remote.ErrRemoteWriteRejected, "%s: permission denied", op)
	}
	return nil
}

func (f *Fake) emitLocked(ev remote.SessionEvent) {
	for _, fn := range f.listeners {
		go fn(ev)
	}
}

func (f *Fake) ListProducts(_ context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListProducts"); err != nil {
		return nil, err
	}
	return append([]models.Product{}, f.products...), nil
}

func (f *Fake) InsertProduct(_ context.Context, draft models.ProductDraft) (models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("InsertProduct"); err != nil {
		return models.Product{}, err
	}
	if err := f.requireSessionLocked("products insert"); err != nil {
		return models.Product{}, err
	}

	p := models.Product{
		ID:          f.nextID,
		Name:        draft.Name,
		Category:    draft.Category,
		Price:       draft.Price,
		Stock:       draft.Stock,
		Description: draft.Description,
		Image:       draft.Image,
		Rating:      draft.Rating,
	}
	f.nextID++
	f.products = append(f.products, p)
	return p, nil
}

func (f *Fake) DeleteProduct(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteProduct"); err != nil {
		return err
	}
	if err := f.requireSessionLocked("products delete"); err != nil {
		return err
	}

	for i, p := range f.products {
		if p.ID == id {
			f.products = append(f.products[:i:i], f.products[i+1:]...)
			return nil
		}
	}
	return errors.Wrapf(remote.ErrNotFound, "product %d", id)
}

func (f *Fake) ListOrders(_ context.Context) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListOrders"); err != nil {
		return nil, err
	}

	orders := append([]models.Order{}, f.orders...)
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (f *Fake) InsertOrder(_ context.Context, order models.Order) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("InsertOrder"); err != nil {
		return models.Order{}, err
	}

	for _, o := range f.orders {
		if o.ID == order.ID {
			return models.Order{}, errors.Wrapf(remote.ErrRemoteWriteRejected, "duplicate order %s", order.ID)
		}
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	f.orders = append(f.orders, order)
	return order, nil
}

func (f *Fake) UpdateOrderStatus(_ context.Context, id string, status models.OrderStatus) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateOrderStatus"); err != nil {
		return models.Order{}, err
	}
	if err := f.requireSessionLocked("orders update"); err != nil {
		return models.Order{}, err
	}

	for i := range f.orders {
		if f.orders[i].ID == id {
			f.orders[i].Status = status
			return f.orders[i], nil
		}
	}
	return models.Order{}, errors.Wrapf(remote.ErrNotFound, "order %s", id)
}

func (f *Fake) UploadImage(_ context.Context, data []byte, suggestedName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UploadImage"); err != nil {
		return "", err
	}
	if f.session == nil {
		return "", errors.Wrap(remote.ErrUploadFailed, "permission denied")
	}

	name := fmt.Sprintf("%d_%s", len(f.uploads)+1, suggestedName)
	f.uploads[name] = append([]byte(nil), data...)
	return "https://storage.test/product-images/" + name, nil
}

func (f *Fake) SignIn(_ context.Context, email, password string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SignIn"); err != nil {
		return nil, err
	}

	if want, ok := f.users[email]; !ok || want != password {
		return nil, errors.Wrap(remote.ErrAuthFailed, "Invalid login credentials")
	}

	f.session = &models.Session{
		AccessToken: fmt.Sprintf("token-%d", f.calls["SignIn"]),
		TokenType:   "bearer",
		ExpiresIn:   3600,
		ExpiresAt:   time.Now().Add(time.Hour),
		User:        models.User{ID: "user-1", Email: email},
	}
	s := *f.session
	f.emitLocked(remote.SessionEvent{Kind: remote.SessionSignedIn, Session: &s})
	return &s, nil
}

func (f *Fake) SignOut(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := f.enter("SignOut")

	if f.session != nil {
		f.session = nil
		f.emitLocked(remote.SessionEvent{Kind: remote.SessionSignedOut})
	}
	return err
}

func (f *Fake) CurrentSession(_ context.Context) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CurrentSession"); err != nil {
		return nil, err
	}
	if f.session == nil {
		return nil, nil
	}
	s := *f.session
	return &s, nil
}

func (f *Fake) OnSessionChange(fn func(remote.SessionEvent)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextSub
	f.nextSub++
	f.listeners[id] = fn

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

var _ remote.Client = (*Fake)(nil)
