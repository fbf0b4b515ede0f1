// Package orders places orders from the cart and moves them through admin
// review.
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glowempire/storefront/internal/checkout"
	"github.com/glowempire/storefront/internal/metrics"
	"github.com/glowempire/storefront/internal/models"
	"github.com/glowempire/storefront/internal/money"
	"github.com/glowempire/storefront/internal/remote"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidCustomer   = errors.New("name, phone and address are required")
	ErrOrderNotFound     = errors.New("order not found")
	ErrIllegalTransition = errors.New("illegal status transition")
)

// Ledger is the local state the manager reads and patches. The
// application store implements it.
type Ledger interface {
	Order(id string) (models.Order, bool)
	AddOrder(order models.Order)
	SetOrderStatus(id string, status models.OrderStatus) bool
	ClearCart()
}

// Checkout is a filled-in checkout form plus the cart it pays for
type Checkout struct {
	Customer models.Customer
	Items    []models.CartItem
	Plan     models.PaymentPlan
	Method   models.PaymentMethod
}

// Manager places and reviews orders
type Manager struct {
	remote remote.Client
	ledger Ledger
	now    func() time.Time
	newID  func() string
}

func NewManager(rc remote.Client, ledger Ledger) *Manager {
	return &Manager{
		remote: rc,
		ledger: ledger,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// PlaceOrder submits a Pending order. The cart is cleared and the order
// listed only after the backend stored it.
func (m *Manager) PlaceOrder(ctx context.Context, c Checkout) (models.Order, error) {
	if len(c.Items) == 0 {
		metrics.OrdersTotal.WithLabelValues("rejected").Inc()
		return models.Order{}, ErrEmptyCart
	}
	if c.Customer.Blank() {
		metrics.OrdersTotal.WithLabelValues("rejected").Inc()
		return models.Order{}, ErrInvalidCustomer
	}
	if c.Plan == "" {
		c.Plan = models.PaymentPlanFull
	}
	if c.Method != "" && !c.Method.Valid() {
		metrics.OrdersTotal.WithLabelValues("rejected").Inc()
		return models.Order{}, fmt.Errorf("unknown payment method %q", c.Method)
	}

	totals, err := checkout.Compute(c.Items, c.Plan)
	if err != nil {
		metrics.OrdersTotal.WithLabelValues("rejected").Inc()
		return models.Order{}, fmt.Errorf("compute totals: %w", err)
	}

	order := models.Order{
		ID:            m.newID(),
		Customer:      c.Customer,
		Items:         append([]models.CartItem(nil), c.Items...),
		Total:         totals.Total.String(),
		Status:        models.OrderStatusPending,
		PaymentPlan:   c.Plan,
		PaymentMethod: c.Method,
		AmountPaid:    totals.DueNow.String(),
		BalanceDue:    totals.Balance.String(),
		CreatedAt:     m.now().UTC(),
	}

	log.WithFields(log.Fields{
		"order_id": order.ID,
		"items":    len(order.Items),
		"total":    order.Total,
		"plan":     order.PaymentPlan,
	}).Info("Placing order")

	stored, err := m.remote.InsertOrder(ctx, order)
	if err != nil {
		metrics.OrdersTotal.WithLabelValues("failed").Inc()
		log.WithField("order_id", order.ID).WithError(err).Error("Order placement failed")
		return models.Order{}, fmt.Errorf("place order: %w", err)
	}

	m.ledger.ClearCart()
	m.ledger.AddOrder(stored)

	metrics.OrdersTotal.WithLabelValues("placed").Inc()
	metrics.OrderAmount.Observe(totals.Total.Float64())

	log.WithFields(log.Fields{
		"order_id":  stored.ID,
		"reference": stored.Reference(),
	}).Info("Order placed")

	return stored, nil
}

// Approve moves a Pending order to Approved
func (m *Manager) Approve(ctx context.Context, id string) (models.Order, error) {
	return m.transition(ctx, id, models.OrderStatusApproved)
}

// Reject moves a Pending order to Rejected
func (m *Manager) Reject(ctx context.Context, id string) (models.Order, error) {
	return m.transition(ctx, id, models.OrderStatusRejected)
}

func (m *Manager) transition(ctx context.Context, id string, to models.OrderStatus) (models.Order, error) {
	current, ok := m.ledger.Order(id)
	if !ok {
		return models.Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	if !models.CanTransition(current.Status, to) {
		return models.Order{}, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current.Status, to)
	}

	stored, err := m.remote.UpdateOrderStatus(ctx, id, to)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return models.Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
		}
		return models.Order{}, fmt.Errorf("update order %s: %w", id, err)
	}

	m.ledger.SetOrderStatus(id, stored.Status)
	metrics.OrdersTotal.WithLabelValues(string(to)).Inc()

	log.WithFields(log.Fields{
		"order_id": id,
		"from":     current.Status,
		"to":       stored.Status,
	}).Info("Order status changed")

	return stored, nil
}

// Revenue sums the totals of approved orders. Unparsable totals are
// skipped and logged.
func Revenue(orders []models.Order) money.Money {
	sum := money.Zero
	for _, o := range orders {
		if o.Status != models.OrderStatusApproved {
			continue
		}
		total, err := money.Parse(o.Total)
		if err != nil {
			log.WithField("order_id", o.ID).WithError(err).Warn("Skipping order with unreadable total")
			continue
		}
		sum = sum.Add(total)
	}
	return sum
}
