package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
)

const (
	opAdd         = "add"
	opSetQuantity = "set_quantity"
	opRemove      = "remove"
	opClear       = "clear"
	opConfirm     = "confirm"

	resultOK       = "ok"
	resultRejected = "rejected"
)

// Service exposes cart operations scoped to a cart session.
type Service interface {
	GetCart(ctx context.Context, sessionID string) (Aggregate, error)
	AddItem(ctx context.Context, sessionID string, product Product, quantity int) (Aggregate, error)
	SetQuantity(ctx context.Context, sessionID, productID string, quantity int) (Aggregate, error)
	RemoveItem(ctx context.Context, sessionID, productID string) (Aggregate, error)
	Clear(ctx context.Context, sessionID string) (Aggregate, error)
	CheckoutSnapshot(ctx context.Context, sessionID string) (CheckoutSnapshot, error)
	ConfirmOrder(ctx context.Context, sessionID string) error
}

type ServiceParams struct {
	Bridge   *Bridge
	Registry *Registry
	Logger   *logger.Logger
	Metrics  *metrics.CartMetrics
}

type service struct {
	bridge   *Bridge
	registry *Registry
	logg     *logger.Logger
	metrics  *metrics.CartMetrics
	now      func() time.Time
}

// NewService builds the cart service.
func NewService(params ServiceParams) (Service, error) {
	if params.Bridge == nil {
		return nil, fmt.Errorf("cart bridge required")
	}
	if params.Registry == nil {
		return nil, fmt.Errorf("cart registry required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		bridge:   params.Bridge,
		registry: params.Registry,
		logg:     logg,
		metrics:  params.Metrics,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) GetCart(ctx context.Context, sessionID string) (Aggregate, error) {
	var agg Aggregate
	err := s.withCart(ctx, sessionID, func(ctx context.Context, c *Cart, _ *entry) error {
		agg = c.Snapshot()
		return nil
	})
	return agg, err
}

func (s *service) AddItem(ctx context.Context, sessionID string, product Product, quantity int) (Aggregate, error) {
	ctx = s.logg.WithProductID(ctx, product.ID)
	return s.mutate(ctx, sessionID, opAdd, func(c *Cart) error {
		return c.AddItem(product, quantity)
	})
}

func (s *service) SetQuantity(ctx context.Context, sessionID, productID string, quantity int) (Aggregate, error) {
	ctx = s.logg.WithProductID(ctx, productID)
	return s.mutate(ctx, sessionID, opSetQuantity, func(c *Cart) error {
		return c.SetQuantity(productID, quantity)
	})
}

func (s *service) RemoveItem(ctx context.Context, sessionID, productID string) (Aggregate, error) {
	ctx = s.logg.WithProductID(ctx, productID)
	return s.mutate(ctx, sessionID, opRemove, func(c *Cart) error {
		c.RemoveItem(productID)
		return nil
	})
}

func (s *service) Clear(ctx context.Context, sessionID string) (Aggregate, error) {
	return s.mutate(ctx, sessionID, opClear, func(c *Cart) error {
		c.Clear()
		return nil
	})
}

func (s *service) CheckoutSnapshot(ctx context.Context, sessionID string) (CheckoutSnapshot, error) {
	var snapshot CheckoutSnapshot
	err := s.withCart(ctx, sessionID, func(_ context.Context, c *Cart, _ *entry) error {
		agg := c.Snapshot()
		if agg.IsEmpty() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
		}
		snapshot = newCheckoutSnapshot(sessionID, agg, s.now())
		return nil
	})
	return snapshot, err
}

// ConfirmOrder discards the cart after the payment provider reports success.
// When the persisted record cannot be deleted the empty cart is written over
// it and the session stays resident so stale items cannot rehydrate.
func (s *service) ConfirmOrder(ctx context.Context, sessionID string) error {
	return s.withCart(ctx, sessionID, func(ctx context.Context, c *Cart, e *entry) error {
		c.Clear()
		s.metrics.IncMutation(opConfirm, resultOK)

		if err := s.bridge.Clear(ctx, sessionID); err != nil {
			s.metrics.IncPersistFailure(opConfirm)
			s.logg.WarnErr(ctx, "cart.persist.clear_failed", err)
			s.persist(ctx, e, sessionID, opConfirm, c.Snapshot())
			return nil
		}
		s.registry.drop(sessionID, e)
		s.logg.Info(ctx, "cart.order.confirmed")
		return nil
	})
}

func (s *service) mutate(ctx context.Context, sessionID, op string, fn func(*Cart) error) (Aggregate, error) {
	var agg Aggregate
	err := s.withCart(ctx, sessionID, func(ctx context.Context, c *Cart, e *entry) error {
		if err := fn(c); err != nil {
			s.metrics.IncMutation(op, resultRejected)
			return err
		}
		s.metrics.IncMutation(op, resultOK)
		agg = c.Snapshot()
		s.persist(ctx, e, sessionID, op, agg)
		return nil
	})
	return agg, err
}

// persist writes through to storage. Failures are logged and counted and
// leave the entry dirty so the registry keeps it resident; the in-memory cart
// stays authoritative. The write outlives a cancelled request.
func (s *service) persist(ctx context.Context, e *entry, sessionID, op string, agg Aggregate) {
	if err := s.bridge.Save(context.WithoutCancel(ctx), sessionID, agg); err != nil {
		s.registry.markDirty(e, true)
		s.metrics.IncPersistFailure(op)
		s.logg.WarnErr(s.logg.WithField(ctx, "op", op), "cart.persist.failed", err)
		return
	}
	s.registry.markDirty(e, false)
}

func (s *service) withCart(ctx context.Context, sessionID string, fn func(context.Context, *Cart, *entry) error) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session id is required")
	}
	ctx = s.logg.WithSessionID(ctx, sessionID)

	e := s.lockEntry(sessionID)
	defer s.registry.release(e)
	defer e.mu.Unlock()

	if !e.hydrated {
		c, err := Restore(s.bridge.Load(ctx, sessionID))
		if err != nil {
			s.logg.WarnErr(ctx, "cart.hydrate.discarded", err)
			c = New()
		}
		e.cart = c
		e.hydrated = true
	}
	return fn(ctx, e.cart, e)
}

// lockEntry returns the session's current entry, pinned and locked. An entry
// dropped while this request waited on its lock is abandoned for a fresh one.
func (s *service) lockEntry(sessionID string) *entry {
	for {
		e := s.registry.acquire(sessionID)
		e.mu.Lock()
		if !s.registry.isDropped(e) {
			return e
		}
		e.mu.Unlock()
		s.registry.release(e)
	}
}
