package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/atinyakov/grocerease/internal/models"
	"go.uber.org/zap"
)

// PlaceOrder submits order. When the service accepts it the returned
// record is prepended to the history and the cart is cleared. If the
// session ended while the request was in flight the local result is
// dropped, but the order exists remotely and PlaceOrder still reports true.
func (s *Store) PlaceOrder(ctx context.Context, order models.Order) bool {
	return s.placeOrder(ctx, order, s.epoch())
}

func (s *Store) placeOrder(ctx context.Context, order models.Order, epoch uint64) bool {
	created, err := s.remote.CreateOrder(ctx, order)
	if err != nil {
		s.fail("placeOrder", networkFailure(err))
		return false
	}

	err = s.update(ctx, func(st State) (State, []Effect, error) {
		if st.epoch != epoch {
			return st, nil, errStaleSession
		}
		next, effects := orderPlaced(st, created)
		return next, effects, nil
	})
	if errors.Is(err, errStaleSession) {
		s.log.Warn("dropping order result for an ended session", zap.String("order", string(created.ID)))
	}
	return true
}

// Checkout places an order for the current cart, shipped to shipping.
// An empty shipping email defaults to the user's. An empty cart is
// rejected.
func (s *Store) Checkout(ctx context.Context, shipping models.ShippingDetails) bool {
	st := s.State()
	if !st.IsLoggedIn || st.User == nil {
		s.fail("checkout", ErrUnauthorized)
		return false
	}
	if len(st.CartItems) == 0 {
		s.fail("checkout", fmt.Errorf("%w: cart is empty", ErrInvalidInput))
		return false
	}
	return s.placeOrder(ctx, newOrder(st, shipping, s.now()), st.epoch)
}

// FetchOrders replaces the order history with the orders of email,
// newest first. Failures are logged and leave the history unchanged.
func (s *Store) FetchOrders(ctx context.Context, email string) {
	s.fetchOrders(ctx, email, s.epoch())
}

func (s *Store) fetchOrders(ctx context.Context, email string, epoch uint64) {
	orders, err := s.remote.ListOrders(ctx, email)
	if err != nil {
		s.log.Warn("failed to fetch orders", zap.String("email", email), zap.Error(networkFailure(err)))
		return
	}

	err = s.update(ctx, func(st State) (State, []Effect, error) {
		if st.epoch != epoch {
			return st, nil, errStaleSession
		}
		return ordersLoaded(st, orders), nil, nil
	})
	if errors.Is(err, errStaleSession) {
		s.log.Debug("dropping orders for an ended session", zap.String("email", email))
	}
}
