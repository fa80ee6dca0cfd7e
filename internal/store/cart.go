package store

import (
	"context"

	"github.com/atinyakov/grocerease/internal/models"
)

// AddToCart adds one unit of p. It requires an active session.
func (s *Store) AddToCart(p models.Product) bool {
	err := s.update(context.Background(), func(st State) (State, []Effect, error) {
		return addToCart(st, p)
	})
	if err != nil {
		s.fail("addToCart", err)
		return false
	}
	return true
}

// RemoveFromCart drops the line for id. Unknown ids are ignored.
func (s *Store) RemoveFromCart(id models.ID) {
	s.apply(func(st State) (State, []Effect) { return removeFromCart(st, id) })
}

// IncrementQuantity adds one unit to the line for id.
func (s *Store) IncrementQuantity(id models.ID) {
	s.apply(func(st State) (State, []Effect) { return incrementQuantity(st, id), nil })
}

// DecrementQuantity removes one unit from the line for id, dropping the
// line when it reaches zero.
func (s *Store) DecrementQuantity(id models.ID) {
	s.apply(func(st State) (State, []Effect) { return decrementQuantity(st, id), nil })
}

// ClearCart empties the cart.
func (s *Store) ClearCart() {
	s.apply(func(st State) (State, []Effect) { return clearCart(st), nil })
}

func (s *Store) apply(fn func(State) (State, []Effect)) {
	_ = s.update(context.Background(), func(st State) (State, []Effect, error) {
		next, effects := fn(st)
		return next, effects, nil
	})
}
