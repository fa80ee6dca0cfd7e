package store

import (
	"context"

	"go.uber.org/zap"
)

// FetchProducts replaces the cached product list. IsLoading stays set
// while any catalog fetch is in flight; a failure keeps the previous list
// and records Error.
func (s *Store) FetchProducts(ctx context.Context) bool {
	s.begin(ctx)
	products, err := s.remote.ListProducts(ctx)
	if err != nil {
		s.log.Warn("failed to fetch products", zap.Error(networkFailure(err)))
		s.finish(ctx, func(st State) State { return catalogFailed(st, errFetchProducts) })
		return false
	}
	s.finish(ctx, func(st State) State { return productsLoaded(st, products) })
	return true
}

// FetchCategories replaces the cached category list.
func (s *Store) FetchCategories(ctx context.Context) bool {
	s.begin(ctx)
	categories, err := s.remote.ListCategories(ctx)
	if err != nil {
		s.log.Warn("failed to fetch categories", zap.Error(networkFailure(err)))
		s.finish(ctx, func(st State) State { return catalogFailed(st, errFetchCategories) })
		return false
	}
	s.finish(ctx, func(st State) State { return categoriesLoaded(st, categories) })
	return true
}

func (s *Store) begin(ctx context.Context) {
	_ = s.update(ctx, func(st State) (State, []Effect, error) {
		return catalogStarted(st), nil, nil
	})
}

func (s *Store) finish(ctx context.Context, fn func(State) State) {
	_ = s.update(ctx, func(st State) (State, []Effect, error) {
		return fn(st), nil, nil
	})
}
