package store

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartAutoRefresh refetches the catalog every interval, and the order
// history while a user is logged in, until ctx is cancelled.
func (s *Store) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.log.Debug("auto refresh stopped")
				return
			case <-ticker.C:
				s.Refresh(ctx)
			}
		}
	}()
}

// Refresh refetches the catalog and, for a logged-in user, the order history.
func (s *Store) Refresh(ctx context.Context) {
	s.FetchProducts(ctx)
	s.FetchCategories(ctx)

	st := s.State()
	if st.IsLoggedIn && st.User != nil {
		s.fetchOrders(ctx, st.User.Email, st.epoch)
	}
	s.log.Debug("refreshed store", zap.Bool("logged_in", st.IsLoggedIn))
}
