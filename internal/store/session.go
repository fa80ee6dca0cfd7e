package store

import (
	"context"

	"github.com/atinyakov/grocerease/internal/models"
	"go.uber.org/zap"
)

// Login authenticates against the remote user records. On success the
// session starts and the user's order history is fetched in the background.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	if err := requireFields(email, password); err != nil {
		s.fail("login", err)
		return false
	}

	users, err := s.remote.FindUsersByEmail(ctx, email)
	if err != nil {
		s.fail("login", networkFailure(err))
		return false
	}
	user, err := authenticate(users, password)
	if err != nil {
		s.fail("login", err)
		return false
	}

	_ = s.update(ctx, func(st State) (State, []Effect, error) {
		next, effects := loggedIn(st, user)
		return next, effects, nil
	})
	s.log.Info("user logged in", zap.String("email", user.Email))
	return true
}

// Register creates an account and starts a session for it.
func (s *Store) Register(ctx context.Context, name, email, password string) bool {
	if err := requireFields(name, email, password); err != nil {
		s.fail("register", err)
		return false
	}

	existing, err := s.remote.FindUsersByEmail(ctx, email)
	if err != nil {
		s.fail("register", networkFailure(err))
		return false
	}
	if len(existing) > 0 {
		s.fail("register", ErrDuplicateAccount)
		return false
	}

	created, err := s.remote.CreateUser(ctx, models.User{
		Name:     name,
		Email:    email,
		Password: password,
		Joined:   s.now().Format(models.JoinedLayout),
	})
	if err != nil {
		s.fail("register", networkFailure(err))
		return false
	}

	_ = s.update(ctx, func(st State) (State, []Effect, error) {
		next, effects := registered(st, created)
		return next, effects, nil
	})
	s.log.Info("user registered", zap.String("email", created.Email))
	return true
}

// Logout ends the session and clears the cart and order history.
func (s *Store) Logout() {
	_ = s.update(context.Background(), func(st State) (State, []Effect, error) {
		next, effects := loggedOut(st)
		return next, effects, nil
	})
}
