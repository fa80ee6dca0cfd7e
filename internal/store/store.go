// Package store is the client-side state container of the storefront:
// session, catalog cache, cart ledger and order history. Every mutation is
// a pure transition over State, committed atomically, persisted and then
// followed by its side effects.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/atinyakov/grocerease/internal/client/storage"
	"github.com/atinyakov/grocerease/internal/models"
	"go.uber.org/zap"
)

// Remote is the data service the store reads from and writes to.
type Remote interface {
	FindUsersByEmail(ctx context.Context, email string) ([]models.User, error)
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateOrder(ctx context.Context, o models.Order) (models.Order, error)
	ListOrders(ctx context.Context, userEmail string) ([]models.Order, error)
}

// Persister keeps the persisted projection of the state.
type Persister interface {
	Load(ctx context.Context) (storage.Snapshot, bool, error)
	Save(ctx context.Context, s storage.Snapshot) error
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now for order and registration dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is safe for concurrent use.
type Store struct {
	remote    Remote
	persister Persister
	notifier  Notifier
	log       *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	state   State
	seq     uint64
	subs    map[int]func(State)
	nextSub int

	// persistMu orders snapshot writes; savedSeq is the last written commit.
	persistMu sync.Mutex
	savedSeq  uint64

	// publishMu orders deliveries; publishedSeq is the last delivered commit.
	publishMu    sync.Mutex
	publishedSeq uint64

	bg sync.WaitGroup
}

// New creates a store in the initial state. A nil notifier or logger is
// replaced with a no-op. Call Restore to load the persisted session.
func New(remote Remote, persister Persister, notifier Notifier, log *zap.Logger, opts ...Option) *Store {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		remote:    remote,
		persister: persister,
		notifier:  notifier,
		log:       log,
		now:       time.Now,
		state:     Initial(),
		subs:      map[int]func(State){},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads the persisted snapshot. A missing snapshot leaves the
// initial state; an unreadable one is logged and discarded.
func (s *Store) Restore(ctx context.Context) {
	snap, ok, err := s.persister.Load(ctx)
	next := Initial()
	switch {
	case err != nil:
		if errors.Is(err, storage.ErrInvalidSnapshot) {
			err = errors.Join(ErrValidation, err)
		}
		s.log.Warn("discarding persisted state", zap.Error(err))
	case ok:
		next = restored(snap)
	}

	s.mu.Lock()
	next.epoch = s.state.epoch + 1
	s.state = next
	s.seq++
	seq := s.seq
	view, subs := next.clone(), s.subscribers()
	s.mu.Unlock()

	s.publish(seq, view, subs)
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// CartTotal is the sum of price times quantity over the cart.
func (s *Store) CartTotal() models.Amount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CartTotal(s.state.CartItems)
}

// CartCount is the number of units in the cart.
func (s *Store) CartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.state.CartItems {
		n += it.Quantity
	}
	return n
}

// Subscribe registers fn to receive committed states in commit order. A
// commit overtaken by a newer one before delivery is skipped. fn runs on the
// committing goroutine and must not call back into the store's mutators.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Wait blocks until background fetches started by the store have finished.
func (s *Store) Wait() {
	s.bg.Wait()
}

func (s *Store) epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.epoch
}

// update applies fn to the current state atomically. On success the new
// state is persisted, published and its effects run. An error from fn
// leaves the state untouched and is returned as is.
func (s *Store) update(ctx context.Context, fn func(State) (State, []Effect, error)) error {
	s.mu.Lock()
	next, effects, err := fn(s.state)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = next
	s.seq++
	seq := s.seq
	snap := next.snapshot()
	view, subs := next.clone(), s.subscribers()
	s.mu.Unlock()

	s.persist(ctx, seq, snap)
	s.publish(seq, view, subs)
	s.dispatch(ctx, effects)
	return nil
}

func (s *Store) persist(ctx context.Context, seq uint64, snap storage.Snapshot) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if seq <= s.savedSeq {
		return
	}
	s.savedSeq = seq
	if err := s.persister.Save(context.WithoutCancel(ctx), snap); err != nil {
		s.log.Error("failed to persist state", zap.Error(err))
	}
}

func (s *Store) subscribers() []func(State) {
	out := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func (s *Store) publish(seq uint64, view State, subs []func(State)) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	if seq <= s.publishedSeq {
		return
	}
	s.publishedSeq = seq
	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("subscriber panicked", zap.Any("panic", r))
				}
			}()
			fn(view.clone())
		}()
	}
}

func (s *Store) dispatch(ctx context.Context, effects []Effect) {
	for _, e := range effects {
		switch e := e.(type) {
		case Notice:
			s.notify(e)
		case FetchOrders:
			bgCtx := context.WithoutCancel(ctx)
			s.bg.Add(1)
			go func() {
				defer s.bg.Done()
				s.fetchOrders(bgCtx, e.Email, e.epoch)
			}()
		}
	}
}

func (s *Store) notify(n Notice) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("notifier panicked", zap.Any("panic", r))
		}
	}()
	if err := s.notifier.Notify(n.Kind, n.Message); err != nil {
		s.log.Warn("notification failed", zap.String("message", n.Message), zap.Error(err))
	}
}

// fail logs a failed action and notifies the user.
func (s *Store) fail(op string, err error) {
	s.log.Warn("action failed", zap.String("action", op), zap.Error(err))
	s.notify(failureNotice(op, err))
}
