package store

import (
	"github.com/atinyakov/grocerease/internal/client/storage"
	"github.com/atinyakov/grocerease/internal/models"
)

// State is one immutable snapshot of everything the store holds. A new
// State is produced by every commit; callers only ever get copies.
type State struct {
	IsLoggedIn bool
	User       *models.User

	Products   []models.Product
	Categories []models.Category
	IsLoading  bool
	Error      string

	CartItems []models.CartItem
	Orders    []models.Order

	// loading counts catalog fetches in flight.
	loading int
	// epoch changes whenever the session identity changes.
	epoch uint64
}

// Initial returns the empty logged-out state.
func Initial() State {
	return State{
		Products:   []models.Product{},
		Categories: []models.Category{},
		CartItems:  []models.CartItem{},
		Orders:     []models.Order{},
	}
}

func (s State) clone() State {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	out.Products = append([]models.Product{}, s.Products...)
	out.Categories = append([]models.Category{}, s.Categories...)
	out.CartItems = append([]models.CartItem{}, s.CartItems...)
	out.Orders = make([]models.Order, len(s.Orders))
	for i, o := range s.Orders {
		o.Items = append([]models.CartItem{}, o.Items...)
		out.Orders[i] = o
	}
	return out
}

// snapshot projects the persisted subset of s.
func (s State) snapshot() storage.Snapshot {
	snap := storage.Snapshot{
		IsLoggedIn: s.IsLoggedIn,
		CartItems:  append([]models.CartItem{}, s.CartItems...),
	}
	if s.User != nil {
		u := *s.User
		snap.User = &u
	}
	return snap
}

// restored merges a persisted snapshot into the initial state. Catalog and
// order history always start empty.
func restored(snap storage.Snapshot) State {
	s := Initial()
	s.IsLoggedIn = snap.IsLoggedIn && snap.User != nil
	if s.IsLoggedIn {
		u := *snap.User
		s.User = &u
	}
	s.CartItems = append(s.CartItems, snap.CartItems...)
	return s
}

func (s State) indexOf(id models.ID) int {
	for i, it := range s.CartItems {
		if it.ID == id {
			return i
		}
	}
	return -1
}
