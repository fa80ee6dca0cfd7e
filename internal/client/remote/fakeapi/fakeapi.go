// Package fakeapi serves an in-memory implementation of the remote data
// service: users, products, categories and orders with json-server style
// query filters. It backs tests and the shell's demo mode.
package fakeapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/atinyakov/grocerease/internal/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Seed is the initial content of the fake service.
type Seed struct {
	Users      []models.User
	Products   []models.Product
	Categories []models.Category
	Orders     []models.Order
}

// Server is a running fake data service.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	users      []models.User
	products   []models.Product
	categories []models.Category
	orders     []models.Order
	failing    map[string]bool
	hook       func(r *http.Request)
	log        *zap.Logger
}

// New starts a fake service holding seed. Close it when done.
func New(seed Seed, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		users:      append([]models.User(nil), seed.Users...),
		products:   append([]models.Product(nil), seed.Products...),
		categories: append([]models.Category(nil), seed.Categories...),
		orders:     append([]models.Order(nil), seed.Orders...),
		failing:    map[string]bool{},
		log:        log,
	}
	s.Server = httptest.NewServer(s.Router())
	return s
}

// Router returns the chi router serving the resources.
//
// Routes:
//
//	GET  /users?email=       → list users, optionally filtered
//	POST /users              → create user
//	GET  /products           → list products
//	GET  /categories         → list categories
//	GET  /orders?userEmail=  → list orders, optionally filtered
//	POST /orders             → create order
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.faults)

	r.Get("/users", s.listUsers)
	r.Post("/users", s.createUser)
	r.Get("/products", s.listProducts)
	r.Get("/categories", s.listCategories)
	r.Get("/orders", s.listOrders)
	r.Post("/orders", s.createOrder)
	return r
}

// Fail makes every request to path answer 500 until Recover is called.
func (s *Server) Fail(path string) {
	s.mu.Lock()
	s.failing[path] = true
	s.mu.Unlock()
}

// Recover undoes Fail.
func (s *Server) Recover(path string) {
	s.mu.Lock()
	delete(s.failing, path)
	s.mu.Unlock()
}

// OnRequest registers fn to run before each request is handled. Tests use
// it to interleave other work at the suspension point of a remote call.
func (s *Server) OnRequest(fn func(r *http.Request)) {
	s.mu.Lock()
	s.hook = fn
	s.mu.Unlock()
}

// Users returns a copy of the stored users.
func (s *Server) Users() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.User(nil), s.users...)
}

// Orders returns a copy of the stored orders.
func (s *Server) Orders() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Order(nil), s.orders...)
}

func (s *Server) faults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		failing := s.failing[r.URL.Path]
		hook := s.hook
		s.mu.Unlock()

		if hook != nil {
			hook(r)
		}
		if failing {
			s.log.Debug("injected failure", zap.String("path", r.URL.Path))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	s.mu.Lock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		if email == "" || u.Email == email {
			out = append(out, u)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil || u.Email == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	u.ID = models.ID(uuid.NewString())
	s.mu.Lock()
	s.users = append(s.users, u)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) listProducts(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := append(make([]models.Product, 0, len(s.products)), s.products...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listCategories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := append(make([]models.Category, 0, len(s.categories)), s.categories...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("userEmail")
	s.mu.Lock()
	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if email == "" || o.UserEmail == email {
			out = append(out, o)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var o models.Order
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	o.ID = models.ID(uuid.NewString())
	s.mu.Lock()
	s.orders = append(s.orders, o)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, o)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
