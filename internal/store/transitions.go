package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/atinyakov/grocerease/internal/models"
)

// Effect is a side effect requested by a transition. The store runs
// effects after the new state has been committed.
type Effect interface {
	effect()
}

// Notice asks for a user-facing notification.
type Notice struct {
	Kind    Kind
	Message string
}

// FetchOrders asks for a background order history refresh bound to the
// session that requested it.
type FetchOrders struct {
	Email string
	epoch uint64
}

func (Notice) effect()      {}
func (FetchOrders) effect() {}

const (
	msgUserNotFound      = "User not found. Please sign up."
	msgIncorrectPassword = "Incorrect password."
	msgLoginFailed       = "Login failed due to server error."
	msgMissingFields     = "Please fill in all fields."
	msgDuplicateAccount  = "An account with this email already exists."
	msgAccountCreated    = "Account created successfully!"
	msgRegisterFailed    = "Registration failed. Please try again."
	msgLoggedOut         = "Logged out successfully"
	msgLoginToAdd        = "Please login to add items to cart."
	msgAddFailed         = "Could not add item to cart."
	msgItemRemoved       = "Item removed from cart."
	msgLoginToOrder      = "Please login to place an order."
	msgEmptyCart         = "Your cart is empty."
	msgOrderPlaced       = "Order placed successfully!"
	msgOrderFailed       = "Failed to place order."

	errFetchProducts   = "Failed to fetch products"
	errFetchCategories = "Failed to fetch categories"
)

// failureNotice maps a failed action to the message shown to the user.
func failureNotice(op string, err error) Notice {
	msg := msgOrderFailed
	switch op {
	case "login":
		switch {
		case errors.Is(err, ErrNotFound):
			msg = msgUserNotFound
		case errors.Is(err, ErrInvalidCredentials):
			msg = msgIncorrectPassword
		case errors.Is(err, ErrInvalidInput):
			msg = msgMissingFields
		default:
			msg = msgLoginFailed
		}
	case "register":
		switch {
		case errors.Is(err, ErrDuplicateAccount):
			msg = msgDuplicateAccount
		case errors.Is(err, ErrInvalidInput):
			msg = msgMissingFields
		default:
			msg = msgRegisterFailed
		}
	case "addToCart":
		msg = msgAddFailed
		if errors.Is(err, ErrUnauthorized) {
			msg = msgLoginToAdd
		}
	case "checkout":
		switch {
		case errors.Is(err, ErrUnauthorized):
			msg = msgLoginToOrder
		case errors.Is(err, ErrInvalidInput):
			msg = msgEmptyCart
		}
	}
	return Notice{Kind: KindError, Message: msg}
}

// authenticate checks password against the accounts found for an email.
func authenticate(users []models.User, password string) (models.User, error) {
	if len(users) == 0 {
		return models.User{}, ErrNotFound
	}
	if users[0].Password != password {
		return models.User{}, ErrInvalidCredentials
	}
	return users[0], nil
}

func requireFields(fields ...string) error {
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return ErrInvalidInput
		}
	}
	return nil
}

// startSession makes u the active user. Switching to another account
// drops the previous user's cart and order history.
func startSession(s State, u models.User) State {
	next := s.clone()
	if s.User == nil || s.User.Email != u.Email {
		next.CartItems = []models.CartItem{}
		next.Orders = []models.Order{}
	}
	next.IsLoggedIn = true
	next.User = &u
	next.epoch++
	return next
}

func loggedIn(s State, u models.User) (State, []Effect) {
	next := startSession(s, u)
	return next, []Effect{
		Notice{Kind: KindSuccess, Message: fmt.Sprintf("Welcome back, %s!", u.Name)},
		FetchOrders{Email: u.Email, epoch: next.epoch},
	}
}

func registered(s State, u models.User) (State, []Effect) {
	return startSession(s, u), []Effect{Notice{Kind: KindSuccess, Message: msgAccountCreated}}
}

func loggedOut(s State) (State, []Effect) {
	next := s.clone()
	next.IsLoggedIn = false
	next.User = nil
	next.CartItems = []models.CartItem{}
	next.Orders = []models.Order{}
	next.epoch++
	return next, []Effect{Notice{Kind: KindInfo, Message: msgLoggedOut}}
}

func catalogStarted(s State) State {
	next := s.clone()
	next.loading++
	next.IsLoading = true
	return next
}

func catalogDone(next State) State {
	if next.loading > 0 {
		next.loading--
	}
	next.IsLoading = next.loading > 0
	return next
}

func productsLoaded(s State, products []models.Product) State {
	next := catalogDone(s.clone())
	next.Products = append([]models.Product{}, products...)
	next.Error = ""
	return next
}

func categoriesLoaded(s State, categories []models.Category) State {
	next := catalogDone(s.clone())
	next.Categories = append([]models.Category{}, categories...)
	next.Error = ""
	return next
}

func catalogFailed(s State, message string) State {
	next := catalogDone(s.clone())
	next.Error = message
	return next
}

func addToCart(s State, p models.Product) (State, []Effect, error) {
	if !s.IsLoggedIn {
		return s, nil, ErrUnauthorized
	}
	if p.ID == "" {
		return s, nil, fmt.Errorf("%w: product has no id", ErrInvalidInput)
	}
	next := s.clone()
	if i := next.indexOf(p.ID); i >= 0 {
		next.CartItems[i].Quantity++
	} else {
		next.CartItems = append(next.CartItems, models.CartItem{Product: p, Quantity: 1})
	}
	return next, []Effect{Notice{Kind: KindSuccess, Message: fmt.Sprintf("%s added to cart!", p.Name)}}, nil
}

func removeFromCart(s State, id models.ID) (State, []Effect) {
	i := s.indexOf(id)
	if i < 0 {
		return s, nil
	}
	next := s.clone()
	next.CartItems = append(next.CartItems[:i], next.CartItems[i+1:]...)
	return next, []Effect{Notice{Kind: KindInfo, Message: msgItemRemoved}}
}

func incrementQuantity(s State, id models.ID) State {
	i := s.indexOf(id)
	if i < 0 {
		return s
	}
	next := s.clone()
	next.CartItems[i].Quantity++
	return next
}

// decrementQuantity removes the line once its quantity would reach zero.
func decrementQuantity(s State, id models.ID) State {
	i := s.indexOf(id)
	if i < 0 {
		return s
	}
	next := s.clone()
	if next.CartItems[i].Quantity <= 1 {
		next.CartItems = append(next.CartItems[:i], next.CartItems[i+1:]...)
		return next
	}
	next.CartItems[i].Quantity--
	return next
}

func clearCart(s State) State {
	next := s.clone()
	next.CartItems = []models.CartItem{}
	return next
}

func orderPlaced(s State, o models.Order) (State, []Effect) {
	next := s.clone()
	next.Orders = append([]models.Order{o}, next.Orders...)
	next.CartItems = []models.CartItem{}
	return next, []Effect{Notice{Kind: KindSuccess, Message: msgOrderPlaced}}
}

func ordersLoaded(s State, orders []models.Order) State {
	next := s.clone()
	next.Orders = sortOrders(orders)
	return next
}

// sortOrders returns a copy newest first. Orders with unparsable dates
// keep their relative order after the dated ones.
func sortOrders(orders []models.Order) []models.Order {
	out := append([]models.Order{}, orders...)
	sort.SliceStable(out, func(i, j int) bool {
		ti, iok := out[i].Time()
		tj, jok := out[j].Time()
		if iok && jok {
			return ti.After(tj)
		}
		return iok && !jok
	})
	return out
}

// newOrder builds the order for the current cart.
func newOrder(s State, shipping models.ShippingDetails, now time.Time) models.Order {
	if shipping.Email == "" {
		shipping.Email = s.User.Email
	}
	items := append([]models.CartItem{}, s.CartItems...)
	return models.Order{
		UserEmail:       s.User.Email,
		Date:            now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Items:           items,
		TotalAmount:     models.CartTotal(items),
		ShippingDetails: shipping,
		Status:          models.StatusProcessing,
	}
}
