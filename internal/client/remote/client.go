// Package remote is the request/response boundary to the remote data
// service. It holds no state besides its HTTP client.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/atinyakov/grocerease/internal/models"
	"go.uber.org/zap"
)

const (
	pathUsers      = "/users"
	pathProducts   = "/products"
	pathCategories = "/categories"
	pathOrders     = "/orders"
)

// maxErrorBody caps how much of a failed response is kept in StatusError.
const maxErrorBody = 1 << 10

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error: %d %s", e.Code, e.Body)
}

// Client calls the resource-oriented endpoints of the data service.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// New returns a Client for baseURL. A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     log,
	}
}

// FindUsersByEmail returns the accounts registered with email. An empty
// slice means no account exists.
func (c *Client) FindUsersByEmail(ctx context.Context, email string) ([]models.User, error) {
	var users []models.User
	q := url.Values{"email": {email}}
	if err := c.do(ctx, http.MethodGet, pathUsers, q, nil, &users); err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return users, nil
}

// CreateUser stores u and returns the created record with its id.
func (c *Client) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	var created models.User
	if err := c.do(ctx, http.MethodPost, pathUsers, nil, u, &created); err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// ListProducts returns the full product catalog.
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.do(ctx, http.MethodGet, pathProducts, nil, nil, &products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// ListCategories returns every catalog category.
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := c.do(ctx, http.MethodGet, pathCategories, nil, nil, &categories); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// CreateOrder submits o and returns the server-confirmed order.
func (c *Client) CreateOrder(ctx context.Context, o models.Order) (models.Order, error) {
	var created models.Order
	if err := c.do(ctx, http.MethodPost, pathOrders, nil, o, &created); err != nil {
		return models.Order{}, fmt.Errorf("create order: %w", err)
	}
	return created, nil
}

// ListOrders returns the orders of userEmail in no particular order.
func (c *Client) ListOrders(ctx context.Context, userEmail string) ([]models.Order, error) {
	var orders []models.Order
	q := url.Values{"userEmail": {userEmail}}
	if err := c.do(ctx, http.MethodGet, pathOrders, q, nil, &orders); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.Debug("undecodable response", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}
