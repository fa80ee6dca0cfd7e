package store

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/atinyakov/grocerease/internal/client/remote"
	"github.com/atinyakov/grocerease/internal/client/remote/fakeapi"
	"github.com/atinyakov/grocerease/internal/client/storage"
	"github.com/atinyakov/grocerease/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type notice struct {
	kind    Kind
	message string
}

type recorder struct {
	mu  sync.Mutex
	got []notice
}

func (r *recorder) Notify(kind Kind, message string) error {
	r.mu.Lock()
	r.got = append(r.got, notice{kind, message})
	r.mu.Unlock()
	return nil
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.got))
	for i, n := range r.got {
		out[i] = n.message
	}
	return out
}

type fixture struct {
	api   *fakeapi.Server
	disk  *storage.MemoryStorage
	notes *recorder
	logs  *observer.ObservedLogs
	store *Store
}

func seed() fakeapi.Seed {
	return fakeapi.Seed{
		Users:      []models.User{alice},
		Products:   []models.Product{apple, banana},
		Categories: []models.Category{{ID: "c1", Name: "Fruit"}},
		Orders: []models.Order{
			{ID: "o-jan", UserEmail: "a@x", Date: "2024-01-10T09:00:00.000Z", Status: models.StatusDelivered},
			{ID: "o-other", UserEmail: "b@x", Date: "2024-02-10T09:00:00.000Z"},
			{ID: "o-mar", UserEmail: "a@x", Date: "2024-03-10T09:00:00.000Z", Status: models.StatusShipping},
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	api := fakeapi.New(seed(), nil)
	t.Cleanup(api.Close)

	core, logs := observer.New(zap.DebugLevel)
	f := &fixture{
		api:   api,
		disk:  storage.NewMemoryStorage(),
		notes: &recorder{},
		logs:  logs,
	}
	client := remote.New(api.URL, api.Client(), zap.NewNop())
	f.store = New(client, f.disk, f.notes, zap.New(core),
		WithClock(func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }),
	)
	t.Cleanup(f.store.Wait)
	return f
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	require.True(t, f.store.Login(context.Background(), "a@x", "pw"))
	f.store.Wait()
}

func orderIDs(orders []models.Order) []models.ID {
	ids := make([]models.ID, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	return ids
}

func TestLogin_FetchesOrdersNewestFirst(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	st := f.store.State()
	assert.True(t, st.IsLoggedIn)
	require.NotNil(t, st.User)
	assert.Equal(t, "Alice", st.User.Name)
	assert.Equal(t, []models.ID{"o-mar", "o-jan"}, orderIDs(st.Orders))
	assert.Contains(t, f.notes.messages(), "Welcome back, Alice!")
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		fail     bool
		want     string
	}{
		{"wrong password", "a@x", "nope", false, "Incorrect password."},
		{"unknown email", "zed@x", "pw", false, "User not found. Please sign up."},
		{"empty password", "a@x", "", false, "Please fill in all fields."},
		{"server error", "a@x", "pw", true, "Login failed due to server error."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.fail {
				f.api.Fail("/users")
			}

			ok := f.store.Login(context.Background(), tt.email, tt.password)

			assert.False(t, ok)
			st := f.store.State()
			assert.False(t, st.IsLoggedIn)
			assert.Nil(t, st.User)
			assert.Equal(t, []string{tt.want}, f.notes.messages())
			assert.Nil(t, f.disk.Raw(), "nothing committed")
		})
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	ok := f.store.Register(context.Background(), "Carol", "c@x", "secret")

	require.True(t, ok)
	st := f.store.State()
	assert.True(t, st.IsLoggedIn)
	require.NotNil(t, st.User)
	assert.NotEmpty(t, st.User.ID)
	assert.Equal(t, "15 October 2026", st.User.Joined)
	assert.Equal(t, []string{"Account created successfully!"}, f.notes.messages())
	assert.Len(t, f.api.Users(), 2)
}

func TestRegister_Duplicate(t *testing.T) {
	f := newFixture(t)

	ok := f.store.Register(context.Background(), "Alice Again", "a@x", "pw")

	assert.False(t, ok)
	assert.False(t, f.store.State().IsLoggedIn)
	assert.Equal(t, []string{"An account with this email already exists."}, f.notes.messages())
	assert.Len(t, f.api.Users(), 1)
}

func TestLogout_ClearsSession(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	require.True(t, f.store.AddToCart(apple))

	f.store.Logout()

	st := f.store.State()
	assert.False(t, st.IsLoggedIn)
	assert.Empty(t, st.CartItems)
	assert.Empty(t, st.Orders)

	snap, ok, err := f.disk.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, snap.IsLoggedIn)
	assert.Empty(t, snap.CartItems)
}

func TestAddToCart_LoggedOut(t *testing.T) {
	f := newFixture(t)
	before := f.store.State()

	ok := f.store.AddToCart(apple)

	assert.False(t, ok)
	assert.Equal(t, before, f.store.State())
	assert.Equal(t, []string{"Please login to add items to cart."}, f.notes.messages())
}

func TestCart_PersistsEveryCommit(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	require.True(t, f.store.AddToCart(apple))
	require.True(t, f.store.AddToCart(apple))
	f.store.AddToCart(banana)
	f.store.DecrementQuantity("p2")
	f.store.IncrementQuantity("p1")

	assert.Equal(t, 3, f.store.CartCount())
	assert.Equal(t, "30.00", f.store.CartTotal().String())

	snap, ok, err := f.disk.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, snap.CartItems, 1)
	assert.Equal(t, 3, snap.CartItems[0].Quantity)

	f.store.RemoveFromCart("p1")
	f.store.ClearCart()
	snap, _, _ = f.disk.Load(context.Background())
	assert.Empty(t, snap.CartItems)
}

func TestAddToCart_Concurrent(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.store.AddToCart(apple)
		}()
	}
	wg.Wait()

	st := f.store.State()
	require.Len(t, st.CartItems, 1)
	assert.Equal(t, 50, st.CartItems[0].Quantity)

	snap, _, err := f.disk.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, snap.CartItems[0].Quantity, "last commit is the one persisted")
}

func TestFetchCatalog(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.store.FetchProducts(context.Background()))
	require.True(t, f.store.FetchCategories(context.Background()))

	st := f.store.State()
	assert.Equal(t, []models.Product{apple, banana}, st.Products)
	assert.Len(t, st.Categories, 1)
	assert.False(t, st.IsLoading)
	assert.Empty(t, st.Error)
}

func TestFetchProducts_FailureKeepsList(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.store.FetchProducts(context.Background()))

	f.api.Fail("/products")
	assert.False(t, f.store.FetchProducts(context.Background()))

	st := f.store.State()
	assert.Equal(t, []models.Product{apple, banana}, st.Products)
	assert.Equal(t, "Failed to fetch products", st.Error)
	assert.False(t, st.IsLoading)
	assert.Empty(t, f.notes.messages())

	f.api.Recover("/products")
	require.True(t, f.store.FetchProducts(context.Background()))
	assert.Empty(t, f.store.State().Error)
}

func TestFetchProducts_LoadingWhileInFlight(t *testing.T) {
	f := newFixture(t)
	var sawLoading bool
	f.api.OnRequest(func(*http.Request) {
		sawLoading = f.store.State().IsLoading
	})

	f.store.FetchProducts(context.Background())

	assert.True(t, sawLoading)
	assert.False(t, f.store.State().IsLoading)
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.store.AddToCart(apple)
	f.store.AddToCart(apple)

	ok := f.store.Checkout(context.Background(), models.ShippingDetails{FullName: "Alice A", Address: "1 Road"})

	require.True(t, ok)
	st := f.store.State()
	assert.Empty(t, st.CartItems)
	require.Len(t, st.Orders, 3)
	placed := st.Orders[0]
	assert.NotEmpty(t, placed.ID)
	assert.Equal(t, "20.00", placed.TotalAmount.String())
	assert.Equal(t, "2026-10-15T12:00:00.000Z", placed.Date)
	assert.Equal(t, models.StatusProcessing, placed.Status)
	assert.Equal(t, "a@x", placed.ShippingDetails.Email)

	remoteOrders := f.api.Orders()
	assert.Equal(t, placed.ID, remoteOrders[len(remoteOrders)-1].ID)
}

func TestPlaceOrder_SubmitsGivenOrder(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	items := []models.CartItem{{Product: apple, Quantity: 2}}

	ok := f.store.PlaceOrder(context.Background(), models.Order{
		UserEmail:   "a@x",
		Date:        "2026-10-15T12:00:00.000Z",
		Items:       items,
		TotalAmount: models.CartTotal(items),
		Status:      models.StatusProcessing,
	})

	require.True(t, ok)
	st := f.store.State()
	require.Len(t, st.Orders, 3)
	assert.Equal(t, "20.00", st.Orders[0].TotalAmount.String())
	remoteOrders := f.api.Orders()
	require.Len(t, remoteOrders, 4)
	assert.Equal(t, st.Orders[0].ID, remoteOrders[3].ID)
	assert.Equal(t, "20.00", remoteOrders[3].TotalAmount.String())
}

func TestPlaceOrder_AcceptsEmptyCart(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	require.Empty(t, f.store.State().CartItems)

	ok := f.store.PlaceOrder(context.Background(), models.Order{
		UserEmail: "a@x",
		Date:      "2026-10-15T12:00:00.000Z",
	})

	require.True(t, ok)
	st := f.store.State()
	require.Len(t, st.Orders, 3)
	remoteOrders := f.api.Orders()
	require.Len(t, remoteOrders, 4)
	assert.Equal(t, remoteOrders[3].ID, st.Orders[0].ID)
	assert.Empty(t, st.CartItems)
	assert.Contains(t, f.notes.messages(), "Order placed successfully!")
}

func TestPlaceOrder_FailureKeepsCart(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.store.AddToCart(apple)
	f.api.Fail("/orders")

	ok := f.store.Checkout(context.Background(), models.ShippingDetails{FullName: "Alice A", Address: "1 Road"})

	assert.False(t, ok)
	st := f.store.State()
	require.Len(t, st.CartItems, 1)
	assert.Len(t, st.Orders, 2)
	assert.Contains(t, f.notes.messages(), "Failed to place order.")
}

func TestCheckout_Rejected(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.store.Checkout(context.Background(), models.ShippingDetails{}))

	f.login(t)
	assert.False(t, f.store.Checkout(context.Background(), models.ShippingDetails{}))

	assert.Equal(t, []string{"Please login to place an order.", "Welcome back, Alice!", "Your cart is empty."}, f.notes.messages())
	assert.Len(t, f.api.Orders(), 3)
}

func TestPlaceOrder_StaleSession(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.store.AddToCart(apple)

	var once sync.Once
	f.api.OnRequest(func(r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/orders" {
			once.Do(f.store.Logout)
		}
	})

	ok := f.store.Checkout(context.Background(), models.ShippingDetails{FullName: "Alice A", Address: "1 Road"})

	assert.True(t, ok, "the order exists remotely")
	st := f.store.State()
	assert.False(t, st.IsLoggedIn)
	assert.Empty(t, st.Orders)
	assert.Empty(t, st.CartItems)
	assert.Len(t, f.api.Orders(), 4)
	assert.Equal(t, 1, f.logs.FilterMessage("dropping order result for an ended session").Len())
}

func TestFetchOrders_StaleSession(t *testing.T) {
	f := newFixture(t)

	var once sync.Once
	f.api.OnRequest(func(r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/orders" {
			once.Do(f.store.Logout)
		}
	})
	require.True(t, f.store.Login(context.Background(), "a@x", "pw"))
	f.store.Wait()

	st := f.store.State()
	assert.False(t, st.IsLoggedIn)
	assert.Empty(t, st.Orders)
}

func TestFetchOrders_Failure(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.api.Fail("/orders")

	f.store.FetchOrders(context.Background(), "a@x")

	assert.Len(t, f.store.State().Orders, 2)
	assert.Equal(t, 1, f.logs.FilterMessage("failed to fetch orders").Len())
}

func TestRestore(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.store.AddToCart(apple)
	f.store.FetchProducts(context.Background())
	want := f.store.State()

	restoredStore := New(nil, f.disk, nil, nil)
	restoredStore.Restore(context.Background())

	got := restoredStore.State()
	assert.True(t, got.IsLoggedIn)
	assert.Equal(t, want.User, got.User)
	assert.Equal(t, want.CartItems, got.CartItems)
	assert.Empty(t, got.Products)
	assert.Empty(t, got.Categories)
	assert.Empty(t, got.Orders)
	assert.False(t, got.IsLoading)
	assert.Empty(t, got.Error)
}

func TestRestore_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "{{{"},
		{"negative quantity", `{"state":{"isLoggedIn":true,"user":{"id":1,"email":"a@x"},"cartItems":[{"id":"p1","quantity":-2}]},"version":0}`},
		{"logged in without user", `{"state":{"isLoggedIn":true,"user":null,"cartItems":[]},"version":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			disk := storage.NewMemoryStorage()
			disk.SetRaw([]byte(tt.raw))
			core, logs := observer.New(zap.WarnLevel)

			s := New(nil, disk, nil, zap.New(core))
			s.Restore(context.Background())

			assert.Equal(t, Initial().IsLoggedIn, s.State().IsLoggedIn)
			assert.Empty(t, s.State().CartItems)
			require.Equal(t, 1, logs.Len())
			err, ok := logs.All()[0].ContextMap()["error"]
			require.True(t, ok)
			assert.Contains(t, err, ErrValidation.Error())
		})
	}
}

func TestNotifierFailuresAreIgnored(t *testing.T) {
	tests := []struct {
		name     string
		notifier Notifier
	}{
		{"error", NotifierFunc(func(Kind, string) error { return errors.New("toast broke") })},
		{"panic", NotifierFunc(func(Kind, string) error { panic("toast exploded") })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.store.notifier = tt.notifier

			require.True(t, f.store.Login(context.Background(), "a@x", "pw"))
			f.store.Wait()
			assert.True(t, f.store.AddToCart(apple))

			st := f.store.State()
			assert.True(t, st.IsLoggedIn)
			assert.Len(t, st.CartItems, 1)
			assert.Len(t, st.Orders, 2)
		})
	}
}

func TestPersistFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	s := New(nil, failingPersister{}, nil, zap.New(core))
	s.Restore(context.Background())

	s.Logout()

	assert.False(t, s.State().IsLoggedIn)
	assert.Equal(t, 1, logs.FilterMessage("failed to persist state").Len())
}

type failingPersister struct{}

func (failingPersister) Load(context.Context) (storage.Snapshot, bool, error) {
	return storage.Snapshot{}, false, nil
}

func (failingPersister) Save(context.Context, storage.Snapshot) error {
	return errors.New("disk full")
}

func TestSubscribe(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	var got []int
	cancel := f.store.Subscribe(func(st State) {
		got = append(got, len(st.CartItems))
		st.CartItems = nil
	})

	f.store.AddToCart(apple)
	f.store.AddToCart(banana)
	cancel()
	f.store.ClearCart()

	assert.Equal(t, []int{1, 2}, got)
	assert.Len(t, f.store.State().CartItems, 0)
}

func TestSubscribe_DeliversInCommitOrder(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	var (
		mu  sync.Mutex
		got []int
	)
	f.store.Subscribe(func(st State) {
		if len(st.CartItems) == 0 {
			return
		}
		mu.Lock()
		got = append(got, st.CartItems[0].Quantity)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.store.AddToCart(apple)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, got)
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("delivery %d saw quantity %d after %d", i, got[i], got[i-1])
		}
	}
	assert.Equal(t, 50, got[len(got)-1])
}

func TestStateIsACopy(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.store.AddToCart(apple)

	st := f.store.State()
	st.CartItems[0].Quantity = 99
	st.User.Name = "Mallory"

	again := f.store.State()
	assert.Equal(t, 1, again.CartItems[0].Quantity)
	assert.Equal(t, "Alice", again.User.Name)
}

func TestStartAutoRefresh(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.store.StartAutoRefresh(ctx, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		st := f.store.State()
		return len(st.Products) == 2 && len(st.Categories) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Len(t, f.store.State().Orders, 2)
}
