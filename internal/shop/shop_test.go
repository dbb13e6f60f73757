package shop

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alextreichler/storefront/internal/cart"
	"github.com/alextreichler/storefront/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.NewStore(store.DriverSQLite, filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate())
	require.NoError(t, st.SeedCatalog(context.Background()))
	return New(st, cart.NewStore()), st
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	id, err := svc.Auth.Signup(ctx, "  alice ", "secret")
	require.NoError(t, err)

	_, err = svc.Auth.Signup(ctx, "alice", "other")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "Username already exists.", Message(err))

	// The first account is untouched by the failed signup.
	user, err := svc.Auth.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.False(t, user.IsAdmin)

	_, err = svc.Auth.Login(ctx, "alice", "other")
	assert.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, "Invalid credentials.", Message(err))

	_, err = svc.Auth.Login(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, ErrAuth)
}

func TestSignupValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for _, tc := range []struct{ username, password string }{
		{"", "secret"},
		{"bob", ""},
		{"   ", "secret"},
		{"bob", "   "},
	} {
		_, err := svc.Auth.Signup(ctx, tc.username, tc.password)
		assert.ErrorIs(t, err, ErrValidation, "%q/%q", tc.username, tc.password)
		assert.Equal(t, "Provide username and password.", Message(err))
	}
}

func TestProvisionAdmin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	has, err := svc.Auth.HasAdmin(ctx)
	require.NoError(t, err)
	assert.False(t, has, "no admin is seeded")

	created, err := svc.Auth.ProvisionAdmin(ctx, "root", "toor")
	require.NoError(t, err)
	assert.True(t, created)

	user, err := svc.Auth.Login(ctx, "root", "toor")
	require.NoError(t, err)
	isAdmin, err := svc.Auth.IsAdmin(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	// An existing user is promoted and keeps its password.
	uid, err := svc.Auth.Signup(ctx, "carol", "pw")
	require.NoError(t, err)
	created, err = svc.Auth.ProvisionAdmin(ctx, "carol", "ignored")
	require.NoError(t, err)
	assert.False(t, created)
	isAdmin, err = svc.Auth.IsAdmin(ctx, uid)
	require.NoError(t, err)
	assert.True(t, isAdmin)
	_, err = svc.Auth.Login(ctx, "carol", "pw")
	assert.NoError(t, err)

	isAdmin, err = svc.Auth.IsAdmin(ctx, 9999)
	require.NoError(t, err)
	assert.False(t, isAdmin)
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	footwear := int64(2)
	products, err := svc.Catalog.ListProducts(ctx, Filter{CategoryID: &footwear})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Running Shoes", products[0].Name)

	products, err = svc.Catalog.ListProducts(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, products, 4)

	_, err = svc.Catalog.GetProduct(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Product not found.", Message(err))
}

func TestCartAccumulates(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	svc.Carts.Add("s1", 1)
	svc.Carts.Add("s1", 1)

	view, err := svc.Carts.View(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)

	shirt, err := st.GetProduct(ctx, 1)
	require.NoError(t, err)
	line := view.Lines[0]
	assert.Equal(t, int64(1), line.Product.ID)
	assert.Equal(t, 2, line.Quantity)
	assert.True(t, line.Subtotal.Equal(shirt.Price.Mul(decimal.NewFromInt(2))))
	assert.True(t, view.Total.Equal(line.Subtotal))

	svc.Carts.Clear("s1")
	view, err = svc.Carts.View(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.True(t, view.Total.IsZero())
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	uid, err := svc.Auth.Signup(ctx, "alice", "pw")
	require.NoError(t, err)

	svc.Carts.Add("s1", 1)
	svc.Carts.Add("s1", 1)
	svc.Carts.Add("s1", 3)
	svc.Carts.Add("s1", 999) // stale id, never resolvable

	orderID, err := svc.Orders.Checkout(ctx, uid, "s1")
	require.NoError(t, err)

	view, err := svc.Carts.View(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, view.Lines, "cart is emptied by checkout")

	orders, err := svc.Orders.List(ctx, uid)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	order := orders[0]
	assert.Equal(t, orderID, order.ID)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(2*599+2499)), "total %s", order.Total)

	require.Len(t, order.Items, 2)
	sum := decimal.Zero
	for _, it := range order.Items {
		p, err := st.GetProduct(ctx, *it.ProductID)
		require.NoError(t, err)
		assert.True(t, it.Price.Equal(p.Price))
		assert.Equal(t, p.Name, it.ProductName)
		sum = sum.Add(it.Subtotal())
	}
	assert.True(t, order.Total.Equal(sum))
}

func TestCheckoutUsesPriceAtCheckout(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	uid, err := svc.Auth.Signup(ctx, "alice", "pw")
	require.NoError(t, err)

	svc.Carts.Add("s1", 4)
	require.NoError(t, svc.Admin.UpdateProduct(ctx, 4, ProductInput{Name: "Baseball Cap", Price: "5.50", CategoryID: "3"}))

	_, err = svc.Orders.Checkout(ctx, uid, "s1")
	require.NoError(t, err)

	orders, err := svc.Orders.List(ctx, uid)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "5.50", orders[0].Total.StringFixed(2))
}

func TestCheckoutEmptyCartWritesNothing(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	uid, err := svc.Auth.Signup(ctx, "alice", "pw")
	require.NoError(t, err)

	_, err = svc.Orders.Checkout(ctx, uid, "empty")
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, "Cart empty.", Message(err))

	// A cart of ids that no longer exist is empty too, and is left as is.
	svc.Carts.Add("stale", 999)
	_, err = svc.Orders.Checkout(ctx, uid, "stale")
	assert.ErrorIs(t, err, ErrEmptyCart)

	count, err := st.CountOrders(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestConcurrentCheckoutPlacesOneOrder(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	uid, err := svc.Auth.Signup(ctx, "alice", "pw")
	require.NoError(t, err)
	svc.Carts.Add("s1", 2)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		empty int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Orders.Checkout(ctx, uid, "s1")
			if err != nil {
				assert.ErrorIs(t, err, ErrEmptyCart)
				mu.Lock()
				empty++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 7, empty)
	count, err := st.CountOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOrdersAreIsolated(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	alice, err := svc.Auth.Signup(ctx, "alice", "pw")
	require.NoError(t, err)
	bob, err := svc.Auth.Signup(ctx, "bob", "pw")
	require.NoError(t, err)

	svc.Carts.Add("a", 1)
	_, err = svc.Orders.Checkout(ctx, alice, "a")
	require.NoError(t, err)

	orders, err := svc.Orders.List(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCheckoutRacingProductDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	uid, err := svc.Auth.Signup(ctx, "alice", "pw")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		id, err := svc.Admin.CreateProduct(ctx, ProductInput{Name: "Limited Tee", Price: "12.50"})
		require.NoError(t, err)
		svc.Carts.Add("s1", 1)
		svc.Carts.Add("s1", id)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.Admin.DeleteProduct(ctx, id))
		}()
		_, err = svc.Orders.Checkout(ctx, uid, "s1")
		wg.Wait()
		require.NoError(t, err)
	}

	orders, err := svc.Orders.List(ctx, uid)
	require.NoError(t, err)
	require.Len(t, orders, 5)
	for _, o := range orders {
		sum := decimal.Zero
		for _, it := range o.Items {
			sum = sum.Add(it.Subtotal())
		}
		assert.True(t, o.Total.Equal(sum), "order %d total %s items %s", o.ID, o.Total, sum)
		assert.NotEmpty(t, o.Items)
	}
}
