package shop

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alextreichler/storefront/internal/cart"
	"github.com/alextreichler/storefront/internal/models"
	"github.com/alextreichler/storefront/internal/store"
)

type Orders struct {
	Store *store.Store
	Items *cart.Store
	Now   func() time.Time
}

// Checkout turns the session's cart into an order owned by userID and returns
// the order id. The cart is read, written to the store and cleared while the
// session lock is held, so concurrent checkouts of one session place at most
// one order. Prices are read in the order transaction.
func (o *Orders) Checkout(ctx context.Context, userID int64, sid string) (int64, error) {
	var order *models.Order
	err := o.Items.WithLocked(sid, func(items map[int64]int) (bool, error) {
		if len(items) == 0 {
			return false, ErrEmptyCart
		}

		var err error
		order, err = o.Store.PlaceOrder(ctx, userID, items, o.Now())
		if errors.Is(err, store.ErrNotFound) {
			// Only stale ids: nothing left to buy.
			return false, ErrEmptyCart
		}
		if err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("Order placed", "order_id", order.ID, "user_id", userID, "items", len(order.Items), "total", order.Total.StringFixed(2))
	return order.ID, nil
}

// List returns the user's own orders, newest first.
func (o *Orders) List(ctx context.Context, userID int64) ([]models.Order, error) {
	return o.Store.OrdersByUser(ctx, userID)
}
