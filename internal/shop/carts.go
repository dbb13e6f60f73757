package shop

import (
	"context"
	"sort"

	"github.com/alextreichler/storefront/internal/cart"
	"github.com/alextreichler/storefront/internal/models"
	"github.com/alextreichler/storefront/internal/store"
	"github.com/shopspring/decimal"
)

type Carts struct {
	Store *store.Store
	Items *cart.Store
}

type CartView struct {
	Lines []models.CartLine
	Total decimal.Decimal
}

// Add puts one more unit of productID in the session's cart. The product is
// not looked up; stale ids are dropped when the cart is resolved.
func (c *Carts) Add(sid string, productID int64) int {
	return c.Items.Add(sid, productID)
}

func (c *Carts) Clear(sid string) {
	c.Items.Clear(sid)
}

// View resolves the session's cart against the current catalog.
func (c *Carts) View(ctx context.Context, sid string) (*CartView, error) {
	lines, total, err := resolve(ctx, c.Store, c.Items.Snapshot(sid))
	if err != nil {
		return nil, err
	}
	return &CartView{Lines: lines, Total: total}, nil
}

// resolve prices items at current product prices. Ids with no product row are
// skipped and do not contribute to the total.
func resolve(ctx context.Context, st *store.Store, items map[int64]int) ([]models.CartLine, decimal.Decimal, error) {
	lines := []models.CartLine{}
	if len(items) == 0 {
		return lines, decimal.Zero, nil
	}

	ids := make([]int64, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	products, err := st.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}

	total := decimal.Zero
	for _, p := range products {
		qty := items[p.ID]
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(qty)))
		lines = append(lines, models.CartLine{Product: p, Quantity: qty, Subtotal: subtotal})
		total = total.Add(subtotal)
	}
	return lines, total, nil
}
