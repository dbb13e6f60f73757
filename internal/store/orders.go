package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alextreichler/storefront/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// TimeLayout is the ISO-8601 UTC form stored in orders.created_at. The fixed
// width keeps lexical and chronological order the same.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// PlaceOrder prices items (product id to quantity) and writes the order in one
// transaction. Products are read inside the transaction, so a product deleted
// or repriced concurrently is either fully in the order or fully absent. Ids
// with no product row are skipped; when none resolve the transaction is rolled
// back and ErrNotFound is returned.
func (s *Store) PlaceOrder(ctx context.Context, userID int64, items map[int64]int, createdAt time.Time) (*models.Order, error) {
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	ids := make([]int64, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	// Writing first takes SQLite's write lock before the products are read.
	order := &models.Order{UserID: userID, CreatedAt: createdAt.UTC()}
	err = tx.QueryRowxContext(ctx,
		tx.Rebind(`INSERT INTO orders (user_id, total, created_at) VALUES (?, ?, ?) RETURNING id`),
		userID, decimal.Zero, order.CreatedAt.Format(TimeLayout),
	).Scan(&order.ID)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products p LEFT JOIN categories c ON p.category_id = c.id WHERE p.id IN (?) ORDER BY p.id`
	if s.Driver == DriverPostgres {
		query += ` FOR SHARE OF p`
	}
	query, args, err := sqlx.In(query, ids)
	if err != nil {
		return nil, err
	}
	var products []models.Product
	if err := tx.SelectContext(ctx, &products, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select order products: %w", err)
	}
	if len(products) == 0 {
		return nil, ErrNotFound
	}

	itemQuery := tx.Rebind(`INSERT INTO order_items (order_id, product_id, product_name, qty, price) VALUES (?, ?, ?, ?, ?)`)
	total := decimal.Zero
	for _, p := range products {
		pid := p.ID
		it := models.OrderItem{OrderID: order.ID, ProductID: &pid, ProductName: p.Name, Quantity: items[p.ID], Price: p.Price, Available: true}
		if _, err := tx.ExecContext(ctx, itemQuery, order.ID, pid, it.ProductName, it.Quantity, it.Price); err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
		order.Items = append(order.Items, it)
		total = total.Add(it.Subtotal())
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE orders SET total = ? WHERE id = ?`), total, order.ID); err != nil {
		return nil, fmt.Errorf("update order total: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}
	order.Total = total
	return order, nil
}

type orderRow struct {
	ID        int64           `db:"id"`
	UserID    int64           `db:"user_id"`
	Total     decimal.Decimal `db:"total"`
	CreatedAt string          `db:"created_at"`
}

// OrdersByUser returns the user's orders, newest first, each with its items.
func (s *Store) OrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	var rows []orderRow
	query := s.DB.Rebind(`SELECT id, user_id, total, created_at FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC`)
	if err := s.DB.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	orders := make([]models.Order, 0, len(rows))
	if len(rows) == 0 {
		return orders, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		created, err := time.Parse(TimeLayout, r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("order %d: bad created_at %q: %w", r.ID, r.CreatedAt, err)
		}
		orders = append(orders, models.Order{ID: r.ID, UserID: r.UserID, Total: r.Total, CreatedAt: created})
		ids = append(ids, r.ID)
	}

	items, err := s.orderItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (s *Store) orderItems(ctx context.Context, orderIDs []int64) (map[int64][]models.OrderItem, error) {
	query, args, err := sqlx.In(`
		SELECT oi.id, oi.order_id, oi.product_id, oi.product_name, oi.qty, oi.price,
		       CASE WHEN p.id IS NULL THEN 0 ELSE 1 END AS available
		FROM order_items oi
		LEFT JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id IN (?)
		ORDER BY oi.id
	`, orderIDs)
	if err != nil {
		return nil, err
	}

	var items []models.OrderItem
	if err := s.DB.SelectContext(ctx, &items, s.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	byOrder := make(map[int64][]models.OrderItem, len(orderIDs))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	return byOrder, nil
}

func (s *Store) CountOrders(ctx context.Context) (int, error) {
	var count int
	err := s.DB.GetContext(ctx, &count, `SELECT COUNT(*) FROM orders`)
	return count, err
}
