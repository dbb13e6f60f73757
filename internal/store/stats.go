package store

import (
	"context"

	"github.com/shopspring/decimal"
)

type DashboardStats struct {
	TotalProducts int
	TotalOrders   int
	Revenue       decimal.Decimal
	ProductSales  []ProductSales
}

// ProductSales groups by the captured name so deleted products still count.
type ProductSales struct {
	ProductName string `db:"product_name"`
	UnitsSold   int    `db:"units_sold"`
}

func (s *Store) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	// 1. Total Products
	if err := s.DB.GetContext(ctx, &stats.TotalProducts, `SELECT COUNT(*) FROM products`); err != nil {
		return nil, err
	}

	// 2. Total Orders and revenue. Totals are summed here rather than in SQL
	// since SQLite stores them as text.
	var totals []decimal.Decimal
	if err := s.DB.SelectContext(ctx, &totals, `SELECT total FROM orders`); err != nil {
		return nil, err
	}
	stats.TotalOrders = len(totals)
	stats.Revenue = decimal.Sum(decimal.Zero, totals...)

	// 3. Units per product
	err := s.DB.SelectContext(ctx, &stats.ProductSales, `
		SELECT product_name, SUM(qty) AS units_sold
		FROM order_items
		GROUP BY product_name
		ORDER BY units_sold DESC, product_name
	`)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
