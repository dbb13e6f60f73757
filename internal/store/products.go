package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/alextreichler/storefront/internal/models"
	"github.com/jmoiron/sqlx"
)

const productColumns = `p.id, p.name, p.description, p.price, p.image, p.category_id, COALESCE(c.name, '') AS category_name`

// ProductFilter narrows ListProducts. Zero values mean "no restriction".
type ProductFilter struct {
	Search     string
	CategoryID *int64
}

func (s *Store) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p LEFT JOIN categories c ON p.category_id = c.id WHERE 1=1`
	var args []interface{}

	if f.Search != "" {
		query += ` AND ` + s.lower("p.name") + ` LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(strings.ToLower(f.Search))+"%")
	}
	if f.CategoryID != nil {
		query += ` AND p.category_id = ?`
		args = append(args, *f.CategoryID)
	}
	query += ` ORDER BY p.id`

	products := []models.Product{}
	if err := s.DB.SelectContext(ctx, &products, s.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	query := s.DB.Rebind(`SELECT ` + productColumns + ` FROM products p LEFT JOIN categories c ON p.category_id = c.id WHERE p.id = ?`)

	var p models.Product
	if err := s.DB.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ProductsByIDs returns the products that still exist among ids, ordered by id.
// Unknown ids are silently absent from the result.
func (s *Store) ProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	products := []models.Product{}
	if len(ids) == 0 {
		return products, nil
	}

	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM products p LEFT JOIN categories c ON p.category_id = c.id WHERE p.id IN (?) ORDER BY p.id`, ids)
	if err != nil {
		return nil, err
	}
	if err := s.DB.SelectContext(ctx, &products, s.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("products by ids: %w", err)
	}
	return products, nil
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) (int64, error) {
	query := s.DB.Rebind(`
		INSERT INTO products (name, description, price, image, category_id)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)

	var id int64
	if err := s.DB.QueryRowxContext(ctx, query, p.Name, p.Description, p.Price, p.Image, nullID(p.CategoryID)).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	p.ID = id
	return id, nil
}

// UpdateProduct replaces every mutable field. A missing id yields ErrNotFound.
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	query := s.DB.Rebind(`
		UPDATE products
		SET name = ?, description = ?, price = ?, image = ?, category_id = ?
		WHERE id = ?
	`)
	res, err := s.DB.ExecContext(ctx, query, p.Name, p.Description, p.Price, p.Image, nullID(p.CategoryID), p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return expectAffected(res)
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, s.DB.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return expectAffected(res)
}

func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var count int
	err := s.DB.GetContext(ctx, &count, `SELECT COUNT(*) FROM products`)
	return count, err
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

// lower folds case the same way as strings.ToLower on both drivers.
func (s *Store) lower(expr string) string {
	if s.Driver == DriverSQLite {
		return "unicode_lower(" + expr + ")"
	}
	return "LOWER(" + expr + ")"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
