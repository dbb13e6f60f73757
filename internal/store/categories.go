package store

import (
	"context"
	"fmt"

	"github.com/alextreichler/storefront/internal/models"
)

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := s.DB.SelectContext(ctx, &categories, `SELECT id, name FROM categories ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// InsertCategoryIfAbsent reports whether a new row was created.
func (s *Store) InsertCategoryIfAbsent(ctx context.Context, name string) (bool, error) {
	query := s.DB.Rebind(`INSERT INTO categories (name) VALUES (?) ON CONFLICT (name) DO NOTHING`)
	res, err := s.DB.ExecContext(ctx, query, name)
	if err != nil {
		return false, fmt.Errorf("insert category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) CategoryExists(ctx context.Context, id int64) (bool, error) {
	var count int
	err := s.DB.GetContext(ctx, &count, s.DB.Rebind(`SELECT COUNT(*) FROM categories WHERE id = ?`), id)
	return count > 0, err
}

func (s *Store) CategoryIDByName(ctx context.Context, name string) (int64, error) {
	var ids []int64
	if err := s.DB.SelectContext(ctx, &ids, s.DB.Rebind(`SELECT id FROM categories WHERE name = ?`), name); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, ErrNotFound
	}
	return ids[0], nil
}
