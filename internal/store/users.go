package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alextreichler/storefront/internal/models"
)

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := s.DB.Rebind(`SELECT id, username, password, is_admin FROM users WHERE username = ?`)

	var user models.User
	if err := s.DB.GetContext(ctx, &user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := s.DB.Rebind(`SELECT id, username, password, is_admin FROM users WHERE id = ?`)

	var user models.User
	if err := s.DB.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a user and returns its id. A taken username yields ErrConflict.
func (s *Store) CreateUser(ctx context.Context, username, hashedPassword string, isAdmin bool) (int64, error) {
	query := s.DB.Rebind(`INSERT INTO users (username, password, is_admin) VALUES (?, ?, ?) RETURNING id`)

	var id int64
	if err := s.DB.QueryRowxContext(ctx, query, username, hashedPassword, isAdmin).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

func (s *Store) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	query := s.DB.Rebind(`UPDATE users SET is_admin = ? WHERE id = ?`)
	res, err := s.DB.ExecContext(ctx, query, isAdmin, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (s *Store) CountAdmins(ctx context.Context) (int, error) {
	var count int
	err := s.DB.GetContext(ctx, &count, s.DB.Rebind(`SELECT COUNT(*) FROM users WHERE is_admin = ?`), true)
	return count, err
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
