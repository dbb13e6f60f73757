package shop

import (
	"context"
	"errors"
	"strings"

	"github.com/alextreichler/storefront/internal/models"
	"github.com/alextreichler/storefront/internal/store"
)

type Catalog struct {
	Store *store.Store
}

type Filter struct {
	Search     string
	CategoryID *int64
}

func (c *Catalog) ListProducts(ctx context.Context, f Filter) ([]models.Product, error) {
	return c.Store.ListProducts(ctx, store.ProductFilter{
		Search:     strings.TrimSpace(f.Search),
		CategoryID: f.CategoryID,
	})
}

func (c *Catalog) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, err := c.Store.GetProduct(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(ErrNotFound, "Product not found.")
	}
	return p, err
}

func (c *Catalog) ListCategories(ctx context.Context) ([]models.Category, error) {
	return c.Store.ListCategories(ctx)
}
