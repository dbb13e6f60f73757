package shop

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alextreichler/storefront/internal/models"
	"github.com/alextreichler/storefront/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// PlaceholderImage is used when a product is saved without an image.
const PlaceholderImage = "placeholder.svg"

// maxPrice is the first value that no longer fits products.price NUMERIC(12,2).
var maxPrice = decimal.New(1, 10)

type Admin struct {
	Store    *store.Store
	validate *validator.Validate
}

// ProductInput is the raw form data for creating or replacing a product.
type ProductInput struct {
	Name        string `validate:"required,max=200"`
	Description string `validate:"max=5000"`
	Price       string `validate:"required"`
	Image       string
	CategoryID  string
}

func (a *Admin) parseProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Price = strings.TrimSpace(in.Price)

	if err := a.validate.Struct(in); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			switch vErrs[0].Field() {
			case "Name":
				return nil, newError(ErrValidation, "Product name is required.")
			case "Price":
				return nil, newError(ErrValidation, "Price is required.")
			}
		}
		return nil, newError(ErrValidation, "Invalid product details.")
	}

	price, err := decimal.NewFromString(in.Price)
	if err != nil {
		return nil, newError(ErrValidation, "Invalid price format.")
	}
	if price.IsNegative() {
		return nil, newError(ErrValidation, "Price must not be negative.")
	}
	if !price.Equal(price.Round(2)) {
		return nil, newError(ErrValidation, "Price may have at most 2 decimal places.")
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return nil, newError(ErrValidation, "Price is too large.")
	}

	p := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       price,
		Image:       strings.TrimSpace(in.Image),
	}
	if p.Image == "" {
		p.Image = PlaceholderImage
	}

	if cat := strings.TrimSpace(in.CategoryID); cat != "" {
		id, err := strconv.ParseInt(cat, 10, 64)
		if err != nil {
			return nil, newError(ErrValidation, "Invalid category.")
		}
		ok, err := a.Store.CategoryExists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, newError(ErrValidation, "Unknown category.")
		}
		p.CategoryID = &id
	}
	return p, nil
}

func (a *Admin) CreateProduct(ctx context.Context, in ProductInput) (int64, error) {
	p, err := a.parseProduct(ctx, in)
	if err != nil {
		return 0, err
	}
	id, err := a.Store.CreateProduct(ctx, p)
	if err != nil {
		return 0, err
	}
	slog.Info("Product created", "product_id", id, "name", p.Name)
	return id, nil
}

// UpdateProduct replaces every mutable field of product id.
func (a *Admin) UpdateProduct(ctx context.Context, id int64, in ProductInput) error {
	p, err := a.parseProduct(ctx, in)
	if err != nil {
		return err
	}
	p.ID = id
	if err := a.Store.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newError(ErrNotFound, "Product not found.")
		}
		return err
	}
	slog.Info("Product updated", "product_id", id)
	return nil
}

// DeleteProduct removes the product. Order items that reference it keep their
// captured name and price.
func (a *Admin) DeleteProduct(ctx context.Context, id int64) error {
	if err := a.Store.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newError(ErrNotFound, "Product not found.")
		}
		return err
	}
	slog.Info("Product deleted", "product_id", id)
	return nil
}

// CreateCategory adds a category. An existing name is left alone and reported
// as created=false, not as an error.
func (a *Admin) CreateCategory(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, newError(ErrValidation, "Category name is required.")
	}
	created, err := a.Store.InsertCategoryIfAbsent(ctx, name)
	if err != nil {
		return false, err
	}
	slog.Info("Category add", "name", name, "created", created)
	return created, nil
}

type Dashboard struct {
	Products   []models.Product
	Categories []models.Category
	Stats      *store.DashboardStats
}

func (a *Admin) Dashboard(ctx context.Context) (*Dashboard, error) {
	products, err := a.Store.ListProducts(ctx, store.ProductFilter{})
	if err != nil {
		return nil, err
	}
	categories, err := a.Store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := a.Store.GetDashboardStats(ctx)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Products: products, Categories: categories, Stats: stats}, nil
}
