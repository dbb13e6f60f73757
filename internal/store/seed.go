package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alextreichler/storefront/internal/models"
	"github.com/shopspring/decimal"
)

var starterCategories = []string{"Clothing", "Footwear", "Accessories"}

var starterProducts = []struct {
	name, description string
	price             int64
	image, category   string
}{
	{"Classic T-Shirt", "Comfortable cotton t-shirt", 599, "tshirt.jpg", "Clothing"},
	{"Blue Jeans", "Stylish denim jeans", 1499, "jeans.jpg", "Clothing"},
	{"Running Shoes", "Lightweight running shoes", 2499, "shoes.jpg", "Footwear"},
	{"Baseball Cap", "Adjustable cap", 349, "cap.jpg", "Accessories"},
}

// SeedCatalog inserts the starter categories if absent and the starter
// products if the product table is empty.
func (s *Store) SeedCatalog(ctx context.Context) error {
	for _, name := range starterCategories {
		if _, err := s.InsertCategoryIfAbsent(ctx, name); err != nil {
			return err
		}
	}

	count, err := s.CountProducts(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, sp := range starterProducts {
		catID, err := s.CategoryIDByName(ctx, sp.category)
		if err != nil {
			return fmt.Errorf("seed category %q: %w", sp.category, err)
		}
		p := &models.Product{
			Name:        sp.name,
			Description: sp.description,
			Price:       decimal.NewFromInt(sp.price),
			Image:       sp.image,
			CategoryID:  &catID,
		}
		if _, err := s.CreateProduct(ctx, p); err != nil {
			return err
		}
	}
	slog.Info("Seeded starter catalog", "products", len(starterProducts))
	return nil
}
