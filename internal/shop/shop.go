// Package shop holds the storefront use cases: identity, catalog browsing,
// carts, checkout and catalog administration. It knows nothing about HTTP.
package shop

import (
	"context"
	"time"

	"github.com/alextreichler/storefront/internal/cart"
	"github.com/alextreichler/storefront/internal/store"
	"github.com/go-playground/validator/v10"
)

type Service struct {
	store *store.Store

	Auth    *Auth
	Catalog *Catalog
	Carts   *Carts
	Orders  *Orders
	Admin   *Admin
}

func New(st *store.Store, carts *cart.Store) *Service {
	validate := validator.New()
	return &Service{
		store:   st,
		Auth:    &Auth{Store: st, validate: validate},
		Catalog: &Catalog{Store: st},
		Carts:   &Carts{Store: st, Items: carts},
		Orders:  &Orders{Store: st, Items: carts, Now: time.Now},
		Admin:   &Admin{Store: st, validate: validate},
	}
}

// Ping reports whether the data store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.DB.PingContext(ctx)
}
