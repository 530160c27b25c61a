// Package storefront wires the store, seeding, repositories and the order
// service into one handle for host applications.
package storefront

import (
	"context"
	"log/slog"

	"github.com/roach88/storefront/internal/account"
	"github.com/roach88/storefront/internal/cart"
	"github.com/roach88/storefront/internal/catalog"
	"github.com/roach88/storefront/internal/order"
	"github.com/roach88/storefront/internal/seed"
	"github.com/roach88/storefront/internal/store"
)

// Config describes how to open a storefront.
type Config struct {
	// Path is the database file, created if missing.
	Path string

	// AdminPassword is the password given to the seeded admin.
	AdminPassword string

	// BcryptCost is the password hashing cost. Zero means bcrypt's default.
	BcryptCost int

	// SkipSeed disables seeding of the default catalog and admin.
	SkipSeed bool

	// Catalog replaces the embedded default seed catalog.
	Catalog *seed.Catalog

	Logger *slog.Logger
	Clock  order.Clock
	Tokens order.TokenGenerator
}

// Storefront is an open store with its repositories.
type Storefront struct {
	Store    *store.Store
	Catalog  *catalog.Repository
	Accounts *account.Repository
	Carts    *cart.Repository
	Orders   *order.Service

	// Seeded reports what the initial seeding wrote.
	Seeded seed.Report
}

// Open opens the database at cfg.Path, seeds it if empty and wires the
// repositories. A storage failure here is fatal for the host.
func Open(ctx context.Context, cfg Config) (*Storefront, error) {
	st, err := store.Open(cfg.Path, store.WithLogger(cfg.Logger))
	if err != nil {
		return nil, err
	}

	hasher := account.NewHasher(cfg.BcryptCost)
	sf := &Storefront{
		Store:    st,
		Catalog:  catalog.NewRepository(st),
		Accounts: account.NewRepository(st, account.WithHasher(hasher)),
		Carts:    cart.NewRepository(st),
	}

	var orderOpts []order.Option
	if cfg.Clock != nil {
		orderOpts = append(orderOpts, order.WithClock(cfg.Clock))
	}
	if cfg.Tokens != nil {
		orderOpts = append(orderOpts, order.WithTokenGenerator(cfg.Tokens))
	}
	sf.Orders = order.NewService(st, sf.Carts, orderOpts...)

	if !cfg.SkipSeed {
		sf.Seeded, err = seed.Initialize(ctx, st, seed.Options{
			Catalog:       cfg.Catalog,
			AdminPassword: cfg.AdminPassword,
			Hasher:        hasher,
		})
		if err != nil {
			st.Close()
			return nil, err
		}
	}
	return sf, nil
}

// Close closes the underlying store.
func (s *Storefront) Close() error {
	return s.Store.Close()
}
