package storefront

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/storefront/internal/domain"
	"github.com/roach88/storefront/internal/testutil"
)

func openTest(t *testing.T, cfg Config) *Storefront {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = filepath.Join(t.TempDir(), "storefront.db")
	}
	cfg.BcryptCost = bcrypt.MinCost
	sf, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { sf.Close() })
	return sf
}

func TestOpen_SeedsAndWires(t *testing.T) {
	sf := openTest(t, Config{Clock: testutil.NewDeterministicClock(), Tokens: testutil.NewSequenceTokenGenerator("")})
	ctx := context.Background()

	assert.True(t, sf.Seeded.Admin)
	assert.Positive(t, sf.Seeded.Products)

	p, err := sf.Catalog.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Áo thun", p.Name)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(250000)))

	u, err := sf.Accounts.AddUser(ctx, "lan", "secret", domain.RoleUser)
	require.NoError(t, err)

	_, err = sf.Carts.AddToCart(ctx, u.ID, 1, 1)
	require.NoError(t, err)
	_, err = sf.Carts.AddToCart(ctx, u.ID, 1, 2)
	require.NoError(t, err)

	id, err := sf.Orders.CheckoutFromCart(ctx, domain.CheckoutRequest{UserID: u.ID, ShippingAddress: "123 Main St"})
	require.NoError(t, err)

	details, err := sf.Orders.FetchOrderDetails(ctx, id)
	require.NoError(t, err)
	assert.True(t, details.Order.TotalAmount.Equal(decimal.NewFromInt(750000)))
	assert.True(t, testutil.DefaultEpoch.Equal(details.Order.CreatedAt))
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.db")
	ctx := context.Background()

	first, err := Open(ctx, Config{Path: path, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	_, err = first.Catalog.AddCategory(ctx, "Túi xách")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(ctx, Config{Path: path, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	defer second.Close()

	assert.False(t, second.Seeded.Seeded())
	cats, err := second.Catalog.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Túi xách", cats[len(cats)-1].Name)
}

func TestOpen_SkipSeed(t *testing.T) {
	sf := openTest(t, Config{SkipSeed: true})

	cats, err := sf.Catalog.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(context.Background(), Config{Path: filepath.Join(t.TempDir(), "missing", "dir", "x.db")})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.ErrCodeStorage))
}
