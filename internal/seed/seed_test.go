package seed

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/storefront/internal/account"
	"github.com/roach88/storefront/internal/domain"
	"github.com/roach88/storefront/internal/store"
)

func createTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func countRows(t *testing.T, st *store.Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, st.DB().QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func testOptions() Options {
	return Options{Hasher: account.NewHasher(bcrypt.MinCost)}
}

func TestLoad_DefaultCatalog(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	require.Len(t, cat.Categories, 4)
	assert.Equal(t, "Áo", cat.Categories[0].Name)
	require.NotEmpty(t, cat.Products)
	assert.Equal(t, ProductSeed{Name: "Áo thun", Price: "250000", Image: "ao_thun.png", Category: "Áo"}, cat.Products[0])

	var sandal ProductSeed
	for _, p := range cat.Products {
		if p.Name == "Dép sandal" {
			sandal = p
		}
	}
	assert.Equal(t, "", sandal.Image, "image defaults to empty in the document")
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"blank name", `categories: [{name: "A"}]
products: [{name: "", price: "1", category: "A"}]`},
		{"whitespace category", `categories: [{name: "  "}]
products: []`},
		{"malformed price", `categories: [{name: "A"}]
products: [{name: "x", price: "1e3", category: "A"}]`},
		{"negative price", `categories: [{name: "A"}]
products: [{name: "x", price: "-1", category: "A"}]`},
		{"unknown category", `categories: [{name: "A"}]
products: [{name: "x", price: "1", category: "B"}]`},
		{"duplicate category", `categories: [{name: "A"}, {name: "A"}]
products: []`},
		{"syntax", `categories: [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.cue", []byte(tt.src))
			require.Error(t, err)
			assert.True(t, domain.IsCode(err, domain.ErrCodeValidation), "got %v", err)
		})
	}
}

func TestParse_ErrorHasPosition(t *testing.T) {
	_, err := Parse("bad.cue", []byte(`categories: [`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.cue")
}

func TestLoadDir(t *testing.T) {
	cat, err := LoadDir(filepath.Join("testdata", "catalog"))
	require.NoError(t, err)

	require.Len(t, cat.Categories, 2)
	require.Len(t, cat.Products, 2)
	assert.Equal(t, "Văn phòng phẩm", cat.Products[0].Category)
	assert.Equal(t, "120000.50", cat.Products[1].Price)
}

func TestLoadDir_BlankNames(t *testing.T) {
	_, err := LoadDir(filepath.Join("testdata", "blank"))
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.ErrCodeValidation), "got %v", err)
}

func TestCatalogValidate_BlankNames(t *testing.T) {
	c := &Catalog{Categories: []CategorySeed{{Name: " "}}}
	assert.True(t, domain.IsCode(c.Validate(), domain.ErrCodeValidation))

	c = &Catalog{
		Categories: []CategorySeed{{Name: "A"}},
		Products:   []ProductSeed{{Name: "\t", Price: "1", Category: "A"}},
	}
	assert.True(t, domain.IsCode(c.Validate(), domain.ErrCodeValidation))
}

func TestLoadDir_Missing(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	assert.True(t, domain.IsCode(err, domain.ErrCodeValidation))
}

func TestInitialize_FreshDatabase(t *testing.T) {
	st := createTestStore(t)
	ctx := context.Background()

	report, err := Initialize(ctx, st, testOptions())
	require.NoError(t, err)

	def, err := Load()
	require.NoError(t, err)
	assert.Equal(t, len(def.Categories), report.Categories)
	assert.Equal(t, len(def.Products), report.Products)
	assert.True(t, report.Admin)

	var name, price, image string
	var categoryID int64
	require.NoError(t, st.DB().QueryRow(`SELECT name, price, image, category_id FROM products WHERE id = 1`).
		Scan(&name, &price, &image, &categoryID))
	assert.Equal(t, "Áo thun", name)
	assert.Equal(t, "250000", price)
	assert.Equal(t, int64(1), categoryID)

	require.NoError(t, st.DB().QueryRow(`SELECT image FROM products WHERE name = 'Dép sandal'`).Scan(&image))
	assert.Equal(t, domain.DefaultImage, image)

	accounts := account.NewRepository(st, account.WithHasher(account.NewHasher(bcrypt.MinCost)))
	admin, err := accounts.GetUserByCredentials(ctx, "admin", DefaultAdminPassword)
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
}

func TestInitialize_Idempotent(t *testing.T) {
	st := createTestStore(t)
	ctx := context.Background()

	_, err := Initialize(ctx, st, testOptions())
	require.NoError(t, err)
	before := []int{countRows(t, st, "categories"), countRows(t, st, "products"), countRows(t, st, "users")}

	report, err := Initialize(ctx, st, testOptions())
	require.NoError(t, err)
	assert.False(t, report.Seeded())

	after := []int{countRows(t, st, "categories"), countRows(t, st, "products"), countRows(t, st, "users")}
	assert.Equal(t, before, after)
}

func TestInitialize_SkipsPopulatedTables(t *testing.T) {
	st := createTestStore(t)
	ctx := context.Background()

	_, err := st.DB().Exec(`
		INSERT INTO categories (name) VALUES ('Riêng');
		INSERT INTO users (username, password_hash, role) VALUES ('lan', 'x', 'user');
	`)
	require.NoError(t, err)

	report, err := Initialize(ctx, st, testOptions())
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
	assert.Equal(t, 1, countRows(t, st, "categories"))
	assert.Equal(t, 0, countRows(t, st, "products"))
	assert.Equal(t, 1, countRows(t, st, "users"))
}

func TestInitialize_CustomCatalogAndPassword(t *testing.T) {
	st := createTestStore(t)
	ctx := context.Background()

	cat, err := LoadDir(filepath.Join("testdata", "catalog"))
	require.NoError(t, err)
	opts := testOptions()
	opts.Catalog = cat
	opts.AdminPassword = "s3cret"

	report, err := Initialize(ctx, st, opts)
	require.NoError(t, err)
	assert.Equal(t, Report{Categories: 2, Products: 2, Admin: true}, report)

	var categoryID int64
	require.NoError(t, st.DB().QueryRow(`SELECT category_id FROM products WHERE name = 'Sổ tay'`).Scan(&categoryID))
	assert.Equal(t, int64(2), categoryID)

	accounts := account.NewRepository(st, account.WithHasher(opts.Hasher))
	u, err := accounts.GetUserByCredentials(ctx, "admin", DefaultAdminPassword)
	require.NoError(t, err)
	assert.Nil(t, u)
	u, err = accounts.GetUserByCredentials(ctx, "admin", "s3cret")
	require.NoError(t, err)
	assert.NotNil(t, u)
}
