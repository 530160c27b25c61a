package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storefront/internal/domain"
	"github.com/roach88/storefront/internal/store"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewRepository(st)
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(s string) *decimal.Decimal {
	d := price(s)
	return &d
}

// seedCatalog creates two categories and four products.
func seedCatalog(t *testing.T, r *Repository) (ao, quan domain.Category) {
	t.Helper()
	ctx := context.Background()

	ao, err := r.AddCategory(ctx, "Áo")
	require.NoError(t, err)
	quan, err = r.AddCategory(ctx, "Quần")
	require.NoError(t, err)

	for _, in := range []domain.ProductInput{
		{Name: "Áo thun", Price: price("250000"), Image: "ao_thun.png", CategoryID: ao.ID},
		{Name: "Áo sơ mi", Price: price("350000"), Image: "ao_so_mi.png", CategoryID: ao.ID},
		{Name: "Quần jean", Price: price("450000"), Image: "quan_jean.png", CategoryID: quan.ID},
		{Name: "Thắt lưng", Price: price("99.50"), Image: "", CategoryID: quan.ID},
	} {
		_, err := r.AddProduct(ctx, in)
		require.NoError(t, err)
	}
	return ao, quan
}

func names(ps []domain.Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func TestCategories_AddListRename(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	a, err := r.AddCategory(ctx, "  Áo ")
	require.NoError(t, err)
	assert.Equal(t, "Áo", a.Name)
	b, err := r.AddCategory(ctx, "Quần")
	require.NoError(t, err)

	cats, err := r.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{a, b}, cats)

	require.NoError(t, r.RenameCategory(ctx, b.ID, "Quần dài"))
	got, err := r.GetCategory(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Quần dài", got.Name)
}

func TestCategories_Errors(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.AddCategory(ctx, "   ")
	assert.True(t, domain.IsCode(err, domain.ErrCodeValidation))

	a, err := r.AddCategory(ctx, "Áo")
	require.NoError(t, err)
	_, err = r.AddCategory(ctx, "Áo")
	assert.True(t, domain.IsCode(err, domain.ErrCodeConflict))

	b, err := r.AddCategory(ctx, "Quần")
	require.NoError(t, err)
	err = r.RenameCategory(ctx, b.ID, "Áo")
	assert.True(t, domain.IsCode(err, domain.ErrCodeConflict))

	err = r.RenameCategory(ctx, 999, "Giày")
	assert.True(t, domain.IsCode(err, domain.ErrCodeNotFound))

	err = r.RenameCategory(ctx, a.ID, "")
	assert.True(t, domain.IsCode(err, domain.ErrCodeValidation))
}

func TestDeleteCategory_RestrictsWhenProductsExist(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	ao, _ := seedCatalog(t, r)

	err := r.DeleteCategory(ctx, ao.ID)
	assert.True(t, domain.IsCode(err, domain.ErrCodeConflict))

	all, err := r.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	empty, err := r.AddCategory(ctx, "Giày")
	require.NoError(t, err)
	require.NoError(t, r.DeleteCategory(ctx, empty.ID))

	err = r.DeleteCategory(ctx, empty.ID)
	assert.True(t, domain.IsCode(err, domain.ErrCodeNotFound))
}

func TestAddProduct(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	ao, _ := seedCatalog(t, r)

	p, err := r.AddProduct(ctx, domain.ProductInput{Name: " Áo khoác ", Price: price("550000"), CategoryID: ao.ID})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, "Áo khoác", p.Name)
	assert.Equal(t, domain.DefaultImage, p.Image)

	got, err := r.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.True(t, p.Price.Equal(got.Price))
}

func TestAddProduct_Validation(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	ao, _ := seedCatalog(t, r)

	tests := []struct {
		name string
		in   domain.ProductInput
	}{
		{"blank name", domain.ProductInput{Name: "  ", Price: price("1"), CategoryID: ao.ID}},
		{"negative price", domain.ProductInput{Name: "x", Price: price("-1"), CategoryID: ao.ID}},
		{"unknown category", domain.ProductInput{Name: "x", Price: price("1"), CategoryID: 999}},
		{"zero category", domain.ProductInput{Name: "x", Price: price("1")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.AddProduct(ctx, tt.in)
			assert.True(t, domain.IsCode(err, domain.ErrCodeValidation), "got %v", err)
		})
	}
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	_, quan := seedCatalog(t, r)

	p, err := r.GetProduct(ctx, 1)
	require.NoError(t, err)
	p.Price = price("199000")
	p.CategoryID = quan.ID
	require.NoError(t, r.UpdateProduct(ctx, p))

	got, err := r.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(price("199000")))
	assert.Equal(t, quan.ID, got.CategoryID)

	err = r.UpdateProduct(ctx, domain.Product{ID: 999, Name: "x", Price: price("1"), CategoryID: quan.ID})
	assert.True(t, domain.IsCode(err, domain.ErrCodeNotFound))

	// A missing product is reported before its category is checked.
	err = r.UpdateProduct(ctx, domain.Product{ID: 999, Name: "x", Price: price("1"), CategoryID: 404})
	assert.True(t, domain.IsCode(err, domain.ErrCodeNotFound), "got %v", err)

	err = r.UpdateProduct(ctx, domain.Product{ID: 1, Name: "x", Price: price("1"), CategoryID: 404})
	assert.True(t, domain.IsCode(err, domain.ErrCodeValidation))

	require.NoError(t, r.DeleteProduct(ctx, 1))
	_, err = r.GetProduct(ctx, 1)
	assert.True(t, domain.IsCode(err, domain.ErrCodeNotFound))
	err = r.DeleteProduct(ctx, 1)
	assert.True(t, domain.IsCode(err, domain.ErrCodeNotFound))
}

func TestListProductsByCategory(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	ao, _ := seedCatalog(t, r)

	ps, err := r.ListProductsByCategory(ctx, ao.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Áo thun", "Áo sơ mi"}, names(ps))

	ps, err = r.ListProductsByCategory(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, ps)
}

func TestSearchByNameOrCategory(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedCatalog(t, r)

	ps, err := r.SearchByNameOrCategory(ctx, "JEAN")
	require.NoError(t, err)
	assert.Equal(t, []string{"Quần jean"}, names(ps))

	// Matches the category name "Quần" even though "Thắt lưng" does not contain it.
	ps, err = r.SearchByNameOrCategory(ctx, "quần")
	require.NoError(t, err)
	assert.Equal(t, []string{"Quần jean", "Thắt lưng"}, names(ps))

	ps, err = r.SearchByNameOrCategory(ctx, "giày")
	require.NoError(t, err)
	assert.Empty(t, ps)
}

func TestSearch_BlankKeywordReturnsFullCatalog(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedCatalog(t, r)

	all, err := r.ListProducts(ctx)
	require.NoError(t, err)

	for _, kw := range []string{"", "   "} {
		ps, err := r.SearchByNameOrCategory(ctx, kw)
		require.NoError(t, err)
		assert.ElementsMatch(t, all, ps)
	}
}

func TestFilter(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedCatalog(t, r)

	ps, err := r.Filter(ctx, domain.ProductFilter{MinPrice: ptr("250000"), MaxPrice: ptr("350000")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Áo thun", "Áo sơ mi"}, names(ps))

	ps, err = r.Filter(ctx, domain.ProductFilter{NamePattern: "áo", MinPrice: ptr("300000")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Áo sơ mi"}, names(ps))

	ps, err = r.Filter(ctx, domain.ProductFilter{MaxPrice: ptr("100")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Thắt lưng"}, names(ps))

	ps, err = r.Filter(ctx, domain.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, ps, 4)
}

func TestFilter_MinAboveMaxIsEmpty(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedCatalog(t, r)

	ps, err := r.Filter(ctx, domain.ProductFilter{MinPrice: ptr("100"), MaxPrice: ptr("50")})
	require.NoError(t, err)
	assert.NotNil(t, ps)
	assert.Empty(t, ps)
}
