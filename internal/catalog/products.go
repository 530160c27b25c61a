package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/roach88/storefront/internal/domain"
	"github.com/roach88/storefront/internal/query"
	"github.com/roach88/storefront/internal/store"
)

// productRow is a product joined with its category name.
type productRow struct {
	domain.Product
	CategoryName string
}

const selectProducts = `
	SELECT p.id, p.name, p.price, p.image, p.category_id, c.name
	FROM products p
	JOIN categories c ON c.id = p.category_id
`

// ListProducts returns every product ordered by id.
func (r *Repository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.queryProducts(ctx, selectProducts+` ORDER BY p.id ASC`)
	if err != nil {
		return nil, err
	}
	return products(rows), nil
}

// ListProductsByCategory returns the products of one category ordered by id.
// An unknown category yields an empty list.
func (r *Repository) ListProductsByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	rows, err := r.queryProducts(ctx, selectProducts+` WHERE p.category_id = ? ORDER BY p.id ASC`, categoryID)
	if err != nil {
		return nil, err
	}
	return products(rows), nil
}

// GetProduct returns the product with the given id.
func (r *Repository) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	rows, err := r.queryProducts(ctx, selectProducts+` WHERE p.id = ?`, id)
	if err != nil {
		return domain.Product{}, err
	}
	if len(rows) == 0 {
		return domain.Product{}, domain.NewNotFoundError("product", id)
	}
	return rows[0].Product, nil
}

// AddProduct validates and inserts a product, returning it with its id.
func (r *Repository) AddProduct(ctx context.Context, in domain.ProductInput) (domain.Product, error) {
	in, err := normalizeProduct(in)
	if err != nil {
		return domain.Product{}, err
	}

	p := domain.Product{
		Name:       in.Name,
		Price:      in.Price,
		Image:      in.Image,
		CategoryID: in.CategoryID,
	}
	err = r.st.InTx(ctx, func(tx *sql.Tx) error {
		if err := requireCategory(ctx, tx, in.CategoryID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO products (name, price, image, category_id)
			VALUES (?, ?, ?, ?)
		`, p.Name, p.Price.String(), p.Image, p.CategoryID)
		if err != nil {
			return domain.NewStorageError("insert product", err)
		}
		p.ID, err = res.LastInsertId()
		if err != nil {
			return domain.NewStorageError("insert product: last insert id", err)
		}
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}

	r.logger.Info("product added", "product_id", p.ID, "category_id", p.CategoryID)
	return p, nil
}

// UpdateProduct replaces every field of the product with p.ID.
func (r *Repository) UpdateProduct(ctx context.Context, p domain.Product) error {
	in, err := normalizeProduct(domain.ProductInput{
		Name:       p.Name,
		Price:      p.Price,
		Image:      p.Image,
		CategoryID: p.CategoryID,
	})
	if err != nil {
		return err
	}

	return r.st.InTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = ?`, p.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewNotFoundError("product", p.ID)
		}
		if err != nil {
			return domain.NewStorageError("query product", err)
		}
		if err := requireCategory(ctx, tx, in.CategoryID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET name = ?, price = ?, image = ?, category_id = ?
			WHERE id = ?
		`, in.Name, in.Price.String(), in.Image, in.CategoryID, p.ID)
		if err != nil {
			return domain.NewStorageError("update product", err)
		}
		if err := expectOne(res, "product", p.ID); err != nil {
			return err
		}
		r.logger.Info("product updated", "product_id", p.ID)
		return nil
	})
}

// DeleteProduct hard-deletes a product. Order history keeps its own copy of
// name and price; cart rows for the product go with it.
func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	res, err := r.st.DB().ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return domain.NewStorageError("delete product", err)
	}
	if err := expectOne(res, "product", id); err != nil {
		return err
	}
	r.logger.Info("product deleted", "product_id", id)
	return nil
}

// SearchByNameOrCategory returns products whose name or category name
// contains keyword, ignoring case. A blank keyword returns the full catalog.
func (r *Repository) SearchByNameOrCategory(ctx context.Context, keyword string) ([]domain.Product, error) {
	rows, err := r.queryProducts(ctx, selectProducts+` ORDER BY p.id ASC`)
	if err != nil {
		return nil, err
	}

	text := query.NewText(keyword)
	result := []domain.Product{}
	for _, row := range rows {
		if text.Matches(row.Name, row.CategoryName) {
			result = append(result, row.Product)
		}
	}
	r.logger.Debug("catalog search", "keyword", keyword, "results", len(result))
	return result, nil
}

// Filter applies the optional name pattern and price bounds, AND-combined.
// When MinPrice is above MaxPrice the result is empty.
func (r *Repository) Filter(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	text := query.NewText(f.NamePattern)
	rng := query.NewRange(f.MinPrice, f.MaxPrice)
	if rng.Empty() {
		return []domain.Product{}, nil
	}

	rows, err := r.queryProducts(ctx, selectProducts+` ORDER BY p.id ASC`)
	if err != nil {
		return nil, err
	}
	if matchAll(text, rng) {
		return products(rows), nil
	}

	result := []domain.Product{}
	for _, row := range rows {
		if text.Matches(row.Name) && rng.Contains(row.Price) {
			result = append(result, row.Product)
		}
	}
	return result, nil
}

func (r *Repository) queryProducts(ctx context.Context, q string, args ...any) ([]productRow, error) {
	rows, err := r.st.DB().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, domain.NewStorageError("query products", err)
	}
	defer rows.Close()

	var result []productRow
	for rows.Next() {
		var row productRow
		if err := rows.Scan(
			&row.ID, &row.Name, &row.Price, &row.Image, &row.CategoryID, &row.CategoryName,
		); err != nil {
			return nil, domain.NewStorageError("scan product", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("iterate products", err)
	}
	return result, nil
}

func products(rows []productRow) []domain.Product {
	out := make([]domain.Product, len(rows))
	for i, row := range rows {
		out[i] = row.Product
	}
	return out
}

func normalizeProduct(in domain.ProductInput) (domain.ProductInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Image = domain.ResolveImage(in.Image)
	if err := domain.Validate(in); err != nil {
		return in, err
	}
	if in.Price.IsNegative() {
		return in, domain.NewValidationError("price must not be negative")
	}
	return in, nil
}

// requireCategory turns a dangling category reference into a ValidationError.
func requireCategory(ctx context.Context, q store.Querier, id int64) error {
	_, err := scanCategory(ctx, q, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewValidationError("category %d does not exist", id)
	}
	return err
}
