// Package catalog stores categories and products and answers the browse,
// search and price-filter queries of the storefront.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/roach88/storefront/internal/domain"
	"github.com/roach88/storefront/internal/query"
	"github.com/roach88/storefront/internal/store"
)

// Repository provides access to categories and products.
type Repository struct {
	st     *store.Store
	logger *slog.Logger
}

// NewRepository creates a catalog repository on st.
func NewRepository(st *store.Store) *Repository {
	return &Repository{st: st, logger: st.Logger()}
}

// ListCategories returns all categories in insertion order.
func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.st.DB().QueryContext(ctx, `
		SELECT id, name FROM categories ORDER BY id ASC
	`)
	if err != nil {
		return nil, domain.NewStorageError("query categories", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, domain.NewStorageError("scan category", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("iterate categories", err)
	}
	return categories, nil
}

// AddCategory creates a category. Returns ValidationError for a blank name
// and ConflictError for a duplicate.
func (r *Repository) AddCategory(ctx context.Context, name string) (domain.Category, error) {
	name, err := categoryName(name)
	if err != nil {
		return domain.Category{}, err
	}

	res, err := r.st.DB().ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, name)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return domain.Category{}, domain.NewConflictError("category", "category %q already exists", name)
		}
		return domain.Category{}, domain.NewStorageError("insert category", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Category{}, domain.NewStorageError("insert category: last insert id", err)
	}

	r.logger.Info("category added", "category_id", id)
	return domain.Category{ID: id, Name: name}, nil
}

// RenameCategory changes a category's name.
func (r *Repository) RenameCategory(ctx context.Context, id int64, name string) error {
	name, err := categoryName(name)
	if err != nil {
		return err
	}

	res, err := r.st.DB().ExecContext(ctx, `UPDATE categories SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return domain.NewConflictError("category", "category %q already exists", name)
		}
		return domain.NewStorageError("rename category", err)
	}
	return expectOne(res, "category", id)
}

// DeleteCategory removes an empty category. A category that still owns
// products is not deleted and a ConflictError is returned; products must be
// moved or deleted first.
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	return r.st.InTx(ctx, func(tx *sql.Tx) error {
		var owned int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM products WHERE category_id = ?
		`, id).Scan(&owned); err != nil {
			return domain.NewStorageError("count category products", err)
		}
		if owned > 0 {
			return &domain.Error{
				Code:    domain.ErrCodeConflict,
				Message: "category still has products",
				Entity:  "category",
				ID:      id,
			}
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
		if err != nil {
			if store.IsForeignKeyViolation(err) {
				return domain.NewConflictError("category", "category still has products")
			}
			return domain.NewStorageError("delete category", err)
		}
		if err := expectOne(res, "category", id); err != nil {
			return err
		}
		r.logger.Info("category deleted", "category_id", id)
		return nil
	})
}

func categoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.NewValidationError("category name is required")
	}
	return name, nil
}

func expectOne(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return domain.NewStorageError(entity+": rows affected", err)
	}
	if n == 0 {
		return domain.NewNotFoundError(entity, id)
	}
	return nil
}

func scanCategory(ctx context.Context, q store.Querier, id int64) (domain.Category, error) {
	var c domain.Category
	err := q.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = ?`, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Category{}, domain.NewNotFoundError("category", id)
	}
	if err != nil {
		return domain.Category{}, domain.NewStorageError("query category", err)
	}
	return c, nil
}

// GetCategory returns the category with the given id.
func (r *Repository) GetCategory(ctx context.Context, id int64) (domain.Category, error) {
	return scanCategory(ctx, r.st.DB(), id)
}

// matchAll is the shared "no filter" check used by search and filter.
func matchAll(t query.Text, rng query.Range) bool {
	return t.IsBlank() && rng.Unbounded()
}
