// Package cart keeps each user's in-progress selection of products.
package cart

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/roach88/storefront/internal/domain"
	"github.com/roach88/storefront/internal/store"
)

// Repository provides access to cart rows.
type Repository struct {
	st     *store.Store
	q      store.Querier
	logger *slog.Logger
}

// NewRepository creates a cart repository on st.
func NewRepository(st *store.Store) *Repository {
	return &Repository{st: st, q: st.DB(), logger: st.Logger()}
}

// WithTx returns a copy of the repository whose statements run on tx.
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	c := *r
	c.q = tx
	return &c
}

// AddToCart adds quantity units of a product to the user's cart. An existing
// row for the same (user, product) is incremented instead of duplicated.
func (r *Repository) AddToCart(ctx context.Context, userID, productID int64, quantity int) (domain.CartItem, error) {
	if quantity <= 0 {
		return domain.CartItem{}, domain.NewValidationError("quantity must be positive")
	}

	var item domain.CartItem
	err := r.st.RunIn(ctx, r.q, func(q store.Querier) error {
		if err := exists(ctx, q, "users", "user", userID); err != nil {
			return err
		}
		if err := exists(ctx, q, "products", "product", productID); err != nil {
			return err
		}

		_, err := q.ExecContext(ctx, `
			INSERT INTO cart_items (user_id, product_id, quantity)
			VALUES (?, ?, ?)
			ON CONFLICT(user_id, product_id) DO UPDATE SET quantity = quantity + excluded.quantity
		`, userID, productID, quantity)
		if err != nil {
			return domain.NewStorageError("upsert cart item", err)
		}

		err = q.QueryRowContext(ctx, `
			SELECT id, user_id, product_id, quantity
			FROM cart_items
			WHERE user_id = ? AND product_id = ?
		`, userID, productID).Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity)
		if err != nil {
			return domain.NewStorageError("read cart item", err)
		}
		return nil
	})
	if err != nil {
		return domain.CartItem{}, err
	}

	r.logger.Debug("cart item added", "user_id", userID, "product_id", productID, "quantity", item.Quantity)
	return item, nil
}

// UpdateCartItemQuantity sets a row's quantity. A quantity of zero or less
// removes the row.
func (r *Repository) UpdateCartItemQuantity(ctx context.Context, cartItemID int64, quantity int) error {
	if quantity <= 0 {
		return r.RemoveCartItem(ctx, cartItemID)
	}
	res, err := r.q.ExecContext(ctx, `UPDATE cart_items SET quantity = ? WHERE id = ?`, quantity, cartItemID)
	if err != nil {
		return domain.NewStorageError("update cart item", err)
	}
	return expectOne(res, cartItemID)
}

// RemoveCartItem deletes one cart row.
func (r *Repository) RemoveCartItem(ctx context.Context, cartItemID int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ?`, cartItemID)
	if err != nil {
		return domain.NewStorageError("delete cart item", err)
	}
	return expectOne(res, cartItemID)
}

// FetchCartItemsByUser returns the user's cart joined with the current
// product name, price and image. Rows whose product no longer exists are
// left out.
func (r *Repository) FetchCartItemsByUser(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, p.name, p.price, p.image
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = ?
		ORDER BY ci.id ASC
	`, userID)
	if err != nil {
		return nil, domain.NewStorageError("query cart", err)
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity, &l.Name, &l.Price, &l.Image); err != nil {
			return nil, domain.NewStorageError("scan cart line", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("iterate cart", err)
	}
	return lines, nil
}

// ClearCart deletes every cart row of the user. Checkout calls it on a
// repository bound to the checkout transaction.
func (r *Repository) ClearCart(ctx context.Context, userID int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ?`, userID)
	if err != nil {
		return domain.NewStorageError("clear cart", err)
	}
	n, _ := res.RowsAffected()
	r.logger.Debug("cart cleared", "user_id", userID, "rows", n)
	return nil
}

func expectOne(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return domain.NewStorageError("cart item: rows affected", err)
	}
	if n == 0 {
		return domain.NewNotFoundError("cart item", id)
	}
	return nil
}

// exists returns a NotFoundError unless table has a row with the given id.
// table is always a constant from this package.
func exists(ctx context.Context, q store.Querier, table, entity string, id int64) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewNotFoundError(entity, id)
	}
	if err != nil {
		return domain.NewStorageError("query "+entity, err)
	}
	return nil
}
