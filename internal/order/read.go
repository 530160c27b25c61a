package order

import (
	"context"
	"database/sql"

	"github.com/roach88/storefront/internal/domain"
	"github.com/roach88/storefront/internal/store"
)

const selectOrders = `
	SELECT o.id, o.user_id, o.total_amount, o.status, o.created_at,
	       o.shipping_address, o.note, o.payment_method, COALESCE(u.username, '')
	FROM orders o
	LEFT JOIN users u ON u.id = o.user_id
`

// FetchOrdersByUser returns the user's orders, newest first.
func (s *Service) FetchOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	rows, err := s.queryOrders(ctx, selectOrders+` WHERE o.user_id = ? ORDER BY o.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	orders := make([]domain.Order, len(rows))
	for i, r := range rows {
		orders[i] = r.Order
	}
	return orders, nil
}

// FetchAllOrders returns every order with the owner's username, newest
// first.
func (s *Service) FetchAllOrders(ctx context.Context) ([]domain.OrderWithUsername, error) {
	return s.queryOrders(ctx, selectOrders+` ORDER BY o.id DESC`)
}

// FetchOrder returns a single order.
func (s *Service) FetchOrder(ctx context.Context, orderID int64) (domain.Order, error) {
	rows, err := s.queryOrders(ctx, selectOrders+` WHERE o.id = ?`, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if len(rows) == 0 {
		return domain.Order{}, domain.NewNotFoundError("order", orderID)
	}
	return rows[0].Order, nil
}

// FetchOrderItems returns the line snapshots of an order in insertion order.
// An unknown order has no items.
func (s *Service) FetchOrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	return fetchItems(ctx, s.st.DB(), orderID)
}

// FetchOrderDetails returns an order together with its items.
func (s *Service) FetchOrderDetails(ctx context.Context, orderID int64) (domain.OrderDetails, error) {
	o, err := s.FetchOrder(ctx, orderID)
	if err != nil {
		return domain.OrderDetails{}, err
	}
	items, err := s.FetchOrderItems(ctx, orderID)
	if err != nil {
		return domain.OrderDetails{}, err
	}
	return domain.OrderDetails{Order: o, Items: items}, nil
}

func (s *Service) queryOrders(ctx context.Context, q string, args ...any) ([]domain.OrderWithUsername, error) {
	rows, err := s.st.DB().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, domain.NewStorageError("query orders", err)
	}
	defer rows.Close()

	orders := []domain.OrderWithUsername{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("iterate orders", err)
	}
	return orders, nil
}

func scanOrder(rows *sql.Rows) (domain.OrderWithUsername, error) {
	var (
		o         domain.OrderWithUsername
		status    string
		createdAt string
	)
	if err := rows.Scan(
		&o.ID, &o.UserID, &o.TotalAmount, &status, &createdAt,
		&o.ShippingAddress, &o.Note, &o.PaymentMethod, &o.Username,
	); err != nil {
		return o, domain.NewStorageError("scan order", err)
	}
	t, err := store.ParseTime(createdAt)
	if err != nil {
		return o, domain.NewStorageError("parse order created_at", err)
	}
	o.Status = domain.OrderStatus(status)
	o.CreatedAt = t
	return o, nil
}

func fetchItems(ctx context.Context, q store.Querier, orderID int64) ([]domain.OrderItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, product_id, name, price, quantity
		FROM order_items
		WHERE order_id = ?
		ORDER BY id ASC
	`, orderID)
	if err != nil {
		return nil, domain.NewStorageError("query order items", err)
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Price, &it.Quantity); err != nil {
			return nil, domain.NewStorageError("scan order item", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("iterate order items", err)
	}
	return items, nil
}
