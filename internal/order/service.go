// Package order turns carts into orders and manages their status.
//
// Checkout is the one multi-table write in the storefront: the order row, its
// line snapshots and the clearing of the user's cart commit together or not
// at all.
package order

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/storefront/internal/cart"
	"github.com/roach88/storefront/internal/domain"
	"github.com/roach88/storefront/internal/query"
	"github.com/roach88/storefront/internal/store"
)

// Service creates and tracks orders.
type Service struct {
	st     *store.Store
	carts  *cart.Repository
	clock  Clock
	tokens TokenGenerator
	logger *slog.Logger

	// afterOrderInsert runs inside the checkout transaction right after the
	// order row is written. A non-nil error aborts the checkout.
	afterOrderInsert func(orderID int64) error
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for CreatedAt.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithTokenGenerator sets the generator for checkout tokens.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(s *Service) { s.tokens = g }
}

// WithLogger overrides the store's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates an order service on st. carts is used to read and clear
// carts.
func NewService(st *store.Store, carts *cart.Repository, opts ...Option) *Service {
	s := &Service{
		st:     st,
		carts:  carts,
		clock:  SystemClock{},
		tokens: UUIDv7Generator{},
		logger: st.Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder writes an order, its items and clears the user's cart in one
// transaction, returning the new order id.
//
// Item prices are taken as given; the total is their sum and is never
// recomputed. If req.Token names an order the same user already placed, that
// order's id is returned and nothing is written, even when the cart has since
// been emptied. A token used by another user fails with ConflictError.
func (s *Service) CreateOrder(ctx context.Context, req domain.CheckoutRequest) (int64, error) {
	token := strings.TrimSpace(req.Token)
	replayable := token != ""
	if replayable {
		orderID, found, err := replayedOrder(ctx, s.st.DB(), req.UserID, token)
		if err != nil {
			return 0, err
		}
		if found {
			s.logger.Info("checkout replayed", "user_id", req.UserID, "order_id", orderID, "token", token)
			return orderID, nil
		}
	}

	if len(req.Items) == 0 {
		return 0, domain.NewValidationError("cannot check out an empty cart")
	}
	if err := domain.Validate(req); err != nil {
		return 0, err
	}
	total := decimal.Zero
	for _, it := range req.Items {
		if it.Price.IsNegative() {
			return 0, domain.NewValidationError("price of %q must not be negative", it.Name)
		}
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	if !replayable {
		token = s.tokens.Generate()
	}
	payment := domain.ResolvePaymentMethod(req.PaymentMethod)
	createdAt := s.clock.Now()

	var (
		orderID  int64
		replayed bool
	)
	err := s.st.InTx(ctx, func(tx *sql.Tx) error {
		if replayable {
			id, found, err := replayedOrder(ctx, tx, req.UserID, token)
			if err != nil {
				return err
			}
			if found {
				orderID, replayed = id, true
				return nil
			}
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO orders
			(user_id, total_amount, status, created_at, shipping_address, note, payment_method, checkout_token)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			req.UserID,
			total.String(),
			string(domain.StatusPending),
			store.FormatTime(createdAt),
			strings.TrimSpace(req.ShippingAddress),
			strings.TrimSpace(req.Note),
			payment,
			token,
		)
		if err != nil {
			if store.IsForeignKeyViolation(err) {
				return domain.NewNotFoundError("user", req.UserID)
			}
			return domain.NewStorageError("insert order", err)
		}
		orderID, err = res.LastInsertId()
		if err != nil {
			return domain.NewStorageError("insert order: last insert id", err)
		}

		if s.afterOrderInsert != nil {
			if err := s.afterOrderInsert(orderID); err != nil {
				return store.Wrap("checkout", err)
			}
		}

		for _, it := range req.Items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, product_id, name, price, quantity)
				VALUES (?, ?, ?, ?, ?)
			`, orderID, it.ProductID, it.Name, it.Price.String(), it.Quantity)
			if err != nil {
				return domain.NewStorageError("insert order item", err)
			}
		}

		return s.carts.WithTx(tx).ClearCart(ctx, req.UserID)
	})
	if err != nil {
		s.logger.Error("checkout failed", "user_id", req.UserID, "token", token, "error", err)
		return 0, err
	}

	if replayed {
		s.logger.Info("checkout replayed", "user_id", req.UserID, "order_id", orderID, "token", token)
		return orderID, nil
	}
	s.logger.Info("order created",
		"order_id", orderID,
		"user_id", req.UserID,
		"items", len(req.Items),
		"total", total.String(),
		"payment", payment,
		"token", token,
	)
	return orderID, nil
}

// replayedOrder looks up the order placed with token. It reports false when
// the token is unused and fails with ConflictError when another user owns it.
func replayedOrder(ctx context.Context, q store.Querier, userID int64, token string) (int64, bool, error) {
	var id, owner int64
	err := q.QueryRowContext(ctx, `
		SELECT id, user_id FROM orders WHERE checkout_token = ?
	`, token).Scan(&id, &owner)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, domain.NewStorageError("look up checkout token", err)
	}
	if owner != userID {
		return 0, false, domain.NewConflictError("order", "checkout token %q belongs to another user", token)
	}
	return id, true, nil
}

// CheckoutFromCart places an order for the user's current cart at live
// prices. req.Items is ignored and replaced by the cart contents. A replayed
// token returns the original order id even though the cart is now empty.
func (s *Service) CheckoutFromCart(ctx context.Context, req domain.CheckoutRequest) (int64, error) {
	lines, err := s.carts.FetchCartItemsByUser(ctx, req.UserID)
	if err != nil {
		return 0, err
	}
	req.Items = make([]domain.CheckoutItem, 0, len(lines))
	for _, l := range lines {
		req.Items = append(req.Items, domain.CheckoutItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price,
			Quantity:  l.Quantity,
		})
	}
	return s.CreateOrder(ctx, req)
}

// UpdateOrderStatus moves an order along the status graph. Any move the
// graph does not allow fails with InvalidTransitionError and changes nothing.
// status accepts the same aliases as domain.ParseOrderStatus; anything else
// fails with ValidationError.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) error {
	status, err := domain.ParseOrderStatus(string(status))
	if err != nil {
		return err
	}
	return s.st.InTx(ctx, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = ?`, orderID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewNotFoundError("order", orderID)
		}
		if err != nil {
			return domain.NewStorageError("query order status", err)
		}

		from := domain.OrderStatus(current)
		if !domain.CanTransition(from, status) {
			return domain.NewInvalidTransitionError(orderID, from, status)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, string(status), orderID); err != nil {
			return domain.NewStorageError("update order status", err)
		}
		s.logger.Info("order status updated", "order_id", orderID, "from", from, "to", status)
		return nil
	})
}

// FilterOrders returns admin listing rows matching f. The keyword is matched
// against username, shipping address, note and payment method.
func (s *Service) FilterOrders(ctx context.Context, f domain.OrderFilter) ([]domain.OrderWithUsername, error) {
	if f.Status != "" {
		status, err := domain.ParseOrderStatus(string(f.Status))
		if err != nil {
			return nil, err
		}
		f.Status = status
	}
	rng := query.NewRange(f.MinTotal, f.MaxTotal)
	if rng.Empty() {
		return []domain.OrderWithUsername{}, nil
	}
	all, err := s.FetchAllOrders(ctx)
	if err != nil {
		return nil, err
	}

	text := query.NewText(f.Keyword)
	result := []domain.OrderWithUsername{}
	for _, o := range all {
		if f.UserID != 0 && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if !text.Matches(o.Username, o.ShippingAddress, o.Note, o.PaymentMethod) {
			continue
		}
		if !rng.Contains(o.TotalAmount) {
			continue
		}
		result = append(result, o)
	}
	return result, nil
}
