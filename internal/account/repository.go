// Package account manages storefront user accounts: creation at signup,
// credential checks at login, and admin-only role and profile changes.
package account

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/roach88/storefront/internal/domain"
	"github.com/roach88/storefront/internal/store"
)

// Repository provides access to the users table.
type Repository struct {
	st     *store.Store
	hasher *Hasher
	policy domain.Policy
	logger *slog.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithHasher overrides the password hasher. Tests use a low cost.
func WithHasher(h *Hasher) Option {
	return func(r *Repository) { r.hasher = h }
}

// WithLogger overrides the store's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) { r.logger = l }
}

// NewRepository creates an account repository on st.
func NewRepository(st *store.Store, opts ...Option) *Repository {
	r := &Repository{
		st:     st,
		hasher: NewHasher(0),
		policy: domain.DefaultPolicy,
		logger: st.Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Hasher returns the password hasher in use.
func (r *Repository) Hasher() *Hasher {
	return r.hasher
}

type newUser struct {
	Username string      `validate:"required,max=64"`
	Password string      `validate:"required"`
	Role     domain.Role `validate:"required,oneof=user admin"`
}

// AddUser creates an account. Returns ConflictError if the username is taken.
func (r *Repository) AddUser(ctx context.Context, username, password string, role domain.Role) (domain.User, error) {
	in := newUser{Username: strings.TrimSpace(username), Password: password, Role: role}
	if err := domain.Validate(in); err != nil {
		return domain.User{}, err
	}

	hash, err := r.hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, domain.NewStorageError("hash password", err)
	}

	res, err := r.st.DB().ExecContext(ctx, `
		INSERT INTO users (username, password_hash, role)
		VALUES (?, ?, ?)
	`, in.Username, hash, string(in.Role))
	if err != nil {
		if store.IsUniqueViolation(err) {
			return domain.User{}, domain.NewConflictError("user", "username %q already exists", in.Username)
		}
		return domain.User{}, domain.NewStorageError("insert user", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.User{}, domain.NewStorageError("insert user: last insert id", err)
	}

	r.logger.Info("user added", "user_id", id, "role", in.Role)
	return domain.User{ID: id, Username: in.Username, Role: in.Role}, nil
}

// GetUserByCredentials looks the user up by username and verifies the
// password hash. Returns (nil, nil) for an unknown user or a wrong password.
func (r *Repository) GetUserByCredentials(ctx context.Context, username, password string) (*domain.User, error) {
	var (
		u    domain.User
		hash string
		role string
	)
	err := r.st.DB().QueryRowContext(ctx, `
		SELECT id, username, password_hash, role
		FROM users
		WHERE username = ?
	`, strings.TrimSpace(username)).Scan(&u.ID, &u.Username, &hash, &role)
	if errors.Is(err, sql.ErrNoRows) {
		r.hasher.burn(password)
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewStorageError("query credentials", err)
	}

	ok, err := r.hasher.Verify(hash, password)
	if err != nil {
		r.logger.Warn("unreadable password hash", "user_id", u.ID, "error", err)
		return nil, nil
	}
	if !ok {
		return nil, nil
	}

	u.Role = domain.Role(role)
	return &u, nil
}

// GetUser returns the user with the given id.
func (r *Repository) GetUser(ctx context.Context, id int64) (domain.User, error) {
	return getUser(ctx, r.st.DB(), id)
}

// ListUsers returns all users ordered by id.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.st.DB().QueryContext(ctx, `
		SELECT id, username, role
		FROM users
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, domain.NewStorageError("query users", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var u domain.User
		var role string
		if err := rows.Scan(&u.ID, &u.Username, &role); err != nil {
			return nil, domain.NewStorageError("scan user", err)
		}
		u.Role = domain.Role(role)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("iterate users", err)
	}
	return users, nil
}

// UpdateUserRole changes a user's role. The protected admin account keeps
// the admin role.
func (r *Repository) UpdateUserRole(ctx context.Context, id int64, role domain.Role) error {
	if !role.Valid() {
		return domain.NewValidationError("unknown role %q", role)
	}

	return r.st.InTx(ctx, func(tx *sql.Tx) error {
		u, err := getUser(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := r.policy.CanSetRole(u, role); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, string(role), id); err != nil {
			return domain.NewStorageError("update role", err)
		}
		r.logger.Info("user role updated", "user_id", id, "role", role)
		return nil
	})
}

// UpdateUser replaces a user's profile. A blank password keeps the stored
// hash.
func (r *Repository) UpdateUser(ctx context.Context, upd domain.UserUpdate) error {
	upd.Username = strings.TrimSpace(upd.Username)
	if err := domain.Validate(upd); err != nil {
		return err
	}

	var hash string
	if strings.TrimSpace(upd.Password) != "" {
		h, err := r.hasher.Hash(upd.Password)
		if err != nil {
			return domain.NewStorageError("hash password", err)
		}
		hash = h
	}

	return r.st.InTx(ctx, func(tx *sql.Tx) error {
		current, err := getUser(ctx, tx, upd.ID)
		if err != nil {
			return err
		}
		if err := r.policy.CanChange(current, upd); err != nil {
			return err
		}

		if hash == "" {
			_, err = tx.ExecContext(ctx, `
				UPDATE users SET username = ?, role = ? WHERE id = ?
			`, upd.Username, string(upd.Role), upd.ID)
		} else {
			_, err = tx.ExecContext(ctx, `
				UPDATE users SET username = ?, role = ?, password_hash = ? WHERE id = ?
			`, upd.Username, string(upd.Role), hash, upd.ID)
		}
		if err != nil {
			if store.IsUniqueViolation(err) {
				return domain.NewConflictError("user", "username %q already exists", upd.Username)
			}
			return domain.NewStorageError("update user", err)
		}

		r.logger.Info("user updated", "user_id", upd.ID, "password_changed", hash != "")
		return nil
	})
}

// DeleteUser removes an account and its cart. The protected admin account
// cannot be deleted, and neither can a user who has placed orders.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	return r.st.InTx(ctx, func(tx *sql.Tx) error {
		u, err := getUser(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := r.policy.CanDelete(u); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
			if store.IsForeignKeyViolation(err) {
				return domain.NewConflictError("user", "user %q has orders", u.Username)
			}
			return domain.NewStorageError("delete user", err)
		}

		r.logger.Info("user deleted", "user_id", id)
		return nil
	})
}

func getUser(ctx context.Context, q store.Querier, id int64) (domain.User, error) {
	var u domain.User
	var role string
	err := q.QueryRowContext(ctx, `
		SELECT id, username, role FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Username, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.NewNotFoundError("user", id)
	}
	if err != nil {
		return domain.User{}, domain.NewStorageError("query user", err)
	}
	u.Role = domain.Role(role)
	return u, nil
}
