package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/storefront/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// uriPath escapes the characters SQLite gives meaning to inside a file: URI.
var uriPath = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

// dsn builds the driver URI for path with foreign keys enabled.
func dsn(path string) string {
	return "file:" + uriPath.Replace(path) + "?_foreign_keys=on"
}

// Schema version tracking:
// 0 - Initial schema (categories, products, users, cart_items, orders, order_items)
// 1 - Added orders.checkout_token with a UNIQUE index
const currentSchemaVersion = 1

// Store is the storage handle shared by every repository.
// Uses SQLite with WAL mode and a single connection.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	path   string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for transaction diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// Any failure is returned as a StorageError: the host application cannot
// proceed without the store.
//
// This function is idempotent - safe to call on every start.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:   path,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	// _foreign_keys is applied by the driver on every new connection, so the
	// constraint holds even if the pool replaces the connection.
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, domain.NewStorageError("open database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, domain.NewStorageError("connect to database", err)
	}

	// SQLite only supports one writer at a time; a single connection also
	// serializes every read behind any in-flight transaction.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, domain.NewStorageError("apply pragmas", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, domain.NewStorageError("apply schema", err)
	}

	s.db = db
	s.logger.Debug("store opened", "path", path)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer repository methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the location the store was opened from.
func (s *Store) Path() string {
	return s.path
}

// Logger returns the store's logger.
func (s *Store) Logger() *slog.Logger {
	return s.logger
}

// Querier is satisfied by both *sql.DB and *sql.Tx, letting repositories run
// the same statements inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InTx runs fn inside a transaction. The transaction commits if fn returns
// nil and rolls back otherwise, so none of fn's writes are visible on error.
//
// fn must use tx for every statement: the pool holds one connection, and a
// query on the *sql.DB from inside fn would wait on the transaction forever.
func (s *Store) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewStorageError("begin transaction", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(tx); err != nil {
		s.logger.Debug("transaction rolled back", "error", err)
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.NewStorageError("commit transaction", err)
	}
	return nil
}

// RunIn runs fn against q when q is already a transaction, and inside a new
// transaction otherwise. Repositories bound to a caller's transaction use it
// so they never try to open a second one on the single connection.
func (s *Store) RunIn(ctx context.Context, q Querier, fn func(q Querier) error) error {
	if tx, ok := q.(*sql.Tx); ok {
		return fn(tx)
	}
	return s.InTx(ctx, func(tx *sql.Tx) error { return fn(tx) })
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	return nil
}

// migrateToV1 adds the checkout token used to deduplicate repeated checkouts.
// NULL tokens do not collide under the UNIQUE index.
func migrateToV1(db *sql.DB) error {
	exists, err := columnExists(db, "orders", "checkout_token")
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	if !exists {
		if _, err := db.Exec(`ALTER TABLE orders ADD COLUMN checkout_token TEXT`); err != nil {
			return fmt.Errorf("migrate to v1: add column: %w", err)
		}
	}
	_, err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_checkout_token
		ON orders(checkout_token)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// columnExists reports whether table has a column with the given name.
func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
