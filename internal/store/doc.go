// Package store provides the SQLite-backed storage handle for the storefront.
//
// The store owns one database file per installation and holds:
//   - Catalog: categories and products
//   - Accounts: users with bcrypt password hashes
//   - Carts: one row per (user, product) pair
//   - Orders: orders and their immutable line snapshots
//
// # Lifecycle
//
// Open creates or opens the file, applies pragmas, creates missing tables and
// runs additive migrations. Close releases the handle. There is no package
// level handle; every repository receives the *Store it works on.
//
// # Database Configuration
//
//   - WAL mode: readers see a consistent snapshot while a write is in flight
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//   - a single pooled connection, so access to the engine is serialized
//
// # Schema Evolution
//
// Schema changes are additive only. schema.sql uses CREATE ... IF NOT EXISTS
// and later columns are added by migrations keyed on PRAGMA user_version, so
// a file written by an older build always opens.
package store
