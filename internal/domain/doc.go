// Package domain defines the value types exchanged across the storefront
// store boundary, the error taxonomy returned by every repository, the order
// status transition graph, and the authorization policy for account changes.
//
// Values returned by repositories are copies. Nothing in this package holds a
// handle into storage.
package domain
