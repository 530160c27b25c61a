// Package query holds the filter semantics shared by catalog search and order
// listing: Unicode case-insensitive substring matching and closed decimal
// ranges where an absent bound is unbounded.
//
// Both product search and the admin filters go through this package so that
// "no filter supplied" and "filter excludes everything" mean the same thing
// everywhere.
package query
