// Package catalog fetches the manager's node and model listings and
// resolves human queries to single entries.
//
// Listings are fetched fresh for every resolution because remote state
// changes between installs. Matching is lenient for nodes, which have no
// acceptance floor, and strict for models, which must score at least
// [ModelAcceptanceFloor]. Ties keep the entry seen first.
package catalog
