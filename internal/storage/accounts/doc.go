// Package accounts persists user accounts. The Mongo store is the production
// backend; the memory store mirrors its conditional-update semantics for tests
// and standalone runs.
package accounts
