// Package models defines the core domain models for splitledger.
//
// An Expense is an immutable fact recorded by one payer. Balances and
// settlements are never stored; they are derived from the full set of
// expenses on every read by the calculator package.
//
// People are identified by their name strings; there are no user accounts.
package models
