// Package storage defines the Storage interface: the contract every
// account backend must satisfy to work with this application.
//
// Handlers only know about this interface, so the in-memory map backend
// and the SQLite backend are interchangeable, and tests can run the same
// contract suite against both (see package storagetest).
//
// ABSENCE vs ERRORS
// ─────────────────
// "Not found" is not an error. Lookups report it through the boolean ok
// return value. The error return is reserved for backend failures (a
// driver error from SQLite, for example); the map backend never returns
// one.
package storage

import (
	"fmt"

	"github.com/aanand-mishra/accounts-api/internal/types"
)

// Storage is the account store contract.
//
// Every method runs under a single exclusive-access window: no two calls
// interleave, so read-modify-write sequences (id assignment, update in
// place) are atomic.
type Storage interface {
	// CreateAccount assigns a fresh id to candidate, stores it and returns
	// the stored record. candidate.ID is ignored.
	CreateAccount(candidate types.Account) (types.Account, error)

	// GetAccountByID returns the account with the given id.
	// ok is false when no such account exists.
	GetAccountByID(id uint64) (account types.Account, ok bool, err error)

	// GetAccounts returns every account ordered by id.
	// Returns an empty slice (not nil) when the store is empty.
	GetAccounts() ([]types.Account, error)

	// UpdateAccountByID overwrites username and email of an existing
	// account and returns the updated record. ok is false, and nothing
	// changes, when the account does not exist.
	UpdateAccountByID(id uint64, patch types.AccountPatch) (account types.Account, ok bool, err error)

	// DeleteAccountByID removes the account and returns it.
	// ok is false when there was nothing to remove.
	DeleteAccountByID(id uint64) (account types.Account, ok bool, err error)

	// Close releases backend resources.
	Close() error
}

// IDPolicy decides how CreateAccount picks the next id.
type IDPolicy string

const (
	// IDSequential hands out last+1, where last is the highest id ever
	// assigned. Ids are strictly increasing and never reused.
	IDSequential IDPolicy = "sequential"

	// IDSizePlusOne hands out len(store)+1. This reproduces the behaviour
	// of the service this API replaces: after a delete the next create can
	// receive the id of a live record and overwrite it.
	IDSizePlusOne IDPolicy = "size"
)

// Next returns the id the policy assigns given the current number of
// stored records and the highest id assigned so far.
func (p IDPolicy) Next(size int, last uint64) uint64 {
	if p == IDSizePlusOne {
		return uint64(size) + 1
	}
	return last + 1
}

// ParseIDPolicy converts a config value into an IDPolicy.
// An empty string selects IDSequential.
func ParseIDPolicy(s string) (IDPolicy, error) {
	switch IDPolicy(s) {
	case "", IDSequential:
		return IDSequential, nil
	case IDSizePlusOne:
		return IDSizePlusOne, nil
	default:
		return "", fmt.Errorf("unknown id policy %q", s)
	}
}
