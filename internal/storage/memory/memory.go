// Package memory provides the default implementation of storage.Storage:
// a map guarded by a single mutex.
//
// Every operation, reads included, takes the same lock for its whole
// duration, so all calls are totally ordered. Nothing inside a critical
// section blocks or calls out.
package memory

import (
	"sort"
	"sync"

	"github.com/aanand-mishra/accounts-api/internal/storage"
	"github.com/aanand-mishra/accounts-api/internal/types"
)

// Memory is a process-lifetime account store. Its contents are lost on
// restart. The zero value is not usable; call New.
type Memory struct {
	mu       sync.Mutex
	accounts map[uint64]types.Account
	policy   storage.IDPolicy
	lastID   uint64
}

var _ storage.Storage = (*Memory)(nil)

// New returns an empty store that assigns ids according to policy.
func New(policy storage.IDPolicy) *Memory {
	return &Memory{
		accounts: make(map[uint64]types.Account),
		policy:   policy,
	}
}

// CreateAccount computes the next id and inserts the record in the same
// critical section, so concurrent creates never observe the same state.
//
// Under storage.IDSizePlusOne the computed id may already be taken; the
// existing record is then overwritten.
func (m *Memory) CreateAccount(candidate types.Account) (types.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidate.ID = m.policy.Next(len(m.accounts), m.lastID)
	m.accounts[candidate.ID] = candidate
	if candidate.ID > m.lastID {
		m.lastID = candidate.ID
	}

	return candidate, nil
}

// GetAccountByID returns the account with the given id, if any.
func (m *Memory) GetAccountByID(id uint64) (types.Account, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	return account, ok, nil
}

// GetAccounts returns a snapshot of every account ordered by id.
func (m *Memory) GetAccounts() ([]types.Account, error) {
	m.mu.Lock()
	accounts := make([]types.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		accounts = append(accounts, a)
	}
	m.mu.Unlock()

	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

// UpdateAccountByID overwrites username and email in place. A missing id
// is left missing.
func (m *Memory) UpdateAccountByID(id uint64, patch types.AccountPatch) (types.Account, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.accounts[id]
	if !ok {
		return types.Account{}, false, nil
	}

	updated := patch.Apply(existing)
	m.accounts[id] = updated
	return updated, true, nil
}

// DeleteAccountByID removes the account and returns what was removed.
func (m *Memory) DeleteAccountByID(id uint64) (types.Account, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return types.Account{}, false, nil
	}

	delete(m.accounts, id)
	return account, true, nil
}

// Close is a no-op; the map is garbage collected with the store.
func (m *Memory) Close() error {
	return nil
}
