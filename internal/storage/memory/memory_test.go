package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/accounts-api/internal/storage"
	"github.com/aanand-mishra/accounts-api/internal/storage/storagetest"
	"github.com/aanand-mishra/accounts-api/internal/types"
)

func TestMemory(t *testing.T) {
	storagetest.Run(t, func(t *testing.T, policy storage.IDPolicy) storage.Storage {
		return New(policy)
	})
}

func TestMemory_ReturnedAccountsAreCopies(t *testing.T) {
	m := New(storage.IDSequential)
	created, err := m.CreateAccount(types.Account{Username: "a", Email: "a@x.com"})
	require.NoError(t, err)

	created.Username = "mutated"

	got, ok, err := m.GetAccountByID(created.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", got.Username)
}

func TestMemory_ConcurrentMixedOperations(t *testing.T) {
	m := New(storage.IDSequential)

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			a, err := m.CreateAccount(types.Account{Username: "u", Email: "u@x.com"})
			assert.NoError(t, err)
			_, ok, _ := m.UpdateAccountByID(a.ID, types.AccountPatch{Username: "v", Email: "v@x.com"})
			assert.True(t, ok)
			_, ok, _ = m.DeleteAccountByID(a.ID)
			assert.True(t, ok)
		}()
	}
	wg.Wait()

	all, err := m.GetAccounts()
	require.NoError(t, err)
	assert.Empty(t, all)

	next, err := m.CreateAccount(types.Account{Username: "n", Email: "n@x.com"})
	require.NoError(t, err)
	assert.Equal(t, uint64(goroutines+1), next.ID)
}

func TestMemory_Close(t *testing.T) {
	assert.NoError(t, New(storage.IDSequential).Close())
}
