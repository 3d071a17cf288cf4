// Package storagetest is a contract suite shared by every storage.Storage
// backend. A backend's own tests call Run with a constructor.
package storagetest

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/accounts-api/internal/storage"
	"github.com/aanand-mishra/accounts-api/internal/types"
)

// Factory returns a fresh, empty store using the given id policy.
type Factory func(t *testing.T, policy storage.IDPolicy) storage.Storage

// Run exercises the full Storage contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("sequential creates get ascending ids", func(t *testing.T) {
		s := newStore(t, storage.IDSequential)
		for i := 1; i <= 5; i++ {
			got, err := s.CreateAccount(types.Account{Username: "u", Email: "u@x.com"})
			require.NoError(t, err)
			assert.Equal(t, uint64(i), got.ID)
		}
	})

	t.Run("client supplied id is ignored", func(t *testing.T) {
		s := newStore(t, storage.IDSequential)
		got, err := s.CreateAccount(types.Account{ID: 42, Username: "a", Email: "a@x.com"})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), got.ID)

		_, ok, err := s.GetAccountByID(42)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("read after create", func(t *testing.T) {
		s := newStore(t, storage.IDSequential)
		created, err := s.CreateAccount(types.Account{Username: "a", Email: "a@x.com"})
		require.NoError(t, err)

		got, ok, err := s.GetAccountByID(created.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, created, got)
	})

	t.Run("missing id reports absence", func(t *testing.T) {
		s := newStore(t, storage.IDSequential)

		_, ok, err := s.GetAccountByID(7)
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = s.UpdateAccountByID(7, types.AccountPatch{Username: "x", Email: "x"})
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = s.DeleteAccountByID(7)
		require.NoError(t, err)
		assert.False(t, ok)

		all, err := s.GetAccounts()
		require.NoError(t, err)
		assert.Empty(t, all, "update of a missing id must not create it")
	})

	t.Run("ids beyond int64 report absence", func(t *testing.T) {
		s := newStore(t, storage.IDSequential)
		_, err := s.CreateAccount(types.Account{Username: "a", Email: "a@x.com"})
		require.NoError(t, err)

		const huge = uint64(1) << 63

		_, ok, err := s.GetAccountByID(huge)
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = s.UpdateAccountByID(huge, types.AccountPatch{Username: "x", Email: "x"})
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = s.DeleteAccountByID(huge)
		require.NoError(t, err)
		assert.False(t, ok)

		all, err := s.GetAccounts()
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("update preserves id", func(t *testing.T) {
		s := newStore(t, storage.IDSequential)
		created, err := s.CreateAccount(types.Account{Username: "a", Email: "a@x.com"})
		require.NoError(t, err)

		updated, ok, err := s.UpdateAccountByID(created.ID, types.AccountPatch{Username: "b", Email: "b@x.com"})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, types.Account{ID: created.ID, Username: "b", Email: "b@x.com"}, updated)

		got, ok, err := s.GetAccountByID(created.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, updated, got)
	})

	t.Run("delete removes exactly one", func(t *testing.T) {
		s := newStore(t, storage.IDSequential)
		first, err := s.CreateAccount(types.Account{Username: "a", Email: "a@x.com"})
		require.NoError(t, err)
		second, err := s.CreateAccount(types.Account{Username: "b", Email: "b@x.com"})
		require.NoError(t, err)

		removed, ok, err := s.DeleteAccountByID(first.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, first, removed)

		_, ok, err = s.GetAccountByID(first.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = s.DeleteAccountByID(first.ID)
		require.NoError(t, err)
		assert.False(t, ok, "repeated delete reports absence")

		got, ok, err := s.GetAccountByID(second.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, second, got)
	})

	t.Run("list is ordered by id", func(t *testing.T) {
		s := newStore(t, storage.IDSequential)
		empty, err := s.GetAccounts()
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)

		for _, name := range []string{"c", "a", "b"} {
			_, err := s.CreateAccount(types.Account{Username: name, Email: name + "@x.com"})
			require.NoError(t, err)
		}

		all, err := s.GetAccounts()
		require.NoError(t, err)
		require.Len(t, all, 3)
		for i, a := range all {
			assert.Equal(t, uint64(i+1), a.ID)
		}
	})

	t.Run("scenario", func(t *testing.T) {
		s := newStore(t, storage.IDSequential)

		a, err := s.CreateAccount(types.Account{Username: "a", Email: "a@x.com"})
		require.NoError(t, err)
		assert.Equal(t, types.Account{ID: 1, Username: "a", Email: "a@x.com"}, a)

		b, err := s.CreateAccount(types.Account{Username: "b", Email: "b@x.com"})
		require.NoError(t, err)
		assert.Equal(t, uint64(2), b.ID)

		updated, ok, err := s.UpdateAccountByID(1, types.AccountPatch{Username: "a2", Email: "a2@x.com"})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, types.Account{ID: 1, Username: "a2", Email: "a2@x.com"}, updated)

		removed, ok, err := s.DeleteAccountByID(2)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, uint64(2), removed.ID)

		_, ok, err = s.GetAccountByID(2)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("sequential policy never reuses ids", func(t *testing.T) {
		s := newStore(t, storage.IDSequential)
		for i := 0; i < 3; i++ {
			_, err := s.CreateAccount(types.Account{Username: "u", Email: "u@x.com"})
			require.NoError(t, err)
		}
		_, ok, err := s.DeleteAccountByID(2)
		require.NoError(t, err)
		require.True(t, ok)

		next, err := s.CreateAccount(types.Account{Username: "n", Email: "n@x.com"})
		require.NoError(t, err)
		assert.Equal(t, uint64(4), next.ID)

		third, ok, err := s.GetAccountByID(3)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "u", third.Username)
	})

	t.Run("size policy reuses ids after delete", func(t *testing.T) {
		s := newStore(t, storage.IDSizePlusOne)
		for i := 0; i < 3; i++ {
			_, err := s.CreateAccount(types.Account{Username: "u", Email: "u@x.com"})
			require.NoError(t, err)
		}
		_, ok, err := s.DeleteAccountByID(2)
		require.NoError(t, err)
		require.True(t, ok)

		next, err := s.CreateAccount(types.Account{Username: "n", Email: "n@x.com"})
		require.NoError(t, err)
		assert.Equal(t, uint64(3), next.ID, "len+1 collides with the live record 3")

		third, ok, err := s.GetAccountByID(3)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "n", third.Username, "the colliding create overwrites")

		all, err := s.GetAccounts()
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	for _, policy := range []storage.IDPolicy{storage.IDSequential, storage.IDSizePlusOne} {
		t.Run("concurrent creates produce unique ids/"+string(policy), func(t *testing.T) {
			s := newStore(t, policy)

			const k = 64
			ids := make([]uint64, k)

			var wg sync.WaitGroup
			wg.Add(k)
			for i := 0; i < k; i++ {
				go func(i int) {
					defer wg.Done()
					a, err := s.CreateAccount(types.Account{Username: "c", Email: "c@x.com"})
					assert.NoError(t, err)
					ids[i] = a.ID
				}(i)
			}
			wg.Wait()

			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			for i, id := range ids {
				assert.Equal(t, uint64(i+1), id)
			}
		})
	}
}
