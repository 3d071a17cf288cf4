package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/accounts-api/internal/storage"
	"github.com/aanand-mishra/accounts-api/internal/storage/memory"
	"github.com/aanand-mishra/accounts-api/internal/types"
)

func TestInstrumentStorage_CountsResults(t *testing.T) {
	m := New()
	s := InstrumentStorage(memory.New(storage.IDSequential), m)

	a, err := s.CreateAccount(types.Account{Username: "a", Email: "a@x.com"})
	require.NoError(t, err)

	_, ok, err := s.GetAccountByID(a.ID)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = s.GetAccountByID(99)
	require.NoError(t, err)
	require.False(t, ok)

	_, _, err = s.UpdateAccountByID(a.ID, types.AccountPatch{Username: "b", Email: "b@x.com"})
	require.NoError(t, err)

	_, err = s.GetAccounts()
	require.NoError(t, err)

	_, ok, err = s.DeleteAccountByID(a.ID)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = s.DeleteAccountByID(a.ID)
	require.NoError(t, err)
	require.False(t, ok)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues(OpCreate, ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues(OpGet, ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues(OpGet, ResultNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues(OpUpdate, ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues(OpList, ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues(OpDelete, ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues(OpDelete, ResultNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AccountsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AccountsDeleted))

	assert.NoError(t, s.Close())
}

func TestMetrics_InstancesAreIndependent(t *testing.T) {
	first, second := New(), New()
	first.AccountsCreated.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(first.AccountsCreated))
	assert.Equal(t, 0.0, testutil.ToFloat64(second.AccountsCreated))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveOperation(OpCreate, ResultOK)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `accounts_store_operations_total{op="create",result="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
