package metrics

import (
	"github.com/aanand-mishra/accounts-api/internal/storage"
	"github.com/aanand-mishra/accounts-api/internal/types"
)

// instrumentedStorage counts every call it forwards to the wrapped store.
type instrumentedStorage struct {
	next    storage.Storage
	metrics *Metrics
}

// InstrumentStorage wraps s so each operation is recorded in m.
func InstrumentStorage(s storage.Storage, m *Metrics) storage.Storage {
	return &instrumentedStorage{next: s, metrics: m}
}

func result(ok bool, err error) string {
	switch {
	case err != nil:
		return ResultError
	case !ok:
		return ResultNotFound
	default:
		return ResultOK
	}
}

func (s *instrumentedStorage) CreateAccount(candidate types.Account) (types.Account, error) {
	account, err := s.next.CreateAccount(candidate)
	s.metrics.ObserveOperation(OpCreate, result(true, err))
	if err == nil {
		s.metrics.AccountsCreated.Inc()
	}
	return account, err
}

func (s *instrumentedStorage) GetAccountByID(id uint64) (types.Account, bool, error) {
	account, ok, err := s.next.GetAccountByID(id)
	s.metrics.ObserveOperation(OpGet, result(ok, err))
	return account, ok, err
}

func (s *instrumentedStorage) GetAccounts() ([]types.Account, error) {
	accounts, err := s.next.GetAccounts()
	s.metrics.ObserveOperation(OpList, result(true, err))
	return accounts, err
}

func (s *instrumentedStorage) UpdateAccountByID(id uint64, patch types.AccountPatch) (types.Account, bool, error) {
	account, ok, err := s.next.UpdateAccountByID(id, patch)
	s.metrics.ObserveOperation(OpUpdate, result(ok, err))
	return account, ok, err
}

func (s *instrumentedStorage) DeleteAccountByID(id uint64) (types.Account, bool, error) {
	account, ok, err := s.next.DeleteAccountByID(id)
	s.metrics.ObserveOperation(OpDelete, result(ok, err))
	if ok && err == nil {
		s.metrics.AccountsDeleted.Inc()
	}
	return account, ok, err
}

func (s *instrumentedStorage) Close() error {
	return s.next.Close()
}
