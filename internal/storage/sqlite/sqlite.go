// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// The database is always in-memory: it is opened as a named shared-cache
// memory database and the pool is pinned to a single connection, so the
// data lives exactly as long as the process (the last connection closing
// drops it). This backend is selected with storage.backend: sqlite.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sync"

	"github.com/aanand-mishra/accounts-api/internal/storage"
	"github.com/aanand-mishra/accounts-api/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the SQLite implementation of storage.Storage.
//
// mu serialises whole operations, not just statements: id assignment is a
// count-or-counter read followed by an insert, and both must happen in one
// exclusive window.
type SQLite struct {
	Db *sql.DB

	mu     sync.Mutex
	policy storage.IDPolicy
	lastID uint64
}

var _ storage.Storage = (*SQLite)(nil)

// DSN returns the data source name of the in-memory database called name.
func DSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", url.PathEscape(name))
}

// New opens the in-memory database called name, creates the accounts
// table and returns a ready-to-use *SQLite.
func New(name string, policy storage.IDPolicy) (*SQLite, error) {
	db, err := sql.Open("sqlite3", DSN(name))
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// A memory database disappears when its last connection closes.
	// One long-lived connection keeps it alive for the process lifetime.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id       INTEGER PRIMARY KEY,
			username TEXT    NOT NULL,
			email    TEXT    NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	s := &SQLite{Db: db, policy: policy}

	// Another store may already share this database name.
	if err := db.QueryRow("SELECT COALESCE(MAX(id), 0) FROM accounts").Scan(&s.lastID); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: read max id: %w", err)
	}

	return s, nil
}

// CreateAccount picks the next id and inserts the row in one critical
// section. INSERT OR REPLACE overwrites an existing row with the same id,
// which only happens under storage.IDSizePlusOne.
func (s *SQLite) CreateAccount(candidate types.Account) (types.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var size int
	if s.policy == storage.IDSizePlusOne {
		if err := s.Db.QueryRow("SELECT COUNT(*) FROM accounts").Scan(&size); err != nil {
			return types.Account{}, fmt.Errorf("CreateAccount: count: %w", err)
		}
	}
	candidate.ID = s.policy.Next(size, s.lastID)

	_, err := s.Db.Exec(
		"INSERT OR REPLACE INTO accounts (id, username, email) VALUES (?, ?, ?)",
		candidate.ID, candidate.Username, candidate.Email,
	)
	if err != nil {
		return types.Account{}, fmt.Errorf("CreateAccount: exec: %w", err)
	}

	if candidate.ID > s.lastID {
		s.lastID = candidate.ID
	}
	return candidate, nil
}

// GetAccountByID returns the row with the given id, if any.
func (s *SQLite) GetAccountByID(id uint64) (types.Account, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getLocked(id)
}

// storable reports whether id fits an INTEGER column. Larger ids can
// never have been assigned, so callers report them as absent.
func storable(id uint64) bool {
	return id <= math.MaxInt64
}

// getLocked reads one row. Callers must hold s.mu.
func (s *SQLite) getLocked(id uint64) (types.Account, bool, error) {
	if !storable(id) {
		return types.Account{}, false, nil
	}

	var account types.Account

	err := s.Db.QueryRow(
		"SELECT id, username, email FROM accounts WHERE id = ? LIMIT 1", id,
	).Scan(&account.ID, &account.Username, &account.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Account{}, false, nil
	}
	if err != nil {
		return types.Account{}, false, fmt.Errorf("GetAccountByID: scan: %w", err)
	}

	return account, true, nil
}

// GetAccounts returns every row ordered by id.
func (s *SQLite) GetAccounts() ([]types.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.Db.Query("SELECT id, username, email FROM accounts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("GetAccounts: query: %w", err)
	}
	defer rows.Close()

	accounts := make([]types.Account, 0)
	for rows.Next() {
		var account types.Account
		if err := rows.Scan(&account.ID, &account.Username, &account.Email); err != nil {
			return nil, fmt.Errorf("GetAccounts: scan row: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetAccounts: rows iteration: %w", err)
	}

	return accounts, nil
}

// UpdateAccountByID overwrites username and email and re-reads the row.
func (s *SQLite) UpdateAccountByID(id uint64, patch types.AccountPatch) (types.Account, bool, error) {
	if !storable(id) {
		return types.Account{}, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.Db.Exec(
		"UPDATE accounts SET username = ?, email = ? WHERE id = ?",
		patch.Username, patch.Email, id,
	)
	if err != nil {
		return types.Account{}, false, fmt.Errorf("UpdateAccountByID: exec: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return types.Account{}, false, fmt.Errorf("UpdateAccountByID: rows affected: %w", err)
	}
	if n == 0 {
		return types.Account{}, false, nil
	}

	return s.getLocked(id)
}

// DeleteAccountByID reads the row, deletes it and returns what was read.
func (s *SQLite) DeleteAccountByID(id uint64) (types.Account, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok, err := s.getLocked(id)
	if err != nil || !ok {
		return types.Account{}, false, err
	}

	if _, err := s.Db.Exec("DELETE FROM accounts WHERE id = ?", id); err != nil {
		return types.Account{}, false, fmt.Errorf("DeleteAccountByID: exec: %w", err)
	}

	return account, true, nil
}

// Close closes the pool, which drops the in-memory database.
func (s *SQLite) Close() error {
	return s.Db.Close()
}
