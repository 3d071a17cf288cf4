package registry

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func text(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})
}

func TestRegistry_DisjointPrefixesSurviveDrain(t *testing.T) {
	reg := New(discardLogger())

	accounts := func() Entry {
		return Entry{Prefix: "/accounts", Endpoints: []Endpoint{
			{Method: http.MethodGet, Pattern: "/", Handler: text("accounts")},
		}}
	}
	widgets := func() Entry {
		return Entry{Prefix: "/widgets", Endpoints: []Endpoint{
			{Method: http.MethodGet, Pattern: "/", Handler: text("widgets")},
			{Method: http.MethodGet, Pattern: "/{id}", Handler: text("widget")},
		}}
	}
	for _, c := range []Controller{accounts, widgets} {
		require.NoError(t, reg.Register(c()))
	}
	assert.Equal(t, 2, reg.Len())

	entries, err := reg.Drain()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "/accounts", entries[0].Prefix)
	assert.Equal(t, "/widgets", entries[1].Prefix)
	assert.Len(t, entries[1].Endpoints, 2)
}

func TestRegistry_DuplicatePrefixKeepsLastWriter(t *testing.T) {
	var logs bytes.Buffer
	reg := New(slog.New(slog.NewTextHandler(&logs, nil)))

	require.NoError(t, reg.Register(Entry{Prefix: "/", Endpoints: []Endpoint{
		{Method: http.MethodGet, Pattern: "/", Handler: text("first")},
	}}))
	require.NoError(t, reg.Register(Entry{Prefix: "/", Endpoints: []Endpoint{
		{Method: http.MethodGet, Pattern: "/", Handler: text("second")},
	}}))

	entries, err := reg.Drain()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	rec := httptest.NewRecorder()
	entries[0].Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "second", rec.Body.String())
	assert.Contains(t, logs.String(), "registered twice")
}

func TestRegistry_ClosedAfterDrain(t *testing.T) {
	reg := New(discardLogger())
	require.NoError(t, reg.Register(Entry{Prefix: "/a"}))

	_, err := reg.Drain()
	require.NoError(t, err)
	assert.Zero(t, reg.Len())

	assert.ErrorIs(t, reg.Register(Entry{Prefix: "/b"}), ErrClosed)

	_, err = reg.Drain()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRegistry_EmptyDrain(t *testing.T) {
	entries, err := New(discardLogger()).Drain()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRegistry_ConcurrentRegister(t *testing.T) {
	reg := New(discardLogger())

	const controllers = 100
	var wg sync.WaitGroup
	wg.Add(controllers)
	for i := 0; i < controllers; i++ {
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, reg.Register(Entry{Prefix: fmt.Sprintf("/c%03d", i)}))
		}(i)
	}
	wg.Wait()

	entries, err := reg.Drain()
	require.NoError(t, err)
	require.Len(t, entries, controllers)
	for i, e := range entries {
		assert.Equal(t, fmt.Sprintf("/c%03d", i), e.Prefix)
	}
}

func TestEntry_Router(t *testing.T) {
	e := Entry{Prefix: "/widgets", Endpoints: []Endpoint{
		{Method: http.MethodGet, Pattern: "/{id}", Handler: text("get")},
		{Method: http.MethodDelete, Pattern: "/{id}", Handler: text("delete")},
	}}
	r := e.Router()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/9", nil))
	assert.Equal(t, "delete", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/9", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
