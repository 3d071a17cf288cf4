// Package registry collects the route tables of independent controllers
// before the server mounts them.
//
// A Registry has two phases. While accepting, controllers' entries are
// registered under their path prefix. Drain closes it and hands every
// entry to the assembler exactly once; after that it is read-only and all
// writes are rejected with ErrClosed.
package registry

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
)

// ErrClosed is returned by Register and Drain once the registry has been
// drained.
var ErrClosed = errors.New("registry: closed")

// Endpoint describes one route relative to its entry's prefix.
type Endpoint struct {
	Method  string
	Pattern string
	Handler http.Handler
}

// Entry is the route table a controller publishes.
type Entry struct {
	Prefix    string
	Endpoints []Endpoint
}

// Controller builds a controller's route table. Controllers have no side
// effects: they return their entry and the assembler registers it.
type Controller func() Entry

// Router returns a chi router serving the entry's endpoints, ready to be
// mounted at e.Prefix.
func (e Entry) Router() chi.Router {
	r := chi.NewRouter()
	for _, ep := range e.Endpoints {
		r.Method(ep.Method, ep.Pattern, ep.Handler)
	}
	return r
}

// Registry maps path prefixes to route tables. It is safe for concurrent
// use.
type Registry struct {
	mu      sync.Mutex
	entries map[string][]Endpoint
	closed  bool
	logger  *slog.Logger
}

// New returns an empty registry in the accepting phase.
func New(logger *slog.Logger) *Registry {
	return &Registry{
		entries: make(map[string][]Endpoint),
		logger:  logger,
	}
}

// Register stores entry under its prefix. A prefix that is already
// registered is replaced by the new entry (last writer wins) and a warning
// is logged.
func (r *Registry) Register(entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	if _, exists := r.entries[entry.Prefix]; exists {
		r.logger.Warn("route prefix registered twice, keeping the latest",
			slog.String("prefix", entry.Prefix))
	}
	r.entries[entry.Prefix] = entry.Endpoints

	r.logger.Debug("routes registered",
		slog.String("prefix", entry.Prefix),
		slog.Int("endpoints", len(entry.Endpoints)))
	return nil
}

// Drain closes the registry and returns every entry. It succeeds once.
//
// Entries come back sorted by prefix so mounting is reproducible; callers
// must not attach meaning to the order.
func (r *Registry) Drain() ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	r.closed = true

	entries := make([]Entry, 0, len(r.entries))
	for prefix, endpoints := range r.entries {
		entries = append(entries, Entry{Prefix: prefix, Endpoints: endpoints})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Prefix < entries[j].Prefix })

	r.entries = nil
	return entries, nil
}

// Len returns the number of registered prefixes. It is zero once drained.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
