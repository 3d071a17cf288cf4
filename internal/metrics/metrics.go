// Package metrics holds the Prometheus collectors for the service and a
// storage.Storage decorator that feeds them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Store operation names used as the "op" label.
const (
	OpCreate = "create"
	OpGet    = "get"
	OpList   = "list"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Operation results used as the "result" label.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Metrics holds all Prometheus metrics for the application.
//
// Collectors live on a private registry rather than the global default, so
// several instances (one per test) never collide.
type Metrics struct {
	registry *prometheus.Registry

	StoreOperations *prometheus.CounterVec
	AccountsCreated prometheus.Counter
	AccountsDeleted prometheus.Counter
}

// New creates and registers all metrics, plus the Go runtime and process
// collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		StoreOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_store_operations_total",
			Help: "Account store operations by operation and result",
		}, []string{"op", "result"}),
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "accounts_created_total",
			Help: "Total number of accounts created",
		}),
		AccountsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "accounts_deleted_total",
			Help: "Total number of accounts deleted",
		}),
	}
}

// ObserveOperation counts one store operation.
func (m *Metrics) ObserveOperation(op, result string) {
	m.StoreOperations.WithLabelValues(op, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
