// Package system holds the operational controllers: liveness and metrics.
package system

import (
	"net/http"

	"github.com/aanand-mishra/accounts-api/internal/registry"
	"github.com/aanand-mishra/accounts-api/internal/utils/response"
)

const (
	HealthPrefix  = "/healthz"
	MetricsPrefix = "/metrics"
)

// Health returns the liveness controller. GET /healthz answers
// {"status":"ok"} as long as the process is serving.
func Health() registry.Controller {
	return func() registry.Entry {
		return registry.Entry{
			Prefix: HealthPrefix,
			Endpoints: []registry.Endpoint{
				{Method: http.MethodGet, Pattern: "/", Handler: http.HandlerFunc(healthz)},
			},
		}
	}
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	response.WriteJSON(w, http.StatusOK, response.OK())
}

// Metrics returns the controller exposing h (a Prometheus handler) at
// GET /metrics.
func Metrics(h http.Handler) registry.Controller {
	return func() registry.Entry {
		return registry.Entry{
			Prefix: MetricsPrefix,
			Endpoints: []registry.Endpoint{
				{Method: http.MethodGet, Pattern: "/", Handler: h},
			},
		}
	}
}
