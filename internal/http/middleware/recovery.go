package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/aanand-mishra/accounts-api/internal/utils/response"
)

// Recoverer turns a handler panic into a 500 response and logs it with the
// request id and stack.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				// Re-panic so net/http aborts the connection.
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.Error("panic recovered",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.Any("panic", rvr),
					slog.String("stack", string(debug.Stack())),
				)
				response.WriteJSON(w, http.StatusInternalServerError,
					response.GeneralError(errors.New(http.StatusText(http.StatusInternalServerError))))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
