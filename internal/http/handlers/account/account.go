// Package account contains the HTTP handlers for the Account resource and
// the controller that publishes them.
//
// HANDLER PATTERN
// ───────────────
// Each handler is built by a factory that receives its dependencies and
// returns an http.HandlerFunc closing over them:
//
//	account.New(store, logger)  // called once, at assembly
//	//   └─ returns a func(w, r) called on every request
//
// Routes bundles the handlers into a registry.Entry; the server mounts it.
package account

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/aanand-mishra/accounts-api/internal/registry"
	"github.com/aanand-mishra/accounts-api/internal/storage"
	"github.com/aanand-mishra/accounts-api/internal/types"
	"github.com/aanand-mishra/accounts-api/internal/utils/response"
)

// IDPattern is the route pattern of a single account. Non-numeric ids do
// not match any route and get the router's 404.
const IDPattern = "/{id:[0-9]+}"

var (
	ErrNotFound  = errors.New("account not found")
	ErrEmptyBody = errors.New("request body is empty")
	ErrInvalidID = errors.New("invalid id: must be an unsigned integer")
)

// Routes returns the accounts controller. Its entry is mounted at prefix.
//
// Route table (relative to prefix):
//
//	POST   /      → create an account
//	GET    /      → list accounts
//	GET    /{id}  → get one account
//	PUT    /{id}  → update username and email
//	DELETE /{id}  → delete an account
func Routes(prefix string, store storage.Storage, logger *slog.Logger) registry.Controller {
	return func() registry.Entry {
		jsonOnly := chimiddleware.AllowContentType("application/json")

		return registry.Entry{
			Prefix: prefix,
			Endpoints: []registry.Endpoint{
				{Method: http.MethodPost, Pattern: "/", Handler: jsonOnly(New(store, logger))},
				{Method: http.MethodGet, Pattern: "/", Handler: GetList(store, logger)},
				{Method: http.MethodGet, Pattern: IDPattern, Handler: GetByID(store, logger)},
				{Method: http.MethodPut, Pattern: IDPattern, Handler: jsonOnly(Update(store, logger))},
				{Method: http.MethodDelete, Pattern: IDPattern, Handler: Delete(store, logger)},
			},
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /
//
// Request body:
//
//	{ "username": "a", "email": "a@x.com" }
//
// A client-supplied "id" is accepted and ignored. Responds 201 Created
// with the stored account, including its assigned id.
// ─────────────────────────────────────────────────────────────────────────────
func New(store storage.Storage, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Only the mutable fields are decoded, so an "id" of any shape is
		// ignored rather than rejected.
		var fields types.AccountPatch
		if !decode(w, r, &fields) {
			return
		}

		created, err := store.CreateAccount(fields.Apply(types.Account{}))
		if err != nil {
			serverError(w, r, logger, "error creating account", err)
			return
		}

		logger.InfoContext(r.Context(), "account created", slog.Uint64("id", created.ID))
		response.WriteJSON(w, http.StatusCreated, created)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /{id}
// Responds 200 with the account, or 404 when it does not exist.
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(store storage.Storage, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}

		account, found, err := store.GetAccountByID(id)
		if err != nil {
			serverError(w, r, logger, "error getting account", err)
			return
		}
		if !found {
			notFound(w)
			return
		}

		response.WriteJSON(w, http.StatusOK, account)
	}
}

// GetList handles GET / and returns every account ordered by id ([] when
// there are none).
func GetList(store storage.Storage, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts, err := store.GetAccounts()
		if err != nil {
			serverError(w, r, logger, "error listing accounts", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, accounts)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /{id}
//
// Request body:
//
//	{ "username": "a2", "email": "a2@x.com" }
//
// Both fields are overwritten; the id never changes. Responds 200 with the
// updated account, or 404 when it does not exist.
// ─────────────────────────────────────────────────────────────────────────────
func Update(store storage.Storage, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}

		var patch types.AccountPatch
		if !decode(w, r, &patch) {
			return
		}

		updated, found, err := store.UpdateAccountByID(id, patch)
		if err != nil {
			serverError(w, r, logger, "error updating account", err)
			return
		}
		if !found {
			notFound(w)
			return
		}

		logger.InfoContext(r.Context(), "account updated", slog.Uint64("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /{id}
// Responds 200 with the removed account, or 404 when there was none.
// Deleting twice is not an error; the second call just gets 404.
// ─────────────────────────────────────────────────────────────────────────────
func Delete(store storage.Storage, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}

		removed, found, err := store.DeleteAccountByID(id)
		if err != nil {
			serverError(w, r, logger, "error deleting account", err)
			return
		}
		if !found {
			notFound(w)
			return
		}

		logger.InfoContext(r.Context(), "account deleted", slog.Uint64("id", id))
		response.WriteJSON(w, http.StatusOK, removed)
	}
}

// parseID reads the {id} URL parameter. The route pattern guarantees
// digits only, so the one failure left is overflow.
func parseID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(ErrInvalidID))
		return 0, false
	}
	return id, true
}

// decode reads the JSON body into dst, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(ErrEmptyBody))
		return false
	}
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}
	return true
}

func notFound(w http.ResponseWriter) {
	response.WriteJSON(w, http.StatusNotFound, response.GeneralError(ErrNotFound))
}

func serverError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string, err error) {
	logger.ErrorContext(r.Context(), msg, slog.String("error", err.Error()))
	response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
}
