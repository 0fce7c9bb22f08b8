package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/inkpress/apiserver/internal/services"
	"github.com/inkpress/apiserver/types"
)

type contextKey string

const contextIdentityKey contextKey = "identity"

// envelope is the uniform response shape: success responses carry a
// result, failures carry an optional field->messages error map.
type envelope struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Result  any                  `json:"result,omitempty"`
	Errors  services.FieldErrors `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeResult(w http.ResponseWriter, status int, message string, result any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Result: result})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: true, Message: message})
}

// writeNoContent ends the response with 204 and no body.
func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

func writeFieldErrors(w http.ResponseWriter, message string, fields services.FieldErrors) {
	writeJSON(w, http.StatusUnprocessableEntity, envelope{
		Success: false,
		Message: message,
		Errors:  fields,
	})
}

// writeServiceError renders validation failures as 422 envelopes and
// anything unexpected as a generic 500.
func writeServiceError(w http.ResponseWriter, err error, message string) {
	var validation *services.ValidationError
	if errors.As(err, &validation) {
		writeFieldErrors(w, message, validation.Fields)
		return
	}
	writeFailure(w, http.StatusInternalServerError, "A server error occurred.")
}

func withIdentity(ctx context.Context, user *types.User) context.Context {
	return context.WithValue(ctx, contextIdentityKey, user)
}

// identityFromContext returns the authenticated user, or nil for an
// anonymous request.
func identityFromContext(ctx context.Context) *types.User {
	user, _ := ctx.Value(contextIdentityKey).(*types.User)
	return user
}

func parseIDParam(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id < 1 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func decodeBody(r *http.Request, value any) error {
	return json.NewDecoder(r.Body).Decode(value)
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
