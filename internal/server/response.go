package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jointly-dev/jointly/internal/ledger"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

// statusFor maps the ledger error taxonomy onto HTTP. Propagation warnings
// never reach this function: they are not errors.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrAuthenticationFailed):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrNotAMember):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrAccountClosed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
