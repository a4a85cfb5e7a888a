package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mallcart/internal/adapters/in/http/middleware"
	"mallcart/internal/application/identity"
	cartdom "mallcart/internal/domain/cart"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeErr(w, http.StatusMethodNotAllowed, "method_not_allowed")
}

func notFound(w http.ResponseWriter) {
	writeErr(w, http.StatusNotFound, "not_found")
}

// writeUsecaseErr maps usecase failures onto HTTP codes: validation detail as
// 422, everything else (store failures included) as 500. Store failures are
// never masked as success.
func writeUsecaseErr(w http.ResponseWriter, err error) {
	var ve *cartdom.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation_failed",
			"fields": ve.Fields,
		})
		return
	}
	writeErr(w, http.StatusInternalServerError, "internal_error")
}

// principalFrom resolves the caller's principal from the identity middleware.
func principalFrom(r *http.Request) (identity.Principal, bool) {
	idc, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		return "", false
	}
	return identity.Resolve(idc), true
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
