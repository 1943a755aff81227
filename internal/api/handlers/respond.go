package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mgoveia/recipevault-be/internal/services"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// fallback is the message used for unexpected errors, which come back as 500
// without leaking internals.
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	if ve, ok := services.AsValidation(err); ok {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": ve.Fields})
		return
	}
	switch {
	case errors.Is(err, services.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, services.ErrEmailTaken):
		http.Error(w, "Email already registered", http.StatusConflict)
	case errors.Is(err, services.ErrInvalidCredentials):
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
	default:
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}
