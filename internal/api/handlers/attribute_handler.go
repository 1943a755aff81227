package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mgoveia/recipevault-be/internal/auth"
	"github.com/mgoveia/recipevault-be/internal/models"
	"github.com/mgoveia/recipevault-be/internal/services"
	"github.com/rs/zerolog/log"
)

// AttributeHandler handles HTTP requests for one attribute kind. The same
// handler type serves /tags and /ingredients; only the kind differs.
// Attributes expose list, rename and delete — creation goes through recipe
// reconciliation.
type AttributeHandler struct {
	service services.AttributeServiceProvider
	kind    models.AttributeKind
}

// NewAttributeHandler creates an AttributeHandler for a kind.
func NewAttributeHandler(service services.AttributeServiceProvider, kind models.AttributeKind) *AttributeHandler {
	return &AttributeHandler{service: service, kind: kind}
}

// GetAll handles the request to list the caller's attributes, ordered by
// name in reverse lexicographic order. ?assigned_only=1 restricts to
// attributes used by at least one recipe.
func (h *AttributeHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.CurrentUserID(r.Context())

	assignedOnly := false
	if raw := r.URL.Query().Get("assigned_only"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "Invalid assigned_only value", http.StatusBadRequest)
			return
		}
		assignedOnly = v
	}

	attrs, err := h.service.ListAttributes(userID, h.kind, assignedOnly)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Str("kind", string(h.kind)).Msg("Failed to list attributes")
		http.Error(w, "Failed to list "+string(h.kind)+"s", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, attrs)
}

// Update handles renaming an attribute.
func (h *AttributeHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.CurrentUserID(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}

	var payload models.AttributeInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	attr, err := h.service.UpdateAttribute(userID, h.kind, id, payload.Name)
	if err != nil {
		log.Warn().Err(err).Int64("id", id).Str("kind", string(h.kind)).Msg("Failed to update attribute")
		respondServiceError(w, err, "Failed to update "+string(h.kind))
		return
	}

	respondJSON(w, http.StatusOK, attr)
}

// Delete handles removing an attribute. Recipes keep existing; only the
// association goes away.
func (h *AttributeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.CurrentUserID(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteAttribute(userID, h.kind, id); err != nil {
		log.Warn().Err(err).Int64("id", id).Str("kind", string(h.kind)).Msg("Failed to delete attribute")
		respondServiceError(w, err, "Failed to delete "+string(h.kind))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
