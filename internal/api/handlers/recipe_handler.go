package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mgoveia/recipevault-be/internal/auth"
	"github.com/mgoveia/recipevault-be/internal/imagestore"
	"github.com/mgoveia/recipevault-be/internal/models"
	"github.com/mgoveia/recipevault-be/internal/services"
	"github.com/rs/zerolog/log"
)

// maxImageUpload caps recipe image uploads at 8 MiB.
const maxImageUpload = 8 << 20

// RecipeHandler handles HTTP requests for recipe management.
type RecipeHandler struct {
	service services.RecipeServiceProvider
	images  imagestore.Store
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(service services.RecipeServiceProvider, images imagestore.Store) *RecipeHandler {
	return &RecipeHandler{service: service, images: images}
}

// GetAll handles the request to list the caller's recipes, optionally
// filtered by ?tags= and ?ingredients= comma-separated id lists.
func (h *RecipeHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.CurrentUserID(r.Context())

	var filters services.RecipeFilters
	var err error
	if filters.TagIDs, err = parseIDList(r.URL.Query().Get("tags")); err != nil {
		http.Error(w, "Invalid tags filter", http.StatusBadRequest)
		return
	}
	if filters.IngredientIDs, err = parseIDList(r.URL.Query().Get("ingredients")); err != nil {
		http.Error(w, "Invalid ingredients filter", http.StatusBadRequest)
		return
	}

	recipes, err := h.service.ListRecipes(userID, filters)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to list recipes")
		http.Error(w, "Failed to list recipes", http.StatusInternalServerError)
		return
	}

	h.resolveImageURLs(r, recipes)
	respondJSON(w, http.StatusOK, recipes)
}

// Get handles the request to get a single recipe by its ID.
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.CurrentUserID(r.Context())
	id, err := recipeID(r)
	if err != nil {
		http.Error(w, "Invalid recipe id", http.StatusBadRequest)
		return
	}

	recipe, err := h.service.GetRecipeByID(userID, id)
	if err != nil {
		log.Warn().Err(err).Int64("recipe_id", id).Msg("Failed to get recipe")
		respondServiceError(w, err, "Failed to get recipe")
		return
	}

	respondJSON(w, http.StatusOK, recipeWithImage(r, h.images, recipe))
}

// Create handles the request to create a new recipe, reconciling any inline
// tag and ingredient payloads.
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.CurrentUserID(r.Context())

	var input models.RecipeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	recipe, err := h.service.CreateRecipe(userID, input)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to create recipe")
		respondServiceError(w, err, "Failed to create recipe")
		return
	}

	respondJSON(w, http.StatusCreated, recipeWithImage(r, h.images, recipe))
}

// Update handles full (PUT) and partial (PATCH) recipe updates.
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.CurrentUserID(r.Context())
	id, err := recipeID(r)
	if err != nil {
		http.Error(w, "Invalid recipe id", http.StatusBadRequest)
		return
	}

	var input models.RecipeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	recipe, err := h.service.UpdateRecipe(userID, id, input)
	if err != nil {
		log.Warn().Err(err).Int64("recipe_id", id).Msg("Failed to update recipe")
		respondServiceError(w, err, "Failed to update recipe")
		return
	}

	respondJSON(w, http.StatusOK, recipeWithImage(r, h.images, recipe))
}

// Delete handles the request to delete a recipe.
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.CurrentUserID(r.Context())
	id, err := recipeID(r)
	if err != nil {
		http.Error(w, "Invalid recipe id", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteRecipe(userID, id); err != nil {
		log.Warn().Err(err).Int64("recipe_id", id).Msg("Failed to delete recipe")
		respondServiceError(w, err, "Failed to delete recipe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage handles the multipart image upload sub-operation. The recipe
// must exist and belong to the caller before anything is stored.
func (h *RecipeHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.CurrentUserID(r.Context())
	id, err := recipeID(r)
	if err != nil {
		http.Error(w, "Invalid recipe id", http.StatusBadRequest)
		return
	}

	if _, err := h.service.GetRecipeByID(userID, id); err != nil {
		respondServiceError(w, err, "Failed to get recipe")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageUpload)
	file, _, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "Missing image file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := imagestore.Normalize(file)
	if err != nil {
		if errors.Is(err, imagestore.ErrNotAnImage) {
			respondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"errors": map[string]string{"image": "must be a valid image"},
			})
			return
		}
		log.Error().Err(err).Int64("recipe_id", id).Msg("Failed to process image")
		http.Error(w, "Failed to process image", http.StatusInternalServerError)
		return
	}

	key := imagestore.NewKey()
	if err := h.images.Save(r.Context(), key, data); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to store image")
		http.Error(w, "Failed to store image", http.StatusInternalServerError)
		return
	}

	recipe, err := h.service.SetRecipeImage(userID, id, key)
	if err != nil {
		log.Error().Err(err).Int64("recipe_id", id).Msg("Failed to attach image")
		respondServiceError(w, err, "Failed to attach image")
		return
	}

	respondJSON(w, http.StatusOK, recipeWithImage(r, h.images, recipe))
}

func (h *RecipeHandler) resolveImageURLs(r *http.Request, recipes []models.Recipe) {
	for i := range recipes {
		if recipes[i].ImageKey == "" {
			continue
		}
		url, err := h.images.URL(r.Context(), recipes[i].ImageKey)
		if err != nil {
			log.Warn().Err(err).Str("key", recipes[i].ImageKey).Msg("Failed to resolve image URL")
			continue
		}
		recipes[i].ImageURL = url
	}
}

func recipeWithImage(r *http.Request, images imagestore.Store, recipe models.Recipe) models.Recipe {
	if recipe.ImageKey != "" {
		if url, err := images.URL(r.Context(), recipe.ImageKey); err == nil {
			recipe.ImageURL = url
		}
	}
	return recipe
}

func recipeID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// parseIDList splits a comma-separated id list query value. Empty input means
// no filter.
func parseIDList(value string) ([]int64, error) {
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
