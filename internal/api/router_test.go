package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mgoveia/recipevault-be/internal/database"
	"github.com/mgoveia/recipevault-be/internal/imagestore"
	"github.com/mgoveia/recipevault-be/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	store, err := imagestore.NewDiskStore(filepath.Join(t.TempDir(), "media"))
	require.NoError(t, err)

	return NewRouter(
		services.NewUserService(db),
		services.NewRecipeService(db),
		services.NewAttributeService(db),
		store,
		store.Root(),
	)
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

// registerAndLogin creates an account and returns a bearer token for it.
func registerAndLogin(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/v1/users", "", map[string]string{
		"email": email, "password": "testpass123", "name": "Tester",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, "/api/v1/users/token", "", map[string]string{
		"email": email, "password": "testpass123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Token string `json:"token"`
	}
	decode(t, rec, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

type recipeResp struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
	Tags  []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"tags"`
	Ingredients []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"ingredients"`
}

func TestAuthRequired(t *testing.T) {
	h := newTestRouter(t)
	rec := doJSON(t, h, http.MethodGet, "/api/v1/recipes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/users", "", map[string]string{
		"email": "short@example.com", "password": "pw12",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/users", "", map[string]string{
		"email": "dup@example.com", "password": "testpass123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, h, http.MethodPost, "/api/v1/users", "", map[string]string{
		"email": "dup@example.com", "password": "testpass123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTokenRejectsBadCredentials(t *testing.T) {
	h := newTestRouter(t)
	registerAndLogin(t, h, "auth@example.com")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/users/token", "", map[string]string{
		"email": "auth@example.com", "password": "wrongpass",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileLifecycle(t *testing.T) {
	h := newTestRouter(t)
	token := registerAndLogin(t, h, "me@example.com")

	rec := doJSON(t, h, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	decode(t, rec, &profile)
	assert.Equal(t, "me@example.com", profile.Email)

	rec = doJSON(t, h, http.MethodPatch, "/api/v1/users/me", token, map[string]string{
		"name": "Renamed",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &profile)
	assert.Equal(t, "Renamed", profile.Name)
	assert.Equal(t, "me@example.com", profile.Email)

	rec = doJSON(t, h, http.MethodDelete, "/api/v1/users/me", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/users/me", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecipeEndToEnd(t *testing.T) {
	h := newTestRouter(t)
	token := registerAndLogin(t, h, "cook@example.com")

	// Create with inline tags.
	rec := doJSON(t, h, http.MethodPost, "/api/v1/recipes", token, map[string]interface{}{
		"title":       "Sample Title",
		"timeMinutes": 30,
		"price":       5.25,
		"tags":        []map[string]string{{"name": "Thai"}, {"name": "Dinner"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created recipeResp
	decode(t, rec, &created)
	require.Len(t, created.Tags, 2)

	// Patch the tags away to a new set: Lunch in, both old ones out.
	rec = doJSON(t, h, http.MethodPatch, fmt.Sprintf("/api/v1/recipes/%d", created.ID), token,
		map[string]interface{}{"tags": []map[string]string{{"name": "Lunch"}}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var patched recipeResp
	decode(t, rec, &patched)
	require.Len(t, patched.Tags, 1)
	assert.Equal(t, "Lunch", patched.Tags[0].Name)

	// The replaced tags still exist in the store.
	rec = doJSON(t, h, http.MethodGet, "/api/v1/tags", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tags []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	decode(t, rec, &tags)
	assert.Len(t, tags, 3)

	// assigned_only hides the two unassigned ones.
	rec = doJSON(t, h, http.MethodGet, "/api/v1/tags?assigned_only=1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &tags)
	require.Len(t, tags, 1)
	assert.Equal(t, "Lunch", tags[0].Name)

	// Filter the listing by the Lunch tag id.
	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/v1/recipes?tags=%d", tags[0].ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []recipeResp
	decode(t, rec, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	// Delete and verify.
	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/v1/recipes/%d", created.ID), token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/v1/recipes/%d", created.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecipesAreOwnerScoped(t *testing.T) {
	h := newTestRouter(t)
	alice := registerAndLogin(t, h, "alice@example.com")
	bob := registerAndLogin(t, h, "bob@example.com")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/recipes", alice, map[string]interface{}{
		"title": "Alice's Secret", "timeMinutes": 5, "price": 1.5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created recipeResp
	decode(t, rec, &created)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/recipes", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []recipeResp
	decode(t, rec, &listed)
	assert.Empty(t, listed)

	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/v1/recipes/%d", created.ID), bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func uploadImage(t *testing.T, h http.Handler, token, path string, payload []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "upload.png")
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRecipeImageUpload(t *testing.T) {
	h := newTestRouter(t)
	token := registerAndLogin(t, h, "photo@example.com")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/recipes", token, map[string]interface{}{
		"title": "Photogenic", "timeMinutes": 10, "price": 2.5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created recipeResp
	decode(t, rec, &created)

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))

	path := fmt.Sprintf("/api/v1/recipes/%d/image", created.ID)
	up := uploadImage(t, h, token, path, pngBuf.Bytes())
	require.Equal(t, http.StatusOK, up.Code, up.Body.String())
	var uploaded recipeResp
	decode(t, up, &uploaded)
	assert.NotEmpty(t, uploaded.Image)

	// The stored image is fetchable through /media/.
	req := httptest.NewRequest(http.MethodGet, uploaded.Image, nil)
	fetch := httptest.NewRecorder()
	h.ServeHTTP(fetch, req)
	assert.Equal(t, http.StatusOK, fetch.Code)

	// Garbage payloads are a validation error, and nothing changes.
	up = uploadImage(t, h, token, path, []byte("not an image"))
	assert.Equal(t, http.StatusBadRequest, up.Code)
}
