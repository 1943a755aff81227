package services

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/mgoveia/recipevault-be/internal/database"
	"github.com/mgoveia/recipevault-be/internal/models"
	"github.com/stretchr/testify/require"
)

// newTestDB opens a migrated throwaway database in a temp dir.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

// newTestUser registers a user directly through the service.
func newTestUser(t *testing.T, db *sql.DB, email string) models.User {
	t.Helper()
	user, err := NewUserService(db).CreateUser(email, "testpass123", "Test User")
	require.NoError(t, err)
	return user
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func floatPtr(f float64) *float64 { return &f }

func attrs(names ...string) *[]models.AttributeInput {
	out := make([]models.AttributeInput, 0, len(names))
	for _, n := range names {
		out = append(out, models.AttributeInput{Name: n})
	}
	return &out
}

// recipeInput builds a minimal valid create payload.
func recipeInput(title string, tags, ingredients *[]models.AttributeInput) models.RecipeInput {
	return models.RecipeInput{
		Title:       strPtr(title),
		TimeMinutes: intPtr(30),
		Price:       floatPtr(5.25),
		Tags:        tags,
		Ingredients: ingredients,
	}
}
