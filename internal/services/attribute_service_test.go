package services

import (
	"testing"

	"github.com/mgoveia/recipevault-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAttributesOrderAndOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := NewAttributeService(db)
	recipeSvc := NewRecipeService(db)
	alice := newTestUser(t, db, "alice@example.com")
	bob := newTestUser(t, db, "bob@example.com")

	_, err := recipeSvc.CreateRecipe(alice.ID, recipeInput("A", attrs("Vegan", "Dessert"), nil))
	require.NoError(t, err)
	_, err = recipeSvc.CreateRecipe(bob.ID, recipeInput("B", attrs("Fruity"), nil))
	require.NoError(t, err)

	tags, err := svc.ListAttributes(alice.ID, models.KindTag, false)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	// Reverse lexicographic by name.
	assert.Equal(t, "Vegan", tags[0].Name)
	assert.Equal(t, "Dessert", tags[1].Name)
}

func TestListAttributesAssignedOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewAttributeService(db)
	recipeSvc := NewRecipeService(db)
	user := newTestUser(t, db, "cook@example.com")

	// "Apples" is assigned, "Turkey" exists but is unused.
	_, err := recipeSvc.CreateRecipe(user.ID, recipeInput("Crumble", attrs("Apples"), nil))
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO tags(user_id, name) VALUES(?, 'Turkey')", user.ID)
	require.NoError(t, err)

	assigned, err := svc.ListAttributes(user.ID, models.KindTag, true)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, "Apples", assigned[0].Name)

	all, err := svc.ListAttributes(user.ID, models.KindTag, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListAttributesAssignedOnlyUnique(t *testing.T) {
	db := newTestDB(t)
	svc := NewAttributeService(db)
	recipeSvc := NewRecipeService(db)
	user := newTestUser(t, db, "cook@example.com")

	// One ingredient used by two recipes must appear exactly once.
	_, err := recipeSvc.CreateRecipe(user.ID, recipeInput("Omelette", nil, attrs("Eggs")))
	require.NoError(t, err)
	_, err = recipeSvc.CreateRecipe(user.ID, recipeInput("Scramble", nil, attrs("Eggs")))
	require.NoError(t, err)

	assigned, err := svc.ListAttributes(user.ID, models.KindIngredient, true)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, "Eggs", assigned[0].Name)
}

func TestUpdateAttribute(t *testing.T) {
	db := newTestDB(t)
	svc := NewAttributeService(db)
	recipeSvc := NewRecipeService(db)
	alice := newTestUser(t, db, "alice@example.com")
	bob := newTestUser(t, db, "bob@example.com")

	recipe, err := recipeSvc.CreateRecipe(alice.ID, recipeInput("A", attrs("Dinenr"), nil))
	require.NoError(t, err)
	tagID := recipe.Tags[0].ID

	renamed, err := svc.UpdateAttribute(alice.ID, models.KindTag, tagID, "Dinner")
	require.NoError(t, err)
	assert.Equal(t, "Dinner", renamed.Name)

	// Someone else's attribute looks like it does not exist.
	_, err = svc.UpdateAttribute(bob.ID, models.KindTag, tagID, "Mine Now")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpdateAttribute(alice.ID, models.KindTag, tagID, "  ")
	_, ok := AsValidation(err)
	assert.True(t, ok)
}

func TestDeleteAttributeKeepsRecipes(t *testing.T) {
	db := newTestDB(t)
	svc := NewAttributeService(db)
	recipeSvc := NewRecipeService(db)
	user := newTestUser(t, db, "cook@example.com")

	recipe, err := recipeSvc.CreateRecipe(user.ID, recipeInput("Salad", nil, attrs("Lettuce")))
	require.NoError(t, err)
	ingredientID := recipe.Ingredients[0].ID

	require.NoError(t, svc.DeleteAttribute(user.ID, models.KindIngredient, ingredientID))

	// The recipe survives with the association gone.
	got, err := recipeSvc.GetRecipeByID(user.ID, recipe.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Ingredients)

	assert.ErrorIs(t, svc.DeleteAttribute(user.ID, models.KindIngredient, ingredientID), ErrNotFound)
}
