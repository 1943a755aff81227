package services

import (
	"database/sql"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/mgoveia/recipevault-be/internal/models"
)

// RecipeFilters narrows a recipe listing. Id lists mean "associated with at
// least one of these"; filters combine and can only narrow the owner scope,
// never widen it.
type RecipeFilters struct {
	TagIDs        []int64
	IngredientIDs []int64
}

// RecipeServiceProvider defines the interface for recipe services.
type RecipeServiceProvider interface {
	ListRecipes(ownerID int64, filters RecipeFilters) ([]models.Recipe, error)
	GetRecipeByID(ownerID, id int64) (models.Recipe, error)
	CreateRecipe(ownerID int64, input models.RecipeInput) (models.Recipe, error)
	UpdateRecipe(ownerID, id int64, input models.RecipeInput) (models.Recipe, error)
	DeleteRecipe(ownerID, id int64) error
	SetRecipeImage(ownerID, id int64, key string) (models.Recipe, error)
}

// RecipeService provides business logic for recipe management, including the
// find-or-create reconciliation of inline tag and ingredient payloads.
type RecipeService struct {
	db *sql.DB
}

// NewRecipeService creates a new RecipeService.
func NewRecipeService(db *sql.DB) *RecipeService {
	return &RecipeService{db: db}
}

// ListRecipes returns the owner's recipes, newest first. See RecipeFilters
// for the narrowing semantics.
func (s *RecipeService) ListRecipes(ownerID int64, filters RecipeFilters) ([]models.Recipe, error) {
	query := `SELECT id, user_id, title, description, time_minutes, price, link, image_key, created_at
		FROM recipes WHERE user_id = ?`
	args := []interface{}{ownerID}

	if len(filters.TagIDs) > 0 {
		query += fmt.Sprintf(
			" AND id IN (SELECT recipe_id FROM recipe_tags WHERE tag_id IN (%s))",
			placeholders(len(filters.TagIDs)))
		for _, id := range filters.TagIDs {
			args = append(args, id)
		}
	}
	if len(filters.IngredientIDs) > 0 {
		query += fmt.Sprintf(
			" AND id IN (SELECT recipe_id FROM recipe_ingredients WHERE ingredient_id IN (%s))",
			placeholders(len(filters.IngredientIDs)))
		for _, id := range filters.IngredientIDs {
			args = append(args, id)
		}
	}
	query += " ORDER BY id DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes := []models.Recipe{}
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range recipes {
		if err := s.loadAssociations(&recipes[i]); err != nil {
			return nil, err
		}
	}
	return recipes, nil
}

// GetRecipeByID retrieves a single recipe. A recipe owned by another user is
// reported the same way as one that does not exist.
func (s *RecipeService) GetRecipeByID(ownerID, id int64) (models.Recipe, error) {
	row := s.db.QueryRow(`SELECT id, user_id, title, description, time_minutes, price, link, image_key, created_at
		FROM recipes WHERE id = ? AND user_id = ?`, id, ownerID)
	recipe, err := scanRecipe(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Recipe{}, ErrNotFound
		}
		return models.Recipe{}, err
	}
	if err := s.loadAssociations(&recipe); err != nil {
		return models.Recipe{}, err
	}
	return recipe, nil
}

// CreateRecipe inserts a new recipe and reconciles its inline tag and
// ingredient payloads in a single transaction. Nothing is persisted if any
// part fails.
func (s *RecipeService) CreateRecipe(ownerID int64, input models.RecipeInput) (models.Recipe, error) {
	if input.Title == nil || strings.TrimSpace(*input.Title) == "" {
		return models.Recipe{}, NewValidationError("title", "must not be empty")
	}
	recipe := models.Recipe{
		UserID: ownerID,
		Title:  *input.Title,
	}
	if input.Description != nil {
		recipe.Description = *input.Description
	}
	if input.TimeMinutes != nil {
		recipe.TimeMinutes = *input.TimeMinutes
	}
	if input.Price != nil {
		recipe.Price = *input.Price
	}
	if input.Link != nil {
		recipe.Link = *input.Link
	}
	if err := validateRecipeFields(&recipe); err != nil {
		return models.Recipe{}, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.Recipe{}, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO recipes(user_id, title, description, time_minutes, price, link)
		VALUES(?, ?, ?, ?, ?, ?)`,
		recipe.UserID, recipe.Title, recipe.Description, recipe.TimeMinutes, recipe.Price, recipe.Link)
	if err != nil {
		return models.Recipe{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Recipe{}, err
	}

	for _, kind := range []models.AttributeKind{models.KindTag, models.KindIngredient} {
		names := attributeNames(input, kind)
		if names == nil {
			continue
		}
		ids, err := reconcileAttributes(tx, ownerID, kind, *names)
		if err != nil {
			return models.Recipe{}, err
		}
		if err := replaceAssociations(tx, id, kind, ids); err != nil {
			return models.Recipe{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Recipe{}, err
	}
	return s.GetRecipeByID(ownerID, id)
}

// UpdateRecipe applies a full or partial update. Nil fields stay untouched.
// A non-nil tag/ingredient array replaces that kind's association set
// entirely; an empty array clears it. The row update and both replacements
// share one transaction.
func (s *RecipeService) UpdateRecipe(ownerID, id int64, input models.RecipeInput) (models.Recipe, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return models.Recipe{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT id, user_id, title, description, time_minutes, price, link, image_key, created_at
		FROM recipes WHERE id = ? AND user_id = ?`, id, ownerID)
	recipe, err := scanRecipe(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Recipe{}, ErrNotFound
		}
		return models.Recipe{}, err
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return models.Recipe{}, NewValidationError("title", "must not be empty")
		}
		recipe.Title = *input.Title
	}
	if input.Description != nil {
		recipe.Description = *input.Description
	}
	if input.TimeMinutes != nil {
		recipe.TimeMinutes = *input.TimeMinutes
	}
	if input.Price != nil {
		recipe.Price = *input.Price
	}
	if input.Link != nil {
		recipe.Link = *input.Link
	}
	if err := validateRecipeFields(&recipe); err != nil {
		return models.Recipe{}, err
	}

	_, err = tx.Exec(`UPDATE recipes SET title = ?, description = ?, time_minutes = ?, price = ?, link = ?
		WHERE id = ?`,
		recipe.Title, recipe.Description, recipe.TimeMinutes, recipe.Price, recipe.Link, id)
	if err != nil {
		return models.Recipe{}, err
	}

	for _, kind := range []models.AttributeKind{models.KindTag, models.KindIngredient} {
		names := attributeNames(input, kind)
		if names == nil {
			continue
		}
		ids, err := reconcileAttributes(tx, ownerID, kind, *names)
		if err != nil {
			return models.Recipe{}, err
		}
		if err := replaceAssociations(tx, id, kind, ids); err != nil {
			return models.Recipe{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Recipe{}, err
	}
	return s.GetRecipeByID(ownerID, id)
}

// DeleteRecipe removes a recipe and its associations. The attributes
// themselves survive.
func (s *RecipeService) DeleteRecipe(ownerID, id int64) error {
	res, err := s.db.Exec("DELETE FROM recipes WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRecipeImage persists a blob store key on the recipe, overwriting any
// prior key.
func (s *RecipeService) SetRecipeImage(ownerID, id int64, key string) (models.Recipe, error) {
	res, err := s.db.Exec("UPDATE recipes SET image_key = ? WHERE id = ? AND user_id = ?", key, id, ownerID)
	if err != nil {
		return models.Recipe{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.Recipe{}, ErrNotFound
	}
	return s.GetRecipeByID(ownerID, id)
}

// reconcileAttributes resolves each name to an existing (owner, name)
// attribute or creates one, and returns the resulting id set. Duplicate
// names collapse. A concurrent create losing the UNIQUE(user_id, name) race
// is retried as a lookup of the winner.
func reconcileAttributes(tx *sql.Tx, ownerID int64, kind models.AttributeKind, inputs []models.AttributeInput) ([]int64, error) {
	seen := make(map[int64]bool)
	ids := []int64{}
	for _, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, NewValidationError(string(kind)+"s", "name must not be empty")
		}

		id, err := lookupAttribute(tx, ownerID, kind, name)
		if err == sql.ErrNoRows {
			res, insErr := tx.Exec(
				fmt.Sprintf("INSERT INTO %s(user_id, name) VALUES(?, ?)", kind.Table()),
				ownerID, name)
			if insErr == nil {
				id, err = res.LastInsertId()
			} else if isUniqueViolation(insErr) {
				// Another writer created the row between the lookup and the
				// insert; the unique index turned that into a conflict, and
				// the winner's row is the one to reuse. Staging this needs a
				// second writer mid-transaction, which SQLite's single-writer
				// locking rules out in tests.
				id, err = lookupAttribute(tx, ownerID, kind, name)
			} else {
				err = insErr
			}
		}
		if err != nil {
			return nil, err
		}

		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func lookupAttribute(tx *sql.Tx, ownerID int64, kind models.AttributeKind, name string) (int64, error) {
	var id int64
	err := tx.QueryRow(
		fmt.Sprintf("SELECT id FROM %s WHERE user_id = ? AND name = ?", kind.Table()),
		ownerID, name).Scan(&id)
	return id, err
}

// replaceAssociations swaps a recipe's association set of one kind for ids.
func replaceAssociations(tx *sql.Tx, recipeID int64, kind models.AttributeKind, ids []int64) error {
	if _, err := tx.Exec(
		fmt.Sprintf("DELETE FROM %s WHERE recipe_id = ?", kind.JoinTable()), recipeID); err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := tx.Exec(
			fmt.Sprintf("INSERT INTO %s(recipe_id, %s) VALUES(?, ?)", kind.JoinTable(), kind.JoinColumn()),
			recipeID, id); err != nil {
			return err
		}
	}
	return nil
}

// attributeNames picks one kind's inline payload out of the input. Nil means
// the field was not sent at all.
func attributeNames(input models.RecipeInput, kind models.AttributeKind) *[]models.AttributeInput {
	if kind == models.KindIngredient {
		return input.Ingredients
	}
	return input.Tags
}

func (s *RecipeService) loadAssociations(recipe *models.Recipe) error {
	for _, kind := range []models.AttributeKind{models.KindTag, models.KindIngredient} {
		query := fmt.Sprintf(`SELECT a.id, a.name, a.user_id FROM %s a
			JOIN %s j ON j.%s = a.id
			WHERE j.recipe_id = ? ORDER BY a.id`,
			kind.Table(), kind.JoinTable(), kind.JoinColumn())
		rows, err := s.db.Query(query, recipe.ID)
		if err != nil {
			return err
		}

		attrs := []models.Attribute{}
		for rows.Next() {
			var a models.Attribute
			if err := rows.Scan(&a.ID, &a.Name, &a.UserID); err != nil {
				rows.Close()
				return err
			}
			attrs = append(attrs, a)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		if kind == models.KindIngredient {
			recipe.Ingredients = attrs
		} else {
			recipe.Tags = attrs
		}
	}
	return nil
}

func validateRecipeFields(recipe *models.Recipe) error {
	if recipe.TimeMinutes < 0 {
		return NewValidationError("timeMinutes", "must not be negative")
	}
	if recipe.Price < 0 {
		return NewValidationError("price", "must not be negative")
	}
	// Two decimal places; prices are money.
	recipe.Price = math.Round(recipe.Price*100) / 100
	if recipe.Link != "" {
		if _, err := url.ParseRequestURI(recipe.Link); err != nil {
			return NewValidationError("link", "must be a valid URL")
		}
	}
	return nil
}

// scanRecipe reads a recipe row from a row or rows object.
func scanRecipe(scanner interface{ Scan(...interface{}) error }) (models.Recipe, error) {
	var recipe models.Recipe
	err := scanner.Scan(&recipe.ID, &recipe.UserID, &recipe.Title, &recipe.Description,
		&recipe.TimeMinutes, &recipe.Price, &recipe.Link, &recipe.ImageKey, &recipe.CreatedAt)
	return recipe, err
}

// placeholders builds "?, ?, ?" for an IN clause of n values.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
