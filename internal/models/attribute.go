package models

// AttributeKind selects which label collection an operation works on. Tags
// and ingredients share identical behavior and differ only in the tables
// backing them.
type AttributeKind string

const (
	KindTag        AttributeKind = "tag"
	KindIngredient AttributeKind = "ingredient"
)

// Table returns the table holding attributes of this kind.
func (k AttributeKind) Table() string {
	if k == KindIngredient {
		return "ingredients"
	}
	return "tags"
}

// JoinTable returns the recipe association table for this kind.
func (k AttributeKind) JoinTable() string {
	if k == KindIngredient {
		return "recipe_ingredients"
	}
	return "recipe_tags"
}

// JoinColumn returns the attribute id column inside the join table.
func (k AttributeKind) JoinColumn() string {
	if k == KindIngredient {
		return "ingredient_id"
	}
	return "tag_id"
}

// Attribute is a user-owned named label (a tag or an ingredient) attachable
// to recipes. (user_id, name) is unique per kind.
type Attribute struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	UserID int64  `json:"-"`
}

// AttributeInput is the inline payload shape accepted on recipe create and
// update: an array of {"name": ...} objects.
type AttributeInput struct {
	Name string `json:"name"`
}
