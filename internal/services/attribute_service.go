package services

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mgoveia/recipevault-be/internal/models"
)

// AttributeServiceProvider defines the interface for tag and ingredient
// services. Tags and ingredients get listing, rename and delete only;
// creation happens through recipe reconciliation or not at all.
type AttributeServiceProvider interface {
	ListAttributes(ownerID int64, kind models.AttributeKind, assignedOnly bool) ([]models.Attribute, error)
	UpdateAttribute(ownerID int64, kind models.AttributeKind, id int64, name string) (models.Attribute, error)
	DeleteAttribute(ownerID int64, kind models.AttributeKind, id int64) error
}

// AttributeService provides business logic for user-owned labels.
type AttributeService struct {
	db *sql.DB
}

// NewAttributeService creates a new AttributeService.
func NewAttributeService(db *sql.DB) *AttributeService {
	return &AttributeService{db: db}
}

// ListAttributes returns the owner's attributes of one kind, ordered by name
// descending. With assignedOnly, only attributes linked to at least one
// recipe are returned, each exactly once regardless of how many recipes use
// it.
func (s *AttributeService) ListAttributes(ownerID int64, kind models.AttributeKind, assignedOnly bool) ([]models.Attribute, error) {
	var query string
	if assignedOnly {
		query = fmt.Sprintf(`
			SELECT DISTINCT a.id, a.name, a.user_id
			FROM %s a
			JOIN %s j ON j.%s = a.id
			WHERE a.user_id = ?
			ORDER BY a.name DESC`,
			kind.Table(), kind.JoinTable(), kind.JoinColumn())
	} else {
		query = fmt.Sprintf(
			"SELECT id, name, user_id FROM %s WHERE user_id = ? ORDER BY name DESC", kind.Table())
	}

	rows, err := s.db.Query(query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attrs := []models.Attribute{}
	for rows.Next() {
		var a models.Attribute
		if err := rows.Scan(&a.ID, &a.Name, &a.UserID); err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return attrs, rows.Err()
}

// UpdateAttribute renames an attribute. The owner scope is part of the WHERE
// clause, so another user's attribute comes back as not found.
func (s *AttributeService) UpdateAttribute(ownerID int64, kind models.AttributeKind, id int64, name string) (models.Attribute, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Attribute{}, NewValidationError("name", "must not be empty")
	}

	res, err := s.db.Exec(
		fmt.Sprintf("UPDATE %s SET name = ? WHERE id = ? AND user_id = ?", kind.Table()),
		name, id, ownerID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Attribute{}, NewValidationError("name", "already exists")
		}
		return models.Attribute{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.Attribute{}, ErrNotFound
	}
	return models.Attribute{ID: id, Name: name, UserID: ownerID}, nil
}

// DeleteAttribute removes an attribute. Associations on the join table cascade
// away; recipes themselves are untouched.
func (s *AttributeService) DeleteAttribute(ownerID int64, kind models.AttributeKind, id int64) error {
	res, err := s.db.Exec(
		fmt.Sprintf("DELETE FROM %s WHERE id = ? AND user_id = ?", kind.Table()), id, ownerID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
