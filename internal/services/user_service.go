package services

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mgoveia/recipevault-be/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the registration password policy.
const MinPasswordLength = 5

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(id int64) (models.User, error)
	CreateUser(email, password, name string) (models.User, error)
	UpdateUser(id int64, email, name, password *string) (models.User, error)
	DeleteUser(id int64) error
	AuthenticateUser(email, password string) (models.User, error)
}

// UserService provides business logic for user management.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// NormalizeEmail lower-cases the domain portion of an email address. The
// local part keeps its case; `Test@Example.COM` and `test@example.com` are
// different accounts on the local part but share the domain spelling.
func NormalizeEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

func validateEmail(email string) error {
	at := strings.LastIndex(email, "@")
	if email == "" {
		return NewValidationError("email", "must not be empty")
	}
	if at <= 0 || at == len(email)-1 {
		return NewValidationError("email", "must be a valid email address")
	}
	return nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(id int64) (models.User, error) {
	var user models.User
	row := s.db.QueryRow(
		"SELECT id, email, name, is_active, is_staff, is_superuser, created_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.IsActive, &user.IsStaff, &user.IsSuperuser, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// getUserByEmail retrieves a user by normalized email, including the password hash.
func (s *UserService) getUserByEmail(email string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow(
		"SELECT id, email, name, password_hash, is_active, is_staff, is_superuser, created_at FROM users WHERE email = ?",
		NormalizeEmail(email))
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&user.IsActive, &user.IsStaff, &user.IsSuperuser, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// CreateUser registers a new user, hashing their password.
func (s *UserService) CreateUser(email, password, name string) (models.User, error) {
	if err := validateEmail(email); err != nil {
		return models.User{}, err
	}
	if len(password) < MinPasswordLength {
		return models.User{}, NewValidationError("password",
			fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	stmt, err := s.db.Prepare("INSERT INTO users(email, name, password_hash) VALUES(?, ?, ?)")
	if err != nil {
		return models.User{}, err
	}
	defer stmt.Close()

	res, err := stmt.Exec(NormalizeEmail(email), name, string(hashedPassword))
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}

	return s.GetUserByID(id)
}

// UpdateUser applies a partial profile update. Nil fields are left unchanged;
// a new password goes through the same policy and hashing as registration.
// All changed fields land in one write, so a rejected update (email conflict,
// bad field) leaves no partial state behind.
func (s *UserService) UpdateUser(id int64, email, name, password *string) (models.User, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return models.User{}, err
	}
	defer tx.Rollback()

	var user models.User
	row := tx.QueryRow("SELECT email, name, password_hash FROM users WHERE id = ?", id)
	if err := row.Scan(&user.Email, &user.Name, &user.PasswordHash); err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}

	if email != nil {
		if err := validateEmail(*email); err != nil {
			return models.User{}, err
		}
		user.Email = NormalizeEmail(*email)
	}
	if name != nil {
		user.Name = *name
	}
	if password != nil {
		if len(*password) < MinPasswordLength {
			return models.User{}, NewValidationError("password",
				fmt.Sprintf("must be at least %d characters", MinPasswordLength))
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashed)
	}

	_, err = tx.Exec("UPDATE users SET email = ?, name = ?, password_hash = ? WHERE id = ?",
		user.Email, user.Name, user.PasswordHash, id)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.User{}, err
	}
	return s.GetUserByID(id)
}

// DeleteUser removes a user; owned recipes and attributes go with it via
// foreign key cascades.
func (s *UserService) DeleteUser(id int64) error {
	res, err := s.db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// AuthenticateUser verifies a user's credentials.
func (s *UserService) AuthenticateUser(email, password string) (models.User, error) {
	user, err := s.getUserByEmail(email)
	if err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return models.User{}, ErrInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. The driver does not export a typed error for it.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
