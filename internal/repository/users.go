package repository

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/atelier/internal/model"
	"github.com/dmitrymomot/atelier/pkg/db"
)

const userColumns = "id, email, name, password_hash, role, created_at, updated_at"

var userList = listSpec{
	table:   "users",
	columns: userColumns,
	search:  "email",
	orders: map[string]string{
		"id":        "id",
		"email":     "email",
		"name":      "name",
		"createdAt": "created_at",
	},
}

// UserInput carries the fields of a new user.
type UserInput struct {
	Email    string
	Name     string
	Password string
	Role     string
}

// NormalizeEmail returns the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser stores a user with a bcrypt password hash.
func (r *Repository) CreateUser(ctx context.Context, in UserInput) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), r.bcryptCost)
	if err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = model.RoleMember
	}

	now := r.timestamp()
	u := &model.User{
		Email:        NormalizeEmail(in.Email),
		Name:         in.Name,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	u.ID, err = db.Insert(ctx, r.db,
		"INSERT INTO users (email, name, password_hash, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?) RETURNING id",
		u.Email, u.Name, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt,
	)
	if db.IsUniqueViolation(err) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUser returns the user with id.
func (r *Repository) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := db.Get(ctx, r.db, &u, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Authenticate returns the user whose credentials match. Unknown emails and
// wrong passwords fail the same way.
func (r *Repository) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	var u model.User
	err := db.Get(ctx, r.db, &u, "SELECT "+userColumns+" FROM users WHERE email = ?", NormalizeEmail(email))
	if db.IsNoRows(err) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return &u, nil
}

// ListUsers returns one page of users. Query matches the email.
func (r *Repository) ListUsers(ctx context.Context, p model.ListParams) (model.Page[model.User], error) {
	return listPage[model.User](ctx, r.db, userList, p)
}

// DeleteUser removes a user that owns no programs.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	return guardedDelete(ctx, r.db, "users", id, "SELECT 1 FROM programs WHERE user_id = ? LIMIT 1")
}
