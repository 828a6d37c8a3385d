// Package identity stores user accounts.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mbolis/quick-survey/apperr"
	"github.com/mbolis/quick-survey/database"
	"github.com/mbolis/quick-survey/model"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db}
}

type NewUser struct {
	Username     string     `validate:"required,min=3,max=64"`
	Email        string     `validate:"omitempty,email"`
	PasswordHash []byte     `validate:"required"`
	Role         model.Role `validate:"required,oneof=user admin"`
}

const selectUser = `
	SELECT id, username, email, password_hash, role, created_at
	FROM users`

// FindByIdentifier looks a user up by username or email. A missing user
// is reported as (nil, nil).
func (s *Store) FindByIdentifier(ctx context.Context, usernameOrEmail string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, selectUser+`
		WHERE username = ? OR email = ?
		ORDER BY username = ? DESC
		LIMIT 1`,
		usernameOrEmail, usernameOrEmail, usernameOrEmail,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, apperr.Store("db.find_user_by_identifier", err)
}

// FindByID returns (nil, nil) when no user has the given id.
func (s *Store) FindByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, selectUser+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, apperr.Store("db.find_user_by_id", err)
}

func (s *Store) Create(ctx context.Context, nu NewUser) (*model.User, error) {
	nu.Username = strings.TrimSpace(nu.Username)
	nu.Email = strings.TrimSpace(nu.Email)
	if err := model.Validate(nu); err != nil {
		return nil, err
	}

	var email sql.NullString
	if nu.Email != "" {
		email = sql.NullString{String: nu.Email, Valid: true}
	}

	u := &model.User{
		Username:     nu.Username,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		Role:         nu.Role,
		CreatedAt:    time.Now().UTC(),
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		u.Username, email, u.PasswordHash, string(u.Role), u.CreatedAt,
	).Scan(&u.ID)
	if database.IsUniqueViolation(err) {
		return nil, apperr.Conflictf("username or email already exists")
	}
	if err != nil {
		return nil, apperr.Store("db.insert_user", err)
	}
	return u, nil
}

// DeleteByID removes the user; submissions, responses and refresh tokens
// referencing it go with it. Deleting a missing user is not an error.
func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return apperr.Store("db.delete_user", err)
}

func scanUser(row *sql.Row) (*model.User, error) {
	u := &model.User{}
	var email sql.NullString
	var role string
	err := row.Scan(&u.ID, &u.Username, &email, &u.PasswordHash, &role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Email = email.String
	u.Role = model.Role(role)
	return u, nil
}
