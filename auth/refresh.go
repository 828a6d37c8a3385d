package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mbolis/quick-survey/apperr"
)

// RefreshStore keeps single-use refresh tokens. Redeeming a token
// deletes it, so a stolen token can be replayed at most once.
type RefreshStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewRefreshStore(db *sql.DB, ttl time.Duration) *RefreshStore {
	return &RefreshStore{db: db, ttl: ttl, now: time.Now}
}

func (rs *RefreshStore) Issue(ctx context.Context, userID int64) (string, error) {
	tokenID := uuid.NewString()
	_, err := rs.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (token_id, user_id, expires_at) VALUES (?, ?, ?)`,
		tokenID,
		userID,
		rs.now().UTC().Add(rs.ttl),
	)
	if err != nil {
		return "", apperr.Store("db.insert_refresh_token", err)
	}
	return tokenID, nil
}

// Redeem consumes the token and returns the user it was issued to.
func (rs *RefreshStore) Redeem(ctx context.Context, tokenID string) (int64, error) {
	var userID int64
	var expiration time.Time
	err := rs.db.QueryRowContext(ctx, `
		DELETE FROM refresh_tokens
		WHERE token_id = ?
		RETURNING user_id, expires_at`,
		tokenID,
	).Scan(&userID, &expiration)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.Unauthenticated("could not refresh", nil)
	}
	if err != nil {
		return 0, apperr.Store("db.redeem_refresh_token", err)
	}

	if expiration.Before(rs.now()) {
		return 0, apperr.Unauthenticated("could not refresh: token expired", nil)
	}
	return userID, nil
}

// RevokeAll drops every refresh token of the user, e.g. on logout.
func (rs *RefreshStore) RevokeAll(ctx context.Context, userID int64) error {
	_, err := rs.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = ?`, userID)
	return apperr.Store("db.revoke_refresh_tokens", err)
}
