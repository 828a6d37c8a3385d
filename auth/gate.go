// Package auth decodes caller credentials and checks what the caller
// may do.
package auth

import (
	"context"

	"github.com/mbolis/quick-survey/apperr"
	"github.com/mbolis/quick-survey/model"
)

// Identity is the caller as proven by a bearer credential.
type Identity struct {
	UserID int64
	Role   model.Role
}

func (id Identity) IsAdmin() bool {
	return id.Role == model.RoleAdmin
}

func RequireAdmin(id Identity) error {
	if !id.IsAdmin() {
		return apperr.Forbidden("forbidden: admins only")
	}
	return nil
}

// RequireOwner passes when the caller owns the resource. A nil owner
// (anonymous resource) is owned by nobody.
func RequireOwner(id Identity, owner *int64) error {
	if owner == nil || *owner != id.UserID {
		return apperr.Forbidden("forbidden: not the owner")
	}
	return nil
}

// RequireOwnerOrAdmin is RequireOwner with an administrator bypass.
func RequireOwnerOrAdmin(id Identity, owner *int64) error {
	if id.IsAdmin() {
		return nil
	}
	return RequireOwner(id, owner)
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// UserIDFrom returns the caller's user id, or nil for anonymous callers.
func UserIDFrom(ctx context.Context) *int64 {
	id, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	uid := id.UserID
	return &uid
}
