package identity

import (
	"context"
	"testing"

	"github.com/mbolis/quick-survey/apperr"
	"github.com/mbolis/quick-survey/database/dbtest"
	"github.com/mbolis/quick-survey/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewStore(dbtest.Open(t))

	u, err := store.Create(ctx, NewUser{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: []byte("hash"),
		Role:         model.RoleUser,
	})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)

	byName, err := store.FindByIdentifier(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, u.ID, byName.ID)
	assert.Equal(t, []byte("hash"), byName.PasswordHash)

	byEmail, err := store.FindByIdentifier(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := store.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.Equal(t, model.RoleUser, byID.Role)
}

func TestFindMissing(t *testing.T) {
	ctx := context.Background()
	store := NewStore(dbtest.Open(t))

	u, err := store.FindByIdentifier(ctx, "nonexistent@x.com")
	assert.NoError(t, err)
	assert.Nil(t, u)

	u, err = store.FindByID(ctx, 42)
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewStore(dbtest.Open(t))

	nu := NewUser{Username: "bob", PasswordHash: []byte("h"), Role: model.RoleUser}
	_, err := store.Create(ctx, nu)
	require.NoError(t, err)

	_, err = store.Create(ctx, nu)
	assert.True(t, apperr.Is(err, apperr.Conflict), err)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	store := NewStore(dbtest.Open(t))

	_, err := store.Create(ctx, NewUser{Username: "x", PasswordHash: []byte("h"), Role: model.RoleUser})
	assert.True(t, apperr.Is(err, apperr.Validation), err)

	_, err = store.Create(ctx, NewUser{Username: "carol", PasswordHash: []byte("h"), Role: "root"})
	assert.True(t, apperr.Is(err, apperr.Validation), err)

	_, err = store.Create(ctx, NewUser{Username: "carol", Email: "not-an-email", PasswordHash: []byte("h"), Role: model.RoleUser})
	assert.True(t, apperr.Is(err, apperr.Validation), err)
}

func TestDeleteByID(t *testing.T) {
	ctx := context.Background()
	store := NewStore(dbtest.Open(t))

	u, err := store.Create(ctx, NewUser{Username: "dave", PasswordHash: []byte("h"), Role: model.RoleAdmin})
	require.NoError(t, err)

	require.NoError(t, store.DeleteByID(ctx, u.ID))
	found, err := store.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	// deleting again is a no-op
	assert.NoError(t, store.DeleteByID(ctx, u.ID))
}
