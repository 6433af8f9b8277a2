package repository_test

import (
	"context"
	"testing"

	"VinylShop/internal/testutil"
	"VinylShop/model"
	"VinylShop/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	repo := repository.NewGormUserRepository(testutil.NewStore(t).DB)
	ctx := context.Background()

	user := &model.User{FirstName: "James", LastName: "Bond", Email: "bond@007.com", Password: "ok"}
	require.NoError(t, repo.CreateUser(ctx, user))

	byID, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "bond@007.com", byID.Email)

	byEmail, err := repo.GetUserByEmail(ctx, "bond@007.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, user.ID, byEmail.ID)

	missing, err := repo.GetUserByEmail(ctx, "nobody@007.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_Duplicate(t *testing.T) {
	repo := repository.NewGormUserRepository(testutil.NewStore(t).DB)
	ctx := context.Background()

	require.NoError(t, repo.CreateUser(ctx, &model.User{FirstName: "A", LastName: "B", Email: "a@b.com"}))
	err := repo.CreateUser(ctx, &model.User{FirstName: "C", LastName: "D", Email: "a@b.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicateUser)
}

func TestUserRepository_CreateRejectsInvalid(t *testing.T) {
	repo := repository.NewGormUserRepository(testutil.NewStore(t).DB)

	err := repo.CreateUser(context.Background(), &model.User{FirstName: "A", LastName: "B", Email: "nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrFormat)
}

func TestUserRepository_UpdateKeepsHash(t *testing.T) {
	repo := repository.NewGormUserRepository(testutil.NewStore(t).DB)
	ctx := context.Background()

	user := &model.User{FirstName: "A", LastName: "B", Email: "a@b.com", Password: "pw"}
	require.NoError(t, repo.CreateUser(ctx, user))

	loaded, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	loaded.IsAdmin = true
	require.NoError(t, repo.UpdateUser(ctx, loaded))

	again, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, again.IsAdmin)
	ok, err := again.Authenticate("pw")
	require.NoError(t, err)
	assert.True(t, ok)
}
