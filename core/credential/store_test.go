package credential

import (
	"context"
	"errors"
	"testing"
	"time"

	"VinylShop/db"
	"VinylShop/internal/testutil"
	"VinylShop/model"
	"VinylShop/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return NewGorm(testutil.NewStore(t))
}

func TestCreateUser_Authenticate(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, &model.User{
		FirstName: "James",
		LastName:  "Bond",
		Email:     "bond@007.com",
		Password:  "ok",
	})
	require.NoError(t, err)
	assert.Empty(t, user.Password)

	ok, err := s.Authenticate(user, "ok")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Authenticate(user, "not ok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateUser_Validation(t *testing.T) {
	s := newStore(t)

	_, err := s.CreateUser(context.Background(), &model.User{LastName: "Bond", Email: "bond@007.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "firstName cannot be null")

	var verr *model.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = s.CreateUser(context.Background(), &model.User{FirstName: "James", LastName: "Bond", Email: ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Validation error")
}

func TestCreateUser_Duplicate(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, &model.User{FirstName: "A", LastName: "B", Email: "dup@x.com", Password: "pw"})
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, &model.User{FirstName: "C", LastName: "D", Email: "dup@x.com", Password: "pw"})
	assert.ErrorIs(t, err, repository.ErrDuplicateUser)
}

func TestAuthenticate_MissingHash(t *testing.T) {
	s := newStore(t)

	ok, err := s.Authenticate(&model.User{Email: "x@y.com"}, "pw")
	assert.False(t, ok)
	assert.ErrorIs(t, err, model.ErrMissingPasswordHash)

	_, err = s.Authenticate(nil, "pw")
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, &model.User{FirstName: "Jim", LastName: "Miller", Email: "miller@007.com", Password: "ok"})
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, &model.User{FirstName: "No", LastName: "Hash", Email: "nohash@007.com"})
	require.NoError(t, err)

	user, err := s.Login(ctx, "miller@007.com", "ok")
	require.NoError(t, err)
	assert.Equal(t, "Jim", user.FirstName)

	_, err = s.Login(ctx, "miller@007.com", "not ok")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(ctx, "nobody@007.com", "ok")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(ctx, "nohash@007.com", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateUser_RehashesPassword(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, &model.User{FirstName: "A", LastName: "B", Email: "a@b.com", Password: "old"})
	require.NoError(t, err)
	oldHash := user.PasswordHash

	user.Password = "new"
	user.LastName = "C"
	_, err = s.UpdateUser(ctx, user)
	require.NoError(t, err)

	stored, err := s.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "C", stored.LastName)
	assert.NotEqual(t, oldHash, stored.PasswordHash)

	ok, err := stored.Authenticate("new")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateUser_Errors(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.UpdateUser(ctx, &model.User{FirstName: "A", LastName: "B", Email: "a@b.com"})
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = s.UpdateUser(ctx, &model.User{ID: 99, FirstName: "A", LastName: "B", Email: "a@b.com"})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestCreateAlbum(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	album, err := s.CreateAlbum(ctx, &model.Album{Title: "No Strings Attached", Cost: 15, Genre: "Pop"})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultArtist, album.Artist)

	stored, err := s.Albums().GetAlbumByID(ctx, album.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "No Strings Attached", stored.Title)
	assert.Equal(t, float64(15), stored.Cost)
	assert.Equal(t, "Pop", stored.Genre)
	assert.Equal(t, "Not Available", stored.Artist)
}

func TestCreateAlbum_RequiresTitle(t *testing.T) {
	s := newStore(t)

	_, err := s.CreateAlbum(context.Background(), &model.Album{Artist: "NSYNC"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title cannot be null")
	assert.ErrorIs(t, err, model.ErrRequiredField)
}

func TestUpdateAlbum(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	album, err := s.CreateAlbum(ctx, &model.Album{Title: "Bad", Artist: "Michael Jackson"})
	require.NoError(t, err)

	album.Artist = ""
	album.Cost = 9.5
	_, err = s.UpdateAlbum(ctx, album)
	require.NoError(t, err)

	stored, err := s.Albums().GetAlbumByID(ctx, album.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultArtist, stored.Artist)
	assert.Equal(t, 9.5, stored.Cost)

	album.Title = ""
	_, err = s.UpdateAlbum(ctx, album)
	assert.ErrorIs(t, err, model.ErrRequiredField)

	_, err = s.UpdateAlbum(ctx, &model.Album{ID: 1234, Title: "Ghost"})
	assert.ErrorIs(t, err, repository.ErrAlbumNotFound)
}

func TestDeleteAll(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, title := range []string{"A", "B", "C"} {
		_, err := s.CreateAlbum(ctx, &model.Album{Title: title})
		require.NoError(t, err)
	}
	_, err := s.CreateUser(ctx, &model.User{FirstName: "A", LastName: "B", Email: "a@b.com"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteAll(ctx, EntityAlbum, true))
	albums, err := s.Albums().ListAlbums(ctx)
	require.NoError(t, err)
	assert.Empty(t, albums)

	user, err := s.Users().GetUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.NotNil(t, user, "deleting albums must not touch users")

	require.NoError(t, s.DeleteAll(ctx, EntityUser, false))
	user, err = s.Users().GetUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Nil(t, user)

	assert.ErrorIs(t, s.DeleteAll(ctx, EntityKind("track"), true), ErrUnknownEntity)
}

func TestOperationsWaitForReadiness(t *testing.T) {
	store, err := db.OpenSQLite(":memory:", "silent")
	require.NoError(t, err)
	defer store.Close()
	s := NewGorm(store)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.CreateAlbum(ctx, &model.Album{Title: "Early"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, store.Sync(context.Background()))
	_, err = s.CreateAlbum(context.Background(), &model.Album{Title: "Later"})
	assert.NoError(t, err)
}

func TestPing_ReportsReadiness(t *testing.T) {
	store, err := db.OpenSQLite(":memory:", "silent")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	s := NewGorm(store)
	ctx := context.Background()

	assert.ErrorIs(t, s.Ping(ctx), ErrNotReady)

	require.NoError(t, store.Sync(ctx))
	assert.NoError(t, s.Ping(ctx))
}
