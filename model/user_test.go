package model_test

import (
	"errors"
	"strings"
	"testing"

	"VinylShop/internal/testutil"
	"VinylShop/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildUser() *model.User {
	return &model.User{
		FirstName: "James",
		LastName:  "Bond",
		Email:     "007@bond.com",
	}
}

func TestUser_SaveRoundTrip(t *testing.T) {
	store := testutil.NewStore(t)
	user := buildUser()

	require.NoError(t, store.DB.Create(user).Error)

	var saved model.User
	require.NoError(t, store.DB.First(&saved, user.ID).Error)
	assert.Equal(t, "James", saved.FirstName)
	assert.Equal(t, "Bond", saved.LastName)
	assert.Equal(t, "007@bond.com", saved.Email)
	assert.False(t, saved.IsAdmin)
}

func TestUser_Authenticate(t *testing.T) {
	store := testutil.NewStore(t)

	tests := []struct {
		name    string
		attempt string
		want    bool
	}{
		{name: "matching password", attempt: "ok", want: true},
		{name: "wrong password", attempt: "not ok", want: false},
		{name: "empty attempt", attempt: "", want: false},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &model.User{
				FirstName: "Jim",
				LastName:  "Miller",
				Email:     []string{"a@007.com", "b@007.com", "c@007.com"}[i],
				Password:  "ok",
			}
			require.NoError(t, store.DB.Create(user).Error)

			var saved model.User
			require.NoError(t, store.DB.First(&saved, user.ID).Error)

			got, err := saved.Authenticate(tt.attempt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUser_PlaintextNeverPersisted(t *testing.T) {
	store := testutil.NewStore(t)
	user := buildUser()
	user.Password = "hunter2"

	require.NoError(t, store.DB.Create(user).Error)
	assert.Empty(t, user.Password)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "hunter2", user.PasswordHash)

	var hash string
	require.NoError(t, store.DB.Raw("SELECT password_hash FROM users WHERE id = ?", user.ID).Scan(&hash).Error)
	assert.Equal(t, user.PasswordHash, hash)
}

func TestUser_AuthenticateWithoutHash(t *testing.T) {
	user := buildUser()

	ok, err := user.Authenticate("anything")
	assert.False(t, ok)
	assert.ErrorIs(t, err, model.ErrMissingPasswordHash)
}

func TestUser_RequiresFirstName(t *testing.T) {
	user := buildUser()
	user.FirstName = ""

	err := user.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "firstName cannot be null")
	assert.ErrorIs(t, err, model.ErrRequiredField)
}

func TestUser_EmailValidation(t *testing.T) {
	for _, email := range []string{"", "not-an-email", "bond@", "@bond.com"} {
		t.Run(email, func(t *testing.T) {
			user := buildUser()
			user.Email = email

			err := user.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "Validation error")
			assert.True(t, errors.Is(err, model.ErrFormat))
			assert.False(t, errors.Is(err, model.ErrRequiredField))
		})
	}
}

func TestUser_PasswordTooLong(t *testing.T) {
	user := buildUser()
	user.Password = strings.Repeat("p", 80)

	err := user.Validate()
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	f, ok := verr.Field("password")
	require.True(t, ok)
	assert.Equal(t, model.Format, f.Kind)
	assert.Contains(t, f.Message, "Validation error")

	err = user.SetPassword(strings.Repeat("p", 80))
	assert.True(t, errors.As(err, &verr))
	assert.Empty(t, user.PasswordHash)
}

func TestUser_ValidateReportsAllFields(t *testing.T) {
	err := (&model.User{}).Validate()

	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 3)
	assert.Contains(t, err.Error(), "firstName cannot be null")
	assert.Contains(t, err.Error(), "lastName cannot be null")
	assert.Contains(t, err.Error(), "Validation error")
}

func TestUser_EmailUnique(t *testing.T) {
	store := testutil.NewStore(t)

	require.NoError(t, store.DB.Create(buildUser()).Error)
	assert.Error(t, store.DB.Create(buildUser()).Error)
}
