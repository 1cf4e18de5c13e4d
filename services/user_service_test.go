package services

import (
	"context"
	"testing"

	"github.com/emenuapi/emenu-backend/models"
	"github.com/emenuapi/emenu-backend/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCreateAndAuthenticate(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewUserService(db)

	user, err := svc.Create(context.Background(), UserInput{
		Username: testutil.Ptr("chef"),
		Email:    testutil.Ptr("chef@example.com"),
		Password: testutil.Ptr("correct-horse"),
	})
	require.NoError(t, err)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsStaff)
	assert.NotEqual(t, "correct-horse", user.Password)

	got, err := svc.Authenticate(context.Background(), "chef", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(context.Background(), "chef", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserAuthenticateInactive(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewUserService(db)
	user := testutil.CreateUser(t, db, func(u *models.User) { u.IsActive = false })

	_, err := svc.Authenticate(context.Background(), user.Username, testutil.DefaultPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserCreateValidation(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewUserService(db)
	existing := testutil.CreateUser(t, db)

	_, err := svc.Create(context.Background(), UserInput{
		Username: testutil.Ptr(existing.Username),
		Password: testutil.Ptr("long-enough"),
	})
	verrs, ok := AsValidationErrors(err)
	require.True(t, ok)
	assert.Equal(t, CodeUnique, verrs["username"][0].Code)

	_, err = svc.Create(context.Background(), UserInput{
		Username: testutil.Ptr("newbie"),
		Email:    testutil.Ptr("not-an-email"),
		Password: testutil.Ptr("short"),
	})
	verrs, ok = AsValidationErrors(err)
	require.True(t, ok)
	assert.Equal(t, CodeInvalid, verrs["email"][0].Code)
	assert.Equal(t, CodeMinLength, verrs["password"][0].Code)

	_, err = svc.Create(context.Background(), UserInput{})
	verrs, ok = AsValidationErrors(err)
	require.True(t, ok)
	assert.Equal(t, CodeRequired, verrs["username"][0].Code)
	assert.Equal(t, CodeRequired, verrs["password"][0].Code)
}

func TestUserList(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewUserService(db)
	first := testutil.CreateUser(t, db)
	second := testutil.CreateUser(t, db)

	users, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, first.ID, users[0].ID)
	assert.Equal(t, second.ID, users[1].ID)

	_, err = svc.Get(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
