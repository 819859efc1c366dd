package usecase

import (
	"context"
	"testing"

	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserRegister_Success(t *testing.T) {
	users := newMemUserRepo()
	uc := NewUserUC(users, testLogger{})

	info, err := uc.Register(context.Background(), NewRegisterUserReq("Alice", "alice@example.com", "s3cret"))
	require.NoError(t, err)
	assert.NotZero(t, info.ID)
	assert.Equal(t, "alice@example.com", info.Email)

	// В хранилище лежит bcrypt-хэш, а не исходный пароль
	stored := users.byID(info.ID)
	require.NotNil(t, stored)
	assert.NotEqual(t, "s3cret", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret")))
}

func TestUserRegister_MissingFields(t *testing.T) {
	uc := NewUserUC(newMemUserRepo(), testLogger{})

	cases := []struct {
		name string
		req  *RegisterUserReq
	}{
		{"empty name", NewRegisterUserReq("", "a@b.c", "pwd")},
		{"empty email", NewRegisterUserReq("Alice", "   ", "pwd")},
		{"empty password", NewRegisterUserReq("Alice", "a@b.c", "")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Register(context.Background(), tc.req)
			assert.ErrorIs(t, err, e.ErrMissingFields)
		})
	}
}

func TestUserRegister_DuplicateEmail(t *testing.T) {
	uc := NewUserUC(newMemUserRepo(), testLogger{})

	_, err := uc.Register(context.Background(), NewRegisterUserReq("Alice", "alice@example.com", "pwd"))
	require.NoError(t, err)

	_, err = uc.Register(context.Background(), NewRegisterUserReq("Alice Two", "alice@example.com", "pwd2"))
	assert.ErrorIs(t, err, e.ErrEmailTaken)
}

func TestUserList(t *testing.T) {
	users := newMemUserRepo()
	uc := NewUserUC(users, testLogger{})

	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := uc.Register(context.Background(), NewRegisterUserReq("u", email, "pwd"))
		require.NoError(t, err)
	}

	list, err := uc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
