package identity

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-phonestore/models"
	"go-phonestore/services"
	"go-phonestore/store"
	"go-phonestore/utils"
)

func newLocal(t *testing.T) *Local {
	t.Helper()
	old := utils.JwtKey
	utils.JwtKey = []byte("identity-test")
	t.Cleanup(func() { utils.JwtKey = old })
	return NewLocal(services.NewUserService(store.NewMemory()), time.Hour, bcrypt.MinCost, "https://shop.example.com/", []string{"Boss@Example.com"})
}

func authCode(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

func TestLocalRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)

	u, err := l.Register(ctx, " Ann@Example.com ", "secret1", "Ann")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, models.RoleCustomer, u.Role)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	_, err = l.Register(ctx, "ann@example.com", "secret2", "Ann again")
	assert.Equal(t, CodeEmailAlreadyInUse, authCode(err))
	_, err = l.Register(ctx, "not-an-email", "secret1", "")
	assert.Equal(t, CodeInvalidEmail, authCode(err))
	_, err = l.Register(ctx, "bob@example.com", "123", "")
	assert.Equal(t, CodeWeakPassword, authCode(err))

	admin, err := l.Register(ctx, "boss@example.com", "secret1", "Boss")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	sess, err := l.Login(ctx, "ANN@example.com", "secret1")
	require.NoError(t, err)
	p, err := l.Verify(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UID)
	assert.False(t, p.Admin)

	_, err = l.Login(ctx, "ann@example.com", "wrong-password")
	assert.Equal(t, CodeWrongPassword, authCode(err))
	_, err = l.Login(ctx, "nobody@example.com", "secret1")
	assert.Equal(t, CodeUserNotFound, authCode(err))

	_, err = l.Verify(ctx, "garbage")
	assert.Equal(t, CodeInvalidToken, authCode(err))
}

func TestLocalPasswordReset(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)
	_, err := l.Register(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)

	link, err := l.PasswordResetLink(ctx, "ann@example.com")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "https://shop.example.com/reset-password?token="), link)
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	token := parsed.Query().Get("token")

	_, err = l.Verify(ctx, token)
	assert.Equal(t, CodeInvalidToken, authCode(err), "reset tokens are not sessions")

	assert.Equal(t, CodeWeakPassword, authCode(l.ResetPassword(ctx, token, "x")))
	require.NoError(t, l.ResetPassword(ctx, token, "n3w-secret"))

	_, err = l.Login(ctx, "ann@example.com", "secret1")
	assert.Equal(t, CodeWrongPassword, authCode(err))
	_, err = l.Login(ctx, "ann@example.com", "n3w-secret")
	assert.NoError(t, err)

	sess, err := l.Login(ctx, "ann@example.com", "n3w-secret")
	require.NoError(t, err)
	assert.Equal(t, CodeInvalidToken, authCode(l.ResetPassword(ctx, sess.Token, "another1")), "session tokens cannot reset")

	_, err = l.PasswordResetLink(ctx, "ghost@example.com")
	assert.Equal(t, CodeUserNotFound, authCode(err))
}

func TestAuthErrorMessages(t *testing.T) {
	err := authErr(CodeWrongPassword, errors.New("hash mismatch"))
	var ae *AuthError
	require.True(t, errors.As(err, &ae))
	assert.NotEmpty(t, ae.Message())
	assert.NotEqual(t, GenericMessage, ae.Message())
	assert.Equal(t, GenericMessage, Message("something-else"))
}
