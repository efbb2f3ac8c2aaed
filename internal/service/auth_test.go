package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/table-reservation/internal/apperr"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/service"
	"github.com/iliyamo/table-reservation/internal/service/servicetest"
	"github.com/iliyamo/table-reservation/internal/utils"
)

func newAuth(t *testing.T) (*service.AuthService, *servicetest.DB) {
	t.Helper()
	db := servicetest.NewDB()
	svc := service.NewAuthService(db.Users(), db.Tokens(), service.AuthConfig{
		JWTSecret:  "test-secret",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, zerolog.Nop())
	return svc, db
}

func TestSignupThenLogin(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()

	res, err := svc.Signup(ctx, service.SignupInput{Name: "Ana", Email: " Ana@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, model.PublicUser{ID: 1, Name: "Ana", Email: "ana@example.com", Role: model.RoleUser}, res.User)

	id, err := svc.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, model.Identity{ID: 1, Email: "ana@example.com", Role: model.RoleUser}, id)

	login, err := svc.Login(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, res.User, login.User)

	me, err := svc.Me(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ana", me.Name)
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()
	for _, in := range []service.SignupInput{
		{Email: "a@b.io", Password: "secret1"},
		{Name: "A", Password: "secret1"},
		{Name: "A", Email: "a@b.io"},
		{Name: "A", Email: "not-an-email", Password: "secret1"},
		{Name: "A", Email: "a@b.io", Password: "12345"},
	} {
		_, err := svc.Signup(ctx, in)
		assert.True(t, apperr.Is(err, apperr.KindValidation), "%+v -> %v", in, err)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()
	_, err := svc.Signup(ctx, service.SignupInput{Name: "A", Email: "a@b.io", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, service.SignupInput{Name: "B", Email: "A@B.io", Password: "secret2"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, "Email already exists", apperr.Message(err))
}

func TestLoginFailuresShareMessage(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()
	_, err := svc.Signup(ctx, service.SignupInput{Name: "A", Email: "a@b.io", Password: "secret1"})
	require.NoError(t, err)

	_, errUnknown := svc.Login(ctx, "nobody@b.io", "secret1")
	_, errWrong := svc.Login(ctx, "a@b.io", "wrong-pass")

	assert.True(t, apperr.Is(errUnknown, apperr.KindInvalidCredentials))
	assert.True(t, apperr.Is(errWrong, apperr.KindInvalidCredentials))
	assert.Equal(t, apperr.Message(errUnknown), apperr.Message(errWrong))
}

func TestVerify(t *testing.T) {
	svc, _ := newAuth(t)

	_, err := svc.Verify("")
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	_, err = svc.Verify("garbage")
	assert.True(t, apperr.Is(err, apperr.KindInvalidToken))

	other, err := utils.NewAccessToken("other-secret", model.Identity{ID: 1, Role: model.RoleAdmin}, time.Hour, time.Now())
	require.NoError(t, err)
	_, err = svc.Verify(other.Token)
	assert.True(t, apperr.Is(err, apperr.KindInvalidToken))
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()
	res, err := svc.Signup(ctx, service.SignupInput{Name: "A", Email: "a@b.io", Password: "secret1"})
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, res.RefreshToken, next.RefreshToken)

	_, err = svc.Refresh(ctx, res.RefreshToken)
	assert.True(t, apperr.Is(err, apperr.KindInvalidToken), "old refresh token must be revoked")

	_, err = svc.Refresh(ctx, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestLogout(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()
	res, err := svc.Signup(ctx, service.SignupInput{Name: "A", Email: "a@b.io", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, nil, res.RefreshToken))
	_, err = svc.Refresh(ctx, res.RefreshToken)
	assert.True(t, apperr.Is(err, apperr.KindInvalidToken))

	again, err := svc.Login(ctx, "a@b.io", "secret1")
	require.NoError(t, err)
	id := model.Identity{ID: again.User.ID, Role: model.RoleUser}
	require.NoError(t, svc.Logout(ctx, &id, ""))
	_, err = svc.Refresh(ctx, again.RefreshToken)
	assert.True(t, apperr.Is(err, apperr.KindInvalidToken))

	err = svc.Logout(ctx, nil, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
