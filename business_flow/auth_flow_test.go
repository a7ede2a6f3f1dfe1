package businessflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirphl/partyline/app/dto"
	"github.com/amirphl/partyline/app/services"
	businessflow "github.com/amirphl/partyline/business_flow"
	"github.com/amirphl/partyline/config"
	"github.com/amirphl/partyline/models"
	testingutil "github.com/amirphl/partyline/testing"
	"github.com/amirphl/partyline/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTokenService(t *testing.T) services.TokenService {
	t.Helper()
	ts, err := services.NewTokenService(config.JWTConfig{
		SecretKey:       "test-secret-key-that-is-long-enough",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "partyline-test",
		Audience:        "partyline-test",
	}, services.NewMemoryRevocationStore())
	require.NoError(t, err)
	return ts
}

func TestSignupLoginLogout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tokens := newTokenService(t)
	md := businessflow.NewClientMetadata("127.0.0.1", "go-test")

	signup := businessflow.NewSignupFlow(h.accounts, h.audits, tokens, bcrypt.MinCost, h.db.DB)
	login := businessflow.NewLoginFlow(h.accounts, h.audits, tokens)

	signed, err := signup.Signup(ctx, &dto.SignupRequest{
		Email:           " Hana@Example.com ",
		Password:        "Str0ng!pass",
		ConfirmPassword: "Str0ng!pass",
		FirstName:       "Hana",
		Phone:           utils.ToPtr("(555) 010-2030"),
	}, md)
	require.NoError(t, err)
	assert.Equal(t, "hana@example.com", signed.Account.Email)
	require.NotNil(t, signed.Account.Phone)
	assert.Equal(t, "+5550102030", *signed.Account.Phone)
	assert.NotEmpty(t, signed.Session.AccessToken)
	assert.NotEmpty(t, signed.Session.RefreshToken)

	t.Run("DuplicateEmail", func(t *testing.T) {
		_, err := signup.Signup(ctx, &dto.SignupRequest{Email: "hana@example.com", Password: "Str0ng!pass", FirstName: "Other"}, md)
		assert.True(t, businessflow.IsEmailAlreadyExists(err))
	})

	t.Run("InvalidPhone", func(t *testing.T) {
		_, err := signup.Signup(ctx, &dto.SignupRequest{Email: "x@example.com", Password: "Str0ng!pass", FirstName: "X", Phone: utils.ToPtr("123")}, md)
		assert.True(t, businessflow.IsInvalidPhone(err))
	})

	t.Run("LoginWrongPassword", func(t *testing.T) {
		_, err := login.Login(ctx, &dto.LoginRequest{Email: "hana@example.com", Password: "nope"}, md)
		assert.True(t, businessflow.IsIncorrectPassword(err))

		failed, err := h.audits.ListFailedActions(ctx, 10, 0)
		require.NoError(t, err)
		var sawLoginFailure bool
		for _, a := range failed {
			if a.Action == models.AuditActionLoginFailed {
				sawLoginFailure = true
			}
		}
		assert.True(t, sawLoginFailure)
	})

	t.Run("LoginUnknownEmail", func(t *testing.T) {
		_, err := login.Login(ctx, &dto.LoginRequest{Email: "ghost@example.com", Password: "Str0ng!pass"}, md)
		assert.True(t, businessflow.IsAccountNotFound(err))
	})

	var session dto.SessionDTO
	t.Run("Login", func(t *testing.T) {
		res, err := login.Login(ctx, &dto.LoginRequest{Email: "HANA@example.com", Password: "Str0ng!pass"}, md)
		require.NoError(t, err)
		assert.Equal(t, signed.Account.ID, res.Account.ID)
		session = res.Session
	})

	t.Run("RefreshRotates", func(t *testing.T) {
		res, err := login.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: session.RefreshToken})
		require.NoError(t, err)
		assert.NotEqual(t, session.RefreshToken, res.Session.RefreshToken)

		_, err = login.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: session.RefreshToken})
		require.Error(t, err)
		assert.True(t, errors.Is(err, services.ErrTokenRevoked))
	})

	t.Run("LogoutRevokesAccessToken", func(t *testing.T) {
		require.NoError(t, login.Logout(ctx, signed.Account.ID, session.AccessToken, md))
		_, err := tokens.ValidateToken(ctx, session.AccessToken)
		assert.ErrorIs(t, err, services.ErrTokenRevoked)
	})
}

func TestLoginInactiveAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	login := businessflow.NewLoginFlow(h.accounts, h.audits, newTokenService(t))

	account := h.account(t, "")
	account.IsActive = utils.ToPtr(false)
	require.NoError(t, h.accounts.Update(ctx, account))

	_, err := login.Login(ctx, &dto.LoginRequest{Email: account.Email, Password: testingutil.TestPassword}, nil)
	assert.True(t, businessflow.IsAccountInactive(err))
}

func TestProfileFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	profile := businessflow.NewProfileFlow(h.accounts, h.audits)
	account := h.account(t, "")

	got, err := profile.GetProfile(ctx, account.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Phone)

	updated, err := profile.UpdateProfile(ctx, account.ID, &dto.UpdateProfileRequest{
		FirstName: "Hana",
		Phone:     utils.ToPtr("+1 555 000 2000"),
		Birthday:  utils.ToPtr("1990-04-12"),
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "+15550002000", *updated.Phone)
	assert.Nil(t, updated.LastName)

	reloaded, err := h.accounts.ByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.HasPhone())

	_, err = profile.UpdateProfile(ctx, account.ID, &dto.UpdateProfileRequest{FirstName: " "}, nil)
	assert.True(t, businessflow.IsFirstNameRequired(err))

	_, err = profile.GetProfile(ctx, 999999)
	assert.True(t, businessflow.IsAccountNotFound(err))
}
