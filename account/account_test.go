package account_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-client/account"
	"github.com/jrsteele09/go-auth-client/client"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/routes"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/token/jwt/jwtfake"
	"github.com/jrsteele09/go-auth-client/transport"
	"github.com/jrsteele09/go-auth-client/transport/transportfake"
	"github.com/jrsteele09/go-auth-client/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testUser = session.UserProfile{ID: "user-1", Username: "jo", Email: "jo@example.com"}

type accountFixture struct {
	store     *session.Store
	transport *transportfake.FakeTransport
	service   *account.Service
	token     string
}

func setupAccount(t *testing.T) *accountFixture {
	t.Helper()

	store := session.NewStore(nil)
	ft := transportfake.NewFakeTransport()
	c := client.New(store, ft, client.WithBaseURL("http://api.test"), client.WithLogger(zerolog.Nop()))
	f := &accountFixture{
		store:     store,
		transport: ft,
		service:   account.NewService(c, account.WithLogger(zerolog.Nop())),
		token:     jwtfake.AccessToken("user-1", time.Now().Add(time.Hour)),
	}

	creds := session.Credentials{AccessToken: f.token, RefreshToken: "R1"}
	ft.Handle(http.MethodPost, routes.RouteAuthLogin, transportfake.Respond(transportfake.JSON(http.StatusOK, creds)))
	ft.Handle(http.MethodPost, routes.RouteAuthRegister, transportfake.Respond(transportfake.JSON(http.StatusCreated, creds)))
	ft.Handle(http.MethodGet, routes.RouteUsersMe, transportfake.Respond(transportfake.JSON(http.StatusOK, testUser)))
	return f
}

func (f *accountFixture) signIn(t *testing.T) {
	t.Helper()
	require.NoError(t, f.service.SignIn(context.Background(), users.SignInForm{Email: "jo@example.com", Password: "secret"}))
}

func TestSignIn(t *testing.T) {
	f := setupAccount(t)
	f.signIn(t)

	creds, ok := f.store.Credentials()
	require.True(t, ok)
	require.Equal(t, f.token, creds.AccessToken)
	user, ok := f.store.User()
	require.True(t, ok)
	require.Equal(t, testUser, user)

	login := f.transport.RequestsTo(http.MethodPost, routes.RouteAuthLogin)
	require.Len(t, login, 1)
	require.Empty(t, login[0].Header.Get("Authorization"))
	require.JSONEq(t, `{"email":"jo@example.com","password":"secret"}`, string(login[0].Body))

	me := f.transport.RequestsTo(http.MethodGet, routes.RouteUsersMe)
	require.Len(t, me, 1)
	require.Equal(t, "Bearer "+f.token, me[0].Header.Get("Authorization"))
}

func TestSignUp(t *testing.T) {
	f := setupAccount(t)
	err := f.service.SignUp(context.Background(), users.SignUpForm{Username: "jo", Email: "jo@example.com", Password: "Sup3rSecret"})
	require.NoError(t, err)
	require.True(t, f.store.IsAuthorized())
	require.Equal(t, 1, f.transport.Calls(http.MethodPost, routes.RouteAuthRegister))
	require.Equal(t, 1, f.transport.Calls(http.MethodGet, routes.RouteUsersMe))
}

func TestSignUpRejectsInvalidFormWithoutCalling(t *testing.T) {
	f := setupAccount(t)
	err := f.service.SignUp(context.Background(), users.SignUpForm{Username: "jo", Email: "jo@example.com", Password: "weak"})
	require.ErrorIs(t, err, autherrors.ErrInvalidRequest)
	require.Empty(t, f.transport.Requests())
}

func TestSignInFailure(t *testing.T) {
	f := setupAccount(t)
	f.transport.Handle(http.MethodPost, routes.RouteAuthLogin, transportfake.Respond(transportfake.Status(http.StatusUnauthorized)))

	err := f.service.SignIn(context.Background(), users.SignInForm{Email: "jo@example.com", Password: "wrong"})
	require.True(t, client.IsUnauthorized(err))
	require.False(t, f.store.IsAuthorized())
	require.Zero(t, f.transport.Calls(http.MethodGet, routes.RouteUsersMe))
}

func TestSignInWithoutAccessToken(t *testing.T) {
	f := setupAccount(t)
	f.transport.Handle(http.MethodPost, routes.RouteAuthLogin, transportfake.Respond(transportfake.JSON(http.StatusOK, map[string]string{})))

	err := f.service.SignIn(context.Background(), users.SignInForm{Email: "jo@example.com", Password: "secret"})
	require.ErrorIs(t, err, autherrors.ErrInvalidResponse)
	require.False(t, f.store.IsAuthorized())
}

func TestUpdateProfile(t *testing.T) {
	f := setupAccount(t)
	f.signIn(t)

	updated := testUser
	updated.FirstName = "Jo"
	f.transport.Handle(http.MethodPatch, routes.RouteUsersMe, transportfake.Respond(transportfake.JSON(http.StatusOK, updated)))

	user, err := f.service.UpdateProfile(context.Background(), users.ProfileUpdate{FirstName: ptr("Jo")})
	require.NoError(t, err)
	require.Equal(t, "Jo", user.FirstName)

	stored, _ := f.store.User()
	require.Equal(t, updated, stored)
	require.JSONEq(t, `{"firstName":"Jo"}`, string(f.transport.RequestsTo(http.MethodPatch, routes.RouteUsersMe)[0].Body))
}

func TestUpdateProfileWithoutReturnedUserKeepsStoredUser(t *testing.T) {
	f := setupAccount(t)
	f.signIn(t)
	f.transport.Handle(http.MethodPatch, routes.RouteUsersMe, transportfake.Respond(transportfake.Status(http.StatusNoContent)))

	user, err := f.service.UpdateProfile(context.Background(), users.ProfileUpdate{LastName: ptr("Doe")})
	require.NoError(t, err)
	require.Nil(t, user)
	stored, _ := f.store.User()
	require.Equal(t, testUser, stored)
}

func TestUpdateAvatar(t *testing.T) {
	f := setupAccount(t)
	f.signIn(t)

	f.transport.Handle(http.MethodPost, routes.RouteMedia, func(_ context.Context, req *transport.Request) (*transport.Response, error) {
		_, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
		if err != nil {
			return nil, err
		}
		form, err := multipart.NewReader(bytes.NewReader(req.Body), params["boundary"]).ReadForm(1 << 20)
		if err != nil {
			return nil, err
		}
		if form.Value["username"][0] != "jo" || form.File["file"][0].Filename != "me.png" {
			return transportfake.Status(http.StatusBadRequest), nil
		}
		file, err := form.File["file"][0].Open()
		if err != nil {
			return nil, err
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		if string(content) != "png-bytes" {
			return transportfake.Status(http.StatusBadRequest), nil
		}
		return transportfake.JSON(http.StatusCreated, map[string]string{"id": "media-7"}), nil
	})

	withAvatar := testUser
	withAvatar.AvatarURL = "https://cdn.example.com/media-7.png"
	f.transport.Handle(http.MethodPut, routes.RouteUsersMeAvatar, func(_ context.Context, req *transport.Request) (*transport.Response, error) {
		var body map[string]string
		if err := json.Unmarshal(req.Body, &body); err != nil || body["imageId"] != "media-7" {
			return transportfake.Status(http.StatusBadRequest), nil
		}
		return transportfake.JSON(http.StatusOK, withAvatar), nil
	})

	user, err := f.service.UpdateAvatar(context.Background(), "me.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	require.Equal(t, withAvatar.AvatarURL, user.AvatarURL)
	stored, _ := f.store.User()
	require.Equal(t, withAvatar, stored)
}

func TestUpdateAvatarRequiresImage(t *testing.T) {
	f := setupAccount(t)
	_, err := f.service.UpdateAvatar(context.Background(), "", nil)
	require.ErrorIs(t, err, autherrors.ErrInvalidRequest)
	require.Empty(t, f.transport.Requests())
}

func TestUpdatePassword(t *testing.T) {
	f := setupAccount(t)
	f.signIn(t)
	f.transport.Handle(http.MethodPost, routes.RouteUsersMePassword, transportfake.Respond(transportfake.Status(http.StatusNoContent)))

	_, err := f.service.UpdatePassword(context.Background(), users.PasswordChange{OldPassword: "Old1Password", NewPassword: "New1Password"})
	require.NoError(t, err)

	var body users.PasswordChange
	require.NoError(t, json.Unmarshal(f.transport.RequestsTo(http.MethodPost, routes.RouteUsersMePassword)[0].Body, &body))
	require.Equal(t, "user-1", body.UserID)
	require.Equal(t, "New1Password", body.NewPassword)
}

func TestUpdatePasswordRejectsWeakPassword(t *testing.T) {
	f := setupAccount(t)
	f.signIn(t)

	_, err := f.service.UpdatePassword(context.Background(), users.PasswordChange{OldPassword: "Old1Password", NewPassword: "short"})
	require.ErrorIs(t, err, autherrors.ErrInvalidRequest)
	require.Zero(t, f.transport.Calls(http.MethodPost, routes.RouteUsersMePassword))
}

func TestHasRole(t *testing.T) {
	f := setupAccount(t)
	require.False(t, f.service.HasRole(users.RoleTenantUser))

	f.signIn(t)
	require.True(t, f.service.HasRole(users.RoleTenantUser))
	require.False(t, f.service.HasRole(users.RoleSuperAdmin))
}

func TestLogout(t *testing.T) {
	f := setupAccount(t)
	f.signIn(t)
	f.transport.Handle(http.MethodPost, routes.RouteAuthLogout, transportfake.Respond(transportfake.Status(http.StatusNoContent)))

	require.NoError(t, f.service.Logout(context.Background()))
	require.False(t, f.store.IsAuthorized())
	_, ok := f.store.User()
	require.False(t, ok)
	require.Equal(t, 1, f.transport.Calls(http.MethodPost, routes.RouteAuthLogout))
}

func ptr[T any](v T) *T {
	return &v
}
