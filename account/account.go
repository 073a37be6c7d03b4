// Package account implements the sign-up, sign-in and profile flows on top of the
// authenticated client.
package account

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/jrsteele09/go-auth-client/client"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/routes"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Service runs the account flows for the client's session.
type Service struct {
	client *client.Client
	store  *session.Store
	logger zerolog.Logger
}

type Option func(*Service)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(c *client.Client, opts ...Option) *Service {
	s := &Service{
		client: c,
		store:  c.Store(),
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "account").Logger()
	return s
}

// SignUp registers a new user, stores the returned credentials and loads the profile.
func (s *Service) SignUp(ctx context.Context, form users.SignUpForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	if err := s.authenticate(ctx, routes.RouteAuthRegister, form); err != nil {
		return errors.Wrap(err, "sign up")
	}
	s.logger.Info().Str("username", form.Username).Msg("Signed up")
	return nil
}

// SignIn logs in, stores the returned credentials and loads the profile.
func (s *Service) SignIn(ctx context.Context, form users.SignInForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	if err := s.authenticate(ctx, routes.RouteAuthLogin, form); err != nil {
		return errors.Wrap(err, "sign in")
	}
	s.logger.Info().Str("email", form.Email).Msg("Signed in")
	return nil
}

func (s *Service) authenticate(ctx context.Context, route string, form any) error {
	req, err := client.NewRequest(http.MethodPost, route).WithBypassAuthorization().WithJSON(form)
	if err != nil {
		return errors.Wrap(autherrors.ErrInvalidRequest, err.Error())
	}

	var creds session.Credentials
	if err := s.client.DoJSON(ctx, req, &creds); err != nil {
		return err
	}
	if creds.AccessToken == "" {
		return errors.Wrap(autherrors.ErrInvalidResponse, "no access token returned")
	}
	s.store.SetCredentials(&creds)
	_, err = s.FetchMe(ctx)
	return err
}

// FetchMe loads the signed-in user's profile into the session.
func (s *Service) FetchMe(ctx context.Context) (*session.UserProfile, error) {
	var user session.UserProfile
	if err := s.client.Get(ctx, routes.RouteUsersMe, &user); err != nil {
		return nil, errors.Wrap(err, "fetch profile")
	}
	s.store.SetUser(&user)
	return &user, nil
}

// UpdateProfile changes the given profile fields. The stored profile is replaced when the server
// returns the updated user.
func (s *Service) UpdateProfile(ctx context.Context, update users.ProfileUpdate) (*session.UserProfile, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	var user *session.UserProfile
	if err := s.client.Patch(ctx, routes.RouteUsersMe, update, &user); err != nil {
		return nil, errors.Wrap(err, "update profile")
	}
	s.setUser(user)
	return user, nil
}

type mediaResponse struct {
	ID string `json:"id"`
}

type avatarUpdate struct {
	ImageID string `json:"imageId"`
}

// UpdateAvatar uploads an image and makes it the user's avatar.
func (s *Service) UpdateAvatar(ctx context.Context, filename string, image io.Reader) (*session.UserProfile, error) {
	if filename == "" || image == nil {
		return nil, errors.Wrap(autherrors.ErrInvalidRequest, "avatar image is required")
	}

	mediaID, err := s.uploadImage(ctx, filename, image)
	if err != nil {
		return nil, errors.Wrap(err, "upload avatar")
	}

	var user *session.UserProfile
	if err := s.client.Put(ctx, routes.RouteUsersMeAvatar, avatarUpdate{ImageID: mediaID}, &user); err != nil {
		return nil, errors.Wrap(err, "update avatar")
	}
	s.setUser(user)
	return user, nil
}

func (s *Service) uploadImage(ctx context.Context, filename string, image io.Reader) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, image); err != nil {
		return "", err
	}
	if user, ok := s.store.User(); ok && user.Username != "" {
		if err := w.WriteField("username", user.Username); err != nil {
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req := client.NewRequest(http.MethodPost, routes.RouteMedia).WithBody(w.FormDataContentType(), body.Bytes())
	var media mediaResponse
	if err := s.client.DoJSON(ctx, req, &media); err != nil {
		return "", err
	}
	if media.ID == "" {
		return "", errors.Wrap(autherrors.ErrInvalidResponse, "media upload returned no id")
	}
	return media.ID, nil
}

// UpdatePassword changes the user's password.
func (s *Service) UpdatePassword(ctx context.Context, change users.PasswordChange) (*session.UserProfile, error) {
	if change.UserID == "" {
		if user, ok := s.store.User(); ok {
			change.UserID = user.ID
		}
	}
	if err := change.Validate(); err != nil {
		return nil, err
	}

	var user *session.UserProfile
	if err := s.client.Post(ctx, routes.RouteUsersMePassword, change, &user); err != nil {
		return nil, errors.Wrap(err, "update password")
	}
	s.setUser(user)
	return user, nil
}

// HasRole reports whether the current access token grants role.
func (s *Service) HasRole(role users.RoleType) bool {
	claims, ok := s.store.CurrentClaims()
	return ok && users.HasRole(claims.Roles, role)
}

// Logout ends the session; see client.Client.Logout.
func (s *Service) Logout(ctx context.Context) error {
	return s.client.Logout(ctx)
}

func (s *Service) setUser(user *session.UserProfile) {
	if user == nil || user.ID == "" {
		return
	}
	s.store.SetUser(user)
}
