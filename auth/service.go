package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-admin-client/apimodel"
	"github.com/jrsteele09/go-admin-client/internal/errors"
	"github.com/jrsteele09/go-admin-client/refresh"
	"github.com/jrsteele09/go-admin-client/request"
	"github.com/jrsteele09/go-admin-client/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrLoginFailed = errors.New("login failed")

// Requester sends authenticated requests. *refresh.Coordinator implements it.
type Requester interface {
	DoJSON(ctx context.Context, ref string, opts request.Options) (*request.Response, error)
}

// Service runs the login and logout workflows against the session.
type Service struct {
	sender    refresh.Sender
	client    Requester
	session   *session.Session
	notifier  Notifier
	navigator Navigator
	log       zerolog.Logger

	signInPath string
	mePath     string
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithNavigator(n Navigator) Option {
	return func(s *Service) {
		s.navigator = n
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.log = logger
	}
}

// WithPaths overrides the sign-in and profile endpoint paths.
func WithPaths(signIn, me string) Option {
	return func(s *Service) {
		s.signInPath = signIn
		s.mePath = me
	}
}

// NewService creates a Service. The credential exchange goes through sender
// directly, a rejected sign-in never triggers a token refresh. The profile is
// fetched through client.
func NewService(sender refresh.Sender, client Requester, sess *session.Session, opts ...Option) *Service {
	s := &Service{
		sender:     sender,
		client:     client,
		session:    sess,
		navigator:  NavigatorFunc(func(string) {}),
		log:        log.Logger,
		signInPath: "/sign-in",
		mePath:     "/me",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "auth").Logger()
	if s.notifier == nil {
		s.notifier = NewLogNotifier(s.log)
	}
	return s
}

// Login exchanges the credentials for tokens, then fetches the profile. The
// session is authenticated only when both steps succeed; on any failure it is
// cleared, the user is notified and the returned error wraps ErrLoginFailed.
func (s *Service) Login(ctx context.Context, creds apimodel.SignIn) error {
	s.session.SetLoading(true)
	defer s.session.SetLoading(false)

	user, err := s.login(ctx, creds)
	if err != nil {
		s.session.Clear(ctx)
		s.log.Warn().Err(err).Str("email", creds.Email).Msg("Login failed")
		s.notifier.Notify(Notification{
			Level:   LevelError,
			Title:   "Sign in failed",
			Message: describe(err),
		})
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	s.log.Info().Str("uuid", user.UUID).Msg("Logged in")
	s.notifier.Notify(Notification{
		Level:   LevelSuccess,
		Title:   "Signed in",
		Message: fmt.Sprintf("Welcome, %s", displayName(user)),
	})
	s.navigator.Navigate(RouteDashboard)
	return nil
}

func (s *Service) login(ctx context.Context, creds apimodel.SignIn) (session.User, error) {
	if err := creds.Validate(); err != nil {
		return session.User{}, err
	}

	tokens, err := s.Tokens(ctx, creds)
	if err != nil {
		return session.User{}, err
	}
	s.session.SetTokens(ctx, tokens)

	user, err := s.Me(ctx)
	if err != nil {
		return session.User{}, err
	}
	s.session.SetCurrentUser(ctx, user)
	return user, nil
}

// Logout clears the session without contacting the API and sends the user to
// the login route. It cannot fail.
func (s *Service) Logout(ctx context.Context) {
	s.session.Clear(ctx)
	s.log.Info().Msg("Logged out")
	s.notifier.Notify(Notification{Level: LevelInfo, Title: "Signed out"})
	s.navigator.Navigate(RouteLogin)
}

// SessionExpired is the hook for a session cleared by a failed token refresh.
// During a login the failure is reported by Login itself, so nothing is sent.
func (s *Service) SessionExpired(err error) {
	if s.session.Loading() {
		s.log.Debug().Err(err).Msg("Token refresh failed during login")
		return
	}
	s.log.Warn().Err(err).Msg("Session expired")
	s.notifier.Notify(Notification{
		Level:   LevelError,
		Title:   "Session expired",
		Message: "Please sign in again",
	})
	s.navigator.Navigate(RouteLogin)
}

// Tokens performs the credential exchange only. The session is not touched.
func (s *Service) Tokens(ctx context.Context, creds apimodel.SignIn) (session.Tokens, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return session.Tokens{}, err
	}

	resp, err := s.sender.Send(ctx, s.signInPath, request.JSON(request.Options{
		Method: http.MethodPost,
		Body:   body,
	}))
	if err != nil {
		return session.Tokens{}, err
	}

	var tokenResp apimodel.TokenResponse
	if err := resp.Decode(&tokenResp); err != nil {
		return session.Tokens{}, errors.Wrapf(err, "decode sign-in response")
	}
	if !tokenResp.Complete() {
		return session.Tokens{}, errors.Wrapf(errors.ErrInvalidToken, "sign-in response without a token pair")
	}
	return session.Tokens{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
	}, nil
}

// Me fetches the profile of the user the current access token belongs to.
func (s *Service) Me(ctx context.Context) (session.User, error) {
	if s.session.Tokens().IsEmpty() {
		return session.User{}, errors.ErrNotAuthenticated
	}

	resp, err := s.client.DoJSON(ctx, s.mePath, request.Options{Token: true})
	if err != nil {
		return session.User{}, err
	}

	var body apimodel.UserResponse
	if err := resp.Decode(&body); err != nil {
		return session.User{}, errors.Wrapf(err, "decode profile")
	}
	if body.UUID == "" {
		return session.User{}, errors.Wrapf(errors.ErrUserNotFound, "profile without uuid")
	}
	return session.User{
		UUID:      body.UUID,
		Name:      body.Name,
		Email:     body.Email,
		CreatedAt: body.CreatedAt,
		UpdatedAt: body.UpdatedAt,
	}, nil
}

// describe turns a pipeline error into a message fit for the user.
func describe(err error) string {
	var respErr *request.ResponseError
	if errors.As(err, &respErr) {
		return respErr.Message()
	}
	var transportErr *request.TransportError
	if errors.As(err, &transportErr) {
		return "The server could not be reached"
	}
	var decodeErr *request.DecodeError
	if errors.As(err, &decodeErr) {
		return "The server sent an unreadable response"
	}
	return err.Error()
}

func displayName(u session.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
