package client_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-admin-client/apimodel"
	"github.com/jrsteele09/go-admin-client/auth"
	"github.com/jrsteele09/go-admin-client/client"
	"github.com/jrsteele09/go-admin-client/credentials"
	"github.com/jrsteele09/go-admin-client/internal/config"
	"github.com/jrsteele09/go-admin-client/metrics"
	"github.com/jrsteele09/go-admin-client/request"
	"github.com/jrsteele09/go-admin-client/server"
	"github.com/jrsteele09/go-admin-client/token/jwt"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var adminCreds = apimodel.SignIn{Email: "a@b.com", Password: "Secret123"}

type apiConfig struct {
	url string
}

func (c apiConfig) GetAPIURL() string      { return c.url }
func (c apiConfig) GetSignInPath() string  { return "/sign-in" }
func (c apiConfig) GetRefreshPath() string { return "/refresh" }
func (c apiConfig) GetMePath() string      { return "/me" }

// devAPI runs the development server behind a gate that can hold refresh calls.
type devAPI struct {
	url          string
	refreshCalls atomic.Int32
	hold         atomic.Bool
	release      chan struct{}
	releaseOnce  sync.Once

	// missingServed is closed once a request for missingPath has been answered.
	missingServed chan struct{}
	missingOnce   sync.Once
}

// slowPath is answered like /me, but only after missingPath, an unknown route,
// has been answered with a 404.
const (
	slowPath    = "/slow"
	missingPath = "/missing"
)

func (a *devAPI) releaseRefresh() {
	a.releaseOnce.Do(func() { close(a.release) })
}

func newDevAPI(t *testing.T) *devAPI {
	t.Helper()

	t.Setenv("ADMIN_EMAIL", adminCreds.Email)
	t.Setenv("ADMIN_PASSWORD", adminCreds.Password)
	t.Setenv("ADMIN_NAME", "Admin")
	t.Setenv("REFRESH_REPO_BACKEND", config.StoreBackendMemory)

	cfg := config.New()
	repos, _, err := server.NewRepos(cfg)
	require.NoError(t, err)
	srv, err := server.New(cfg, repos, server.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	api := &devAPI{release: make(chan struct{}), missingServed: make(chan struct{})}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case server.RouteBase + missingPath:
			srv.ServeHTTP(w, r)
			api.missingOnce.Do(func() { close(api.missingServed) })
			return
		case server.RouteBase + slowPath:
			<-api.missingServed
			slow := r.Clone(r.Context())
			slow.URL.Path = server.RouteMe
			srv.ServeHTTP(w, slow)
			return
		}
		if r.URL.Path == server.RouteRefresh {
			api.refreshCalls.Add(1)
			if api.hold.Load() {
				<-api.release
			}
		}
		srv.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)
	t.Cleanup(api.releaseRefresh)
	t.Cleanup(func() { api.missingOnce.Do(func() { close(api.missingServed) }) })
	api.url = ts.URL + server.RouteBase
	return api
}

type fixture struct {
	api       *devAPI
	client    *client.Client
	notifier  *auth.NotificationRecorder
	navigator *auth.RouteRecorder
}

func newFixture(t *testing.T, store credentials.Store) *fixture {
	t.Helper()

	f := &fixture{
		api:       newDevAPI(t),
		notifier:  &auth.NotificationRecorder{},
		navigator: &auth.RouteRecorder{},
	}
	c, err := client.New(context.Background(), apiConfig{url: f.api.url}, store,
		client.WithLogger(zerolog.Nop()),
		client.WithNotifier(f.notifier),
		client.WithNavigator(f.navigator),
	)
	require.NoError(t, err)
	f.client = c
	return f
}

// loginExpired signs in, then swaps in a token pair whose access token is
// already past its expiry.
func (f *fixture) loginExpired(t *testing.T) {
	t.Helper()

	require.NoError(t, f.client.Auth.Login(context.Background(), adminCreds))

	jwt.NowTimeFunc = func() time.Time { return time.Now().Add(-time.Hour) }
	tokens, err := f.client.Auth.Tokens(context.Background(), adminCreds)
	jwt.NowTimeFunc = time.Now
	require.NoError(t, err)
	f.client.Session.SetTokens(context.Background(), tokens)
}

func (f *fixture) refreshes(result string) float64 {
	return testutil.ToFloat64(f.client.Metrics.RefreshTotal.WithLabelValues(result))
}

func TestLogin(t *testing.T) {
	f := newFixture(t, credentials.NewInMemoryStore())

	require.NoError(t, f.client.Auth.Login(context.Background(), adminCreds))

	state := f.client.Session.State()
	require.True(t, state.IsAuthenticated)
	require.False(t, state.Loading)
	require.Equal(t, "a@b.com", state.CurrentUser.Email)
	require.Equal(t, "Admin", state.CurrentUser.Name)
	require.NotEmpty(t, state.CurrentUser.UUID)
	require.Equal(t, auth.RouteDashboard, f.navigator.Current())
	require.Zero(t, f.api.refreshCalls.Load())

	last, ok := f.notifier.Last()
	require.True(t, ok)
	require.Equal(t, auth.LevelSuccess, last.Level)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t, credentials.NewInMemoryStore())

	err := f.client.Auth.Login(context.Background(), apimodel.SignIn{Email: "a@b.com", Password: "Wrong1234"})
	require.ErrorIs(t, err, auth.ErrLoginFailed)
	require.Equal(t, http.StatusUnauthorized, request.StatusCode(err))
	require.False(t, f.client.Session.IsAuthenticated())
	require.Zero(t, f.api.refreshCalls.Load())

	last, ok := f.notifier.Last()
	require.True(t, ok)
	require.Equal(t, "invalid credentials", last.Message)
}

func TestExpiredAccessTokenIsRefreshed(t *testing.T) {
	f := newFixture(t, credentials.NewInMemoryStore())
	f.loginExpired(t)
	before := f.client.Session.Tokens()
	calls := f.api.refreshCalls.Load()

	user, err := f.client.Auth.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "a@b.com", user.Email)

	require.Equal(t, calls+1, f.api.refreshCalls.Load())
	after := f.client.Session.Tokens()
	require.NotEqual(t, before.AccessToken, after.AccessToken)
	require.NotEqual(t, before.RefreshToken, after.RefreshToken)

	// The refreshed token is used as is from now on.
	_, err = f.client.Auth.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, calls+1, f.api.refreshCalls.Load())
}

func TestConcurrentRequestsShareOneRefresh(t *testing.T) {
	const callers = 6

	f := newFixture(t, credentials.NewInMemoryStore())
	f.loginExpired(t)
	calls := f.api.refreshCalls.Load()
	succeeded := f.refreshes(metrics.RefreshSucceeded)

	f.api.hold.Store(true)
	paths := make([]string, callers)
	for i := range paths {
		paths[i] = "/me"
	}

	type result struct {
		responses []*request.Response
		err       error
	}
	done := make(chan result, 1)
	go func() {
		responses, err := f.client.GetAll(context.Background(), paths...)
		done <- result{responses, err}
	}()

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(f.client.Metrics.RefreshWaiters) == callers-1
	}, 5*time.Second, 5*time.Millisecond)
	f.api.releaseRefresh()

	res := <-done
	require.NoError(t, res.err)
	require.Len(t, res.responses, callers)
	for _, resp := range res.responses {
		var body apimodel.UserResponse
		require.NoError(t, resp.Decode(&body))
		require.Equal(t, "a@b.com", body.Email)
	}

	require.Equal(t, calls+1, f.api.refreshCalls.Load())
	require.Equal(t, succeeded+1, f.refreshes(metrics.RefreshSucceeded))
	require.True(t, f.client.Session.IsAuthenticated())
}

func TestRevokedRefreshTokenEndsSession(t *testing.T) {
	f := newFixture(t, credentials.NewInMemoryStore())
	f.loginExpired(t)

	// Rotate the pair behind the client's back so its refresh token is spent.
	body, err := json.Marshal(apimodel.RefreshTokenRequest{Token: f.client.Session.Tokens().RefreshToken})
	require.NoError(t, err)
	resp, err := http.Post(f.api.url+"/refresh", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = f.client.Auth.Me(context.Background())
	var respErr *request.ResponseError
	require.ErrorAs(t, err, &respErr)
	require.Equal(t, http.StatusUnauthorized, respErr.Status)
	require.Equal(t, "token expired", respErr.Message())

	require.False(t, f.client.Session.IsAuthenticated())
	require.True(t, f.client.Session.Tokens().IsEmpty())
	require.Equal(t, auth.RouteLogin, f.navigator.Current())
	require.Equal(t, float64(1), f.refreshes(metrics.RefreshFailed))

	last, ok := f.notifier.Last()
	require.True(t, ok)
	require.Equal(t, "Session expired", last.Title)
}

func TestSessionSurvivesRestart(t *testing.T) {
	store := credentials.NewFileStore(filepath.Join(t.TempDir(), credentials.DefaultFileName))
	f := newFixture(t, store)
	require.NoError(t, f.client.Auth.Login(context.Background(), adminCreds))

	restarted, err := client.New(context.Background(), apiConfig{url: f.api.url}, store, client.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	require.True(t, restarted.Session.IsAuthenticated())
	require.Equal(t, f.client.Session.CurrentUser(), restarted.Session.CurrentUser())

	user, err := restarted.Auth.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "a@b.com", user.Email)

	restarted.Auth.Logout(context.Background())
	again, err := client.New(context.Background(), apiConfig{url: f.api.url}, store, client.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	require.False(t, again.Session.IsAuthenticated())
}

func TestGetAllWaitsForEveryPath(t *testing.T) {
	f := newFixture(t, credentials.NewInMemoryStore())
	require.NoError(t, f.client.Auth.Login(context.Background(), adminCreds))

	responses, err := f.client.GetAll(context.Background(), slowPath, missingPath, "/me")
	require.Error(t, err)
	require.Equal(t, http.StatusNotFound, request.StatusCode(err))
	require.Contains(t, err.Error(), "GET "+missingPath)

	require.Len(t, responses, 3)
	require.Nil(t, responses[1])
	for _, i := range []int{0, 2} {
		require.NotNil(t, responses[i], "path %d", i)
		require.Equal(t, http.StatusOK, responses[i].Status)
		var body apimodel.UserResponse
		require.NoError(t, responses[i].Decode(&body))
		require.Equal(t, "a@b.com", body.Email)
	}
}
