package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/jrsteele09/go-admin-client/apimodel"
	"github.com/jrsteele09/go-admin-client/internal/errors"
	"github.com/jrsteele09/go-admin-client/metrics"
	"github.com/jrsteele09/go-admin-client/request"
	"github.com/jrsteele09/go-admin-client/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sender issues one request without any retry logic. *request.Engine implements it.
type Sender interface {
	Send(ctx context.Context, ref string, opts request.Options) (*request.Response, error)
}

// TokenStore is the part of the session the coordinator may touch: it reads the
// tokens, commits a refreshed pair and clears the session when refresh fails.
type TokenStore interface {
	Tokens() session.Tokens
	SetTokens(ctx context.Context, tokens session.Tokens)
	Clear(ctx context.Context)
}

// RefreshError is a failed call to the refresh endpoint. It is reported to the
// session-expired hook and logged; callers always get their own 401 instead.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// call is the pending refresh handle shared by every caller that needs it.
type call struct {
	done chan struct{}
	err  error
}

// Coordinator wraps a Sender with the refresh-on-401 policy. At most one refresh
// call is in flight per Coordinator; every caller that needs a refresh while one
// is running shares its outcome.
type Coordinator struct {
	sender      Sender
	session     TokenStore
	refreshPath string
	metrics     *metrics.Metrics
	onExpired   func(error)
	log         zerolog.Logger

	mu      sync.Mutex
	pending *call // nil while idle
}

type Option func(*Coordinator)

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.log = logger
	}
}

// WithSessionExpiredHook is called after a failed refresh has cleared a session
// that still held tokens, typically to send the user back to the login view.
func WithSessionExpiredHook(hook func(error)) Option {
	return func(c *Coordinator) {
		c.onExpired = hook
	}
}

// New creates a Coordinator. refreshPath is resolved by the sender like any other path.
func New(sender Sender, sess TokenStore, refreshPath string, opts ...Option) *Coordinator {
	c := &Coordinator{
		sender:      sender,
		session:     sess,
		refreshPath: refreshPath,
		log:         log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("component", "refresh").Logger()
	return c
}

// Refreshing reports whether a refresh call is currently in flight.
func (c *Coordinator) Refreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// Do sends the request. While a refresh is in flight the request is held back
// until the refresh settles and is then sent once, whatever the refresh outcome.
// A 401 triggers (or joins) a refresh; after a successful refresh the request is
// retried exactly once and that outcome is returned as is. After a failed refresh
// the session is cleared and the original 401 is returned. A 401 for a request
// sent before the latest refresh settled is retried with the refreshed token
// without another refresh. Other failures are returned immediately and never
// retried.
func (c *Coordinator) Do(ctx context.Context, ref string, opts request.Options) (*request.Response, error) {
	if pending := c.current(); pending != nil {
		c.metrics.IncrementRefreshWaiters()
		if err := wait(ctx, pending); err != nil {
			return nil, err
		}
	}

	var sentToken string
	if opts.Token {
		sentToken = c.session.Tokens().AccessToken
	}
	resp, err := c.sender.Send(ctx, ref, opts)
	if !request.IsUnauthorized(err) {
		c.observe(err, false)
		return resp, err
	}
	return c.refreshAndRetry(ctx, ref, opts, sentToken, err)
}

// DoJSON is Do with JSON content negotiation headers.
func (c *Coordinator) DoJSON(ctx context.Context, ref string, opts request.Options) (*request.Response, error) {
	return c.Do(ctx, ref, request.JSON(opts))
}

func (c *Coordinator) refreshAndRetry(ctx context.Context, ref string, opts request.Options, sentToken string, unauthorized error) (*request.Response, error) {
	pending, leader := c.acquire(sentToken)
	switch {
	case pending == nil:
		// Tokens were refreshed after this request went out; retry with them.
	case leader:
		c.run(ctx, pending)
	default:
		c.metrics.IncrementRefreshWaiters()
		if err := wait(ctx, pending); err != nil {
			return nil, err
		}
	}

	if pending != nil && pending.err != nil {
		c.metrics.ObserveRequest(metrics.OutcomeUnauthorized)
		return nil, unauthorized
	}

	resp, err := c.sender.Send(ctx, ref, opts)
	c.observe(err, true)
	return resp, err
}

func (c *Coordinator) current() *call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// acquire returns the pending handle, creating it when idle. The second result is
// true for the caller that created it and must run the refresh. A nil handle means
// a refresh settled after sentToken was sent and the session already holds a newer
// access token. Refreshed tokens are committed before the handle is cleared, so the
// check under mu cannot miss one.
func (c *Coordinator) acquire(sentToken string) (*call, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		return c.pending, false
	}
	if current := c.session.Tokens().AccessToken; sentToken != "" && current != "" && current != sentToken {
		return nil, false
	}
	c.pending = &call{done: make(chan struct{})}
	return c.pending, true
}

// run performs the refresh and settles the handle. The handle is removed before
// waiters are released so any of them may start a new refresh later on.
func (c *Coordinator) run(ctx context.Context, pending *call) {
	// The outcome is shared, so one caller's cancellation must not abort it.
	err := c.refresh(context.WithoutCancel(ctx))

	c.mu.Lock()
	c.pending = nil
	pending.err = err
	c.mu.Unlock()
	close(pending.done)
}

func (c *Coordinator) refresh(ctx context.Context) error {
	tokens := c.session.Tokens()
	if tokens.RefreshToken == "" {
		c.session.Clear(ctx)
		return &RefreshError{Err: errors.ErrNoRefreshToken}
	}

	err := c.exchange(ctx, tokens.RefreshToken)
	if err == nil {
		c.metrics.ObserveRefresh(metrics.RefreshSucceeded)
		c.log.Debug().Msg("Tokens refreshed")
		return nil
	}

	refreshErr := &RefreshError{Err: err}
	c.metrics.ObserveRefresh(metrics.RefreshFailed)
	c.log.Warn().Err(err).Msg("Token refresh failed, clearing session")
	c.session.Clear(ctx)
	if c.onExpired != nil {
		c.onExpired(refreshErr)
	}
	return refreshErr
}

func (c *Coordinator) exchange(ctx context.Context, refreshToken string) error {
	body, err := json.Marshal(apimodel.RefreshTokenRequest{Token: refreshToken})
	if err != nil {
		return err
	}

	resp, err := c.sender.Send(ctx, c.refreshPath, request.JSON(request.Options{
		Method: http.MethodPost,
		Body:   body,
	}))
	if err != nil {
		return err
	}

	var tokenResp apimodel.TokenResponse
	if err := resp.Decode(&tokenResp); err != nil {
		return errors.Wrapf(err, "decode refresh response")
	}
	if !tokenResp.Complete() {
		return errors.ErrInvalidRefreshToken
	}

	c.session.SetTokens(ctx, session.Tokens{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
	})
	return nil
}

func (c *Coordinator) observe(err error, retried bool) {
	var outcome string
	switch {
	case err == nil && retried:
		outcome = metrics.OutcomeRetried
	case err == nil:
		outcome = metrics.OutcomeSuccess
	case request.IsUnauthorized(err):
		outcome = metrics.OutcomeUnauthorized
	case errors.As(err, new(*request.ResponseError)):
		outcome = metrics.OutcomeResponseError
	case errors.As(err, new(*request.DecodeError)):
		outcome = metrics.OutcomeDecodeError
	default:
		outcome = metrics.OutcomeTransportError
	}
	c.metrics.ObserveRequest(outcome)
}

func wait(ctx context.Context, pending *call) error {
	select {
	case <-pending.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
