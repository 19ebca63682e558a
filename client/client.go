package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-admin-client/auth"
	"github.com/jrsteele09/go-admin-client/credentials"
	"github.com/jrsteele09/go-admin-client/internal/config"
	"github.com/jrsteele09/go-admin-client/internal/errors"
	"github.com/jrsteele09/go-admin-client/metrics"
	"github.com/jrsteele09/go-admin-client/refresh"
	"github.com/jrsteele09/go-admin-client/request"
	"github.com/jrsteele09/go-admin-client/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Client is the assembled request pipeline: session, engine, refresh coordinator
// and the login workflows on top of them.
type Client struct {
	Session     *session.Session
	Engine      *request.Engine
	Coordinator *refresh.Coordinator
	Auth        *auth.Service
	Metrics     *metrics.Metrics
}

type options struct {
	log        zerolog.Logger
	registerer prometheus.Registerer
	httpClient *http.Client
	notifier   auth.Notifier
	navigator  auth.Navigator
}

type Option func(*options)

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.log = logger
	}
}

// WithRegisterer registers the pipeline metrics with reg instead of a private registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

func WithNotifier(n auth.Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

func WithNavigator(n auth.Navigator) Option {
	return func(o *options) {
		o.navigator = n
	}
}

// New restores the session from store and wires the pipeline against the API in cfg.
// A refresh failure that ends the session is reported through the auth service.
func New(ctx context.Context, cfg config.APIConfig, store credentials.Store, opts ...Option) (*Client, error) {
	o := options{
		log:        log.Logger,
		registerer: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	sess, err := session.Load(ctx, store, session.WithLogger(o.log))
	if err != nil {
		return nil, fmt.Errorf("[client New] load session: %w", err)
	}

	engineOpts := []request.Option{request.WithLogger(o.log)}
	if o.httpClient != nil {
		engineOpts = append(engineOpts, request.WithHTTPClient(o.httpClient))
	}
	engine, err := request.NewEngine(cfg.GetAPIURL(), sess, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("[client New] %w", err)
	}

	c := &Client{
		Session: sess,
		Engine:  engine,
		Metrics: metrics.New(o.registerer),
	}
	c.Coordinator = refresh.New(engine, sess, cfg.GetRefreshPath(),
		refresh.WithMetrics(c.Metrics),
		refresh.WithLogger(o.log),
		refresh.WithSessionExpiredHook(func(err error) { c.Auth.SessionExpired(err) }),
	)

	authOpts := []auth.Option{
		auth.WithLogger(o.log),
		auth.WithPaths(cfg.GetSignInPath(), cfg.GetMePath()),
	}
	if o.notifier != nil {
		authOpts = append(authOpts, auth.WithNotifier(o.notifier))
	}
	if o.navigator != nil {
		authOpts = append(authOpts, auth.WithNavigator(o.navigator))
	}
	c.Auth = auth.NewService(engine, c.Coordinator, sess, authOpts...)
	return c, nil
}

// GetAll issues an authenticated GET for every path concurrently and waits for all
// of them. Responses are returned in the order of paths, nil where that request
// failed; the error joins every per-path failure.
func (c *Client) GetAll(ctx context.Context, paths ...string) ([]*request.Response, error) {
	responses := make([]*request.Response, len(paths))
	errs := make([]error, len(paths))

	var g errgroup.Group
	for i, p := range paths {
		g.Go(func() error {
			resp, err := c.Coordinator.DoJSON(ctx, p, request.Options{Token: true})
			if err != nil {
				errs[i] = fmt.Errorf("GET %s: %w", p, err)
				return nil
			}
			responses[i] = resp
			return nil
		})
	}
	_ = g.Wait()
	return responses, errors.Join(errs...)
}
