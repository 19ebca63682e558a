package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/jrsteele09/go-admin-client/apimodel"
	"github.com/jrsteele09/go-admin-client/internal/errors"
	"github.com/jrsteele09/go-admin-client/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"
)

// TokenSource supplies the tokens to attach. It is read immediately before each
// request is sent, never when the request is built.
type TokenSource interface {
	Tokens() session.Tokens
}

// Engine sends a single HTTP request to the backend API and classifies the result.
type Engine struct {
	baseURL *url.URL
	client  *http.Client
	tokens  TokenSource
	log     zerolog.Logger
}

type Option func(*Engine)

// WithHTTPClient replaces the default client, which has a cookie jar and no timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Engine) {
		e.client = client
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = logger
	}
}

// NewEngine creates an Engine resolving relative paths against baseURL.
func NewEngine(baseURL string, tokens TokenSource, opts ...Option) (*Engine, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "[request NewEngine] parse %q", baseURL)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("[request NewEngine] base url %q is not absolute: %w", baseURL, errors.ErrInvalidURL)
	}

	// Cookies set by the API are sent back on later calls, like a browser
	// fetch with credentials: "include".
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errors.Wrapf(err, "[request NewEngine] cookie jar")
	}

	e := &Engine{
		baseURL: base,
		client:  &http.Client{Jar: jar},
		tokens:  tokens,
		log:     log.Logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With().Str("component", "request").Logger()
	return e, nil
}

// Resolve turns a path such as "/me" into a URL under the base URL. Absolute URLs
// are returned unchanged.
func (e *Engine) Resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%q: %w", ref, errors.ErrInvalidURL)
	}
	if u.IsAbs() {
		return u.String(), nil
	}

	resolved := *e.baseURL
	resolved.Path = path.Join("/", e.baseURL.Path, u.Path)
	if strings.HasSuffix(u.Path, "/") && !strings.HasSuffix(resolved.Path, "/") {
		resolved.Path += "/"
	}
	resolved.RawPath = ""
	resolved.RawQuery = u.RawQuery
	resolved.Fragment = ""
	return resolved.String(), nil
}

// Send issues the request described by opts. It returns a *TransportError when no
// response arrived, a *DecodeError when a JSON body is malformed and a
// *ResponseError for any status outside [200,300).
func (e *Engine) Send(ctx context.Context, ref string, opts Options) (*Response, error) {
	target, err := e.Resolve(ref)
	if err != nil {
		return nil, err
	}
	method := opts.method()

	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.Wrapf(err, "create request %s %s", method, target)
	}
	for k, values := range opts.Header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if opts.Token && e.tokens != nil {
		e.tokens.Tokens().OAuth2().SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		e.log.Debug().Err(err).Str("method", method).Str("url", target).Msg("Request failed")
		return nil, &TransportError{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: target, Err: fmt.Errorf("read body: %w", err)}
	}

	e.log.Debug().
		Str("method", method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Request completed")

	contentType := resp.Header.Get("Content-Type")
	isJSON := isJSONContentType(contentType)
	if isJSON && len(raw) > 0 {
		if err := json.Unmarshal(raw, new(json.RawMessage)); err != nil {
			return nil, &DecodeError{Status: resp.StatusCode, ContentType: contentType, Raw: raw, Err: err}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respErr := &ResponseError{Status: resp.StatusCode, Response: resp, Raw: raw}
		if isJSON && len(raw) > 0 {
			var errBody apimodel.ErrorResponse
			if err := json.Unmarshal(raw, &errBody); err == nil {
				respErr.Body = &errBody
			}
		}
		return nil, respErr
	}

	return &Response{
		Status:   resp.StatusCode,
		Header:   resp.Header,
		Response: resp,
		body:     raw,
		isJSON:   isJSON,
	}, nil
}

// SendJSON is Send with JSON content negotiation headers.
func (e *Engine) SendJSON(ctx context.Context, ref string, opts Options) (*Response, error) {
	return e.Send(ctx, ref, JSON(opts))
}
