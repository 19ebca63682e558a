package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-admin-client/internal/config"
	"github.com/jrsteele09/go-admin-client/token"
	"github.com/jrsteele09/go-admin-client/token/refresh"
	"github.com/jrsteele09/go-admin-client/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Repos holds all repository dependencies of the Server
type Repos struct {
	Users         users.UserRepo // Repository for user data
	RefreshTokens refresh.Repo   // Repository for issued refresh tokens
}

// Server is the development backend API: sign-in, refresh and profile.
type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config
	repos  Repos
	tokens *token.Manager
	log    zerolog.Logger
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.log = logger
	}
}

func New(config config.Config, repos Repos, opts ...Option) (*Server, error) {
	if repos.Users == nil {
		return nil, fmt.Errorf("[Server New] Users repo is required")
	}
	if repos.RefreshTokens == nil {
		return nil, fmt.Errorf("[Server New] RefreshTokens repo is required")
	}

	s := &Server{
		env:    config.GetEnv(),
		mux:    http.NewServeMux(),
		config: config,
		repos:  repos,
		tokens: token.New(config, repos.RefreshTokens, repos.Users),
		log:    log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Bootstrap: ensure the admin user exists
	if err := s.InitialiseSystem(context.Background()); err != nil {
		return nil, fmt.Errorf("[Server New] Failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	displayMethod := methodColor(method).paint(fmt.Sprintf(" %-7s", method))
	s.log.Info().Msgf("[%-19s] %s", displayMethod, path)
}
