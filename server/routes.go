package server

import "net/http"

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteHandler("POST "+RouteSignIn, ChainMiddleware(s.SignInHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteSignIn, ChainMiddleware(preflightHandler, s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteRefresh, ChainMiddleware(preflightHandler, s.APIMiddleware()...))

	// USER (require a valid access token)
	s.RegisterRouteHandler("GET "+RouteMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("OPTIONS "+RouteMe, ChainMiddleware(preflightHandler, s.APIMiddleware()...))

	s.RegisterRouteHandler("/", ChainMiddleware(s.NotFoundHandler(), s.APIMiddleware()...))
}

// preflightHandler answers OPTIONS without an Origin; CorsMiddleware answers real preflights.
func preflightHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
