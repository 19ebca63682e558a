package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// RouteBase is the prefix of every API route, the client's API_URL points at it
	RouteBase = "/backend"

	// Auth Routes
	RouteSignIn  = RouteBase + "/sign-in"
	RouteRefresh = RouteBase + "/refresh"

	// User Routes
	RouteMe = RouteBase + "/me"
)
