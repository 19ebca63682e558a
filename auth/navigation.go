package auth

import "sync"

const (
	RouteLogin     = "/login"
	RouteDashboard = "/"
)

// Navigator receives the route the user should be moved to after an auth action.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) {
	f(route)
}

// RouteRecorder remembers the routes it was sent to.
type RouteRecorder struct {
	mu     sync.Mutex
	routes []string
}

func (r *RouteRecorder) Navigate(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

// Current is the last route navigated to, empty when there was none.
func (r *RouteRecorder) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return ""
	}
	return r.routes[len(r.routes)-1]
}

func (r *RouteRecorder) Routes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.routes...)
}
