package config

const (
	apiURLVar      = "API_URL"
	signInPathVar  = "API_SIGN_IN_PATH"
	refreshPathVar = "API_REFRESH_PATH"
	mePathVar      = "API_ME_PATH"
)

type API struct{}

var _ APIConfig = API{}

// GetAPIURL returns the base URL every relative request path is resolved against.
func (API) GetAPIURL() string {
	return GetEnv(apiURLVar, "http://localhost:8080/backend")
}

func (API) GetSignInPath() string {
	return GetEnv(signInPathVar, "/sign-in")
}

func (API) GetRefreshPath() string {
	return GetEnv(refreshPathVar, "/refresh")
}

func (API) GetMePath() string {
	return GetEnv(mePathVar, "/me")
}
