package config

type Server struct{}

var _ ServerConfig = Server{}

func (Server) GetPort() string {
	return portValue(GetEnv("PORT", "8080"))
}

func (Server) GetAdminEmail() string {
	return GetEnv("ADMIN_EMAIL", "admin@example.com")
}

// GetAdminPassword has no default outside DEV; the server refuses to seed without one.
func (Server) GetAdminPassword() string {
	if (EnvVars{}).GetEnv() == "DEV" {
		return GetEnv("ADMIN_PASSWORD", "Secret123")
	}
	return GetEnv("ADMIN_PASSWORD", "")
}

func (Server) GetAdminName() string {
	return GetEnv("ADMIN_NAME", "Administrator")
}

func (Server) GetRefreshRepoBackend() string {
	return GetEnv("REFRESH_REPO_BACKEND", StoreBackendMemory)
}
