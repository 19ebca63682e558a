package config

import "time"

type Config interface {
	EnvConfig
	APIConfig
	StoreConfig
	ServerConfig
	TokenConfig
	CorsConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetDataFolder() string
}

// APIConfig describes the remote backend API the client talks to.
type APIConfig interface {
	GetAPIURL() string
	GetSignInPath() string
	GetRefreshPath() string
	GetMePath() string
}

// StoreConfig selects where the credential store keeps the token pair and user record.
type StoreConfig interface {
	GetStoreBackend() string
	GetRedisAddr() string
	GetRedisPrefix() string
}

// ServerConfig is only used by the development API server.
type ServerConfig interface {
	GetPort() string
	GetAdminEmail() string
	GetAdminPassword() string
	GetAdminName() string
	GetRefreshRepoBackend() string
}

type TokenConfig interface {
	GetTokenSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	API
	Store
	Server
	Tokens
	Cors
}

func New() Config {
	return mainConfig{}
}
