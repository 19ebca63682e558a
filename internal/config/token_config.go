package config

import "time"

type Tokens struct{}

var _ TokenConfig = Tokens{}

func (Tokens) GetTokenSecret() string {
	return GetEnv("TOKEN_SECRET", "dev-secret-change-me")
}

func (Tokens) GetAccessTokenExpiry() time.Duration {
	return durationEnv("ACCESS_TOKEN_EXPIRY", 15*time.Minute)
}

func (Tokens) GetRefreshTokenExpiry() time.Duration {
	return durationEnv("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour) // 7 days
}

func durationEnv(envVar string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(GetEnv(envVar, ""))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
