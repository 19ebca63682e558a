package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	appNameVar   = "APP_NAME"
	envVar       = "ENV"
	logLevelVar  = "LOG_LEVEL"
	folderEnvVar = "FOLDER"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Backend Admin")
}

func (EnvVars) GetEnv() string {
	return strings.ToUpper(GetEnv(envVar, "DEV"))
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// portValue normalises "8080" and ":8080" to ":8080".
func portValue(port string) string {
	if port == "" || port[0] == ':' {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
