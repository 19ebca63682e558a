package config

const (
	StoreBackendMemory = "memory"
	StoreBackendFile   = "file"
	StoreBackendRedis  = "redis"
)

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetStoreBackend() string {
	return GetEnv("STORE_BACKEND", StoreBackendFile)
}

func (Store) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Store) GetRedisPrefix() string {
	return GetEnv("REDIS_PREFIX", "admin-client:")
}
