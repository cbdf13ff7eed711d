package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	DataDir               string
	StallName             string
	InternalTag           string
	Timezone              string
	ReportCacheTTLSeconds int
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttl, err := strconv.Atoi(getEnv("REPORT_CACHE_TTL_SECONDS", "30"))
	if err != nil || ttl < 1 {
		ttl = 30
	}

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		DataDir:               getEnv("DATA_DIR", "data"),
		StallName:             getEnv("STALL_NAME", "Pisang Goreng ZZ"),
		InternalTag:           strings.TrimSpace(getEnv("INTERNAL_TAG", "ZZ")),
		Timezone:              getEnv("TIMEZONE", "Asia/Kuala_Lumpur"),
		ReportCacheTTLSeconds: ttl,
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Location resolves the configured timezone, falling back to the host
// local zone when the name does not load.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
