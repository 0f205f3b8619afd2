package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env            string
	HTTPPort       string
	APIBaseURL     string
	APITimeout     time.Duration
	RateRPS        int
	SessionTTL     time.Duration
	AllowedOrigins []string
}

func Load() Config {
	cfg := Config{
		Env:            get("APP_ENV", "dev"),
		HTTPPort:       get("HTTP_PORT", "3000"),
		APIBaseURL:     strings.TrimRight(get("API_BASE_URL", "http://localhost:8000"), "/"),
		APITimeout:     duration("API_TIMEOUT", 10*time.Second),
		RateRPS:        integer("RATE_RPS", 100),
		SessionTTL:     duration("SESSION_TTL", 30*time.Minute),
		AllowedOrigins: list("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
	return cfg
}

func get(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func integer(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return def
}

func list(key string, def []string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
