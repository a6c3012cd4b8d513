// Package config loads the service configuration from the environment.
// A .env file in the working directory is read first when present, then
// individual variables override it. Every value has a usable default so the
// binary starts with no configuration at all.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every tunable of the service.
//
// Env:
//
//	WARPGEN_ADDR, WARPGEN_DB, WARPGEN_DEBUG
//	WARPGEN_REG_URL, WARPGEN_REG_TIMEOUT, WARPGEN_PROBE_TIMEOUT
//	WEBHOOK_URL, WEBHOOK_READ_URL, WEBHOOK_CUTOFF_DATE
//	WARPGEN_JWT_SECRET, WARPGEN_ADMIN_USER,
//	WARPGEN_ADMIN_PASSWORD or WARPGEN_ADMIN_PASSWORD_HASH
type Config struct {
	Addr   string // listen address, host:port
	DBPath string // sqlite database file
	Debug  bool   // verbose request logging and gin debug mode

	RegURL       string        // registration service base URL, empty for the built-in default
	RegTimeout   time.Duration // registration request timeout, 0 for the built-in default
	ProbeTimeout time.Duration // default UDP probe timeout

	WebhookURL     string // delivery target, empty disables the webhook
	WebhookReadURL string // explicit read-back URL, empty derives one when possible
	WebhookCutoff  string // last tracked day, YYYY-MM-DD

	JWTSecret         string // token signing secret, empty generates one per process
	AdminUser         string
	AdminPassword     string // plain text, hashed at startup when no hash is set
	AdminPasswordHash string // bcrypt hash, takes precedence over the plain password
}

// Load reads the configuration from .env and the process environment.
func Load() *Config {
	loadDotEnv()

	return &Config{
		Addr:   getenv("WARPGEN_ADDR", ":8080"),
		DBPath: getenv("WARPGEN_DB", "warpgen.db"),
		Debug:  getbool("WARPGEN_DEBUG", false),

		RegURL:       os.Getenv("WARPGEN_REG_URL"),
		RegTimeout:   getduration("WARPGEN_REG_TIMEOUT", 0),
		ProbeTimeout: getduration("WARPGEN_PROBE_TIMEOUT", time.Second),

		WebhookURL:     os.Getenv("WEBHOOK_URL"),
		WebhookReadURL: os.Getenv("WEBHOOK_READ_URL"),
		WebhookCutoff:  os.Getenv("WEBHOOK_CUTOFF_DATE"),

		JWTSecret:         os.Getenv("WARPGEN_JWT_SECRET"),
		AdminUser:         getenv("WARPGEN_ADMIN_USER", "admin"),
		AdminPassword:     os.Getenv("WARPGEN_ADMIN_PASSWORD"),
		AdminPasswordHash: os.Getenv("WARPGEN_ADMIN_PASSWORD_HASH"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getbool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getduration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		godotenv.Load(".env")
	}
}
