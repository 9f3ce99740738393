package config // package config loads application configuration from environment variables

import (
	"log"     // log warns about unsafe development defaults
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses duration values
)

// DefaultJWTSecret is the development-only signing secret. It is a
// deliberate, documented weakness: any deployment that keeps it makes
// every identity token forgeable. Load warns loudly when it is in use.
const DefaultJWTSecret = "devsecret"

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Every variable has a development default
// so the server starts with nothing but a local MySQL and scorer; all
// of them must be overridden in production.
type Config struct {
	Env           string        // application environment (e.g. "dev", "prod")
	Port          string        // HTTP port to listen on
	DBUser        string        // database username
	DBPass        string        // database password (optional)
	DBHost        string        // database host address
	DBPort        string        // database port number
	DBName        string        // database name
	JWTSecret     string        // secret used to sign identity tokens
	OracleURL     string        // base URL of the external scoring service
	OracleTimeout time.Duration // bound on a single scoring call
	BcryptCost    int           // bcrypt cost for password hashing
}

// Load reads configuration values from environment variables, applying
// development defaults for anything unset.
func Load() Config {
	cfg := Config{
		Env:           getenv("APP_ENV", "dev"),
		Port:          getenv("APP_PORT", "4000"),
		DBUser:        getenv("DB_USER", "root"),
		DBPass:        os.Getenv("DB_PASS"), // empty allowed
		DBHost:        getenv("DB_HOST", "localhost"),
		DBPort:        getenv("DB_PORT", "3306"),
		DBName:        getenv("DB_NAME", "churn"),
		JWTSecret:     getenv("JWT_SECRET", DefaultJWTSecret),
		OracleURL:     getenv("ORACLE_URL", "http://localhost:8000"),
		OracleTimeout: envDur("ORACLE_TIMEOUT", 30*time.Second),
		BcryptCost:    envInt("BCRYPT_COST", 10),
	}
	if cfg.JWTSecret == DefaultJWTSecret && cfg.Env != "dev" {
		log.Printf("WARNING: JWT_SECRET is the development default; identity tokens are forgeable")
	}
	return cfg
}

// getenv returns the value of an environment variable or a default when
// the variable is unset or empty.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt is like getenv but converts the value to an integer, falling
// back to the default on parse failure.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

// envDur is like getenv but parses the value as a time.Duration.
func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}

// envBool parses common truthy/falsy spellings, falling back to the
// default for anything unrecognized.
func envBool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return def
}
