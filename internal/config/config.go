package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time expresses the session durations
)

// Config holds all runtime configuration values.  Each field
// corresponds to an environment variable.  The types reflect how the
// values are used in the application: strings for identifiers and
// secrets, ints for costs and TTL counts, durations for the session
// lifecycle windows.
type Config struct {
	Env            string        // application environment (e.g. "dev", "prod")
	Port           string        // HTTP port to listen on
	DBUser         string        // database username
	DBPass         string        // database password (optional)
	DBHost         string        // database host address
	DBPort         string        // database port number
	DBName         string        // database name
	JWTSecret      string        // secret used to sign JWTs
	AccessTTLMin   int           // access token time‑to‑live in minutes
	RefreshTTLDays int           // refresh token time‑to‑live in days
	BcryptCost     int           // bcrypt cost for password hashing
	SessionTimeout time.Duration // absolute session lifetime (SESSION_TIMEOUT_MIN)
	TokenRefresh   time.Duration // proactive token refresh interval (TOKEN_REFRESH_MIN)
	CatalogPath    string        // optional scholarship catalog override file
}

// Load reads configuration values from environment variables and
// returns a Config.  Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
//
// The session windows default to the portal's 30/25 minute split.
// Their relative ordering is a correctness invariant, not a tunable:
// the refresh interval must be strictly shorter than the session
// timeout so a refresh attempt always precedes expiry.  Load refuses
// to start otherwise.
func Load() Config {
	cfg := Config{
		Env:            must("APP_ENV"),                   // environment (dev/test/prod)
		Port:           must("APP_PORT"),                  // port to bind the HTTP server
		DBUser:         must("DB_USER"),                   // database user
		DBPass:         os.Getenv("DB_PASS"),              // database password (empty allowed)
		DBHost:         must("DB_HOST"),                   // database host
		DBPort:         must("DB_PORT"),                   // database port
		DBName:         must("DB_NAME"),                   // database name
		JWTSecret:      must("JWT_SECRET"),                // secret used for signing JWTs
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),   // TTL for access tokens in minutes
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"), // TTL for refresh tokens in days
		BcryptCost:     mustInt("BCRYPT_COST"),            // bcrypt cost factor
		SessionTimeout: minutes("SESSION_TIMEOUT_MIN", 30),
		TokenRefresh:   minutes("TOKEN_REFRESH_MIN", 25),
		CatalogPath:    os.Getenv("CATALOG_PATH"), // empty -> embedded catalog
	}
	if cfg.TokenRefresh >= cfg.SessionTimeout {
		log.Fatalf("TOKEN_REFRESH_MIN (%s) must be shorter than SESSION_TIMEOUT_MIN (%s)",
			cfg.TokenRefresh, cfg.SessionTimeout)
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If
// the variable is unset or empty, the application logs a fatal error
// and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an
// integer.  If conversion fails, the application logs a fatal error
// and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// minutes reads an optional integer env var expressed in minutes,
// falling back to def when unset or invalid.
func minutes(key string, def int) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(def) * time.Minute
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Fatalf("invalid minutes for %s: %q", key, v)
	}
	return time.Duration(n) * time.Minute
}
