package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type Config struct {
	Port          string `env:"PORT,default=8585"`
	DBDriver      string `env:"DB_DRIVER,default=sqlite"`
	DBDSN         string `env:"DB_DSN,default=./shop.db"`
	CookieDomain  string `env:"COOKIE_DOMAIN"`
	CookieSecure  bool   `env:"COOKIE_SECURE,default=false"`
	UploadDir     string `env:"UPLOAD_DIR,default=static/uploads"`
	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	SeedCatalog   bool   `env:"SEED_CATALOG,default=true"`
	LogLevel      string `env:"LOG_LEVEL,default=debug"`

	RawCSRFKey    string `env:"CSRF_KEY"`
	RawSessionKey string `env:"SESSION_KEY"`

	CSRFKey    []byte
	SessionKey []byte
}

// LoadConfig reads an optional .env file, then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	// CSRF Key (critical for security)
	cfg.CSRFKey = decodeKey("CSRF_KEY", cfg.RawCSRFKey)
	// Session Key (critical for security)
	cfg.SessionKey = decodeKey("SESSION_KEY", cfg.RawSessionKey)

	// Make sure port is valid
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		slog.Error("Invalid PORT environment variable. Falling back to default.", "PORT", cfg.Port)
		cfg.Port = "8585"
	}

	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "postgres" {
		return nil, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", cfg.DBDriver)
	}

	if (cfg.AdminUsername == "") != (cfg.AdminPassword == "") {
		slog.Warn("ADMIN_USERNAME and ADMIN_PASSWORD must be set together; skipping admin provisioning")
		cfg.AdminUsername, cfg.AdminPassword = "", ""
	}

	return cfg, nil
}

// decodeKey returns the base64 key from raw, or a random development key
// (with a warning) when raw is missing, malformed or shorter than 32 bytes.
func decodeKey(name, raw string) []byte {
	if raw == "" {
		slog.Warn(name + " environment variable not set. Generating a random key for development. This key will change on each restart. PLEASE SET " + name + " IN PRODUCTION!")
		return generateRandomBytes(32)
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(decoded) < 32 {
		slog.Warn(name + " is invalid or too short (min 32 bytes). Generating a random key for development. PLEASE SET A SECURE " + name + " IN PRODUCTION!")
		return generateRandomBytes(32)
	}
	return decoded
}

// generateRandomBytes generates a random byte slice of specified length
// Uses crypto/rand for secure random numbers.
func generateRandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the platform is broken; sessions would be forgeable.
		panic(fmt.Sprintf("config: reading random bytes: %v", err))
	}
	return b
}
