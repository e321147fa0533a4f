// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings for the server.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr string
	// DBPath is the path to the SQLite database file.
	DBPath string
	// Environment selects logging behavior, "development" or "production".
	Environment string
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present; real environment
// variables take precedence over it.
func Load() Config {
	godotenv.Load()

	return Config{
		Addr:        getEnv("CARD_INV_ADDR", ":8000"),
		DBPath:      getEnv("CARD_INV_DB_PATH", "card_inventory.db"),
		Environment: getEnv("CARD_INV_ENV", "development"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
