package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv           string
	Port              string
	JWTSecret         string
	AdminPasswordHash string
	Endpoints         EndpointConfig
	Reconcile         ReconcileConfig
}

// EndpointConfig holds one remote URL per operation category. An unset URL
// is allowed here; the gateway fails the affected category fast with a
// configuration error instead of attempting the call.
type EndpointConfig struct {
	Songs    string
	Setlists string
	Items    string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		NodeEnv:           getEnv("NODE_ENV", "development"),
		Port:              getEnv("PORT", "3001"),
		JWTSecret:         jwtSecret,
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		Endpoints: EndpointConfig{
			Songs:    os.Getenv("SONGS_URL"),
			Setlists: os.Getenv("SETLISTS_URL"),
			Items:    os.Getenv("ITEMS_URL"),
		},
		Reconcile: LoadReconcileConfig(),
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
