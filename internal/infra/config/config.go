package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// Backend names accepted by CACHE_BACKEND.
const (
	BackendMemory    = "memory"
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
)

// Config holds the whole environment configuration for the service.
type Config struct {
	Port string

	// CachePrefix prefixes every storage key ("{prefix}-{ns}_{principal}").
	CachePrefix string

	// CacheBackend selects the key-value store: memory | postgres | firestore.
	CacheBackend string

	// TrustProxy enables X-Forwarded-For resolution for anonymous principals.
	// Only enable behind a proxy that overwrites the header.
	TrustProxy bool

	AllowedOrigin string

	FirestoreProjectID       string
	FirestoreCredentialsFile string

	// FirebaseProjectID enables ID-token verification when non-empty.
	FirebaseProjectID string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// DBPasswordSecret is a Secret Manager version resource name
	// (projects/.../secrets/.../versions/latest). Takes precedence over
	// DB_PASSWORD when set.
	DBPasswordSecret string
}

// Load reads the environment and returns the configuration.
func Load() *Config {
	defaultProject := os.Getenv("GCP_PROJECT_ID")

	return &Config{
		Port:         getenvDefault("PORT", "8080"),
		CachePrefix:  getenvDefault("CACHE_PREFIX", "mallcart"),
		CacheBackend: getenvDefault("CACHE_BACKEND", BackendMemory),
		TrustProxy:   strings.EqualFold(os.Getenv("TRUST_PROXY"), "true"),

		AllowedOrigin: getenvDefault("ALLOWED_ORIGIN", "*"),

		FirestoreProjectID:       getenvDefault("FIRESTORE_PROJECT_ID", defaultProject),
		FirestoreCredentialsFile: os.Getenv("FIRESTORE_CREDENTIALS_FILE"),
		FirebaseProjectID:        getenvDefault("FIREBASE_PROJECT_ID", defaultProject),

		DBHost:           getenvDefault("DB_HOST", "localhost"),
		DBPort:           getenvDefault("DB_PORT", "5432"),
		DBUser:           getenvDefault("DB_USER", "postgres"),
		DBPassword:       os.Getenv("DB_PASSWORD"),
		DBName:           getenvDefault("DB_NAME", "mallcart"),
		DBPasswordSecret: os.Getenv("DB_PASSWORD_SECRET"),
	}
}

// ResolveDBPassword returns the database password, fetching it from Secret
// Manager when DB_PASSWORD_SECRET is set.
func (c *Config) ResolveDBPassword(ctx context.Context) (string, error) {
	if strings.TrimSpace(c.DBPasswordSecret) == "" {
		return c.DBPassword, nil
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("config: create secretmanager client: %w", err)
	}
	defer client.Close()

	res, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: c.DBPasswordSecret,
	})
	if err != nil {
		return "", fmt.Errorf("config: access secret %s: %w", c.DBPasswordSecret, err)
	}
	return strings.TrimSpace(string(res.GetPayload().GetData())), nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
