package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	DatabasePath string

	// Image storage. ImageStore is "disk" or "s3".
	ImageStore string
	MediaRoot  string // base path for the disk store

	S3Region   string
	S3Bucket   string
	S3Endpoint string // custom endpoint, e.g. a MinIO instance
	S3User     string
	S3Password string
}

// Load loads configuration from a .env file (if present) and environment
// variables, falling back to defaults.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:   port,
		DatabasePath: getEnv("DATABASE_PATH", "./recipevault.db"),
		ImageStore:   getEnv("IMAGE_STORE", "disk"),
		MediaRoot:    getEnv("MEDIA_ROOT", "./media"),
		S3Region:     getEnv("S3_REGION", "us-east-1"),
		S3Bucket:     getEnv("S3_BUCKET", "recipevault-media"),
		S3Endpoint:   getEnv("S3_ENDPOINT", ""),
		S3User:       getEnv("S3_ACCESS_KEY", ""),
		S3Password:   getEnv("S3_SECRET_KEY", ""),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
