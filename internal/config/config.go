package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr       string
	CORSOrigin string

	// Local cache
	RedisURL string

	// Archive repository: "github" pushes through the contents API,
	// "local" commits into a git directory on disk.
	ArchiveMode  string
	GitHubRepo   string
	GitHubToken  string
	GitHubBranch string
	ArchiveDir   string

	// Sync engine
	SyncDebounce time.Duration

	// Admin auth
	AdminPassHash string
	SessionSecret string
	SessionTTL    time.Duration

	// Search
	MeiliURL       string
	MeiliMasterKey string

	// Media object storage - empty endpoint disables uploads
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MediaBaseURL   string
}

func Load() Config {
	return Config{
		Addr:       getenv("API_ADDR", ":8788"),
		CORSOrigin: getenv("CLUB_CORS_ORIGIN", "*"),
		RedisURL:   getenv("REDIS_URL", "redis://localhost:6379/0"),

		ArchiveMode:  getenv("CLUB_ARCHIVE_MODE", "local"),
		GitHubRepo:   getenv("CLUB_GITHUB_REPO", ""),
		GitHubToken:  getenv("CLUB_GITHUB_TOKEN", ""),
		GitHubBranch: getenv("CLUB_GITHUB_BRANCH", "main"),
		ArchiveDir:   getenv("CLUB_ARCHIVE_DIR", "./data/archive"),

		SyncDebounce: time.Duration(getenvInt("CLUB_SYNC_DEBOUNCE_SECONDS", 10)) * time.Second,

		// Empty hash disables admin login entirely.
		AdminPassHash: getenv("CLUB_ADMIN_PASS_HASH", ""),
		SessionSecret: getenv("CLUB_SESSION_SECRET", "aviation-dev-secret"),
		SessionTTL:    time.Duration(getenvInt("CLUB_SESSION_TTL_SECONDS", 43200)) * time.Second,

		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),

		MinioEndpoint:  getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "aviation-media"),
		MinioUseSSL:    getenvBool("MINIO_USE_SSL", false),
		MediaBaseURL:   getenv("CLUB_MEDIA_BASE_URL", ""),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
