package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joshua-takyi/loopcard/internal/slug"
)

type Config struct {
	Port              string
	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseJWTSecret string
	MongoDBURI        string
	MongoDBPassword   string
	MongoDBDatabase   string
	DatabaseURL       string
	Environment       string
	LogLevel          string

	// CardStore selects the cards backend: "postgrest" or "postgres".
	CardStore string
	// StorageDriver selects the blob backend: "supabase" or "cloudinary".
	StorageDriver string
	AvatarBucket  string
	QRBucket      string

	PublicBaseURL  string
	FrontendURL    string
	CardMode       string
	AllowedOrigins []string

	AvatarWidth   int
	QRSize        int
	SlugMaxLength int
	DraftTTL      time.Duration
	ViewRetention time.Duration
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8080"),
		SupabaseURL:       os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:   os.Getenv("SUPABASE_URL_ANON_KEY"),
		SupabaseJWTSecret: os.Getenv("SUPABASE_JWT_SECRET"),
		MongoDBURI:        os.Getenv("MONGODB_URI"),
		MongoDBPassword:   os.Getenv("MONGODB_PASSWORD"),
		MongoDBDatabase:   getEnvWithDefault("MONGODB_DATABASE", "loopcard"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		Environment:       getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		CardStore:         strings.ToLower(getEnvWithDefault("CARD_STORE", "postgrest")),
		StorageDriver:     strings.ToLower(getEnvWithDefault("STORAGE_DRIVER", "supabase")),
		AvatarBucket:      getEnvWithDefault("AVATAR_BUCKET", "avatars"),
		QRBucket:          getEnvWithDefault("QR_BUCKET", "qrcodes"),
		PublicBaseURL:     strings.TrimRight(getEnvWithDefault("PUBLIC_BASE_URL", "https://loopcard.app"), "/"),
		FrontendURL:       getEnvWithDefault("FRONTEND_URL", "http://localhost:3000"),
		CardMode:          strings.ToLower(getEnvWithDefault("CARD_MODE", "single")),
		AllowedOrigins:    parseCSV(getEnvWithDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	var err error
	if cfg.AvatarWidth, err = getIntWithDefault("AVATAR_WIDTH", 512); err != nil {
		return nil, err
	}
	if cfg.QRSize, err = getIntWithDefault("QR_SIZE", 512); err != nil {
		return nil, err
	}
	if cfg.SlugMaxLength, err = getIntWithDefault("SLUG_MAX_LENGTH", slug.DefaultMaxLength); err != nil {
		return nil, err
	}
	if cfg.SlugMaxLength > slug.MaxLength {
		return nil, fmt.Errorf("SLUG_MAX_LENGTH must be at most %d, got %d", slug.MaxLength, cfg.SlugMaxLength)
	}
	draftHours, err := getIntWithDefault("DRAFT_TTL_HOURS", 7*24)
	if err != nil {
		return nil, err
	}
	cfg.DraftTTL = time.Duration(draftHours) * time.Hour
	retentionDays, err := getIntWithDefault("VIEW_RETENTION_DAYS", 30)
	if err != nil {
		return nil, err
	}
	cfg.ViewRetention = time.Duration(retentionDays) * 24 * time.Hour

	// Validate required fields
	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseAnonKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL_ANON_KEY is required")
	}
	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	switch cfg.CardStore {
	case "postgrest":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when CARD_STORE=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown CARD_STORE %q", cfg.CardStore)
	}
	if cfg.StorageDriver != "supabase" && cfg.StorageDriver != "cloudinary" {
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.CardMode != "single" && cfg.CardMode != "multi" {
		return nil, fmt.Errorf("unknown CARD_MODE %q", cfg.CardMode)
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

func parseCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
