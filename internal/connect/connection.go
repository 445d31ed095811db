package connect

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joshua-takyi/loopcard/internal/config"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	SupabaseClient *supabase.Client
	MongoDBClient  *mongo.Client
	Cld            *cloudinary.Cloudinary
)

// supabase init
func InitSupabase(cfg *config.Config) (*supabase.Client, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Supabase: %w", err)
	}
	SupabaseClient = client
	return client, nil
}

func Disconnect() {
	SupabaseClient = nil
}

// mongo init

// MongoDBConnect substitutes MONGODB_PASSWORD into a "<password>" placeholder
// in the URI when one is present.
func MongoDBConnect(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	fullURI := cfg.MongoDBURI
	if cfg.MongoDBPassword != "" {
		fullURI = strings.Replace(fullURI, "<password>", cfg.MongoDBPassword, 1)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(fullURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	MongoDBClient = client
	return client, nil
}

func MongoDBDisconnect() error {
	if MongoDBClient == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := MongoDBClient.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %w", err)
	}
	MongoDBClient = nil
	return nil
}

// CloudinaryCredentials reads CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and
// CLOUDINARY_API_SECRET, falling back to CLOUDINARY_URL.
func CloudinaryCredentials() (*cloudinary.Cloudinary, error) {
	name := os.Getenv("CLOUDINARY_CLOUD_NAME")
	if name == "" {
		cld, err := cloudinary.New()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
		}
		Cld = cld
		return cld, nil
	}
	cld, err := cloudinary.NewFromParams(name, os.Getenv("CLOUDINARY_API_KEY"), os.Getenv("CLOUDINARY_API_SECRET"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	Cld = cld
	return cld, nil
}
