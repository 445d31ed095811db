package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joshua-takyi/loopcard/internal/assets"
	"github.com/joshua-takyi/loopcard/internal/config"
	"github.com/joshua-takyi/loopcard/internal/helpers"
	"github.com/joshua-takyi/loopcard/internal/models"
	"github.com/joshua-takyi/loopcard/internal/services"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *slog.Logger
	Cloudinary *cloudinary.Cloudinary
	// Database clients
	SupabaseClient *supabase.Client
	MongoDBClient  *mongo.Client
	Mongo          *models.MongodbRepo
	Postgres       *models.PostgresCardRepo
	Tokens         *helpers.SupabaseTokenValidator

	UserService      *services.UserService
	CardService      *services.CardService
	WizardService    *services.WizardService
	AnalyticsService *services.AnalyticsService
}

// NewContainer creates a new dependency injection container
func NewContainer(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	cld *cloudinary.Cloudinary,
	supabaseClient *supabase.Client,
	mongoDBClient *mongo.Client,
) (*Container, error) {
	// Initialize repositories
	supa := models.SupabaseNewRepo(supabaseClient, cfg.SupabaseURL, cfg.SupabaseAnonKey)
	mdb := models.MongodbNewRepo(mongoDBClient, cfg.MongoDBDatabase)

	c := &Container{
		Config:         cfg,
		Logger:         logger,
		Cloudinary:     cld,
		SupabaseClient: supabaseClient,
		MongoDBClient:  mongoDBClient,
		Mongo:          mdb,
	}

	var cards models.CardRepo = supa
	if cfg.CardStore == "postgres" {
		pg, err := models.NewPostgresCardRepo(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		c.Postgres = pg
		cards = pg
	}

	var blobs models.BlobStore = models.NewSupabaseBlobStore(supabaseClient)
	if cfg.StorageDriver == "cloudinary" {
		if cld == nil {
			return nil, fmt.Errorf("STORAGE_DRIVER=cloudinary but Cloudinary is not configured")
		}
		blobs = models.NewCloudinaryBlobStore(cld)
	}

	tokens, err := helpers.NewTokenValidator(ctx, cfg.SupabaseURL, cfg.SupabaseJWTSecret, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Tokens = tokens

	publisher := assets.NewPublisher(blobs, cfg.AvatarBucket, cfg.QRBucket, cfg.QRSize)

	c.UserService = services.NewUserService(supa, supa, tokens, logger)
	c.WizardService = services.NewWizardService(mdb, cfg.PublicBaseURL, cfg.SlugMaxLength, cfg.AvatarWidth)
	c.CardService = services.NewCardService(cards, mdb, publisher, services.CardOptions{
		PublicBaseURL: cfg.PublicBaseURL,
		Mode:          services.CardMode(cfg.CardMode),
		SlugMaxLength: cfg.SlugMaxLength,
		AvatarWidth:   cfg.AvatarWidth,
		QRSize:        cfg.QRSize,
	}, logger)
	c.AnalyticsService = services.NewAnalyticsService(mdb, cards)

	return c, nil
}

// Close releases clients owned by the container.
func (c *Container) Close() {
	if c.Tokens != nil {
		c.Tokens.Close()
	}
	if c.Postgres != nil {
		c.Postgres.Close()
	}
}
