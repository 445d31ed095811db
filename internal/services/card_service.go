package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/loopcard/internal/assets"
	"github.com/joshua-takyi/loopcard/internal/models"
	"github.com/joshua-takyi/loopcard/internal/slug"
	"github.com/joshua-takyi/loopcard/internal/wizard"
)

type CardMode string

const (
	// CardModeSingle keeps one card per user, overwritten on each commit.
	CardModeSingle CardMode = "single"
	// CardModeMulti creates a new card on every commit.
	CardModeMulti CardMode = "multi"

	slugWriteAttempts = 3

	// MaxPageSize bounds card list pages.
	MaxPageSize = 100
)

type CardOptions struct {
	PublicBaseURL string
	Mode          CardMode
	SlugMaxLength int
	AvatarWidth   int
	QRSize        int
}

type CardService struct {
	cards     models.CardRepo
	drafts    models.DraftRepo
	publisher *assets.Publisher
	opts      CardOptions
	logger    *slog.Logger
}

func NewCardService(cards models.CardRepo, drafts models.DraftRepo, publisher *assets.Publisher, opts CardOptions, logger *slog.Logger) *CardService {
	if opts.Mode == "" {
		opts.Mode = CardModeSingle
	}
	if opts.SlugMaxLength <= 0 {
		opts.SlugMaxLength = slug.DefaultMaxLength
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CardService{
		cards:     cards,
		drafts:    drafts,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
	}
}

type CommitResult struct {
	Card      *models.Card `json:"card"`
	PublicURL string       `json:"public_url"`
}

type ShareInfo struct {
	URL     string `json:"url"`
	QRURL   string `json:"qr_url"`
	Message string `json:"message"`
}

func (cs *CardService) PublicURL(s string) string {
	return wizard.PublicURL(cs.opts.PublicBaseURL, s)
}

func (cs *CardService) allocate(ctx context.Context, seed string) (string, error) {
	return slug.NewAllocator(cs.cards.SlugExists, cs.opts.SlugMaxLength).Allocate(ctx, seed)
}

// CommitDraft turns the user's wizard draft into a saved card. The avatar and
// QR code are uploaded before the row is written.
func (cs *CardService) CommitDraft(ctx context.Context, userID uuid.UUID) (*CommitResult, error) {
	draft, err := cs.drafts.GetDraft(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := draft.Ready(); err != nil {
		return nil, err
	}

	var existing *models.Card
	if cs.opts.Mode == CardModeSingle {
		existing, err = cs.cards.GetCardByOwner(ctx, userID)
		if err != nil && !errors.Is(err, models.ErrCardNotFound) {
			return nil, fmt.Errorf("failed to load current card: %w", err)
		}
	}

	now := time.Now()
	card := cardFromDraft(draft)
	card.UserID = userID
	card.IsPublished = true
	card.UpdatedAt = now
	if existing != nil {
		card.ID = existing.ID
		card.CreatedAt = existing.CreatedAt
		card.IsPublished = existing.IsPublished
		card.AvatarURL = existing.AvatarURL
	} else {
		card.CreatedAt = now
	}
	if draft.PhotoURL != "" {
		card.AvatarURL = draft.PhotoURL
	}

	var saved *models.Card
	for attempt := 1; ; attempt++ {
		if existing != nil {
			card.Slug = existing.Slug
		} else {
			card.Slug, err = cs.allocate(ctx, slug.Seed(card.FullName, card.BusinessName))
			if err != nil {
				return nil, fmt.Errorf("failed to allocate slug: %w", err)
			}
		}

		if err := cs.publishAssets(ctx, card, draft.Photo); err != nil {
			return nil, err
		}

		saved, err = cs.persist(ctx, card)
		if err == nil {
			break
		}
		// Another writer took the slug between the probe and the write.
		if errors.Is(err, models.ErrSlugTaken) && existing == nil && attempt < slugWriteAttempts {
			cs.logger.Warn("slug taken at write, reallocating", "slug", card.Slug, "user_id", userID, "attempt", attempt)
			continue
		}
		return nil, err
	}

	if err := cs.drafts.DeleteDraft(ctx, userID); err != nil {
		cs.logger.Warn("failed to delete committed draft", "user_id", userID, "error", err)
	}

	cs.logger.Info("card committed", "user_id", userID, "card_id", saved.ID, "slug", saved.Slug, "mode", cs.opts.Mode)
	return &CommitResult{Card: saved, PublicURL: cs.PublicURL(saved.Slug)}, nil
}

func (cs *CardService) publishAssets(ctx context.Context, card *models.Card, photo []byte) error {
	if len(photo) > 0 {
		url, err := cs.publisher.PublishAvatar(ctx, card.UserID, card.Slug, photo)
		if err != nil {
			return err
		}
		card.AvatarURL = url
	}
	qrURL, err := cs.publisher.PublishQR(ctx, card.UserID, card.Slug, cs.PublicURL(card.Slug))
	if err != nil {
		return err
	}
	card.QRURL = qrURL
	return nil
}

func (cs *CardService) persist(ctx context.Context, card *models.Card) (*models.Card, error) {
	if err := models.Validate.Struct(card); err != nil {
		return nil, fmt.Errorf("invalid card: %w", err)
	}
	if cs.opts.Mode == CardModeMulti {
		return cs.cards.InsertCard(ctx, card)
	}
	return cs.cards.UpsertCardByOwner(ctx, card)
}

func cardFromDraft(d *wizard.Draft) *models.Card {
	return &models.Card{
		FullName:     d.FullName,
		BusinessName: d.BusinessName,
		Role:         d.Role,
		Tagline:      d.Tagline,
		Phone:        d.Phone,
		Whatsapp:     d.Whatsapp,
		Email:        d.Email,
		Website:      d.Website,
		Linkedin:     d.Linkedin,
		Twitter:      d.Twitter,
		Instagram:    d.Instagram,
		Facebook:     d.Facebook,
	}
}

func (cs *CardService) GetMine(ctx context.Context, userID uuid.UUID) (*models.Card, error) {
	return cs.cards.GetCardByOwner(ctx, userID)
}

func (cs *CardService) ListMine(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.Card, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return cs.cards.ListCardsByOwner(ctx, userID, offset, limit)
}

// GetOwned loads a card and checks that userID owns it.
func (cs *CardService) GetOwned(ctx context.Context, userID, cardID uuid.UUID) (*models.Card, error) {
	card, err := cs.cards.GetCardByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.UserID != userID {
		return nil, models.ErrForbidden
	}
	return card, nil
}

// Update overwrites the editable fields present in the patch.
func (cs *CardService) Update(ctx context.Context, userID, cardID uuid.UUID, patch models.CardPatch) (*models.Card, error) {
	if err := models.Validate.Struct(patch); err != nil {
		return nil, fmt.Errorf("invalid card fields: %w", err)
	}
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	if name, ok := fields["full_name"]; ok && name == "" {
		return nil, wizard.ErrNameRequired
	}
	if _, err := cs.GetOwned(ctx, userID, cardID); err != nil {
		return nil, err
	}
	fields["updated_at"] = time.Now()
	return cs.cards.UpdateCard(ctx, cardID, fields)
}

// ReplaceAvatar processes a new photo and points the card at it.
func (cs *CardService) ReplaceAvatar(ctx context.Context, userID, cardID uuid.UUID, photo io.Reader) (*models.Card, error) {
	card, err := cs.GetOwned(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	jpeg, err := assets.ProcessAvatar(photo, cs.opts.AvatarWidth)
	if err != nil {
		return nil, err
	}
	url, err := cs.publisher.PublishAvatar(ctx, userID, card.Slug, jpeg)
	if err != nil {
		return nil, err
	}
	return cs.cards.UpdateCard(ctx, cardID, map[string]interface{}{
		"avatar_url": url,
		"updated_at": time.Now(),
	})
}

// RegenerateSlug assigns a freshly allocated slug and a matching QR code.
func (cs *CardService) RegenerateSlug(ctx context.Context, userID, cardID uuid.UUID) (*CommitResult, error) {
	card, err := cs.GetOwned(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		next, err := cs.allocate(ctx, slug.Seed(card.FullName, card.BusinessName))
		if err != nil {
			return nil, fmt.Errorf("failed to allocate slug: %w", err)
		}
		qrURL, err := cs.publisher.PublishQR(ctx, userID, next, cs.PublicURL(next))
		if err != nil {
			return nil, err
		}
		updated, err := cs.cards.UpdateCard(ctx, cardID, map[string]interface{}{
			"slug":       next,
			"qr_url":     qrURL,
			"updated_at": time.Now(),
		})
		if err == nil {
			cs.logger.Info("slug regenerated", "card_id", cardID, "old", card.Slug, "new", next)
			return &CommitResult{Card: updated, PublicURL: cs.PublicURL(next)}, nil
		}
		if !errors.Is(err, models.ErrSlugTaken) || attempt >= slugWriteAttempts {
			return nil, err
		}
	}
}

func (cs *CardService) SetPublished(ctx context.Context, userID, cardID uuid.UUID, published bool) (*models.Card, error) {
	if _, err := cs.GetOwned(ctx, userID, cardID); err != nil {
		return nil, err
	}
	return cs.cards.UpdateCard(ctx, cardID, map[string]interface{}{
		"is_published": published,
		"updated_at":   time.Now(),
	})
}

func (cs *CardService) Share(ctx context.Context, userID, cardID uuid.UUID) (*ShareInfo, error) {
	card, err := cs.GetOwned(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	url := cs.PublicURL(card.Slug)
	return &ShareInfo{
		URL:     url,
		QRURL:   card.QRURL,
		Message: "My LoopCard: " + url,
	}, nil
}

// QRCode renders the card's QR code on demand.
func (cs *CardService) QRCode(ctx context.Context, userID, cardID uuid.UUID) ([]byte, error) {
	card, err := cs.GetOwned(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	return assets.RenderQR(cs.PublicURL(card.Slug), cs.opts.QRSize)
}

// GetPublic returns a published card. Unpublished cards read as not found.
func (cs *CardService) GetPublic(ctx context.Context, s string) (*models.Card, error) {
	card, err := cs.cards.GetCardBySlug(ctx, s)
	if err != nil {
		return nil, err
	}
	if !card.IsPublished {
		return nil, models.ErrCardNotFound
	}
	return card, nil
}
