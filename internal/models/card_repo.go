package models

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
)

type CardRepo interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
	UpsertCardByOwner(ctx context.Context, card *Card) (*Card, error)
	InsertCard(ctx context.Context, card *Card) (*Card, error)
	GetCardByOwner(ctx context.Context, userID uuid.UUID) (*Card, error)
	ListCardsByOwner(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*Card, int, error)
	GetCardByID(ctx context.Context, id uuid.UUID) (*Card, error)
	GetCardBySlug(ctx context.Context, slug string) (*Card, error)
	UpdateCard(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*Card, error)
}

var _ CardRepo = (*SupabaseRepo)(nil)

const cardColumns = "id,user_id,slug,full_name,business_name,role,tagline,phone,whatsapp,email,website,linkedin,twitter,instagram,facebook,avatar_url,qr_url,is_published,created_at,updated_at"

func decodeCards(raw []byte) ([]*Card, error) {
	var cards []*Card
	if err := json.Unmarshal(raw, &cards); err != nil {
		return nil, fmt.Errorf("failed to unmarshal card rows: %w", err)
	}
	return cards, nil
}

func firstCard(raw []byte) (*Card, error) {
	cards, err := decodeCards(raw)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, ErrCardNotFound
	}
	return cards[0], nil
}

func (su *SupabaseRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, count, err := su.supabaseClient.From(CardsTable).
		Select("id", "exact", true).
		Eq("slug", slug).
		Execute()
	if err != nil {
		return false, fmt.Errorf("failed to check slug %q: %w", slug, err)
	}
	return count > 0, nil
}

// UpsertCardByOwner writes the owner's single card, overwriting it when one
// already exists for the same user_id.
func (su *SupabaseRepo) UpsertCardByOwner(ctx context.Context, card *Card) (*Card, error) {
	client, err := su.clientFor(ctx)
	if err != nil {
		return nil, err
	}
	raw, _, err := client.From(CardsTable).
		Upsert(card.Row(), "user_id", "representation", "").
		Execute()
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to upsert card: %w", err)
	}
	return firstCard(raw)
}

func (su *SupabaseRepo) InsertCard(ctx context.Context, card *Card) (*Card, error) {
	client, err := su.clientFor(ctx)
	if err != nil {
		return nil, err
	}
	raw, _, err := client.From(CardsTable).
		Insert(card.Row(), false, "", "representation", "").
		Execute()
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to insert card: %w", err)
	}
	return firstCard(raw)
}

func (su *SupabaseRepo) GetCardByOwner(ctx context.Context, userID uuid.UUID) (*Card, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("invalid UUID")
	}
	client, err := su.clientFor(ctx)
	if err != nil {
		return nil, err
	}
	raw, _, err := client.From(CardsTable).
		Select(cardColumns, "", false).
		Eq("user_id", userID.String()).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get card for owner: %w", err)
	}
	return firstCard(raw)
}

func (su *SupabaseRepo) ListCardsByOwner(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*Card, int, error) {
	client, err := su.clientFor(ctx)
	if err != nil {
		return nil, 0, err
	}
	raw, count, err := client.From(CardsTable).
		Select(cardColumns, "exact", false).
		Eq("user_id", userID.String()).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Range(offset, offset+limit-1, "").
		Execute()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cards: %w", err)
	}
	cards, err := decodeCards(raw)
	if err != nil {
		return nil, 0, err
	}
	if cards == nil {
		cards = []*Card{}
	}
	return cards, int(count), nil
}

func (su *SupabaseRepo) GetCardByID(ctx context.Context, id uuid.UUID) (*Card, error) {
	if id == uuid.Nil {
		return nil, ErrCardNotFound
	}
	client, err := su.clientFor(ctx)
	if err != nil {
		return nil, err
	}
	raw, status, err := client.From(CardsTable).
		Select(cardColumns, "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		if status != 0 {
			return nil, fmt.Errorf("postgrest error: status=%d body=%s err=%w", status, string(raw), err)
		}
		return nil, fmt.Errorf("failed to get card by ID: %w", err)
	}
	return firstCard(raw)
}

// GetCardBySlug reads with the service client; visibility is decided by the caller.
func (su *SupabaseRepo) GetCardBySlug(ctx context.Context, slug string) (*Card, error) {
	raw, _, err := su.supabaseClient.From(CardsTable).
		Select(cardColumns, "", false).
		Eq("slug", slug).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get card by slug: %w", err)
	}
	return firstCard(raw)
}

func (su *SupabaseRepo) UpdateCard(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*Card, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	client, err := su.clientFor(ctx)
	if err != nil {
		return nil, err
	}
	raw, _, err := client.From(CardsTable).
		Update(fields, "representation", "").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to update card: %w", err)
	}
	return firstCard(raw)
}
