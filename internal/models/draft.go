package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/loopcard/internal/wizard"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const DraftColName = "wizard_drafts"

var DraftTTL = 7 * 24 * time.Hour

type DraftRepo interface {
	SaveDraft(ctx context.Context, draft *wizard.Draft) error
	GetDraft(ctx context.Context, userID uuid.UUID) (*wizard.Draft, error)
	DeleteDraft(ctx context.Context, userID uuid.UUID) error
}

var _ DraftRepo = (*MongodbRepo)(nil)

type draftDocument struct {
	wizard.Draft `bson:",inline"`
	UserKey      string    `bson:"user_key"`
	ExpiresAt    time.Time `bson:"expires_at"`
}

func (mdb *MongodbRepo) ensureDraftIndexes(ctx context.Context) error {
	col, err := mdb.GetCollection(ctx, DraftColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}
	_, err = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("user_key_unique"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_at_ttl"),
		},
	})
	if err != nil {
		return fmt.Errorf("error creating draft indexes: %w", err)
	}
	return nil
}

// SaveDraft replaces the user's draft, creating it on first save. Every save
// pushes the expiry forward.
func (mdb *MongodbRepo) SaveDraft(ctx context.Context, draft *wizard.Draft) error {
	col, err := mdb.GetCollection(ctx, DraftColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}
	doc := draftDocument{
		Draft:     *draft,
		UserKey:   draft.UserID.String(),
		ExpiresAt: time.Now().Add(DraftTTL),
	}
	_, err = col.ReplaceOne(ctx, bson.M{"user_key": doc.UserKey}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("error saving draft: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) GetDraft(ctx context.Context, userID uuid.UUID) (*wizard.Draft, error) {
	col, err := mdb.GetCollection(ctx, DraftColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}
	var doc draftDocument
	err = col.FindOne(ctx, bson.M{"user_key": userID.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("error finding draft: %w", err)
	}
	d := doc.Draft
	d.UserID = userID
	return &d, nil
}

func (mdb *MongodbRepo) DeleteDraft(ctx context.Context, userID uuid.UUID) error {
	col, err := mdb.GetCollection(ctx, DraftColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}
	if _, err := col.DeleteOne(ctx, bson.M{"user_key": userID.String()}); err != nil {
		return fmt.Errorf("error deleting draft: %w", err)
	}
	return nil
}
