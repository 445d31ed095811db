package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CardViewsColName        = "card_views"
	CardInteractionsColName = "card_interactions"

	InteractionLinkClick   = "link_click"
	InteractionDwell       = "dwell"
	InteractionSaveContact = "save_contact"
	InteractionShare       = "share"
)

var (
	ViewDedupeWindow = time.Hour
	ViewRetention    = 30 * 24 * time.Hour
)

type CardView struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CardID    string             `bson:"card_id" json:"card_id" validate:"required"`
	OwnerID   string             `bson:"owner_id" json:"owner_id" validate:"required"`
	SessionID string             `bson:"session_id" json:"session_id" validate:"required"`
	UserAgent string             `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	Referrer  string             `bson:"referrer,omitempty" json:"referrer,omitempty"`
	ViewedAt  time.Time          `bson:"viewed_at" json:"viewed_at"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`
}

type Interaction struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CardID       string             `bson:"card_id" json:"card_id" validate:"required"`
	OwnerID      string             `bson:"owner_id" json:"owner_id" validate:"required"`
	SessionID    string             `bson:"session_id" json:"session_id"`
	Type         string             `bson:"type" json:"type" validate:"required,oneof=link_click dwell save_contact share"`
	Label        string             `bson:"label,omitempty" json:"label,omitempty"`
	URL          string             `bson:"url,omitempty" json:"url,omitempty"`
	DwellSeconds float64            `bson:"dwell_seconds,omitempty" json:"dwell_seconds,omitempty" validate:"gte=0,lte=86400"`
	At           time.Time          `bson:"at" json:"at"`
	ExpiresAt    time.Time          `bson:"expires_at" json:"expires_at"`
}

// AnalyticsFilter scopes a report to an owner and optionally one card.
type AnalyticsFilter struct {
	OwnerID string
	CardID  string
	Since   time.Time
}

type AnalyticsTotals struct {
	TotalViews      int64   `json:"total_views"`
	UniqueSessions  int64   `json:"unique_sessions"`
	AvgDwellSeconds float64 `json:"avg_dwell_seconds"`
}

type DailyViews struct {
	Date  string `json:"date"`
	Views int64  `json:"views"`
}

type InteractionCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

type TopLink struct {
	Label  string `json:"label"`
	URL    string `json:"url"`
	Clicks int64  `json:"clicks"`
}

type CardAnalytics struct {
	Totals             AnalyticsTotals    `json:"totals"`
	ViewsPerDay        []DailyViews       `json:"views_per_day"`
	InteractionsByType []InteractionCount `json:"interactions_by_type"`
	TopLinks           []TopLink          `json:"top_links"`
}

type AnalyticsRepo interface {
	TrackCardView(ctx context.Context, view *CardView) (bool, error)
	TrackInteraction(ctx context.Context, in *Interaction) error
	GetCardAnalytics(ctx context.Context, filter AnalyticsFilter) (*CardAnalytics, error)
}

var _ AnalyticsRepo = (*MongodbRepo)(nil)

func (mdb *MongodbRepo) ensureViewIndexes(ctx context.Context) error {
	views, err := mdb.GetCollection(ctx, CardViewsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}
	_, err = views.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_at_ttl"),
		},
		{
			Keys: bson.D{
				{Key: "card_id", Value: 1},
				{Key: "session_id", Value: 1},
				{Key: "viewed_at", Value: -1},
			},
			Options: options.Index().SetName("card_session_viewed_idx"),
		},
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "viewed_at", Value: -1},
			},
			Options: options.Index().SetName("owner_viewed_at_idx"),
		},
	})
	if err != nil {
		return fmt.Errorf("error creating view indexes: %w", err)
	}

	interactions, err := mdb.GetCollection(ctx, CardInteractionsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}
	_, err = interactions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_at_ttl"),
		},
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "card_id", Value: 1},
				{Key: "at", Value: -1},
			},
			Options: options.Index().SetName("owner_card_at_idx"),
		},
	})
	if err != nil {
		return fmt.Errorf("error creating interaction indexes: %w", err)
	}
	return nil
}

// TrackCardView records a public page view unless the same session viewed the
// card within the dedupe window. It reports whether a view was stored.
func (mdb *MongodbRepo) TrackCardView(ctx context.Context, view *CardView) (bool, error) {
	col, err := mdb.GetCollection(ctx, CardViewsColName)
	if err != nil {
		return false, fmt.Errorf("error getting collection: %w", err)
	}

	now := time.Now()
	err = col.FindOne(ctx, bson.M{
		"card_id":    view.CardID,
		"session_id": view.SessionID,
		"viewed_at":  bson.M{"$gte": now.Add(-ViewDedupeWindow)},
	}).Err()
	if err == nil {
		return false, nil
	}
	if err != mongo.ErrNoDocuments {
		return false, fmt.Errorf("error checking recent views: %w", err)
	}

	view.ViewedAt = now
	view.ExpiresAt = now.Add(ViewRetention)
	if view.ID.IsZero() {
		view.ID = primitive.NewObjectID()
	}

	if _, err := col.InsertOne(ctx, view); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("error inserting card view: %w", err)
	}
	return true, nil
}

func (mdb *MongodbRepo) TrackInteraction(ctx context.Context, in *Interaction) error {
	col, err := mdb.GetCollection(ctx, CardInteractionsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}
	now := time.Now()
	in.At = now
	in.ExpiresAt = now.Add(ViewRetention)
	if in.ID.IsZero() {
		in.ID = primitive.NewObjectID()
	}
	if _, err := col.InsertOne(ctx, in); err != nil {
		return fmt.Errorf("error inserting interaction: %w", err)
	}
	return nil
}

func (f AnalyticsFilter) match(timeField string) bson.M {
	m := bson.M{
		"owner_id": f.OwnerID,
		timeField:  bson.M{"$gte": f.Since},
	}
	if f.CardID != "" {
		m["card_id"] = f.CardID
	}
	return m
}

// GetCardAnalytics aggregates views and interactions since filter.Since.
// Days without views are not included in ViewsPerDay.
func (mdb *MongodbRepo) GetCardAnalytics(ctx context.Context, filter AnalyticsFilter) (*CardAnalytics, error) {
	views, err := mdb.GetCollection(ctx, CardViewsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}
	interactions, err := mdb.GetCollection(ctx, CardInteractionsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	out := &CardAnalytics{
		ViewsPerDay:        []DailyViews{},
		InteractionsByType: []InteractionCount{},
		TopLinks:           []TopLink{},
	}

	viewMatch := filter.match("viewed_at")
	total, err := views.CountDocuments(ctx, viewMatch)
	if err != nil {
		return nil, fmt.Errorf("error counting views: %w", err)
	}
	out.Totals.TotalViews = total

	var unique []struct {
		Count int64 `bson:"unique_sessions"`
	}
	if err := aggregate(ctx, views, mongo.Pipeline{
		{{Key: "$match", Value: viewMatch}},
		{{Key: "$group", Value: bson.M{"_id": "$session_id"}}},
		{{Key: "$count", Value: "unique_sessions"}},
	}, &unique); err != nil {
		return nil, fmt.Errorf("error aggregating unique sessions: %w", err)
	}
	if len(unique) > 0 {
		out.Totals.UniqueSessions = unique[0].Count
	}

	var perDay []struct {
		Date  string `bson:"_id"`
		Views int64  `bson:"views"`
	}
	if err := aggregate(ctx, views, mongo.Pipeline{
		{{Key: "$match", Value: viewMatch}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$viewed_at"}},
			"views": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}, &perDay); err != nil {
		return nil, fmt.Errorf("error aggregating daily views: %w", err)
	}
	for _, d := range perDay {
		out.ViewsPerDay = append(out.ViewsPerDay, DailyViews{Date: d.Date, Views: d.Views})
	}

	interactionMatch := filter.match("at")

	var dwell []struct {
		Avg float64 `bson:"avg"`
	}
	dwellMatch := bson.M{"type": InteractionDwell}
	for k, v := range interactionMatch {
		dwellMatch[k] = v
	}
	if err := aggregate(ctx, interactions, mongo.Pipeline{
		{{Key: "$match", Value: dwellMatch}},
		{{Key: "$group", Value: bson.M{"_id": nil, "avg": bson.M{"$avg": "$dwell_seconds"}}}},
	}, &dwell); err != nil {
		return nil, fmt.Errorf("error aggregating dwell time: %w", err)
	}
	if len(dwell) > 0 {
		out.Totals.AvgDwellSeconds = dwell[0].Avg
	}

	var byType []struct {
		Type  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := aggregate(ctx, interactions, mongo.Pipeline{
		{{Key: "$match", Value: interactionMatch}},
		{{Key: "$group", Value: bson.M{"_id": "$type", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}, &byType); err != nil {
		return nil, fmt.Errorf("error aggregating interactions: %w", err)
	}
	for _, t := range byType {
		out.InteractionsByType = append(out.InteractionsByType, InteractionCount{Type: t.Type, Count: t.Count})
	}

	clickMatch := bson.M{"type": InteractionLinkClick}
	for k, v := range interactionMatch {
		clickMatch[k] = v
	}
	var top []struct {
		ID struct {
			Label string `bson:"label"`
			URL   string `bson:"url"`
		} `bson:"_id"`
		Clicks int64 `bson:"clicks"`
	}
	if err := aggregate(ctx, interactions, mongo.Pipeline{
		{{Key: "$match", Value: clickMatch}},
		{{Key: "$group", Value: bson.M{
			"_id":    bson.M{"label": "$label", "url": "$url"},
			"clicks": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "clicks", Value: -1}}}},
		{{Key: "$limit", Value: 5}},
	}, &top); err != nil {
		return nil, fmt.Errorf("error aggregating top links: %w", err)
	}
	for _, l := range top {
		out.TopLinks = append(out.TopLinks, TopLink{Label: l.ID.Label, URL: l.ID.URL, Clicks: l.Clicks})
	}

	return out, nil
}

func aggregate(ctx context.Context, col *mongo.Collection, pipeline mongo.Pipeline, into interface{}) error {
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, into)
}
