package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/loopcard/internal/models"
)

const (
	DefaultAnalyticsDays = 7
	MaxAnalyticsDays     = 90
)

type AnalyticsService struct {
	analytics models.AnalyticsRepo
	cards     models.CardRepo
	now       func() time.Time
}

func NewAnalyticsService(analytics models.AnalyticsRepo, cards models.CardRepo) *AnalyticsService {
	return &AnalyticsService{
		analytics: analytics,
		cards:     cards,
		now:       time.Now,
	}
}

// ClampDays bounds a requested reporting window to 1..MaxAnalyticsDays.
// Callers apply DefaultAnalyticsDays when no window was requested.
func ClampDays(days int) int {
	switch {
	case days < 1:
		return 1
	case days > MaxAnalyticsDays:
		return MaxAnalyticsDays
	}
	return days
}

// FillDays returns one entry per UTC day in [since, since+days), using the
// counts present in got and zero elsewhere.
func FillDays(got []models.DailyViews, since time.Time, days int) []models.DailyViews {
	counts := make(map[string]int64, len(got))
	for _, d := range got {
		counts[d.Date] = d.Views
	}
	out := make([]models.DailyViews, 0, days)
	for i := 0; i < days; i++ {
		date := since.AddDate(0, 0, i).Format("2006-01-02")
		out = append(out, models.DailyViews{Date: date, Views: counts[date]})
	}
	return out
}

// Report summarises views and interactions for all of the user's cards, or
// for one card when cardID is set.
func (as *AnalyticsService) Report(ctx context.Context, userID uuid.UUID, cardID string, days int) (*models.CardAnalytics, error) {
	days = ClampDays(days)

	if cardID != "" {
		id, err := uuid.Parse(cardID)
		if err != nil {
			return nil, fmt.Errorf("invalid card ID format")
		}
		card, err := as.cards.GetCardByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if card.UserID != userID {
			return nil, models.ErrForbidden
		}
	}

	today := as.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(days - 1))

	report, err := as.analytics.GetCardAnalytics(ctx, models.AnalyticsFilter{
		OwnerID: userID.String(),
		CardID:  cardID,
		Since:   since,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load analytics: %w", err)
	}
	report.ViewsPerDay = FillDays(report.ViewsPerDay, since, days)
	return report, nil
}

// TrackView records a visit to a public card page.
func (as *AnalyticsService) TrackView(ctx context.Context, card *models.Card, sessionID, userAgent, referrer string) (bool, error) {
	view := &models.CardView{
		CardID:    card.ID.String(),
		OwnerID:   card.UserID.String(),
		SessionID: sessionID,
		UserAgent: userAgent,
		Referrer:  referrer,
	}
	if err := models.Validate.Struct(view); err != nil {
		return false, fmt.Errorf("invalid view: %w", err)
	}
	return as.analytics.TrackCardView(ctx, view)
}

// TrackInteraction records a tap, share or dwell ping on a public card.
func (as *AnalyticsService) TrackInteraction(ctx context.Context, card *models.Card, in *models.Interaction) error {
	in.CardID = card.ID.String()
	in.OwnerID = card.UserID.String()
	if err := models.Validate.Struct(in); err != nil {
		return fmt.Errorf("invalid interaction: %w", err)
	}
	if in.Type != models.InteractionDwell {
		in.DwellSeconds = 0
	}
	return as.analytics.TrackInteraction(ctx, in)
}
