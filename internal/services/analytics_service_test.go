package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/loopcard/internal/models"
)

func TestClampDays(t *testing.T) {
	cases := map[int]int{0: 1, -3: 1, 1: 1, 30: 30, 90: 90, 365: 90}
	for in, want := range cases {
		if got := ClampDays(in); got != want {
			t.Errorf("ClampDays(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestFillDays(t *testing.T) {
	since := time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC)
	got := FillDays([]models.DailyViews{{Date: "2024-03-31", Views: 4}}, since, 3)
	want := []models.DailyViews{
		{Date: "2024-03-30", Views: 0},
		{Date: "2024-03-31", Views: 4},
		{Date: "2024-04-01", Views: 0},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("day %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestReportScopesAndOwnership(t *testing.T) {
	cards := newMemCards()
	owner := uuid.New()
	card, _ := cards.InsertCard(context.Background(), &models.Card{UserID: owner, Slug: "acme", FullName: "A"})

	repo := &memAnalytics{report: &models.CardAnalytics{
		Totals: models.AnalyticsTotals{TotalViews: 3},
	}}
	svc := NewAnalyticsService(repo, cards)
	svc.now = func() time.Time { return time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC) }

	r, err := svc.Report(context.Background(), owner, card.ID.String(), DefaultAnalyticsDays)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(r.ViewsPerDay) != 7 || r.ViewsPerDay[6].Date != "2024-05-10" || r.ViewsPerDay[0].Date != "2024-05-04" {
		t.Fatalf("views per day = %+v", r.ViewsPerDay)
	}
	if repo.lastFilter.OwnerID != owner.String() || repo.lastFilter.CardID != card.ID.String() {
		t.Fatalf("filter = %+v", repo.lastFilter)
	}

	if _, err := svc.Report(context.Background(), uuid.New(), card.ID.String(), 7); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("got %v, want ErrForbidden", err)
	}
	if _, err := svc.Report(context.Background(), owner, "not-a-uuid", 7); err == nil {
		t.Fatal("expected invalid id error")
	}
}

func TestTrackViewAndInteraction(t *testing.T) {
	repo := &memAnalytics{}
	svc := NewAnalyticsService(repo, newMemCards())
	card := &models.Card{ID: uuid.New(), UserID: uuid.New()}

	tracked, err := svc.TrackView(context.Background(), card, "sess-1", "test-agent", "")
	if err != nil || !tracked {
		t.Fatalf("first view: %v %v", tracked, err)
	}
	tracked, _ = svc.TrackView(context.Background(), card, "sess-1", "test-agent", "")
	if tracked {
		t.Fatal("repeat view from the same session should be ignored")
	}
	if _, err := svc.TrackView(context.Background(), card, "", "", ""); err == nil {
		t.Fatal("session id is required")
	}

	in := &models.Interaction{Type: models.InteractionLinkClick, Label: "Website", URL: "https://a.test", DwellSeconds: 9}
	if err := svc.TrackInteraction(context.Background(), card, in); err != nil {
		t.Fatalf("interaction: %v", err)
	}
	if repo.interactions[0].OwnerID != card.UserID.String() || repo.interactions[0].DwellSeconds != 0 {
		t.Fatalf("stored = %+v", repo.interactions[0])
	}
	if err := svc.TrackInteraction(context.Background(), card, &models.Interaction{Type: "hover"}); err == nil {
		t.Fatal("unknown interaction type should be rejected")
	}
}
