package models

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Test to verify partial update behavior
func TestCardPatchFields(t *testing.T) {
	name := "  Ama Mensah "
	empty := ""
	patch := CardPatch{FullName: &name, Tagline: &empty}

	fields := patch.Fields()
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d: %v", len(fields), fields)
	}
	if fields["full_name"] != "Ama Mensah" {
		t.Errorf("full_name was not trimmed: %q", fields["full_name"])
	}
	if v, ok := fields["tagline"]; !ok || v != "" {
		t.Error("explicit empty tagline should be kept so it can be cleared")
	}
	if _, ok := fields["slug"]; ok {
		t.Error("patch must never carry a slug")
	}
}

func TestCardApply(t *testing.T) {
	card := &Card{FullName: "Old", Website: "old.example"}
	now := time.Now()
	card.Apply(map[string]interface{}{
		"full_name":    "New",
		"is_published": true,
		"updated_at":   now,
		"unknown":      "ignored",
	})
	if card.FullName != "New" || !card.IsPublished || !card.UpdatedAt.Equal(now) {
		t.Fatalf("apply did not copy fields: %+v", card)
	}
	if card.Website != "old.example" {
		t.Error("untouched fields should be preserved")
	}
}

func TestCardRowOmitsZeroIdentity(t *testing.T) {
	card := &Card{UserID: uuid.New(), Slug: "ama", FullName: "Ama"}
	row := card.Row()
	if _, ok := row["id"]; ok {
		t.Error("row should not carry a nil id")
	}
	if _, ok := row["created_at"]; ok {
		t.Error("row should not carry a zero created_at")
	}

	card.ID = uuid.New()
	if card.Row()["id"] != card.ID {
		t.Error("row should carry a set id")
	}
}

func TestCardLinks(t *testing.T) {
	card := &Card{
		Phone:    "+233 20 000 0000",
		Whatsapp: "+233 (20) 000-0000",
		Email:    "ama@example.com",
		Website:  "ama.example",
		Linkedin: "https://linkedin.com/in/ama",
	}
	links := card.Links()

	want := map[string]string{
		"phone":    "tel:+233 20 000 0000",
		"whatsapp": "https://wa.me/233200000000",
		"email":    "mailto:ama@example.com",
		"website":  "https://ama.example",
		"linkedin": "https://linkedin.com/in/ama",
	}
	if len(links) != len(want) {
		t.Fatalf("expected %d links, got %d: %+v", len(want), len(links), links)
	}
	for _, l := range links {
		if want[l.Type] != l.URL {
			t.Errorf("%s link = %q, want %q", l.Type, l.URL, want[l.Type])
		}
	}
	if links[0].Type != "phone" {
		t.Errorf("phone should be listed first, got %s", links[0].Type)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("(23505) duplicate key value violates unique constraint \"cards_slug_key\""), true},
		{errors.New("duplicate key value violates unique constraint"), true},
		{errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		if got := isUniqueViolation(tc.err); got != tc.want {
			t.Errorf("isUniqueViolation(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestAccessTokenContext(t *testing.T) {
	ctx := WithAccessToken(t.Context(), "")
	if AccessTokenFrom(ctx) != "" {
		t.Error("empty token should not be stored")
	}
	ctx = WithAccessToken(ctx, "abc")
	if AccessTokenFrom(ctx) != "abc" {
		t.Error("token was not stored")
	}
}

func TestInteractionValidation(t *testing.T) {
	in := &Interaction{CardID: "c", OwnerID: "o", Type: InteractionLinkClick}
	if err := Validate.Struct(in); err != nil {
		t.Fatalf("valid interaction rejected: %v", err)
	}
	in.Type = "hover"
	if err := Validate.Struct(in); err == nil {
		t.Error("unknown interaction type should be rejected")
	}
	in.Type = InteractionDwell
	in.DwellSeconds = -1
	if err := Validate.Struct(in); err == nil {
		t.Error("negative dwell should be rejected")
	}
}
