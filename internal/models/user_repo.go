package models

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
)

// AuthRepo wraps the Supabase auth endpoints used for passwordless sign in.
type AuthRepo interface {
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, token string) (*Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	OAuthURL(provider, redirectTo string) string
}

type ProfileRepo interface {
	EnsureProfile(ctx context.Context, id uuid.UUID, email string) (*Profile, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error)
}

var (
	_ AuthRepo    = (*SupabaseRepo)(nil)
	_ ProfileRepo = (*SupabaseRepo)(nil)
)

func sessionFrom(s types.Session) *Session {
	return &Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
		UserID:       s.User.ID,
		Email:        s.User.Email,
	}
}

func (su *SupabaseRepo) SendOTP(ctx context.Context, email string) error {
	err := su.supabaseClient.Auth.OTP(types.OTPRequest{
		Email:      email,
		CreateUser: true,
	})
	if err != nil {
		return fmt.Errorf("failed to send otp: %w", err)
	}
	return nil
}

func (su *SupabaseRepo) VerifyOTP(ctx context.Context, email, token string) (*Session, error) {
	res, err := su.supabaseClient.Auth.VerifyForUser(types.VerifyForUserRequest{
		Type:  types.VerificationType("email"),
		Token: token,
		Email: email,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify otp: %w", err)
	}
	if res.AccessToken == "" {
		return nil, fmt.Errorf("failed to verify otp: no session returned")
	}
	return sessionFrom(res.Session), nil
}

func (su *SupabaseRepo) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	res, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return sessionFrom(res.Session), nil
}

func (su *SupabaseRepo) SignOut(ctx context.Context, accessToken string) error {
	if err := su.supabaseClient.Auth.WithToken(accessToken).Logout(); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

// OAuthURL is the Supabase authorize endpoint for an external provider.
func (su *SupabaseRepo) OAuthURL(provider, redirectTo string) string {
	q := url.Values{}
	q.Set("provider", provider)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return strings.TrimRight(su.url, "/") + "/auth/v1/authorize?" + q.Encode()
}

func (su *SupabaseRepo) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid UUID")
	}
	client, err := su.clientFor(ctx)
	if err != nil {
		return nil, err
	}
	raw, _, err := client.From(ProfileTable).
		Select("id,email,full_name,avatar_url,created_at,updated_at", "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var profiles []Profile
	if err := json.Unmarshal(raw, &profiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile rows: %w", err)
	}
	if len(profiles) == 0 {
		return nil, ErrProfileNotFound
	}
	return &profiles[0], nil
}

// EnsureProfile inserts the profile row on first sign in and returns it.
func (su *SupabaseRepo) EnsureProfile(ctx context.Context, id uuid.UUID, email string) (*Profile, error) {
	existing, err := su.GetProfile(ctx, id)
	if err == nil {
		return existing, nil
	}
	if err != ErrProfileNotFound {
		return nil, err
	}

	client, err := su.clientFor(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	raw, _, err := client.From(ProfileTable).
		Upsert(map[string]interface{}{
			"id":         id,
			"email":      email,
			"created_at": now,
			"updated_at": now,
		}, "id", "representation", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	var profiles []Profile
	if err := json.Unmarshal(raw, &profiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile rows: %w", err)
	}
	if len(profiles) == 0 {
		return &Profile{ID: id, Email: email, CreatedAt: now, UpdatedAt: now}, nil
	}
	return &profiles[0], nil
}
