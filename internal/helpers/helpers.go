package helpers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joshua-takyi/loopcard/internal/models"
)

type CustomClaims struct {
	Role        string `json:"role"`
	Email       string `json:"email"`
	AppMetadata struct {
		Provider  string   `json:"provider"`
		Providers []string `json:"providers"`
	} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// TokenValidator checks Supabase access tokens.
type TokenValidator interface {
	ValidateToken(tokenStr string) (*CustomClaims, error)
}

// SupabaseTokenValidator verifies tokens with the project's JWT secret when one
// is configured, and with the project's JWKS otherwise.
type SupabaseTokenValidator struct {
	secret []byte
	jwks   *keyfunc.JWKS
}

func NewTokenValidator(ctx context.Context, supabaseURL, jwtSecret string, logger *slog.Logger) (*SupabaseTokenValidator, error) {
	if jwtSecret != "" {
		return &SupabaseTokenValidator{secret: []byte(jwtSecret)}, nil
	}
	if supabaseURL == "" {
		return nil, errors.New("SUPABASE_URL not set")
	}

	jwksURL := fmt.Sprintf("%s/auth/v1/.well-known/jwks.json", strings.TrimRight(supabaseURL, "/"))
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Warn("JWKS refresh failed", "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS from %s: %w", jwksURL, err)
	}
	return &SupabaseTokenValidator{jwks: jwks}, nil
}

// NewHMACValidator is a validator for a fixed HS256 secret.
func NewHMACValidator(secret string) *SupabaseTokenValidator {
	return &SupabaseTokenValidator{secret: []byte(secret)}
}

func (v *SupabaseTokenValidator) keyfunc(token *jwt.Token) (interface{}, error) {
	if v.secret != nil {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	}
	return v.jwks.Keyfunc(token)
}

func (v *SupabaseTokenValidator) ValidateToken(tokenStr string) (*CustomClaims, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return nil, errors.New("token is empty")
	}

	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, v.keyfunc, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func (v *SupabaseTokenValidator) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	return models.Validate.Var(email, "required,email")
}
