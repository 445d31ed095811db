package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/loopcard/internal/helpers"
	"github.com/joshua-takyi/loopcard/internal/models"
)

type UserService struct {
	authRepo    models.AuthRepo
	profileRepo models.ProfileRepo
	tokens      helpers.TokenValidator
	logger      *slog.Logger
}

func NewUserService(authRepo models.AuthRepo, profileRepo models.ProfileRepo, tokens helpers.TokenValidator, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		authRepo:    authRepo,
		profileRepo: profileRepo,
		tokens:      tokens,
		logger:      logger,
	}
}

func (us *UserService) SendOTP(ctx context.Context, email string) error {
	email = helpers.NormalizeEmail(email)
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("invalid email format")
	}
	return us.authRepo.SendOTP(ctx, email)
}

// VerifyOTP exchanges the emailed code for a session and makes sure the
// user has a profile row.
func (us *UserService) VerifyOTP(ctx context.Context, email, token string) (*models.Session, error) {
	email = helpers.NormalizeEmail(email)
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("invalid email format")
	}
	if err := models.Validate.Var(token, "required,len=6,numeric"); err != nil {
		return nil, fmt.Errorf("code must be 6 digits")
	}
	session, err := us.authRepo.VerifyOTP(ctx, email, token)
	if err != nil {
		return nil, err
	}
	us.ensureProfile(ctx, session)
	return session, nil
}

// AdoptSession accepts tokens obtained by the client from the OAuth redirect.
func (us *UserService) AdoptSession(ctx context.Context, accessToken, refreshToken string) (*models.Session, error) {
	claims, err := us.tokens.ValidateToken(accessToken)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in token")
	}
	session := &models.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       id,
		Email:        claims.Email,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresIn = int(time.Until(claims.ExpiresAt.Time).Seconds())
	}
	us.ensureProfile(ctx, session)
	return session, nil
}

func (us *UserService) ensureProfile(ctx context.Context, session *models.Session) {
	ctx = models.WithAccessToken(ctx, session.AccessToken)
	if _, err := us.profileRepo.EnsureProfile(ctx, session.UserID, session.Email); err != nil {
		us.logger.Warn("failed to ensure profile", "user_id", session.UserID, "error", err)
	}
}

func (us *UserService) RefreshToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token is required")
	}
	session, err := us.authRepo.RefreshSession(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	return session, nil
}

func (us *UserService) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	return us.authRepo.SignOut(ctx, accessToken)
}

func (us *UserService) GoogleAuthURL(redirectTo string) string {
	return us.authRepo.OAuthURL("google", redirectTo)
}

func (us *UserService) ValidateToken(token string) (*helpers.CustomClaims, error) {
	return us.tokens.ValidateToken(token)
}

func (us *UserService) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return us.profileRepo.GetProfile(ctx, id)
}
