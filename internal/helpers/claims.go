package helpers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const UserContextKey = "user"

type EnhancedClaims struct {
	*CustomClaims
	UserID      string `json:"id"`
	Email       string `json:"email,omitempty"`
	Fullname    string `json:"full_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Provider    string `json:"provider,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	AccessToken string `json:"-"`
}

func (ec *EnhancedClaims) IsOwner(userID string) bool {
	return ec.UserID == userID
}

func (ec *EnhancedClaims) ID() (uuid.UUID, error) {
	return uuid.Parse(ec.UserID)
}

// CurrentUser returns the claims stored by the auth middleware.
func CurrentUser(c *gin.Context) (*EnhancedClaims, uuid.UUID, error) {
	raw, exists := c.Get(UserContextKey)
	if !exists {
		return nil, uuid.Nil, errors.New("unauthorized")
	}
	claims, ok := raw.(*EnhancedClaims)
	if !ok {
		return nil, uuid.Nil, errors.New("invalid user claims")
	}
	id, err := claims.ID()
	if err != nil {
		return nil, uuid.Nil, errors.New("invalid user ID in token")
	}
	return claims, id, nil
}
