package models

import (
	"errors"
	"strings"
)

var (
	ErrCardNotFound    = errors.New("card not found")
	ErrSlugTaken       = errors.New("slug is already taken")
	ErrDraftNotFound   = errors.New("draft not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrForbidden       = errors.New("you do not have access to this card")
)

// isUniqueViolation recognises Postgres unique violations as surfaced through
// the PostgREST error body.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key value")
}
