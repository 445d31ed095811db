package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	CardsTable   = "cards"
	ProfileTable = "profiles"
	DBName       = "loopcard"
)

// Card is the persisted, publicly addressable business card.
type Card struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id" validate:"required"`
	Slug         string    `db:"slug" json:"slug" validate:"required,max=64"` // slug.MaxLength
	FullName     string    `db:"full_name" json:"full_name" validate:"required,max=120"`
	BusinessName string    `db:"business_name" json:"business_name"`
	Role         string    `db:"role" json:"role"`
	Tagline      string    `db:"tagline" json:"tagline"`
	Phone        string    `db:"phone" json:"phone"`
	Whatsapp     string    `db:"whatsapp" json:"whatsapp"`
	Email        string    `db:"email" json:"email" validate:"omitempty,email"`
	Website      string    `db:"website" json:"website"`
	Linkedin     string    `db:"linkedin" json:"linkedin"`
	Twitter      string    `db:"twitter" json:"twitter"`
	Instagram    string    `db:"instagram" json:"instagram"`
	Facebook     string    `db:"facebook" json:"facebook"`
	AvatarURL    string    `db:"avatar_url" json:"avatar_url"`
	QRURL        string    `db:"qr_url" json:"qr_url"`
	IsPublished  bool      `db:"is_published" json:"is_published"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Row is the column map written to the cards table.
func (c *Card) Row() map[string]interface{} {
	row := map[string]interface{}{
		"user_id":       c.UserID,
		"slug":          c.Slug,
		"full_name":     c.FullName,
		"business_name": c.BusinessName,
		"role":          c.Role,
		"tagline":       c.Tagline,
		"phone":         c.Phone,
		"whatsapp":      c.Whatsapp,
		"email":         c.Email,
		"website":       c.Website,
		"linkedin":      c.Linkedin,
		"twitter":       c.Twitter,
		"instagram":     c.Instagram,
		"facebook":      c.Facebook,
		"avatar_url":    c.AvatarURL,
		"qr_url":        c.QRURL,
		"is_published":  c.IsPublished,
		"updated_at":    c.UpdatedAt,
	}
	if c.ID != uuid.Nil {
		row["id"] = c.ID
	}
	if !c.CreatedAt.IsZero() {
		row["created_at"] = c.CreatedAt
	}
	return row
}

// Link is one tappable contact entry on the public page.
type Link struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Links returns the contact and social entries that are set, in display order.
func (c *Card) Links() []Link {
	var links []Link
	add := func(kind, label, url string) {
		if url != "" {
			links = append(links, Link{Type: kind, Label: label, URL: url})
		}
	}
	if c.Phone != "" {
		add("phone", c.Phone, "tel:"+c.Phone)
	}
	if c.Whatsapp != "" {
		add("whatsapp", "WhatsApp", "https://wa.me/"+digitsOnly(c.Whatsapp))
	}
	if c.Email != "" {
		add("email", c.Email, "mailto:"+c.Email)
	}
	add("website", "Website", withScheme(c.Website))
	add("linkedin", "LinkedIn", withScheme(c.Linkedin))
	add("twitter", "Twitter", withScheme(c.Twitter))
	add("instagram", "Instagram", withScheme(c.Instagram))
	add("facebook", "Facebook", withScheme(c.Facebook))
	return links
}

func withScheme(raw string) string {
	if raw == "" || strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + raw
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CardPatch is an editor update. Slug is deliberately absent: it only changes
// through slug regeneration.
type CardPatch struct {
	FullName     *string `json:"full_name,omitempty" validate:"omitempty,max=120"`
	BusinessName *string `json:"business_name,omitempty" validate:"omitempty,max=120"`
	Role         *string `json:"role,omitempty" validate:"omitempty,max=120"`
	Tagline      *string `json:"tagline,omitempty" validate:"omitempty,max=280"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Whatsapp     *string `json:"whatsapp,omitempty" validate:"omitempty,max=40"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	Website      *string `json:"website,omitempty"`
	Linkedin     *string `json:"linkedin,omitempty"`
	Twitter      *string `json:"twitter,omitempty"`
	Instagram    *string `json:"instagram,omitempty"`
	Facebook     *string `json:"facebook,omitempty"`
	AvatarURL    *string `json:"avatar_url,omitempty"`
}

// Fields returns the trimmed column values present in the patch.
func (p CardPatch) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	put := func(col string, v *string) {
		if v != nil {
			fields[col] = strings.TrimSpace(*v)
		}
	}
	put("full_name", p.FullName)
	put("business_name", p.BusinessName)
	put("role", p.Role)
	put("tagline", p.Tagline)
	put("phone", p.Phone)
	put("whatsapp", p.Whatsapp)
	put("email", p.Email)
	put("website", p.Website)
	put("linkedin", p.Linkedin)
	put("twitter", p.Twitter)
	put("instagram", p.Instagram)
	put("facebook", p.Facebook)
	put("avatar_url", p.AvatarURL)
	return fields
}

// Apply copies the patch onto a card in memory.
func (c *Card) Apply(fields map[string]interface{}) {
	for col, v := range fields {
		switch col {
		case "slug":
			c.Slug, _ = v.(string)
		case "full_name":
			c.FullName, _ = v.(string)
		case "business_name":
			c.BusinessName, _ = v.(string)
		case "role":
			c.Role, _ = v.(string)
		case "tagline":
			c.Tagline, _ = v.(string)
		case "phone":
			c.Phone, _ = v.(string)
		case "whatsapp":
			c.Whatsapp, _ = v.(string)
		case "email":
			c.Email, _ = v.(string)
		case "website":
			c.Website, _ = v.(string)
		case "linkedin":
			c.Linkedin, _ = v.(string)
		case "twitter":
			c.Twitter, _ = v.(string)
		case "instagram":
			c.Instagram, _ = v.(string)
		case "facebook":
			c.Facebook, _ = v.(string)
		case "avatar_url":
			c.AvatarURL, _ = v.(string)
		case "qr_url":
			c.QRURL, _ = v.(string)
		case "is_published":
			c.IsPublished, _ = v.(bool)
		case "updated_at":
			if t, ok := v.(time.Time); ok {
				c.UpdatedAt = t
			}
		}
	}
}
