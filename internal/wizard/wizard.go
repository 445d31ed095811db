package wizard

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joshua-takyi/loopcard/internal/slug"
)

type Step int

const (
	StepPhoto     Step = 1
	StepBasicInfo Step = 2
	StepContact   Step = 3
	StepPreview   Step = 4

	TotalSteps = 4
)

func (s Step) String() string {
	switch s {
	case StepPhoto:
		return "photo"
	case StepBasicInfo:
		return "basic_info"
	case StepContact:
		return "contact"
	case StepPreview:
		return "preview"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

var validate = validator.New()

var (
	ErrNameRequired   = errors.New("full name is required")
	ErrStepOutOfRange = errors.New("wizard step out of range")
	ErrNotReady       = errors.New("wizard is not ready to be committed")
)

// Draft is the private, uncommitted state of a user's card wizard.
type Draft struct {
	UserID       uuid.UUID `bson:"user_id" json:"user_id"`
	Step         Step      `bson:"step" json:"step"`
	PhotoURL     string    `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	Photo        []byte    `bson:"photo,omitempty" json:"-"`
	HasPhoto     bool      `bson:"-" json:"has_photo"`
	FullName     string    `bson:"full_name" json:"full_name"`
	BusinessName string    `bson:"business_name,omitempty" json:"business_name,omitempty"`
	Role         string    `bson:"role,omitempty" json:"role,omitempty"`
	Tagline      string    `bson:"tagline,omitempty" json:"tagline,omitempty"`
	Phone        string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Whatsapp     string    `bson:"whatsapp,omitempty" json:"whatsapp,omitempty"`
	Email        string    `bson:"email,omitempty" json:"email,omitempty"`
	Website      string    `bson:"website,omitempty" json:"website,omitempty"`
	Linkedin     string    `bson:"linkedin,omitempty" json:"linkedin,omitempty"`
	Twitter      string    `bson:"twitter,omitempty" json:"twitter,omitempty"`
	Instagram    string    `bson:"instagram,omitempty" json:"instagram,omitempty"`
	Facebook     string    `bson:"facebook,omitempty" json:"facebook,omitempty"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	PhotoURL     *string `json:"photo_url,omitempty"`
	FullName     *string `json:"full_name,omitempty"`
	BusinessName *string `json:"business_name,omitempty"`
	Role         *string `json:"role,omitempty"`
	Tagline      *string `json:"tagline,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Whatsapp     *string `json:"whatsapp,omitempty"`
	Email        *string `json:"email,omitempty"`
	Website      *string `json:"website,omitempty"`
	Linkedin     *string `json:"linkedin,omitempty"`
	Twitter      *string `json:"twitter,omitempty"`
	Instagram    *string `json:"instagram,omitempty"`
	Facebook     *string `json:"facebook,omitempty"`
}

func (p Patch) Empty() bool {
	return p == Patch{}
}

// New returns an empty draft positioned on the first step.
func New(userID uuid.UUID) *Draft {
	return &Draft{UserID: userID, Step: StepPhoto, UpdatedAt: time.Now()}
}

// Merge overwrites the fields present in the patch.
func (d *Draft) Merge(p Patch) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&d.PhotoURL, p.PhotoURL)
	set(&d.FullName, p.FullName)
	set(&d.BusinessName, p.BusinessName)
	set(&d.Role, p.Role)
	set(&d.Tagline, p.Tagline)
	set(&d.Phone, p.Phone)
	set(&d.Whatsapp, p.Whatsapp)
	set(&d.Email, p.Email)
	set(&d.Website, p.Website)
	set(&d.Linkedin, p.Linkedin)
	set(&d.Twitter, p.Twitter)
	set(&d.Instagram, p.Instagram)
	set(&d.Facebook, p.Facebook)
	if p.PhotoURL != nil {
		d.Photo = nil
	}
	d.UpdatedAt = time.Now()
}

// SetPhoto stores a processed avatar that is uploaded on commit.
func (d *Draft) SetPhoto(jpeg []byte) {
	d.Photo = jpeg
	d.PhotoURL = ""
	d.UpdatedAt = time.Now()
}

// ClearPhoto removes any pending or hosted photo.
func (d *Draft) ClearPhoto() {
	d.Photo = nil
	d.PhotoURL = ""
	d.UpdatedAt = time.Now()
}

// Sync fills derived, non-persisted fields before the draft is returned.
func (d *Draft) Sync() *Draft {
	d.HasPhoto = len(d.Photo) > 0 || d.PhotoURL != ""
	return d
}

// ValidationError carries per-field messages for inline display.
type ValidationError struct {
	Step   Step
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return fmt.Sprintf("step %s invalid: %s", e.Step, strings.Join(parts, ", "))
}

// Unwrap lets callers match ErrNameRequired with errors.Is.
func (e *ValidationError) Unwrap() error {
	if _, ok := e.Fields["full_name"]; ok {
		return ErrNameRequired
	}
	return nil
}

// Validate checks the fields owned by the given step.
func (d *Draft) Validate(step Step) error {
	fields := map[string]string{}
	switch step {
	case StepPhoto, StepPreview:
	case StepBasicInfo:
		if strings.TrimSpace(d.FullName) == "" {
			fields["full_name"] = "Full name is required"
		}
	case StepContact:
		if d.Email != "" {
			if err := validate.Var(d.Email, "email"); err != nil {
				fields["email"] = "Enter a valid email address"
			}
		}
		if d.Website != "" && !looksLikeURL(d.Website) {
			fields["website"] = "Enter a valid website URL"
		}
	default:
		return ErrStepOutOfRange
	}
	if len(fields) > 0 {
		return &ValidationError{Step: step, Fields: fields}
	}
	return nil
}

// CanAdvance reports whether the current step lets the user move forward.
func (d *Draft) CanAdvance() bool {
	return d.Validate(d.Step) == nil
}

// Advance moves to the next step when the current one validates. At the
// preview step it is a no-op; committing is a separate operation.
func (d *Draft) Advance() error {
	if d.Step < StepPhoto || d.Step > StepPreview {
		return ErrStepOutOfRange
	}
	if err := d.Validate(d.Step); err != nil {
		return err
	}
	if d.Step < StepPreview {
		d.Step++
	}
	d.UpdatedAt = time.Now()
	return nil
}

// Back moves one step back, never before the first step.
func (d *Draft) Back() {
	if d.Step > StepPhoto {
		d.Step--
	}
	d.UpdatedAt = time.Now()
}

// Ready reports whether the draft may be committed.
func (d *Draft) Ready() error {
	if err := d.Validate(StepBasicInfo); err != nil {
		return err
	}
	if err := d.Validate(StepContact); err != nil {
		return err
	}
	if d.Step != StepPreview {
		return ErrNotReady
	}
	return nil
}

// Preview is the not-yet-reserved public link shown before commit.
type Preview struct {
	Slug string `json:"slug"`
	URL  string `json:"url"`
	Note string `json:"note"`
}

func (d *Draft) Preview(publicBase string, maxLen int) Preview {
	s := slug.Derive(slug.Seed(d.FullName, d.BusinessName), maxLen)
	return Preview{
		Slug: s,
		URL:  PublicURL(publicBase, s),
		Note: "This link is a preview. The final link may change after saving.",
	}
}

// PublicURL joins the public base and a slug.
func PublicURL(base, s string) string {
	return strings.TrimRight(base, "/") + "/" + s
}

// looksLikeURL accepts bare hosts such as "mvrfarms.in" as well as full URLs.
func looksLikeURL(raw string) bool {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	return validate.Var(raw, "http_url") == nil
}
