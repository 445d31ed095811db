package slug

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultMaxLength = 48
	// MaxLength is the longest slug the cards table accepts.
	MaxLength            = 64
	DefaultSequential    = 10
	DefaultRandomRetries = 3
	Fallback             = "user"
)

// ErrExhausted is returned when every candidate slug is already taken.
var ErrExhausted = errors.New("could not allocate unique slug")

// Derive turns free text into a URL-safe slug.
//
//	Derive("Vishnu Vardhan", 48)  // "vishnu-vardhan"
//	Derive("  MVR Farms!! ", 48)  // "mvr-farms"
//	Derive("Café Déjà Vu", 48)    // "cafe-deja-vu"
//	Derive("!!!", 48)             // "user"
func Derive(input string, maxLen int) string {
	maxLen = boundLength(maxLen)

	folded := fold(input)

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	out := b.String()
	if len(out) > maxLen {
		out = strings.TrimRight(out[:maxLen], "-")
	}
	if out == "" {
		return Fallback
	}
	return out
}

func boundLength(n int) int {
	switch {
	case n <= 0:
		return DefaultMaxLength
	case n > MaxLength:
		return MaxLength
	}
	return n
}

// Seed picks the text a card slug is derived from: the business name when
// present, otherwise the person's name.
func Seed(fullName, businessName string) string {
	if s := strings.TrimSpace(businessName); s != "" {
		return s
	}
	return strings.TrimSpace(fullName)
}

// fold strips diacritics so "é" becomes "e" instead of a separator.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// ExistsFunc reports whether a slug is already used.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Allocator finds a free slug by probing the backend.
type Allocator struct {
	Exists        ExistsFunc
	MaxLength     int
	Sequential    int
	RandomRetries int
	Token         func() string
	Now           func() time.Time
}

func NewAllocator(exists ExistsFunc, maxLen int) *Allocator {
	return &Allocator{
		Exists:        exists,
		MaxLength:     maxLen,
		Sequential:    DefaultSequential,
		RandomRetries: DefaultRandomRetries,
	}
}

// Allocate tries the base slug, then base-2..base-N, then a few random
// tokens, then a timestamp suffix. Every candidate is probed.
func (a *Allocator) Allocate(ctx context.Context, seed string) (string, error) {
	if a.Exists == nil {
		return "", fmt.Errorf("slug allocator has no existence probe")
	}
	maxLen := boundLength(a.MaxLength)
	base := Derive(seed, maxLen)

	try := func(candidate string) (bool, error) {
		taken, err := a.Exists(ctx, candidate)
		if err != nil {
			return false, err
		}
		return !taken, nil
	}

	if ok, err := try(base); err != nil {
		return "", err
	} else if ok {
		return base, nil
	}

	for i := 2; i <= a.Sequential; i++ {
		candidate := withSuffix(base, strconv.Itoa(i), maxLen)
		if ok, err := try(candidate); err != nil {
			return "", err
		} else if ok {
			return candidate, nil
		}
	}

	for i := 0; i < a.RandomRetries; i++ {
		candidate := withSuffix(base, a.token(), maxLen)
		if ok, err := try(candidate); err != nil {
			return "", err
		} else if ok {
			return candidate, nil
		}
	}

	candidate := withSuffix(base, strconv.FormatInt(a.now().UnixMilli(), 36), maxLen)
	ok, err := try(candidate)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrExhausted
	}
	return candidate, nil
}

func (a *Allocator) token() string {
	if a.Token != nil {
		return a.Token()
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

func (a *Allocator) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// withSuffix appends "-suffix", shortening base so the result fits maxLen.
func withSuffix(base, suffix string, maxLen int) string {
	room := maxLen - len(suffix) - 1
	if room < 1 {
		room = 1
	}
	if len(base) > room {
		base = strings.TrimRight(base[:room], "-")
	}
	if base == "" {
		base = Fallback
	}
	return base + "-" + suffix
}
