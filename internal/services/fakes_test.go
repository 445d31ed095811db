package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/loopcard/internal/models"
	"github.com/joshua-takyi/loopcard/internal/wizard"
)

type memCards struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*models.Card
	extra map[string]bool // slugs reserved outside the map, e.g. by a racing writer
	// takeOnWrite reserves a slug right after the next probe, simulating a race.
	takeOnWrite string
}

func newMemCards() *memCards {
	return &memCards{byID: map[uuid.UUID]*models.Card{}, extra: map[string]bool{}}
}

func (m *memCards) slugUsed(s string, except uuid.UUID) bool {
	if m.extra[s] {
		return true
	}
	for id, c := range m.byID {
		if id != except && c.Slug == s {
			return true
		}
	}
	return false
}

func (m *memCards) SlugExists(_ context.Context, s string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slugUsed(s, uuid.Nil), nil
}

func (m *memCards) write(card *models.Card, id uuid.UUID) (*models.Card, error) {
	if m.takeOnWrite != "" && card.Slug == m.takeOnWrite {
		m.extra[m.takeOnWrite] = true
		m.takeOnWrite = ""
	}
	if m.slugUsed(card.Slug, id) {
		return nil, models.ErrSlugTaken
	}
	cp := *card
	cp.ID = id
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.byID[id] = &cp
	out := cp
	return &out, nil
}

func (m *memCards) UpsertCardByOwner(_ context.Context, card *models.Card) (*models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.byID {
		if c.UserID == card.UserID {
			cp := *card
			cp.CreatedAt = c.CreatedAt
			return m.write(&cp, id)
		}
	}
	id := card.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return m.write(card, id)
}

func (m *memCards) InsertCard(_ context.Context, card *models.Card) (*models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(card, uuid.New())
}

func (m *memCards) owned(userID uuid.UUID) []*models.Card {
	var out []*models.Card
	for _, c := range m.byID {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memCards) GetCardByOwner(_ context.Context, userID uuid.UUID) (*models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cards := m.owned(userID)
	if len(cards) == 0 {
		return nil, models.ErrCardNotFound
	}
	return cards[0], nil
}

func (m *memCards) ListCardsByOwner(_ context.Context, userID uuid.UUID, offset, limit int) ([]*models.Card, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cards := m.owned(userID)
	total := len(cards)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return cards[offset:end], total, nil
}

func (m *memCards) GetCardByID(_ context.Context, id uuid.UUID) (*models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, models.ErrCardNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCards) GetCardBySlug(_ context.Context, s string) (*models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byID {
		if c.Slug == s {
			cp := *c
			return &cp, nil
		}
	}
	return nil, models.ErrCardNotFound
}

func (m *memCards) UpdateCard(_ context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, models.ErrCardNotFound
	}
	cp := *c
	cp.Apply(fields)
	if cp.Slug != c.Slug && m.slugUsed(cp.Slug, id) {
		return nil, models.ErrSlugTaken
	}
	m.byID[id] = &cp
	out := cp
	return &out, nil
}

type memDrafts struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]wizard.Draft
	err    error
}

func newMemDrafts() *memDrafts {
	return &memDrafts{drafts: map[uuid.UUID]wizard.Draft{}}
}

func (m *memDrafts) SaveDraft(_ context.Context, d *wizard.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.drafts[d.UserID] = *d
	return nil
}

func (m *memDrafts) GetDraft(_ context.Context, userID uuid.UUID) (*wizard.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	d, ok := m.drafts[userID]
	if !ok {
		return nil, models.ErrDraftNotFound
	}
	return &d, nil
}

func (m *memDrafts) DeleteDraft(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, userID)
	return nil
}

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}}
}

func (m *memBlobs) Upload(_ context.Context, bucket, path, _ string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.objects[bucket+"/"+path] = data
	return "https://blob.test/" + bucket + "/" + path, nil
}

type memAnalytics struct {
	views        []*models.CardView
	interactions []*models.Interaction
	lastFilter   models.AnalyticsFilter
	report       *models.CardAnalytics
}

func (m *memAnalytics) TrackCardView(_ context.Context, v *models.CardView) (bool, error) {
	for _, seen := range m.views {
		if seen.CardID == v.CardID && seen.SessionID == v.SessionID {
			return false, nil
		}
	}
	m.views = append(m.views, v)
	return true, nil
}

func (m *memAnalytics) TrackInteraction(_ context.Context, in *models.Interaction) error {
	m.interactions = append(m.interactions, in)
	return nil
}

func (m *memAnalytics) GetCardAnalytics(_ context.Context, f models.AnalyticsFilter) (*models.CardAnalytics, error) {
	m.lastFilter = f
	if m.report == nil {
		return &models.CardAnalytics{}, nil
	}
	cp := *m.report
	return &cp, nil
}

type memAuth struct {
	sent     []string
	sessions map[string]*models.Session
	signOuts int
}

func (m *memAuth) SendOTP(_ context.Context, email string) error {
	m.sent = append(m.sent, email)
	return nil
}

func (m *memAuth) VerifyOTP(_ context.Context, email, token string) (*models.Session, error) {
	s, ok := m.sessions[email+":"+token]
	if !ok {
		return nil, errors.New("Token has expired or is invalid")
	}
	return s, nil
}

func (m *memAuth) RefreshSession(_ context.Context, rt string) (*models.Session, error) {
	for _, s := range m.sessions {
		if s.RefreshToken == rt {
			return s, nil
		}
	}
	return nil, errors.New("Invalid Refresh Token")
}

func (m *memAuth) SignOut(context.Context, string) error {
	m.signOuts++
	return nil
}

func (m *memAuth) OAuthURL(provider, redirectTo string) string {
	return "https://project.supabase.co/auth/v1/authorize?provider=" + provider + "&redirect_to=" + redirectTo
}

type memProfiles struct {
	profiles map[uuid.UUID]*models.Profile
	tokens   []string
}

func (m *memProfiles) EnsureProfile(ctx context.Context, id uuid.UUID, email string) (*models.Profile, error) {
	m.tokens = append(m.tokens, models.AccessTokenFrom(ctx))
	if p, ok := m.profiles[id]; ok {
		return p, nil
	}
	p := &models.Profile{ID: id, Email: email}
	m.profiles[id] = p
	return p, nil
}

func (m *memProfiles) GetProfile(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	if p, ok := m.profiles[id]; ok {
		return p, nil
	}
	return nil, models.ErrProfileNotFound
}
