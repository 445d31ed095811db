package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/joshua-takyi/loopcard/internal/assets"
	"github.com/joshua-takyi/loopcard/internal/models"
	"github.com/joshua-takyi/loopcard/internal/slug"
	"github.com/joshua-takyi/loopcard/internal/wizard"
)

const testBase = "https://loopcard.app/u"

type cardFixture struct {
	svc    *CardService
	cards  *memCards
	drafts *memDrafts
	blobs  *memBlobs
}

func newCardFixture(mode CardMode) *cardFixture {
	f := &cardFixture{cards: newMemCards(), drafts: newMemDrafts(), blobs: newMemBlobs()}
	pub := assets.NewPublisher(f.blobs, "", "", 64)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewCardService(f.cards, f.drafts, pub, CardOptions{
		PublicBaseURL: testBase,
		Mode:          mode,
		QRSize:        64,
	}, logger)
	return f
}

func (f *cardFixture) readyDraft(t *testing.T, userID uuid.UUID, name, business string) *wizard.Draft {
	t.Helper()
	d := wizard.New(userID)
	d.FullName = name
	d.BusinessName = business
	d.Email = "hello@example.com"
	d.Step = wizard.StepPreview
	if err := f.drafts.SaveDraft(context.Background(), d); err != nil {
		t.Fatalf("save draft: %v", err)
	}
	return d
}

func TestCommitDraftCreatesCard(t *testing.T) {
	f := newCardFixture(CardModeSingle)
	uid := uuid.New()
	d := f.readyDraft(t, uid, "Vishnu Vardhan", "MVR Farms")
	d.SetPhoto([]byte{0xff, 0xd8, 0xff, 0xe0})
	_ = f.drafts.SaveDraft(context.Background(), d)

	res, err := f.svc.CommitDraft(context.Background(), uid)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if res.Card.Slug != "mvr-farms" {
		t.Fatalf("slug = %q", res.Card.Slug)
	}
	if res.PublicURL != testBase+"/mvr-farms" {
		t.Fatalf("public url = %q", res.PublicURL)
	}
	if !res.Card.IsPublished {
		t.Fatal("new cards should be published")
	}
	wantQR := "https://blob.test/qrcodes/" + uid.String() + "/mvr-farms-qr.png"
	if res.Card.QRURL != wantQR {
		t.Fatalf("qr url = %q, want %q", res.Card.QRURL, wantQR)
	}
	if !strings.HasSuffix(res.Card.AvatarURL, "/avatars/"+uid.String()+"/mvr-farms-avatar.jpg") {
		t.Fatalf("avatar url = %q", res.Card.AvatarURL)
	}
	if _, err := f.drafts.GetDraft(context.Background(), uid); !errors.Is(err, models.ErrDraftNotFound) {
		t.Fatalf("draft should be deleted after commit, got %v", err)
	}
}

func TestCommitDraftRequiresReadyDraft(t *testing.T) {
	f := newCardFixture(CardModeSingle)
	uid := uuid.New()

	if _, err := f.svc.CommitDraft(context.Background(), uid); !errors.Is(err, models.ErrDraftNotFound) {
		t.Fatalf("got %v, want ErrDraftNotFound", err)
	}

	d := wizard.New(uid)
	_ = f.drafts.SaveDraft(context.Background(), d)
	if _, err := f.svc.CommitDraft(context.Background(), uid); !errors.Is(err, wizard.ErrNameRequired) {
		t.Fatalf("got %v, want ErrNameRequired", err)
	}

	d.FullName = "Jane"
	_ = f.drafts.SaveDraft(context.Background(), d)
	if _, err := f.svc.CommitDraft(context.Background(), uid); !errors.Is(err, wizard.ErrNotReady) {
		t.Fatalf("got %v, want ErrNotReady", err)
	}
	if len(f.cards.byID) != 0 {
		t.Fatal("no card should be written")
	}
}

func TestSingleModeOverwritesOwnersCard(t *testing.T) {
	f := newCardFixture(CardModeSingle)
	uid := uuid.New()

	f.readyDraft(t, uid, "Jane Doe", "")
	first, err := f.svc.CommitDraft(context.Background(), uid)
	if err != nil {
		t.Fatalf("first commit: %v", err)
	}

	f.readyDraft(t, uid, "Jane Doe", "Doe Bakery")
	second, err := f.svc.CommitDraft(context.Background(), uid)
	if err != nil {
		t.Fatalf("second commit: %v", err)
	}

	if len(f.cards.byID) != 1 {
		t.Fatalf("cards = %d, want 1", len(f.cards.byID))
	}
	if second.Card.ID != first.Card.ID {
		t.Fatal("upsert should keep the card id")
	}
	if second.Card.Slug != first.Card.Slug {
		t.Fatalf("slug changed from %q to %q", first.Card.Slug, second.Card.Slug)
	}
	if second.Card.BusinessName != "Doe Bakery" {
		t.Fatalf("business name = %q", second.Card.BusinessName)
	}
}

func TestMultiModeCreatesDistinctCards(t *testing.T) {
	f := newCardFixture(CardModeMulti)
	uid := uuid.New()

	f.readyDraft(t, uid, "Jane", "Acme")
	a, err := f.svc.CommitDraft(context.Background(), uid)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	f.readyDraft(t, uid, "Jane", "Acme")
	b, err := f.svc.CommitDraft(context.Background(), uid)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if a.Card.Slug != "acme" || b.Card.Slug != "acme-2" {
		t.Fatalf("slugs = %q, %q", a.Card.Slug, b.Card.Slug)
	}
	cards, total, err := f.svc.ListMine(context.Background(), uid, 0, 10)
	if err != nil || total != 2 || len(cards) != 2 {
		t.Fatalf("list = %d/%d, %v", len(cards), total, err)
	}
}

func TestCommitDraftCapsOversizedSlugLength(t *testing.T) {
	f := newCardFixture(CardModeSingle)
	f.svc.opts.SlugMaxLength = 80
	uid := uuid.New()
	f.readyDraft(t, uid, "Ama", strings.Repeat("Longbusiness ", 7))

	res, err := f.svc.CommitDraft(context.Background(), uid)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(res.Card.Slug) > slug.MaxLength {
		t.Fatalf("slug %q is longer than %d", res.Card.Slug, slug.MaxLength)
	}
}

func TestCommitDraftAvoidsOtherUsersSlug(t *testing.T) {
	f := newCardFixture(CardModeSingle)
	first, other := uuid.New(), uuid.New()

	f.readyDraft(t, first, "Someone", "Acme")
	if _, err := f.svc.CommitDraft(context.Background(), first); err != nil {
		t.Fatalf("commit: %v", err)
	}

	f.readyDraft(t, other, "Another", "Acme")
	res, err := f.svc.CommitDraft(context.Background(), other)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if res.Card.Slug != "acme-2" {
		t.Fatalf("slug = %q, want acme-2", res.Card.Slug)
	}
}

func TestCommitDraftReallocatesWhenSlugTakenAtWrite(t *testing.T) {
	f := newCardFixture(CardModeSingle)
	uid := uuid.New()
	f.readyDraft(t, uid, "Jane", "Acme")
	f.cards.takeOnWrite = "acme"

	res, err := f.svc.CommitDraft(context.Background(), uid)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if res.Card.Slug != "acme-2" {
		t.Fatalf("slug = %q, want acme-2", res.Card.Slug)
	}
}

func TestCommitDraftPropagatesUploadError(t *testing.T) {
	f := newCardFixture(CardModeSingle)
	uid := uuid.New()
	f.readyDraft(t, uid, "Jane", "")
	f.blobs.err = errors.New("Bucket not found")

	_, err := f.svc.CommitDraft(context.Background(), uid)
	if err == nil || !strings.Contains(err.Error(), "Bucket not found") {
		t.Fatalf("got %v", err)
	}
	if len(f.cards.byID) != 0 {
		t.Fatal("card must not be written when upload fails")
	}
	if _, err := f.drafts.GetDraft(context.Background(), uid); err != nil {
		t.Fatal("draft must survive a failed commit")
	}
}

func commitOne(t *testing.T, f *cardFixture, uid uuid.UUID) *models.Card {
	t.Helper()
	f.readyDraft(t, uid, "Jane Doe", "")
	res, err := f.svc.CommitDraft(context.Background(), uid)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return res.Card
}

func strPtr(s string) *string { return &s }

func TestUpdateCard(t *testing.T) {
	f := newCardFixture(CardModeSingle)
	uid := uuid.New()
	card := commitOne(t, f, uid)

	updated, err := f.svc.Update(context.Background(), uid, card.ID, models.CardPatch{Tagline: strPtr("  Fresh bread daily ")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Tagline != "Fresh bread daily" {
		t.Fatalf("tagline = %q", updated.Tagline)
	}
	if updated.Slug != card.Slug || updated.FullName != card.FullName {
		t.Fatal("untouched fields changed")
	}

	if _, err := f.svc.Update(context.Background(), uid, card.ID, models.CardPatch{FullName: strPtr(" ")}); !errors.Is(err, wizard.ErrNameRequired) {
		t.Fatalf("got %v, want ErrNameRequired", err)
	}
	if _, err := f.svc.Update(context.Background(), uid, card.ID, models.CardPatch{Email: strPtr("nope")}); err == nil {
		t.Fatal("expected invalid email error")
	}
	if _, err := f.svc.Update(context.Background(), uuid.New(), card.ID, models.CardPatch{Role: strPtr("x")}); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("got %v, want ErrForbidden", err)
	}
}

func TestPublishToggleHidesPublicCard(t *testing.T) {
	f := newCardFixture(CardModeSingle)
	uid := uuid.New()
	card := commitOne(t, f, uid)

	if _, err := f.svc.GetPublic(context.Background(), card.Slug); err != nil {
		t.Fatalf("public get: %v", err)
	}
	if _, err := f.svc.SetPublished(context.Background(), uid, card.ID, false); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if _, err := f.svc.GetPublic(context.Background(), card.Slug); !errors.Is(err, models.ErrCardNotFound) {
		t.Fatalf("got %v, want ErrCardNotFound", err)
	}
}

func TestShareAndRegenerateSlug(t *testing.T) {
	f := newCardFixture(CardModeSingle)
	uid := uuid.New()
	card := commitOne(t, f, uid)

	share, err := f.svc.Share(context.Background(), uid, card.ID)
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	if share.Message != "My LoopCard: "+testBase+"/jane-doe" {
		t.Fatalf("message = %q", share.Message)
	}

	res, err := f.svc.RegenerateSlug(context.Background(), uid, card.ID)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if res.Card.Slug == card.Slug {
		t.Fatal("slug should change")
	}
	if !strings.HasSuffix(res.Card.QRURL, "/"+res.Card.Slug+"-qr.png") {
		t.Fatalf("qr url = %q", res.Card.QRURL)
	}

	png, err := f.svc.QRCode(context.Background(), uid, card.ID)
	if err != nil || len(png) == 0 {
		t.Fatalf("qr code: %v", err)
	}
}
