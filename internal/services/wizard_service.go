package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/joshua-takyi/loopcard/internal/assets"
	"github.com/joshua-takyi/loopcard/internal/models"
	"github.com/joshua-takyi/loopcard/internal/wizard"
)

type WizardService struct {
	drafts        models.DraftRepo
	publicBaseURL string
	slugMaxLength int
	avatarWidth   int
}

func NewWizardService(drafts models.DraftRepo, publicBaseURL string, slugMaxLength, avatarWidth int) *WizardService {
	return &WizardService{
		drafts:        drafts,
		publicBaseURL: publicBaseURL,
		slugMaxLength: slugMaxLength,
		avatarWidth:   avatarWidth,
	}
}

func (ws *WizardService) load(ctx context.Context, userID uuid.UUID) (*wizard.Draft, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("invalid user ID")
	}
	d, err := ws.drafts.GetDraft(ctx, userID)
	if errors.Is(err, models.ErrDraftNotFound) {
		return wizard.New(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (ws *WizardService) save(ctx context.Context, d *wizard.Draft) (*wizard.Draft, error) {
	if err := ws.drafts.SaveDraft(ctx, d); err != nil {
		return nil, err
	}
	return d.Sync(), nil
}

// Get returns the user's draft, starting a fresh one when none exists.
func (ws *WizardService) Get(ctx context.Context, userID uuid.UUID) (*wizard.Draft, error) {
	d, err := ws.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return d.Sync(), nil
}

func (ws *WizardService) Update(ctx context.Context, userID uuid.UUID, patch wizard.Patch) (*wizard.Draft, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("no fields to update")
	}
	d, err := ws.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	d.Merge(patch)
	return ws.save(ctx, d)
}

// SetPhoto processes an uploaded photo and keeps it on the draft until commit.
func (ws *WizardService) SetPhoto(ctx context.Context, userID uuid.UUID, photo io.Reader) (*wizard.Draft, error) {
	jpeg, err := assets.ProcessAvatar(photo, ws.avatarWidth)
	if err != nil {
		return nil, err
	}
	d, err := ws.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	d.SetPhoto(jpeg)
	return ws.save(ctx, d)
}

// Next validates the current step and advances. The draft is only saved
// when the move succeeds.
func (ws *WizardService) Next(ctx context.Context, userID uuid.UUID) (*wizard.Draft, error) {
	d, err := ws.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := d.Advance(); err != nil {
		return nil, err
	}
	return ws.save(ctx, d)
}

func (ws *WizardService) Back(ctx context.Context, userID uuid.UUID) (*wizard.Draft, error) {
	d, err := ws.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	d.Back()
	return ws.save(ctx, d)
}

func (ws *WizardService) Preview(ctx context.Context, userID uuid.UUID) (*wizard.Preview, error) {
	d, err := ws.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := d.Preview(ws.publicBaseURL, ws.slugMaxLength)
	return &p, nil
}

// Reset discards the draft.
func (ws *WizardService) Reset(ctx context.Context, userID uuid.UUID) error {
	return ws.drafts.DeleteDraft(ctx, userID)
}
