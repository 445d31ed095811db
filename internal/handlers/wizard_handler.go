package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/loopcard/internal/helpers"
	"github.com/joshua-takyi/loopcard/internal/services"
	"github.com/joshua-takyi/loopcard/internal/wizard"
)

type wizardView struct {
	*wizard.Draft
	StepName   string `json:"step_name"`
	TotalSteps int    `json:"total_steps"`
	CanAdvance bool   `json:"can_advance"`
}

func viewOf(d *wizard.Draft) wizardView {
	return wizardView{
		Draft:      d,
		StepName:   d.Step.String(),
		TotalSteps: wizard.TotalSteps,
		CanAdvance: d.CanAdvance(),
	}
}

func GetWizard(w *services.WizardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := currentUser(c)
		if !ok {
			return
		}
		d, err := w.Get(c.Request.Context(), uid)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(viewOf(d), ""))
	}
}

// UpdateWizard merges a partial update into the draft.
func UpdateWizard(w *services.WizardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := currentUser(c)
		if !ok {
			return
		}
		var patch wizard.Patch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}
		if patch.Empty() {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("no fields to update"))
			return
		}
		d, err := w.Update(c.Request.Context(), uid, patch)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(viewOf(d), ""))
	}
}

// UploadWizardPhoto accepts a multipart "photo" file.
func UploadWizardPhoto(w *services.WizardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := currentUser(c)
		if !ok {
			return
		}
		fh, err := c.FormFile("photo")
		if err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("photo file is required"))
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}
		defer f.Close()

		d, err := w.SetPhoto(c.Request.Context(), uid, f)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(viewOf(d), "Photo saved"))
	}
}

func NextWizardStep(w *services.WizardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := currentUser(c)
		if !ok {
			return
		}
		d, err := w.Next(c.Request.Context(), uid)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(viewOf(d), ""))
	}
}

func PreviousWizardStep(w *services.WizardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := currentUser(c)
		if !ok {
			return
		}
		d, err := w.Back(c.Request.Context(), uid)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(viewOf(d), ""))
	}
}

func PreviewWizard(w *services.WizardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := currentUser(c)
		if !ok {
			return
		}
		p, err := w.Preview(c.Request.Context(), uid)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(p, ""))
	}
}

func ResetWizard(w *services.WizardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := currentUser(c)
		if !ok {
			return
		}
		if err := w.Reset(c.Request.Context(), uid); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Draft discarded"))
	}
}

// CommitWizard saves the draft as a card.
func CommitWizard(cs *services.CardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := currentUser(c)
		if !ok {
			return
		}
		res, err := cs.CommitDraft(c.Request.Context(), uid)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(res, "Card saved"))
	}
}
