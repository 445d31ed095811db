package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/loopcard/internal/helpers"
	"github.com/joshua-takyi/loopcard/internal/models"
	"github.com/joshua-takyi/loopcard/internal/services"
)

type cardView struct {
	*models.Card
	PublicURL string        `json:"public_url"`
	Links     []models.Link `json:"links"`
}

func cardViewOf(cs *services.CardService, card *models.Card) cardView {
	return cardView{Card: card, PublicURL: cs.PublicURL(card.Slug), Links: card.Links()}
}

func ListMyCards(cs *services.CardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := currentUser(c)
		if !ok {
			return
		}
		offset, limit, ok := pagination(c)
		if !ok {
			return
		}
		cards, total, err := cs.ListMine(c.Request.Context(), uid, offset, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		views := make([]cardView, 0, len(cards))
		for _, card := range cards {
			views = append(views, cardViewOf(cs, card))
		}
		page := offset/limit + 1
		c.JSON(http.StatusOK, helpers.PaginatedResponse(views, page, limit, total))
	}
}

// GetMyCard returns the user's most recent card. The dashboard uses it to
// decide between the editor and the wizard.
func GetMyCard(cs *services.CardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := currentUser(c)
		if !ok {
			return
		}
		card, err := cs.GetMine(c.Request.Context(), uid)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(cardViewOf(cs, card), ""))
	}
}

func GetCard(cs *services.CardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := cardIDParam(c)
		if !ok {
			return
		}
		card, err := cs.GetOwned(c.Request.Context(), uid, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(cardViewOf(cs, card), ""))
	}
}

func UpdateCard(cs *services.CardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := cardIDParam(c)
		if !ok {
			return
		}
		var patch models.CardPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}
		if len(patch.Fields()) == 0 {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("no fields to update"))
			return
		}
		card, err := cs.Update(c.Request.Context(), uid, id, patch)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(cardViewOf(cs, card), "Card updated"))
	}
}

func ReplaceAvatar(cs *services.CardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := cardIDParam(c)
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

		card, err := cs.ReplaceAvatar(c.Request.Context(), uid, id, f)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(cardViewOf(cs, card), "Photo updated"))
	}
}

func SetPublished(cs *services.CardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := cardIDParam(c)
		if !ok {
			return
		}
		var req struct {
			Published *bool `json:"published" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("published is required"))
			return
		}
		card, err := cs.SetPublished(c.Request.Context(), uid, id, *req.Published)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(cardViewOf(cs, card), ""))
	}
}

func RegenerateSlug(cs *services.CardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := cardIDParam(c)
		if !ok {
			return
		}
		res, err := cs.RegenerateSlug(c.Request.Context(), uid, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(res, "Link updated"))
	}
}

func ShareCard(cs *services.CardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := cardIDParam(c)
		if !ok {
			return
		}
		info, err := cs.Share(c.Request.Context(), uid, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(info, ""))
	}
}

// CardQRCode streams the card's QR code as a PNG download.
func CardQRCode(cs *services.CardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := cardIDParam(c)
		if !ok {
			return
		}
		png, err := cs.QRCode(c.Request.Context(), uid, id)
		if err != nil {
			respondError(c, err)
			return
		}
		if c.Query("download") != "" {
			c.Header("Content-Disposition", `attachment; filename="loopcard-qr.png"`)
		}
		c.Data(http.StatusOK, "image/png", png)
	}
}
