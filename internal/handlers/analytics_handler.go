package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/loopcard/internal/helpers"
	"github.com/joshua-takyi/loopcard/internal/services"
)

// CardAnalytics reports views and interactions over the last ?days days,
// for one card when ?card_id is set and for all of the user's cards otherwise.
func CardAnalytics(as *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := currentUser(c)
		if !ok {
			return
		}
		cardID := c.Query("card_id")
		if cardID != "" {
			if _, err := uuid.Parse(cardID); err != nil {
				c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid card ID format"))
				return
			}
		}
		days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(services.DefaultAnalyticsDays)))
		if err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid days parameter"))
			return
		}
		report, err := as.Report(c.Request.Context(), uid, cardID, days)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(report, ""))
	}
}

func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
