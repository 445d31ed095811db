package handlers

import (
	"encoding/hex"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/loopcard/internal/helpers"
	"github.com/joshua-takyi/loopcard/internal/models"
	"github.com/joshua-takyi/loopcard/internal/services"
	"golang.org/x/crypto/blake2b"
)

const (
	SessionCookie     = "lc_sid"
	sessionCookieLife = 24 * 3600
)

// linkHref marks tel: links as safe; html/template only trusts http, https
// and mailto on its own.
func linkHref(u string) interface{} {
	if strings.HasPrefix(u, "tel:") {
		return template.URL(u)
	}
	return u
}

var cardPage = template.Must(template.New("card").Funcs(template.FuncMap{"href": linkHref}).Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Card.FullName}}{{if .Card.BusinessName}} | {{.Card.BusinessName}}{{end}}</title>
<meta property="og:title" content="{{.Card.FullName}}">
{{if .Card.Tagline}}<meta property="og:description" content="{{.Card.Tagline}}">{{end}}
{{if .Card.AvatarURL}}<meta property="og:image" content="{{.Card.AvatarURL}}">{{end}}
<meta property="og:url" content="{{.URL}}">
</head>
<body>
<main class="card">
{{if .Card.AvatarURL}}<img class="avatar" src="{{.Card.AvatarURL}}" alt="{{.Card.FullName}}">{{end}}
<h1>{{.Card.FullName}}</h1>
{{if .Card.Role}}<p class="role">{{.Card.Role}}</p>{{end}}
{{if .Card.BusinessName}}<p class="business">{{.Card.BusinessName}}</p>{{end}}
{{if .Card.Tagline}}<p class="tagline">{{.Card.Tagline}}</p>{{end}}
<ul class="links">
{{range .Links}}<li><a href="{{href .URL}}" data-type="{{.Type}}" rel="noopener">{{.Label}}</a></li>
{{end}}</ul>
</main>
</body>
</html>
`))

type publicCard struct {
	ID           string        `json:"id"`
	Slug         string        `json:"slug"`
	FullName     string        `json:"full_name"`
	BusinessName string        `json:"business_name,omitempty"`
	Role         string        `json:"role,omitempty"`
	Tagline      string        `json:"tagline,omitempty"`
	AvatarURL    string        `json:"avatar_url,omitempty"`
	URL          string        `json:"url"`
	Links        []models.Link `json:"links"`
}

// sessionID returns the visitor's session cookie, minting one from a
// fingerprint of address, agent and day when it is missing.
func sessionID(c *gin.Context) string {
	if sid, err := c.Cookie(SessionCookie); err == nil && sid != "" {
		return sid
	}
	day := time.Now().UTC().Format("2006-01-02")
	sum := blake2b.Sum256([]byte(c.ClientIP() + "|" + c.Request.UserAgent() + "|" + day))
	sid := hex.EncodeToString(sum[:16])
	c.SetCookie(SessionCookie, sid, sessionCookieLife, "/", "", false, true)
	return sid
}

// PublicCard serves a published card by slug as an HTML page, or as JSON when
// the client asks for it. Each visit is recorded as a view.
func PublicCard(cs *services.CardService, as *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := strings.ToLower(strings.TrimSpace(c.Param("slug")))
		card, err := cs.GetPublic(c.Request.Context(), s)
		if err != nil {
			respondError(c, err)
			return
		}

		if _, err := as.TrackView(c.Request.Context(), card, sessionID(c), c.Request.UserAgent(), c.Request.Referer()); err != nil {
			_ = c.Error(err).SetType(gin.ErrorTypePrivate)
		}

		view := publicCard{
			ID:           card.ID.String(),
			Slug:         card.Slug,
			FullName:     card.FullName,
			BusinessName: card.BusinessName,
			Role:         card.Role,
			Tagline:      card.Tagline,
			AvatarURL:    card.AvatarURL,
			URL:          cs.PublicURL(card.Slug),
			Links:        card.Links(),
		}

		if c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
			c.JSON(http.StatusOK, helpers.SuccessResponse(view, ""))
			return
		}
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.Status(http.StatusOK)
		if err := cardPage.Execute(c.Writer, gin.H{"Card": card, "URL": view.URL, "Links": view.Links}); err != nil {
			_ = c.Error(err).SetType(gin.ErrorTypePrivate)
		}
	}
}

// TrackInteraction records a link tap, contact save, share or dwell ping.
func TrackInteraction(cs *services.CardService, as *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		card, err := cs.GetPublic(c.Request.Context(), strings.ToLower(c.Param("slug")))
		if err != nil {
			respondError(c, err)
			return
		}
		var in models.Interaction
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}
		in.SessionID = sessionID(c)
		if err := as.TrackInteraction(c.Request.Context(), card, &in); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, helpers.SuccessResponse(nil, ""))
	}
}
