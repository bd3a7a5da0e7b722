package handler

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"tv-finder/internal/service"
	"tv-finder/internal/session"
	"tv-finder/internal/ui"
)

const (
	defaultDiagnosticsLimit = 50
	maxDiagnosticsLimit     = 500
)

// HTTPHandler handles HTTP requests for the web interface and JSON API
type HTTPHandler struct {
	provider  service.ShowProvider
	diag      *service.Diagnostics
	sessions  *session.Store
	apiToken  string
	rateLimit gin.HandlerFunc
}

// NewHTTPHandler creates a new HTTPHandler
func NewHTTPHandler(
	provider service.ShowProvider,
	diag *service.Diagnostics,
	sessions *session.Store,
	apiToken string,
	rate limiter.Rate,
) *HTTPHandler {
	return &HTTPHandler{
		provider:  provider,
		diag:      diag,
		sessions:  sessions,
		apiToken:  strings.TrimSpace(apiToken),
		rateLimit: mgin.NewMiddleware(limiter.New(memory.NewStore(), rate)),
	}
}

// NewEngine builds a gin engine with the page templates and all routes
func NewEngine(h *HTTPHandler) (*gin.Engine, error) {
	tmpl, err := ui.LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.SetHTMLTemplate(tmpl)
	h.RegisterRoutes(r)
	return r, nil
}

// RegisterRoutes registers all HTTP routes
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	// Health check stays outside the rate limit for probes
	r.GET("/api/health", h.Health)

	limited := r.Group("/", h.rateLimit)

	// Server-rendered page and its interactions
	limited.GET("/", h.Index)
	limited.POST("/search", h.SubmitSearch)
	limited.POST("/shows/:id/episodes", h.RequestEpisodes)

	api := limited.Group("/api")
	api.GET("/search", h.SearchShows)
	api.GET("/shows/:id/episodes", h.GetEpisodes)
	api.GET("/diagnostics", h.authMiddleware, h.GetDiagnostics)
}

// Index renders the page for the caller's session
func (h *HTTPHandler) Index(c *gin.Context) {
	router := h.session(c)
	c.HTML(http.StatusOK, "index.html", router.View())
}

// SubmitSearch routes a search form submission, then redirects to the page
func (h *HTTPHandler) SubmitSearch(c *gin.Context) {
	router := h.session(c)

	in := ui.Interaction{Type: ui.SearchSubmitted, Query: c.PostForm("q")}
	if err := router.Dispatch(c.Request.Context(), in); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

// RequestEpisodes routes a click on a show's Episodes control
func (h *HTTPHandler) RequestEpisodes(c *gin.Context) {
	showID, ok := h.getIntParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid show id"})
		return
	}

	router := h.session(c)

	in := ui.Interaction{Type: ui.EpisodesRequested, ShowID: showID}
	if err := router.Dispatch(c.Request.Context(), in); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Redirect(http.StatusSeeOther, "/#episodes-area")
}

// SearchShows searches for shows
// Provider failures still answer 200 with an empty list and a message.
func (h *HTTPHandler) SearchShows(c *gin.Context) {
	query := c.Query("q")
	if strings.TrimSpace(query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter is required"})
		return
	}

	messages := &service.MessageLog{}
	finder := service.NewShowFinder(h.provider, h.diag, messages)
	shows := finder.SearchShows(c.Request.Context(), query)

	c.JSON(http.StatusOK, gin.H{
		"shows":    shows,
		"messages": messages.Messages(),
	})
}

// GetEpisodes returns the episode list of one show
func (h *HTTPHandler) GetEpisodes(c *gin.Context) {
	showID, ok := h.getIntParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid show id"})
		return
	}

	messages := &service.MessageLog{}
	browser := service.NewEpisodeBrowser(h.provider, h.diag, messages)
	episodes := browser.GetEpisodes(c.Request.Context(), showID)

	c.JSON(http.StatusOK, gin.H{
		"episodes": episodes,
		"messages": messages.Messages(),
	})
}

// GetDiagnostics returns recent provider failures
func (h *HTTPHandler) GetDiagnostics(c *gin.Context) {
	limit := defaultDiagnosticsLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(n, maxDiagnosticsLimit)
	}

	records, err := h.diag.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"errors": records})
}

// Health returns health status
func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// authMiddleware enforces Bearer token authentication against the configured API token.
func (h *HTTPHandler) authMiddleware(c *gin.Context) {
	expected := h.apiToken
	if expected == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "WEB_API_TOKEN not set"})
		c.Abort()
		return
	}

	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
		c.Abort()
		return
	}

	if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(expected)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		c.Abort()
		return
	}

	c.Next()
}

// Helper functions

// session returns the caller's router, issuing a cookie for new sessions
func (h *HTTPHandler) session(c *gin.Context) *ui.Router {
	id, _ := c.Cookie(session.CookieName)
	newID, router, created := h.sessions.GetOrCreate(id)
	if created {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(session.CookieName, newID, 0, "/", "", false, true)
	}
	return router
}

func (h *HTTPHandler) getIntParam(c *gin.Context, key string) (int, bool) {
	value := c.Param(key)
	if value == "" {
		value = c.Query(key)
	}
	id, err := strconv.Atoi(value)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
