package handlers

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/productcompass/compass/internal/services"
	"github.com/productcompass/compass/pkg/logger"
	"github.com/productcompass/compass/web"
)

// PageHandler renders the server-side HTML pages. All data loading happens
// client-side against the JSON API; pages only carry route parameters.
type PageHandler struct {
	templates *template.Template
	roadmaps  *services.RoadmapService
	demoOwner string
}

func NewPageHandler(roadmaps *services.RoadmapService, demoOwnerID string) (*PageHandler, error) {
	templates, err := web.Templates()
	if err != nil {
		return nil, err
	}
	return &PageHandler{templates: templates, roadmaps: roadmaps, demoOwner: demoOwnerID}, nil
}

type pageData struct {
	Title     string
	Embedded  bool
	RoadmapID string
	Token     string
	Status    string
	Message   string
}

func (h *PageHandler) render(c *gin.Context, status int, name string, data pageData) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		logger.WithModule("pages").Error("template render failed")
	}
}

// GET /
func (h *PageHandler) Index(c *gin.Context) {
	h.render(c, http.StatusOK, "index.html", pageData{Title: "Roadmap planning"})
}

// GET /login
func (h *PageHandler) Login(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", pageData{Title: "Sign in"})
}

// GET /roadmaps
func (h *PageHandler) Roadmaps(c *gin.Context) {
	h.render(c, http.StatusOK, "roadmaps.html", pageData{Title: "Roadmaps"})
}

// GET /roadmap/:id
func (h *PageHandler) Roadmap(c *gin.Context) {
	h.render(c, http.StatusOK, "roadmap.html", pageData{Title: "Roadmap", RoadmapID: c.Param("id")})
}

// GET /shared/:token
func (h *PageHandler) Shared(c *gin.Context) {
	h.render(c, http.StatusOK, "shared.html", pageData{Title: "Shared roadmap", Token: c.Param("token")})
}

// GET /embed/:token
func (h *PageHandler) Embed(c *gin.Context) {
	h.render(c, http.StatusOK, "embed.html", pageData{
		Title:    "Shared roadmap",
		Token:    c.Param("token"),
		Embedded: true,
	})
}

// GET /join/:token
func (h *PageHandler) Join(c *gin.Context) {
	h.render(c, http.StatusOK, "join.html", pageData{Title: "Join roadmap", Token: c.Param("token")})
}

// GET /personas
func (h *PageHandler) Personas(c *gin.Context) {
	h.render(c, http.StatusOK, "personas.html", pageData{Title: "Personas"})
}

// GET /contact
func (h *PageHandler) Contact(c *gin.Context) {
	h.render(c, http.StatusOK, "contact.html", pageData{Title: "Contact"})
}

// GET /demo materialises the public demo roadmap and redirects to it.
func (h *PageHandler) Demo(c *gin.Context) {
	roadmap, err := h.roadmaps.EnsureDemo(requestContext(c), h.demoOwner)
	if err != nil {
		h.Error(c, http.StatusInternalServerError, "The demo is unavailable right now.")
		return
	}
	c.Redirect(http.StatusFound, "/roadmap/"+roadmap.ID)
}

// Error renders the error page for non-API routes.
func (h *PageHandler) Error(c *gin.Context, status int, message string) {
	h.render(c, status, "error.html", pageData{
		Title:   http.StatusText(status),
		Status:  http.StatusText(status),
		Message: message,
	})
}

// NotFound is the page fallback for unknown non-API routes.
func (h *PageHandler) NotFound(c *gin.Context) {
	h.Error(c, http.StatusNotFound, "The page you were looking for does not exist.")
}
