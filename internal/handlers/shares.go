package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/productcompass/compass/internal/services"
	"github.com/productcompass/compass/pkg/metrics"
	"github.com/productcompass/compass/pkg/response"
)

type ShareHandler struct {
	shares *services.ShareService
}

func NewShareHandler(shares *services.ShareService) *ShareHandler {
	return &ShareHandler{shares: shares}
}

type createLinkRequest struct {
	Permission   string `json:"permission" validate:"omitempty,oneof=view comment edit"`
	Password     string `json:"password" validate:"omitempty,min=8,max=128"`
	ExpiresHours int    `json:"expires_hours" validate:"omitempty,min=1,max=8760"`
	AllowEmbed   bool   `json:"allow_embed"`
}

type updateLinkRequest struct {
	Permission *string    `json:"permission" validate:"omitempty,oneof=view comment edit"`
	Password   *string    `json:"password" validate:"omitempty,max=128"`
	ExpiresAt  *time.Time `json:"expires_at"`
	AllowEmbed *bool      `json:"allow_embed"`
}

type unlockLinkRequest struct {
	Password string `json:"password" validate:"required"`
}

// POST /api/roadmaps/:id/shares
func (h *ShareHandler) Create(c *gin.Context) {
	var req createLinkRequest
	if !bindAndValidate(c, &req) {
		return
	}

	link, err := h.shares.Create(requestContext(c), currentUserID(c), c.Param("id"), services.CreateLinkInput{
		Permission: req.Permission,
		Password:   req.Password,
		ExpiresIn:  time.Duration(req.ExpiresHours) * time.Hour,
		AllowEmbed: req.AllowEmbed,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, link)
}

// GET /api/roadmaps/:id/shares
func (h *ShareHandler) List(c *gin.Context) {
	links, err := h.shares.List(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"links": links})
}

// PUT /api/shares/:id
func (h *ShareHandler) Update(c *gin.Context) {
	var req updateLinkRequest
	if !bindAndValidate(c, &req) {
		return
	}

	link, err := h.shares.Update(requestContext(c), currentUserID(c), c.Param("id"), services.UpdateLinkInput{
		Permission: req.Permission,
		Password:   req.Password,
		ExpiresAt:  req.ExpiresAt,
		AllowEmbed: req.AllowEmbed,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, link)
}

// DELETE /api/shares/:id
func (h *ShareHandler) Deactivate(c *gin.Context) {
	if err := h.shares.Deactivate(requestContext(c), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deactivated": true})
}

// GET /api/shared/:token serves content for links without a password.
func (h *ShareHandler) Resolve(c *gin.Context) {
	h.resolve(c, "")
}

// POST /api/shared/:token unlocks a password-protected link.
func (h *ShareHandler) Unlock(c *gin.Context) {
	var req unlockLinkRequest
	if !bindAndValidate(c, &req) {
		return
	}
	h.resolve(c, req.Password)
}

func (h *ShareHandler) resolve(c *gin.Context, password string) {
	content, err := h.shares.Resolve(requestContext(c), c.Param("token"), password, services.VisitInfo{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referer:   c.Request.Referer(),
	})
	if err != nil {
		metrics.LinkVisits.WithLabelValues(visitOutcome(err)).Inc()
		response.Error(c, err)
		return
	}

	metrics.LinkVisits.WithLabelValues("ok").Inc()
	response.Success(c, http.StatusOK, content)
}

func visitOutcome(err error) string {
	switch err {
	case services.ErrLinkGone:
		return "gone"
	case services.ErrLinkPasswordRequired, services.ErrLinkPasswordInvalid:
		return "denied"
	default:
		return "error"
	}
}

// GET /api/shares/:id/qr
func (h *ShareHandler) QRCode(c *gin.Context) {
	png, err := h.shares.QRCode(requestContext(c), currentUserID(c), c.Param("id"), parseIntQuery(c, "size", 256))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// GET /api/shares/:id/analytics
func (h *ShareHandler) Analytics(c *gin.Context) {
	visits, err := h.shares.Analytics(requestContext(c), currentUserID(c), c.Param("id"), parseIntQuery(c, "limit", 100))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"visits": visits})
}
