package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/productcompass/compass/internal/services"
	"github.com/productcompass/compass/pkg/response"
)

type InvitationHandler struct {
	invitations *services.InvitationService
}

func NewInvitationHandler(invitations *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitations: invitations}
}

type createInvitationRequest struct {
	Role         string `json:"role" validate:"omitempty,oneof=admin member viewer"`
	Email        string `json:"email" validate:"omitempty,email"`
	ExpiresHours int    `json:"expires_hours" validate:"omitempty,min=1,max=8760"`
	MaxUses      *int   `json:"max_uses" validate:"omitempty,min=1"`
}

type invitationCreatedResponse struct {
	Invitation any    `json:"invitation"`
	Token      string `json:"token"`
}

type invitationPreviewResponse struct {
	RoadmapID   string     `json:"roadmap_id"`
	RoadmapName string     `json:"roadmap_name,omitempty"`
	Role        string     `json:"role"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// POST /api/roadmaps/:id/invitations
func (h *InvitationHandler) Create(c *gin.Context) {
	var req createInvitationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	invitation, token, err := h.invitations.Create(requestContext(c), currentUserID(c), c.Param("id"), services.CreateInvitationInput{
		Role:      req.Role,
		Email:     req.Email,
		ExpiresIn: time.Duration(req.ExpiresHours) * time.Hour,
		MaxUses:   req.MaxUses,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, invitationCreatedResponse{Invitation: invitation, Token: token})
}

// GET /api/roadmaps/:id/invitations
func (h *InvitationHandler) List(c *gin.Context) {
	invitations, err := h.invitations.List(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"invitations": invitations})
}

// GET /api/invitations/:token (public preview)
func (h *InvitationHandler) Preview(c *gin.Context) {
	invitation, err := h.invitations.Preview(requestContext(c), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}

	preview := invitationPreviewResponse{
		RoadmapID: invitation.RoadmapID,
		Role:      invitation.Role,
		ExpiresAt: invitation.ExpiresAt,
	}
	if invitation.Roadmap != nil {
		preview.RoadmapName = invitation.Roadmap.Name
	}
	response.Success(c, http.StatusOK, preview)
}

// POST /api/invitations/:token/redeem
func (h *InvitationHandler) Redeem(c *gin.Context) {
	member, err := h.invitations.Redeem(requestContext(c), currentUserID(c), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, member)
}

// DELETE /api/invitations/:id
func (h *InvitationHandler) Deactivate(c *gin.Context) {
	if err := h.invitations.Deactivate(requestContext(c), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deactivated": true})
}
