package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/productcompass/compass/internal/services"
	"github.com/productcompass/compass/pkg/response"
)

type MemberHandler struct {
	members *services.MemberService
}

func NewMemberHandler(members *services.MemberService) *MemberHandler {
	return &MemberHandler{members: members}
}

type updateMemberRequest struct {
	Role string `json:"role" validate:"required,oneof=admin member viewer"`
}

// GET /api/roadmaps/:id/members
func (h *MemberHandler) List(c *gin.Context) {
	members, err := h.members.List(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"members": members})
}

// PUT /api/roadmaps/:id/members/:userID
func (h *MemberHandler) UpdateRole(c *gin.Context) {
	var req updateMemberRequest
	if !bindAndValidate(c, &req) {
		return
	}

	member, err := h.members.UpdateRole(requestContext(c), currentUserID(c), c.Param("id"), c.Param("userID"), req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, member)
}

// DELETE /api/roadmaps/:id/members/:userID
func (h *MemberHandler) Remove(c *gin.Context) {
	if err := h.members.Remove(requestContext(c), currentUserID(c), c.Param("id"), c.Param("userID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}
