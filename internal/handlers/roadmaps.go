package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/productcompass/compass/internal/services"
	"github.com/productcompass/compass/pkg/response"
)

type RoadmapHandler struct {
	roadmaps *services.RoadmapService
}

func NewRoadmapHandler(roadmaps *services.RoadmapService) *RoadmapHandler {
	return &RoadmapHandler{roadmaps: roadmaps}
}

type createRoadmapRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	IsPublic    bool   `json:"is_public"`
	Template    string `json:"template" validate:"omitempty,max=64"`
}

type updateRoadmapRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IsPublic    *bool   `json:"is_public"`
}

// GET /api/roadmaps
func (h *RoadmapHandler) List(c *gin.Context) {
	roadmaps, err := h.roadmaps.List(requestContext(c), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"roadmaps": roadmaps})
}

// POST /api/roadmaps
func (h *RoadmapHandler) Create(c *gin.Context) {
	var req createRoadmapRequest
	if !bindAndValidate(c, &req) {
		return
	}

	roadmap, err := h.roadmaps.Create(requestContext(c), currentUserID(c), services.CreateRoadmapInput{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		Template:    req.Template,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, roadmap)
}

// GET /api/roadmaps/:id
func (h *RoadmapHandler) Get(c *gin.Context) {
	roadmap, err := h.roadmaps.GetByID(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, roadmap)
}

// PUT /api/roadmaps/:id
func (h *RoadmapHandler) Update(c *gin.Context) {
	var req updateRoadmapRequest
	if !bindAndValidate(c, &req) {
		return
	}

	roadmap, err := h.roadmaps.Update(requestContext(c), currentUserID(c), c.Param("id"), services.UpdateRoadmapInput{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, roadmap)
}

// DELETE /api/roadmaps/:id
func (h *RoadmapHandler) Delete(c *gin.Context) {
	if err := h.roadmaps.Delete(requestContext(c), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
