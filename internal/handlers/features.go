package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/productcompass/compass/internal/services"
	"github.com/productcompass/compass/pkg/response"
)

type FeatureHandler struct {
	features *services.FeatureService
}

func NewFeatureHandler(features *services.FeatureService) *FeatureHandler {
	return &FeatureHandler{features: features}
}

type createFeatureRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status      string `json:"status" validate:"omitempty,oneof=planned in-progress completed"`
	Release     string `json:"release" validate:"omitempty,max=255"`
	Date        string `json:"date" validate:"omitempty,max=64"`
}

type updateFeatureRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status      *string `json:"status" validate:"omitempty,oneof=planned in-progress completed"`
	Release     *string `json:"release" validate:"omitempty,max=255"`
	Date        *string `json:"date" validate:"omitempty,max=64"`
}

// GET /api/roadmaps/:id/features
func (h *FeatureHandler) ListByRoadmap(c *gin.Context) {
	features, err := h.features.ListByRoadmap(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"features": features})
}

// POST /api/roadmaps/:id/features
func (h *FeatureHandler) Create(c *gin.Context) {
	var req createFeatureRequest
	if !bindAndValidate(c, &req) {
		return
	}

	feature, err := h.features.Create(requestContext(c), currentUserID(c), c.Param("id"), services.CreateFeatureInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		Release:     req.Release,
		Date:        req.Date,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, feature)
}

// GET /api/features/:id
func (h *FeatureHandler) Get(c *gin.Context) {
	feature, err := h.features.Get(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, feature)
}

// PUT /api/features/:id
func (h *FeatureHandler) Update(c *gin.Context) {
	var req updateFeatureRequest
	if !bindAndValidate(c, &req) {
		return
	}

	feature, err := h.features.Update(requestContext(c), currentUserID(c), c.Param("id"), services.UpdateFeatureInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		Release:     req.Release,
		Date:        req.Date,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, feature)
}

// DELETE /api/features/:id
func (h *FeatureHandler) Delete(c *gin.Context) {
	if err := h.features.Delete(requestContext(c), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
