package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/productcompass/compass/internal/services"
	"github.com/productcompass/compass/pkg/response"
)

type ActivityHandler struct {
	activity *services.ActivityService
}

func NewActivityHandler(activity *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// GET /api/activity
func (h *ActivityHandler) List(c *gin.Context) {
	entries, err := h.activity.ListForUser(requestContext(c), currentUserID(c), parseIntQuery(c, "limit", 50))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"activity": entries})
}
