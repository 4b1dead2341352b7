package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/productcompass/compass/internal/services"
	"github.com/productcompass/compass/pkg/response"
)

type PersonaHandler struct {
	personas *services.PersonaService
}

func NewPersonaHandler(personas *services.PersonaService) *PersonaHandler {
	return &PersonaHandler{personas: personas}
}

type personaRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	Age          *int   `json:"age" validate:"omitempty,min=0,max=150"`
	JobTitle     string `json:"job_title" validate:"omitempty,max=255"`
	Demographics string `json:"demographics" validate:"omitempty,max=2000"`
	Behaviors    string `json:"behaviors" validate:"omitempty,max=2000"`
	Goals        string `json:"goals" validate:"omitempty,max=2000"`
	Pains        string `json:"pains" validate:"omitempty,max=2000"`
}

func (r personaRequest) toInput() services.PersonaInput {
	return services.PersonaInput{
		Name:         r.Name,
		Age:          r.Age,
		JobTitle:     r.JobTitle,
		Demographics: r.Demographics,
		Behaviors:    r.Behaviors,
		Goals:        r.Goals,
		Pains:        r.Pains,
	}
}

// GET /api/personas
func (h *PersonaHandler) List(c *gin.Context) {
	personas, err := h.personas.List(requestContext(c), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"personas": personas})
}

// POST /api/personas
func (h *PersonaHandler) Create(c *gin.Context) {
	var req personaRequest
	if !bindAndValidate(c, &req) {
		return
	}

	persona, err := h.personas.Create(requestContext(c), currentUserID(c), req.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, persona)
}

// PUT /api/personas/:id
func (h *PersonaHandler) Update(c *gin.Context) {
	var req personaRequest
	if !bindAndValidate(c, &req) {
		return
	}

	persona, err := h.personas.Update(requestContext(c), currentUserID(c), c.Param("id"), req.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, persona)
}

// DELETE /api/personas/:id
func (h *PersonaHandler) Delete(c *gin.Context) {
	if err := h.personas.Delete(requestContext(c), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
