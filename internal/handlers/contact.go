package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/productcompass/compass/pkg/errors"
	"github.com/productcompass/compass/pkg/logger"
	"github.com/productcompass/compass/pkg/mail"
	"github.com/productcompass/compass/pkg/response"
)

// ContactHandler forwards contact-form submissions to the site owner.
type ContactHandler struct {
	mailer     mail.Mailer
	ownerEmail string
}

func NewContactHandler(mailer mail.Mailer, ownerEmail string) *ContactHandler {
	return &ContactHandler{mailer: mailer, ownerEmail: ownerEmail}
}

type contactRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,max=5000"`
}

// POST /api/contact
func (h *ContactHandler) Submit(c *gin.Context) {
	if h.mailer == nil || h.ownerEmail == "" {
		response.Error(c, appErrors.New("CONTACT_DISABLED", "Contact form is not configured", http.StatusNotImplemented))
		return
	}

	var req contactRequest
	if !bindAndValidate(c, &req) {
		return
	}

	msg := mail.Message{
		To:       []string{h.ownerEmail},
		ReplyTo:  req.Email,
		Subject:  fmt.Sprintf("Contact form message from %s", req.Name),
		TextBody: fmt.Sprintf("From: %s <%s>\n\n%s", req.Name, req.Email, req.Message),
	}

	if err := h.mailer.Send(requestContext(c), msg); err != nil {
		if errors.Is(err, mail.ErrMailDisabled) {
			response.Error(c, appErrors.New("CONTACT_DISABLED", "Contact form is not configured", http.StatusNotImplemented))
			return
		}
		logger.WithModule("contact").Warn("contact mail delivery failed")
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"sent": true})
}
