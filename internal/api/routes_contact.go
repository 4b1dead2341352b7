package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/productcompass/compass/internal/app"
	"github.com/productcompass/compass/internal/handlers"
	"github.com/productcompass/compass/internal/middleware"
	"github.com/productcompass/compass/pkg/mail"
)

func registerContactRoutes(api *gin.RouterGroup, cfg *app.Config, mailer mail.Mailer) {
	handler := handlers.NewContactHandler(mailer, cfg.Contact.OwnerEmail)

	limit := cfg.Contact.RateLimitPerHour
	if limit <= 0 {
		limit = 10
	}

	// Contact submissions carry a tighter rate limit than the rest of the API.
	api.POST("/contact", middleware.RateLimit(limit, time.Hour), handler.Submit)
}
