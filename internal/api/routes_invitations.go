package api

import (
	"github.com/gin-gonic/gin"

	"github.com/productcompass/compass/internal/handlers"
)

func registerInvitationRoutes(api, authed *gin.RouterGroup, svcs *serviceSet) {
	handler := handlers.NewInvitationHandler(svcs.invitations)

	// Preview is public so an invitee can inspect the invitation before
	// signing in. Redemption always requires a session.
	api.GET("/invitations/:token", handler.Preview)

	authed.POST("/invitations/:token/redeem", handler.Redeem)
	authed.DELETE("/invitations/:id", handler.Deactivate)

	roadmaps := authed.Group("/roadmaps/:id/invitations")
	{
		roadmaps.GET("", handler.List)
		roadmaps.POST("", handler.Create)
	}
}
