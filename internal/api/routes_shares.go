package api

import (
	"github.com/gin-gonic/gin"

	"github.com/productcompass/compass/internal/handlers"
)

func registerShareRoutes(authed, optional *gin.RouterGroup, svcs *serviceSet) {
	handler := handlers.NewShareHandler(svcs.shares)

	// Shared content is resolved by token without a session. Unlock accepts
	// the password for protected links.
	optional.GET("/shared/:token", handler.Resolve)
	optional.POST("/shared/:token", handler.Unlock)

	// The QR code route is registered without a session requirement so the
	// service-level permission check decides access.
	optional.GET("/shares/:id/qr", handler.QRCode)

	shares := authed.Group("/shares")
	{
		shares.PUT("/:id", handler.Update)
		shares.DELETE("/:id", handler.Deactivate)
		shares.GET("/:id/analytics", handler.Analytics)
	}

	roadmaps := authed.Group("/roadmaps/:id/shares")
	{
		roadmaps.GET("", handler.List)
		roadmaps.POST("", handler.Create)
	}
}
