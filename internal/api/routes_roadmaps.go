package api

import (
	"github.com/gin-gonic/gin"

	"github.com/productcompass/compass/internal/handlers"
)

func registerRoadmapRoutes(authed, optional *gin.RouterGroup, svcs *serviceSet) {
	roadmapHandler := handlers.NewRoadmapHandler(svcs.roadmaps)
	featureHandler := handlers.NewFeatureHandler(svcs.features)
	memberHandler := handlers.NewMemberHandler(svcs.members)
	personaHandler := handlers.NewPersonaHandler(svcs.personas)

	// Public roadmaps stay readable without a session; the services resolve
	// visibility from the (possibly empty) user id.
	optional.GET("/roadmaps/:id", roadmapHandler.Get)
	optional.GET("/roadmaps/:id/features", featureHandler.ListByRoadmap)

	roadmaps := authed.Group("/roadmaps")
	{
		roadmaps.GET("", roadmapHandler.List)
		roadmaps.POST("", roadmapHandler.Create)
		roadmaps.PUT("/:id", roadmapHandler.Update)
		roadmaps.DELETE("/:id", roadmapHandler.Delete)

		roadmaps.POST("/:id/features", featureHandler.Create)

		roadmaps.GET("/:id/members", memberHandler.List)
		roadmaps.PUT("/:id/members/:userID", memberHandler.UpdateRole)
		roadmaps.DELETE("/:id/members/:userID", memberHandler.Remove)
	}

	features := authed.Group("/features")
	{
		features.GET("/:id", featureHandler.Get)
		features.PUT("/:id", featureHandler.Update)
		features.DELETE("/:id", featureHandler.Delete)
	}

	personas := authed.Group("/personas")
	{
		personas.GET("", personaHandler.List)
		personas.POST("", personaHandler.Create)
		personas.PUT("/:id", personaHandler.Update)
		personas.DELETE("/:id", personaHandler.Delete)
	}
}
