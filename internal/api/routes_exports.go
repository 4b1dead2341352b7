package api

import (
	"github.com/gin-gonic/gin"

	"github.com/productcompass/compass/internal/handlers"
)

func registerExportRoutes(authed *gin.RouterGroup, svcs *serviceSet) {
	handler := handlers.NewExportHandler(svcs.exports)

	roadmaps := authed.Group("/roadmaps/:id")
	{
		roadmaps.GET("/export/csv", handler.ExportCSV)
		roadmaps.GET("/export/json", handler.ExportJSON)
		roadmaps.POST("/import", handler.Import)
	}

	authed.GET("/exports/history", handler.History)
}
