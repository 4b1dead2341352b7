package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/productcompass/compass/internal/handlers"
	"github.com/productcompass/compass/internal/middleware"
	"github.com/productcompass/compass/web"
)

func registerPageRoutes(r *gin.Engine, svcs *serviceSet, demoOwnerID string) (*handlers.PageHandler, error) {
	pages, err := handlers.NewPageHandler(svcs.roadmaps, demoOwnerID)
	if err != nil {
		return nil, err
	}

	static, err := web.StaticFS()
	if err != nil {
		return nil, err
	}
	r.StaticFS("/static", http.FS(static))

	r.GET("/", pages.Index)
	r.GET("/login", pages.Login)
	r.GET("/roadmaps", pages.Roadmaps)
	r.GET("/roadmap/:id", pages.Roadmap)
	r.GET("/shared/:token", pages.Shared)
	r.GET("/embed/:token", middleware.EmbedHeaders(), pages.Embed)
	r.GET("/join/:token", pages.Join)
	r.GET("/personas", pages.Personas)
	r.GET("/contact", pages.Contact)
	r.GET("/demo", pages.Demo)

	return pages, nil
}
