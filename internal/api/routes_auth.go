package api

import (
	"github.com/gin-gonic/gin"

	iauth "github.com/productcompass/compass/internal/auth"
	"github.com/productcompass/compass/internal/handlers"
)

func registerAuthRoutes(api, authed *gin.RouterGroup, svcs *serviceSet, jwt *iauth.JWTService, verifier iauth.IdentityVerifier) {
	handler := handlers.NewAuthHandler(svcs.users, jwt, verifier)

	auth := api.Group("/auth")
	{
		auth.POST("/register", handler.Register)
		auth.POST("/login", handler.Login)
		auth.POST("/token", handler.Token)
	}

	me := authed.Group("/auth/me")
	{
		me.GET("", handler.Me)
		me.PUT("", handler.UpdateMe)
		me.DELETE("", handler.DeleteMe)
	}

	activityHandler := handlers.NewActivityHandler(svcs.activity)
	authed.GET("/activity", activityHandler.List)
}
