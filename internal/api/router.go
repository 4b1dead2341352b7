package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/productcompass/compass/internal/access"
	"github.com/productcompass/compass/internal/app"
	iauth "github.com/productcompass/compass/internal/auth"
	"github.com/productcompass/compass/internal/handlers"
	"github.com/productcompass/compass/internal/middleware"
	"github.com/productcompass/compass/internal/services"
	"github.com/productcompass/compass/pkg/mail"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
// The verifier and mailer may be nil when the corresponding integrations are
// disabled via configuration.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, verifier iauth.IdentityVerifier, mailer mail.Mailer, demoOwnerID string) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	rateLimit := cfg.Server.RateLimit
	if rateLimit <= 0 {
		rateLimit = 120
	}
	r.Use(middleware.RateLimit(rateLimit, time.Minute))

	// Health endpoint (public)
	r.GET("/healthz", handlers.Health(db))

	// Metrics endpoint
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	checker, err := access.NewChecker(db)
	if err != nil {
		return nil, err
	}

	svcs, err := buildServices(db, checker, cfg, mailer)
	if err != nil {
		return nil, err
	}

	api := r.Group("/api")
	authed := api.Group("", middleware.Auth(jwt))
	optional := api.Group("", middleware.OptionalAuth(jwt))

	registerAuthRoutes(api, authed, svcs, jwt, verifier)
	registerRoadmapRoutes(authed, optional, svcs)
	registerInvitationRoutes(api, authed, svcs)
	registerShareRoutes(authed, optional, svcs)
	registerExportRoutes(authed, svcs)
	registerContactRoutes(api, cfg, mailer)

	pages, err := registerPageRoutes(r, svcs, demoOwnerID)
	if err != nil {
		return nil, err
	}

	// API paths fall back to a JSON 404, everything else renders the error page.
	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			middleware.NotFoundHandler(c)
			return
		}
		pages.NotFound(c)
	})

	return r, nil
}

// serviceSet bundles the domain services shared by the route groups.
type serviceSet struct {
	users       *services.UserService
	roadmaps    *services.RoadmapService
	features    *services.FeatureService
	personas    *services.PersonaService
	members     *services.MemberService
	invitations *services.InvitationService
	shares      *services.ShareService
	exports     *services.ExportService
	activity    *services.ActivityService
}

func buildServices(db *gorm.DB, checker *access.Checker, cfg *app.Config, mailer mail.Mailer) (*serviceSet, error) {
	activity, err := services.NewActivityService(db)
	if err != nil {
		return nil, err
	}

	users, err := services.NewUserService(db, activity)
	if err != nil {
		return nil, err
	}

	roadmaps, err := services.NewRoadmapService(db, checker, activity)
	if err != nil {
		return nil, err
	}

	features, err := services.NewFeatureService(db, checker, activity)
	if err != nil {
		return nil, err
	}

	personas, err := services.NewPersonaService(db, activity)
	if err != nil {
		return nil, err
	}

	members, err := services.NewMemberService(db, checker, activity)
	if err != nil {
		return nil, err
	}

	invitations, err := services.NewInvitationService(db, checker, activity, mailer,
		services.WithInvitationBaseURL(cfg.Server.BaseURL))
	if err != nil {
		return nil, err
	}

	shares, err := services.NewShareService(db, checker, activity,
		services.WithShareBaseURL(cfg.Server.BaseURL))
	if err != nil {
		return nil, err
	}

	exports, err := services.NewExportService(db, checker, features, activity)
	if err != nil {
		return nil, err
	}

	return &serviceSet{
		users:       users,
		roadmaps:    roadmaps,
		features:    features,
		personas:    personas,
		members:     members,
		invitations: invitations,
		shares:      shares,
		exports:     exports,
		activity:    activity,
	}, nil
}
