package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"nexamediaserver/internal/auth"
	"nexamediaserver/internal/catalog"
	"nexamediaserver/internal/config"
	"nexamediaserver/internal/graphqlapi"
	"nexamediaserver/internal/imaging"
	"nexamediaserver/internal/streaming"
)

// Dependencies collects everything Setup wires into route handlers, the
// same role the teacher's app.AppDependencies plays for its router.Setup.
type Dependencies struct {
	Config        *config.Configuration
	AuthService   *auth.Service
	AuthStore     auth.Store
	MediaParts    catalog.MediaPartRepository
	StreamManager *streaming.Manager
	ImageCache    *imaging.Cache
	TrickplayDir  string
	Acceleration  streaming.HardwareAcceleration
	Resolver      *graphqlapi.Resolver
	StartedAt     time.Time
}

// Setup assembles the gin engine: CORS, then /api/v1 with public auth
// routes, an authenticated group for streaming/imaging, and an admin-only
// group for server management, mirroring the teacher's router.Setup shape.
func Setup(deps Dependencies) *gin.Engine {
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Authorization", "Content-Type"}
	r.Use(cors.New(corsConfig))

	graphqlGroup := r.Group("/graphql")
	graphqlGroup.Use(requireAuth(deps.AuthService))
	graphqlGroup.POST("", graphqlapi.Handler(deps.Resolver))
	graphqlGroup.GET("/subscribe", graphqlapi.SubscriptionHandler(deps.Resolver))

	v1 := r.Group("/api/v1")

	registerAuthRoutes(v1, deps.AuthService)

	authenticated := v1.Group("")
	authenticated.Use(requireAuth(deps.AuthService))
	{
		registerStreamingRoutes(authenticated, deps.StreamManager, deps.MediaParts, deps.Acceleration)
		registerImagingRoutes(authenticated, deps.ImageCache, deps.TrickplayDir)
	}

	adminRoutes := v1.Group("/admin")
	adminRoutes.Use(requireAuth(deps.AuthService), requireAdmin(deps.AuthService, deps.AuthStore.FindUserByID))
	{
		registerManageRoutes(adminRoutes, deps.Config, deps.StartedAt)
	}

	return r
}
