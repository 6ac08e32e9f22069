package router

import (
	"context"
	"time"

	"github.com/calabozos/calabozos-backend/internal/config"
	"github.com/calabozos/calabozos-backend/internal/handler"
	"github.com/calabozos/calabozos-backend/internal/middleware"
	"github.com/calabozos/calabozos-backend/internal/response"
	"github.com/calabozos/calabozos-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Login attempts allowed per client IP and minute.
const loginRatePerMinute = 10

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth   *handler.AuthHandler
	Class  *handler.ClassHandler
	Web    *handler.WebHandler
	System *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds the background work of the rate limiter.
func SetupRouter(
	ctx context.Context,
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// Request ID first so the request log can carry it.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list and allow
	// the token cookie; otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", handlers.System.Health)

	requireJWT := middleware.RequireJWT(authService)

	// ─── 1. API ────────────────────────────────────────────────────────
	api := router.Group("/api")
	api.Use(middleware.NoStore())
	{
		loginLimiter := middleware.NewRateLimiter(ctx, loginRatePerMinute, time.Minute)
		api.POST("/login", loginLimiter.Middleware(), handlers.Auth.Login)

		api.POST("/logout", requireJWT, handlers.Auth.Logout)
		api.GET("/user", requireJWT, handlers.Auth.Me)
	}

	// ─── 2. Classes (JWT) ──────────────────────────────────────────────
	calabozos := api.Group("/calabozos")
	calabozos.Use(requireJWT)
	{
		calabozos.GET("/classes", handlers.Class.SyncClasses)
		calabozos.GET("/stored-classes", handlers.Class.StoredClasses)

		class := calabozos.Group("/classes/:index")
		{
			class.GET("", handlers.Class.GetClass)
			class.GET("/spellcasting", handlers.Class.GetSpellcasting)
			class.GET("/multiclassing", handlers.Class.GetMulticlassing)
			class.GET("/subclasses", handlers.Class.GetSubclasses)
			class.GET("/spells", handlers.Class.GetSpells)
			class.GET("/features", handlers.Class.GetFeatures)
			class.GET("/proficiencies", handlers.Class.GetProficiencies)
		}
	}

	// ─── 3. Web pages (JWT cookie) ─────────────────────────────────────
	web := router.Group("/calabozos")
	web.Use(requireJWT, middleware.CacheControl("private, no-cache"))
	{
		web.GET("/classes", handlers.Web.ClassesPage)
	}

	return router
}
