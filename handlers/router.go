package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"sentinel-cctv/be/config"
	"sentinel-cctv/be/logger"
	"sentinel-cctv/be/middleware"
	"sentinel-cctv/be/notify"
	"sentinel-cctv/be/services"
	"sentinel-cctv/be/store"
)

// Deps collects what the router needs. Hub, MediaMTX and Probe are optional.
type Deps struct {
	Config    *config.Config
	Store     store.Store
	Publisher notify.Publisher
	Hub       *notify.Hub
	MediaMTX  *services.MediaMTXService
	Probe     *services.ProbeService
	Now       func() time.Time
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.Server.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Publisher == nil && d.Hub != nil {
		d.Publisher = d.Hub
	}
	// patches reject unknown keys
	binding.EnableDecoderDisallowUnknownFields = true

	log := logger.GetLoggerWith("http")

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(log))
	router.Use(gin.Recovery())
	router.Use(middleware.Metrics())
	router.Use(cors.New(corsConfig(d.Config.Security.CORSOrigins)))
	if d.Config.Security.RateLimit {
		limiter := middleware.NewRateLimiterStore(rate.Limit(d.Config.Security.RateLimitRPS), d.Config.Security.RateLimitBurst, middleware.DefaultLimiterIdleTTL)
		router.Use(middleware.RateLimit(limiter))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if d.Hub != nil {
		router.GET("/ws", gin.WrapF(d.Hub.ServeWS))
	}

	n := &notifier{pub: d.Publisher, store: d.Store, log: logger.GetLoggerWith("notifier")}
	stats := services.NewStatsService(d.Store, d.Now)

	authHandler := NewAuthHandler(d.Store, d.Config.JWT, d.Config.Security.PasswordMode, d.Now)
	cameraHandler := NewCameraHandler(d.Store, n, d.MediaMTX, d.Probe)
	dashboardHandler := NewDashboardHandler(d.Store, stats, services.NewAssistant(d.Store, stats), n)

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", middleware.AuthMiddleware(d.Config.JWT.Secret, true, d.Now), authHandler.GetMe)
		auth.POST("/logout", authHandler.Logout)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(d.Config.JWT.Secret, d.Config.JWT.Enforce, d.Now))
	{
		users := userResource(d.Store, d.Config.Security.PasswordMode, logger.GetLoggerWith("handlers.user"))
		users.register(protected.Group("/users"))
		users.register(protected.Group("/accounts"))

		cameraHandler.register(protected.Group("/cameras"))
		zoneResource(d.Store, logger.GetLoggerWith("handlers.zone")).register(protected.Group("/zones"))
		alertResource(d.Store, n, logger.GetLoggerWith("handlers.alert")).register(protected.Group("/alerts"))
		employeeResource(d.Store, n, logger.GetLoggerWith("handlers.employee")).register(protected.Group("/employees"))
		subscriptionPlanResource(d.Store, logger.GetLoggerWith("handlers.plan")).register(protected.Group("/subscription-plans"))
		demoRequestResource(d.Store, logger.GetLoggerWith("handlers.demo")).register(protected.Group("/demo-requests"))
		searchQueryResource(d.Store, logger.GetLoggerWith("handlers.search")).register(protected.Group("/search-queries"))
		recordingResource(d.Store, logger.GetLoggerWith("handlers.recording")).register(protected.Group("/recordings"))

		protected.GET("/settings", dashboardHandler.GetSettings)
		protected.PUT("/settings", dashboardHandler.UpdateSettings)
		protected.GET("/stats", dashboardHandler.GetStats)
		protected.POST("/chat", dashboardHandler.Chat)
		protected.POST("/notifications/broadcast", dashboardHandler.Broadcast)
	}

	return router
}

// corsConfig allows the configured origins, or any origin when none is set.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
