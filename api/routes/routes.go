package routes

import (
	"github.com/ArowuTest/topup-callback/internal/config"
	"github.com/ArowuTest/topup-callback/internal/handlers"
	"github.com/ArowuTest/topup-callback/internal/metrics"
	"github.com/ArowuTest/topup-callback/internal/middleware"
	pkgjwt "github.com/ArowuTest/topup-callback/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HandlerDependencies holds everything the router needs
type HandlerDependencies struct {
	CallbackHandler     *handlers.CallbackHandler
	HealthHandler       *handlers.HealthHandler
	TopupHandler        *handlers.TopupHandler
	NotificationHandler *handlers.NotificationHandler

	// Tokens guards the intake API; the API is not mounted when nil.
	Tokens   *pkgjwt.TokenService
	Metrics  *metrics.CallbackMetrics
	Gatherer prometheus.Gatherer
	Log      *zap.Logger
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(deps.Metrics.GinMiddleware())

	router.GET("/", deps.HealthHandler.Home)
	router.GET("/health", deps.HealthHandler.Health)
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Provider callbacks
	router.POST("/callback", deps.CallbackHandler.HandleCallback)
	router.GET("/callback", deps.CallbackHandler.GetStatus)
	router.GET("/callback/:request_id", deps.CallbackHandler.GetStatus)
	router.GET("/callback-check", deps.CallbackHandler.GetStatus)

	// Originator intake API
	if deps.Tokens != nil && deps.TopupHandler != nil {
		protected := router.Group("/api/v1")
		protected.Use(middleware.JWTAuthMiddleware(deps.Tokens, pkgjwt.ScopeIntake, log))
		{
			requests := protected.Group("/requests")
			requests.POST("", deps.TopupHandler.CreateRequest)
			requests.GET("/:request_id", deps.TopupHandler.GetRequest)
			if deps.NotificationHandler != nil {
				requests.GET("/:request_id/notifications", deps.NotificationHandler.GetNotificationsByRequestID)
			}
		}
	}

	return router
}
