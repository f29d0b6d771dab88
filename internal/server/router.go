package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davidzea10/Rawbank/internal/auth"
	"github.com/davidzea10/Rawbank/internal/config"
	"github.com/davidzea10/Rawbank/internal/http/handlers"
	"github.com/davidzea10/Rawbank/internal/http/middleware"
	"github.com/davidzea10/Rawbank/internal/version"
)

const maxRequestBodyBytes = 1 << 20

type Dependencies struct {
	Pinger          handlers.Pinger
	AuthHandler     *handlers.AuthHandler
	OperatorHandler *handlers.OperatorHandler
	ScoreHandler    *handlers.ScoreHandler
	CreditHandler   *handlers.CreditHandler
	JWTManager      *auth.JWTManager
}

func NewRouter(cfg config.Config, logger *slog.Logger, deps Dependencies) *gin.Engine {
	if cfg.Env == "prod" || cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestBodyLimit(maxRequestBodyBytes))
	r.Use(func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Set("request_id", requestID)
		logger.Info("request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path)
		c.Next()
	})

	health := handlers.NewHealthHandler(deps.Pinger)
	meta := handlers.NewMetaHandler(cfg.Env, version.Version)

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/v1/meta", meta.GetMeta)

	if deps.OperatorHandler != nil {
		r.GET("/v1/operators/check/:number", deps.OperatorHandler.CheckNumber)
	}

	if deps.AuthHandler != nil && deps.JWTManager != nil {
		authGroup := r.Group("/v1/auth")
		authGroup.POST("/register", deps.AuthHandler.Register)
		authGroup.POST("/login", deps.AuthHandler.Login)
		authGroup.POST("/refresh", deps.AuthHandler.Refresh)
		authGroup.POST("/logout", deps.AuthHandler.Logout)

		protected := authGroup.Group("")
		protected.Use(middleware.RequireAuth(deps.JWTManager))
		protected.GET("/me", deps.AuthHandler.Me)

		userGroup := r.Group("/v1/users")
		userGroup.Use(middleware.RequireAuth(deps.JWTManager))
		if deps.ScoreHandler != nil {
			userGroup.GET("/:userId/score", deps.ScoreHandler.GetScore)
			userGroup.GET("/:userId/score/diagnose", deps.ScoreHandler.Diagnose)
		}
		if deps.CreditHandler != nil {
			userGroup.POST("/:userId/credits/simulate", deps.CreditHandler.Simulate)
			userGroup.POST("/:userId/credits/request", deps.CreditHandler.CreateRequest)
			userGroup.GET("/:userId/credits", deps.CreditHandler.ListCredits)
			userGroup.GET("/:userId/credits/:creditId/repayments", deps.CreditHandler.ListRepayments)
		}

		if deps.CreditHandler != nil {
			adminGroup := r.Group("/admin")
			adminGroup.Use(middleware.RequireAuth(deps.JWTManager), middleware.RequireRole(auth.RoleAdmin))
			adminGroup.GET("/requests", deps.CreditHandler.ListRequests)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "message": "Route non trouvée"})
	})

	return r
}
