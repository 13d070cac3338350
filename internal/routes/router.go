// Package routes wires repositories, services and handlers into the gin engine.
package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/equillibrium/synergy406todo/internal/apperr"
	"github.com/equillibrium/synergy406todo/internal/config"
	"github.com/equillibrium/synergy406todo/internal/handlers"
	"github.com/equillibrium/synergy406todo/internal/repositories"
	"github.com/equillibrium/synergy406todo/internal/services"
)

// SetupRouter builds the gin engine with every endpoint registered.
func SetupRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), apperr.Recovery(), RequestID())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.CORSOrigin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	userRepo := repositories.NewUserRepository(db)
	refreshRepo := repositories.NewRefreshTokenRepository(db)
	todoRepo := repositories.NewTodoRepository(db)

	tokenService := services.NewTokenService(cfg)
	authService := services.NewAuthService(userRepo, refreshRepo, tokenService)
	todoService := services.NewTodoService(todoRepo)

	authHandler := handlers.NewAuthHandler(authService)
	todoHandler := handlers.NewTodoHandler(todoService)

	r.GET("/health", handlers.Health(cfg.Env))

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", AuthMiddleware(tokenService, userRepo), authHandler.Me)
	}

	todos := r.Group("/api/todos")
	todos.Use(AuthMiddleware(tokenService, userRepo))
	{
		todos.GET("", todoHandler.List)
		todos.GET("/stats", todoHandler.Stats)
		todos.GET("/:id", todoHandler.GetByID)
		todos.POST("", todoHandler.Create)
		todos.PUT("/:id", todoHandler.Update)
		todos.DELETE("/completed", todoHandler.DeleteCompleted)
		todos.DELETE("/:id", todoHandler.Delete)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found", "path": c.Request.URL.Path})
	})

	return r
}
