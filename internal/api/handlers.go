package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/internal/database"
	"github.com/pageza/recipebox/backend/internal/middleware"
	"github.com/pageza/recipebox/backend/internal/service"
)

// Dependencies are the services the HTTP API is built on.
type Dependencies struct {
	DB            *gorm.DB
	Auth          service.IAuthService
	Recipes       service.IRecipeService
	Profiles      service.IProfileService
	Drafts        service.IDraftService
	RateLimiter   *middleware.RateLimiter
	MaxImageBytes int64
}

// HealthCheck reports whether the API and its database are reachable
func HealthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			if err := database.HealthCheck(c.Request.Context(), db); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unhealthy",
					"error":  err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Recipebox API is running",
		})
	}
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	// Health check endpoint (no auth required)
	router.GET("/health", HealthCheck(deps.DB))
	router.GET("/api/health", HealthCheck(deps.DB))

	v1 := router.Group("/api/v1")
	NewAuthHandler(deps.Auth).RegisterRoutes(v1)
	NewRecipeHandler(deps.Recipes, deps.Auth, deps.RateLimiter, deps.MaxImageBytes).RegisterRoutes(v1)
	NewProfileHandler(deps.Profiles, deps.Auth, deps.MaxImageBytes).RegisterRoutes(v1)
	NewDraftHandler(deps.Drafts, deps.Auth, deps.MaxImageBytes).RegisterRoutes(v1)
}
