package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/recipebox/backend/internal/middleware"
	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/service"
	"github.com/pageza/recipebox/backend/internal/types"
)

type RecipeHandler struct {
	recipeService service.IRecipeService
	auth          middleware.Authenticator
	rateLimiter   *middleware.RateLimiter
	maxImageBytes int64
}

func NewRecipeHandler(recipeService service.IRecipeService, auth middleware.Authenticator, rateLimiter *middleware.RateLimiter, maxImageBytes int64) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
		auth:          auth,
		rateLimiter:   rateLimiter,
		maxImageBytes: maxImageBytes,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", middleware.OptionalAuth(h.auth), h.ListRecipes)
		recipes.GET("/authors", h.ListAuthors)
		recipes.GET("/:id", h.GetRecipe)

		write := recipes.Group("", middleware.AuthMiddleware(h.auth))
		if h.rateLimiter != nil {
			write.Use(h.rateLimiter.RateLimitMiddleware())
		}
		write.POST("", h.CreateRecipe)
		write.PUT("/:id", h.UpdateRecipe)
		write.DELETE("/:id", h.DeleteRecipe)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	var query types.ListRecipesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		_ = c.Error(badRequest("query", err))
		return
	}

	recipes, err := h.recipeService.List(c.Request.Context(), middleware.CurrentIdentity(c), service.RecipeFilter{
		Ownership:          service.Ownership(query.Ownership),
		Category:           query.Category,
		MaxDurationMinutes: query.MaxDuration,
		Search:             query.Search,
		Author:             query.Author,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	if recipes == nil {
		recipes = []*model.Recipe{}
	}

	c.JSON(http.StatusOK, types.RecipeListResponse{Recipes: recipes, Count: len(recipes)})
}

func (h *RecipeHandler) ListAuthors(c *gin.Context) {
	authors, err := h.recipeService.ListAuthors(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	if authors == nil {
		authors = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"authors": authors})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	recipe, err := h.recipeService.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.CreateRecipeRequest
	if err := bindBody(c, "recipe", &req); err != nil {
		_ = c.Error(err)
		return
	}
	image, err := readImage(c, "image", h.maxImageBytes)
	if err != nil {
		_ = c.Error(err)
		return
	}

	recipe, err := h.recipeService.Create(c.Request.Context(), middleware.CurrentIdentity(c), service.RecipeDraft{
		Title:           req.Title,
		Category:        req.Category,
		DurationMinutes: req.DurationMinutes,
		Ingredients:     req.Ingredients,
		Steps:           req.Steps,
		Image:           image,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	var req types.UpdateRecipeRequest
	if err := bindBody(c, "recipe", &req); err != nil {
		_ = c.Error(err)
		return
	}
	image, err := readImage(c, "image", h.maxImageBytes)
	if err != nil {
		_ = c.Error(err)
		return
	}

	patch := service.RecipePatch{
		Title:             req.Title,
		Category:          req.Category,
		DurationMinutes:   req.DurationMinutes,
		Image:             image,
		RemoveImage:       req.RemoveImage,
		ExpectedUpdatedAt: req.ExpectedUpdatedAt,
	}
	if req.Ingredients != nil {
		patch.Ingredients = *req.Ingredients
		if patch.Ingredients == nil {
			patch.Ingredients = []model.Ingredient{}
		}
	}
	if req.Steps != nil {
		patch.Steps = *req.Steps
		if patch.Steps == nil {
			patch.Steps = []model.Step{}
		}
	}

	recipe, err := h.recipeService.Update(c.Request.Context(), id, middleware.CurrentIdentity(c), patch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	if err := h.recipeService.Delete(c.Request.Context(), id, middleware.CurrentIdentity(c)); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// recipeID parses the :id path parameter. Malformed ids are reported as not
// found since no recipe can have them.
func recipeID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(service.ErrNotFound)
		return uuid.Nil, false
	}
	return id, true
}
