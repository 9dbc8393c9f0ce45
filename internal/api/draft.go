package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipebox/backend/internal/middleware"
	"github.com/pageza/recipebox/backend/internal/service"
	"github.com/pageza/recipebox/backend/internal/types"
)

// DraftHandler serves the recipe drafts of the authenticated user.
type DraftHandler struct {
	draftService  service.IDraftService
	auth          middleware.Authenticator
	maxImageBytes int64
}

func NewDraftHandler(draftService service.IDraftService, auth middleware.Authenticator, maxImageBytes int64) *DraftHandler {
	return &DraftHandler{
		draftService:  draftService,
		auth:          auth,
		maxImageBytes: maxImageBytes,
	}
}

func (h *DraftHandler) RegisterRoutes(router *gin.RouterGroup) {
	drafts := router.Group("/drafts")
	drafts.Use(middleware.AuthMiddleware(h.auth))
	{
		drafts.POST("", h.SaveDraft)
		drafts.GET("/:id", h.GetDraft)
		drafts.PUT("/:id", h.UpdateDraft)
		drafts.DELETE("/:id", h.DeleteDraft)
		drafts.POST("/:id/publish", h.PublishDraft)
	}
}

func draftFromRequest(req types.DraftRequest) service.Draft {
	return service.Draft{
		Title:           req.Title,
		Category:        req.Category,
		DurationMinutes: req.DurationMinutes,
		Ingredients:     req.Ingredients,
		Steps:           req.Steps,
	}
}

func (h *DraftHandler) SaveDraft(c *gin.Context) {
	var req types.DraftRequest
	if err := bindBody(c, "draft", &req); err != nil {
		_ = c.Error(err)
		return
	}

	draft, err := h.draftService.SaveDraft(c.Request.Context(), middleware.CurrentIdentity(c), draftFromRequest(req))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, draft)
}

func (h *DraftHandler) GetDraft(c *gin.Context) {
	draft, err := h.draftService.GetDraft(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (h *DraftHandler) UpdateDraft(c *gin.Context) {
	var req types.DraftRequest
	if err := bindBody(c, "draft", &req); err != nil {
		_ = c.Error(err)
		return
	}

	draft, err := h.draftService.UpdateDraft(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), draftFromRequest(req))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (h *DraftHandler) DeleteDraft(c *gin.Context) {
	if err := h.draftService.DeleteDraft(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PublishDraft turns the draft into a recipe. An optional image file may be
// attached as a multipart field named image.
func (h *DraftHandler) PublishDraft(c *gin.Context) {
	image, err := readImage(c, "image", h.maxImageBytes)
	if err != nil {
		_ = c.Error(err)
		return
	}

	recipe, err := h.draftService.PublishDraft(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), image)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}
