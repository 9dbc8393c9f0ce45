package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipebox/backend/internal/middleware"
	"github.com/pageza/recipebox/backend/internal/models"
	"github.com/pageza/recipebox/backend/internal/service"
	"github.com/pageza/recipebox/backend/internal/types"
)

type ProfileHandler struct {
	profileService service.IProfileService
	auth           middleware.Authenticator
	maxImageBytes  int64
}

func NewProfileHandler(profileService service.IProfileService, auth middleware.Authenticator, maxImageBytes int64) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		auth:           auth,
		maxImageBytes:  maxImageBytes,
	}
}

func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	profile := router.Group("/profile")
	profile.Use(middleware.AuthMiddleware(h.auth))
	{
		profile.GET("", h.GetProfile)
		profile.PUT("", h.UpdateProfile)
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	who := middleware.CurrentIdentity(c)
	if who == nil {
		_ = c.Error(service.ErrUnauthenticated)
		return
	}

	profile, err := h.profileService.GetProfile(c.Request.Context(), who.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profileResponse(profile))
}

// UpdateProfile accepts a JSON body, or a multipart form with a username
// field, an avatar file and a remove_avatar flag.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var update service.ProfileUpdate
	if isMultipart(c) {
		if username, ok := c.GetPostForm("username"); ok {
			update.Username = &username
		}
		update.RemoveAvatar = c.PostForm("remove_avatar") == "true"
		avatar, err := readImage(c, "avatar", h.maxImageBytes)
		if err != nil {
			_ = c.Error(err)
			return
		}
		update.Avatar = avatar
	} else {
		var req types.UpdateProfileRequest
		if err := bindBody(c, "profile", &req); err != nil {
			_ = c.Error(err)
			return
		}
		update.Username = req.Username
		update.RemoveAvatar = req.RemoveAvatar
	}

	profile, err := h.profileService.UpdateProfile(c.Request.Context(), middleware.CurrentIdentity(c), update)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profileResponse(profile))
}

func profileResponse(p *models.UserProfile) types.ProfileResponse {
	return types.ProfileResponse{
		UserID:    p.UserID,
		Username:  p.Username,
		AvatarURL: p.AvatarURL,
	}
}
