package types

import (
	"time"

	"github.com/pageza/recipebox/backend/internal/model"
)

// RegisterRequest represents the request body for account creation
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Username string `json:"username" binding:"required,min=2,max=50"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// CreateRecipeRequest represents the recipe fields of a create request.
// Required-field checks happen in the service so that drafts and API
// requests share one set of rules.
type CreateRecipeRequest struct {
	Title           string             `json:"title"`
	Category        model.Category     `json:"category"`
	DurationMinutes int                `json:"duration_minutes"`
	Ingredients     []model.Ingredient `json:"ingredients"`
	Steps           []model.Step       `json:"steps"`
}

// UpdateRecipeRequest carries a partial update; nil fields are left unchanged
type UpdateRecipeRequest struct {
	Title             *string             `json:"title"`
	Category          *model.Category     `json:"category"`
	DurationMinutes   *int                `json:"duration_minutes"`
	Ingredients       *[]model.Ingredient `json:"ingredients"`
	Steps             *[]model.Step       `json:"steps"`
	RemoveImage       bool                `json:"remove_image"`
	ExpectedUpdatedAt *time.Time          `json:"expected_updated_at"`
}

// ListRecipesQuery binds the listing filter query string
type ListRecipesQuery struct {
	Ownership   string `form:"ownership"`
	Category    string `form:"category"`
	MaxDuration int    `form:"max_duration"`
	Search      string `form:"q"`
	Author      string `form:"author"`
}

// RecipeListResponse wraps a listing
type RecipeListResponse struct {
	Recipes []*model.Recipe `json:"recipes"`
	Count   int             `json:"count"`
}

// UpdateProfileRequest represents the non-file fields of a profile update
type UpdateProfileRequest struct {
	Username     *string `json:"username"`
	RemoveAvatar bool    `json:"remove_avatar"`
}

// DraftRequest is the body for saving or updating a recipe draft
type DraftRequest struct {
	Title           string             `json:"title"`
	Category        model.Category     `json:"category"`
	DurationMinutes int                `json:"duration_minutes"`
	Ingredients     []model.Ingredient `json:"ingredients"`
	Steps           []model.Step       `json:"steps"`
}
