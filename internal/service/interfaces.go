package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/models"
	"github.com/pageza/recipebox/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	IdentityResolver
	Register(ctx context.Context, email, password, username string) (*models.UserProfile, string, error)
	Login(ctx context.Context, email, password string) (*models.UserProfile, string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
	GenerateToken(claims *types.TokenClaims) (string, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	Create(ctx context.Context, author *Identity, draft RecipeDraft) (*model.Recipe, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Recipe, error)
	Update(ctx context.Context, id uuid.UUID, editor *Identity, patch RecipePatch) (*model.Recipe, error)
	Delete(ctx context.Context, id uuid.UUID, editor *Identity) error
	List(ctx context.Context, viewer *Identity, filter RecipeFilter) ([]*model.Recipe, error)
	ListAuthors(ctx context.Context) ([]string, error)
}

// IProfileService defines the interface for user profile operations
type IProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, who *Identity, update ProfileUpdate) (*models.UserProfile, error)
}

// IDraftService defines the interface for recipe draft operations
type IDraftService interface {
	SaveDraft(ctx context.Context, author *Identity, draft Draft) (*Draft, error)
	GetDraft(ctx context.Context, author *Identity, id string) (*Draft, error)
	UpdateDraft(ctx context.Context, author *Identity, id string, draft Draft) (*Draft, error)
	DeleteDraft(ctx context.Context, author *Identity, id string) error
	PublishDraft(ctx context.Context, author *Identity, id string, image *ImageUpload) (*model.Recipe, error)
}
