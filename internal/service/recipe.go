package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/internal/model"
)

// RecipeDraft is the input of Create.
type RecipeDraft struct {
	Title           string
	Category        model.Category
	DurationMinutes int
	Ingredients     []model.Ingredient
	Steps           []model.Step
	Image           *ImageUpload
}

// RecipePatch holds the fields an update changes; nil fields are kept.
type RecipePatch struct {
	Title           *string
	Category        *model.Category
	DurationMinutes *int
	Ingredients     []model.Ingredient
	Steps           []model.Step
	Image           *ImageUpload
	RemoveImage     bool
	// ExpectedUpdatedAt, when set, rejects the update with ErrConflict if the
	// recipe changed since the caller read it.
	ExpectedUpdatedAt *time.Time
}

// RecipeService handles recipe operations
type RecipeService struct {
	db     *gorm.DB
	media  *MediaManager
	logger *slog.Logger
	now    func() time.Time
}

// Ensure RecipeService implements IRecipeService
var _ IRecipeService = (*RecipeService)(nil)

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, media *MediaManager) *RecipeService {
	return &RecipeService{
		db:     db,
		media:  media,
		logger: slog.Default().With("component", "recipes"),
		now:    defaultNow,
	}
}

// Timestamps are kept at microsecond precision so they survive a postgres
// round trip unchanged.
func defaultNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// SetClock replaces the time source. Intended for tests.
func (s *RecipeService) SetClock(now func() time.Time) {
	s.now = now
}

// Create validates draft, stores its image and inserts the recipe owned by author.
func (s *RecipeService) Create(ctx context.Context, author *Identity, draft RecipeDraft) (*model.Recipe, error) {
	if author == nil {
		return nil, ErrUnauthenticated
	}

	now := s.now()
	recipe := &model.Recipe{
		ID:                uuid.New(),
		CreatedAt:         now,
		UpdatedAt:         now,
		Title:             strings.TrimSpace(draft.Title),
		Category:          draft.Category,
		DurationMinutes:   draft.DurationMinutes,
		Ingredients:       model.CleanIngredients(draft.Ingredients),
		Steps:             model.CleanSteps(draft.Steps),
		AuthorID:          author.ID,
		AuthorDisplayName: author.DisplayName,
	}
	if err := validateRecipe(recipe); err != nil {
		return nil, err
	}

	insert := func() error {
		if err := s.db.WithContext(ctx).Create(recipe).Error; err != nil {
			return fmt.Errorf("insert recipe: %w", err)
		}
		return nil
	}

	if draft.Image == nil {
		if err := insert(); err != nil {
			return nil, err
		}
	} else {
		_, err := s.media.Replace(ctx, author.ID.String(), nil, *draft.Image, func(ref string) error {
			recipe.ImageURL = &ref
			if err := insert(); err != nil {
				recipe.ImageURL = nil
				return err
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	s.logger.Info("created recipe", "recipe_id", recipe.ID, "author_id", author.ID)
	return recipe, nil
}

// Get returns a recipe by id. Reading is public.
func (s *RecipeService) Get(ctx context.Context, id uuid.UUID) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// authorize loads the recipe and checks editor owns it.
func (s *RecipeService) authorize(ctx context.Context, id uuid.UUID, editor *Identity) (*model.Recipe, error) {
	recipe, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if editor == nil {
		return nil, ErrUnauthenticated
	}
	if editor.ID != recipe.AuthorID {
		return nil, ErrNotOwner
	}
	return recipe, nil
}

// Update merges patch over the stored recipe. Only the author may update.
func (s *RecipeService) Update(ctx context.Context, id uuid.UUID, editor *Identity, patch RecipePatch) (*model.Recipe, error) {
	existing, err := s.authorize(ctx, id, editor)
	if err != nil {
		return nil, err
	}
	if patch.ExpectedUpdatedAt != nil && !patch.ExpectedUpdatedAt.Equal(existing.UpdatedAt) {
		return nil, ErrConflict
	}
	if patch.Image != nil && patch.RemoveImage {
		return nil, invalid("image", "cannot upload and remove an image in the same update")
	}

	merged := *existing
	if patch.Title != nil {
		merged.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Category != nil {
		merged.Category = *patch.Category
	}
	if patch.DurationMinutes != nil {
		merged.DurationMinutes = *patch.DurationMinutes
	}
	if patch.Ingredients != nil {
		merged.Ingredients = model.CleanIngredients(patch.Ingredients)
	}
	if patch.Steps != nil {
		merged.Steps = model.CleanSteps(patch.Steps)
	}
	if err := validateRecipe(&merged); err != nil {
		return nil, err
	}
	merged.UpdatedAt = s.now()
	if !merged.UpdatedAt.After(existing.UpdatedAt) {
		merged.UpdatedAt = existing.UpdatedAt.Add(time.Microsecond)
	}

	var guard *time.Time
	if patch.ExpectedUpdatedAt != nil {
		guard = &existing.UpdatedAt
	}

	switch {
	case patch.Image != nil:
		_, err := s.media.Replace(ctx, editor.ID.String(), existing.ImageURL, *patch.Image, func(ref string) error {
			merged.ImageURL = &ref
			return s.save(ctx, &merged, guard)
		})
		if err != nil {
			return nil, err
		}
	case patch.RemoveImage:
		merged.ImageURL = nil
		if err := s.save(ctx, &merged, guard); err != nil {
			return nil, err
		}
		s.media.Remove(ctx, existing.ImageURL)
	default:
		if err := s.save(ctx, &merged, guard); err != nil {
			return nil, err
		}
	}

	s.logger.Info("updated recipe", "recipe_id", id)
	return &merged, nil
}

// save writes every mutable column of r. With guard set the row must still
// carry that updated_at, otherwise ErrConflict is returned.
func (s *RecipeService) save(ctx context.Context, r *model.Recipe, guard *time.Time) error {
	q := s.db.WithContext(ctx).Model(&model.Recipe{}).Where("id = ?", r.ID)
	if guard != nil {
		q = q.Where("updated_at = ?", *guard)
	}
	res := q.Updates(map[string]interface{}{
		"title":            r.Title,
		"category":         r.Category,
		"duration_minutes": r.DurationMinutes,
		"ingredients":      r.Ingredients,
		"steps":            r.Steps,
		"image_url":        r.ImageURL,
		"updated_at":       r.UpdatedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("update recipe: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if guard != nil {
			return ErrConflict
		}
		return ErrNotFound
	}
	return nil
}

// Delete removes the recipe and then its image. Only the author may delete.
func (s *RecipeService) Delete(ctx context.Context, id uuid.UUID, editor *Identity) error {
	existing, err := s.authorize(ctx, id, editor)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Delete(&model.Recipe{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete recipe: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	s.media.Remove(ctx, existing.ImageURL)
	s.logger.Info("deleted recipe", "recipe_id", id)
	return nil
}

// List returns the recipes selected by filter for viewer, newest first.
func (s *RecipeService) List(ctx context.Context, viewer *Identity, filter RecipeFilter) ([]*model.Recipe, error) {
	f, err := filter.Normalize()
	if err != nil {
		return nil, err
	}

	var recipes []*model.Recipe
	err = s.db.WithContext(ctx).
		Model(&model.Recipe{}).
		Scopes(f.Scopes(viewer)...).
		Order("created_at DESC").
		Order("id DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return f.applySearch(recipes), nil
}

// ListAuthors returns the distinct author display names, sorted.
func (s *RecipeService) ListAuthors(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&model.Recipe{}).
		Distinct().
		Order("author_display_name").
		Pluck("author_display_name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	return names, nil
}

func validateRecipe(r *model.Recipe) error {
	if r.Title == "" {
		return invalid("title", "is required")
	}
	if r.Category == "" {
		return invalid("category", "is required")
	}
	if !r.Category.Valid() {
		return invalid("category", "unknown category %q", r.Category)
	}
	if r.DurationMinutes <= 0 {
		return invalid("duration_minutes", "must be greater than zero")
	}
	if len(r.Ingredients) == 0 {
		return invalid("ingredients", "at least one ingredient with a name and quantity is required")
	}
	if len(r.Steps) == 0 {
		return invalid("steps", "at least one step is required")
	}
	return nil
}
