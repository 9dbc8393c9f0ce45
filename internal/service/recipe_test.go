package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/service"
	"github.com/pageza/recipebox/backend/internal/storage"
	"github.com/pageza/recipebox/backend/internal/testhelpers"
)

type recipeFixture struct {
	db      *gorm.DB
	store   *storage.MemoryBlobStore
	cleanup *cleanupLog
	svc     *service.RecipeService
	alice   *service.Identity
	bob     *service.Identity
}

func setupRecipes(t *testing.T) *recipeFixture {
	t.Helper()
	return setupRecipesOn(t, testhelpers.SetupSQLite(t))
}

func setupRecipesOn(t *testing.T, db *gorm.DB) *recipeFixture {
	t.Helper()
	store := storage.NewMemoryBlobStore("recipes")
	log := &cleanupLog{}
	media := service.NewMediaManager(store, service.WithCleanupHook(log.hook))

	return &recipeFixture{
		db:      db,
		store:   store,
		cleanup: log,
		svc:     service.NewRecipeService(db, media),
		alice:   testhelpers.CreateUser(t, db, "alice"),
		bob:     testhelpers.CreateUser(t, db, "bob"),
	}
}

func (f *recipeFixture) create(t *testing.T, author *service.Identity, draft service.RecipeDraft) *model.Recipe {
	t.Helper()
	recipe, err := f.svc.Create(context.Background(), author, draft)
	require.NoError(t, err)
	return recipe
}

func (f *recipeFixture) count(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.Recipe{}).Count(&n).Error)
	return n
}

func withImage(draft service.RecipeDraft) service.RecipeDraft {
	img := testhelpers.Image("dish.png")
	draft.Image = &img
	return draft
}

func TestCreateRecipe(t *testing.T) {
	f := setupRecipes(t)
	ctx := context.Background()

	draft := testhelpers.ValidDraft("  Tomato soup ")
	draft.Ingredients = append(draft.Ingredients, model.Ingredient{Name: " ", Quantity: "1"})
	draft.Steps = []model.Step{{Index: 7, Description: "Chop"}, {Description: "  "}, {Index: 1, Description: "Simmer"}}

	recipe, err := f.svc.Create(ctx, f.alice, draft)
	require.NoError(t, err)

	assert.Equal(t, "Tomato soup", recipe.Title)
	assert.Equal(t, f.alice.ID, recipe.AuthorID)
	assert.Equal(t, "alice", recipe.AuthorDisplayName)
	assert.False(t, recipe.CreatedAt.IsZero())
	assert.Nil(t, recipe.ImageURL)
	assert.Len(t, recipe.Ingredients, 1)
	assert.Equal(t, model.Steps{{Index: 1, Description: "Chop"}, {Index: 2, Description: "Simmer"}}, recipe.Steps)

	stored, err := f.svc.Get(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, recipe.Title, stored.Title)
	assert.Equal(t, recipe.Steps, stored.Steps)
	assert.Equal(t, recipe.Ingredients, stored.Ingredients)
	assert.True(t, recipe.CreatedAt.Equal(stored.CreatedAt))
}

func TestCreateRecipeRequiresIdentity(t *testing.T) {
	f := setupRecipes(t)

	_, err := f.svc.Create(context.Background(), nil, withImage(testhelpers.ValidDraft("Soup")))
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
	assert.ErrorIs(t, err, service.ErrAuth)
	assert.Zero(t, f.count(t))
	assert.Zero(t, f.store.Len())
}

func TestCreateRecipeValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*service.RecipeDraft)
		field  string
	}{
		{"blank title", func(d *service.RecipeDraft) { d.Title = "   " }, "title"},
		{"missing category", func(d *service.RecipeDraft) { d.Category = "" }, "category"},
		{"unknown category", func(d *service.RecipeDraft) { d.Category = "brunch" }, "category"},
		{"zero duration", func(d *service.RecipeDraft) { d.DurationMinutes = 0 }, "duration_minutes"},
		{"negative duration", func(d *service.RecipeDraft) { d.DurationMinutes = -5 }, "duration_minutes"},
		{"no ingredients", func(d *service.RecipeDraft) { d.Ingredients = nil }, "ingredients"},
		{"ingredient without quantity", func(d *service.RecipeDraft) {
			d.Ingredients = []model.Ingredient{{Name: "salt"}}
		}, "ingredients"},
		{"only blank steps", func(d *service.RecipeDraft) {
			d.Steps = []model.Step{{Description: " "}}
		}, "steps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupRecipes(t)
			draft := withImage(testhelpers.ValidDraft("Soup"))
			tt.mutate(&draft)

			_, err := f.svc.Create(context.Background(), f.alice, draft)
			require.ErrorIs(t, err, service.ErrValidation)
			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)

			assert.Zero(t, f.count(t), "no row on validation failure")
			assert.Zero(t, f.store.Len(), "no blob on validation failure")
		})
	}
}

func TestCreateRecipeWithImage(t *testing.T) {
	f := setupRecipes(t)

	recipe := f.create(t, f.alice, withImage(testhelpers.ValidDraft("Cake")))
	require.True(t, recipe.HasImage())

	_, ok := f.store.GetURL(*recipe.ImageURL)
	assert.True(t, ok)

	stored, err := f.svc.Get(context.Background(), recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, recipe.ImageURL, stored.ImageURL)
}

func TestCreateRecipeRejectsOversizedImage(t *testing.T) {
	f := setupRecipes(t)
	draft := testhelpers.ValidDraft("Cake")
	draft.Image = &service.ImageUpload{
		Filename:    "big.png",
		ContentType: "image/png",
		Data:        testhelpers.PNG(service.DefaultMaxImageBytes + 1),
	}

	_, err := f.svc.Create(context.Background(), f.alice, draft)
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.Zero(t, f.count(t))
	assert.Zero(t, f.store.Len())
}

func TestCreateRecipeUploadFailure(t *testing.T) {
	f := setupRecipes(t)
	f.store.FailPut = errors.New("bucket unavailable")

	_, err := f.svc.Create(context.Background(), f.alice, withImage(testhelpers.ValidDraft("Cake")))
	assert.ErrorIs(t, err, service.ErrMedia)
	assert.Zero(t, f.count(t))
}

func TestCreateRecipeInsertFailureRemovesBlob(t *testing.T) {
	f := setupRecipes(t)
	require.NoError(t, f.db.Migrator().DropTable(&model.Recipe{}))

	_, err := f.svc.Create(context.Background(), f.alice, withImage(testhelpers.ValidDraft("Cake")))
	require.Error(t, err)
	assert.Zero(t, f.store.Len(), "uploaded blob must not outlive a failed insert")
}

func TestGetRecipeNotFound(t *testing.T) {
	f := setupRecipes(t)

	_, err := f.svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUpdateRecipeFields(t *testing.T) {
	f := setupRecipes(t)
	ctx := context.Background()
	recipe := f.create(t, f.alice, testhelpers.ValidDraft("Soup"))

	title := "Better soup"
	category := model.CategoryStarter
	updated, err := f.svc.Update(ctx, recipe.ID, f.alice, service.RecipePatch{
		Title:    &title,
		Category: &category,
		Steps:    []model.Step{{Description: "Boil"}, {Description: "Serve"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Better soup", updated.Title)
	assert.Equal(t, model.CategoryStarter, updated.Category)
	assert.Equal(t, 30, updated.DurationMinutes, "unpatched fields are kept")
	assert.Len(t, updated.Steps, 2)
	assert.True(t, updated.UpdatedAt.After(recipe.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(recipe.CreatedAt))

	stored, err := f.svc.Get(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Better soup", stored.Title)
	assert.Equal(t, updated.Steps, stored.Steps)
}

func TestUpdateRecipeValidatesMergedRecipe(t *testing.T) {
	f := setupRecipes(t)
	recipe := f.create(t, f.alice, testhelpers.ValidDraft("Soup"))

	zero := 0
	_, err := f.svc.Update(context.Background(), recipe.ID, f.alice, service.RecipePatch{DurationMinutes: &zero})
	assert.ErrorIs(t, err, service.ErrValidation)

	stored, err := f.svc.Get(context.Background(), recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, stored.DurationMinutes)
}

func TestUpdateRecipeAuthorization(t *testing.T) {
	f := setupRecipes(t)
	ctx := context.Background()
	recipe := f.create(t, f.alice, withImage(testhelpers.ValidDraft("Soup")))
	title := "Hijacked"

	_, err := f.svc.Update(ctx, recipe.ID, f.bob, service.RecipePatch{Title: &title})
	assert.ErrorIs(t, err, service.ErrNotOwner)
	assert.ErrorIs(t, err, service.ErrAuth)

	_, err = f.svc.Update(ctx, recipe.ID, nil, service.RecipePatch{Title: &title})
	assert.ErrorIs(t, err, service.ErrUnauthenticated)

	_, err = f.svc.Update(ctx, uuid.New(), f.alice, service.RecipePatch{Title: &title})
	assert.ErrorIs(t, err, service.ErrNotFound)

	img := testhelpers.Image("evil.png")
	_, err = f.svc.Update(ctx, recipe.ID, f.bob, service.RecipePatch{Image: &img})
	assert.ErrorIs(t, err, service.ErrNotOwner)

	stored, err := f.svc.Get(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Soup", stored.Title)
	assert.Equal(t, recipe.ImageURL, stored.ImageURL)
	assert.Equal(t, 1, f.store.Len())
}

func TestUpdateRecipeReplacesImage(t *testing.T) {
	f := setupRecipes(t)
	ctx := context.Background()
	recipe := f.create(t, f.alice, withImage(testhelpers.ValidDraft("Soup")))
	oldRef := *recipe.ImageURL

	img := testhelpers.Image("new.png")
	updated, err := f.svc.Update(ctx, recipe.ID, f.alice, service.RecipePatch{Image: &img})
	require.NoError(t, err)
	require.True(t, updated.HasImage())
	assert.NotEqual(t, oldRef, *updated.ImageURL)

	_, ok := f.store.GetURL(*updated.ImageURL)
	assert.True(t, ok)
	_, ok = f.store.GetURL(oldRef)
	assert.False(t, ok)

	stored, err := f.svc.Get(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.ImageURL, stored.ImageURL)
}

func TestUpdateRecipeImageUploadFailureLeavesRow(t *testing.T) {
	f := setupRecipes(t)
	ctx := context.Background()
	recipe := f.create(t, f.alice, withImage(testhelpers.ValidDraft("Soup")))

	f.store.FailPut = errors.New("bucket unavailable")
	title := "Renamed"
	img := testhelpers.Image("new.png")
	_, err := f.svc.Update(ctx, recipe.ID, f.alice, service.RecipePatch{Title: &title, Image: &img})
	require.ErrorIs(t, err, service.ErrMedia)

	stored, err := f.svc.Get(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Soup", stored.Title)
	assert.Equal(t, recipe.ImageURL, stored.ImageURL)
	_, ok := f.store.GetURL(*stored.ImageURL)
	assert.True(t, ok)
}

func TestUpdateRecipeOldImageCleanupFailure(t *testing.T) {
	f := setupRecipes(t)
	ctx := context.Background()
	recipe := f.create(t, f.alice, withImage(testhelpers.ValidDraft("Soup")))
	oldRef := *recipe.ImageURL

	f.store.FailRemove = errors.New("delete denied")
	img := testhelpers.Image("new.png")
	updated, err := f.svc.Update(ctx, recipe.ID, f.alice, service.RecipePatch{Image: &img})
	require.NoError(t, err, "cleanup failures are not propagated")

	stored, err := f.svc.Get(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.ImageURL, stored.ImageURL)
	_, ok := f.store.GetURL(oldRef)
	assert.True(t, ok, "old blob becomes an orphan")
	assert.Len(t, f.cleanup.Names(), 1)
}

func TestUpdateRecipeRemovesImage(t *testing.T) {
	f := setupRecipes(t)
	ctx := context.Background()
	recipe := f.create(t, f.alice, withImage(testhelpers.ValidDraft("Soup")))

	updated, err := f.svc.Update(ctx, recipe.ID, f.alice, service.RecipePatch{RemoveImage: true})
	require.NoError(t, err)
	assert.Nil(t, updated.ImageURL)

	stored, err := f.svc.Get(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ImageURL)
	assert.Zero(t, f.store.Len())
}

func TestUpdateRecipeRemoveImageCleanupFailure(t *testing.T) {
	f := setupRecipes(t)
	ctx := context.Background()
	recipe := f.create(t, f.alice, withImage(testhelpers.ValidDraft("Soup")))

	f.store.FailRemove = errors.New("delete denied")
	_, err := f.svc.Update(ctx, recipe.ID, f.alice, service.RecipePatch{RemoveImage: true})
	require.NoError(t, err)

	stored, err := f.svc.Get(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ImageURL, "row never keeps a reference to a blob being deleted")
	assert.Len(t, f.cleanup.Names(), 1)
}

func TestUpdateRecipeRejectsUploadWithRemove(t *testing.T) {
	f := setupRecipes(t)
	recipe := f.create(t, f.alice, testhelpers.ValidDraft("Soup"))

	img := testhelpers.Image("new.png")
	_, err := f.svc.Update(context.Background(), recipe.ID, f.alice, service.RecipePatch{Image: &img, RemoveImage: true})
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.Zero(t, f.store.Len())
}

func TestUpdateRecipeOptimisticConcurrency(t *testing.T) {
	f := setupRecipes(t)
	ctx := context.Background()
	recipe := f.create(t, f.alice, testhelpers.ValidDraft("Soup"))
	readAt := recipe.UpdatedAt

	first := "First edit"
	_, err := f.svc.Update(ctx, recipe.ID, f.alice, service.RecipePatch{Title: &first, ExpectedUpdatedAt: &readAt})
	require.NoError(t, err)

	second := "Stale edit"
	_, err = f.svc.Update(ctx, recipe.ID, f.alice, service.RecipePatch{Title: &second, ExpectedUpdatedAt: &readAt})
	assert.ErrorIs(t, err, service.ErrConflict)

	// Without a precondition the last writer wins.
	_, err = f.svc.Update(ctx, recipe.ID, f.alice, service.RecipePatch{Title: &second})
	require.NoError(t, err)

	stored, err := f.svc.Get(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stale edit", stored.Title)
}

func TestUpdateKeepsAuthorDisplayName(t *testing.T) {
	f := setupRecipes(t)
	ctx := context.Background()
	recipe := f.create(t, f.alice, testhelpers.ValidDraft("Soup"))

	renamed := &service.Identity{ID: f.alice.ID, DisplayName: "alice-renamed"}
	title := "Soup 2"
	updated, err := f.svc.Update(ctx, recipe.ID, renamed, service.RecipePatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "alice", updated.AuthorDisplayName)
}

func TestDeleteRecipe(t *testing.T) {
	f := setupRecipes(t)
	ctx := context.Background()
	recipe := f.create(t, f.alice, withImage(testhelpers.ValidDraft("Soup")))

	assert.ErrorIs(t, f.svc.Delete(ctx, recipe.ID, f.bob), service.ErrNotOwner)
	assert.ErrorIs(t, f.svc.Delete(ctx, recipe.ID, nil), service.ErrUnauthenticated)
	assert.Equal(t, int64(1), f.count(t))

	require.NoError(t, f.svc.Delete(ctx, recipe.ID, f.alice))
	assert.Zero(t, f.count(t))
	assert.Zero(t, f.store.Len())

	assert.ErrorIs(t, f.svc.Delete(ctx, recipe.ID, f.alice), service.ErrNotFound)
}

func TestDeleteRecipeCleanupFailure(t *testing.T) {
	f := setupRecipes(t)
	ctx := context.Background()
	recipe := f.create(t, f.alice, withImage(testhelpers.ValidDraft("Soup")))

	f.store.FailRemove = errors.New("delete denied")
	require.NoError(t, f.svc.Delete(ctx, recipe.ID, f.alice))

	assert.Zero(t, f.count(t))
	assert.Equal(t, 1, f.store.Len())
	assert.Len(t, f.cleanup.Names(), 1)
}

func TestRecipeLifecycleLeavesNoOrphans(t *testing.T) {
	f := setupRecipes(t)
	ctx := context.Background()

	recipe := f.create(t, f.alice, withImage(testhelpers.ValidDraft("Soup")))
	for i := 0; i < 3; i++ {
		img := testhelpers.Image("v.png")
		_, err := f.svc.Update(ctx, recipe.ID, f.alice, service.RecipePatch{Image: &img})
		require.NoError(t, err)
		assert.Equal(t, 1, f.store.Len())
	}
	require.NoError(t, f.svc.Delete(ctx, recipe.ID, f.alice))
	assert.Zero(t, f.store.Len())
}

func TestStoredTimestampsRoundTrip(t *testing.T) {
	f := setupRecipes(t)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 123456000, time.UTC)
	f.svc.SetClock(func() time.Time { return fixed })

	recipe := f.create(t, f.alice, testhelpers.ValidDraft("Soup"))
	stored, err := f.svc.Get(context.Background(), recipe.ID)
	require.NoError(t, err)
	assert.True(t, fixed.Equal(stored.CreatedAt))
	assert.True(t, fixed.Equal(stored.UpdatedAt))
}
