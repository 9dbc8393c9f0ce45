package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/service"
	"github.com/pageza/recipebox/backend/internal/testhelpers"
)

func TestRecipeFilterNormalize(t *testing.T) {
	f, err := service.RecipeFilter{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, service.OwnershipAll, f.Ownership)
	assert.Equal(t, service.CategoryAll, f.Category)
	assert.Equal(t, service.NoDurationCeiling, f.MaxDurationMinutes)

	f, err = service.RecipeFilter{Ownership: " Mine ", Category: "DESSERT", MaxDurationMinutes: 45, Search: "  cake "}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, service.OwnershipMine, f.Ownership)
	assert.Equal(t, "dessert", f.Category)
	assert.Equal(t, 45, f.MaxDurationMinutes)
	assert.Equal(t, "cake", f.Search)

	for _, ceiling := range []int{-1, 0, 120, 500} {
		f, err = service.RecipeFilter{MaxDurationMinutes: ceiling}.Normalize()
		require.NoError(t, err)
		assert.Equal(t, service.NoDurationCeiling, f.MaxDurationMinutes, "max=%d means no ceiling", ceiling)
	}

	_, err = service.RecipeFilter{Ownership: "theirs"}.Normalize()
	assert.ErrorIs(t, err, service.ErrValidation)
	_, err = service.RecipeFilter{Category: "brunch"}.Normalize()
	assert.ErrorIs(t, err, service.ErrValidation)
}

type listFixture struct {
	*recipeFixture
	recipes []*model.Recipe
}

// seedListing creates a mix of recipes by alice and bob, one minute apart.
func seedListing(t *testing.T) *listFixture {
	t.Helper()
	f := setupRecipes(t)
	clock := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	f.svc.SetClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})

	specs := []struct {
		author   *service.Identity
		title    string
		category model.Category
		duration int
	}{
		{f.alice, "Chocolate cake", model.CategoryDessert, 90},
		{f.alice, "Green salad", model.CategoryStarter, 10},
		{f.bob, "Beef stew", model.CategoryMain, 180},
		{f.bob, "Cheesecake", model.CategoryDessert, 120},
		{f.alice, "Pancakes", model.CategoryMain, 20},
		{f.bob, "Tomato soup", model.CategoryStarter, 45},
		{f.bob, "Carrot Cake", model.CategoryDessert, 60},
	}

	lf := &listFixture{recipeFixture: f}
	for _, s := range specs {
		draft := testhelpers.ValidDraft(s.title)
		draft.Category = s.category
		draft.DurationMinutes = s.duration
		lf.recipes = append(lf.recipes, f.create(t, s.author, draft))
	}
	return lf
}

func ids(recipes []*model.Recipe) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, r.ID)
	}
	return out
}

func titles(recipes []*model.Recipe) []string {
	out := make([]string, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, r.Title)
	}
	return out
}

func TestListNewestFirst(t *testing.T) {
	lf := seedListing(t)

	recipes, err := lf.svc.List(context.Background(), nil, service.RecipeFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Carrot Cake", "Tomato soup", "Pancakes", "Cheesecake", "Beef stew", "Green salad", "Chocolate cake",
	}, titles(recipes))
}

func TestListTiesBreakByID(t *testing.T) {
	f := setupRecipes(t)
	fixed := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	f.svc.SetClock(func() time.Time { return fixed })

	var created []*model.Recipe
	for i := 0; i < 4; i++ {
		created = append(created, f.create(t, f.alice, testhelpers.ValidDraft(fmt.Sprintf("Dish %d", i))))
	}

	recipes, err := f.svc.List(context.Background(), nil, service.RecipeFilter{})
	require.NoError(t, err)
	require.Len(t, recipes, 4)
	for i := 1; i < len(recipes); i++ {
		assert.Greater(t, recipes[i-1].ID.String(), recipes[i].ID.String())
	}
	assert.ElementsMatch(t, ids(created), ids(recipes))
}

func TestListFilters(t *testing.T) {
	lf := seedListing(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		viewer *service.Identity
		filter service.RecipeFilter
		want   []string
	}{
		{"mine", lf.alice, service.RecipeFilter{Ownership: service.OwnershipMine},
			[]string{"Pancakes", "Green salad", "Chocolate cake"}},
		{"others", lf.alice, service.RecipeFilter{Ownership: service.OwnershipOthers},
			[]string{"Carrot Cake", "Tomato soup", "Cheesecake", "Beef stew"}},
		{"anonymous mine sees all", nil, service.RecipeFilter{Ownership: service.OwnershipMine},
			[]string{"Carrot Cake", "Tomato soup", "Pancakes", "Cheesecake", "Beef stew", "Green salad", "Chocolate cake"}},
		{"category", nil, service.RecipeFilter{Category: "dessert"},
			[]string{"Carrot Cake", "Cheesecake", "Chocolate cake"}},
		{"duration ceiling is inclusive", nil, service.RecipeFilter{MaxDurationMinutes: 45},
			[]string{"Tomato soup", "Pancakes", "Green salad"}},
		{"sentinel duration means no limit", nil, service.RecipeFilter{MaxDurationMinutes: service.NoDurationCeiling},
			[]string{"Carrot Cake", "Tomato soup", "Pancakes", "Cheesecake", "Beef stew", "Green salad", "Chocolate cake"}},
		{"search ignores case", nil, service.RecipeFilter{Search: "CAKE"},
			[]string{"Carrot Cake", "Pancakes", "Cheesecake", "Chocolate cake"}},
		{"author", nil, service.RecipeFilter{Author: "bob"},
			[]string{"Carrot Cake", "Tomato soup", "Cheesecake", "Beef stew"}},
		{"combined", lf.bob, service.RecipeFilter{
			Ownership: service.OwnershipMine, Category: "dessert", MaxDurationMinutes: 90, Search: "cake",
		}, []string{"Carrot Cake"}},
		{"no match", nil, service.RecipeFilter{Search: "lasagne"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipes, err := lf.svc.List(ctx, tt.viewer, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(recipes))
		})
	}
}

func TestListRejectsInvalidFilter(t *testing.T) {
	lf := seedListing(t)

	_, err := lf.svc.List(context.Background(), lf.alice, service.RecipeFilter{Category: "brunch"})
	assert.ErrorIs(t, err, service.ErrValidation)
}

// The SQL scopes plus search must select exactly what the in-memory
// predicate selects from the full ordered listing, for every combination.
func TestListMatchesPredicate(t *testing.T) {
	lf := seedListing(t)
	ctx := context.Background()

	all, err := lf.svc.List(ctx, nil, service.RecipeFilter{})
	require.NoError(t, err)

	viewers := []*service.Identity{nil, lf.alice, lf.bob}
	ownerships := []service.Ownership{service.OwnershipAll, service.OwnershipMine, service.OwnershipOthers}
	categories := []string{"all", "starter", "main", "dessert"}
	durations := []int{0, 10, 45, 60, 119, 120, 200}
	searches := []string{"", "cake", "SOUP", "x"}
	authors := []string{"", "alice"}

	for _, viewer := range viewers {
		for _, own := range ownerships {
			for _, cat := range categories {
				for _, dur := range durations {
					for _, q := range searches {
						for _, author := range authors {
							filter := service.RecipeFilter{
								Ownership: own, Category: cat, MaxDurationMinutes: dur, Search: q, Author: author,
							}
							got, err := lf.svc.List(ctx, viewer, filter)
							require.NoError(t, err)

							normalized, err := filter.Normalize()
							require.NoError(t, err)
							want := []uuid.UUID{}
							for _, r := range all {
								if normalized.Matches(r, viewer) {
									want = append(want, r.ID)
								}
							}
							require.Equal(t, want, ids(got), "viewer=%v filter=%+v", viewer, filter)
						}
					}
				}
			}
		}
	}
}

func TestFilterScopesAreOrderIndependent(t *testing.T) {
	lf := seedListing(t)

	filter, err := service.RecipeFilter{
		Ownership: service.OwnershipOthers, Category: "dessert", MaxDurationMinutes: 100, Author: "bob",
	}.Normalize()
	require.NoError(t, err)

	scopes := filter.Scopes(lf.alice)
	require.Len(t, scopes, 4)
	reversed := make([]func(*gorm.DB) *gorm.DB, 0, len(scopes))
	for i := len(scopes) - 1; i >= 0; i-- {
		reversed = append(reversed, scopes[i])
	}

	var forward, backward []*model.Recipe
	require.NoError(t, lf.db.Scopes(scopes...).Order("created_at DESC").Order("id DESC").Find(&forward).Error)
	require.NoError(t, lf.db.Scopes(reversed...).Order("created_at DESC").Order("id DESC").Find(&backward).Error)
	assert.Equal(t, ids(forward), ids(backward))
	assert.Equal(t, []string{"Carrot Cake"}, titles(forward))
}

func TestListAuthors(t *testing.T) {
	lf := seedListing(t)

	names, err := lf.svc.ListAuthors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, names)
}
