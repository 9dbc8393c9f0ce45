package service

import (
	"strings"

	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/internal/model"
)

// Ownership restricts a listing relative to the viewer.
type Ownership string

const (
	OwnershipAll    Ownership = "all"
	OwnershipMine   Ownership = "mine"
	OwnershipOthers Ownership = "others"
)

const (
	// CategoryAll disables the category dimension.
	CategoryAll = "all"
	// NoDurationCeiling is the slider maximum; it and anything above it, or
	// any non-positive value, means "no duration limit".
	NoDurationCeiling = 120
)

// RecipeFilter selects recipes for a listing. Zero values select everything.
type RecipeFilter struct {
	Ownership          Ownership
	Category           string
	MaxDurationMinutes int
	Search             string
	Author             string
}

// Normalize trims and defaults the filter and rejects unknown enum values.
func (f RecipeFilter) Normalize() (RecipeFilter, error) {
	f.Ownership = Ownership(strings.ToLower(strings.TrimSpace(string(f.Ownership))))
	switch f.Ownership {
	case "":
		f.Ownership = OwnershipAll
	case OwnershipAll, OwnershipMine, OwnershipOthers:
	default:
		return f, invalid("ownership", "must be one of all, mine, others")
	}

	f.Category = strings.ToLower(strings.TrimSpace(f.Category))
	if f.Category == "" {
		f.Category = CategoryAll
	}
	if f.Category != CategoryAll && !model.Category(f.Category).Valid() {
		return f, invalid("category", "unknown category %q", f.Category)
	}

	if f.MaxDurationMinutes <= 0 || f.MaxDurationMinutes >= NoDurationCeiling {
		f.MaxDurationMinutes = NoDurationCeiling
	}
	f.Search = strings.TrimSpace(f.Search)
	f.Author = strings.TrimSpace(f.Author)
	return f, nil
}

// ownerClause resolves the ownership dimension for viewer. Anonymous viewers
// always see everything.
func (f RecipeFilter) ownerClause(viewer *Identity) Ownership {
	if viewer == nil {
		return OwnershipAll
	}
	return f.Ownership
}

func (f RecipeFilter) hasCeiling() bool {
	return f.MaxDurationMinutes > 0 && f.MaxDurationMinutes < NoDurationCeiling
}

// Scopes returns the SQL side of a normalized filter. Search is not part of
// it; see MatchesSearch.
func (f RecipeFilter) Scopes(viewer *Identity) []func(*gorm.DB) *gorm.DB {
	var scopes []func(*gorm.DB) *gorm.DB

	switch f.ownerClause(viewer) {
	case OwnershipMine:
		id := viewer.ID
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("author_id = ?", id)
		})
	case OwnershipOthers:
		id := viewer.ID
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("author_id <> ?", id)
		})
	}

	if f.Category != "" && f.Category != CategoryAll {
		category := f.Category
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("category = ?", category)
		})
	}

	if f.hasCeiling() {
		ceiling := f.MaxDurationMinutes
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("duration_minutes <= ?", ceiling)
		})
	}

	if f.Author != "" {
		author := f.Author
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("author_display_name = ?", author)
		})
	}
	return scopes
}

// MatchesSearch reports whether the title contains the search text, ignoring case.
func (f RecipeFilter) MatchesSearch(r *model.Recipe) bool {
	if f.Search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Title), strings.ToLower(f.Search))
}

// Matches is the in-memory equivalent of Scopes plus MatchesSearch.
func (f RecipeFilter) Matches(r *model.Recipe, viewer *Identity) bool {
	switch f.ownerClause(viewer) {
	case OwnershipMine:
		if r.AuthorID != viewer.ID {
			return false
		}
	case OwnershipOthers:
		if r.AuthorID == viewer.ID {
			return false
		}
	}
	if f.Category != "" && f.Category != CategoryAll && string(r.Category) != f.Category {
		return false
	}
	if f.hasCeiling() && r.DurationMinutes > f.MaxDurationMinutes {
		return false
	}
	if f.Author != "" && r.AuthorDisplayName != f.Author {
		return false
	}
	return f.MatchesSearch(r)
}

func (f RecipeFilter) applySearch(recipes []*model.Recipe) []*model.Recipe {
	if f.Search == "" {
		return recipes
	}
	out := recipes[:0:0]
	for _, r := range recipes {
		if f.MatchesSearch(r) {
			out = append(out, r)
		}
	}
	return out
}
