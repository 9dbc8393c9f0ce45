package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pageza/recipebox/backend/internal/model"
)

const (
	draftKeyPrefix = "recipe:draft:"
	// DraftTTL is how long an untouched draft is kept.
	DraftTTL = 24 * time.Hour
)

// DraftBackend is the key/value store holding serialized drafts.
type DraftBackend interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get reports found=false for a missing or expired key.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Del(ctx context.Context, key string) error
}

// Draft is an unpublished recipe. Unlike a recipe it may be incomplete.
type Draft struct {
	ID              string             `json:"id"`
	AuthorID        uuid.UUID          `json:"author_id"`
	Title           string             `json:"title"`
	Category        model.Category     `json:"category"`
	DurationMinutes int                `json:"duration_minutes"`
	Ingredients     []model.Ingredient `json:"ingredients"`
	Steps           []model.Step       `json:"steps"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// DraftService keeps recipe drafts per author and publishes them as recipes.
type DraftService struct {
	backend DraftBackend
	recipes IRecipeService
	ttl     time.Duration
	logger  *slog.Logger
}

// Ensure DraftService implements IDraftService
var _ IDraftService = (*DraftService)(nil)

func NewDraftService(backend DraftBackend, recipes IRecipeService) *DraftService {
	return &DraftService{
		backend: backend,
		recipes: recipes,
		ttl:     DraftTTL,
		logger:  slog.Default().With("component", "drafts"),
	}
}

func draftKey(id string) string {
	return draftKeyPrefix + id
}

// SaveDraft stores a new draft for author and returns it with its id.
func (s *DraftService) SaveDraft(ctx context.Context, author *Identity, draft Draft) (*Draft, error) {
	if author == nil {
		return nil, ErrUnauthenticated
	}
	draft.ID = uuid.NewString()
	draft.AuthorID = author.ID
	if err := s.put(ctx, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

// GetDraft returns the draft id of author. Drafts of other users are reported
// as missing.
func (s *DraftService) GetDraft(ctx context.Context, author *Identity, id string) (*Draft, error) {
	if author == nil {
		return nil, ErrUnauthenticated
	}
	data, found, err := s.backend.Get(ctx, draftKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}

	var draft Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	if draft.AuthorID != author.ID {
		return nil, ErrNotFound
	}
	return &draft, nil
}

// UpdateDraft replaces the contents of an existing draft and renews its TTL.
func (s *DraftService) UpdateDraft(ctx context.Context, author *Identity, id string, draft Draft) (*Draft, error) {
	if _, err := s.GetDraft(ctx, author, id); err != nil {
		return nil, err
	}
	draft.ID = id
	draft.AuthorID = author.ID
	if err := s.put(ctx, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (s *DraftService) DeleteDraft(ctx context.Context, author *Identity, id string) error {
	if _, err := s.GetDraft(ctx, author, id); err != nil {
		return err
	}
	if err := s.backend.Del(ctx, draftKey(id)); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// PublishDraft creates a recipe from the draft and discards the draft. The
// draft is kept when the recipe fails validation so it can be fixed.
func (s *DraftService) PublishDraft(ctx context.Context, author *Identity, id string, image *ImageUpload) (*model.Recipe, error) {
	draft, err := s.GetDraft(ctx, author, id)
	if err != nil {
		return nil, err
	}

	recipe, err := s.recipes.Create(ctx, author, RecipeDraft{
		Title:           draft.Title,
		Category:        draft.Category,
		DurationMinutes: draft.DurationMinutes,
		Ingredients:     draft.Ingredients,
		Steps:           draft.Steps,
		Image:           image,
	})
	if err != nil {
		return nil, err
	}

	if err := s.backend.Del(ctx, draftKey(id)); err != nil {
		// The recipe exists; the draft simply expires with its TTL.
		s.logger.Warn("failed to delete published draft", "draft_id", id, "error", err)
	}
	return recipe, nil
}

func (s *DraftService) put(ctx context.Context, draft *Draft) error {
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Steps = model.ReindexSteps(draft.Steps)
	draft.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	if err := s.backend.Set(ctx, draftKey(draft.ID), data, s.ttl); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}
