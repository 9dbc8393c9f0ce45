package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/internal/models"
)

// ProfileUpdate changes a profile; nil fields are kept.
type ProfileUpdate struct {
	Username     *string
	Avatar       *ImageUpload
	RemoveAvatar bool
}

// ProfileService handles user profile operations
type ProfileService struct {
	db      *gorm.DB
	avatars *MediaManager
	logger  *slog.Logger
}

// Ensure ProfileService implements IProfileService
var _ IProfileService = (*ProfileService)(nil)

// NewProfileService creates a new ProfileService instance. avatars manages
// the avatar images and may share its store with recipe images.
func NewProfileService(db *gorm.DB, avatars *MediaManager) *ProfileService {
	return &ProfileService{
		db:      db,
		avatars: avatars,
		logger:  slog.Default().With("component", "profiles"),
	}
}

// GetProfile retrieves a user's profile
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile renames the user and replaces or removes the avatar. Recipes
// keep the display name they were created with.
func (s *ProfileService) UpdateProfile(ctx context.Context, who *Identity, update ProfileUpdate) (*models.UserProfile, error) {
	if who == nil {
		return nil, ErrUnauthenticated
	}
	if update.Avatar != nil && update.RemoveAvatar {
		return nil, invalid("avatar", "cannot upload and remove an avatar in the same update")
	}

	profile, err := s.GetProfile(ctx, who.ID)
	if err != nil {
		return nil, err
	}
	oldAvatar := profile.AvatarURL

	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		if n := utf8.RuneCountInString(username); n < 2 || n > 50 {
			return nil, invalid("username", "must be between 2 and 50 characters")
		}
		if username != profile.Username {
			var count int64
			if err := s.db.WithContext(ctx).Model(&models.UserProfile{}).
				Where("username = ? AND user_id <> ?", username, who.ID).
				Count(&count).Error; err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, fmt.Errorf("%w: username %q is taken", ErrUserExists, username)
			}
			profile.Username = username
		}
	}

	switch {
	case update.Avatar != nil:
		_, err := s.avatars.Replace(ctx, who.ID.String(), oldAvatar, *update.Avatar, func(ref string) error {
			profile.AvatarURL = &ref
			return s.save(ctx, profile)
		})
		if err != nil {
			return nil, err
		}
	case update.RemoveAvatar:
		profile.AvatarURL = nil
		if err := s.save(ctx, profile); err != nil {
			return nil, err
		}
		s.avatars.Remove(ctx, oldAvatar)
	default:
		if err := s.save(ctx, profile); err != nil {
			return nil, err
		}
	}

	s.logger.Info("updated profile", "user_id", who.ID)
	return profile, nil
}

func (s *ProfileService) save(ctx context.Context, profile *models.UserProfile) error {
	err := s.db.WithContext(ctx).Model(profile).Updates(map[string]interface{}{
		"username":   profile.Username,
		"avatar_url": profile.AvatarURL,
	}).Error
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}
