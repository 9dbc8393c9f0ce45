package types

import (
	"github.com/google/uuid"
)

// ProfileResponse is the public view of a user's profile
type ProfileResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	AvatarURL *string   `json:"avatar_url"`
}
