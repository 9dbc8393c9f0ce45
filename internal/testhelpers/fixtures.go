package testhelpers

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/models"
	"github.com/pageza/recipebox/backend/internal/service"
)

// pngHeader is enough for http.DetectContentType to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n")

// PNG returns n bytes that sniff as a PNG image.
func PNG(n int) []byte {
	if n < len(pngHeader) {
		n = len(pngHeader)
	}
	data := bytes.Repeat([]byte{0}, n)
	copy(data, pngHeader)
	return data
}

// Image returns a small PNG upload.
func Image(filename string) service.ImageUpload {
	return service.ImageUpload{Filename: filename, ContentType: "image/png", Data: PNG(64)}
}

// CreateUser inserts a user with a profile and returns its identity.
func CreateUser(t *testing.T, db *gorm.DB, username string) *service.Identity {
	t.Helper()

	user := models.User{Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	profile := models.UserProfile{UserID: user.ID, Username: username}
	require.NoError(t, db.Create(&profile).Error)

	return &service.Identity{ID: user.ID, DisplayName: username}
}

// ValidDraft returns a recipe draft that passes validation.
func ValidDraft(title string) service.RecipeDraft {
	return service.RecipeDraft{
		Title:           title,
		Category:        model.CategoryMain,
		DurationMinutes: 30,
		Ingredients:     []model.Ingredient{{Name: "flour", Quantity: "200 g"}},
		Steps:           []model.Step{{Description: "Mix everything."}},
	}
}
