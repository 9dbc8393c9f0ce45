package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/recipebox/backend/internal/service"
	"github.com/pageza/recipebox/backend/internal/types"
)

const (
	userIDKey   = "user_id"
	usernameKey = "username"
	identityKey = "identity"
)

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(token string) (*types.TokenClaims, error)
}

// Authenticator validates tokens and resolves the caller's current identity.
type Authenticator interface {
	TokenValidator
	service.IdentityResolver
}

// AuthMiddleware creates a middleware that validates JWT tokens
func AuthMiddleware(validator Authenticator) gin.HandlerFunc {
	return authenticate(validator, true)
}

// OptionalAuth authenticates the request when it carries a token and lets
// anonymous requests through. A present but invalid token is still rejected.
func OptionalAuth(validator Authenticator) gin.HandlerFunc {
	return authenticate(validator, false)
}

func authenticate(validator Authenticator, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "missing authorization header"})
				return
			}
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid authorization header format"})
			return
		}

		claims, err := validator.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
			return
		}

		// The display name may have changed since the token was issued.
		who, err := validator.CurrentUser(c.Request.Context(), claims.UserID)
		if err != nil {
			status := StatusFor(err)
			msg := err.Error()
			if status == http.StatusInternalServerError {
				msg = "Internal Server Error"
			}
			c.AbortWithStatusJSON(status, ErrorResponse{Error: msg})
			return
		}

		// Store user info in context
		c.Set(userIDKey, who.ID)
		c.Set(usernameKey, who.DisplayName)
		c.Set(identityKey, who)
		c.Next()
	}
}

// CurrentIdentity returns the authenticated caller, or nil for anonymous requests.
func CurrentIdentity(c *gin.Context) *service.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	who, _ := v.(*service.Identity)
	return who
}

// UserID returns the authenticated user id, if any.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
