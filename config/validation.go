package config

import (
	"errors"
	"fmt"
)

// ImageSizeLimit is the largest MAX_IMAGE_BYTES value accepted (5 MiB).
const ImageSizeLimit = 5 << 20

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks the loaded configuration for the current environment
// and reports every problem at once.
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()
	var errs []error

	required := []struct{ field, value string }{
		{"SERVER_PORT", cfg.ServerPort},
		{"DB_HOST", cfg.DBHost},
		{"DB_PORT", cfg.DBPort},
		{"DB_NAME", cfg.DBName},
		{"DB_USER", cfg.DBUser},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, ValidationError{Field: r.field, Message: "is required"})
		}
	}

	// Sensitive values have no fallback outside development and test.
	if !env.UsesLocalDefaults() {
		if cfg.DBPassword == "" {
			errs = append(errs, ValidationError{Field: "DB_PASSWORD", Message: "is required in " + string(env)})
		}
		if cfg.JWTSecret == "" {
			errs = append(errs, ValidationError{Field: "JWT_SECRET", Message: "is required in " + string(env)})
		}
	}
	if env == Production && len(cfg.JWTSecret) < 32 {
		errs = append(errs, ValidationError{Field: "JWT_SECRET", Message: "must be at least 32 characters in production"})
	}
	if cfg.RedisURL == "" && cfg.RedisHost == "" {
		errs = append(errs, ValidationError{Field: "REDIS_HOST", Message: "REDIS_HOST or REDIS_URL is required"})
	}

	if cfg.S3BucketName == "" {
		errs = append(errs, ValidationError{Field: "S3_BUCKET_NAME", Message: "is required"})
	}
	if cfg.S3RecipePrefix == cfg.S3AvatarPrefix {
		errs = append(errs, ValidationError{Field: "S3_AVATAR_PREFIX", Message: "must differ from S3_RECIPE_PREFIX"})
	}
	if cfg.MediaStoreTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "MEDIA_STORE_TIMEOUT", Message: "must be positive"})
	}
	if cfg.MaxImageBytes <= 0 || cfg.MaxImageBytes > ImageSizeLimit {
		errs = append(errs, ValidationError{Field: "MAX_IMAGE_BYTES", Message: fmt.Sprintf("must be between 1 and %d", ImageSizeLimit)})
	}
	if cfg.RateLimitPerMinute < 0 {
		errs = append(errs, ValidationError{Field: "RATE_LIMIT_PER_MINUTE", Message: "must not be negative"})
	}

	return errors.Join(errs...)
}
