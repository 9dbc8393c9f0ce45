package config

import (
	"os"
	"strings"
)

// Environment represents the current runtime environment
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// ParseEnvironment maps an ENV value to an Environment. Short forms such as
// "dev" and "prod" are accepted.
func ParseEnvironment(s string) (Environment, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return Production, true
	case "test", "testing":
		return Test, true
	case "development", "dev", "":
		return Development, true
	case "ci":
		return CI, true
	}
	return "", false
}

// GetEnvironment determines the current environment. CI=true always wins;
// otherwise ENV selects it, and unknown values fall back to development.
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}
	if env, ok := ParseEnvironment(os.Getenv("ENV")); ok {
		return env
	}
	return Development
}

// IsDevelopment returns true if the current environment is development
func IsDevelopment() bool {
	return GetEnvironment() == Development
}

// IsProduction returns true if the current environment is production
func IsProduction() bool {
	return GetEnvironment() == Production
}

// UsesLocalDefaults reports whether missing settings may fall back to local
// development values.
func (e Environment) UsesLocalDefaults() bool {
	return e == Development || e == Test
}
