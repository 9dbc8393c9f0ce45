package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Category is the closed set of recipe courses.
type Category string

const (
	CategoryStarter Category = "starter"
	CategoryMain    Category = "main"
	CategoryDessert Category = "dessert"
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryStarter, CategoryMain, CategoryDessert}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryStarter, CategoryMain, CategoryDessert:
		return true
	}
	return false
}

// Ingredient is a single line of a recipe's ingredient list.
type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// Step is a numbered instruction. Index is always the 1-based position.
type Step struct {
	Index       int    `json:"index"`
	Description string `json:"description"`
}

// Ingredients is stored as a JSON array column.
type Ingredients []Ingredient

// Value implements the driver.Valuer interface
func (a Ingredients) Value() (driver.Value, error) {
	return marshalList(a)
}

// Scan implements the sql.Scanner interface
func (a *Ingredients) Scan(value interface{}) error {
	return unmarshalList(value, a)
}

// Steps is stored as a JSON array column.
type Steps []Step

// Value implements the driver.Valuer interface
func (a Steps) Value() (driver.Value, error) {
	return marshalList(a)
}

// Scan implements the sql.Scanner interface
func (a *Steps) Scan(value interface{}) error {
	return unmarshalList(value, a)
}

func marshalList[T any](items []T) (driver.Value, error) {
	if len(items) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalList[T any](value interface{}, dst *T) error {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, dst)
}

type Recipe struct {
	ID                uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt         time.Time   `gorm:"not null;index" json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
	Title             string      `gorm:"size:255;not null" json:"title"`
	Category          Category    `gorm:"size:20;not null;index" json:"category"`
	DurationMinutes   int         `gorm:"not null" json:"duration_minutes"`
	Ingredients       Ingredients `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Steps             Steps       `gorm:"type:jsonb;not null;default:'[]'" json:"steps"`
	ImageURL          *string     `gorm:"size:512" json:"image_url"`
	AuthorID          uuid.UUID   `gorm:"type:uuid;not null;index" json:"author_id"`
	AuthorDisplayName string      `gorm:"size:100;not null" json:"author_display_name"`
}

// HasImage reports whether the recipe references a stored blob.
func (r *Recipe) HasImage() bool {
	return r.ImageURL != nil && *r.ImageURL != ""
}
