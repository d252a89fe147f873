// Package drink holds the drink resource and its storage backends.
package drink

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxTitleLength bounds drink titles.
const MaxTitleLength = 80

// Ingredient is one component of a recipe.
type Ingredient struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Parts int    `json:"parts"`
}

// Validate implements validation.Validatable.
func (i Ingredient) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Name, validation.Required),
		validation.Field(&i.Color, validation.Required),
		validation.Field(&i.Parts, validation.Required, validation.Min(1)),
	)
}

// Drink is a named recipe.
type Drink struct {
	ID     int64
	Title  string
	Recipe []Ingredient
}

// Validate checks title and recipe.
func (d Drink) Validate() error {
	err := validation.ValidateStruct(&d,
		validation.Field(&d.Title, validation.Required, validation.Length(1, MaxTitleLength)),
		validation.Field(&d.Recipe, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// ShortIngredient is the public view of an ingredient: no name.
type ShortIngredient struct {
	Color string `json:"color"`
	Parts int    `json:"parts"`
}

// ShortView is the public representation of a drink.
type ShortView struct {
	ID     int64             `json:"id"`
	Title  string            `json:"title"`
	Recipe []ShortIngredient `json:"recipe"`
}

// LongView is the detailed representation of a drink, including ingredient names.
type LongView struct {
	ID     int64        `json:"id"`
	Title  string       `json:"title"`
	Recipe []Ingredient `json:"recipe"`
}

// Short returns the public view of d.
func (d Drink) Short() ShortView {
	recipe := make([]ShortIngredient, 0, len(d.Recipe))
	for _, i := range d.Recipe {
		recipe = append(recipe, ShortIngredient{Color: i.Color, Parts: i.Parts})
	}
	return ShortView{ID: d.ID, Title: d.Title, Recipe: recipe}
}

// Long returns the detailed view of d.
func (d Drink) Long() LongView {
	recipe := make([]Ingredient, len(d.Recipe))
	copy(recipe, d.Recipe)
	return LongView{ID: d.ID, Title: d.Title, Recipe: recipe}
}

// Patch describes a partial update. Nil fields are left unchanged.
type Patch struct {
	Title  *string
	Recipe []Ingredient
}

// Apply returns d with p applied.
func (p Patch) Apply(d Drink) Drink {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Recipe != nil {
		d.Recipe = p.Recipe
	}
	return d
}
