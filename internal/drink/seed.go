package drink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// SampleDrinks is the starter menu inserted by Seed.
func SampleDrinks() []Drink {
	return []Drink{
		{Title: "matcha shake", Recipe: []Ingredient{
			{Name: "milk", Color: "wheat", Parts: 1},
			{Name: "matcha", Color: "green", Parts: 3},
		}},
		{Title: "flatwhite", Recipe: []Ingredient{
			{Name: "milk", Color: "wheat", Parts: 3},
			{Name: "coffee", Color: "brown", Parts: 1},
		}},
		{Title: "cap", Recipe: []Ingredient{
			{Name: "foam", Color: "beige", Parts: 1},
			{Name: "milk", Color: "wheat", Parts: 2},
			{Name: "coffee", Color: "brown", Parts: 1},
		}},
		{Title: "chocolate milk", Recipe: []Ingredient{
			{Name: "chocolate", Color: "brown", Parts: 1},
			{Name: "milk", Color: "wheat", Parts: 3},
		}},
	}
}

// Seed inserts the sample drinks. Drinks whose title already exists are skipped.
func Seed(ctx context.Context, store Store) error {
	for _, d := range SampleDrinks() {
		_, err := store.Create(ctx, d)
		switch {
		case errors.Is(err, ErrDuplicateTitle):
			slog.DebugContext(ctx, "seed drink exists", slog.String("title", d.Title))
		case err != nil:
			return fmt.Errorf("seed drink %q: %w", d.Title, err)
		}
	}
	return nil
}
