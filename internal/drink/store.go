package drink

import "context"

// Store persists drinks.
type Store interface {
	// List returns all drinks ordered by ID.
	List(ctx context.Context) ([]Drink, error)

	// Get returns the drink with id, or ErrNotFound.
	Get(ctx context.Context, id int64) (Drink, error)

	// Create validates and inserts d, returning it with its assigned ID.
	Create(ctx context.Context, d Drink) (Drink, error)

	// Update applies p to the drink with id and returns the result.
	Update(ctx context.Context, id int64, p Patch) (Drink, error)

	// Delete removes the drink with id, or returns ErrNotFound.
	Delete(ctx context.Context, id int64) error
}
