package drink

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps drinks in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	drinks map[int64]Drink
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, drinks: make(map[int64]Drink)}
}

func (s *MemoryStore) List(_ context.Context) ([]Drink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Drink, 0, len(s.drinks))
	for _, d := range s.drinks {
		result = append(result, cloneDrink(d))
	}
	slices.SortFunc(result, func(a, b Drink) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return result, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (Drink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drinks[id]
	if !ok {
		return Drink{}, ErrNotFound
	}
	return cloneDrink(d), nil
}

func (s *MemoryStore) Create(_ context.Context, d Drink) (Drink, error) {
	if err := d.Validate(); err != nil {
		return Drink{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.titleTaken(d.Title, 0) {
		return Drink{}, ErrDuplicateTitle
	}
	d.ID = s.nextID
	s.nextID++
	s.drinks[d.ID] = cloneDrink(d)
	return cloneDrink(d), nil
}

func (s *MemoryStore) Update(_ context.Context, id int64, p Patch) (Drink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.drinks[id]
	if !ok {
		return Drink{}, ErrNotFound
	}
	updated := p.Apply(current)
	if err := updated.Validate(); err != nil {
		return Drink{}, err
	}
	if s.titleTaken(updated.Title, id) {
		return Drink{}, ErrDuplicateTitle
	}
	s.drinks[id] = cloneDrink(updated)
	return cloneDrink(updated), nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drinks[id]; !ok {
		return ErrNotFound
	}
	delete(s.drinks, id)
	return nil
}

// titleTaken reports whether a drink other than except uses title. Caller holds mu.
func (s *MemoryStore) titleTaken(title string, except int64) bool {
	for id, d := range s.drinks {
		if id != except && d.Title == title {
			return true
		}
	}
	return false
}

func cloneDrink(d Drink) Drink {
	d.Recipe = slices.Clone(d.Recipe)
	return d
}

var _ Store = (*MemoryStore)(nil)
