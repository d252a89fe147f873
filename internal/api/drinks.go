package api

import (
	"log/slog"
	"net/http"

	"github.com/deepworx/coffeeshop/internal/auth"
	"github.com/deepworx/coffeeshop/internal/drink"
)

type drinksResponse[T any] struct {
	Success bool `json:"success"`
	Drinks  []T  `json:"drinks"`
}

type deleteResponse struct {
	Success bool  `json:"success"`
	Delete  int64 `json:"delete"`
}

func (s *Server) listDrinks(w http.ResponseWriter, r *http.Request) {
	drinks, err := s.store.List(r.Context())
	if err != nil {
		handleStoreError(r.Context(), w, err)
		return
	}
	if len(drinks) == 0 {
		respondError(w, http.StatusNotFound, "")
		return
	}

	views := make([]drink.ShortView, 0, len(drinks))
	for _, d := range drinks {
		views = append(views, d.Short())
	}
	respondJSON(w, http.StatusOK, drinksResponse[drink.ShortView]{Success: true, Drinks: views})
}

func (s *Server) listDrinksDetail(_ auth.Claims, w http.ResponseWriter, r *http.Request) {
	drinks, err := s.store.List(r.Context())
	if err != nil {
		handleStoreError(r.Context(), w, err)
		return
	}

	views := make([]drink.LongView, 0, len(drinks))
	for _, d := range drinks {
		views = append(views, d.Long())
	}
	respondJSON(w, http.StatusOK, drinksResponse[drink.LongView]{Success: true, Drinks: views})
}

func (s *Server) createDrink(_ auth.Claims, w http.ResponseWriter, r *http.Request) {
	req, err := decodeDrinkRequest(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "")
		return
	}
	if req.Title == nil || *req.Title == "" || len(req.Recipe) == 0 {
		respondError(w, http.StatusBadRequest, "Title and recipe must be submitted.")
		return
	}

	created, err := s.store.Create(r.Context(), drink.Drink{Title: *req.Title, Recipe: req.Recipe})
	if err != nil {
		handleStoreError(r.Context(), w, err)
		return
	}

	slog.InfoContext(r.Context(), "drink created",
		append(callerAttrs(r.Context()), slog.Int64("drink_id", created.ID))...)
	respondJSON(w, http.StatusOK, drinksResponse[drink.LongView]{Success: true, Drinks: []drink.LongView{created.Long()}})
}

func (s *Server) updateDrink(_ auth.Claims, w http.ResponseWriter, r *http.Request) {
	id, ok := drinkID(r)
	if !ok {
		respondError(w, http.StatusNotFound, "")
		return
	}
	req, err := decodeDrinkRequest(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "")
		return
	}

	updated, err := s.store.Update(r.Context(), id, drink.Patch{Title: req.Title, Recipe: req.Recipe})
	if err != nil {
		handleStoreError(r.Context(), w, err)
		return
	}

	slog.InfoContext(r.Context(), "drink updated",
		append(callerAttrs(r.Context()), slog.Int64("drink_id", id))...)
	respondJSON(w, http.StatusOK, drinksResponse[drink.LongView]{Success: true, Drinks: []drink.LongView{updated.Long()}})
}

func (s *Server) deleteDrink(_ auth.Claims, w http.ResponseWriter, r *http.Request) {
	id, ok := drinkID(r)
	if !ok {
		respondError(w, http.StatusNotFound, "")
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		handleStoreError(r.Context(), w, err)
		return
	}

	slog.InfoContext(r.Context(), "drink deleted",
		append(callerAttrs(r.Context()), slog.Int64("drink_id", id))...)
	respondJSON(w, http.StatusOK, deleteResponse{Success: true, Delete: id})
}
