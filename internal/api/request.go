package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/deepworx/coffeeshop/internal/drink"
)

// maxBodySize caps request bodies.
const maxBodySize = 1 << 20

// recipeField accepts either a single ingredient object or an array of them.
type recipeField []drink.Ingredient

func (r *recipeField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = nil
		return nil
	}
	if len(data) > 0 && data[0] == '{' {
		var one drink.Ingredient
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*r = recipeField{one}
		return nil
	}
	var many []drink.Ingredient
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*r = many
	return nil
}

// drinkRequest is the body of POST /drinks and PATCH /drinks/{id}.
type drinkRequest struct {
	Title  *string     `json:"title"`
	Recipe recipeField `json:"recipe"`
}

func decodeDrinkRequest(w http.ResponseWriter, r *http.Request) (drinkRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req drinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return drinkRequest{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return req, nil
}

// drinkID parses the {id} path segment.
func drinkID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
