package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	app "recipeserv/src/app"
)

type (
	userResponse struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}

	tokenResponse struct {
		Token string `json:"token"`
	}

	labelResponse struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}

	recipeListItem struct {
		ID          uint    `json:"id"`
		Title       string  `json:"title"`
		TimeMinutes int     `json:"time_minutes"`
		Price       float64 `json:"price"`
		Link        string  `json:"link"`
		Tags        []uint  `json:"tags"`
		Ingredients []uint  `json:"ingredients"`
		Image       string  `json:"image"`
	}

	recipeDetail struct {
		ID          uint            `json:"id"`
		Title       string          `json:"title"`
		TimeMinutes int             `json:"time_minutes"`
		Price       float64         `json:"price"`
		Link        string          `json:"link"`
		Tags        []labelResponse `json:"tags"`
		Ingredients []labelResponse `json:"ingredients"`
		Image       string          `json:"image"`
	}

	recipeImageResponse struct {
		ID    uint   `json:"id"`
		Image string `json:"image"`
	}
)

// decimal accepts a JSON number or a numeric string such as "5.25".
type decimal float64

func (d *decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("a valid number is required")
	}
	*d = decimal(v)
	return nil
}

func newUserResponse(user *app.User) userResponse {
	return userResponse{Email: user.Email, Name: user.Name}
}

func tagResponse(tag *app.Tag) labelResponse {
	return labelResponse{ID: tag.ID, Name: tag.Name}
}

func ingredientResponse(ingredient *app.Ingredient) labelResponse {
	return labelResponse{ID: ingredient.ID, Name: ingredient.Name}
}

func (h *Handler) newRecipeListItem(ctx context.Context, recipe *app.Recipe) recipeListItem {
	item := recipeListItem{
		ID:          recipe.ID,
		Title:       recipe.Title,
		TimeMinutes: recipe.TimeMinutes,
		Price:       recipe.Price,
		Link:        recipe.Link,
		Tags:        make([]uint, 0, len(recipe.Tags)),
		Ingredients: make([]uint, 0, len(recipe.Ingredients)),
		Image:       h.images.URL(ctx, recipe.Image),
	}
	for _, tag := range recipe.Tags {
		item.Tags = append(item.Tags, tag.ID)
	}
	for _, ingredient := range recipe.Ingredients {
		item.Ingredients = append(item.Ingredients, ingredient.ID)
	}
	return item
}

func (h *Handler) newRecipeDetail(ctx context.Context, recipe *app.Recipe) recipeDetail {
	detail := recipeDetail{
		ID:          recipe.ID,
		Title:       recipe.Title,
		TimeMinutes: recipe.TimeMinutes,
		Price:       recipe.Price,
		Link:        recipe.Link,
		Tags:        make([]labelResponse, 0, len(recipe.Tags)),
		Ingredients: make([]labelResponse, 0, len(recipe.Ingredients)),
		Image:       h.images.URL(ctx, recipe.Image),
	}
	for i := range recipe.Tags {
		detail.Tags = append(detail.Tags, tagResponse(&recipe.Tags[i]))
	}
	for i := range recipe.Ingredients {
		detail.Ingredients = append(detail.Ingredients, ingredientResponse(&recipe.Ingredients[i]))
	}
	return detail
}
