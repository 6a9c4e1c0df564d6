package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	app "recipeserv/src/app"
	db "recipeserv/src/repository"
)

const (
	tagsQueryParam        = "tags"
	ingredientsQueryParam = "ingredients"
)

type recipeRequest struct {
	Title       *string  `json:"title"`
	TimeMinutes *int     `json:"time_minutes"`
	Price       *decimal `json:"price"`
	Link        *string  `json:"link"`
	Tags        *[]uint  `json:"tags"`
	Ingredients *[]uint  `json:"ingredients"`
}

func (r *recipeRequest) requireFields() error {
	switch {
	case r.Title == nil:
		return app.NewValidationError("title", "this field is required")
	case r.TimeMinutes == nil:
		return app.NewValidationError("time_minutes", "this field is required")
	case r.Price == nil:
		return app.NewValidationError("price", "this field is required")
	}
	return nil
}

func (r *recipeRequest) input() db.RecipeInput {
	input := db.RecipeInput{
		Title:       *r.Title,
		TimeMinutes: *r.TimeMinutes,
		Price:       float64(*r.Price),
	}
	if r.Link != nil {
		input.Link = *r.Link
	}
	if r.Tags != nil {
		input.TagIDs = *r.Tags
	}
	if r.Ingredients != nil {
		input.IngredientIDs = *r.Ingredients
	}
	return input
}

func (r *recipeRequest) patch() db.RecipePatch {
	patch := db.RecipePatch{
		Title:         r.Title,
		TimeMinutes:   r.TimeMinutes,
		Link:          r.Link,
		TagIDs:        r.Tags,
		IngredientIDs: r.Ingredients,
	}
	if r.Price != nil {
		price := float64(*r.Price)
		patch.Price = &price
	}
	return patch
}

// parseIDList reads a comma separated id filter such as "1,2,3".
func parseIDList(c *gin.Context, param string) ([]uint, error) {
	raw := c.Query(param)
	if raw == "" {
		return nil, nil
	}
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, app.NewValidationError(param, fmt.Sprintf("invalid id %q", part))
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func (h *Handler) ListRecipes(c *gin.Context) {
	tagIDs, err := parseIDList(c, tagsQueryParam)
	if err != nil {
		respondError(c, err)
		return
	}
	ingredientIDs, err := parseIDList(c, ingredientsQueryParam)
	if err != nil {
		respondError(c, err)
		return
	}
	recipes, err := h.recipes.List(c.Request.Context(), currentUser(c).ID, db.RecipeFilter{
		TagIDs:        tagIDs,
		IngredientIDs: ingredientIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	result := make([]recipeListItem, 0, len(recipes))
	for i := range recipes {
		result = append(result, h.newRecipeListItem(c.Request.Context(), &recipes[i]))
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) CreateRecipe(c *gin.Context) {
	var request recipeRequest
	if !bindJSON(c, &request) {
		return
	}
	if err := request.requireFields(); err != nil {
		respondError(c, err)
		return
	}
	recipe, err := h.recipes.Create(c.Request.Context(), currentUser(c).ID, request.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.newRecipeDetail(c.Request.Context(), recipe))
}

func (h *Handler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	recipe, err := h.recipes.Get(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.newRecipeDetail(c.Request.Context(), recipe))
}

// UpdateRecipe handles PUT, which needs every required field, and PATCH, which changes
// only the fields present.
func (h *Handler) UpdateRecipe(partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var request recipeRequest
		if !bindJSON(c, &request) {
			return
		}
		if !partial {
			if err := request.requireFields(); err != nil {
				respondError(c, err)
				return
			}
		}
		recipe, err := h.recipes.Update(c.Request.Context(), currentUser(c).ID, id, request.patch())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, h.newRecipeDetail(c.Request.Context(), recipe))
	}
}

// DeleteRecipe removes the recipe and, best effort, its stored image.
func (h *Handler) DeleteRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	owner := currentUser(c).ID
	recipe, err := h.recipes.Get(c.Request.Context(), owner, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.recipes.Delete(c.Request.Context(), owner, id); err != nil {
		respondError(c, err)
		return
	}
	h.images.Remove(c.Request.Context(), recipe.Image)
	c.Status(http.StatusNoContent)
}
