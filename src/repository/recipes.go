package repository

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	app "recipeserv/src/app"
)

type RecipeRepository struct {
	DB          *gorm.DB
	tags        *LabelRepository[app.Tag]
	ingredients *LabelRepository[app.Ingredient]
}

// RecipeInput holds the fields of a new recipe. Tag and ingredient ids must belong to
// the owner.
type RecipeInput struct {
	Title         string
	TimeMinutes   int
	Price         float64
	Link          string
	TagIDs        []uint
	IngredientIDs []uint
}

// RecipePatch changes the non-nil fields; non-nil id slices replace the associations.
type RecipePatch struct {
	Title         *string
	TimeMinutes   *int
	Price         *float64
	Link          *string
	TagIDs        *[]uint
	IngredientIDs *[]uint
}

// RecipeFilter keeps recipes having any of TagIDs and any of IngredientIDs.
type RecipeFilter struct {
	TagIDs        []uint
	IngredientIDs []uint
}

func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{
		DB:          db,
		tags:        NewTagRepository(db),
		ingredients: NewIngredientRepository(db),
	}
}

func roundPrice(price float64) float64 {
	return math.Round(price*100) / 100
}

func (r *RecipeRepository) Create(ctx context.Context, owner uint, input RecipeInput) (*app.Recipe, error) {
	recipe := &app.Recipe{
		UserID:      owner,
		Title:       strings.TrimSpace(input.Title),
		TimeMinutes: input.TimeMinutes,
		Price:       roundPrice(input.Price),
		Link:        strings.TrimSpace(input.Link),
	}
	if err := app.Validate(recipe); err != nil {
		return nil, err
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := r.tags.getMany(tx, owner, input.TagIDs, "tags")
		if err != nil {
			return err
		}
		ingredients, err := r.ingredients.getMany(tx, owner, input.IngredientIDs, "ingredients")
		if err != nil {
			return err
		}
		recipe.Tags = tags
		recipe.Ingredients = ingredients
		return tx.Omit("Tags.*", "Ingredients.*").Create(recipe).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return r.Get(ctx, owner, recipe.ID)
}

func preloadLabels(db *gorm.DB) *gorm.DB {
	byID := func(db *gorm.DB) *gorm.DB { return db.Order("id") }
	return db.Preload("Tags", byID).Preload("Ingredients", byID)
}

// List returns the owner's recipes, newest first.
func (r *RecipeRepository) List(ctx context.Context, owner uint, filter RecipeFilter) ([]app.Recipe, error) {
	recipes := []app.Recipe{}
	session := r.DB.WithContext(ctx)
	query := preloadLabels(session).Where("recipes.user_id = ?", owner)
	if len(filter.TagIDs) > 0 {
		query = query.Where("recipes.id IN (?)",
			session.Table("recipe_tags").Select("recipe_id").Where("tag_id IN ?", filter.TagIDs))
	}
	if len(filter.IngredientIDs) > 0 {
		query = query.Where("recipes.id IN (?)",
			session.Table("recipe_ingredients").Select("recipe_id").Where("ingredient_id IN ?", filter.IngredientIDs))
	}
	if err := query.Order("recipes.id desc").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

func (r *RecipeRepository) Get(ctx context.Context, owner, id uint) (*app.Recipe, error) {
	return r.get(r.DB.WithContext(ctx), owner, id)
}

func (r *RecipeRepository) get(tx *gorm.DB, owner, id uint) (*app.Recipe, error) {
	var recipe app.Recipe
	if err := preloadLabels(tx).Where("id = ? AND user_id = ?", id, owner).First(&recipe).Error; err != nil {
		return nil, translate(err)
	}
	return &recipe, nil
}

func (r *RecipeRepository) Update(ctx context.Context, owner, id uint, patch RecipePatch) (*app.Recipe, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe, err := r.get(tx, owner, id)
		if err != nil {
			return err
		}
		if patch.Title != nil {
			recipe.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.TimeMinutes != nil {
			recipe.TimeMinutes = *patch.TimeMinutes
		}
		if patch.Price != nil {
			recipe.Price = roundPrice(*patch.Price)
		}
		if patch.Link != nil {
			recipe.Link = strings.TrimSpace(*patch.Link)
		}
		if err := app.Validate(recipe); err != nil {
			return err
		}
		if err := tx.Model(recipe).Omit(clause.Associations).Updates(map[string]interface{}{
			"title":        recipe.Title,
			"time_minutes": recipe.TimeMinutes,
			"price":        recipe.Price,
			"link":         recipe.Link,
		}).Error; err != nil {
			return err
		}
		if patch.TagIDs != nil {
			tags, err := r.tags.getMany(tx, owner, *patch.TagIDs, "tags")
			if err != nil {
				return err
			}
			if err := replaceAssociation(tx, recipe, "Tags", tags); err != nil {
				return err
			}
		}
		if patch.IngredientIDs != nil {
			ingredients, err := r.ingredients.getMany(tx, owner, *patch.IngredientIDs, "ingredients")
			if err != nil {
				return err
			}
			if err := replaceAssociation(tx, recipe, "Ingredients", ingredients); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return r.Get(ctx, owner, id)
}

func replaceAssociation[T Label](tx *gorm.DB, recipe *app.Recipe, name string, values []T) error {
	association := tx.Model(recipe).Omit(name + ".*").Association(name)
	if len(values) == 0 {
		return association.Clear()
	}
	return association.Replace(values)
}

func (r *RecipeRepository) Delete(ctx context.Context, owner, id uint) error {
	return translate(r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe, err := r.get(tx, owner, id)
		if err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM recipe_ingredients WHERE recipe_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(recipe).Error
	}))
}

// AttachTag adds a tag of the owner to the recipe; attaching twice has no effect.
func (r *RecipeRepository) AttachTag(ctx context.Context, owner, recipeID, tagID uint) error {
	return translate(r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe, err := r.get(tx, owner, recipeID)
		if err != nil {
			return err
		}
		tag, err := r.tags.get(tx, owner, tagID)
		if err != nil {
			return err
		}
		return tx.Model(recipe).Omit("Tags.*").Association("Tags").Append(tag)
	}))
}

// AttachIngredient adds an ingredient of the owner to the recipe; attaching twice has no
// effect.
func (r *RecipeRepository) AttachIngredient(ctx context.Context, owner, recipeID, ingredientID uint) error {
	return translate(r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe, err := r.get(tx, owner, recipeID)
		if err != nil {
			return err
		}
		ingredient, err := r.ingredients.get(tx, owner, ingredientID)
		if err != nil {
			return err
		}
		return tx.Model(recipe).Omit("Ingredients.*").Association("Ingredients").Append(ingredient)
	}))
}

// SetImage records the storage path of the recipe image.
func (r *RecipeRepository) SetImage(ctx context.Context, owner, id uint, imagePath string) (*app.Recipe, error) {
	res := r.DB.WithContext(ctx).Model(&app.Recipe{}).
		Where("id = ? AND user_id = ?", id, owner).
		Update("image", imagePath)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, app.ErrNotFound
	}
	return r.Get(ctx, owner, id)
}
