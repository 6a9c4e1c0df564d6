package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	app "recipeserv/src/app"
)

// Label is a per-user named row attachable to recipes.
type Label interface {
	app.Tag | app.Ingredient
}

// LabelRepository stores tags or ingredients. Every method is scoped by owner and treats
// rows of other users as missing.
type LabelRepository[T Label] struct {
	DB *gorm.DB

	// kind names T in errors; joinTable and joinColumn locate its recipe association
	kind       string
	joinTable  string
	joinColumn string
	newLabel   func(owner uint, name string) T
}

func NewTagRepository(db *gorm.DB) *LabelRepository[app.Tag] {
	return &LabelRepository[app.Tag]{
		DB:         db,
		kind:       "tag",
		joinTable:  "recipe_tags",
		joinColumn: "tag_id",
		newLabel: func(owner uint, name string) app.Tag {
			return app.Tag{UserID: owner, Name: name}
		},
	}
}

func NewIngredientRepository(db *gorm.DB) *LabelRepository[app.Ingredient] {
	return &LabelRepository[app.Ingredient]{
		DB:         db,
		kind:       "ingredient",
		joinTable:  "recipe_ingredients",
		joinColumn: "ingredient_id",
		newLabel: func(owner uint, name string) app.Ingredient {
			return app.Ingredient{UserID: owner, Name: name}
		},
	}
}

func (r *LabelRepository[T]) Create(ctx context.Context, owner uint, name string) (*T, error) {
	name = strings.TrimSpace(name)
	label := r.newLabel(owner, name)
	if err := app.Validate(&label); err != nil {
		return nil, err
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.checkUnique(tx, owner, 0, name); err != nil {
			return err
		}
		return tx.Create(&label).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &label, nil
}

// List returns the owner's rows by name descending. With assignedOnly it keeps rows used
// by at least one of the owner's recipes, each once.
func (r *LabelRepository[T]) List(ctx context.Context, owner uint, assignedOnly bool) ([]T, error) {
	labels := []T{}
	session := r.DB.WithContext(ctx)
	query := session.Where("user_id = ?", owner)
	if assignedOnly {
		query = query.Where("id IN (?)", r.assignedIDs(session, owner))
	}
	if err := query.Order("name desc").Find(&labels).Error; err != nil {
		return nil, fmt.Errorf("list %ss: %w", r.kind, err)
	}
	return labels, nil
}

func (r *LabelRepository[T]) assignedIDs(session *gorm.DB, owner uint) *gorm.DB {
	return session.Table(r.joinTable).
		Select(r.joinTable+"."+r.joinColumn).
		Joins("JOIN recipes ON recipes.id = "+r.joinTable+".recipe_id").
		Where("recipes.user_id = ?", owner)
}

func (r *LabelRepository[T]) Get(ctx context.Context, owner, id uint) (*T, error) {
	return r.get(r.DB.WithContext(ctx), owner, id)
}

func (r *LabelRepository[T]) get(tx *gorm.DB, owner, id uint) (*T, error) {
	var label T
	if err := tx.Where("id = ? AND user_id = ?", id, owner).First(&label).Error; err != nil {
		return nil, translate(err)
	}
	return &label, nil
}

// getMany loads the owner's rows with the given ids; an unknown or foreign id is a
// validation error on field.
func (r *LabelRepository[T]) getMany(tx *gorm.DB, owner uint, ids []uint, field string) ([]T, error) {
	labels := []T{}
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return labels, nil
	}
	if err := tx.Where("user_id = ? AND id IN ?", owner, unique).Find(&labels).Error; err != nil {
		return nil, err
	}
	if len(labels) != len(unique) {
		return nil, app.NewValidationError(field, "invalid pk - object does not exist")
	}
	return labels, nil
}

func (r *LabelRepository[T]) Update(ctx context.Context, owner, id uint, name string) (*T, error) {
	name = strings.TrimSpace(name)
	candidate := r.newLabel(owner, name)
	if err := app.Validate(&candidate); err != nil {
		return nil, err
	}
	var updated *T
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		label, err := r.get(tx, owner, id)
		if err != nil {
			return err
		}
		if err := r.checkUnique(tx, owner, id, name); err != nil {
			return err
		}
		if err := tx.Model(label).Update("name", name).Error; err != nil {
			return err
		}
		updated, err = r.get(tx, owner, id)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return updated, nil
}

// Delete removes the row and its recipe associations.
func (r *LabelRepository[T]) Delete(ctx context.Context, owner, id uint) error {
	return translate(r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		label, err := r.get(tx, owner, id)
		if err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM "+r.joinTable+" WHERE "+r.joinColumn+" = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(label).Error
	}))
}

func (r *LabelRepository[T]) checkUnique(tx *gorm.DB, owner, exceptID uint, name string) error {
	var count int64
	query := tx.Model(new(T)).Where("user_id = ? AND name = ?", owner, name)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%s %q: %w", r.kind, name, app.ErrConflict)
	}
	return nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	unique := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
