package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	app "recipeserv/src/app"
)

// UserRepository is the account store, keyed by normalized email.
type UserRepository struct {
	DB *gorm.DB
}

// UserUpdate carries the profile fields a user may change; nil fields are kept.
type UserUpdate struct {
	Name     *string
	Password *string
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		DB: db,
	}
}

// CreateUser stores a new active account. An empty password makes it unusable.
func (r *UserRepository) CreateUser(ctx context.Context, email, password, name string) (*app.User, error) {
	return r.create(ctx, email, password, name, false)
}

// CreateSuperuser stores a new active staff account.
func (r *UserRepository) CreateSuperuser(ctx context.Context, email, password string) (*app.User, error) {
	return r.create(ctx, email, password, "", true)
}

func (r *UserRepository) create(ctx context.Context, email, password, name string, staff bool) (*app.User, error) {
	email = app.NormalizeEmail(email)
	if email == "" {
		return nil, app.NewValidationError("email", "users must have an email address")
	}
	user := &app.User{
		Email:    email,
		Name:     strings.TrimSpace(name),
		IsActive: true,
		IsStaff:  staff,
	}
	if err := app.Validate(user); err != nil {
		return nil, err
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&app.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return app.ErrConflict
		}
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create user %s: %w", email, translate(err))
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id uint) (*app.User, error) {
	var user app.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*app.User, error) {
	var user app.User
	if err := r.DB.WithContext(ctx).Where("email = ?", app.NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UpdateUser changes the display name and/or password of an account.
func (r *UserRepository) UpdateUser(ctx context.Context, id uint, update UserUpdate) (*app.User, error) {
	user, err := r.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		user.Name = strings.TrimSpace(*update.Name)
	}
	if err := app.Validate(user); err != nil {
		return nil, err
	}
	if update.Password != nil {
		if err := user.SetPassword(*update.Password); err != nil {
			return nil, err
		}
	}
	if err := r.DB.WithContext(ctx).Save(user).Error; err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, translate(err))
	}
	return user, nil
}

// setActive enables or disables an account.
func (r *UserRepository) setActive(ctx context.Context, id uint, active bool) error {
	res := r.DB.WithContext(ctx).Model(&app.User{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return app.ErrNotFound
	}
	return nil
}

// Authenticate returns the active user owning email and password.
func (r *UserRepository) Authenticate(ctx context.Context, email, password string) (*app.User, error) {
	user, err := r.GetUserByEmail(ctx, email)
	if errors.Is(err, app.ErrNotFound) {
		return nil, app.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive || !user.CheckPassword(password) {
		return nil, app.ErrInvalidCredentials
	}
	return user, nil
}
