package app

import "time"

// User is an account keyed by its normalized email address.
type User struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Email string `gorm:"size:255;uniqueIndex;not null" json:"email" validate:"required,max=255"`
	Name  string `gorm:"size:255" json:"name" validate:"max=255"`

	// Password holds the bcrypt hash; empty means the password is unusable.
	Password string `gorm:"size:255;not null" json:"-"`

	IsActive  bool      `gorm:"not null" json:"is_active"`
	IsStaff   bool      `gorm:"not null" json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tag is a per-user label attachable to recipes.
type Tag struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"size:255;not null;uniqueIndex:uidx_tag_user_name" json:"name" validate:"required,max=255"`
	UserID uint   `gorm:"not null;uniqueIndex:uidx_tag_user_name" json:"-"`
}

func (t Tag) String() string {
	return t.Name
}

// Ingredient has the same shape as Tag but lives in its own table.
type Ingredient struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"size:255;not null;uniqueIndex:uidx_ingredient_user_name" json:"name" validate:"required,max=255"`
	UserID uint   `gorm:"not null;uniqueIndex:uidx_ingredient_user_name" json:"-"`
}

func (i Ingredient) String() string {
	return i.Name
}

type Recipe struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	UserID      uint    `gorm:"not null;index" json:"-"`
	Title       string  `gorm:"size:255;not null" json:"title" validate:"required,max=255"`
	TimeMinutes int     `gorm:"not null" json:"time_minutes" validate:"gt=0"`
	Price       float64 `gorm:"type:decimal(5,2);not null" json:"price" validate:"gte=0,lte=999.99"`
	Link        string  `gorm:"size:255" json:"link" validate:"omitempty,url,max=255"`

	// Image is the storage path of the uploaded image, empty when none.
	Image string `gorm:"size:255" json:"image"`

	Tags        []Tag        `gorm:"many2many:recipe_tags;" json:"tags"`
	Ingredients []Ingredient `gorm:"many2many:recipe_ingredients;" json:"ingredients"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r Recipe) String() string {
	return r.Title
}
