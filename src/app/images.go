package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"recipeserv/src/logging"
)

const recipeImageDir = "uploads/recipe"

// newImageID is replaced in tests to get deterministic paths.
var newImageID = func() string {
	return uuid.NewString()
}

// ImageStorage is the backend recipe images are written to.
type ImageStorage interface {
	UploadFile(ctx context.Context, uploadPath string, object io.Reader, size int64, contentType string) error
	DeleteFile(ctx context.Context, fileName string) error
	FileURL(ctx context.Context, fileName string) (string, error)
}

// ImageRecorder is the part of the recipe store the uploader needs.
type ImageRecorder interface {
	Get(ctx context.Context, owner, id uint) (*Recipe, error)
	SetImage(ctx context.Context, owner, id uint, imagePath string) (*Recipe, error)
}

// RecipeImagePath returns a fresh storage path for an upload named filename.
func RecipeImagePath(filename string) string {
	return recipeImagePath(newImageID(), filename)
}

func recipeImagePath(id, filename string) string {
	name := id
	if ext := filepath.Ext(filename); len(ext) > 1 {
		name += ext
	}
	return path.Join(recipeImageDir, name)
}

type ImageUploader struct {
	storage ImageStorage
	recipes ImageRecorder
}

func NewImageUploader(storage ImageStorage, recipes ImageRecorder) *ImageUploader {
	return &ImageUploader{storage: storage, recipes: recipes}
}

// Upload stores data as the image of the owner's recipe and returns the updated recipe.
// The previous image, if any, is removed once the new path is recorded.
func (u *ImageUploader) Upload(ctx context.Context, owner, recipeID uint, data []byte, originalName string) (*Recipe, error) {
	recipe, err := u.recipes.Get(ctx, owner, recipeID)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, NewValidationError("image", "the submitted file is empty")
	}
	kind := mimetype.Detect(data)
	if !strings.HasPrefix(kind.String(), "image/") {
		return nil, NewValidationError("image", fmt.Sprintf("upload a valid image, got %s", kind.String()))
	}

	previous := recipe.Image
	imagePath := RecipeImagePath(originalName)
	if err := u.storage.UploadFile(ctx, imagePath, bytes.NewReader(data), int64(len(data)), kind.String()); err != nil {
		return nil, fmt.Errorf("store image %s: %w", imagePath, err)
	}
	updated, err := u.recipes.SetImage(ctx, owner, recipeID, imagePath)
	if err != nil {
		if delErr := u.storage.DeleteFile(ctx, imagePath); delErr != nil {
			logging.Ctx(ctx).Warn().Err(delErr).Str("path", imagePath).Msg("can not remove orphan image")
		}
		return nil, err
	}
	if previous != "" && previous != imagePath {
		if err := u.storage.DeleteFile(ctx, previous); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("path", previous).Msg("can not remove replaced image")
		}
	}
	return updated, nil
}

// URL resolves a stored image path for clients, "" when there is no image.
func (u *ImageUploader) URL(ctx context.Context, imagePath string) string {
	if imagePath == "" {
		return ""
	}
	url, err := u.storage.FileURL(ctx, imagePath)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("path", imagePath).Msg("can not resolve image url")
		return ""
	}
	return url
}

// Remove deletes a stored image, logging instead of failing.
func (u *ImageUploader) Remove(ctx context.Context, imagePath string) {
	if imagePath == "" {
		return
	}
	if err := u.storage.DeleteFile(ctx, imagePath); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("path", imagePath).Msg("can not remove image")
	}
}
