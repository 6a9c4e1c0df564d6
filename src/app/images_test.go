package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func withImageID(t *testing.T, id string) {
	t.Helper()
	previous := newImageID
	newImageID = func() string { return id }
	t.Cleanup(func() { newImageID = previous })
}

type memoryStorage struct {
	files     map[string][]byte
	failWrite bool
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{files: map[string][]byte{}}
}

func (m *memoryStorage) UploadFile(_ context.Context, uploadPath string, object io.Reader, _ int64, _ string) error {
	if m.failWrite {
		return errors.New("disk full")
	}
	data, err := io.ReadAll(object)
	if err != nil {
		return err
	}
	m.files[uploadPath] = data
	return nil
}

func (m *memoryStorage) DeleteFile(_ context.Context, fileName string) error {
	delete(m.files, fileName)
	return nil
}

func (m *memoryStorage) FileURL(_ context.Context, fileName string) (string, error) {
	return "/media/" + fileName, nil
}

type memoryRecipes struct {
	recipes map[uint]*Recipe
}

func (m *memoryRecipes) Get(_ context.Context, owner, id uint) (*Recipe, error) {
	r, ok := m.recipes[id]
	if !ok || r.UserID != owner {
		return nil, ErrNotFound
	}
	return r, nil
}

func (m *memoryRecipes) SetImage(ctx context.Context, owner, id uint, imagePath string) (*Recipe, error) {
	r, err := m.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	r.Image = imagePath
	return r, nil
}

func TestRecipeImagePath(t *testing.T) {
	withImageID(t, "test-uuid")

	assert.Equal(t, "uploads/recipe/test-uuid.jpg", RecipeImagePath("myimage.jpg"))
	assert.Equal(t, "uploads/recipe/test-uuid.gz", RecipeImagePath("archive.tar.gz"))
	assert.Equal(t, "uploads/recipe/test-uuid", RecipeImagePath("noextension"))
}

func TestRecipeImagePathIsFresh(t *testing.T) {
	first := RecipeImagePath("a.png")
	second := RecipeImagePath("a.png")
	assert.NotEqual(t, first, second)
}

func TestImageUploader(t *testing.T) {
	ctx := context.Background()

	newFixture := func() (*ImageUploader, *memoryStorage, *memoryRecipes) {
		storage := newMemoryStorage()
		recipes := &memoryRecipes{recipes: map[uint]*Recipe{
			1: {ID: 1, UserID: 10, Title: "Soup"},
		}}
		return NewImageUploader(storage, recipes), storage, recipes
	}

	t.Run("StoresAndRecords", func(t *testing.T) {
		withImageID(t, "test-uuid")
		uploader, storage, _ := newFixture()

		recipe, err := uploader.Upload(ctx, 10, 1, pngHeader, "photo.png")
		require.NoError(t, err)
		assert.Equal(t, "uploads/recipe/test-uuid.png", recipe.Image)
		assert.True(t, bytes.Equal(pngHeader, storage.files[recipe.Image]))
		assert.Equal(t, "/media/uploads/recipe/test-uuid.png", uploader.URL(ctx, recipe.Image))
	})

	t.Run("ReplacesPrevious", func(t *testing.T) {
		uploader, storage, _ := newFixture()

		first, err := uploader.Upload(ctx, 10, 1, pngHeader, "one.png")
		require.NoError(t, err)
		firstPath := first.Image
		second, err := uploader.Upload(ctx, 10, 1, pngHeader, "two.png")
		require.NoError(t, err)

		assert.NotEqual(t, firstPath, second.Image)
		assert.NotContains(t, storage.files, firstPath)
		assert.Contains(t, storage.files, second.Image)
	})

	t.Run("OtherOwner", func(t *testing.T) {
		uploader, storage, _ := newFixture()

		_, err := uploader.Upload(ctx, 11, 1, pngHeader, "photo.png")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Empty(t, storage.files)
	})

	t.Run("NotAnImage", func(t *testing.T) {
		uploader, storage, recipes := newFixture()

		_, err := uploader.Upload(ctx, 10, 1, []byte("just some text"), "notes.png")
		assert.ErrorIs(t, err, ErrValidation)
		assert.Empty(t, storage.files)
		assert.Empty(t, recipes.recipes[1].Image)
	})

	t.Run("StorageFailure", func(t *testing.T) {
		uploader, storage, recipes := newFixture()
		storage.failWrite = true

		_, err := uploader.Upload(ctx, 10, 1, pngHeader, "photo.png")
		assert.ErrorContains(t, err, "disk full")
		assert.Empty(t, recipes.recipes[1].Image)
	})

	t.Run("EmptyURL", func(t *testing.T) {
		uploader, _, _ := newFixture()
		assert.Equal(t, "", uploader.URL(ctx, ""))
	})

	t.Run("Remove", func(t *testing.T) {
		uploader, storage, _ := newFixture()
		recipe, err := uploader.Upload(ctx, 10, 1, pngHeader, "photo.png")
		require.NoError(t, err)

		uploader.Remove(ctx, recipe.Image)
		assert.Empty(t, storage.files)
		uploader.Remove(ctx, "")
	})
}
