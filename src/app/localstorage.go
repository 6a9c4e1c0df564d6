package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage writes images below a directory that the server exposes at publicURL.
type LocalStorage struct {
	root      string
	publicURL string
}

func NewLocalStorage(root, publicURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir %s: %w", root, err)
	}
	return &LocalStorage{root: root, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (l *LocalStorage) Root() string {
	return l.root
}

func (l *LocalStorage) resolve(fileName string) (string, error) {
	clean := path.Clean("/" + fileName)
	if clean == "/" {
		return "", fmt.Errorf("invalid file name %q", fileName)
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

func (l *LocalStorage) UploadFile(_ context.Context, uploadPath string, object io.Reader, _ int64, _ string) error {
	full, err := l.resolve(uploadPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", uploadPath, err)
	}
	out, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("create %s: %w", uploadPath, err)
	}
	if _, err := io.Copy(out, object); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", uploadPath, err)
	}
	return out.Close()
}

func (l *LocalStorage) DeleteFile(_ context.Context, fileName string) error {
	full, err := l.resolve(fileName)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", fileName, err)
	}
	return nil
}

func (l *LocalStorage) FileURL(_ context.Context, fileName string) (string, error) {
	return l.publicURL + path.Clean("/"+fileName), nil
}
