package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const dishImageDir = "menus/dish"

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// MediaStore keeps uploaded files under Root and serves them below URLPrefix.
type MediaStore struct {
	Root      string
	URLPrefix string
}

func NewMediaStore(root, urlPrefix string) *MediaStore {
	return &MediaStore{Root: root, URLPrefix: urlPrefix}
}

// Save stores an uploaded image under dir and returns its path relative to Root.
func (m *MediaStore) Save(file *multipart.FileHeader, dir string) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExtensions[ext] {
		errs := ValidationErrors{}
		errs.Add("file", CodeInvalid, "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
		return "", errs
	}

	rel := path.Join(dir, uuid.NewString()+ext)
	dst := filepath.Join(m.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create media directory: %w", err)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write media file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("close media file: %w", err)
	}

	return rel, nil
}

// Remove deletes a stored file; missing files are not an error.
func (m *MediaStore) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	err := os.Remove(filepath.Join(m.Root, filepath.FromSlash(rel)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// URL returns the public URL of a stored file, or "" when rel is empty.
func (m *MediaStore) URL(rel string) string {
	if rel == "" {
		return ""
	}
	return strings.TrimSuffix(m.URLPrefix, "/") + "/" + rel
}
