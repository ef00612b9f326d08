// Package media stores uploaded images and hands back the URL they are
// served under.
package media

import (
	"errors"         // Sentinel errors
	"mime/multipart" // Uploaded files
	"os"             // File system access
	"path"           // URL paths
	"path/filepath"  // File paths
	"strings"        // String manipulation

	"github.com/gin-gonic/gin" // Gin web framework
	"github.com/google/uuid"   // Random file names
)

// ErrUnsupportedImage is returned for uploads that are not a known image type
var ErrUnsupportedImage = errors.New("upload a valid image")

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".svg": true,
}

// Store accepts an uploaded image and returns a retrievable URL
type Store interface {
	Save(c *gin.Context, file *multipart.FileHeader, folder string) (string, error) // Store and return the URL
	Remove(ref string) error                                                        // Drop a stored file by URL
}

// CheckImage returns ErrUnsupportedImage unless file has an image extension
func CheckImage(file *multipart.FileHeader) error {
	if !imageExtensions[strings.ToLower(filepath.Ext(file.Filename))] {
		return ErrUnsupportedImage // Unknown or missing extension
	}
	return nil
}

// LocalStore writes uploads below Dir and serves them under BaseURL
type LocalStore struct {
	Dir     string // Upload root on disk
	BaseURL string // URL prefix files are served under
}

// NewLocalStore returns a LocalStore rooted at dir
func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{Dir: dir, BaseURL: baseURL}
}

// Save stores file under folder with a random name, keeping its extension
func (s *LocalStore) Save(c *gin.Context, file *multipart.FileHeader, folder string) (string, error) {
	if err := CheckImage(file); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	name := uuid.NewString() + ext // Never trust the client file name
	dir := filepath.Join(s.Dir, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := c.SaveUploadedFile(file, filepath.Join(dir, name)); err != nil {
		return "", err
	}
	return path.Join("/", s.BaseURL, folder, name), nil
}

// Remove deletes a file previously returned by Save. Missing files and URLs
// outside BaseURL are ignored.
func (s *LocalStore) Remove(ref string) error {
	base := path.Join("/", s.BaseURL) + "/"
	rel := strings.TrimPrefix(path.Clean(ref), base)
	if rel == path.Clean(ref) || rel == "" {
		return nil // Not one of ours
	}
	err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(rel)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
