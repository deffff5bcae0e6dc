package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/fikafood/fika/internal/models"
)

// MaxImageBytes is the largest accepted meal photo.
const MaxImageBytes = 10 << 20

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ImageMIMEType returns the MIME type for an accepted photo file name.
func ImageMIMEType(name string) (string, bool) {
	mt, ok := imageTypes[strings.ToLower(filepath.Ext(name))]
	return mt, ok
}

// ValidateImage checks a photo's extension and size.
func ValidateImage(name string, size int64) error {
	if _, ok := ImageMIMEType(name); !ok {
		return models.NewValidationError("image", "unsupported format, use jpg, jpeg, png or webp")
	}
	if size == 0 {
		return models.NewValidationError("image", "file is empty")
	}
	if size > MaxImageBytes {
		return models.NewValidationError("image", "file exceeds 10 MB")
	}
	return nil
}

// ImageStore keeps meal photos on disk under <root>/<user-id>/<uuid>.<ext>.
type ImageStore struct {
	root string
}

// NewImageStore creates the root directory if needed.
func NewImageStore(root string) (*ImageStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &ImageStore{root: root}, nil
}

// Save writes data for userID and returns the path relative to the root.
func (s *ImageStore) Save(userID, name string, data []byte) (string, error) {
	if err := ValidateImage(name, int64(len(data))); err != nil {
		return "", err
	}
	if userID == "" || strings.ContainsAny(userID, `/\`) || userID == ".." {
		return "", models.NewValidationError("user_id", "invalid")
	}
	dir := filepath.Join(s.root, userID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create user image directory: %w", err)
	}
	rel := filepath.Join(userID, uuid.New().String()+strings.ToLower(filepath.Ext(name)))
	if err := os.WriteFile(filepath.Join(s.root, rel), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

// Read returns a stored photo and its MIME type.
func (s *ImageStore) Read(rel string) ([]byte, string, error) {
	path, err := s.resolve(rel)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, "", notFound("image", rel)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	mt, _ := ImageMIMEType(rel)
	return data, mt, nil
}

// Remove deletes a stored photo. Missing files are ignored.
func (s *ImageStore) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	path, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove image: %w", err)
	}
	return nil
}

// Usage returns the bytes used by all stored photos.
func (s *ImageStore) Usage() (int64, error) {
	return DiskUsageBytes(s.root)
}

func (s *ImageStore) resolve(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", models.NewValidationError("image_path", "outside image directory")
	}
	return filepath.Join(s.root, clean), nil
}

// DiskUsageBytes returns the total size in bytes of the given paths.
// Each path may be a file or a directory (recursively summed). Missing paths count as 0.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		n, err := dirSize(p)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}
