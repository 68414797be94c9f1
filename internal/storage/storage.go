package storage

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/lehigh-university-libraries/collager/internal/models"
	_ "golang.org/x/image/bmp"
)

// ErrNotFound is returned when deleting a file that isn't in the upload folder
var ErrNotFound = errors.New("upload not found")

// UploadStore owns the upload folder. Every operation, builds included,
// runs under one lock so a build always sees a stable snapshot.
type UploadStore struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) *UploadStore {
	return &UploadStore{dir: dir}
}

// Dir is the folder the store manages
func (s *UploadStore) Dir() string {
	return s.dir
}

// Init creates the upload folder if needed
func (s *UploadStore) Init() error {
	return os.MkdirAll(s.dir, 0755)
}

// Save writes data under a sanitised version of name and returns the stored name
func (s *UploadStore) Save(name string, data []byte) (string, error) {
	clean := SecureFilename(name)
	if clean == "" {
		return "", fmt.Errorf("invalid filename %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload folder: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, clean), data, 0644); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	return clean, nil
}

// Delete removes one upload
func (s *UploadStore) Delete(name string) error {
	clean := SecureFilename(name)
	if clean == "" || clean != name {
		return ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(filepath.Join(s.dir, clean))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}

// List returns the regular files in the upload folder, sorted by name
func (s *UploadStore) List() ([]models.UploadedImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.UploadedImage{}, nil
		}
		return nil, fmt.Errorf("failed to read upload folder: %w", err)
	}

	images := make([]models.UploadedImage, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(s.dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		item := models.UploadedImage{
			Name: entry.Name(),
			URL:  "/static/uploads/" + entry.Name(),
			Size: info.Size(),
		}
		// not every upload is decodable; dimensions are best effort
		if w, h, err := imageDimensions(path); err == nil {
			item.Width, item.Height = w, h
		}
		images = append(images, item)
	}

	sort.Slice(images, func(i, j int) bool { return images[i].Name < images[j].Name })
	return images, nil
}

// Exclusive runs fn with the folder locked against uploads and deletes
func (s *UploadStore) Exclusive(fn func(dir string) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.dir)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces name to a flat, ASCII-only filename that cannot
// escape the upload folder. Returns "" if nothing usable is left.
func SecureFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	if name == "" || name == "." || name == ".." {
		return ""
	}
	return name
}

func imageDimensions(path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
