package imageset

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lehigh-university-libraries/collager/internal/models"
	"github.com/lehigh-university-libraries/collager/internal/transcode"
)

// Extensions recognised as collage sources, lower case
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".heic", ".heif"}

// Result is one snapshot of the upload folder
type Result struct {
	// Paths in placement order
	Paths []string
	// Skipped holds files that failed transcoding
	Skipped []*models.DecodeError
}

// Collector scans an upload folder for composable images
type Collector struct {
	// Reserved is the motif filename, never treated as a photo
	Reserved   string
	Normalizer *transcode.Normalizer
}

// NewCollector creates a collector that skips the given motif filename
func NewCollector(reserved string) *Collector {
	return &Collector{
		Reserved:   reserved,
		Normalizer: transcode.New(),
	}
}

// Collect lists dir, transcodes HEIC files in place and returns the
// deduplicated, sorted image paths.
func (c *Collector) Collect(dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &models.FatalIOError{Op: "read upload folder", Path: dir, Err: err}
	}

	result := &Result{}
	var paths []string

	for _, entry := range entries {
		name := entry.Name()
		if name == c.Reserved || !hasImageExt(name) {
			continue
		}

		path := filepath.Join(dir, name)
		if !isRegularFile(path) {
			continue
		}

		if c.Normalizer != nil && c.Normalizer.Handles(path) {
			converted, err := c.Normalizer.Normalize(path)
			if err != nil {
				var decodeErr *models.DecodeError
				if !errors.As(err, &decodeErr) {
					decodeErr = &models.DecodeError{Path: path, Err: err}
				}
				slog.Warn("Skipping image that could not be transcoded", "path", path, "err", err)
				result.Skipped = append(result.Skipped, decodeErr)
				continue
			}

			if err := os.Remove(path); err != nil {
				slog.Warn("Failed to remove transcoded original", "path", path, "err", err)
			}
			path = converted
		}

		paths = append(paths, path)
	}

	result.Paths = Dedupe(paths)
	slog.Debug("Collected images", "dir", dir, "count", len(result.Paths), "skipped", len(result.Skipped))

	return result, nil
}

// Dedupe removes repeated paths and sorts the rest lexicographically.
// The order decides grid placement, so it must not depend on directory order.
func Dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	unique := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	sort.Strings(unique)
	return unique
}

func hasImageExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
