package transcode

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/lehigh-university-libraries/collager/internal/models"
)

// pngNormalizer treats .heic fixtures as PNG payloads so tests don't need real HEIC files
func pngNormalizer() *Normalizer {
	return &Normalizer{Decode: png.Decode, DecodeConfig: png.DecodeConfig, Quality: 90, MaxPixels: models.DefaultMaxPixels}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create fixture: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode fixture: %v", err)
	}
}

func TestHandles(t *testing.T) {
	n := New()
	tests := []struct {
		path     string
		expected bool
	}{
		{"IMG_0001.HEIC", true},
		{"IMG_0001.heic", true},
		{"burst.heif", true},
		{"photo.jpg", false},
		{"heic", false},
		{"archive.heic.zip", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := n.Handles(tt.path); got != tt.expected {
				t.Errorf("Expected Handles(%q) = %v, got %v", tt.path, tt.expected, got)
			}
		})
	}
}

func TestTargetPath(t *testing.T) {
	if got := TargetPath("/up/IMG_0001.HEIC"); got != "/up/IMG_0001.jpg" {
		t.Errorf("Expected /up/IMG_0001.jpg, got %s", got)
	}
}

func TestNormalize(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "IMG_0001.heic")
	writePNG(t, src, 12, 8)

	target, err := pngNormalizer().Normalize(src)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if target != filepath.Join(tmpDir, "IMG_0001.jpg") {
		t.Errorf("Unexpected target path %s", target)
	}

	img, err := imaging.Open(target)
	if err != nil {
		t.Fatalf("Transcoded file is not decodable: %v", err)
	}
	if img.Bounds().Dx() != 12 || img.Bounds().Dy() != 8 {
		t.Errorf("Expected 12x8, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}

	// the source is the caller's to remove
	if _, err := os.Stat(src); err != nil {
		t.Errorf("Expected source to remain, got %v", err)
	}
}

func TestNormalizeCorrupt(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "broken.heic")
	if err := os.WriteFile(src, []byte("not an image"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	_, err := pngNormalizer().Normalize(src)
	var decodeErr *models.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Expected DecodeError, got %v", err)
	}
	if decodeErr.Path != src {
		t.Errorf("Expected error path %s, got %s", src, decodeErr.Path)
	}

	if _, err := os.Stat(TargetPath(src)); !os.IsNotExist(err) {
		t.Error("Expected no transcoded file after a failed decode")
	}
}

func TestNormalizeMissing(t *testing.T) {
	n := &Normalizer{Decode: func(io.Reader) (image.Image, error) {
		t.Fatal("decoder should not be called for a missing file")
		return nil, nil
	}}

	_, err := n.Normalize(filepath.Join(t.TempDir(), "gone.heic"))
	var decodeErr *models.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Expected DecodeError, got %v", err)
	}
}

func TestNormalizeRefusesOversize(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "IMG_0002.heic")
	writePNG(t, src, 12, 8)

	n := pngNormalizer()
	n.MaxPixels = 50
	n.Decode = func(io.Reader) (image.Image, error) {
		t.Fatal("decoder should not be called for an oversized header")
		return nil, nil
	}

	_, err := n.Normalize(src)
	if !errors.Is(err, models.ErrTooManyPixels) {
		t.Fatalf("Expected ErrTooManyPixels, got %v", err)
	}
	if _, err := os.Stat(TargetPath(src)); !os.IsNotExist(err) {
		t.Error("Expected no transcoded file for an oversized source")
	}
}

func TestNormalizeWriteFailureKeepsExistingTarget(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "IMG_0003.heic")
	writePNG(t, src, 4, 4)

	existing := []byte("the user's own photo")
	if err := os.WriteFile(TargetPath(src), existing, 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	n := pngNormalizer()
	n.Encode = func(w io.Writer, img image.Image) error {
		if _, err := w.Write([]byte("partial")); err != nil {
			return err
		}
		return errors.New("disk full")
	}

	_, err := n.Normalize(src)
	var decodeErr *models.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Expected DecodeError, got %v", err)
	}

	got, err := os.ReadFile(TargetPath(src))
	if err != nil {
		t.Fatalf("Existing target was removed: %v", err)
	}
	if !bytes.Equal(got, existing) {
		t.Errorf("Existing target was modified: %q", got)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("Failed to list dir: %v", err)
	}
	if len(entries) != 2 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("Expected only the source and the existing photo, got %v", names)
	}
}
