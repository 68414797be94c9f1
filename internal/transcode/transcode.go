// Package transcode converts photos the image decoders cannot read natively
// (HEIC/HEIF from phones) into JPEG files next to the original.
package transcode

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/heic"
	"github.com/lehigh-university-libraries/collager/internal/models"
)

// TargetExt is the extension transcoded files are written with
const TargetExt = ".jpg"

// Extensions handled by the normalizer, lower case
var Extensions = []string{".heic", ".heif"}

// DecodeFunc decodes one source stream
type DecodeFunc func(io.Reader) (image.Image, error)

// ConfigFunc reads the dimensions from a source header
type ConfigFunc func(io.Reader) (image.Config, error)

// EncodeFunc writes the transcoded image
type EncodeFunc func(io.Writer, image.Image) error

// Normalizer decodes HEIC files and re-encodes them as JPEG
type Normalizer struct {
	Decode       DecodeFunc
	DecodeConfig ConfigFunc
	// Encode defaults to JPEG at Quality
	Encode EncodeFunc
	// JPEG quality for the re-encoded file
	Quality int
	// MaxPixels refuses sources whose header declares more pixels
	MaxPixels int
}

// New creates a normalizer backed by the HEIC decoder
func New() *Normalizer {
	return &Normalizer{
		Decode:       heic.Decode,
		DecodeConfig: heic.DecodeConfig,
		Quality:      95,
		MaxPixels:    models.DefaultMaxPixels,
	}
}

// Handles reports whether path has an extension the normalizer converts
func (n *Normalizer) Handles(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// TargetPath is the path a transcoded copy of path is written to
func TargetPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + TargetExt
}

// Normalize writes a JPEG copy of the file at path and returns its location.
// The source is left in place; removing it is the caller's job. An existing
// file at the target is only replaced once the copy is fully written.
func (n *Normalizer) Normalize(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", &models.DecodeError{Path: path, Err: err}
	}
	defer file.Close()

	if n.DecodeConfig != nil {
		cfg, err := n.DecodeConfig(file)
		if err != nil {
			return "", &models.DecodeError{Path: path, Err: err}
		}
		limit := n.MaxPixels
		if limit <= 0 {
			limit = models.DefaultMaxPixels
		}
		if derr := models.CheckPixels(path, cfg, limit); derr != nil {
			return "", derr
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return "", &models.DecodeError{Path: path, Err: err}
		}
	}

	img, err := n.Decode(file)
	if err != nil {
		return "", &models.DecodeError{Path: path, Err: err}
	}

	target := TargetPath(path)
	if err := n.write(img, target); err != nil {
		return "", &models.DecodeError{Path: path, Err: fmt.Errorf("failed to write %s: %w", target, err)}
	}

	slog.Debug("Transcoded image", "src", path, "dst", target,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return target, nil
}

// write encodes into a temp file next to target and renames it into place.
// The temp suffix is not an image extension so a leftover is never collected.
func (n *Normalizer) write(img image.Image, target string) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".transcode-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := n.encode(tmp, img); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}

func (n *Normalizer) encode(w io.Writer, img image.Image) error {
	if n.Encode != nil {
		return n.Encode(w, img)
	}
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(n.Quality))
}
