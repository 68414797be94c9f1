package config

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/lehigh-university-libraries/collager/internal/layout"
	"github.com/lehigh-university-libraries/collager/internal/models"
	"gopkg.in/yaml.v3"
)

// Config holds the folders and tunables for collage builds.
// It is passed explicitly to the collector, builder and handlers.
type Config struct {
	UploadDir       string `yaml:"upload_dir"`
	OutputDir       string `yaml:"output_dir"`
	OutputName      string `yaml:"output_name"`
	MotifPath       string `yaml:"motif_path"`
	CellWidth       int    `yaml:"cell_width"`
	CellHeight      int    `yaml:"cell_height"`
	ScaleFactor     int    `yaml:"scale_factor"`
	BorderThickness int    `yaml:"border_thickness"`
	// Pixel limits refused before allocation
	MaxCanvasPixels int    `yaml:"max_canvas_pixels"`
	MaxSourcePixels int    `yaml:"max_source_pixels"`
}

// Default returns the configuration the web app has always shipped with
func Default() Config {
	return Config{
		UploadDir:       filepath.Join("static", "uploads"),
		OutputDir:       filepath.Join("static", "output"),
		OutputName:      "collage.png",
		MotifPath:       "flower.png",
		CellWidth:       400,
		CellHeight:      400,
		ScaleFactor:     2,
		BorderThickness: 80,
		MaxCanvasPixels: models.DefaultMaxPixels,
		MaxSourcePixels: models.DefaultMaxPixels,
	}
}

// Load reads a YAML config file on top of the defaults.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	slog.Debug("Loaded config file", "path", path)
	return cfg, nil
}

// ApplyEnv overrides fields from COLLAGER_* environment variables
func (c *Config) ApplyEnv() error {
	strs := map[string]*string{
		"COLLAGER_UPLOAD_DIR":  &c.UploadDir,
		"COLLAGER_OUTPUT_DIR":  &c.OutputDir,
		"COLLAGER_OUTPUT_NAME": &c.OutputName,
		"COLLAGER_MOTIF_PATH":  &c.MotifPath,
	}
	for key, field := range strs {
		if v := os.Getenv(key); v != "" {
			*field = v
		}
	}

	ints := map[string]*int{
		"COLLAGER_CELL_WIDTH":        &c.CellWidth,
		"COLLAGER_CELL_HEIGHT":       &c.CellHeight,
		"COLLAGER_SCALE_FACTOR":      &c.ScaleFactor,
		"COLLAGER_BORDER_THICKNESS":  &c.BorderThickness,
		"COLLAGER_MAX_CANVAS_PIXELS": &c.MaxCanvasPixels,
		"COLLAGER_MAX_SOURCE_PIXELS": &c.MaxSourcePixels,
	}
	for key, field := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*field = n
	}

	return nil
}

// Validate rejects sizes that cannot produce a canvas. The canvas limit is
// checked against the largest grid so no folder contents can exceed it.
func (c Config) Validate() error {
	if c.CellWidth <= 0 || c.CellHeight <= 0 {
		return fmt.Errorf("cell size must be positive, got %dx%d", c.CellWidth, c.CellHeight)
	}
	if c.ScaleFactor < 1 {
		return fmt.Errorf("scale factor must be a positive integer, got %d", c.ScaleFactor)
	}
	if c.BorderThickness < 1 {
		return fmt.Errorf("border thickness must be a positive integer, got %d", c.BorderThickness)
	}
	if c.MaxCanvasPixels < 1 || c.MaxSourcePixels < 1 {
		return fmt.Errorf("pixel limits must be positive, got canvas %d, source %d", c.MaxCanvasPixels, c.MaxSourcePixels)
	}
	px := layout.MaxShape.CanvasPixels(
		float64(c.CellWidth)*float64(c.ScaleFactor),
		float64(c.CellHeight)*float64(c.ScaleFactor),
		float64(c.BorderThickness),
	)
	if px > float64(c.MaxCanvasPixels) {
		return fmt.Errorf("scale factor %d with border thickness %d gives a %s canvas of %.0f pixels, limit is %d",
			c.ScaleFactor, c.BorderThickness, layout.MaxShape, px, c.MaxCanvasPixels)
	}
	if c.MotifPath == "" {
		return fmt.Errorf("motif path is required")
	}
	if c.OutputName == "" {
		return fmt.Errorf("output name is required")
	}
	return nil
}

// BaseCellSize is the unscaled cell size
func (c Config) BaseCellSize() image.Point {
	return image.Pt(c.CellWidth, c.CellHeight)
}

// CellSize is the effective cell size after scaling
func (c Config) CellSize() image.Point {
	return image.Pt(c.CellWidth*c.ScaleFactor, c.CellHeight*c.ScaleFactor)
}

// MotifName is the reserved filename excluded from collection
func (c Config) MotifName() string {
	return filepath.Base(c.MotifPath)
}

// OutputPath is the fixed file each build overwrites
func (c Config) OutputPath() string {
	return filepath.Join(c.OutputDir, c.OutputName)
}
