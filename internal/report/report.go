package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/collager/internal/config"
	"github.com/lehigh-university-libraries/collager/internal/models"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// BuildConfig is the configuration section of a build report
type BuildConfig struct {
	UploadDir       string `yaml:"uploaddir"`
	MotifPath       string `yaml:"motifpath"`
	CellWidth       int    `yaml:"cellwidth"`
	CellHeight      int    `yaml:"cellheight"`
	ScaleFactor     int    `yaml:"scalefactor"`
	BorderThickness int    `yaml:"borderthickness"`
	Timestamp       string `yaml:"timestamp"`
}

// BuildReport is the YAML document written after a build
type BuildReport struct {
	Config  BuildConfig          `yaml:"config"`
	Summary *models.BuildSummary `yaml:"summary"`
}

// SaveBuildYAML writes the build summary and the settings that produced it
func SaveBuildYAML(path string, cfg config.Config, summary *models.BuildSummary) error {
	report := BuildReport{
		Config: BuildConfig{
			UploadDir:       cfg.UploadDir,
			MotifPath:       cfg.MotifPath,
			CellWidth:       cfg.CellWidth,
			CellHeight:      cfg.CellHeight,
			ScaleFactor:     cfg.ScaleFactor,
			BorderThickness: cfg.BorderThickness,
			Timestamp:       time.Now().Format("2006-01-02_15-04-05"),
		},
		Summary: summary,
	}

	data, err := yaml.Marshal(&report)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := writeFile(path, data); err != nil {
		return err
	}

	slog.Info("Build report saved", "path", path)
	return nil
}

// WritePlan exports cell placements. The format follows the extension:
// .parquet, .jsonl or .yaml.
func WritePlan(path string, placements []models.Placement) error {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".parquet":
		return writePlanParquet(path, placements)
	case ".jsonl", ".json":
		return writePlanJSONL(path, placements)
	case ".yaml", ".yml":
		data, err := yaml.Marshal(placements)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return writeFile(path, data)
	default:
		return fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl, .yaml)", ext)
	}
}

func writePlanParquet(path string, placements []models.Placement) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := parquet.WriteFile(path, placements); err != nil {
		return fmt.Errorf("failed to write parquet file: %w", err)
	}
	slog.Debug("Wrote plan", "path", path, "rows", len(placements))
	return nil
}

func writePlanJSONL(path string, placements []models.Placement) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plan file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	for _, p := range placements {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("failed to encode placement %d: %w", p.Index, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write plan file: %w", err)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	return nil
}
