package collage

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/lehigh-university-libraries/collager/internal/config"
	"github.com/lehigh-university-libraries/collager/internal/imageset"
	"github.com/lehigh-university-libraries/collager/internal/layout"
	"github.com/lehigh-university-libraries/collager/internal/models"
)

// Builder runs the whole pipeline: collect, plan, compose, decorate, save
type Builder struct {
	cfg        config.Config
	Collector  *imageset.Collector
	Compositor *Compositor
}

// NewBuilder creates a builder from a validated config
func NewBuilder(cfg config.Config) *Builder {
	collector := imageset.NewCollector(cfg.MotifName())
	collector.Normalizer.MaxPixels = cfg.MaxSourcePixels

	compositor := NewCompositor(cfg.BaseCellSize(), cfg.ScaleFactor, cfg.BorderThickness)
	compositor.MaxPixels = cfg.MaxCanvasPixels
	compositor.MaxSourcePixels = cfg.MaxSourcePixels

	return &Builder{
		cfg:        cfg,
		Collector:  collector,
		Compositor: compositor,
	}
}

// Build composes the images in dir into one framed collage written to output.
// Per-image decode failures are reported in the summary; anything returned as
// an error aborted the build.
func (b *Builder) Build(dir, output string) (*models.BuildSummary, error) {
	start := time.Now()

	set, err := b.Collector.Collect(dir)
	if err != nil {
		return nil, err
	}

	shape := layout.Plan(len(set.Paths))
	slog.Info("Planned collage layout", "images", len(set.Paths), "layout", shape.String())

	motif, err := LoadMotif(b.cfg.MotifPath)
	if err != nil {
		return nil, err
	}

	canvas, fill, err := b.Compositor.Compose(set.Paths, shape)
	if err != nil {
		return nil, err
	}
	Decorate(canvas, motif, b.cfg.BorderThickness)

	outDir := filepath.Dir(output)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, &models.FatalIOError{Op: "create output folder", Path: outDir, Err: err}
	}
	if err := imaging.Save(canvas, output); err != nil {
		return nil, &models.FatalIOError{Op: "write collage", Path: output, Err: err}
	}

	summary := &models.BuildSummary{
		Placed:     fill.Placed,
		Grid:       shape,
		Width:      canvas.Bounds().Dx(),
		Height:     canvas.Bounds().Dy(),
		Dropped:    fill.Dropped,
		OutputPath: output,
		Duration:   time.Since(start),
	}
	for _, e := range set.Skipped {
		summary.Skipped = append(summary.Skipped, e.Skipped())
	}
	for _, e := range fill.Skipped {
		summary.Skipped = append(summary.Skipped, e.Skipped())
	}

	if fill.Dropped > 0 {
		slog.Info("Grid full, extra images left out", "dropped", fill.Dropped, "capacity", shape.Capacity())
	}
	slog.Info(summary.String(), "output", output, "skipped", len(summary.Skipped), "duration", summary.Duration)

	return summary, nil
}
