package collage

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"

	"github.com/disintegration/imaging"
	"github.com/lehigh-university-libraries/collager/internal/layout"
	"github.com/lehigh-university-libraries/collager/internal/models"
	"golang.org/x/image/draw"
)

// Background is the canvas fill behind the grid
var Background = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Compositor pastes images into the cells of a grid canvas
type Compositor struct {
	// Cell is the effective cell size, base size times scale factor
	Cell   image.Point
	Border int
	// Filter used when scaling sources into cells. Must be a smooth filter.
	Filter imaging.ResampleFilter
	// MaxPixels caps the canvas; MaxSourcePixels caps each source image
	MaxPixels       int
	MaxSourcePixels int
}

// Fill reports what happened to each image offered to Compose
type Fill struct {
	Placed  int
	Dropped int
	Skipped []*models.DecodeError
}

// NewCompositor scales base by scale in both directions
func NewCompositor(base image.Point, scale, border int) *Compositor {
	return &Compositor{
		Cell:   base.Mul(scale),
		Border: border,
		Filter: imaging.CatmullRom,

		MaxPixels:       models.DefaultMaxPixels,
		MaxSourcePixels: models.DefaultMaxPixels,
	}
}

// CanvasSize reserves a border-wide margin on every side of the grid
func (c *Compositor) CanvasSize(shape models.GridShape) image.Point {
	return image.Pt(
		shape.Columns*c.Cell.X+2*c.Border,
		shape.Rows*c.Cell.Y+2*c.Border,
	)
}

// Compose allocates an opaque white canvas and pastes paths into it in order.
// Images past the grid capacity are never opened. An image that fails to
// decode leaves its cell empty. A canvas over MaxPixels is a FatalIOError.
func (c *Compositor) Compose(paths []string, shape models.GridShape) (*image.RGBA, *Fill, error) {
	if err := c.checkCanvas(shape); err != nil {
		return nil, nil, err
	}

	size := c.CanvasSize(shape)
	canvas := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	fill := &Fill{}
	for _, cell := range layout.Cells(paths, shape) {
		if cell.Dropped {
			fill.Dropped = len(paths) - cell.Index
			break
		}

		if err := c.paste(canvas, cell); err != nil {
			slog.Warn("Skipping image that could not be decoded", "path", cell.Path, "row", cell.Row, "col", cell.Col, "err", err)
			fill.Skipped = append(fill.Skipped, err)
			continue
		}
		fill.Placed++
	}

	return canvas, fill, nil
}

func (c *Compositor) checkCanvas(shape models.GridShape) error {
	if c.Cell.X <= 0 || c.Cell.Y <= 0 || c.Border < 0 {
		return &models.FatalIOError{Op: "allocate canvas", Path: shape.String(),
			Err: fmt.Errorf("invalid cell %dx%d with border %d", c.Cell.X, c.Cell.Y, c.Border)}
	}

	limit := c.MaxPixels
	if limit <= 0 {
		limit = models.DefaultMaxPixels
	}
	px := shape.CanvasPixels(float64(c.Cell.X), float64(c.Cell.Y), float64(c.Border))
	if px > float64(limit) {
		return &models.FatalIOError{Op: "allocate canvas", Path: shape.String(),
			Err: fmt.Errorf("%w: %.0f pixels, limit %d", models.ErrTooManyPixels, px, limit)}
	}
	return nil
}

func (c *Compositor) paste(canvas draw.Image, cell models.Placement) *models.DecodeError {
	src, derr := c.open(cell.Path)
	if derr != nil {
		return derr
	}

	// NRGBA keeps the source alpha for use as the paste mask
	resized := imaging.Resize(src, c.Cell.X, c.Cell.Y, c.Filter)

	x := cell.Col*c.Cell.X + c.Border
	y := cell.Row*c.Cell.Y + c.Border
	r := image.Rect(x, y, x+c.Cell.X, y+c.Cell.Y)
	draw.Draw(canvas, r, resized, image.Point{}, draw.Over)

	slog.Debug("Placed image", "path", cell.Path, "row", cell.Row, "col", cell.Col,
		"src_width", src.Bounds().Dx(), "src_height", src.Bounds().Dy())
	return nil
}

// open reads the image header first so an oversized source is refused
// before its pixel buffer is allocated
func (c *Compositor) open(path string) (image.Image, *models.DecodeError) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &models.DecodeError{Path: path, Err: err}
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, &models.DecodeError{Path: path, Err: err}
	}
	limit := c.MaxSourcePixels
	if limit <= 0 {
		limit = models.DefaultMaxPixels
	}
	if derr := models.CheckPixels(path, cfg, limit); derr != nil {
		return nil, derr
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, &models.DecodeError{Path: path, Err: err}
	}
	src, err := imaging.Decode(file)
	if err != nil {
		return nil, &models.DecodeError{Path: path, Err: err}
	}
	return src, nil
}
