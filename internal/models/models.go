package models

import (
	"fmt"
	"time"
)

// DefaultMaxPixels bounds decoded sources and the canvas alike
const DefaultMaxPixels = 100_000_000

// GridShape is the column/row layout chosen for a collage
type GridShape struct {
	Columns int `json:"columns" yaml:"columns"`
	Rows    int `json:"rows" yaml:"rows"`
}

// Capacity is the number of cells in the grid
func (g GridShape) Capacity() int {
	return g.Columns * g.Rows
}

// CanvasPixels is the pixel count of a canvas holding this grid with a border
// margin on every side. Float arithmetic so oversized settings cannot overflow.
func (g GridShape) CanvasPixels(cellW, cellH, border float64) float64 {
	w := float64(g.Columns)*cellW + 2*border
	h := float64(g.Rows)*cellH + 2*border
	return w * h
}

func (g GridShape) String() string {
	return fmt.Sprintf("%dx%d", g.Columns, g.Rows)
}

// Placement assigns one collected image to a grid cell.
// Dropped is set for images past the grid capacity; Row and Col are then meaningless.
type Placement struct {
	Index   int    `json:"index" yaml:"index" parquet:"index"`
	Path    string `json:"path" yaml:"path" parquet:"path"`
	Row     int    `json:"row" yaml:"row" parquet:"row"`
	Col     int    `json:"col" yaml:"col" parquet:"col"`
	Dropped bool   `json:"dropped" yaml:"dropped" parquet:"dropped"`
}

// SkippedImage records an image that could not be decoded or transcoded
type SkippedImage struct {
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"reason" yaml:"reason"`
}

// BuildSummary is what a finished collage build reports back to its caller
type BuildSummary struct {
	Placed     int            `json:"placed" yaml:"placed"`
	Grid       GridShape      `json:"grid" yaml:"grid"`
	Width      int            `json:"width" yaml:"width"`
	Height     int            `json:"height" yaml:"height"`
	Dropped    int            `json:"dropped" yaml:"dropped"`
	Skipped    []SkippedImage `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	OutputPath string         `json:"output_path" yaml:"output_path"`
	Duration   time.Duration  `json:"duration" yaml:"duration"`
}

func (s *BuildSummary) String() string {
	return fmt.Sprintf("Collage created with %d images. Layout: %s. Collage size: (%d, %d)",
		s.Placed, s.Grid, s.Width, s.Height)
}

// UploadedImage represents a file in the upload folder
type UploadedImage struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Size   int64  `json:"size"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}
