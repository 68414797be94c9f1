package layout

import "github.com/lehigh-university-libraries/collager/internal/models"

// tier maps an upper bound on the image count to a grid shape
type tier struct {
	maxImages int
	shape     models.GridShape
}

// Evaluated in order, first match wins. Anything past the last bound gets MaxShape.
var tiers = []tier{
	{maxImages: 4, shape: models.GridShape{Columns: 2, Rows: 2}},
	{maxImages: 6, shape: models.GridShape{Columns: 3, Rows: 2}},
}

// MaxShape caps a collage at nine images; the rest are dropped.
var MaxShape = models.GridShape{Columns: 3, Rows: 3}

// Plan picks the grid shape for count images. Zero images still get a 2x2 grid.
func Plan(count int) models.GridShape {
	for _, t := range tiers {
		if count <= t.maxImages {
			return t.shape
		}
	}
	return MaxShape
}

// Cells assigns paths to cells row-major, left to right, top to bottom.
// Paths beyond the grid capacity come back marked Dropped.
func Cells(paths []string, shape models.GridShape) []models.Placement {
	placements := make([]models.Placement, len(paths))
	for i, p := range paths {
		placements[i] = models.Placement{Index: i, Path: p}
		if i >= shape.Capacity() {
			placements[i].Dropped = true
			continue
		}
		placements[i].Row = i / shape.Columns
		placements[i].Col = i % shape.Columns
	}
	return placements
}
