package collage

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/lehigh-university-libraries/collager/internal/models"
	"golang.org/x/image/draw"
)

// LoadMotif decodes the border motif. A missing or unreadable motif is fatal.
func LoadMotif(path string) (image.Image, error) {
	motif, err := imaging.Open(path)
	if err != nil {
		return nil, &models.FatalIOError{Op: "load border motif", Path: path, Err: err}
	}
	return motif, nil
}

// TileSize is the edge length of one motif stamp
func TileSize(thickness int) int {
	return 2 * thickness
}

// Decorate stamps motif along all four edges of canvas.
// Top and bottom edges are stamped first, then left and right, so the
// vertical pass wins where the stamps overlap at the corners. Stamps past
// the far edge are clipped.
func Decorate(canvas draw.Image, motif image.Image, thickness int) {
	tile := TileSize(thickness)
	stamp := imaging.Resize(motif, tile, tile, imaging.CatmullRom)

	b := canvas.Bounds()
	w, h := b.Dx(), b.Dy()

	for x := 0; x < w; x += tile {
		stampAt(canvas, stamp, x, 0)
		stampAt(canvas, stamp, x, h-tile)
	}

	for y := 0; y < h; y += tile {
		stampAt(canvas, stamp, 0, y)
		stampAt(canvas, stamp, w-tile, y)
	}
}

func stampAt(canvas draw.Image, stamp *image.NRGBA, x, y int) {
	origin := canvas.Bounds().Min
	r := image.Rect(x, y, x+stamp.Bounds().Dx(), y+stamp.Bounds().Dy()).Add(origin)
	draw.Draw(canvas, r, stamp, image.Point{}, draw.Over)
}
