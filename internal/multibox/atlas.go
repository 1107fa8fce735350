package multibox

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// AtlasCell is the placement of one poster inside the packed atlas.
type AtlasCell struct {
	X, Y          int
	Width, Height int
}

// atlasLayout computes the grid for n posters inside maxWidth x maxHeight:
// ceil(sqrt(n)) columns, rows to fit.
func atlasLayout(n, maxWidth, maxHeight int) (cols, rows, cellWidth, cellHeight int) {
	if n <= 0 {
		return 0, 0, 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = (n + cols - 1) / cols
	cellWidth = maxWidth / cols
	cellHeight = maxHeight / rows
	return cols, rows, cellWidth, cellHeight
}

// packAtlas scales each poster to fit its grid cell (preserving aspect ratio)
// and draws it into a single RGBA image. Returned cells parallel the posters
// slice and record actual placed geometry.
func packAtlas(posters []image.Image, maxWidth, maxHeight int) (*image.RGBA, []AtlasCell) {
	cols, rows, cellWidth, cellHeight := atlasLayout(len(posters), maxWidth, maxHeight)
	atlas := image.NewRGBA(image.Rect(0, 0, cellWidth*cols, cellHeight*rows))

	cells := make([]AtlasCell, len(posters))
	for i, poster := range posters {
		col := i % cols
		row := i / cols
		bounds := poster.Bounds()
		width, height := fitInside(bounds.Dx(), bounds.Dy(), cellWidth, cellHeight)

		cell := AtlasCell{
			X:      col * cellWidth,
			Y:      row * cellHeight,
			Width:  width,
			Height: height,
		}
		target := image.Rect(cell.X, cell.Y, cell.X+width, cell.Y+height)
		draw.CatmullRom.Scale(atlas, target, poster, bounds, draw.Over, nil)
		cells[i] = cell
	}
	return atlas, cells
}

// fitInside scales (w, h) down (or up) to the largest size fitting the box
// while preserving aspect ratio.
func fitInside(w, h, boxW, boxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return boxW, boxH
	}
	scale := math.Min(float64(boxW)/float64(w), float64(boxH)/float64(h))
	scaledW := int(math.Round(float64(w) * scale))
	scaledH := int(math.Round(float64(h) * scale))
	if scaledW < 1 {
		scaledW = 1
	}
	if scaledH < 1 {
		scaledH = 1
	}
	return scaledW, scaledH
}
