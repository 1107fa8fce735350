package multibox

import (
	"image"
	"image/color"
	"testing"
)

func TestAtlasLayout(t *testing.T) {
	cases := []struct {
		n, cols, rows int
	}{
		{1, 1, 1},
		{2, 2, 1},
		{4, 2, 2},
		{5, 3, 2},
		{9, 3, 3},
		{10, 4, 3},
		{26, 6, 5},
	}
	for _, tc := range cases {
		cols, rows, _, _ := atlasLayout(tc.n, 2048, 2048)
		if cols != tc.cols || rows != tc.rows {
			t.Errorf("atlasLayout(%d) = %dx%d, want %dx%d", tc.n, cols, rows, tc.cols, tc.rows)
		}
	}
}

func TestFitInside(t *testing.T) {
	cases := []struct {
		w, h, boxW, boxH, wantW, wantH int
	}{
		{100, 150, 50, 50, 33, 50},  // tall poster, height-bound
		{200, 100, 50, 50, 50, 25},  // wide, width-bound
		{50, 50, 100, 100, 100, 100}, // upscale to fill
	}
	for _, tc := range cases {
		gotW, gotH := fitInside(tc.w, tc.h, tc.boxW, tc.boxH)
		if gotW != tc.wantW || gotH != tc.wantH {
			t.Errorf("fitInside(%d,%d in %d,%d) = %d,%d; want %d,%d",
				tc.w, tc.h, tc.boxW, tc.boxH, gotW, gotH, tc.wantW, tc.wantH)
		}
	}
}

func solidImage(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestPackAtlasPlacement(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	posters := []image.Image{
		solidImage(100, 100, red),
		solidImage(100, 100, blue),
		solidImage(100, 100, red),
		solidImage(100, 100, blue),
		solidImage(100, 100, red),
	}

	atlas, cells := packAtlas(posters, 300, 200)
	// 5 posters: 3 columns x 2 rows, 100x100 cells
	if got := atlas.Bounds(); got.Dx() != 300 || got.Dy() != 200 {
		t.Fatalf("atlas bounds = %v", got)
	}
	if len(cells) != 5 {
		t.Fatalf("got %d cells", len(cells))
	}

	wantOrigins := [][2]int{{0, 0}, {100, 0}, {200, 0}, {0, 100}, {100, 100}}
	for i, cell := range cells {
		if cell.X != wantOrigins[i][0] || cell.Y != wantOrigins[i][1] {
			t.Errorf("cell %d at (%d,%d), want (%d,%d)", i, cell.X, cell.Y, wantOrigins[i][0], wantOrigins[i][1])
		}
		if cell.Width != 100 || cell.Height != 100 {
			t.Errorf("cell %d size %dx%d, want 100x100", i, cell.Width, cell.Height)
		}
	}

	// sample the middle of the second cell: solid blue poster
	r, g, b, _ := atlas.At(150, 50).RGBA()
	if b>>8 < 200 || r>>8 > 50 || g>>8 > 50 {
		t.Fatalf("cell 1 center = rgb(%d,%d,%d), want blue", r>>8, g>>8, b>>8)
	}
}

func TestPackAtlasPreservesAspect(t *testing.T) {
	// 2:3 portrait poster in a square-ish cell stays 2:3
	posters := []image.Image{solidImage(200, 300, color.RGBA{R: 255, A: 255})}
	_, cells := packAtlas(posters, 300, 300)
	cell := cells[0]
	if cell.Width != 200 || cell.Height != 300 {
		t.Fatalf("cell = %dx%d, want 200x300", cell.Width, cell.Height)
	}
}
