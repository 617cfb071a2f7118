//go:build ignore

// Writes testdata/blocks.png, a 2×4 grid of coloured blocks with a soft
// vertical shading, for trying the segment and watershed commands:
//
//	go run testdata/generate_test_image.go
//	basin segment --preview preview.png testdata/blocks.png
package main

import (
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
)

func main() {
	const (
		width, height = 320, 320
		cols, rows    = 2, 4
		shade         = 24
	)
	blocks := []color.NRGBA{
		{R: 220, G: 40, B: 40, A: 255},
		{R: 40, G: 200, B: 60, A: 255},
		{R: 40, G: 60, B: 220, A: 255},
		{R: 230, G: 220, B: 40, A: 255},
		{R: 210, G: 40, B: 210, A: 255},
		{R: 40, G: 210, B: 220, A: 255},
		{R: 128, G: 128, B: 128, A: 255},
		{R: 240, G: 130, B: 20, A: 255},
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	bw, bh := width/cols, height/rows
	for y := 0; y < height; y++ {
		// Shading within a block stays well below the step between blocks.
		d := uint8((y % bh) * shade / bh)
		for x := 0; x < width; x++ {
			c := blocks[(y/bh)*cols+x/bw]
			img.SetNRGBA(x, y, color.NRGBA{R: sub(c.R, d), G: sub(c.G, d), B: sub(c.B, d), A: 255})
		}
	}

	f, err := os.Create("testdata/blocks.png")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		log.Fatal(err)
	}
	log.Println("wrote testdata/blocks.png")
}

func sub(v, d uint8) uint8 {
	if v < d {
		return 0
	}
	return v - d
}
