package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
)

var (
	outPath = flag.String("out", "assets/track.png", "output PNG")
	width   = flag.Int("width", 800, "image width in pixels")
	height  = flag.Int("height", 600, "image height in pixels")
)

var (
	tarmac = color.RGBA{235, 235, 235, 255}
	grass  = color.RGBA{40, 160, 40, 255}
	wall   = color.RGBA{10, 10, 10, 255}
	red    = color.RGBA{255, 0, 0, 255}
	yellow = color.RGBA{255, 255, 0, 255}
)

func main() {
	flag.Parse()
	w, h := *width, *height
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	// 1. Grass everywhere, walls along the border.
	const border = 8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < border || y < border || x >= w-border || y >= h-border {
				img.Set(x, y, wall)
			} else {
				img.Set(x, y, grass)
			}
		}
	}

	// 2. Tarmac between an outer ellipse and an off-centre infield, so the
	// straights differ in width.
	cx, cy := float64(w)/2, float64(h)/2
	outerX, outerY := float64(w)*0.40, float64(h)*0.38
	innerX, innerY := outerX*0.72, outerY*0.62
	innerCX := cx + float64(w)*0.04
	inside := func(x, y, ex, ey, rx, ry float64) bool {
		dx, dy := (x-ex)/rx, (y-ey)/ry
		return dx*dx+dy*dy <= 1
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fx, fy := float64(x)+0.5, float64(y)+0.5
			if inside(fx, fy, cx, cy, outerX, outerY) && !inside(fx, fy, innerCX, cy, innerX, innerY) {
				img.Set(x, y, tarmac)
			}
		}
	}

	// 3. Start line across the top straight, direction hint just to its
	// right so laps run clockwise on screen.
	top := int(cy - outerY)
	for y := top; y < int(cy-innerY); y++ {
		for x := int(cx) - 3; x < int(cx)+3; x++ {
			if img.RGBAAt(x, y) == tarmac {
				img.Set(x, y, red)
			}
		}
	}
	hintX := int(cx + outerX*0.15)
	hintY := int(cy - (outerY+innerY)/2)
	for y := hintY - 2; y <= hintY+2; y++ {
		for x := hintX - 2; x <= hintX+2; x++ {
			if img.RGBAAt(x, y) == tarmac {
				img.Set(x, y, yellow)
			}
		}
	}

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("failed to create %s: %v", *outPath, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		log.Fatalf("failed to encode track: %v", err)
	}
}
