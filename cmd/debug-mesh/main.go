package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"gocv.io/x/gocv"

	"course-builder/internal/boundary"
	"course-builder/internal/pipeline"
	"course-builder/internal/surface"
)

var (
	imagePath = flag.String("image", "assets/track.png", "track image")
	scale     = flag.Float64("scale", 1, "metres per pixel")
	edgesPath = flag.String("edges", "", "write the Canny edge image here")
	low       = flag.Float64("low", 50, "Canny low threshold")
	high      = flag.Float64("high", 150, "Canny high threshold")
)

// Compares the edge pixels OpenCV finds in a track image with the edge
// candidates the boundary scanner reports for the same image at one sample
// per pixel. A large mismatch usually means the image colours fall outside
// the marker thresholds.
func main() {
	flag.Parse()

	// 1. Canny on the grayscale image.
	img := gocv.IMRead(*imagePath, gocv.IMReadColor)
	if img.Empty() {
		log.Fatalf("failed to read %s", *imagePath)
	}
	defer img.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, float32(*low), float32(*high))
	cannyCount := gocv.CountNonZero(edges)

	if *edgesPath != "" {
		if ok := gocv.IMWrite(*edgesPath, edges); !ok {
			log.Fatalf("failed to write %s", *edgesPath)
		}
	}

	// 2. Scanner over the same image.
	world, err := surface.LoadImageWorld(*imagePath, *scale)
	if err != nil {
		log.Fatalf("failed to load track image: %v", err)
	}
	p := pipeline.DefaultParams()
	origin, radius := world.ScanArea()
	found, err := boundary.Scan(context.Background(), world.NewProbe(), boundary.ScanOptions{
		Origin:        origin,
		Radius:        radius,
		Resolution:    *scale,
		ProbeHeight:   p.ProbeHeight,
		ProbeDistance: p.ProbeDistance,
		TrackMask:     p.TrackMask,
		GrassMask:     p.GrassMask,
	})
	if err != nil {
		log.Fatalf("scan failed: %v", err)
	}

	fmt.Printf("image:          %dx%d\n", img.Cols(), img.Rows())
	fmt.Printf("canny pixels:   %d\n", cannyCount)
	fmt.Printf("scanner edges:  %d\n", len(found))
	if cannyCount > 0 {
		fmt.Printf("ratio:          %.2f\n", float64(len(found))/float64(cannyCount))
	}
}
