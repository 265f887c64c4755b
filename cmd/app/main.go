package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"log/slog"
	"os"

	"github.com/golang/geo/r3"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"course-builder/internal/common"
	"course-builder/internal/config"
	"course-builder/internal/monitoring"
	"course-builder/internal/pipeline"
	"course-builder/internal/surface"
	"course-builder/internal/track"
)

// Render window dimensions
const (
	WindowWidth  = 1200
	WindowHeight = 800
)

const (
	ViewScaleMargin = 0.95 // Margin for fitting the scan area in the window
	RasterSize      = 400  // Pixels per side of the rendered world
	RacingLineStep  = 1.0  // Metres between racing line samples
)

var (
	configPath = flag.String("config", "", "course config JSON (defaults when empty)")
	imagePath  = flag.String("image", "", "track image; a ring world is used when empty")
	imageScale = flag.Float64("scale", 1, "metres per pixel of -image")
)

// Track surface colors
var (
	ColorTrack   = color.RGBA{80, 80, 80, 255}
	ColorGrass   = color.RGBA{30, 90, 30, 255}
	ColorBarrier = color.RGBA{10, 10, 10, 255}
	ColorVoid    = color.RGBA{0, 0, 0, 255}
)

// Visualization colors
var (
	ColorBoundary   = color.RGBA{255, 255, 255, 200}
	ColorRib        = color.RGBA{50, 155, 50, 90}
	ColorCheckpoint = color.RGBA{100, 200, 255, 255}
	ColorRacingLine = color.RGBA{255, 0, 255, 255}
	ColorSpawn      = color.RGBA{255, 255, 0, 255}
	ColorStart      = color.RGBA{255, 0, 0, 255}
)

type Game struct {
	Gen        *pipeline.Generator
	Params     pipeline.Params
	WorldImage *ebiten.Image

	// Snapshot of the last published layout, refreshed in Update.
	Course     *track.Layout
	RacingLine []r3.Vector
	LastErr    error

	ShowRibs bool

	// World to screen mapping
	Origin      r3.Vector
	Radius      float64
	ViewScale   float32
	ViewOffsetX float32
	ViewOffsetY float32
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := g.Gen.Regenerate(g.Params); err != nil {
			g.LastErr = err
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		if _, err := g.Gen.RegenerateSpawns(g.Params.SpawnCount, g.Params.SpawnSeparation); err != nil {
			g.LastErr = err
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyW) {
		g.ShowRibs = !g.ShowRibs
	}

	if l := g.Gen.Layout(); l != g.Course {
		g.Course = l
		g.RacingLine = nil
		if l != nil {
			g.RacingLine = l.RacingLine(RacingLineStep)
		}
	}
	if err := g.Gen.Err(); err != nil {
		g.LastErr = err
	}
	return nil
}

// toScreen maps world X/Z onto the window.
func (g *Game) toScreen(p r3.Vector) (float32, float32) {
	// Raster pixel (0, 0) sits at Origin - Radius on both ground axes.
	r := common.Flat(p).Sub(common.Flat(g.Origin)).
		Add(common.Vec2{X: g.Radius, Y: g.Radius}).
		Scale(RasterSize / (2 * g.Radius))
	return float32(r.X)*g.ViewScale + g.ViewOffsetX, float32(r.Y)*g.ViewScale + g.ViewOffsetY
}

func (g *Game) strokeLoop(screen *ebiten.Image, points []r3.Vector, width float32, clr color.Color) {
	for i := range points {
		x1, y1 := g.toScreen(points[i])
		x2, y2 := g.toScreen(points[(i+1)%len(points)])
		vector.StrokeLine(screen, x1, y1, x2, y2, width, clr, true)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(g.ViewScale), float64(g.ViewScale))
	op.GeoM.Translate(float64(g.ViewOffsetX), float64(g.ViewOffsetY))
	screen.DrawImage(g.WorldImage, op)

	// Boundaries show up as soon as the scan is published.
	if b, ok := g.Gen.Boundaries(); ok {
		g.strokeLoop(screen, b.Outer, 1, ColorBoundary)
		g.strokeLoop(screen, b.Inner, 1, ColorBoundary)
	}

	if g.Course != nil {
		for _, cp := range g.Course.Checkpoints() {
			if g.ShowRibs {
				half := cp.Frame.Right.Mul(cp.Width / 2)
				x1, y1 := g.toScreen(cp.Position.Sub(half))
				x2, y2 := g.toScreen(cp.Position.Add(half))
				vector.StrokeLine(screen, x1, y1, x2, y2, 1, ColorRib, true)
			}
			x, y := g.toScreen(cp.Position)
			clr := ColorCheckpoint
			if cp.Index == 0 {
				clr = ColorStart
			}
			vector.FillCircle(screen, x, y, 2.5, clr, true)
		}

		if len(g.RacingLine) > 1 {
			g.strokeLoop(screen, g.RacingLine, 2, ColorRacingLine)
		}

		for _, sp := range g.Course.SpawnPoints() {
			x, y := g.toScreen(sp.Position)
			tipX, tipY := g.toScreen(sp.Position.Add(sp.Frame.Forward.Mul(4)))
			vector.FillCircle(screen, x, y, 3, ColorSpawn, true)
			vector.StrokeLine(screen, x, y, tipX, tipY, 2, ColorSpawn, true)
		}
	}

	vector.FillRect(screen, 0, 0, 200, 150, color.RGBA{0, 0, 0, 180}, true)
	msg := "COURSE BUILDER\n"
	msg += "----------------\n"
	msg += fmt.Sprintf("Stage:  %s\n", g.Gen.Stage())
	if g.Course != nil {
		msg += fmt.Sprintf("Checkpoints: %d\n", g.Course.Len())
		msg += fmt.Sprintf("Length: %.0fm\n", g.Course.TotalLength())
		msg += fmt.Sprintf("Spawns: %d\n", len(g.Course.SpawnPoints()))
	}
	if g.LastErr != nil && g.Gen.Stage() == pipeline.Failed {
		msg += "[FAILED]\n"
	}
	msg += "\nR = Regenerate\nN = New spawns\nW = Toggle widths"
	ebitenutil.DebugPrint(screen, msg)

	if g.LastErr != nil && g.Gen.Stage() == pipeline.Failed {
		ebitenutil.DebugPrintAt(screen, g.LastErr.Error(), 10, WindowHeight-20)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return WindowWidth, WindowHeight
}

// RenderWorld rasterizes the surface categories of field over the square
// scan area.
func RenderWorld(field surface.Heightfield, origin r3.Vector, radius float64) *ebiten.Image {
	img := ebiten.NewImage(RasterSize, RasterSize)
	pixels := make([]byte, RasterSize*RasterSize*4)
	cell := 2 * radius / RasterSize
	for v := 0; v < RasterSize; v++ {
		for u := 0; u < RasterSize; u++ {
			x := origin.X - radius + (float64(u)+0.5)*cell
			z := origin.Z - radius + (float64(v)+0.5)*cell

			clr := ColorVoid
			if cat, _, ok := field.Column(x, z); ok {
				switch cat {
				case surface.Track:
					clr = ColorTrack
				case surface.Grass:
					clr = ColorGrass
				case surface.Barrier:
					clr = ColorBarrier
				}
			}
			idx := (v*RasterSize + u) * 4
			pixels[idx] = clr.R
			pixels[idx+1] = clr.G
			pixels[idx+2] = clr.B
			pixels[idx+3] = 255
		}
	}
	img.WritePixels(pixels)
	return img
}

func main() {
	flag.Parse()
	monitoring.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg := &config.CourseConfig{}
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadCourseConfig(*configPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	params, err := cfg.Params()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	var field surface.Heightfield
	var origin r3.Vector
	var radius float64
	if *imagePath != "" {
		w, err := surface.LoadImageWorld(*imagePath, *imageScale)
		if err != nil {
			log.Fatalf("failed to load track image: %v", err)
		}
		origin, radius = w.ScanArea()
		params.StartHint = w.Start
		if dir, ok := w.DirectionHint(); ok {
			params.DirectionHint = &dir
		}
		field = w
	} else {
		w := surface.NewRingWorld(40, 55)
		w.InnerOffset.X = 4
		w.BarrierGap = 6
		origin, radius = w.ScanArea()
		field = w
	}
	params.Origin = origin
	params.ScanRadius = radius

	// 1. Fit the square scan area into the window and centre it.
	viewScale := float32(min(WindowWidth, WindowHeight)) / RasterSize * ViewScaleMargin
	viewOffsetX := (float32(WindowWidth) - RasterSize*viewScale) / 2
	viewOffsetY := (float32(WindowHeight) - RasterSize*viewScale) / 2

	// 2. Generate in the background; Draw shows whatever is published.
	gen := pipeline.NewGenerator(surface.NewCaster(field))
	if err := gen.Start(params); err != nil {
		log.Fatalf("failed to start generation: %v", err)
	}

	game := &Game{
		Gen:         gen,
		Params:      params,
		WorldImage:  RenderWorld(field, origin, radius),
		ShowRibs:    true,
		Origin:      origin,
		Radius:      radius,
		ViewScale:   viewScale,
		ViewOffsetX: viewOffsetX,
		ViewOffsetY: viewOffsetY,
	}

	ebiten.SetWindowSize(WindowWidth, WindowHeight)
	ebiten.SetWindowTitle("Course Builder")
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
