package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/golang/geo/r3"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot/vg"

	"course-builder/internal/config"
	"course-builder/internal/monitoring"
	"course-builder/internal/pipeline"
	"course-builder/internal/report"
	"course-builder/internal/store"
	"course-builder/internal/surface"
	"course-builder/internal/track"
)

var (
	configPath  = flag.String("config", "", "course config JSON (defaults when empty)")
	worldKind   = flag.String("world", "ring", "world to scan: ring or image")
	imagePath   = flag.String("image", "assets/track.png", "track image for -world=image")
	imageScale  = flag.Float64("scale", 1, "metres per pixel for -world=image")
	innerRadius = flag.Float64("inner", 40, "infield radius for -world=ring")
	outerRadius = flag.Float64("outer", 55, "outer edge radius for -world=ring")
	dbPath      = flag.String("db", "", "SQLite database to save the course in")
	courseName  = flag.String("name", "course", "name stored with the course")
	plotPath    = flag.String("plot", "", "write a top-view PNG here")
	chartPath   = flag.String("chart", "", "write the width chart HTML here")
	listCourses = flag.Bool("list", false, "list stored courses and exit")
	loadID      = flag.String("load", "", "render a stored course instead of generating one")
	verbose     = flag.Bool("v", false, "debug logging")
)

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	monitoring.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var db *store.Store
	if *dbPath != "" {
		var err error
		if db, err = store.Open(*dbPath); err != nil {
			log.Fatalf("failed to open course database: %v", err)
		}
		defer db.Close()
	}

	switch {
	case *listCourses:
		if db == nil {
			log.Fatalf("-list requires -db")
		}
		if err := printCourses(ctx, db); err != nil {
			log.Fatalf("failed to list courses: %v", err)
		}
		return
	case *loadID != "":
		if db == nil {
			log.Fatalf("-load requires -db")
		}
		layout, err := db.LoadLayout(ctx, *loadID)
		if err != nil {
			log.Fatalf("failed to load course: %v", err)
		}
		if err := writeOutputs(ctx, layout, nil); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	cfg := &config.CourseConfig{}
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadCourseConfig(*configPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	probe, params, err := buildWorld(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	gen := pipeline.NewGenerator(probe)
	gen.OnStage = func(s pipeline.Stage) {
		monitoring.Logger().Debug("stage", "stage", s.String())
	}
	started := time.Now()
	if err := gen.Start(params); err != nil {
		log.Fatalf("failed to start generation: %v", err)
	}
	layout, err := gen.WaitInitialized(ctx)
	if err != nil {
		gen.Stop()
		log.Fatalf("course generation failed: %v", err)
	}
	monitoring.Logger().Info("course generated",
		"run", layout.RunID(), "checkpoints", layout.Len(), "elapsed", time.Since(started).Round(time.Millisecond))

	if err := writeOutputs(ctx, layout, db); err != nil {
		log.Fatalf("%v", err)
	}
}

// buildWorld creates the probe for the selected world and fills in the
// scan area and centreline hints the config leaves open.
func buildWorld(cfg *config.CourseConfig) (surface.Probe, pipeline.Params, error) {
	params, err := cfg.Params()
	if err != nil {
		return nil, params, err
	}

	var probe surface.Probe
	var origin r3.Vector
	var radius float64
	switch *worldKind {
	case "ring":
		w := surface.NewRingWorld(*innerRadius, *outerRadius)
		origin, radius = w.ScanArea()
		probe = w.NewProbe()
	case "image":
		w, err := surface.LoadImageWorld(*imagePath, *imageScale)
		if err != nil {
			return nil, params, fmt.Errorf("failed to load track image: %w", err)
		}
		origin, radius = w.ScanArea()
		if params.StartHint == nil && w.Start != nil {
			params.StartHint = w.Start
		}
		if params.DirectionHint == nil {
			if dir, ok := w.DirectionHint(); ok {
				params.DirectionHint = &dir
			}
		}
		probe = w.NewProbe()
	default:
		return nil, params, fmt.Errorf("unknown world %q", *worldKind)
	}

	if cfg.Origin == nil {
		params.Origin = origin
	}
	if cfg.ScanRadius == nil {
		params.ScanRadius = radius
	}
	return probe, params, nil
}

// writeOutputs saves and renders the layout concurrently.
func writeOutputs(ctx context.Context, layout *track.Layout, db *store.Store) error {
	g, ctx := errgroup.WithContext(ctx)

	if db != nil {
		g.Go(func() error {
			id, err := db.SaveLayout(ctx, *courseName, layout)
			if err != nil {
				return fmt.Errorf("failed to save course: %w", err)
			}
			fmt.Printf("saved course %s\n", id)
			return nil
		})
	}
	if *plotPath != "" {
		g.Go(func() error {
			return writeFile(*plotPath, func(f *os.File) error {
				return report.WritePlotPNG(f, layout, 8*vg.Inch)
			})
		})
	}
	if *chartPath != "" {
		g.Go(func() error {
			return writeFile(*chartPath, func(f *os.File) error {
				return report.WriteWidthChart(f, layout)
			})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return report.Summarize(layout).WriteText(os.Stdout)
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func printCourses(ctx context.Context, db *store.Store) error {
	courses, err := db.ListCourses(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCREATED\tCHECKPOINTS\tSPAWNS\tLENGTH")
	for _, c := range courses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%.1f\n",
			c.ID, c.Name, c.CreatedAt.Format(time.RFC3339), c.Checkpoints, c.Spawns, c.TotalLength)
	}
	return tw.Flush()
}
