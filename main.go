package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-csg-raytracer/pkg/core"
	"github.com/df07/go-csg-raytracer/pkg/loaders"
	"github.com/df07/go-csg-raytracer/pkg/renderer"
	"github.com/df07/go-csg-raytracer/pkg/scene"
)

// Config holds the command line options
type Config struct {
	SceneID string
	Width   int // 0 uses the scene's recommendation
	Height  int
	Samples int
	Passes  int
	Workers int
	Format  string
	Output  string
	Inspect string
	List    bool
	Verbose bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// parseFlags parses args into a Config
func parseFlags(args []string, stderr io.Writer) (Config, error) {
	var cfg Config
	fs := flag.NewFlagSet("csg-raytracer", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&cfg.SceneID, "scene", "five-balls", "Built-in scene ID, scene file name, or path to a .scene file")
	fs.IntVar(&cfg.Width, "width", 0, "Image width (0 = scene default)")
	fs.IntVar(&cfg.Height, "height", 0, "Image height (0 = scene default)")
	fs.IntVar(&cfg.Samples, "samples", 0, "Samples per pixel (0 = scene default)")
	fs.IntVar(&cfg.Passes, "passes", 1, "Number of progressive passes")
	fs.IntVar(&cfg.Workers, "workers", 0, "Render workers (0 = physical CPU cores)")
	fs.StringVar(&cfg.Format, "format", "png", "Output format: png, bmp or tiff")
	fs.StringVar(&cfg.Output, "out", "", "Output file (default output/<scene>/render_<timestamp>.<format>)")
	fs.StringVar(&cfg.Inspect, "inspect", "", "Print the intervals along the ray \"ox,oy,oz:dx,dy,dz\" instead of rendering")
	fs.BoolVar(&cfg.List, "list", false, "List available scenes and exit")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose (debug) logging")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if cfg.Width < 0 || cfg.Height < 0 || cfg.Samples < 0 || cfg.Passes < 1 || cfg.Workers < 0 {
		return cfg, errors.New("sizes, samples and workers must not be negative and passes must be at least 1")
	}
	if _, err := loaders.ParseImageFormat(cfg.Format); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// run executes the CLI and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	core.SetLogger(logger)
	defer core.SetLogger(nil)

	if cfg.List {
		if err := listScenes(stdout); err != nil {
			logger.Error("listing scenes failed", "error", err)
			return 1
		}
		return 0
	}

	s, err := createScene(cfg.SceneID)
	if err != nil {
		logger.Error("cannot create scene", "scene", cfg.SceneID, "error", err)
		return 1
	}
	if err := s.Prepare(); err != nil {
		logger.Error("scene is not renderable", "scene", cfg.SceneID, "error", err)
		return 1
	}

	if cfg.Inspect != "" {
		ray, err := parseRay(cfg.Inspect)
		if err != nil {
			logger.Error("bad -inspect ray", "error", err)
			return 2
		}
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(renderer.Inspect(s, ray)); err != nil {
			logger.Error("writing inspection failed", "error", err)
			return 1
		}
		return 0
	}

	if err := render(ctx, cfg, s, logger); err != nil {
		logger.Error("render failed", "scene", cfg.SceneID, "error", err)
		return 1
	}
	return 0
}

// render renders s with the options in cfg and writes the image
func render(ctx context.Context, cfg Config, s *scene.Scene, logger *slog.Logger) error {
	width, height := s.SamplingConfig.Width, s.SamplingConfig.Height
	if cfg.Width > 0 {
		width = cfg.Width
	}
	if cfg.Height > 0 {
		height = cfg.Height
	}
	samples := s.SamplingConfig.SamplesPerPixel
	if cfg.Samples > 0 {
		samples = cfg.Samples
	}

	config := renderer.DefaultProgressiveConfig()
	config.MaxSamplesPerPixel = samples
	config.MaxPasses = cfg.Passes
	config.NumWorkers = cfg.Workers

	logger.Info("rendering",
		"scene", s.Name,
		"width", width,
		"height", height,
		"samples", samples,
		"primitives", s.CountPrimitives(),
	)

	startTime := time.Now()
	img, stats, err := renderer.Render(ctx, s, width, height, config, logger)
	if err != nil && img == nil {
		return err
	}
	if err != nil {
		// Interrupted after at least one pass; keep what we have
		logger.Warn("render interrupted, saving partial image", "error", err)
	}
	logger.Info("render completed", "duration", time.Since(startTime), "stats", stats.String())

	filename := cfg.Output
	if filename == "" {
		filename = defaultOutputPath(cfg.SceneID, cfg.Format, time.Now())
	}
	if err := loaders.SaveImage(filename, img); err != nil {
		return err
	}
	logger.Info("render saved", "file", filename)
	return nil
}

// defaultOutputPath returns output/<scene>/render_<timestamp>.<format>
func defaultOutputPath(sceneID, format string, now time.Time) string {
	dir := strings.TrimSuffix(filepath.Base(strings.TrimPrefix(sceneID, "file:")), ".scene")
	if dir == "" || dir == "." || dir == string(filepath.Separator) {
		dir = "scene"
	}
	return filepath.Join("output", dir, fmt.Sprintf("render_%s.%s", now.Format("20060102_150405"), format))
}

// createScene resolves a built-in ID, a "file:<name>" ID, a bare scene file
// name under scenes/, or a path to a .scene file
func createScene(id string) (*scene.Scene, error) {
	if id == "" {
		return nil, errors.New("scene name is empty")
	}
	if strings.HasSuffix(id, ".scene") {
		return scene.LoadSceneFile(id)
	}
	if s, err := scene.CreateScene(id); err == nil {
		return s, nil
	} else if strings.HasPrefix(id, "file:") {
		return nil, err
	}

	path := filepath.Join("scenes", id+".scene")
	if _, err := os.Stat(path); err == nil {
		return scene.LoadSceneFile(path)
	}
	return nil, fmt.Errorf("unknown scene %q", id)
}

// listScenes prints every known scene grouped by category
func listScenes(w io.Writer) error {
	response, err := scene.ListAllScenes()
	if err != nil {
		return err
	}
	for _, group := range response.Groups {
		fmt.Fprintf(w, "%s:\n", group.Name)
		for _, info := range group.Scenes {
			if info.Description != "" {
				fmt.Fprintf(w, "  %-24s %s - %s\n", info.ID, info.DisplayName, info.Description)
			} else {
				fmt.Fprintf(w, "  %-24s %s\n", info.ID, info.DisplayName)
			}
		}
	}
	return nil
}

// parseRay parses "ox,oy,oz:dx,dy,dz"
func parseRay(s string) (core.Ray, error) {
	origin, direction, ok := strings.Cut(s, ":")
	if !ok {
		return core.Ray{}, fmt.Errorf("ray %q: want \"ox,oy,oz:dx,dy,dz\"", s)
	}
	o, err := parseVec3(origin)
	if err != nil {
		return core.Ray{}, fmt.Errorf("ray origin: %w", err)
	}
	d, err := parseVec3(direction)
	if err != nil {
		return core.Ray{}, fmt.Errorf("ray direction: %w", err)
	}
	if d.LengthSquared() == 0 {
		return core.Ray{}, errors.New("ray direction must be non-zero")
	}
	return core.NewRay(o, d), nil
}

func parseVec3(s string) (core.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return core.Vec3{}, fmt.Errorf("%q: want 3 comma-separated numbers", s)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return core.Vec3{}, fmt.Errorf("%q: %w", s, err)
		}
		v[i] = f
	}
	return core.NewVec3(v[0], v[1], v[2]), nil
}
