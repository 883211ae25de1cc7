package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math/rand"
	"time"

	"github.com/df07/go-csg-raytracer/pkg/core"
	"github.com/df07/go-csg-raytracer/pkg/scene"
)

// ErrInvalidConfig is returned for progressive configurations that cannot render anything
var ErrInvalidConfig = errors.New("invalid render configuration")

// ProgressiveConfig contains configuration for progressive rendering
type ProgressiveConfig struct {
	TileSize           int // Size of each tile (64x64 recommended)
	InitialSamples     int // Samples for first pass (1 recommended)
	MaxSamplesPerPixel int // Maximum total samples per pixel
	MaxPasses          int // Maximum number of passes
	NumWorkers         int // Number of parallel workers (0 = physical core count)
}

// DefaultProgressiveConfig returns sensible default values
func DefaultProgressiveConfig() ProgressiveConfig {
	return ProgressiveConfig{
		TileSize:           64,
		InitialSamples:     1,
		MaxSamplesPerPixel: 16,
		MaxPasses:          5,
		NumWorkers:         0,
	}
}

// Validate checks that the configuration describes at least one pass
func (c ProgressiveConfig) Validate() error {
	switch {
	case c.TileSize <= 0:
		return fmt.Errorf("%w: tile size must be positive, got %d", ErrInvalidConfig, c.TileSize)
	case c.MaxPasses <= 0:
		return fmt.Errorf("%w: max passes must be positive, got %d", ErrInvalidConfig, c.MaxPasses)
	case c.MaxSamplesPerPixel <= 0:
		return fmt.Errorf("%w: max samples must be positive, got %d", ErrInvalidConfig, c.MaxSamplesPerPixel)
	case c.InitialSamples <= 0 || c.InitialSamples > c.MaxSamplesPerPixel:
		return fmt.Errorf("%w: initial samples must be between 1 and %d, got %d",
			ErrInvalidConfig, c.MaxSamplesPerPixel, c.InitialSamples)
	}
	return nil
}

// ProgressiveRaytracer manages progressive rendering with multiple passes
type ProgressiveRaytracer struct {
	scene         *scene.Scene
	width, height int
	config        ProgressiveConfig
	tiles         []*Tile        // Tile management
	currentPass   int            // Progressive state
	pixelStats    [][]PixelStats // Shared pixel statistics array (global image coordinates)
	workerPool    *WorkerPool    // Worker pool for parallel processing
	logger        *slog.Logger
}

// NewProgressiveRaytracer creates a progressive raytracer. The scene is
// prepared first if needed; a nil logger uses core.Logger().
func NewProgressiveRaytracer(s *scene.Scene, width, height int, config ProgressiveConfig, logger *slog.Logger) (*ProgressiveRaytracer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: image size %dx%d", ErrInvalidConfig, width, height)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if !s.Prepared() {
		if err := s.Prepare(); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = core.Logger()
	}

	pixelStats := make([][]PixelStats, height)
	for y := range pixelStats {
		pixelStats[y] = make([]PixelStats, width)
	}

	return &ProgressiveRaytracer{
		scene:      s,
		width:      width,
		height:     height,
		config:     config,
		tiles:      NewTileGrid(width, height, config.TileSize),
		pixelStats: pixelStats,
		workerPool: NewWorkerPool(s, width, height, config.TileSize, config.NumWorkers),
		logger:     logger.With("scene", s.Name),
	}, nil
}

// getSamplesForPass calculates the target total samples for a given pass
func (pr *ProgressiveRaytracer) getSamplesForPass(passNumber int) int {
	if pr.config.MaxPasses == 1 {
		return pr.config.MaxSamplesPerPixel
	}

	// The first pass is a quick preview
	if passNumber == 1 {
		return pr.config.InitialSamples
	}

	// Remaining samples are spread evenly, the last pass takes what is left
	remainingSamples := pr.config.MaxSamplesPerPixel - pr.config.InitialSamples
	remainingPasses := pr.config.MaxPasses - 1
	samplesPerPass := remainingSamples / remainingPasses

	targetSamples := pr.config.InitialSamples + (passNumber-1)*samplesPerPass
	if passNumber >= pr.config.MaxPasses {
		targetSamples = pr.config.MaxSamplesPerPixel
	}

	return min(targetSamples, pr.config.MaxSamplesPerPixel)
}

// RenderPass renders a single progressive pass using the worker pool
func (pr *ProgressiveRaytracer) RenderPass(passNumber int, tileCallback func(TileCompletionResult)) (*image.RGBA, RenderStats, error) {
	pr.currentPass = passNumber
	targetSamples := pr.getSamplesForPass(passNumber)

	pr.logger.Debug("pass started",
		"pass", passNumber,
		"target_samples", targetSamples,
		"workers", pr.workerPool.GetNumWorkers(),
	)

	pr.workerPool.Start()

	for taskID, tile := range pr.tiles {
		pr.workerPool.SubmitTask(TileTask{
			Tile:          tile,
			PassNumber:    passNumber,
			TargetSamples: targetSamples,
			TaskID:        taskID,
			PixelStats:    pr.pixelStats,
		})
	}

	var passStats RenderStats
	var firstErr error
	for i := 0; i < len(pr.tiles); i++ {
		result, ok := pr.workerPool.GetResult()
		if !ok {
			return nil, RenderStats{}, fmt.Errorf("worker pool closed unexpectedly")
		}
		// Drain every result so the pool stays usable
		if result.Error != nil {
			if firstErr == nil {
				firstErr = result.Error
			}
			continue
		}
		passStats.Merge(result.Stats)

		tile := pr.tiles[result.TaskID]
		tile.PassesCompleted++
		pr.logger.Debug("tile done", "pass", passNumber, "tile", tile.ID, "samples", result.Stats.TotalSamples)

		// Callbacks run on this goroutine only
		if tileCallback != nil {
			tileCallback(TileCompletionResult{
				TileX:       tile.Bounds.Min.X / pr.config.TileSize,
				TileY:       tile.Bounds.Min.Y / pr.config.TileSize,
				TileImage:   pr.extractTileImage(tile),
				PassNumber:  passNumber,
				TileNumber:  i + 1,
				TotalTiles:  len(pr.tiles),
				TotalPasses: pr.config.MaxPasses,
			})
		}
	}
	if firstErr != nil {
		return nil, RenderStats{}, firstErr
	}

	pr.logger.Debug("pass samples", "pass", passNumber, "new_samples", passStats.TotalSamples)

	img, stats := pr.assembleCurrentImage(targetSamples)
	return img, stats, nil
}

// extractTileImage copies one tile out of the shared pixel stats
func (pr *ProgressiveRaytracer) extractTileImage(tile *Tile) *image.RGBA {
	bounds := tile.Bounds
	tileImage := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			stats := &pr.pixelStats[y][x]
			if stats.SampleCount > 0 {
				tileImage.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, vec3ToColor(stats.GetColor()))
			}
		}
	}

	return tileImage
}

// Close stops the worker pool. RenderProgressive closes it on its own.
func (pr *ProgressiveRaytracer) Close() {
	pr.workerPool.Stop()
}

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber int
	Image      *image.RGBA
	Stats      RenderStats
	Duration   time.Duration
	IsLast     bool
}

// TileCompletionResult contains information about a completed tile for callbacks
type TileCompletionResult struct {
	TileX      int // Tile coordinates (not pixel coordinates)
	TileY      int
	TileImage  *image.RGBA // Image data for just this tile
	PassNumber int         // Which pass this tile was rendered in

	// Progress information
	TileNumber  int // Current tile number in this pass (1-based)
	TotalTiles  int // Total number of tiles in the image
	TotalPasses int // Total number of passes planned
}

// RenderOptions configures progressive rendering behavior
type RenderOptions struct {
	TileUpdates bool // Whether to generate tile completion events
}

// RenderProgressive renders passes on a background goroutine and reports
// them over channels. All channels are closed when rendering ends. If
// options.TileUpdates is false the tile channel is closed immediately.
// Cancelling ctx stops rendering before the next pass and sends ctx.Err().
func (pr *ProgressiveRaytracer) RenderProgressive(ctx context.Context, options RenderOptions) (<-chan PassResult, <-chan TileCompletionResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	tileChan := make(chan TileCompletionResult, 100)
	errChan := make(chan error, 1)

	if !options.TileUpdates {
		close(tileChan)
	}

	go func() {
		defer close(passChan)
		if options.TileUpdates {
			defer close(tileChan)
		}
		defer close(errChan)
		defer pr.workerPool.Stop()

		pr.logger.Info("progressive render started",
			"width", pr.width,
			"height", pr.height,
			"passes", pr.config.MaxPasses,
			"max_samples", pr.config.MaxSamplesPerPixel,
		)

		for pass := 1; pass <= pr.config.MaxPasses; pass++ {
			select {
			case <-ctx.Done():
				pr.logger.Info("render cancelled", "before_pass", pass)
				errChan <- ctx.Err()
				return
			default:
			}

			startTime := time.Now()

			var tileCallback func(TileCompletionResult)
			if options.TileUpdates {
				tileCallback = func(result TileCompletionResult) {
					select {
					case tileChan <- result:
					case <-ctx.Done():
					default:
						// Slow readers miss tile previews, never passes
					}
				}
			}

			img, stats, err := pr.RenderPass(pass, tileCallback)
			if err != nil {
				errChan <- err
				return
			}

			passTime := time.Since(startTime)
			pr.logger.Info("pass completed",
				"pass", pass,
				"duration", passTime,
				"avg_samples", stats.AverageSamples,
			)

			done := pass == pr.config.MaxPasses || stats.MinSamples >= pr.config.MaxSamplesPerPixel
			select {
			case passChan <- PassResult{PassNumber: pass, Image: img, Stats: stats, Duration: passTime, IsLast: done}:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}

			if done {
				return
			}
		}
	}()

	return passChan, tileChan, errChan
}

// Render runs every pass and returns the final image. When ctx is
// cancelled after at least one pass, the latest image is returned with
// the context error.
func Render(ctx context.Context, s *scene.Scene, width, height int, config ProgressiveConfig, logger *slog.Logger) (*image.RGBA, RenderStats, error) {
	pr, err := NewProgressiveRaytracer(s, width, height, config, logger)
	if err != nil {
		return nil, RenderStats{}, err
	}

	passChan, _, errChan := pr.RenderProgressive(ctx, RenderOptions{})

	var last PassResult
	for result := range passChan {
		last = result
	}
	if err := <-errChan; err != nil {
		return last.Image, last.Stats, err
	}
	return last.Image, last.Stats, nil
}

// assembleCurrentImage builds the image and its statistics from the shared pixel stats
func (pr *ProgressiveRaytracer) assembleCurrentImage(targetSamples int) (*image.RGBA, RenderStats) {
	img := image.NewRGBA(image.Rect(0, 0, pr.width, pr.height))

	stats := RenderStats{
		TotalPixels: pr.width * pr.height,
		MaxSamples:  targetSamples,
		MinSamples:  pr.config.MaxSamplesPerPixel,
	}

	for y := 0; y < pr.height; y++ {
		for x := 0; x < pr.width; x++ {
			pixel := &pr.pixelStats[y][x]
			img.SetRGBA(x, y, vec3ToColor(pixel.GetColor()))
			stats.update(pixel.SampleCount)
		}
	}

	stats.finalize()
	return img, stats
}

// Tile represents a rectangular region of the image to be rendered
type Tile struct {
	ID              int             // Unique tile identifier
	Bounds          image.Rectangle // Pixel bounds (x0,y0,x1,y1)
	PassesCompleted int             // Number of passes completed for this tile
	Random          *rand.Rand      // Tile-specific random generator for deterministic results
}

// NewTile creates a new tile with the specified bounds
func NewTile(id int, bounds image.Rectangle) *Tile {
	return &Tile{
		ID:     id,
		Bounds: bounds,
		Random: rand.New(rand.NewSource(int64(id + 42))), // +42 avoids seed 0
	}
}

// NewTileGrid creates a grid of tiles covering the entire image
func NewTileGrid(width, height, tileSize int) []*Tile {
	var tiles []*Tile

	tilesX := (width + tileSize - 1) / tileSize
	tilesY := (height + tileSize - 1) / tileSize

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			x1 := min(x0+tileSize, width)
			y1 := min(y0+tileSize, height)

			tiles = append(tiles, NewTile(len(tiles), image.Rect(x0, y0, x1, y1)))
		}
	}

	return tiles
}
