package renderer

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/df07/go-csg-raytracer/pkg/core"
	"github.com/df07/go-csg-raytracer/pkg/csg"
	"github.com/df07/go-csg-raytracer/pkg/lights"
	"github.com/df07/go-csg-raytracer/pkg/scene"
)

func TestProgressiveSampleCalculation(t *testing.T) {
	config := DefaultProgressiveConfig()
	config.InitialSamples = 1
	config.MaxSamplesPerPixel = 50
	config.MaxPasses = 7

	pr := &ProgressiveRaytracer{config: config}

	// (50-1)/6 = 8 samples per pass after the preview; the final pass takes the rest
	expectedTotalSamples := []int{1, 9, 17, 25, 33, 41, 50}

	for pass := 1; pass <= 7; pass++ {
		if got := pr.getSamplesForPass(pass); got != expectedTotalSamples[pass-1] {
			t.Errorf("Pass %d: expected %d total samples, got %d", pass, expectedTotalSamples[pass-1], got)
		}
	}

	pr.config.MaxPasses = 1
	if got := pr.getSamplesForPass(1); got != 50 {
		t.Errorf("Single pass: expected 50 samples, got %d", got)
	}
}

func TestProgressiveConfig_Defaults(t *testing.T) {
	config := DefaultProgressiveConfig()

	if config.TileSize != 64 {
		t.Errorf("Expected default tile size 64, got %d", config.TileSize)
	}
	if config.InitialSamples != 1 {
		t.Errorf("Expected default initial samples 1, got %d", config.InitialSamples)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestProgressiveConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ProgressiveConfig)
	}{
		{"zero tile size", func(c *ProgressiveConfig) { c.TileSize = 0 }},
		{"zero passes", func(c *ProgressiveConfig) { c.MaxPasses = 0 }},
		{"zero max samples", func(c *ProgressiveConfig) { c.MaxSamplesPerPixel = 0 }},
		{"initial above max", func(c *ProgressiveConfig) { c.InitialSamples = c.MaxSamplesPerPixel + 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultProgressiveConfig()
			tt.modify(&config)
			if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestNewProgressiveRaytracer_PreparesScene(t *testing.T) {
	s := scene.NewFiveBallsScene()
	pr, err := NewProgressiveRaytracer(s, 16, 16, DefaultProgressiveConfig(), nil)
	if err != nil {
		t.Fatalf("NewProgressiveRaytracer failed: %v", err)
	}
	defer pr.Close()

	if !s.Prepared() {
		t.Error("Expected the scene to be prepared")
	}
}

func TestNewProgressiveRaytracer_Errors(t *testing.T) {
	singular := scene.NewScene("flat")
	root := csg.NewInnerNode(csg.OpUnion)
	if err := root.InsertChild(csg.NewSphere(), core.Scaling(1, 1, 0)); err != nil {
		t.Fatal(err)
	}
	singular.Root = root

	tests := []struct {
		name    string
		scene   *scene.Scene
		width   int
		config  ProgressiveConfig
		wantErr error
	}{
		{"no root", scene.NewScene("empty"), 8, DefaultProgressiveConfig(), scene.ErrNoRoot},
		{"singular transform", singular, 8, DefaultProgressiveConfig(), csg.ErrInvalidTransform},
		{"zero width", scene.NewFiveBallsScene(), 0, DefaultProgressiveConfig(), ErrInvalidConfig},
		{"bad config", scene.NewFiveBallsScene(), 8, ProgressiveConfig{}, ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProgressiveRaytracer(tt.scene, tt.width, 8, tt.config, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func smallConfig() ProgressiveConfig {
	return ProgressiveConfig{
		TileSize:           8,
		InitialSamples:     1,
		MaxSamplesPerPixel: 4,
		MaxPasses:          3,
		NumWorkers:         2,
	}
}

func TestRenderProgressive_AllPasses(t *testing.T) {
	s := scene.NewFiveBallsScene()
	s.SamplingConfig.AdaptiveThreshold = 0

	pr, err := NewProgressiveRaytracer(s, 20, 12, smallConfig(), core.NewNopLogger())
	if err != nil {
		t.Fatal(err)
	}

	passChan, tileChan, errChan := pr.RenderProgressive(context.Background(), RenderOptions{TileUpdates: true})

	tiles := 0
	tilesDone := make(chan struct{})
	go func() {
		defer close(tilesDone)
		for tile := range tileChan {
			if tile.TileImage == nil {
				t.Error("Tile event without an image")
			}
			tiles++
		}
	}()

	var passes []PassResult
	for result := range passChan {
		passes = append(passes, result)
	}
	<-tilesDone
	if err := <-errChan; err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if len(passes) != 3 {
		t.Fatalf("Expected 3 passes, got %d", len(passes))
	}
	wantSamples := []int{1, 2, 4}
	for i, pass := range passes {
		if pass.PassNumber != i+1 {
			t.Errorf("Pass %d reported number %d", i+1, pass.PassNumber)
		}
		if pass.Stats.MinSamples != wantSamples[i] || pass.Stats.MaxSamplesUsed != wantSamples[i] {
			t.Errorf("Pass %d: expected %d samples everywhere, got %+v", i+1, wantSamples[i], pass.Stats)
		}
		if pass.IsLast != (i == len(passes)-1) {
			t.Errorf("Pass %d: IsLast = %t", i+1, pass.IsLast)
		}
		if pass.Image.Bounds() != image.Rect(0, 0, 20, 12) {
			t.Errorf("Pass %d: unexpected image bounds %v", i+1, pass.Image.Bounds())
		}
	}

	// 3x2 tiles of 8 pixels, per pass
	if tiles > 18 || tiles == 0 {
		t.Errorf("Expected between 1 and 18 tile events, got %d", tiles)
	}
}

func TestRenderProgressive_Cancelled(t *testing.T) {
	pr, err := NewProgressiveRaytracer(scene.NewFiveBallsScene(), 8, 8, smallConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	passChan, tileChan, errChan := pr.RenderProgressive(ctx, RenderOptions{})

	if _, open := <-tileChan; open {
		t.Error("Expected the tile channel to be closed without tile updates")
	}
	for range passChan {
		t.Error("Expected no passes after cancellation")
	}
	if err := <-errChan; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRender_MatchesSingleThreaded(t *testing.T) {
	newScene := func() *scene.Scene {
		s := scene.NewScene("lit sphere")
		s.Root = csg.NewSphere()
		s.AddLight(lights.NewAmbientLight(0.5))
		s.AddLight(lights.NewPointLight(core.NewVec3(-3, 3, -5), 1))
		s.SamplingConfig.AdaptiveThreshold = 0
		return s
	}

	config := smallConfig()
	config.MaxPasses = 1
	config.MaxSamplesPerPixel = 1

	img, stats, err := Render(context.Background(), newScene(), 17, 9, config, nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if stats.TotalPixels != 17*9 || stats.TotalSamples != 17*9 {
		t.Errorf("Unexpected stats %v", stats)
	}

	// With one sample per pixel both paths shoot the same center rays
	reference := newScene()
	if err := reference.Prepare(); err != nil {
		t.Fatal(err)
	}
	rt := NewRaytracer(reference, 17, 9)
	cfg := reference.SamplingConfig
	cfg.SamplesPerPixel = 1
	rt.SetSamplingConfig(cfg)
	want := rt.RenderPass()

	for y := 0; y < 9; y++ {
		for x := 0; x < 17; x++ {
			if img.RGBAAt(x, y) != want.RGBAAt(x, y) {
				t.Fatalf("Pixel (%d,%d): got %v, want %v", x, y, img.RGBAAt(x, y), want.RGBAAt(x, y))
			}
		}
	}
}

func TestNewTileGrid(t *testing.T) {
	tiles := NewTileGrid(130, 70, 64)
	if len(tiles) != 6 {
		t.Fatalf("Expected 6 tiles, got %d", len(tiles))
	}

	covered := 0
	for i, tile := range tiles {
		if tile.ID != i {
			t.Errorf("Tile %d has ID %d", i, tile.ID)
		}
		covered += tile.Bounds.Dx() * tile.Bounds.Dy()
		for _, other := range tiles[i+1:] {
			if tile.Bounds.Overlaps(other.Bounds) {
				t.Errorf("Tiles %d and %d overlap", tile.ID, other.ID)
			}
		}
	}
	if covered != 130*70 {
		t.Errorf("Tiles cover %d pixels, want %d", covered, 130*70)
	}
	if last := tiles[len(tiles)-1].Bounds; last != image.Rect(128, 64, 130, 70) {
		t.Errorf("Unexpected last tile bounds %v", last)
	}
}
