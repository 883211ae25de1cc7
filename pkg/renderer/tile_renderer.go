package renderer

import (
	"image"
	"math"
	"math/rand"

	"github.com/df07/go-csg-raytracer/pkg/scene"
)

// TileRenderer renders rectangular regions of the image into shared pixel statistics
type TileRenderer struct {
	raytracer *Raytracer
}

// NewTileRenderer creates a tile renderer for the scene at the given resolution
func NewTileRenderer(s *scene.Scene, width, height int) *TileRenderer {
	return &TileRenderer{raytracer: NewRaytracer(s, width, height)}
}

// RenderTileBounds brings every pixel inside bounds up to targetSamples,
// stopping early on pixels that have converged. Only pixels inside bounds
// are written, so tiles with disjoint bounds may render concurrently.
func (tr *TileRenderer) RenderTileBounds(bounds image.Rectangle, pixelStats [][]PixelStats, random *rand.Rand, targetSamples int) RenderStats {
	config := tr.raytracer.SamplingConfig()
	stats := initRenderStatsForBounds(bounds, targetSamples)

	for j := bounds.Min.Y; j < bounds.Max.Y; j++ {
		for i := bounds.Min.X; i < bounds.Max.X; i++ {
			samplesUsed := tr.adaptiveSamplePixel(i, j, &pixelStats[j][i], random, targetSamples, config)
			stats.update(samplesUsed)
		}
	}

	stats.finalize()
	return stats
}

// adaptiveSamplePixel samples one pixel until it converges or reaches maxSamples
func (tr *TileRenderer) adaptiveSamplePixel(i, j int, ps *PixelStats, random *rand.Rand, maxSamples int, config scene.SamplingConfig) int {
	initialSampleCount := ps.SampleCount

	for ps.SampleCount < maxSamples && !shouldStopSampling(ps, maxSamples, config) {
		ray := tr.raytracer.pixelRay(i, j, ps.SampleCount, random)
		ps.AddSample(tr.raytracer.RayColor(ray, config.MaxDepth))
	}

	return ps.SampleCount - initialSampleCount
}

// shouldStopSampling reports whether the pixel's relative luminance error is below the threshold
func shouldStopSampling(ps *PixelStats, maxSamples int, config scene.SamplingConfig) bool {
	if config.AdaptiveThreshold <= 0 {
		return false
	}

	minSamples := max(1, int(float64(maxSamples)*config.AdaptiveMinSamples))
	if ps.SampleCount < minSamples {
		return false
	}

	mean := ps.LuminanceAccum / float64(ps.SampleCount)
	meanSq := ps.LuminanceSqAccum / float64(ps.SampleCount)
	variance := math.Max(0, meanSq-mean*mean)

	// Black pixels would divide by zero
	if mean <= 1e-8 {
		return variance < 1e-6
	}

	return math.Sqrt(variance)/mean < config.AdaptiveThreshold
}

func initRenderStatsForBounds(bounds image.Rectangle, maxSamples int) RenderStats {
	return RenderStats{
		TotalPixels: bounds.Dx() * bounds.Dy(),
		MaxSamples:  maxSamples,
		MinSamples:  maxSamples,
	}
}
