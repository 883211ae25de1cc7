package renderer

import (
	"fmt"
	"image"

	"github.com/df07/go-csg-raytracer/pkg/core"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels    int     // Total number of pixels rendered
	TotalSamples   int     // Total number of samples taken
	AverageSamples float64 // Average samples per pixel
	MaxSamples     int     // Maximum samples allowed per pixel
	MinSamples     int     // Minimum samples taken per pixel
	MaxSamplesUsed int     // Maximum samples actually used by any pixel
}

func (s *RenderStats) update(samplesUsed int) {
	s.TotalSamples += samplesUsed
	s.MinSamples = min(s.MinSamples, samplesUsed)
	s.MaxSamplesUsed = max(s.MaxSamplesUsed, samplesUsed)
}

func (s *RenderStats) finalize() {
	if s.TotalPixels > 0 {
		s.AverageSamples = float64(s.TotalSamples) / float64(s.TotalPixels)
	}
}

// Merge folds the statistics of a disjoint region into s
func (s *RenderStats) Merge(other RenderStats) {
	if s.TotalPixels == 0 {
		*s = other
		return
	}
	s.TotalPixels += other.TotalPixels
	s.TotalSamples += other.TotalSamples
	s.MaxSamples = max(s.MaxSamples, other.MaxSamples)
	s.MinSamples = min(s.MinSamples, other.MinSamples)
	s.MaxSamplesUsed = max(s.MaxSamplesUsed, other.MaxSamplesUsed)
	s.finalize()
}

func (s RenderStats) String() string {
	return fmt.Sprintf("%d pixels, %d samples (avg %.2f, min %d, max %d)",
		s.TotalPixels, s.TotalSamples, s.AverageSamples, s.MinSamples, s.MaxSamplesUsed)
}

// PixelStats tracks sampling statistics for a single pixel
type PixelStats struct {
	ColorAccum       core.Vec3 // RGB accumulator for final result
	LuminanceAccum   float64   // Luminance accumulator for convergence
	LuminanceSqAccum float64   // Luminance squared for variance
	SampleCount      int       // Number of samples taken
}

// AddSample adds a new color sample to the pixel statistics
func (ps *PixelStats) AddSample(color core.Vec3) {
	ps.ColorAccum = ps.ColorAccum.Add(color)
	luminance := color.Luminance()
	ps.LuminanceAccum += luminance
	ps.LuminanceSqAccum += luminance * luminance
	ps.SampleCount++
}

// GetColor returns the current average color for this pixel
func (ps *PixelStats) GetColor() core.Vec3 {
	if ps.SampleCount == 0 {
		return core.Vec3{}
	}
	return ps.ColorAccum.Multiply(1.0 / float64(ps.SampleCount))
}

// CalculateAverageLuminance returns the mean Rec. 709 luminance of an image in [0, 1]
func CalculateAverageLuminance(img image.Image) float64 {
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return 0
	}

	total := 0.0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			total += (0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)) / 0xffff
		}
	}
	return total / float64(pixels)
}
