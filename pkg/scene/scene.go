package scene

import (
	"errors"
	"fmt"

	"github.com/df07/go-csg-raytracer/pkg/core"
	"github.com/df07/go-csg-raytracer/pkg/csg"
	"github.com/df07/go-csg-raytracer/pkg/lights"
)

var (
	// ErrNoRoot is returned by Prepare when the scene has nothing to render
	ErrNoRoot = errors.New("scene has no root node")

	// ErrNoCamera is returned by Prepare when the scene has no camera
	ErrNoCamera = errors.New("scene has no camera")
)

// Scene contains all the elements needed for rendering
type Scene struct {
	Name            string
	Camera          *StaticCamera
	BackgroundColor core.Vec3            // Color of rays that hit nothing
	Sources         []lights.LightSource // Lights in the order they were added
	Root            csg.Intersectable
	SamplingConfig  SamplingConfig

	prepared bool
}

// SamplingConfig contains the scene's recommended render settings
type SamplingConfig struct {
	Width           int `json:"width"`           // Image width
	Height          int `json:"height"`          // Image height
	SamplesPerPixel int `json:"samplesPerPixel"` // Number of rays per pixel
	MaxDepth        int `json:"maxDepth"`        // Maximum mirror reflection depth

	AdaptiveMinSamples float64 `json:"adaptiveMinSamples"` // Fraction of SamplesPerPixel taken before a pixel may stop early
	AdaptiveThreshold  float64 `json:"adaptiveThreshold"`  // Relative luminance error below which a pixel stops sampling
}

// DefaultSamplingConfig returns the settings used when a scene gives none
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		Width:              640,
		Height:             480,
		SamplesPerPixel:    16,
		MaxDepth:           8,
		AdaptiveMinSamples: 0.25,
		AdaptiveThreshold:  0.02,
	}
}

// NewScene creates an empty scene with default camera and sampling settings
func NewScene(name string) *Scene {
	return &Scene{
		Name:           name,
		Camera:         NewStaticCamera(core.NewVec3(0, 0, -10), core.NewVec3(0, 0, 1), 60),
		SamplingConfig: DefaultSamplingConfig(),
	}
}

// AddLight appends a light source
func (s *Scene) AddLight(light lights.LightSource) {
	s.Sources = append(s.Sources, light)
}

// Prepare checks the scene and freezes its node tree. A transform that
// cannot be inverted is reported as csg.ErrInvalidTransform and the scene
// must not be rendered. Preparing twice is harmless.
func (s *Scene) Prepare() error {
	if s.Root == nil {
		return fmt.Errorf("prepare %q: %w", s.Name, ErrNoRoot)
	}
	if s.Camera == nil {
		return fmt.Errorf("prepare %q: %w", s.Name, ErrNoCamera)
	}
	if err := s.Camera.Validate(); err != nil {
		return fmt.Errorf("prepare %q: %w", s.Name, err)
	}
	if err := csg.Validate(s.Root); err != nil {
		return fmt.Errorf("prepare %q: %w", s.Name, err)
	}

	csg.Freeze(s.Root)
	s.prepared = true

	core.Logger().Debug("scene prepared",
		"scene", s.Name,
		"lights", len(s.Sources),
		"bounds", csg.Bounds(s.Root),
	)
	return nil
}

// Prepared reports whether Prepare has succeeded
func (s *Scene) Prepared() bool {
	return s.prepared
}

// Intervals returns every interval the ray spends inside the scene's solid
func (s *Scene) Intervals(ray core.Ray) []csg.Interval {
	if s.Root == nil {
		return nil
	}
	return s.Root.Intersect(ray)
}

// FirstHit returns the nearest surface crossing with T > tMin
func (s *Scene) FirstHit(ray core.Ray, tMin float64) (csg.Intersection, bool) {
	return csg.FirstHit(s.Intervals(ray), tMin)
}

// CountPrimitives returns the number of leaf solids under the root
func (s *Scene) CountPrimitives() int {
	return countPrimitives(s.Root)
}

func countPrimitives(n csg.Intersectable) int {
	switch node := n.(type) {
	case nil:
		return 0
	case *csg.InnerNode:
		count := 0
		for _, c := range node.Children() {
			count += countPrimitives(c.Node)
		}
		return count
	default:
		return 1
	}
}
