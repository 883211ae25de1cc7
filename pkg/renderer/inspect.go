package renderer

import (
	"math"

	"github.com/df07/go-csg-raytracer/pkg/core"
	"github.com/df07/go-csg-raytracer/pkg/csg"
	"github.com/df07/go-csg-raytracer/pkg/scene"
)

// InspectResult describes what a single ray sees in a scene
type InspectResult struct {
	Hit        bool              `json:"hit"`
	Solid      string            `json:"solid,omitempty"`    // Kind of the primitive that was hit
	Path       string            `json:"path,omitempty"`     // Position of that primitive in the tree
	Label      string            `json:"label,omitempty"`    // Nearest LABEL attribute, if any
	Distance   float64           `json:"distance,omitempty"` // Ray parameter of the hit
	Point      [3]float64        `json:"point"`
	Normal     [3]float64        `json:"normal"`
	Inverted   bool              `json:"inverted"` // Surface belongs to a subtracted solid
	Color      [3]float64        `json:"color"`    // Shaded color including reflections
	Attributes map[string]string `json:"attributes,omitempty"`
	Intervals  []IntervalInfo    `json:"intervals"`
}

// IntervalInfo is one inside-span of the ray. Unbounded ends are null.
type IntervalInfo struct {
	Enter      *float64 `json:"enter"`
	Exit       *float64 `json:"exit"`
	EnterSolid string   `json:"enterSolid"`
	ExitSolid  string   `json:"exitSolid"`
}

// Inspect casts ray into a prepared scene and reports every interval along
// it together with the resolved attributes of the first surface hit
func Inspect(s *scene.Scene, ray core.Ray) InspectResult {
	intervals := s.Intervals(ray)
	result := InspectResult{Intervals: make([]IntervalInfo, 0, len(intervals))}
	for _, iv := range intervals {
		result.Intervals = append(result.Intervals, IntervalInfo{
			Enter:      finite(iv.Enter.T),
			Exit:       finite(iv.Exit.T),
			EnterSolid: csg.Path(iv.Enter.Solid),
			ExitSolid:  csg.Path(iv.Exit.Solid),
		})
	}

	hit, isHit := csg.FirstHit(intervals, hitEpsilon)
	if !isHit {
		result.Color = vecArray(s.BackgroundColor)
		return result
	}

	rt := NewRaytracer(s, 1, 1)
	shade := rt.shadeSurface(ray, hit)

	result.Hit = true
	result.Solid = hit.Solid.Kind()
	result.Path = csg.Path(hit.Solid)
	if label, err := csg.LookupLabel(hit.Solid); err == nil {
		result.Label = label
	}
	result.Distance = hit.T
	result.Point = vecArray(shade.Point)
	result.Normal = vecArray(shade.Normal)
	result.Inverted = hit.Inverted
	result.Color = vecArray(rt.RayColor(ray, max(1, s.SamplingConfig.MaxDepth)))

	resolved := csg.ResolvedAttributes(hit.Solid)
	result.Attributes = make(map[string]string, len(resolved))
	for key, value := range resolved {
		result.Attributes[key.String()] = value.String()
	}

	return result
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func vecArray(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
