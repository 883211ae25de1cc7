package renderer

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/df07/go-csg-raytracer/pkg/core"
	"github.com/df07/go-csg-raytracer/pkg/csg"
	"github.com/df07/go-csg-raytracer/pkg/scene"
)

func TestInspect_FiveBalls(t *testing.T) {
	s := scene.NewFiveBallsScene()
	if err := s.Prepare(); err != nil {
		t.Fatal(err)
	}

	result := Inspect(s, core.NewRay(core.NewVec3(-20, 0, 0), core.NewVec3(1, 0, 0)))
	if !result.Hit {
		t.Fatal("Expected a hit")
	}
	if result.Solid != "sphere" {
		t.Errorf("Expected sphere, got %q", result.Solid)
	}
	// The leftmost ball was inserted third
	if result.Path != "union/2:sphere" {
		t.Errorf("Expected path union/2:sphere, got %q", result.Path)
	}
	if math.Abs(result.Distance-14.6) > 1e-9 {
		t.Errorf("Expected distance 14.6, got %g", result.Distance)
	}
	if n := result.Normal; !core.NewVec3(n[0], n[1], n[2]).ApproxEqual(core.NewVec3(-1, 0, 0), 1e-9) {
		t.Errorf("Expected normal facing -X, got %v", result.Normal)
	}

	if len(result.Intervals) != 5 {
		t.Fatalf("Expected 5 intervals, got %d", len(result.Intervals))
	}
	for i, iv := range result.Intervals {
		if iv.Enter == nil || iv.Exit == nil || *iv.Enter >= *iv.Exit {
			t.Errorf("Interval %d is not a bounded span: %+v", i, iv)
		}
	}

	for _, key := range []string{"COLOR", "MATERIAL", "REFLECTANCE_MODEL"} {
		if _, ok := result.Attributes[key]; !ok {
			t.Errorf("Expected resolved attribute %s, got %v", key, result.Attributes)
		}
	}
}

func TestInspect_InheritedLabel(t *testing.T) {
	root := csg.NewInnerNode(csg.OpUnion)
	if err := root.SetAttribute(csg.PropertyLabel, csg.LabelValue{Label: "lamp"}); err != nil {
		t.Fatal(err)
	}
	if err := root.InsertChild(csg.NewSphere(), core.Identity()); err != nil {
		t.Fatal(err)
	}
	s := scene.NewScene("labelled")
	s.Root = root
	if err := s.Prepare(); err != nil {
		t.Fatal(err)
	}

	result := Inspect(s, core.NewRay(core.NewVec3(0, 0, -10), core.NewVec3(0, 0, 1)))
	if !result.Hit {
		t.Fatal("Expected a hit")
	}
	if result.Label != "lamp" {
		t.Errorf("Expected label from the parent union, got %q", result.Label)
	}

	// Unlabelled trees leave the field empty
	five := scene.NewFiveBallsScene()
	if err := five.Prepare(); err != nil {
		t.Fatal(err)
	}
	if got := Inspect(five, core.NewRay(core.NewVec3(-20, 0, 0), core.NewVec3(1, 0, 0))); got.Label != "" {
		t.Errorf("Expected no label, got %q", got.Label)
	}
}

func TestInspect_Miss(t *testing.T) {
	s := scene.NewFiveBallsScene()
	if err := s.Prepare(); err != nil {
		t.Fatal(err)
	}

	result := Inspect(s, core.NewRay(core.NewVec3(0, 5, -10), core.NewVec3(0, 0, 1)))
	if result.Hit {
		t.Error("Expected a miss")
	}
	if len(result.Intervals) != 0 {
		t.Errorf("Expected no intervals, got %d", len(result.Intervals))
	}
	if result.Color != vecArray(s.BackgroundColor) {
		t.Errorf("Expected background color, got %v", result.Color)
	}
}

func TestInspect_UnboundedIntervalEncodes(t *testing.T) {
	s := scene.NewScene("ground")
	s.Root = csg.NewPlane()
	if err := s.Prepare(); err != nil {
		t.Fatal(err)
	}

	// The half-space z <= 0 is never exited going down
	result := Inspect(s, core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1)))
	if len(result.Intervals) != 1 {
		t.Fatalf("Expected 1 interval, got %d", len(result.Intervals))
	}
	iv := result.Intervals[0]
	if iv.Enter == nil || *iv.Enter != 5 {
		t.Errorf("Expected entry at 5, got %v", iv.Enter)
	}
	if iv.Exit != nil {
		t.Errorf("Expected an unbounded exit, got %v", *iv.Exit)
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["hit"] != true {
		t.Errorf("Expected hit in JSON, got %s", data)
	}
}
