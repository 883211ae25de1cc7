package csg

import (
	"errors"
	"testing"

	"github.com/df07/go-csg-raytracer/pkg/core"
	"github.com/df07/go-csg-raytracer/pkg/material"
)

// buildTree returns a three level tree and all of its nodes
func buildTree(t *testing.T) (*InnerNode, []Intersectable) {
	t.Helper()
	root := NewInnerNode(OpUnion)
	mid := NewInnerNode(OpDifference)
	a := NewSphere()
	b := NewCube()
	c := NewCylinder()

	mustInsert(t, mid, a, core.Identity())
	mustInsert(t, mid, b, core.Translation(1, 0, 0))
	mustInsert(t, root, mid, core.Identity())
	mustInsert(t, root, c, core.Translation(0, 5, 0))

	return root, []Intersectable{root, mid, a, b, c}
}

func mustInsert(t *testing.T, parent *InnerNode, child Intersectable, transform core.Transform) {
	t.Helper()
	if err := parent.InsertChild(child, transform); err != nil {
		t.Fatalf("InsertChild failed: %v", err)
	}
}

func TestLookup_RootAttributeVisibleEverywhere(t *testing.T) {
	root, nodes := buildTree(t)
	red := core.NewVec3(1, 0, 0)
	if err := root.SetAttribute(PropertyColor, ColorValue{Color: red}); err != nil {
		t.Fatalf("SetAttribute failed: %v", err)
	}

	for _, n := range nodes {
		got, err := LookupColor(n)
		if err != nil {
			t.Errorf("%s: lookup failed: %v", n.Kind(), err)
			continue
		}
		if got != red {
			t.Errorf("%s: expected %v, got %v", n.Kind(), red, got)
		}
	}
}

func TestLookup_ChildOverridesParent(t *testing.T) {
	root, nodes := buildTree(t)
	mid, sphere, cylinder := nodes[1], nodes[2], nodes[4]

	rootMat := material.NewPhongMaterial(core.Gray(0.5), 0.1, 0.6, 0.3, 16)
	midMat := material.NewPhongMaterial(core.Gray(0.9), 0.2, 0.4, 0.1, 4)
	if err := root.SetAttribute(PropertyMaterial, MaterialValue{Material: rootMat}); err != nil {
		t.Fatal(err)
	}
	if err := mid.SetAttribute(PropertyMaterial, MaterialValue{Material: midMat}); err != nil {
		t.Fatal(err)
	}

	got, err := LookupMaterial(sphere)
	if err != nil || got != midMat {
		t.Errorf("Expected sphere to inherit the nearest material, got %v (err %v)", got, err)
	}
	got, err = LookupMaterial(cylinder)
	if err != nil || got != rootMat {
		t.Errorf("Expected cylinder to inherit the root material, got %v (err %v)", got, err)
	}
}

func TestLookup_NotFound(t *testing.T) {
	_, nodes := buildTree(t)
	_, err := Lookup(nodes[2], PropertyTexture)
	if !errors.Is(err, ErrAttributeNotFound) {
		t.Errorf("Expected ErrAttributeNotFound, got %v", err)
	}

	_, err = LookupReflectance(nodes[0])
	if !errors.Is(err, ErrAttributeNotFound) {
		t.Errorf("Expected ErrAttributeNotFound from typed lookup, got %v", err)
	}
}

func TestLookup_WrongType(t *testing.T) {
	s := NewSphere()
	if err := s.SetAttribute(PropertyColor, LabelValue{Label: "not a color"}); err != nil {
		t.Fatal(err)
	}
	_, err := LookupColor(s)
	if !errors.Is(err, ErrAttributeType) {
		t.Errorf("Expected ErrAttributeType, got %v", err)
	}
}

func TestSetAttribute_RejectsNil(t *testing.T) {
	s := NewSphere()
	tests := []struct {
		name  string
		value Value
	}{
		{"nil value", nil},
		{"nil material", MaterialValue{}},
		{"nil texture", TextureValue{}},
		{"nil model", ReflectanceValue{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.SetAttribute(PropertyMaterial, tt.value); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("Expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestResolvedAttributes(t *testing.T) {
	root, nodes := buildTree(t)
	if err := root.SetAttribute(PropertyReflectanceModel, ReflectanceValue{Model: material.NewPhongModel()}); err != nil {
		t.Fatal(err)
	}
	if err := nodes[2].SetAttribute(PropertyLabel, LabelValue{Label: "ball"}); err != nil {
		t.Fatal(err)
	}

	attrs := ResolvedAttributes(nodes[2])
	if len(attrs) != 2 {
		t.Fatalf("Expected 2 resolved attributes, got %d", len(attrs))
	}
	if attrs[PropertyReflectanceModel].String() != "phong" {
		t.Errorf("Expected phong model, got %s", attrs[PropertyReflectanceModel])
	}
	if attrs[PropertyLabel].String() != "ball" {
		t.Errorf("Expected label ball, got %s", attrs[PropertyLabel])
	}
}

func TestInsertChild_Errors(t *testing.T) {
	t.Run("untyped nil", func(t *testing.T) {
		root := NewInnerNode(OpUnion)
		if err := root.InsertChild(nil, core.Identity()); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("typed nil", func(t *testing.T) {
		root := NewInnerNode(OpUnion)
		var s *Sphere
		if err := root.InsertChild(s, core.Identity()); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Expected ErrInvalidArgument, got %v", err)
		}
		if root.Len() != 0 {
			t.Errorf("Failed insert should not add a child")
		}
	})

	t.Run("already parented", func(t *testing.T) {
		a := NewInnerNode(OpUnion)
		b := NewInnerNode(OpUnion)
		s := NewSphere()
		mustInsert(t, a, s, core.Identity())
		if err := b.InsertChild(s, core.Identity()); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("self", func(t *testing.T) {
		a := NewInnerNode(OpUnion)
		if err := a.InsertChild(a, core.Identity()); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("ancestor", func(t *testing.T) {
		a := NewInnerNode(OpUnion)
		b := NewInnerNode(OpUnion)
		mustInsert(t, a, b, core.Identity())
		if err := b.InsertChild(a, core.Identity()); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("frozen", func(t *testing.T) {
		root := NewInnerNode(OpUnion)
		Freeze(root)
		if err := root.InsertChild(NewSphere(), core.Identity()); !errors.Is(err, ErrFrozen) {
			t.Errorf("Expected ErrFrozen, got %v", err)
		}
		if err := root.SetAttribute(PropertyLabel, LabelValue{Label: "x"}); !errors.Is(err, ErrFrozen) {
			t.Errorf("Expected ErrFrozen from SetAttribute, got %v", err)
		}
	})

	t.Run("frozen child", func(t *testing.T) {
		sub := NewInnerNode(OpUnion)
		mustInsert(t, sub, NewSphere(), core.Identity())
		Freeze(sub)

		root := NewInnerNode(OpUnion)
		if err := root.InsertChild(sub, core.Translation(1, 0, 0)); !errors.Is(err, ErrFrozen) {
			t.Errorf("Expected ErrFrozen, got %v", err)
		}
		if sub.Parent() != nil || root.Len() != 0 {
			t.Error("A rejected child must not be linked")
		}
	})
}

func TestInsertChild_PreservesOrder(t *testing.T) {
	root := NewInnerNode(OpDifference)
	first, second, third := NewSphere(), NewCube(), NewPlane()
	mustInsert(t, root, first, core.Identity())
	mustInsert(t, root, second, core.Translation(1, 0, 0))
	mustInsert(t, root, third, core.Translation(0, 0, -3))

	children := root.Children()
	want := []Intersectable{first, second, third}
	for i := range want {
		if children[i].Node != want[i] {
			t.Errorf("Child %d: expected %s, got %s", i, want[i].Kind(), children[i].Node.Kind())
		}
	}
	if first.Parent() != root {
		t.Error("InsertChild should set the parent link")
	}
	if !children[1].Transform.ApproxEqual(core.Translation(1, 0, 0), 1e-12) {
		t.Error("Child transform should be stored unchanged")
	}
}

func TestValidate_SingularTransform(t *testing.T) {
	root := NewInnerNode(OpUnion)
	inner := NewInnerNode(OpUnion)
	mustInsert(t, root, NewSphere(), core.Identity())
	mustInsert(t, root, inner, core.Translation(3, 0, 0))

	// Accepted at insertion time
	if err := inner.InsertChild(NewSphere(), core.Scaling(1, 0, 1)); err != nil {
		t.Fatalf("Singular transform should be accepted by InsertChild, got %v", err)
	}

	err := Validate(root)
	if !errors.Is(err, ErrInvalidTransform) {
		t.Fatalf("Expected ErrInvalidTransform, got %v", err)
	}
	if !errors.Is(err, core.ErrSingularMatrix) {
		t.Errorf("Expected the cause to be kept, got %v", err)
	}

	// The broken child is ignored by Intersect
	ray := core.NewRay(core.NewVec3(-10, 0, 0), core.NewVec3(1, 0, 0))
	if got := root.Intersect(ray); len(got) != 1 {
		t.Errorf("Expected only the valid sphere to be hit, got %v", bounds(got))
	}
}

func TestValidate_SmallUniformScale(t *testing.T) {
	root := NewInnerNode(OpUnion)
	s := NewSphere()
	mustInsert(t, root, s, core.Scaling(1e-5, 1e-5, 1e-5))

	if err := Validate(root); err != nil {
		t.Fatalf("Expected a tiny sphere to validate, got %v", err)
	}

	ray := core.NewRay(core.NewVec3(-1, 0, 0), core.NewVec3(1, 0, 0))
	got := root.Intersect(ray)
	if len(got) != 1 {
		t.Fatalf("Expected 1 interval, got %d", len(got))
	}
	if d := got[0].Exit.T - got[0].Enter.T; d < 1.9e-5 || d > 2.1e-5 {
		t.Errorf("Expected a chord of 2e-5, got %g", d)
	}
}

func TestValidate_CleanTree(t *testing.T) {
	root, _ := buildTree(t)
	if err := root.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := Validate(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for nil root, got %v", err)
	}
}

func TestFreeze_CachesWorldTransforms(t *testing.T) {
	root := NewInnerNode(OpUnion)
	group := NewInnerNode(OpUnion)
	s := NewSphere()
	mustInsert(t, group, s, core.Scaling(2, 2, 2))
	mustInsert(t, root, group, core.Translation(5, 0, 0))

	before := WorldTransform(s)
	root.Freeze()
	after := WorldTransform(s)

	if !before.ApproxEqual(after, 1e-12) {
		t.Error("Frozen world transform should equal the computed one")
	}
	if !s.Frozen() || !group.Frozen() {
		t.Error("Freeze should reach every node")
	}

	p := after.Point(core.NewVec3(1, 0, 0))
	if !p.ApproxEqual(core.NewVec3(7, 0, 0), 1e-12) {
		t.Errorf("Expected (7,0,0), got %v", p)
	}

	box := Bounds(root)
	if !box.Min.ApproxEqual(core.NewVec3(3, -2, -2), 1e-9) || !box.Max.ApproxEqual(core.NewVec3(7, 2, 2), 1e-9) {
		t.Errorf("Unexpected bounds %v", box)
	}
}

func TestParseSetOperation(t *testing.T) {
	tests := []struct {
		in      string
		want    SetOperation
		wantErr bool
	}{
		{"union", OpUnion, false},
		{"Intersection", OpIntersection, false},
		{" DIFFERENCE ", OpDifference, false},
		{"xor", OpXor, false},
		{"merge", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSetOperation(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSetOperation(%q) error = %v, wantErr %t", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseSetOperation(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParsePropertyName(t *testing.T) {
	for _, p := range PropertyNames() {
		got, err := ParsePropertyName(p.String())
		if err != nil {
			t.Errorf("ParsePropertyName(%q) failed: %v", p.String(), err)
			continue
		}
		if got != p {
			t.Errorf("ParsePropertyName(%q) = %s", p.String(), got)
		}
	}
	if _, err := ParsePropertyName("shininess"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for unknown property, got %v", err)
	}
}

func TestPath(t *testing.T) {
	_, nodes := buildTree(t)
	want := []string{
		"union",
		"union/0:difference",
		"union/0:difference/0:sphere",
		"union/0:difference/1:cube",
		"union/1:cylinder",
	}
	for i, n := range nodes {
		if got := Path(n); got != want[i] {
			t.Errorf("Path(node %d) = %q, want %q", i, got, want[i])
		}
	}
	if got := Path(nil); got != "" {
		t.Errorf("Path(nil) = %q, want empty", got)
	}
}
