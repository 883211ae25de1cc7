package csg

import (
	"fmt"
	"strings"

	"github.com/df07/go-csg-raytracer/pkg/core"
	"github.com/df07/go-csg-raytracer/pkg/material"
)

// PropertyName identifies an inheritable node attribute
type PropertyName int

const (
	PropertyColor PropertyName = iota
	PropertyMaterial
	PropertyTexture
	PropertyReflectanceModel
	PropertyLabel
)

var propertyNames = []string{
	PropertyColor:            "COLOR",
	PropertyMaterial:         "MATERIAL",
	PropertyTexture:          "TEXTURE",
	PropertyReflectanceModel: "REFLECTANCE_MODEL",
	PropertyLabel:            "LABEL",
}

func (p PropertyName) String() string {
	if p >= 0 && int(p) < len(propertyNames) {
		return propertyNames[p]
	}
	return fmt.Sprintf("PropertyName(%d)", int(p))
}

// PropertyNames returns every known property in declaration order
func PropertyNames() []PropertyName {
	return []PropertyName{PropertyColor, PropertyMaterial, PropertyTexture, PropertyReflectanceModel, PropertyLabel}
}

// ParsePropertyName accepts either the canonical name ("REFLECTANCE_MODEL")
// or the short lower-case form used in scene files ("reflectance")
func ParsePropertyName(name string) (PropertyName, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "color", "colour":
		return PropertyColor, nil
	case "material":
		return PropertyMaterial, nil
	case "texture":
		return PropertyTexture, nil
	case "reflectance", "reflectance_model":
		return PropertyReflectanceModel, nil
	case "label":
		return PropertyLabel, nil
	}
	return 0, fmt.Errorf("%w: unknown attribute %q", ErrInvalidArgument, name)
}

// Value is the closed set of attribute payloads
type Value interface {
	String() string
	isValue()
}

// ColorValue is an RGB surface color overriding the material color
type ColorValue struct {
	Color core.Vec3
}

// MaterialValue holds the Phong coefficients of a surface
type MaterialValue struct {
	Material *material.PhongMaterial
}

// TextureValue modulates the resolved surface color
type TextureValue struct {
	Texture material.Texture
}

// ReflectanceValue selects the model that turns light into reflected color
type ReflectanceValue struct {
	Model material.ReflectanceModel
}

// LabelValue names a node for diagnostics
type LabelValue struct {
	Label string
}

func (ColorValue) isValue()       {}
func (MaterialValue) isValue()    {}
func (TextureValue) isValue()     {}
func (ReflectanceValue) isValue() {}
func (LabelValue) isValue()       {}

func (v ColorValue) String() string {
	return fmt.Sprintf("rgb(%.3g, %.3g, %.3g)", v.Color.X, v.Color.Y, v.Color.Z)
}

func (v MaterialValue) String() string {
	if v.Material == nil {
		return "phong(nil)"
	}
	m := v.Material
	return fmt.Sprintf("phong(ka=%.3g kd=%.3g ks=%.3g h=%.3g)", m.Ka, m.Kd, m.Ks, m.H)
}

func (v TextureValue) String() string {
	return fmt.Sprintf("%T", v.Texture)
}

func (v ReflectanceValue) String() string {
	if v.Model == nil {
		return "<nil>"
	}
	return v.Model.Name()
}

func (v LabelValue) String() string {
	return v.Label
}

// validValue rejects nil values and variants wrapping nil payloads
func validValue(v Value) bool {
	switch val := v.(type) {
	case nil:
		return false
	case MaterialValue:
		return val.Material != nil
	case TextureValue:
		return val.Texture != nil
	case ReflectanceValue:
		return val.Model != nil
	}
	return true
}

// Lookup resolves an attribute for n: its own value if set, otherwise the
// nearest ancestor's. It fails with ErrAttributeNotFound at the root.
func Lookup(n Intersectable, key PropertyName) (Value, error) {
	if isNil(n) {
		return nil, fmt.Errorf("%w: lookup on nil node", ErrInvalidArgument)
	}
	for b := n.base(); b != nil; b = b.parentBase() {
		if v, ok := b.attrs[key]; ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAttributeNotFound, key)
}

// ResolvedAttributes returns the effective value of every attribute visible from n
func ResolvedAttributes(n Intersectable) map[PropertyName]Value {
	out := make(map[PropertyName]Value)
	if isNil(n) {
		return out
	}
	for b := n.base(); b != nil; b = b.parentBase() {
		for k, v := range b.attrs {
			if _, seen := out[k]; !seen {
				out[k] = v
			}
		}
	}
	return out
}

// LookupColor resolves the COLOR attribute
func LookupColor(n Intersectable) (core.Vec3, error) {
	v, err := Lookup(n, PropertyColor)
	if err != nil {
		return core.Vec3{}, err
	}
	c, ok := v.(ColorValue)
	if !ok {
		return core.Vec3{}, fmt.Errorf("%w: %s is %T", ErrAttributeType, PropertyColor, v)
	}
	return c.Color, nil
}

// LookupMaterial resolves the MATERIAL attribute
func LookupMaterial(n Intersectable) (*material.PhongMaterial, error) {
	v, err := Lookup(n, PropertyMaterial)
	if err != nil {
		return nil, err
	}
	m, ok := v.(MaterialValue)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T", ErrAttributeType, PropertyMaterial, v)
	}
	return m.Material, nil
}

// LookupTexture resolves the TEXTURE attribute
func LookupTexture(n Intersectable) (material.Texture, error) {
	v, err := Lookup(n, PropertyTexture)
	if err != nil {
		return nil, err
	}
	t, ok := v.(TextureValue)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T", ErrAttributeType, PropertyTexture, v)
	}
	return t.Texture, nil
}

// LookupReflectance resolves the REFLECTANCE_MODEL attribute
func LookupReflectance(n Intersectable) (material.ReflectanceModel, error) {
	v, err := Lookup(n, PropertyReflectanceModel)
	if err != nil {
		return nil, err
	}
	r, ok := v.(ReflectanceValue)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T", ErrAttributeType, PropertyReflectanceModel, v)
	}
	return r.Model, nil
}

// LookupLabel resolves the LABEL attribute
func LookupLabel(n Intersectable) (string, error) {
	v, err := Lookup(n, PropertyLabel)
	if err != nil {
		return "", err
	}
	l, ok := v.(LabelValue)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T", ErrAttributeType, PropertyLabel, v)
	}
	return l.Label, nil
}
