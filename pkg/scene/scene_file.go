package scene

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/df07/go-csg-raytracer/pkg/core"
	"github.com/df07/go-csg-raytracer/pkg/csg"
	"github.com/df07/go-csg-raytracer/pkg/lights"
	"github.com/df07/go-csg-raytracer/pkg/loaders"
	"github.com/df07/go-csg-raytracer/pkg/material"
)

// LoadSceneFile loads a .scene file and builds it. Image textures are
// resolved relative to the file's directory.
func LoadSceneFile(path string) (*Scene, error) {
	desc, err := loaders.LoadScene(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load scene file: %w", err)
	}

	info, _ := ParseSceneMetadata(path)
	s, err := NewSceneFromDescription(info.DisplayName, desc, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	core.Logger().Info("loaded scene file", "file", path, "primitives", s.CountPrimitives())
	return s, nil
}

// NewSceneFromDescription converts a parsed scene description into a scene.
// baseDir is used to resolve image texture paths.
func NewSceneFromDescription(name string, desc *loaders.SceneDescription, baseDir string) (*Scene, error) {
	s := NewScene(name)

	if desc.Camera != nil {
		camera, err := convertCamera(desc.Camera)
		if err != nil {
			return nil, err
		}
		s.Camera = camera
	}

	if desc.Film != nil {
		if err := convertFilm(desc.Film, &s.SamplingConfig); err != nil {
			return nil, err
		}
	}

	if desc.Background != nil {
		s.BackgroundColor = *desc.Background
	}

	for i := range desc.Lights {
		light, err := convertLight(&desc.Lights[i])
		if err != nil {
			return nil, err
		}
		s.AddLight(light)
	}

	if desc.Root != nil {
		root, err := buildNode(desc.Root, baseDir)
		if err != nil {
			return nil, err
		}
		if len(desc.Root.Transforms) > 0 {
			// The root has no parent to hold its transform, so give it one
			transform, err := buildTransform(desc.Root.Transforms)
			if err != nil {
				return nil, err
			}
			placed := csg.NewInnerNode(csg.OpUnion)
			if err := placed.InsertChild(root, transform); err != nil {
				return nil, fmt.Errorf("line %d: %w", desc.Root.Line, err)
			}
			root = placed
		}
		s.Root = root
	}

	return s, nil
}

func lineError(stmt *loaders.Statement, format string, args ...any) error {
	return fmt.Errorf("line %d: %s", stmt.Line, fmt.Sprintf(format, args...))
}

// convertCamera converts a Camera statement into a static camera
func convertCamera(stmt *loaders.Statement) (*StaticCamera, error) {
	if sub := stmt.Subtype(); sub != "" && sub != "static" {
		return nil, lineError(stmt, "unsupported camera type %q", sub)
	}

	camera := NewStaticCamera(core.NewVec3(0, 0, -10), core.NewVec3(0, 0, 1), 60)
	if center, ok := stmt.GetVec3Param("center"); ok {
		camera.Center = center
	}
	if direction, ok := stmt.GetVec3Param("direction"); ok {
		camera.Direction = direction
	}
	if lookAt, ok := stmt.GetVec3Param("lookat"); ok {
		camera.Direction = lookAt.Subtract(camera.Center)
	}
	if up, ok := stmt.GetVec3Param("up"); ok {
		camera.Up = up
	}
	if fov, ok := stmt.GetFloatParam("fov"); ok {
		camera.FOV = fov
	}

	if err := camera.Validate(); err != nil {
		return nil, lineError(stmt, "%v", err)
	}
	return camera, nil
}

// convertFilm applies Film parameters to the sampling configuration
func convertFilm(stmt *loaders.Statement, config *SamplingConfig) error {
	fields := []struct {
		name   string
		target *int
		limit  int
	}{
		{"xresolution", &config.Width, 8192},
		{"yresolution", &config.Height, 8192},
		{"pixelsamples", &config.SamplesPerPixel, 1 << 16},
		{"maxdepth", &config.MaxDepth, 64},
	}

	for _, f := range fields {
		value, ok := stmt.GetFloatParam(f.name)
		if !ok {
			continue
		}
		if value < 1 || value > float64(f.limit) || value != float64(int(value)) {
			return lineError(stmt, "invalid %s %g: must be a whole number between 1 and %d", f.name, value, f.limit)
		}
		*f.target = int(value)
	}
	return nil
}

// lightIntensity reads "rgb color" scaled by "float intensity"
func lightIntensity(stmt *loaders.Statement) core.Vec3 {
	intensity := 1.0
	if v, ok := stmt.GetFloatParam("intensity"); ok {
		intensity = v
	}
	color := core.Gray(1)
	if c, ok := stmt.GetVec3Param("color"); ok {
		color = c
	}
	return color.Multiply(intensity)
}

// convertLight converts a LightSource statement
func convertLight(stmt *loaders.Statement) (lights.LightSource, error) {
	intensity := lightIntensity(stmt)

	switch stmt.Subtype() {
	case "ambient":
		return lights.NewColoredAmbientLight(intensity), nil

	case "point":
		position, ok := stmt.GetVec3Param("position")
		if !ok {
			return nil, lineError(stmt, "point light requires \"point3 position\"")
		}
		return lights.NewColoredPointLight(position, intensity), nil

	case "directional":
		direction, ok := stmt.GetVec3Param("direction")
		if !ok || direction.LengthSquared() == 0 {
			return nil, lineError(stmt, "directional light requires a non-zero \"vector3 direction\"")
		}
		light := lights.NewDirectionalLight(direction, 1)
		light.Intensity = intensity
		return light, nil

	case "spot":
		from, okFrom := stmt.GetVec3Param("from")
		to, okTo := stmt.GetVec3Param("to")
		if !okFrom || !okTo {
			return nil, lineError(stmt, "spot light requires \"point3 from\" and \"point3 to\"")
		}
		cone := 30.0
		if v, ok := stmt.GetFloatParam("coneangle"); ok {
			cone = v
		}
		delta := 5.0
		if v, ok := stmt.GetFloatParam("conedelta"); ok {
			delta = v
		}
		return lights.NewSpotLight(from, to, intensity, cone, delta), nil
	}

	return nil, lineError(stmt, "unsupported light type %q", stmt.Subtype())
}

// buildNode converts a Node or Shape block and its children
func buildNode(desc *loaders.NodeDescription, baseDir string) (csg.Intersectable, error) {
	var node csg.Intersectable
	if desc.IsShape {
		switch strings.ToLower(desc.Kind) {
		case "sphere":
			node = csg.NewSphere()
		case "cube", "box":
			node = csg.NewCube()
		case "plane":
			node = csg.NewPlane()
		case "cylinder":
			node = csg.NewCylinder()
		default:
			return nil, fmt.Errorf("line %d: unknown shape %q", desc.Line, desc.Kind)
		}
	} else {
		op, err := csg.ParseSetOperation(desc.Kind)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", desc.Line, err)
		}
		inner := csg.NewInnerNode(op)
		for _, childDesc := range desc.Children {
			child, err := buildNode(childDesc, baseDir)
			if err != nil {
				return nil, err
			}
			transform, err := buildTransform(childDesc.Transforms)
			if err != nil {
				return nil, err
			}
			if err := inner.InsertChild(child, transform); err != nil {
				return nil, fmt.Errorf("line %d: %w", childDesc.Line, err)
			}
		}
		node = inner
	}

	for i := range desc.Attributes {
		stmt := &desc.Attributes[i]
		key, value, err := convertAttribute(stmt, baseDir)
		if err != nil {
			return nil, err
		}
		if err := node.SetAttribute(key, value); err != nil {
			return nil, fmt.Errorf("line %d: %w", stmt.Line, err)
		}
	}

	return node, nil
}

// buildTransform composes transform statements in file order. The last
// statement is applied first, matching nested coordinate systems.
func buildTransform(stmts []loaders.Statement) (core.Transform, error) {
	result := core.Identity()
	for i := range stmts {
		stmt := &stmts[i]
		v, err := stmt.Floats()
		if err != nil {
			return core.Transform{}, lineError(stmt, "%v", err)
		}

		var next core.Transform
		switch {
		case stmt.Type == "Translate" && len(v) == 3:
			next = core.Translation(v[0], v[1], v[2])
		case stmt.Type == "Scale" && len(v) == 1:
			next = core.Scaling(v[0], v[0], v[0])
		case stmt.Type == "Scale" && len(v) == 3:
			next = core.Scaling(v[0], v[1], v[2])
		case stmt.Type == "Rotate" && len(v) == 4:
			axis := core.NewVec3(v[1], v[2], v[3])
			if axis.LengthSquared() == 0 {
				return core.Transform{}, lineError(stmt, "rotation axis must be non-zero")
			}
			next = core.Rotation(v[0], axis)
		case stmt.Type == "Transform" && len(v) == 16:
			next = core.NewTransform([16]float64(v))
		default:
			return core.Transform{}, lineError(stmt, "malformed %s", stmt.Type)
		}
		if err := next.CheckAffine(); err != nil {
			return core.Transform{}, fmt.Errorf("line %d: %s: %w: %w", stmt.Line, stmt.Type, csg.ErrInvalidTransform, err)
		}
		result = result.Mul(next)
	}
	return result, nil
}

// convertAttribute converts an Attribute statement into a key and value
func convertAttribute(stmt *loaders.Statement, baseDir string) (csg.PropertyName, csg.Value, error) {
	key, err := csg.ParsePropertyName(stmt.Args[0])
	if err != nil {
		return 0, nil, lineError(stmt, "%v", err)
	}
	args := stmt.Args[1:]

	switch key {
	case csg.PropertyColor:
		values, err := loaders.ParseFloats(args)
		if err != nil || len(values) != 3 {
			return 0, nil, lineError(stmt, "color requires 3 numbers")
		}
		return key, csg.ColorValue{Color: core.NewVec3(values[0], values[1], values[2])}, nil

	case csg.PropertyMaterial:
		if len(args) > 0 && args[0] != "phong" {
			return 0, nil, lineError(stmt, "unsupported material %q", args[0])
		}
		mat := material.DefaultPhongMaterial()
		if c, ok := stmt.GetVec3Param("color"); ok {
			mat.Color = c
		}
		for name, target := range map[string]*float64{"ka": &mat.Ka, "kd": &mat.Kd, "ks": &mat.Ks, "h": &mat.H} {
			if v, ok := stmt.GetFloatParam(name); ok {
				*target = v
			}
		}
		return key, csg.MaterialValue{Material: mat}, nil

	case csg.PropertyTexture:
		texture, err := convertTexture(stmt, args, baseDir)
		if err != nil {
			return 0, nil, err
		}
		return key, csg.TextureValue{Texture: texture}, nil

	case csg.PropertyReflectanceModel:
		if len(args) > 0 && args[0] != "phong" {
			return 0, nil, lineError(stmt, "unsupported reflectance model %q", args[0])
		}
		return key, csg.ReflectanceValue{Model: material.NewPhongModel()}, nil

	case csg.PropertyLabel:
		if len(args) != 1 {
			return 0, nil, lineError(stmt, "label requires one string")
		}
		return key, csg.LabelValue{Label: args[0]}, nil
	}

	return 0, nil, lineError(stmt, "unsupported attribute %s", key)
}

// convertTexture converts the texture kind and parameters of an Attribute statement
func convertTexture(stmt *loaders.Statement, args []string, baseDir string) (material.Texture, error) {
	if len(args) == 0 {
		return nil, lineError(stmt, "texture requires a kind")
	}
	color := core.Gray(0)
	if c, ok := stmt.GetVec3Param("color"); ok {
		color = c
	}

	switch args[0] {
	case "checker":
		fu, okU := stmt.GetFloatParam("fu")
		fv, okV := stmt.GetFloatParam("fv")
		if !okU || !okV {
			return nil, lineError(stmt, "checker texture requires \"float fu\" and \"float fv\"")
		}
		return material.NewCheckerTexture(fu, fv, color), nil

	case "stripe":
		frequency, ok := stmt.GetFloatParam("frequency")
		if !ok {
			return nil, lineError(stmt, "stripe texture requires \"float frequency\"")
		}
		return material.NewStripeTexture(frequency, color), nil

	case "image":
		filename, ok := stmt.GetStringParam("filename")
		if !ok || filepath.IsAbs(filename) || strings.Contains(filename, "..") {
			return nil, lineError(stmt, "image texture requires a relative \"string filename\"")
		}
		img, err := loaders.LoadImage(filepath.Join(baseDir, filename))
		if err != nil {
			return nil, lineError(stmt, "%v", err)
		}
		texture := material.NewImageTexture(img.Width, img.Height, img.Pixels)
		if modulate, ok := stmt.GetStringParam("modulate"); ok {
			texture.Modulate = modulate == "true"
		}
		return texture, nil
	}

	return nil, lineError(stmt, "unsupported texture %q", args[0])
}
