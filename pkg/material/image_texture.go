package material

import (
	"github.com/df07/go-csg-raytracer/pkg/core"
)

// ImageTexture provides color from a 2D image
type ImageTexture struct {
	Width    int
	Height   int
	Pixels   []core.Vec3 // Row-major: Pixels[y*Width + x]
	Modulate bool        // Multiply with the surface color instead of replacing it
}

// NewImageTexture creates a new image texture
func NewImageTexture(width, height int, pixels []core.Vec3) *ImageTexture {
	return &ImageTexture{
		Width:  width,
		Height: height,
		Pixels: pixels,
	}
}

// Apply implements Texture
func (t *ImageTexture) Apply(color core.Vec3, uv core.Vec2) core.Vec3 {
	texel := t.Evaluate(uv)
	if t.Modulate {
		return color.MultiplyVec(texel)
	}
	return texel
}

// Evaluate samples the texture at given UV coordinates using nearest-neighbor filtering
func (t *ImageTexture) Evaluate(uv core.Vec2) core.Vec3 {
	if t.Width == 0 || t.Height == 0 {
		return core.Vec3{}
	}

	// Wrap UV coordinates to [0, 1]
	u := uv.X - float64(int(uv.X))
	v := uv.Y - float64(int(uv.Y))
	if u < 0 {
		u += 1.0
	}
	if v < 0 {
		v += 1.0
	}

	// V=0 is bottom, V=1 is top (flip V for image coordinates where origin is top-left)
	x := int(u * float64(t.Width))
	y := int((1.0 - v) * float64(t.Height))

	x = max(0, min(t.Width-1, x))
	y = max(0, min(t.Height-1, y))

	return t.Pixels[y*t.Width+x]
}
