package loaders

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/df07/go-csg-raytracer/pkg/core"
)

// ImageFormat names an output encoding
type ImageFormat string

const (
	FormatPNG  ImageFormat = "png"
	FormatBMP  ImageFormat = "bmp"
	FormatTIFF ImageFormat = "tiff"
)

// ParseImageFormat accepts "png", "bmp", "tiff" or "tif" in any case
func ParseImageFormat(name string) (ImageFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "png":
		return FormatPNG, nil
	case "bmp":
		return FormatBMP, nil
	case "tiff", "tif":
		return FormatTIFF, nil
	}
	return "", fmt.Errorf("unsupported image format %q (want png, bmp or tiff)", name)
}

// ContentType returns the MIME type for the format
func (f ImageFormat) ContentType() string {
	switch f {
	case FormatBMP:
		return "image/bmp"
	case FormatTIFF:
		return "image/tiff"
	default:
		return "image/png"
	}
}

// EncodeImage writes img to w in the given format
func EncodeImage(w io.Writer, img image.Image, format ImageFormat) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("unsupported image format %q", format)
}

// SaveImage writes img to filename, choosing the encoding from the extension
func SaveImage(filename string, img image.Image) error {
	format, err := ParseImageFormat(filepath.Ext(filename))
	if err != nil {
		return err
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	if err := EncodeImage(file, img, format); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	if err := file.Close(); err != nil {
		return err
	}

	core.Logger().Info("saved image", "file", filename, "format", format)
	return nil
}

// Thumbnail scales img down so its longer side is at most maxSize pixels.
// Images that already fit are returned as a copy at their original size.
func Thumbnail(img image.Image, maxSize int) *image.RGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxSize > 0 && (w > maxSize || h > maxSize) {
		if w >= h {
			h = max(1, h*maxSize/w)
			w = maxSize
		} else {
			w = max(1, w*maxSize/h)
			h = maxSize
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}
