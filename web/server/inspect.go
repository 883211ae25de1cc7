package server

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/df07/go-csg-raytracer/pkg/renderer"
	"github.com/df07/go-csg-raytracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	renderer.InspectResult
	Scene  string `json:"scene"`
	PixelX int    `json:"pixelX"`
	PixelY int    `json:"pixelY"`
}

// inspectPixel casts the primary ray through the center of pixel (x, y)
func inspectPixel(sceneObj *scene.Scene, width, height, pixelX, pixelY int) renderer.InspectResult {
	ray := sceneObj.Camera.Ray(float64(pixelX)+0.5, float64(pixelY)+0.5, width, height)
	return renderer.Inspect(sceneObj, ray)
}

// parsePixel reads a required pixel coordinate in [0, limit)
func parsePixel(values url.Values, key string, limit int) (int, error) {
	if values.Get(key) == "" {
		return 0, fmt.Errorf("missing %s coordinate", key)
	}
	v, err := parseIntParam(values, key, 0, 0, limit-1)
	if err != nil {
		return 0, fmt.Errorf("pixel coordinates out of bounds: %w", err)
	}
	return v, nil
}

// handleInspect reports what lies under one pixel of the rendered image
func (s *Server) handleInspect(c echo.Context) error {
	values := c.QueryParams()
	params, err := s.parseCommonSceneParams(values)
	if err != nil {
		return err
	}

	pixelX, err := parsePixel(values, "x", params.Width)
	if err != nil {
		return badRequest(err)
	}
	pixelY, err := parsePixel(values, "y", params.Height)
	if err != nil {
		return badRequest(err)
	}

	if err := prepareScene(params.Scene); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, InspectResponse{
		InspectResult: inspectPixel(params.Scene, params.Width, params.Height, pixelX, pixelY),
		Scene:         params.ID,
		PixelX:        pixelX,
		PixelY:        pixelY,
	})
}
