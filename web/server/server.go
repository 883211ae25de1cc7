package server

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/df07/go-csg-raytracer/pkg/core"
	"github.com/df07/go-csg-raytracer/pkg/renderer"
	"github.com/df07/go-csg-raytracer/pkg/scene"
)

// Request limits shared by the render, stream and inspect endpoints
const (
	minImageSize = 16
	maxImageSize = 2000
	maxSamples   = 10000
	maxPasses    = 100
	maxThumbSize = 2000

	defaultScene    = "five-balls"
	DefaultTileSize = 64
)

// Server handles web requests for the CSG raytracer
type Server struct {
	port   int
	echo   *echo.Echo
	logger *slog.Logger
}

// NewServer creates a new web server. A nil logger discards request logs.
func NewServer(port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = core.NewNopLogger()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{port: port, echo: e, logger: logger}

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelWarn
			}
			s.logger.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	api := e.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/scenes", s.handleScenes)
	api.GET("/scene-config", s.handleSceneConfig)
	api.GET("/render", s.handleRender)
	api.GET("/render/stream", s.handleRenderStream)
	api.GET("/inspect", s.handleInspect)

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the web server and blocks until it stops
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting web server", "url", fmt.Sprintf("http://localhost%s", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// HealthResponse reports server status and the CPUs available for rendering
type HealthResponse struct {
	Status        string `json:"status"`
	Workers       int    `json:"workers"`
	LogicalCores  int    `json:"logicalCores,omitempty"`
	PhysicalCores int    `json:"physicalCores,omitempty"`
	CPUModel      string `json:"cpuModel,omitempty"`
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Workers: renderer.DefaultWorkerCount()}

	// CPU details are informational; a failed probe still reports healthy
	if n, err := cpu.Counts(true); err == nil {
		resp.LogicalCores = n
	}
	if n, err := cpu.Counts(false); err == nil {
		resp.PhysicalCores = n
	}
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		resp.CPUModel = infos[0].ModelName
	}

	return c.JSON(http.StatusOK, resp)
}

// handleScenes lists built-in scenes and scene files grouped by category
func (s *Server) handleScenes(c echo.Context) error {
	scenes, err := scene.ListAllScenes()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, scenes)
}

// Limit describes the accepted range of a request parameter
type Limit struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SceneConfigResponse carries a scene's recommended settings and the request limits
type SceneConfigResponse struct {
	Scene          string               `json:"scene"`
	Name           string               `json:"name"`
	PrimitiveCount int                  `json:"primitiveCount"`
	Defaults       scene.SamplingConfig `json:"defaults"`
	Limits         map[string]Limit     `json:"limits"`
}

// handleSceneConfig returns the default configuration for a scene
func (s *Server) handleSceneConfig(c echo.Context) error {
	id := sceneParam(c.QueryParams())
	sceneObj, err := s.createScene(id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, SceneConfigResponse{
		Scene:          id,
		Name:           sceneObj.Name,
		PrimitiveCount: sceneObj.CountPrimitives(),
		Defaults:       sceneObj.SamplingConfig,
		Limits: map[string]Limit{
			"width":              {Min: minImageSize, Max: maxImageSize},
			"height":             {Min: minImageSize, Max: maxImageSize},
			"samples":            {Min: 1, Max: maxSamples},
			"passes":             {Min: 1, Max: maxPasses},
			"thumb":              {Min: 0, Max: maxThumbSize},
			"adaptiveMinSamples": {Min: 0.01, Max: 1},
			"adaptiveThreshold":  {Min: 0, Max: 0.5},
		},
	})
}

// createScene builds the scene named by id, mapping failures to 400
func (s *Server) createScene(id string) (*scene.Scene, error) {
	sceneObj, err := scene.CreateScene(id)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return sceneObj, nil
}

// prepareScene checks the scene can be rendered, mapping failures to 422
func prepareScene(sceneObj *scene.Scene) error {
	if err := sceneObj.Prepare(); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("scene %q: %v", sceneObj.Name, err))
	}
	return nil
}

func sceneParam(values url.Values) string {
	if id := values.Get("scene"); id != "" {
		return id
	}
	return defaultScene
}

// SceneParams holds the parameters shared by every scene endpoint
type SceneParams struct {
	Scene  *scene.Scene
	ID     string
	Width  int
	Height int
}

// parseCommonSceneParams creates the requested scene and reads the image
// size, defaulting to the scene's own film size
func (s *Server) parseCommonSceneParams(values url.Values) (*SceneParams, error) {
	id := sceneParam(values)
	sceneObj, err := s.createScene(id)
	if err != nil {
		return nil, err
	}

	config := sceneObj.SamplingConfig
	params := &SceneParams{Scene: sceneObj, ID: id}
	if params.Width, err = parseIntParam(values, "width", clampSize(config.Width), minImageSize, maxImageSize); err != nil {
		return nil, badRequest(err)
	}
	if params.Height, err = parseIntParam(values, "height", clampSize(config.Height), minImageSize, maxImageSize); err != nil {
		return nil, badRequest(err)
	}
	return params, nil
}

func clampSize(v int) int {
	return max(minImageSize, min(maxImageSize, v))
}

func badRequest(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(parsed) {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}
