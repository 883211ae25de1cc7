package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/df07/go-csg-raytracer/pkg/loaders"
	"github.com/df07/go-csg-raytracer/pkg/renderer"
)

// RenderRequest represents a render request from the client
type RenderRequest struct {
	*SceneParams
	Samples            int                 // Maximum samples per pixel
	Passes             int                 // Maximum number of passes
	AdaptiveMinSamples float64             // Fraction of samples taken before a pixel may stop early
	AdaptiveThreshold  float64             // Relative error below which a pixel stops sampling
	Thumb              int                 // Longest side of the returned image, 0 for full size
	Format             loaders.ImageFormat // Encoding of the returned image
}

// parseRenderRequest parses request parameters; defaults come from the scene
func (s *Server) parseRenderRequest(values url.Values) (*RenderRequest, error) {
	params, err := s.parseCommonSceneParams(values)
	if err != nil {
		return nil, err
	}

	config := params.Scene.SamplingConfig
	req := &RenderRequest{SceneParams: params}
	if req.Samples, err = parseIntParam(values, "samples", max(1, config.SamplesPerPixel), 1, maxSamples); err != nil {
		return nil, badRequest(err)
	}
	if req.Passes, err = parseIntParam(values, "passes", 1, 1, maxPasses); err != nil {
		return nil, badRequest(err)
	}
	if req.AdaptiveMinSamples, err = parseFloatParam(values, "adaptiveMinSamples", config.AdaptiveMinSamples, 0.01, 1); err != nil {
		return nil, badRequest(err)
	}
	if req.AdaptiveThreshold, err = parseFloatParam(values, "adaptiveThreshold", config.AdaptiveThreshold, 0, 0.5); err != nil {
		return nil, badRequest(err)
	}
	if req.Thumb, err = parseIntParam(values, "thumb", 0, 0, maxThumbSize); err != nil {
		return nil, badRequest(err)
	}

	req.Format = loaders.FormatPNG
	if name := values.Get("format"); name != "" {
		if req.Format, err = loaders.ParseImageFormat(name); err != nil {
			return nil, badRequest(err)
		}
	}

	params.Scene.SamplingConfig.AdaptiveMinSamples = req.AdaptiveMinSamples
	params.Scene.SamplingConfig.AdaptiveThreshold = req.AdaptiveThreshold

	// Performance warning
	if req.Width*req.Height > 800*600 && req.Samples > 100 {
		s.logger.Warn("large image with high samples may render slowly",
			"width", req.Width, "height", req.Height, "samples", req.Samples)
	}

	return req, nil
}

// progressiveConfig converts the request to a renderer configuration
func (req *RenderRequest) progressiveConfig() renderer.ProgressiveConfig {
	return renderer.ProgressiveConfig{
		TileSize:           DefaultTileSize,
		InitialSamples:     1,
		MaxSamplesPerPixel: req.Samples,
		MaxPasses:          req.Passes,
		NumWorkers:         0, // Auto-detect
	}
}

// handleRender renders a scene to completion and returns the encoded image
func (s *Server) handleRender(c echo.Context) error {
	req, err := s.parseRenderRequest(c.QueryParams())
	if err != nil {
		return err
	}
	if err := prepareScene(req.Scene); err != nil {
		return err
	}

	ctx := c.Request().Context()
	startTime := time.Now()
	img, stats, err := renderer.Render(ctx, req.Scene, req.Width, req.Height, req.progressiveConfig(), s.logger)
	if err != nil {
		if ctx.Err() != nil {
			// Client disconnected
			return nil
		}
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("render failed: %v", err))
	}

	var out image.Image = img
	if req.Thumb > 0 {
		out = loaders.Thumbnail(img, req.Thumb)
	}

	var buf bytes.Buffer
	if err := loaders.EncodeImage(&buf, out, req.Format); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	header := c.Response().Header()
	header.Set("X-Render-Time-Ms", strconv.FormatInt(time.Since(startTime).Milliseconds(), 10))
	header.Set("X-Render-Samples", strconv.Itoa(stats.TotalSamples))
	return c.Blob(http.StatusOK, req.Format.ContentType(), buf.Bytes())
}

// TileUpdate represents a single tile update sent via SSE
type TileUpdate struct {
	TileX       int    `json:"tileX"`
	TileY       int    `json:"tileY"`
	ImageData   string `json:"imageData"` // Base64 encoded PNG of just this tile
	PassNumber  int    `json:"passNumber"`
	TileNumber  int    `json:"tileNumber"`  // Current tile number in this pass (1-based)
	TotalTiles  int    `json:"totalTiles"`  // Total number of tiles in the image
	TotalPasses int    `json:"totalPasses"` // Total number of passes planned
}

// PassUpdate represents a completed pass sent via SSE
type PassUpdate struct {
	PassNumber     int     `json:"passNumber"`
	TotalPasses    int     `json:"totalPasses"`
	ImageData      string  `json:"imageData"` // Base64 encoded PNG of the whole image
	ElapsedMs      int64   `json:"elapsedMs"`
	TotalPixels    int     `json:"totalPixels"`
	TotalSamples   int     `json:"totalSamples"`
	AverageSamples float64 `json:"averageSamples"`
	MaxSamples     int     `json:"maxSamples"`
	MinSamples     int     `json:"minSamples"`
	MaxSamplesUsed int     `json:"maxSamplesUsed"`
	PrimitiveCount int     `json:"primitiveCount"`
	IsComplete     bool    `json:"isComplete"`
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "tile", "passComplete", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// handleRenderStream renders progressively and streams passes, tiles and
// console messages as Server-Sent Events
func (s *Server) handleRenderStream(c echo.Context) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// A single writer goroutine owns the response
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(ctx, w, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	req, err := s.parseRenderRequest(c.QueryParams())
	if err != nil {
		s.sendEvent(ctx, sseEventChan, "error", fmt.Sprintf("Invalid request: %s", errorMessage(err)))
		return nil
	}
	if err := prepareScene(req.Scene); err != nil {
		s.sendEvent(ctx, sseEventChan, "error", errorMessage(err))
		return nil
	}

	// Render logs go to the browser console as well as the server log
	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	logger := NewConsoleLogger(renderID, consoleChan, s.logger.Handler())
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan)
	}()

	raytracer, err := renderer.NewProgressiveRaytracer(req.Scene, req.Width, req.Height, req.progressiveConfig(), logger)
	if err == nil {
		startTime := time.Now()
		passChan, tileChan, errChan := raytracer.RenderProgressive(ctx, renderer.RenderOptions{TileUpdates: true})
		err = s.handleRenderingEvents(ctx, sseEventChan, passChan, tileChan, errChan, req, startTime)
	}

	// Flush pending console messages so the final event is last on the stream
	close(consoleChan)
	<-consoleDone

	switch {
	case ctx.Err() != nil:
		// Client disconnected
	case err != nil:
		s.sendEvent(ctx, sseEventChan, "error", fmt.Sprintf("Rendering failed: %v", err))
	default:
		s.sendEvent(ctx, sseEventChan, "complete", "Rendering completed")
	}
	return nil
}

// handleRenderingEvents processes the main rendering event loop and returns
// the render error. It returns only after the render goroutine has closed its
// channels, so the render logger is never used after the console stream ends.
func (s *Server) handleRenderingEvents(ctx context.Context, sseEventChan chan<- SSEEvent,
	passChan <-chan renderer.PassResult, tileChan <-chan renderer.TileCompletionResult, errChan <-chan error,
	req *RenderRequest, startTime time.Time) error {

	for passChan != nil || tileChan != nil {
		select {
		case passResult, ok := <-passChan:
			if !ok {
				passChan = nil
				continue
			}
			if ctx.Err() == nil {
				s.handlePassComplete(ctx, sseEventChan, passResult, req, startTime)
			}

		case tileResult, ok := <-tileChan:
			if !ok {
				tileChan = nil
				continue
			}
			if ctx.Err() == nil {
				s.handleTileUpdate(ctx, sseEventChan, tileResult)
			}
		}
	}

	return <-errChan
}

// handlePassComplete processes and sends pass completion events
func (s *Server) handlePassComplete(ctx context.Context, sseEventChan chan<- SSEEvent, passResult renderer.PassResult, req *RenderRequest, startTime time.Time) {
	imageData, err := imageToBase64PNG(passResult.Image)
	if err != nil {
		s.logger.Error("encoding pass image", "pass", passResult.PassNumber, "error", err)
		return
	}

	stats := passResult.Stats
	s.sendJSON(ctx, sseEventChan, "passComplete", PassUpdate{
		PassNumber:     passResult.PassNumber,
		TotalPasses:    req.Passes,
		ImageData:      imageData,
		ElapsedMs:      time.Since(startTime).Milliseconds(),
		TotalPixels:    stats.TotalPixels,
		TotalSamples:   stats.TotalSamples,
		AverageSamples: stats.AverageSamples,
		MaxSamples:     stats.MaxSamples,
		MinSamples:     stats.MinSamples,
		MaxSamplesUsed: stats.MaxSamplesUsed,
		PrimitiveCount: req.Scene.CountPrimitives(),
		IsComplete:     passResult.IsLast,
	})
}

// handleTileUpdate processes and sends tile update events
func (s *Server) handleTileUpdate(ctx context.Context, sseEventChan chan<- SSEEvent, tileResult renderer.TileCompletionResult) {
	tileData, err := imageToBase64PNG(tileResult.TileImage)
	if err != nil {
		s.logger.Error("encoding tile image", "tile_x", tileResult.TileX, "tile_y", tileResult.TileY, "error", err)
		return
	}

	s.sendJSON(ctx, sseEventChan, "tile", TileUpdate{
		TileX:       tileResult.TileX,
		TileY:       tileResult.TileY,
		ImageData:   tileData,
		PassNumber:  tileResult.PassNumber,
		TileNumber:  tileResult.TileNumber,
		TotalTiles:  tileResult.TotalTiles,
		TotalPasses: tileResult.TotalPasses,
	})
}

// streamConsoleMessages forwards console messages until consoleChan closes.
// Messages are dropped rather than blocking the render when the stream is busy.
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, sseEventChan chan<- SSEEvent) {
	for msg := range consoleChan {
		data, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		select {
		case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
		case <-ctx.Done():
		default:
		}
	}
}

// writeSSEEvents writes every queued event; it is the only writer of w
func (s *Server) writeSSEEvents(ctx context.Context, w *echo.Response, sseEventChan <-chan SSEEvent) {
	for event := range sseEventChan {
		if ctx.Err() != nil {
			// Keep draining so senders never block
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
			continue
		}
		w.Flush()
	}
}

func (s *Server) sendJSON(ctx context.Context, sseEventChan chan<- SSEEvent, eventType string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("marshaling event", "type", eventType, "error", err)
		return
	}
	s.sendEvent(ctx, sseEventChan, eventType, string(data))
}

func (s *Server) sendEvent(ctx context.Context, sseEventChan chan<- SSEEvent, eventType, data string) {
	select {
	case sseEventChan <- SSEEvent{Type: eventType, Data: data}:
	case <-ctx.Done():
	}
}

// errorMessage unwraps the message of an echo.HTTPError
func errorMessage(err error) string {
	if he, ok := err.(*echo.HTTPError); ok {
		return fmt.Sprint(he.Message)
	}
	return err.Error()
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := loaders.EncodeImage(&buf, img, loaders.FormatPNG); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
