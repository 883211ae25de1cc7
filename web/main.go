package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/df07/go-csg-raytracer/pkg/core"
	"github.com/df07/go-csg-raytracer/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	verbose := flag.Bool("v", false, "Log per-tile debug output")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	core.SetLogger(logger)

	// Create and start web server
	webServer := server.NewServer(*port, logger)

	logger.Info("CSG raytracer web server", "port", *port)

	if err := webServer.Start(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
