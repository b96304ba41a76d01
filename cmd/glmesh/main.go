// Package main is the entry point for the glmesh demo.
package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/glmesh/internal/app"
	"github.com/Faultbox/glmesh/internal/config"
	"github.com/Faultbox/glmesh/internal/engine/window"
	"github.com/Faultbox/glmesh/internal/gpu"
	"github.com/Faultbox/glmesh/internal/gpu/opengl"
	"github.com/Faultbox/glmesh/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		return 1
	}

	if path := config.WriteConfigPath(); path != "" {
		if err := cfg.SaveTo(path); err != nil {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			return 1
		}
		return 0
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Info("=== glmesh ===", zap.String("scene", cfg.Scene))
	logger.Sugar.Debugf("Config: %+v", cfg)

	a, err := start(cfg)
	if err != nil {
		switch {
		case errors.Is(err, window.ErrCreateWindow):
			logger.Error("failed to create window", zap.Error(err))
		case errors.Is(err, gpu.ErrLoaderInit):
			logger.Error("failed to initialize graphics loader", zap.Error(err))
		default:
			logger.Error("failed to start", zap.Error(err))
		}
		return 1
	}
	defer a.Close()

	if err := a.Run(); err != nil {
		logger.Error("frame loop error", zap.Error(err))
		return 1
	}

	logger.Info("window closed normally")
	return 0
}

// start opens the window, loads OpenGL on its context and builds the scene.
// The window is closed again if anything after it fails.
func start(cfg *config.Config) (*app.App, error) {
	win, err := window.New(window.Config{
		Title:   cfg.Window.Title,
		Width:   cfg.Window.Width,
		Height:  cfg.Window.Height,
		Backend: cfg.Window.Backend,
		VSync:   cfg.Window.VSync,
	})
	if err != nil {
		return nil, err
	}

	// The loader needs the context made current by window.New.
	d, err := opengl.New()
	if err != nil {
		win.Close()
		return nil, err
	}

	a, err := app.New(cfg, win, d)
	if err != nil {
		win.Close()
		return nil, err
	}
	return a, nil
}
