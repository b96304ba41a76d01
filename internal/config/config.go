// Package config handles configuration loading and management.
package config

import (
	"fmt"
	"slices"
)

// Window backends.
const (
	BackendGLFW = "glfw"
	BackendSDL  = "sdl"
)

// Shader error policies.
const (
	ShaderErrorsFail     = "fail"     // abort startup
	ShaderErrorsFallback = "fallback" // draw the mesh with the flat fallback program
	ShaderErrorsSkip     = "skip"     // leave the mesh out of the frame
)

// Scenes.
const (
	SceneRectangles = "rectangles"
	SceneOutline    = "outline"
)

// Config holds all settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Render  RenderConfig  `yaml:"render"`
	Scene   string        `yaml:"scene"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds window and context settings.
type WindowConfig struct {
	Title   string `yaml:"title"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Backend string `yaml:"backend"`
	VSync   bool   `yaml:"vsync"`
}

// RenderConfig holds rendering settings.
type RenderConfig struct {
	ClearColor      [4]float32 `yaml:"clear_color"`
	ShaderErrors    string     `yaml:"shader_errors"`
	ValidateIndices bool       `yaml:"validate_indices"`
	MaxFrames       int        `yaml:"max_frames"` // 0 runs until the window closes
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:   "grafika komputerowa",
			Width:   1000,
			Height:  800,
			Backend: BackendGLFW,
			VSync:   true,
		},
		Render: RenderConfig{
			ClearColor:   [4]float32{0.18, 0.20, 0.22, 1.0},
			ShaderErrors: ShaderErrorsFail,
		},
		Scene: SceneRectangles,
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if !slices.Contains([]string{BackendGLFW, BackendSDL}, c.Window.Backend) {
		return fmt.Errorf("unknown window backend %q", c.Window.Backend)
	}
	if !slices.Contains([]string{ShaderErrorsFail, ShaderErrorsFallback, ShaderErrorsSkip}, c.Render.ShaderErrors) {
		return fmt.Errorf("unknown shader_errors policy %q", c.Render.ShaderErrors)
	}
	if c.Render.MaxFrames < 0 {
		return fmt.Errorf("max_frames %d must not be negative", c.Render.MaxFrames)
	}
	return nil
}
