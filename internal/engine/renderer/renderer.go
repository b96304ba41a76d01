// Package renderer sets up per-frame GPU state and draws meshes.
package renderer

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Faultbox/glmesh/internal/engine/mesh"
	"github.com/Faultbox/glmesh/internal/gpu"
	"github.com/Faultbox/glmesh/internal/logger"
)

// Config holds renderer configuration.
type Config struct {
	Width      int
	Height     int
	ClearColor [4]float32
}

// Renderer clears the frame and draws meshes through a driver.
type Renderer struct {
	config Config
	d      gpu.Driver
}

// New creates a renderer and sets the initial viewport.
// The driver's context must be current.
func New(d gpu.Driver, cfg Config) *Renderer {
	r := &Renderer{config: cfg, d: d}

	if info, ok := d.(interface{ Info() gpu.Info }); ok {
		i := info.Info()
		logger.Info("graphics context ready",
			zap.String("version", i.Version),
			zap.String("renderer", i.Renderer),
			zap.String("glsl", i.GLSLVersion),
		)
	}

	d.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))
	return r
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	if width == r.config.Width && height == r.config.Height {
		return
	}
	r.config.Width = width
	r.config.Height = height
	r.d.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Size returns the current viewport size.
func (r *Renderer) Size() (int, int) {
	return r.config.Width, r.config.Height
}

// Begin starts a new frame by clearing the color buffer.
func (r *Renderer) Begin() {
	c := r.config.ClearColor
	r.d.ClearColor(c[0], c[1], c[2], c[3])
	r.d.ClearColorBuffer()
}

// Draw draws meshes in order. Every mesh is attempted; the errors of those
// that could not be drawn are joined.
func (r *Renderer) Draw(meshes ...*mesh.Mesh) error {
	var errs []error
	for _, m := range meshes {
		if err := m.Draw(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
