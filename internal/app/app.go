// Package app hosts a scene: it owns the window and the meshes, and runs
// the frame loop until the window closes.
package app

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/glmesh/internal/config"
	"github.com/Faultbox/glmesh/internal/demo"
	"github.com/Faultbox/glmesh/internal/engine/mesh"
	"github.com/Faultbox/glmesh/internal/engine/renderer"
	"github.com/Faultbox/glmesh/internal/engine/shader"
	"github.com/Faultbox/glmesh/internal/gpu"
	"github.com/Faultbox/glmesh/internal/logger"
)

// Window is the surface a scene is presented on.
type Window interface {
	ShouldClose() bool
	SwapBuffers()
	PollEvents()
	Size() (width, height int)
	Close()
}

// App is a running scene.
type App struct {
	cfg      *config.Config
	win      Window
	d        gpu.Driver
	renderer *renderer.Renderer
	meshes   []*mesh.Mesh
	frames   int
}

// New builds the scene named by cfg on win, whose context must be current for d.
func New(cfg *config.Config, win Window, d gpu.Driver) (*App, error) {
	specs, err := demo.Scene(cfg.Scene)
	if err != nil {
		return nil, err
	}
	return Assemble(cfg, win, d, specs)
}

// Assemble builds specs on an existing window and driver. On error every
// mesh built so far is destroyed; the window is left to the caller.
func Assemble(cfg *config.Config, win Window, d gpu.Driver, specs []mesh.Spec) (*App, error) {
	width, height := win.Size()
	a := &App{
		cfg: cfg,
		win: win,
		d:   d,
		renderer: renderer.New(d, renderer.Config{
			Width:      width,
			Height:     height,
			ClearColor: cfg.Render.ClearColor,
		}),
	}

	for _, spec := range specs {
		m, err := a.buildMesh(spec)
		if err != nil {
			a.destroyMeshes()
			return nil, err
		}
		if m != nil {
			a.meshes = append(a.meshes, m)
		}
	}

	logger.Info("scene ready",
		zap.String("scene", cfg.Scene),
		zap.Int("meshes", len(a.meshes)),
	)
	return a, nil
}

// buildMesh builds one mesh, applying the shader error policy.
// A nil mesh with a nil error means the mesh was skipped.
func (a *App) buildMesh(spec mesh.Spec) (*mesh.Mesh, error) {
	if a.cfg.Render.ValidateIndices {
		if err := spec.CheckIndices(); err != nil {
			return nil, fmt.Errorf("mesh %q: %w", spec.Name, err)
		}
	}

	m := mesh.New(a.d, spec)
	err := m.Build()
	if err == nil {
		logger.Debug("mesh built",
			zap.String("mesh", spec.Name),
			zap.Stringer("topology", spec.Topology),
			zap.Int32("elements", spec.ElementCount()),
		)
		return m, nil
	}

	var serr *shader.Error
	if !errors.As(err, &serr) {
		return nil, err
	}
	logger.Error("shader build failed",
		zap.String("mesh", spec.Name),
		zap.Stringer("kind", serr.Kind),
		zap.String("log", serr.Log),
	)

	switch a.cfg.Render.ShaderErrors {
	case config.ShaderErrorsFallback:
		spec.Shader = shader.Fallback
		m = mesh.New(a.d, spec)
		if err := m.Build(); err != nil {
			return nil, fmt.Errorf("fallback shader: %w", err)
		}
		logger.Warn("drawing mesh with fallback shader", zap.String("mesh", spec.Name))
		return m, nil
	case config.ShaderErrorsSkip:
		logger.Warn("mesh skipped", zap.String("mesh", spec.Name))
		return nil, nil
	default:
		return nil, err
	}
}

// Meshes returns the meshes drawn each frame.
func (a *App) Meshes() []*mesh.Mesh { return a.meshes }

// Frames returns the number of frames presented so far.
func (a *App) Frames() int { return a.frames }

// Run draws frames until the window should close or the frame limit is hit.
func (a *App) Run() error {
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting frame loop")

	for !a.win.ShouldClose() {
		if limit := a.cfg.Render.MaxFrames; limit > 0 && a.frames >= limit {
			logger.Info("frame limit reached", zap.Int("frames", a.frames))
			break
		}

		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now

		if err := a.frame(); err != nil {
			return fmt.Errorf("render error: %w", err)
		}

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			logger.Debug("fps", zap.Int("count", frameCount), zap.Duration("dt", dt))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

// frame renders and presents one frame, then processes window events.
func (a *App) frame() error {
	a.renderer.Resize(a.win.Size())
	a.renderer.Begin()
	if err := a.renderer.Draw(a.meshes...); err != nil {
		return err
	}
	a.win.SwapBuffers()
	a.win.PollEvents()
	a.frames++
	return nil
}

// Close destroys every mesh, then the window.
func (a *App) Close() {
	logger.Info("closing", zap.Int("frames", a.frames))
	a.destroyMeshes()
	if a.win != nil {
		a.win.Close()
		a.win = nil
	}
}

func (a *App) destroyMeshes() {
	for _, m := range a.meshes {
		if err := m.Destroy(); err != nil {
			logger.Warn("mesh destroy failed", zap.String("mesh", m.Name()), zap.Error(err))
		}
	}
	a.meshes = nil
}
