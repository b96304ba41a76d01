// Package mesh builds drawable GPU meshes.
//
// A Mesh owns one shader program, one vertex array, a vertex buffer and an
// optional index buffer. It is built once, drawn any number of times and
// destroyed once, all on the thread that owns the rendering context.
package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/glmesh/internal/engine/shader"
	"github.com/Faultbox/glmesh/internal/gpu"
)

var (
	ErrInvalidLayout   = errors.New("invalid vertex layout")
	ErrInvalidMesh     = errors.New("invalid mesh")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrNotBuilt        = errors.New("mesh not built")
	ErrAlreadyBuilt    = errors.New("mesh already built")
	ErrDestroyed       = errors.New("mesh destroyed")
)

// Spec is everything needed to build a mesh.
type Spec struct {
	Name     string
	Shader   shader.Source
	Vertices []float32
	Indices  []uint32 // nil for a non-indexed mesh
	Layout   []Attribute
	Topology gpu.Topology
	Count    int32 // elements to draw; 0 means all indices, or all vertices
}

// VertexCount returns the number of whole vertices in Vertices.
func (s Spec) VertexCount() int {
	st, err := stride(s.Layout)
	if err != nil || st == 0 {
		return 0
	}
	return len(s.Vertices) * 4 / st
}

// ElementCount returns the number of elements a draw call will consume.
func (s Spec) ElementCount() int32 {
	if s.Count > 0 {
		return s.Count
	}
	if s.Indices != nil {
		return int32(len(s.Indices))
	}
	return int32(s.VertexCount())
}

// Validate checks the layout and that the vertex data and element count agree with it.
// Index values are not inspected.
func (s Spec) Validate() error {
	if len(s.Layout) == 0 {
		return fmt.Errorf("%w: empty layout", ErrInvalidLayout)
	}
	for _, a := range s.Layout {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	st, err := stride(s.Layout)
	if err != nil {
		return err
	}
	if bytes := len(s.Vertices) * 4; bytes%st != 0 {
		return fmt.Errorf("%w: %d bytes of vertex data is not a multiple of stride %d", ErrInvalidMesh, bytes, st)
	}
	if s.Count < 0 {
		return fmt.Errorf("%w: negative element count %d", ErrInvalidMesh, s.Count)
	}
	available := s.VertexCount()
	if s.Indices != nil {
		available = len(s.Indices)
	}
	if int(s.ElementCount()) > available {
		return fmt.Errorf("%w: element count %d exceeds %d available", ErrInvalidMesh, s.ElementCount(), available)
	}
	return nil
}

// CheckIndices reports the first index that does not reference a vertex.
func (s Spec) CheckIndices() error {
	n := s.VertexCount()
	for i, idx := range s.Indices {
		if int(idx) >= n {
			return fmt.Errorf("%w: index[%d]=%d, vertex count %d", ErrIndexOutOfRange, i, idx, n)
		}
	}
	return nil
}

type state int

const (
	stateNew state = iota
	stateBuilt
	stateDestroyed
)

// Mesh is a drawable GPU mesh.
type Mesh struct {
	d    gpu.Driver
	spec Spec

	program shader.Program
	vao     uint32
	buffers Buffers
	count   int32
	state   state
}

// New returns an unbuilt mesh. No GPU calls are made until Build.
func New(d gpu.Driver, spec Spec) *Mesh {
	return &Mesh{d: d, spec: spec}
}

// Name returns the spec name.
func (m *Mesh) Name() string { return m.spec.Name }

// Spec returns the spec the mesh was created from.
func (m *Mesh) Spec() Spec { return m.spec }

// Program returns the linked program, zero before Build.
func (m *Mesh) Program() shader.Program { return m.program }

// VertexArray returns the vertex array handle, zero before Build.
func (m *Mesh) VertexArray() uint32 { return m.vao }

// Buffers returns the uploaded buffers.
func (m *Mesh) Buffers() Buffers { return m.buffers }

// Built reports whether the mesh can be drawn.
func (m *Mesh) Built() bool { return m.state == stateBuilt }

// Build compiles the shaders, uploads the buffers and binds the layout.
// If it fails nothing stays allocated; shader failures are returned as *shader.Error.
func (m *Mesh) Build() error {
	switch m.state {
	case stateBuilt:
		return fmt.Errorf("mesh %q: %w", m.spec.Name, ErrAlreadyBuilt)
	case stateDestroyed:
		return fmt.Errorf("mesh %q: %w", m.spec.Name, ErrDestroyed)
	}

	if err := m.spec.Validate(); err != nil {
		return fmt.Errorf("mesh %q: %w", m.spec.Name, err)
	}

	program, err := shader.Compile(m.d, m.spec.Shader)
	if err != nil {
		return fmt.Errorf("mesh %q: %w", m.spec.Name, err)
	}

	m.vao = m.d.GenVertexArray()
	m.d.BindVertexArray(m.vao)
	m.buffers = Upload(m.d, m.spec.Vertices, m.spec.Indices)
	BindLayout(m.d, m.spec.Layout)
	m.d.BindVertexArray(0)
	m.d.BindBuffer(gpu.ArrayBuffer, 0)

	m.program = program
	m.count = m.spec.ElementCount()
	m.state = stateBuilt
	return nil
}

// Draw issues one draw call for the mesh and leaves no vertex array bound.
func (m *Mesh) Draw() error {
	switch m.state {
	case stateNew:
		return fmt.Errorf("mesh %q: %w", m.spec.Name, ErrNotBuilt)
	case stateDestroyed:
		return fmt.Errorf("mesh %q: %w", m.spec.Name, ErrDestroyed)
	}

	m.d.UseProgram(uint32(m.program))
	m.d.BindVertexArray(m.vao)
	if m.buffers.Indexed() {
		m.d.DrawElements(m.spec.Topology, m.count, 0)
	} else {
		m.d.DrawArrays(m.spec.Topology, 0, m.count)
	}
	m.d.BindVertexArray(0)
	return nil
}

// Destroy releases the vertex array, buffers and program.
// A second call returns ErrDestroyed and makes no driver calls.
func (m *Mesh) Destroy() error {
	switch m.state {
	case stateDestroyed:
		return fmt.Errorf("mesh %q: %w", m.spec.Name, ErrDestroyed)
	case stateNew:
		m.state = stateDestroyed
		return nil
	}

	m.d.DeleteVertexArray(m.vao)
	m.buffers.Release(m.d)
	shader.Delete(m.d, m.program)

	m.vao = 0
	m.buffers = Buffers{}
	m.program = 0
	m.state = stateDestroyed
	return nil
}
