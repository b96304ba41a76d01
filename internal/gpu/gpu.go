// Package gpu describes the GPU driver calls the engine relies on.
//
// The engine never calls OpenGL directly; it talks to a Driver. Package
// opengl implements Driver on top of go-gl, and gputest provides an
// in-memory, safety-checked implementation for tests. A Driver is bound to the thread
// that owns the rendering context and must not be shared between goroutines.
package gpu

import "errors"

// ErrLoaderInit is returned when the OpenGL function loader cannot be initialized.
var ErrLoaderInit = errors.New("graphics loader init failed")

// Stage identifies a shader pipeline stage.
type Stage int

const (
	VertexStage Stage = iota
	FragmentStage
)

func (s Stage) String() string {
	switch s {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	default:
		return "unknown"
	}
}

// Topology is the primitive assembly mode used by a draw call.
type Topology int

const (
	Triangles Topology = iota
	Lines
	LineStrip
	LineLoop
	Points
)

func (t Topology) String() string {
	switch t {
	case Triangles:
		return "triangles"
	case Lines:
		return "lines"
	case LineStrip:
		return "line_strip"
	case LineLoop:
		return "line_loop"
	case Points:
		return "points"
	default:
		return "unknown"
	}
}

// ComponentType is the scalar type of a vertex attribute component.
type ComponentType int

const (
	Float ComponentType = iota
	UnsignedInt
	Int
	UnsignedByte
)

// Size returns the size of one component in bytes.
func (c ComponentType) Size() int {
	switch c {
	case Float, UnsignedInt, Int:
		return 4
	case UnsignedByte:
		return 1
	default:
		return 0
	}
}

func (c ComponentType) String() string {
	switch c {
	case Float:
		return "float"
	case UnsignedInt:
		return "uint"
	case Int:
		return "int"
	case UnsignedByte:
		return "ubyte"
	default:
		return "unknown"
	}
}

// BufferTarget is the binding point of a buffer object.
type BufferTarget int

const (
	ArrayBuffer BufferTarget = iota
	ElementArrayBuffer
)

// Usage hints how often buffer contents change after upload.
type Usage int

const (
	StaticDraw Usage = iota
	DynamicDraw
)

// Info describes the active rendering context.
type Info struct {
	Version     string
	Renderer    string
	GLSLVersion string
}

// Driver is the set of GPU calls used to build, draw and release meshes.
//
// Handles are driver-assigned non-zero identifiers; zero means "none".
type Driver interface {
	CreateShader(stage Stage) uint32
	ShaderSource(shader uint32, source string)
	CompileShader(shader uint32)
	ShaderCompiled(shader uint32) bool
	// ShaderInfoLog returns at most maxLen-1 bytes of the shader's diagnostic log.
	ShaderInfoLog(shader uint32, maxLen int) string
	DeleteShader(shader uint32)

	CreateProgram() uint32
	AttachShader(program, shader uint32)
	DetachShader(program, shader uint32)
	LinkProgram(program uint32)
	ProgramLinked(program uint32) bool
	// ProgramInfoLog returns at most maxLen-1 bytes of the program's diagnostic log.
	ProgramInfoLog(program uint32, maxLen int) string
	UseProgram(program uint32)
	DeleteProgram(program uint32)

	GenVertexArray() uint32
	BindVertexArray(vao uint32)
	DeleteVertexArray(vao uint32)

	GenBuffer() uint32
	BindBuffer(target BufferTarget, buffer uint32)
	BufferFloat32(target BufferTarget, data []float32, usage Usage)
	BufferUint32(target BufferTarget, data []uint32, usage Usage)
	DeleteBuffer(buffer uint32)

	VertexAttribPointer(index uint32, components int32, typ ComponentType, normalized bool, stride int32, offset int)
	EnableVertexAttribArray(index uint32)

	DrawElements(mode Topology, count int32, offset int)
	DrawArrays(mode Topology, first, count int32)

	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	ClearColorBuffer()
}
