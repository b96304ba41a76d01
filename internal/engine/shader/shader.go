// Package shader provides shader compilation utilities.
package shader

import (
	"errors"
	"fmt"

	"github.com/Faultbox/glmesh/internal/gpu"
)

// MaxLogLength is the size of the buffer diagnostic logs are read into.
// Longer logs are truncated.
const MaxLogLength = 512

// Source is a vertex and fragment stage pair.
type Source struct {
	Vertex   string
	Fragment string
}

// Program is a linked shader program handle. Zero is never a valid program.
type Program uint32

// Valid reports whether p refers to a linked program.
func (p Program) Valid() bool { return p != 0 }

// Kind tells which step of Compile failed.
type Kind int

const (
	VertexCompileFailed Kind = iota + 1
	FragmentCompileFailed
	LinkFailed
)

func (k Kind) String() string {
	switch k {
	case VertexCompileFailed:
		return "vertex compile failed"
	case FragmentCompileFailed:
		return "fragment compile failed"
	case LinkFailed:
		return "link failed"
	default:
		return "unknown shader error"
	}
}

// Sentinels for errors.Is checks against an *Error.
var (
	ErrVertexCompile   = errors.New("vertex compile failed")
	ErrFragmentCompile = errors.New("fragment compile failed")
	ErrLink            = errors.New("link failed")
)

// Error carries the driver diagnostic log of a failed compile or link.
type Error struct {
	Kind Kind
	Log  string
}

func (e *Error) Error() string {
	if e.Log == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Log)
}

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case VertexCompileFailed:
		return target == ErrVertexCompile
	case FragmentCompileFailed:
		return target == ErrFragmentCompile
	case LinkFailed:
		return target == ErrLink
	}
	return false
}

// Compile compiles vertex and fragment shaders and links them into a program.
// Intermediate stage objects are always released; on failure no program
// survives and the returned error is an *Error.
func Compile(d gpu.Driver, src Source) (Program, error) {
	vertShader, err := compileStage(d, gpu.VertexStage, src.Vertex)
	if err != nil {
		return 0, err
	}
	defer d.DeleteShader(vertShader)

	fragShader, err := compileStage(d, gpu.FragmentStage, src.Fragment)
	if err != nil {
		return 0, err
	}
	defer d.DeleteShader(fragShader)

	program := d.CreateProgram()
	d.AttachShader(program, vertShader)
	d.AttachShader(program, fragShader)
	d.LinkProgram(program)

	linked := d.ProgramLinked(program)
	var log string
	if !linked {
		log = d.ProgramInfoLog(program, MaxLogLength)
	}

	d.DetachShader(program, vertShader)
	d.DetachShader(program, fragShader)

	if !linked {
		d.DeleteProgram(program)
		return 0, &Error{Kind: LinkFailed, Log: log}
	}
	return Program(program), nil
}

// Delete releases a program returned by Compile.
func Delete(d gpu.Driver, p Program) {
	if p.Valid() {
		d.DeleteProgram(uint32(p))
	}
}

// compileStage compiles a single shader stage.
func compileStage(d gpu.Driver, stage gpu.Stage, source string) (uint32, error) {
	shader := d.CreateShader(stage)
	d.ShaderSource(shader, source)
	d.CompileShader(shader)

	if !d.ShaderCompiled(shader) {
		log := d.ShaderInfoLog(shader, MaxLogLength)
		d.DeleteShader(shader)
		kind := VertexCompileFailed
		if stage == gpu.FragmentStage {
			kind = FragmentCompileFailed
		}
		return 0, &Error{Kind: kind, Log: log}
	}
	return shader, nil
}

// Fallback is a flat magenta program with a single position attribute at
// location 0. It is used in place of a mesh's own shaders when they fail to build.
var Fallback = Source{
	Vertex: `#version 330 core
layout(location = 0) in vec3 position;
void main()
{
	gl_Position = vec4(position, 1.0);
}
`,
	Fragment: `#version 330 core
out vec4 fragmentColor;
void main()
{
	fragmentColor = vec4(1.0, 0.0, 1.0, 1.0);
}
`,
}
