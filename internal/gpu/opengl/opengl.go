// Package opengl implements gpu.Driver with the go-gl OpenGL bindings.
package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/glmesh/internal/gpu"
)

// Driver issues OpenGL calls through the 4.1 core profile bindings, which
// also serve 3.3 core contexts. It must be created after a context has been
// made current on the calling thread.
type Driver struct{}

var _ gpu.Driver = (*Driver)(nil)

// New loads the OpenGL function pointers for the current context.
func New() (*Driver, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", gpu.ErrLoaderInit, err)
	}
	return &Driver{}, nil
}

// Info returns version strings of the current context.
func (d *Driver) Info() gpu.Info {
	return gpu.Info{
		Version:     gl.GoStr(gl.GetString(gl.VERSION)),
		Renderer:    gl.GoStr(gl.GetString(gl.RENDERER)),
		GLSLVersion: gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)),
	}
}

func (d *Driver) CreateShader(stage gpu.Stage) uint32 {
	switch stage {
	case gpu.VertexStage:
		return gl.CreateShader(gl.VERTEX_SHADER)
	case gpu.FragmentStage:
		return gl.CreateShader(gl.FRAGMENT_SHADER)
	default:
		return 0
	}
}

func (d *Driver) ShaderSource(shader uint32, source string) {
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
}

func (d *Driver) CompileShader(shader uint32) {
	gl.CompileShader(shader)
}

func (d *Driver) ShaderCompiled(shader uint32) bool {
	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	return status != gl.FALSE
}

func (d *Driver) ShaderInfoLog(shader uint32, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	log := make([]byte, maxLen)
	var written int32
	gl.GetShaderInfoLog(shader, int32(maxLen), &written, &log[0])
	return trimLog(log[:written])
}

func (d *Driver) DeleteShader(shader uint32) {
	gl.DeleteShader(shader)
}

func (d *Driver) CreateProgram() uint32 {
	return gl.CreateProgram()
}

func (d *Driver) AttachShader(program, shader uint32) {
	gl.AttachShader(program, shader)
}

func (d *Driver) DetachShader(program, shader uint32) {
	gl.DetachShader(program, shader)
}

func (d *Driver) LinkProgram(program uint32) {
	gl.LinkProgram(program)
}

func (d *Driver) ProgramLinked(program uint32) bool {
	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	return status != gl.FALSE
}

func (d *Driver) ProgramInfoLog(program uint32, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	log := make([]byte, maxLen)
	var written int32
	gl.GetProgramInfoLog(program, int32(maxLen), &written, &log[0])
	return trimLog(log[:written])
}

func (d *Driver) UseProgram(program uint32) {
	gl.UseProgram(program)
}

func (d *Driver) DeleteProgram(program uint32) {
	gl.DeleteProgram(program)
}

func (d *Driver) GenVertexArray() uint32 {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return vao
}

func (d *Driver) BindVertexArray(vao uint32) {
	gl.BindVertexArray(vao)
}

func (d *Driver) DeleteVertexArray(vao uint32) {
	gl.DeleteVertexArrays(1, &vao)
}

func (d *Driver) GenBuffer() uint32 {
	var buf uint32
	gl.GenBuffers(1, &buf)
	return buf
}

func (d *Driver) BindBuffer(target gpu.BufferTarget, buffer uint32) {
	gl.BindBuffer(glTarget(target), buffer)
}

func (d *Driver) BufferFloat32(target gpu.BufferTarget, data []float32, usage gpu.Usage) {
	if len(data) == 0 {
		gl.BufferData(glTarget(target), 0, nil, glUsage(usage))
		return
	}
	gl.BufferData(glTarget(target), len(data)*4, gl.Ptr(data), glUsage(usage))
}

func (d *Driver) BufferUint32(target gpu.BufferTarget, data []uint32, usage gpu.Usage) {
	if len(data) == 0 {
		gl.BufferData(glTarget(target), 0, nil, glUsage(usage))
		return
	}
	gl.BufferData(glTarget(target), len(data)*4, gl.Ptr(data), glUsage(usage))
}

func (d *Driver) DeleteBuffer(buffer uint32) {
	gl.DeleteBuffers(1, &buffer)
}

func (d *Driver) VertexAttribPointer(index uint32, components int32, typ gpu.ComponentType, normalized bool, stride int32, offset int) {
	gl.VertexAttribPointerWithOffset(index, components, glType(typ), normalized, stride, uintptr(offset))
}

func (d *Driver) EnableVertexAttribArray(index uint32) {
	gl.EnableVertexAttribArray(index)
}

func (d *Driver) DrawElements(mode gpu.Topology, count int32, offset int) {
	gl.DrawElementsWithOffset(glMode(mode), count, gl.UNSIGNED_INT, uintptr(offset))
}

func (d *Driver) DrawArrays(mode gpu.Topology, first, count int32) {
	gl.DrawArrays(glMode(mode), first, count)
}

func (d *Driver) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (d *Driver) ClearColor(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
}

func (d *Driver) ClearColorBuffer() {
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func glTarget(t gpu.BufferTarget) uint32 {
	if t == gpu.ElementArrayBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func glUsage(u gpu.Usage) uint32 {
	if u == gpu.DynamicDraw {
		return gl.DYNAMIC_DRAW
	}
	return gl.STATIC_DRAW
}

func glType(c gpu.ComponentType) uint32 {
	switch c {
	case gpu.UnsignedInt:
		return gl.UNSIGNED_INT
	case gpu.Int:
		return gl.INT
	case gpu.UnsignedByte:
		return gl.UNSIGNED_BYTE
	default:
		return gl.FLOAT
	}
}

func glMode(t gpu.Topology) uint32 {
	switch t {
	case gpu.Lines:
		return gl.LINES
	case gpu.LineStrip:
		return gl.LINE_STRIP
	case gpu.LineLoop:
		return gl.LINE_LOOP
	case gpu.Points:
		return gl.POINTS
	default:
		return gl.TRIANGLES
	}
}

// trimLog drops the NUL terminator and trailing whitespace drivers append.
func trimLog(b []byte) string {
	return strings.TrimRight(string(b), "\x00 \r\n\t")
}
