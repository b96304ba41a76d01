package mesh

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/glmesh/internal/engine/shader"
	"github.com/Faultbox/glmesh/internal/gpu"
	"github.com/Faultbox/glmesh/internal/gpu/gputest"
)

var colorShader = shader.Source{
	Vertex: `#version 330 core
layout(location = 0) in vec3 position;
layout(location = 1) in vec3 color;
out vec3 vertexColor;
void main()
{
	gl_Position = vec4(position, 1.0);
	vertexColor = color;
}
`,
	Fragment: `#version 330 core
in vec3 vertexColor;
out vec4 fragmentColor;
void main()
{
	fragmentColor = vec4(vertexColor, 1.0);
}
`,
}

var flatShader = shader.Source{
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
	fragmentColor = vec4(0.3, 0.0, 0.51, 1.0);
}
`,
}

func filledRectangle() Spec {
	return Spec{
		Name:   "filled",
		Shader: colorShader,
		Vertices: []float32{
			-0.8, 0.6, 0.0, 0.2, 0.44, 0.66,
			-0.8, -0.6, 0.0, 0.2, 0.44, 0.66,
			0.8, -0.6, 0.0, 0.2, 0.44, 0.66,
			0.8, 0.6, 0.0, 0.2, 0.44, 0.66,
		},
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
		Layout:   Interleaved(gpu.Float, 3, 3),
		Topology: gpu.Triangles,
		Count:    6,
	}
}

func lineOutline() Spec {
	return Spec{
		Name:   "outline",
		Shader: flatShader,
		Vertices: []float32{
			-0.9, -0.1, 0.0,
			-0.1, -0.1, 0.0,
			-0.1, -0.7, 0.0,
			-0.9, -0.7, 0.0,
		},
		Indices:  []uint32{0, 1, 1, 2, 2, 3, 3, 0},
		Layout:   Interleaved(gpu.Float, 3),
		Topology: gpu.Lines,
		Count:    8,
	}
}

func build(t *testing.T, d *gputest.Driver, spec Spec) *Mesh {
	t.Helper()
	m := New(d, spec)
	require.NoError(t, m.Build())
	require.True(t, m.Built())
	return m
}

func TestFilledRectangle(t *testing.T) {
	d := gputest.NewDriver()
	m := build(t, d, filledRectangle())

	require.NoError(t, m.Draw())
	require.Len(t, d.Draws, 1)
	assert.Equal(t, gputest.DrawCall{
		Program:     uint32(m.Program()),
		VertexArray: m.VertexArray(),
		Topology:    gpu.Triangles,
		Count:       6,
		Indexed:     true,
	}, d.Draws[0])
	assert.Empty(t, d.Violations)

	vao := m.VertexArray()
	attrs := d.Attribs(vao)
	require.Len(t, attrs, 2)
	assert.Equal(t, int32(24), attrs[0].Stride)
	assert.Equal(t, 0, attrs[0].Offset)
	assert.Equal(t, 12, attrs[1].Offset)
	assert.Equal(t, m.Buffers().VBO, attrs[0].Buffer)
	assert.True(t, d.Enabled(vao, 0))
	assert.True(t, d.Enabled(vao, 1))
	assert.Equal(t, m.Buffers().EBO, d.ElementBuffer(vao))

	assert.Equal(t, filledRectangle().Vertices, d.FloatData(m.Buffers().VBO))
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, d.IndexData(m.Buffers().EBO))
	assert.Equal(t, gpu.StaticDraw, d.BufferUsage(m.Buffers().VBO))
	assert.Equal(t, gpu.StaticDraw, d.BufferUsage(m.Buffers().EBO))
}

func TestLineOutline(t *testing.T) {
	d := gputest.NewDriver()
	m := build(t, d, lineOutline())

	require.NoError(t, m.Draw())
	require.Len(t, d.Draws, 1)
	assert.Equal(t, gpu.Lines, d.Draws[0].Topology)
	assert.Equal(t, int32(8), d.Draws[0].Count)
	assert.True(t, d.Draws[0].Indexed)
	assert.Empty(t, d.Violations)
}

func TestFlatColorIgnoresVertexColor(t *testing.T) {
	d := gputest.NewDriver()
	spec := lineOutline()
	spec.Topology = gpu.Triangles
	spec.Indices = []uint32{0, 1, 2, 0, 2, 3}
	spec.Count = 0
	m := build(t, d, spec)

	assert.True(t, d.Enabled(m.VertexArray(), 0))
	assert.False(t, d.Enabled(m.VertexArray(), 1), "flat shader takes no color attribute")
	assert.Contains(t, m.Spec().Shader.Fragment, "vec4(0.3, 0.0, 0.51, 1.0)")

	require.NoError(t, m.Draw())
	assert.Equal(t, int32(6), d.Draws[0].Count)
	assert.Empty(t, d.Violations)
}

func TestDrawCallOrder(t *testing.T) {
	d := gputest.NewDriver()
	m := build(t, d, filledRectangle())
	d.ResetLog()

	require.NoError(t, m.Draw())
	assert.Equal(t, []string{
		fmt.Sprintf("UseProgram(%d)", m.Program()),
		fmt.Sprintf("BindVertexArray(%d)", m.VertexArray()),
		"DrawElements(triangles,6,0)",
		"BindVertexArray(0)",
	}, d.Calls)
	assert.Zero(t, d.BoundVertexArray())
}

func TestDrawIsRepeatable(t *testing.T) {
	d := gputest.NewDriver()
	m := build(t, d, filledRectangle())

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Draw())
	}
	require.Len(t, d.Draws, 3)
	assert.Equal(t, d.Draws[0], d.Draws[1])
	assert.Equal(t, d.Draws[1], d.Draws[2])
	assert.Equal(t, filledRectangle(), m.Spec())
}

func TestDrawNonIndexed(t *testing.T) {
	d := gputest.NewDriver()
	spec := lineOutline()
	spec.Indices = nil
	spec.Count = 0
	spec.Topology = gpu.LineLoop
	m := build(t, d, spec)

	assert.False(t, m.Buffers().Indexed())
	require.NoError(t, m.Draw())
	assert.Equal(t, gputest.DrawCall{
		Program:     uint32(m.Program()),
		VertexArray: m.VertexArray(),
		Topology:    gpu.LineLoop,
		Count:       4,
	}, d.Draws[0])
	assert.Empty(t, d.Violations)
}

func TestMeshesDoNotShareState(t *testing.T) {
	d := gputest.NewDriver()
	a := build(t, d, filledRectangle())
	b := build(t, d, lineOutline())

	require.NoError(t, a.Draw())
	require.NoError(t, b.Draw())
	require.Len(t, d.Draws, 2)
	assert.NotEqual(t, d.Draws[0].Program, d.Draws[1].Program)
	assert.NotEqual(t, d.Draws[0].VertexArray, d.Draws[1].VertexArray)
	assert.Empty(t, d.Violations)
}

func TestDrawBeforeBuild(t *testing.T) {
	d := gputest.NewDriver()
	m := New(d, filledRectangle())

	assert.ErrorIs(t, m.Draw(), ErrNotBuilt)
	assert.Empty(t, d.Calls)
}

func TestBuildTwice(t *testing.T) {
	d := gputest.NewDriver()
	m := build(t, d, filledRectangle())
	live := d.LiveTotal()

	assert.ErrorIs(t, m.Build(), ErrAlreadyBuilt)
	assert.Equal(t, live, d.LiveTotal())
}

func TestBuildShaderFailureAllocatesNothing(t *testing.T) {
	d := gputest.NewDriver()
	spec := filledRectangle()
	spec.Shader.Vertex = "#version 330 core\nvoid main() {"
	m := New(d, spec)

	err := m.Build()
	require.Error(t, err)
	assert.True(t, errors.Is(err, shader.ErrVertexCompile))
	var serr *shader.Error
	require.True(t, errors.As(err, &serr))
	assert.NotEmpty(t, serr.Log)

	assert.False(t, m.Built())
	assert.False(t, m.Program().Valid())
	assert.Equal(t, 0, d.LiveTotal())
	assert.ErrorIs(t, m.Draw(), ErrNotBuilt)
}

func TestBuildInvalidSpecAllocatesNothing(t *testing.T) {
	d := gputest.NewDriver()
	spec := filledRectangle()
	spec.Vertices = spec.Vertices[:len(spec.Vertices)-1]

	err := New(d, spec).Build()
	assert.ErrorIs(t, err, ErrInvalidMesh)
	assert.Empty(t, d.Calls)
}

func TestDestroyReleasesEverything(t *testing.T) {
	d := gputest.NewDriver()
	m := build(t, d, filledRectangle())
	require.Equal(t, 4, d.LiveTotal())

	require.NoError(t, m.Destroy())
	assert.Equal(t, 0, d.LiveTotal())
	assert.Empty(t, d.Violations)
	assert.ErrorIs(t, m.Draw(), ErrDestroyed)
	assert.ErrorIs(t, m.Build(), ErrDestroyed)
}

func TestDestroyTwiceIsFlagged(t *testing.T) {
	d := gputest.NewDriver()
	m := build(t, d, lineOutline())
	require.NoError(t, m.Destroy())
	d.ResetLog()

	assert.ErrorIs(t, m.Destroy(), ErrDestroyed)
	assert.Empty(t, d.Calls, "second destroy must not reach the driver")
	assert.Empty(t, d.Violations)
}

func TestDriverFlagsDoubleRelease(t *testing.T) {
	d := gputest.NewDriver()
	vao := d.GenVertexArray()
	d.BindVertexArray(vao)
	b := Upload(d, []float32{0, 0, 0}, []uint32{0})

	b.Release(d)
	assert.Empty(t, d.Violations)
	b.Release(d)
	assert.True(t, d.HasViolation(gputest.ErrDoubleRelease))
}

func TestDestroyUnbuilt(t *testing.T) {
	d := gputest.NewDriver()
	m := New(d, filledRectangle())

	assert.NoError(t, m.Destroy())
	assert.ErrorIs(t, m.Destroy(), ErrDestroyed)
	assert.Empty(t, d.Calls)
}

func TestOutOfRangeIndexIsNotValidatedOnUpload(t *testing.T) {
	d := gputest.NewDriver()
	spec := filledRectangle()
	spec.Indices = []uint32{0, 1, 2, 0, 2, 7}

	assert.ErrorIs(t, spec.CheckIndices(), ErrIndexOutOfRange)

	m := build(t, d, spec)
	assert.Empty(t, d.Violations)

	require.NoError(t, m.Draw())
	assert.True(t, d.HasViolation(gputest.ErrIndexOutOfRange))
}

func TestValidIndicesStayInRange(t *testing.T) {
	for _, spec := range []Spec{filledRectangle(), lineOutline()} {
		t.Run(spec.Name, func(t *testing.T) {
			require.NoError(t, spec.CheckIndices())
			d := gputest.NewDriver()
			m := build(t, d, spec)
			require.NoError(t, m.Draw())
			assert.False(t, d.HasViolation(gputest.ErrIndexOutOfRange))
		})
	}
}

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Spec)
		want   error
	}{
		{"valid", func(s *Spec) {}, nil},
		{"empty layout", func(s *Spec) { s.Layout = nil }, ErrInvalidLayout},
		{"attribute past stride", func(s *Spec) { s.Layout[1].Offset = 16 }, ErrInvalidLayout},
		{"mixed strides", func(s *Spec) { s.Layout[1].Stride = 28 }, ErrInvalidLayout},
		{"partial vertex", func(s *Spec) { s.Vertices = append(s.Vertices, 1) }, ErrInvalidMesh},
		{"count past indices", func(s *Spec) { s.Count = 7 }, ErrInvalidMesh},
		{"negative count", func(s *Spec) { s.Count = -1 }, ErrInvalidMesh},
		{"count past vertices", func(s *Spec) { s.Indices = nil; s.Count = 5 }, ErrInvalidMesh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := filledRectangle()
			tt.modify(&spec)
			err := spec.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestElementCount(t *testing.T) {
	spec := filledRectangle()
	assert.Equal(t, 4, spec.VertexCount())
	assert.Equal(t, int32(6), spec.ElementCount())

	spec.Count = 0
	assert.Equal(t, int32(6), spec.ElementCount())

	spec.Indices = nil
	assert.Equal(t, int32(4), spec.ElementCount())
}
