// Package demo defines the built-in scenes as mesh specs.
package demo

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/Faultbox/glmesh/internal/engine/mesh"
	"github.com/Faultbox/glmesh/internal/engine/shader"
	"github.com/Faultbox/glmesh/internal/gpu"
)

//go:embed shaders/color.vert
var colorVertexShader string

//go:embed shaders/color.frag
var colorFragmentShader string

//go:embed shaders/flat.vert
var flatVertexShader string

//go:embed shaders/flat.frag
var flatFragmentShader string

// ColorShader passes a per-vertex color (location 1) through to the fragment stage.
var ColorShader = shader.Source{Vertex: colorVertexShader, Fragment: colorFragmentShader}

// FlatShader ignores everything but position and fills with FlatColor.
var FlatShader = shader.Source{Vertex: flatVertexShader, Fragment: flatFragmentShader}

// FlatColor is the constant output of FlatShader.
var FlatColor = [4]float32{0.3, 0.0, 0.51, 1.0}

// RectangleColor is the vertex color of FilledRectangle.
var RectangleColor = [3]float32{0.2, 0.44, 0.66}

type vec3 = [3]float32

// interleave packs positions and colors as [x y z r g b] per vertex.
func interleave(positions, colors []vec3) []float32 {
	out := make([]float32, 0, len(positions)*6)
	for i, p := range positions {
		c := colors[i]
		out = append(out, p[0], p[1], p[2], c[0], c[1], c[2])
	}
	return out
}

func flatten(positions []vec3) []float32 {
	out := make([]float32, 0, len(positions)*3)
	for _, p := range positions {
		out = append(out, p[0], p[1], p[2])
	}
	return out
}

// quadTriangles returns two triangles sharing the diagonal 0-2.
func quadTriangles() []uint32 { return []uint32{0, 1, 2, 0, 2, 3} }

// quadEdges returns the four edges around a quad.
func quadEdges() []uint32 { return []uint32{0, 1, 1, 2, 2, 3, 3, 0} }

var lowerLeftQuad = []vec3{
	{-0.9, -0.1, 0.0}, // top left
	{-0.1, -0.1, 0.0}, // top right
	{-0.1, -0.7, 0.0}, // bottom right
	{-0.9, -0.7, 0.0}, // bottom left
}

// FilledRectangle is a flat-colored rectangle built from two vertex-colored triangles.
func FilledRectangle() mesh.Spec {
	c := RectangleColor
	return mesh.Spec{
		Name:   "filled-rectangle",
		Shader: ColorShader,
		Vertices: interleave(
			[]vec3{{-0.8, 0.6, 0}, {-0.8, -0.6, 0}, {0.8, -0.6, 0}, {0.8, 0.6, 0}},
			[]vec3{c, c, c, c},
		),
		Indices:  quadTriangles(),
		Layout:   mesh.Interleaved(gpu.Float, 3, 3),
		Topology: gpu.Triangles,
		Count:    6,
	}
}

// FlatRectangle is a position-only rectangle drawn with FlatShader.
func FlatRectangle() mesh.Spec {
	return mesh.Spec{
		Name:     "flat-rectangle",
		Shader:   FlatShader,
		Vertices: flatten(lowerLeftQuad),
		Indices:  quadTriangles(),
		Layout:   mesh.Interleaved(gpu.Float, 3),
		Topology: gpu.Triangles,
		Count:    6,
	}
}

// FlatOutline draws the edges of FlatRectangle's quad as line segments.
func FlatOutline() mesh.Spec {
	return mesh.Spec{
		Name:     "flat-outline",
		Shader:   FlatShader,
		Vertices: flatten(lowerLeftQuad),
		Indices:  quadEdges(),
		Layout:   mesh.Interleaved(gpu.Float, 3),
		Topology: gpu.Lines,
		Count:    8,
	}
}

// ColorOutline is a quad outline whose edges blend between four corner colors.
func ColorOutline() mesh.Spec {
	return mesh.Spec{
		Name:   "color-outline",
		Shader: ColorShader,
		Vertices: interleave(
			[]vec3{{-0.8, -0.6, 0}, {0.8, -0.6, 0}, {0.8, 0.6, 0}, {-0.8, 0.6, 0}},
			[]vec3{{0.6, 0.2, 0.15}, {0.3, 0.7, 0.0}, {0.0, 0.0, 0.8}, {0.8, 0.0, 0.0}},
		),
		Indices:  quadEdges(),
		Layout:   mesh.Interleaved(gpu.Float, 3, 3),
		Topology: gpu.Lines,
		Count:    8,
	}
}

var scenes = map[string]func() []mesh.Spec{
	"rectangles": func() []mesh.Spec {
		return []mesh.Spec{FilledRectangle(), FlatRectangle()}
	},
	"outline": func() []mesh.Spec {
		return []mesh.Spec{ColorOutline(), FlatOutline()}
	},
}

// Scene returns the meshes of a named scene in draw order.
func Scene(name string) ([]mesh.Spec, error) {
	build, ok := scenes[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q (have %v)", name, Names())
	}
	return build(), nil
}

// Names lists the available scenes.
func Names() []string {
	names := make([]string, 0, len(scenes))
	for name := range scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
