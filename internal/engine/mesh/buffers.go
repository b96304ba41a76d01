package mesh

import "github.com/Faultbox/glmesh/internal/gpu"

// Buffers owns a vertex buffer and an optional index buffer.
type Buffers struct {
	VBO uint32
	EBO uint32 // 0 when the mesh is not indexed

	Floats  int // number of floats in VBO
	Indices int // number of indices in EBO
}

// Indexed reports whether an index buffer was uploaded.
func (b Buffers) Indexed() bool { return b.EBO != 0 }

// Upload copies vertices, and indices when non-nil, into static GPU buffers.
// Index values are not checked against the vertex count; see Spec.CheckIndices.
//
// The element buffer binding is recorded in the bound vertex array, so the
// mesh's vertex array must be bound before calling Upload.
func Upload(d gpu.Driver, vertices []float32, indices []uint32) Buffers {
	b := Buffers{Floats: len(vertices)}

	b.VBO = d.GenBuffer()
	d.BindBuffer(gpu.ArrayBuffer, b.VBO)
	d.BufferFloat32(gpu.ArrayBuffer, vertices, gpu.StaticDraw)

	if indices != nil {
		b.EBO = d.GenBuffer()
		b.Indices = len(indices)
		d.BindBuffer(gpu.ElementArrayBuffer, b.EBO)
		d.BufferUint32(gpu.ElementArrayBuffer, indices, gpu.StaticDraw)
	}
	return b
}

// Release deletes the buffers.
func (b Buffers) Release(d gpu.Driver) {
	d.DeleteBuffer(b.VBO)
	if b.EBO != 0 {
		d.DeleteBuffer(b.EBO)
	}
}
