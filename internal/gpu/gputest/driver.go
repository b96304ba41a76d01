// Package gputest provides an in-memory gpu.Driver for tests.
//
// Driver keeps the state a real driver would keep (objects, bindings,
// vertex array attribute tables) and checks every call against it. Misuse
// that a real driver would silently accept, such as releasing a handle twice
// or drawing with an index past the end of the vertex buffer, is recorded in
// Violations instead of crashing.
package gputest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/glmesh/internal/gpu"
)

var (
	ErrDoubleRelease   = errors.New("gputest: release of dead or unknown handle")
	ErrDeadHandle      = errors.New("gputest: use of dead or unknown handle")
	ErrIndexOutOfRange = errors.New("gputest: index out of range")
	ErrNoProgram       = errors.New("gputest: draw without a linked program")
	ErrNoVertexArray   = errors.New("gputest: draw without a vertex array")
	ErrNoElementBuffer = errors.New("gputest: indexed draw without an element buffer")
)

// Kind is the type of a driver object.
type Kind int

const (
	KindShader Kind = iota
	KindProgram
	KindVertexArray
	KindBuffer
)

func (k Kind) String() string {
	switch k {
	case KindShader:
		return "shader"
	case KindProgram:
		return "program"
	case KindVertexArray:
		return "vertex array"
	case KindBuffer:
		return "buffer"
	default:
		return "unknown"
	}
}

// Attrib is one entry of a vertex array's attribute table.
type Attrib struct {
	Components int32
	Type       gpu.ComponentType
	Normalized bool
	Stride     int32
	Offset     int
	Buffer     uint32
}

// DrawCall records one draw issued to the driver.
type DrawCall struct {
	Program     uint32
	VertexArray uint32
	Topology    gpu.Topology
	First       int32
	Count       int32
	Indexed     bool
}

// CompileFunc decides the outcome of compiling one shader stage.
type CompileFunc func(stage gpu.Stage, source string) (ok bool, log string)

// LinkFunc decides the outcome of linking two compiled stages.
type LinkFunc func(vertexSource, fragmentSource string) (ok bool, log string)

type object struct {
	kind  Kind
	alive bool

	stage    gpu.Stage
	source   string
	compiled bool
	log      string

	attached map[uint32]bool
	linked   bool

	floats []float32
	uints  []uint32
	size   int
	usage  gpu.Usage

	elementBuffer uint32
	attribs       map[uint32]Attrib
	enabled       map[uint32]bool
}

// Driver is a safety-checked in-memory gpu.Driver.
type Driver struct {
	// Compile overrides DefaultCompile when set.
	Compile CompileFunc
	// Link overrides DefaultLink when set. It only runs when both stages compiled.
	Link LinkFunc

	Draws      []DrawCall
	Calls      []string
	Violations []error

	ViewportRect [4]int32
	ClearRGBA    [4]float32
	Clears       int

	next        uint32
	objects     map[uint32]*object
	program     uint32
	vertexArray uint32
	arrayBuffer uint32
	looseEBO    uint32
}

// NewDriver returns an empty driver using DefaultCompile and DefaultLink.
func NewDriver() *Driver {
	return &Driver{objects: make(map[uint32]*object)}
}

var _ gpu.Driver = (*Driver)(nil)

// Info identifies the fake context.
func (d *Driver) Info() gpu.Info {
	return gpu.Info{Version: "gputest", Renderer: "in-memory", GLSLVersion: "3.30"}
}

// Live returns the number of alive objects of the given kind.
func (d *Driver) Live(kind Kind) int {
	n := 0
	for _, o := range d.objects {
		if o.kind == kind && o.alive {
			n++
		}
	}
	return n
}

// LiveTotal returns the number of alive objects of any kind.
func (d *Driver) LiveTotal() int {
	n := 0
	for _, o := range d.objects {
		if o.alive {
			n++
		}
	}
	return n
}

// Alive reports whether handle names a live object.
func (d *Driver) Alive(handle uint32) bool {
	o, ok := d.objects[handle]
	return ok && o.alive
}

// KindOf returns the kind of handle, alive or not.
func (d *Driver) KindOf(handle uint32) (Kind, bool) {
	o, ok := d.objects[handle]
	if !ok {
		return 0, false
	}
	return o.kind, true
}

// FloatData returns the contents of a float buffer.
func (d *Driver) FloatData(buffer uint32) []float32 {
	if o, ok := d.objects[buffer]; ok {
		return o.floats
	}
	return nil
}

// IndexData returns the contents of an index buffer.
func (d *Driver) IndexData(buffer uint32) []uint32 {
	if o, ok := d.objects[buffer]; ok {
		return o.uints
	}
	return nil
}

// BufferUsage returns the usage hint the buffer was last filled with.
func (d *Driver) BufferUsage(buffer uint32) gpu.Usage {
	if o, ok := d.objects[buffer]; ok {
		return o.usage
	}
	return gpu.StaticDraw
}

// Attribs returns a copy of a vertex array's attribute table.
func (d *Driver) Attribs(vao uint32) map[uint32]Attrib {
	out := make(map[uint32]Attrib)
	if o, ok := d.objects[vao]; ok {
		for k, v := range o.attribs {
			out[k] = v
		}
	}
	return out
}

// Enabled reports whether attribute index is enabled on a vertex array.
func (d *Driver) Enabled(vao, index uint32) bool {
	o, ok := d.objects[vao]
	return ok && o.enabled[index]
}

// ElementBuffer returns the element buffer recorded in a vertex array.
func (d *Driver) ElementBuffer(vao uint32) uint32 {
	if o, ok := d.objects[vao]; ok {
		return o.elementBuffer
	}
	return 0
}

// Attached reports whether shader is currently attached to program.
func (d *Driver) Attached(program, shader uint32) bool {
	o, ok := d.objects[program]
	return ok && o.attached[shader]
}

// BoundVertexArray returns the currently bound vertex array.
func (d *Driver) BoundVertexArray() uint32 { return d.vertexArray }

// CurrentProgram returns the program last passed to UseProgram.
func (d *Driver) CurrentProgram() uint32 { return d.program }

// HasViolation reports whether any recorded violation matches target.
func (d *Driver) HasViolation(target error) bool {
	for _, v := range d.Violations {
		if errors.Is(v, target) {
			return true
		}
	}
	return false
}

// ResetLog clears recorded calls, draws and violations but keeps objects.
func (d *Driver) ResetLog() {
	d.Calls = nil
	d.Draws = nil
	d.Violations = nil
}

func (d *Driver) record(format string, args ...any) {
	d.Calls = append(d.Calls, fmt.Sprintf(format, args...))
}

func (d *Driver) violate(err error, format string, args ...any) {
	d.Violations = append(d.Violations, fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...)))
}

func (d *Driver) create(kind Kind) (uint32, *object) {
	if d.objects == nil {
		d.objects = make(map[uint32]*object)
	}
	d.next++
	o := &object{kind: kind, alive: true}
	d.objects[d.next] = o
	return d.next, o
}

func (d *Driver) lookup(handle uint32, kind Kind, call string) *object {
	o, ok := d.objects[handle]
	if !ok || !o.alive || o.kind != kind {
		d.violate(ErrDeadHandle, "%s(%d): not a live %s", call, handle, kind)
		return nil
	}
	return o
}

func (d *Driver) release(handle uint32, kind Kind, call string) {
	d.record("%s(%d)", call, handle)
	if handle == 0 {
		return
	}
	o, ok := d.objects[handle]
	if !ok || !o.alive || o.kind != kind {
		d.violate(ErrDoubleRelease, "%s(%d)", call, handle)
		return
	}
	o.alive = false
}

func (d *Driver) CreateShader(stage gpu.Stage) uint32 {
	h, o := d.create(KindShader)
	o.stage = stage
	d.record("CreateShader(%s)=%d", stage, h)
	return h
}

func (d *Driver) ShaderSource(shader uint32, source string) {
	d.record("ShaderSource(%d)", shader)
	if o := d.lookup(shader, KindShader, "ShaderSource"); o != nil {
		o.source = source
	}
}

func (d *Driver) CompileShader(shader uint32) {
	d.record("CompileShader(%d)", shader)
	o := d.lookup(shader, KindShader, "CompileShader")
	if o == nil {
		return
	}
	compile := d.Compile
	if compile == nil {
		compile = DefaultCompile
	}
	o.compiled, o.log = compile(o.stage, o.source)
}

func (d *Driver) ShaderCompiled(shader uint32) bool {
	o := d.lookup(shader, KindShader, "ShaderCompiled")
	return o != nil && o.compiled
}

func (d *Driver) ShaderInfoLog(shader uint32, maxLen int) string {
	o := d.lookup(shader, KindShader, "ShaderInfoLog")
	if o == nil {
		return ""
	}
	return truncate(o.log, maxLen)
}

func (d *Driver) DeleteShader(shader uint32) {
	d.release(shader, KindShader, "DeleteShader")
}

func (d *Driver) CreateProgram() uint32 {
	h, o := d.create(KindProgram)
	o.attached = make(map[uint32]bool)
	d.record("CreateProgram()=%d", h)
	return h
}

func (d *Driver) AttachShader(program, shader uint32) {
	d.record("AttachShader(%d,%d)", program, shader)
	p := d.lookup(program, KindProgram, "AttachShader")
	s := d.lookup(shader, KindShader, "AttachShader")
	if p != nil && s != nil {
		p.attached[shader] = true
	}
}

func (d *Driver) DetachShader(program, shader uint32) {
	d.record("DetachShader(%d,%d)", program, shader)
	if p := d.lookup(program, KindProgram, "DetachShader"); p != nil {
		delete(p.attached, shader)
	}
}

func (d *Driver) LinkProgram(program uint32) {
	d.record("LinkProgram(%d)", program)
	p := d.lookup(program, KindProgram, "LinkProgram")
	if p == nil {
		return
	}
	var vert, frag *object
	for h := range p.attached {
		s := d.objects[h]
		if s == nil || !s.alive {
			continue
		}
		switch s.stage {
		case gpu.VertexStage:
			vert = s
		case gpu.FragmentStage:
			frag = s
		}
	}
	p.linked, p.log = linkStages(vert, frag, d.Link)
}

func linkStages(vert, frag *object, link LinkFunc) (bool, string) {
	switch {
	case vert == nil:
		return false, "error: program has no vertex shader attached"
	case frag == nil:
		return false, "error: program has no fragment shader attached"
	case !vert.compiled:
		return false, "error: linking with uncompiled vertex shader"
	case !frag.compiled:
		return false, "error: linking with uncompiled fragment shader"
	}
	if link == nil {
		link = DefaultLink
	}
	return link(vert.source, frag.source)
}

func (d *Driver) ProgramLinked(program uint32) bool {
	o := d.lookup(program, KindProgram, "ProgramLinked")
	return o != nil && o.linked
}

func (d *Driver) ProgramInfoLog(program uint32, maxLen int) string {
	o := d.lookup(program, KindProgram, "ProgramInfoLog")
	if o == nil {
		return ""
	}
	return truncate(o.log, maxLen)
}

func (d *Driver) UseProgram(program uint32) {
	d.record("UseProgram(%d)", program)
	if program != 0 {
		d.lookup(program, KindProgram, "UseProgram")
	}
	d.program = program
}

func (d *Driver) DeleteProgram(program uint32) {
	d.release(program, KindProgram, "DeleteProgram")
}

func (d *Driver) GenVertexArray() uint32 {
	h, o := d.create(KindVertexArray)
	o.attribs = make(map[uint32]Attrib)
	o.enabled = make(map[uint32]bool)
	d.record("GenVertexArray()=%d", h)
	return h
}

func (d *Driver) BindVertexArray(vao uint32) {
	d.record("BindVertexArray(%d)", vao)
	if vao != 0 && d.lookup(vao, KindVertexArray, "BindVertexArray") == nil {
		return
	}
	d.vertexArray = vao
}

func (d *Driver) DeleteVertexArray(vao uint32) {
	d.release(vao, KindVertexArray, "DeleteVertexArray")
	if d.vertexArray == vao {
		d.vertexArray = 0
	}
}

func (d *Driver) GenBuffer() uint32 {
	h, _ := d.create(KindBuffer)
	d.record("GenBuffer()=%d", h)
	return h
}

func (d *Driver) BindBuffer(target gpu.BufferTarget, buffer uint32) {
	d.record("BindBuffer(%d,%d)", target, buffer)
	if buffer != 0 && d.lookup(buffer, KindBuffer, "BindBuffer") == nil {
		return
	}
	if target == gpu.ArrayBuffer {
		d.arrayBuffer = buffer
		return
	}
	if vao := d.boundVAO(); vao != nil {
		vao.elementBuffer = buffer
		return
	}
	d.looseEBO = buffer
}

func (d *Driver) boundVAO() *object {
	if d.vertexArray == 0 {
		return nil
	}
	o, ok := d.objects[d.vertexArray]
	if !ok || !o.alive {
		return nil
	}
	return o
}

func (d *Driver) boundBuffer(target gpu.BufferTarget, call string) *object {
	var h uint32
	switch {
	case target == gpu.ArrayBuffer:
		h = d.arrayBuffer
	case d.boundVAO() != nil:
		h = d.boundVAO().elementBuffer
	default:
		h = d.looseEBO
	}
	return d.lookup(h, KindBuffer, call)
}

func (d *Driver) BufferFloat32(target gpu.BufferTarget, data []float32, usage gpu.Usage) {
	d.record("BufferFloat32(%d,%d)", target, len(data))
	if o := d.boundBuffer(target, "BufferFloat32"); o != nil {
		o.floats = append([]float32(nil), data...)
		o.uints = nil
		o.size = len(data) * 4
		o.usage = usage
	}
}

func (d *Driver) BufferUint32(target gpu.BufferTarget, data []uint32, usage gpu.Usage) {
	d.record("BufferUint32(%d,%d)", target, len(data))
	if o := d.boundBuffer(target, "BufferUint32"); o != nil {
		o.uints = append([]uint32(nil), data...)
		o.floats = nil
		o.size = len(data) * 4
		o.usage = usage
	}
}

func (d *Driver) DeleteBuffer(buffer uint32) {
	d.release(buffer, KindBuffer, "DeleteBuffer")
	if d.arrayBuffer == buffer {
		d.arrayBuffer = 0
	}
}

func (d *Driver) VertexAttribPointer(index uint32, components int32, typ gpu.ComponentType, normalized bool, stride int32, offset int) {
	d.record("VertexAttribPointer(%d,%d,%s,%d,%d)", index, components, typ, stride, offset)
	vao := d.boundVAO()
	if vao == nil {
		d.violate(ErrNoVertexArray, "VertexAttribPointer(%d)", index)
		return
	}
	if d.arrayBuffer == 0 {
		d.violate(ErrDeadHandle, "VertexAttribPointer(%d): no array buffer bound", index)
		return
	}
	vao.attribs[index] = Attrib{
		Components: components,
		Type:       typ,
		Normalized: normalized,
		Stride:     stride,
		Offset:     offset,
		Buffer:     d.arrayBuffer,
	}
}

func (d *Driver) EnableVertexAttribArray(index uint32) {
	d.record("EnableVertexAttribArray(%d)", index)
	vao := d.boundVAO()
	if vao == nil {
		d.violate(ErrNoVertexArray, "EnableVertexAttribArray(%d)", index)
		return
	}
	vao.enabled[index] = true
}

// vertexCount is the number of whole vertices every enabled attribute can fetch.
func (d *Driver) vertexCount(vao *object) int {
	count := -1
	for index, on := range vao.enabled {
		if !on {
			continue
		}
		a, ok := vao.attribs[index]
		if !ok {
			continue
		}
		buf, ok := d.objects[a.Buffer]
		if !ok || !buf.alive {
			return 0
		}
		elem := int(a.Components) * a.Type.Size()
		stride := int(a.Stride)
		if stride == 0 {
			stride = elem
		}
		n := 0
		if stride > 0 && buf.size >= a.Offset+elem {
			n = (buf.size-a.Offset-elem)/stride + 1
		}
		if count < 0 || n < count {
			count = n
		}
	}
	if count < 0 {
		return 0
	}
	return count
}

func (d *Driver) checkDrawState(call string) (*object, bool) {
	ok := true
	p, exists := d.objects[d.program]
	if d.program == 0 || !exists || !p.alive || p.kind != KindProgram || !p.linked {
		d.violate(ErrNoProgram, "%s with program %d", call, d.program)
		ok = false
	}
	vao := d.boundVAO()
	if vao == nil {
		d.violate(ErrNoVertexArray, "%s", call)
		return nil, false
	}
	return vao, ok
}

func (d *Driver) DrawElements(mode gpu.Topology, count int32, offset int) {
	d.record("DrawElements(%s,%d,%d)", mode, count, offset)
	vao, _ := d.checkDrawState("DrawElements")
	d.Draws = append(d.Draws, DrawCall{
		Program:     d.program,
		VertexArray: d.vertexArray,
		Topology:    mode,
		First:       int32(offset / 4),
		Count:       count,
		Indexed:     true,
	})
	if vao == nil {
		return
	}
	ebo, ok := d.objects[vao.elementBuffer]
	if vao.elementBuffer == 0 || !ok || !ebo.alive {
		d.violate(ErrNoElementBuffer, "DrawElements on vertex array %d", d.vertexArray)
		return
	}
	first := offset / 4
	if first+int(count) > len(ebo.uints) {
		d.violate(ErrIndexOutOfRange, "DrawElements reads %d indices from %d, buffer holds %d", count, first, len(ebo.uints))
		return
	}
	vertices := d.vertexCount(vao)
	for i, idx := range ebo.uints[first : first+int(count)] {
		if int(idx) >= vertices {
			d.violate(ErrIndexOutOfRange, "index[%d]=%d, vertex count %d", first+i, idx, vertices)
		}
	}
}

func (d *Driver) DrawArrays(mode gpu.Topology, first, count int32) {
	d.record("DrawArrays(%s,%d,%d)", mode, first, count)
	vao, _ := d.checkDrawState("DrawArrays")
	d.Draws = append(d.Draws, DrawCall{
		Program:     d.program,
		VertexArray: d.vertexArray,
		Topology:    mode,
		First:       first,
		Count:       count,
	})
	if vao == nil {
		return
	}
	if vertices := d.vertexCount(vao); int(first)+int(count) > vertices {
		d.violate(ErrIndexOutOfRange, "DrawArrays [%d,%d), vertex count %d", first, first+count, vertices)
	}
}

func (d *Driver) Viewport(x, y, width, height int32) {
	d.record("Viewport(%d,%d,%d,%d)", x, y, width, height)
	d.ViewportRect = [4]int32{x, y, width, height}
}

func (d *Driver) ClearColor(r, g, b, a float32) {
	d.record("ClearColor(%g,%g,%g,%g)", r, g, b, a)
	d.ClearRGBA = [4]float32{r, g, b, a}
}

func (d *Driver) ClearColorBuffer() {
	d.record("ClearColorBuffer()")
	d.Clears++
}

func truncate(log string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(log) > maxLen-1 {
		return log[:maxLen-1]
	}
	return log
}

// DefaultCompile accepts sources that start with a #version directive,
// define main and have balanced braces and parentheses.
func DefaultCompile(stage gpu.Stage, source string) (bool, string) {
	trimmed := strings.TrimSpace(source)
	if !strings.HasPrefix(trimmed, "#version") {
		return false, "0:1(1): error: #version directive must be the first statement"
	}
	var stack []rune
	line, col := 1, 0
	for _, r := range source {
		col++
		switch r {
		case '\n':
			line++
			col = 0
		case '{', '(':
			stack = append(stack, r)
		case '}', ')':
			open := '{'
			if r == ')' {
				open = '('
			}
			if len(stack) == 0 || stack[len(stack)-1] != open {
				return false, fmt.Sprintf("0:%d(%d): error: syntax error, unexpected '%c'", line, col, r)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return false, fmt.Sprintf("0:%d(%d): error: syntax error, unexpected end of file", line, col)
	}
	if !strings.Contains(source, "void main") {
		return false, fmt.Sprintf("error: %s shader does not define main()", stage)
	}
	return true, ""
}

// DefaultLink links every pair of compiled stages.
func DefaultLink(vertexSource, fragmentSource string) (bool, string) {
	return true, ""
}
