// gpu.go - GPU command assembly, GP0 dispatch, GP1 control, VRAM

/*
gpu.go - GPU command pipeline

GP0 words accumulate into a Command (an ordered list of words) until the
command's completeness predicate is satisfied, at which point it is
dispatched: state-register commands mutate GPU fields, the draw commands
emit a Drawable to the display sink, VRAM upload/copy commands move
pixels directly. GP1 commands are always a single word and mutate
GPUSTAT/display configuration directly. Grounded on the reference
implementation's console/gpu/{command,gp0}.rs; the completeness table
below is copied from §4.7 of the specification verbatim.
*/

package main

const (
	vramWidth  = 2048 // bytes per line
	vramHeight = 512
)

// drawableKind tags the three primitive shapes the display sink accepts.
type drawableKind int

const (
	drawLine drawableKind = iota
	drawRectangle
	drawPolygon
)

// vertex is one drawable corner: signed 16-bit position, packed colour.
type vertex struct {
	x, y  int16
	color uint32
}

// Drawable is a completed GPU primitive ready for the display sink.
type Drawable struct {
	Kind     drawableKind
	Vertices []vertex
}

type gpuStatus struct {
	raw uint32
}

func newGPUStatus() gpuStatus {
	return gpuStatus{raw: 0x1c00_0000}
}

// value clears bits 19/14/31 and force-sets 26/27/28, matching the
// reference implementation's own "dirty hack" comment - GPUSTAT always
// reports the GPU ready for DMA and command input regardless of actual
// internal state, since this emulator does not model GPU busy cycles.
func (s gpuStatus) value() uint32 {
	v := clearBits(s.raw, 19, 20)
	v = clearBits(v, 14, 15)
	v = clearBits(v, 31, 32)
	v = setMask(v, (1<<26)|(1<<27)|(1<<28))
	return v
}

// GPU owns VRAM, GPUSTAT/GPUREAD, and GP0 command assembly state.
type GPU struct {
	status gpuStatus
	read   []uint32

	vram [vramWidth * vramHeight]byte

	partial *[]uint32

	drawingMinX, drawingMinY       int32
	drawingMaxX, drawingMaxY       int32
	drawingOffsetX, drawingOffsetY int32
	textureMaskX, textureMaskY     uint32
	textureOffsetX, textureOffsetY uint32
	displayX, displayY             uint32
	displayRangeX1, displayRangeX2 uint32
	displayRangeY1, displayRangeY2 uint32

	logging bool

	pending []Drawable
}

func newGPU(logging bool) *GPU {
	return &GPU{status: newGPUStatus(), logging: logging}
}

func (g *GPU) gpustat() uint32 { return g.status.value() }

func (g *GPU) gpuread() uint32 {
	if len(g.read) == 0 {
		return 0
	}
	v := g.read[0]
	g.read = g.read[1:]
	return v
}

// writeGP0 appends word to the in-progress command, starting a new one if
// none is partial, and dispatches it once complete.
func (g *GPU) writeGP0(word uint32) {
	var cmd []uint32
	if g.partial != nil {
		cmd = *g.partial
	}
	cmd = append(cmd, word)

	if gp0Completed(cmd) {
		g.partial = nil
		g.execGP0(cmd)
		return
	}
	g.partial = &cmd
}

// writeGP1 handles the single-word control port (§4.8).
func (g *GPU) writeGP1(word uint32) {
	id := word >> 24
	switch id {
	case 0x00:
		g.resetGPU()
	case 0x01:
		g.partial = nil
	case 0x03:
		if testBit(word, 0) {
			g.status.raw = setMask(g.status.raw, 1<<23)
		} else {
			g.status.raw = clearBits(g.status.raw, 23, 24)
		}
	case 0x04:
		dmaDir := bitRange(word, 0, 2)
		g.status.raw = clearBits(g.status.raw, 29, 31)
		g.status.raw = setMask(g.status.raw, dmaDir<<29)
	case 0x05:
		g.displayX = bitRange(word, 0, 10)
		g.displayY = bitRange(word, 10, 19)
	case 0x06:
		g.displayRangeX1 = bitRange(word, 0, 12)
		g.displayRangeX2 = bitRange(word, 12, 24)
	case 0x07:
		g.displayRangeY1 = bitRange(word, 0, 10)
		g.displayRangeY2 = bitRange(word, 10, 20)
	case 0x08:
		g.status.raw = clearBits(g.status.raw, 17, 23)
		g.status.raw = setMask(g.status.raw, bitRange(word, 0, 6)<<17)
	}
}

func (g *GPU) resetGPU() {
	g.status = newGPUStatus()
	g.partial = nil
	g.read = nil
}

// gp0Completed implements the completeness table of §4.7.
func gp0Completed(cmd []uint32) bool {
	id := cmd[0] >> 24
	n := uint32(len(cmd))

	switch {
	case id == 0x00 || id == 0x01 || (id >= 0x04 && id <= 0x1e) || id == 0x1f || id == 0xe0 || (id >= 0xe1 && id <= 0xe6) || (id >= 0xe7 && id <= 0xef):
		return true

	case id == 0x48 || id == 0x4a || id == 0x58 || id == 0x5a:
		return n >= 4 && cmd[n-1] == 0x55555555

	case id >= 0xa0 && id <= 0xbf:
		if n < 3 {
			return false
		}
		xsize := cmd[2] & 0xffff
		ysize := cmd[2] >> 16
		need := ceilDiv2(xsize * ysize)
		return n >= 3+need

	case id >= 0xc0 && id <= 0xdf:
		return n >= 3

	default:
		if cutoff, ok := fixedLengthTable[id]; ok {
			return n >= cutoff
		}
		return true
	}
}

// fixedLengthTable is §4.7's "completed at N words" table.
var fixedLengthTable = buildFixedLengthTable()

func buildFixedLengthTable() map[uint32]uint32 {
	t := make(map[uint32]uint32)
	set := func(n uint32, ids ...uint32) {
		for _, id := range ids {
			t[id] = n
		}
	}
	set(2, 0x68, 0x6a, 0x70, 0x72, 0x78, 0x7a)
	set(3, 0x6c, 0x6d, 0x6e, 0x6f, 0x74, 0x75, 0x76, 0x77, 0x7c, 0x7d, 0x7e, 0x7f, 0x60, 0x62, 0x40, 0x42, 0x02)
	set(4, 0x20, 0x22, 0x64, 0x65, 0x66, 0x67, 0x80, 0x81, 0x82, 0x83, 0x84, 0x85, 0x86, 0x87,
		0x88, 0x89, 0x8a, 0x8b, 0x8c, 0x8d, 0x8e, 0x8f, 0x90, 0x91, 0x92, 0x93, 0x94, 0x95, 0x96, 0x97,
		0x98, 0x99, 0x9a, 0x9b, 0x9c, 0x9d, 0x9e, 0x9f, 0x50, 0x52)
	set(5, 0x28, 0x2a)
	set(6, 0x30, 0x32)
	set(7, 0x24, 0x25, 0x26, 0x27)
	set(8, 0x38, 0x3a)
	set(9, 0x2c, 0x2d, 0x2e, 0x2f, 0x34, 0x36)
	set(12, 0x3c, 0x3e)
	return t
}

// execGP0 dispatches a completed command.
func (g *GPU) execGP0(cmd []uint32) {
	id := cmd[0] >> 24
	switch {
	case id == 0x00 || id == 0x01 || (id >= 0x04 && id <= 0x1e) || id == 0x1f || id == 0xe0 || (id >= 0xe7 && id <= 0xef):
		// No-op commands.
	case id >= 0xe1 && id <= 0xe6:
		g.execStateCommand(id, cmd[0])
	case id >= 0xa0 && id <= 0xbf:
		g.execVRAMUpload(cmd)
	case id >= 0xc0 && id <= 0xdf:
		g.execVRAMCopy(cmd)
	case id == 0x28, id == 0x2a, id == 0x2c, id == 0x2d, id == 0x2e, id == 0x2f,
		id == 0x30, id == 0x32, id == 0x34, id == 0x36, id == 0x38, id == 0x3a,
		id == 0x3c, id == 0x3e, id == 0x20, id == 0x22, id == 0x24, id == 0x25,
		id == 0x26, id == 0x27:
		g.execPolygon(cmd)
	case id >= 0x40 && id <= 0x5a:
		g.execLine(cmd)
	case id >= 0x60 && id <= 0x7f:
		g.execRectangle(cmd)
	default:
		fatalf("unimplemented GP0 command %#02x", id)
	}
}

// execStateCommand mutates GPU state registers for 0xe1..0xe6, with
// bit-exact field extraction per the reference implementation.
func (g *GPU) execStateCommand(id uint32, word uint32) {
	switch id {
	case 0xe1:
		g.status.raw = clearBits(g.status.raw, 0, 11)
		g.status.raw = setMask(g.status.raw, bitRange(word, 0, 11))
		if testBit(word, 11) {
			g.status.raw = setMask(g.status.raw, 1<<15)
		} else {
			g.status.raw = clearBits(g.status.raw, 15, 16)
		}
		g.textureOffsetX = 0
	case 0xe2:
		g.textureMaskX = bitRange(word, 0, 5)
		g.textureMaskY = bitRange(word, 5, 10)
		g.textureOffsetX = bitRange(word, 10, 15)
		g.textureOffsetY = bitRange(word, 15, 20)
	case 0xe3:
		g.drawingMinX = int32(bitRange(word, 0, 10))
		g.drawingMinY = int32(bitRange(word, 10, 20))
	case 0xe4:
		g.drawingMaxX = int32(bitRange(word, 0, 10))
		g.drawingMaxY = int32(bitRange(word, 10, 20))
	case 0xe5:
		g.drawingOffsetX = signExtend11(bitRange(word, 0, 11))
		g.drawingOffsetY = signExtend11(bitRange(word, 11, 22))
	case 0xe6:
		g.status.raw = clearBits(g.status.raw, 11, 13)
		g.status.raw = setMask(g.status.raw, bitRange(word, 0, 2)<<11)
	}
}

func signExtend11(v uint32) int32 {
	if testBit(v, 10) {
		return int32(v | 0xfffff800)
	}
	return int32(v)
}

// execVRAMUpload writes a rectangular region into VRAM, row-major, with
// wrap-around at 2048x512 bytes, per §4.7.
func (g *GPU) execVRAMUpload(cmd []uint32) {
	x := cmd[1] & 0xffff
	y := cmd[1] >> 16
	xsize := cmd[2] & 0xffff
	ysize := cmd[2] >> 16

	data := cmd[3:]
	halfwordIndex := 0
	for row := uint32(0); row < ysize; row++ {
		for col := uint32(0); col < xsize; col++ {
			wordIdx := halfwordIndex / 2
			if wordIdx >= len(data) {
				return
			}
			var half uint16
			if halfwordIndex%2 == 0 {
				half = uint16(data[wordIdx])
			} else {
				half = uint16(data[wordIdx] >> 16)
			}
			px := (x + col) % (vramWidth / 2)
			py := (y + row) % vramHeight
			offset := py*vramWidth + px*2
			g.vram[offset] = byte(half)
			g.vram[offset+1] = byte(half >> 8)
			halfwordIndex++
		}
	}
}

// execVRAMCopy pushes the addressed VRAM rectangle's halfwords into
// GPUREAD for a later 0xc0 family host read.
func (g *GPU) execVRAMCopy(cmd []uint32) {
	x := cmd[1] & 0xffff
	y := cmd[1] >> 16
	xsize := cmd[2] & 0xffff
	ysize := cmd[2] >> 16

	for row := uint32(0); row < ysize; row++ {
		for col := uint32(0); col < xsize; col += 2 {
			px := (x + col) % (vramWidth / 2)
			py := (y + row) % vramHeight
			offset := py*vramWidth + px*2
			lo := uint32(g.vram[offset]) | uint32(g.vram[offset+1])<<8
			var hi uint32
			if col+1 < xsize {
				offset2 := py*vramWidth + ((px+1)%(vramWidth/2))*2
				hi = uint32(g.vram[offset2]) | uint32(g.vram[offset2+1])<<8
			}
			g.read = append(g.read, lo|hi<<16)
		}
	}
}

// withinBounds reports whether every vertex of a primitive lies within
// the 1023x511 drawable area, per §4.7.
func withinBounds(verts []vertex) bool {
	for _, v := range verts {
		if v.x < 0 || v.x > 1023 || v.y < 0 || v.y > 511 {
			return false
		}
	}
	return true
}

func (g *GPU) emit(kind drawableKind, verts []vertex) {
	if !withinBounds(verts) {
		return
	}
	d := Drawable{Kind: kind, Vertices: verts}
	g.pending = append(g.pending, d)
	g.rasterize(d)
}

// execPolygon extracts vertex/colour pairs for a flat or shaded,
// textured or untextured triangle/quad and emits a Drawable.
func (g *GPU) execPolygon(cmd []uint32) {
	id := cmd[0] >> 24
	shaded := testBit(id, 4)
	quad := testBit(id, 3)
	textured := testBit(id, 2)

	numVerts := 3
	if quad {
		numVerts = 4
	}

	color := cmd[0] & 0xffffff
	verts := make([]vertex, 0, numVerts)
	i := 1
	for v := 0; v < numVerts; v++ {
		if shaded && v > 0 {
			color = cmd[i] & 0xffffff
			i++
		}
		pos := cmd[i]
		i++
		if textured {
			i++ // texture coordinate word, not rendered
		}
		verts = append(verts, vertex{
			x:     int16(int32(int16(pos & 0xffff))),
			y:     int16(int32(int16(pos >> 16))),
			color: color,
		})
	}
	g.emit(drawPolygon, verts)
}

func (g *GPU) execLine(cmd []uint32) {
	id := cmd[0] >> 24
	shaded := testBit(id, 4)
	color := cmd[0] & 0xffffff
	verts := make([]vertex, 0, 2)
	i := 1
	for v := 0; v < 2; v++ {
		if shaded && v > 0 {
			color = cmd[i] & 0xffffff
			i++
		}
		pos := cmd[i]
		i++
		verts = append(verts, vertex{
			x:     int16(int32(int16(pos & 0xffff))),
			y:     int16(int32(int16(pos >> 16))),
			color: color,
		})
	}
	g.emit(drawLine, verts)
}

// execRectangle extracts the corner, optional texture coordinate and
// either a fixed or variable size per the id's size-select bits
// (00=variable, 01=1x1, 10=8x8, 11=16x16), and emits the rectangle as two
// extra vertices carrying its width/height so rasterize can fill it.
func (g *GPU) execRectangle(cmd []uint32) {
	id := cmd[0] >> 24
	textured := testBit(id, 2)
	sizeSelect := bitRange(id, 3, 5)

	color := cmd[0] & 0xffffff
	pos := cmd[1]
	x := int16(int32(int16(pos & 0xffff)))
	y := int16(int32(int16(pos >> 16)))

	idx := 2
	if textured {
		idx++
	}
	var w, h int16
	switch sizeSelect {
	case 1:
		w, h = 1, 1
	case 2:
		w, h = 8, 8
	case 3:
		w, h = 16, 16
	default:
		if idx < len(cmd) {
			sizeWord := cmd[idx]
			w = int16(sizeWord & 0xffff)
			h = int16(sizeWord >> 16)
		}
	}
	g.emit(drawRectangle, []vertex{
		{x: x, y: y, color: color},
		{x: x + w, y: y + h, color: color},
	})
}

// drainOne pops and returns the oldest pending Drawable, if any. Every
// tier calls it after each executed instruction or Stub and discards the
// result: emit has already rasterized the Drawable into VRAM, so this only
// retires its queue slot.
func (g *GPU) drainOne() (Drawable, bool) {
	if len(g.pending) == 0 {
		return Drawable{}, false
	}
	d := g.pending[0]
	g.pending = g.pending[1:]
	return d, true
}

func fatalf(format string, args ...any) {
	die(format, args...)
}

// bgr555 packs a 24-bit 8:8:8 colour (as carried on a Drawable vertex)
// into the 15-bit BGR555 halfword VRAM stores, the inverse of the
// unpacking convertVRAM does on the way to the display.
func bgr555(color uint32) uint16 {
	r := uint16(color&0xff) >> 3
	g := uint16((color>>8)&0xff) >> 3
	b := uint16((color>>16)&0xff) >> 3
	return r | g<<5 | b<<10
}

// setPixel writes one BGR555 pixel into VRAM, silently dropping anything
// outside the 1024x512-pixel field - rasterize's own geometry should
// never produce that, but clipping here is cheaper than clipping every
// shape generator.
func (g *GPU) setPixel(x, y int16, color uint32) {
	if x < 0 || x >= vramWidth/2 || y < 0 || y >= vramHeight {
		return
	}
	half := bgr555(color)
	offset := int(y)*vramWidth + int(x)*2
	g.vram[offset] = byte(half)
	g.vram[offset+1] = byte(half >> 8)
}

// rasterize draws a just-emitted Drawable straight into VRAM, since
// execPolygon/execLine/execRectangle's job is done the moment a primitive
// reaches the display sink's backing store (§4.7); GPUSTAT/DMA never see
// these pixels, only the refresh path that copies VRAM out in display.go.
func (g *GPU) rasterize(d Drawable) {
	switch d.Kind {
	case drawLine:
		if len(d.Vertices) == 2 {
			g.rasterLine(d.Vertices[0], d.Vertices[1])
		}
	case drawRectangle:
		if len(d.Vertices) == 2 {
			g.rasterRectangle(d.Vertices[0], d.Vertices[1])
		}
	case drawPolygon:
		switch len(d.Vertices) {
		case 3:
			g.rasterTriangle(d.Vertices[0], d.Vertices[1], d.Vertices[2])
		case 4:
			g.rasterTriangle(d.Vertices[0], d.Vertices[1], d.Vertices[2])
			g.rasterTriangle(d.Vertices[1], d.Vertices[2], d.Vertices[3])
		}
	}
}

// rasterLine draws a flat-shaded Bresenham line between two vertices.
func (g *GPU) rasterLine(a, b vertex) {
	x0, y0 := int32(a.x), int32(a.y)
	x1, y1 := int32(b.x), int32(b.y)
	dx := abs32(x1 - x0)
	dy := -abs32(y1 - y0)
	sx, sy := int32(1), int32(1)
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		g.setPixel(int16(x0), int16(y0), a.color)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// rasterRectangle fills the axis-aligned box [corner, corner+size) with a
// flat colour.
func (g *GPU) rasterRectangle(corner, opposite vertex) {
	x0, x1 := corner.x, opposite.x
	y0, y1 := corner.y, opposite.y
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			g.setPixel(x, y, corner.color)
		}
	}
}

// rasterTriangle fills a flat or Gouraud-shaded triangle with a
// bounding-box edge-function scan, interpolating each vertex's colour by
// barycentric weight.
func (g *GPU) rasterTriangle(a, b, c vertex) {
	minX := min3(a.x, b.x, c.x)
	maxX := max3(a.x, b.x, c.x)
	minY := min3(a.y, b.y, c.y)
	maxY := max3(a.y, b.y, c.y)

	area := edge(a, b, c)
	if area == 0 {
		return
	}

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := vertex{x: x, y: y}
			w0 := edge(b, c, p)
			w1 := edge(c, a, p)
			w2 := edge(a, b, p)
			if (w0 < 0 || w1 < 0 || w2 < 0) && (w0 > 0 || w1 > 0 || w2 > 0) {
				continue
			}
			g.setPixel(x, y, lerpColor(a.color, b.color, c.color, w0, w1, w2, area))
		}
	}
}

// edge is twice the signed area of triangle (a,b,p); its sign tells
// which side of line a-b the point p falls on.
func edge(a, b, p vertex) int32 {
	return int32(b.x-a.x)*int32(p.y-a.y) - int32(b.y-a.y)*int32(p.x-a.x)
}

// lerpColor blends three vertex colours by barycentric weight, matching
// §4.7's Gouraud-shaded polygon behaviour; flat-shaded primitives simply
// carry the same colour on every vertex, so the blend is a no-op for them.
func lerpColor(ca, cb, cc uint32, w0, w1, w2, area int32) uint32 {
	channel := func(shift uint) uint32 {
		a := int32((ca >> shift) & 0xff)
		b := int32((cb >> shift) & 0xff)
		c := int32((cc >> shift) & 0xff)
		v := (a*w0 + b*w1 + c*w2) / area
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		return uint32(v)
	}
	return channel(0) | channel(8)<<8 | channel(16)<<16
}

func min3(a, b, c int16) int16 {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func max3(a, b, c int16) int16 {
	if b > a {
		a = b
	}
	if c > a {
		a = c
	}
	return a
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
