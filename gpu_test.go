package main

import "testing"

func TestGP0NoOpCompletesImmediately(t *testing.T) {
	if !gp0Completed([]uint32{0x05000000}) {
		t.Fatalf("a no-op command word should be complete on its own")
	}
}

func TestGP0FixedLengthCommandWaitsForAllWords(t *testing.T) {
	cmd := []uint32{0x20000000} // monochrome triangle, id 0x20, needs 4 words
	for i := 0; i < 3; i++ {
		if gp0Completed(cmd) {
			t.Fatalf("command with %d word(s) reported complete early", len(cmd))
		}
		cmd = append(cmd, 0)
	}
	if !gp0Completed(cmd) {
		t.Fatalf("command with all 4 words should be complete")
	}
}

func TestGP0PolylineTerminatesOnSentinel(t *testing.T) {
	cmd := []uint32{0x48000000, 0, 0}
	if gp0Completed(cmd) {
		t.Fatalf("polyline without a terminator should not be complete")
	}
	cmd = append(cmd, 0x55555555)
	if !gp0Completed(cmd) {
		t.Fatalf("polyline terminated by 0x55555555 should be complete")
	}
}

func TestGP0VRAMUploadWaitsForPixelWords(t *testing.T) {
	// id 0xa0, 2x2 pixels = 4 halfwords = 2 words beyond the 3-word header.
	cmd := []uint32{0xa0000000, 0, (2 << 16) | 2}
	if gp0Completed(cmd) {
		t.Fatalf("upload header alone should not be complete")
	}
	cmd = append(cmd, 0)
	if gp0Completed(cmd) {
		t.Fatalf("upload with only 1 of 2 pixel words should not be complete")
	}
	cmd = append(cmd, 0)
	if !gp0Completed(cmd) {
		t.Fatalf("upload with all pixel words should be complete")
	}
}

func TestGPUExecPolygonEmitsDrawable(t *testing.T) {
	g := newGPU(false)
	// Monochrome triangle (id 0x20): colour word + 3 vertex words.
	g.execGP0([]uint32{
		0x20ff0000,
		packVertex(10, 20),
		packVertex(30, 40),
		packVertex(50, 60),
	})

	d, ok := g.drainOne()
	if !ok {
		t.Fatalf("expected a drawable after a complete polygon command")
	}
	if d.Kind != drawPolygon || len(d.Vertices) != 3 {
		t.Fatalf("drawable = %+v, want a 3-vertex polygon", d)
	}
	if d.Vertices[0].x != 10 || d.Vertices[0].y != 20 {
		t.Fatalf("vertex[0] = %+v, want x=10 y=20", d.Vertices[0])
	}
}

func TestGPUOutOfBoundsPolygonIsDropped(t *testing.T) {
	g := newGPU(false)
	g.execGP0([]uint32{
		0x20ff0000,
		packVertex(10, 20),
		packVertex(2000, 40), // x > 1023
		packVertex(50, 60),
	})

	if _, ok := g.drainOne(); ok {
		t.Fatalf("a polygon with an out-of-bounds vertex should never reach pending")
	}
}

func TestGPUDrainOneIsFIFO(t *testing.T) {
	g := newGPU(false)
	g.emit(drawRectangle, []vertex{{x: 1, y: 1}})
	g.emit(drawRectangle, []vertex{{x: 2, y: 2}})

	first, ok := g.drainOne()
	if !ok || first.Vertices[0].x != 1 {
		t.Fatalf("first drainOne() = %+v, want x=1", first)
	}
	second, ok := g.drainOne()
	if !ok || second.Vertices[0].x != 2 {
		t.Fatalf("second drainOne() = %+v, want x=2", second)
	}
	if _, ok := g.drainOne(); ok {
		t.Fatalf("drainOne() after the queue is empty should report false")
	}
}

func TestGPUExecRectangleFillsVRAM(t *testing.T) {
	g := newGPU(false)
	// 8x8 filled rectangle (id 0x70) at (4,4), colour pure red.
	g.execGP0([]uint32{
		0x700000ff,
		packVertex(4, 4),
	})

	offset := 4*vramWidth + 4*2
	if g.vram[offset] == 0 && g.vram[offset+1] == 0 {
		t.Fatalf("rectangle draw never wrote its pixel into VRAM")
	}
}

func TestGPUExecLineWritesEndpoints(t *testing.T) {
	g := newGPU(false)
	g.execGP0([]uint32{
		0x40ff0000,
		packVertex(10, 10),
		packVertex(10, 10),
	})

	offset := 10*vramWidth + 10*2
	if g.vram[offset] == 0 && g.vram[offset+1] == 0 {
		t.Fatalf("line draw never wrote a pixel into VRAM")
	}
}

func TestGPUSTATAlwaysReportsReady(t *testing.T) {
	g := newGPU(false)
	v := g.gpustat()
	if v&(1<<26) == 0 || v&(1<<27) == 0 || v&(1<<28) == 0 {
		t.Fatalf("gpustat() = %#x, want bits 26/27/28 set (always ready)", v)
	}
}

// packVertex builds a GP0 vertex word from signed 11-bit-ish coordinates.
func packVertex(x, y int16) uint32 {
	return uint32(uint16(x)) | uint32(uint16(y))<<16
}
