package main

import "testing"

func TestCDROMTestVersionCommand(t *testing.T) {
	c := newCDROM(false)

	c.writeParam(0x20)
	c.writeCommand(0x19)

	want := []byte{0x94, 0x09, 0x19, 0xc0}
	for _, w := range want {
		got := c.readResponse()
		if got != uint32(w) {
			t.Fatalf("readResponse() = %#02x, want %#02x", got, w)
		}
	}
	if got := c.readResponse(); got != 0 {
		t.Fatalf("readResponse() past the end = %#02x, want 0", got)
	}
}

func TestCDROMUnimplementedCommandLogsAndClearsResponse(t *testing.T) {
	c := newCDROM(false)

	c.writeParam(0x01)
	c.writeCommand(0x02) // not 0x19/0x20: no modeled response

	if got := c.readResponse(); got != 0 {
		t.Fatalf("readResponse() for an unmodeled command = %#02x, want 0", got)
	}
}

func TestCDROMParamsClearedAfterCommand(t *testing.T) {
	c := newCDROM(false)

	c.writeParam(0x20)
	c.writeCommand(0x19)
	if len(c.params) != 0 {
		t.Fatalf("params should be cleared once a command executes, got %v", c.params)
	}

	// A follow-up 0x19 with no params must not replay the stale response.
	c.writeCommand(0x19)
	if got := c.readResponse(); got != 0 {
		t.Fatalf("readResponse() without a 0x20 sub-function = %#02x, want 0", got)
	}
}
