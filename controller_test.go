package main

import "testing"

func TestControllerStateAllReleased(t *testing.T) {
	c := newController()
	if got := c.state(); got != 0xffff {
		t.Fatalf("state() with nothing held = %#04x, want 0xffff", got)
	}
}

func TestControllerPressClearsBit(t *testing.T) {
	c := newController()
	c.Press(buttonCross)

	got := c.state()
	if got&buttonBit[buttonCross] != 0 {
		t.Fatalf("cross bit should be clear (active-low) when held, got %#04x", got)
	}
	// every other bit stays released
	if got|buttonBit[buttonCross] != 0xffff {
		t.Fatalf("only the cross bit should change, got %#04x", got)
	}
}

func TestControllerReleaseRestoresBit(t *testing.T) {
	c := newController()
	c.Press(buttonUp)
	c.Release(buttonUp)

	if got := c.state(); got != 0xffff {
		t.Fatalf("state() after release = %#04x, want 0xffff", got)
	}
}

func TestControllerMultipleButtonsHeld(t *testing.T) {
	c := newController()
	c.Press(buttonLeft)
	c.Press(buttonSquare)

	got := c.state()
	want := uint16(0xffff) &^ buttonBit[buttonLeft] &^ buttonBit[buttonSquare]
	if got != want {
		t.Fatalf("state() = %#04x, want %#04x", got, want)
	}
}
