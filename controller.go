// controller.go - digital controller input state

/*
controller.go - Digital pad

The reference implementation's console/mod.rs::handle_events polls the
host keyboard directly: S/D/A/W for the four face buttons, K/L/J/I for
the d-pad. This emulator keeps that same key mapping but separates
"what the buttons currently are" (this file) from "how ebiten's input
package is polled" (display.go), so the controller state can be driven
either by a real keyboard or by the Lua scripting harness without
display.go knowing the difference.

Button state packs into the 16-bit JOYPAD format the original hardware
uses: a bit is 0 when the button is held down, 1 when released, matching
the real SCPH-1080 protocol's active-low wiring.
*/

package main

type button int

const (
	buttonUp button = iota
	buttonDown
	buttonLeft
	buttonRight
	buttonCross
	buttonCircle
	buttonSquare
	buttonTriangle
)

var buttonBit = map[button]uint16{
	buttonSquare:   1 << 15,
	buttonCross:    1 << 14,
	buttonCircle:   1 << 13,
	buttonTriangle: 1 << 12,
	buttonRight:    1 << 5,
	buttonLeft:     1 << 7,
	buttonUp:       1 << 4,
	buttonDown:     1 << 6,
}

// controller tracks which buttons are currently held.
type controller struct {
	held map[button]bool
}

func newController() *controller {
	return &controller{held: make(map[button]bool)}
}

func (c *controller) Press(b button)   { c.held[b] = true }
func (c *controller) Release(b button) { c.held[b] = false }

// state returns the 16-bit JOYPAD register value: active-low, all
// unimplemented bits (select/start/L1/R1/L2/R2) report released (1).
func (c *controller) state() uint16 {
	v := uint16(0xffff)
	for b, held := range c.held {
		if held {
			v &^= buttonBit[b]
		}
	}
	return v
}
