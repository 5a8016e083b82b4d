// gte.go - Coprocessor 2 (GTE, geometry transformation engine)

/*
gte.go - GTE register file, stub level

The GTE does the PSX's 3D vertex and lighting math; this spec is
explicit that it only needs to exist at register-file-and-dispatch-stub
level (§1, §2's 3% budget), since nothing in the testable properties
(§8) exercises an actual transform. Sixty-four registers - thirty-two
data, thirty-two control - are modeled as plain storage, and
executeCommand is a no-op, matching the reference implementation's own
stub exactly.
*/

package main

type gte struct {
	data [32]uint32
	ctrl [32]uint32
}

func (g *gte) readData(i uint32) uint32 { return g.data[i&31] }
func (g *gte) writeData(i uint32, v uint32) {
	g.data[i&31] = v
}

func (g *gte) readCtrl(i uint32) uint32 { return g.ctrl[i&31] }
func (g *gte) writeCtrl(i uint32, v uint32) {
	g.ctrl[i&31] = v
}

// executeCommand dispatches a GTE command (the imm25 field of a COP2
// instruction). No GTE operation is implemented; this always reports
// "not handled" so callers can treat it as a documented no-op rather
// than silently doing nothing.
func (g *gte) executeCommand(imm25 uint32) bool {
	return false
}
