// mips.go - R3000 register file and delayed-write discipline

/*
mips.go - R3000 register file

The architectural register file is 35 words: R0..R31, PC, HI, LO, laid out
as a flat array exactly as the reference implementation's authoritative
console/r3000.rs does it (superseding that codebase's older, richer
General-register enum). R0 is wired to always read zero and silently
discard writes.

Delayed-write discipline. MIPS load instructions do not make their result
visible to the following instruction; the value is only guaranteed
committed after the instruction after the load. This emulator models that
with a FIFO of pending (name, value) pairs: a load enqueues instead of
writing immediately, and after every explicitly-executed instruction the
oldest pending write is flushed - except when that instruction's own
target is the same register, in which case the pending write is the "same
register in the load-delay slot" case and is dropped instead of committed.
*/

package main

const (
	pcIdx = 32
	hiIdx = 33
	loIdx = 34
)

// initialPC is where the BIOS begins execution.
const initialPC = 0xbfc0_0000

// delayedWrite is one pending register commit.
type delayedWrite struct {
	name  regName
	value uint32
}

// registerFile holds R0..R31, PC, HI, LO and the delayed-write FIFO.
type registerFile struct {
	regs [35]uint32

	delayed          []delayedWrite
	modifiedRegister regName
	hasModified      bool
}

func newRegisterFile() *registerFile {
	rf := &registerFile{}
	rf.regs[pcIdx] = initialPC
	return rf
}

func (rf *registerFile) read(i uint32) uint32 {
	if i == 0 {
		return 0
	}
	return rf.regs[i]
}

func (rf *registerFile) write(i uint32, v uint32) {
	if i == 0 {
		return
	}
	rf.regs[i] = v
}

func (rf *registerFile) pc() uint32     { return rf.regs[pcIdx] }
func (rf *registerFile) setPC(v uint32) { rf.regs[pcIdx] = v }
func (rf *registerFile) hi() uint32     { return rf.regs[hiIdx] }
func (rf *registerFile) setHI(v uint32) { rf.regs[hiIdx] = v }
func (rf *registerFile) lo() uint32     { return rf.regs[loIdx] }
func (rf *registerFile) setLO(v uint32) { rf.regs[loIdx] = v }

// readName reads by regName (a GPR index or regHI/regLO).
func (rf *registerFile) readName(name regName) uint32 {
	switch name {
	case regHI:
		return rf.hi()
	case regLO:
		return rf.lo()
	default:
		return rf.read(uint32(name))
	}
}

// writeName writes by regName, respecting R0's constant-zero rule.
func (rf *registerFile) writeName(name regName, v uint32) {
	switch name {
	case regHI:
		rf.setHI(v)
	case regLO:
		rf.setLO(v)
	default:
		rf.write(uint32(name), v)
	}
}

// enqueueDelayed pushes a pending write produced by a load or a
// coprocessor move.
func (rf *registerFile) enqueueDelayed(name regName, v uint32) {
	rf.delayed = append(rf.delayed, delayedWrite{name: name, value: v})
}

// noteExplicitWrite records which register the just-dispatched
// instruction wrote explicitly (if any), for the next flushDelayed call.
func (rf *registerFile) noteExplicitWrite(name regName, wrote bool) {
	rf.modifiedRegister = name
	rf.hasModified = wrote
}

// flushDelayed commits the oldest pending write unless its target equals
// the register the just-dispatched instruction wrote explicitly, in which
// case it is dropped - the MIPS load-delay-slot rule.
func (rf *registerFile) flushDelayed() {
	if len(rf.delayed) == 0 {
		return
	}
	head := rf.delayed[0]
	rf.delayed = rf.delayed[1:]
	if rf.hasModified && head.name == rf.modifiedRegister {
		return
	}
	rf.writeName(head.name, head.value)
}

// Division-by-zero and overflow boundary cases (§8 boundary behaviours).

func divUnsigned(dividend, divisor uint32) (quotient, remainder uint32) {
	if divisor == 0 {
		return 0xffffffff, dividend
	}
	return dividend / divisor, dividend % divisor
}

func divSigned(dividend, divisor int32) (quotient, remainder int32) {
	if divisor == 0 {
		if dividend < 0 {
			return 1, dividend
		}
		return -1, dividend
	}
	if dividend == int32(-0x80000000) && divisor == -1 {
		return int32(-0x80000000), 0
	}
	return dividend / divisor, dividend % divisor
}
