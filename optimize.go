// optimize.go - constant folding during block compilation

/*
optimize.go - Optimised stub compilation

While translating a block, the caching and JIT tiers both keep a table of
32 optional constants, one per GPR, seeded with R0 = 0 (§4.9.3). When an
instruction's opcode is one of the foldable arithmetic/logical forms
(LUI, ADDIU, SLTI, SLTIU, ANDI, ORI, XORI, ADDU, SUBU, AND, OR, XOR, NOR,
SLT, SLTU) and every register it reads is currently a known constant, its
result is computed once at translation time and the emitted Stub merely
stores that constant - skipping the runtime ALU operation entirely on
every subsequent execution of the block. Any other instruction that
writes a register marks that register's table entry unknown again, since
its value can no longer be predicted at compile time.

Loads/stores with a constant base register still go through the general
path: neither tier folds the effective address, and the JIT tier also
runs every load and store as a general Stub, which recomputes the address
on each execution.
*/

package main

// foldableValue computes an instruction's result at translation time if
// its opcode is foldable and all of its register inputs are known
// constants. ok is false for every other instruction.
func foldableValue(word uint32, known [32]bool, consts [32]uint32) (uint32, bool) {
	switch primaryField(word) {
	case opLUI:
		return imm16(word) << 16, true
	case opADDIU:
		if !known[rs(word)] {
			return 0, false
		}
		return consts[rs(word)] + signExtendHalf(imm16(word)), true
	case opSLTI:
		if !known[rs(word)] {
			return 0, false
		}
		v := uint32(0)
		if int32(consts[rs(word)]) < int32(signExtendHalf(imm16(word))) {
			v = 1
		}
		return v, true
	case opSLTIU:
		if !known[rs(word)] {
			return 0, false
		}
		v := uint32(0)
		if consts[rs(word)] < signExtendHalf(imm16(word)) {
			v = 1
		}
		return v, true
	case opANDI:
		if !known[rs(word)] {
			return 0, false
		}
		return consts[rs(word)] & imm16(word), true
	case opORI:
		if !known[rs(word)] {
			return 0, false
		}
		return consts[rs(word)] | imm16(word), true
	case opXORI:
		if !known[rs(word)] {
			return 0, false
		}
		return consts[rs(word)] ^ imm16(word), true
	case opSPECIAL:
		if !known[rs(word)] || !known[rt(word)] {
			return 0, false
		}
		x, y := consts[rs(word)], consts[rt(word)]
		switch secondaryField(word) {
		case fnADDU:
			return x + y, true
		case fnSUBU:
			return x - y, true
		case fnAND:
			return x & y, true
		case fnOR:
			return x | y, true
		case fnXOR:
			return x ^ y, true
		case fnNOR:
			return ^(x | y), true
		case fnSLT:
			v := uint32(0)
			if int32(x) < int32(y) {
				v = 1
			}
			return v, true
		case fnSLTU:
			v := uint32(0)
			if x < y {
				v = 1
			}
			return v, true
		}
	}
	return 0, false
}

// makeConstStub emits a Stub that stores a translation-time-computed
// constant into target, then flushes the oldest pending delayed write per
// the usual per-instruction bookkeeping (dropped if it targets the same
// register, committed otherwise). Never taken: constant-folded
// opcodes are never branches.
func makeConstStub(target int, value uint32) stub {
	return func(c *Console) (bool, uint32) {
		c.regs.write(uint32(target), value)
		c.regs.noteExplicitWrite(regN(uint32(target)), true)
		c.regs.flushDelayed()
		return false, 0
	}
}
