// decoder.go - MIPS R3000A instruction decoder

/*
decoder.go - Instruction decoder for the PSX's MIPS R3000A subset

Decodes a 32-bit instruction word into its constituent fields and tags it
with the metadata every execution tier needs: which registers it reads,
which register (if any) it writes, whether it occupies a branch-delay
slot, and whether it is one of the handful of opcodes that end a basic
block. The decoder itself never touches CPU state - it is a pure function
of the opcode bits, mirroring the original implementation's field-
extraction helpers one for one.

Field layout (standard MIPS-I encoding):

	31..26  opcode    (primary field)
	25..21  rs
	20..16  rt
	15..11  rd
	10..6   shamt
	 5..0   funct     (secondary field, meaningful when opcode == 0)
	15..0   imm16
	24..0   imm25     (COP0/COP2 command field)
	25..0   imm26     (jump target field)
*/

package main

// opcode field accessors, named exactly like the fields they extract.

func primaryField(op uint32) uint32   { return bitRange(op, 26, 32) }
func secondaryField(op uint32) uint32 { return bitRange(op, 0, 6) }
func rs(op uint32) uint32             { return bitRange(op, 21, 26) }
func rt(op uint32) uint32             { return bitRange(op, 16, 21) }
func rd(op uint32) uint32             { return bitRange(op, 11, 16) }
func shamt(op uint32) uint32          { return bitRange(op, 6, 11) }
func imm16(op uint32) uint32          { return bitRange(op, 0, 16) }
func imm25(op uint32) uint32          { return bitRange(op, 0, 25) }
func imm26(op uint32) uint32          { return bitRange(op, 0, 26) }

// Primary opcode field values referenced by name throughout the tiers.
const (
	opSPECIAL = 0x00
	opBCONDZ  = 0x01
	opJ       = 0x02
	opJAL     = 0x03
	opBEQ     = 0x04
	opBNE     = 0x05
	opBLEZ    = 0x06
	opBGTZ    = 0x07
	opADDI    = 0x08
	opADDIU   = 0x09
	opSLTI    = 0x0A
	opSLTIU   = 0x0B
	opANDI    = 0x0C
	opORI     = 0x0D
	opXORI    = 0x0E
	opLUI     = 0x0F
	opCOP0    = 0x10
	opCOP2    = 0x12
	opLB      = 0x20
	opLH      = 0x21
	opLWL     = 0x22
	opLW      = 0x23
	opLBU     = 0x24
	opLHU     = 0x25
	opLWR     = 0x26
	opSB      = 0x28
	opSH      = 0x29
	opSWL     = 0x2A
	opSW      = 0x2B
	opSWR     = 0x2E
	opLWC2    = 0x32
	opSWC2    = 0x3A
)

// SPECIAL (opcode 0) secondary-field values.
const (
	fnSLL     = 0x00
	fnSRL     = 0x02
	fnSRA     = 0x03
	fnSLLV    = 0x04
	fnSRLV    = 0x06
	fnSRAV    = 0x07
	fnJR      = 0x08
	fnJALR    = 0x09
	fnSYSCALL = 0x0C
	fnBREAK   = 0x0D
	fnMFHI    = 0x10
	fnMTHI    = 0x11
	fnMFLO    = 0x12
	fnMTLO    = 0x13
	fnMULT    = 0x18
	fnMULTU   = 0x19
	fnDIV     = 0x1A
	fnDIVU    = 0x1B
	fnADD     = 0x20
	fnADDU    = 0x21
	fnSUB     = 0x22
	fnSUBU    = 0x23
	fnAND     = 0x24
	fnOR      = 0x25
	fnXOR     = 0x26
	fnNOR     = 0x27
	fnSLT     = 0x2A
	fnSLTU    = 0x2B
)

// regName identifies a delayed-write target: either a GPR index or HI/LO.
type regName int

const (
	regHI regName = 32
	regLO regName = 33
)

func regN(i uint32) regName { return regName(i) }

// Insn is the decoder's tagged output: the raw word plus everything the
// execution tiers need to know about it without re-decoding.
type Insn struct {
	Word uint32

	Inputs []uint32 // GPR indices read by this instruction (excludes R0)
	Base   int      // -1, or the GPR index used as a memory base
	Output int      // -1, or the GPR index written by this instruction

	HasBranchDelaySlot  bool
	IsUnconditionalJump bool
	IsSyscall           bool
}

// decode produces the tagged Insn for a raw opcode word.
func decode(word uint32) Insn {
	in := Insn{Word: word, Base: -1, Output: -1}
	primary := primaryField(word)

	switch primary {
	case opSPECIAL:
		fn := secondaryField(word)
		switch fn {
		case fnSLL, fnSRL, fnSRA:
			in.Inputs = gprInputs(rt(word))
			in.Output = int(rd(word))
		case fnSLLV, fnSRLV, fnSRAV:
			in.Inputs = gprInputs(rt(word), rs(word))
			in.Output = int(rd(word))
		case fnJR:
			in.Inputs = gprInputs(rs(word))
			in.HasBranchDelaySlot = true
			in.IsUnconditionalJump = true
		case fnJALR:
			in.Inputs = gprInputs(rs(word))
			in.Output = int(rd(word))
			in.HasBranchDelaySlot = true
			in.IsUnconditionalJump = true
		case fnSYSCALL, fnBREAK:
			in.IsUnconditionalJump = true
			in.IsSyscall = true
		case fnMFHI:
			in.Output = int(rd(word))
		case fnMFLO:
			in.Output = int(rd(word))
		case fnMTHI, fnMTLO:
			in.Inputs = gprInputs(rs(word))
		case fnMULT, fnMULTU, fnDIV, fnDIVU:
			in.Inputs = gprInputs(rs(word), rt(word))
		case fnADD, fnADDU, fnSUB, fnSUBU, fnAND, fnOR, fnXOR, fnNOR, fnSLT, fnSLTU:
			in.Inputs = gprInputs(rs(word), rt(word))
			in.Output = int(rd(word))
		default:
			in.Inputs = gprInputs(rs(word), rt(word))
		}
	case opBCONDZ, opBEQ, opBNE, opBLEZ, opBGTZ:
		if primary == opBEQ || primary == opBNE {
			in.Inputs = gprInputs(rs(word), rt(word))
		} else {
			in.Inputs = gprInputs(rs(word))
		}
		in.HasBranchDelaySlot = true
		// BGEZAL/BLTZAL (rt 0x10/0x11 under BCONDZ) write R31; they are
		// not distinct primary opcodes, so Output is set here from
		// rt(word).
		if primary == opBCONDZ && (rt(word) == 0x10 || rt(word) == 0x11) {
			in.Output = 31
		}
	case opJ:
		in.HasBranchDelaySlot = true
		in.IsUnconditionalJump = true
	case opJAL:
		in.HasBranchDelaySlot = true
		in.IsUnconditionalJump = true
		in.Output = 31
	case opADDI, opADDIU, opSLTI, opSLTIU, opANDI, opORI, opXORI:
		in.Inputs = gprInputs(rs(word))
		in.Output = int(rt(word))
	case opLUI:
		in.Output = int(rt(word))
	case opLB, opLH, opLWL, opLW, opLBU, opLHU, opLWR:
		in.Inputs = gprInputs(rs(word))
		in.Base = int(rs(word))
		in.Output = int(rt(word))
	case opSB, opSH, opSWL, opSW, opSWR:
		in.Inputs = gprInputs(rs(word), rt(word))
		in.Base = int(rs(word))
	case opCOP0, opCOP2:
		// Output is rt for every form, including the moves into the
		// coprocessor that only read rt; the optimizer then treats rt
		// as unknown, which is safe.
		in.Inputs = gprInputs(rt(word))
		in.Output = int(rt(word))
	case opLWC2:
		in.Inputs = gprInputs(rs(word))
		in.Base = int(rs(word))
	case opSWC2:
		in.Inputs = gprInputs(rs(word))
		in.Base = int(rs(word))
	default:
		in.Inputs = gprInputs(rs(word), rt(word))
	}
	return in
}

// gprInputs filters out R0, which is architecturally constant and never
// needs to be tracked as a dependency by the optimizer.
func gprInputs(regs ...uint32) []uint32 {
	out := make([]uint32, 0, len(regs))
	for _, r := range regs {
		if r != 0 {
			out = append(out, r)
		}
	}
	return out
}

// hasBranchDelaySlot reports whether op occupies a branch-delay slot of
// its own, per §4.1: true for J, JAL, JR, JALR, all BcondZ forms, BEQ,
// BNE, BLEZ, BGTZ.
func hasBranchDelaySlot(op uint32) bool {
	return decode(op).HasBranchDelaySlot
}

// isUnconditionalJump reports whether op ends a basic block unconditionally:
// J, JAL, JR, JALR, SYSCALL, BREAK.
func isUnconditionalJump(op uint32) bool {
	return decode(op).IsUnconditionalJump
}

// isSyscall reports whether op is SYSCALL or BREAK - a block-ending
// instruction with no delay slot of its own.
func isSyscall(op uint32) bool {
	return decode(op).IsSyscall
}
