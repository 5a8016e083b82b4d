// interpreter.go - straight interpreter execution tier

/*
interpreter.go - Tier 1: straight interpreter

Fetches, decodes and executes one instruction per call, re-decoding every
time it is visited. This is the tier described in §4.9.1: no translation,
no caching, and therefore immune to self-modifying-code concerns, but the
slowest of the three. Grounded on the reference implementation's
interpreter.rs, with COP0/COP2 sub-opcode dispatch (MFC0/MTC0/CFC0/CTC0/
RFE, GTE command execute) folded in here since decoder.go only tags COP0/
COP2 coarsely.

Branch delay slots: when the instruction has a delay slot, stepInterpreter
executes the instruction physically following it in the same call, before
the branch target takes effect - so the delay slot instruction, whatever
it is, runs unconditionally first. execute() only overwrites nextPC when a
branch/jump is taken; an exception raised on the way leaves PC at its
vector.

Load delay slots: a load enqueues its result via regs.enqueueDelayed
instead of writing immediately. After every instruction, flushDelayed
commits the oldest pending write unless the instruction just executed
wrote that same register explicitly (the "load in a load-delay slot"
case), per mips.go's own doc comment.
*/

package main

// stepInterpreter executes one instruction (a branch or jump together
// with its delay slot) and then retires one pending GPU drawable from the
// queue; drawables are already in VRAM, nothing is sent to the display.
func (c *Console) stepInterpreter() {
	pc := c.regs.pc()
	word := c.loadWord(pc)
	in := decode(word)

	const notTaken = ^uint32(0)
	nextPC := notTaken
	wroteReg, wroteName := c.execute(in, word, pc, &nextPC)
	c.regs.noteExplicitWrite(wroteName, wroteReg)
	c.regs.flushDelayed()

	fallThrough := pc + 4
	if in.HasBranchDelaySlot {
		slotWord := c.loadWord(pc + 4)
		slotNext := notTaken
		wroteReg, wroteName = c.execute(decode(slotWord), slotWord, pc+4, &slotNext)
		c.regs.noteExplicitWrite(wroteName, wroteReg)
		c.regs.flushDelayed()
		fallThrough = pc + 8
	}
	if nextPC == notTaken {
		nextPC = fallThrough
	}
	if c.regs.pc() == pc { // an exception has already moved PC to its vector
		c.regs.setPC(nextPC)
	}

	c.drainOverwritten(phys(pc), phys(pc))
	c.gpu.drainOne() // drawables are rasterized into VRAM at GP0-dispatch time; this only retires the queue slot
}

// execute runs one decoded instruction. It returns whether it wrote a
// register explicitly (for load-delay bookkeeping) and which one.
func (c *Console) execute(in Insn, word uint32, pc uint32, nextPC *uint32) (bool, regName) {
	primary := primaryField(word)

	branchTo := func(target uint32) {
		*nextPC = target
	}
	branchIf := func(cond bool, target uint32) {
		if cond {
			branchTo(target)
		}
	}

	switch primary {
	case opSPECIAL:
		return c.executeSpecial(word, pc, nextPC)

	case opBCONDZ:
		v := int32(c.regs.read(rs(word)))
		target := pc + 4 + (signExtendHalf(imm16(word)) << 2)
		rtField := rt(word)
		link := rtField == 0x10 || rtField == 0x11
		taken := false
		switch rtField & 1 {
		case 0:
			taken = v < 0
		case 1:
			taken = v >= 0
		}
		if link {
			c.regs.write(31, pc+8)
		}
		branchIf(taken, target)
		if link {
			return true, regN(31)
		}
		return false, 0

	case opBEQ:
		target := pc + 4 + (signExtendHalf(imm16(word)) << 2)
		branchIf(c.regs.read(rs(word)) == c.regs.read(rt(word)), target)
	case opBNE:
		target := pc + 4 + (signExtendHalf(imm16(word)) << 2)
		branchIf(c.regs.read(rs(word)) != c.regs.read(rt(word)), target)
	case opBLEZ:
		target := pc + 4 + (signExtendHalf(imm16(word)) << 2)
		branchIf(int32(c.regs.read(rs(word))) <= 0, target)
	case opBGTZ:
		target := pc + 4 + (signExtendHalf(imm16(word)) << 2)
		branchIf(int32(c.regs.read(rs(word))) > 0, target)

	case opJ:
		branchTo((pc & 0xf000_0000) | (imm26(word) << 2))
	case opJAL:
		c.regs.write(31, pc+8)
		branchTo((pc & 0xf000_0000) | (imm26(word) << 2))
		return true, regN(31)

	case opADDI:
		a := int32(c.regs.read(rs(word)))
		b := int32(signExtendHalf(imm16(word)))
		sum := a + b
		if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0) {
			c.raiseException(excOverflow)
			return false, 0
		}
		c.regs.write(rt(word), uint32(sum))
		return true, regN(rt(word))
	case opADDIU:
		c.regs.write(rt(word), c.regs.read(rs(word))+signExtendHalf(imm16(word)))
		return true, regN(rt(word))
	case opSLTI:
		v := uint32(0)
		if int32(c.regs.read(rs(word))) < int32(signExtendHalf(imm16(word))) {
			v = 1
		}
		c.regs.write(rt(word), v)
		return true, regN(rt(word))
	case opSLTIU:
		v := uint32(0)
		if c.regs.read(rs(word)) < signExtendHalf(imm16(word)) {
			v = 1
		}
		c.regs.write(rt(word), v)
		return true, regN(rt(word))
	case opANDI:
		c.regs.write(rt(word), c.regs.read(rs(word))&imm16(word))
		return true, regN(rt(word))
	case opORI:
		c.regs.write(rt(word), c.regs.read(rs(word))|imm16(word))
		return true, regN(rt(word))
	case opXORI:
		c.regs.write(rt(word), c.regs.read(rs(word))^imm16(word))
		return true, regN(rt(word))
	case opLUI:
		c.regs.write(rt(word), imm16(word)<<16)
		return true, regN(rt(word))

	case opCOP0:
		return c.executeCOP0(word)
	case opCOP2:
		return c.executeCOP2(word)

	case opLB:
		addr := c.regs.read(rs(word)) + signExtendHalf(imm16(word))
		c.regs.enqueueDelayed(regN(rt(word)), c.loadByte(addr))
	case opLBU:
		addr := c.regs.read(rs(word)) + signExtendHalf(imm16(word))
		c.regs.enqueueDelayed(regN(rt(word)), c.loadByteUnsigned(addr))
	case opLH:
		addr := c.regs.read(rs(word)) + signExtendHalf(imm16(word))
		if addr%2 != 0 {
			c.raiseException(excLoadAddress)
			return false, 0
		}
		c.regs.enqueueDelayed(regN(rt(word)), c.loadHalf(addr))
	case opLHU:
		addr := c.regs.read(rs(word)) + signExtendHalf(imm16(word))
		if addr%2 != 0 {
			c.raiseException(excLoadAddress)
			return false, 0
		}
		c.regs.enqueueDelayed(regN(rt(word)), c.loadHalfUnsigned(addr))
	case opLW:
		addr := c.regs.read(rs(word)) + signExtendHalf(imm16(word))
		if addr%4 != 0 {
			c.raiseException(excLoadAddress)
			return false, 0
		}
		c.regs.enqueueDelayed(regN(rt(word)), c.loadWord(addr))
	case opLWL, opLWR:
		c.executeUnalignedLoad(word, primary)

	case opSB:
		addr := c.regs.read(rs(word)) + signExtendHalf(imm16(word))
		c.storeByte(addr, c.regs.read(rt(word)))
	case opSH:
		addr := c.regs.read(rs(word)) + signExtendHalf(imm16(word))
		if addr%2 != 0 {
			c.raiseException(excStoreAddress)
			return false, 0
		}
		c.storeHalf(addr, c.regs.read(rt(word)))
	case opSW:
		addr := c.regs.read(rs(word)) + signExtendHalf(imm16(word))
		if addr%4 != 0 {
			c.raiseException(excStoreAddress)
			return false, 0
		}
		c.storeWord(addr, c.regs.read(rt(word)))
	case opSWL, opSWR:
		c.executeUnalignedStore(word, primary)

	case opLWC2:
		addr := c.regs.read(rs(word)) + signExtendHalf(imm16(word))
		c.gte.writeData(rt(word), c.loadWord(addr))
	case opSWC2:
		addr := c.regs.read(rs(word)) + signExtendHalf(imm16(word))
		c.storeWord(addr, c.gte.readData(rt(word)))

	default:
		// Unknown primary opcode: fatal, with a diagnostic.
		die("illegal MIPS opcode %#08x at %#08x", word, pc)
	}
	return false, 0
}

// executeSpecial handles the SPECIAL (opcode 0) secondary-field table.
func (c *Console) executeSpecial(word uint32, pc uint32, nextPC *uint32) (bool, regName) {
	fn := secondaryField(word)
	switch fn {
	case fnSLL:
		c.regs.write(rd(word), c.regs.read(rt(word))<<shamt(word))
		return true, regN(rd(word))
	case fnSRL:
		c.regs.write(rd(word), c.regs.read(rt(word))>>shamt(word))
		return true, regN(rd(word))
	case fnSRA:
		c.regs.write(rd(word), uint32(int32(c.regs.read(rt(word)))>>shamt(word)))
		return true, regN(rd(word))
	case fnSLLV:
		c.regs.write(rd(word), c.regs.read(rt(word))<<(c.regs.read(rs(word))&0x1f))
		return true, regN(rd(word))
	case fnSRLV:
		c.regs.write(rd(word), c.regs.read(rt(word))>>(c.regs.read(rs(word))&0x1f))
		return true, regN(rd(word))
	case fnSRAV:
		c.regs.write(rd(word), uint32(int32(c.regs.read(rt(word)))>>(c.regs.read(rs(word))&0x1f)))
		return true, regN(rd(word))
	case fnJR:
		target := c.regs.read(rs(word))
		if target&3 != 0 {
			c.raiseException(excLoadAddress)
			return false, 0
		}
		*nextPC = target
	case fnJALR:
		target := c.regs.read(rs(word))
		if target&3 != 0 {
			c.raiseException(excLoadAddress)
			return false, 0
		}
		c.regs.write(rd(word), pc+8)
		*nextPC = target
		return true, regN(rd(word))
	case fnSYSCALL:
		c.raiseException(excSyscall)
	case fnBREAK:
		c.raiseException(excSyscall)
	case fnMFHI:
		c.regs.write(rd(word), c.regs.hi())
		return true, regN(rd(word))
	case fnMFLO:
		c.regs.write(rd(word), c.regs.lo())
		return true, regN(rd(word))
	case fnMTHI:
		c.regs.setHI(c.regs.read(rs(word)))
	case fnMTLO:
		c.regs.setLO(c.regs.read(rs(word)))
	case fnMULT:
		a := int64(int32(c.regs.read(rs(word))))
		b := int64(int32(c.regs.read(rt(word))))
		r := uint64(a * b)
		c.regs.setHI(uint32(r >> 32))
		c.regs.setLO(uint32(r))
	case fnMULTU:
		a := uint64(c.regs.read(rs(word)))
		b := uint64(c.regs.read(rt(word)))
		r := a * b
		c.regs.setHI(uint32(r >> 32))
		c.regs.setLO(uint32(r))
	case fnDIV:
		q, r := divSigned(int32(c.regs.read(rs(word))), int32(c.regs.read(rt(word))))
		c.regs.setLO(uint32(q))
		c.regs.setHI(uint32(r))
	case fnDIVU:
		q, r := divUnsigned(c.regs.read(rs(word)), c.regs.read(rt(word)))
		c.regs.setLO(q)
		c.regs.setHI(r)
	case fnADD:
		a := int32(c.regs.read(rs(word)))
		b := int32(c.regs.read(rt(word)))
		sum := a + b
		if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0) {
			c.raiseException(excOverflow)
			return false, 0
		}
		c.regs.write(rd(word), uint32(sum))
		return true, regN(rd(word))
	case fnADDU:
		c.regs.write(rd(word), c.regs.read(rs(word))+c.regs.read(rt(word)))
		return true, regN(rd(word))
	case fnSUB:
		a := int32(c.regs.read(rs(word)))
		b := int32(c.regs.read(rt(word)))
		diff := a - b
		if (a >= 0 && b < 0 && diff < 0) || (a < 0 && b > 0 && diff >= 0) {
			c.raiseException(excOverflow)
			return false, 0
		}
		c.regs.write(rd(word), uint32(diff))
		return true, regN(rd(word))
	case fnSUBU:
		c.regs.write(rd(word), c.regs.read(rs(word))-c.regs.read(rt(word)))
		return true, regN(rd(word))
	case fnAND:
		c.regs.write(rd(word), c.regs.read(rs(word))&c.regs.read(rt(word)))
		return true, regN(rd(word))
	case fnOR:
		c.regs.write(rd(word), c.regs.read(rs(word))|c.regs.read(rt(word)))
		return true, regN(rd(word))
	case fnXOR:
		c.regs.write(rd(word), c.regs.read(rs(word))^c.regs.read(rt(word)))
		return true, regN(rd(word))
	case fnNOR:
		c.regs.write(rd(word), ^(c.regs.read(rs(word)) | c.regs.read(rt(word))))
		return true, regN(rd(word))
	case fnSLT:
		v := uint32(0)
		if int32(c.regs.read(rs(word))) < int32(c.regs.read(rt(word))) {
			v = 1
		}
		c.regs.write(rd(word), v)
		return true, regN(rd(word))
	case fnSLTU:
		v := uint32(0)
		if c.regs.read(rs(word)) < c.regs.read(rt(word)) {
			v = 1
		}
		c.regs.write(rd(word), v)
		return true, regN(rd(word))
	}
	return false, 0
}

// executeCOP0 dispatches MFC0/MTC0/CFC0/CTC0/RFE by inspecting rs(word)
// directly, since decoder.go only coarsely tags COP0 instructions.
func (c *Console) executeCOP0(word uint32) (bool, regName) {
	switch rs(word) {
	case 0x00: // MFC0
		c.regs.enqueueDelayed(regN(rt(word)), c.cop0.read(rd(word)))
	case 0x04: // MTC0
		c.cop0.write(rd(word), c.regs.read(rt(word)))
	case 0x10: // CO (RFE and friends, dispatched by imm25)
		c.cop0.executeCommand(imm25(word))
	}
	return false, 0
}

// executeCOP2 dispatches GTE moves and commands.
func (c *Console) executeCOP2(word uint32) (bool, regName) {
	switch rs(word) {
	case 0x00: // MFC2
		c.regs.enqueueDelayed(regN(rt(word)), c.gte.readData(rd(word)))
	case 0x02: // CFC2
		c.regs.enqueueDelayed(regN(rt(word)), c.gte.readCtrl(rd(word)))
	case 0x04: // MTC2
		c.gte.writeData(rd(word), c.regs.read(rt(word)))
	case 0x06: // CTC2
		c.gte.writeCtrl(rd(word), c.regs.read(rt(word)))
	default:
		c.gte.executeCommand(imm25(word))
	}
	return false, 0
}

// executeUnalignedLoad implements LWL/LWR, which merge bytes from an
// unaligned address into selected byte lanes of rt without faulting.
func (c *Console) executeUnalignedLoad(word uint32, primary uint32) {
	addr := c.regs.read(rs(word)) + signExtendHalf(imm16(word))
	aligned := addr &^ 3
	cur := c.regs.read(rt(word))
	wordVal := c.loadWord(aligned)

	shift := (addr & 3) * 8
	var result uint32
	if primary == opLWL {
		result = (cur & (0x00ff_ffff >> (24 - shift))) | (wordVal << shift)
	} else {
		result = (cur &^ (0xffff_ffff >> shift)) | (wordVal >> shift)
	}
	c.regs.enqueueDelayed(regN(rt(word)), result)
}

func (c *Console) executeUnalignedStore(word uint32, primary uint32) {
	addr := c.regs.read(rs(word)) + signExtendHalf(imm16(word))
	aligned := addr &^ 3
	rtVal := c.regs.read(rt(word))
	cur := c.loadWord(aligned)

	shift := (addr & 3) * 8
	var result uint32
	if primary == opSWL {
		result = (cur &^ (0xffff_ffff >> shift)) | (rtVal >> shift)
	} else {
		result = (cur & (0x00ff_ffff >> (24 - shift))) | (rtVal << shift)
	}
	c.storeWord(aligned, result)
}
