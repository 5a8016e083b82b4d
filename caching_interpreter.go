// caching_interpreter.go - tier 2: translate-once, reusable-closure execution

/*
caching_interpreter.go - Tier 2: caching interpreter

Translates a basic block starting at a physical address into a sequence
of Stubs once, caches it in the block cache (blockcache.go), and on every
subsequent visit walks the cached Stubs instead of re-decoding. A block
always ends either at a syscall/break instruction (which raises its own
exception and redirects PC itself) or at a branch/jump plus its one
branch-delay-slot instruction, per §4.9.2's final_pc rule.

stub is the closure type every tier-2 instruction compiles to: it
performs the instruction's effect against Console state and reports
whether it redirected control flow, and to where. Execution order mirrors
the reference implementation's own caching_interpreter/mod.rs: walk
Stubs in order; the first one reporting a taken branch is the
block-ending jump, and - if a further Stub exists - it is that jump's
delay slot and runs once more before PC is finally set to the jump's
target.
*/

package main

// stub is one compiled instruction: it mutates Console state and
// reports (taken, targetPC).
type stub func(c *Console) (bool, uint32)

// stepCaching executes one block under the caching interpreter tier,
// translating it on first visit.
func (c *Console) stepCaching() {
	start := phys(c.regs.pc())
	b, ok := c.cache.lookup(start)
	if !ok {
		b = c.translateBlock(start)
		c.cache.insert(b)
	}
	c.executeBlock(b)
}

// translateBlock decodes instructions starting at start until it hits a
// syscall or a branch/jump (plus that branch's delay slot), compiling
// each into a Stub and maintaining the constant-folding table described
// in optimize.go.
func (c *Console) translateBlock(start uint32) *Block {
	b := &Block{Start: start}

	var consts [32]uint32
	var known [32]bool
	known[0] = true

	addr := start
	word := c.loadWord(addr)
	in := decode(word)
	appendInsn(b, word, in, addr, &consts, &known)
	b.Insns = append(b.Insns, in)

	if in.IsSyscall {
		b.End = addr
		b.Compiled = true
		return b
	}
	if in.HasBranchDelaySlot {
		delayAddr := addr + 4
		delayWord := c.loadWord(delayAddr)
		delayIn := decode(delayWord)
		appendInsn(b, delayWord, delayIn, delayAddr, &consts, &known)
		b.Insns = append(b.Insns, delayIn)
		b.End = delayAddr
		b.Compiled = true
		return b
	}

	for {
		addr += 4
		word = c.loadWord(addr)
		in = decode(word)
		appendInsn(b, word, in, addr, &consts, &known)
		b.Insns = append(b.Insns, in)

		if in.IsSyscall {
			b.End = addr
			break
		}
		if in.HasBranchDelaySlot {
			delayAddr := addr + 4
			delayWord := c.loadWord(delayAddr)
			delayIn := decode(delayWord)
			appendInsn(b, delayWord, delayIn, delayAddr, &consts, &known)
			b.Insns = append(b.Insns, delayIn)
			b.End = delayAddr
			break
		}
	}
	b.Compiled = true
	return b
}

// appendInsn compiles one instruction into b.Stubs, folding it to a
// constant store when possible and updating the constant table,
// otherwise falling back to the general-purpose stub and marking its
// output (if any) unknown.
func appendInsn(b *Block, word uint32, in Insn, pc uint32, consts *[32]uint32, known *[32]bool) {
	if in.Output > 0 {
		if v, ok := foldableValue(word, *known, *consts); ok {
			consts[in.Output] = v
			known[in.Output] = true
			b.Stubs = append(b.Stubs, makeConstStub(in.Output, v))
			return
		}
		known[in.Output] = false
	}
	b.Stubs = append(b.Stubs, makeGeneralStub(word, pc))
}

// makeGeneralStub wraps the straight interpreter's per-instruction
// execute() as a Stub, using a sentinel nextPC so the wrapper can tell a
// genuinely-taken branch to pc+4 apart from "no branch was taken".
func makeGeneralStub(word uint32, pc uint32) stub {
	in := decode(word)
	return func(c *Console) (bool, uint32) {
		const sentinel = ^uint32(0)
		nextPC := sentinel
		wrote, name := c.execute(in, word, pc, &nextPC)
		c.regs.noteExplicitWrite(name, wrote)
		c.regs.flushDelayed()
		if nextPC == sentinel {
			return false, 0
		}
		return true, nextPC
	}
}

// executeBlock walks a translated block's Stubs per §4.9.2's ordering
// rule, draining overwritten addresses and at most one pending GPU
// drawable after each Stub. A block that takes no branch continues at the
// address after its last instruction, unless an exception has already
// moved PC to its vector.
func (c *Console) executeBlock(b *Block) {
	entryPC := c.regs.pc()
	for i := 0; i < len(b.Stubs); i++ {
		taken, target := b.Stubs[i](c)
		c.drainOverwritten(b.Start, b.End)
		c.gpu.drainOne()

		if taken {
			if i+1 < len(b.Stubs) {
				i++
				b.Stubs[i](c)
				c.drainOverwritten(b.Start, b.End)
				c.gpu.drainOne()
			}
			c.regs.setPC(target)
			return
		}
	}
	if c.regs.pc() == entryPC {
		c.regs.setPC(b.End + 4)
	}
}
