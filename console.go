// console.go - Console coordinator: owns all subsystems, drives execution

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2026 gopsx contributors
https://github.com/intuitionamiga/gopsx
License: GPLv3 or later
*/

/*
console.go - The owning coordinator

Every subsystem - registers, COP0, GTE, memory, GPU, CD-ROM, controller,
block cache - is a plain struct with no synchronization of its own; the
spec's "no locks are required" (§5) holds because Console drives all of
them from a single goroutine. The display and audio adapters are the
only boundary that crosses goroutines: display.go guards its frame with
a mutex, audio.go uses a lock-free ring of atomic indices.

Console.Step is the tier-dispatch point: the interpreter, caching
interpreter or JIT tiers implement the actual execute-one-unit-of-work
logic, matching the reference implementation's own three-tier design
(§4.9). newConsole selects the caching tier, or the JIT tier with the
-j/--jit flag; it never selects the plain interpreter tier. The
REFRESH_RATE countdown and the event-poll cadence live here, grounded on
the reference implementation's console/mod.rs run loop; both count Step
calls, not instructions or cycles.
*/

package main

// tier names the three execution strategies §4.9 describes.
type tier int

const (
	tierInterpreter tier = iota
	tierCaching
	tierJIT
)

// refreshRate is the number of Step calls between vertical-blank style
// refresh events. Under the caching and JIT tiers a Step runs a whole
// block, so this is not a count of instructions or CPU cycles.
const refreshRate = 550_000

// eventPollInterval is how many Step calls Run makes before polling for
// host events. Under the caching and JIT tiers a Step runs a whole block,
// so this is not a count of instructions.
const eventPollInterval = 100_000

// Console owns every emulated subsystem and drives them forward.
type Console struct {
	regs     *registerFile
	cop0     *cop0
	gte      *gte
	memory   *memoryMap
	gpu      *GPU
	cdrom    *cdrom
	pad      *controller
	cache    *blockCache
	jitCache *jitBlockCache

	tier tier

	cycleCounter uint64
	refreshDue   uint64

	interruptStatus uint32
	interruptMask   uint32

	log *logger

	display displaySink
	audio   audioSink
}

// displaySink and audioSink are the narrow ports Console needs from the
// adapter layer, kept separate from the concrete ebiten/oto types so the
// console package (and its tests) never need a real window or audio
// device.
type displaySink interface {
	PushFrame(vram []byte)
}

type audioSink interface {
	PushSample(left, right int16)
}

// newConsole wires every subsystem together. display/audio may be nil in
// headless/test contexts.
func newConsole(biosPath string, useJIT bool, logging bool, display displaySink, audio audioSink) (*Console, error) {
	mem := newMemoryMap()
	log := newLogger(logging)

	bios, err := loadBIOS(biosPath)
	if err != nil {
		return nil, err
	}
	if err := mem.loadBIOS(bios); err != nil {
		return nil, err
	}

	c := &Console{
		regs:    newRegisterFile(),
		cop0:    &cop0{},
		gte:     &gte{},
		memory:  mem,
		gpu:     newGPU(logging),
		cdrom:   newCDROM(logging),
		pad:     newController(),
		log:     log,
		display: display,
		audio:   audio,
	}
	c.cache = newBlockCache()
	if useJIT {
		c.tier = tierJIT
	} else {
		c.tier = tierCaching
	}
	return c, nil
}

// Run drives the console forever, polling for host events every
// eventPollInterval Step calls and reporting a display refresh every
// refreshRate Step calls. pollEvents returns false to request shutdown.
func (c *Console) Run(pollEvents func() bool) {
	for {
		for i := 0; i < eventPollInterval; i++ {
			c.Step()
			c.refreshDue++
			if c.refreshDue >= refreshRate {
				c.refreshDue = 0
				c.refreshFrame()
			}
		}
		if pollEvents != nil && !pollEvents() {
			return
		}
	}
}

// Step executes one unit of work in whichever tier is selected and
// advances the cycle counter. The caching and JIT tiers execute whole
// basic blocks per call; the plain interpreter executes a single
// instruction. The tiers retire pending GPU drawables themselves; Step
// sends nothing to the display sink.
func (c *Console) Step() {
	switch c.tier {
	case tierInterpreter:
		c.stepInterpreter()
	case tierCaching:
		c.stepCaching()
	case tierJIT:
		c.stepJIT()
	}
	c.cycleCounter++
}

func (c *Console) refreshFrame() {
	if c.display != nil {
		c.display.PushFrame(c.gpu.vram[:])
	}
}

// writeWordDirect and readWordDirect are the DMA engine's memory access.
// Unlike storeWord they ignore COP0 cache isolation; IO-port actions and
// GPUREAD/GPUSTAT responses are handled exactly as on the CPU's path.
func (c *Console) writeWordDirect(addr uint32, v uint32) {
	act := c.memory.writeWord(addr, v)
	c.handleAction(act)
}

func (c *Console) readWordDirect(addr uint32) uint32 {
	return resolveMemResponse(c, c.memory.readWord(addr))
}

// resolveMemResponse turns a memResponse into the 32-bit value a caller
// sees, consulting GPU state for the two response kinds memmap.go cannot
// resolve on its own.
func resolveMemResponse(c *Console, r memResponse) uint32 {
	switch r.kind {
	case responseGPUREAD:
		return c.gpu.gpuread()
	case responseGPUSTAT:
		return c.gpu.gpustat()
	case responseCD:
		return c.cdrom.readResponse()
	default:
		return r.value
	}
}

// loadByte/loadHalf/loadWord are the CPU-facing read path: sign-extended
// per §4.4, routed through resolveMemResponse for the GPU/CD special
// cases.
func (c *Console) loadByte(addr uint32) uint32 {
	return resolveByteSignExtendedConsole(c, c.memory.readByte(addr))
}

func resolveByteSignExtendedConsole(c *Console, r memResponse) uint32 {
	if r.kind == responseValue {
		return signExtendByte(r.value)
	}
	return resolveMemResponse(c, r)
}

func (c *Console) loadHalf(addr uint32) uint32 {
	r := c.memory.readHalf(addr)
	if r.kind == responseValue {
		return signExtendHalf(r.value)
	}
	return resolveMemResponse(c, r)
}

func (c *Console) loadWord(addr uint32) uint32 {
	return resolveMemResponse(c, c.memory.readWord(addr))
}

// loadByteUnsigned is used by LBU, which does not sign-extend.
func (c *Console) loadByteUnsigned(addr uint32) uint32 {
	r := c.memory.readByte(addr)
	return resolveMemResponse(c, r)
}

func (c *Console) loadHalfUnsigned(addr uint32) uint32 {
	r := c.memory.readHalf(addr)
	return resolveMemResponse(c, r)
}

// storeByte/storeHalf/storeWord are the CPU-facing write path. A
// cache-isolated store (COP0 SR bit 16) is discarded before it ever
// reaches the memory map, per §4.2.
func (c *Console) storeByte(addr uint32, v uint32) {
	if c.cop0.cacheIsolated() {
		return
	}
	c.handleAction(c.memory.writeByte(addr, v))
}

func (c *Console) storeHalf(addr uint32, v uint32) {
	if c.cop0.cacheIsolated() {
		return
	}
	c.handleAction(c.memory.writeHalf(addr, v))
}

func (c *Console) storeWord(addr uint32, v uint32) {
	if c.cop0.cacheIsolated() {
		return
	}
	c.handleAction(c.memory.writeWord(addr, v))
}

// handleAction routes a memory-map side effect to the owning subsystem,
// per §4.5/§4.6.
func (c *Console) handleAction(act action) {
	switch act.kind {
	case actionNone:
	case actionDMA:
		c.handleDMA(act.transfer)
	case actionGPUGP0:
		c.gpu.writeGP0(act.value)
	case actionGPUGP1:
		c.gpu.writeGP1(act.value)
	case actionCDCmd:
		c.cdrom.writeCommand(act.value)
	case actionCDParam:
		c.cdrom.writeParam(act.value)
	case actionInterrupt:
		c.interruptStatus = act.value
	default:
		die("unhandled action kind %v", act.kind)
	}
}

// drainOverwritten hands the block cache the set of physical addresses
// written by the instruction or block just executed - identified by its
// own [execStart,execEnd] bounds - for SMC invalidation (§4.10), then
// clears the set for the next step.
func (c *Console) drainOverwritten(execStart, execEnd uint32) {
	for addr := range c.memory.overwritten {
		c.cache.invalidate(addr, execStart, execEnd)
		if c.jitCache != nil {
			c.jitCache.invalidate(addr, execStart, execEnd)
		}
	}
	c.memory.overwritten = make(map[uint32]struct{})
}

// raiseException transfers control to the exception vector, per §4.2.
func (c *Console) raiseException(kind exceptionKind) {
	vector := c.cop0.generateException(kind, c.regs.pc())
	c.regs.setPC(vector)
}
