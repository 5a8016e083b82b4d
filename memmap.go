// memmap.go - PSX physical memory map and I/O-port dispatch

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
memmap.go - Memory map

This module generalises the teacher's SystemBus - a flat byte slice plus
a page-masked table of memory-mapped I/O regions, looked up and dispatched
on every Read32/Write32 - to the PSX's own memory layout, which unlike the
teacher's is a small number of large, disjoint, fixed-size regions rather
than an arbitrary page-granular table. Main RAM, the BIOS ROM, the
scratchpad and both expansion regions behave like the teacher's flat
memory block; the IO_PORTS region behaves like the teacher's IORegion
callbacks, except the side effects it produces (DMA kicks, GPU writes, CD
command bytes, interrupt register stores) are expressed as a typed Action
value returned to the caller rather than invoked as a callback, because
the coordinator (Console) needs to sequence them relative to the
currently-executing block (§9's "route writes through an owning outer
coordinator" design note).

Sign-extended byte/half reads extend a Value response but pass
GPUREAD/GPUSTAT/CDResponse through unchanged, matching §4.4.
*/

package main

import (
	"encoding/binary"
	"fmt"
)

// Region base addresses and sizes, per §3.
const (
	mainRAMBase    = 0x0000_0000
	mainRAMSize    = 2 * 1024 * 1024
	expansion1Base = 0x1f00_0000
	expansion1Size = 8 * 1024 * 1024
	scratchpadBase = 0x1f80_0000
	scratchpadSize = 1024
	ioPortsBase    = 0x1f80_1000
	ioPortsSize    = 8 * 1024
	expansion2Base = 0x1f80_2000
	expansion2Size = 8 * 1024
	expansion3Base = 0x1fa0_0000
	expansion3Size = 2 * 1024 * 1024
	biosBase       = 0x1fc0_0000
	biosSize       = 512 * 1024
	cacheCtrlBase  = 0xfffe_0000
	cacheCtrlSize  = 512
)

// physMask is indexed by the top 3 bits of a virtual address and strips
// the KSEG0/KSEG1 segment bits to produce a physical address (§3's
// phys(a)).
var physMask = [8]uint32{
	0xffff_ffff, 0xffff_ffff, 0xffff_ffff, 0xffff_ffff,
	0x7fff_ffff,
	0x1fff_ffff,
	0xffff_ffff, 0xffff_ffff,
}

// phys masks the top 3 bits of a virtual address to its physical form.
func phys(addr uint32) uint32 {
	return addr & physMask[addr>>29]
}

// IO port addresses that produce side effects (§4.5).
const (
	ioInterruptStat = 0x1f80_1070
	ioInterruptMask = 0x1f80_1074
	ioDMABase       = 0x1f80_1080 // + 0x10*channel
	ioDMAControl    = 0x1f80_10f0
	ioGP0           = 0x1f80_1810
	ioGP1           = 0x1f80_1814
	ioCDCommand     = 0x1f80_1800
	ioCDParam       = 0x1f80_1801
)

// actionKind tags the side effect a memory write to IO_PORTS produced.
type actionKind int

const (
	actionNone actionKind = iota
	actionDMA
	actionGPUGP0
	actionGPUGP1
	actionCDCmd
	actionCDParam
	actionInterrupt
)

// action is the tagged side-effect sum type the memory map hands back to
// the owning coordinator, per the DESIGN NOTES guidance on heterogeneous
// variants.
type action struct {
	kind     actionKind
	value    uint32
	channel  int
	transfer dmaTransfer
}

// responseKind tags a read from IO_PORTS that isn't a plain stored value.
type responseKind int

const (
	responseValue responseKind = iota
	responseGPUREAD
	responseGPUSTAT
	responseCD
)

type memResponse struct {
	kind  responseKind
	value uint32
}

// memoryMap owns the PSX's physical address space.
type memoryMap struct {
	ram        [mainRAMSize]byte
	expansion1 [expansion1Size]byte
	scratchpad [scratchpadSize]byte
	ioPorts    [ioPortsSize]byte
	expansion2 [expansion2Size]byte
	expansion3 [expansion3Size]byte
	bios       [biosSize]byte
	cacheCtrl  [cacheCtrlSize]byte

	// overwritten accumulates phys(address) for every write this step,
	// consumed by the block cache after each block (§4.10).
	overwritten map[uint32]struct{}
}

func newMemoryMap() *memoryMap {
	m := &memoryMap{overwritten: make(map[uint32]struct{})}
	binary.LittleEndian.PutUint32(m.ioPorts[ioDMAControl-ioPortsBase:], 0x0765_4321)
	return m
}

// loadBIOS installs a BIOS image; it must be exactly 512 KiB, a fatal
// condition otherwise (§7). Main RAM's first 64 KiB is seeded from
// BIOS[0x10000..0x20000], per §3.
func (m *memoryMap) loadBIOS(data []byte) error {
	if len(data) != biosSize {
		return fmt.Errorf("BIOS must be exactly %d bytes, got %d", biosSize, len(data))
	}
	copy(m.bios[:], data)
	copy(m.ram[:0x10000], m.bios[0x10000:0x20000])
	return nil
}

// regionFor locates the byte slice and base address backing a physical
// address, or nil if the address is unmapped.
func (m *memoryMap) regionFor(addr uint32) ([]byte, uint32) {
	switch {
	case addr >= mainRAMBase && addr < mainRAMBase+mainRAMSize:
		return m.ram[:], mainRAMBase
	case addr >= expansion1Base && addr < expansion1Base+expansion1Size:
		return m.expansion1[:], expansion1Base
	case addr >= scratchpadBase && addr < scratchpadBase+scratchpadSize:
		return m.scratchpad[:], scratchpadBase
	case addr >= ioPortsBase && addr < ioPortsBase+ioPortsSize:
		return m.ioPorts[:], ioPortsBase
	case addr >= expansion2Base && addr < expansion2Base+expansion2Size:
		return m.expansion2[:], expansion2Base
	case addr >= expansion3Base && addr < expansion3Base+expansion3Size:
		return m.expansion3[:], expansion3Base
	case addr >= biosBase && addr < biosBase+biosSize:
		return m.bios[:], biosBase
	case addr >= cacheCtrlBase && addr < cacheCtrlBase+cacheCtrlSize:
		return m.cacheCtrl[:], cacheCtrlBase
	default:
		return nil, 0
	}
}

// readByte/readHalf/readWord read raw bytes from the backing region.
// IO_PORTS reads that name a special port return a non-Value response.
func (m *memoryMap) readByte(addr uint32) memResponse {
	addr = phys(addr)
	if addr == ioCDCommand || addr == ioCDParam {
		return memResponse{kind: responseCD}
	}
	region, base := m.regionFor(addr)
	if region == nil {
		return memResponse{}
	}
	return memResponse{kind: responseValue, value: uint32(region[addr-base])}
}

func (m *memoryMap) readHalf(addr uint32) memResponse {
	addr = phys(addr)
	if addr%2 != 0 {
		die("misaligned half read at %#08x", addr)
	}
	region, base := m.regionFor(addr)
	if region == nil {
		return memResponse{}
	}
	return memResponse{kind: responseValue, value: uint32(binary.LittleEndian.Uint16(region[addr-base:]))}
}

func (m *memoryMap) readWord(addr uint32) memResponse {
	addr = phys(addr)
	if addr%4 != 0 {
		die("misaligned word read at %#08x", addr)
	}
	switch addr {
	case ioGP0:
		return memResponse{kind: responseGPUREAD}
	case ioGP1:
		return memResponse{kind: responseGPUSTAT}
	}
	region, base := m.regionFor(addr)
	if region == nil {
		return memResponse{}
	}
	return memResponse{kind: responseValue, value: binary.LittleEndian.Uint32(region[addr-base:])}
}

// resolveByteSignExtended and resolveHalfSignExtended sign-extend a Value response; GPUREAD/GPUSTAT/
// CDResponse pass through unchanged, per §4.4.
func resolveByteSignExtended(r memResponse) uint32 {
	if r.kind == responseValue {
		return signExtendByte(r.value)
	}
	return r.value
}

func resolveHalfSignExtended(r memResponse) uint32 {
	if r.kind == responseValue {
		return signExtendHalf(r.value)
	}
	return r.value
}

// writeByte/writeHalf/writeWord write raw bytes and classify the write
// against the IO-port action table (§4.5). Writes to BIOS persist only
// for the current process lifetime, matching "not persisted across
// reboot" in spirit (there is no reboot path to observe the difference).
// Cache-isolated stores never reach this function; callers must check
// cop0.cacheIsolated() first.
func (m *memoryMap) writeByte(addr uint32, v uint32) action {
	p := phys(addr)
	m.markOverwritten(p)
	if act, handled := m.dispatchByteWrite(p, v); handled {
		return act
	}
	region, base := m.regionFor(p)
	if region != nil {
		region[p-base] = byte(v)
	}
	return action{}
}

func (m *memoryMap) writeHalf(addr uint32, v uint32) action {
	p := phys(addr)
	if p%2 != 0 {
		die("misaligned half write at %#08x", p)
	}
	m.markOverwritten(p)
	region, base := m.regionFor(p)
	if region != nil {
		binary.LittleEndian.PutUint16(region[p-base:], uint16(v))
	}
	return action{}
}

func (m *memoryMap) writeWord(addr uint32, v uint32) action {
	p := phys(addr)
	if p%4 != 0 {
		die("misaligned word write at %#08x", p)
	}
	m.markOverwritten(p)
	if act, handled := m.dispatchWordWrite(p, v); handled {
		return act
	}
	region, base := m.regionFor(p)
	if region != nil {
		binary.LittleEndian.PutUint32(region[p-base:], v)
	}
	return action{}
}

func (m *memoryMap) markOverwritten(p uint32) {
	m.overwritten[p] = struct{}{}
}

// dispatchByteWrite handles the single-byte IO ports (CD command/param).
func (m *memoryMap) dispatchByteWrite(addr uint32, v uint32) (action, bool) {
	switch addr {
	case ioCDCommand:
		m.storeIOByte(addr, v)
		return action{kind: actionCDCmd, value: v}, true
	case ioCDParam:
		m.storeIOByte(addr, v)
		return action{kind: actionCDParam, value: v}, true
	}
	return action{}, false
}

func (m *memoryMap) storeIOByte(addr uint32, v uint32) {
	if addr >= ioPortsBase && addr < ioPortsBase+ioPortsSize {
		m.ioPorts[addr-ioPortsBase] = byte(v)
	}
}

// dispatchWordWrite handles the word-sized IO ports: interrupts, the
// seven DMA channels' three registers each, DMA_CONTROL, and GP0/GP1.
func (m *memoryMap) dispatchWordWrite(addr uint32, v uint32) (action, bool) {
	switch {
	case addr == ioInterruptStat:
		m.storeIOWord(addr, v)
		return action{kind: actionInterrupt, value: v}, true
	case addr == ioInterruptMask:
		m.storeIOWord(addr, v)
		return action{kind: actionInterrupt, value: v}, true
	case addr == ioGP0:
		return action{kind: actionGPUGP0, value: v}, true
	case addr == ioGP1:
		return action{kind: actionGPUGP1, value: v}, true
	case addr == ioDMAControl:
		m.storeIOWord(addr, v)
		return action{}, true
	case addr >= ioDMABase && addr < ioDMABase+7*0x10:
		return m.dispatchDMAWrite(addr, v)
	}
	return action{}, false
}

func (m *memoryMap) storeIOWord(addr uint32, v uint32) {
	if addr >= ioPortsBase && addr < ioPortsBase+ioPortsSize {
		binary.LittleEndian.PutUint32(m.ioPorts[addr-ioPortsBase:], v)
	}
}

// dispatchDMAWrite stores a channel register and, if the written register
// is the channel-control register with its start bit set, builds and
// returns the resulting Transfer (§4.5, §4.6).
func (m *memoryMap) dispatchDMAWrite(addr uint32, v uint32) (action, bool) {
	channel := int((addr - ioDMABase) / 0x10)
	reg := (addr - ioDMABase) % 0x10
	m.storeIOWord(addr, v)

	const controlReg = 0x08
	if reg != controlReg {
		return action{}, true
	}
	if !testBit(v, 24) {
		return action{}, true
	}
	transfer, ok := m.buildTransfer(channel)
	if !ok {
		die("illegal DMA configuration on channel %d: sync mode 3 is reserved", channel)
	}
	return action{kind: actionDMA, channel: channel, transfer: transfer}, true
}

// dmaChannelReg reads one of a channel's three registers directly from
// the backing IO_PORTS bytes.
func (m *memoryMap) dmaChannelReg(channel int, offset uint32) uint32 {
	base := ioDMABase + uint32(channel)*0x10 + offset
	return binary.LittleEndian.Uint32(m.ioPorts[base-ioPortsBase:])
}

// resetDMAChannel clears a channel's control register after a transfer
// completes (§4.6).
func (m *memoryMap) resetDMAChannel(channel int) {
	base := ioDMABase + uint32(channel)*0x10 + 0x08
	binary.LittleEndian.PutUint32(m.ioPorts[base-ioPortsBase:], 0)
}

// setDMAAddress rewrites a channel's address register, used by the
// block and linked-list chunking modes to record where a transfer ended.
func (m *memoryMap) setDMAAddress(channel int, addr uint32) {
	base := ioDMABase + uint32(channel)*0x10
	binary.LittleEndian.PutUint32(m.ioPorts[base-ioPortsBase:], addr)
}
