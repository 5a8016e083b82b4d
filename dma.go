// dma.go - DMA transfer engine

/*
dma.go - DMA engine

A DMA transfer is built once from three I/O-port registers (§4.5's
build_transfer) and then driven to completion by handleDMA (§4.6),
grounded on the reference implementation's handle_dma.rs. Addresses step
by +/-4, masked to 0x00ff_fffc after every step. Only the combinations
the reference implementation itself supports are implemented: channel 6
(memory-to-RAM, NumWords, descending terminator chain) and
RAM-to-device transfers against channels 2 (GPU), 3 (CD) and 6
(memory), in all three chunking modes.
*/

package main

type dmaDirection int

const (
	dmaToRAM dmaDirection = iota
	dmaFromRAM
)

type dmaStep int

const (
	dmaForward dmaStep = iota
	dmaBackward
)

type dmaChunkKind int

const (
	chunkNumWords dmaChunkKind = iota
	chunkBlocks
	chunkLinkedList
)

type dmaTransfer struct {
	channel      int
	startAddress uint32
	chunkKind    dmaChunkKind
	numWords     uint32
	blockSize    uint16
	numBlocks    uint16
	direction    dmaDirection
	step         dmaStep
	syncMode     uint32
}

// maxBlockSize gives each channel's block-size clamp for sync mode 1,
// per the reference implementation's ioports.rs table.
func maxBlockSize(channel int) uint16 {
	switch channel {
	case 0, 1:
		return 0x20
	case 2, 4:
		return 0x10
	default:
		return 0x10
	}
}

// buildTransfer reads a channel's three registers (address, block
// control, channel control) and assembles a Transfer, per §4.5.
func (m *memoryMap) buildTransfer(channel int) (dmaTransfer, bool) {
	address := m.dmaChannelReg(channel, 0x00) & 0x00ff_fffc
	blockControl := m.dmaChannelReg(channel, 0x04)
	channelControl := m.dmaChannelReg(channel, 0x08)

	syncMode := bitRange(channelControl, 9, 11)
	direction := dmaFromRAM
	if !testBit(channelControl, 0) {
		direction = dmaToRAM
	}
	step := dmaForward
	if testBit(channelControl, 1) {
		step = dmaBackward
	}

	t := dmaTransfer{
		channel:      channel,
		startAddress: address,
		direction:    direction,
		step:         step,
		syncMode:     syncMode,
	}

	switch syncMode {
	case 0:
		n := blockControl & 0xffff
		if n == 0 {
			n = 0x10000
		}
		t.chunkKind = chunkNumWords
		t.numWords = n
	case 1:
		size := uint16(blockControl & 0xffff)
		if size > maxBlockSize(channel) {
			size = maxBlockSize(channel)
		}
		t.chunkKind = chunkBlocks
		t.blockSize = size
		t.numBlocks = uint16(blockControl >> 16)
	case 2:
		t.chunkKind = chunkLinkedList
	default:
		return dmaTransfer{}, false
	}
	return t, true
}

// handleDMA drives a Transfer to completion, consulting console's owned
// memory/GPU/CD state and always finishing by resetting the channel's
// control register (§4.6).
func (c *Console) handleDMA(t dmaTransfer) {
	stepAddr := func(a uint32) uint32 {
		if t.step == dmaForward {
			return (a + 4) & 0x00ff_fffc
		}
		return (a - 4) & 0x00ff_fffc
	}
	undoStep := func(a uint32) uint32 {
		if t.step == dmaForward {
			return (a - 4) & 0x00ff_fffc
		}
		return (a + 4) & 0x00ff_fffc
	}

	switch {
	case t.direction == dmaToRAM && t.channel == 6 && t.chunkKind == chunkNumWords:
		addr := t.startAddress
		for i := uint32(0); i < t.numWords; i++ {
			if i == t.numWords-1 {
				c.writeWordDirect(addr, 0x00ff_ffff)
			} else {
				c.writeWordDirect(addr, stepAddr(addr))
			}
			addr = stepAddr(addr)
		}

	case t.direction == dmaFromRAM:
		switch t.chunkKind {
		case chunkNumWords:
			addr := t.startAddress
			for i := uint32(0); i < t.numWords; i++ {
				word := c.readWordDirect(addr)
				c.dmaDeliver(t.channel, word)
				addr = stepAddr(addr)
			}
		case chunkBlocks:
			addr := t.startAddress
			packetSize := uint32(t.blockSize) * uint32(t.numBlocks)
			for i := uint32(0); i < packetSize; i++ {
				word := c.readWordDirect(addr)
				c.dmaDeliver(t.channel, word)
				addr = stepAddr(addr)
			}
			c.memory.setDMAAddress(t.channel, undoStep(addr))
		case chunkLinkedList:
			headerAddr := t.startAddress
			for {
				header := c.readWordDirect(headerAddr)
				packetSize := header >> 24
				addr := headerAddr
				for i := uint32(0); i < packetSize; i++ {
					addr = stepAddr(addr)
					c.dmaDeliver(t.channel, c.readWordDirect(addr))
				}
				next := header & 0x00ff_ffff
				if next == 0x00ff_ffff {
					break
				}
				headerAddr = next & 0x00ff_fffc
			}
			c.memory.setDMAAddress(t.channel, 0x00ff_ffff)
		}

	default:
		die("unsupported DMA combination: channel=%d direction=%v chunk=%v", t.channel, t.direction, t.chunkKind)
	}

	c.memory.resetDMAChannel(t.channel)
}

// dmaDeliver routes a word read from RAM to the named device channel,
// per the reference implementation's channel table: 2=GPU, 3=CD, 6=memory.
func (c *Console) dmaDeliver(channel int, word uint32) {
	switch channel {
	case 2:
		c.gpu.writeGP0(word)
	case 3:
		// CD DMA is unimplemented upstream; accepted and discarded.
	case 6:
		// Memory-to-memory DMA has no further destination to deliver to.
	default:
		die("unsupported DMA destination channel %d", channel)
	}
}
