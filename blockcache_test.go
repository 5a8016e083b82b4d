package main

import "testing"

func TestBlockCacheInsertLookup(t *testing.T) {
	bc := newBlockCache()
	b := &Block{Start: 0x100, End: 0x10c}
	bc.insert(b)

	got, ok := bc.lookup(0x100)
	if !ok || got != b {
		t.Fatalf("lookup(0x100) = %v, %v; want %v, true", got, ok, b)
	}
	if _, ok := bc.lookup(0x104); ok {
		t.Fatalf("lookup(0x104) unexpectedly found a block")
	}
}

func TestBlockCacheInvalidateExactStart(t *testing.T) {
	bc := newBlockCache()
	bc.insert(&Block{Start: 0x200, End: 0x20c})

	// Self-modifying write at the block's own start, within its own
	// just-executed bounds.
	bc.invalidate(0x200, 0x200, 0x20c)

	if _, ok := bc.lookup(0x200); ok {
		t.Fatalf("block starting at the written address should be evicted")
	}
}

func TestBlockCacheInvalidateMidBlockWrite(t *testing.T) {
	bc := newBlockCache()
	bc.insert(&Block{Start: 0x300, End: 0x30c})

	// A write to a genuine interior word - neither the block's first nor
	// its last instruction - must still evict it, per §4.10 step 1: the
	// address falls inside [execStart,execEnd] even though it matches
	// neither table's key on its own.
	bc.invalidate(0x304, 0x300, 0x30c)

	if _, ok := bc.lookup(0x300); ok {
		t.Fatalf("block spanning the written interior address should be evicted")
	}
}

func TestBlockCacheInvalidateUnrelatedWriteLeavesBlock(t *testing.T) {
	bc := newBlockCache()
	b := &Block{Start: 0x400, End: 0x40c}
	bc.insert(b)

	bc.invalidate(0x900, 0x900, 0x900)

	if _, ok := bc.lookup(0x400); !ok {
		t.Fatalf("unrelated write should not evict an unrelated block")
	}
}

func TestBlockCacheInvalidatePrunesRangesButKeepsSurvivors(t *testing.T) {
	bc := newBlockCache()
	bc.insert(&Block{Start: 0x10, End: 0x50})
	// A second, later-starting block that also ends at 0x50: a write at
	// 0x50 invalidates the first (0x10 <= 0x50) but not the second
	// (0x60 > 0x50), since the second's bytes were decoded before 0x50
	// even if both share an end address in this synthetic case.
	bc.insert(&Block{Start: 0x60, End: 0x50})

	// The currently-executing block is unrelated, so only step 2's
	// end-index pruning is exercised here.
	bc.invalidate(0x50, 0x1000, 0x1000)

	if _, ok := bc.lookup(0x10); ok {
		t.Fatalf("block starting before the write and ending at it should be evicted")
	}
	if _, ok := bc.lookup(0x60); !ok {
		t.Fatalf("block starting after the write should survive")
	}
	starts, ok := bc.ranges[0x50]
	if !ok || len(starts) != 1 || starts[0] != 0x60 {
		t.Fatalf("ranges[0x50] = %v, %v; want [0x60], true", starts, ok)
	}
}

func TestBlockCacheInvalidateEmptiesRangesEntry(t *testing.T) {
	bc := newBlockCache()
	bc.insert(&Block{Start: 0x10, End: 0x50})

	bc.invalidate(0x50, 0x1000, 0x1000)

	if _, ok := bc.ranges[0x50]; ok {
		t.Fatalf("ranges entry should be cleaned up once no survivors remain")
	}
}
