package main

import (
	"strconv"
	"testing"
)

// newTestConsole builds a caching-tier Console directly, without
// newConsole, so tests never need a real BIOS dump; no BIOS image is
// loaded into the memory map.
func newTestConsole(t *testing.T) *Console {
	t.Helper()
	c := &Console{
		regs:   newRegisterFile(),
		cop0:   &cop0{},
		gte:    &gte{},
		memory: newMemoryMap(),
		gpu:    newGPU(false),
		cdrom:  newCDROM(false),
		pad:    newController(),
		log:    newLogger(false),
	}
	c.cache = newBlockCache()
	c.tier = tierCaching
	return c
}

func TestScriptEnginePressRelease(t *testing.T) {
	c := newTestConsole(t)
	e := newScriptEngine(c)
	defer e.Close()

	if err := e.RunString(`psx.press("cross")`); err != nil {
		t.Fatalf("RunString press failed: %v", err)
	}
	if !c.pad.held[buttonCross] {
		t.Fatalf("cross should be held after psx.press(\"cross\")")
	}

	if err := e.RunString(`psx.release("cross")`); err != nil {
		t.Fatalf("RunString release failed: %v", err)
	}
	if c.pad.held[buttonCross] {
		t.Fatalf("cross should not be held after psx.release(\"cross\")")
	}
}

func TestScriptEngineUnknownButtonErrors(t *testing.T) {
	c := newTestConsole(t)
	e := newScriptEngine(c)
	defer e.Close()

	if err := e.RunString(`psx.press("select")`); err == nil {
		t.Fatalf("expected an error for an unmodeled button name")
	}
}

func TestScriptEnginePC(t *testing.T) {
	c := newTestConsole(t)
	e := newScriptEngine(c)
	defer e.Close()

	if err := e.RunString(`
		pc = psx.pc()
		if pc ~= ` + strconv.FormatUint(uint64(initialPC), 10) + ` then error("unexpected pc") end
	`); err != nil {
		t.Fatalf("RunString pc check failed: %v", err)
	}
}

func TestScriptEnginePixelReadsVRAM(t *testing.T) {
	c := newTestConsole(t)
	c.gpu.vram[0] = 0x34
	c.gpu.vram[1] = 0x12

	e := newScriptEngine(c)
	defer e.Close()

	if err := e.RunString(`
		p = psx.pixel(0, 0)
		if p ~= 0x1234 then error("pixel mismatch: " .. p) end
	`); err != nil {
		t.Fatalf("RunString pixel check failed: %v", err)
	}
}
