package main

import "testing"

// newCPUTestConsole builds a Console sufficient for exercising pure register/
// COP0/memory-map behaviour, bypassing newConsole's BIOS-file requirement.
func newCPUTestConsole() *Console {
	return &Console{
		regs:   newRegisterFile(),
		cop0:   &cop0{},
		gte:    &gte{},
		memory: newMemoryMap(),
		gpu:    newGPU(false),
		cdrom:  newCDROM(false),
		pad:    newController(),
		log:    newLogger(false),
	}
}

func TestJRMisalignedTargetRaisesLoadAddressException(t *testing.T) {
	c := newCPUTestConsole()
	c.regs.write(8, 0x0000_0301)    // rs=r8, misaligned by 1
	word := uint32(0x08)<<21 | fnJR // rs field = 8, funct = JR

	wrote, _ := c.executeSpecial(word, 0x1000, new(uint32))
	if wrote {
		t.Fatalf("misaligned JR must not report a register write")
	}
	if got := c.regs.pc(); got == 0x0000_0301 {
		t.Fatalf("pc should not have been set to the misaligned target")
	}
	if cause := c.cop0.read(cop0CAUSE); bitRange(cause, 2, 7) != excLoadAddress.causeCode() {
		t.Fatalf("CAUSE = %#x, want cause code %#x (LoadAddress)", cause, excLoadAddress.causeCode())
	}
}

func TestJRAlignedTargetTaken(t *testing.T) {
	c := newCPUTestConsole()
	c.regs.write(8, 0x0000_0300)
	word := uint32(0x08)<<21 | fnJR
	nextPC := uint32(0)

	wrote, _ := c.executeSpecial(word, 0x1000, &nextPC)
	if wrote {
		t.Fatalf("JR writes no register, so it must not report a register write")
	}
	if nextPC != 0x0000_0300 {
		t.Fatalf("nextPC = %#x, want 0x300", nextPC)
	}
}

func TestJALRMisalignedTargetRaisesExceptionAndSkipsLink(t *testing.T) {
	c := newCPUTestConsole()
	c.regs.write(9, 0x0000_0702) // rs=r9, misaligned by 2
	// rs=9, rd=4, funct=JALR
	word := uint32(9)<<21 | uint32(4)<<11 | fnJALR
	nextPC := uint32(0)

	wrote, _ := c.executeSpecial(word, 0x2000, &nextPC)
	if wrote {
		t.Fatalf("misaligned JALR must not report a register write")
	}
	if c.regs.read(4) != 0 {
		t.Fatalf("link register must not be written when the target is misaligned")
	}
	if cause := c.cop0.read(cop0CAUSE); bitRange(cause, 2, 7) != excLoadAddress.causeCode() {
		t.Fatalf("CAUSE = %#x, want cause code %#x (LoadAddress)", cause, excLoadAddress.causeCode())
	}
}
