// cdrom.go - CD-ROM command/parameter/response interface

/*
cdrom.go - CD-ROM controller, stub level

The reference implementation only gives the CD-ROM controller one fully
modeled command: 0x19 (Test) sub-function 0x20, which returns the drive's
hardcoded firmware date/version four-byte response. Every other command
is accepted, logged when logging is enabled, and answered with an empty
response - matching the reference's own "not implemented, log and move
on" behaviour rather than raising an exception for unknown commands.
*/

package main

// cdrom holds the command/parameter FIFOs and the pending response queue
// the memory map's single-byte CD ports read from, plus the opaque image
// byte stream -i/--input loads (§6) - this stub never seeks into it, but
// holding it in memory is part of the interface this controller presents.
type cdrom struct {
	params   []byte
	response []byte
	image    []byte
	logging  bool
}

func newCDROM(logging bool) *cdrom {
	return &cdrom{logging: logging}
}

// loadImage replaces the held CD image byte stream wholesale.
func (c *cdrom) loadImage(data []byte) {
	c.image = data
}

// writeCommand executes a command byte against the accumulated
// parameters, then clears the parameter FIFO for the next command.
func (c *cdrom) writeCommand(v uint32) {
	cmd := byte(v)
	switch {
	case cmd == 0x19 && len(c.params) > 0 && c.params[0] == 0x20:
		// Test/Version: year, month, day, version - fixed stub values.
		c.response = []byte{0x94, 0x09, 0x19, 0xc0}
	default:
		newLogger(c.logging).Tracef("cdrom: unimplemented command %#02x", cmd)
		c.response = nil
	}
	c.params = nil
}

// writeParam appends a parameter byte ahead of the next command.
func (c *cdrom) writeParam(v uint32) {
	c.params = append(c.params, byte(v))
}

// readResponse pops the oldest queued response byte, or 0 if empty.
func (c *cdrom) readResponse() uint32 {
	if len(c.response) == 0 {
		return 0
	}
	b := c.response[0]
	c.response = c.response[1:]
	return uint32(b)
}
