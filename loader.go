// loader.go - BIOS and CD image file loading

/*
loader.go - File loading

BIOS loading follows the reference implementation's console/memory/mod.rs,
which treats "not exactly 512 KiB" as a fatal, unrecoverable condition
(§7) rather than something to retry or pad. File opening itself mirrors
the teacher's media_loader.go idiom: os.ReadFile, wrapped with a
descriptive error rather than returned bare.
*/

package main

import (
	"fmt"
	"os"
)

// loadBIOS reads the BIOS image at path. Size validation happens one
// layer up, in memoryMap.loadBIOS, so the error there can report the
// expected and actual sizes together.
func loadBIOS(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading BIOS %q: %w", path, err)
	}
	return data, nil
}

// loadCDImage reads a CD image at path into memory, per §6's "opaque
// byte stream; held in memory for later seeks" - the controller stub
// in cdrom.go doesn't interpret sector structure, so no size or format
// validation happens here.
func loadCDImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading CD image %q: %w", path, err)
	}
	return data, nil
}
