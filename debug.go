// debug.go - raw-terminal keypress watcher for headless runs

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
debug.go - Headless keyboard control

-g/--gpu runs with no ebiten window, so there is no Update loop polling
keys for pause/quit. This gives stdin the same job ebiten's window would:
raw mode (borrowed from the teacher's terminal_host.go, which used it to
feed a terminal-emulation MMIO device - here it drives the console
instead) turns off line buffering and local echo so single keypresses are
visible immediately, without requiring Enter.

'q' requests shutdown. 'l' is offered on the toggle channel, which
nothing in this program receives from, so it does not change tracing.
Anything else is ignored.
*/

package main

import (
	"os"
	"syscall"

	"golang.org/x/term"
)

// debugWatcher reads raw keypresses from stdin on its own goroutine and
// exposes them through quit/toggle channels. start returns a restore
// function that must run before process exit to leave the terminal sane.
type debugWatcher struct {
	quit   chan struct{}
	toggle chan struct{}
}

func newDebugWatcher() *debugWatcher {
	return &debugWatcher{
		quit:   make(chan struct{}),
		toggle: make(chan struct{}),
	}
}

// start puts stdin in raw mode and begins reading keys. If stdin is not a
// terminal (e.g. piped input in a test harness), it returns a no-op
// restore and never sends on the channels.
func (d *debugWatcher) start() (restore func()) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}
	}

	old, err := term.MakeRaw(fd)
	if err != nil {
		return func() {}
	}

	go func() {
		buf := make([]byte, 1)
		for {
			n, err := syscall.Read(fd, buf)
			if err != nil || n == 0 {
				return
			}
			switch buf[0] {
			case 'q':
				close(d.quit)
				return
			case 'l':
				select {
				case d.toggle <- struct{}{}:
				default:
				}
			}
		}
	}()

	return func() { _ = term.Restore(fd, old) }
}

// requested reports whether 'q' has been pressed, without blocking.
func (d *debugWatcher) requested() bool {
	select {
	case <-d.quit:
		return true
	default:
		return false
	}
}
