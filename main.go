// main.go - entry point

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

package main

import (
	"fmt"
	"os"
)

func boilerPlate() {
	fmt.Println("\n ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████")
	fmt.Println("▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀")
	fmt.Println("\nA PlayStation 1 emulator.")
	fmt.Println("(c) 2026 gopsx contributors")
	fmt.Println("https://github.com/intuitionamiga/gopsx")
	fmt.Println("License: GPLv3 or later")
}

func main() {
	boilerPlate()

	cfg := parseArgs(os.Args[1:])

	console, err := newConsole(cfg.biosPath, cfg.useJIT, cfg.logging, nil, nil)
	if err != nil {
		fmt.Printf("failed to start: %v\n", err)
		os.Exit(1)
	}

	var disp *display
	var snd *spu

	if !cfg.headless {
		disp = newDisplay(console.pad)
		console.display = disp

		snd, err = newSPU()
		if err != nil {
			fmt.Printf("audio disabled: %v\n", err)
		} else {
			console.audio = snd
		}
	}

	if cfg.cdPath != "" {
		image, err := loadCDImage(cfg.cdPath)
		if err != nil {
			fmt.Printf("failed to start: %v\n", err)
			os.Exit(1)
		}
		console.cdrom.loadImage(image)
		console.log.Tracef("CD-ROM image %q loaded (%d bytes); command interface is stub-level only", cfg.cdPath, len(image))
	}

	if cfg.headless {
		watcher := newDebugWatcher()
		restore := watcher.start()
		defer restore()
		runFor(console, cfg.steps, watcher)
		return
	}

	go runFor(console, cfg.steps, nil)

	if err := disp.run("gopsx", cfg.width, cfg.height); err != nil {
		fmt.Printf("display error: %v\n", err)
		os.Exit(1)
	}
	if snd != nil {
		snd.Close()
	}
}

// runFor drives the console until steps Console.Step calls have elapsed
// or (headless only) watcher observes 'q'. The step limit is checked only
// at each event poll, so a run stops at the first multiple of
// eventPollInterval Step calls that reaches steps; under the caching and
// JIT tiers a Step is a whole block, not one instruction.
// steps == 0 means run until the other condition fires.
func runFor(c *Console, steps int64, watcher *debugWatcher) {
	var i int64
	c.Run(func() bool {
		i += eventPollInterval
		if steps > 0 && i >= steps {
			return false
		}
		if watcher != nil && watcher.requested() {
			return false
		}
		return true
	})
}
