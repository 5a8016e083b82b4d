// cli.go - command line argument parsing

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
cli.go - Argument parsing

Hand-rolled os.Args scanning, matching the teacher's own main.go (which
never reaches for the flag package). Flags are recognised by either long
or short form; unrecognised arguments are a fatal usage error, printed
the same way the teacher prints its own usage message.
*/

package main

import (
	"fmt"
	"os"
)

// config is the parsed command line, handed to main for console setup.
type config struct {
	biosPath string
	cdPath   string
	steps    int64 // 0 means run forever
	logging  bool
	useJIT   bool
	headless bool
	width    int
	height   int
}

const (
	defaultWidth  = 1024
	defaultHeight = 512
)

func usage() {
	fmt.Println("Usage: gopsx -b bios.bin [options]")
	fmt.Println()
	fmt.Println("  -b, --bios path     BIOS image (required)")
	fmt.Println("  -i, --input path    CD-ROM image")
	fmt.Println("  -j, --jit           use the native x86-64 JIT tier")
	fmt.Println("  -l, --log           enable tracing")
	fmt.Println("  -g, --gpu           run headless (no display/audio)")
	fmt.Println("  -n, --steps N       stop after N steps, checked every 100000 (0 = run forever)")
	fmt.Println("  -s, --size WxH      window size, default 1024x512")
	fmt.Println("  -h, --help          show this message")
}

// parseArgs scans os.Args[1:]. It calls os.Exit directly on a usage error
// or an explicit -h/--help, matching the teacher's main.go convention of
// exiting straight from argument validation rather than returning an error
// up the stack.
func parseArgs(args []string) config {
	cfg := config{width: defaultWidth, height: defaultHeight}

	next := func(i *int) string {
		*i++
		if *i >= len(args) {
			usage()
			os.Exit(1)
		}
		return args[*i]
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-h", "--help":
			usage()
			os.Exit(0)
		case "-b", "--bios":
			cfg.biosPath = next(&i)
		case "-i", "--input":
			cfg.cdPath = next(&i)
		case "-j", "--jit":
			cfg.useJIT = true
		case "-l", "--log":
			cfg.logging = true
		case "-g", "--gpu":
			cfg.headless = true
		case "-n", "--steps":
			n, err := parseInt64(next(&i))
			if err != nil {
				fmt.Printf("invalid -n value: %v\n", err)
				os.Exit(1)
			}
			cfg.steps = n
		case "-s", "--size":
			w, h, err := parseSize(next(&i))
			if err != nil {
				fmt.Printf("invalid -s value: %v\n", err)
				os.Exit(1)
			}
			cfg.width, cfg.height = w, h
		default:
			fmt.Printf("unrecognised argument %q\n", args[i])
			usage()
			os.Exit(1)
		}
	}

	if cfg.biosPath == "" {
		usage()
		os.Exit(1)
	}
	return cfg
}

func parseInt64(s string) (int64, error) {
	var n int64
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

func parseSize(s string) (int, int, error) {
	var w, h int
	_, err := fmt.Sscanf(s, "%dx%d", &w, &h)
	return w, h, err
}
