//go:build !(amd64 || arm64 || 386 || arm || riscv64 || loong64 || mipsle || mips64le || ppc64le || wasm)

package main

// VRAM and register-file access use byte-order-sensitive stores that
// assume a little-endian host.
var _ = "gopsx requires a little-endian architecture" + 1
