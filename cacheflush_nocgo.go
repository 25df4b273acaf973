//go:build (arm64 || riscv64) && !cgo

package alternative

// arm64 and riscv64 need a C compiler to flush the instruction cache.
// Install a C compiler and build with CGO_ENABLED=1.
func cacheflush(buf []byte) {
	panic("alternative: flushing the instruction cache requires cgo on this architecture")
}
