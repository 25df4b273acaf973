package alternative

import (
	"fmt"
	"runtime"
)

// Arch describes the instruction set an image is built for.
type Arch interface {
	// Name is the GOARCH-style name of the instruction set.
	Name() string

	// Granule is the smallest instruction size. Every code block handed to
	// a Builder must be a multiple of it.
	Granule() int

	// Fill overwrites buf with no-op instructions. len(buf) must be a
	// multiple of Granule.
	Fill(buf []byte) error

	// JumpSize is the size of the slot used by predicate sites. Both the
	// jump and its no-op counterpart occupy exactly this many bytes.
	JumpSize() int

	// EncodeJump writes an unconditional jump from pc to target into the
	// first JumpSize bytes of buf.
	EncodeJump(buf []byte, pc, target uint64) error

	// IsJump reports whether slot holds an unconditional jump (true) or a
	// no-op (false). Anything else is an error.
	IsJump(slot []byte) (bool, error)

	// Disassemble returns a listing of code as if it were loaded at pc.
	Disassemble(code []byte, pc uint64) (string, error)
}

// LookupArch returns the Arch with the given GOARCH-style name.
func LookupArch(name string) (Arch, error) {
	switch name {
	case "riscv64":
		return RISCV64, nil
	case "arm64":
		return ARM64, nil
	case "amd64":
		return AMD64, nil
	}
	return nil, fmt.Errorf("unsupported architecture %q", name)
}

// HostArch returns the Arch of the running process, or RISCV64 if the host
// isn't supported.
func HostArch() Arch {
	arch, err := LookupArch(runtime.GOARCH)
	if err != nil {
		return RISCV64
	}
	return arch
}

func fillWord(buf []byte, word []byte) error {
	if len(buf)%len(word) != 0 {
		return fmt.Errorf("%w: %d bytes is not a multiple of the %d-byte instruction size", ErrLayout, len(buf), len(word))
	}
	for i := 0; i < len(buf); i += len(word) {
		copy(buf[i:], word)
	}
	return nil
}
