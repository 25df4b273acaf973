package alternative

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"golang.org/x/arch/x86/x86asm"
)

const (
	opcodeJMP = 0xe9 // JMP rel32

	jumpSizeX86 = 5 // 1 byte opcode + 4 byte address
)

// Recommended multi-byte NOP sequences, indexed by length.
var x86NOPs = [][]byte{
	1: {0x90},
	2: {0x66, 0x90},
	3: {0x0f, 0x1f, 0x00},
	4: {0x0f, 0x1f, 0x40, 0x00},
	5: {0x0f, 0x1f, 0x44, 0x00, 0x00},
	6: {0x66, 0x0f, 0x1f, 0x44, 0x00, 0x00},
	7: {0x0f, 0x1f, 0x80, 0x00, 0x00, 0x00, 0x00},
	8: {0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
	9: {0x66, 0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
}

type amd64 struct{}

// AMD64 is the x86-64 instruction set. Instructions are variable length, so
// padding is built from multi-byte NOPs.
var AMD64 Arch = amd64{}

func (amd64) Name() string  { return "amd64" }
func (amd64) Granule() int  { return 1 }
func (amd64) JumpSize() int { return jumpSizeX86 }

func (amd64) Fill(buf []byte) error {
	longest := len(x86NOPs) - 1
	for len(buf) > 0 {
		n := min(len(buf), longest)
		copy(buf, x86NOPs[n])
		buf = buf[n:]
	}
	return nil
}

func (amd64) EncodeJump(buf []byte, pc, target uint64) error {
	if len(buf) < jumpSizeX86 {
		return errors.New("buffer too small for jump instruction")
	}

	diff := int64(target - (pc + jumpSizeX86))
	if diff < math.MinInt32 || diff > math.MaxInt32 {
		return fmt.Errorf("JMP target out of range: %d bytes", diff)
	}

	buf[0] = opcodeJMP
	binary.LittleEndian.PutUint32(buf[1:], uint32(int32(diff)))
	return nil
}

func (amd64) IsJump(slot []byte) (bool, error) {
	if len(slot) < jumpSizeX86 {
		return false, errors.New("slot too small")
	}

	inst, err := x86asm.Decode(slot[:jumpSizeX86], 64)
	if err != nil {
		return false, fmt.Errorf("decode error %v: %w", slot[:jumpSizeX86], err)
	}
	if inst.Len != jumpSizeX86 {
		return false, fmt.Errorf("predicate slot holds a %d-byte instruction: %s", inst.Len, inst)
	}

	switch inst.Op {
	case x86asm.JMP:
		return true, nil
	case x86asm.NOP:
		return false, nil
	}
	return false, fmt.Errorf("unexpected instruction in predicate slot: %s", inst)
}

func (amd64) Disassemble(code []byte, pc uint64) (string, error) {
	var buf bytes.Buffer

	for i := 0; i < len(code); {
		inst, err := x86asm.Decode(code[i:], 64)
		if err != nil {
			return "", fmt.Errorf("decode error at offset %d: %w", i, err)
		}
		fmt.Fprintf(&buf, "0x%08x\t%-20s\t%s\n", pc+uint64(i), hex.EncodeToString(code[i:i+inst.Len]), inst.String())

		i += inst.Len
	}

	return buf.String(), nil
}
