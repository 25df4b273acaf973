package alternative

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/arch/arm64/arm64asm"
)

const (
	// -----------------------------------
	// | 000101 | ... 26 bit address ... |
	// -----------------------------------
	_B = uint32(5 << 26)

	bOpcodeMask = uint32(0x3f << 26)

	arm64NOP = uint32(0xd503201f)
)

type arm64 struct{}

// ARM64 is the AArch64 instruction set.
var ARM64 Arch = arm64{}

func (arm64) Name() string  { return "arm64" }
func (arm64) Granule() int  { return 4 }
func (arm64) JumpSize() int { return 4 }

func (arm64) Fill(buf []byte) error {
	return fillWord(buf, binary.LittleEndian.AppendUint32(nil, arm64NOP))
}

func (arm64) EncodeJump(buf []byte, pc, target uint64) error {
	if len(buf) < 4 {
		return errors.New("buffer too small for jump instruction")
	}

	offset := int64(target - pc)
	if offset%4 != 0 {
		return fmt.Errorf("B target 0x%x is not 4-byte aligned", target)
	}
	if offset < -(1<<27) || offset >= (1<<27) {
		return fmt.Errorf("B target out of range: %d bytes exceeds 128MiB", offset)
	}

	inst := _B | (uint32(offset>>2) & (1<<26 - 1))
	binary.LittleEndian.PutUint32(buf, inst)
	return nil
}

func (arm64) IsJump(slot []byte) (bool, error) {
	if len(slot) < 4 {
		return false, errors.New("slot too small")
	}

	raw := binary.LittleEndian.Uint32(slot)
	if raw == arm64NOP {
		return false, nil
	}

	inst, err := arm64asm.Decode(slot[:4])
	if err != nil {
		return false, fmt.Errorf("decode error %v: %w", slot[:4], err)
	}
	if inst.Op == arm64asm.B && raw&bOpcodeMask == _B {
		return true, nil
	}
	return false, fmt.Errorf("unexpected instruction in predicate slot: %s", inst)
}

func (arm64) Disassemble(code []byte, pc uint64) (string, error) {
	var buf bytes.Buffer

	for i := 0; i < len(code)&^3; i += 4 {
		var asm string
		inst, err := arm64asm.Decode(code[i:])
		if err == nil {
			asm = inst.String()
		} else {
			asm = "?"
		}
		fmt.Fprintf(&buf, "0x%08x\t%-20s\t%s\n", pc+uint64(i), hex.EncodeToString(code[i:i+4]), asm)
	}

	return buf.String(), nil
}
