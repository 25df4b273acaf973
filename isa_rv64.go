package alternative

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/arch/riscv64/riscv64asm"
)

const (
	// addi x0, x0, 0
	riscvNOP = uint32(0x00000013)

	// JAL with rd=x0 is encoded as:
	// --------------------------------------------------------------
	// | imm[20] | imm[10:1] | imm[11] | imm[19:12] | 00000 | 1101111 |
	// --------------------------------------------------------------
	riscvJAL = uint32(0x6f)

	riscvRdMask = uint32(0x1f << 7)
)

type riscv64 struct{}

// RISCV64 is the 64-bit RISC-V instruction set without compressed
// instructions, so every instruction in a site is 4 bytes.
var RISCV64 Arch = riscv64{}

func (riscv64) Name() string  { return "riscv64" }
func (riscv64) Granule() int  { return 4 }
func (riscv64) JumpSize() int { return 4 }

func (riscv64) Fill(buf []byte) error {
	return fillWord(buf, binary.LittleEndian.AppendUint32(nil, riscvNOP))
}

func (riscv64) EncodeJump(buf []byte, pc, target uint64) error {
	if len(buf) < 4 {
		return errors.New("buffer too small for jump instruction")
	}

	offset := int64(target - pc)
	if offset%2 != 0 {
		return fmt.Errorf("JAL target 0x%x is not 2-byte aligned", target)
	}
	if offset < -(1<<20) || offset >= (1<<20) {
		return fmt.Errorf("JAL target out of range: %d bytes exceeds 1MiB", offset)
	}

	imm := uint32(offset)
	inst := riscvJAL
	inst |= (imm >> 20 & 1) << 31
	inst |= (imm >> 1 & 0x3ff) << 21
	inst |= (imm >> 11 & 1) << 20
	inst |= (imm >> 12 & 0xff) << 12
	binary.LittleEndian.PutUint32(buf, inst)
	return nil
}

func (riscv64) IsJump(slot []byte) (bool, error) {
	if len(slot) < 4 {
		return false, errors.New("slot too small")
	}

	raw := binary.LittleEndian.Uint32(slot)
	if raw == riscvNOP {
		return false, nil
	}

	inst, err := riscv64asm.Decode(slot[:4])
	if err != nil {
		return false, fmt.Errorf("decode error %v: %w", slot[:4], err)
	}
	if inst.Op == riscv64asm.JAL && raw&riscvRdMask == 0 {
		return true, nil
	}
	return false, fmt.Errorf("unexpected instruction in predicate slot: %s", inst)
}

func (riscv64) Disassemble(code []byte, pc uint64) (string, error) {
	var buf bytes.Buffer

	for i := 0; i < len(code)&^3; i += 4 {
		var asm string
		inst, err := riscv64asm.Decode(code[i : i+4])
		if err == nil {
			asm = inst.String()
		} else {
			asm = "?"
		}
		fmt.Fprintf(&buf, "0x%08x\t%-20s\t%s\n", pc+uint64(i), hex.EncodeToString(code[i:i+4]), asm)
	}

	return buf.String(), nil
}
