package alternative

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

type key1_1 struct{}

func (key1_1) Vendor() VendorID { return 1 }
func (key1_1) Patch() PatchID   { return 1 }

type key1_2 struct{}

func (key1_2) Vendor() VendorID { return 1 }
func (key1_2) Patch() PatchID   { return 2 }

type key1_5 struct{}

func (key1_5) Vendor() VendorID { return 1 }
func (key1_5) Patch() PatchID   { return 5 }

type key2_7 struct{}

func (key2_7) Vendor() VendorID { return 2 }
func (key2_7) Patch() PatchID   { return 7 }

type zbbKey struct{}

func (zbbKey) Vendor() VendorID { return VendorGeneric }
func (zbbKey) Patch() PatchID   { return ExtZbb }

type sifiveCIP453 struct{}

func (sifiveCIP453) Vendor() VendorID { return VendorSiFive }
func (sifiveCIP453) Patch() PatchID   { return ErrataSiFiveCIP453 }

// statefulKey carries its identifiers in a value, which isn't allowed.
type statefulKey struct {
	patch PatchID
}

func (statefulKey) Vendor() VendorID  { return 1 }
func (k statefulKey) Patch() PatchID { return k.patch }

// words encodes 32-bit instructions.
func words(insts ...uint32) []byte {
	var buf []byte
	for _, inst := range insts {
		buf = binary.LittleEndian.AppendUint32(buf, inst)
	}
	return buf
}

func testConfig(arch string, options ...string) Config {
	cfg := DefaultConfig()
	cfg.Arch = arch
	cfg.Enabled = true
	for _, opt := range options {
		cfg.Options[opt] = true
	}
	return cfg
}

func newTestBuilder(t *testing.T, cfg Config) *Builder {
	t.Helper()
	b, err := NewBuilder(cfg, 0x80000000)
	require.NoError(t, err)
	return b
}

func nops(t *testing.T, arch Arch, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	require.NoError(t, arch.Fill(buf))
	return buf
}
