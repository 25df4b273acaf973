//go:build !noalternative

package alternative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicates(t *testing.T) {
	for _, arch := range []string{"riscv64", "arm64", "amd64"} {
		t.Run(arch, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			b := newTestBuilder(t, testConfig(arch))
			likely := Likely[zbbKey](b, "likely zbb")
			unlikely := Unlikely[zbbKey](b, "unlikely zbb")
			other := Likely[sifiveCIP453](b, "likely cip453")

			img, err := b.Link()
			require.NoError(err)
			require.Len(img.Predicates(), 3)
			require.Equal(3, img.Table().Len())

			size := img.Arch.JumpSize()
			assert.Equal(0, likely.Offset)
			assert.Equal(size, unlikely.Offset)
			assert.Equal(2*size, other.Offset)
			assert.Len(img.Text(), 3*size)

			assert.False(likely.Eval(img))
			assert.False(unlikely.Eval(img))
			assert.False(other.Eval(img))

			p, _ := quietPatcher()
			p.Apply(img, NewFactSet(Fact{Vendor: VendorGeneric, Patch: ExtZbb}))

			assert.True(likely.Eval(img))
			assert.True(unlikely.Eval(img))
			assert.False(other.Eval(img))

			for _, e := range img.Table().All() {
				assert.EqualValues(size, e.NewLen)
			}
		})
	}
}

func TestPredicates_JumpStaysRelative(t *testing.T) {
	b := newTestBuilder(t, testConfig("riscv64"))
	b.Emit(words(0x00000513, 0x00000513))
	p := Unlikely[zbbKey](b, "unlikely")

	img, err := b.Link()
	require.NoError(t, err)

	patcher, _ := quietPatcher()
	patcher.Apply(img, NewFactSet(Fact{Vendor: VendorGeneric, Patch: ExtZbb}))

	// The jump was assembled for its own slot, not the replacement region.
	want := make([]byte, 4)
	require.NoError(t, RISCV64.EncodeJump(want, img.Addr(p.Offset), img.Addr(p.Offset+4)))
	assert.Equal(t, want, img.Text()[p.Offset:p.Offset+4])
}

func TestPredicates_Disabled(t *testing.T) {
	cfg := testConfig("riscv64")
	cfg.Enabled = false
	b := newTestBuilder(t, cfg)

	likely := Likely[zbbKey](b, "likely")
	unlikely := Unlikely[zbbKey](b, "unlikely")

	img, err := b.Link()
	require.NoError(t, err)
	assert.Zero(t, img.Table().Len())

	p, _ := quietPatcher()
	for _, facts := range []Facts{None, NewFactSet(Fact{Vendor: VendorGeneric, Patch: ExtZbb})} {
		p.Apply(img, facts)
		assert.False(t, likely.Eval(img))
		assert.False(t, unlikely.Eval(img))
	}
}

func TestPredicates_BadKey(t *testing.T) {
	b := newTestBuilder(t, testConfig("riscv64"))
	Likely[statefulKey](b, "stateful")

	_, err := b.Link()
	assert.ErrorIs(t, err, ErrNotConstant)
	assert.Contains(t, err.Error(), "stateful")
}
