//go:build linux && !noalternative

package alternative

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	b := newTestBuilder(t, testConfig("riscv64"))
	describe(b, true)
	pred := Unlikely[zbbKey](b, "zbb")
	img, err := b.Link()
	require.NoError(err)

	loaded, err := Load(img)
	require.NoError(err)
	t.Cleanup(func() { require.NoError(loaded.Free()) })

	assert.NotEqual(img.Base, loaded.Base)
	assert.Equal(img.Mem, loaded.Mem)

	facts := NewFactSet(Fact{Vendor: 1, Patch: 2}, Fact{Vendor: VendorGeneric, Patch: ExtZbb})
	p, _ := quietPatcher()
	p.Apply(img, facts)
	p.Apply(loaded.Image, facts)

	// Relative offsets resolve the same wherever the image lives.
	assert.Equal(img.Text(), loaded.Text())
	assert.True(pred.Eval(loaded.Image))
	assert.Equal(1, loaded.flushes)

	require.NoError(loaded.Seal())
	require.NoError(loaded.Seal())
	assert.True(loaded.Sealed())
	assert.True(bytes.Equal(img.Text(), loaded.Text()))
}

func TestLoad_Multiple(t *testing.T) {
	var images []*Loaded
	for range 3 {
		b := newTestBuilder(t, testConfig("arm64"))
		Likely[zbbKey](b, "zbb")
		img, err := b.Link()
		require.NoError(t, err)

		loaded, err := Load(img)
		require.NoError(t, err)
		images = append(images, loaded)

		Apply(loaded.Image, None)
		require.NoError(t, loaded.Seal())
	}

	for _, l := range images {
		assert.False(t, l.Predicates()[0].Eval(l.Image))
		require.NoError(t, l.Free())
	}
}

func TestLoad_SealIsPerImage(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	load := func() (*Loaded, Predicate) {
		b := newTestBuilder(t, testConfig("riscv64"))
		pred := Unlikely[zbbKey](b, "zbb")
		img, err := b.Link()
		require.NoError(err)

		loaded, err := Load(img)
		require.NoError(err)
		return loaded, pred
	}

	zbb := NewFactSet(Fact{Vendor: VendorGeneric, Patch: ExtZbb})
	p, _ := quietPatcher()

	a, predA := load()
	b, predB := load()
	defer func() { require.NoError(b.Free()) }()

	p.Apply(a.Image, zbb)
	require.NoError(a.Seal())

	assert.Equal("r-x", pagePerms(t, a.Base))
	assert.Equal("rwx", pagePerms(t, b.Base))

	// The other image is still writable and can be patched.
	p.Apply(b.Image, zbb)
	assert.True(predA.Eval(a.Image))
	assert.True(predB.Eval(b.Image))

	// Loading after a seal neither reprotects the sealed image nor lands
	// in its pages.
	c, _ := load()
	assert.Equal("r-x", pagePerms(t, a.Base))
	assert.Equal("rwx", pagePerms(t, c.Base))

	require.NoError(a.Free())
	assert.Equal("rwx", pagePerms(t, b.Base))
	assert.Equal("rwx", pagePerms(t, c.Base))

	require.NoError(b.Seal())
	assert.Equal("r-x", pagePerms(t, b.Base))
	assert.Equal("rwx", pagePerms(t, c.Base))

	require.NoError(c.Free())
	require.NoError(c.Free())
}

// pagePerms returns the rwx permissions of the mapping containing addr.
func pagePerms(t *testing.T, addr uint64) string {
	t.Helper()

	f, err := os.Open("/proc/self/maps")
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var start, end uint64
		var perms string
		_, err := fmt.Sscanf(scanner.Text(), "%x-%x %s", &start, &end, &perms)
		if err != nil {
			continue
		}
		if addr >= start && addr < end {
			return perms[:3]
		}
	}
	require.NoError(t, scanner.Err())

	t.Fatalf("0x%x is not mapped", addr)
	return ""
}
