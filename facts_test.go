package alternative

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFactSet(t *testing.T) {
	assert := assert.New(t)

	s := NewFactSet(
		Fact{Vendor: VendorTHead, Patch: ErrataTHeadCMO},
		Fact{Vendor: VendorGeneric, Patch: ExtZbb},
		Fact{Vendor: VendorGeneric, Patch: ExtZbb},
	)

	assert.Equal(2, s.Len())
	assert.True(s.Has(VendorTHead, ErrataTHeadCMO))
	assert.True(s.Has(VendorGeneric, ExtZbb))
	assert.False(s.Has(VendorSiFive, ErrataTHeadCMO))
	assert.Equal("[generic/30 thead/1]", s.String())

	u := s.Union(NewFactSet(Fact{Vendor: VendorSiFive, Patch: ErrataSiFiveCIP1200}))
	assert.Equal(3, u.Len())
	assert.True(u.Has(VendorSiFive, ErrataSiFiveCIP1200))
	assert.Equal(2, s.Len())

	var zero FactSet
	assert.False(zero.Has(VendorGeneric, ExtZbb))
	assert.False(None.Has(VendorGeneric, ExtZbb))
}

func TestVendorExtensions(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("andes", VendorAndes.String())
	assert.Equal("vendor(0x123)", VendorID(0x123).String())

	exts := VendorExtensions(VendorAndes)
	if assert.Len(exts, 1) {
		assert.Equal("xandespmu", exts[0].Name)
	}
	assert.Nil(VendorExtensions(VendorSiFive))

	facts := FactsFromExtensions(VendorAndes, []string{"XAndesPMU", "xunknown"})
	assert.Equal(1, facts.Len())
	assert.True(facts.Has(VendorAndes, ExtXAndesPMU))

	generic := FactsFromExtensions(VendorGeneric, []string{"zba", " zbb ", "v"})
	assert.Equal(2, generic.Len())
	assert.True(generic.Has(VendorGeneric, ExtZba))
	assert.True(generic.Has(VendorGeneric, ExtZbb))
}

func TestHostFacts(t *testing.T) {
	facts := HostFacts()
	for _, f := range facts.Facts() {
		assert.True(t, facts.Has(f.Vendor, f.Patch))
	}
}
