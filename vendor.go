package alternative

import (
	"fmt"
	"strings"
)

// VendorGeneric marks entries that apply whenever their patch id is detected,
// regardless of vendor. Predicate sites use it.
const VendorGeneric VendorID = 0

// RISC-V vendor ids, the JEDEC manufacturer id reported in mvendorid.
const (
	VendorMicrochip VendorID = 0x029
	VendorMIPS      VendorID = 0x127
	VendorAndes     VendorID = 0x31e
	VendorSiFive    VendorID = 0x489
	VendorTHead     VendorID = 0x5b7
)

// x86 vendors have no JEDEC id in this scheme. They live above the 12-bit
// JEDEC range so they can't collide.
const (
	VendorIntel VendorID = 0x8000 + iota
	VendorAMD
	VendorHygon
)

var vendorNames = map[VendorID]string{
	VendorGeneric:   "generic",
	VendorMicrochip: "microchip",
	VendorMIPS:      "mips",
	VendorAndes:     "andes",
	VendorSiFive:    "sifive",
	VendorTHead:     "thead",
	VendorIntel:     "intel",
	VendorAMD:       "amd",
	VendorHygon:     "hygon",
}

func (v VendorID) String() string {
	if name, ok := vendorNames[v]; ok {
		return name
	}
	return fmt.Sprintf("vendor(0x%x)", uint16(v))
}

// Generic ISA extension patch ids, numbered like the Linux RISC-V ISA
// extension ids. Used with VendorGeneric.
const (
	ExtZbb         PatchID = 30
	ExtZicbom      PatchID = 31
	ExtZihintpause PatchID = 32
	ExtSvnapot     PatchID = 33
	ExtZicboz      PatchID = 34
	ExtZba         PatchID = 37
	ExtZbs         PatchID = 38
)

// Generic x86 feature patch ids, used with VendorGeneric.
const (
	FeatAVX2 PatchID = 0x1000 + iota
	FeatBMI2
	FeatERMS
	FeatPOPCNT
)

// Vendor errata patch ids.
const (
	ErrataSiFiveCIP453  PatchID = 0
	ErrataSiFiveCIP1200 PatchID = 1

	ErrataTHeadPBMT PatchID = 0
	ErrataTHeadCMO  PatchID = 1
	ErrataTHeadPMU  PatchID = 2

	ErrataAndesNoIOCP PatchID = 0
)

// Vendor extension ids.
const (
	ExtXAndesPMU PatchID = 0
)

// ExtData describes one ISA extension as named in a devicetree.
type ExtData struct {
	Name     string
	Property string
	ID       PatchID
}

var genericExtensions = []ExtData{
	{Name: "zbb", Property: "zbb", ID: ExtZbb},
	{Name: "zicbom", Property: "zicbom", ID: ExtZicbom},
	{Name: "zihintpause", Property: "zihintpause", ID: ExtZihintpause},
	{Name: "svnapot", Property: "svnapot", ID: ExtSvnapot},
	{Name: "zicboz", Property: "zicboz", ID: ExtZicboz},
	{Name: "zba", Property: "zba", ID: ExtZba},
	{Name: "zbs", Property: "zbs", ID: ExtZbs},
}

// All Andes vendor extensions known here.
var andesExtensions = []ExtData{
	{Name: "xandespmu", Property: "xandespmu", ID: ExtXAndesPMU},
}

var vendorExtensions = map[VendorID][]ExtData{
	VendorGeneric: genericExtensions,
	VendorAndes:   andesExtensions,
}

// VendorExtensions returns the extension table of vendor, or nil if it has
// none.
func VendorExtensions(vendor VendorID) []ExtData {
	return vendorExtensions[vendor]
}

// FactsFromExtensions resolves extension names, such as the entries of a
// riscv,isa-extensions devicetree property, to facts for vendor. Names are
// matched case-insensitively against each extension's property. Unknown
// names are ignored.
func FactsFromExtensions(vendor VendorID, names []string) FactSet {
	table := VendorExtensions(vendor)

	var facts []Fact
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		for _, ext := range table {
			if ext.Property == name {
				facts = append(facts, Fact{Vendor: vendor, Patch: ext.ID})
				break
			}
		}
	}
	return NewFactSet(facts...)
}
