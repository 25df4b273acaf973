package alternative

import (
	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sys/cpu"
)

// HostFacts returns the facts detected on the machine running this process.
//
// Only generic ISA features are reported. Vendor errata need the detection
// done by firmware or the kernel and can't be discovered from user space;
// combine those in with FactSet.Union.
func HostFacts() FactSet {
	var facts []Fact
	add := func(ok bool, patch PatchID) {
		if ok {
			facts = append(facts, Fact{Vendor: VendorGeneric, Patch: patch})
		}
	}

	add(cpu.RISCV64.HasZba, ExtZba)
	add(cpu.RISCV64.HasZbb, ExtZbb)
	add(cpu.RISCV64.HasZbs, ExtZbs)

	add(cpu.X86.HasAVX2, FeatAVX2)
	add(cpu.X86.HasBMI2, FeatBMI2)
	add(cpu.X86.HasERMS, FeatERMS)
	add(cpu.X86.HasPOPCNT, FeatPOPCNT)

	if vendor, ok := hostVendor(); ok {
		// Every vendor-specific x86 entry is keyed on the generic feature
		// ids, so record the vendor's view of them as well.
		for _, f := range facts {
			facts = append(facts, Fact{Vendor: vendor, Patch: f.Patch})
		}
	}

	return NewFactSet(facts...)
}

func hostVendor() (VendorID, bool) {
	switch cpuid.CPU.VendorID {
	case cpuid.Intel:
		return VendorIntel, true
	case cpuid.AMD:
		return VendorAMD, true
	case cpuid.Hygon:
		return VendorHygon, true
	}
	return 0, false
}
