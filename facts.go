package alternative

import (
	"fmt"
	"slices"
	"strings"
)

// Facts reports which (vendor, patch) combinations apply to the running
// hardware. Implementations must be cheap, side-effect free and stable for
// the duration of an Apply pass.
type Facts interface {
	Has(vendor VendorID, patch PatchID) bool
}

// Fact is one detected (vendor, patch) combination.
type Fact struct {
	Vendor VendorID
	Patch  PatchID
}

func (f Fact) String() string {
	return fmt.Sprintf("%s/%d", f.Vendor, f.Patch)
}

// FactSet is an immutable snapshot of detected facts.
type FactSet struct {
	m map[Fact]struct{}
}

// NewFactSet returns a snapshot containing facts.
func NewFactSet(facts ...Fact) FactSet {
	m := make(map[Fact]struct{}, len(facts))
	for _, f := range facts {
		m[f] = struct{}{}
	}
	return FactSet{m: m}
}

// Has implements Facts.
func (s FactSet) Has(vendor VendorID, patch PatchID) bool {
	_, ok := s.m[Fact{Vendor: vendor, Patch: patch}]
	return ok
}

// Len returns the number of facts in the set.
func (s FactSet) Len() int {
	return len(s.m)
}

// Union returns a new set holding the facts of s and other.
func (s FactSet) Union(other FactSet) FactSet {
	m := make(map[Fact]struct{}, len(s.m)+len(other.m))
	for f := range s.m {
		m[f] = struct{}{}
	}
	for f := range other.m {
		m[f] = struct{}{}
	}
	return FactSet{m: m}
}

// Facts returns the facts in a stable order.
func (s FactSet) Facts() []Fact {
	facts := make([]Fact, 0, len(s.m))
	for f := range s.m {
		facts = append(facts, f)
	}
	slices.SortFunc(facts, func(a, b Fact) int {
		if a.Vendor != b.Vendor {
			return int(a.Vendor) - int(b.Vendor)
		}
		if a.Patch < b.Patch {
			return -1
		}
		if a.Patch > b.Patch {
			return 1
		}
		return 0
	})
	return facts
}

func (s FactSet) String() string {
	parts := make([]string, 0, len(s.m))
	for _, f := range s.Facts() {
		parts = append(parts, f.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// noFacts matches nothing.
type noFacts struct{}

func (noFacts) Has(VendorID, PatchID) bool { return false }

// None is a Facts that matches nothing. Applying it leaves every default in
// place.
var None Facts = noFacts{}
