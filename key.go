package alternative

import (
	"fmt"
	"reflect"
)

// VendorID identifies the CPU implementer a replacement targets.
type VendorID uint16

// PatchID identifies an erratum or optional feature, scoped to a vendor.
type PatchID uint32

// Key names the (vendor, patch) pair a replacement or predicate is gated on.
//
// Keys are passed as type parameters and must be zero-sized types, so the
// identifiers they report are fixed when the program is compiled rather than
// carried in a value:
//
//	type zbb struct{}
//
//	func (zbb) Vendor() alternative.VendorID { return alternative.VendorGeneric }
//	func (zbb) Patch() alternative.PatchID   { return alternative.ExtZbb }
type Key interface {
	Vendor() VendorID
	Patch() PatchID
}

// resolvedKey holds the identifiers of a Key type together with its name for
// error messages.
type resolvedKey struct {
	Fact
	name string
	err  error
}

func keyOf[K Key]() resolvedKey {
	t := reflect.TypeFor[K]()

	rk := resolvedKey{name: t.String()}
	if t.Kind() == reflect.Interface || t.Size() != 0 {
		rk.err = fmt.Errorf("%w: key type %s must be a zero-sized type", ErrNotConstant, t)
		return rk
	}

	var k K
	rk.Vendor = k.Vendor()
	rk.Patch = k.Patch()
	return rk
}
