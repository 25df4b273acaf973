package alternative

import "fmt"

// Image is a linked code image:
//
//	------------------------------------------------
//	| text | replacement code | .alternative table |
//	------------------------------------------------
//
// The text holds the default code of every site, already padded to its
// reconciled size. Replacement code and the table are only needed until the
// image has been patched and can then be dropped with Reclaim.
type Image struct {
	Arch Arch

	// Base is the address Mem[0] executes from.
	Base uint64

	// Mem holds the whole image.
	Mem []byte

	textLen  int
	replLen  int
	tableOff int
	tableLen int

	sites      []Site
	predicates []Predicate

	// flush makes writes to the text visible to instruction fetch.
	flush   func([]byte)
	flushes int
	passes  int
}

// Text returns the executable part of the image.
func (img *Image) Text() []byte {
	return img.Mem[:img.textLen]
}

// Replacements returns the secondary region holding replacement code.
func (img *Image) Replacements() []byte {
	return img.Mem[img.textLen : img.textLen+img.replLen]
}

// Table returns the alternative table of the image.
func (img *Image) Table() Table {
	return Table{
		data: img.Mem[img.tableOff : img.tableOff+img.tableLen],
		addr: img.Base + uint64(img.tableOff),
	}
}

// Sites returns the alternative sites emitted into the image, in build order.
func (img *Image) Sites() []Site {
	return img.sites
}

// Site returns the site with the given name.
func (img *Image) Site(name string) (Site, bool) {
	for _, s := range img.sites {
		if s.Name == name {
			return s, true
		}
	}
	return Site{}, false
}

// SiteCode returns the current text bytes of a site.
func (img *Image) SiteCode(s Site) []byte {
	return img.Text()[s.Offset : s.Offset+s.Size]
}

// Predicates returns the predicate sites emitted into the image.
func (img *Image) Predicates() []Predicate {
	return img.predicates
}

// Addr returns the address of the byte at offset off.
func (img *Image) Addr(off int) uint64 {
	return img.Base + uint64(off)
}

// span returns n bytes of the image starting at addr. Addresses outside the
// image panic; they can only come from a corrupt table.
func (img *Image) span(addr uint64, n int) []byte {
	if addr < img.Base || addr-img.Base+uint64(n) > uint64(len(img.Mem)) {
		panic(fmt.Sprintf("alternative: address 0x%x+%d outside image [0x%x, 0x%x)", addr, n, img.Base, img.Base+uint64(len(img.Mem))))
	}
	off := int(addr - img.Base)
	return img.Mem[off : off+n]
}

// Reclaim drops the replacement code and the table once the image has been
// patched, returning the number of bytes released. Later calls to Apply
// leave the image untouched.
func (img *Image) Reclaim() int {
	n := len(img.Mem) - img.textLen
	img.Mem = img.Mem[:img.textLen:img.textLen]
	img.replLen = 0
	img.tableOff = img.textLen
	img.tableLen = 0
	return n
}

func (img *Image) barrier() {
	img.flushes++
	if img.flush != nil {
		img.flush(img.Text())
	}
}

// Disassemble returns a listing of the image text.
func (img *Image) Disassemble() (string, error) {
	return img.Arch.Disassemble(img.Text(), img.Base)
}

// clone returns a copy of img whose Mem is mem, which must be a copy of
// img.Mem, executing from base.
func (img *Image) clone(mem []byte, base uint64) *Image {
	c := *img
	c.Mem = mem
	c.Base = base
	c.flush = nil
	c.flushes = 0
	c.passes = 0
	return &c
}
