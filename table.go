package alternative

import "iter"

// Table is the alternative table of an image: a contiguous run of encoded
// entries. It is read only once the image is linked.
type Table struct {
	data []byte

	// addr is the address of data[0], which the entries' relative offsets
	// resolve against.
	addr uint64
}

// Len returns the number of entries in the table.
func (t Table) Len() int {
	return len(t.data) / EntrySize
}

// Addr returns the address of entry i.
func (t Table) Addr(i int) uint64 {
	return t.addr + uint64(i*EntrySize)
}

// At decodes entry i.
func (t Table) At(i int) Entry {
	var e Entry
	// The slice is always long enough, so this can't fail.
	_ = e.UnmarshalBinary(t.data[i*EntrySize:])
	return e
}

// All iterates the entries in table order.
func (t Table) All() iter.Seq2[int, Entry] {
	return func(yield func(int, Entry) bool) {
		for i := range t.Len() {
			if !yield(i, t.At(i)) {
				return
			}
		}
	}
}

// TableSite groups the entries that share a default code address, in the
// order they appear in the table.
type TableSite struct {
	Addr    uint64
	Entries []int

	// Slot is the longest NewLen among the entries.
	Slot int
}

// Sites returns the table's entries grouped by the default code they patch,
// ordered by each site's first entry.
func (t Table) Sites() []TableSite {
	var sites []TableSite
	index := map[uint64]int{}

	for i, e := range t.All() {
		oldAddr, _ := e.Resolve(t.Addr(i))

		n, ok := index[oldAddr]
		if !ok {
			n = len(sites)
			index[oldAddr] = n
			sites = append(sites, TableSite{Addr: oldAddr})
		}

		sites[n].Entries = append(sites[n].Entries, i)
		sites[n].Slot = max(sites[n].Slot, int(e.NewLen))
	}

	return sites
}
