package alternative

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EntrySize is the size in bytes of one encoded Entry.
const EntrySize = 16

// Entry describes one candidate replacement for one patch site.
//
// Encoded layout, little-endian:
//
//	-------------------------------------------------------------
//	| old_offset:4 | new_offset:4 | vendor:2 | new_len:2 | patch:4 |
//	-------------------------------------------------------------
//
// Both offsets are relative to the address of the entry itself, so a table
// can move with its image without relocation.
type Entry struct {
	OldOffset int32
	NewOffset int32
	Vendor    VendorID

	// NewLen is the size of the site's reconciled slot, which is also the
	// padded size of the replacement. Apply patches exactly the largest
	// NewLen among a site's entries, so an entry must not record the raw,
	// unpadded length of its replacement.
	NewLen uint16

	Patch PatchID
}

// NewEntry returns the entry stored at address at which points to default
// code at oldAddr and replacement code at newAddr.
func NewEntry(at, oldAddr, newAddr uint64, vendor VendorID, patch PatchID, newLen uint16) (Entry, error) {
	oldOff, err := relative(at, oldAddr)
	if err != nil {
		return Entry{}, fmt.Errorf("default code: %w", err)
	}
	newOff, err := relative(at, newAddr)
	if err != nil {
		return Entry{}, fmt.Errorf("replacement code: %w", err)
	}

	return Entry{
		OldOffset: oldOff,
		NewOffset: newOff,
		Vendor:    vendor,
		NewLen:    newLen,
		Patch:     patch,
	}, nil
}

func relative(at, target uint64) (int32, error) {
	diff := int64(target - at)
	if diff < math.MinInt32 || diff > math.MaxInt32 {
		return 0, fmt.Errorf("%w: offset %d from 0x%x does not fit in 32 bits", ErrLayout, diff, at)
	}
	return int32(diff), nil
}

// Resolve returns the absolute default and replacement addresses for an entry
// stored at address at.
func (e Entry) Resolve(at uint64) (oldAddr, newAddr uint64) {
	oldAddr = uint64(int64(at) + int64(e.OldOffset))
	newAddr = uint64(int64(at) + int64(e.NewOffset))
	return oldAddr, newAddr
}

// Key returns the (vendor, patch) pair the entry is gated on.
func (e Entry) Key() Fact {
	return Fact{Vendor: e.Vendor, Patch: e.Patch}
}

func (e Entry) String() string {
	return fmt.Sprintf("{old %+d new %+d %s len %d}", e.OldOffset, e.NewOffset, e.Key(), e.NewLen)
}

// AppendBinary appends the encoded entry to buf.
func (e *Entry) AppendBinary(buf []byte) ([]byte, error) {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(e.OldOffset))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(e.NewOffset))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(e.Vendor))
	buf = binary.LittleEndian.AppendUint16(buf, e.NewLen)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(e.Patch))
	return buf, nil
}

// PutBinary encodes the entry into the first EntrySize bytes of buf.
func (e *Entry) PutBinary(buf []byte) error {
	if len(buf) < EntrySize {
		return fmt.Errorf("entry needs %d bytes, got %d", EntrySize, len(buf))
	}

	binary.LittleEndian.PutUint32(buf[0:], uint32(e.OldOffset))
	binary.LittleEndian.PutUint32(buf[4:], uint32(e.NewOffset))
	binary.LittleEndian.PutUint16(buf[8:], uint16(e.Vendor))
	binary.LittleEndian.PutUint16(buf[10:], e.NewLen)
	binary.LittleEndian.PutUint32(buf[12:], uint32(e.Patch))
	return nil
}

// MarshalBinary returns the 16-byte encoding of the entry.
func (e *Entry) MarshalBinary() ([]byte, error) {
	return e.AppendBinary(make([]byte, 0, EntrySize))
}

// UnmarshalBinary decodes an entry from the first EntrySize bytes of buf.
func (e *Entry) UnmarshalBinary(buf []byte) error {
	if len(buf) < EntrySize {
		return fmt.Errorf("entry needs %d bytes, got %d", EntrySize, len(buf))
	}

	e.OldOffset = int32(binary.LittleEndian.Uint32(buf[0:]))
	e.NewOffset = int32(binary.LittleEndian.Uint32(buf[4:]))
	e.Vendor = VendorID(binary.LittleEndian.Uint16(buf[8:]))
	e.NewLen = binary.LittleEndian.Uint16(buf[10:])
	e.Patch = PatchID(binary.LittleEndian.Uint32(buf[12:]))
	return nil
}
