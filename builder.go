package alternative

import (
	"errors"
	"fmt"
	"math"
)

// Candidate is one replacement for the default code of a site.
type Candidate struct {
	// Code is the replacement. It may be shorter or longer than the
	// default; both are padded to the longest block of the site.
	Code []byte

	// Option is the build option the candidate is gated on. When the
	// option is off the candidate is compiled out. Empty means always on.
	Option string

	key resolvedKey
}

// Replace returns a candidate keyed on K.
func Replace[K Key](code []byte, option string) Candidate {
	return Candidate{
		Code:   code,
		Option: option,
		key:    keyOf[K](),
	}
}

// Template describes one alternative site.
type Template struct {
	Name    string
	Default []byte

	// Candidates are tried in order when patching. The first one whose
	// key is detected wins, so put the most specific first.
	Candidates []Candidate

	// Slot optionally reserves a larger slot than the longest block. It
	// only takes effect when at least one candidate is compiled in.
	Slot int
}

// Site is an alternative site emitted into an image.
type Site struct {
	Name string

	// Offset is the offset of the site's slot in the image text.
	Offset int

	// Size is the reconciled slot size.
	Size int

	// Entries is the number of table entries emitted for the site.
	Entries int
}

type pendingEntry struct {
	oldOff int
	newOff int
	key    Fact
	newLen uint16
}

// Builder lays out an image. Errors are collected and reported by Link, so
// a whole image can be described before checking for failures.
type Builder struct {
	cfg  Config
	arch Arch
	base uint64

	text    []byte
	repl    []byte
	entries []pendingEntry

	sites      []Site
	predicates []Predicate

	errs   []error
	linked bool
}

// NewBuilder returns a builder for cfg linking the image at address base.
func NewBuilder(cfg Config, base uint64) (*Builder, error) {
	arch, err := LookupArch(cfg.Arch)
	if err != nil {
		return nil, err
	}
	if !compiledIn {
		cfg.Enabled = false
	}

	return &Builder{
		cfg:  cfg,
		arch: arch,
		base: base,
	}, nil
}

// Arch returns the instruction set the builder targets.
func (b *Builder) Arch() Arch {
	return b.arch
}

// PC returns the address the next emitted byte of text will execute from.
func (b *Builder) PC() uint64 {
	return b.base + uint64(len(b.text))
}

// Emit appends plain code to the text and returns its offset.
func (b *Builder) Emit(code []byte) int {
	off := len(b.text)
	if b.linked {
		b.errs = append(b.errs, ErrLinked)
		return off
	}
	if len(code)%b.arch.Granule() != 0 {
		b.errs = append(b.errs, fmt.Errorf("emit at offset %d: %w: %d bytes is not a multiple of %d", off, ErrLayout, len(code), b.arch.Granule()))
		return off
	}

	b.text = append(b.text, code...)
	return off
}

// Alternative emits a site. The returned Site is only meaningful if Link
// succeeds.
func (b *Builder) Alternative(t Template) Site {
	site := Site{Name: t.Name, Offset: len(b.text)}
	if b.linked {
		b.errs = append(b.errs, ErrLinked)
		return site
	}

	active, err := b.activeCandidates(t)
	if err == nil {
		site.Size, err = b.reconcile(t, active)
	}
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("site %q: %w", t.Name, err))
		return site
	}

	b.text = append(b.text, t.Default...)
	b.text = b.pad(b.text, site.Size-len(t.Default))

	for _, c := range active {
		newOff := len(b.repl)
		b.repl = append(b.repl, c.Code...)
		b.repl = b.pad(b.repl, site.Size-len(c.Code))

		b.entries = append(b.entries, pendingEntry{
			oldOff: site.Offset,
			newOff: newOff,
			key:    c.key.Fact,
			newLen: uint16(site.Size),
		})
	}
	site.Entries = len(active)

	b.sites = append(b.sites, site)
	return site
}

func (b *Builder) activeCandidates(t Template) ([]Candidate, error) {
	var active []Candidate
	var errs []error
	for i, c := range t.Candidates {
		if !b.cfg.enabled(c.Option) {
			continue
		}
		if c.key.name == "" {
			errs = append(errs, fmt.Errorf("candidate %d: %w: candidate has no key, build it with Replace", i, ErrNotConstant))
			continue
		}
		if c.key.err != nil {
			errs = append(errs, fmt.Errorf("candidate %d: %w", i, c.key.err))
			continue
		}
		active = append(active, c)
	}
	return active, errors.Join(errs...)
}

// reconcile returns the slot size shared by the default and every active
// candidate: the longest of them, or the reserved slot if larger.
func (b *Builder) reconcile(t Template, active []Candidate) (int, error) {
	granule := b.arch.Granule()

	if len(t.Default) == 0 {
		return 0, fmt.Errorf("%w: empty default code", ErrLayout)
	}
	if len(t.Default)%granule != 0 {
		return 0, fmt.Errorf("%w: default code is %d bytes, not a multiple of %d", ErrLayout, len(t.Default), granule)
	}
	if len(active) == 0 {
		return len(t.Default), nil
	}

	slot := len(t.Default)
	for i, c := range active {
		if len(c.Code)%granule != 0 {
			return 0, fmt.Errorf("%w: candidate %d (%s) is %d bytes, not a multiple of %d", ErrLayout, i, c.key.name, len(c.Code), granule)
		}
		slot = max(slot, len(c.Code))
	}

	if t.Slot != 0 {
		if t.Slot < slot {
			return 0, fmt.Errorf("%w: reserved slot of %d bytes is smaller than the %d-byte longest block", ErrLayout, t.Slot, slot)
		}
		if t.Slot%granule != 0 {
			return 0, fmt.Errorf("%w: reserved slot of %d bytes is not a multiple of %d", ErrLayout, t.Slot, granule)
		}
		slot = t.Slot
	}

	if slot > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %d-byte slot does not fit a 16-bit length", ErrLayout, slot)
	}
	return slot, nil
}

func (b *Builder) pad(buf []byte, n int) []byte {
	start := len(buf)
	buf = append(buf, make([]byte, n)...)
	if err := b.arch.Fill(buf[start:]); err != nil {
		// reconcile only hands out multiples of the granule.
		panic(err)
	}
	return buf
}

// Link lays out the image and resolves every table entry. The builder can't
// be used afterwards.
func (b *Builder) Link() (*Image, error) {
	if b.linked {
		return nil, ErrLinked
	}
	b.linked = true

	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	textLen := len(b.text)
	replOff := textLen
	tableOff := replOff + len(b.repl)
	tableLen := len(b.entries) * EntrySize
	if tableLen > 0 {
		// Entries hold 32-bit fields, keep them aligned.
		tableOff = (tableOff + 3) &^ 3
	}

	mem := make([]byte, tableOff+tableLen)
	copy(mem, b.text)
	copy(mem[replOff:], b.repl)

	var errs []error
	for i, pe := range b.entries {
		off := tableOff + i*EntrySize
		at := b.base + uint64(off)

		e, err := NewEntry(at, b.base+uint64(pe.oldOff), b.base+uint64(replOff+pe.newOff), pe.key.Vendor, pe.key.Patch, pe.newLen)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		if err := e.PutBinary(mem[off:]); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Image{
		Arch:       b.arch,
		Base:       b.base,
		Mem:        mem,
		textLen:    textLen,
		replLen:    len(b.repl),
		tableOff:   tableOff,
		tableLen:   tableLen,
		sites:      b.sites,
		predicates: b.predicates,
	}, nil
}
