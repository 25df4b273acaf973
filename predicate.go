package alternative

import "fmt"

// Predicate is a boolean check whose answer is a single patchable
// instruction slot. It reads false until Apply detects its key.
//
// A likely predicate is a jump that gets patched to a no-op, so the
// patched (expected) configuration falls through. An unlikely predicate is
// the other way around: a no-op that gets patched to a jump.
type Predicate struct {
	Name   string
	Key    Fact
	Likely bool

	// Offset is the offset of the slot in the image text.
	Offset int

	// live is false when the mechanism is disabled, in which case the
	// predicate always reads false.
	live bool
}

// Likely emits a predicate that reads true once K is detected, with the
// no-op on the detected path.
func Likely[K Key](b *Builder, name string) Predicate {
	return emitPredicate(b, name, keyOf[K](), true)
}

// Unlikely emits a predicate that reads true once K is detected, with the
// no-op on the undetected path.
func Unlikely[K Key](b *Builder, name string) Predicate {
	return emitPredicate(b, name, keyOf[K](), false)
}

func emitPredicate(b *Builder, name string, key resolvedKey, likely bool) Predicate {
	p := Predicate{
		Name:   name,
		Key:    key.Fact,
		Likely: likely,
		Offset: len(b.text),
	}

	if key.err != nil {
		b.errs = append(b.errs, fmt.Errorf("predicate %q: %w", name, key.err))
		return p
	}

	size := b.arch.JumpSize()
	pc := b.PC()

	// The jump lands just past the slot. It is relative, so it still lands
	// there once copied over the default.
	jump := make([]byte, size)
	if err := b.arch.EncodeJump(jump, pc, pc+uint64(size)); err != nil {
		b.errs = append(b.errs, fmt.Errorf("predicate %q: %w", name, err))
		return p
	}
	nop := make([]byte, size)
	if err := b.arch.Fill(nop); err != nil {
		b.errs = append(b.errs, fmt.Errorf("predicate %q: %w", name, err))
		return p
	}

	old, repl := jump, nop
	if !likely {
		old, repl = nop, jump
	}

	site := b.Alternative(Template{
		Name:       name,
		Default:    old,
		Candidates: []Candidate{{Code: repl, key: key}},
	})

	p.live = site.Entries > 0
	b.predicates = append(b.predicates, p)
	return p
}

// Eval reports whether the predicate's key was detected when img was
// patched. img must be the image the predicate was built into.
func (p Predicate) Eval(img *Image) bool {
	if !p.live {
		return false
	}

	jump, err := img.Arch.IsJump(img.Text()[p.Offset:])
	if err != nil {
		panic(fmt.Sprintf("alternative: predicate %q: %v", p.Name, err))
	}

	if p.Likely {
		// Falling through means the replacement no-op is in place.
		return !jump
	}
	return jump
}
