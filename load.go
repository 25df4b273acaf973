//go:build unix

package alternative

import (
	"errors"
	"fmt"
	"slices"
	"unsafe"

	"github.com/pboyd/malloc"
	"golang.org/x/sys/unix"
)

const (
	mprotectRX  = unix.PROT_READ | unix.PROT_EXEC
	mprotectRWX = unix.PROT_READ | unix.PROT_WRITE | unix.PROT_EXEC
)

// The arena spends one word on its free list head and one on the block
// header.
const arenaOverhead = 2 * 16

// Loaded is an image copied into executable memory.
//
// Every loaded image has its own mapping, so sealing or freeing one never
// changes the protection of another. The memory stays writable until Seal
// so Apply can patch it. Call Apply once, then Seal, before executing
// anything in it.
type Loaded struct {
	*Image

	backend *codeBackend
	sealed  bool
}

// Load copies img into executable memory. The copy runs from a new base
// address; its table still resolves because every offset in it is relative.
func Load(img *Image) (*Loaded, error) {
	size := max(len(img.Mem), 1)

	be := &codeBackend{ArenaBackend: malloc.MmapBackend(malloc.MmapProt(mprotectRWX))}
	arena := malloc.NewArena(uint64(size+arenaOverhead), malloc.Backend(be))
	if arena == nil {
		be.release()
		return nil, errors.New("unable to initialize arena")
	}

	code, err := malloc.MallocSlice[byte](arena, size)
	if err != nil {
		be.release()
		return nil, fmt.Errorf("unable to allocate %d bytes: %w", size, err)
	}
	copy(code, img.Mem)

	base := uint64(uintptr(unsafe.Pointer(unsafe.SliceData(code))))
	loaded := img.clone(code[:len(img.Mem)], base)
	loaded.flush = cacheflush

	return &Loaded{Image: loaded, backend: be}, nil
}

// Sealed reports whether Seal has been called.
func (l *Loaded) Sealed() bool {
	return l.sealed
}

// Seal makes the image's pages read-only and executable.
func (l *Loaded) Seal() error {
	if l.sealed {
		return nil
	}
	if err := l.backend.protect(mprotectRX); err != nil {
		return fmt.Errorf("unable to seal image: %w", err)
	}
	l.sealed = true
	return nil
}

// Free unmaps the code memory. Nothing may execute it afterwards.
func (l *Loaded) Free() error {
	if l.backend == nil {
		return nil
	}
	if err := l.backend.release(); err != nil {
		return fmt.Errorf("unable to free image: %w", err)
	}

	l.backend = nil
	l.Image = nil
	return nil
}

// codeBackend is an arena backend that remembers every mapping it hands
// out, so one image's memory can be protected and unmapped without touching
// any other.
type codeBackend struct {
	malloc.ArenaBackend
	bufs [][]byte
}

func (b *codeBackend) Grow(buf []byte, size uintptr) ([]byte, error) {
	newBuf, err := b.ArenaBackend.Grow(buf, size)
	if err != nil {
		return nil, err
	}

	// An mremap'd buffer keeps its start address and replaces the old one.
	b.bufs = slices.DeleteFunc(b.bufs, func(old []byte) bool {
		return unsafe.SliceData(old) == unsafe.SliceData(newBuf)
	})
	b.bufs = append(b.bufs, newBuf)
	return newBuf, nil
}

func (b *codeBackend) protect(prot int) error {
	errs := make([]error, 0, len(b.bufs))
	for _, buf := range b.bufs {
		errs = append(errs, mprotect(buf, prot))
	}
	return errors.Join(errs...)
}

func (b *codeBackend) release() error {
	fb, ok := b.ArenaBackend.(malloc.FreeableArenaBackend)
	if !ok {
		return errors.New("backend cannot free memory")
	}

	errs := make([]error, 0, len(b.bufs))
	for _, buf := range b.bufs {
		errs = append(errs, fb.Free(buf))
	}
	b.bufs = nil
	return errors.Join(errs...)
}
