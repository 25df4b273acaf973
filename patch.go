package alternative

import (
	"github.com/sirupsen/logrus"
)

// Patcher applies alternative tables.
type Patcher struct {
	// Log receives a debug line per entry and an info line per pass. It
	// defaults to the logrus standard logger.
	Log logrus.FieldLogger
}

// Apply patches img with the standard logger. See Patcher.Apply.
func Apply(img *Image, facts Facts) {
	(&Patcher{}).Apply(img, facts)
}

// Apply rewrites the text of img so that for every site the first candidate
// whose key is in facts replaces the default code. Sites with no detected
// candidate keep their default.
//
// Apply must run exactly once per image, before anything can execute it,
// and performs no locking. It makes the new text visible to instruction
// fetch once at the end of the pass. Running it again with the same facts
// leaves the image unchanged.
func (p *Patcher) Apply(img *Image, facts Facts) {
	log := p.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithFields(logrus.Fields{
		"arch": img.Arch.Name(),
		"base": img.Base,
	})

	if img.passes > 0 {
		log.Warn("image patched more than once")
	}
	img.passes++

	table := img.Table()

	// The table carries no separate slot size. Each entry's NewLen is the
	// reconciled slot, so the largest one at a site covers the whole slot.
	slots := map[uint64]int{}
	for _, s := range table.Sites() {
		slots[s.Addr] = s.Slot
	}

	var applied, skipped int
	patched := map[uint64]bool{}

	for i, e := range table.All() {
		at := table.Addr(i)
		oldAddr, newAddr := e.Resolve(at)

		entryLog := log.WithFields(logrus.Fields{
			"entry":  i,
			"vendor": e.Vendor,
			"patch":  e.Patch,
		})

		if patched[oldAddr] {
			entryLog.Debug("site already patched by an earlier candidate")
			skipped++
			continue
		}
		if !facts.Has(e.Vendor, e.Patch) {
			entryLog.Debug("not detected")
			skipped++
			continue
		}

		slot := img.span(oldAddr, slots[oldAddr])
		n := copy(slot, img.span(newAddr, int(e.NewLen)))
		if err := img.Arch.Fill(slot[n:]); err != nil {
			panic(err)
		}

		patched[oldAddr] = true
		applied++
		entryLog.Debugf("patched %d bytes at 0x%x", len(slot), oldAddr)
	}

	img.barrier()

	log.WithFields(logrus.Fields{
		"applied": applied,
		"skipped": skipped,
	}).Info("alternatives applied")
}
