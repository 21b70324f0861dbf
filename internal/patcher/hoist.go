package patcher

import (
	"fmt"

	"github.com/ralt/rpmfiles/internal/models"
)

// gnuHashHoist lifts rtld(GNU_HASH) off the file records for the duration
// of the package-level append and puts it back afterwards.
type gnuHashHoist struct {
	files   []*models.FileRecord
	removed [][]models.Dependency
}

// collectGNUHash finds the files requiring rtld(GNU_HASH)
func collectGNUHash(files []models.FileRecord) *gnuHashHoist {
	h := &gnuHashHoist{}
	for i := range files {
		if models.IndexDependency(files[i].Requires, RtldGNUHash) >= 0 {
			h.files = append(h.files, &files[i])
		}
	}
	return h
}

// remove takes every rtld(GNU_HASH) entry off the collected files
func (h *gnuHashHoist) remove() {
	h.removed = make([][]models.Dependency, len(h.files))
	for i, f := range h.files {
		kept := make([]models.Dependency, 0, len(f.Requires))
		for _, dep := range f.Requires {
			if dep.Name == RtldGNUHash {
				h.removed[i] = append(h.removed[i], dep)
				continue
			}
			kept = append(kept, dep)
		}
		f.Requires = kept
	}
}

// restore appends the removed entries back to their files
func (h *gnuHashHoist) restore() {
	for i, f := range h.files {
		f.Requires = append(f.Requires, h.removed[i]...)
	}
}

// verify checks that every collected file requires rtld(GNU_HASH) again
func (h *gnuHashHoist) verify() error {
	for _, f := range h.files {
		if models.IndexDependency(f.Requires, RtldGNUHash) < 0 {
			return fmt.Errorf("%s lost its %s requirement", f.Name, RtldGNUHash)
		}
	}
	return nil
}
