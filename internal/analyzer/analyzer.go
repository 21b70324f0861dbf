// Package analyzer classifies payload entries from their metadata and a
// captured prefix of their content.
package analyzer

import (
	"github.com/ralt/rpmfiles/internal/archive"
	"github.com/ralt/rpmfiles/internal/models"
)

// Result is the classification of one entry
type Result struct {
	Flags    uint32
	Color    uint32
	Class    string
	Provides []models.Dependency
	Requires []models.Dependency
}

// Analyzer classifies an entry. Implementations must not modify info or
// header and must return the same result for the same inputs.
type Analyzer interface {
	Analyze(name string, info archive.EntryInfo, header []byte) (Result, error)
}

// Func adapts an ordinary function to the Analyzer interface
type Func func(name string, info archive.EntryInfo, header []byte) (Result, error)

// Analyze calls f(name, info, header)
func (f Func) Analyze(name string, info archive.EntryInfo, header []byte) (Result, error) {
	return f(name, info, header)
}
