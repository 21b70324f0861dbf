// Package patcher adds the synthetic dependencies rpmbuild would add to a
// package. The three stages must run in order, once each; the stage types
// make any other sequence impossible to express.
//
//	ld, err := patcher.New(pkg).Apply()    // self-provides
//	rl, err := ld.Apply()                  // ldconfig triggers
//	err = rl.Apply()                       // rpmlib requires
package patcher

import (
	"errors"
	"fmt"

	"github.com/ralt/rpmfiles/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrStageConsumed is returned when a stage is applied a second time
var ErrStageConsumed = errors.New("patch stage already applied")

type options struct {
	compressor Compressor
}

// Option configures the patcher
type Option func(*options)

// WithCompressor selects the payload compressor the package declares
func WithCompressor(c Compressor) Option {
	return func(o *options) {
		o.compressor = c
	}
}

type state struct {
	pkg  *models.PackageMetadata
	opts options
}

// SelfProvides is the first stage
type SelfProvides struct {
	s    *state
	done bool
}

// LdconfigTriggers is the second stage
type LdconfigTriggers struct {
	s    *state
	done bool
}

// RpmlibRequires is the third and last stage
type RpmlibRequires struct {
	s    *state
	done bool
}

// New starts patching pkg
func New(pkg *models.PackageMetadata, opts ...Option) *SelfProvides {
	s := &state{pkg: pkg, opts: options{compressor: CompressorXz}}
	for _, opt := range opts {
		opt(&s.opts)
	}
	return &SelfProvides{s: s}
}

// Patch runs all three stages on pkg
func Patch(pkg *models.PackageMetadata, opts ...Option) error {
	ld, err := New(pkg, opts...).Apply()
	if err != nil {
		return err
	}
	rl, err := ld.Apply()
	if err != nil {
		return err
	}
	return rl.Apply()
}

// Apply adds the self-provides and returns the next stage
func (st *SelfProvides) Apply() (*LdconfigTriggers, error) {
	if st.done {
		return nil, ErrStageConsumed
	}
	if st.s.pkg == nil {
		return nil, &models.Error{Type: models.ErrInvalidConfig, Err: errors.New("no package to patch")}
	}
	if st.s.pkg.Name == "" {
		return nil, &models.Error{Type: models.ErrInvalidConfig, Err: errors.New("package has no name")}
	}
	st.done = true

	addSelfProvides(st.s.pkg)
	return &LdconfigTriggers{s: st.s}, nil
}

// Apply adds the ldconfig trigger requires and returns the last stage
func (st *LdconfigTriggers) Apply() (*RpmlibRequires, error) {
	if st.done {
		return nil, ErrStageConsumed
	}
	st.done = true

	addLdconfigTriggers(st.s.pkg)
	return &RpmlibRequires{s: st.s}, nil
}

// Apply adds the rpmlib requires
func (st *RpmlibRequires) Apply() error {
	if st.done {
		return ErrStageConsumed
	}
	st.done = true

	if err := addRpmlibRequires(st.s.pkg, st.s.opts.compressor); err != nil {
		return fmt.Errorf("failed to add rpmlib requires: %w", err)
	}
	logrus.Debugf("Patched dependencies of %s: %d provides, %d requires",
		st.s.pkg.NEVRA(), len(st.s.pkg.Provides), len(st.s.pkg.Requires))
	return nil
}
