// Package rpmfile lifts package metadata and the payload out of an existing
// RPM so its dependencies can be recomputed.
package rpmfile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ralt/rpmfiles/internal/archive"
	"github.com/ralt/rpmfiles/internal/models"
	"github.com/ralt/rpmfiles/internal/patcher"
	"github.com/sassoftware/go-rpmutils"
)

// Header tags holding the dependency lists and payload compressor
const (
	tagProvideName       = 1047
	tagRequireFlags      = 1048
	tagRequireName       = 1049
	tagRequireVersion    = 1050
	tagProvideFlags      = 1112
	tagProvideVersion    = 1113
	tagPayloadCompressor = 1125
)

// Package is an opened RPM file
type Package struct {
	Path              string
	Metadata          models.PackageMetadata
	PayloadCompressor string

	f        *os.File
	consumed bool
}

// Open reads the RPM headers of path. The file stays open, positioned at
// the payload, until Close.
func Open(path string) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.Error{Type: models.ErrFileOp, Entry: path, Err: err}
	}

	rpm, err := rpmutils.ReadRpm(f)
	if err != nil {
		f.Close()
		return nil, &models.Error{Type: models.ErrPackageParse, Entry: path, Err: fmt.Errorf("failed to read RPM: %w", err)}
	}

	provides, err := getDependencies(rpm, tagProvideName, tagProvideFlags, tagProvideVersion)
	if err != nil {
		f.Close()
		return nil, &models.Error{Type: models.ErrPackageParse, Entry: path, Err: fmt.Errorf("provides: %w", err)}
	}
	requires, err := getDependencies(rpm, tagRequireName, tagRequireFlags, tagRequireVersion)
	if err != nil {
		f.Close()
		return nil, &models.Error{Type: models.ErrPackageParse, Entry: path, Err: fmt.Errorf("requires: %w", err)}
	}

	return &Package{
		Path: path,
		Metadata: models.PackageMetadata{
			Name:     getStringTag(rpm, rpmutils.NAME),
			Version:  getStringTag(rpm, rpmutils.VERSION),
			Release:  getStringTag(rpm, rpmutils.RELEASE),
			Arch:     getStringTag(rpm, rpmutils.ARCH),
			Provides: provides,
			Requires: requires,
		},
		PayloadCompressor: getStringTag(rpm, tagPayloadCompressor),
		f:                 f,
	}, nil
}

// Payload returns a cursor over the payload. It can be called once.
func (p *Package) Payload() (archive.Cursor, error) {
	if p.consumed {
		return nil, errors.New("payload already read")
	}
	p.consumed = true

	c, err := archive.NewCursor(p.f)
	if err != nil {
		return nil, &models.Error{Type: models.ErrArchiveRead, Entry: p.Path, Err: err}
	}
	return c, nil
}

// Compressor maps the payload compressor tag to the patcher's vocabulary
func (p *Package) Compressor() (patcher.Compressor, error) {
	return patcher.ParseCompressor(p.PayloadCompressor)
}

// Declared returns a copy of the metadata without the entries the patcher
// synthesizes, i.e. what the packager declared.
func (p *Package) Declared() *models.PackageMetadata {
	meta := p.Metadata
	meta.Files = nil

	synthesized := patcher.SelfProvidesFor(&meta)
	meta.Provides = without(p.Metadata.Provides, synthesized)

	synthesized = patcher.LdconfigTriggerRequires()
	synthesized = append(synthesized, patcher.FixedRequires(patcher.CompressorXz)...)
	synthesized = append(synthesized, patcher.FixedRequires(patcher.CompressorZstd)...)
	meta.Requires = without(p.Metadata.Requires, synthesized)

	return &meta
}

// Close closes the underlying file
func (p *Package) Close() error {
	return p.f.Close()
}

func without(deps, drop []models.Dependency) []models.Dependency {
	var kept []models.Dependency
	for _, d := range deps {
		if models.ContainsDependency(drop, d) {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

func getDependencies(rpm *rpmutils.Rpm, nameTag, flagsTag, versionTag int) ([]models.Dependency, error) {
	names := getStringSliceTag(rpm, nameTag)
	flags := getIntSliceTag(rpm, flagsTag)
	versions := getStringSliceTag(rpm, versionTag)

	if len(names) == 0 {
		return nil, nil
	}
	if len(flags) != len(names) || len(versions) != len(names) {
		return nil, fmt.Errorf("mismatched tag counts: %d names, %d flags, %d versions", len(names), len(flags), len(versions))
	}

	deps := make([]models.Dependency, len(names))
	for i := range names {
		deps[i] = models.NewDependency(names[i], models.SenseFlags(flags[i]), versions[i])
	}
	return deps, nil
}

// getStringTag safely gets a string tag from RPM
func getStringTag(rpm *rpmutils.Rpm, tag int) string {
	val, err := rpm.Header.Get(tag)
	if err != nil {
		return ""
	}

	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	default:
		return fmt.Sprintf("%v", v)
	}

	return ""
}

// getStringSliceTag gets a string array tag, keeping empty entries since
// they are positional (an unversioned dependency has an empty version)
func getStringSliceTag(rpm *rpmutils.Rpm, tag int) []string {
	val, err := rpm.Header.Get(tag)
	if err != nil {
		return nil
	}
	switch v := val.(type) {
	case []string:
		out := make([]string, len(v))
		for i, s := range v {
			out[i] = strings.TrimSpace(s)
		}
		return out
	case string:
		return []string{v}
	}
	return nil
}

// getIntSliceTag gets an integer array tag from RPM
func getIntSliceTag(rpm *rpmutils.Rpm, tag int) []uint32 {
	val, err := rpm.Header.Get(tag)
	if err != nil {
		return nil
	}

	var out []uint32
	switch v := val.(type) {
	case []int:
		for _, i := range v {
			out = append(out, uint32(i))
		}
	case []int32:
		for _, i := range v {
			out = append(out, uint32(i))
		}
	case []uint32:
		out = append(out, v...)
	case []int64:
		for _, i := range v {
			out = append(out, uint32(i))
		}
	case []uint64:
		for _, i := range v {
			out = append(out, uint32(i))
		}
	case int:
		out = append(out, uint32(v))
	}
	return out
}
