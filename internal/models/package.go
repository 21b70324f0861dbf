package models

// PackageMetadata is the in-memory package descriptor the extractor fills
// and the patcher amends. Callers own it; this module only reads and appends.
type PackageMetadata struct {
	Name    string
	Version string
	Release string
	Arch    string

	Files    []FileRecord
	Provides []Dependency
	Requires []Dependency
}

// VersionRelease returns version-release
func (p *PackageMetadata) VersionRelease() string {
	return p.Version + "-" + p.Release
}

// NEVRA returns name-version-release.arch
func (p *PackageMetadata) NEVRA() string {
	s := p.Name + "-" + p.VersionRelease()
	if p.Arch != "" {
		s += "." + p.Arch
	}
	return s
}
