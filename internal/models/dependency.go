package models

import "strings"

// SenseFlags qualifies a dependency: version comparison, script timing and
// markers shared with the RPM header serializer (RPMSENSE_*).
type SenseFlags uint32

const (
	SenseAny          SenseFlags = 0
	SenseLess         SenseFlags = 0x02
	SenseGreater      SenseFlags = 0x04
	SenseEqual        SenseFlags = 0x08
	SensePreReq       SenseFlags = 0x40
	SenseInterp       SenseFlags = 0x100
	SenseScriptPre    SenseFlags = 0x200
	SenseScriptPost   SenseFlags = 0x400
	SenseScriptPreUn  SenseFlags = 0x800
	SenseScriptPostUn SenseFlags = 0x1000
	SenseFindRequires SenseFlags = 0x4000
	SenseRpmLib       SenseFlags = 0x1000000

	SenseCompareMask = SenseLess | SenseGreater | SenseEqual
	SenseScriptMask  = SenseScriptPre | SenseScriptPost | SenseScriptPreUn | SenseScriptPostUn
)

// Operator returns the comparison operator encoded in the flags, or "" when
// the dependency carries no version constraint.
func (f SenseFlags) Operator() string {
	switch f & SenseCompareMask {
	case SenseLess:
		return "<"
	case SenseGreater:
		return ">"
	case SenseEqual:
		return "="
	case SenseLess | SenseEqual:
		return "<="
	case SenseGreater | SenseEqual:
		return ">="
	case SenseLess | SenseGreater:
		return "!="
	default:
		return ""
	}
}

// Has reports whether all bits of mask are set
func (f SenseFlags) Has(mask SenseFlags) bool {
	return f&mask == mask
}

// Dependency is a single Provides/Requires capability declaration
type Dependency struct {
	Name    string     `json:"name" yaml:"name"`
	Flags   SenseFlags `json:"flags" yaml:"flags"`
	Version string     `json:"version,omitempty" yaml:"version,omitempty"`
}

// NewDependency creates a dependency
func NewDependency(name string, flags SenseFlags, version string) Dependency {
	return Dependency{Name: name, Flags: flags, Version: version}
}

// Equal reports structural equality
func (d Dependency) Equal(other Dependency) bool {
	return d.Name == other.Name && d.Flags == other.Flags && d.Version == other.Version
}

// String renders the dependency the way rpm -qR prints it
func (d Dependency) String() string {
	op := d.Flags.Operator()
	if op == "" || d.Version == "" {
		return d.Name
	}
	var b strings.Builder
	b.WriteString(d.Name)
	b.WriteByte(' ')
	b.WriteString(op)
	b.WriteByte(' ')
	b.WriteString(d.Version)
	return b.String()
}

// ContainsDependency reports whether deps holds an entry structurally equal to d
func ContainsDependency(deps []Dependency, d Dependency) bool {
	for _, dep := range deps {
		if dep.Equal(d) {
			return true
		}
	}
	return false
}

// IndexDependency returns the index of the first entry named name, or -1
func IndexDependency(deps []Dependency, name string) int {
	for i, dep := range deps {
		if dep.Name == name {
			return i
		}
	}
	return -1
}
