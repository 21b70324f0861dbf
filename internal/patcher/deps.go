package patcher

import (
	"fmt"
	"strings"

	"github.com/ralt/rpmfiles/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	// RtldGNUHash marks binaries whose dynamic symbol table uses DT_GNU_HASH
	RtldGNUHash = "rtld(GNU_HASH)"

	// LdconfigPath is the interpreter of the linker cache triggers
	LdconfigPath = "/sbin/ldconfig"
)

// Compressor is the payload compressor a package declares support for
type Compressor int

const (
	CompressorXz Compressor = iota
	CompressorZstd
)

// String returns the string representation of Compressor
func (c Compressor) String() string {
	switch c {
	case CompressorZstd:
		return "zstd"
	default:
		return "xz"
	}
}

// ParseCompressor parses "xz" or "zstd"
func ParseCompressor(s string) (Compressor, error) {
	switch strings.ToLower(s) {
	case "", "xz":
		return CompressorXz, nil
	case "zstd":
		return CompressorZstd, nil
	default:
		return 0, fmt.Errorf("unsupported payload compressor %q (want xz or zstd)", s)
	}
}

func (c Compressor) requirement() models.Dependency {
	if c == CompressorZstd {
		return rpmlib("PayloadIsZstd", "5.4.18-1")
	}
	return rpmlib("PayloadIsXz", "5.2-1")
}

func rpmlib(feature, version string) models.Dependency {
	return models.NewDependency("rpmlib("+feature+")", models.SenseLess|models.SenseEqual|models.SenseRpmLib, version)
}

// SelfProvidesFor returns the provides naming pkg itself, by name and by
// name and architecture. x86_64 is spelled x86-64 in the latter.
func SelfProvidesFor(pkg *models.PackageMetadata) []models.Dependency {
	evr := pkg.VersionRelease()
	arch := strings.ReplaceAll(pkg.Arch, "x86_64", "x86-64")
	return []models.Dependency{
		models.NewDependency(pkg.Name, models.SenseEqual, evr),
		models.NewDependency(pkg.Name+"("+arch+")", models.SenseEqual, evr),
	}
}

// LdconfigTriggerRequires returns the post-install and post-uninstall
// ldconfig requires
func LdconfigTriggerRequires() []models.Dependency {
	return []models.Dependency{
		models.NewDependency(LdconfigPath, models.SenseInterp|models.SenseScriptPost, ""),
		models.NewDependency(LdconfigPath, models.SenseInterp|models.SenseScriptPostUn, ""),
	}
}

// FixedRequires returns the package-level requires closing the list, in
// output order. rtld(GNU_HASH) must stay fourth.
func FixedRequires(c Compressor) []models.Dependency {
	return []models.Dependency{
		rpmlib("CompressedFileNames", "3.0.4-1"),
		rpmlib("FileDigests", "4.6.0-1"),
		rpmlib("PayloadFilesHavePrefix", "4.0-1"),
		models.NewDependency(RtldGNUHash, models.SenseFindRequires, ""),
		c.requirement(),
	}
}

func addSelfProvides(pkg *models.PackageMetadata) {
	for _, dep := range SelfProvidesFor(pkg) {
		if models.ContainsDependency(pkg.Provides, dep) {
			continue
		}
		pkg.Provides = append(pkg.Provides, dep)
	}
	logrus.Debugf("Added self-provides for %s", pkg.Name)
}

func addLdconfigTriggers(pkg *models.PackageMetadata) {
	pkg.Requires = append(pkg.Requires, LdconfigTriggerRequires()...)
	logrus.Debug("Added ldconfig trigger requires")
}

func addRpmlibRequires(pkg *models.PackageMetadata, c Compressor) error {
	h := collectGNUHash(pkg.Files)
	h.remove()

	if n := len(pkg.Requires); n > 0 && pkg.Requires[n-1].Name == RtldGNUHash {
		pkg.Requires = pkg.Requires[:n-1]
	}
	pkg.Requires = append(pkg.Requires, FixedRequires(c)...)

	h.restore()
	if err := h.verify(); err != nil {
		return err
	}

	logrus.Debugf("Added rpmlib requires (%d files carry %s)", len(h.files), RtldGNUHash)
	return nil
}
