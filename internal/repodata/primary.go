// Package repodata renders package metadata as a createrepo primary.xml
// document.
package repodata

import (
	"encoding/xml"
	"strings"

	"github.com/ralt/rpmfiles/internal/models"
	"github.com/ralt/rpmfiles/internal/utils"
)

// Options carries the fields that come from the package file rather than
// from its metadata
type Options struct {
	Checksum string // sha256 of the package file
	Size     int64
	Location string
	Gzip     bool
}

type metadata struct {
	XMLName       xml.Name `xml:"metadata"`
	Xmlns         string   `xml:"xmlns,attr"`
	XmlnsRpm      string   `xml:"xmlns:rpm,attr"`
	PackagesCount int      `xml:"packages,attr"`
	Packages      []xmlPkg `xml:"package"`
}

type xmlPkg struct {
	Type     string       `xml:"type,attr"`
	Name     string       `xml:"name"`
	Arch     string       `xml:"arch"`
	Version  xmlVersion   `xml:"version"`
	Checksum *xmlChecksum `xml:"checksum,omitempty"`
	Size     *xmlSize     `xml:"size,omitempty"`
	Location *xmlLocation `xml:"location,omitempty"`
	Format   xmlFormat    `xml:"format"`
}

type xmlVersion struct {
	Epoch string `xml:"epoch,attr"`
	Ver   string `xml:"ver,attr"`
	Rel   string `xml:"rel,attr"`
}

type xmlChecksum struct {
	Type  string `xml:"type,attr"`
	Pkgid string `xml:"pkgid,attr"`
	Value string `xml:",chardata"`
}

type xmlSize struct {
	Package   int64 `xml:"package,attr"`
	Installed int64 `xml:"installed,attr"`
}

type xmlLocation struct {
	Href string `xml:"href,attr"`
}

type xmlFormat struct {
	Provides *xmlEntries `xml:"rpm:provides,omitempty"`
	Requires *xmlEntries `xml:"rpm:requires,omitempty"`
	Files    []xmlFile   `xml:"file"`
}

type xmlEntries struct {
	Entries []xmlEntry `xml:"rpm:entry"`
}

type xmlEntry struct {
	Name  string `xml:"name,attr"`
	Flags string `xml:"flags,attr,omitempty"`
	Epoch string `xml:"epoch,attr,omitempty"`
	Ver   string `xml:"ver,attr,omitempty"`
	Rel   string `xml:"rel,attr,omitempty"`
	Pre   string `xml:"pre,attr,omitempty"`
}

type xmlFile struct {
	Type string `xml:"type,attr,omitempty"`
	Path string `xml:",chardata"`
}

// Render builds primary.xml for a single package
func Render(pkg *models.PackageMetadata, opts Options) ([]byte, error) {
	p := xmlPkg{
		Type:    "rpm",
		Name:    pkg.Name,
		Arch:    pkg.Arch,
		Version: xmlVersion{Epoch: "0", Ver: pkg.Version, Rel: pkg.Release},
		Format: xmlFormat{
			Provides: entries(pkg.Provides, false),
			Requires: entries(pkg.Requires, true),
		},
	}

	if opts.Checksum != "" {
		p.Checksum = &xmlChecksum{Type: "sha256", Pkgid: "YES", Value: opts.Checksum}
	}
	if opts.Location != "" {
		p.Location = &xmlLocation{Href: opts.Location}
	}

	var installed int64
	for _, f := range pkg.Files {
		if f.IsRegular() {
			installed += f.Size
		}
		file := xmlFile{Path: "/" + strings.TrimPrefix(f.Name, "/")}
		if f.IsDir() {
			file.Type = "dir"
		}
		p.Format.Files = append(p.Format.Files, file)
	}
	if opts.Size > 0 || installed > 0 {
		p.Size = &xmlSize{Package: opts.Size, Installed: installed}
	}

	meta := metadata{
		Xmlns:         "http://linux.duke.edu/metadata/common",
		XmlnsRpm:      "http://linux.duke.edu/metadata/rpm",
		PackagesCount: 1,
		Packages:      []xmlPkg{p},
	}

	xmlBytes, err := xml.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, err
	}
	out := append([]byte(xml.Header), xmlBytes...)

	if opts.Gzip {
		return utils.GzipCompress(out)
	}
	return out, nil
}

// entries converts dependencies, leaving out rpmlib() requires the way
// createrepo does
func entries(deps []models.Dependency, requires bool) *xmlEntries {
	var out []xmlEntry
	for _, d := range deps {
		if requires && strings.HasPrefix(d.Name, "rpmlib(") {
			continue
		}
		e := xmlEntry{Name: d.Name, Flags: flagName(d.Flags)}
		if e.Flags != "" && d.Version != "" {
			e.Epoch, e.Ver, e.Rel = splitEVR(d.Version)
		}
		if requires && d.Flags&(models.SensePreReq|models.SenseScriptMask) != 0 {
			e.Pre = "1"
		}
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil
	}
	return &xmlEntries{Entries: out}
}

func flagName(f models.SenseFlags) string {
	switch f & models.SenseCompareMask {
	case models.SenseEqual:
		return "EQ"
	case models.SenseLess:
		return "LT"
	case models.SenseGreater:
		return "GT"
	case models.SenseLess | models.SenseEqual:
		return "LE"
	case models.SenseGreater | models.SenseEqual:
		return "GE"
	default:
		return ""
	}
}

// splitEVR splits [epoch:]version[-release]
func splitEVR(evr string) (string, string, string) {
	epoch := "0"
	if i := strings.IndexByte(evr, ':'); i >= 0 {
		epoch, evr = evr[:i], evr[i+1:]
	}
	if i := strings.LastIndexByte(evr, '-'); i >= 0 {
		return epoch, evr[:i], evr[i+1:]
	}
	return epoch, evr, ""
}
