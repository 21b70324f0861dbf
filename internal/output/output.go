// Package output renders extracted and patched package metadata.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ralt/rpmfiles/internal/models"
	"github.com/ralt/rpmfiles/internal/repodata"
	"github.com/ralt/rpmfiles/internal/utils"
	"gopkg.in/yaml.v3"
)

// Format is an output format
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXML  Format = "xml"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML, FormatXML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json, yaml or xml)", s)
	}
}

// Options tunes rendering
type Options struct {
	// FilesOnly leaves out the package header and dependency lists
	FilesOnly bool
	// Repodata is used by the xml format
	Repodata repodata.Options
}

type fileView struct {
	Name       string   `json:"name" yaml:"name"`
	Mode       string   `json:"mode" yaml:"mode"`
	Size       int64    `json:"size" yaml:"size"`
	Digest     string   `json:"digest,omitempty" yaml:"digest,omitempty"`
	LinkTarget string   `json:"link_target,omitempty" yaml:"link_target,omitempty"`
	User       string   `json:"user" yaml:"user"`
	Group      string   `json:"group" yaml:"group"`
	Mtime      int64    `json:"mtime" yaml:"mtime"`
	Flags      uint32   `json:"flags,omitempty" yaml:"flags,omitempty"`
	Color      uint32   `json:"color,omitempty" yaml:"color,omitempty"`
	Class      string   `json:"class,omitempty" yaml:"class,omitempty"`
	Requires   []string `json:"requires,omitempty" yaml:"requires,omitempty"`
	Provides   []string `json:"provides,omitempty" yaml:"provides,omitempty"`
}

type packageView struct {
	Name     string     `json:"name,omitempty" yaml:"name,omitempty"`
	Version  string     `json:"version,omitempty" yaml:"version,omitempty"`
	Release  string     `json:"release,omitempty" yaml:"release,omitempty"`
	Arch     string     `json:"arch,omitempty" yaml:"arch,omitempty"`
	Provides []string   `json:"provides,omitempty" yaml:"provides,omitempty"`
	Requires []string   `json:"requires,omitempty" yaml:"requires,omitempty"`
	Files    []fileView `json:"files" yaml:"files"`
}

// Render writes pkg to w in the given format
func Render(w io.Writer, format Format, pkg *models.PackageMetadata, opts Options) error {
	var err error
	switch format {
	case FormatText, "":
		err = renderText(w, pkg, opts)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(view(pkg, opts))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(view(pkg, opts)); err == nil {
			err = enc.Close()
		}
	case FormatXML:
		var out []byte
		if out, err = repodata.Render(pkg, opts.Repodata); err == nil {
			_, err = w.Write(out)
		}
	default:
		err = fmt.Errorf("unknown output format %q", format)
	}

	if err != nil {
		return &models.Error{Type: models.ErrRender, Err: err}
	}
	return nil
}

func view(pkg *models.PackageMetadata, opts Options) packageView {
	v := packageView{Files: make([]fileView, 0, len(pkg.Files))}
	if !opts.FilesOnly {
		v.Name, v.Version, v.Release, v.Arch = pkg.Name, pkg.Version, pkg.Release, pkg.Arch
		v.Provides = depStrings(pkg.Provides)
		v.Requires = depStrings(pkg.Requires)
	}

	for _, f := range pkg.Files {
		v.Files = append(v.Files, fileView{
			Name:       f.Name,
			Mode:       fmt.Sprintf("%07o", f.Mode),
			Size:       f.Size,
			Digest:     utils.HexDigest(f.Digest),
			LinkTarget: f.LinkTarget,
			User:       f.User,
			Group:      f.Group,
			Mtime:      f.Mtime,
			Flags:      f.Flags,
			Color:      f.Color,
			Class:      f.Class,
			Requires:   depStrings(f.Requires),
			Provides:   depStrings(f.Provides),
		})
	}
	return v
}

func depStrings(deps []models.Dependency) []string {
	if len(deps) == 0 {
		return nil
	}
	out := make([]string, len(deps))
	for i, d := range deps {
		out[i] = d.String()
	}
	return out
}

func renderText(w io.Writer, pkg *models.PackageMetadata, opts Options) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	if !opts.FilesOnly {
		fmt.Fprintf(tw, "Package:\t%s\n", pkg.NEVRA())
	}
	for _, f := range pkg.Files {
		name := f.Name
		if f.LinkTarget != "" {
			name += " -> " + f.LinkTarget
		}
		digest := utils.HexDigest(f.Digest)
		if digest == "" {
			digest = "-"
		}
		fmt.Fprintf(tw, "%s\t%s:%s\t%d\t%s\t%s\n", ModeString(f.Mode), f.User, f.Group, f.Size, digest, name)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if opts.FilesOnly {
		return nil
	}

	for _, section := range []struct {
		title string
		deps  []models.Dependency
	}{
		{"Provides", pkg.Provides},
		{"Requires", pkg.Requires},
	} {
		if _, err := fmt.Fprintf(w, "%s:\n", section.title); err != nil {
			return err
		}
		for _, d := range section.deps {
			if _, err := fmt.Fprintf(w, "  %s\n", d); err != nil {
				return err
			}
		}
	}
	return nil
}

// ModeString renders POSIX mode bits like ls -l
func ModeString(mode uint32) string {
	var b [10]byte

	switch mode & models.ModeTypeMask {
	case models.ModeDir:
		b[0] = 'd'
	case models.ModeSymlink:
		b[0] = 'l'
	case models.ModeChar:
		b[0] = 'c'
	case models.ModeBlock:
		b[0] = 'b'
	case models.ModeFifo:
		b[0] = 'p'
	case models.ModeSocket:
		b[0] = 's'
	default:
		b[0] = '-'
	}

	const rwx = "rwxrwxrwx"
	for i := 0; i < 9; i++ {
		if mode&(1<<uint(8-i)) != 0 {
			b[i+1] = rwx[i]
		} else {
			b[i+1] = '-'
		}
	}

	special := func(bit uint32, pos int, set, unset byte) {
		if mode&bit == 0 {
			return
		}
		if b[pos] == '-' {
			b[pos] = unset
		} else {
			b[pos] = set
		}
	}
	special(04000, 3, 's', 'S')
	special(02000, 6, 's', 'S')
	special(01000, 9, 't', 'T')

	return string(b[:])
}
