package cli

import (
	"fmt"
	"path/filepath"

	"github.com/ralt/rpmfiles/internal/models"
	"github.com/ralt/rpmfiles/internal/output"
	"github.com/ralt/rpmfiles/internal/patcher"
	"github.com/ralt/rpmfiles/internal/repodata"
	"github.com/ralt/rpmfiles/internal/rpmfile"
	"github.com/ralt/rpmfiles/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rebuilt is a package whose metadata was recomputed from its payload
type rebuilt struct {
	pkg        *models.PackageMetadata
	header     models.PackageMetadata
	mismatches int
}

// NewInspectCmd creates the inspect command
func NewInspectCmd(a *app) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "inspect PKG.rpm",
		Short: "Rebuild the metadata of an existing RPM from its payload",
		Long: `Reads the header and payload of an RPM, strips the dependencies
rpmbuild synthesizes, then extracts and patches them again. With --check
the rebuilt dependency lists are compared with the header's.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			r, err := a.rebuild(path)
			if err != nil {
				return err
			}
			if check && r.mismatches > 0 {
				return mismatchError(path, r.mismatches)
			}

			opts := output.Options{Repodata: repodata.Options{Location: filepath.Base(path)}}
			if sum, err := utils.CalculateChecksum(path); err == nil {
				opts.Repodata.Checksum = sum.SHA256
				opts.Repodata.Size = sum.Size
			} else {
				logrus.Warnf("Failed to checksum %s: %v", path, err)
			}

			return a.emit(cmd, r.pkg, opts)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Fail when the rebuilt dependencies differ from the header")

	return cmd
}

// rebuild reads an RPM, drops the synthesized dependencies from its header
// lists, and recomputes files and dependencies from the payload
func (a *app) rebuild(path string) (*rebuilt, error) {
	rpm, err := rpmfile.Open(path)
	if err != nil {
		return nil, err
	}
	defer rpm.Close()

	pkg := rpm.Declared()
	logrus.Infof("Inspecting %s", pkg.NEVRA())

	c, err := rpm.Payload()
	if err != nil {
		return nil, err
	}
	pkg.Files, err = extractFiles(c)
	c.Close()
	if err != nil {
		return nil, err
	}

	comp, err := rpm.Compressor()
	if err != nil {
		comp = a.cfg.PayloadCompressor()
		logrus.Warnf("Payload compressor %q has no rpmlib requirement, assuming %s", rpm.PayloadCompressor, comp)
	}
	if err := patcher.Patch(pkg, patcher.WithCompressor(comp)); err != nil {
		return nil, err
	}

	n := compareDependencies("provides", rpm.Metadata.Provides, pkg.Provides)
	n += compareDependencies("requires", rpm.Metadata.Requires, pkg.Requires)

	return &rebuilt{pkg: pkg, header: rpm.Metadata, mismatches: n}, nil
}

func mismatchError(path string, n int) error {
	return &models.Error{
		Type:  models.ErrAnalyze,
		Entry: path,
		Err:   fmt.Errorf("%d dependencies differ from the package header", n),
	}
}

// compareDependencies logs entries present on one side only and returns
// their count
func compareDependencies(kind string, header, rebuilt []models.Dependency) int {
	n := 0
	for _, d := range header {
		if !models.ContainsDependency(rebuilt, d) {
			logrus.Warnf("%s: %q in header, not rebuilt", kind, d)
			n++
		}
	}
	for _, d := range rebuilt {
		if !models.ContainsDependency(header, d) {
			logrus.Warnf("%s: %q rebuilt, not in header", kind, d)
			n++
		}
	}
	if n == 0 {
		logrus.Debugf("%s match the package header", kind)
	}
	return n
}
