package cli

import (
	"fmt"
	"strings"

	"github.com/ralt/rpmfiles/internal/models"
	"github.com/ralt/rpmfiles/internal/output"
	"github.com/ralt/rpmfiles/internal/patcher"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var operators = map[string]models.SenseFlags{
	"<":  models.SenseLess,
	"<=": models.SenseLess | models.SenseEqual,
	"=":  models.SenseEqual,
	"==": models.SenseEqual,
	">=": models.SenseGreater | models.SenseEqual,
	">":  models.SenseGreater,
}

// parseDependency parses "name" or "name OP version"
func parseDependency(s string) (models.Dependency, error) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
		return models.NewDependency(fields[0], models.SenseAny, ""), nil
	case 3:
		flags, ok := operators[fields[1]]
		if !ok {
			return models.Dependency{}, fmt.Errorf("dependency %q: unknown operator %q", s, fields[1])
		}
		return models.NewDependency(fields[0], flags, fields[2]), nil
	default:
		return models.Dependency{}, fmt.Errorf("dependency %q: want NAME or NAME OP VERSION", s)
	}
}

func parseDependencies(in []string) ([]models.Dependency, error) {
	var deps []models.Dependency
	for _, s := range in {
		d, err := parseDependency(s)
		if err != nil {
			return nil, &models.Error{Type: models.ErrInvalidConfig, Err: err}
		}
		deps = append(deps, d)
	}
	return deps, nil
}

// NewDepsCmd creates the deps command
func NewDepsCmd(a *app) *cobra.Command {
	var (
		pkg      models.PackageMetadata
		provides []string
		requires []string
	)

	cmd := &cobra.Command{
		Use:   "deps PAYLOAD",
		Short: "Extract a payload and complete the package dependency lists",
		Long: `Extracts the payload like "files", then adds the self-provides, the
ldconfig triggers and the rpmlib()/rtld() requirements rpmbuild writes, and
prints the package with its files and dependencies.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if pkg.Provides, err = parseDependencies(provides); err != nil {
				return err
			}
			if pkg.Requires, err = parseDependencies(requires); err != nil {
				return err
			}

			if pkg.Files, err = extractPath(args[0]); err != nil {
				return err
			}

			comp := a.cfg.PayloadCompressor()
			logrus.Infof("Patching dependencies of %s (payload %s)", pkg.NEVRA(), comp)
			if err := patcher.Patch(&pkg, patcher.WithCompressor(comp)); err != nil {
				return err
			}

			return a.emit(cmd, &pkg, output.Options{})
		},
	}

	cmd.Flags().StringVar(&pkg.Name, "name", "", "Package name")
	cmd.Flags().StringVar(&pkg.Version, "version", "", "Package version")
	cmd.Flags().StringVar(&pkg.Release, "release", "", "Package release")
	cmd.Flags().StringVar(&pkg.Arch, "arch", "", "Package architecture")
	cmd.Flags().StringArrayVar(&provides, "provides", nil, `Declared provide, "NAME" or "NAME OP VERSION" (repeatable)`)
	cmd.Flags().StringArrayVar(&requires, "requires", nil, `Declared require, "NAME" or "NAME OP VERSION" (repeatable)`)
	cmd.Flags().String("compressor", "", "Payload compressor the package declares (xz, zstd)")
	cmd.MarkFlagRequired("name")

	return cmd
}
