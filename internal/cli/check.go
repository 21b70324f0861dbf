package cli

import (
	"fmt"
	"os"

	"github.com/ralt/rpmfiles/internal/models"
	"github.com/ralt/rpmfiles/internal/scanner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewCheckCmd creates the check command
func NewCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check PATH...",
		Short: "Verify rebuilt dependencies of RPMs against their headers",
		Long: `Finds RPM packages in the given files and directories, rebuilds each
one's dependency lists from its payload as "inspect" does, and prints one
status line per package. Fails if any package differs or cannot be read.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := scanner.NewFileSystemScanner()

			var paths []string
			for _, arg := range args {
				info, err := os.Stat(arg)
				if err != nil {
					return &models.Error{Type: models.ErrFileOp, Entry: arg, Err: err}
				}
				if !info.IsDir() {
					paths = append(paths, arg)
					continue
				}
				found, err := sc.Scan(cmd.Context(), arg)
				if err != nil {
					return &models.Error{Type: models.ErrFileOp, Entry: arg, Err: err}
				}
				for _, p := range found {
					paths = append(paths, p.Path)
				}
			}

			if len(paths) == 0 {
				logrus.Warn("No packages found")
				return nil
			}

			failed := 0
			out := cmd.OutOrStdout()
			for _, path := range paths {
				r, err := a.rebuild(path)
				switch {
				case err != nil:
					failed++
					logrus.Errorf("%s: %v", path, err)
					fmt.Fprintf(out, "%s\terror\n", path)
				case r.mismatches > 0:
					failed++
					fmt.Fprintf(out, "%s\t%s\t%d mismatches\n", path, r.header.NEVRA(), r.mismatches)
				default:
					fmt.Fprintf(out, "%s\t%s\tok\n", path, r.header.NEVRA())
				}
			}

			if failed > 0 {
				return &models.Error{
					Type: models.ErrAnalyze,
					Err:  fmt.Errorf("%d of %d packages failed the check", failed, len(paths)),
				}
			}
			return nil
		},
	}
}
